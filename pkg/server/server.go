package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"

	"github.com/polisai/statvar/pkg/config"
	"github.com/polisai/statvar/pkg/logging"
	"github.com/polisai/statvar/pkg/policy"
	"github.com/polisai/statvar/pkg/telemetry"
)

var errRateLimited = errors.New("rate limited")

// Options configures a Server.
type Options struct {
	Config     config.ServerConfig
	Enumerator *telemetry.Instrumented
	// Policy optionally filters variations before they are returned.
	Policy *policy.Engine
	Logger *slog.Logger
}

// Server serves variation queries over HTTP.
type Server struct {
	cfg     config.ServerConfig
	enum    *telemetry.Instrumented
	policy  *policy.Engine
	limiter *rate.Limiter
	metrics *Metrics
	logger  *slog.Logger

	httpServer *http.Server
	// cancelRequests aborts in-flight handlers once shutdown has drained or
	// timed out.
	cancelRequests context.CancelFunc
	mu             sync.Mutex
	stopOnce   sync.Once
}

// New constructs a Server.
func New(opts Options) (*Server, error) {
	if opts.Enumerator == nil {
		return nil, errors.New("server requires an enumerator")
	}
	if err := opts.Config.Validate(); err != nil {
		return nil, fmt.Errorf("server configuration: %w", err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	return &Server{
		cfg:     opts.Config,
		enum:    opts.Enumerator,
		policy:  opts.Policy,
		limiter: newLimiter(opts.Config.RateLimit.RPS, opts.Config.RateLimit.Burst),
		metrics: NewMetrics(),
		logger:  logger,
	}, nil
}

// Metrics returns the server's Prometheus metrics.
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

// Handler builds the routed, instrumented handler.
func (s *Server) Handler() http.Handler {
	api := http.NewServeMux()
	api.HandleFunc("GET /v1/variations", s.handleVariations)
	api.HandleFunc("GET /v1/count", s.handleCount)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", s.metrics.Handler())
	mux.Handle("/v1/", otelhttp.NewHandler(s.rateLimit(api), "statvar.api"))

	return requestID(s.metrics.Middleware(mux))
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	base, cancelRequests := context.WithCancel(context.WithoutCancel(ctx))
	s.mu.Lock()
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return base },
	}
	s.cancelRequests = cancelRequests
	srv := s.httpServer
	s.mu.Unlock()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server starting", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		cancelRequests()
		if err != nil {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.Stop(shutdownCtx)
	}
}

// Stop gracefully stops the HTTP server. Requests still running when ctx
// expires have their contexts cancelled.
func (s *Server) Stop(ctx context.Context) error {
	var err error
	s.stopOnce.Do(func() {
		s.mu.Lock()
		srv, cancel := s.httpServer, s.cancelRequests
		s.mu.Unlock()
		if srv == nil {
			return
		}
		defer cancel()
		s.logger.Info("Stopping HTTP server")
		if stopErr := srv.Shutdown(ctx); stopErr != nil {
			s.logger.Error("Failed to shut down HTTP server", "error", stopErr)
			err = stopErr
		}
	})
	return err
}
