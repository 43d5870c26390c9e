package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel/trace"

	"github.com/polisai/statvar/pkg/domain"
)

// VariationsResponse is returned by GET /v1/variations.
type VariationsResponse struct {
	Budget   int          `json:"budget"`
	Minimums domain.Stats `json:"minimums"`
	Ceiling  int          `json:"ceiling"`
	// Total counts every variation before policy filtering and limits.
	Total      uint64         `json:"total"`
	Returned   int            `json:"returned"`
	Truncated  bool           `json:"truncated"`
	Variations []domain.Stats `json:"variations"`
}

// CountResponse is returned by GET /v1/count.
type CountResponse struct {
	Budget   int          `json:"budget"`
	Minimums domain.Stats `json:"minimums"`
	Ceiling  int          `json:"ceiling"`
	Count    uint64       `json:"count"`
}

// HealthResponse is returned by GET /healthz.
type HealthResponse struct {
	Status  string `json:"status"`
	Ceiling int    `json:"ceiling"`
	Policy  string `json:"policy,omitempty"`
}

type query struct {
	budget   int
	minimums domain.Stats
	limit    int
}

func (s *Server) parseQuery(r *http.Request) (query, error) {
	q := query{limit: s.cfg.MaxResults}
	values := r.URL.Query()

	raw := strings.TrimSpace(values.Get("budget"))
	if raw == "" {
		return q, domain.InvalidArgument("budget", "is required")
	}
	budget, err := strconv.Atoi(raw)
	if err != nil {
		return q, domain.InvalidArgument("budget", "must be an integer")
	}
	q.budget = budget

	if raw := strings.TrimSpace(values.Get("min")); raw != "" {
		mins, err := domain.ParseStats(raw)
		if err != nil {
			return q, err
		}
		q.minimums = mins
	}

	if raw := strings.TrimSpace(values.Get("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			return q, domain.InvalidArgument("limit", "must be a positive integer")
		}
		q.limit = min(limit, s.cfg.MaxResults)
	}

	return q, nil
}

func (s *Server) handleVariations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q, err := s.parseQuery(r)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}

	total, err := s.enum.Count(ctx, q.budget, q.minimums)
	if err != nil {
		s.writeError(w, r, statusFor(err), err)
		return
	}

	resp := VariationsResponse{
		Budget:     q.budget,
		Minimums:   q.minimums,
		Ceiling:    s.enum.Enumerator().Ceiling(),
		Total:      total,
		Variations: make([]domain.Stats, 0, min(total, uint64(q.limit))),
	}

	// Nothing to walk; skip the search over an infeasible budget.
	if total > 0 {
		var evalErr error
		err = s.enum.Walk(ctx, q.budget, q.minimums, func(v domain.Stats) bool {
			if s.policy != nil {
				ok, err := s.policy.Allow(ctx, v)
				if err != nil {
					evalErr = err
					return false
				}
				if !ok {
					return true
				}
			}
			if len(resp.Variations) == q.limit {
				resp.Truncated = true
				return false
			}
			resp.Variations = append(resp.Variations, v)
			return true
		})
		if err == nil {
			err = evalErr
		}
		if err != nil {
			s.writeError(w, r, statusFor(err), err)
			return
		}
	}

	resp.Returned = len(resp.Variations)
	s.metrics.RecordVariations(resp.Returned, resp.Truncated)
	s.logger.Debug("Served variations",
		"request_id", RequestIDFromContext(ctx),
		"budget", q.budget,
		"total", total,
		"returned", resp.Returned,
		"truncated", resp.Truncated,
	)
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCount(w http.ResponseWriter, r *http.Request) {
	q, err := s.parseQuery(r)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}

	n, err := s.enum.Count(r.Context(), q.budget, q.minimums)
	if err != nil {
		s.writeError(w, r, statusFor(err), err)
		return
	}

	s.writeJSON(w, http.StatusOK, CountResponse{
		Budget:   q.budget,
		Minimums: q.minimums,
		Ceiling:  s.enum.Enumerator().Ceiling(),
		Count:    n,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	resp := HealthResponse{Status: "healthy", Ceiling: s.enum.Enumerator().Ceiling()}
	if s.policy != nil {
		resp.Policy = s.policy.Entrypoint()
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrCountOverflow):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	resp := domain.ErrorResponse{
		Code:      domain.CodeOf(err),
		Message:   err.Error(),
		RequestID: RequestIDFromContext(r.Context()),
	}
	if sc := trace.SpanContextFromContext(r.Context()); sc.HasTraceID() {
		resp.TraceID = sc.TraceID().String()
	}
	switch {
	case resp.Code == domain.CodeCancelled:
		s.logger.Debug("Request cancelled", "request_id", resp.RequestID, "path", r.URL.Path, "error", err)
	case status >= http.StatusInternalServerError:
		s.logger.Error("Request failed", "request_id", resp.RequestID, "path", r.URL.Path, "error", err)
		resp.Message = "internal error"
	}
	s.writeJSON(w, status, resp)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Debug("Failed to write response", "status", status, "error", err)
	}
}
