package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/polisai/statvar/pkg/config"
	"github.com/polisai/statvar/pkg/domain"
	"github.com/polisai/statvar/pkg/logging"
	"github.com/polisai/statvar/pkg/policy"
	"github.com/polisai/statvar/pkg/telemetry"
	"github.com/polisai/statvar/pkg/variation"
)

const (
	defaultLogLevel = "info"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

// newRootCmd creates the root command for statvar
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "statvar",
		Version: version,
		Short:   "Enumerate every split of a point budget across five bounded slots",
		Long:    `statvar lists every 5-tuple of integers that sums to a budget while keeping
each slot between its minimum and a shared ceiling (99 by default).

Examples:
  statvar enumerate --budget 12 --min 1,1,1,1,1
  statvar count --budget 300 --min 10,10,10,10,10
  statvar serve --addr :8090`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to configuration file (YAML)")
	rootCmd.PersistentFlags().StringP("log-level", "l", defaultLogLevel, "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-pretty", false, "Human readable logs instead of JSON")

	rootCmd.AddCommand(
		newEnumerateCmd(),
		newCountCmd(),
		newServeCmd(),
		newWatchCmd(),
	)

	return rootCmd
}

// addQueryFlags registers the flags shared by enumerate, count, and watch.
func addQueryFlags(cmd *cobra.Command) {
	cmd.Flags().IntP("budget", "b", 0, "Total points to distribute")
	cmd.Flags().StringP("min", "m", "", "Comma separated per-slot minimums, e.g. 1,1,1,1,1")
	cmd.Flags().Int("ceiling", domain.DefaultCeiling, "Maximum value of any slot")
	cmd.Flags().Int("parallel", 0, "Worker goroutines for enumeration (0 keeps the configured value)")
	cmd.Flags().StringP("format", "f", "", "Output format: text, csv, json, yaml")
	cmd.Flags().String("policy", "", "Rego module that filters variations")
	cmd.Flags().String("entrypoint", "", "Policy decision path (default variations/allow)")
}

// loadConfig reads the config file named by --config and applies flag overrides.
// Only flags the user actually set override file values.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, fmt.Errorf("failed to get config flag: %w", err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if err := applyFlags(cmd, cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()

	if flags.Changed("log-level") {
		cfg.Logging.Level, _ = flags.GetString("log-level")
	}
	if flags.Changed("log-pretty") {
		cfg.Logging.Pretty, _ = flags.GetBool("log-pretty")
	}
	// Changed is false for flags a subcommand does not define.
	if flags.Changed("budget") {
		cfg.Budget, _ = flags.GetInt("budget")
	}
	if flags.Changed("min") {
		raw, _ := flags.GetString("min")
		mins, err := domain.ParseStats(raw)
		if err != nil {
			return err
		}
		cfg.Minimums = mins.Slice()
	}
	if flags.Changed("ceiling") {
		cfg.Ceiling, _ = flags.GetInt("ceiling")
	}
	if flags.Changed("parallel") {
		cfg.Parallelism, _ = flags.GetInt("parallel")
	}
	if flags.Changed("format") {
		cfg.Output.Format, _ = flags.GetString("format")
	}
	if flags.Changed("policy") {
		cfg.Policy.Path, _ = flags.GetString("policy")
	}
	if flags.Changed("entrypoint") {
		cfg.Policy.Entrypoint, _ = flags.GetString("entrypoint")
	}
	return nil
}

// runtime bundles what every subcommand needs once configuration is settled.
type runtime struct {
	cfg      *config.Config
	logger   *slog.Logger
	enum     *telemetry.Instrumented
	policy   *policy.Engine
	shutdown func(context.Context) error
}

func setup(cmd *cobra.Command) (*runtime, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return setupFromConfig(cmd.Context(), cfg)
}

func setupFromConfig(ctx context.Context, cfg *config.Config) (*runtime, error) {
	logger := logging.NewLogger(logging.Config{
		Level:  cfg.Logging.Level,
		Pretty: cfg.Logging.Pretty,
	})
	slog.SetDefault(logger)

	shutdown, err := telemetry.SetupProvider(ctx, telemetry.Config{
		ServiceName:    cfg.Telemetry.ServiceName,
		ServiceVersion: version,
		Ceiling:        cfg.Ceiling,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
	})
	if err != nil {
		return nil, fmt.Errorf("setup telemetry: %w", err)
	}

	rt := &runtime{
		cfg:      cfg,
		logger:   logger,
		enum:     telemetry.Instrument(variation.New(variation.WithCeiling(cfg.Ceiling)), logger),
		shutdown: shutdown,
	}

	if cfg.Policy.Path != "" {
		engine, err := policy.LoadEngine(ctx, cfg.Policy.Path, cfg.Policy.Entrypoint)
		if err != nil {
			_ = shutdown(ctx)
			return nil, err
		}
		rt.policy = engine
		logger.Debug("Policy loaded", "path", cfg.Policy.Path, "entrypoint", engine.Entrypoint())
	}

	return rt, nil
}

func (rt *runtime) close(ctx context.Context) {
	if err := rt.shutdown(ctx); err != nil {
		rt.logger.Warn("Telemetry shutdown failed", "error", err)
	}
}
