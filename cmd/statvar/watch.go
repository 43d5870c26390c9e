package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/polisai/statvar/pkg/config"
	"github.com/polisai/statvar/pkg/telemetry"
	"github.com/polisai/statvar/pkg/variation"
)

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-enumerate whenever the config file changes",
		Long: `Watch enumerates once using the file given by --config, then again each
time the file is saved, until interrupted. Saves that fail validation are
logged and skipped; the previous configuration stays in effect. Policy,
logging and telemetry settings are read once at start.`,
		Args: cobra.NoArgs,
		RunE: runWatch,
	}
	cmd.Flags().StringP("format", "f", "", "Output format: text, csv, json, yaml")
	return cmd
}

func runWatch(cmd *cobra.Command, _ []string) error {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		return errors.New("watch requires --config")
	}

	rt, err := setup(cmd)
	if err != nil {
		return err
	}
	defer rt.close(context.WithoutCancel(cmd.Context()))

	loader, err := config.NewLoader(path, rt.logger)
	if err != nil {
		return err
	}
	defer loader.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	format := rt.cfg.Output.Format
	out := cmd.OutOrStdout()

	// Reloads arrive on the watcher goroutine; keep output from interleaving.
	var mu sync.Mutex
	render := func(cfg *config.Config) {
		mu.Lock()
		defer mu.Unlock()
		if cmd.Flags().Changed("format") {
			cfg.Output.Format = format
		}
		fmt.Fprintf(out, "# budget=%d minimums=%v ceiling=%d\n", cfg.Budget, cfg.Minimums, cfg.Ceiling)
		if err := rt.withConfig(cfg).enumerate(ctx, out, cfg); err != nil {
			rt.logger.Error("Enumeration failed", "path", loader.Path(), "error", err)
		}
	}

	render(rt.cfg)
	if err := loader.Watch(render); err != nil {
		return err
	}
	rt.logger.Info("Watching configuration", "path", loader.Path())

	<-ctx.Done()
	rt.logger.Info("Watch stopped")
	return nil
}

// withConfig returns a runtime that enumerates with cfg. The policy engine,
// logger and telemetry are shared with rt.
func (rt *runtime) withConfig(cfg *config.Config) *runtime {
	next := *rt
	next.cfg = cfg
	if cfg.Ceiling != rt.enum.Enumerator().Ceiling() {
		next.enum = telemetry.Instrument(variation.New(variation.WithCeiling(cfg.Ceiling)), rt.logger)
	}
	return &next
}
