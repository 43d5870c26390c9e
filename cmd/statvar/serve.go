package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/polisai/statvar/pkg/server"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve variation queries over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := setup(cmd)
			if err != nil {
				return err
			}
			defer rt.close(context.WithoutCancel(cmd.Context()))

			if cmd.Flags().Changed("addr") {
				rt.cfg.Server.Addr, _ = cmd.Flags().GetString("addr")
			}

			srv, err := server.New(server.Options{
				Config:     rt.cfg.Server,
				Enumerator: rt.enum,
				Policy:     rt.policy,
				Logger:     rt.logger,
			})
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			rt.logger.Info("Starting statvar server",
				"addr", rt.cfg.Server.Addr,
				"ceiling", rt.cfg.Ceiling,
				"max_results", rt.cfg.Server.MaxResults,
			)
			if err := srv.Start(ctx); err != nil {
				rt.logger.Error("Server error", "error", err)
				return err
			}
			rt.logger.Info("Server stopped")
			return nil
		},
	}
	cmd.Flags().String("addr", "", "Listen address (overrides config)")
	cmd.Flags().Int("ceiling", 0, "Maximum value of any slot")
	cmd.Flags().String("policy", "", "Rego module that filters variations")
	cmd.Flags().String("entrypoint", "", "Policy decision path (default variations/allow)")
	return cmd
}
