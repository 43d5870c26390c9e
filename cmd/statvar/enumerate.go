package main

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/polisai/statvar/pkg/config"
	"github.com/polisai/statvar/pkg/output"
)

func newEnumerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "enumerate",
		Aliases: []string{"enum", "ls"},
		Short:   "Print every variation for a budget and per-slot minimums",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := setup(cmd)
			if err != nil {
				return err
			}
			defer rt.close(context.WithoutCancel(cmd.Context()))

			return rt.enumerate(cmd.Context(), cmd.OutOrStdout(), rt.cfg)
		},
	}
	addQueryFlags(cmd)
	return cmd
}

// enumerate runs one enumeration for cfg, filters it through the policy if
// any, and writes the result.
func (rt *runtime) enumerate(ctx context.Context, w io.Writer, cfg *config.Config) error {
	mins, err := cfg.Stats()
	if err != nil {
		return err
	}

	vars, err := rt.enum.Enumerate(ctx, cfg.Budget, mins, cfg.Parallelism)
	if err != nil {
		return err
	}

	if rt.policy != nil {
		before := len(vars)
		vars, err = rt.policy.Apply(ctx, vars)
		if err != nil {
			return err
		}
		rt.logger.Debug("Policy applied", "before", before, "after", len(vars))
	}

	rt.logger.Info("Enumeration complete",
		"budget", cfg.Budget,
		"minimums", mins.String(),
		"ceiling", cfg.Ceiling,
		"variations", len(vars),
	)
	return output.Write(w, cfg.Output.Format, vars)
}
