package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/polisai/statvar/pkg/domain"
)

func newCountCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "count",
		Short: "Print how many variations exist without listing them",
		Long: `Count uses a closed form, so it answers instantly even for budgets whose
full listing would not fit in memory. A policy, if configured, is applied by
enumerating and filtering instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := setup(cmd)
			if err != nil {
				return err
			}
			defer rt.close(context.WithoutCancel(cmd.Context()))

			mins, err := rt.cfg.Stats()
			if err != nil {
				return err
			}

			n, err := rt.count(cmd.Context(), rt.cfg.Budget, mins)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), n)
			return err
		},
	}
	addQueryFlags(cmd)
	return cmd
}

func (rt *runtime) count(ctx context.Context, budget int, mins domain.Stats) (uint64, error) {
	if rt.policy == nil {
		return rt.enum.Count(ctx, budget, mins)
	}

	var (
		n       uint64
		evalErr error
	)
	err := rt.enum.Walk(ctx, budget, mins, func(v domain.Stats) bool {
		ok, err := rt.policy.Allow(ctx, v)
		if err != nil {
			evalErr = err
			return false
		}
		if ok {
			n++
		}
		return true
	})
	if err != nil {
		return 0, err
	}
	return n, evalErr
}
