package main

import (
	"context"

	"github.com/spf13/cobra"
)

func newHasDataCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "has-data",
		Short: "Report whether the store already holds imported data",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			has, err := a.svc.HasData(ctx)
			if err != nil {
				return withCode(exitDB, err)
			}
			return writeJSONLine(cmd.OutOrStdout(), map[string]any{"has_data": has})
		},
	}
}

func newDetectManagerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "detect-manager",
		Short: "Infer the primary manager rule from imported data and store it",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			det, err := a.svc.DetectPrimaryManagerRule(ctx)
			if err != nil {
				return withCode(exitDB, err)
			}
			return writeJSONLine(cmd.OutOrStdout(), map[string]any{
				"rule":               det.Rule,
				"sample_size":        det.SampleSize,
				"contract_matches":   det.ContractMatches,
				"department_matches": det.DepartmentMatches,
				"tie_break_applied":  det.TieBreakApplied,
				"persisted":          det.Persisted,
			})
		},
	}
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
