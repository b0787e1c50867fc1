package main

import (
	"os"

	"github.com/spf13/cobra"

	"micromeda/internal/graph"
	"micromeda/internal/results"
)

type propertyProjection func(*results.Aggregator, ...string) (*results.Matrix[string], error)

type stepProjection func(*results.Aggregator, ...string) (*results.Matrix[graph.StepKey], error)

func queryPropertyCmd() *cobra.Command {
	return matrixCmd("property [property_id...]", "Print property assignments per sample", false,
		(*results.Aggregator).PropertyMatrix, (*results.Aggregator).StepMatrix)
}

func queryStepCmd() *cobra.Command {
	return matrixCmd("step [property_id...]", "Print step assignments per sample", true,
		(*results.Aggregator).PropertyMatrix, (*results.Aggregator).StepMatrix)
}

func queryDifferingCmd() *cobra.Command {
	return matrixCmd("differing [property_id...]", "Print properties whose assignment differs between samples", false,
		(*results.Aggregator).Differing, (*results.Aggregator).DifferingSteps)
}

func querySupportedCmd() *cobra.Command {
	return matrixCmd("supported [property_id...]", "Print properties present in at least one sample", false,
		(*results.Aggregator).Supported, (*results.Aggregator).SupportedSteps)
}

func matrixCmd(use, short string, defaultSteps bool, properties propertyProjection, steps stepProjection) *cobra.Command {
	var showSteps bool
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, db, err := openQuery(ctx, false)
			if err != nil {
				return err
			}
			defer db.Close(ctx)

			if showSteps {
				m, err := steps(a, args...)
				if err != nil {
					return err
				}
				writeStepMatrix(os.Stdout, a, m)
				return nil
			}
			m, err := properties(a, args...)
			if err != nil {
				return err
			}
			writePropertyMatrix(os.Stdout, a, m)
			return nil
		},
	}
	cmd.Flags().BoolVar(&showSteps, "steps", defaultSteps, "Report steps instead of properties")
	return cmd
}
