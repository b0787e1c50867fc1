package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"micromeda/internal/build"
	"micromeda/internal/metrics"
	"micromeda/internal/store"
)

func mergeCmd() *cobra.Command {
	var (
		inputs  []string
		catalog string
		output  string
	)
	cmd := &cobra.Command{
		Use:   "merge",
		Short: "Combine two or more result stores built from the same catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(inputs) < 2 {
				return fmt.Errorf("at least two --input stores are required")
			}
			if output == "" {
				return fmt.Errorf("--output is required")
			}
			return runMerge(cmd, inputs, catalog, output)
		},
	}
	cmd.Flags().StringSliceVarP(&inputs, "input", "i", nil, "Input store path or DSN (repeatable)")
	cmd.Flags().StringVarP(&catalog, "catalog", "d", "", "Genome properties catalog file")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output store path or DSN")
	return cmd
}

func runMerge(cmd *cobra.Command, inputs []string, catalog, output string) error {
	ctx := cmd.Context()

	g, err := loadCatalog(catalog)
	if err != nil {
		return err
	}

	sources := make([]store.Store, 0, len(inputs))
	defer func() {
		for _, source := range sources {
			source.Close(ctx)
		}
	}()
	for _, input := range inputs {
		source, err := openStore(ctx, input)
		if err != nil {
			return fmt.Errorf("opening %s: %w", input, err)
		}
		sources = append(sources, source)
	}

	out, err := openStore(ctx, output)
	if err != nil {
		return err
	}
	defer out.Close(ctx)

	run := metrics.NewRun()
	merged, err := build.Merge(ctx, g, sources, out, build.MergeOptions{Logger: logger, Metrics: run})
	if err != nil {
		return err
	}
	if err := writeMetrics(run); err != nil {
		return err
	}

	fmt.Fprintln(os.Stdout, "Merge complete.")
	fmt.Fprintf(os.Stdout, "  Output:  %s\n", output)
	fmt.Fprintf(os.Stdout, "  Inputs:  %d\n", len(inputs))
	fmt.Fprintf(os.Stdout, "  Samples: %d\n", merged.Len())
	return nil
}
