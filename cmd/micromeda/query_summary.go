package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"micromeda/internal/assign"
)

func querySummaryCmd() *cobra.Command {
	var (
		normalize bool
		steps     bool
	)
	cmd := &cobra.Command{
		Use:   "summary [property_id...]",
		Short: "Count samples per assignment state",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, db, err := openQuery(ctx, false)
			if err != nil {
				return err
			}
			defer db.Close(ctx)

			format := func(v float64) string {
				if normalize {
					return strconv.FormatFloat(v, 'f', 3, 64)
				}
				return strconv.FormatFloat(v, 'f', 0, 64)
			}
			states := []assign.State{assign.Yes, assign.Partial, assign.No}

			if steps {
				tallies, err := a.StepSummary(normalize, args...)
				if err != nil {
					return err
				}
				writeRow(os.Stdout, "property_id", "step", "YES", "PARTIAL", "NO")
				for _, tally := range tallies {
					fields := []string{tally.Row.PropertyID, fmt.Sprint(tally.Row.Number)}
					for _, state := range states {
						fields = append(fields, format(tally.Of(state)))
					}
					writeRow(os.Stdout, fields...)
				}
				return nil
			}

			tallies, err := a.Summary(normalize, args...)
			if err != nil {
				return err
			}
			writeRow(os.Stdout, "property_id", "YES", "PARTIAL", "NO")
			for _, tally := range tallies {
				fields := []string{tally.Row}
				for _, state := range states {
					fields = append(fields, format(tally.Of(state)))
				}
				writeRow(os.Stdout, fields...)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&normalize, "normalize", false, "Report fractions of samples instead of counts")
	cmd.Flags().BoolVar(&steps, "steps", false, "Summarize steps instead of properties")
	return cmd
}
