package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

func queryMatchesCmd() *cobra.Command {
	var (
		top     bool
		samples []string
		fasta   string
	)
	cmd := &cobra.Command{
		Use:   "matches <property_id> <step>",
		Short: "Print the annotation matches supporting a step",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			number, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid step number %q", args[1])
			}

			ctx := cmd.Context()
			a, db, err := openQuery(ctx, true)
			if err != nil {
				return err
			}
			defer db.Close(ctx)

			if fasta != "" {
				f, err := os.Create(fasta)
				if err != nil {
					return fmt.Errorf("creating %s: %w", fasta, err)
				}
				defer f.Close()
				return a.WriteMatchesFASTA(f, args[0], number, top, samples...)
			}

			matches, err := a.StepMatches(args[0], number, top, samples...)
			if err != nil {
				return err
			}
			writeRow(os.Stdout, "sample", "protein_id", "signature_id", "score", "start", "stop")
			for _, match := range matches {
				score := "-"
				if match.Score != nil {
					score = strconv.FormatFloat(*match.Score, 'g', -1, 64)
				}
				writeRow(os.Stdout, match.Sample, match.ProteinID, match.SignatureID, score,
					strconv.Itoa(match.Start), strconv.Itoa(match.Stop))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&top, "top", false, "Keep only the lowest scoring match per sample")
	cmd.Flags().StringSliceVar(&samples, "sample", nil, "Restrict to these samples (repeatable)")
	cmd.Flags().StringVar(&fasta, "fasta", "", "Write the supporting protein sequences to this FASTA file instead")
	return cmd
}
