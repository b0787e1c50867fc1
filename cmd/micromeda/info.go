package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func infoCmd() *cobra.Command {
	var input string
	cmd := &cobra.Command{
		Use:   "info",
		Short: "Print row counts of a result store",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			dsn, err := storeDSN(input)
			if err != nil {
				return err
			}
			db, err := openStore(ctx, dsn)
			if err != nil {
				return err
			}
			defer db.Close(ctx)

			info, err := db.Info(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "Samples:              %d\n", info.Samples)
			fmt.Fprintf(os.Stdout, "Property assignments: %d\n", info.PropertyAssignments)
			fmt.Fprintf(os.Stdout, "Step assignments:     %d\n", info.StepAssignments)
			fmt.Fprintf(os.Stdout, "InterProScan matches: %d\n", info.Matches)
			fmt.Fprintf(os.Stdout, "Sequences:            %d\n", info.Sequences)
			fmt.Fprintf(os.Stdout, "With matches:         %t\n", info.WithMatches())
			fmt.Fprintf(os.Stdout, "Catalog fingerprint:  %s\n", info.Fingerprint)
			fmt.Fprintf(os.Stdout, "Format version:       %s\n", info.FormatVersion)
			return nil
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "", "Store path or DSN")
	return cmd
}
