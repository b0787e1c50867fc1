package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

func exportCmd() *cobra.Command {
	var (
		input   string
		catalog string
		output  string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the results as a JSON property tree",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			g, err := loadCatalog(catalog)
			if err != nil {
				return err
			}
			dsn, err := storeDSN(input)
			if err != nil {
				return err
			}
			a, db, err := loadResults(ctx, dsn, g)
			if err != nil {
				return err
			}
			defer db.Close(ctx)

			var w io.Writer = os.Stdout
			if output != "" && output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("creating %s: %w", output, err)
				}
				defer f.Close()
				w = f
			}
			return a.WriteJSON(w)
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "", "Store path or DSN")
	cmd.Flags().StringVarP(&catalog, "catalog", "d", "", "Genome properties catalog file")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output JSON file (default stdout)")
	return cmd
}
