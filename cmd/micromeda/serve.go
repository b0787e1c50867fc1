package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"micromeda/internal/graph"
	"micromeda/internal/mcp"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

func serveCmd() *cobra.Command {
	var (
		input   string
		catalog string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server over stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			dsn, err := storeDSN(input)
			if err != nil {
				return err
			}

			// Without a catalog the tools still answer, only without names
			// and step matches.
			var g *graph.Graph
			if catalog != "" || cfg.Catalog != "" {
				if g, err = loadCatalog(catalog); err != nil {
					return err
				}
			}

			a, db, err := loadResults(ctx, dsn, g)
			if err != nil {
				return err
			}
			defer db.Close(ctx)

			logger.Info("serving results", zap.Int("samples", a.Len()), zap.Bool("catalog", g != nil))
			server := mcp.NewServer(a, db, version)
			return server.Run(ctx, &sdk.StdioTransport{})
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "", "Store path or DSN")
	cmd.Flags().StringVarP(&catalog, "catalog", "d", "", "Genome properties catalog file")
	return cmd
}
