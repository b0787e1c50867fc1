package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"micromeda/internal/assign"
	"micromeda/internal/graph"
	"micromeda/internal/results"
	"micromeda/internal/store"
)

var (
	queryInput   string
	queryCatalog string
)

func queryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Query a result store from the CLI",
	}
	cmd.PersistentFlags().StringVarP(&queryInput, "input", "i", "", "Store path or DSN")
	cmd.PersistentFlags().StringVarP(&queryCatalog, "catalog", "d", "", "Genome properties catalog, for names and step matches")
	cmd.AddCommand(queryPropertyCmd())
	cmd.AddCommand(queryStepCmd())
	cmd.AddCommand(queryDifferingCmd())
	cmd.AddCommand(querySupportedCmd())
	cmd.AddCommand(querySummaryCmd())
	cmd.AddCommand(queryMatchesCmd())
	cmd.AddCommand(querySQLCmd())
	return cmd
}

// openQuery loads the store named by --input. The catalog is bound when
// one is configured or required.
func openQuery(ctx context.Context, requireCatalog bool) (*results.Aggregator, store.Store, error) {
	dsn, err := storeDSN(queryInput)
	if err != nil {
		return nil, nil, err
	}
	var g *graph.Graph
	if requireCatalog || queryCatalog != "" || cfg.Catalog != "" {
		if g, err = loadCatalog(queryCatalog); err != nil {
			return nil, nil, err
		}
	}
	return loadResults(ctx, dsn, g)
}

func writeRow(w io.Writer, fields ...string) {
	fmt.Fprintln(w, strings.Join(fields, "\t"))
}

func stateFields(states []assign.State) []string {
	fields := make([]string, len(states))
	for i, state := range states {
		fields[i] = state.String()
	}
	return fields
}

func writePropertyMatrix(w io.Writer, a *results.Aggregator, m *results.Matrix[string]) {
	writeRow(w, append([]string{"property_id", "name"}, m.Samples...)...)
	for i, id := range m.Rows {
		name, _ := a.PropertyName(id)
		writeRow(w, append([]string{id, name}, stateFields(m.Cells[i])...)...)
	}
}

func writeStepMatrix(w io.Writer, a *results.Aggregator, m *results.Matrix[graph.StepKey]) {
	writeRow(w, append([]string{"property_id", "step", "name"}, m.Samples...)...)
	for i, key := range m.Rows {
		name, _ := a.StepName(key)
		writeRow(w, append([]string{key.PropertyID, fmt.Sprint(key.Number), name}, stateFields(m.Cells[i])...)...)
	}
}
