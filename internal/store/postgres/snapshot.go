package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"micromeda/internal/results"
	"micromeda/internal/store"
)

// Save replaces the stored results in one transaction, bulk loading rows
// with COPY.
func (c *Client) Save(ctx context.Context, a *results.Aggregator) error {
	dump := store.Flatten(a)

	tx, err := c.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `TRUNCATE sequences, interproscan_matches, step_assignments, property_assignments, samples, metadata`); err != nil {
		return fmt.Errorf("clearing results: %w", err)
	}

	var meta [][]any
	for _, kv := range dump.Metadata() {
		meta = append(meta, []any{kv[0], kv[1]})
	}
	copies := []struct {
		table   string
		columns []string
		rows    pgx.CopyFromSource
	}{
		{"metadata", []string{"key", "value"}, pgx.CopyFromRows(meta)},
		{"samples", []string{"id", "name"}, pgx.CopyFromSlice(len(dump.Samples), func(i int) ([]any, error) {
			row := dump.Samples[i]
			return []any{row.ID, row.Name}, nil
		})},
		{"property_assignments", []string{"sample_id", "property_id", "state"}, pgx.CopyFromSlice(len(dump.Properties), func(i int) ([]any, error) {
			row := dump.Properties[i]
			return []any{row.SampleID, row.PropertyID, row.State}, nil
		})},
		{"step_assignments", []string{"sample_id", "property_id", "step_number", "state"}, pgx.CopyFromSlice(len(dump.Steps), func(i int) ([]any, error) {
			row := dump.Steps[i]
			return []any{row.SampleID, row.PropertyID, int32(row.StepNumber), row.State}, nil
		})},
		{"interproscan_matches", []string{"sample_id", "protein_id", "signature_id", "score", "start", "stop"}, pgx.CopyFromSlice(len(dump.Matches), func(i int) ([]any, error) {
			row := dump.Matches[i]
			return []any{row.SampleID, row.ProteinID, row.SignatureID, row.Score, int32(row.Start), int32(row.Stop)}, nil
		})},
		{"sequences", []string{"sample_id", "protein_id", "sequence"}, pgx.CopyFromSlice(len(dump.Sequences), func(i int) ([]any, error) {
			row := dump.Sequences[i]
			return []any{row.SampleID, row.ProteinID, row.Sequence}, nil
		})},
	}
	for _, cp := range copies {
		if _, err := tx.CopyFrom(ctx, pgx.Identifier{cp.table}, cp.columns, cp.rows); err != nil {
			return fmt.Errorf("writing %s: %w", cp.table, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing save: %w", err)
	}
	return nil
}

// Load reads every cache back. The result has no graph bound.
func (c *Client) Load(ctx context.Context) (*results.Aggregator, error) {
	dump := &store.Dump{}

	rows, _ := c.pool.Query(ctx, `SELECT key, value FROM metadata`)
	meta, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) ([2]string, error) {
		var kv [2]string
		err := row.Scan(&kv[0], &kv[1])
		return kv, err
	})
	if err != nil {
		return nil, fmt.Errorf("reading metadata: %w", err)
	}
	for _, kv := range meta {
		if err := dump.SetMetadata(kv[0], kv[1]); err != nil {
			return nil, err
		}
	}

	rows, _ = c.pool.Query(ctx, `SELECT id, name FROM samples ORDER BY id`)
	dump.Samples, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (store.SampleRow, error) {
		var s store.SampleRow
		err := row.Scan(&s.ID, &s.Name)
		return s, err
	})
	if err != nil {
		return nil, fmt.Errorf("reading samples: %w", err)
	}
	if len(dump.Samples) == 0 {
		return nil, store.ErrEmpty
	}

	rows, _ = c.pool.Query(ctx, `SELECT sample_id, property_id, state FROM property_assignments`)
	dump.Properties, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (store.PropertyRow, error) {
		var p store.PropertyRow
		err := row.Scan(&p.SampleID, &p.PropertyID, &p.State)
		return p, err
	})
	if err != nil {
		return nil, fmt.Errorf("reading property assignments: %w", err)
	}

	rows, _ = c.pool.Query(ctx, `SELECT sample_id, property_id, step_number, state FROM step_assignments`)
	dump.Steps, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (store.StepRow, error) {
		var (
			s      store.StepRow
			number int32
		)
		err := row.Scan(&s.SampleID, &s.PropertyID, &number, &s.State)
		s.StepNumber = int(number)
		return s, err
	})
	if err != nil {
		return nil, fmt.Errorf("reading step assignments: %w", err)
	}

	rows, _ = c.pool.Query(ctx, `SELECT sample_id, protein_id, signature_id, score, start, stop FROM interproscan_matches ORDER BY id`)
	dump.Matches, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (store.MatchRow, error) {
		var (
			m           store.MatchRow
			start, stop int32
		)
		err := row.Scan(&m.SampleID, &m.ProteinID, &m.SignatureID, &m.Score, &start, &stop)
		m.Start, m.Stop = int(start), int(stop)
		return m, err
	})
	if err != nil {
		return nil, fmt.Errorf("reading matches: %w", err)
	}

	rows, _ = c.pool.Query(ctx, `SELECT sample_id, protein_id, sequence FROM sequences`)
	dump.Sequences, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (store.SequenceRow, error) {
		var s store.SequenceRow
		err := row.Scan(&s.SampleID, &s.ProteinID, &s.Sequence)
		return s, err
	})
	if err != nil {
		return nil, fmt.Errorf("reading sequences: %w", err)
	}

	return dump.Aggregator()
}

func (c *Client) Info(ctx context.Context) (*store.Info, error) {
	info := &store.Info{}
	err := c.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM samples),
			(SELECT COUNT(*) FROM property_assignments),
			(SELECT COUNT(*) FROM step_assignments),
			(SELECT COUNT(*) FROM interproscan_matches),
			(SELECT COUNT(*) FROM sequences),
			COALESCE((SELECT value FROM metadata WHERE key = $1), ''),
			COALESCE((SELECT value FROM metadata WHERE key = $2), '')
	`, store.MetaFingerprint, store.MetaFormatVersion).Scan(
		&info.Samples,
		&info.PropertyAssignments,
		&info.StepAssignments,
		&info.Matches,
		&info.Sequences,
		&info.Fingerprint,
		&info.FormatVersion,
		&info.MatchesRetained,
	)
	if err != nil {
		return nil, fmt.Errorf("counting rows: %w", err)
	}
	return info, nil
}
