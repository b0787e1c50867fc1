package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"micromeda/internal/results"
	"micromeda/internal/store"
)

// Save replaces the store contents with the aggregator's caches in one
// transaction.
func (c *Client) Save(ctx context.Context, a *results.Aggregator) error {
	dump := store.Flatten(a)

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"sequences", "interproscan_matches", "step_assignments", "property_assignments", "samples", "metadata"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}

	meta := dump.Metadata()
	err = insertAll(ctx, tx, `INSERT INTO metadata (key, value) VALUES (?, ?)`, len(meta), func(stmt *sql.Stmt, i int) error {
		_, err := stmt.ExecContext(ctx, meta[i][0], meta[i][1])
		return err
	})
	if err != nil {
		return fmt.Errorf("writing metadata: %w", err)
	}

	err = insertAll(ctx, tx, `INSERT INTO samples (id, name) VALUES (?, ?)`, len(dump.Samples), func(stmt *sql.Stmt, i int) error {
		row := dump.Samples[i]
		_, err := stmt.ExecContext(ctx, row.ID, row.Name)
		return err
	})
	if err != nil {
		return fmt.Errorf("writing samples: %w", err)
	}

	err = insertAll(ctx, tx, `INSERT INTO property_assignments (sample_id, property_id, state) VALUES (?, ?, ?)`, len(dump.Properties), func(stmt *sql.Stmt, i int) error {
		row := dump.Properties[i]
		_, err := stmt.ExecContext(ctx, row.SampleID, row.PropertyID, row.State)
		return err
	})
	if err != nil {
		return fmt.Errorf("writing property assignments: %w", err)
	}

	err = insertAll(ctx, tx, `INSERT INTO step_assignments (sample_id, property_id, step_number, state) VALUES (?, ?, ?, ?)`, len(dump.Steps), func(stmt *sql.Stmt, i int) error {
		row := dump.Steps[i]
		_, err := stmt.ExecContext(ctx, row.SampleID, row.PropertyID, row.StepNumber, row.State)
		return err
	})
	if err != nil {
		return fmt.Errorf("writing step assignments: %w", err)
	}

	err = insertAll(ctx, tx, `INSERT INTO interproscan_matches (sample_id, protein_id, signature_id, score, start, stop) VALUES (?, ?, ?, ?, ?, ?)`, len(dump.Matches), func(stmt *sql.Stmt, i int) error {
		row := dump.Matches[i]
		var score sql.NullFloat64
		if row.Score != nil {
			score = sql.NullFloat64{Float64: *row.Score, Valid: true}
		}
		_, err := stmt.ExecContext(ctx, row.SampleID, row.ProteinID, row.SignatureID, score, row.Start, row.Stop)
		return err
	})
	if err != nil {
		return fmt.Errorf("writing matches: %w", err)
	}

	err = insertAll(ctx, tx, `INSERT INTO sequences (sample_id, protein_id, sequence) VALUES (?, ?, ?)`, len(dump.Sequences), func(stmt *sql.Stmt, i int) error {
		row := dump.Sequences[i]
		_, err := stmt.ExecContext(ctx, row.SampleID, row.ProteinID, row.Sequence)
		return err
	})
	if err != nil {
		return fmt.Errorf("writing sequences: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing save: %w", err)
	}
	return nil
}

func insertAll(ctx context.Context, tx *sql.Tx, query string, n int, exec func(*sql.Stmt, int) error) error {
	if n == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for i := 0; i < n; i++ {
		if err := exec(stmt, i); err != nil {
			return err
		}
	}
	return nil
}

// Load reads every cache back. The result has no graph bound.
func (c *Client) Load(ctx context.Context) (*results.Aggregator, error) {
	dump := &store.Dump{}

	err := queryRows(ctx, c.db, `SELECT key, value FROM metadata`, func(rows *sql.Rows) error {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return err
		}
		return dump.SetMetadata(key, value)
	})
	if err != nil {
		return nil, fmt.Errorf("reading metadata: %w", err)
	}

	err = queryRows(ctx, c.db, `SELECT id, name FROM samples ORDER BY id`, func(rows *sql.Rows) error {
		var row store.SampleRow
		if err := rows.Scan(&row.ID, &row.Name); err != nil {
			return err
		}
		dump.Samples = append(dump.Samples, row)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reading samples: %w", err)
	}
	if len(dump.Samples) == 0 {
		return nil, store.ErrEmpty
	}

	err = queryRows(ctx, c.db, `SELECT sample_id, property_id, state FROM property_assignments`, func(rows *sql.Rows) error {
		var row store.PropertyRow
		if err := rows.Scan(&row.SampleID, &row.PropertyID, &row.State); err != nil {
			return err
		}
		dump.Properties = append(dump.Properties, row)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reading property assignments: %w", err)
	}

	err = queryRows(ctx, c.db, `SELECT sample_id, property_id, step_number, state FROM step_assignments`, func(rows *sql.Rows) error {
		var row store.StepRow
		if err := rows.Scan(&row.SampleID, &row.PropertyID, &row.StepNumber, &row.State); err != nil {
			return err
		}
		dump.Steps = append(dump.Steps, row)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reading step assignments: %w", err)
	}

	err = queryRows(ctx, c.db, `SELECT sample_id, protein_id, signature_id, score, start, stop FROM interproscan_matches ORDER BY id`, func(rows *sql.Rows) error {
		var (
			row   store.MatchRow
			score sql.NullFloat64
		)
		if err := rows.Scan(&row.SampleID, &row.ProteinID, &row.SignatureID, &score, &row.Start, &row.Stop); err != nil {
			return err
		}
		if score.Valid {
			value := score.Float64
			row.Score = &value
		}
		dump.Matches = append(dump.Matches, row)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reading matches: %w", err)
	}

	err = queryRows(ctx, c.db, `SELECT sample_id, protein_id, sequence FROM sequences`, func(rows *sql.Rows) error {
		var row store.SequenceRow
		if err := rows.Scan(&row.SampleID, &row.ProteinID, &row.Sequence); err != nil {
			return err
		}
		dump.Sequences = append(dump.Sequences, row)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reading sequences: %w", err)
	}

	return dump.Aggregator()
}

func queryRows(ctx context.Context, db *sql.DB, query string, scan func(*sql.Rows) error) error {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		if err := scan(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (c *Client) Info(ctx context.Context) (*store.Info, error) {
	info := &store.Info{}
	counts := []struct {
		table string
		dest  *int64
	}{
		{"samples", &info.Samples},
		{"property_assignments", &info.PropertyAssignments},
		{"step_assignments", &info.StepAssignments},
		{"interproscan_matches", &info.Matches},
		{"sequences", &info.Sequences},
	}
	for _, count := range counts {
		if err := c.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+count.table).Scan(count.dest); err != nil {
			return nil, fmt.Errorf("counting %s: %w", count.table, err)
		}
	}

	err := queryRows(ctx, c.db, `SELECT key, value FROM metadata`, func(rows *sql.Rows) error {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return err
		}
		switch key {
		case store.MetaFingerprint:
			info.Fingerprint = value
		case store.MetaFormatVersion:
			info.FormatVersion = value
		case store.MetaWithMatches:
			info.MatchesRetained = value
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reading metadata: %w", err)
	}
	return info, nil
}
