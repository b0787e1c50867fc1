package sqlite

import (
	"context"
	"fmt"
	"strings"
)

const ddl = `
CREATE TABLE IF NOT EXISTS metadata (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS samples (
	id   INTEGER PRIMARY KEY,
	name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS property_assignments (
	sample_id   INTEGER NOT NULL REFERENCES samples(id) ON DELETE CASCADE,
	property_id TEXT NOT NULL,
	state       TEXT NOT NULL CHECK (state IN ('YES', 'PARTIAL', 'NO')),
	PRIMARY KEY (sample_id, property_id)
);

CREATE TABLE IF NOT EXISTS step_assignments (
	sample_id   INTEGER NOT NULL REFERENCES samples(id) ON DELETE CASCADE,
	property_id TEXT NOT NULL,
	step_number INTEGER NOT NULL,
	state       TEXT NOT NULL CHECK (state IN ('YES', 'PARTIAL', 'NO')),
	PRIMARY KEY (sample_id, property_id, step_number)
);

CREATE TABLE IF NOT EXISTS interproscan_matches (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	sample_id    INTEGER NOT NULL REFERENCES samples(id) ON DELETE CASCADE,
	protein_id   TEXT NOT NULL,
	signature_id TEXT NOT NULL,
	score        REAL,
	start        INTEGER NOT NULL DEFAULT 0,
	stop         INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS sequences (
	sample_id  INTEGER NOT NULL REFERENCES samples(id) ON DELETE CASCADE,
	protein_id TEXT NOT NULL,
	sequence   TEXT NOT NULL,
	PRIMARY KEY (sample_id, protein_id)
);

CREATE INDEX IF NOT EXISTS idx_matches_sample ON interproscan_matches (sample_id);
CREATE INDEX IF NOT EXISTS idx_matches_signature ON interproscan_matches (signature_id);
CREATE INDEX IF NOT EXISTS idx_step_assignments_property ON step_assignments (property_id, step_number);
`

func (c *Client) EnsureSchema(ctx context.Context) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range splitStatements(ddl) {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("executing DDL: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing schema transaction: %w", err)
	}
	return nil
}

func splitStatements(ddl string) []string {
	var statements []string
	var current strings.Builder

	for _, line := range strings.Split(ddl, "\n") {
		stripped := strings.TrimSpace(line)
		if strings.HasPrefix(stripped, "--") {
			continue
		}
		current.WriteString(line)
		current.WriteString("\n")

		if strings.HasSuffix(stripped, ";") {
			statements = append(statements, current.String())
			current.Reset()
		}
	}

	if current.Len() > 0 {
		statements = append(statements, current.String())
	}
	return statements
}
