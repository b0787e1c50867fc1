package postgres

import (
	"context"
	"fmt"
)

const ddl = `
CREATE TABLE IF NOT EXISTS metadata (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS samples (
    id   BIGINT PRIMARY KEY,
    name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS property_assignments (
    sample_id   BIGINT NOT NULL REFERENCES samples(id) ON DELETE CASCADE,
    property_id TEXT NOT NULL,
    state       TEXT NOT NULL CHECK (state IN ('YES', 'PARTIAL', 'NO')),
    PRIMARY KEY (sample_id, property_id)
);

CREATE TABLE IF NOT EXISTS step_assignments (
    sample_id   BIGINT NOT NULL REFERENCES samples(id) ON DELETE CASCADE,
    property_id TEXT NOT NULL,
    step_number INTEGER NOT NULL,
    state       TEXT NOT NULL CHECK (state IN ('YES', 'PARTIAL', 'NO')),
    PRIMARY KEY (sample_id, property_id, step_number)
);

CREATE TABLE IF NOT EXISTS interproscan_matches (
    id           BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
    sample_id    BIGINT NOT NULL REFERENCES samples(id) ON DELETE CASCADE,
    protein_id   TEXT NOT NULL,
    signature_id TEXT NOT NULL,
    score        DOUBLE PRECISION,
    start        INTEGER NOT NULL DEFAULT 0,
    stop         INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS sequences (
    sample_id  BIGINT NOT NULL REFERENCES samples(id) ON DELETE CASCADE,
    protein_id TEXT NOT NULL,
    sequence   TEXT NOT NULL,
    PRIMARY KEY (sample_id, protein_id)
);

CREATE INDEX IF NOT EXISTS idx_matches_sample ON interproscan_matches (sample_id);
CREATE INDEX IF NOT EXISTS idx_matches_signature ON interproscan_matches (signature_id);
CREATE INDEX IF NOT EXISTS idx_step_assignments_property ON step_assignments (property_id, step_number);
`

// EnsureSchema runs the DDL in one call, which PostgreSQL executes inside an
// implicit transaction.
func (c *Client) EnsureSchema(ctx context.Context) error {
	if _, err := c.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("ensuring schema: %w", err)
	}
	return nil
}
