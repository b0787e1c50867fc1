package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// RunSQL runs an ad hoc query with positional arguments and returns each
// row keyed by column name.
func (c *Client) RunSQL(ctx context.Context, query string, args ...any) ([]map[string]any, error) {
	rows, err := c.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("running sql: %w", err)
	}
	out, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, fmt.Errorf("collecting sql rows: %w", err)
	}
	if out == nil {
		out = make([]map[string]any, 0)
	}
	return out, nil
}
