package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"micromeda/internal/store"

	_ "modernc.org/sqlite"
)

var _ store.Store = (*Client)(nil)

type Client struct {
	db *sql.DB
}

// New opens a store file. A rollback journal is used instead of WAL so the
// store stays a single file that can be copied around.
func New(ctx context.Context, dsn string) (*Client, error) {
	driverDSN, err := driverPath(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing sqlite DSN: %w", err)
	}

	db, err := sql.Open("sqlite", driverDSN)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}
	if driverDSN == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite: %w", err)
	}

	pragmas := []string{
		"PRAGMA busy_timeout = 30000;",
		"PRAGMA journal_mode = DELETE;",
		"PRAGMA foreign_keys = ON;",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("setting pragma %q: %w", pragma, err)
		}
	}

	return &Client{db: db}, nil
}

// Open opens the store at a file path.
func Open(ctx context.Context, path string) (*Client, error) {
	return New(ctx, "sqlite://"+path)
}

func (c *Client) Close(ctx context.Context) error {
	return c.db.Close()
}
