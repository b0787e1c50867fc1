package main

import (
	"context"
	"strings"

	"micromeda/internal/graph"
	"micromeda/internal/results"
	"micromeda/internal/store"
	"micromeda/internal/store/postgres"
	"micromeda/internal/store/sqlite"
)

// openStore accepts a postgres:// or sqlite:// DSN, or a plain file path
// which is opened as SQLite.
func openStore(ctx context.Context, dsn string) (store.Store, error) {
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		client, err := postgres.New(ctx, dsn)
		if err != nil {
			return nil, err
		}
		return client, nil
	case strings.HasPrefix(dsn, "sqlite://"):
		client, err := sqlite.New(ctx, dsn)
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		client, err := sqlite.Open(ctx, dsn)
		if err != nil {
			return nil, err
		}
		return client, nil
	}
}

// loadResults opens a store and loads it, binding the catalog when one is
// given. The caller closes the returned store.
func loadResults(ctx context.Context, dsn string, g *graph.Graph) (*results.Aggregator, store.Store, error) {
	db, err := openStore(ctx, dsn)
	if err != nil {
		return nil, nil, err
	}
	a, err := db.Load(ctx)
	if err != nil {
		db.Close(ctx)
		return nil, nil, err
	}
	if g == nil {
		return a, db, nil
	}
	bound, err := a.Bind(g)
	if err != nil {
		db.Close(ctx)
		return nil, nil, err
	}
	return bound, db, nil
}
