package store

import (
	"context"
	"errors"
	"strconv"

	"micromeda/internal/results"
)

// FormatVersion is written to the metadata table of every saved store.
const FormatVersion = "1"

const (
	MetaFingerprint   = "graph_fingerprint"
	MetaFormatVersion = "format_version"
	MetaWithMatches   = "with_matches"
)

var ErrEmpty = errors.New("store contains no samples")

// Store persists an aggregator's caches. Save replaces the whole contents
// atomically; Load returns an aggregator with no graph bound.
type Store interface {
	Close(ctx context.Context) error
	EnsureSchema(ctx context.Context) error

	Save(ctx context.Context, a *results.Aggregator) error
	Load(ctx context.Context) (*results.Aggregator, error)
	Info(ctx context.Context) (*Info, error)

	RunSQL(ctx context.Context, query string, args ...any) ([]map[string]any, error)
}

// Info holds row counts for every table plus the stored metadata.
type Info struct {
	Samples             int64
	PropertyAssignments int64
	StepAssignments     int64
	Matches             int64
	Sequences           int64
	Fingerprint         string
	FormatVersion       string
	// MatchesRetained is the raw with_matches metadata value, empty for
	// stores written before the key existed.
	MatchesRetained string
}

// WithMatches reports whether the store holds the with-matches variant.
// Stores without the metadata key fall back to their row counts.
func (i *Info) WithMatches() bool {
	if retained, err := strconv.ParseBool(i.MatchesRetained); err == nil {
		return retained
	}
	return i.Sequences > 0 || i.Matches > 0
}
