package mcp

import (
	"context"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"micromeda/internal/results"
)

// SQLRunner executes read-only queries against the store a server was
// loaded from.
type SQLRunner interface {
	RunSQL(ctx context.Context, query string, args ...any) ([]map[string]any, error)
}

type Server struct {
	results *results.Aggregator
	db      SQLRunner
	mcp     *sdk.Server
}

// NewServer exposes an aggregator as MCP tools. db may be nil, in which
// case the run_sql tool is not registered.
func NewServer(a *results.Aggregator, db SQLRunner, version string) *Server {
	s := &Server{
		results: a,
		db:      db,
		mcp: sdk.NewServer(&sdk.Implementation{
			Name:    "micromeda",
			Version: version,
		}, nil),
	}
	s.registerTools()
	return s
}

func (s *Server) Run(ctx context.Context, transport sdk.Transport) error {
	return s.mcp.Run(ctx, transport)
}
