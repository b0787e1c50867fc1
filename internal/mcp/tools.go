package mcp

import (
	"context"
	"fmt"
	"strings"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"micromeda/internal/assign"
	"micromeda/internal/graph"
	"micromeda/internal/results"
)

type ListSamplesInput struct{}

type GetPropertyResultInput struct {
	PropertyID string   `json:"property_id" jsonschema:"genome property accession, e.g. GenProp0065"`
	Samples    []string `json:"samples,omitempty" jsonschema:"restrict to these samples"`
}

type GetStepResultInput struct {
	PropertyID string   `json:"property_id" jsonschema:"genome property accession"`
	Step       int      `json:"step,omitempty" jsonschema:"step number; all steps when omitted"`
	Samples    []string `json:"samples,omitempty" jsonschema:"restrict to these samples"`
}

type DifferingPropertiesInput struct {
	PropertyIDs []string `json:"property_ids,omitempty" jsonschema:"restrict to these properties"`
	Supported   bool     `json:"supported,omitempty" jsonschema:"return properties present in at least one sample instead"`
}

type SummarizeInput struct {
	PropertyIDs []string `json:"property_ids,omitempty" jsonschema:"restrict to these properties"`
	Normalize   bool     `json:"normalize,omitempty" jsonschema:"report fractions of samples instead of counts"`
}

type GetStepMatchesInput struct {
	PropertyID string   `json:"property_id" jsonschema:"genome property accession"`
	Step       int      `json:"step" jsonschema:"step number"`
	Top        bool     `json:"top,omitempty" jsonschema:"keep only the best scoring match per sample"`
	Samples    []string `json:"samples,omitempty" jsonschema:"restrict to these samples"`
}

type RunSQLInput struct {
	Query string `json:"query" jsonschema:"a single SELECT statement against the results store"`
}

type ListSamplesOutput struct {
	Samples     []string `json:"samples"`
	WithMatches bool     `json:"with_matches"`
	Fingerprint string   `json:"fingerprint"`
}

type SampleStateOutput struct {
	Sample string `json:"sample"`
	State  string `json:"state"`
}

type RowOutput struct {
	PropertyID string              `json:"property_id"`
	Step       int                 `json:"step,omitempty"`
	Name       string              `json:"name,omitempty"`
	Results    []SampleStateOutput `json:"results"`
}

type RowsOutput struct {
	Rows []RowOutput `json:"rows"`
}

type TallyOutput struct {
	PropertyID string  `json:"property_id"`
	Yes        float64 `json:"yes"`
	Partial    float64 `json:"partial"`
	No         float64 `json:"no"`
}

type SummarizeOutput struct {
	Tallies []TallyOutput `json:"tallies"`
}

type MatchOutput struct {
	Sample      string   `json:"sample"`
	ProteinID   string   `json:"protein_id"`
	SignatureID string   `json:"signature_id"`
	Score       *float64 `json:"score,omitempty"`
	Start       int      `json:"start"`
	Stop        int      `json:"stop"`
	Sequence    string   `json:"sequence,omitempty"`
}

type GetStepMatchesOutput struct {
	Matches []MatchOutput `json:"matches"`
}

type RunSQLOutput struct {
	Rows []map[string]any `json:"rows"`
}

func (s *Server) registerTools() {
	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "list_samples",
		Description: "List the samples in the loaded results",
	}, s.handleListSamples)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "get_property_result",
		Description: "Return the YES/PARTIAL/NO assignment of a genome property per sample",
	}, s.handleGetPropertyResult)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "get_step_result",
		Description: "Return step assignments of a genome property per sample",
	}, s.handleGetStepResult)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "differing_properties",
		Description: "List properties whose assignment differs between samples",
	}, s.handleDifferingProperties)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "summarize",
		Description: "Count samples per assignment state for each property",
	}, s.handleSummarize)

	if s.results.HasMatches() {
		sdk.AddTool(s.mcp, &sdk.Tool{
			Name:        "get_step_matches",
			Description: "Return the annotation matches and protein sequences supporting a step",
		}, s.handleGetStepMatches)
	}

	if s.db != nil {
		sdk.AddTool(s.mcp, &sdk.Tool{
			Name:        "run_sql",
			Description: "Run a read-only SQL query against the results store",
		}, s.handleRunSQL)
	}
}

func (s *Server) handleListSamples(ctx context.Context, req *sdk.CallToolRequest, input ListSamplesInput) (*sdk.CallToolResult, ListSamplesOutput, error) {
	return nil, ListSamplesOutput{
		Samples:     s.results.Samples(),
		WithMatches: s.results.HasMatches(),
		Fingerprint: s.results.Fingerprint(),
	}, nil
}

func (s *Server) handleGetPropertyResult(ctx context.Context, req *sdk.CallToolRequest, input GetPropertyResultInput) (*sdk.CallToolResult, RowOutput, error) {
	if input.PropertyID == "" {
		return nil, RowOutput{}, fmt.Errorf("property_id is required")
	}
	samples, err := s.samples(input.Samples)
	if err != nil {
		return nil, RowOutput{}, err
	}

	row := RowOutput{PropertyID: input.PropertyID, Name: s.propertyName(input.PropertyID)}
	for _, sample := range samples {
		state, err := s.results.Get(input.PropertyID, sample)
		if err != nil {
			return nil, RowOutput{}, err
		}
		row.Results = append(row.Results, SampleStateOutput{Sample: sample, State: state.String()})
	}
	return nil, row, nil
}

func (s *Server) handleGetStepResult(ctx context.Context, req *sdk.CallToolRequest, input GetStepResultInput) (*sdk.CallToolResult, RowsOutput, error) {
	if input.PropertyID == "" {
		return nil, RowsOutput{}, fmt.Errorf("property_id is required")
	}
	samples, err := s.samples(input.Samples)
	if err != nil {
		return nil, RowsOutput{}, err
	}
	matrix, err := s.results.StepMatrix(input.PropertyID)
	if err != nil {
		return nil, RowsOutput{}, err
	}

	output := RowsOutput{Rows: make([]RowOutput, 0, matrix.Len())}
	for _, key := range matrix.Rows {
		if input.Step != 0 && key.Number != input.Step {
			continue
		}
		row := RowOutput{PropertyID: key.PropertyID, Step: key.Number}
		if name, err := s.results.StepName(key); err == nil {
			row.Name = name
		}
		for _, sample := range samples {
			state, err := s.results.GetStep(key.PropertyID, key.Number, sample)
			if err != nil {
				return nil, RowsOutput{}, err
			}
			row.Results = append(row.Results, SampleStateOutput{Sample: sample, State: state.String()})
		}
		output.Rows = append(output.Rows, row)
	}
	if input.Step != 0 && len(output.Rows) == 0 {
		return nil, RowsOutput{}, fmt.Errorf("step %s: %w", graph.StepKey{PropertyID: input.PropertyID, Number: input.Step}, graph.ErrLookup)
	}
	return nil, output, nil
}

func (s *Server) handleDifferingProperties(ctx context.Context, req *sdk.CallToolRequest, input DifferingPropertiesInput) (*sdk.CallToolResult, RowsOutput, error) {
	project := s.results.Differing
	if input.Supported {
		project = s.results.Supported
	}
	matrix, err := project(input.PropertyIDs...)
	if err != nil {
		return nil, RowsOutput{}, err
	}
	return nil, s.rowsFromMatrix(matrix), nil
}

func (s *Server) handleSummarize(ctx context.Context, req *sdk.CallToolRequest, input SummarizeInput) (*sdk.CallToolResult, SummarizeOutput, error) {
	tallies, err := s.results.Summary(input.Normalize, input.PropertyIDs...)
	if err != nil {
		return nil, SummarizeOutput{}, err
	}
	output := SummarizeOutput{Tallies: make([]TallyOutput, 0, len(tallies))}
	for _, tally := range tallies {
		output.Tallies = append(output.Tallies, TallyOutput{
			PropertyID: tally.Row,
			Yes:        tally.Of(assign.Yes),
			Partial:    tally.Of(assign.Partial),
			No:         tally.Of(assign.No),
		})
	}
	return nil, output, nil
}

func (s *Server) handleGetStepMatches(ctx context.Context, req *sdk.CallToolRequest, input GetStepMatchesInput) (*sdk.CallToolResult, GetStepMatchesOutput, error) {
	if input.PropertyID == "" || input.Step == 0 {
		return nil, GetStepMatchesOutput{}, fmt.Errorf("property_id and step are required")
	}
	matches, err := s.results.StepMatches(input.PropertyID, input.Step, input.Top, input.Samples...)
	if err != nil {
		return nil, GetStepMatchesOutput{}, err
	}
	output := GetStepMatchesOutput{Matches: make([]MatchOutput, 0, len(matches))}
	for _, match := range matches {
		output.Matches = append(output.Matches, MatchOutput{
			Sample:      match.Sample,
			ProteinID:   match.ProteinID,
			SignatureID: match.SignatureID,
			Score:       match.Score,
			Start:       match.Start,
			Stop:        match.Stop,
			Sequence:    match.Sequence,
		})
	}
	return nil, output, nil
}

func (s *Server) handleRunSQL(ctx context.Context, req *sdk.CallToolRequest, input RunSQLInput) (*sdk.CallToolResult, RunSQLOutput, error) {
	if err := checkReadOnly(input.Query); err != nil {
		return nil, RunSQLOutput{}, err
	}
	rows, err := s.db.RunSQL(ctx, input.Query)
	if err != nil {
		return nil, RunSQLOutput{}, err
	}
	return nil, RunSQLOutput{Rows: rows}, nil
}

// checkReadOnly admits a single SELECT or WITH statement.
func checkReadOnly(query string) error {
	trimmed := strings.TrimSuffix(strings.TrimSpace(query), ";")
	if trimmed == "" {
		return fmt.Errorf("query is required")
	}
	if strings.Contains(trimmed, ";") {
		return fmt.Errorf("only a single statement is allowed")
	}
	keyword := strings.ToUpper(strings.Fields(trimmed)[0])
	if keyword != "SELECT" && keyword != "WITH" {
		return fmt.Errorf("only SELECT queries are allowed, got %s", keyword)
	}
	return nil
}

func (s *Server) samples(requested []string) ([]string, error) {
	if len(requested) == 0 {
		return s.results.Samples(), nil
	}
	for _, sample := range requested {
		if _, err := s.results.Cache(sample); err != nil {
			return nil, err
		}
	}
	return requested, nil
}

func (s *Server) propertyName(id string) string {
	name, err := s.results.PropertyName(id)
	if err != nil {
		return ""
	}
	return name
}

func (s *Server) rowsFromMatrix(matrix *results.Matrix[string]) RowsOutput {
	output := RowsOutput{Rows: make([]RowOutput, 0, matrix.Len())}
	for i, id := range matrix.Rows {
		row := RowOutput{PropertyID: id, Name: s.propertyName(id)}
		for j, sample := range matrix.Samples {
			row.Results = append(row.Results, SampleStateOutput{Sample: sample, State: matrix.Cells[i][j].String()})
		}
		output.Rows = append(output.Rows, row)
	}
	return output
}
