package results

import (
	"fmt"

	"micromeda/internal/assign"
	"micromeda/internal/graph"
)

// Matrix is a labelled grid of states: one row per property or step, one
// column per sample.
type Matrix[R comparable] struct {
	Rows    []R
	Samples []string
	Cells   [][]assign.State
}

func (m *Matrix[R]) Row(row R) ([]assign.State, bool) {
	for i, r := range m.Rows {
		if r == row {
			return m.Cells[i], true
		}
	}
	return nil, false
}

func (m *Matrix[R]) Len() int {
	return len(m.Rows)
}

// Filter keeps the rows for which keep returns true.
func (m *Matrix[R]) Filter(keep func([]assign.State) bool) *Matrix[R] {
	out := &Matrix[R]{Samples: m.Samples}
	for i, row := range m.Rows {
		if keep(m.Cells[i]) {
			out.Rows = append(out.Rows, row)
			out.Cells = append(out.Cells, m.Cells[i])
		}
	}
	return out
}

// PropertyMatrix returns the given properties, or all properties, across
// every sample.
func (a *Aggregator) PropertyMatrix(ids ...string) (*Matrix[string], error) {
	rows, err := a.propertyIDs(ids)
	if err != nil {
		return nil, err
	}
	return buildMatrix(a, rows, func(c *assign.Cache, id string) (assign.State, bool) {
		return c.Property(id)
	})
}

// StepMatrix returns every step of the given properties, or of all
// properties.
func (a *Aggregator) StepMatrix(propertyIDs ...string) (*Matrix[graph.StepKey], error) {
	rows, err := a.stepKeys(propertyIDs)
	if err != nil {
		return nil, err
	}
	return buildMatrix(a, rows, func(c *assign.Cache, key graph.StepKey) (assign.State, bool) {
		return c.Step(key)
	})
}

// Differing keeps the property rows whose state is not identical across
// all samples.
func (a *Aggregator) Differing(ids ...string) (*Matrix[string], error) {
	m, err := a.PropertyMatrix(ids...)
	if err != nil {
		return nil, err
	}
	return m.Filter(differs), nil
}

func (a *Aggregator) DifferingSteps(propertyIDs ...string) (*Matrix[graph.StepKey], error) {
	m, err := a.StepMatrix(propertyIDs...)
	if err != nil {
		return nil, err
	}
	return m.Filter(differs), nil
}

// Supported keeps the property rows where at least one sample is not NO.
func (a *Aggregator) Supported(ids ...string) (*Matrix[string], error) {
	m, err := a.PropertyMatrix(ids...)
	if err != nil {
		return nil, err
	}
	return m.Filter(supported), nil
}

func (a *Aggregator) SupportedSteps(propertyIDs ...string) (*Matrix[graph.StepKey], error) {
	m, err := a.StepMatrix(propertyIDs...)
	if err != nil {
		return nil, err
	}
	return m.Filter(supported), nil
}

// Tally counts the states of one row. Counts become fractions of the
// sample count when normalised.
type Tally[R comparable] struct {
	Row     R
	No      float64
	Partial float64
	Yes     float64
}

func (t Tally[R]) Of(state assign.State) float64 {
	switch state {
	case assign.Yes:
		return t.Yes
	case assign.Partial:
		return t.Partial
	default:
		return t.No
	}
}

func (a *Aggregator) Summary(normalize bool, ids ...string) ([]Tally[string], error) {
	m, err := a.PropertyMatrix(ids...)
	if err != nil {
		return nil, err
	}
	return summarize(m, normalize), nil
}

func (a *Aggregator) StepSummary(normalize bool, propertyIDs ...string) ([]Tally[graph.StepKey], error) {
	m, err := a.StepMatrix(propertyIDs...)
	if err != nil {
		return nil, err
	}
	return summarize(m, normalize), nil
}

func summarize[R comparable](m *Matrix[R], normalize bool) []Tally[R] {
	out := make([]Tally[R], 0, len(m.Rows))
	for i, row := range m.Rows {
		tally := Tally[R]{Row: row}
		for _, state := range m.Cells[i] {
			switch state {
			case assign.Yes:
				tally.Yes++
			case assign.Partial:
				tally.Partial++
			default:
				tally.No++
			}
		}
		if total := float64(len(m.Cells[i])); normalize && total > 0 {
			tally.Yes /= total
			tally.Partial /= total
			tally.No /= total
		}
		out = append(out, tally)
	}
	return out
}

func buildMatrix[R comparable](a *Aggregator, rows []R, get func(*assign.Cache, R) (assign.State, bool)) (*Matrix[R], error) {
	m := &Matrix[R]{
		Rows:    rows,
		Samples: a.Samples(),
		Cells:   make([][]assign.State, len(rows)),
	}
	for i, row := range rows {
		m.Cells[i] = make([]assign.State, len(a.caches))
		for j, cache := range a.caches {
			state, ok := get(cache, row)
			if !ok {
				return nil, fmt.Errorf("%v in sample %s: %w", row, cache.Sample(), graph.ErrLookup)
			}
			m.Cells[i][j] = state
		}
	}
	return m, nil
}

func differs(states []assign.State) bool {
	if len(states) == 0 {
		return false
	}
	for _, state := range states[1:] {
		if state != states[0] {
			return true
		}
	}
	return false
}

func supported(states []assign.State) bool {
	for _, state := range states {
		if state != assign.No {
			return true
		}
	}
	return false
}
