package store

import (
	"fmt"
	"sort"
	"strconv"

	"micromeda/internal/assign"
	"micromeda/internal/graph"
	"micromeda/internal/matcher"
	"micromeda/internal/results"
)

type SampleRow struct {
	ID   int64
	Name string
}

type PropertyRow struct {
	SampleID   int64
	PropertyID string
	State      string
}

type StepRow struct {
	SampleID   int64
	PropertyID string
	StepNumber int
	State      string
}

type MatchRow struct {
	SampleID    int64
	ProteinID   string
	SignatureID string
	Score       *float64
	Start       int
	Stop        int
}

type SequenceRow struct {
	SampleID  int64
	ProteinID string
	Sequence  string
}

// Dump is the table-shaped form of an aggregator shared by every backend.
type Dump struct {
	Fingerprint string
	WithMatches bool
	// variantKnown is set once WithMatches came from the aggregator or
	// from stored metadata rather than being left at its zero value.
	variantKnown bool
	Samples     []SampleRow
	Properties  []PropertyRow
	Steps       []StepRow
	Matches     []MatchRow
	Sequences   []SequenceRow
}

// Flatten turns an aggregator into rows. Sample ids follow column order.
func Flatten(a *results.Aggregator) *Dump {
	d := &Dump{Fingerprint: a.Fingerprint(), WithMatches: a.HasMatches(), variantKnown: true}
	for i, cache := range a.Caches() {
		id := int64(i + 1)
		d.Samples = append(d.Samples, SampleRow{ID: id, Name: cache.Sample()})

		for _, propertyID := range cache.PropertyIDs() {
			state, _ := cache.Property(propertyID)
			d.Properties = append(d.Properties, PropertyRow{SampleID: id, PropertyID: propertyID, State: state.String()})
		}
		for _, key := range cache.StepKeys() {
			state, _ := cache.Step(key)
			d.Steps = append(d.Steps, StepRow{SampleID: id, PropertyID: key.PropertyID, StepNumber: key.Number, State: state.String()})
		}

		set := cache.Matches()
		if set == nil {
			continue
		}
		for _, m := range set.Matches() {
			d.Matches = append(d.Matches, MatchRow{
				SampleID:    id,
				ProteinID:   m.ProteinID,
				SignatureID: m.SignatureID,
				Score:       m.Score,
				Start:       m.Start,
				Stop:        m.Stop,
			})
		}
		sequences := set.Sequences()
		proteins := make([]string, 0, len(sequences))
		for protein := range sequences {
			proteins = append(proteins, protein)
		}
		sort.Strings(proteins)
		for _, protein := range proteins {
			d.Sequences = append(d.Sequences, SequenceRow{SampleID: id, ProteinID: protein, Sequence: sequences[protein]})
		}
	}
	return d
}

// Metadata returns the key/value rows written alongside the tables.
func (d *Dump) Metadata() [][2]string {
	return [][2]string{
		{MetaFingerprint, d.Fingerprint},
		{MetaFormatVersion, FormatVersion},
		{MetaWithMatches, strconv.FormatBool(d.WithMatches)},
	}
}

// SetMetadata applies one stored metadata row. Unknown keys are ignored.
func (d *Dump) SetMetadata(key, value string) error {
	switch key {
	case MetaFingerprint:
		d.Fingerprint = value
	case MetaWithMatches:
		retained, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("metadata %s: %w", key, err)
		}
		d.WithMatches = retained
		d.variantKnown = true
	}
	return nil
}

// Aggregator rebuilds the caches. The variant comes from the with_matches
// metadata; stores without it are treated as with-matches when any match
// or sequence row is present.
func (d *Dump) Aggregator() (*results.Aggregator, error) {
	if len(d.Samples) == 0 {
		return nil, ErrEmpty
	}
	withMatches := d.WithMatches
	if !d.variantKnown {
		withMatches = len(d.Matches) > 0 || len(d.Sequences) > 0
	}

	type sampleData struct {
		name       string
		properties map[string]assign.State
		steps      map[graph.StepKey]assign.State
		matches    []matcher.Match
		sequences  map[string]string
	}
	byID := make(map[int64]*sampleData, len(d.Samples))
	order := make([]int64, 0, len(d.Samples))
	for _, s := range d.Samples {
		byID[s.ID] = &sampleData{
			name:       s.Name,
			properties: make(map[string]assign.State),
			steps:      make(map[graph.StepKey]assign.State),
			sequences:  make(map[string]string),
		}
		order = append(order, s.ID)
	}
	lookup := func(id int64) (*sampleData, error) {
		data, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("row references unknown sample id %d", id)
		}
		return data, nil
	}

	for _, row := range d.Properties {
		data, err := lookup(row.SampleID)
		if err != nil {
			return nil, err
		}
		state, err := assign.ParseState(row.State)
		if err != nil {
			return nil, fmt.Errorf("property %s of %s: %w", row.PropertyID, data.name, err)
		}
		data.properties[row.PropertyID] = state
	}
	for _, row := range d.Steps {
		data, err := lookup(row.SampleID)
		if err != nil {
			return nil, err
		}
		state, err := assign.ParseState(row.State)
		if err != nil {
			return nil, fmt.Errorf("step %s/%d of %s: %w", row.PropertyID, row.StepNumber, data.name, err)
		}
		data.steps[graph.StepKey{PropertyID: row.PropertyID, Number: row.StepNumber}] = state
	}
	for _, row := range d.Matches {
		data, err := lookup(row.SampleID)
		if err != nil {
			return nil, err
		}
		data.matches = append(data.matches, matcher.Match{
			ProteinID:   row.ProteinID,
			SignatureID: row.SignatureID,
			Score:       row.Score,
			Start:       row.Start,
			Stop:        row.Stop,
		})
	}
	for _, row := range d.Sequences {
		data, err := lookup(row.SampleID)
		if err != nil {
			return nil, err
		}
		data.sequences[row.ProteinID] = row.Sequence
	}

	caches := make([]*assign.Cache, 0, len(order))
	for _, id := range order {
		data := byID[id]
		var set *matcher.MatchSet
		if withMatches {
			set = matcher.NewDetailedMatchSet(data.matches, data.sequences)
		}
		caches = append(caches, assign.NewCache(data.name, d.Fingerprint, data.properties, data.steps, set))
	}
	return results.New(nil, caches...)
}
