package results

import (
	"fmt"
	"io"
	"sort"

	"micromeda/internal/graph"
	"micromeda/internal/matcher"
)

// StepMatch is a match row that supports a step in one sample.
type StepMatch struct {
	Sample string
	matcher.Match
	Sequence string
}

// StepMatches lists, per sample, the retained matches whose signature is
// evidence for the given step. With top set only the lowest scoring match
// of each sample is kept. Samples default to all samples.
func (a *Aggregator) StepMatches(propertyID string, number int, top bool, samples ...string) ([]StepMatch, error) {
	if a.graph == nil {
		return nil, ErrUnbound
	}
	if !a.HasMatches() {
		return nil, fmt.Errorf("%w: results do not retain matches", ErrIncompatible)
	}
	property, err := a.graph.Lookup(propertyID)
	if err != nil {
		return nil, err
	}
	step, ok := property.Step(number)
	if !ok {
		return nil, fmt.Errorf("step %s: %w", graph.StepKey{PropertyID: propertyID, Number: number}, graph.ErrLookup)
	}
	if len(samples) == 0 {
		samples = a.Samples()
	}

	signatures := make(map[string]struct{})
	for _, signature := range step.Signatures() {
		signatures[signature] = struct{}{}
	}

	var out []StepMatch
	for _, sample := range samples {
		cache, err := a.Cache(sample)
		if err != nil {
			return nil, err
		}
		set := cache.Matches()

		var found []StepMatch
		for _, match := range set.Matches() {
			if _, ok := signatures[match.SignatureID]; !ok {
				continue
			}
			sequence, _ := set.Sequence(match.ProteinID)
			found = append(found, StepMatch{Sample: sample, Match: match, Sequence: sequence})
		}
		if top && len(found) > 1 {
			sort.SliceStable(found, func(i, j int) bool {
				return lowerScore(found[i].Score, found[j].Score)
			})
			found = found[:1]
		}
		out = append(out, found...)
	}
	return out, nil
}

// WriteMatchesFASTA writes the sequences of the proteins supporting a step.
// Headers are sample|protein so that proteins of different samples stay
// distinct.
func (a *Aggregator) WriteMatchesFASTA(w io.Writer, propertyID string, number int, top bool, samples ...string) error {
	matches, err := a.StepMatches(propertyID, number, top, samples...)
	if err != nil {
		return err
	}

	var ids []string
	sequences := make(map[string]string)
	for _, m := range matches {
		if m.Sequence == "" {
			continue
		}
		id := m.Sample + "|" + m.ProteinID
		if _, seen := sequences[id]; seen {
			continue
		}
		ids = append(ids, id)
		sequences[id] = m.Sequence
	}
	return matcher.WriteFASTA(w, ids, sequences)
}

// lowerScore orders present scores ascending and missing scores last.
func lowerScore(a, b *float64) bool {
	switch {
	case a == nil:
		return false
	case b == nil:
		return true
	default:
		return *a < *b
	}
}
