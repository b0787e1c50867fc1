package results

import (
	"fmt"

	"micromeda/internal/assign"
	"micromeda/internal/graph"
)

// Merge unions the caches of two or more aggregators. Nothing is
// recomputed: the result equals an aggregator built from the combined
// caches directly. Empty inputs are ignored.
func Merge(inputs ...*Aggregator) (*Aggregator, error) {
	var (
		nonEmpty []*Aggregator
		bound    *graph.Graph
	)
	for _, input := range inputs {
		if input == nil || input.Len() == 0 {
			continue
		}
		nonEmpty = append(nonEmpty, input)
		if bound == nil {
			bound = input.graph
		}
	}
	if len(nonEmpty) < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrTooFewInputs, len(nonEmpty))
	}

	first := nonEmpty[0]
	var caches []*assign.Cache
	for _, input := range nonEmpty {
		if input.fingerprint != first.fingerprint {
			return nil, fmt.Errorf("%w: inputs were built from different property catalogs", ErrIncompatible)
		}
		if input.HasMatches() != first.HasMatches() {
			return nil, fmt.Errorf("%w: inputs with and without retained matches cannot be merged", ErrIncompatible)
		}
		caches = append(caches, input.caches...)
	}
	return New(bound, caches...)
}
