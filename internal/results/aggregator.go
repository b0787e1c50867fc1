package results

import (
	"errors"
	"fmt"
	"sort"

	"micromeda/internal/assign"
	"micromeda/internal/graph"
)

var (
	ErrIncompatible    = errors.New("incompatible assignment caches")
	ErrDuplicateSample = errors.New("duplicate sample")
	ErrTooFewInputs    = errors.New("merge needs at least two non-empty inputs")
	ErrUnbound         = errors.New("no property graph bound")
)

// Aggregator is a read-only collection of compatible caches with unique
// sample names. Caches are kept in sample order so that every projection
// is independent of the order the caches were supplied in.
type Aggregator struct {
	graph       *graph.Graph
	fingerprint string
	caches      []*assign.Cache
	bySample    map[string]*assign.Cache
}

// New collects caches. g may be nil; projections that need names, the
// tree or step signatures then return ErrUnbound.
func New(g *graph.Graph, caches ...*assign.Cache) (*Aggregator, error) {
	a := &Aggregator{
		graph:    g,
		caches:   make([]*assign.Cache, 0, len(caches)),
		bySample: make(map[string]*assign.Cache, len(caches)),
	}
	if g != nil {
		a.fingerprint = g.Fingerprint()
	}

	for _, cache := range caches {
		if cache == nil {
			continue
		}
		if a.fingerprint == "" {
			a.fingerprint = cache.Fingerprint()
		}
		if cache.Fingerprint() != a.fingerprint {
			return nil, fmt.Errorf("%w: sample %s was assigned against a different property graph", ErrIncompatible, cache.Sample())
		}
		if _, dup := a.bySample[cache.Sample()]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateSample, cache.Sample())
		}
		if len(a.caches) > 0 && a.caches[0].HasMatches() != cache.HasMatches() {
			return nil, fmt.Errorf("%w: caches with and without retained matches cannot be mixed", ErrIncompatible)
		}
		a.bySample[cache.Sample()] = cache
		a.caches = append(a.caches, cache)
	}

	sort.Slice(a.caches, func(i, j int) bool {
		return a.caches[i].Sample() < a.caches[j].Sample()
	})
	return a, nil
}

// Bind returns a copy of the aggregator that resolves names and structure
// through g. The graph must have the fingerprint the caches were built with.
func (a *Aggregator) Bind(g *graph.Graph) (*Aggregator, error) {
	if g == nil {
		return nil, fmt.Errorf("%w: nil graph", ErrUnbound)
	}
	if a.fingerprint != "" && g.Fingerprint() != a.fingerprint {
		return nil, fmt.Errorf("%w: results were built from a different property catalog", ErrIncompatible)
	}
	return New(g, a.caches...)
}

func (a *Aggregator) Graph() *graph.Graph {
	return a.graph
}

func (a *Aggregator) Fingerprint() string {
	return a.fingerprint
}

func (a *Aggregator) Len() int {
	return len(a.caches)
}

// Samples returns the sample names in column order.
func (a *Aggregator) Samples() []string {
	out := make([]string, len(a.caches))
	for i, cache := range a.caches {
		out[i] = cache.Sample()
	}
	return out
}

// Caches returns the caches in column order.
func (a *Aggregator) Caches() []*assign.Cache {
	return append([]*assign.Cache(nil), a.caches...)
}

func (a *Aggregator) Cache(sample string) (*assign.Cache, error) {
	cache, ok := a.bySample[sample]
	if !ok {
		return nil, fmt.Errorf("sample %s: %w", sample, graph.ErrLookup)
	}
	return cache, nil
}

// HasMatches reports whether the caches retain their match sets.
func (a *Aggregator) HasMatches() bool {
	return len(a.caches) > 0 && a.caches[0].HasMatches()
}

func (a *Aggregator) Get(propertyID, sample string) (assign.State, error) {
	cache, err := a.Cache(sample)
	if err != nil {
		return assign.No, err
	}
	state, ok := cache.Property(propertyID)
	if !ok {
		return assign.No, fmt.Errorf("property %s: %w", propertyID, graph.ErrLookup)
	}
	return state, nil
}

func (a *Aggregator) GetStep(propertyID string, number int, sample string) (assign.State, error) {
	cache, err := a.Cache(sample)
	if err != nil {
		return assign.No, err
	}
	key := graph.StepKey{PropertyID: propertyID, Number: number}
	state, ok := cache.Step(key)
	if !ok {
		return assign.No, fmt.Errorf("step %s: %w", key, graph.ErrLookup)
	}
	return state, nil
}

// PropertyName returns the catalog name of a property.
func (a *Aggregator) PropertyName(propertyID string) (string, error) {
	if a.graph == nil {
		return "", ErrUnbound
	}
	property, err := a.graph.Lookup(propertyID)
	if err != nil {
		return "", err
	}
	return property.Name, nil
}

// StepName joins the names of a step's functional elements.
func (a *Aggregator) StepName(key graph.StepKey) (string, error) {
	if a.graph == nil {
		return "", ErrUnbound
	}
	property, err := a.graph.Lookup(key.PropertyID)
	if err != nil {
		return "", err
	}
	step, ok := property.Step(key.Number)
	if !ok {
		return "", fmt.Errorf("step %s: %w", key, graph.ErrLookup)
	}
	return step.Name(), nil
}

// propertyIDs returns the requested ids, or every assigned id in sorted
// order when none are requested.
func (a *Aggregator) propertyIDs(ids []string) ([]string, error) {
	if len(ids) == 0 {
		if len(a.caches) == 0 {
			return nil, nil
		}
		return a.caches[0].PropertyIDs(), nil
	}
	for _, id := range ids {
		if len(a.caches) > 0 {
			if _, ok := a.caches[0].Property(id); !ok {
				return nil, fmt.Errorf("property %s: %w", id, graph.ErrLookup)
			}
		}
	}
	return ids, nil
}

func (a *Aggregator) stepKeys(propertyIDs []string) ([]graph.StepKey, error) {
	if len(a.caches) == 0 {
		return nil, nil
	}
	all := a.caches[0].StepKeys()
	if len(propertyIDs) == 0 {
		return all, nil
	}
	if _, err := a.propertyIDs(propertyIDs); err != nil {
		return nil, err
	}

	var out []graph.StepKey
	for _, id := range propertyIDs {
		for _, key := range all {
			if key.PropertyID == id {
				out = append(out, key)
			}
		}
	}
	return out, nil
}
