package assign

import (
	"sort"

	"micromeda/internal/graph"
	"micromeda/internal/matcher"
)

// Cache is an immutable snapshot of one sample's assignments. Caches built
// from graphs with the same fingerprint are compatible.
type Cache struct {
	sample      string
	fingerprint string
	properties  map[string]State
	steps       map[graph.StepKey]State
	matches     *matcher.MatchSet
}

// NewCache copies the given states. matches may be nil for the plain
// variant.
func NewCache(sample, fingerprint string, properties map[string]State, steps map[graph.StepKey]State, matches *matcher.MatchSet) *Cache {
	c := &Cache{
		sample:      sample,
		fingerprint: fingerprint,
		properties:  make(map[string]State, len(properties)),
		steps:       make(map[graph.StepKey]State, len(steps)),
		matches:     matches,
	}
	for id, state := range properties {
		c.properties[id] = state
	}
	for key, state := range steps {
		c.steps[key] = state
	}
	return c
}

func (c *Cache) Sample() string {
	return c.sample
}

func (c *Cache) Fingerprint() string {
	return c.fingerprint
}

func (c *Cache) Property(id string) (State, bool) {
	state, ok := c.properties[id]
	return state, ok
}

func (c *Cache) Step(key graph.StepKey) (State, bool) {
	state, ok := c.steps[key]
	return state, ok
}

// PropertyIDs returns the assigned property ids in sorted order.
func (c *Cache) PropertyIDs() []string {
	out := make([]string, 0, len(c.properties))
	for id := range c.properties {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// StepKeys returns the assigned steps ordered by property id then number.
func (c *Cache) StepKeys() []graph.StepKey {
	out := make([]graph.StepKey, 0, len(c.steps))
	for key := range c.steps {
		out = append(out, key)
	}
	SortStepKeys(out)
	return out
}

// Matches returns the retained match set, or nil for the plain variant.
func (c *Cache) Matches() *matcher.MatchSet {
	return c.matches
}

func (c *Cache) HasMatches() bool {
	return c.matches != nil
}

func (c *Cache) Compatible(other *Cache) bool {
	return c.fingerprint == other.fingerprint
}

func SortStepKeys(keys []graph.StepKey) {
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].PropertyID != keys[j].PropertyID {
			return keys[i].PropertyID < keys[j].PropertyID
		}
		return keys[i].Number < keys[j].Number
	})
}
