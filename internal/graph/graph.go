package graph

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrStructure = errors.New("malformed property catalog")
	ErrLookup    = errors.New("not found")
)

// StepKey addresses one step of one property.
type StepKey struct {
	PropertyID string
	Number     int
}

func (k StepKey) String() string {
	return fmt.Sprintf("%s/%d", k.PropertyID, k.Number)
}

// Graph is a read-only DAG of properties addressed by accession. Edges run
// from a property to the properties its evidence references (its children).
// A Graph is safe for concurrent readers.
type Graph struct {
	properties map[string]*Property
	order      []string
	topo       []string
	roots      []string
	leaves     []string

	signatureIndex map[string][]StepKey
	fingerprint    string
}

// Build indexes the properties, resolves property references into edges and
// rejects duplicates, dangling references and cycles. Build takes ownership
// of the properties.
func Build(properties ...*Property) (*Graph, error) {
	if len(properties) == 0 {
		return nil, fmt.Errorf("%w: catalog contains no properties", ErrStructure)
	}

	g := &Graph{
		properties:     make(map[string]*Property, len(properties)),
		order:          make([]string, 0, len(properties)),
		signatureIndex: make(map[string][]StepKey),
	}

	for i, property := range properties {
		if property == nil || strings.TrimSpace(property.ID) == "" {
			return nil, fmt.Errorf("%w: property block %d has no accession", ErrStructure, i+1)
		}
		if _, exists := g.properties[property.ID]; exists {
			return nil, fmt.Errorf("%w: duplicate accession %s", ErrStructure, property.ID)
		}
		numbers := make(map[int]struct{}, len(property.Steps))
		for _, step := range property.Steps {
			if _, dup := numbers[step.Number]; dup {
				return nil, fmt.Errorf("%w: %s declares step %d twice", ErrStructure, property.ID, step.Number)
			}
			numbers[step.Number] = struct{}{}
		}
		property.parents = nil
		property.children = nil
		g.properties[property.ID] = property
		g.order = append(g.order, property.ID)
	}

	for _, id := range g.order {
		property := g.properties[id]
		for _, ref := range property.PropertyRefs() {
			child, ok := g.properties[ref]
			if !ok {
				return nil, fmt.Errorf("%w: %s references unknown property %s", ErrStructure, id, ref)
			}
			property.children = append(property.children, ref)
			child.parents = append(child.parents, id)
		}
	}

	topo, err := g.sortDependenciesFirst()
	if err != nil {
		return nil, err
	}
	g.topo = topo

	for _, id := range g.order {
		property := g.properties[id]
		if len(property.parents) == 0 {
			g.roots = append(g.roots, id)
		}
		if len(property.children) == 0 {
			g.leaves = append(g.leaves, id)
		}
		for _, step := range property.Steps {
			key := StepKey{PropertyID: id, Number: step.Number}
			for _, signature := range step.Signatures() {
				g.signatureIndex[signature] = appendUniqueKey(g.signatureIndex[signature], key)
			}
		}
	}
	if len(g.roots) == 0 {
		return nil, fmt.Errorf("%w: no root property", ErrStructure)
	}

	g.fingerprint = computeFingerprint(g)
	return g, nil
}

// sortDependenciesFirst returns a topological order in which every property
// follows the properties it references. Visiting in catalog order keeps the
// result deterministic.
func (g *Graph) sortDependenciesFirst() ([]string, error) {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[string]int, len(g.order))
	order := make([]string, 0, len(g.order))
	path := make([]string, 0)

	var visit func(id string) error
	visit = func(id string) error {
		state[id] = visiting
		path = append(path, id)
		for _, child := range g.properties[id].children {
			switch state[child] {
			case visiting:
				start := 0
				for i, n := range path {
					if n == child {
						start = i
						break
					}
				}
				cycle := append(append([]string(nil), path[start:]...), child)
				return fmt.Errorf("%w: dependency cycle %s", ErrStructure, strings.Join(cycle, " -> "))
			case unvisited:
				if err := visit(child); err != nil {
					return err
				}
			}
		}
		path = path[:len(path)-1]
		state[id] = done
		order = append(order, id)
		return nil
	}

	for _, id := range g.order {
		if state[id] == unvisited {
			if err := visit(id); err != nil {
				return nil, err
			}
		}
	}
	return order, nil
}

func (g *Graph) Lookup(id string) (*Property, error) {
	property, ok := g.properties[id]
	if !ok {
		return nil, fmt.Errorf("property %s: %w", id, ErrLookup)
	}
	return property, nil
}

func (g *Graph) Contains(id string) bool {
	_, ok := g.properties[id]
	return ok
}

func (g *Graph) Len() int {
	return len(g.order)
}

// Root is the first property, in catalog order, that no other property
// depends on.
func (g *Graph) Root() *Property {
	return g.properties[g.roots[0]]
}

func (g *Graph) Roots() []*Property {
	return g.resolve(g.roots)
}

// Leaves are the properties without inter-property evidence.
func (g *Graph) Leaves() []*Property {
	return g.resolve(g.leaves)
}

// Properties returns every property in catalog order.
func (g *Graph) Properties() []*Property {
	return g.resolve(g.order)
}

// TopologicalOrder returns every property after the properties it depends on.
func (g *Graph) TopologicalOrder() []*Property {
	return g.resolve(g.topo)
}

func (g *Graph) IDs() []string {
	return append([]string(nil), g.order...)
}

// StepsForSignature lists the steps that a signature accession can support.
func (g *Graph) StepsForSignature(signature string) []StepKey {
	return append([]StepKey(nil), g.signatureIndex[signature]...)
}

// Signatures returns every signature accession referenced by the catalog.
func (g *Graph) Signatures() map[string]struct{} {
	out := make(map[string]struct{}, len(g.signatureIndex))
	for signature := range g.signatureIndex {
		out[signature] = struct{}{}
	}
	return out
}

// Fingerprint identifies the identifier set and edge structure of the
// graph. Graphs with equal fingerprints are compatible.
func (g *Graph) Fingerprint() string {
	return g.fingerprint
}

func (g *Graph) resolve(ids []string) []*Property {
	out := make([]*Property, 0, len(ids))
	for _, id := range ids {
		out = append(out, g.properties[id])
	}
	return out
}

func appendUniqueKey(keys []StepKey, key StepKey) []StepKey {
	for _, existing := range keys {
		if existing == key {
			return keys
		}
	}
	return append(keys, key)
}
