package results

import (
	"encoding/json"
	"fmt"
	"io"

	"micromeda/internal/assign"
	"micromeda/internal/graph"
)

// Node is one entry of the results tree. Property nodes carry PropertyID
// and children; step leaves carry StepID.
type Node struct {
	PropertyID string         `json:"property_id,omitempty"`
	StepID     int            `json:"step_id,omitempty"`
	Name       string         `json:"name"`
	Result     []assign.State `json:"result"`
	Children   []*Node        `json:"children,omitempty"`
}

type Tree struct {
	Samples []string `json:"sample_names"`
	Root    *Node    `json:"property_tree"`
}

// Tree expands the property graph from its root. A step that references
// other properties is replaced by those properties; any other step becomes
// a leaf.
func (a *Aggregator) Tree() (*Tree, error) {
	if a.graph == nil {
		return nil, ErrUnbound
	}
	root, err := a.propertyNode(a.graph.Root())
	if err != nil {
		return nil, err
	}
	return &Tree{Samples: a.Samples(), Root: root}, nil
}

func (a *Aggregator) WriteJSON(w io.Writer) error {
	tree, err := a.Tree()
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(tree)
}

func (a *Aggregator) propertyNode(property *graph.Property) (*Node, error) {
	result, err := a.PropertyMatrix(property.ID)
	if err != nil {
		return nil, err
	}
	node := &Node{PropertyID: property.ID, Name: property.Name, Result: rowOrEmpty(result)}

	for _, step := range property.Steps {
		refs := step.PropertyRefs()
		if len(refs) == 0 {
			leaf, err := a.stepNode(property.ID, step)
			if err != nil {
				return nil, err
			}
			node.Children = append(node.Children, leaf)
			continue
		}
		for _, ref := range refs {
			child, err := a.graph.Lookup(ref)
			if err != nil {
				return nil, err
			}
			childNode, err := a.propertyNode(child)
			if err != nil {
				return nil, err
			}
			node.Children = append(node.Children, childNode)
		}
	}
	return node, nil
}

func (a *Aggregator) stepNode(propertyID string, step graph.Step) (*Node, error) {
	key := graph.StepKey{PropertyID: propertyID, Number: step.Number}
	result := make([]assign.State, 0, len(a.caches))
	for _, cache := range a.caches {
		state, ok := cache.Step(key)
		if !ok {
			return nil, fmt.Errorf("step %s in sample %s: %w", key, cache.Sample(), graph.ErrLookup)
		}
		result = append(result, state)
	}
	return &Node{StepID: step.Number, Name: step.Name(), Result: result}, nil
}

func rowOrEmpty(m *Matrix[string]) []assign.State {
	if len(m.Cells) == 0 {
		return []assign.State{}
	}
	return m.Cells[0]
}
