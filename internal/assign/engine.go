package assign

import (
	"micromeda/internal/graph"
	"micromeda/internal/matcher"
)

// Assignment is the raw output of one engine run.
type Assignment struct {
	Properties map[string]State
	Steps      map[graph.StepKey]State
}

// Engine assigns states to every step and property of a graph. An Engine
// holds no mutable state and may be shared by concurrent callers.
type Engine struct {
	graph  *graph.Graph
	policy Policy
}

func NewEngine(g *graph.Graph, policy Policy) *Engine {
	return &Engine{graph: g, policy: policy}
}

func (e *Engine) Graph() *graph.Graph {
	return e.graph
}

func (e *Engine) Policy() Policy {
	return e.policy
}

// Assign evaluates the graph against one sample's matches. Properties are
// visited dependencies first, so every property reference reads a state
// that is already final.
func (e *Engine) Assign(ms *matcher.MatchSet) *Assignment {
	if ms == nil {
		ms = matcher.NewMatchSet()
	}
	out := &Assignment{
		Properties: make(map[string]State, e.graph.Len()),
		Steps:      make(map[graph.StepKey]State),
	}

	for _, property := range e.graph.TopologicalOrder() {
		stepStates := make([]State, len(property.Steps))
		required := make([]bool, len(property.Steps))
		for i, step := range property.Steps {
			state := e.assignStep(step, ms, out.Properties)
			out.Steps[graph.StepKey{PropertyID: property.ID, Number: step.Number}] = state
			stepStates[i] = state
			required[i] = step.Required()
		}
		out.Properties[property.ID] = e.assignProperty(property.Threshold, stepStates, required)
	}
	return out
}

// Run assigns one sample and wraps the result in a cache. The match set is
// retained in the cache when keepMatches is set.
func (e *Engine) Run(sample string, ms *matcher.MatchSet, keepMatches bool) *Cache {
	assignment := e.Assign(ms)
	var retained *matcher.MatchSet
	if keepMatches {
		retained = ms
	}
	return NewCache(sample, e.graph.Fingerprint(), assignment.Properties, assignment.Steps, retained)
}

func (e *Engine) assignStep(step graph.Step, ms *matcher.MatchSet, properties map[string]State) State {
	state := No
	for _, element := range step.Elements {
		state = max(state, e.assignElement(element, ms, properties))
		if state == Yes {
			break
		}
	}
	return state
}

// assignElement is YES when any evidence entry is observed and PARTIAL when
// the best it can do is a PARTIAL property reference.
func (e *Engine) assignElement(element graph.FunctionalElement, ms *matcher.MatchSet, properties map[string]State) State {
	evidence := element.Evidence
	if e.policy.HonorSufficient {
		if sufficient := sufficientOnly(evidence); len(sufficient) > 0 {
			evidence = sufficient
		}
	}

	state := No
	for _, ev := range evidence {
		state = max(state, observe(ev, ms, properties))
		if state == Yes {
			break
		}
	}
	return state
}

func observe(ev graph.Evidence, ms *matcher.MatchSet, properties map[string]State) State {
	if ev.IsPropertyRef() {
		return properties[ev.PropertyRef]
	}
	for _, signature := range ev.Signatures {
		if ms.Has(signature) {
			return Yes
		}
	}
	return No
}

func sufficientOnly(evidence []graph.Evidence) []graph.Evidence {
	var out []graph.Evidence
	for _, ev := range evidence {
		if ev.Sufficient {
			out = append(out, ev)
		}
	}
	return out
}

func (e *Engine) assignProperty(threshold int, steps []State, required []bool) State {
	if len(steps) == 0 {
		return Yes
	}

	counted := make([]State, 0, len(steps))
	for i, state := range steps {
		if required[i] {
			counted = append(counted, state)
		}
	}
	category := len(counted) == 0
	if category {
		counted = steps
	}

	var yes, partial int
	for _, state := range counted {
		switch state {
		case Yes:
			yes++
		case Partial:
			partial++
		}
	}

	switch {
	case yes == len(counted):
		return Yes
	case yes == 0 && partial == 0:
		return No
	case category && e.policy.Category == CategoryUnthresholded:
		return Partial
	case !e.policy.partialAllowed(yes, threshold):
		return No
	default:
		return Partial
	}
}
