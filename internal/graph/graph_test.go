package graph

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func refStep(number int, refs ...string) Step {
	element := FunctionalElement{ID: "element", Name: "element"}
	for _, ref := range refs {
		element.Evidence = append(element.Evidence, Evidence{PropertyRef: ref})
	}
	return Step{Number: number, Elements: []FunctionalElement{element}}
}

func sigStep(number int, required bool, signatures ...string) Step {
	return Step{Number: number, Elements: []FunctionalElement{{
		ID:       "element",
		Name:     "element",
		Required: required,
		Evidence: []Evidence{{Signatures: signatures}},
	}}}
}

// polytree:
//
//	GenProp0002 -->             --> GenProp0089
//	                GenProp0066
//	GenProp0003 -->             --> GenProp0092
func polytree() []*Property {
	return []*Property{
		{ID: "GenProp0002", Steps: []Step{refStep(1, "GenProp0066")}},
		{ID: "GenProp0003", Steps: []Step{refStep(1, "GenProp0066")}},
		{ID: "GenProp0066", Steps: []Step{refStep(1, "GenProp0089"), refStep(2, "GenProp0092")}},
		{ID: "GenProp0089", Steps: []Step{sigStep(1, false, "IPR019910", "TIGR03564")}},
		{ID: "GenProp0092", Steps: []Step{sigStep(1, false, "IPR019911", "TIGR03564")}},
	}
}

func ids(properties []*Property) []string {
	out := make([]string, 0, len(properties))
	for _, p := range properties {
		out = append(out, p.ID)
	}
	return out
}

func TestBuild(t *testing.T) {
	g, err := Build(polytree()...)
	require.NoError(t, err)

	assert.Equal(t, 5, g.Len())
	assert.Equal(t, "GenProp0002", g.Root().ID)
	assert.Equal(t, []string{"GenProp0002", "GenProp0003"}, ids(g.Roots()))
	assert.Equal(t, []string{"GenProp0089", "GenProp0092"}, ids(g.Leaves()))

	middle, err := g.Lookup("GenProp0066")
	require.NoError(t, err)
	assert.Equal(t, []string{"GenProp0002", "GenProp0003"}, middle.Parents())
	assert.Equal(t, []string{"GenProp0089", "GenProp0092"}, middle.Children())

	assert.ElementsMatch(t, []StepKey{{"GenProp0089", 1}, {"GenProp0092", 1}}, g.StepsForSignature("TIGR03564"))
	assert.Empty(t, g.StepsForSignature("PF00001"))
	assert.Len(t, g.Signatures(), 3)
}

func TestTopologicalOrder(t *testing.T) {
	g, err := Build(polytree()...)
	require.NoError(t, err)

	position := make(map[string]int)
	for i, p := range g.TopologicalOrder() {
		position[p.ID] = i
	}
	require.Len(t, position, g.Len())
	for _, p := range g.Properties() {
		for _, child := range p.Children() {
			assert.Less(t, position[child], position[p.ID], "%s must follow %s", p.ID, child)
		}
	}
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name       string
		properties []*Property
	}{
		{name: "empty catalog", properties: nil},
		{name: "missing accession", properties: []*Property{{ID: ""}}},
		{
			name:       "duplicate accession",
			properties: []*Property{{ID: "GenProp0001"}, {ID: "GenProp0001"}},
		},
		{
			name:       "unknown reference",
			properties: []*Property{{ID: "GenProp0001", Steps: []Step{refStep(1, "GenProp0404")}}},
		},
		{
			name: "cycle",
			properties: []*Property{
				{ID: "GenProp0000"},
				{ID: "GenProp0001", Steps: []Step{refStep(1, "GenProp0002")}},
				{ID: "GenProp0002", Steps: []Step{refStep(1, "GenProp0003")}},
				{ID: "GenProp0003", Steps: []Step{refStep(1, "GenProp0001")}},
			},
		},
		{
			name:       "duplicate step number",
			properties: []*Property{{ID: "GenProp0001", Steps: []Step{sigStep(1, true, "PF00001"), sigStep(1, true, "PF00002")}}},
		},
		{
			name:       "self reference",
			properties: []*Property{{ID: "GenProp0001", Steps: []Step{refStep(1, "GenProp0001")}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(tt.properties...)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrStructure), "got %v", err)
		})
	}
}

func TestLookupMissing(t *testing.T) {
	g, err := Build(polytree()...)
	require.NoError(t, err)

	_, err = g.Lookup("GenProp9999")
	assert.ErrorIs(t, err, ErrLookup)
	assert.False(t, g.Contains("GenProp9999"))
}

func TestFingerprint(t *testing.T) {
	a, err := Build(polytree()...)
	require.NoError(t, err)

	reordered := polytree()
	reordered[0], reordered[4] = reordered[4], reordered[0]
	b, err := Build(reordered...)
	require.NoError(t, err)
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())

	rewired := polytree()
	rewired[2].Steps = []Step{refStep(1, "GenProp0089")}
	c, err := Build(rewired...)
	require.NoError(t, err)
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint())
}

func TestStepHelpers(t *testing.T) {
	step := Step{Number: 3, Elements: []FunctionalElement{
		{Name: "Kinase", Evidence: []Evidence{{Signatures: []string{"PF00069"}}}},
		{Name: "Pathway", Required: true, Evidence: []Evidence{{PropertyRef: "GenProp0010"}}},
	}}

	assert.True(t, step.Required())
	assert.Equal(t, "Kinase Pathway", step.Name())
	assert.Equal(t, []string{"PF00069"}, step.Signatures())
	assert.Equal(t, []string{"GenProp0010"}, step.PropertyRefs())

	assert.True(t, IsPropertyID("GenProp0066"))
	assert.True(t, IsPropertyID("genprop0066"))
	assert.False(t, IsPropertyID("IPR019910"))
}
