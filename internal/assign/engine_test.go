package assign

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"micromeda/internal/graph"
	"micromeda/internal/matcher"
)

func signatureStep(number int, required bool, signatures ...string) graph.Step {
	return graph.Step{Number: number, Elements: []graph.FunctionalElement{{
		ID:       "element",
		Required: required,
		Evidence: []graph.Evidence{{Signatures: signatures}},
	}}}
}

func propertyStep(number int, required bool, ref string) graph.Step {
	return graph.Step{Number: number, Elements: []graph.FunctionalElement{{
		ID:       "element",
		Required: required,
		Evidence: []graph.Evidence{{PropertyRef: ref}},
	}}}
}

func mustBuild(t *testing.T, properties ...*graph.Property) *graph.Graph {
	t.Helper()
	g, err := graph.Build(properties...)
	require.NoError(t, err)
	return g
}

func TestTwoRequiredSteps(t *testing.T) {
	g := mustBuild(t, &graph.Property{ID: "GenProp0001", Steps: []graph.Step{
		signatureStep(1, true, "PF00001"),
		signatureStep(2, true, "PF00002"),
	}})
	engine := NewEngine(g, DefaultPolicy())

	tests := []struct {
		name       string
		signatures []string
		want       State
	}{
		{name: "neither", want: No},
		{name: "one", signatures: []string{"PF00001"}, want: Partial},
		{name: "both", signatures: []string{"PF00001", "PF00002"}, want: Yes},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := engine.Assign(matcher.NewMatchSet(tt.signatures...))
			assert.Equal(t, tt.want, got.Properties["GenProp0001"])
		})
	}
}

func TestThresholdBoundary(t *testing.T) {
	g := mustBuild(t, &graph.Property{ID: "GenProp0001", Threshold: 2, Steps: []graph.Step{
		signatureStep(1, true, "PF00001"),
		signatureStep(2, true, "PF00002"),
		signatureStep(3, true, "PF00003"),
		signatureStep(4, true, "PF00004"),
	}})

	tests := []struct {
		name       string
		policy     Policy
		signatures []string
		want       State
	}{
		{name: "one of four", policy: DefaultPolicy(), signatures: []string{"PF00001"}, want: No},
		{name: "two of four", policy: DefaultPolicy(), signatures: []string{"PF00001", "PF00002"}, want: Partial},
		{name: "three of four", policy: DefaultPolicy(), signatures: []string{"PF00001", "PF00002", "PF00003"}, want: Partial},
		{name: "all four", policy: DefaultPolicy(), signatures: []string{"PF00001", "PF00002", "PF00003", "PF00004"}, want: Yes},
		{name: "exceeds two of four", policy: Policy{Threshold: ThresholdExceeds}, signatures: []string{"PF00001", "PF00002"}, want: No},
		{name: "exceeds three of four", policy: Policy{Threshold: ThresholdExceeds}, signatures: []string{"PF00001", "PF00002", "PF00003"}, want: Partial},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewEngine(g, tt.policy).Assign(matcher.NewMatchSet(tt.signatures...))
			assert.Equal(t, tt.want, got.Properties["GenProp0001"])
		})
	}
}

func TestOptionalStepsDoNotCount(t *testing.T) {
	g := mustBuild(t, &graph.Property{ID: "GenProp0001", Steps: []graph.Step{
		signatureStep(1, true, "PF00001"),
		signatureStep(2, false, "PF00002"),
	}})
	got := NewEngine(g, DefaultPolicy()).Assign(matcher.NewMatchSet("PF00001"))

	assert.Equal(t, Yes, got.Properties["GenProp0001"])
	assert.Equal(t, No, got.Steps[graph.StepKey{PropertyID: "GenProp0001", Number: 2}])
}

func TestPartialPropagatesThroughReferences(t *testing.T) {
	g := mustBuild(t,
		&graph.Property{ID: "GenProp0001", Steps: []graph.Step{
			propertyStep(1, true, "GenProp0002"),
			signatureStep(2, true, "PF00009"),
		}},
		&graph.Property{ID: "GenProp0002", Steps: []graph.Step{
			signatureStep(1, true, "PF00001"),
			signatureStep(2, true, "PF00002"),
		}},
	)
	engine := NewEngine(g, DefaultPolicy())

	got := engine.Assign(matcher.NewMatchSet("PF00001"))
	assert.Equal(t, Partial, got.Properties["GenProp0002"])
	assert.Equal(t, Partial, got.Steps[graph.StepKey{PropertyID: "GenProp0001", Number: 1}])
	assert.Equal(t, Partial, got.Properties["GenProp0001"])

	got = engine.Assign(matcher.NewMatchSet("PF00001", "PF00002", "PF00009"))
	assert.Equal(t, Yes, got.Properties["GenProp0001"])

	got = engine.Assign(matcher.NewMatchSet())
	assert.Equal(t, No, got.Properties["GenProp0001"])
}

func TestCategoryProperties(t *testing.T) {
	g := mustBuild(t,
		&graph.Property{ID: "GenProp0000", Type: "CATEGORY", Threshold: 2, Steps: []graph.Step{
			propertyStep(1, false, "GenProp0001"),
			propertyStep(2, false, "GenProp0002"),
			propertyStep(3, false, "GenProp0003"),
		}},
		&graph.Property{ID: "GenProp0001", Steps: []graph.Step{signatureStep(1, true, "PF00001")}},
		&graph.Property{ID: "GenProp0002", Steps: []graph.Step{signatureStep(1, true, "PF00002")}},
		&graph.Property{ID: "GenProp0003", Steps: []graph.Step{signatureStep(1, true, "PF00003")}},
	)
	ms := matcher.NewMatchSet("PF00001")

	counted := NewEngine(g, DefaultPolicy()).Assign(ms)
	assert.Equal(t, No, counted.Properties["GenProp0000"], "one YES child is below TH")

	unthresholded := NewEngine(g, Policy{Category: CategoryUnthresholded}).Assign(ms)
	assert.Equal(t, Partial, unthresholded.Properties["GenProp0000"])

	all := NewEngine(g, DefaultPolicy()).Assign(matcher.NewMatchSet("PF00001", "PF00002", "PF00003"))
	assert.Equal(t, Yes, all.Properties["GenProp0000"])
}

func TestPropertyWithoutSteps(t *testing.T) {
	g := mustBuild(t, &graph.Property{ID: "GenProp0001"})
	got := NewEngine(g, DefaultPolicy()).Assign(nil)
	assert.Equal(t, Yes, got.Properties["GenProp0001"])
}

func TestFunctionalElementsAreAlternatives(t *testing.T) {
	g := mustBuild(t, &graph.Property{ID: "GenProp0001", Steps: []graph.Step{{
		Number: 1,
		Elements: []graph.FunctionalElement{
			{ID: "a", Required: true, Evidence: []graph.Evidence{{Signatures: []string{"PF00001"}}}},
			{ID: "b", Required: true, Evidence: []graph.Evidence{{Signatures: []string{"TIGR00002", "IPR000002"}}}},
		},
	}}})
	engine := NewEngine(g, DefaultPolicy())

	assert.Equal(t, Yes, engine.Assign(matcher.NewMatchSet("IPR000002")).Properties["GenProp0001"])
	assert.Equal(t, Yes, engine.Assign(matcher.NewMatchSet("PF00001")).Properties["GenProp0001"])
	assert.Equal(t, No, engine.Assign(matcher.NewMatchSet("PF99999")).Properties["GenProp0001"])
}

func TestHonorSufficient(t *testing.T) {
	g := mustBuild(t, &graph.Property{ID: "GenProp0001", Steps: []graph.Step{{
		Number: 1,
		Elements: []graph.FunctionalElement{{
			ID:       "a",
			Required: true,
			Evidence: []graph.Evidence{
				{Signatures: []string{"PF00001"}, Sufficient: true},
				{Signatures: []string{"PF00002"}},
			},
		}},
	}}})
	ms := matcher.NewMatchSet("PF00002")

	assert.Equal(t, Yes, NewEngine(g, DefaultPolicy()).Assign(ms).Properties["GenProp0001"])
	assert.Equal(t, No, NewEngine(g, Policy{HonorSufficient: true}).Assign(ms).Properties["GenProp0001"])
}

func monotonicityGraph(t *testing.T) *graph.Graph {
	return mustBuild(t,
		&graph.Property{ID: "GenProp0000", Threshold: 1, Steps: []graph.Step{
			propertyStep(1, true, "GenProp0001"),
			propertyStep(2, true, "GenProp0002"),
			signatureStep(3, false, "PF00005"),
		}},
		&graph.Property{ID: "GenProp0001", Threshold: 1, Steps: []graph.Step{
			signatureStep(1, true, "PF00001"),
			signatureStep(2, true, "PF00002"),
		}},
		&graph.Property{ID: "GenProp0002", Steps: []graph.Step{
			signatureStep(1, true, "PF00003"),
			propertyStep(2, true, "GenProp0001"),
			signatureStep(3, false, "PF00004"),
		}},
	)
}

func TestMonotonicity(t *testing.T) {
	g := monotonicityGraph(t)
	universe := []string{"PF00001", "PF00002", "PF00003", "PF00004", "PF00005"}

	for _, policy := range []Policy{DefaultPolicy(), {Threshold: ThresholdExceeds}, {Category: CategoryUnthresholded, HonorSufficient: true}} {
		engine := NewEngine(g, policy)
		for mask := 0; mask < 1<<len(universe); mask++ {
			base := subset(universe, mask)
			before := engine.Assign(matcher.NewMatchSet(base...))
			for i := range universe {
				if mask&(1<<i) != 0 {
					continue
				}
				after := engine.Assign(matcher.NewMatchSet(append(base, universe[i])...))
				for id, state := range before.Properties {
					assert.GreaterOrEqual(t, after.Properties[id], state, "property %s adding %s to %v", id, universe[i], base)
				}
				for key, state := range before.Steps {
					assert.GreaterOrEqual(t, after.Steps[key], state, "step %s adding %s to %v", key, universe[i], base)
				}
			}
		}
	}
}

func TestDeterminism(t *testing.T) {
	g := monotonicityGraph(t)
	engine := NewEngine(g, DefaultPolicy())
	ms := matcher.NewMatchSet("PF00001", "PF00003")

	first := engine.Assign(ms)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, engine.Assign(ms))
	}
}

func TestRunBuildsCache(t *testing.T) {
	g := monotonicityGraph(t)
	engine := NewEngine(g, DefaultPolicy())
	ms := matcher.NewDetailedMatchSet([]matcher.Match{{ProteinID: "p1", SignatureID: "PF00001"}}, nil)

	plain := engine.Run("sample_a", ms, false)
	assert.Equal(t, "sample_a", plain.Sample())
	assert.Equal(t, g.Fingerprint(), plain.Fingerprint())
	assert.False(t, plain.HasMatches())
	assert.Len(t, plain.PropertyIDs(), 3)
	assert.Equal(t, []graph.StepKey{
		{PropertyID: "GenProp0000", Number: 1},
		{PropertyID: "GenProp0000", Number: 2},
		{PropertyID: "GenProp0000", Number: 3},
		{PropertyID: "GenProp0001", Number: 1},
		{PropertyID: "GenProp0001", Number: 2},
		{PropertyID: "GenProp0002", Number: 1},
		{PropertyID: "GenProp0002", Number: 2},
		{PropertyID: "GenProp0002", Number: 3},
	}, plain.StepKeys())

	detailed := engine.Run("sample_b", ms, true)
	assert.True(t, detailed.HasMatches())
	assert.True(t, plain.Compatible(detailed))

	state, ok := detailed.Step(graph.StepKey{PropertyID: "GenProp0001", Number: 1})
	require.True(t, ok)
	assert.Equal(t, Yes, state)
	_, ok = detailed.Property("GenProp9999")
	assert.False(t, ok)
}

func TestParseState(t *testing.T) {
	for _, state := range States {
		parsed, err := ParseState(state.String())
		require.NoError(t, err)
		assert.Equal(t, state, parsed)
	}
	_, err := ParseState("MAYBE")
	assert.Error(t, err)
	assert.Less(t, No, Partial)
	assert.Less(t, Partial, Yes)
}

func TestParsePolicyRules(t *testing.T) {
	rule, err := ParseThresholdRule("exceeds")
	require.NoError(t, err)
	assert.Equal(t, ThresholdExceeds, rule)

	category, err := ParseCategoryRule("unthresholded")
	require.NoError(t, err)
	assert.Equal(t, CategoryUnthresholded, category)

	_, err = ParseThresholdRule("greater")
	assert.Error(t, err)
	_, err = ParseCategoryRule("ignored")
	assert.Error(t, err)
}

func subset(universe []string, mask int) []string {
	var out []string
	for i, signature := range universe {
		if mask&(1<<i) != 0 {
			out = append(out, signature)
		}
	}
	return out
}
