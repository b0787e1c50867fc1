package parser

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"micromeda/internal/graph"
)

const catalog = `AC  GenProp0002
DE  Coenzyme F420 utilization
TP  GUILD
AU  Haft DH
TH  0
RN  [1]
RM  11726492
RT  Structures of F420H2:NADP+ oxidoreductase with and without its
RT  substrates bound.
RA  Warkentin E, Mamat B, Sordel-Klippert M, Wicke M, Thauer RK, Iwata M,
RL  EMBO J. 2001;20:6561-6569.
DC  Methane Biosynthesis
DR  IUBMB; misc; methane;
CC  Coenzyme F420 (a 7,8-didemethyl-8-hydroxy 5-deazaflavin)
**  Yo_Dog_its_Yolo
--
SN  1
ID  LLM-family F420-associated subfamilies
DN  LLM-family F420-associated subfamilies
RQ  0
EV  IPR019910; TIGR03564; sufficient;
TG  GO:0016705;
--
SN  2
ID  Selfish genetic elements
RQ  1
EV  GenProp0066;
//
AC  GenProp0066
DE  Selfish genetic elements
TP  CATEGORY
TH  0
PN  GenProp0002
--
SN  1
ID  Methylene-5,6,7,8-tetrahydromethanopterin dehydrogenase
RQ  1
EV  IPR002844; PF01993;
ID  Alternative dehydrogenase
RQ  0
EV  IPR019920; TIGR03618;
EV  IPR019921;
//
`

func TestParse(t *testing.T) {
	g, err := Parse(strings.NewReader(catalog))
	require.NoError(t, err)

	assert.Equal(t, 2, g.Len())
	assert.Equal(t, "GenProp0002", g.Root().ID)

	root, err := g.Lookup("GenProp0002")
	require.NoError(t, err)
	assert.Equal(t, "Coenzyme F420 utilization", root.Name)
	assert.Equal(t, "GUILD", root.Type)
	assert.Equal(t, "Yo_Dog_its_Yolo", root.PrivateNotes)
	assert.Equal(t, []string{"GenProp0066"}, root.Children())
	require.Len(t, root.Steps, 2)

	require.Len(t, root.References, 1)
	ref := root.References[0]
	assert.Equal(t, 1, ref.Number)
	assert.Equal(t, 11726492, ref.PubMedID)
	assert.Equal(t, "Structures of F420H2:NADP+ oxidoreductase with and without its substrates bound.", ref.Title)

	require.Len(t, root.Databases, 1)
	assert.Equal(t, "Methane Biosynthesis", root.Databases[0].Title)
	assert.Equal(t, "IUBMB", root.Databases[0].Database)
	assert.Equal(t, []string{"misc", "methane"}, root.Databases[0].RecordIDs)

	first := root.Steps[0]
	require.Len(t, first.Elements, 1)
	assert.False(t, first.Required())
	evidence := first.Elements[0].Evidence
	require.Len(t, evidence, 1)
	assert.True(t, evidence[0].Sufficient)
	assert.Equal(t, []string{"IPR019910", "TIGR03564"}, evidence[0].Signatures)
	assert.Equal(t, []string{"GO:0016705"}, evidence[0].GOTerms)

	second := root.Steps[1]
	assert.True(t, second.Required())
	assert.Equal(t, []string{"GenProp0066"}, second.PropertyRefs())
}

func TestParseGroupsFunctionalElements(t *testing.T) {
	g, err := Parse(strings.NewReader(catalog))
	require.NoError(t, err)

	child, err := g.Lookup("GenProp0066")
	require.NoError(t, err)
	assert.Equal(t, []string{"GenProp0002"}, child.DeclaredParents)
	assert.Equal(t, []string{"GenProp0002"}, child.Parents())

	step, ok := child.Step(1)
	require.True(t, ok)
	require.Len(t, step.Elements, 2)

	assert.True(t, step.Elements[0].Required)
	assert.Equal(t, "Methylene-5,6,7,8-tetrahydromethanopterin dehydrogenase", step.Elements[0].Name)
	assert.Len(t, step.Elements[0].Evidence, 1)

	assert.False(t, step.Elements[1].Required)
	assert.Len(t, step.Elements[1].Evidence, 2, "EV lines are never unwrapped")
}

func TestParseNodeCountMatchesBlocks(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 25; i++ {
		fmt.Fprintf(&b, "AC  GenProp%04d", i)
		b.WriteString("\nDE  Generated\nTP  PATHWAY\n--\nSN  1\nID  element\nRQ  1\nEV  PF00001;\n//\n")
	}
	text := b.String()

	g, err := Parse(strings.NewReader(text))
	require.NoError(t, err)
	assert.Equal(t, strings.Count(text, "AC  "), g.Len())
	assert.Len(t, g.Leaves(), 25)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{name: "missing accession", text: "DE  No accession\n//\n"},
		{name: "duplicate accession", text: "AC  GenProp0001\n//\nAC  GenProp0001\n//\n"},
		{name: "unknown reference", text: "AC  GenProp0001\n--\nSN  1\nID  x\nRQ  1\nEV  GenProp0404;\n//\n"},
		{name: "cycle", text: "AC  GenProp0000\n//\n" +
			"AC  GenProp0001\n--\nSN  1\nID  x\nEV  GenProp0002;\n//\n" +
			"AC  GenProp0002\n--\nSN  1\nID  x\nEV  GenProp0001;\n//\n"},
		{name: "bad threshold", text: "AC  GenProp0001\nTH  two\n//\n"},
		{name: "bad step number", text: "AC  GenProp0001\n--\nSN  one\nID  x\n//\n"},
		{name: "step without number", text: "AC  GenProp0001\n--\nID  x\nEV  PF00001;\n//\n"},
		{name: "bad required flag", text: "AC  GenProp0001\n--\nSN  1\nID  x\nRQ  yes\n//\n"},
		{name: "bad pubmed id", text: "AC  GenProp0001\nRN  [1]\nRM  none\n//\n"},
		{name: "empty", text: "\n\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.text))
			require.Error(t, err)
			assert.ErrorIs(t, err, graph.ErrStructure)
		})
	}
}

func TestParseSplitsMultiplePropertyReferences(t *testing.T) {
	text := "AC  GenProp0001\n--\nSN  1\nID  x\nRQ  1\nEV  GenProp0002; GenProp0003;\n//\n" +
		"AC  GenProp0002\n//\nAC  GenProp0003\n//\n"
	g, err := Parse(strings.NewReader(text))
	require.NoError(t, err)

	p, err := g.Lookup("GenProp0001")
	require.NoError(t, err)
	require.Len(t, p.Steps[0].Elements, 1)
	assert.Len(t, p.Steps[0].Elements[0].Evidence, 2)
	assert.Equal(t, []string{"GenProp0002", "GenProp0003"}, p.Children())
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "genProperties.txt")
	require.NoError(t, os.WriteFile(path, []byte(catalog), 0o644))

	g, err := ParseFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, g.Len())

	_, err = ParseFile(filepath.Join(dir, "missing.txt"))
	assert.Error(t, err)
}
