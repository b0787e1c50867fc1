package graph

import (
	"fmt"
	"strings"
)

// Property is one genome property: a curated capability tested for presence
// in an organism. Properties are owned by a Graph and must not be modified
// after Build.
type Property struct {
	ID           string
	Name         string
	Type         string
	Threshold    int
	Description  string
	PrivateNotes string
	// DeclaredParents holds the PN marker values. Edges are derived from
	// evidence, not from this list.
	DeclaredParents []string
	References      []LiteratureReference
	Databases       []DatabaseReference
	Steps           []Step

	parents  []string
	children []string
}

type Step struct {
	Number   int
	Elements []FunctionalElement
}

// FunctionalElement is an OR-group of evidence: any one observed entry
// satisfies it.
type FunctionalElement struct {
	ID       string
	Name     string
	Required bool
	Evidence []Evidence
}

type Evidence struct {
	// Signatures are externally matched accessions (Pfam, TIGRFAM, InterPro...).
	Signatures []string
	// PropertyRef is set when the evidence is another property's state.
	PropertyRef string
	GOTerms     []string
	Sufficient  bool
}

type LiteratureReference struct {
	Number   int
	PubMedID int
	Title    string
	Authors  string
	Journal  string
}

func (r LiteratureReference) Citation() string {
	return fmt.Sprintf("%s %s %s PMID: %d", r.Authors, r.Title, r.Journal, r.PubMedID)
}

type DatabaseReference struct {
	Title     string
	Database  string
	RecordIDs []string
}

func (p *Property) Parents() []string {
	return append([]string(nil), p.parents...)
}

func (p *Property) Children() []string {
	return append([]string(nil), p.children...)
}

func (p *Property) RequiredSteps() []Step {
	var steps []Step
	for _, step := range p.Steps {
		if step.Required() {
			steps = append(steps, step)
		}
	}
	return steps
}

func (p *Property) Step(number int) (Step, bool) {
	for _, step := range p.Steps {
		if step.Number == number {
			return step, true
		}
	}
	return Step{}, false
}

// PropertyRefs lists the property identifiers referenced by any step, in
// step order, without duplicates.
func (p *Property) PropertyRefs() []string {
	seen := make(map[string]struct{})
	var refs []string
	for _, step := range p.Steps {
		for _, ref := range step.PropertyRefs() {
			if _, ok := seen[ref]; ok {
				continue
			}
			seen[ref] = struct{}{}
			refs = append(refs, ref)
		}
	}
	return refs
}

// Required reports whether any functional element of the step is required.
func (s Step) Required() bool {
	for _, element := range s.Elements {
		if element.Required {
			return true
		}
	}
	return false
}

func (s Step) Name() string {
	names := make([]string, 0, len(s.Elements))
	for _, element := range s.Elements {
		names = append(names, element.Name)
	}
	return strings.Join(names, " ")
}

func (s Step) PropertyRefs() []string {
	var refs []string
	for _, element := range s.Elements {
		for _, evidence := range element.Evidence {
			if evidence.IsPropertyRef() {
				refs = append(refs, evidence.PropertyRef)
			}
		}
	}
	return refs
}

func (s Step) Signatures() []string {
	var signatures []string
	for _, element := range s.Elements {
		for _, evidence := range element.Evidence {
			signatures = append(signatures, evidence.Signatures...)
		}
	}
	return signatures
}

func (e Evidence) IsPropertyRef() bool {
	return e.PropertyRef != ""
}

// IsPropertyID reports whether an evidence identifier names a genome
// property rather than a signature.
func IsPropertyID(identifier string) bool {
	return strings.Contains(strings.ToLower(identifier), "genprop")
}
