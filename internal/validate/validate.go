package validate

import (
	"fmt"
	"strings"

	"micromeda/internal/graph"
)

type Severity string

const (
	SeverityError Severity = "error"
	SeverityWarn  Severity = "warning"
)

const (
	codeUnreachableThreshold = "unreachable_threshold"
	codeMultipleRoots        = "multiple_roots"
	codeNoSteps              = "property_without_steps"
	codeStepWithoutEvidence  = "step_without_evidence"
	codeParentNotReferencing = "parent_does_not_reference"
	codeUnknownParent        = "unknown_declared_parent"
)

type Issue struct {
	Severity Severity
	Code     string
	Message  string
	Property string
	// Step is zero for property level issues.
	Step int
}

func (i Issue) String() string {
	location := i.Property
	if i.Step > 0 {
		location = graph.StepKey{PropertyID: i.Property, Number: i.Step}.String()
	}
	if location == "" {
		return fmt.Sprintf("%s [%s] %s", i.Severity, i.Code, i.Message)
	}
	return fmt.Sprintf("%s [%s] %s: %s", i.Severity, i.Code, location, i.Message)
}

type Report struct {
	Issues []Issue
}

func (r *Report) HasErrors() bool {
	for _, issue := range r.Issues {
		if issue.Severity == SeverityError {
			return true
		}
	}
	return false
}

func (r *Report) Count(severity Severity) int {
	n := 0
	for _, issue := range r.Issues {
		if issue.Severity == severity {
			n++
		}
	}
	return n
}

// Run lints a parsed catalog. The graph has already passed structural
// checks in graph.Build; these are the problems that still let it load.
func Run(g *graph.Graph) (*Report, error) {
	if g == nil {
		return nil, fmt.Errorf("graph is required")
	}

	issues := make([]Issue, 0)

	if roots := g.Roots(); len(roots) > 1 {
		ids := make([]string, 0, len(roots))
		for _, root := range roots {
			ids = append(ids, root.ID)
		}
		issues = append(issues, Issue{
			Severity: SeverityWarn,
			Code:     codeMultipleRoots,
			Message:  fmt.Sprintf("%d parentless properties (%s); %s is used as the root", len(ids), strings.Join(ids, ", "), g.Root().ID),
		})
	}

	for _, property := range g.Properties() {
		issues = append(issues, validateThreshold(property)...)
		issues = append(issues, validateSteps(property)...)
		issues = append(issues, validateDeclaredParents(g, property)...)
	}

	return &Report{Issues: issues}, nil
}

func validateThreshold(property *graph.Property) []Issue {
	counted := len(property.RequiredSteps())
	if counted == 0 {
		counted = len(property.Steps)
	}
	if len(property.Steps) == 0 || property.Threshold <= counted {
		return nil
	}
	return []Issue{{
		Severity: SeverityError,
		Code:     codeUnreachableThreshold,
		Message:  fmt.Sprintf("threshold %d exceeds the %d counted steps, PARTIAL can never be assigned", property.Threshold, counted),
		Property: property.ID,
	}}
}

func validateSteps(property *graph.Property) []Issue {
	if len(property.Steps) == 0 {
		return []Issue{{
			Severity: SeverityWarn,
			Code:     codeNoSteps,
			Message:  "property has no steps and is always assigned YES",
			Property: property.ID,
		}}
	}

	var issues []Issue
	for _, step := range property.Steps {
		if hasEvidence(step) {
			continue
		}
		issues = append(issues, Issue{
			Severity: SeverityWarn,
			Code:     codeStepWithoutEvidence,
			Message:  "step has no evidence and is always assigned NO",
			Property: property.ID,
			Step:     step.Number,
		})
	}
	return issues
}

func hasEvidence(step graph.Step) bool {
	for _, element := range step.Elements {
		for _, evidence := range element.Evidence {
			if evidence.IsPropertyRef() || len(evidence.Signatures) > 0 {
				return true
			}
		}
	}
	return false
}

func validateDeclaredParents(g *graph.Graph, property *graph.Property) []Issue {
	var issues []Issue
	for _, declared := range property.DeclaredParents {
		parent, err := g.Lookup(declared)
		if err != nil {
			issues = append(issues, Issue{
				Severity: SeverityWarn,
				Code:     codeUnknownParent,
				Message:  fmt.Sprintf("declared parent %s is not in the catalog", declared),
				Property: property.ID,
			})
			continue
		}
		if !containsString(parent.Children(), property.ID) {
			issues = append(issues, Issue{
				Severity: SeverityWarn,
				Code:     codeParentNotReferencing,
				Message:  fmt.Sprintf("declared parent %s has no step evidence referencing this property", declared),
				Property: property.ID,
			})
		}
	}
	return issues
}

func containsString(values []string, target string) bool {
	for _, value := range values {
		if value == target {
			return true
		}
	}
	return false
}
