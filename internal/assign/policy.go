package assign

import (
	"fmt"
	"strings"
)

// ThresholdRule decides how a property's TH value gates PARTIAL.
type ThresholdRule int

const (
	// ThresholdAtLeast yields PARTIAL when the number of YES required
	// steps is at least TH.
	ThresholdAtLeast ThresholdRule = iota
	// ThresholdExceeds yields PARTIAL only when that number is greater
	// than TH, as the EBI Genome Properties calculator does.
	ThresholdExceeds
)

// CategoryRule decides how properties without required steps are assigned.
type CategoryRule int

const (
	// CategoryCounted applies the property rule, threshold included, to
	// all steps.
	CategoryCounted CategoryRule = iota
	// CategoryUnthresholded ignores TH: all YES is YES, all NO is NO and
	// anything else is PARTIAL.
	CategoryUnthresholded
)

type Policy struct {
	Threshold ThresholdRule
	Category  CategoryRule
	// HonorSufficient restricts a functional element that carries
	// sufficient evidence to those entries.
	HonorSufficient bool
}

func DefaultPolicy() Policy {
	return Policy{Threshold: ThresholdAtLeast, Category: CategoryCounted}
}

func (r ThresholdRule) String() string {
	if r == ThresholdExceeds {
		return "exceeds"
	}
	return "at-least"
}

func ParseThresholdRule(text string) (ThresholdRule, error) {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "", "at-least":
		return ThresholdAtLeast, nil
	case "exceeds":
		return ThresholdExceeds, nil
	}
	return ThresholdAtLeast, fmt.Errorf("unknown threshold rule %q (want at-least or exceeds)", text)
}

func (r CategoryRule) String() string {
	if r == CategoryUnthresholded {
		return "unthresholded"
	}
	return "counted"
}

func ParseCategoryRule(text string) (CategoryRule, error) {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "", "counted":
		return CategoryCounted, nil
	case "unthresholded":
		return CategoryUnthresholded, nil
	}
	return CategoryCounted, fmt.Errorf("unknown category rule %q (want counted or unthresholded)", text)
}

// partialAllowed reports whether yes required steps clear the threshold.
func (p Policy) partialAllowed(yes, threshold int) bool {
	if threshold <= 0 {
		return true
	}
	if p.Threshold == ThresholdExceeds {
		return yes > threshold
	}
	return yes >= threshold
}
