package harness

import (
	"fmt"
	"slices"
)

// EvaluateAssertions checks every assertion against the final models and
// returns one message per failure.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errs []string
	for i, a := range assertions {
		if msg := evaluate(result, a); msg != "" {
			errs = append(errs, fmt.Sprintf("assertions[%d] (%s): %s", i, a.Type, msg))
		}
	}
	return errs
}

func evaluate(result *Result, a Assertion) string {
	switch a.Type {
	case AssertModelCount:
		if len(result.Models) != a.Count {
			return fmt.Sprintf("expected %d model(s), got %d", a.Count, len(result.Models))
		}
	case AssertVersions:
		if got := result.Versions(); !slices.Equal(got, a.Versions) {
			return fmt.Sprintf("expected versions %v, got %v", a.Versions, got)
		}
	case AssertPublished:
		m, ok := result.Model(a.Revision)
		if !ok {
			return fmt.Sprintf("no model with revision %q", a.Revision)
		}
		want := true
		if a.Published != nil {
			want = *a.Published
		}
		if m.Published != want {
			return fmt.Sprintf("expected %s published=%t, got %t", a.Revision, want, m.Published)
		}
	case AssertTakeoff:
		m, ok := result.Model(a.Revision)
		if !ok {
			return fmt.Sprintf("no model with revision %q", a.Revision)
		}
		qty, ok := m.Materials[a.Item]
		if !ok {
			return fmt.Sprintf("%s has no %s line, have %v", a.Revision, a.Item, itemCodes(m.Materials))
		}
		if qty != a.Qty {
			return fmt.Sprintf("expected %s %s qty %d, got %d", a.Revision, a.Item, a.Qty, qty)
		}
	default:
		return fmt.Sprintf("unknown assertion type %q", a.Type)
	}
	return ""
}
