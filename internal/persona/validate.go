package persona

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError reports every invariant an [NPCProfile] violates. It is
// returned by [Validate] and [New]; callers can match it with [errors.As].
type ValidationError struct {
	issues []error
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.issues))
	for i, issue := range e.issues {
		msgs[i] = issue.Error()
	}
	return "persona: invalid profile: " + strings.Join(msgs, "; ")
}

// Unwrap exposes the individual issues for [errors.Is] matching.
func (e *ValidationError) Unwrap() []error {
	return e.issues
}

// Issues returns the individual validation failures.
func (e *ValidationError) Issues() []error {
	return e.issues
}

// Validate checks an [NPCProfile] against every construction invariant.
//
// Rules:
//   - ID must be non-empty.
//   - Every trait score must be in [0, 100].
//   - At most [MaxMotivations] motivations, all recognised, no duplicates.
//   - Both alignment axes must be in [-100, 100].
//
// It returns a [*ValidationError] listing all violations, or nil.
// Values are never clamped.
func Validate(p NPCProfile) error {
	var issues []error

	if p.ID == "" {
		issues = append(issues, errors.New("id must not be empty"))
	}

	issues = append(issues, validateTraits(p.Traits)...)

	if len(p.Motivations) > MaxMotivations {
		issues = append(issues, fmt.Errorf("at most %d motivations allowed, got %d", MaxMotivations, len(p.Motivations)))
	}
	seen := make(map[Motivation]bool, len(p.Motivations))
	for i, m := range p.Motivations {
		if !m.IsValid() {
			issues = append(issues, fmt.Errorf("motivation[%d] %q is not recognised", i, m))
		}
		if seen[m] {
			issues = append(issues, fmt.Errorf("motivation %q appears more than once", m))
		}
		seen[m] = true
	}

	if p.LawfulChaotic < -100 || p.LawfulChaotic > 100 {
		issues = append(issues, fmt.Errorf("lawful_chaotic must be in [-100, 100], got %d", p.LawfulChaotic))
	}
	if p.GoodEvil < -100 || p.GoodEvil > 100 {
		issues = append(issues, fmt.Errorf("good_evil must be in [-100, 100], got %d", p.GoodEvil))
	}

	if len(issues) == 0 {
		return nil
	}
	return &ValidationError{issues: issues}
}

func validateTraits(t PersonalityTraits) []error {
	var issues []error
	check := func(name string, v int) {
		if v < 0 || v > 100 {
			issues = append(issues, fmt.Errorf("trait %s must be in [0, 100], got %d", name, v))
		}
	}
	check("openness", t.Openness)
	check("conscientiousness", t.Conscientiousness)
	check("extraversion", t.Extraversion)
	check("agreeableness", t.Agreeableness)
	check("neuroticism", t.Neuroticism)
	return issues
}
