package models

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// itemValidate is the shared validator instance for item structures
var itemValidate = validator.New()

// identifierPattern restricts item, response and combination identifiers to
// XML name characters. Item identifiers also name output files, so a leading
// dot or any path separator is never allowed.
var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.-]*$`)

// IsValidIdentifier reports whether s can be used as an item, response or
// combination identifier
func IsValidIdentifier(s string) bool {
	return identifierPattern.MatchString(s)
}

func identifierIssue(field, kind, id string) error {
	return issue(field, "%s identifier %q must start with a letter or underscore and contain only letters, digits, '_', '-' or '.'", kind, id)
}

// ValidationError describes a single input-contract violation
type ValidationError struct {
	Field   string // Location of the offending value (e.g. "RESPONSE.correct[1]")
	Message string // Human-readable description
}

// Error implements the error interface for ValidationError
func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func issue(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// structIssues converts validator tag failures into ValidationErrors
func structIssues(v interface{}) []error {
	err := itemValidate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []error{err}
	}

	issues := make([]error, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msg := fmt.Sprintf("failed %q check", fe.Tag())
		if fe.Param() != "" {
			msg = fmt.Sprintf("failed %q check (%s)", fe.Tag(), fe.Param())
		}
		issues = append(issues, issue(fe.Namespace(), "%s", msg))
	}
	return issues
}

// Validate checks a single declaration against the input contract:
// value types match the base type, single cardinality holds exactly one
// value, float declarations carry rounding (and only they do), numerics are
// finite and identifiers contain no whitespace.
func (d *ResponseDeclaration) Validate() error {
	return errors.Join(append(structIssues(d), d.contractIssues()...)...)
}

func (d *ResponseDeclaration) contractIssues() []error {
	var issues []error
	name := d.Identifier
	if name == "" {
		name = "<unnamed>"
	}

	if d.Identifier != "" && !IsValidIdentifier(d.Identifier) {
		issues = append(issues, identifierIssue(name, "response", d.Identifier))
	}
	if d.Cardinality == CardinalitySingle && len(d.Correct) > 1 {
		issues = append(issues, issue(name, "single cardinality requires exactly one correct value, got %d", len(d.Correct)))
	}
	if d.BaseType == BaseTypeFloat && d.Rounding == nil {
		issues = append(issues, issue(name, "float responses require rounding"))
	}
	if d.BaseType != BaseTypeFloat && d.Rounding != nil {
		issues = append(issues, issue(name, "rounding is only allowed for float responses"))
	}

	for i, v := range d.Correct {
		field := fmt.Sprintf("%s.correct[%d]", name, i)
		if v == nil {
			issues = append(issues, issue(field, "value is missing"))
			continue
		}
		if v.BaseType() != d.BaseType {
			issues = append(issues, issue(field, "value of type %s does not match base type %s", v.BaseType(), d.BaseType))
			continue
		}
		switch val := v.(type) {
		case FloatValue:
			if !val.IsFinite() {
				issues = append(issues, issue(field, "float value must be finite"))
			}
		case IdentifierValue:
			if !isIdentifierToken(string(val)) {
				issues = append(issues, issue(field, "identifier %q must be non-empty and contain no whitespace", val))
			}
		case DirectedPair:
			if !isIdentifierToken(val.Source) || !isIdentifierToken(val.Target) {
				issues = append(issues, issue(field, "directed pair %q needs non-empty source and target without whitespace", val.String()))
			}
		}
	}
	return issues
}

func isIdentifierToken(s string) bool {
	return s != "" && !strings.ContainsAny(s, " \t\r\n")
}

// ValidatePlan checks the feedback plan against the declarations it refers to
func ValidatePlan(plan *FeedbackPlan, decls []ResponseDeclaration) error {
	return errors.Join(append(structIssues(plan), planIssues(plan, IndexDeclarations(decls))...)...)
}

func planIssues(plan *FeedbackPlan, index DeclarationIndex) []error {
	var issues []error

	if plan.Mode == PlanModeFallback && len(plan.Dimensions) > 1 {
		issues = append(issues, issue("feedback_plan", "fallback mode allows at most one dimension, got %d", len(plan.Dimensions)))
	}

	seenDims := make(map[string]bool)
	for i, dim := range plan.Dimensions {
		field := fmt.Sprintf("dimensions[%d]", i)
		if _, ok := index[dim.ResponseIdentifier]; !ok {
			issues = append(issues, issue(field, "references undeclared response %q", dim.ResponseIdentifier))
		}
		if seenDims[dim.ResponseIdentifier] {
			issues = append(issues, issue(field, "response %q appears in more than one dimension", dim.ResponseIdentifier))
		}
		seenDims[dim.ResponseIdentifier] = true

		if enum, ok := dim.Kind.(Enumerated); ok {
			if len(enum.Choices) == 0 {
				issues = append(issues, issue(field, "enumerated dimension %s has no keys", dim.ResponseIdentifier))
			}
			seenKeys := make(map[string]bool)
			for _, k := range enum.Choices {
				if seenKeys[k] {
					issues = append(issues, issue(field, "duplicate key %q", k))
				}
				seenKeys[k] = true
			}
		}
	}

	seenIDs := make(map[string]bool)
	for _, combo := range plan.Combinations {
		field := "combination " + combo.ID
		if seenIDs[combo.ID] {
			issues = append(issues, issue(field, "duplicate combination id"))
		}
		seenIDs[combo.ID] = true
		if combo.ID != "" && !IsValidIdentifier(combo.ID) {
			issues = append(issues, identifierIssue(field, "combination", combo.ID))
		}

		if len(combo.Path) != len(plan.Dimensions) {
			issues = append(issues, issue(field, "path has %d steps, plan has %d dimensions", len(combo.Path), len(plan.Dimensions)))
			continue
		}
		for d, step := range combo.Path {
			dim := plan.Dimensions[d]
			if step.ResponseIdentifier != dim.ResponseIdentifier {
				issues = append(issues, issue(field, "step %d targets %q, expected %q", d, step.ResponseIdentifier, dim.ResponseIdentifier))
				continue
			}
			if dim.Kind != nil && !containsKey(dim.Kind.Keys(), step.Key) {
				issues = append(issues, issue(field, "key %q is not valid for %s dimension %s", step.Key, dim.Kind.Name(), dim.ResponseIdentifier))
			}
		}
	}

	return issues
}

func containsKey(keys []string, key string) bool {
	for _, k := range keys {
		if k == key {
			return true
		}
	}
	return false
}

// Validate checks the whole item: declaration contract, unique identifiers
// and plan consistency. All problems are reported together.
func (i *Item) Validate() error {
	issues := structIssues(i)
	if i.Identifier != "" && !IsValidIdentifier(i.Identifier) {
		issues = append(issues, identifierIssue("identifier", "item", i.Identifier))
	}

	seen := make(map[string]bool)
	for idx := range i.ResponseDeclarations {
		decl := &i.ResponseDeclarations[idx]
		issues = append(issues, decl.contractIssues()...)
		if decl.Identifier != "" && seen[decl.Identifier] {
			issues = append(issues, issue(decl.Identifier, "duplicate response identifier"))
		}
		seen[decl.Identifier] = true
	}

	issues = append(issues, planIssues(&i.FeedbackPlan, IndexDeclarations(i.ResponseDeclarations))...)

	ids := i.CombinationIDs()
	feedbackIDs := make([]string, 0, len(i.Feedback))
	for id := range i.Feedback {
		feedbackIDs = append(feedbackIDs, id)
	}
	sort.Strings(feedbackIDs)
	for _, id := range feedbackIDs {
		if !containsKey(ids, id) {
			issues = append(issues, issue("feedback", "feedback for unknown combination %q", id))
		}
	}

	return errors.Join(issues...)
}
