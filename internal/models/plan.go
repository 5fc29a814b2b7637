package models

// Outcome keys of a binary dimension
const (
	KeyCorrect   = "CORRECT"
	KeyIncorrect = "INCORRECT"
)

// PlanMode selects between the single-dimension and the general plan shape.
// Both are compiled by the same tree builder.
type PlanMode string

const (
	PlanModeFallback PlanMode = "fallback"
	PlanModeCombo    PlanMode = "combo"
)

// DimensionKind is the outcome axis type of a dimension.
// The set of kinds is closed: Binary and Enumerated are the only implementations.
type DimensionKind interface {
	// Name returns the kind name used in item sources ("binary", "enumerated")
	Name() string
	// Keys returns the legal outcome keys in declaration order
	Keys() []string

	dimensionKind()
}

// Binary is a correct/incorrect outcome relative to the declared correct response
type Binary struct{}

func (Binary) Name() string   { return "binary" }
func (Binary) Keys() []string { return []string{KeyCorrect, KeyIncorrect} }
func (Binary) dimensionKind() {}

// Enumerated is an outcome drawn from an explicit key list, typically choice identifiers
type Enumerated struct {
	Choices []string
}

// NewEnumerated creates an Enumerated kind over the given keys
func NewEnumerated(keys ...string) Enumerated {
	return Enumerated{Choices: append([]string(nil), keys...)}
}

func (Enumerated) Name() string     { return "enumerated" }
func (e Enumerated) Keys() []string { return e.Choices }
func (Enumerated) dimensionKind()   {}

// Dimension is one response's outcome axis within a feedback plan
type Dimension struct {
	ResponseIdentifier string        `validate:"required"`
	Kind               DimensionKind `validate:"required"`
}

// PathStep assigns one outcome key to one dimension
type PathStep struct {
	ResponseIdentifier string `validate:"required"`
	Key                string `validate:"required"`
}

// Combination is one full assignment of outcomes across all dimensions
type Combination struct {
	ID   string     `validate:"required"` // Feedback identifier assigned when this path matches
	Path []PathStep `validate:"dive"`     // One step per dimension, in dimension order
}

// FeedbackPlan describes how per-response outcomes combine into feedback branches
type FeedbackPlan struct {
	Mode         PlanMode      `validate:"oneof=fallback combo"`
	Dimensions   []Dimension   `validate:"dive"`
	Combinations []Combination `validate:"required,min=1,dive"`
}
