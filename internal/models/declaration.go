package models

import (
	"fmt"
	"math"
	"strconv"
)

// Cardinality describes how many values a response holds
type Cardinality string

const (
	CardinalitySingle   Cardinality = "single"
	CardinalityMultiple Cardinality = "multiple"
	CardinalityOrdered  Cardinality = "ordered"
)

// BaseType is the value type of a response
type BaseType string

const (
	BaseTypeIdentifier   BaseType = "identifier"
	BaseTypeString       BaseType = "string"
	BaseTypeInteger      BaseType = "integer"
	BaseTypeFloat        BaseType = "float"
	BaseTypeDirectedPair BaseType = "directedPair"
)

// IsNumeric returns true for integer and float base types
func (b BaseType) IsNumeric() bool {
	return b == BaseTypeInteger || b == BaseTypeFloat
}

// UsesMapping returns true if correctness for the base type is scored
// through a value-to-score mapping table. Identifier responses are matched
// directly and numeric responses use equality or tolerance tests.
func (b BaseType) UsesMapping() bool {
	return b == BaseTypeString || b == BaseTypeDirectedPair
}

// RoundingDecimalPlaces is the only rounding strategy the wire format
// supports for float comparison.
const RoundingDecimalPlaces = "decimalPlaces"

// Rounding configures tolerance equality for float responses
type Rounding struct {
	Strategy string `validate:"eq=decimalPlaces"` // Rounding mode, "decimalPlaces"
	Figures  int    `validate:"gte=0"`            // Number of decimal places compared
}

// Value is a single typed correct-response value.
// String returns the canonical text token written into the item.
type Value interface {
	BaseType() BaseType
	String() string
}

// IdentifierValue is a choice or gap identifier
type IdentifierValue string

func (v IdentifierValue) BaseType() BaseType { return BaseTypeIdentifier }
func (v IdentifierValue) String() string     { return string(v) }

// StringValue is a free-text value
type StringValue string

func (v StringValue) BaseType() BaseType { return BaseTypeString }
func (v StringValue) String() string     { return string(v) }

// IntegerValue is an integral numeric value
type IntegerValue int64

func (v IntegerValue) BaseType() BaseType { return BaseTypeInteger }
func (v IntegerValue) String() string     { return strconv.FormatInt(int64(v), 10) }

// FloatValue is a floating point numeric value
type FloatValue float64

func (v FloatValue) BaseType() BaseType { return BaseTypeFloat }

// String renders the shortest decimal form that round-trips, without an
// exponent. Negative zero renders as "0".
func (v FloatValue) String() string {
	f := float64(v)
	if f == 0 {
		return "0"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// IsFinite reports whether the value is neither NaN nor infinite
func (v FloatValue) IsFinite() bool {
	f := float64(v)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// DirectedPair associates a source identifier with a target identifier
type DirectedPair struct {
	Source string
	Target string
}

func (p DirectedPair) BaseType() BaseType { return BaseTypeDirectedPair }

// String renders the pair as "<source> <target>"
func (p DirectedPair) String() string { return p.Source + " " + p.Target }

// ResponseDeclaration describes the expected answer of one scorable interaction
type ResponseDeclaration struct {
	Identifier  string      `validate:"required"`
	Cardinality Cardinality `validate:"oneof=single multiple ordered"`
	BaseType    BaseType    `validate:"oneof=identifier string integer float directedPair"`
	Correct     []Value     `validate:"required,min=1"` // Exactly one value for single cardinality
	Rounding    *Rounding   // Present iff BaseType is float
}

// CorrectTokens returns the canonical text token of every correct value, in input order
func (d *ResponseDeclaration) CorrectTokens() []string {
	tokens := make([]string, 0, len(d.Correct))
	for _, v := range d.Correct {
		tokens = append(tokens, v.String())
	}
	return tokens
}

// SingleCorrect returns the lone correct value of a single-cardinality declaration
func (d *ResponseDeclaration) SingleCorrect() (Value, error) {
	if len(d.Correct) != 1 {
		return nil, fmt.Errorf("response %s: expected exactly one correct value, got %d", d.Identifier, len(d.Correct))
	}
	return d.Correct[0], nil
}

// DeclarationIndex maps response identifiers to their declarations
type DeclarationIndex map[string]*ResponseDeclaration

// IndexDeclarations builds a DeclarationIndex. Later duplicates do not
// replace earlier declarations.
func IndexDeclarations(decls []ResponseDeclaration) DeclarationIndex {
	index := make(DeclarationIndex, len(decls))
	for i := range decls {
		if _, exists := index[decls[i].Identifier]; exists {
			continue
		}
		index[decls[i].Identifier] = &decls[i]
	}
	return index
}
