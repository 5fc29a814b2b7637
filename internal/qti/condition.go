package qti

import (
	"strconv"

	"github.com/harrison/itemforge/internal/models"
)

// SynthesizeCondition renders the boolean test selecting key on dim:
//
//   - enumerated dimension: qti-match of the response against the key as an
//     identifier base value
//   - binary CORRECT on a float response: qti-equal-rounded with the declared
//     rounding mode and figures against the declared correct value
//   - binary CORRECT otherwise: qti-match of the response against qti-correct
//
// Binary INCORRECT has no test of its own; it is the else arm of CORRECT.
func SynthesizeCondition(dim models.Dimension, key string, decls models.DeclarationIndex) (string, error) {
	w := newXMLWriter(DefaultIndent)
	if err := writeCondition(w, dim, key, decls); err != nil {
		return "", err
	}
	return w.String(), nil
}

func writeCondition(w *xmlWriter, dim models.Dimension, key string, decls models.DeclarationIndex) error {
	decl, ok := decls[dim.ResponseIdentifier]
	if !ok {
		return newCompileError(dim.ResponseIdentifier, ErrUndeclaredResponse, "no response declaration with this identifier")
	}

	switch kind := dim.Kind.(type) {
	case models.Enumerated:
		if !containsString(kind.Choices, key) {
			return newCompileError(dim.ResponseIdentifier, ErrInvalidKey, "key %q not in %v", key, kind.Choices)
		}
		w.open(tagMatch)
		w.empty(tagVariable, Attr{attrIdentifier, dim.ResponseIdentifier})
		w.leaf(tagBaseValue, key, Attr{attrBaseType, string(models.BaseTypeIdentifier)})
		w.close(tagMatch)
		return nil

	case models.Binary:
		switch key {
		case models.KeyCorrect:
			return writeCorrectTest(w, decl)
		case models.KeyIncorrect:
			return newCompileError(dim.ResponseIdentifier, ErrInvalidKey, "INCORRECT is the else arm of CORRECT and has no test")
		default:
			return newCompileError(dim.ResponseIdentifier, ErrInvalidKey, "binary key %q", key)
		}

	default:
		return newCompileError(dim.ResponseIdentifier, ErrUnsupportedKind, "%T", dim.Kind)
	}
}

func writeCorrectTest(w *xmlWriter, decl *models.ResponseDeclaration) error {
	switch decl.BaseType {
	case models.BaseTypeFloat:
		if decl.Rounding == nil {
			return newCompileError(decl.Identifier, ErrMissingRounding, "rounding is required for tolerance tests")
		}
		correct, err := decl.SingleCorrect()
		if err != nil {
			return newCompileError(decl.Identifier, ErrNoSingleCorrect, "%d correct values declared", len(decl.Correct))
		}
		w.open(tagEqualRounded,
			Attr{attrRoundingMode, decl.Rounding.Strategy},
			Attr{attrFigures, strconv.Itoa(decl.Rounding.Figures)},
		)
		w.empty(tagVariable, Attr{attrIdentifier, decl.Identifier})
		w.leaf(tagBaseValue, correct.String(), Attr{attrBaseType, string(models.BaseTypeFloat)})
		w.close(tagEqualRounded)
		return nil

	case models.BaseTypeIdentifier, models.BaseTypeString, models.BaseTypeInteger, models.BaseTypeDirectedPair:
		w.open(tagMatch)
		w.empty(tagVariable, Attr{attrIdentifier, decl.Identifier})
		w.empty(tagCorrect, Attr{attrIdentifier, decl.Identifier})
		w.close(tagMatch)
		return nil

	default:
		return newCompileError(decl.Identifier, ErrUnsupportedBaseType, "no correctness test for base type %q", decl.BaseType)
	}
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
