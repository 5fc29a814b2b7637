package qti

import (
	"github.com/harrison/itemforge/internal/models"
)

// EncodeDeclarations renders one response declaration record per declaration,
// in input order. See encodeDeclaration for the record layout.
func EncodeDeclarations(decls []models.ResponseDeclaration) (string, error) {
	w := newXMLWriter(DefaultIndent)
	if err := writeDeclarations(w, decls); err != nil {
		return "", err
	}
	return w.String(), nil
}

func writeDeclarations(w *xmlWriter, decls []models.ResponseDeclaration) error {
	for i := range decls {
		if err := encodeDeclaration(w, &decls[i]); err != nil {
			return err
		}
	}
	return nil
}

// encodeDeclaration writes
//
//	<qti-response-declaration identifier=".." cardinality=".." base-type="..">
//	  <qti-correct-response>
//	    <qti-value>token</qti-value> (one per correct value)
//	  </qti-correct-response>
//	  <qti-mapping default-value="0"> (string and directedPair only)
//	    <qti-map-entry map-key="token" mapped-value="1"/>
//	  </qti-mapping>
//	</qti-response-declaration>
func encodeDeclaration(w *xmlWriter, decl *models.ResponseDeclaration) error {
	switch decl.BaseType {
	case models.BaseTypeIdentifier, models.BaseTypeString, models.BaseTypeInteger,
		models.BaseTypeFloat, models.BaseTypeDirectedPair:
	default:
		return newCompileError(decl.Identifier, ErrUnsupportedBaseType, "base type %q", decl.BaseType)
	}

	tokens := decl.CorrectTokens()

	w.open(tagResponseDeclaration,
		Attr{attrIdentifier, decl.Identifier},
		Attr{attrCardinality, string(decl.Cardinality)},
		Attr{attrBaseType, string(decl.BaseType)},
	)

	w.open(tagCorrectResponse)
	for _, token := range tokens {
		w.leaf(tagValue, token)
	}
	w.close(tagCorrectResponse)

	if decl.BaseType.UsesMapping() {
		w.open(tagMapping, Attr{attrDefaultValue, "0"})
		for _, token := range tokens {
			w.empty(tagMapEntry, Attr{attrMapKey, token}, Attr{attrMappedValue, "1"})
		}
		w.close(tagMapping)
	}

	w.close(tagResponseDeclaration)
	return nil
}
