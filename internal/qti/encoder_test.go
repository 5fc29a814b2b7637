package qti

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/itemforge/internal/models"
)

func TestEncodeDeclarations_DirectedPair(t *testing.T) {
	decls := []models.ResponseDeclaration{{
		Identifier:  "RESPONSE",
		Cardinality: models.CardinalityMultiple,
		BaseType:    models.BaseTypeDirectedPair,
		Correct: []models.Value{
			models.DirectedPair{Source: "WORD_A", Target: "GAP_1"},
			models.DirectedPair{Source: "WORD_B", Target: "GAP_2"},
		},
	}}

	out, err := EncodeDeclarations(decls)
	require.NoError(t, err)

	assert.Contains(t, out, "<qti-value>WORD_A GAP_1</qti-value>")
	assert.Contains(t, out, "<qti-value>WORD_B GAP_2</qti-value>")
	assert.Contains(t, out, `<qti-map-entry map-key="WORD_B GAP_2" mapped-value="1"/>`)
	assert.Contains(t, out, `<qti-map-entry map-key="WORD_A GAP_1" mapped-value="1"/>`)
	assert.Less(t, strings.Index(out, "WORD_A GAP_1"), strings.Index(out, "WORD_B GAP_2"), "values keep input order")
}

func TestEncodeDeclarations_StringMapping(t *testing.T) {
	decls := []models.ResponseDeclaration{{
		Identifier:  "RESPONSE",
		Cardinality: models.CardinalitySingle,
		BaseType:    models.BaseTypeString,
		Correct:     []models.Value{models.StringValue("42")},
	}}

	out, err := EncodeDeclarations(decls)
	require.NoError(t, err)

	assert.Contains(t, out, "<qti-value>42</qti-value>")
	assert.Contains(t, out, `<qti-mapping default-value="0">`)
	assert.Contains(t, out, `<qti-map-entry map-key="42" mapped-value="1"/>`)
}

func TestEncodeDeclarations_IdentifierMultipleSnapshot(t *testing.T) {
	decls := []models.ResponseDeclaration{{
		Identifier:  "RESPONSE",
		Cardinality: models.CardinalityMultiple,
		BaseType:    models.BaseTypeIdentifier,
		Correct:     []models.Value{models.IdentifierValue("A"), models.IdentifierValue("C")},
	}}

	out, err := EncodeDeclarations(decls)
	require.NoError(t, err)

	want := `<qti-response-declaration identifier="RESPONSE" cardinality="multiple" base-type="identifier">
  <qti-correct-response>
    <qti-value>A</qti-value>
    <qti-value>C</qti-value>
  </qti-correct-response>
</qti-response-declaration>
`
	assert.Equal(t, want, out)
	assert.NotContains(t, out, "qti-mapping")
}

func TestEncodeDeclarations_MappingPresence(t *testing.T) {
	tests := []struct {
		name        string
		decl        models.ResponseDeclaration
		wantMapping bool
	}{
		{
			name:        "identifier single",
			decl:        choiceDecl("R", "A"),
			wantMapping: false,
		},
		{
			name: "identifier ordered",
			decl: models.ResponseDeclaration{
				Identifier: "R", Cardinality: models.CardinalityOrdered, BaseType: models.BaseTypeIdentifier,
				Correct: []models.Value{models.IdentifierValue("C"), models.IdentifierValue("A")},
			},
			wantMapping: false,
		},
		{
			name: "string multiple",
			decl: models.ResponseDeclaration{
				Identifier: "R", Cardinality: models.CardinalityMultiple, BaseType: models.BaseTypeString,
				Correct: []models.Value{models.StringValue("red"), models.StringValue("blue")},
			},
			wantMapping: true,
		},
		{
			name: "integer",
			decl: models.ResponseDeclaration{
				Identifier: "R", Cardinality: models.CardinalitySingle, BaseType: models.BaseTypeInteger,
				Correct: []models.Value{models.IntegerValue(-7)},
			},
			wantMapping: false,
		},
		{
			name:        "float",
			decl:        floatDecl("R", 2.25, 2),
			wantMapping: false,
		},
		{
			name: "directed pair single",
			decl: models.ResponseDeclaration{
				Identifier: "R", Cardinality: models.CardinalitySingle, BaseType: models.BaseTypeDirectedPair,
				Correct: []models.Value{models.DirectedPair{Source: "S", Target: "T"}},
			},
			wantMapping: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := EncodeDeclarations([]models.ResponseDeclaration{tt.decl})
			require.NoError(t, err)
			assert.Equal(t, tt.wantMapping, strings.Contains(out, "<qti-mapping"))
			if tt.wantMapping {
				assert.Equal(t, len(tt.decl.Correct), strings.Count(out, "<qti-map-entry"))
			}
		})
	}
}

func TestEncodeDeclarations_NumericTokens(t *testing.T) {
	tests := []struct {
		name  string
		value models.Value
		want  string
	}{
		{"integer", models.IntegerValue(42), "<qti-value>42</qti-value>"},
		{"negative integer", models.IntegerValue(-3), "<qti-value>-3</qti-value>"},
		{"float", models.FloatValue(3.14), "<qti-value>3.14</qti-value>"},
		{"integral float", models.FloatValue(2), "<qti-value>2</qti-value>"},
		{"small float", models.FloatValue(0.0001), "<qti-value>0.0001</qti-value>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decl := models.ResponseDeclaration{
				Identifier:  "R",
				Cardinality: models.CardinalitySingle,
				BaseType:    tt.value.BaseType(),
				Correct:     []models.Value{tt.value},
			}
			if tt.value.BaseType() == models.BaseTypeFloat {
				decl.Rounding = &models.Rounding{Strategy: models.RoundingDecimalPlaces, Figures: 2}
			}
			out, err := EncodeDeclarations([]models.ResponseDeclaration{decl})
			require.NoError(t, err)
			assert.Contains(t, out, tt.want)
		})
	}
}

func TestEncodeDeclarations_EscapesValues(t *testing.T) {
	decls := []models.ResponseDeclaration{{
		Identifier:  "RESPONSE",
		Cardinality: models.CardinalitySingle,
		BaseType:    models.BaseTypeString,
		Correct:     []models.Value{models.StringValue(`a<b & "c"`)},
	}}

	out, err := EncodeDeclarations(decls)
	require.NoError(t, err)
	assert.Contains(t, out, `<qti-value>a&lt;b &amp; "c"</qti-value>`)
	assert.Contains(t, out, `map-key="a&lt;b &amp; &quot;c&quot;"`)
}

func TestEncodeDeclarations_UnsupportedBaseType(t *testing.T) {
	decls := []models.ResponseDeclaration{{
		Identifier:  "RESPONSE",
		Cardinality: models.CardinalitySingle,
		BaseType:    models.BaseType("point"),
		Correct:     []models.Value{models.StringValue("0 0")},
	}}

	_, err := EncodeDeclarations(decls)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupportedBaseType))

	var compileErr *CompileError
	require.ErrorAs(t, err, &compileErr)
	assert.Equal(t, "RESPONSE", compileErr.Identifier)
}

func TestEncodeDeclarations_PreservesDeclarationOrder(t *testing.T) {
	decls := []models.ResponseDeclaration{choiceDecl("SECOND", "A"), choiceDecl("FIRST", "B")}

	out, err := EncodeDeclarations(decls)
	require.NoError(t, err)
	assert.Less(t, strings.Index(out, `identifier="SECOND"`), strings.Index(out, `identifier="FIRST"`))
}
