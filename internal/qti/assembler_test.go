package qti

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/itemforge/internal/models"
)

func fallbackItem() *models.Item {
	return &models.Item{
		Identifier:           "ITEM_FALLBACK",
		ResponseDeclarations: []models.ResponseDeclaration{choiceDecl("RESPONSE", "B")},
		FeedbackPlan: models.FeedbackPlan{
			Mode:       models.PlanModeFallback,
			Dimensions: []models.Dimension{binaryDim("RESPONSE")},
			Combinations: []models.Combination{
				combo("RIGHT", "RESPONSE", "CORRECT"),
				combo("WRONG", "RESPONSE", "INCORRECT"),
			},
		},
	}
}

func TestCompileResponseProcessing_FallbackSnapshot(t *testing.T) {
	out, err := CompileResponseProcessing(fallbackItem())
	require.NoError(t, err)

	want := `<qti-response-declaration identifier="RESPONSE" cardinality="single" base-type="identifier">
  <qti-correct-response>
    <qti-value>B</qti-value>
  </qti-correct-response>
</qti-response-declaration>
<qti-response-processing>
  <qti-response-condition>
    <qti-response-if>
      <qti-match>
        <qti-variable identifier="RESPONSE"/>
        <qti-correct identifier="RESPONSE"/>
      </qti-match>
      <qti-set-outcome-value identifier="FEEDBACK">
        <qti-base-value base-type="identifier">RIGHT</qti-base-value>
      </qti-set-outcome-value>
    </qti-response-if>
    <qti-response-else>
      <qti-set-outcome-value identifier="FEEDBACK">
        <qti-base-value base-type="identifier">WRONG</qti-base-value>
      </qti-set-outcome-value>
    </qti-response-else>
  </qti-response-condition>
</qti-response-processing>
`
	assert.Equal(t, want, out)
}

func TestCompileResponseProcessing_ZeroDimensions(t *testing.T) {
	item := &models.Item{
		Identifier:           "ITEM_ZERO",
		ResponseDeclarations: []models.ResponseDeclaration{choiceDecl("RESPONSE", "A")},
		FeedbackPlan: models.FeedbackPlan{
			Mode:         models.PlanModeFallback,
			Combinations: []models.Combination{{ID: "ALWAYS"}},
		},
	}

	body, err := NewCompiler(DefaultOptions()).ProcessingBody(item)
	require.NoError(t, err)

	want := `<qti-response-processing>
  <qti-set-outcome-value identifier="FEEDBACK">
    <qti-base-value base-type="identifier">ALWAYS</qti-base-value>
  </qti-set-outcome-value>
</qti-response-processing>
`
	assert.Equal(t, want, body)
}

func TestCompileResponseProcessing_FloatToleranceUnderChoice(t *testing.T) {
	out, err := CompileResponseProcessing(choiceWithFloatItem())
	require.NoError(t, err)

	choiceA := "<qti-base-value base-type=\"identifier\">A</qti-base-value>"
	assert.Equal(t, 1, strings.Count(out, choiceA), "the RESPONSE_CHOICE == A test appears once")
	assert.Contains(t, out, `<qti-equal-rounded rounding-mode="decimalPlaces" figures="1">`)

	// Both float leaves of choice A sit inside the A arm, before the B arm starts
	aTest := strings.Index(out, choiceA)
	bTest := strings.Index(out, "<qti-base-value base-type=\"identifier\">B</qti-base-value>")
	correctLeaf := strings.Index(out, ">CHOICE_A_FLOAT_CORRECT<")
	incorrectLeaf := strings.Index(out, ">CHOICE_A_FLOAT_INCORRECT<")
	assert.True(t, aTest < correctLeaf && correctLeaf < bTest)
	assert.True(t, aTest < incorrectLeaf && incorrectLeaf < bTest)

	assert.Contains(t, out, "<qti-response-else-if>")
	assert.Equal(t, 2, strings.Count(out, "<qti-response-else>"))
}

func TestCompileResponseProcessing_TwoEnumeratedDimensions(t *testing.T) {
	item := twoChoiceItem()
	out, err := CompileResponseProcessing(item)
	require.NoError(t, err)

	for _, id := range item.CombinationIDs() {
		assert.Contains(t, out, ">"+id+"</qti-base-value>")
	}
	assert.Contains(t, out, `<qti-variable identifier="RESPONSE_1"/>`)
	assert.Contains(t, out, `<qti-variable identifier="RESPONSE_2"/>`)
	assert.Contains(t, out, `<qti-base-value base-type="identifier">A</qti-base-value>`)
	assert.Contains(t, out, `<qti-base-value base-type="identifier">B</qti-base-value>`)
}

func TestCompileResponseProcessing_OneAssignmentPerCombination(t *testing.T) {
	for _, item := range []*models.Item{fallbackItem(), choiceWithFloatItem(), twoChoiceItem()} {
		t.Run(item.Identifier, func(t *testing.T) {
			out, err := CompileResponseProcessing(item)
			require.NoError(t, err)

			assert.Equal(t, len(item.FeedbackPlan.Combinations), strings.Count(out, "<qti-set-outcome-value"))
			for _, id := range item.CombinationIDs() {
				assert.Equal(t, 1, strings.Count(out, ">"+id+"</qti-base-value>"), "combination %s", id)
			}
		})
	}
}

func TestCompileResponseProcessing_Deterministic(t *testing.T) {
	first, err := CompileResponseProcessing(choiceWithFloatItem())
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]string, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			out, err := CompileResponseProcessing(choiceWithFloatItem())
			if err == nil {
				results[i] = out
			}
		}(i)
	}
	wg.Wait()

	for _, out := range results {
		assert.Equal(t, first, out)
	}
}

func TestCompileResponseProcessing_DoesNotMutateInput(t *testing.T) {
	item := twoChoiceItem()
	before := twoChoiceItem()

	_, err := CompileResponseProcessing(item)
	require.NoError(t, err)
	assert.Equal(t, before, item)
}

func TestCompileResponseProcessing_UndeclaredDimension(t *testing.T) {
	item := fallbackItem()
	item.FeedbackPlan.Dimensions[0].ResponseIdentifier = "RESPONSE_GHOST"

	out, err := CompileResponseProcessing(item)
	require.Error(t, err)
	assert.Empty(t, out, "no partial output")
	assert.True(t, errors.Is(err, ErrUndeclaredResponse))
	assert.Contains(t, err.Error(), "RESPONSE_GHOST")
}

func TestCompileResponseProcessing_StrictPlan(t *testing.T) {
	item := twoChoiceItem()
	item.FeedbackPlan.Combinations = item.FeedbackPlan.Combinations[:3]

	lenient, err := CompileResponseProcessing(item)
	require.NoError(t, err, "lenient mode compiles an incomplete plan")
	assert.NotContains(t, lenient, "FB_B_B")

	strict := NewCompiler(Options{StrictPlan: true})
	_, err = strict.CompileResponseProcessing(item)
	require.Error(t, err)

	var coverage *models.CoverageError
	require.ErrorAs(t, err, &coverage)
	assert.Equal(t, 1, coverage.MissingAll)
	assert.Equal(t, []string{"RESPONSE_1=B, RESPONSE_2=B"}, coverage.Missing)
}

func TestCompiler_Options(t *testing.T) {
	c := NewCompiler(Options{FeedbackOutcome: "FB", Indent: "\t"})
	out, err := c.CompileResponseProcessing(fallbackItem())
	require.NoError(t, err)

	assert.Contains(t, out, `<qti-set-outcome-value identifier="FB">`)
	assert.Contains(t, out, "\n\t<qti-correct-response>\n")
	assert.NotContains(t, out, `identifier="FEEDBACK"`)

	defaults := NewCompiler(Options{}).Options()
	assert.Equal(t, models.DefaultFeedbackOutcome, defaults.FeedbackOutcome)
	assert.Equal(t, DefaultIndent, defaults.Indent)
}
