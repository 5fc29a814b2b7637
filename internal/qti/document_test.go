package qti

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileItem(t *testing.T) {
	item := fallbackItem()
	item.Title = "Capital cities"
	item.Body = "<p>Which city is the capital?</p>\n<qti-choice-interaction response-identifier=\"RESPONSE\"/>"
	item.Feedback = map[string]string{
		"RIGHT": "Well done.",
		"WRONG": "Not quite: 3 < 4\nand more.\n\nSecond paragraph.",
	}

	out, err := NewCompiler(DefaultOptions()).CompileItem(item)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, `<?xml version="1.0" encoding="UTF-8"?>`+"\n"))
	assert.Contains(t, out, `<qti-assessment-item xmlns="http://www.imsglobal.org/xsd/imsqtiasi_v3p0" identifier="ITEM_FALLBACK" title="Capital cities" adaptive="false" time-dependent="false">`)
	assert.Contains(t, out, `<qti-outcome-declaration identifier="FEEDBACK" cardinality="single" base-type="identifier"/>`)
	assert.Contains(t, out, "  <qti-item-body>\n    <p>Which city is the capital?</p>\n")
	assert.Contains(t, out, `<qti-modal-feedback outcome-identifier="FEEDBACK" show-hide="show" identifier="WRONG">`)
	assert.Contains(t, out, "<p>Not quite: 3 &lt; 4 and more.</p>")
	assert.Contains(t, out, "<p>Second paragraph.</p>")
	assert.True(t, strings.HasSuffix(out, "</qti-assessment-item>\n"))

	// Schema order: declarations, outcome, body, processing, feedback
	order := []string{
		"<qti-response-declaration",
		"<qti-outcome-declaration",
		"<qti-item-body>",
		"<qti-response-processing>",
		"<qti-modal-feedback",
	}
	last := -1
	for _, marker := range order {
		idx := strings.Index(out, marker)
		require.NotEqual(t, -1, idx, marker)
		assert.Greater(t, idx, last, marker)
		last = idx
	}

	// Feedback follows plan order
	assert.Less(t, strings.Index(out, `identifier="RIGHT">`), strings.Index(out, `identifier="WRONG">`))
}

func TestCompileItem_SkipsCombinationsWithoutFeedback(t *testing.T) {
	item := fallbackItem()
	item.Feedback = map[string]string{"WRONG": "Try again.", "RIGHT": "   "}

	out, err := NewCompiler(DefaultOptions()).CompileItem(item)
	require.NoError(t, err)

	assert.Equal(t, 1, strings.Count(out, "<qti-modal-feedback"))
	assert.Contains(t, out, `title="ITEM_FALLBACK"`, "title falls back to the identifier")
}

func TestCompileItem_PropagatesErrors(t *testing.T) {
	item := fallbackItem()
	item.FeedbackPlan.Combinations = nil

	out, err := NewCompiler(DefaultOptions()).CompileItem(item)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmptyPlan)
	assert.Empty(t, out)
}

func TestParagraphs(t *testing.T) {
	assert.Equal(t, []string{"a b", "c"}, paragraphs("a\r\nb\n\n\nc\n"))
	assert.Empty(t, paragraphs("  \n "))
}
