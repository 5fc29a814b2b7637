package parser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalFrontmatter = `---
identifier: ITEM_MD
response_declarations:
  - {identifier: RESPONSE, base_type: identifier, correct: A}
feedback_plan:
  dimensions:
    - {response_identifier: RESPONSE, kind: binary}
  combinations:
    - {id: RIGHT, path: [RESPONSE=CORRECT]}
    - {id: WRONG, path: [RESPONSE=INCORRECT]}
---
`

func TestMarkdownParser_Density(t *testing.T) {
	item, err := ParseFile("testdata/density.md")
	require.NoError(t, err)

	assert.Equal(t, "ITEM_DENSITY", item.Identifier)
	assert.Equal(t, "Density of a cube", item.Title, "level-1 heading supplies the title")

	assert.Contains(t, item.Body, "<p>Pick the <strong>material</strong>, then enter the density.</p>")
	assert.Contains(t, item.Body, `<qti-text-entry-interaction response-identifier="RESPONSE_FLOAT"/>`)
	assert.NotContains(t, item.Body, "Authoring notes")
	assert.NotContains(t, item.Body, "Right material")

	assert.Len(t, item.Feedback, 3)
	assert.Equal(t, "Right material, right density.", item.Feedback["CHOICE_A_FLOAT_CORRECT"])
	assert.Equal(t, "Right material, but check your\ndivision.", item.Feedback["CHOICE_A_FLOAT_INCORRECT"])
	assert.NotContains(t, item.Feedback["CHOICE_B_FLOAT_CORRECT"], "Reviewer", "unrelated sections end feedback")

	require.NoError(t, item.Validate())
}

func TestMarkdownParser_Sections(t *testing.T) {
	tests := []struct {
		name         string
		body         string
		wantFeedback map[string]string
		wantBody     string
		wantTitle    string
	}{
		{
			name:         "frontmatter only",
			body:         "",
			wantFeedback: nil,
		},
		{
			name:         "case-insensitive headings",
			body:         "## feedback RIGHT\nYes.\n## BODY\nPlain text.\n",
			wantFeedback: map[string]string{"RIGHT": "Yes."},
			wantBody:     "<p>Plain text.</p>",
		},
		{
			name:         "headings inside code blocks are content",
			body:         "## Feedback WRONG\n\n```\n## Feedback RIGHT\n```\n",
			wantFeedback: map[string]string{"WRONG": "```\n## Feedback RIGHT\n```"},
		},
		{
			name:         "setext heading",
			body:         "Feedback WRONG\n--------------\n\nTry again.\n",
			wantFeedback: map[string]string{"WRONG": "Try again."},
		},
		{
			name:         "level-3 headings stay inside the section",
			body:         "## Feedback WRONG\n### Hint\nLook again.\n",
			wantFeedback: map[string]string{"WRONG": "### Hint\nLook again."},
		},
		{
			name:      "first level-1 heading is the title",
			body:      "# First\n# Second\n",
			wantTitle: "First",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item, err := NewMarkdownParser().Parse(strings.NewReader(minimalFrontmatter + tt.body))
			require.NoError(t, err)

			assert.Equal(t, tt.wantFeedback, item.Feedback)
			assert.Equal(t, tt.wantBody, item.Body)
			assert.Equal(t, tt.wantTitle, item.Title)
		})
	}
}

func TestMarkdownParser_Errors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		wantErr string
	}{
		{"no frontmatter", "# Title\n\n## Body\ntext\n", "missing YAML frontmatter"},
		{"bad frontmatter", "---\nidentifier: [\n---\n", "failed to parse frontmatter"},
		{"feedback twice", minimalFrontmatter + "## Feedback RIGHT\na\n## Feedback RIGHT\nb\n", "defined more than once"},
		{
			"body twice",
			strings.Replace(minimalFrontmatter, "identifier: ITEM_MD", "identifier: ITEM_MD\nbody: <p>x</p>", 1) + "## Body\ny\n",
			"both frontmatter and ## Body",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewMarkdownParser().Parse(strings.NewReader(tt.src))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestExtractFrontmatter(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wantBody    string
		wantMatter  string
		wantPresent bool
	}{
		{"present", "---\na: 1\n---\nbody\n", "body\n", "a: 1", true},
		{"unterminated", "---\na: 1\nbody\n", "---\na: 1\nbody\n", "", false},
		{"not at start", "text\n---\na: 1\n---\n", "text\n---\na: 1\n---\n", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, matter := extractFrontmatter([]byte(tt.input))
			if string(body) != tt.wantBody {
				t.Errorf("body = %q, want %q", body, tt.wantBody)
			}
			if (matter != nil) != tt.wantPresent {
				t.Errorf("frontmatter present = %v, want %v", matter != nil, tt.wantPresent)
			}
			if string(matter) != tt.wantMatter {
				t.Errorf("frontmatter = %q, want %q", matter, tt.wantMatter)
			}
		})
	}
}
