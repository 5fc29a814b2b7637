package parser

import (
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"

	"github.com/harrison/itemforge/internal/models"
)

var (
	feedbackHeadingRegex = regexp.MustCompile(`(?i)^feedback\s+(\S+)$`)
	bodyHeadingRegex     = regexp.MustCompile(`(?i)^body$`)
)

// MarkdownParser parses items written as Markdown with YAML frontmatter.
//
// The frontmatter uses the YAML item schema. Level-2 headings then split the
// document into sections:
//   - "## Body" is rendered to XHTML and becomes the item body
//   - "## Feedback <COMBINATION_ID>" holds that combination's feedback text
//
// Other level-2 sections are authoring notes and are ignored. A level-1
// heading supplies the title when the frontmatter has none.
type MarkdownParser struct {
	markdown goldmark.Markdown
}

// NewMarkdownParser creates a new Markdown item parser
func NewMarkdownParser() *MarkdownParser {
	return &MarkdownParser{
		markdown: goldmark.New(
			goldmark.WithRendererOptions(
				html.WithXHTML(),
				html.WithUnsafe(), // interaction markup is passed through
			),
		),
	}
}

// section is the source text under one level-2 heading
type section struct {
	heading string
	content string
}

// Parse reads a Markdown item
func (p *MarkdownParser) Parse(r io.Reader) (*models.Item, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read content: %w", err)
	}

	content, frontmatter := extractFrontmatter(content)
	if frontmatter == nil {
		return nil, fmt.Errorf("missing YAML frontmatter")
	}

	item, err := decodeItem(frontmatter)
	if err != nil {
		return nil, fmt.Errorf("failed to parse frontmatter: %w", err)
	}

	doc := p.markdown.Parser().Parse(text.NewReader(content))
	title, sections := collectSections(doc, content)
	if item.Title == "" {
		item.Title = title
	}

	for _, s := range sections {
		if bodyHeadingRegex.MatchString(s.heading) {
			if item.Body != "" {
				return nil, fmt.Errorf("item body defined in both frontmatter and ## Body section")
			}
			var buf bytes.Buffer
			if err := p.markdown.Convert([]byte(s.content), &buf); err != nil {
				return nil, fmt.Errorf("failed to render body: %w", err)
			}
			item.Body = strings.TrimSpace(buf.String())
			continue
		}

		if m := feedbackHeadingRegex.FindStringSubmatch(s.heading); m != nil {
			id := m[1]
			if item.Feedback == nil {
				item.Feedback = make(map[string]string)
			}
			if _, exists := item.Feedback[id]; exists {
				return nil, fmt.Errorf("feedback for %s defined more than once", id)
			}
			item.Feedback[id] = strings.TrimSpace(s.content)
		}
	}

	return item, nil
}

// collectSections returns the first level-1 heading text and the level-2
// sections of the document. Section content is the raw source between the
// heading and the next level-1 or level-2 heading.
func collectSections(doc ast.Node, source []byte) (string, []section) {
	type mark struct {
		level int
		text  string
		start int // offset of the heading line
		end   int // offset just past the heading (including a setext underline)
	}

	var marks []mark
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		heading, ok := n.(*ast.Heading)
		if !ok || heading.Level > 2 || heading.Lines().Len() == 0 {
			continue
		}
		first := heading.Lines().At(0)
		last := heading.Lines().At(heading.Lines().Len() - 1)
		start := lineStart(source, first.Start)
		// Segment stops may or may not include the newline
		end := lineEnd(source, max(last.Stop-1, last.Start))
		if isSetextUnderline(source, end) {
			end = lineEnd(source, end)
		}
		marks = append(marks, mark{
			level: heading.Level,
			text:  strings.TrimSpace(extractText(heading, source)),
			start: start,
			end:   end,
		})
	}

	var title string
	var sections []section
	for i, m := range marks {
		if m.level == 1 {
			if title == "" {
				title = m.text
			}
			continue
		}
		stop := len(source)
		if i+1 < len(marks) {
			stop = marks[i+1].start
		}
		sections = append(sections, section{heading: m.text, content: string(source[m.end:stop])})
	}
	return title, sections
}

func lineStart(source []byte, offset int) int {
	if i := bytes.LastIndexByte(source[:offset], '\n'); i >= 0 {
		return i + 1
	}
	return 0
}

func lineEnd(source []byte, offset int) int {
	if offset >= len(source) {
		return len(source)
	}
	if i := bytes.IndexByte(source[offset:], '\n'); i >= 0 {
		return offset + i + 1
	}
	return len(source)
}

func isSetextUnderline(source []byte, offset int) bool {
	line := bytes.TrimSpace(source[offset:lineEnd(source, offset)])
	if len(line) == 0 {
		return false
	}
	return len(bytes.Trim(line, "=")) == 0 || len(bytes.Trim(line, "-")) == 0
}

// extractText concatenates the text children of a heading
func extractText(n ast.Node, source []byte) string {
	var buf bytes.Buffer
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			buf.Write(t.Segment.Value(source))
		}
	}
	return buf.String()
}

// extractFrontmatter splits a leading "---" delimited YAML block from content
func extractFrontmatter(content []byte) ([]byte, []byte) {
	lines := bytes.Split(content, []byte("\n"))

	if len(lines) < 3 || !bytes.Equal(bytes.TrimSpace(lines[0]), []byte("---")) {
		return content, nil
	}

	for i := 1; i < len(lines); i++ {
		if bytes.Equal(bytes.TrimSpace(lines[i]), []byte("---")) {
			frontmatter := bytes.Join(lines[1:i], []byte("\n"))
			body := bytes.Join(lines[i+1:], []byte("\n"))
			return body, frontmatter
		}
	}

	return content, nil
}
