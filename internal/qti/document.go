package qti

import (
	"strings"

	"github.com/harrison/itemforge/internal/models"
)

const xmlProlog = `<?xml version="1.0" encoding="UTF-8"?>`

// CompileItem renders a complete qti-assessment-item: response declarations,
// the feedback outcome declaration, the item body (verbatim), the response
// processing and one modal feedback per combination that has feedback text.
func (c *Compiler) CompileItem(item *models.Item) (string, error) {
	w := newXMLWriter(c.opts.Indent)
	w.line(xmlProlog)

	attrs := []Attr{
		{attrXMLNS, qtiNamespace},
		{attrIdentifier, item.Identifier},
	}
	title := item.Title
	if title == "" {
		title = item.Identifier
	}
	attrs = append(attrs,
		Attr{attrTitle, title},
		Attr{attrAdaptive, "false"},
		Attr{attrTimeDependent, "false"},
	)
	w.open(tagAssessmentItem, attrs...)

	if err := writeDeclarations(w, item.ResponseDeclarations); err != nil {
		return "", err
	}
	w.empty(tagOutcomeDeclaration,
		Attr{attrIdentifier, c.opts.FeedbackOutcome},
		Attr{attrCardinality, string(models.CardinalitySingle)},
		Attr{attrBaseType, string(models.BaseTypeIdentifier)},
	)

	w.open(tagItemBody)
	w.raw(item.Body)
	w.close(tagItemBody)

	if err := c.writeResponseProcessing(w, item, false); err != nil {
		return "", err
	}

	for _, id := range item.CombinationIDs() {
		text, ok := item.Feedback[id]
		if !ok || strings.TrimSpace(text) == "" {
			continue
		}
		w.open(tagModalFeedback,
			Attr{attrOutcomeIdentifier, c.opts.FeedbackOutcome},
			Attr{attrShowHide, "show"},
			Attr{attrIdentifier, id},
		)
		w.open(tagContentBody)
		for _, para := range paragraphs(text) {
			w.leaf("p", para)
		}
		w.close(tagContentBody)
		w.close(tagModalFeedback)
	}

	w.close(tagAssessmentItem)
	return w.String(), nil
}

// paragraphs splits text on blank lines, joining wrapped lines with a space
func paragraphs(text string) []string {
	var paras []string
	var current []string
	flush := func() {
		if len(current) > 0 {
			paras = append(paras, strings.Join(current, " "))
			current = nil
		}
	}
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			flush()
			continue
		}
		current = append(current, line)
	}
	flush()
	return paras
}
