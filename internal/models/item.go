package models

// DefaultFeedbackOutcome is the outcome variable that receives the selected combination id
const DefaultFeedbackOutcome = "FEEDBACK"

// Item is one authored assessment item ready for compilation
type Item struct {
	Identifier           string                `validate:"required"`
	Title                string                // Human-readable title
	Body                 string                // Item body markup, passed through verbatim
	ResponseDeclarations []ResponseDeclaration `validate:"required,min=1,dive"`
	FeedbackPlan         FeedbackPlan
	Feedback             map[string]string // Combination id -> feedback content
	SourcePath           string            // Original file path (for reporting)
}

// CombinationIDs returns the ids of all plan combinations in plan order
func (i *Item) CombinationIDs() []string {
	ids := make([]string, 0, len(i.FeedbackPlan.Combinations))
	for _, c := range i.FeedbackPlan.Combinations {
		ids = append(ids, c.ID)
	}
	return ids
}
