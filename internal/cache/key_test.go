package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/harrison/itemforge/internal/models"
)

func keyItem() *models.Item {
	return &models.Item{
		Identifier: "ITEM",
		ResponseDeclarations: []models.ResponseDeclaration{{
			Identifier:  "RESPONSE",
			Cardinality: models.CardinalitySingle,
			BaseType:    models.BaseTypeIdentifier,
			Correct:     []models.Value{models.IdentifierValue("A")},
		}},
		FeedbackPlan: models.FeedbackPlan{
			Mode:       models.PlanModeFallback,
			Dimensions: []models.Dimension{{ResponseIdentifier: "RESPONSE", Kind: models.Binary{}}},
			Combinations: []models.Combination{
				{ID: "RIGHT", Path: []models.PathStep{{ResponseIdentifier: "RESPONSE", Key: models.KeyCorrect}}},
				{ID: "WRONG", Path: []models.PathStep{{ResponseIdentifier: "RESPONSE", Key: models.KeyIncorrect}}},
			},
		},
		Feedback:   map[string]string{"RIGHT": "yes", "WRONG": "no"},
		SourcePath: "/a/item.yaml",
	}
}

func TestContentKey(t *testing.T) {
	base := ContentKey(keyItem(), "doc")
	assert.Len(t, base, 64)
	assert.Equal(t, base, ContentKey(keyItem(), "doc"), "stable across calls")

	moved := keyItem()
	moved.SourcePath = "/b/other.yaml"
	assert.Equal(t, base, ContentKey(moved, "doc"), "source path does not affect the key")

	tests := []struct {
		name   string
		mutate func(*models.Item)
	}{
		{"identifier", func(i *models.Item) { i.Identifier = "ITEM2" }},
		{"correct value", func(i *models.Item) { i.ResponseDeclarations[0].Correct[0] = models.IdentifierValue("B") }},
		{"value type", func(i *models.Item) {
			i.ResponseDeclarations[0].Correct[0] = models.StringValue("A")
		}},
		{"combination order", func(i *models.Item) {
			c := i.FeedbackPlan.Combinations
			c[0], c[1] = c[1], c[0]
		}},
		{"dimension kind", func(i *models.Item) { i.FeedbackPlan.Dimensions[0].Kind = models.NewEnumerated("A") }},
		{"feedback text", func(i *models.Item) { i.Feedback["WRONG"] = "nope" }},
		{"field boundary", func(i *models.Item) {
			i.Title = "x"
			i.Body = ""
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := keyItem()
			tt.mutate(item)
			assert.NotEqual(t, base, ContentKey(item, "doc"))
		})
	}

	assert.NotEqual(t, base, ContentKey(keyItem(), "fragment"), "variant is part of the key")
}
