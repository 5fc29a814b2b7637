package qti

import (
	"github.com/harrison/itemforge/internal/models"
)

func choiceDecl(id string, correct string) models.ResponseDeclaration {
	return models.ResponseDeclaration{
		Identifier:  id,
		Cardinality: models.CardinalitySingle,
		BaseType:    models.BaseTypeIdentifier,
		Correct:     []models.Value{models.IdentifierValue(correct)},
	}
}

func floatDecl(id string, correct float64, figures int) models.ResponseDeclaration {
	return models.ResponseDeclaration{
		Identifier:  id,
		Cardinality: models.CardinalitySingle,
		BaseType:    models.BaseTypeFloat,
		Correct:     []models.Value{models.FloatValue(correct)},
		Rounding:    &models.Rounding{Strategy: models.RoundingDecimalPlaces, Figures: figures},
	}
}

func binaryDim(id string) models.Dimension {
	return models.Dimension{ResponseIdentifier: id, Kind: models.Binary{}}
}

func enumDim(id string, keys ...string) models.Dimension {
	return models.Dimension{ResponseIdentifier: id, Kind: models.NewEnumerated(keys...)}
}

// combo builds a combination from alternating identifier/key pairs
func combo(id string, pairs ...string) models.Combination {
	c := models.Combination{ID: id}
	for i := 0; i+1 < len(pairs); i += 2 {
		c.Path = append(c.Path, models.PathStep{ResponseIdentifier: pairs[i], Key: pairs[i+1]})
	}
	return c
}

// choiceWithFloatItem is an enumerated choice crossed with a float tolerance response
func choiceWithFloatItem() *models.Item {
	return &models.Item{
		Identifier: "ITEM_CHOICE_FLOAT",
		ResponseDeclarations: []models.ResponseDeclaration{
			choiceDecl("RESPONSE_CHOICE", "A"),
			floatDecl("RESPONSE_FLOAT", 3.5, 1),
		},
		FeedbackPlan: models.FeedbackPlan{
			Mode:       models.PlanModeCombo,
			Dimensions: []models.Dimension{enumDim("RESPONSE_CHOICE", "A", "B"), binaryDim("RESPONSE_FLOAT")},
			Combinations: []models.Combination{
				combo("CHOICE_A_FLOAT_CORRECT", "RESPONSE_CHOICE", "A", "RESPONSE_FLOAT", "CORRECT"),
				combo("CHOICE_A_FLOAT_INCORRECT", "RESPONSE_CHOICE", "A", "RESPONSE_FLOAT", "INCORRECT"),
				combo("CHOICE_B_FLOAT_CORRECT", "RESPONSE_CHOICE", "B", "RESPONSE_FLOAT", "CORRECT"),
				combo("CHOICE_B_FLOAT_INCORRECT", "RESPONSE_CHOICE", "B", "RESPONSE_FLOAT", "INCORRECT"),
			},
		},
	}
}

// twoChoiceItem crosses two two-way choice dimensions
func twoChoiceItem() *models.Item {
	return &models.Item{
		Identifier: "ITEM_TWO_CHOICES",
		ResponseDeclarations: []models.ResponseDeclaration{
			choiceDecl("RESPONSE_1", "A"),
			choiceDecl("RESPONSE_2", "B"),
		},
		FeedbackPlan: models.FeedbackPlan{
			Mode:       models.PlanModeCombo,
			Dimensions: []models.Dimension{enumDim("RESPONSE_1", "A", "B"), enumDim("RESPONSE_2", "A", "B")},
			Combinations: []models.Combination{
				combo("FB_A_A", "RESPONSE_1", "A", "RESPONSE_2", "A"),
				combo("FB_A_B", "RESPONSE_1", "A", "RESPONSE_2", "B"),
				combo("FB_B_A", "RESPONSE_1", "B", "RESPONSE_2", "A"),
				combo("FB_B_B", "RESPONSE_1", "B", "RESPONSE_2", "B"),
			},
		},
	}
}

// evaluate walks the tree the way a grading engine would for the outcome
// path given as identifier -> key, returning the assigned combination id
func evaluate(n Node, dims []models.Dimension, outcome map[string]string) (string, bool) {
	for {
		switch node := n.(type) {
		case *Leaf:
			return node.CombinationID, true
		case *Branch:
			dim := dims[node.Dimension]
			actual := outcome[dim.ResponseIdentifier]
			var next Node
			for _, arm := range node.Arms {
				if arm.Key == actual {
					next = arm.Node
					break
				}
			}
			if next == nil {
				next = node.Else
			}
			if next == nil {
				return "", false
			}
			n = next
		default:
			return "", false
		}
	}
}
