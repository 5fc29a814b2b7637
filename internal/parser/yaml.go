package parser

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/harrison/itemforge/internal/models"
)

// YAMLParser parses items written as a single YAML document
type YAMLParser struct{}

// NewYAMLParser creates a new YAML item parser
func NewYAMLParser() *YAMLParser {
	return &YAMLParser{}
}

// yamlItem is the on-disk item schema shared by YAML files and Markdown frontmatter
type yamlItem struct {
	Identifier           string            `yaml:"identifier"`
	Title                string            `yaml:"title"`
	Body                 string            `yaml:"body"`
	ResponseDeclarations []yamlDeclaration `yaml:"response_declarations"`
	FeedbackPlan         yamlPlan          `yaml:"feedback_plan"`
	Feedback             map[string]string `yaml:"feedback"`
}

type yamlDeclaration struct {
	Identifier  string        `yaml:"identifier"`
	Cardinality string        `yaml:"cardinality"`
	BaseType    string        `yaml:"base_type"`
	Correct     yaml.Node     `yaml:"correct"`
	Rounding    *yamlRounding `yaml:"rounding"`
}

type yamlRounding struct {
	Strategy string `yaml:"strategy"`
	Figures  int    `yaml:"figures"`
}

type yamlPlan struct {
	Mode         string            `yaml:"mode"`
	Dimensions   []yamlDimension   `yaml:"dimensions"`
	Combinations []yamlCombination `yaml:"combinations"`
}

type yamlDimension struct {
	ResponseIdentifier string   `yaml:"response_identifier"`
	Kind               string   `yaml:"kind"`
	Keys               []string `yaml:"keys"`
}

type yamlCombination struct {
	ID   string         `yaml:"id"`
	Path []yamlPathStep `yaml:"path"`
}

// yamlPathStep accepts either {response_identifier, key} or the compact
// scalar form "RESPONSE_ID=KEY"
type yamlPathStep struct {
	ResponseIdentifier string `yaml:"response_identifier"`
	Key                string `yaml:"key"`
}

// UnmarshalYAML implements yaml.Unmarshaler for the two path step forms
func (s *yamlPathStep) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		id, key, ok := strings.Cut(node.Value, "=")
		if !ok || strings.TrimSpace(id) == "" || strings.TrimSpace(key) == "" {
			return fmt.Errorf("line %d: path step %q must have the form RESPONSE_ID=KEY", node.Line, node.Value)
		}
		s.ResponseIdentifier = strings.TrimSpace(id)
		s.Key = strings.TrimSpace(key)
		return nil
	}

	type plain yamlPathStep
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*s = yamlPathStep(p)
	return nil
}

// Parse reads a YAML item. Unknown fields are rejected.
func (p *YAMLParser) Parse(r io.Reader) (*models.Item, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read content: %w", err)
	}
	return decodeItem(data)
}

func decodeItem(data []byte) (*models.Item, error) {
	var raw yamlItem
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty item document")
		}
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return raw.toItem()
}

func (y *yamlItem) toItem() (*models.Item, error) {
	item := &models.Item{
		Identifier: y.Identifier,
		Title:      y.Title,
		Body:       y.Body,
		Feedback:   y.Feedback,
	}

	for i := range y.ResponseDeclarations {
		decl, err := y.ResponseDeclarations[i].toDeclaration()
		if err != nil {
			return nil, err
		}
		item.ResponseDeclarations = append(item.ResponseDeclarations, decl)
	}

	plan, err := y.FeedbackPlan.toPlan()
	if err != nil {
		return nil, err
	}
	item.FeedbackPlan = plan

	return item, nil
}

func (d *yamlDeclaration) toDeclaration() (models.ResponseDeclaration, error) {
	decl := models.ResponseDeclaration{
		Identifier:  d.Identifier,
		Cardinality: models.Cardinality(d.Cardinality),
		BaseType:    models.BaseType(d.BaseType),
	}
	if decl.Cardinality == "" {
		decl.Cardinality = models.CardinalitySingle
	}
	if d.Rounding != nil {
		decl.Rounding = &models.Rounding{Strategy: d.Rounding.Strategy, Figures: d.Rounding.Figures}
		if decl.Rounding.Strategy == "" {
			decl.Rounding.Strategy = models.RoundingDecimalPlaces
		}
	}

	var nodes []*yaml.Node
	switch {
	case d.Correct.Kind == 0, d.Correct.Tag == "!!null":
		// Missing; reported by validation
	case d.Correct.Kind == yaml.SequenceNode:
		nodes = d.Correct.Content
	default:
		nodes = []*yaml.Node{&d.Correct}
	}

	for i, node := range nodes {
		v, err := convertValue(decl.BaseType, node)
		if err != nil {
			return decl, fmt.Errorf("response %s: correct[%d]: %w", d.Identifier, i, err)
		}
		decl.Correct = append(decl.Correct, v)
	}
	return decl, nil
}

// convertValue turns a raw YAML node into a typed value of the given base type
func convertValue(baseType models.BaseType, node *yaml.Node) (models.Value, error) {
	if baseType == models.BaseTypeDirectedPair {
		return convertPair(node)
	}
	if node.Kind != yaml.ScalarNode {
		return nil, fmt.Errorf("line %d: expected a scalar %s value", node.Line, baseType)
	}

	raw := node.Value
	switch baseType {
	case models.BaseTypeIdentifier:
		return models.IdentifierValue(raw), nil
	case models.BaseTypeString:
		return models.StringValue(raw), nil
	case models.BaseTypeInteger:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err == nil {
			return models.IntegerValue(n), nil
		}
		if errors.Is(err, strconv.ErrRange) {
			return nil, fmt.Errorf("line %d: %q is out of range for integer", node.Line, raw)
		}
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: %q is not an integer", node.Line, raw)
		}
		if f != math.Trunc(f) {
			return nil, fmt.Errorf("line %d: %q must be integral", node.Line, raw)
		}
		// float64(math.MaxInt64) rounds up to 2^63, which int64 cannot hold
		if f >= math.MaxInt64 || f < math.MinInt64 {
			return nil, fmt.Errorf("line %d: %q is out of range for integer", node.Line, raw)
		}
		return models.IntegerValue(int64(f)), nil
	case models.BaseTypeFloat:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: %q is not a number", node.Line, raw)
		}
		return models.FloatValue(f), nil
	default:
		return nil, fmt.Errorf("unknown base type %q", baseType)
	}
}

func convertPair(node *yaml.Node) (models.Value, error) {
	switch node.Kind {
	case yaml.MappingNode:
		var pair struct {
			Source string `yaml:"source"`
			Target string `yaml:"target"`
		}
		if err := node.Decode(&pair); err != nil {
			return nil, err
		}
		return models.DirectedPair{Source: pair.Source, Target: pair.Target}, nil
	case yaml.ScalarNode:
		fields := strings.Fields(node.Value)
		if len(fields) != 2 {
			return nil, fmt.Errorf("line %d: directed pair %q must be \"SOURCE TARGET\"", node.Line, node.Value)
		}
		return models.DirectedPair{Source: fields[0], Target: fields[1]}, nil
	default:
		return nil, fmt.Errorf("line %d: directed pair must be a mapping or \"SOURCE TARGET\"", node.Line)
	}
}

func (y *yamlPlan) toPlan() (models.FeedbackPlan, error) {
	plan := models.FeedbackPlan{Mode: models.PlanMode(y.Mode)}
	if plan.Mode == "" {
		plan.Mode = models.PlanModeCombo
		if len(y.Dimensions) <= 1 {
			plan.Mode = models.PlanModeFallback
		}
	}

	for _, d := range y.Dimensions {
		dim := models.Dimension{ResponseIdentifier: d.ResponseIdentifier}
		switch strings.ToLower(d.Kind) {
		case "binary":
			if len(d.Keys) > 0 {
				return plan, fmt.Errorf("dimension %s: binary dimensions take no keys", d.ResponseIdentifier)
			}
			dim.Kind = models.Binary{}
		case "enumerated":
			dim.Kind = models.NewEnumerated(d.Keys...)
		default:
			return plan, fmt.Errorf("dimension %s: unknown kind %q (expected binary or enumerated)", d.ResponseIdentifier, d.Kind)
		}
		plan.Dimensions = append(plan.Dimensions, dim)
	}

	for _, c := range y.Combinations {
		combo := models.Combination{ID: c.ID}
		for _, s := range c.Path {
			combo.Path = append(combo.Path, models.PathStep{ResponseIdentifier: s.ResponseIdentifier, Key: s.Key})
		}
		plan.Combinations = append(plan.Combinations, combo)
	}

	return plan, nil
}
