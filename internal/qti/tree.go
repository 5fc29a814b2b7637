package qti

import (
	"fmt"
	"strings"

	"github.com/harrison/itemforge/internal/models"
)

// Node is a feedback decision tree node: *Leaf or *Branch
type Node interface {
	node()
}

// Leaf assigns a combination id to the feedback outcome
type Leaf struct {
	CombinationID string
}

// Arm is one explicit test of a Branch and the subtree taken when it holds
type Arm struct {
	Key  string
	Node Node
}

// Branch tests one dimension. Arms are tried in order; Else is taken when no
// arm matches and is nil when there is no fallthrough.
type Branch struct {
	Dimension int
	Arms      []Arm
	Else      Node
}

func (*Leaf) node()   {}
func (*Branch) node() {}

// keyGroup is the combinations sharing one key at a given depth
type keyGroup struct {
	key    string
	combos []models.Combination
}

// BuildTree builds the decision tree over dims for combos. Combinations are
// grouped by their key at each depth in first-encounter order, so equal input
// always yields the same tree. A dimension with a single live key descends
// without a test; a binary dimension with both keys becomes one CORRECT arm
// with INCORRECT as its else.
func BuildTree(dims []models.Dimension, combos []models.Combination) (Node, error) {
	if len(combos) == 0 {
		return nil, newCompileError("feedback_plan", ErrEmptyPlan, "nothing to assign")
	}
	for _, combo := range combos {
		if len(combo.Path) != len(dims) {
			return nil, newCompileError(combo.ID, ErrPathLength, "%d steps for %d dimensions", len(combo.Path), len(dims))
		}
		for d, step := range combo.Path {
			if step.ResponseIdentifier != dims[d].ResponseIdentifier {
				return nil, newCompileError(combo.ID, ErrPathMismatch, "step %d is %s, dimension is %s", d, step.ResponseIdentifier, dims[d].ResponseIdentifier)
			}
		}
	}
	return buildNode(dims, combos, 0)
}

func buildNode(dims []models.Dimension, combos []models.Combination, depth int) (Node, error) {
	if depth == len(dims) {
		if len(combos) > 1 {
			ids := make([]string, 0, len(combos))
			for _, c := range combos {
				ids = append(ids, c.ID)
			}
			return nil, newCompileError(combos[0].ID, ErrDuplicatePath, "path %s shared by %s", models.FormatPath(combos[0].Path), strings.Join(ids, ", "))
		}
		return &Leaf{CombinationID: combos[0].ID}, nil
	}

	dim := dims[depth]
	groups := groupByKey(combos, depth)

	var legal []string
	switch kind := dim.Kind.(type) {
	case models.Binary, models.Enumerated:
		legal = kind.Keys()
	default:
		return nil, newCompileError(dim.ResponseIdentifier, ErrUnsupportedKind, "%T", dim.Kind)
	}
	for _, g := range groups {
		if !containsString(legal, g.key) {
			return nil, newCompileError(g.combos[0].ID, ErrInvalidKey, "key %q for %s dimension %s", g.key, dim.Kind.Name(), dim.ResponseIdentifier)
		}
	}

	// Only one live key: no test needed at this depth
	if len(groups) == 1 {
		return buildNode(dims, groups[0].combos, depth+1)
	}

	if _, ok := dim.Kind.(models.Binary); ok {
		var correct, incorrect []models.Combination
		for _, g := range groups {
			if g.key == models.KeyCorrect {
				correct = g.combos
			} else {
				incorrect = g.combos
			}
		}
		thenNode, err := buildNode(dims, correct, depth+1)
		if err != nil {
			return nil, err
		}
		elseNode, err := buildNode(dims, incorrect, depth+1)
		if err != nil {
			return nil, err
		}
		return &Branch{
			Dimension: depth,
			Arms:      []Arm{{Key: models.KeyCorrect, Node: thenNode}},
			Else:      elseNode,
		}, nil
	}

	branch := &Branch{Dimension: depth, Arms: make([]Arm, 0, len(groups))}
	for _, g := range groups {
		child, err := buildNode(dims, g.combos, depth+1)
		if err != nil {
			return nil, err
		}
		branch.Arms = append(branch.Arms, Arm{Key: g.key, Node: child})
	}
	return branch, nil
}

// groupByKey partitions combos by their key at depth, preserving the order in
// which each key is first seen and the relative order of combos in a group
func groupByKey(combos []models.Combination, depth int) []keyGroup {
	var groups []keyGroup
	position := make(map[string]int)
	for _, combo := range combos {
		key := combo.Path[depth].Key
		idx, ok := position[key]
		if !ok {
			idx = len(groups)
			position[key] = idx
			groups = append(groups, keyGroup{key: key})
		}
		groups[idx].combos = append(groups[idx].combos, combo)
	}
	return groups
}

// treeWriter serializes a tree into response rules
type treeWriter struct {
	w       *xmlWriter
	dims    []models.Dimension
	decls   models.DeclarationIndex
	outcome string
}

func (t *treeWriter) write(n Node) error {
	switch node := n.(type) {
	case *Leaf:
		t.w.open(tagSetOutcomeValue, Attr{attrIdentifier, t.outcome})
		t.w.leaf(tagBaseValue, node.CombinationID, Attr{attrBaseType, string(models.BaseTypeIdentifier)})
		t.w.close(tagSetOutcomeValue)
		return nil

	case *Branch:
		dim := t.dims[node.Dimension]
		t.w.open(tagResponseCondition)
		for i, arm := range node.Arms {
			tag := tagResponseIf
			if i > 0 {
				tag = tagResponseElseIf
			}
			t.w.open(tag)
			if err := writeCondition(t.w, dim, arm.Key, t.decls); err != nil {
				return err
			}
			if err := t.write(arm.Node); err != nil {
				return err
			}
			t.w.close(tag)
		}
		if node.Else != nil {
			t.w.open(tagResponseElse)
			if err := t.write(node.Else); err != nil {
				return err
			}
			t.w.close(tagResponseElse)
		}
		t.w.close(tagResponseCondition)
		return nil

	default:
		return fmt.Errorf("unknown tree node %T", n)
	}
}

// Leaves returns the combination ids of all leaves in depth-first order
func Leaves(n Node) []string {
	var ids []string
	var walk func(Node)
	walk = func(n Node) {
		switch node := n.(type) {
		case *Leaf:
			ids = append(ids, node.CombinationID)
		case *Branch:
			for _, arm := range node.Arms {
				walk(arm.Node)
			}
			if node.Else != nil {
				walk(node.Else)
			}
		}
	}
	walk(n)
	return ids
}
