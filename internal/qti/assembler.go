package qti

import (
	"github.com/harrison/itemforge/internal/models"
)

// DefaultIndent is the indentation unit of emitted markup
const DefaultIndent = "  "

// Options controls compilation output
type Options struct {
	// FeedbackOutcome is the outcome variable assigned at each leaf
	FeedbackOutcome string
	// Indent is the indentation unit; empty means DefaultIndent
	Indent string
	// StrictPlan rejects plans whose combinations are not the full
	// Cartesian product of their dimensions
	StrictPlan bool
}

// DefaultOptions returns lenient options: an incomplete plan compiles into
// an incomplete tree
func DefaultOptions() Options {
	return Options{
		FeedbackOutcome: models.DefaultFeedbackOutcome,
		Indent:          DefaultIndent,
		StrictPlan:      false,
	}
}

// Compiler compiles items with fixed options. It holds no mutable state and
// is safe for concurrent use.
type Compiler struct {
	opts Options
}

// NewCompiler creates a Compiler, filling empty options with defaults
func NewCompiler(opts Options) *Compiler {
	if opts.FeedbackOutcome == "" {
		opts.FeedbackOutcome = models.DefaultFeedbackOutcome
	}
	if opts.Indent == "" {
		opts.Indent = DefaultIndent
	}
	return &Compiler{opts: opts}
}

// Options returns the effective options
func (c *Compiler) Options() Options {
	return c.opts
}

// CompileResponseProcessing compiles an item with DefaultOptions
func CompileResponseProcessing(item *models.Item) (string, error) {
	return NewCompiler(DefaultOptions()).CompileResponseProcessing(item)
}

// CompileResponseProcessing returns the response declarations followed by the
// qti-response-processing body. No partial output is returned on error.
func (c *Compiler) CompileResponseProcessing(item *models.Item) (string, error) {
	w := newXMLWriter(c.opts.Indent)
	if err := c.writeResponseProcessing(w, item, true); err != nil {
		return "", err
	}
	return w.String(), nil
}

// writeResponseProcessing checks the plan against the declarations, then
// writes the declarations (when withDecls) and the processing body
func (c *Compiler) writeResponseProcessing(w *xmlWriter, item *models.Item, withDecls bool) error {
	plan := &item.FeedbackPlan
	decls := models.IndexDeclarations(item.ResponseDeclarations)

	for _, dim := range plan.Dimensions {
		if _, ok := decls[dim.ResponseIdentifier]; !ok {
			return newCompileError(dim.ResponseIdentifier, ErrUndeclaredResponse, "dimension has no response declaration")
		}
	}

	if c.opts.StrictPlan {
		if err := models.ValidatePlanCoverage(plan); err != nil {
			return &CompileError{Identifier: item.Identifier, Message: err.Error(), Err: err}
		}
	}

	tree, err := BuildTree(plan.Dimensions, plan.Combinations)
	if err != nil {
		return err
	}

	if withDecls {
		if err := writeDeclarations(w, item.ResponseDeclarations); err != nil {
			return err
		}
	}

	w.open(tagResponseProcessing)
	tw := &treeWriter{w: w, dims: plan.Dimensions, decls: decls, outcome: c.opts.FeedbackOutcome}
	if err := tw.write(tree); err != nil {
		return err
	}
	w.close(tagResponseProcessing)
	return nil
}

// ProcessingBody returns only the qti-response-processing element
func (c *Compiler) ProcessingBody(item *models.Item) (string, error) {
	w := newXMLWriter(c.opts.Indent)
	if err := c.writeResponseProcessing(w, item, false); err != nil {
		return "", err
	}
	return w.String(), nil
}
