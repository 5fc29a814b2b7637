package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/harrison/itemforge/internal/display"
	"github.com/harrison/itemforge/internal/models"
	"github.com/harrison/itemforge/internal/parser"
	"github.com/harrison/itemforge/internal/pipeline"
)

// NewValidateCommand creates and returns the validate subcommand
func NewValidateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <item-file-or-directory>...",
		Short: "Validate item files without writing output",
		Long: `Parse, validate and trial-compile item files, checking for:
  - Malformed YAML, frontmatter or Markdown sections
  - Response declarations that break the base type and cardinality contract
  - Feedback plans that reference undeclared responses or invalid keys
  - Outcome paths with no feedback (an error with --strict, a warning otherwise)
  - Items sharing an identifier

Nothing is written and the compile cache is not touched.

Exit code: 0 if valid, 1 if errors found`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			cfg.MergeWithFlags(nil, nil, nil, strictFlag(cmd), nil)
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			opts := pipeline.Options{
				MaxConcurrency: cfg.MaxConcurrency,
				Compiler:       compilerOptions(cfg),
			}
			return validateItems(cmd.Context(), args, opts, cmd.OutOrStdout())
		},
	}

	addStrictFlags(cmd)

	return cmd
}

// validateItems validates item files and reports to output (split out for testing)
func validateItems(ctx context.Context, paths []string, opts pipeline.Options, output io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	files, err := parser.FindItemFiles(paths)
	if err != nil {
		return err
	}

	results, runErr := pipeline.New(opts, nil, nil).ValidateFiles(ctx, files)
	var batchErr *pipeline.BatchError
	if runErr != nil && !errors.As(runErr, &batchErr) {
		return runErr
	}

	progress := display.NewProgressIndicator(output, "Validating", len(results))
	progress.Start()
	for _, r := range results {
		if r.Succeeded() {
			progress.Pass(r.SourcePath, r.Identifier)
		} else {
			progress.Fail(r.SourcePath, r.Error)
		}
	}

	for _, r := range results {
		if len(r.Warnings) > 0 {
			display.WarnCoverageGaps(r.SourcePath, r.Warnings).Display(output)
		}
	}
	for _, dup := range duplicateIdentifiers(results) {
		display.WarnDuplicateIdentifier(dup.identifier, dup.files).Display(output)
	}

	progress.Complete()

	if progress.Failed() > 0 {
		return fmt.Errorf("validation failed: %d of %d item files invalid", progress.Failed(), len(results))
	}
	return nil
}

type duplicateGroup struct {
	identifier string
	files      []string
}

// duplicateIdentifiers groups files whose items share an identifier, in
// order of first appearance
func duplicateIdentifiers(results []models.ItemResult) []duplicateGroup {
	byID := make(map[string][]string)
	var order []string
	for _, r := range results {
		if r.Identifier == "" {
			continue
		}
		if _, ok := byID[r.Identifier]; !ok {
			order = append(order, r.Identifier)
		}
		byID[r.Identifier] = append(byID[r.Identifier], r.SourcePath)
	}

	var groups []duplicateGroup
	for _, id := range order {
		if files := byID[id]; len(files) > 1 {
			groups = append(groups, duplicateGroup{identifier: id, files: files})
		}
	}
	return groups
}
