package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/harrison/itemforge/internal/cache"
	"github.com/harrison/itemforge/internal/logger"
	"github.com/harrison/itemforge/internal/models"
	"github.com/harrison/itemforge/internal/parser"
	"github.com/harrison/itemforge/internal/pipeline"
)

// runLogger is the logger surface the compile command drives
type runLogger interface {
	pipeline.Logger
	LogInfo(message string)
	LogSummary(summary models.RunSummary)
}

// NewCompileCommand creates the compile command
func NewCompileCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compile <item-file-or-directory>...",
		Short: "Compile item files into QTI 3.0 documents",
		Long: `Compile item files (YAML or Markdown) into QTI 3.0 assessment item
documents, one <identifier>.xml per item in the output directory.

Directories are scanned recursively for .yaml, .yml, .md and .markdown files.
Items compile in parallel; a failing item never stops the others. Compiled
output is cached by content, so unchanged items are served from the cache.

Examples:
  # Compile a directory into ./qti (or output_dir from config)
  itemforge compile items/

  # Compile into a custom directory with at most 4 items at once
  itemforge compile items/ --out build/qti --max-concurrency 4

  # Emit only declarations and response processing
  itemforge compile --fragment items/q1.yaml --stdout

  # Accept incomplete feedback plans, reporting the gaps as warnings
  itemforge compile --lenient items/`,
		Args: cobra.MinimumNArgs(1),
		RunE: runCompile,
	}

	cmd.Flags().String("out", "", "Output directory for compiled documents (default: output_dir from config)")
	cmd.Flags().Bool("fragment", false, "Emit only response declarations and response processing")
	cmd.Flags().Bool("stdout", false, "Print compiled output to stdout instead of writing files")
	cmd.Flags().Bool("no-cache", false, "Bypass the compile cache and run history")
	cmd.Flags().Int("max-concurrency", -1, "Maximum number of items compiled at once (0 = one per file, -1 = use config)")
	cmd.Flags().String("log-dir", "", "Directory for run logs")
	cmd.Flags().Bool("verbose", false, "Show debug output")
	addStrictFlags(cmd)

	return cmd
}

// runCompile implements the compile command logic
func runCompile(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	var maxConcurrency *int
	if v, _ := cmd.Flags().GetInt("max-concurrency"); v >= 0 {
		maxConcurrency = &v
	}
	var logDir, outDir *string
	if cmd.Flags().Changed("log-dir") {
		v, _ := cmd.Flags().GetString("log-dir")
		logDir = &v
	}
	if cmd.Flags().Changed("out") {
		v, _ := cmd.Flags().GetString("out")
		outDir = &v
	}
	var cacheEnabled *bool
	if noCache, _ := cmd.Flags().GetBool("no-cache"); noCache {
		off := false
		cacheEnabled = &off
	}
	cfg.MergeWithFlags(maxConcurrency, logDir, outDir, strictFlag(cmd), cacheEnabled)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	files, err := parser.FindItemFiles(args)
	if err != nil {
		return err
	}

	toStdout, _ := cmd.Flags().GetBool("stdout")
	fragment, _ := cmd.Flags().GetBool("fragment")
	verbose, _ := cmd.Flags().GetBool("verbose")

	logLevel := cfg.LogLevel
	if verbose {
		logLevel = "debug"
	}

	// Documents own stdout when --stdout is set, so progress goes to stderr
	var consoleOut io.Writer = cmd.OutOrStdout()
	if toStdout {
		consoleOut = cmd.ErrOrStderr()
	}
	terminal := isTerminal(consoleOut)
	consoleLog := logger.NewConsoleLoggerWithColor(consoleOut, logLevel, terminal)

	fileLog, err := logger.NewFileLoggerWithDirAndLevel(cfg.LogDir, logLevel)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	defer fileLog.Close()

	log := &multiLogger{loggers: []runLogger{consoleLog, fileLog}}

	var store pipeline.Cache
	if cfg.Cache.Enabled {
		s, err := cache.NewStore(cfg.Cache.DBPath)
		if err != nil {
			log.LogWarn(fmt.Sprintf("compile cache unavailable, continuing without it: %v", err))
		} else {
			defer s.Close()
			store = s
		}
	}

	runID := cache.NewRunID()
	opts := pipeline.Options{
		OutputDir:      cfg.OutputDir,
		Fragment:       fragment,
		DryRun:         toStdout,
		MaxConcurrency: cfg.MaxConcurrency,
		Progress:       terminal && len(files) > 1,
		RunID:          runID,
		Compiler:       compilerOptions(cfg),
	}

	log.LogInfo(fmt.Sprintf("Compiling %d item %s", len(files), pluralize(len(files), "file", "files")))
	log.LogDebug(fmt.Sprintf("run %s: output %s, strict plan %t, cache %t", runID, cfg.OutputDir, cfg.StrictPlan, store != nil))

	base := cmd.Context()
	if base == nil {
		base = context.Background()
	}
	ctx, stop := signal.NotifyContext(base, os.Interrupt)
	defer stop()

	start := time.Now()
	results, runErr := pipeline.New(opts, store, log).CompileFiles(ctx, files)

	var batchErr *pipeline.BatchError
	if runErr != nil && !errors.As(runErr, &batchErr) {
		return fmt.Errorf("compile interrupted: %w", runErr)
	}

	if toStdout {
		out := cmd.OutOrStdout()
		for _, r := range results {
			if r.Succeeded() {
				fmt.Fprint(out, r.Output)
			}
		}
	}

	log.LogSummary(models.Summarize(runID, results, time.Since(start)))

	if batchErr != nil {
		return batchErr
	}
	return nil
}

func pluralize(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// multiLogger forwards every call to each of its loggers
type multiLogger struct {
	loggers []runLogger
}

// LogDebug forwards to all loggers
func (ml *multiLogger) LogDebug(message string) {
	for _, l := range ml.loggers {
		l.LogDebug(message)
	}
}

// LogInfo forwards to all loggers
func (ml *multiLogger) LogInfo(message string) {
	for _, l := range ml.loggers {
		l.LogInfo(message)
	}
}

// LogWarn forwards to all loggers
func (ml *multiLogger) LogWarn(message string) {
	for _, l := range ml.loggers {
		l.LogWarn(message)
	}
}

// LogItemResult forwards to all loggers
func (ml *multiLogger) LogItemResult(result models.ItemResult) {
	for _, l := range ml.loggers {
		l.LogItemResult(result)
	}
}

// LogProgress forwards to all loggers
func (ml *multiLogger) LogProgress(done, total int) {
	for _, l := range ml.loggers {
		l.LogProgress(done, total)
	}
}

// LogSummary forwards to all loggers
func (ml *multiLogger) LogSummary(summary models.RunSummary) {
	for _, l := range ml.loggers {
		l.LogSummary(summary)
	}
}
