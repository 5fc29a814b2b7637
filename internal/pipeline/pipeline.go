// Package pipeline compiles batches of item files.
//
// Each file is parsed, validated and compiled independently; a failure in one
// item never aborts the others. Compilation runs on a bounded pool of
// goroutines, consults the compile cache, writes one document per item into
// the output directory and records run history. Results always come back in
// input order.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/harrison/itemforge/internal/cache"
	"github.com/harrison/itemforge/internal/filelock"
	"github.com/harrison/itemforge/internal/models"
	"github.com/harrison/itemforge/internal/parser"
	"github.com/harrison/itemforge/internal/qti"
)

// DefaultLockTimeout bounds how long a write waits for another process
// holding the same output file
const DefaultLockTimeout = 10 * time.Second

// Logger receives progress and per-item results
type Logger interface {
	LogDebug(message string)
	LogWarn(message string)
	LogItemResult(result models.ItemResult)
	LogProgress(done, total int)
}

// Cache is the subset of the compile cache the pipeline uses.
// *cache.Store satisfies it.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Put(ctx context.Context, e *cache.Entry) error
	RecordRun(ctx context.Context, r *cache.RunRecord) error
}

// Options configures a Pipeline
type Options struct {
	// OutputDir receives <identifier>.xml per item
	OutputDir string
	// Fragment emits only declarations and response processing instead of a
	// full assessment item document
	Fragment bool
	// DryRun compiles without writing files
	DryRun bool
	// MaxConcurrency bounds parallel items (0 = one goroutine per file)
	MaxConcurrency int
	// LockTimeout bounds the wait for an output file lock (0 = DefaultLockTimeout)
	LockTimeout time.Duration
	// Progress reports a progress line after every item
	Progress bool
	// RunID groups the history rows of a CompileFiles call; empty generates
	// a fresh id per call
	RunID string
	// Compiler holds the compiler options. StrictPlan turns coverage gaps
	// into failures; otherwise they become warnings.
	Compiler qti.Options
}

// Pipeline compiles item files. It is safe to call CompileFiles and
// ValidateFiles repeatedly; each CompileFiles call is one history run.
type Pipeline struct {
	opts     Options
	compiler *qti.Compiler
	store    Cache
	logger   Logger
}

// BatchError reports that some items in a batch failed
type BatchError struct {
	Failed int
	Total  int
	Errs   []error
}

// Error implements the error interface for BatchError
func (e *BatchError) Error() string {
	return fmt.Sprintf("%d of %d items failed", e.Failed, e.Total)
}

// Unwrap exposes the per-item errors to errors.Is and errors.As
func (e *BatchError) Unwrap() []error {
	return e.Errs
}

// New creates a Pipeline. store and logger may be nil.
func New(opts Options, store Cache, logger Logger) *Pipeline {
	if opts.LockTimeout <= 0 {
		opts.LockTimeout = DefaultLockTimeout
	}
	return &Pipeline{
		opts:     opts,
		compiler: qti.NewCompiler(opts.Compiler),
		store:    store,
		logger:   logger,
	}
}

// parsed carries one file between the parse and compile phases
type parsed struct {
	item   *models.Item
	result models.ItemResult
	start  time.Time
}

// CompileFiles compiles every file in paths and writes the documents unless
// DryRun is set. The returned error is a *BatchError when any item failed,
// or the context error when the run was cancelled.
func (p *Pipeline) CompileFiles(ctx context.Context, paths []string) ([]models.ItemResult, error) {
	runID := p.opts.RunID
	if runID == "" {
		runID = cache.NewRunID()
	}
	return p.run(ctx, paths, runID, false)
}

// ValidateFiles parses, validates and compiles every file in memory. Nothing
// is written, cached or recorded.
func (p *Pipeline) ValidateFiles(ctx context.Context, paths []string) ([]models.ItemResult, error) {
	return p.run(ctx, paths, "", true)
}

func (p *Pipeline) run(ctx context.Context, paths []string, runID string, validateOnly bool) ([]models.ItemResult, error) {
	start := time.Now()
	entries := make([]*parsed, len(paths))

	// Phase 1: parse and validate
	err := p.forEach(ctx, len(paths), func(ctx context.Context, i int) {
		entries[i] = p.parse(paths[i])
	})
	if err != nil {
		return nil, err
	}

	// Phase 2: identifiers name output files, so they must be unique
	rejectDuplicateIdentifiers(entries)

	// Phase 3: compile and write
	var done atomic.Int64
	err = p.forEach(ctx, len(entries), func(ctx context.Context, i int) {
		e := entries[i]
		if e.item != nil {
			p.compile(ctx, e, validateOnly)
		}
		e.result.Duration = time.Since(e.start)
		if !validateOnly {
			p.record(ctx, runID, &e.result)
			p.logItem(e.result)
			if p.opts.Progress && p.logger != nil {
				p.logger.LogProgress(int(done.Add(1)), len(entries))
			}
		}
	})
	if err != nil {
		return nil, err
	}

	results := make([]models.ItemResult, len(entries))
	var errs []error
	for i, e := range entries {
		results[i] = e.result
		if !e.result.Succeeded() {
			errs = append(errs, e.result.Error)
		}
	}

	if !validateOnly {
		p.debugf("run %s: %d items in %s", runID, len(results), time.Since(start).Round(time.Millisecond))
	}
	if len(errs) > 0 {
		return results, &BatchError{Failed: len(errs), Total: len(results), Errs: errs}
	}
	return results, nil
}

// forEach runs fn for indices [0,n) on a bounded errgroup. fn records its own
// failures; only cancellation of ctx is returned.
func (p *Pipeline) forEach(ctx context.Context, n int, fn func(ctx context.Context, i int)) error {
	g, gctx := errgroup.WithContext(ctx)
	limit := p.opts.MaxConcurrency
	if limit <= 0 || limit > n {
		limit = n
	}
	if limit > 0 {
		g.SetLimit(limit)
	}

	for i := 0; i < n; i++ {
		if err := gctx.Err(); err != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			fn(gctx, i)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

func (p *Pipeline) parse(path string) *parsed {
	e := &parsed{start: time.Now(), result: models.ItemResult{SourcePath: path}}

	item, err := parser.ParseFile(path)
	if err != nil {
		e.fail(err)
		return e
	}
	e.result.Identifier = item.Identifier

	if err := item.Validate(); err != nil {
		e.fail(fmt.Errorf("invalid item %s: %w", item.Identifier, err))
		return e
	}

	if !p.opts.Compiler.StrictPlan {
		e.result.Warnings = coverageWarnings(item)
	}

	e.item = item
	return e
}

func (e *parsed) fail(err error) {
	e.item = nil
	e.result.Status = models.StatusFailed
	e.result.Error = err
}

// coverageWarnings lists outcome paths that select no feedback
func coverageWarnings(item *models.Item) []string {
	err := models.ValidatePlanCoverage(&item.FeedbackPlan)
	var cov *models.CoverageError
	if !errors.As(err, &cov) {
		return nil
	}

	warnings := make([]string, 0, len(cov.Missing)+1)
	for _, path := range cov.Missing {
		warnings = append(warnings, "no feedback for outcome path "+path)
	}
	if extra := cov.MissingAll - len(cov.Missing); extra > 0 {
		warnings = append(warnings, fmt.Sprintf("... and %d more uncovered outcome paths", extra))
	}
	return warnings
}

func rejectDuplicateIdentifiers(entries []*parsed) {
	first := make(map[string]string)
	for _, e := range entries {
		if e.item == nil {
			continue
		}
		id := e.item.Identifier
		if prev, ok := first[id]; ok {
			e.fail(fmt.Errorf("duplicate item identifier %s (already defined in %s)", id, prev))
			continue
		}
		first[id] = e.result.SourcePath
	}
}

// variant captures every option that changes compiled output
func (p *Pipeline) variant() string {
	opts := p.compiler.Options()
	mode := "item"
	if p.opts.Fragment {
		mode = "fragment"
	}
	return fmt.Sprintf("mode=%s;outcome=%s;indent=%q;strict=%t", mode, opts.FeedbackOutcome, opts.Indent, opts.StrictPlan)
}

func (p *Pipeline) compile(ctx context.Context, e *parsed, validateOnly bool) {
	item := e.item
	useCache := p.store != nil && !validateOnly

	var key string
	if useCache {
		key = cache.ContentKey(item, p.variant())
		output, hit, err := p.store.Get(ctx, key)
		if err != nil {
			p.warnf("cache lookup for %s failed: %v", item.Identifier, err)
		} else if hit {
			e.result.Output = output
			e.result.Status = models.StatusCached
		}
	}

	if e.result.Status != models.StatusCached {
		var output string
		var err error
		if p.opts.Fragment {
			output, err = p.compiler.CompileResponseProcessing(item)
		} else {
			output, err = p.compiler.CompileItem(item)
		}
		if err != nil {
			e.fail(fmt.Errorf("failed to compile %s: %w", item.Identifier, err))
			return
		}
		output = ensureTrailingNewline(output)
		e.result.Output = output
		e.result.Status = models.StatusCompiled

		if useCache {
			entry := &cache.Entry{Key: key, ItemIdentifier: item.Identifier, SourcePath: e.result.SourcePath, Output: output}
			if err := p.store.Put(ctx, entry); err != nil {
				p.warnf("cache store for %s failed: %v", item.Identifier, err)
			}
		}
	}

	if validateOnly || p.opts.DryRun {
		return
	}

	outPath := OutputPath(p.opts.OutputDir, item.Identifier)
	written, err := filelock.WriteIfChanged(outPath, []byte(e.result.Output), p.opts.LockTimeout)
	if err != nil {
		e.fail(fmt.Errorf("failed to write %s: %w", outPath, err))
		return
	}
	e.result.OutputPath = outPath
	e.result.Written = written
}

// OutputPath returns the document path for an item identifier
func OutputPath(outputDir, identifier string) string {
	return filepath.Join(outputDir, identifier+".xml")
}

func ensureTrailingNewline(s string) string {
	if strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}

func (p *Pipeline) record(ctx context.Context, runID string, r *models.ItemResult) {
	if p.store == nil {
		return
	}
	rec := &cache.RunRecord{
		RunID:          runID,
		ItemIdentifier: r.Identifier,
		SourcePath:     r.SourcePath,
		CacheHit:       r.Status == models.StatusCached,
		Success:        r.Succeeded(),
		Duration:       r.Duration,
	}
	if r.Error != nil {
		rec.ErrorMessage = r.Error.Error()
	}
	if err := p.store.RecordRun(ctx, rec); err != nil {
		p.warnf("recording run history for %s failed: %v", r.Label(), err)
	}
}

func (p *Pipeline) logItem(r models.ItemResult) {
	if p.logger != nil {
		p.logger.LogItemResult(r)
	}
}

func (p *Pipeline) warnf(format string, args ...interface{}) {
	if p.logger != nil {
		p.logger.LogWarn(fmt.Sprintf(format, args...))
	}
}

func (p *Pipeline) debugf(format string, args ...interface{}) {
	if p.logger != nil {
		p.logger.LogDebug(fmt.Sprintf(format, args...))
	}
}
