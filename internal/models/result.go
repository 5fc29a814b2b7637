package models

import "time"

// Item compile status constants
const (
	StatusCompiled = "COMPILED" // Compiled from source
	StatusCached   = "CACHED"   // Served from the compile cache
	StatusFailed   = "FAILED"   // Parse, validation, compile or write failed
)

// ItemResult is the outcome of compiling one item file
type ItemResult struct {
	SourcePath string        // Item file as given on the command line
	Identifier string        // Item identifier, empty if parsing failed
	OutputPath string        // Written document, empty when not written
	Output     string        // Compiled markup
	Status     string        // COMPILED, CACHED or FAILED
	Written    bool          // False when the file on disk was already identical
	Warnings   []string      // Non-fatal findings such as coverage gaps in lenient mode
	Error      error         // Set when Status is FAILED
	Duration   time.Duration // Time taken for this item
}

// Succeeded reports whether the item produced output
func (r *ItemResult) Succeeded() bool {
	return r.Status != StatusFailed && r.Error == nil
}

// Label returns the identifier when known, otherwise the source path
func (r *ItemResult) Label() string {
	if r.Identifier != "" {
		return r.Identifier
	}
	return r.SourcePath
}

// RunSummary aggregates the results of one compile run
type RunSummary struct {
	RunID       string
	Total       int
	Compiled    int
	Cached      int
	Failed      int
	Duration    time.Duration
	FailedItems []ItemResult
}

// Summarize counts results by status
func Summarize(runID string, results []ItemResult, duration time.Duration) RunSummary {
	s := RunSummary{RunID: runID, Total: len(results), Duration: duration}
	for _, r := range results {
		switch {
		case !r.Succeeded():
			s.Failed++
			s.FailedItems = append(s.FailedItems, r)
		case r.Status == StatusCached:
			s.Cached++
		default:
			s.Compiled++
		}
	}
	return s
}

// Succeeded returns the number of items that produced output
func (s RunSummary) Succeeded() int {
	return s.Compiled + s.Cached
}
