package display

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/fatih/color"
)

// ProgressIndicator reports per-file pass/fail lines for multi-file operations
type ProgressIndicator struct {
	writer     io.Writer
	verb       string
	totalFiles int
	current    int
	failed     int
}

// NewProgressIndicator creates a new progress indicator. verb names the
// operation ("Validating", "Compiling").
func NewProgressIndicator(w io.Writer, verb string, total int) *ProgressIndicator {
	return &ProgressIndicator{
		writer:     w,
		verb:       verb,
		totalFiles: total,
	}
}

// Start displays the header message
func (p *ProgressIndicator) Start() {
	fmt.Fprintf(p.writer, "%s %d item %s:\n", p.verb, p.totalFiles, plural(p.totalFiles, "file", "files"))
}

// Pass displays "✓ [N/Total] file (IDENTIFIER)"
func (p *ProgressIndicator) Pass(filename, identifier string) {
	p.current++
	mark := color.New(color.FgGreen).Sprint("✓")
	fmt.Fprintf(p.writer, "  %s [%d/%d] %s", mark, p.current, p.totalFiles, filepath.Base(filename))
	if identifier != "" {
		fmt.Fprintf(p.writer, " (%s)", identifier)
	}
	fmt.Fprintln(p.writer)
}

// Fail displays "✗ [N/Total] file: error"
func (p *ProgressIndicator) Fail(filename string, err error) {
	p.current++
	p.failed++
	mark := color.New(color.FgRed).Sprint("✗")
	fmt.Fprintf(p.writer, "  %s [%d/%d] %s: %v\n", mark, p.current, p.totalFiles, filepath.Base(filename), err)
}

// Failed returns the number of Fail calls so far
func (p *ProgressIndicator) Failed() int {
	return p.failed
}

// Complete displays the closing line: a green tick when nothing failed,
// otherwise a red count of failures
func (p *ProgressIndicator) Complete() {
	if p.failed == 0 {
		fmt.Fprintf(p.writer, "%s All %d item %s valid\n",
			color.New(color.FgGreen).Sprint("✓"), p.totalFiles, plural(p.totalFiles, "file is", "files are"))
		return
	}
	fmt.Fprintf(p.writer, "%s %d of %d item %s failed\n",
		color.New(color.FgRed).Sprint("✗"), p.failed, p.totalFiles, plural(p.totalFiles, "file", "files"))
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
