package display

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// Warning represents a user-facing warning message
type Warning struct {
	Title      string   // Main warning title
	Message    string   // Detailed explanation (optional)
	Details    []string // Bullet lines such as uncovered paths (optional)
	Files      []string // Related files (optional)
	Suggestion string   // Action to take (optional)
}

// Display shows a formatted warning in yellow
func (w Warning) Display(out io.Writer) {
	var b strings.Builder

	b.WriteString("⚠️  Warning: ")
	b.WriteString(w.Title)
	b.WriteString("\n")

	if w.Message != "" {
		b.WriteString("    ")
		b.WriteString(w.Message)
		b.WriteString("\n")
	}

	for _, d := range w.Details {
		b.WriteString("      - ")
		b.WriteString(d)
		b.WriteString("\n")
	}

	if len(w.Files) > 0 {
		if len(w.Files) == 1 {
			b.WriteString("    Affected file:\n")
		} else {
			b.WriteString("    Affected files:\n")
		}
		for i, file := range w.Files {
			fmt.Fprintf(&b, "      %d. %s\n", i+1, file)
		}
	}

	if w.Suggestion != "" {
		b.WriteString("    Suggestion:\n")
		b.WriteString("    ")
		b.WriteString(w.Suggestion)
		b.WriteString("\n")
	}

	color.New(color.FgYellow).Fprint(out, b.String())
}

// WarnDuplicateIdentifier creates a warning for items that share an identifier
// and would therefore write the same output document
func WarnDuplicateIdentifier(identifier string, files []string) Warning {
	return Warning{
		Title:      fmt.Sprintf("Duplicate item identifier %s", identifier),
		Message:    "Only the first file is compiled; the others fail.",
		Files:      files,
		Suggestion: "Give every item a unique identifier",
	}
}

// WarnCoverageGaps creates a warning for a feedback plan that leaves outcome
// paths without feedback. gaps are the lenient-mode warnings of one item.
func WarnCoverageGaps(file string, gaps []string) Warning {
	return Warning{
		Title:      "Incomplete feedback plan",
		Message:    "Some outcome paths select no feedback:",
		Details:    gaps,
		Files:      []string{file},
		Suggestion: "Add the missing combinations, or compile with --lenient to accept the gaps",
	}
}
