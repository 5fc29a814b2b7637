// Package display formats user-facing terminal output for the itemforge CLI.
//
// Progress for multi-file operations:
//
//	progress := display.NewProgressIndicator(os.Stdout, "Validating", len(files))
//	progress.Start()
//	for _, f := range files {
//	    progress.Pass(f, "ITEM_1")  // or progress.Fail(f, err)
//	}
//	progress.Complete()
//
// Warnings with optional detail:
//
//	display.Warning{
//	    Title:      "Incomplete feedback plan",
//	    Message:    "Some outcome paths select no feedback:",
//	    Files:      []string{"items/q1.yaml"},
//	    Suggestion: "Add combinations or compile with --lenient",
//	}.Display(os.Stderr)
//
// Colours come from github.com/fatih/color and switch off automatically when
// the output is not a terminal or NO_COLOR is set. All functions take an
// io.Writer.
package display
