package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/harrison/itemforge/internal/config"
	"github.com/harrison/itemforge/internal/qti"
)

// loadConfig loads the config file named by --config, or the project's
// .itemforge/config.yaml, and resolves its relative paths against the
// project root. Flags are not merged here.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	root, err := config.ProjectRoot()
	if err != nil {
		return nil, err
	}

	var cfg *config.Config
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		if _, statErr := os.Stat(path); statErr != nil {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		cfg, err = config.LoadConfig(path)
	} else {
		cfg, err = config.LoadConfigFromDir(root)
	}
	if err != nil {
		return nil, err
	}

	cfg.ResolvePaths(root)
	return cfg, nil
}

// addStrictFlags registers the mutually exclusive --strict and --lenient flags
func addStrictFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("strict", false, "Reject feedback plans that leave outcome paths uncovered (overrides config)")
	cmd.Flags().Bool("lenient", false, "Accept incomplete feedback plans and report the gaps as warnings (overrides config)")
	cmd.MarkFlagsMutuallyExclusive("strict", "lenient")
}

// strictFlag returns the strict-plan override, or nil when neither flag is set
func strictFlag(cmd *cobra.Command) *bool {
	if cmd.Flags().Changed("strict") {
		v, _ := cmd.Flags().GetBool("strict")
		return &v
	}
	if cmd.Flags().Changed("lenient") {
		v, _ := cmd.Flags().GetBool("lenient")
		v = !v
		return &v
	}
	return nil
}

// compilerOptions maps configuration onto compiler options
func compilerOptions(cfg *config.Config) qti.Options {
	return qti.Options{
		FeedbackOutcome: cfg.FeedbackOutcome,
		Indent:          cfg.IndentString(),
		StrictPlan:      cfg.StrictPlan,
	}
}

// isTerminal reports whether w is a terminal. Colour and progress output are
// only used on terminals and are disabled by NO_COLOR.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
