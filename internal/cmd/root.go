package cmd

import (
	"github.com/spf13/cobra"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// NewRootCommand creates and returns the root cobra command for itemforge
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "itemforge",
		Short: "Compile authored assessment items into QTI 3.0",
		Long: `itemforge compiles assessment items written in YAML or Markdown into
QTI 3.0 documents.

Each item declares its responses and a feedback plan: the outcome dimensions
(correct/incorrect, or which choice was picked) and the feedback id selected
by every combination of outcomes. itemforge turns the plan into a
qti-response-processing decision tree and emits the full item document.

Configuration is loaded from .itemforge/config.yaml in the project root if
present. CLI flags override configuration file settings.`,
		Version: Version,
		// Silence usage on errors to avoid duplicate help text
		SilenceUsage: true,
	}

	cmd.PersistentFlags().String("config", "", "Path to config file (default: .itemforge/config.yaml in the project root)")

	cmd.AddCommand(NewCompileCommand())
	cmd.AddCommand(NewValidateCommand())
	cmd.AddCommand(NewCacheCommand())

	return cmd
}
