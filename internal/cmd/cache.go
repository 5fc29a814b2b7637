package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harrison/itemforge/internal/cache"
)

// NewCacheCommand creates the 'itemforge cache' command group
func NewCacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the compile cache",
		Long: `The compile cache stores compiled documents keyed by item content and
compiler options, together with the history of every compile run.`,
	}

	cmd.AddCommand(newCacheStatsCommand())
	cmd.AddCommand(newCacheClearCommand())

	return cmd
}

// openCacheStore resolves the cache database from config. It returns a nil
// store and nil error when the database has not been created yet.
func openCacheStore(cmd *cobra.Command) (*cache.Store, string, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, "", err
	}
	dbPath := cfg.Cache.DBPath
	if dbPath == "" {
		return nil, "", fmt.Errorf("cache.db_path is not configured")
	}
	if dbPath != ":memory:" {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, dbPath, nil
		}
	}

	store, err := cache.NewStore(dbPath)
	if err != nil {
		return nil, dbPath, fmt.Errorf("open compile cache: %w", err)
	}
	return store, dbPath, nil
}

func newCacheStatsCommand() *cobra.Command {
	var recent int

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show cache size and compile history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := cmd.OutOrStdout()

			store, dbPath, err := openCacheStore(cmd)
			if err != nil {
				return err
			}
			if store == nil {
				fmt.Fprintf(output, "No compile cache found\n")
				fmt.Fprintf(output, "Database path: %s\n", dbPath)
				return nil
			}
			defer store.Close()

			stats, err := store.Stats(cmd.Context())
			if err != nil {
				return fmt.Errorf("get statistics: %w", err)
			}
			version, err := store.SchemaVersion(cmd.Context())
			if err != nil {
				return fmt.Errorf("get schema version: %w", err)
			}
			var runs []cache.RunRecord
			if recent > 0 {
				runs, err = store.RecentRuns(cmd.Context(), recent)
				if err != nil {
					return fmt.Errorf("get recent runs: %w", err)
				}
			}

			displayCacheStats(output, dbPath, version, stats, runs)
			return nil
		},
	}

	cmd.Flags().IntVar(&recent, "recent", 10, "Number of recent compile records to show (0 = none)")

	return cmd
}

// displayCacheStats formats statistics for terminal output
func displayCacheStats(w io.Writer, dbPath string, schemaVersion int, stats *cache.Stats, runs []cache.RunRecord) {
	header := color.New(color.Bold, color.FgCyan)
	header.Fprintf(w, "=== Compile Cache ===\n")
	fmt.Fprintf(w, "Database: %s (schema v%d)\n\n", dbPath, schemaVersion)

	fmt.Fprintf(w, "Cached documents: %d\n", stats.Entries)
	fmt.Fprintf(w, "Cache hits:       %d\n\n", stats.TotalHits)

	header.Fprintf(w, "=== Compile History ===\n")
	fmt.Fprintf(w, "Runs:             %d\n", stats.Runs)
	fmt.Fprintf(w, "Items compiled:   %d\n", stats.Compiles)
	fmt.Fprintf(w, "Served from cache: %d\n", stats.CacheHits)
	if stats.Failures > 0 {
		color.New(color.FgRed).Fprintf(w, "Failures:         %d\n", stats.Failures)
	} else {
		fmt.Fprintf(w, "Failures:         0\n")
	}
	if stats.Compiles > 0 {
		rate := float64(stats.Compiles-stats.Failures) / float64(stats.Compiles) * 100
		fmt.Fprintf(w, "Success rate:     %.1f%%\n", rate)
	}
	if stats.LastRun != nil {
		fmt.Fprintf(w, "Last run:         %s\n", stats.LastRun.Local().Format(time.RFC3339))
	}

	if len(runs) == 0 {
		return
	}

	fmt.Fprintln(w)
	header.Fprintf(w, "=== Recent Compiles ===\n")
	for _, r := range runs {
		status := color.New(color.FgGreen).Sprint("ok")
		if !r.Success {
			status = color.New(color.FgRed).Sprint("failed")
		} else if r.CacheHit {
			status = color.New(color.FgCyan).Sprint("cached")
		}
		label := r.ItemIdentifier
		if label == "" {
			label = r.SourcePath
		}
		fmt.Fprintf(w, "  %s  %-24s %-6s %5dms  run %s\n",
			r.Timestamp.Local().Format("2006-01-02 15:04:05"), label, status, r.Duration.Milliseconds(), shortRunID(r.RunID))
		if r.ErrorMessage != "" {
			fmt.Fprintf(w, "      %s\n", r.ErrorMessage)
		}
	}
}

func shortRunID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func newCacheClearCommand() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete all cached documents and compile history",
		Long: `Delete all cached documents and compile history.

Examples:
  # Clear the cache (requires confirmation)
  itemforge cache clear

  # Clear without prompting
  itemforge cache clear --yes`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := cmd.OutOrStdout()

			store, _, err := openCacheStore(cmd)
			if err != nil {
				return err
			}
			if store == nil {
				fmt.Fprintf(output, "No compile cache found, nothing to clear\n")
				return nil
			}
			defer store.Close()

			if !yes {
				fmt.Fprintf(output, "WARNING: This will delete all cached documents and compile history.\n")
				if !confirmAction(cmd.InOrStdin(), output) {
					fmt.Fprintf(output, "Cancelled.\n")
					return nil
				}
			}

			removed, err := store.Clear(cmd.Context())
			if err != nil {
				return fmt.Errorf("clear cache: %w", err)
			}
			fmt.Fprintf(output, "Removed %d cached %s and all compile history\n", removed, pluralize(int(removed), "document", "documents"))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")

	return cmd
}

// confirmAction prompts for y/N on output and reads the answer from input
func confirmAction(input io.Reader, output io.Writer) bool {
	fmt.Fprintf(output, "Continue? [y/N]: ")

	scanner := bufio.NewScanner(input)
	if !scanner.Scan() {
		return false
	}

	response := strings.TrimSpace(strings.ToLower(scanner.Text()))
	return response == "y" || response == "yes"
}
