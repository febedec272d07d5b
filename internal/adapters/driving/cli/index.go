package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docsync/internal/core/domain"
	"github.com/custodia-labs/docsync/internal/core/ports/driving"
)

var (
	indexCleanup   string
	indexForce     bool
	indexBatchSize int
)

var indexCmd = &cobra.Command{
	Use:   "index <dir>",
	Short: "Index a directory once",
	Long: `Indexes every visible text file under the directory, skipping files
whose content and metadata are unchanged since the last run.

Cleanup modes:
  none        - never delete (default)
  incremental - after each batch, delete stale entries for the files in it
  full        - after the run, delete every entry not seen in this run
  scoped_full - after the run, delete stale entries for the files seen`,
	Args: cobra.ExactArgs(1),
	RunE: runIndex,
}

func init() {
	addSyncFlags(indexCmd)
	rootCmd.AddCommand(indexCmd)
}

// addSyncFlags registers the flags shared by index and watch.
func addSyncFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&indexCleanup, "cleanup", "", "cleanup mode (none, incremental, full, scoped_full)")
	cmd.Flags().BoolVar(&indexForce, "force", false, "rewrite documents even if unchanged")
	cmd.Flags().IntVar(&indexBatchSize, "batch-size", 0, "documents per batch (default from settings)")
}

func syncOptions() (driving.SyncOptions, error) {
	opts := driving.SyncOptions{
		ForceUpdate: indexForce,
		BatchSize:   indexBatchSize,
	}
	if indexCleanup != "" {
		mode, err := domain.ParseCleanupMode(indexCleanup)
		if err != nil {
			return opts, err
		}
		opts.Cleanup = mode
	}
	if indexBatchSize < 0 {
		return opts, fmt.Errorf("%w: --batch-size must not be negative", domain.ErrInvalidConfig)
	}
	return opts, nil
}

func runIndex(cmd *cobra.Command, args []string) error {
	if syncService == nil {
		return errors.New("sync service not configured")
	}

	opts, err := syncOptions()
	if err != nil {
		return err
	}

	root := args[0]
	cmd.Printf("Indexing %s...\n", root)

	result, err := syncService.Sync(cmd.Context(), root, opts)
	if err != nil {
		return fmt.Errorf("index failed: %w", err)
	}

	cmd.Printf("Done: %s\n", result)
	return nil
}
