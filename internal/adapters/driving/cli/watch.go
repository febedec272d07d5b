package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docsync/internal/core/domain"
)

var watchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "Index a directory and re-index on change",
	Long: `Indexes the directory once, then watches it and re-indexes after each
burst of file changes. Runs until interrupted.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	addSyncFlags(watchCmd)
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if syncService == nil {
		return errors.New("sync service not configured")
	}

	opts, err := syncOptions()
	if err != nil {
		return err
	}

	root := args[0]
	cmd.Printf("Watching %s (Ctrl+C to stop)...\n", root)

	report := func(result domain.IndexingResult, err error) {
		stamp := time.Now().Format(time.TimeOnly)
		if err != nil {
			cmd.PrintErrf("[%s] sync failed: %v\n", stamp, err)
			return
		}
		cmd.Printf("[%s] %s\n", stamp, result)
	}

	if err := syncService.Watch(cmd.Context(), root, opts, report); err != nil {
		return fmt.Errorf("watch failed: %w", err)
	}

	cmd.Println("Stopped.")
	return nil
}
