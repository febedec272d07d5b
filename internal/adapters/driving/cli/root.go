// Package cli provides the docsync command-line interface.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docsync/internal/core/ports/driving"
	"github.com/custodia-labs/docsync/internal/logger"
)

// version is set at build time via SetVersion.
var version = "dev"

// Services injected by main. A nil service makes its commands fail with
// a "not configured" error.
var (
	syncService     driving.SyncService
	searchService   driving.SearchService
	ledgerService   driving.LedgerService
	settingsService driving.SettingsService
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "docsync",
	Short: "Keep a search index in sync with a directory of documents",
	Long: `docsync indexes a directory into a document index or vector store and
keeps it in sync. Unchanged files are skipped, and with a cleanup mode set,
entries for files that disappeared are deleted.

Every indexed document is recorded in a ledger so that repeated runs only
write what changed.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}

// Services groups the driving ports used by the commands.
type Services struct {
	Sync     driving.SyncService
	Search   driving.SearchService
	Ledger   driving.LedgerService
	Settings driving.SettingsService
}

// SetServices injects the services the commands call.
func SetServices(s Services) {
	syncService = s.Sync
	searchService = s.Search
	ledgerService = s.Ledger
	settingsService = s.Settings
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

// Execute runs the root command with ctx.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}
