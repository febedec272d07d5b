package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docsync/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long:  `View and change indexing, ledger, destination and embedding settings.`,
	RunE:  runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change a setting",
	Long: `Change a single setting. The new settings are validated before saving.

Keys:
  index.namespace           index.batch_size        index.cleanup
  index.source_id_key       index.cleanup_batch_size
  index.force_update        index.hash
  ledger.path
  destination.kind          destination.path
  destination.rate_limit    destination.burst
  embedding.provider        embedding.model
  embedding.base_url        embedding.dimensions`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Printf("File: %s\n", settingsService.Path())
	cmd.Println()

	cmd.Println("[Index]")
	cmd.Printf("  Namespace: %s\n", settings.Index.Namespace)
	cmd.Printf("  Batch size: %d\n", settings.Index.BatchSize)
	cmd.Printf("  Cleanup: %s\n", settings.Index.Cleanup)
	cmd.Printf("  Source id key: %s\n", orNone(settings.Index.SourceIDKey))
	cmd.Printf("  Cleanup batch size: %d\n", settings.Index.CleanupBatchSize)
	cmd.Printf("  Force update: %t\n", settings.Index.ForceUpdate)
	cmd.Printf("  Hash: %s\n", settings.Index.Hash)
	cmd.Println()

	cmd.Println("[Ledger]")
	cmd.Printf("  Path: %s\n", orDefault(settings.Ledger.Path))
	cmd.Println()

	cmd.Println("[Destination]")
	cmd.Printf("  Kind: %s\n", settings.Destination.Kind)
	cmd.Printf("  Path: %s\n", orDefault(settings.Destination.Path))
	if settings.Destination.RateLimit > 0 {
		cmd.Printf("  Rate limit: %g/s (burst %d)\n", settings.Destination.RateLimit, settings.Destination.Burst)
	} else {
		cmd.Println("  Rate limit: off")
	}
	cmd.Println()

	if domain.DestinationKind(settings.Destination.Kind) == domain.DestinationVectorStore {
		cmd.Println("[Embedding]")
		cmd.Printf("  Provider: %s\n", settings.Embedding.Provider)
		cmd.Printf("  Model: %s\n", orDefault(settings.Embedding.Model))
		cmd.Printf("  Base URL: %s\n", orDefault(settings.Embedding.BaseURL))
		cmd.Printf("  Dimensions: %d\n", settings.Embedding.Dimensions)
		cmd.Println()
	}

	if err := settings.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
		cmd.Println("Run 'docsync settings set <key> <value>' to fix configuration issues.")
	} else {
		cmd.Println("Configuration is valid.")
	}
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	key, value := args[0], args[1]
	if err := settingsService.Set(key, value); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}

	cmd.Printf("%s = %s\n", key, value)
	return nil
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}

func orDefault(s string) string {
	if s == "" {
		return "(default)"
	}
	return s
}
