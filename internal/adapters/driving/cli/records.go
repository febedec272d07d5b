package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docsync/internal/core/domain"
	"github.com/custodia-labs/docsync/internal/core/ports/driving"
)

var (
	recordsSources []string
	recordsBefore  string
	recordsAfter   string
	recordsLimit   int
)

var recordsCmd = &cobra.Command{
	Use:   "records",
	Short: "Inspect the indexing ledger",
}

var recordsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List document ids recorded in the ledger",
	Long: `Lists the ids of documents recorded in the ledger for the configured
namespace, sorted ascending. Times are RFC 3339 and bounds are exclusive.`,
	Args: cobra.NoArgs,
	RunE: runRecordsList,
}

func init() {
	recordsListCmd.Flags().StringSliceVar(&recordsSources, "source", nil, "only ids from these source ids")
	recordsListCmd.Flags().StringVar(&recordsBefore, "before", "", "only ids last seen before this time")
	recordsListCmd.Flags().StringVar(&recordsAfter, "after", "", "only ids last seen after this time")
	recordsListCmd.Flags().IntVarP(&recordsLimit, "limit", "n", 0, "maximum number of ids (0 = all)")
	recordsCmd.AddCommand(recordsListCmd)
	rootCmd.AddCommand(recordsCmd)
}

func parseTimeFlag(name, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: --%s: %w", domain.ErrInvalidConfig, name, err)
	}
	return t, nil
}

func runRecordsList(cmd *cobra.Command, _ []string) error {
	if ledgerService == nil {
		return errors.New("ledger service not configured")
	}

	before, err := parseTimeFlag("before", recordsBefore)
	if err != nil {
		return err
	}
	after, err := parseTimeFlag("after", recordsAfter)
	if err != nil {
		return err
	}

	query := driving.LedgerQuery{
		Before: before,
		After:  after,
		Limit:  recordsLimit,
	}
	if cmd.Flags().Changed("source") {
		query.GroupIDs = recordsSources
		if query.GroupIDs == nil {
			query.GroupIDs = []string{}
		}
	}

	keys, err := ledgerService.Keys(cmd.Context(), query)
	if err != nil {
		return fmt.Errorf("failed to list records: %w", err)
	}

	if len(keys) == 0 {
		cmd.Printf("No records in namespace %q.\n", ledgerService.Namespace())
		return nil
	}

	cmd.Printf("Records in namespace %q (%d):\n", ledgerService.Namespace(), len(keys))
	for _, key := range keys {
		cmd.Printf("  %s\n", key)
	}
	return nil
}
