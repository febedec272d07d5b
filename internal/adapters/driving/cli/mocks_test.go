package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/custodia-labs/docsync/internal/core/domain"
	"github.com/custodia-labs/docsync/internal/core/ports/driving"
)

// mockSyncService implements driving.SyncService for testing.
type mockSyncService struct {
	result   domain.IndexingResult
	err      error
	gotRoot  string
	gotOpts  driving.SyncOptions
	watchRun []error
}

func (m *mockSyncService) Sync(_ context.Context, root string, opts driving.SyncOptions) (domain.IndexingResult, error) {
	m.gotRoot = root
	m.gotOpts = opts
	return m.result, m.err
}

func (m *mockSyncService) Watch(
	_ context.Context,
	root string,
	opts driving.SyncOptions,
	report func(domain.IndexingResult, error),
) error {
	m.gotRoot = root
	m.gotOpts = opts
	for _, err := range m.watchRun {
		report(m.result, err)
	}
	return m.err
}

// mockSearchService implements driving.SearchService for testing.
type mockSearchService struct {
	results []domain.SearchResult
	err     error
	gotOpts domain.SearchOptions
}

func (m *mockSearchService) Search(_ context.Context, _ string, opts domain.SearchOptions) ([]domain.SearchResult, error) {
	m.gotOpts = opts
	return m.results, m.err
}

// mockLedgerService implements driving.LedgerService for testing.
type mockLedgerService struct {
	keys     []string
	err      error
	gotQuery driving.LedgerQuery
}

func (m *mockLedgerService) Keys(_ context.Context, query driving.LedgerQuery) ([]string, error) {
	m.gotQuery = query
	return m.keys, m.err
}

func (m *mockLedgerService) Namespace() string { return "test-ns" }

// mockSettingsService implements driving.SettingsService for testing.
type mockSettingsService struct {
	settings domain.Settings
	setErr   error
	setKey   string
	setValue string
}

func (m *mockSettingsService) Get() (domain.Settings, error) { return m.settings, nil }

func (m *mockSettingsService) Set(key, value string) error {
	m.setKey, m.setValue = key, value
	return m.setErr
}

func (m *mockSettingsService) Path() string { return "/tmp/docsync/config.toml" }

// setupServices installs s for the duration of the test.
func setupServices(t *testing.T, s Services) {
	t.Helper()
	old := Services{Sync: syncService, Search: searchService, Ledger: ledgerService, Settings: settingsService}
	SetServices(s)
	t.Cleanup(func() { SetServices(old) })
}

// execute runs the root command with args and returns stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	// Flag values persist across Execute calls on the shared command tree.
	indexCleanup, indexForce, indexBatchSize = "", false, 0
	recordsSources, recordsBefore, recordsAfter, recordsLimit = nil, "", "", 0
	searchLimit, searchJSON = domain.DefaultSearchLimit, false
	if f := recordsListCmd.Flags().Lookup("source"); f != nil {
		f.Changed = false
	}

	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})

	err := rootCmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}
