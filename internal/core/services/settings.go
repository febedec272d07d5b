package services

import (
	"fmt"
	"strconv"

	"github.com/custodia-labs/docsync/internal/core/domain"
	"github.com/custodia-labs/docsync/internal/core/ports/driven"
	"github.com/custodia-labs/docsync/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Settings keys accepted by Set.
const (
	keyNamespace        = "index.namespace"
	keyBatchSize        = "index.batch_size"
	keyCleanup          = "index.cleanup"
	keySourceIDKey      = "index.source_id_key"
	keyCleanupBatchSize = "index.cleanup_batch_size"
	keyForceUpdate      = "index.force_update"
	keyHash             = "index.hash"
	keyLedgerPath       = "ledger.path"
	keyDestKind         = "destination.kind"
	keyDestPath         = "destination.path"
	keyDestRateLimit    = "destination.rate_limit"
	keyDestBurst        = "destination.burst"
	keyEmbedProvider    = "embedding.provider"
	keyEmbedModel       = "embedding.model"
	keyEmbedBaseURL     = "embedding.base_url"
	keyEmbedDimensions  = "embedding.dimensions"
)

// SettingsKeys lists every key accepted by SettingsService.Set.
var SettingsKeys = []string{
	keyNamespace, keyBatchSize, keyCleanup, keySourceIDKey, keyCleanupBatchSize,
	keyForceUpdate, keyHash, keyLedgerPath, keyDestKind, keyDestPath,
	keyDestRateLimit, keyDestBurst, keyEmbedProvider, keyEmbedModel,
	keyEmbedBaseURL, keyEmbedDimensions,
}

// SettingsService manages CLI settings.
type SettingsService struct {
	store driven.SettingsStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(store driven.SettingsStore) *SettingsService {
	return &SettingsService{store: store}
}

// Get retrieves current settings.
func (s *SettingsService) Get() (domain.Settings, error) {
	settings, err := s.store.Load()
	if err != nil {
		return domain.Settings{}, fmt.Errorf("load settings: %w", err)
	}
	return settings, nil
}

// Set updates one key, validates the result and saves it.
func (s *SettingsService) Set(key, value string) error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	if err := applySetting(&settings, key, value); err != nil {
		return err
	}
	if err := settings.Validate(); err != nil {
		return err
	}
	return s.store.Save(settings)
}

// Path returns where settings are stored.
func (s *SettingsService) Path() string {
	return s.store.Path()
}

//nolint:gocyclo // flat key dispatch
func applySetting(settings *domain.Settings, key, value string) error {
	var err error
	switch key {
	case keyNamespace:
		settings.Index.Namespace = value
	case keyBatchSize:
		settings.Index.BatchSize, err = strconv.Atoi(value)
	case keyCleanup:
		settings.Index.Cleanup = value
	case keySourceIDKey:
		settings.Index.SourceIDKey = value
	case keyCleanupBatchSize:
		settings.Index.CleanupBatchSize, err = strconv.Atoi(value)
	case keyForceUpdate:
		settings.Index.ForceUpdate, err = strconv.ParseBool(value)
	case keyHash:
		settings.Index.Hash = value
	case keyLedgerPath:
		settings.Ledger.Path = value
	case keyDestKind:
		settings.Destination.Kind = value
	case keyDestPath:
		settings.Destination.Path = value
	case keyDestRateLimit:
		settings.Destination.RateLimit, err = strconv.ParseFloat(value, 64)
	case keyDestBurst:
		settings.Destination.Burst, err = strconv.Atoi(value)
	case keyEmbedProvider:
		settings.Embedding.Provider = value
	case keyEmbedModel:
		settings.Embedding.Model = value
	case keyEmbedBaseURL:
		settings.Embedding.BaseURL = value
	case keyEmbedDimensions:
		settings.Embedding.Dimensions, err = strconv.Atoi(value)
	default:
		return fmt.Errorf("%w: unknown settings key %q", domain.ErrInvalidConfig, key)
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrInvalidConfig, key, err)
	}
	return nil
}
