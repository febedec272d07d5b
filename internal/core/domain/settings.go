package domain

import (
	"fmt"
	"strings"
)

// DestinationKind selects which destination shape the CLI writes to.
type DestinationKind string

// Available destination kinds.
const (
	// DestinationDocumentIndex is a keyed document index (bleve).
	DestinationDocumentIndex DestinationKind = "document_index"

	// DestinationVectorStore is an embedding-backed vector store (HNSW).
	DestinationVectorStore DestinationKind = "vector_store"
)

// IsValid returns true if the destination kind is recognised.
func (k DestinationKind) IsValid() bool {
	return k == DestinationDocumentIndex || k == DestinationVectorStore
}

// EmbeddingProvider identifies the service that produces vectors.
type EmbeddingProvider string

// Available embedding providers.
const (
	// EmbeddingHash is a deterministic, offline hash-based embedder.
	EmbeddingHash EmbeddingProvider = "hash"

	// EmbeddingOllama is a local Ollama instance.
	EmbeddingOllama EmbeddingProvider = "ollama"
)

// IsValid returns true if the embedding provider is recognised.
func (p EmbeddingProvider) IsValid() bool {
	return p == EmbeddingHash || p == EmbeddingOllama
}

// Settings is the file-backed configuration of the docsync CLI.
type Settings struct {
	Index       IndexSettings       `toml:"index"`
	Ledger      LedgerSettings      `toml:"ledger"`
	Destination DestinationSettings `toml:"destination"`
	Embedding   EmbeddingSettings   `toml:"embedding"`
}

// IndexSettings mirrors IndexConfig in serialisable form.
type IndexSettings struct {
	// Namespace partitions the ledger so several corpora can share one database.
	Namespace string `toml:"namespace"`

	BatchSize        int    `toml:"batch_size"`
	Cleanup          string `toml:"cleanup"`
	SourceIDKey      string `toml:"source_id_key"`
	CleanupBatchSize int    `toml:"cleanup_batch_size"`
	ForceUpdate      bool   `toml:"force_update"`
	Hash             string `toml:"hash"`
}

// LedgerSettings locates the record manager database.
type LedgerSettings struct {
	// Path is the directory holding ledger.db. Empty means ~/.docsync/data.
	Path string `toml:"path"`
}

// DestinationSettings selects and configures the destination.
type DestinationSettings struct {
	Kind string `toml:"kind"`

	// Path is the on-disk location of the destination index.
	Path string `toml:"path"`

	// RateLimit caps destination calls per second. Zero disables throttling.
	RateLimit float64 `toml:"rate_limit"`

	// Burst is the token bucket size used with RateLimit.
	Burst int `toml:"burst"`
}

// EmbeddingSettings configures the embedder used by vector store destinations.
type EmbeddingSettings struct {
	Provider   string `toml:"provider"`
	Model      string `toml:"model"`
	BaseURL    string `toml:"base_url"`
	Dimensions int    `toml:"dimensions"`
}

// DefaultSettings returns settings with sensible defaults.
func DefaultSettings() Settings {
	return Settings{
		Index: IndexSettings{
			Namespace:        "default",
			BatchSize:        DefaultBatchSize,
			Cleanup:          string(CleanupNone),
			SourceIDKey:      "source",
			CleanupBatchSize: DefaultCleanupBatchSize,
			Hash:             string(HashSHA1),
		},
		Destination: DestinationSettings{
			Kind:  string(DestinationDocumentIndex),
			Burst: 1,
		},
		Embedding: EmbeddingSettings{
			Provider:   string(EmbeddingHash),
			Dimensions: 256,
		},
	}
}

// Validate checks the settings for consistency.
func (s Settings) Validate() error {
	if strings.TrimSpace(s.Index.Namespace) == "" {
		return fmt.Errorf("%w: index.namespace must not be empty", ErrInvalidConfig)
	}
	if _, err := s.IndexConfig(); err != nil {
		return err
	}
	if !DestinationKind(s.Destination.Kind).IsValid() {
		return fmt.Errorf("%w: unknown destination kind %q", ErrInvalidConfig, s.Destination.Kind)
	}
	if s.Destination.RateLimit < 0 {
		return fmt.Errorf("%w: destination.rate_limit must not be negative", ErrInvalidConfig)
	}
	if DestinationKind(s.Destination.Kind) == DestinationVectorStore {
		if !EmbeddingProvider(s.Embedding.Provider).IsValid() {
			return fmt.Errorf("%w: unknown embedding provider %q", ErrInvalidConfig, s.Embedding.Provider)
		}
		if s.Embedding.Dimensions <= 0 {
			return fmt.Errorf("%w: embedding.dimensions must be positive", ErrInvalidConfig)
		}
	}
	return nil
}

// IndexConfig converts the index settings into a run configuration.
// A non-empty SourceIDKey becomes a metadata-key source id rule.
func (s Settings) IndexConfig() (IndexConfig, error) {
	mode, err := ParseCleanupMode(s.Index.Cleanup)
	if err != nil {
		return IndexConfig{}, err
	}
	algorithm, err := ParseHashAlgorithm(s.Index.Hash)
	if err != nil {
		return IndexConfig{}, err
	}

	cfg := IndexConfig{
		BatchSize:        s.Index.BatchSize,
		Cleanup:          mode,
		CleanupBatchSize: s.Index.CleanupBatchSize,
		ForceUpdate:      s.Index.ForceUpdate,
		HashAlgorithm:    algorithm,
	}
	if s.Index.SourceIDKey != "" {
		cfg.SourceID = MetadataSourceID(s.Index.SourceIDKey)
	}
	return cfg, cfg.Validate()
}
