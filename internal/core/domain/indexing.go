package domain

import (
	"fmt"
	"strings"
)

// Default run parameters.
const (
	DefaultBatchSize        = 100
	DefaultCleanupBatchSize = 1000
)

// CleanupMode is the policy for deleting destination entries that are no
// longer present in the source.
type CleanupMode string

// Available cleanup modes.
const (
	// CleanupNone never deletes anything.
	CleanupNone CleanupMode = "none"

	// CleanupIncremental deletes stale entries under the source ids touched
	// by each batch, right after that batch is written.
	CleanupIncremental CleanupMode = "incremental"

	// CleanupFull deletes every stale entry in the ledger after the whole
	// source has been consumed.
	CleanupFull CleanupMode = "full"

	// CleanupScopedFull deletes stale entries under the source ids observed
	// during the run, after the whole source has been consumed.
	CleanupScopedFull CleanupMode = "scoped_full"
)

// ParseCleanupMode converts a configuration string to a CleanupMode.
// The empty string maps to CleanupNone.
func ParseCleanupMode(s string) (CleanupMode, error) {
	switch m := CleanupMode(strings.ToLower(strings.TrimSpace(s))); m {
	case "", CleanupNone:
		return CleanupNone, nil
	case CleanupIncremental, CleanupFull, CleanupScopedFull:
		return m, nil
	default:
		return "", fmt.Errorf("%w: unknown cleanup mode %q", ErrInvalidConfig, s)
	}
}

// RequiresSourceID reports whether the mode needs every document to carry a source id.
func (m CleanupMode) RequiresSourceID() bool {
	return m == CleanupIncremental || m == CleanupScopedFull
}

// String returns the string representation.
func (m CleanupMode) String() string {
	if m == "" {
		return string(CleanupNone)
	}
	return string(m)
}

// HashAlgorithm selects the digest used to derive document ids.
type HashAlgorithm string

// Supported hash algorithms.
const (
	// HashSHA1 is kept for ledgers written by older releases. Every digest is
	// wrapped in a UUIDv5 so ids are UUID-shaped.
	HashSHA1    HashAlgorithm = "sha1"
	HashSHA256  HashAlgorithm = "sha256"
	HashSHA512  HashAlgorithm = "sha512"
	HashBLAKE2b HashAlgorithm = "blake2b"
)

// ParseHashAlgorithm converts a configuration string to a HashAlgorithm.
// The empty string maps to HashSHA1.
func ParseHashAlgorithm(s string) (HashAlgorithm, error) {
	switch a := HashAlgorithm(strings.ToLower(strings.TrimSpace(s))); a {
	case "":
		return HashSHA1, nil
	case HashSHA1, HashSHA256, HashSHA512, HashBLAKE2b:
		return a, nil
	default:
		return "", fmt.Errorf("%w: unknown hash algorithm %q", ErrInvalidConfig, s)
	}
}

// SourceIDFunc derives the grouping key for a document.
// The second return value is false when the document has no source id.
type SourceIDFunc func(doc Document) (string, bool)

// KeyFunc derives a document id directly, bypassing the hash algorithm.
type KeyFunc func(doc Document) string

// IndexConfig controls a single reconciliation run.
type IndexConfig struct {
	// BatchSize is the number of source documents processed per batch.
	BatchSize int

	// Cleanup is the deletion policy for stale entries.
	Cleanup CleanupMode

	// SourceID derives the source id per document. Required for
	// CleanupIncremental and CleanupScopedFull.
	SourceID SourceIDFunc

	// CleanupBatchSize bounds how many ledger keys are deleted per sweep step.
	CleanupBatchSize int

	// ForceUpdate rewrites documents that already exist in the ledger.
	ForceUpdate bool

	// HashAlgorithm is used unless KeyFunc is set.
	HashAlgorithm HashAlgorithm

	// KeyFunc overrides HashAlgorithm when non-nil.
	KeyFunc KeyFunc
}

// DefaultIndexConfig returns the configuration used when nothing is specified.
func DefaultIndexConfig() IndexConfig {
	return IndexConfig{
		BatchSize:        DefaultBatchSize,
		Cleanup:          CleanupNone,
		CleanupBatchSize: DefaultCleanupBatchSize,
		HashAlgorithm:    HashSHA1,
	}
}

// Validate checks the configuration before any I/O happens.
func (c IndexConfig) Validate() error {
	if c.BatchSize <= 0 {
		return fmt.Errorf("%w: batch size must be positive, got %d", ErrInvalidConfig, c.BatchSize)
	}
	if c.CleanupBatchSize <= 0 {
		return fmt.Errorf("%w: cleanup batch size must be positive, got %d", ErrInvalidConfig, c.CleanupBatchSize)
	}
	if _, err := ParseCleanupMode(string(c.Cleanup)); err != nil {
		return err
	}
	if c.KeyFunc == nil {
		if _, err := ParseHashAlgorithm(string(c.HashAlgorithm)); err != nil {
			return err
		}
	}
	if c.Cleanup.RequiresSourceID() && c.SourceID == nil {
		return fmt.Errorf("%w: source id key is required when cleanup mode is %s", ErrInvalidConfig, c.Cleanup)
	}
	return nil
}

// IndexingResult holds the counters produced by one run.
type IndexingResult struct {
	// NumAdded is the number of documents written that were not in the ledger.
	NumAdded int

	// NumUpdated is the number of existing documents rewritten due to ForceUpdate.
	NumUpdated int

	// NumDeleted is the number of stale entries removed by cleanup.
	NumDeleted int

	// NumSkipped counts intra-batch duplicates plus unchanged documents.
	NumSkipped int
}

// Add returns the element-wise sum of two results.
func (r IndexingResult) Add(other IndexingResult) IndexingResult {
	return IndexingResult{
		NumAdded:   r.NumAdded + other.NumAdded,
		NumUpdated: r.NumUpdated + other.NumUpdated,
		NumDeleted: r.NumDeleted + other.NumDeleted,
		NumSkipped: r.NumSkipped + other.NumSkipped,
	}
}

// String returns a one-line summary.
func (r IndexingResult) String() string {
	return fmt.Sprintf("added=%d updated=%d deleted=%d skipped=%d",
		r.NumAdded, r.NumUpdated, r.NumDeleted, r.NumSkipped)
}
