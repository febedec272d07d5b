package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCleanupMode(t *testing.T) {
	tests := []struct {
		input   string
		want    CleanupMode
		wantErr bool
	}{
		{input: "", want: CleanupNone},
		{input: "none", want: CleanupNone},
		{input: "incremental", want: CleanupIncremental},
		{input: "FULL", want: CleanupFull},
		{input: " scoped_full ", want: CleanupScopedFull},
		{input: "partial", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseCleanupMode(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidConfig)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCleanupMode_RequiresSourceID(t *testing.T) {
	assert.False(t, CleanupNone.RequiresSourceID())
	assert.True(t, CleanupIncremental.RequiresSourceID())
	assert.False(t, CleanupFull.RequiresSourceID())
	assert.True(t, CleanupScopedFull.RequiresSourceID())
}

func TestCleanupMode_String(t *testing.T) {
	assert.Equal(t, "none", CleanupMode("").String())
	assert.Equal(t, "scoped_full", CleanupScopedFull.String())
}

func TestParseHashAlgorithm(t *testing.T) {
	got, err := ParseHashAlgorithm("")
	require.NoError(t, err)
	assert.Equal(t, HashSHA1, got)

	got, err = ParseHashAlgorithm("BLAKE2b")
	require.NoError(t, err)
	assert.Equal(t, HashBLAKE2b, got)

	_, err = ParseHashAlgorithm("md5")
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestIndexConfig_Validate(t *testing.T) {
	withSource := func(c IndexConfig) IndexConfig {
		c.SourceID = MetadataSourceID("source")
		return c
	}

	tests := []struct {
		name    string
		mutate  func(IndexConfig) IndexConfig
		wantErr string
	}{
		{name: "defaults", mutate: func(c IndexConfig) IndexConfig { return c }},
		{
			name:    "zero batch size",
			mutate:  func(c IndexConfig) IndexConfig { c.BatchSize = 0; return c },
			wantErr: "batch size must be positive",
		},
		{
			name:    "negative cleanup batch size",
			mutate:  func(c IndexConfig) IndexConfig { c.CleanupBatchSize = -1; return c },
			wantErr: "cleanup batch size must be positive",
		},
		{
			name:    "unknown mode",
			mutate:  func(c IndexConfig) IndexConfig { c.Cleanup = "sometimes"; return c },
			wantErr: "unknown cleanup mode",
		},
		{
			name:    "incremental without source id",
			mutate:  func(c IndexConfig) IndexConfig { c.Cleanup = CleanupIncremental; return c },
			wantErr: "source id key is required when cleanup mode is incremental",
		},
		{
			name:    "scoped full without source id",
			mutate:  func(c IndexConfig) IndexConfig { c.Cleanup = CleanupScopedFull; return c },
			wantErr: "source id key is required when cleanup mode is scoped_full",
		},
		{
			name:   "incremental with source id",
			mutate: func(c IndexConfig) IndexConfig { c.Cleanup = CleanupIncremental; return withSource(c) },
		},
		{
			name:   "full without source id",
			mutate: func(c IndexConfig) IndexConfig { c.Cleanup = CleanupFull; return c },
		},
		{
			name:    "unknown hash",
			mutate:  func(c IndexConfig) IndexConfig { c.HashAlgorithm = "crc32"; return c },
			wantErr: "unknown hash algorithm",
		},
		{
			name: "key func bypasses hash check",
			mutate: func(c IndexConfig) IndexConfig {
				c.HashAlgorithm = "crc32"
				c.KeyFunc = func(d Document) string { return d.Content }
				return c
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.mutate(DefaultIndexConfig()).Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestIndexingResult_Add(t *testing.T) {
	a := IndexingResult{NumAdded: 1, NumUpdated: 2, NumDeleted: 3, NumSkipped: 4}
	b := IndexingResult{NumAdded: 10, NumUpdated: 20, NumDeleted: 30, NumSkipped: 40}

	assert.Equal(t, IndexingResult{NumAdded: 11, NumUpdated: 22, NumDeleted: 33, NumSkipped: 44}, a.Add(b))
	assert.Equal(t, "added=1 updated=2 deleted=3 skipped=4", a.String())
}
