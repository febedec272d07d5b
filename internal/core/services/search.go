package services

import (
	"context"
	"errors"
	"strings"

	"github.com/custodia-labs/docsync/internal/core/domain"
	"github.com/custodia-labs/docsync/internal/core/ports/driven"
	"github.com/custodia-labs/docsync/internal/core/ports/driving"
	"github.com/custodia-labs/docsync/internal/logger"
)

// Ensure SearchService implements the interface.
var _ driving.SearchService = (*SearchService)(nil)

// SearchService queries a destination through its retriever.
type SearchService struct {
	retriever driven.Retriever
}

// NewSearchService creates a new search service.
func NewSearchService(retriever driven.Retriever) *SearchService {
	return &SearchService{retriever: retriever}
}

// Search returns the best matches for query.
func (s *SearchService) Search(
	ctx context.Context, query string, opts domain.SearchOptions,
) ([]domain.SearchResult, error) {
	logger.Section("Search")
	logger.Debug("Query: %q", query)

	query = strings.TrimSpace(query)
	if query == "" {
		logger.Debug("Empty query, returning no results")
		return []domain.SearchResult{}, nil
	}
	if s.retriever == nil {
		return nil, errors.New("search not configured")
	}

	opts.Limit = opts.EffectiveLimit()
	results, err := s.retriever.Search(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	logger.Debug("Found %d results", len(results))
	return results, nil
}
