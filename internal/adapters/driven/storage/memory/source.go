package memory

import (
	"context"
	"io"
	"sync"

	"github.com/custodia-labs/docsync/internal/core/domain"
	"github.com/custodia-labs/docsync/internal/core/ports/driven"
)

// Ensure DocumentSource implements the interface.
var _ driven.DocumentSource = (*DocumentSource)(nil)

// DocumentSource yields a fixed slice of documents.
type DocumentSource struct {
	mu   sync.Mutex
	docs []domain.Document
	pos  int
}

// NewDocumentSource creates a source over docs.
func NewDocumentSource(docs ...domain.Document) *DocumentSource {
	return &DocumentSource{docs: docs}
}

// Next returns the next document or io.EOF.
func (s *DocumentSource) Next(ctx context.Context) (domain.Document, error) {
	if err := ctx.Err(); err != nil {
		return domain.Document{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pos >= len(s.docs) {
		return domain.Document{}, io.EOF
	}
	doc := s.docs[s.pos]
	s.pos++
	return doc, nil
}

// Consumed returns how many documents have been read.
func (s *DocumentSource) Consumed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pos
}

// Close is a no-op.
func (s *DocumentSource) Close() error {
	return nil
}
