package services

import "github.com/custodia-labs/docsync/internal/core/domain"

// dedupByID drops documents whose ID was already seen in docs, keeping the
// first occurrence and the original order. Documents without an ID are kept.
// It returns the kept documents and how many were dropped.
func dedupByID(docs []domain.Document) ([]domain.Document, int) {
	seen := make(map[string]struct{}, len(docs))
	kept := make([]domain.Document, 0, len(docs))
	for _, doc := range docs {
		if doc.ID != "" {
			if _, dup := seen[doc.ID]; dup {
				continue
			}
			seen[doc.ID] = struct{}{}
		}
		kept = append(kept, doc)
	}
	return kept, len(docs) - len(kept)
}
