// Package ratelimit wraps destinations with a token bucket so that
// indexing runs stay within a remote service's request budget.
package ratelimit

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/docsync/internal/core/domain"
	"github.com/custodia-labs/docsync/internal/core/ports/driven"
)

var (
	_ driven.VectorStore   = (*VectorStore)(nil)
	_ driven.DocumentIndex = (*DocumentIndex)(nil)
	_ driven.Flusher       = (*VectorStore)(nil)
	_ driven.Flusher       = (*DocumentIndex)(nil)
)

// NewLimiter builds a limiter allowing perSecond calls with the given burst.
// A non-positive perSecond yields an unlimited limiter.
func NewLimiter(perSecond float64, burst int) *rate.Limiter {
	if perSecond <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(perSecond), burst)
}

func wait(ctx context.Context, limiter *rate.Limiter) error {
	if err := limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: rate limit wait: %w", domain.ErrDestination, err)
	}
	return nil
}

// VectorStore throttles every call to the wrapped store.
type VectorStore struct {
	next    driven.VectorStore
	limiter *rate.Limiter
}

// WrapVectorStore returns next throttled by limiter.
func WrapVectorStore(next driven.VectorStore, limiter *rate.Limiter) *VectorStore {
	return &VectorStore{next: next, limiter: limiter}
}

func (v *VectorStore) AddDocuments(ctx context.Context, docs []domain.Document, ids []string) ([]string, error) {
	if err := wait(ctx, v.limiter); err != nil {
		return nil, err
	}
	return v.next.AddDocuments(ctx, docs, ids)
}

func (v *VectorStore) Delete(ctx context.Context, ids []string) error {
	if err := wait(ctx, v.limiter); err != nil {
		return err
	}
	return v.next.Delete(ctx, ids)
}

func (v *VectorStore) GetByIDs(ctx context.Context, ids []string) ([]domain.Document, error) {
	if err := wait(ctx, v.limiter); err != nil {
		return nil, err
	}
	return v.next.GetByIDs(ctx, ids)
}

// DocumentIndex throttles every call to the wrapped index.
type DocumentIndex struct {
	next    driven.DocumentIndex
	limiter *rate.Limiter
}

// WrapDocumentIndex returns next throttled by limiter.
func WrapDocumentIndex(next driven.DocumentIndex, limiter *rate.Limiter) *DocumentIndex {
	return &DocumentIndex{next: next, limiter: limiter}
}

func (d *DocumentIndex) Upsert(ctx context.Context, docs []domain.Document) (driven.UpsertResponse, error) {
	if err := wait(ctx, d.limiter); err != nil {
		return driven.UpsertResponse{}, err
	}
	return d.next.Upsert(ctx, docs)
}

func (d *DocumentIndex) Delete(ctx context.Context, ids []string) (driven.DeleteResponse, error) {
	if err := wait(ctx, d.limiter); err != nil {
		return driven.DeleteResponse{}, err
	}
	return d.next.Delete(ctx, ids)
}

func (d *DocumentIndex) Get(ctx context.Context, ids []string) ([]domain.Document, error) {
	if err := wait(ctx, d.limiter); err != nil {
		return nil, err
	}
	return d.next.Get(ctx, ids)
}

// flushThrough forwards to next when it buffers writes. Flushes are local
// and not throttled.
func flushThrough(ctx context.Context, next any) error {
	if f, ok := next.(driven.Flusher); ok {
		return f.Flush(ctx)
	}
	return nil
}

func (v *VectorStore) Flush(ctx context.Context) error {
	return flushThrough(ctx, v.next)
}

func (d *DocumentIndex) Flush(ctx context.Context) error {
	return flushThrough(ctx, d.next)
}

// Destination wraps whichever shape dest holds.
func Destination(dest driven.Destination, limiter *rate.Limiter) driven.Destination {
	if vs, ok := dest.VectorStore(); ok {
		return driven.NewVectorStoreDestination(WrapVectorStore(vs, limiter))
	}
	if idx, ok := dest.DocumentIndex(); ok {
		return driven.NewDocumentIndexDestination(WrapDocumentIndex(idx, limiter))
	}
	return dest
}
