package vectorstore

import (
	"context"
	"math"
	"sort"
	"sync"
)

// MemoryStore is an in-memory Store using brute-force cosine distance.
// It is the default backend: the catalog is small enough (a few thousand
// 128-dim vectors) that a linear scan per query beats maintaining an ANN
// index, and the store is rebuilt from the persisted catalog on every cold
// start anyway.
//
// An RWMutex serializes Upsert/Reset against concurrent Query calls;
// queries against a stable store proceed in parallel under the read lock.
type MemoryStore struct {
	mu     sync.RWMutex
	chunks []Chunk
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Upsert appends a batch of chunks, preserving insertion order.
func (s *MemoryStore) Upsert(_ context.Context, chunks []Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks = append(s.chunks, chunks...)
	return nil
}

// Count returns the number of stored chunks.
func (s *MemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks), nil
}

// Query returns the k chunks with the smallest cosine distance to vector.
// Ties are broken by insertion order so repeated queries over the same
// catalog state are reproducible.
func (s *MemoryStore) Query(_ context.Context, vector []float32, k int) ([]Hit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if k <= 0 || len(s.chunks) == 0 {
		return nil, nil
	}

	hits := make([]Hit, 0, len(s.chunks))
	for _, c := range s.chunks {
		hits = append(hits, Hit{Chunk: c, Distance: cosineDistance(vector, c.Embedding)})
	}

	// SliceStable keeps insertion order among equal distances.
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Distance < hits[j].Distance
	})

	if k > len(hits) {
		k = len(hits)
	}
	return hits[:k], nil
}

// Reset discards all stored chunks.
func (s *MemoryStore) Reset(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks = nil
	return nil
}

// All returns every stored chunk in insertion order. Implements Lister for
// the ranking engine's brute-force fallback.
func (s *MemoryStore) All(_ context.Context) ([]Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Chunk, len(s.chunks))
	copy(out, s.chunks)
	return out, nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error { return nil }

// cosineDistance returns 1 − cosine similarity of a and b. Mismatched or
// zero-magnitude vectors yield the maximum distance of 1 so malformed rows
// sink to the bottom instead of surfacing.
func cosineDistance(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 1
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
}
