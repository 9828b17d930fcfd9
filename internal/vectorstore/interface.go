// Package vectorstore defines the vector storage layer for manual-document
// chunks: the Store interface plus the in-memory and Qdrant-backed
// implementations. The ranking engine never depends on a specific backend.
package vectorstore

import (
	"context"
)

// Chunk is one page-level unit of retrievable content. The combination of
// DocumentID and Page is unique within the catalog as a logical key, but the
// store may hold duplicate rows — deduplication happens at query time in the
// ranking engine, not here.
type Chunk struct {
	// DocumentID is the source document identifier (e.g. "001.pdf").
	DocumentID string

	// Page is the page indicator within the document, kept as text because
	// the catalog stores it as text.
	Page string

	// DisplayText is the human-readable label ("001.pdf (page 5)") used for
	// presentation.
	DisplayText string

	// Embedding is the fixed-length vector for this chunk. Length is constant
	// across the whole catalog.
	Embedding []float32
}

// Hit is a single nearest-neighbor result: the matched chunk plus its cosine
// distance from the query vector (1 − cosine similarity).
type Hit struct {
	Chunk

	// Distance is the cosine distance to the query vector. Smaller is closer.
	Distance float64
}

// Store is the interface for persisting and searching chunk embeddings.
// Implementations must be safe to call from multiple goroutines: Upsert and
// Reset are serialized internally; Query is non-mutating and may run
// concurrently against a stable store.
type Store interface {
	// Upsert inserts a batch of chunks. Callers may split large catalogs into
	// multiple Upsert calls to respect backend batch-size ceilings.
	Upsert(ctx context.Context, chunks []Chunk) error

	// Count returns the number of chunks currently stored.
	Count(ctx context.Context) (int, error)

	// Query returns the k chunks with the smallest cosine distance to vector,
	// closest first. Ties are broken by insertion order (stable). A query
	// against an empty store returns an empty slice, not an error.
	Query(ctx context.Context, vector []float32, k int) ([]Hit, error)

	// Reset discards all stored chunks. The next catalog load repopulates
	// the store from the persisted catalog.
	Reset(ctx context.Context) error

	// Close releases any resources held by the store.
	Close() error
}

// Lister is implemented by stores that can enumerate every loaded chunk.
// The ranking engine uses it for the brute-force fallback scan when the
// nearest-neighbor query fails.
type Lister interface {
	// All returns every stored chunk in insertion order.
	All(ctx context.Context) ([]Chunk, error)
}
