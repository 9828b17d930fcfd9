// Package search implements the document retrieval and ranking engine: it
// embeds a query, runs a nearest-neighbor search against the vector store,
// and produces a deduplicated, thresholded, ranked shortlist of documents.
package search

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/manualiq/manualiq-go/internal/embedder"
	"github.com/manualiq/manualiq-go/internal/logging"
	"github.com/manualiq/manualiq-go/internal/vectorstore"
)

// ErrEmbeddingFailed signals that the query could not be turned into a
// vector. Callers surface it as a clear status rather than retrying.
var ErrEmbeddingFailed = errors.New("search: failed to embed query")

// DefaultRelevancyFloor is the minimum similarity a chunk must reach to
// appear in a shortlist. Empirically tuned against the shipped catalog.
const DefaultRelevancyFloor = 0.920

// Default shortlist caps per policy.
const (
	DefaultMaxResults       = 3
	DefaultSimpleMaxResults = 5
)

// fallbackResults caps the linear-scan fallback shortlist.
const fallbackResults = 3

// Config controls the engine's ranking behavior.
type Config struct {
	// Policy selects the ranking policy: "frequency" (default) or "simple".
	Policy string

	// RelevancyFloor is the minimum similarity; 0 means DefaultRelevancyFloor.
	RelevancyFloor float64

	// MaxResults caps the frequency shortlist; 0 means DefaultMaxResults.
	MaxResults int

	// SimpleMaxResults caps the simple shortlist; 0 means DefaultSimpleMaxResults.
	SimpleMaxResults int
}

// Engine combines an embedder, a vector store, and a ranking policy.
// It is safe for concurrent use once constructed.
type Engine struct {
	embedder embedder.Embedder
	store    vectorstore.Store
	policy   Policy
	floor    float64
}

// NewEngine constructs an Engine from the given collaborators and config.
func NewEngine(emb embedder.Embedder, store vectorstore.Store, cfg Config) (*Engine, error) {
	if emb == nil {
		return nil, fmt.Errorf("search: embedder must not be nil")
	}
	if store == nil {
		return nil, fmt.Errorf("search: store must not be nil")
	}

	floor := cfg.RelevancyFloor
	if floor == 0 {
		floor = DefaultRelevancyFloor
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	if cfg.Policy == PolicySimple {
		maxResults = cfg.SimpleMaxResults
		if maxResults <= 0 {
			maxResults = DefaultSimpleMaxResults
		}
	}

	policy, err := NewPolicy(cfg.Policy, maxResults)
	if err != nil {
		return nil, err
	}

	return &Engine{
		embedder: emb,
		store:    store,
		policy:   policy,
		floor:    floor,
	}, nil
}

// Policy returns the name of the active ranking policy.
func (e *Engine) Policy() string { return e.policy.Name() }

// Search embeds the query, runs the nearest-neighbor search, and returns the
// ranked shortlist. An empty store or a query with no survivors yields an
// empty shortlist, not an error. Embedding failures return
// ErrEmbeddingFailed; search backend failures fall back to a linear scan
// when the store supports enumeration.
func (e *Engine) Search(ctx context.Context, query string) ([]Result, error) {
	log := logging.FromContext(ctx)

	vectors, err := e.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingFailed, err)
	}
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return nil, fmt.Errorf("%w: embedder returned empty vector", ErrEmbeddingFailed)
	}
	vector := vectors[0]

	hits, err := e.store.Query(ctx, vector, e.policy.FetchSize())
	if err != nil {
		log.Warn("vector search failed, falling back to linear scan", "error", err)
		return e.linearScan(ctx, vector, err)
	}

	return e.policy.Rank(hits, e.floor), nil
}

// linearScan is the fallback when the nearest-neighbor backend fails: a
// brute-force dot-product pass over every loaded chunk. No floor or
// deduplication is applied on this path; it preserves availability, not
// ranking quality.
func (e *Engine) linearScan(ctx context.Context, vector []float32, cause error) ([]Result, error) {
	lister, ok := e.store.(vectorstore.Lister)
	if !ok {
		return nil, fmt.Errorf("search: vector search failed: %w", cause)
	}

	chunks, err := lister.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("search: vector search failed (%v); fallback scan failed: %w", cause, err)
	}

	scored := make([]Result, 0, len(chunks))
	for _, c := range chunks {
		scored = append(scored, Result{
			DocumentID:  c.DocumentID,
			Page:        c.Page,
			DisplayText: c.DisplayText,
			Similarity:  dotProduct(vector, c.Embedding),
			Matches:     1,
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Similarity > scored[j].Similarity
	})

	if len(scored) > fallbackResults {
		scored = scored[:fallbackResults]
	}
	return scored, nil
}
