package search

import (
	"fmt"
	"sort"

	"github.com/manualiq/manualiq-go/internal/vectorstore"
)

// Ranking policy names accepted in configuration.
const (
	PolicySimple    = "simple"
	PolicyFrequency = "frequency"
)

// Result is one entry of a ranked shortlist.
type Result struct {
	// DocumentID is the matched document, e.g. "100.pdf".
	DocumentID string `json:"document_id"`

	// Page is the matched page within the document. In frequency ranking
	// it is the page of the best-scoring chunk.
	Page string `json:"page"`

	// DisplayText is the human-readable label, e.g. "100.pdf (page 4)".
	DisplayText string `json:"display_text"`

	// Similarity is the relevancy score in (0, 1]. In frequency ranking
	// it is the document's best chunk score.
	Similarity float64 `json:"similarity"`

	// Matches is the number of chunks that passed the relevancy floor for
	// this document. Always 1 under the simple policy.
	Matches int `json:"matches"`
}

// Policy turns raw nearest-neighbor hits into a ranked shortlist.
type Policy interface {
	// Name returns the policy's configuration name.
	Name() string

	// FetchSize returns how many candidates the policy wants from the
	// vector store before filtering.
	FetchSize() int

	// Rank filters and orders the candidates. floor is the minimum
	// similarity a candidate must reach to survive.
	Rank(hits []vectorstore.Hit, floor float64) []Result
}

// NewPolicy returns the named ranking policy with the given result cap, or
// an error for an unknown name.
func NewPolicy(name string, maxResults int) (Policy, error) {
	switch name {
	case PolicySimple:
		return &simplePolicy{maxResults: maxResults}, nil
	case PolicyFrequency, "":
		return &frequencyPolicy{maxResults: maxResults}, nil
	default:
		return nil, fmt.Errorf("search: unknown ranking policy %q — valid values: %s, %s", name, PolicySimple, PolicyFrequency)
	}
}

// simplePolicy is the earlier per-chunk ranking: dedup by (document, page),
// apply the floor, return the best chunks by similarity. Retained as an
// alternate mode for comparison against the frequency policy.
type simplePolicy struct {
	maxResults int
}

func (p *simplePolicy) Name() string { return PolicySimple }

// FetchSize over-fetches so the shortlist survives deduplication.
func (p *simplePolicy) FetchSize() int { return 20 }

func (p *simplePolicy) Rank(hits []vectorstore.Hit, floor float64) []Result {
	type key struct{ doc, page string }
	seen := make(map[key]bool, len(hits))

	results := make([]Result, 0, p.maxResults)
	for _, h := range hits {
		k := key{h.DocumentID, h.Page}
		if seen[k] {
			continue
		}
		seen[k] = true

		sim := similarityFromDistance(h.Distance)
		if sim < floor {
			continue
		}

		results = append(results, Result{
			DocumentID:  h.DocumentID,
			Page:        h.Page,
			DisplayText: h.DisplayText,
			Similarity:  sim,
			Matches:     1,
		})
		if len(results) == p.maxResults {
			break
		}
	}

	return results
}

// frequencyPolicy is the default ranking: group surviving chunks by document
// and rank documents by how many of their chunks passed the floor, breaking
// ties by best chunk score. A document that matches the query on several
// pages outranks one with a single lucky fragment.
type frequencyPolicy struct {
	maxResults int
}

func (p *frequencyPolicy) Name() string { return PolicyFrequency }

func (p *frequencyPolicy) FetchSize() int { return 10 }

func (p *frequencyPolicy) Rank(hits []vectorstore.Hit, floor float64) []Result {
	type docStats struct {
		result Result
		order  int
	}
	stats := make(map[string]*docStats, len(hits))
	var order []string

	for i, h := range hits {
		sim := similarityFromDistance(h.Distance)
		if sim < floor {
			continue
		}

		s, ok := stats[h.DocumentID]
		if !ok {
			stats[h.DocumentID] = &docStats{
				result: Result{
					DocumentID:  h.DocumentID,
					Page:        h.Page,
					DisplayText: h.DisplayText,
					Similarity:  sim,
					Matches:     1,
				},
				order: i,
			}
			order = append(order, h.DocumentID)
			continue
		}

		s.result.Matches++
		if sim > s.result.Similarity {
			s.result.Similarity = sim
			s.result.Page = h.Page
			s.result.DisplayText = h.DisplayText
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		a, b := stats[order[i]].result, stats[order[j]].result
		if a.Matches != b.Matches {
			return a.Matches > b.Matches
		}
		return a.Similarity > b.Similarity
	})

	n := len(order)
	if n > p.maxResults {
		n = p.maxResults
	}
	results := make([]Result, 0, n)
	for _, doc := range order[:n] {
		results = append(results, stats[doc].result)
	}

	return results
}
