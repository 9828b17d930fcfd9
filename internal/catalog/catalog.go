// Package catalog reads the precomputed document catalog (a CSV of page-level
// chunks with embeddings) and populates a vector store with it exactly once.
package catalog

import (
	"fmt"
	"strconv"
	"strings"
)

// Entry is one catalog row: a document page plus its embedding vector.
type Entry struct {
	// DocumentID is the source document filename, e.g. "100.pdf".
	DocumentID string

	// Page is the page number within the document, kept as the raw string
	// from the catalog.
	Page string

	// Embedding is the precomputed embedding vector for this page's text.
	Embedding []float32
}

// DisplayText renders the entry as it is shown to users and returned by
// search tools, e.g. "100.pdf (page 4)".
func (e Entry) DisplayText() string {
	return fmt.Sprintf("%s (page %s)", e.DocumentID, e.Page)
}

// ParseEmbedding parses an embedding serialized as a bracketed list of
// floats, e.g. "[0.12, -0.5, 0.33]". This is the format the ingestion
// pipeline writes into the catalog CSV.
func ParseEmbedding(raw string) ([]float32, error) {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "[") || !strings.HasSuffix(s, "]") {
		return nil, fmt.Errorf("catalog: embedding is not a bracketed list: %.32q", raw)
	}

	s = strings.TrimSpace(s[1 : len(s)-1])
	if s == "" {
		return nil, fmt.Errorf("catalog: embedding list is empty")
	}

	parts := strings.Split(s, ",")
	vec := make([]float32, 0, len(parts))
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return nil, fmt.Errorf("catalog: invalid embedding component %d: %w", i, err)
		}
		vec = append(vec, float32(f))
	}

	return vec, nil
}
