package search

import (
	"testing"

	"github.com/manualiq/manualiq-go/internal/vectorstore"
)

// hit builds a vectorstore.Hit with a distance chosen to yield the given
// similarity under similarityFromDistance.
func hit(doc, page string, similarity float64) vectorstore.Hit {
	return vectorstore.Hit{
		Chunk: vectorstore.Chunk{
			DocumentID:  doc,
			Page:        page,
			DisplayText: doc + " (page " + page + ")",
		},
		Distance: 1/similarity - 1,
	}
}

func TestNewPolicy(t *testing.T) {
	t.Parallel()

	p, err := NewPolicy("", 3)
	if err != nil {
		t.Fatalf("NewPolicy(\"\") error = %v", err)
	}
	if p.Name() != PolicyFrequency {
		t.Errorf("NewPolicy(\"\").Name() = %q, want %q", p.Name(), PolicyFrequency)
	}

	if _, err := NewPolicy("bogus", 3); err == nil {
		t.Error("NewPolicy(\"bogus\") expected error, got nil")
	}
}

func TestSimplePolicy_DedupAndFloor(t *testing.T) {
	t.Parallel()

	p := &simplePolicy{maxResults: 5}
	hits := []vectorstore.Hit{
		hit("a.pdf", "1", 0.99),
		hit("a.pdf", "1", 0.98), // duplicate (doc, page), dropped
		hit("a.pdf", "2", 0.95),
		hit("b.pdf", "1", 0.80), // below floor, dropped
		hit("c.pdf", "4", 0.93),
	}

	results := p.Rank(hits, 0.92)
	if len(results) != 3 {
		t.Fatalf("Rank() returned %d results, want 3", len(results))
	}

	seen := make(map[string]bool)
	for _, r := range results {
		key := r.DocumentID + ":" + r.Page
		if seen[key] {
			t.Errorf("duplicate (document, page) in shortlist: %s", key)
		}
		seen[key] = true
		if r.Similarity < 0.92 {
			t.Errorf("result %s similarity %v below floor", key, r.Similarity)
		}
	}

	if results[0].DocumentID != "a.pdf" || results[0].Page != "1" {
		t.Errorf("results[0] = %s:%s, want a.pdf:1", results[0].DocumentID, results[0].Page)
	}
}

func TestSimplePolicy_SizeBound(t *testing.T) {
	t.Parallel()

	p := &simplePolicy{maxResults: 5}
	var hits []vectorstore.Hit
	for i := 0; i < 20; i++ {
		hits = append(hits, hit("doc.pdf", string(rune('a'+i)), 0.99))
	}

	results := p.Rank(hits, 0.92)
	if len(results) != 5 {
		t.Errorf("Rank() returned %d results, want at most 5", len(results))
	}
}

func TestFrequencyPolicy_CountBeatsSimilarity(t *testing.T) {
	t.Parallel()

	// y.pdf has the single best chunk, but x.pdf matches twice above the
	// floor and must outrank it.
	p := &frequencyPolicy{maxResults: 3}
	hits := []vectorstore.Hit{
		hit("y.pdf", "3", 0.99),
		hit("x.pdf", "1", 0.95),
		hit("x.pdf", "1", 0.94),
	}

	results := p.Rank(hits, 0.90)
	if len(results) != 2 {
		t.Fatalf("Rank() returned %d results, want 2", len(results))
	}
	if results[0].DocumentID != "x.pdf" {
		t.Errorf("results[0].DocumentID = %q, want x.pdf (count 2 beats higher single score)", results[0].DocumentID)
	}
	if results[0].Matches != 2 {
		t.Errorf("results[0].Matches = %d, want 2", results[0].Matches)
	}
	if results[1].DocumentID != "y.pdf" {
		t.Errorf("results[1].DocumentID = %q, want y.pdf", results[1].DocumentID)
	}
}

func TestFrequencyPolicy_TieBrokenByMaxSimilarity(t *testing.T) {
	t.Parallel()

	p := &frequencyPolicy{maxResults: 3}
	hits := []vectorstore.Hit{
		hit("low.pdf", "1", 0.94),
		hit("high.pdf", "1", 0.98),
	}

	results := p.Rank(hits, 0.92)
	if len(results) != 2 {
		t.Fatalf("Rank() returned %d results, want 2", len(results))
	}
	if results[0].DocumentID != "high.pdf" {
		t.Errorf("results[0].DocumentID = %q, want high.pdf", results[0].DocumentID)
	}
}

func TestFrequencyPolicy_BestChunkRetained(t *testing.T) {
	t.Parallel()

	p := &frequencyPolicy{maxResults: 3}
	hits := []vectorstore.Hit{
		hit("m.pdf", "7", 0.93),
		hit("m.pdf", "2", 0.97),
	}

	results := p.Rank(hits, 0.92)
	if len(results) != 1 {
		t.Fatalf("Rank() returned %d results, want 1", len(results))
	}
	r := results[0]
	if r.Page != "2" {
		t.Errorf("Page = %q, want the best-scoring chunk's page \"2\"", r.Page)
	}
	if r.DisplayText != "m.pdf (page 2)" {
		t.Errorf("DisplayText = %q, want %q", r.DisplayText, "m.pdf (page 2)")
	}
	if r.Matches != 2 {
		t.Errorf("Matches = %d, want 2", r.Matches)
	}
}

func TestFrequencyPolicy_FloorAppliedBeforeGrouping(t *testing.T) {
	t.Parallel()

	// Chunks below the floor must not contribute to a document's count.
	p := &frequencyPolicy{maxResults: 3}
	hits := []vectorstore.Hit{
		hit("a.pdf", "1", 0.95),
		hit("a.pdf", "2", 0.50),
		hit("a.pdf", "3", 0.50),
		hit("b.pdf", "1", 0.96),
	}

	results := p.Rank(hits, 0.92)
	if len(results) != 2 {
		t.Fatalf("Rank() returned %d results, want 2", len(results))
	}
	if results[0].DocumentID != "b.pdf" {
		t.Errorf("results[0].DocumentID = %q, want b.pdf (a.pdf's sub-floor chunks must not count)", results[0].DocumentID)
	}
	if results[1].Matches != 1 {
		t.Errorf("a.pdf Matches = %d, want 1", results[1].Matches)
	}
}

func TestFrequencyPolicy_SizeBoundAndOrdering(t *testing.T) {
	t.Parallel()

	p := &frequencyPolicy{maxResults: 3}
	hits := []vectorstore.Hit{
		hit("a.pdf", "1", 0.99),
		hit("a.pdf", "2", 0.98),
		hit("a.pdf", "3", 0.97),
		hit("b.pdf", "1", 0.99),
		hit("b.pdf", "2", 0.98),
		hit("c.pdf", "1", 0.99),
		hit("d.pdf", "1", 0.98),
	}

	results := p.Rank(hits, 0.92)
	if len(results) != 3 {
		t.Fatalf("Rank() returned %d results, want 3", len(results))
	}
	for i := 1; i < len(results); i++ {
		a, b := results[i-1], results[i]
		if a.Matches < b.Matches || (a.Matches == b.Matches && a.Similarity < b.Similarity) {
			t.Errorf("ordering violated at %d: (%d, %v) before (%d, %v)",
				i, a.Matches, a.Similarity, b.Matches, b.Similarity)
		}
	}
}

func TestFrequencyPolicy_NoDuplicateDocuments(t *testing.T) {
	t.Parallel()

	p := &frequencyPolicy{maxResults: 3}
	hits := []vectorstore.Hit{
		hit("a.pdf", "1", 0.99),
		hit("a.pdf", "2", 0.98),
		hit("b.pdf", "1", 0.97),
	}

	results := p.Rank(hits, 0.92)
	seen := make(map[string]bool)
	for _, r := range results {
		if seen[r.DocumentID] {
			t.Errorf("duplicate document in shortlist: %s", r.DocumentID)
		}
		seen[r.DocumentID] = true
	}
}

func TestPolicies_EmptyHits(t *testing.T) {
	t.Parallel()

	for _, p := range []Policy{&simplePolicy{maxResults: 5}, &frequencyPolicy{maxResults: 3}} {
		if got := p.Rank(nil, 0.92); len(got) != 0 {
			t.Errorf("%s.Rank(nil) returned %d results, want 0", p.Name(), len(got))
		}
	}
}
