package vectorstore

import (
	"context"
	"math"
	"testing"
)

func TestMemoryStore_UpsertAndCount(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	ctx := context.Background()

	count, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 0 {
		t.Errorf("Count() = %d, want 0 for new store", count)
	}

	chunks := []Chunk{
		{DocumentID: "100.pdf", Page: "1", DisplayText: "100.pdf (page 1)", Embedding: []float32{1, 0, 0}},
		{DocumentID: "100.pdf", Page: "2", DisplayText: "100.pdf (page 2)", Embedding: []float32{0, 1, 0}},
	}
	if err := store.Upsert(ctx, chunks); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	count, err = store.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 2 {
		t.Errorf("Count() = %d, want 2", count)
	}
}

func TestMemoryStore_QueryOrdersByDistance(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	ctx := context.Background()

	err := store.Upsert(ctx, []Chunk{
		{DocumentID: "far.pdf", Page: "1", Embedding: []float32{-1, 0}},
		{DocumentID: "near.pdf", Page: "1", Embedding: []float32{1, 0}},
		{DocumentID: "mid.pdf", Page: "1", Embedding: []float32{0, 1}},
	})
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	hits, err := store.Query(ctx, []float32{1, 0}, 3)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(hits) != 3 {
		t.Fatalf("Query() returned %d hits, want 3", len(hits))
	}

	want := []string{"near.pdf", "mid.pdf", "far.pdf"}
	for i, w := range want {
		if hits[i].DocumentID != w {
			t.Errorf("hits[%d].DocumentID = %q, want %q", i, hits[i].DocumentID, w)
		}
	}
	for i := 1; i < len(hits); i++ {
		if hits[i].Distance < hits[i-1].Distance {
			t.Errorf("hits not sorted: hits[%d].Distance=%v < hits[%d].Distance=%v",
				i, hits[i].Distance, i-1, hits[i-1].Distance)
		}
	}
}

func TestMemoryStore_QueryStableTies(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	ctx := context.Background()

	// Identical vectors produce identical distances; insertion order must
	// break the tie deterministically.
	err := store.Upsert(ctx, []Chunk{
		{DocumentID: "first.pdf", Page: "1", Embedding: []float32{1, 1}},
		{DocumentID: "second.pdf", Page: "1", Embedding: []float32{1, 1}},
		{DocumentID: "third.pdf", Page: "1", Embedding: []float32{1, 1}},
	})
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	for run := 0; run < 5; run++ {
		hits, err := store.Query(ctx, []float32{1, 1}, 3)
		if err != nil {
			t.Fatalf("Query() error = %v", err)
		}
		want := []string{"first.pdf", "second.pdf", "third.pdf"}
		for i, w := range want {
			if hits[i].DocumentID != w {
				t.Errorf("run %d: hits[%d].DocumentID = %q, want %q", run, i, hits[i].DocumentID, w)
			}
		}
	}
}

func TestMemoryStore_QueryKLargerThanStore(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	ctx := context.Background()

	err := store.Upsert(ctx, []Chunk{
		{DocumentID: "only.pdf", Page: "1", Embedding: []float32{1, 0}},
	})
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	hits, err := store.Query(ctx, []float32{1, 0}, 20)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(hits) != 1 {
		t.Errorf("Query() returned %d hits, want 1", len(hits))
	}
}

func TestMemoryStore_QueryEmptyStore(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	hits, err := store.Query(context.Background(), []float32{1, 0}, 5)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("Query() on empty store returned %d hits, want 0", len(hits))
	}
}

func TestMemoryStore_Reset(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	ctx := context.Background()

	err := store.Upsert(ctx, []Chunk{
		{DocumentID: "a.pdf", Page: "1", Embedding: []float32{1, 0}},
	})
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	if err := store.Reset(ctx); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}

	count, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 0 {
		t.Errorf("Count() after Reset = %d, want 0", count)
	}
}

func TestMemoryStore_All(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	ctx := context.Background()

	chunks := []Chunk{
		{DocumentID: "a.pdf", Page: "1", Embedding: []float32{1, 0}},
		{DocumentID: "b.pdf", Page: "2", Embedding: []float32{0, 1}},
	}
	if err := store.Upsert(ctx, chunks); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	all, err := store.All(ctx)
	if err != nil {
		t.Fatalf("All() error = %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("All() returned %d chunks, want 2", len(all))
	}
	if all[0].DocumentID != "a.pdf" || all[1].DocumentID != "b.pdf" {
		t.Errorf("All() = %v, want insertion order preserved", all)
	}

	// Mutating the returned slice must not affect the store.
	all[0].DocumentID = "mutated.pdf"
	again, err := store.All(ctx)
	if err != nil {
		t.Fatalf("All() error = %v", err)
	}
	if again[0].DocumentID != "a.pdf" {
		t.Errorf("All() returned shared backing storage; got %q after mutation", again[0].DocumentID)
	}
}

func TestCosineDistance(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 0}, []float32{1, 0}, 0},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 1},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, 2},
		{"zero vector", []float32{0, 0}, []float32{1, 0}, 1},
		{"dimension mismatch", []float32{1, 0, 0}, []float32{1, 0}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := cosineDistance(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("cosineDistance(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}
