package catalog

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/manualiq/manualiq-go/internal/logging"
	"github.com/manualiq/manualiq-go/internal/vectorstore"
)

// DefaultBatchSize is the number of chunks per Upsert batch. Kept below
// typical vector store payload ceilings.
const DefaultBatchSize = 5000

// expected CSV header columns, in order.
var expectedHeader = []string{"pdf_filename", "subsection_pdf_page_number", "embeddings"}

// Config controls catalog loading.
type Config struct {
	// Path is the catalog CSV file path.
	Path string

	// RowLimit caps the number of data rows loaded; 0 means no cap.
	RowLimit int

	// BatchSize is the Upsert batch size; 0 means DefaultBatchSize.
	BatchSize int
}

// Loader populates a vector store from the catalog CSV exactly once per
// process. Concurrent and repeated EnsureLoaded calls are safe; only the
// first call against an empty store performs work.
type Loader struct {
	cfg   Config
	store vectorstore.Store

	mu sync.Mutex
}

// NewLoader constructs a Loader for the given store and config.
func NewLoader(store vectorstore.Store, cfg Config) *Loader {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	return &Loader{cfg: cfg, store: store}
}

// EnsureLoaded loads the catalog into the store if the store is empty.
// It returns the number of chunks now in the store.
func (l *Loader) EnsureLoaded(ctx context.Context) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	log := logging.FromContext(ctx)

	count, err := l.store.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("catalog: failed to check store population: %w", err)
	}
	if count > 0 {
		log.Debug("catalog already loaded", "chunks", count)
		return count, nil
	}

	entries, skipped, err := l.readCatalog()
	if err != nil {
		return 0, err
	}
	if skipped > 0 {
		log.Warn("skipped malformed catalog rows", "skipped", skipped, "path", l.cfg.Path)
	}

	batch := make([]vectorstore.Chunk, 0, l.cfg.BatchSize)
	loaded := 0
	for _, e := range entries {
		batch = append(batch, vectorstore.Chunk{
			DocumentID:  e.DocumentID,
			Page:        e.Page,
			DisplayText: e.DisplayText(),
			Embedding:   e.Embedding,
		})
		if len(batch) == l.cfg.BatchSize {
			if err := l.store.Upsert(ctx, batch); err != nil {
				return loaded, fmt.Errorf("catalog: batch insert failed at chunk %d: %w", loaded, err)
			}
			loaded += len(batch)
			batch = batch[:0]
		}
	}
	if len(batch) > 0 {
		if err := l.store.Upsert(ctx, batch); err != nil {
			return loaded, fmt.Errorf("catalog: batch insert failed at chunk %d: %w", loaded, err)
		}
		loaded += len(batch)
	}

	log.Info("catalog loaded", "chunks", loaded, "path", l.cfg.Path)
	return loaded, nil
}

// readCatalog parses the catalog CSV into entries, skipping malformed rows.
// It returns the entries and the number of rows skipped.
func (l *Loader) readCatalog() ([]Entry, int, error) {
	f, err := os.Open(l.cfg.Path)
	if err != nil {
		return nil, 0, fmt.Errorf("catalog: failed to open %q: %w", l.cfg.Path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, 0, fmt.Errorf("catalog: failed to read header from %q: %w", l.cfg.Path, err)
	}
	if err := validateHeader(header); err != nil {
		return nil, 0, err
	}

	var entries []Entry
	skipped := 0
	for {
		if l.cfg.RowLimit > 0 && len(entries) >= l.cfg.RowLimit {
			break
		}

		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			skipped++
			continue
		}
		if len(record) != len(expectedHeader) {
			skipped++
			continue
		}

		embedding, err := ParseEmbedding(record[2])
		if err != nil {
			skipped++
			continue
		}
		if record[0] == "" || record[1] == "" {
			skipped++
			continue
		}

		entries = append(entries, Entry{
			DocumentID: record[0],
			Page:       record[1],
			Embedding:  embedding,
		})
	}

	return entries, skipped, nil
}

func validateHeader(header []string) error {
	if len(header) != len(expectedHeader) {
		return fmt.Errorf("catalog: unexpected header with %d columns, want %d", len(header), len(expectedHeader))
	}
	for i, want := range expectedHeader {
		if header[i] != want {
			return fmt.Errorf("catalog: unexpected header column %d: got %q, want %q", i, header[i], want)
		}
	}
	return nil
}
