// Package ingestion implements the offline catalog build pipeline. It reads
// page-level text chunks extracted from the manual PDFs, embeds each chunk,
// and writes the catalog CSV consumed by the catalog loader at query time.
// This pipeline is invoked by the `manualiq ingest` CLI command.
package ingestion

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/manualiq/manualiq-go/internal/embedder"
)

// chunkHeader is the expected header of the input chunk CSV.
var chunkHeader = []string{"pdf_filename", "subsection_pdf_page_number", "chunk_text"}

// catalogHeader is the header of the catalog CSV this pipeline produces.
var catalogHeader = []string{"pdf_filename", "subsection_pdf_page_number", "embeddings"}

// chunkRecord is one input row: a document page and its extracted text.
type chunkRecord struct {
	DocumentID string
	Page       string
	Text       string
}

// Config holds the configuration for the ingestion pipeline.
type Config struct {
	// BatchSize is the number of chunks embedded per API call.
	// Defaults to 32 if zero.
	BatchSize int
}

// Pipeline orchestrates the read → embed → write flow that turns extracted
// manual text into the searchable catalog.
type Pipeline struct {
	embedder embedder.Embedder
	cfg      *Config
}

// NewPipeline constructs a Pipeline from the provided embedder and config.
func NewPipeline(emb embedder.Embedder, cfg *Config) (*Pipeline, error) {
	if emb == nil {
		return nil, fmt.Errorf("ingestion: embedder must not be nil")
	}
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 32
	}
	return &Pipeline{embedder: emb, cfg: cfg}, nil
}

// Run reads the chunk CSV at inputPath, embeds every chunk, and writes the
// catalog CSV to outputPath. It processes batches sequentially and returns
// the number of catalog rows written. Progress is reported via the optional
// progress callback.
func (p *Pipeline) Run(ctx context.Context, inputPath, outputPath string, progress func(msg string)) (int, error) {
	if progress == nil {
		progress = func(string) {}
	}

	records, err := readChunks(inputPath)
	if err != nil {
		return 0, err
	}
	progress(fmt.Sprintf("read %d chunks from %s", len(records), inputPath))

	out, err := os.Create(outputPath)
	if err != nil {
		return 0, fmt.Errorf("ingestion: failed to create %q: %w", outputPath, err)
	}
	defer out.Close()

	w := csv.NewWriter(out)
	if err := w.Write(catalogHeader); err != nil {
		return 0, fmt.Errorf("ingestion: failed to write header: %w", err)
	}

	written := 0
	for start := 0; start < len(records); start += p.cfg.BatchSize {
		end := start + p.cfg.BatchSize
		if end > len(records) {
			end = len(records)
		}
		batch := records[start:end]

		texts := make([]string, len(batch))
		for i, r := range batch {
			texts[i] = r.Text
		}

		embeddings, err := p.embedder.Embed(ctx, texts)
		if err != nil {
			return written, fmt.Errorf("ingestion: embedding failed at chunk %d: %w", start, err)
		}
		if len(embeddings) != len(batch) {
			return written, fmt.Errorf("ingestion: expected %d embeddings, got %d", len(batch), len(embeddings))
		}

		for i, r := range batch {
			row := []string{r.DocumentID, r.Page, serializeEmbedding(embeddings[i])}
			if err := w.Write(row); err != nil {
				return written, fmt.Errorf("ingestion: failed to write row %d: %w", written, err)
			}
			written++
		}

		progress(fmt.Sprintf("embedded %d/%d chunks", end, len(records)))
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return written, fmt.Errorf("ingestion: flush failed: %w", err)
	}

	progress(fmt.Sprintf("wrote %d catalog rows to %s", written, outputPath))
	return written, nil
}

// readChunks parses the input chunk CSV, validating the header and skipping
// rows with missing fields.
func readChunks(path string) ([]chunkRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ingestion: failed to open %q: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("ingestion: failed to read header from %q: %w", path, err)
	}
	if len(header) != len(chunkHeader) {
		return nil, fmt.Errorf("ingestion: unexpected header with %d columns, want %d", len(header), len(chunkHeader))
	}
	for i, want := range chunkHeader {
		if header[i] != want {
			return nil, fmt.Errorf("ingestion: unexpected header column %d: got %q, want %q", i, header[i], want)
		}
	}

	var records []chunkRecord
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ingestion: failed to read %q: %w", path, err)
		}
		if rec[0] == "" || rec[1] == "" || strings.TrimSpace(rec[2]) == "" {
			continue
		}
		records = append(records, chunkRecord{
			DocumentID: rec[0],
			Page:       rec[1],
			Text:       rec[2],
		})
	}

	return records, nil
}

// serializeEmbedding renders a vector as a bracketed list, the format the
// catalog loader parses back at query time.
func serializeEmbedding(vec []float32) string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, v := range vec {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(strconv.FormatFloat(float64(v), 'g', -1, 32))
	}
	sb.WriteByte(']')
	return sb.String()
}
