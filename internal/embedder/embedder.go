// Package embedder provides implementations for converting text into dense
// vector embeddings. Each implementation talks to a different backend
// (Gemini, OpenAI, Ollama); the Gemini backend uses the official SDK, the
// others plain HTTP.
package embedder

import "context"

// Embedder converts a batch of texts into their embedding vectors. The
// returned slice is parallel to the input slice. Implementations must be
// safe for concurrent use.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}
