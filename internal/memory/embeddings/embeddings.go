// Package embeddings provides the embedding-provider contract used to turn
// a retrieval-tool query into a vector for the nearest-neighbour search
// against the vector store (C1).
package embeddings

import (
	"context"
)

// Provider embeds text into the fixed-dimension vector space the vector
// store was populated with. Every implementation must agree with the
// corpus's ingestion-time embedding model, or similarity scores are
// meaningless.
type Provider interface {
	// Embed generates an embedding for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts in one call, which
	// every implementation here supports more cheaply than N single calls.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Name returns the provider name, surfaced in logs and metrics.
	Name() string

	// Dimension returns the embedding vector length.
	Dimension() int

	// MaxBatchSize returns the maximum number of texts EmbedBatch accepts
	// per call; callers must chunk larger inputs themselves.
	MaxBatchSize() int
}

// Config holds the fields shared by the openai and ollama embedding
// providers; each provider ignores whatever fields it doesn't need.
type Config struct {
	Provider string `yaml:"provider"` // openai, ollama
	APIKey   string `yaml:"api_key"`
	BaseURL  string `yaml:"base_url"`
	Model    string `yaml:"model"`

	// OllamaURL overrides BaseURL for the ollama provider when set.
	OllamaURL string `yaml:"ollama_url"`
}
