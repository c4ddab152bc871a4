// Package rag defines the domain types and capability interfaces for the
// askdoc retrieval-augmented generation pipeline: text embedding, vector
// storage, and chat completion. Concrete implementations (Qdrant, OpenAI,
// Ollama, etc.) satisfy these interfaces so the pipeline layer never depends
// on a specific backend and tests can substitute in-memory fakes.
package rag

import (
	"context"
	"time"
)

// Chunk is a bounded fragment of a larger source text, produced for
// embedding and indexing. Chunks are never mutated after creation.
type Chunk struct {
	// Text is the trimmed text content of the fragment.
	Text string

	// Index is the ordinal position of this chunk within its source text.
	Index int

	// CreatedAt is when the chunk was produced.
	CreatedAt time.Time
}

// Point is the persisted unit in the vector store: a unique identifier,
// an embedding vector, and the chunk it was computed from.
type Point struct {
	// ID uniquely identifies the point within the collection. IDs are
	// derived from a per-call millisecond base plus the chunk ordinal so
	// that chunks produced in the same millisecond never collide.
	ID uint64

	// Vector is the embedding of the chunk text.
	Vector []float32

	// Chunk is stored as the point payload and returned on retrieval.
	Chunk Chunk
}

// ScoredChunk is a chunk returned from a similarity search together with
// its point ID and similarity score under the collection's distance metric.
type ScoredChunk struct {
	Chunk

	// ID is the point identifier the chunk was stored under.
	ID uint64

	// Score is the similarity score assigned during retrieval.
	Score float32
}

// EmbeddingProvider converts a single text unit into a fixed-length dense
// vector. Implementations must be safe to call from multiple goroutines —
// the pipeline fans chunk embedding out across a bounded worker pool.
type EmbeddingProvider interface {
	// Embed returns the embedding vector for text. The vector length is
	// fixed for a given model version.
	Embed(ctx context.Context, text string) ([]float32, error)
}

// VectorStore persists embedded chunks and answers nearest-neighbour
// queries. Implementations must be safe to call from multiple goroutines.
type VectorStore interface {
	// EnsureCollection provisions the named collection with the given
	// vector dimensionality if it does not exist. If it exists with a
	// different dimensionality, it fails with a *DimensionMismatchError
	// and must not attempt any migration.
	EnsureCollection(ctx context.Context, name string, vectorSize uint64) error

	// UpsertBatch inserts or replaces points in fixed-size batches,
	// waiting for durable acknowledgment of each batch before issuing the
	// next. A failure partway through leaves the collection holding a
	// well-defined prefix of the input.
	UpsertBatch(ctx context.Context, name string, points []Point) error

	// Search returns up to limit points nearest to vector, ranked by
	// similarity. An empty collection yields an empty slice, not an error.
	Search(ctx context.Context, name string, vector []float32, limit int) ([]ScoredChunk, error)

	// Close releases any resources held by the store.
	Close() error
}

// ChatProvider sends a single-turn prompt to a language model and returns
// the generated text. No conversation state is retained across calls.
// Implementations must be safe to call from multiple goroutines.
type ChatProvider interface {
	// Complete returns the model's response to prompt.
	Complete(ctx context.Context, prompt string) (string, error)
}
