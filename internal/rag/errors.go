package rag

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyInput is returned when an empty or whitespace-only source text is
// submitted for indexing. It is detected before any embedding or vector
// store call is made.
var ErrEmptyInput = errors.New("rag: source text is empty")

// ConfigurationError reports required configuration fields that were missing
// at construction time. Construction fails immediately — no collaborator is
// contacted with a partially initialised configuration.
type ConfigurationError struct {
	// Missing lists the names of the absent required fields.
	Missing []string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("rag: missing required configuration: %s", strings.Join(e.Missing, ", "))
}

// DimensionMismatchError reports that the embedding dimensionality of newly
// indexed text disagrees with an existing collection's declared size. This
// is unrecoverable: the collection is never silently migrated or recreated.
type DimensionMismatchError struct {
	// Collection is the name of the conflicting collection.
	Collection string
	// Want is the dimensionality requested by the caller.
	Want uint64
	// Got is the dimensionality the collection was created with.
	Got uint64
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("rag: collection %q has vector size %d, want %d", e.Collection, e.Got, e.Want)
}

// EmbeddingError wraps a failure from the embedding provider. The provider
// error is propagated unchanged to the caller — no retry is attempted.
type EmbeddingError struct {
	Err error
}

func (e *EmbeddingError) Error() string { return fmt.Sprintf("rag: embedding provider: %v", e.Err) }
func (e *EmbeddingError) Unwrap() error { return e.Err }

// VectorStoreError wraps a transport or provider failure from the vector
// store. Op identifies the failing operation ("ensure", "upsert", "search").
type VectorStoreError struct {
	Op  string
	Err error
}

func (e *VectorStoreError) Error() string { return fmt.Sprintf("rag: vector store %s: %v", e.Op, e.Err) }
func (e *VectorStoreError) Unwrap() error { return e.Err }

// ChatProviderError wraps a failure from the chat completion provider.
type ChatProviderError struct {
	Err error
}

func (e *ChatProviderError) Error() string { return fmt.Sprintf("rag: chat provider: %v", e.Err) }
func (e *ChatProviderError) Unwrap() error { return e.Err }
