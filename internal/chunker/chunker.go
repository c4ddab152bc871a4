// Package chunker splits source text into overlapping fixed-size chunks for
// embedding and indexing. Splitting is windowed by character (rune) count:
// each chunk starts size-overlap characters after the previous one, so
// consecutive chunks share an overlap region that preserves context across
// chunk boundaries. Windowing over runes rather than bytes keeps every chunk
// valid UTF-8 for non-ASCII sources.
package chunker

import (
	"iter"
	"strings"
	"time"

	"github.com/askdoc/askdoc-go/internal/rag"
)

const (
	// DefaultSize is the target chunk length in characters.
	DefaultSize = 1000

	// DefaultOverlap is the number of characters shared between consecutive
	// chunks.
	DefaultOverlap = 200
)

// Chunker produces overlapping chunks from source text. The zero value is
// not usable; construct with New.
type Chunker struct {
	size    int
	overlap int
}

// New constructs a Chunker. Non-positive size or overlap fall back to the
// defaults; an overlap that meets or exceeds the size is clamped to a tenth
// of the size so the window always advances.
func New(size, overlap int) *Chunker {
	if size <= 0 {
		size = DefaultSize
	}
	if overlap <= 0 {
		overlap = DefaultOverlap
	}
	if overlap >= size {
		overlap = size / 10
	}
	return &Chunker{size: size, overlap: overlap}
}

// Split validates and splits text into ordered chunks. Empty or
// whitespace-only input fails with [rag.ErrEmptyInput] before any chunk is
// produced, so callers never spend embedding calls on blank sources.
//
// Invariant: concatenating the chunk texts in order, dropping the first
// overlap characters of every chunk after the first, reproduces the trimmed
// source exactly. Every chunk is at most size characters long and never
// splits a multi-byte character.
func (c *Chunker) Split(text string) ([]rag.Chunk, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, rag.ErrEmptyInput
	}

	var chunks []rag.Chunk
	for ch := range c.windows(text) {
		chunks = append(chunks, ch)
	}
	return chunks, nil
}

// windows yields the chunk sequence lazily. The sequence is finite and
// single-use; text must already be trimmed and non-empty. The window
// advances over rune indices, not byte offsets, so a chunk boundary can
// never land inside a multi-byte encoding.
func (c *Chunker) windows(text string) iter.Seq[rag.Chunk] {
	return func(yield func(rag.Chunk) bool) {
		runes := []rune(text)
		now := time.Now().UTC()
		index := 0
		for start := 0; start < len(runes); start += c.size - c.overlap {
			end := min(start+c.size, len(runes))
			ch := rag.Chunk{
				Text:      string(runes[start:end]),
				Index:     index,
				CreatedAt: now,
			}
			if !yield(ch) {
				return
			}
			if end == len(runes) {
				return
			}
			index++
		}
	}
}
