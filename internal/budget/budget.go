// Package budget provides token budget estimation and retrieved-context
// trimming for the askdoc pipeline. Because the pipeline supports multiple
// LLM backends with different tokenizers, this package uses a conservative
// character-based heuristic: 1 token ≈ 4 characters (English prose). This
// deliberately under-estimates token counts to leave headroom for
// model-specific overhead.
package budget

import (
	"github.com/askdoc/askdoc-go/internal/rag"
)

const (
	// charsPerToken is the conservative character-to-token ratio used for
	// estimation. 4 chars/token is standard for English text; using 3 would
	// be more aggressive but risks overflowing context windows.
	charsPerToken = 4

	// DefaultMaxContextTokens is the default budget for retrieved context
	// injected into the response prompt. Conservative enough to fit within
	// 8k-context models together with the template and query.
	DefaultMaxContextTokens = 4000
)

// Estimate returns a rough token count for s using the character heuristic.
func Estimate(s string) int {
	n := len(s) / charsPerToken
	if n == 0 && len(s) > 0 {
		return 1
	}
	return n
}

// TrimChunks drops retrieved chunks lowest-rank-first (from the tail of the
// slice, which is ordered best match first) until the combined estimated
// token count of their texts plus reservedTokens fits within maxTokens.
//
// The best-ranked chunk is never dropped: if even a single chunk exceeds
// the budget it is kept, since answering from truncated grounding beats
// answering from none.
func TrimChunks(chunks []rag.ScoredChunk, reservedTokens, maxTokens int) []rag.ScoredChunk {
	if len(chunks) == 0 {
		return chunks
	}

	total := func(cs []rag.ScoredChunk) int {
		n := reservedTokens
		for _, c := range cs {
			// One joining space per chunk boundary.
			n += Estimate(c.Text) + 1
		}
		return n
	}

	for len(chunks) > 1 && total(chunks) > maxTokens {
		chunks = chunks[:len(chunks)-1]
	}
	return chunks
}
