package budget

import (
	"strings"
	"testing"

	"github.com/askdoc/askdoc-go/internal/rag"
)

func TestEstimate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"abc", 1},
		{"abcd", 1},
		{strings.Repeat("x", 400), 100},
	}
	for _, tt := range tests {
		if got := Estimate(tt.in); got != tt.want {
			t.Errorf("Estimate(%d chars): want %d, got %d", len(tt.in), tt.want, got)
		}
	}
}

func TestTrimChunks_FitsUntouched(t *testing.T) {
	t.Parallel()

	chunks := []rag.ScoredChunk{
		{Chunk: rag.Chunk{Text: strings.Repeat("a", 40)}},
		{Chunk: rag.Chunk{Text: strings.Repeat("b", 40)}},
	}
	got := TrimChunks(chunks, 0, 100)
	if len(got) != 2 {
		t.Errorf("want 2 chunks kept, got %d", len(got))
	}
}

func TestTrimChunks_DropsLowestRankFirst(t *testing.T) {
	t.Parallel()

	chunks := []rag.ScoredChunk{
		{Chunk: rag.Chunk{Text: strings.Repeat("a", 400)}, Score: 0.9},
		{Chunk: rag.Chunk{Text: strings.Repeat("b", 400)}, Score: 0.5},
		{Chunk: rag.Chunk{Text: strings.Repeat("c", 400)}, Score: 0.1},
	}
	got := TrimChunks(chunks, 0, 210)
	if len(got) != 2 {
		t.Fatalf("want 2 chunks kept, got %d", len(got))
	}
	if got[0].Score != 0.9 || got[1].Score != 0.5 {
		t.Errorf("wrong chunks kept: scores %v, %v", got[0].Score, got[1].Score)
	}
}

func TestTrimChunks_BestChunkNeverDropped(t *testing.T) {
	t.Parallel()

	chunks := []rag.ScoredChunk{
		{Chunk: rag.Chunk{Text: strings.Repeat("a", 4000)}, Score: 0.9},
	}
	got := TrimChunks(chunks, 0, 10)
	if len(got) != 1 {
		t.Errorf("best chunk must survive, got %d chunks", len(got))
	}
}
