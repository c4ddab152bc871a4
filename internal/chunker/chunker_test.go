package chunker

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/askdoc/askdoc-go/internal/rag"
)

func Test_Split_EmptyInput(t *testing.T) {
	t.Parallel()
	c := New(0, -1)

	for _, input := range []string{"", "   ", "\n\t  \n"} {
		if _, err := c.Split(input); !errors.Is(err, rag.ErrEmptyInput) {
			t.Errorf("Split(%q): want ErrEmptyInput, got %v", input, err)
		}
	}
}

func Test_Split_ShortInputSingleChunk(t *testing.T) {
	t.Parallel()
	c := New(1000, 200)

	chunks, err := c.Split("  Midterm exams are in October.  ")
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("want 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Text != "Midterm exams are in October." {
		t.Errorf("chunk text not trimmed: %q", chunks[0].Text)
	}
	if chunks[0].Index != 0 {
		t.Errorf("want index 0, got %d", chunks[0].Index)
	}
	if chunks[0].CreatedAt.IsZero() {
		t.Error("CreatedAt not set")
	}
}

func Test_Split_ChunkSizeBounded(t *testing.T) {
	t.Parallel()
	const size, overlap = 100, 20
	c := New(size, overlap)

	text := strings.Repeat("abcdefghij", 50) // 500 chars
	chunks, err := c.Split(text)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, ch := range chunks {
		if len(ch.Text) > size {
			t.Errorf("chunk %d: length %d exceeds size %d", i, len(ch.Text), size)
		}
		if ch.Index != i {
			t.Errorf("chunk %d: want index %d, got %d", i, i, ch.Index)
		}
	}
}

func Test_Split_OverlapReassembly(t *testing.T) {
	t.Parallel()
	const size, overlap = 64, 16

	tests := []struct {
		name string
		text string
	}{
		{"exact multiple", strings.Repeat("0123456789", 48)},
		{"ragged tail", strings.Repeat("lorem ipsum dolor sit amet ", 37)},
		{"barely over one chunk", strings.Repeat("x", size+1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := New(size, overlap)

			want := strings.TrimSpace(tt.text)
			chunks, err := c.Split(tt.text)
			if err != nil {
				t.Fatalf("Split: %v", err)
			}

			var sb strings.Builder
			for i, ch := range chunks {
				if i == 0 {
					sb.WriteString(ch.Text)
					continue
				}
				if len(ch.Text) < overlap {
					t.Fatalf("chunk %d shorter than overlap: %d", i, len(ch.Text))
				}
				sb.WriteString(ch.Text[overlap:])
			}
			if got := sb.String(); got != want {
				t.Errorf("reassembly mismatch: got %d chars, want %d", len(got), len(want))
			}
		})
	}
}

func Test_Split_ConsecutiveChunksShareOverlap(t *testing.T) {
	t.Parallel()
	const size, overlap = 50, 10
	c := New(size, overlap)

	chunks, err := c.Split(strings.Repeat("abcde", 60))
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	for i := 1; i < len(chunks); i++ {
		prevTail := chunks[i-1].Text[len(chunks[i-1].Text)-overlap:]
		curHead := chunks[i].Text[:overlap]
		if prevTail != curHead {
			t.Errorf("chunks %d/%d: overlap mismatch %q vs %q", i-1, i, prevTail, curHead)
		}
	}
}

func Test_Split_MultibyteRunesStayIntact(t *testing.T) {
	t.Parallel()
	const size, overlap = 100, 20
	c := New(size, overlap)

	source := strings.Repeat("日本語のテキスト", 40)
	chunks, err := c.Split(source)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}

	var sb strings.Builder
	for i, ch := range chunks {
		if !utf8.ValidString(ch.Text) {
			t.Errorf("chunk %d: invalid UTF-8 in %q", i, ch.Text)
		}
		runes := []rune(ch.Text)
		if len(runes) > size {
			t.Errorf("chunk %d: %d runes exceeds size %d", i, len(runes), size)
		}
		if i == 0 {
			sb.WriteString(ch.Text)
			continue
		}
		sb.WriteString(string(runes[overlap:]))
	}
	if sb.String() != source {
		t.Error("reassembled chunks do not reproduce the source")
	}
}

func Test_New_ClampsDegenerateOverlap(t *testing.T) {
	t.Parallel()
	c := New(100, 100)

	// An overlap >= size must still let the window advance to termination.
	chunks, err := c.Split(strings.Repeat("z", 350))
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if len(chunks) == 0 {
		t.Fatal("no chunks produced")
	}
	last := chunks[len(chunks)-1]
	if !strings.HasSuffix(strings.Repeat("z", 350), last.Text) {
		t.Error("last chunk does not end at source end")
	}
}
