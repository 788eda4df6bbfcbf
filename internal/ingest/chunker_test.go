package ingest

import (
	"strings"
	"testing"
)

func TestSplitText_ShortTextSingleChunk(t *testing.T) {
	chunks := splitText("short text", 100, 20)
	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1", len(chunks))
	}
	if chunks[0] != "short text" {
		t.Errorf("chunks[0] = %q", chunks[0])
	}
}

func TestSplitText_Empty(t *testing.T) {
	if chunks := splitText("", 100, 20); chunks != nil {
		t.Errorf("got %v, want nil", chunks)
	}
}

func TestSplitText_RespectsSize(t *testing.T) {
	text := strings.Repeat("word ", 500)
	chunks := splitText(text, 100, 20)
	if len(chunks) < 2 {
		t.Fatalf("got %d chunks, want several", len(chunks))
	}
	for i, c := range chunks {
		if n := len([]rune(c)); n > 100 {
			t.Errorf("chunk %d has %d runes, want <= 100", i, n)
		}
	}
}

func TestSplitText_BreaksOnWhitespace(t *testing.T) {
	text := strings.Repeat("alpha beta gamma ", 50)
	chunks := splitText(text, 64, 10)
	for i, c := range chunks[:len(chunks)-1] {
		if strings.HasSuffix(c, "alph") || strings.HasSuffix(c, "bet") || strings.HasSuffix(c, "gamm") {
			t.Errorf("chunk %d cut a word: %q", i, c)
		}
	}
}

func TestSplitText_OverlapCarriesContext(t *testing.T) {
	text := strings.Repeat("0123456789 ", 30)
	chunks := splitText(text, 50, 15)
	if len(chunks) < 2 {
		t.Fatalf("got %d chunks, want several", len(chunks))
	}
	// The tail of one chunk must reappear at the head of the next.
	tail := chunks[0][len(chunks[0])-5:]
	if !strings.Contains(chunks[1], tail) {
		t.Errorf("chunk 1 %q does not overlap tail %q of chunk 0", chunks[1], tail)
	}
}

func TestSplitText_NoWhitespaceStillProgresses(t *testing.T) {
	text := strings.Repeat("x", 1000)
	chunks := splitText(text, 100, 99)
	if len(chunks) == 0 {
		t.Fatal("no chunks produced")
	}
	var total int
	for _, c := range chunks {
		total += len(c)
	}
	if total < 1000 {
		t.Errorf("chunks cover %d runes, want >= 1000", total)
	}
}

func TestNormalizeExtractedText(t *testing.T) {
	in := "  line one  \r\n\r\n\r\n\nline two\t\n"
	got := normalizeExtractedText(in)
	want := "line one\n\nline two"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
