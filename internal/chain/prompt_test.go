package chain

import (
	"strings"
	"testing"

	"github.com/kalambet/docchat/internal/retrieval"
	"github.com/kalambet/docchat/internal/storage"
)

func TestSystemPrompt_NoChunks(t *testing.T) {
	c := newComposer(4000)
	got := c.systemPrompt(storage.Document{Title: "Handbook"}, nil)

	if !strings.Contains(got, `"Handbook"`) {
		t.Errorf("prompt missing document title: %q", got)
	}
	if strings.Contains(got, "[Document Excerpts]") {
		t.Errorf("excerpt header present with no chunks: %q", got)
	}
}

func TestSystemPrompt_ChunksSortedByScore(t *testing.T) {
	c := newComposer(4000)
	chunks := []retrieval.ContextChunk{
		{Text: "low scorer", Score: 0.1},
		{Text: "high scorer", Score: 0.9},
	}
	got := c.systemPrompt(storage.Document{Title: "Doc"}, chunks)

	hi := strings.Index(got, "high scorer")
	lo := strings.Index(got, "low scorer")
	if hi < 0 || lo < 0 {
		t.Fatalf("prompt missing chunks: %q", got)
	}
	if hi > lo {
		t.Error("high-scoring chunk appears after low-scoring chunk")
	}
}

func TestSystemPrompt_BudgetDropsOversizedChunks(t *testing.T) {
	// Budget fits the small chunk but not the big one.
	c := newComposer(100)
	chunks := []retrieval.ContextChunk{
		{Text: strings.Repeat("big ", 500), Score: 0.9},
		{Text: "small", Score: 0.5},
	}
	got := c.systemPrompt(storage.Document{Title: "Doc"}, chunks)

	if strings.Contains(got, "big big") {
		t.Error("oversized chunk was not dropped")
	}
	if !strings.Contains(got, "small") {
		t.Error("small chunk missing despite fitting the budget")
	}
}

func TestFormatChunk_PageAttribution(t *testing.T) {
	with := formatChunk(retrieval.ContextChunk{Page: 3, Text: "t", Score: 0.5})
	if !strings.Contains(with, "Page 3") {
		t.Errorf("formatted chunk missing page: %q", with)
	}
	without := formatChunk(retrieval.ContextChunk{Text: "t", Score: 0.5})
	if strings.Contains(without, "Page") {
		t.Errorf("formatted chunk has page without attribution: %q", without)
	}
}

func TestEstimateTokens(t *testing.T) {
	if got := estimateTokens(""); got != 0 {
		t.Errorf("estimateTokens(\"\") = %d, want 0", got)
	}
	if got := estimateTokens("abcd"); got != 1 {
		t.Errorf("estimateTokens(4 chars) = %d, want 1", got)
	}
	if got := estimateTokens("abcde"); got != 2 {
		t.Errorf("estimateTokens(5 chars) = %d, want 2", got)
	}
}
