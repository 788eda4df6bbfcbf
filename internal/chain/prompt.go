package chain

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kalambet/docchat/internal/retrieval"
	"github.com/kalambet/docchat/internal/storage"
)

const defaultMaxContextTokens = 4000

// composer assembles the system prompt from document metadata and retrieved
// chunks, keeping the injected context under a token budget.
type composer struct {
	maxContextTokens int
}

func newComposer(maxContextTokens int) *composer {
	if maxContextTokens <= 0 {
		maxContextTokens = defaultMaxContextTokens
	}
	return &composer{maxContextTokens: maxContextTokens}
}

// systemPrompt builds the grounding instructions plus the selected context
// chunks. Chunks are taken in score order; any chunk that would blow the
// budget is skipped, not truncated.
func (c *composer) systemPrompt(doc storage.Document, chunks []retrieval.ContextChunk) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "You are answering questions about the document %q.\n", doc.Title)
	sb.WriteString("Answer using only the excerpts below. If the excerpts do not contain the answer, say so instead of guessing.")

	if len(chunks) == 0 {
		return sb.String()
	}

	// Sort chunks by score descending.
	sorted := make([]retrieval.ContextChunk, len(chunks))
	copy(sorted, chunks)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Score > sorted[j].Score
	})

	header := "\n\n[Document Excerpts]\n"
	remaining := c.maxContextTokens - estimateTokens(sb.String()) - estimateTokens(header)

	var selected []string
	for _, ch := range sorted {
		entry := formatChunk(ch)
		tokens := estimateTokens(entry)
		if tokens > remaining {
			continue
		}
		selected = append(selected, entry)
		remaining -= tokens
	}

	if len(selected) > 0 {
		sb.WriteString(header)
		for _, entry := range selected {
			sb.WriteString(entry)
		}
	}

	return sb.String()
}

func formatChunk(ch retrieval.ContextChunk) string {
	if ch.Page > 0 {
		return fmt.Sprintf("(Page %d, Score %.2f)\n%s\n\n", ch.Page, ch.Score, ch.Text)
	}
	return fmt.Sprintf("(Score %.2f)\n%s\n\n", ch.Score, ch.Text)
}

// estimateTokens provides a rough token count using 4 chars per token heuristic.
func estimateTokens(text string) int {
	return (len(text) + 3) / 4
}
