package retrieval

import (
	"context"
	"time"
)

// ContextChunk is a retrieved document fragment with its similarity score.
// Page is 1-based; 0 means the chunk has no page attribution.
type ContextChunk struct {
	ID        string
	DocID     string
	Page      int
	Text      string
	Score     float32
	CreatedAt time.Time
}

// Retriever combines embedding and vector search to find the chunks of one
// document most relevant to a query.
type Retriever struct {
	embedder *Embedder
	store    VectorStore
}

// NewRetriever creates a Retriever backed by the given Embedder and VectorStore.
func NewRetriever(embedder *Embedder, store VectorStore) *Retriever {
	return &Retriever{embedder: embedder, store: store}
}

// Retrieve embeds the query and returns the top-K most similar chunks of docID.
func (r *Retriever) Retrieve(ctx context.Context, docID, query string, topK int) ([]ContextChunk, error) {
	vec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}

	scored, err := r.store.Search(docID, vec, topK)
	if err != nil {
		return nil, err
	}

	return scoredToChunks(scored), nil
}

func scoredToChunks(scored []ScoredRecord) []ContextChunk {
	chunks := make([]ContextChunk, len(scored))
	for i, s := range scored {
		chunks[i] = ContextChunk{
			ID:        s.ID,
			DocID:     s.DocID,
			Page:      s.Page,
			Text:      s.TextChunk,
			Score:     s.Score,
			CreatedAt: s.CreatedAt,
		}
	}
	return chunks
}
