// Package chain builds question-answering chains over ingested documents.
// A Chain is bound to one document: invoking it retrieves the most relevant
// chunks, composes a grounded prompt, and asks the chat model.
package chain

import (
	"context"
	"fmt"

	"github.com/kalambet/docchat/internal/ollama"
	"github.com/kalambet/docchat/internal/retrieval"
	"github.com/kalambet/docchat/internal/storage"
)

// ChatClient sends chat messages to a model. Satisfied by *ollama.Client.
type ChatClient interface {
	Chat(ctx context.Context, model string, messages []ollama.Message) (string, error)
}

// DocumentGetter looks up document metadata. Satisfied by *storage.Store.
type DocumentGetter interface {
	GetDocument(id string) (storage.Document, error)
}

// ChunkRetriever finds the chunks of a document most relevant to a query.
// Satisfied by *retrieval.Retriever.
type ChunkRetriever interface {
	Retrieve(ctx context.Context, docID, query string, topK int) ([]retrieval.ContextChunk, error)
}

// Builder constructs chains for documents.
type Builder struct {
	docs      DocumentGetter
	retriever ChunkRetriever
	chat      ChatClient
	model     string
	topK      int
	composer  *composer
}

// NewBuilder creates a Builder. topK <= 0 defaults to 4;
// maxContextTokens <= 0 defaults to the composer's budget.
func NewBuilder(docs DocumentGetter, retriever ChunkRetriever, chat ChatClient, model string, topK, maxContextTokens int) *Builder {
	if topK <= 0 {
		topK = 4
	}
	return &Builder{
		docs:      docs,
		retriever: retriever,
		chat:      chat,
		model:     model,
		topK:      topK,
		composer:  newComposer(maxContextTokens),
	}
}

// Build returns a Chain for the given document ID. It fails when the
// document is unknown, so callers learn about bad IDs before invoking.
func (b *Builder) Build(ctx context.Context, docID string) (*Chain, error) {
	doc, err := b.docs.GetDocument(docID)
	if err != nil {
		return nil, fmt.Errorf("looking up document %s: %w", docID, err)
	}
	return &Chain{builder: b, doc: doc}, nil
}

// SourceDocument is one retrieved fragment supporting an answer.
// Metadata carries a "page_number" key when the fragment has page attribution.
type SourceDocument struct {
	PageContent string
	Metadata    map[string]any
}

// Result is the outcome of one chain invocation.
type Result struct {
	Answer          string
	SourceDocuments []SourceDocument
}

// Chain answers questions about a single document.
type Chain struct {
	builder *Builder
	doc     storage.Document
}

// Invoke retrieves context for the prompt, asks the chat model, and returns
// the answer together with the supporting chunks.
func (c *Chain) Invoke(ctx context.Context, prompt string) (Result, error) {
	b := c.builder

	chunks, err := b.retriever.Retrieve(ctx, c.doc.ID, prompt, b.topK)
	if err != nil {
		return Result{}, fmt.Errorf("retrieving context: %w", err)
	}

	system := b.composer.systemPrompt(c.doc, chunks)
	answer, err := b.chat.Chat(ctx, b.model, []ollama.Message{
		{Role: "system", Content: system},
		{Role: "user", Content: prompt},
	})
	if err != nil {
		return Result{}, fmt.Errorf("chat model: %w", err)
	}

	sources := make([]SourceDocument, len(chunks))
	for i, ch := range chunks {
		meta := map[string]any{}
		if ch.Page > 0 {
			meta["page_number"] = ch.Page
		}
		sources[i] = SourceDocument{PageContent: ch.Text, Metadata: meta}
	}

	return Result{Answer: answer, SourceDocuments: sources}, nil
}
