package chain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/kalambet/docchat/internal/ollama"
	"github.com/kalambet/docchat/internal/retrieval"
	"github.com/kalambet/docchat/internal/storage"
)

type mockDocs struct {
	docs map[string]storage.Document
}

func (m *mockDocs) GetDocument(id string) (storage.Document, error) {
	d, ok := m.docs[id]
	if !ok {
		return storage.Document{}, storage.ErrNotFound
	}
	return d, nil
}

type mockRetriever struct {
	gotQuery string
	gotDocID string
	chunks   []retrieval.ContextChunk
	err      error
}

func (m *mockRetriever) Retrieve(_ context.Context, docID, query string, topK int) ([]retrieval.ContextChunk, error) {
	m.gotDocID = docID
	m.gotQuery = query
	return m.chunks, m.err
}

type mockChat struct {
	gotMessages []ollama.Message
	answer      string
	err         error
}

func (m *mockChat) Chat(_ context.Context, _ string, messages []ollama.Message) (string, error) {
	m.gotMessages = messages
	return m.answer, m.err
}

func testBuilder(docs *mockDocs, r *mockRetriever, chat *mockChat) *Builder {
	return NewBuilder(docs, r, chat, "phi3.5", 4, 0)
}

func TestBuild_UnknownDocument(t *testing.T) {
	b := testBuilder(&mockDocs{docs: map[string]storage.Document{}}, &mockRetriever{}, &mockChat{})

	_, err := b.Build(context.Background(), "missing")
	if err == nil {
		t.Fatal("expected error for unknown document")
	}
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("err = %v, want to wrap ErrNotFound", err)
	}
}

func TestInvoke(t *testing.T) {
	docs := &mockDocs{docs: map[string]storage.Document{
		"doc-1": {ID: "doc-1", Title: "Manual"},
	}}
	r := &mockRetriever{chunks: []retrieval.ContextChunk{
		{DocID: "doc-1", Page: 7, Text: "relevant excerpt", Score: 0.9},
	}}
	chat := &mockChat{answer: "the answer"}
	b := testBuilder(docs, r, chat)

	c, err := b.Build(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	res, err := c.Invoke(context.Background(), "User: what is this?")
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}

	if r.gotDocID != "doc-1" {
		t.Errorf("retrieved docID = %q, want doc-1", r.gotDocID)
	}
	if r.gotQuery != "User: what is this?" {
		t.Errorf("retrieval query = %q, want the prompt", r.gotQuery)
	}

	if res.Answer != "the answer" {
		t.Errorf("Answer = %q", res.Answer)
	}
	if len(res.SourceDocuments) != 1 {
		t.Fatalf("got %d source documents, want 1", len(res.SourceDocuments))
	}
	src := res.SourceDocuments[0]
	if src.PageContent != "relevant excerpt" {
		t.Errorf("PageContent = %q", src.PageContent)
	}
	if got := src.Metadata["page_number"]; got != 7 {
		t.Errorf("page_number = %v, want 7", got)
	}

	// System message carries the excerpt, user message carries the prompt.
	if len(chat.gotMessages) != 2 {
		t.Fatalf("got %d messages, want 2", len(chat.gotMessages))
	}
	if chat.gotMessages[0].Role != "system" || !strings.Contains(chat.gotMessages[0].Content, "relevant excerpt") {
		t.Errorf("system message = %+v", chat.gotMessages[0])
	}
	if chat.gotMessages[1].Role != "user" || chat.gotMessages[1].Content != "User: what is this?" {
		t.Errorf("user message = %+v", chat.gotMessages[1])
	}
}

func TestInvoke_NoPageAttribution(t *testing.T) {
	docs := &mockDocs{docs: map[string]storage.Document{"d": {ID: "d"}}}
	r := &mockRetriever{chunks: []retrieval.ContextChunk{{Text: "pageless", Score: 0.5}}}
	b := testBuilder(docs, r, &mockChat{answer: "ok"})

	c, _ := b.Build(context.Background(), "d")
	res, err := c.Invoke(context.Background(), "q")
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if _, ok := res.SourceDocuments[0].Metadata["page_number"]; ok {
		t.Error("page_number present for a pageless chunk")
	}
}

func TestInvoke_RetrievalError(t *testing.T) {
	docs := &mockDocs{docs: map[string]storage.Document{"d": {ID: "d"}}}
	r := &mockRetriever{err: fmt.Errorf("search blew up")}
	b := testBuilder(docs, r, &mockChat{})

	c, _ := b.Build(context.Background(), "d")
	if _, err := c.Invoke(context.Background(), "q"); err == nil {
		t.Fatal("expected error")
	}
}

func TestInvoke_ChatError(t *testing.T) {
	docs := &mockDocs{docs: map[string]storage.Document{"d": {ID: "d"}}}
	b := testBuilder(docs, &mockRetriever{}, &mockChat{err: fmt.Errorf("model offline")})

	c, _ := b.Build(context.Background(), "d")
	_, err := c.Invoke(context.Background(), "q")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "model offline") {
		t.Errorf("err = %v", err)
	}
}
