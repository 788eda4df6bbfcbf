package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kalambet/docchat/internal/retrieval"
	"github.com/kalambet/docchat/internal/storage"
)

const (
	defaultChunkSize    = 1000
	defaultChunkOverlap = 150
)

// DocumentStore persists document metadata.
type DocumentStore interface {
	SaveDocument(d storage.Document) error
}

// ContentEmbedder generates embeddings for a batch of texts.
type ContentEmbedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// VectorInserter inserts chunk records into the vector store.
type VectorInserter interface {
	Insert(records []retrieval.Record) error
}

// Ingestor turns a PDF file into an ingested document: extracted per-page
// text, split into overlapping chunks, embedded, and stored under a freshly
// minted document ID.
type Ingestor struct {
	store        DocumentStore
	embedder     ContentEmbedder
	vectors      VectorInserter
	chunkSize    int
	chunkOverlap int
	logger       *slog.Logger
}

// NewIngestor creates an Ingestor with the given dependencies.
// Non-positive chunkSize/chunkOverlap fall back to the defaults (1000/150 runes).
func NewIngestor(store DocumentStore, embedder ContentEmbedder, vectors VectorInserter, chunkSize, chunkOverlap int) *Ingestor {
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}
	if chunkOverlap <= 0 || chunkOverlap >= chunkSize {
		chunkOverlap = defaultChunkOverlap
	}
	return &Ingestor{
		store:        store,
		embedder:     embedder,
		vectors:      vectors,
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		logger:       slog.Default(),
	}
}

// IngestPDF ingests the PDF at path and returns the new document ID.
// filename is the client-supplied name, kept as metadata only; path is the
// server-side temp location of the uploaded bytes.
func (ing *Ingestor) IngestPDF(ctx context.Context, path, filename string) (string, error) {
	pages, totalPages, err := extractPDF(path)
	if err != nil {
		return "", fmt.Errorf("extracting %s: %w", filename, err)
	}
	return ing.ingestPages(ctx, filename, pages, totalPages)
}

// pageChunk is one chunk of one page, ordered by (Page, Seq).
type pageChunk struct {
	Page int
	Seq  int
	Text string
}

func (ing *Ingestor) ingestPages(ctx context.Context, filename string, pages []Page, totalPages int) (string, error) {
	var chunks []pageChunk
	for _, p := range pages {
		for seq, text := range splitText(p.Text, ing.chunkSize, ing.chunkOverlap) {
			chunks = append(chunks, pageChunk{Page: p.Number, Seq: seq, Text: text})
		}
	}
	if len(chunks) == 0 {
		return "", fmt.Errorf("document %s produced no chunks", filename)
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	vecs, err := ing.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return "", fmt.Errorf("embedding chunks: %w", err)
	}

	docID := uuid.New().String()
	now := time.Now().UTC()

	records := make([]retrieval.Record, len(chunks))
	for i, c := range chunks {
		records[i] = retrieval.Record{
			ID:        uuid.New().String(),
			DocID:     docID,
			Page:      c.Page,
			Seq:       c.Seq,
			TextChunk: c.Text,
			Embedding: vecs[i],
			CreatedAt: now,
		}
	}
	if err := ing.vectors.Insert(records); err != nil {
		return "", fmt.Errorf("inserting vectors: %w", err)
	}

	doc := storage.Document{
		ID:         docID,
		Filename:   filename,
		Title:      strings.TrimSuffix(filename, filepath.Ext(filename)),
		Pages:      totalPages,
		ChunkCount: len(chunks),
		CreatedAt:  now,
	}
	if err := ing.store.SaveDocument(doc); err != nil {
		return "", fmt.Errorf("saving document: %w", err)
	}

	ing.logger.Info("document ingested",
		"doc_id", docID,
		"filename", filename,
		"pages", totalPages,
		"chunks", len(chunks),
	)
	return docID, nil
}
