// Package api exposes the document chat service over HTTP and MCP.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/kalambet/docchat/internal/chain"
	"github.com/kalambet/docchat/internal/chatlog"
	"github.com/kalambet/docchat/internal/storage"
)

// PDFIngestor turns an uploaded PDF into a stored, searchable document.
type PDFIngestor interface {
	IngestPDF(ctx context.Context, path, filename string) (string, error)
}

// QAChain answers prompts about one document.
type QAChain interface {
	Invoke(ctx context.Context, prompt string) (chain.Result, error)
}

// ChainBuilder constructs a QAChain for a document ID.
type ChainBuilder interface {
	Build(ctx context.Context, docID string) (QAChain, error)
}

// BuilderAdapter wraps a *chain.Builder to satisfy ChainBuilder.
type BuilderAdapter struct {
	Builder *chain.Builder
}

func (a BuilderAdapter) Build(ctx context.Context, docID string) (QAChain, error) {
	c, err := a.Builder.Build(ctx, docID)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// VectorDeleter abstracts vector store cleanup for the API layer.
type VectorDeleter interface {
	DeleteByDoc(docID string) (int, error)
}

// InteractionLog records question/answer exchanges. Satisfied by *chatlog.Log.
type InteractionLog interface {
	Append(docID, question, answer string) error
	Read() []chatlog.Record
}

type Deps struct {
	Store     *storage.Store
	Vectors   VectorDeleter // optional; if nil, vector cleanup is skipped on delete
	Ingestor  PDFIngestor
	Builder   ChainBuilder
	Log       InteractionLog
	UploadDir string
}

// NewHandler builds the HTTP API. CORS is wide open so browser frontends on
// any origin can talk to the service directly.
func NewHandler(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))

	r.Get("/health", handleHealth())
	r.Post("/upload-pdf", handleUploadPDF(deps))
	r.Post("/chat", handleChat(deps))
	r.Get("/documents", handleListDocuments(deps))
	r.Delete("/documents/{id}", handleDeleteDocument(deps))
	r.Get("/conversations", handleListConversations(deps))

	return r
}

func handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]string{"status": "ok"})
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// httpError writes an error response in the {"detail": ...} shape the
// frontend expects for every non-2xx status.
func httpError(w http.ResponseWriter, code int, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"detail": fmt.Sprintf(format, args...)})
}
