package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/kalambet/docchat/internal/chain"
)

const maxChatBodySize = 1 << 20 // 1MB

// snippetLen is how many characters of a source chunk the response carries.
const snippetLen = 200

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatRequest struct {
	DocID    string        `json:"doc_id"`
	Question string        `json:"question"`
	History  []ChatMessage `json:"history"`
}

// Source is one supporting excerpt for an answer. PageNumber is null when
// the excerpt has no page attribution.
type Source struct {
	PageNumber *int   `json:"page_number"`
	Snippet    string `json:"snippet"`
}

type ChatResponse struct {
	Answer  string   `json:"answer"`
	Sources []Source `json:"sources,omitempty"`
}

func handleChat(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxChatBodySize)
		defer r.Body.Close()

		var req ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid request body: %v", err)
			return
		}
		if req.DocID == "" {
			httpError(w, http.StatusBadRequest, "doc_id is required")
			return
		}
		if req.Question == "" {
			httpError(w, http.StatusBadRequest, "question is required")
			return
		}

		qa, err := deps.Builder.Build(r.Context(), req.DocID)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "Error building QA chain: %v", err)
			return
		}

		prompt := flattenConversation(req.History, req.Question)
		result, err := qa.Invoke(r.Context(), prompt)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "failed to generate answer: %v", err)
			return
		}

		if err := deps.Log.Append(req.DocID, req.Question, result.Answer); err != nil {
			slog.Error("failed to log interaction", "doc_id", req.DocID, "error", err)
		}

		writeJSON(w, ChatResponse{
			Answer:  result.Answer,
			Sources: sourcesFromResult(result.SourceDocuments),
		})
	}
}

// flattenConversation renders prior turns plus the new question as a single
// prompt, one "User:"/"Assistant:" line per turn. Any role other than "user"
// is treated as the assistant.
func flattenConversation(history []ChatMessage, question string) string {
	var b strings.Builder
	for _, m := range history {
		if m.Role == "user" {
			b.WriteString("User: ")
		} else {
			b.WriteString("Assistant: ")
		}
		b.WriteString(m.Content)
		b.WriteByte('\n')
	}
	b.WriteString("User: ")
	b.WriteString(question)
	return b.String()
}

func sourcesFromResult(docs []chain.SourceDocument) []Source {
	if len(docs) == 0 {
		return nil
	}
	sources := make([]Source, len(docs))
	for i, d := range docs {
		var page *int
		if v, ok := d.Metadata["page_number"]; ok {
			if p, ok := v.(int); ok {
				page = &p
			}
		}
		sources[i] = Source{
			PageNumber: page,
			Snippet:    makeSnippet(d.PageContent),
		}
	}
	return sources
}

// makeSnippet truncates content to snippetLen characters. The ellipsis is
// appended unconditionally so clients render every snippet the same way.
func makeSnippet(content string) string {
	if utf8.RuneCountInString(content) > snippetLen {
		runes := []rune(content)
		content = string(runes[:snippetLen])
	}
	return content + "..."
}
