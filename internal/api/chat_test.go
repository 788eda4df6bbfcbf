package api

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/kalambet/docchat/internal/chain"
)

func postChat(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestChat_Success(t *testing.T) {
	deps, _ := newTestDeps(t)
	qa := &mockChain{result: chain.Result{
		Answer: "The answer is 42.",
		SourceDocuments: []chain.SourceDocument{
			{PageContent: strings.Repeat("a", 250), Metadata: map[string]any{"page_number": 3}},
			{PageContent: "short excerpt", Metadata: map[string]any{}},
		},
	}}
	builder := &mockBuilder{chain: qa}
	log := &memLog{}
	deps.Builder = builder
	deps.Log = log
	h := NewHandler(deps)

	rr := postChat(t, h, `{
		"doc_id": "doc-1",
		"question": "What is X?",
		"history": [
			{"role": "user", "content": "Hi"},
			{"role": "assistant", "content": "Hello!"}
		]
	}`)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body = %s", rr.Code, rr.Body.String())
	}

	if len(builder.docIDs) != 1 || builder.docIDs[0] != "doc-1" {
		t.Errorf("builder docIDs = %v, want [doc-1]", builder.docIDs)
	}
	wantPrompt := "User: Hi\nAssistant: Hello!\nUser: What is X?"
	if len(qa.prompts) != 1 || qa.prompts[0] != wantPrompt {
		t.Errorf("prompt = %q, want %q", qa.prompts, wantPrompt)
	}

	var resp ChatResponse
	decodeBody(t, rr, &resp)
	if resp.Answer != "The answer is 42." {
		t.Errorf("answer = %q", resp.Answer)
	}
	if len(resp.Sources) != 2 {
		t.Fatalf("got %d sources, want 2", len(resp.Sources))
	}

	first := resp.Sources[0]
	if first.PageNumber == nil || *first.PageNumber != 3 {
		t.Errorf("sources[0].page_number = %v, want 3", first.PageNumber)
	}
	if got := utf8.RuneCountInString(first.Snippet); got != snippetLen+3 {
		t.Errorf("long snippet length = %d runes, want %d", got, snippetLen+3)
	}
	if !strings.HasSuffix(first.Snippet, "...") {
		t.Errorf("snippet missing ellipsis: %q", first.Snippet)
	}

	second := resp.Sources[1]
	if second.PageNumber != nil {
		t.Errorf("sources[1].page_number = %v, want null", *second.PageNumber)
	}
	if second.Snippet != "short excerpt..." {
		t.Errorf("sources[1].snippet = %q", second.Snippet)
	}

	if len(log.records) != 1 {
		t.Fatalf("got %d log records, want 1", len(log.records))
	}
	if log.records[0].Question != "What is X?" || log.records[0].Answer != "The answer is 42." {
		t.Errorf("logged record = %+v", log.records[0])
	}
}

func TestChat_PageNumberIsNullInJSON(t *testing.T) {
	deps, _ := newTestDeps(t)
	deps.Builder = &mockBuilder{chain: &mockChain{result: chain.Result{
		Answer:          "ok",
		SourceDocuments: []chain.SourceDocument{{PageContent: "x", Metadata: map[string]any{}}},
	}}}
	h := NewHandler(deps)

	rr := postChat(t, h, `{"doc_id": "d", "question": "q"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	// page_number must be present and null, not omitted.
	if !strings.Contains(rr.Body.String(), `"page_number":null`) {
		t.Errorf("body missing explicit null page_number: %s", rr.Body.String())
	}
}

func TestChat_BuildFailure(t *testing.T) {
	deps, _ := newTestDeps(t)
	deps.Builder = &mockBuilder{err: errors.New("document unknown-id not found")}
	h := NewHandler(deps)

	rr := postChat(t, h, `{"doc_id": "unknown-id", "question": "q"}`)

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rr.Code)
	}
	got := errorDetail(t, rr)
	if !strings.HasPrefix(got, "Error building QA chain: ") {
		t.Errorf("detail = %q, want %q prefix", got, "Error building QA chain: ")
	}
	if !strings.Contains(got, "unknown-id") {
		t.Errorf("detail = %q, want underlying error preserved", got)
	}
}

func TestChat_InvokeFailure(t *testing.T) {
	deps, _ := newTestDeps(t)
	deps.Builder = &mockBuilder{chain: &mockChain{err: errors.New("model unavailable")}}
	h := NewHandler(deps)

	rr := postChat(t, h, `{"doc_id": "d", "question": "q"}`)

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rr.Code)
	}
	if got := errorDetail(t, rr); !strings.Contains(got, "model unavailable") {
		t.Errorf("detail = %q", got)
	}
}

func TestChat_MissingFields(t *testing.T) {
	deps, _ := newTestDeps(t)
	h := NewHandler(deps)

	for name, body := range map[string]string{
		"no doc_id":   `{"question": "q"}`,
		"no question": `{"doc_id": "d"}`,
		"bad json":    `{`,
	} {
		rr := postChat(t, h, body)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", name, rr.Code)
		}
	}
}

func TestChat_LogFailureDoesNotFailRequest(t *testing.T) {
	deps, _ := newTestDeps(t)
	deps.Builder = &mockBuilder{chain: &mockChain{result: chain.Result{Answer: "ok"}}}
	deps.Log = &memLog{appendErr: errors.New("disk full")}
	h := NewHandler(deps)

	rr := postChat(t, h, `{"doc_id": "d", "question": "q"}`)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 despite log failure", rr.Code)
	}
	var resp ChatResponse
	decodeBody(t, rr, &resp)
	if resp.Answer != "ok" {
		t.Errorf("answer = %q", resp.Answer)
	}
}

func TestFlattenConversation_SingleUserTurn(t *testing.T) {
	got := flattenConversation([]ChatMessage{{Role: "user", Content: "Hi"}}, "What is X?")
	if got != "User: Hi\nUser: What is X?" {
		t.Errorf("flattenConversation = %q", got)
	}
}

func TestFlattenConversation_EmptyHistory(t *testing.T) {
	if got := flattenConversation(nil, "only question"); got != "User: only question" {
		t.Errorf("flattenConversation = %q", got)
	}
}

func TestFlattenConversation_UnknownRoleIsAssistant(t *testing.T) {
	got := flattenConversation([]ChatMessage{{Role: "system", Content: "be nice"}}, "q")
	want := "Assistant: be nice\nUser: q"
	if got != want {
		t.Errorf("flattenConversation = %q, want %q", got, want)
	}
}

func TestMakeSnippet(t *testing.T) {
	if got := makeSnippet("abc"); got != "abc..." {
		t.Errorf("short snippet = %q", got)
	}

	exact := strings.Repeat("x", snippetLen)
	if got := makeSnippet(exact); got != exact+"..." {
		t.Errorf("exact-length snippet was truncated: %d runes", utf8.RuneCountInString(got))
	}

	// Multibyte content truncates on rune boundaries.
	long := strings.Repeat("日", snippetLen+50)
	got := makeSnippet(long)
	if utf8.RuneCountInString(got) != snippetLen+3 {
		t.Errorf("multibyte snippet = %d runes, want %d", utf8.RuneCountInString(got), snippetLen+3)
	}
	if !utf8.ValidString(got) {
		t.Error("snippet is not valid UTF-8")
	}
}
