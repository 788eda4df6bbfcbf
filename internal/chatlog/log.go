// Package chatlog persists question/answer interactions as a single JSON
// array on disk, one record appended per chat. The format is shared with
// external tooling that reads the file directly, so it stays a
// pretty-printed array with literal non-ASCII characters rather than a
// line-oriented log.
package chatlog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Record is one logged question/answer exchange.
type Record struct {
	Timestamp string `json:"timestamp"`
	DocID     string `json:"doc_id"`
	Question  string `json:"question"`
	Answer    string `json:"answer"`
}

// Log is a mutex-guarded append-only interaction log. Appends rewrite the
// whole file; the mutex serializes concurrent writers so no append is lost.
type Log struct {
	mu   sync.Mutex
	path string
	now  func() time.Time
}

// New creates a Log backed by the given file path. The file is created on
// first append; its directory must not necessarily exist yet.
func New(path string) *Log {
	return &Log{path: path, now: time.Now}
}

// Append adds one interaction record with the current timestamp.
// If the existing file is missing or does not parse as a JSON array, it is
// treated as empty and replaced on this write.
func (l *Log) Append(docID, question, answer string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	records := l.readLocked()
	records = append(records, Record{
		Timestamp: l.now().Format(time.RFC3339),
		DocID:     docID,
		Question:  question,
		Answer:    answer,
	})

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("creating log directory: %w", err)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("encoding log: %w", err)
	}

	if err := os.WriteFile(l.path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing log: %w", err)
	}
	return nil
}

// Read returns all logged records in append order. A missing or malformed
// file reads as empty.
func (l *Log) Read() []Record {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.readLocked()
}

func (l *Log) readLocked() []Record {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil
	}
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil
	}
	return records
}
