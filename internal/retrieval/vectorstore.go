package retrieval

import (
	"time"
)

// VectorStore is the interface for chunk storage and similarity search
// backends. The current implementation uses SQLite with brute-force cosine
// similarity, which is comfortable up to roughly 100K chunks; an
// ANN-capable backend can replace it behind this interface if corpora
// outgrow that.
type VectorStore interface {
	// Insert adds chunk records to the store.
	Insert(records []Record) error

	// Search returns the top-K records for docID most similar to vector.
	Search(docID string, vector []float32, topK int) ([]ScoredRecord, error)

	// DeleteByDoc removes all records belonging to docID and reports how
	// many were removed.
	DeleteByDoc(docID string) (int, error)

	// Count returns the number of records stored for docID.
	Count(docID string) (int, error)
}

// Record is one embedded text chunk of a document.
// Page is 1-based; 0 means the chunk has no page attribution.
type Record struct {
	ID        string
	DocID     string
	Page      int
	Seq       int
	TextChunk string
	Embedding []float32
	CreatedAt time.Time
}

// ScoredRecord is a Record with a similarity score attached.
type ScoredRecord struct {
	Record
	Score float32
}
