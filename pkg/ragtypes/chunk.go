package ragtypes

import "time"

// Chunk is a contiguous slice of a Document's extracted text. Chunks never
// outlive their Document and hold only a DocumentID, never a back-pointer,
// per SPEC_FULL.md's flattened-ownership design note.
type Chunk struct {
	ID         string    `json:"id"`
	DocumentID string    `json:"documentId"`
	ChunkIndex int       `json:"chunkIndex"`
	Content    string    `json:"content"`

	// StartPosition/EndPosition are rune offsets into the owning
	// Document's Content, StartPosition inclusive and EndPosition
	// exclusive: Content == runes[StartPosition:EndPosition].
	StartPosition int `json:"startPosition"`
	EndPosition   int `json:"endPosition"`

	Embedding []float32 `json:"embedding,omitempty"`

	// RelevanceScore is transient, populated per-query by the scoring
	// engine; zero value means "not yet scored", not "scored zero" —
	// callers that need to distinguish the two should check Scored.
	RelevanceScore float64 `json:"relevanceScore,omitempty"`
	Scored         bool    `json:"-"`

	CreatedAt time.Time    `json:"createdAt"`
	DocType   DocumentType `json:"documentType"`

	// FileName is denormalized from the owning Document so the scorer
	// and response builder don't need a store round-trip per chunk.
	FileName string `json:"fileName,omitempty"`
}

// IsHeaderChunk reports whether c is the document's preferentially-scored
// header chunk (spec.md §3).
func (c *Chunk) IsHeaderChunk() bool {
	return c.ChunkIndex == 0
}

// WithScore returns a copy of c with RelevanceScore set and Scored true.
func (c Chunk) WithScore(score float64) Chunk {
	c.RelevanceScore = score
	c.Scored = true
	return c
}
