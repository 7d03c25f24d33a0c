// Package ragtypes holds the data model shared by every SmartRAG component:
// documents and their chunks, sessions, query intents, search sources, and
// the final response envelope. Types here carry no behavior beyond small
// helpers; components own the algorithms.
package ragtypes

import "time"

// DocumentType classifies how a Document's content was produced.
type DocumentType string

const (
	DocumentTypeText   DocumentType = "Text"
	DocumentTypeAudio  DocumentType = "Audio"
	DocumentTypeImage  DocumentType = "Image"
	DocumentTypeSchema DocumentType = "Schema"
)

// Document is immutable once added, except for re-embedding its chunks.
type Document struct {
	ID          string         `json:"id"`
	FileName    string         `json:"fileName"`
	ContentType string         `json:"contentType"`
	Content     string         `json:"content"`
	UploadedBy  string         `json:"uploadedBy"`
	UploadedAt  time.Time      `json:"uploadedAt"`
	FileSize    int64          `json:"fileSize"`
	DocType     DocumentType   `json:"documentType"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	Chunks      []Chunk        `json:"chunks,omitempty"`

	// ContentHash is the duplicate-detection key, sha256 of normalized
	// content scoped by TenantID (see Open Question (b) in SPEC_FULL.md).
	ContentHash string `json:"contentHash,omitempty"`
	TenantID    string `json:"tenantId,omitempty"`
}

// AudioSegments returns the parsed segment table stored in
// Metadata["Segments"], or nil when the document is not audio or carries
// no segments.
func (d *Document) AudioSegments() []AudioSegment {
	raw, ok := d.Metadata["Segments"]
	if !ok {
		return nil
	}
	segs, ok := raw.([]AudioSegment)
	if !ok {
		return nil
	}
	return segs
}

// AudioSegment is one transcribed span of an audio Document.
type AudioSegment struct {
	Start           float64 `json:"start"`
	End             float64 `json:"end"`
	Text            string  `json:"text"`
	Probability     float64 `json:"probability"`
	NormalizedText  string  `json:"normalizedText"`
	StartCharIndex  int     `json:"startCharIndex"`
	EndCharIndex    int     `json:"endCharIndex"`
	HasCharMapping  bool    `json:"hasCharMapping"`
}
