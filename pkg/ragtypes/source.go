package ragtypes

import "time"

// SourceType identifies which subsystem a SearchSource was produced by.
type SourceType string

const (
	SourceDocument SourceType = "Document"
	SourceAudio    SourceType = "Audio"
	SourceImage    SourceType = "Image"
	SourceDatabase SourceType = "Database"
	SourceSystem   SourceType = "System"
)

// SearchSource is one piece of provenance attached to a RagResponse.
//
// Optional numeric fields use pointers so a meaningful zero (e.g.
// RowNumber == 0) is distinguishable from "not applicable" (nil), per
// SPEC_FULL.md's ambient-stack note on spec.md §9's optional-fields design
// note.
type SearchSource struct {
	SourceType       SourceType `json:"sourceType"`
	DocumentID       string     `json:"documentId,omitempty"`
	FileName         string     `json:"fileName,omitempty"`
	RelevantContent  string     `json:"relevantContent"`
	RelevanceScore   float64    `json:"relevanceScore"`
	Location         string     `json:"location"`

	ChunkIndex    *int `json:"chunkIndex,omitempty"`
	StartPosition *int `json:"startPosition,omitempty"`
	EndPosition   *int `json:"endPosition,omitempty"`

	StartTimeSeconds *float64 `json:"startTimeSeconds,omitempty"`
	EndTimeSeconds   *float64 `json:"endTimeSeconds,omitempty"`

	DatabaseID    string   `json:"databaseId,omitempty"`
	DatabaseName  string   `json:"databaseName,omitempty"`
	Tables        []string `json:"tables,omitempty"`
	ExecutedQuery string   `json:"executedQuery,omitempty"`
	RowNumber     *int     `json:"rowNumber,omitempty"`
}

// ResponseConfiguration identifies the providers actually used to build a
// RagResponse (spec.md §7: "never leak... every response includes a
// configuration block").
type ResponseConfiguration struct {
	AIProvider      string `json:"aiProvider"`
	StorageProvider string `json:"storageProvider"`
	Model           string `json:"model"`
}

// RagResponse is SmartRAG's single process-boundary output type.
type RagResponse struct {
	Query         string                `json:"query"`
	Answer        string                `json:"answer"`
	Sources       []SearchSource        `json:"sources"`
	SearchedAt    time.Time             `json:"searchedAt"`
	Configuration ResponseConfiguration `json:"configuration"`
}
