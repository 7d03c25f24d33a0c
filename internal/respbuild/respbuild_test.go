package respbuild

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/smartrag/smartrag-core/pkg/ragtypes"
)

func TestBuildLocationBasic(t *testing.T) {
	doc := ragtypes.Document{FileName: "ml-guide.pdf", Content: "RAG combines retrieval and generation"}
	chunk := ragtypes.Chunk{ChunkIndex: 0, StartPosition: 0, EndPosition: 37}
	loc := BuildLocation(doc, chunk)
	assert.True(t, loc == "Chunk #1 | Characters 0-37 | Source: ml-guide.pdf")
}

func TestBuildLocationWithAudioCharMapping(t *testing.T) {
	doc := ragtypes.Document{
		FileName: "call.mp3",
		Content:  "hello there how are you",
		DocType:  ragtypes.DocumentTypeAudio,
		Metadata: map[string]any{
			"Segments": []ragtypes.AudioSegment{
				{Start: 1.5, End: 3.0, StartCharIndex: 0, EndCharIndex: 11, HasCharMapping: true},
			},
		},
	}
	chunk := ragtypes.Chunk{ChunkIndex: 0, StartPosition: 0, EndPosition: 11}
	loc := BuildLocation(doc, chunk)
	assert.Contains(t, loc, "Audio 00:01 - 00:03")
}

func TestFormatTimestampSwitchesToHours(t *testing.T) {
	assert.Equal(t, "01:01:05", formatTimestamp(3665))
	assert.Equal(t, "01:05", formatTimestamp(65))
}

func TestIsMissingDetectsMarker(t *testing.T) {
	assert.True(t, IsMissing("what is RAG?", "[NO_ANSWER_FOUND]", "some source text"))
}

func TestIsMissingDetectsEmpty(t *testing.T) {
	assert.True(t, IsMissing("what is RAG?", "", "some source text"))
}

func TestIsMissingDetectsParroting(t *testing.T) {
	assert.True(t, IsMissing("what is RAG", "what is RAG", "RAG combines retrieval and generation"))
}

func TestIsMissingAcceptsGroundedAnswer(t *testing.T) {
	assert.False(t, IsMissing(
		"what is RAG",
		"RAG combines retrieval with generation to ground answers",
		"RAG combines retrieval with generation to ground answers in real documents",
	))
}
