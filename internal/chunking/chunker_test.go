package chunking

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartrag/smartrag-core/pkg/ragtypes"
)

func TestChunkOffsetsMatchSourceText(t *testing.T) {
	text := "RAG combines retrieval and generation. It first retrieves relevant chunks. Then it generates an answer grounded in them."
	chunks := Chunk("doc-1", text, 10, 40, 10, ragtypes.DocumentTypeText)
	require.NotEmpty(t, chunks)
	for _, c := range chunks {
		require.LessOrEqual(t, c.StartPosition, c.EndPosition)
		runes := []rune(text)
		got := string(runes[c.StartPosition:c.EndPosition])
		assert.Equal(t, got, c.Content)
	}
}

func TestChunkIndexDense(t *testing.T) {
	text := strings.Repeat("word ", 500)
	chunks := Chunk("doc-2", text, 50, 200, 20, ragtypes.DocumentTypeText)
	for i, c := range chunks {
		assert.Equal(t, i, c.ChunkIndex)
	}
}

func TestChunkNonDecreasingStart(t *testing.T) {
	text := strings.Repeat("The quick brown fox jumps. ", 50)
	chunks := Chunk("doc-3", text, 30, 120, 15, ragtypes.DocumentTypeText)
	for i := 1; i < len(chunks); i++ {
		assert.GreaterOrEqual(t, chunks[i].StartPosition, chunks[i-1].StartPosition)
	}
}

func TestChunkSingleOversizedSentence(t *testing.T) {
	text := strings.Repeat("a", 5000) // one giant "sentence" with no terminators
	chunks := Chunk("doc-4", text, 50, 200, 0, ragtypes.DocumentTypeText)
	require.NotEmpty(t, chunks)
	for _, c := range chunks {
		assert.LessOrEqual(t, c.EndPosition-c.StartPosition, 200)
	}
}

func TestChunkEmpty(t *testing.T) {
	assert.Empty(t, Chunk("doc-5", "", 10, 100, 10, ragtypes.DocumentTypeText))
}
