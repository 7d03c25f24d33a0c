package expand

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/smartrag/smartrag-core/pkg/ragtypes"
)

func chunkRange(doc string, n int) []ragtypes.Chunk {
	out := make([]ragtypes.Chunk, n)
	for i := 0; i < n; i++ {
		out[i] = ragtypes.Chunk{ID: doc + "-" + string(rune('a'+i)), DocumentID: doc, ChunkIndex: i, Content: "x"}
	}
	return out
}

func TestSelectWindowDefault(t *testing.T) {
	candidates := chunkRange("d1", 10)
	w := SelectWindow("tell me about it", candidates, candidates[5])
	assert.Equal(t, defaultWindow, w)
}

func TestSelectWindowComprehensive(t *testing.T) {
	candidates := chunkRange("d1", 10)
	w := SelectWindow("what are all the line items?", candidates, candidates[5])
	assert.Equal(t, comprehensiveWindow, w)
}

func TestSelectWindowSmallCandidateSet(t *testing.T) {
	candidates := chunkRange("d1", 2)
	w := SelectWindow("hello", candidates, candidates[0])
	assert.Equal(t, smallCandidateWindow, w)
}

func TestSelectWindowImageHeader(t *testing.T) {
	candidates := chunkRange("d1", 10)
	header := candidates[0]
	header.DocType = ragtypes.DocumentTypeImage
	header.Content = "label block"
	w := SelectWindow("what does it say", candidates, header)
	assert.Equal(t, imageHeaderMaxWindow, w)
}

func TestExpandIncludesNeighborsWithinWindow(t *testing.T) {
	all := chunkRange("d1", 10)
	allByDoc := map[string][]ragtypes.Chunk{"d1": all}
	found := []ragtypes.Chunk{all[5]}

	expanded := Expand(found, allByDoc, 2)
	assert.Len(t, expanded, 5) // indices 3,4,5,6,7
	assert.Equal(t, 3, expanded[0].ChunkIndex)
	assert.Equal(t, 7, expanded[len(expanded)-1].ChunkIndex)
}

func TestExpandIsIdempotent(t *testing.T) {
	all := chunkRange("d1", 10)
	allByDoc := map[string][]ragtypes.Chunk{"d1": all}
	found := []ragtypes.Chunk{all[5]}

	first := Expand(found, allByDoc, 2)
	second := Expand(first, allByDoc, 2)
	assert.Equal(t, first, second)
}

func TestBuildLimitedContextStopsAtBudget(t *testing.T) {
	chunks := []ragtypes.Chunk{
		{Content: "0123456789"},
		{Content: "abcdefghij"},
	}
	out := BuildLimitedContext(chunks, 10)
	assert.Equal(t, "0123456789", out)
}

func TestBuildLimitedContextAllowsPartialWhenRoomy(t *testing.T) {
	chunks := []ragtypes.Chunk{
		{Content: "0123456789"},
		{Content: strings.Repeat("abcdefghij", 20)},
	}
	out := BuildLimitedContext(chunks, 120)
	assert.Contains(t, out, "0123456789")
	assert.Contains(t, out, "abcdefgh")
	assert.Len(t, out, 120)
}

func TestBuildLimitedContextEmpty(t *testing.T) {
	assert.Equal(t, "", BuildLimitedContext(nil, 100))
}
