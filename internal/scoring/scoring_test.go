package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartrag/smartrag-core/internal/normalize"
	"github.com/smartrag/smartrag-core/pkg/ragtypes"
)

func TestCosineCommutativeAndBounded(t *testing.T) {
	a := []float32{1, 2, 3}
	b := []float32{4, -1, 2}
	sim1 := Cosine(a, b)
	sim2 := Cosine(b, a)
	assert.InDelta(t, sim1, sim2, 1e-9)
	assert.GreaterOrEqual(t, sim1, -1.0)
	assert.LessOrEqual(t, sim1, 1.0)
}

func TestCosineMissingEmbeddingIsZero(t *testing.T) {
	assert.Equal(t, 0.0, Cosine(nil, []float32{1, 2}))
	assert.Equal(t, 0.0, Cosine([]float32{1, 2}, nil))
}

func TestScoreFormulaWithinTolerance(t *testing.T) {
	e := New(normalize.New(""))
	chunks := []ragtypes.Chunk{
		{ID: "c1", DocumentID: "d1", ChunkIndex: 1, Content: "RAG combines retrieval and generation", Embedding: []float32{1, 0, 0}},
	}
	scored := e.Score("RAG retrieval", []float32{1, 0, 0}, chunks)
	require.Len(t, scored, 1)
	assert.GreaterOrEqual(t, scored[0].RelevanceScore, 0.0)
	assert.LessOrEqual(t, scored[0].RelevanceScore, 1.0)
	assert.InDelta(t, semanticWeight*1.0+keywordWeight*1.0, scored[0].RelevanceScore, 1e-9)
}

func TestScoreEmptyCandidates(t *testing.T) {
	e := New(normalize.New(""))
	assert.Empty(t, e.Score("anything", nil, nil))
}

func TestScoreFiltersBelowFloor(t *testing.T) {
	e := New(normalize.New(""))
	chunks := []ragtypes.Chunk{
		{ID: "c1", DocumentID: "d1", ChunkIndex: 1, Content: "completely unrelated filler text"},
	}
	scored := e.Score("quantum entanglement", nil, chunks)
	assert.Empty(t, scored)
}

func TestAggregateByDocumentTieBreaks(t *testing.T) {
	e := New(normalize.New(""))
	scored := []ragtypes.Chunk{
		{DocumentID: "zzz", RelevanceScore: 0.5, Scored: true},
		{DocumentID: "aaa", RelevanceScore: 0.5, Scored: true},
	}
	aggs := e.AggregateByDocument("x", scored)
	require.Len(t, aggs, 2)
	assert.Equal(t, "aaa", aggs[0].DocumentID, "lexicographic tie-break on equal score/count")
}

func TestIsStrongMatch(t *testing.T) {
	assert.True(t, IsStrongMatch([]DocumentAggregate{{AggregateScore: 5.0}}))
	assert.False(t, IsStrongMatch([]DocumentAggregate{{AggregateScore: 1.0}}))
	assert.False(t, IsStrongMatch(nil))
}

func TestRelevantDocuments(t *testing.T) {
	aggs := []DocumentAggregate{
		{DocumentID: "top", AggregateScore: 5.0},
		{DocumentID: "close", AggregateScore: 4.2},
		{DocumentID: "far", AggregateScore: 1.0},
	}
	rel := RelevantDocuments(aggs)
	var ids []string
	for _, a := range rel {
		ids = append(ids, a.DocumentID)
	}
	assert.Contains(t, ids, "top")
	assert.Contains(t, ids, "close")
	assert.NotContains(t, ids, "far")
}
