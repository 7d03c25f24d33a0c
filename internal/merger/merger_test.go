package merger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartrag/smartrag-core/internal/aiprovider"
	"github.com/smartrag/smartrag-core/internal/dbexec"
	"github.com/smartrag/smartrag-core/internal/retrypolicy"
	"github.com/smartrag/smartrag-core/internal/scoring"
	"github.com/smartrag/smartrag-core/pkg/ragtypes"
)

type stubProvider struct{ text string }

func (s stubProvider) Kind() aiprovider.Kind { return aiprovider.Custom }
func (s stubProvider) GenerateText(ctx context.Context, prompt string, cfg aiprovider.GenerationConfig) (string, error) {
	return s.text, nil
}
func (s stubProvider) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	return nil, nil
}

func newTestMerger(response string) *Merger {
	factory := aiprovider.NewFactory([]aiprovider.Provider{stubProvider{text: response}}, false, retrypolicy.Policy{Kind: retrypolicy.None, MaxAttempts: 1}, nil)
	return New(factory)
}

func TestMergePrefersStrongDocumentAnswer(t *testing.T) {
	m := newTestMerger("should not be used")
	doc := &DocumentAnswer{
		Answer:     "RAG combines retrieval and generation to ground answers in real documents.",
		Aggregates: []scoring.DocumentAggregate{{DocumentID: "d1", AggregateScore: 5.0}},
		Sources:    []ragtypes.SearchSource{{SourceType: ragtypes.SourceDocument, DocumentID: "d1", RelevantContent: "RAG combines retrieval and generation to ground answers"}},
	}
	resp, err := m.Merge(context.Background(), "what is RAG", nil, doc, nil, ragtypes.ResponseConfiguration{})
	require.NoError(t, err)
	assert.Equal(t, doc.Answer, resp.Answer)
}

func TestMergeFallsBackToLLMWhenNoStrongMatch(t *testing.T) {
	m := newTestMerger("the merged answer")
	resp, err := m.Merge(context.Background(), "what is RAG", nil, nil, nil, ragtypes.ResponseConfiguration{})
	require.NoError(t, err)
	assert.Equal(t, "the merged answer", resp.Answer)
}

func TestMergeIncludesDBSourcesOnLLMPath(t *testing.T) {
	m := newTestMerger("merged")
	results := []dbexec.Result{{DatabaseID: "d1", Columns: []string{"id"}, Rows: []map[string]any{{"id": 1}}}}
	resp, err := m.Merge(context.Background(), "how many orders", nil, nil, results, ragtypes.ResponseConfiguration{})
	require.NoError(t, err)
	require.Len(t, resp.Sources, 1)
	assert.Equal(t, ragtypes.SourceDatabase, resp.Sources[0].SourceType)
}

func TestMergeSkipsWeakDocumentAnswer(t *testing.T) {
	m := newTestMerger("merged from llm")
	doc := &DocumentAnswer{
		Answer:     "weak",
		Aggregates: []scoring.DocumentAggregate{{DocumentID: "d1", AggregateScore: 1.0}},
	}
	resp, err := m.Merge(context.Background(), "what is RAG", nil, doc, nil, ragtypes.ResponseConfiguration{})
	require.NoError(t, err)
	assert.Equal(t, "merged from llm", resp.Answer)
}
