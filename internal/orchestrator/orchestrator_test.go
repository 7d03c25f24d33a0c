package orchestrator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartrag/smartrag-core/internal/aiprovider"
	"github.com/smartrag/smartrag-core/internal/convstore"
	"github.com/smartrag/smartrag-core/internal/docstore"
	"github.com/smartrag/smartrag-core/internal/intent"
	"github.com/smartrag/smartrag-core/internal/merger"
	"github.com/smartrag/smartrag-core/internal/normalize"
	"github.com/smartrag/smartrag-core/internal/retrypolicy"
	"github.com/smartrag/smartrag-core/internal/router"
	"github.com/smartrag/smartrag-core/internal/scoring"
	"github.com/smartrag/smartrag-core/pkg/ragtypes"
)

type noopProvider struct{}

func (noopProvider) Kind() aiprovider.Kind { return aiprovider.Custom }
func (noopProvider) GenerateText(ctx context.Context, prompt string, cfg aiprovider.GenerationConfig) (string, error) {
	return "an answer grounded in the ingested document", nil
}
func (noopProvider) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	return nil, nil
}

func newTestOrchestrator() *Orchestrator {
	docs := docstore.NewInMemory()
	convs := convstore.NewInMemory()
	n := normalize.New("")
	factory := aiprovider.NewFactory([]aiprovider.Provider{noopProvider{}}, false, retrypolicy.Policy{Kind: retrypolicy.None, MaxAttempts: 1}, nil)

	r := router.New(router.Config{
		Docs:       docs,
		Scorer:     scoring.New(n),
		Analyzer:   intent.New(noopProvider{}, nil),
		Merger:     merger.New(factory),
		Normalizer: n,
	})

	return New(Config{
		Docs: docs, Convs: convs, Normalizer: n, Router: r,
		MinChunkSize: 50, MaxChunkSize: 500, ChunkOverlap: 50,
	})
}

func TestIngestThenQueryFindsDocument(t *testing.T) {
	o := newTestOrchestrator()
	ctx := context.Background()

	_, err := o.IngestDocument(ctx, ragtypes.Document{
		ID: "d1", FileName: "ml-guide.pdf",
		Content: "RAG combines retrieval and generation to produce grounded answers.",
	})
	require.NoError(t, err)

	resp, err := o.Query(ctx, ragtypes.QueryRequest{SessionID: "s1", Query: "What is RAG?"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Answer)
}

func TestQueryAppendsTurnOnSuccess(t *testing.T) {
	o := newTestOrchestrator()
	ctx := context.Background()
	o.IngestDocument(ctx, ragtypes.Document{ID: "d1", Content: "RAG combines retrieval and generation."})

	_, err := o.Query(ctx, ragtypes.QueryRequest{SessionID: "s1", Query: "what is RAG"})
	require.NoError(t, err)

	history, err := o.convs.GetHistory(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "what is RAG", history[0].Question)
}

func TestIngestRejectsEmptyContent(t *testing.T) {
	o := newTestOrchestrator()
	_, err := o.IngestDocument(context.Background(), ragtypes.Document{ID: "d1"})
	assert.Error(t, err)
}
