package router

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartrag/smartrag-core/internal/aiprovider"
	"github.com/smartrag/smartrag-core/internal/docstore"
	"github.com/smartrag/smartrag-core/internal/intent"
	"github.com/smartrag/smartrag-core/internal/merger"
	"github.com/smartrag/smartrag-core/internal/normalize"
	"github.com/smartrag/smartrag-core/internal/retrypolicy"
	"github.com/smartrag/smartrag-core/internal/scoring"
	"github.com/smartrag/smartrag-core/pkg/ragtypes"
)

type noopProvider struct{}

func (noopProvider) Kind() aiprovider.Kind { return aiprovider.Custom }
func (noopProvider) GenerateText(ctx context.Context, prompt string, cfg aiprovider.GenerationConfig) (string, error) {
	return "generated answer", nil
}
func (noopProvider) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	return nil, nil
}

func seededRepo() docstore.Repository {
	repo := docstore.NewInMemory()
	repo.Add(context.Background(), ragtypes.Document{
		ID: "d1", FileName: "ml-guide.pdf", Content: "RAG combines retrieval and generation",
		Chunks: []ragtypes.Chunk{
			{ID: "c1", DocumentID: "d1", ChunkIndex: 0, Content: "RAG combines retrieval and generation", StartPosition: 0, EndPosition: 37},
		},
	})
	return repo
}

func newTestRouter(databases []DatabaseConfig) *Router {
	factory := aiprovider.NewFactory([]aiprovider.Provider{noopProvider{}}, false, retrypolicy.Policy{Kind: retrypolicy.None, MaxAttempts: 1}, nil)
	n := normalize.New("")
	return New(Config{
		Docs:       seededRepo(),
		Scorer:     scoring.New(n),
		Analyzer:   intent.New(noopProvider{}, nil),
		Merger:     merger.New(factory),
		Normalizer: n,
		Databases:  databases,
	})
}

func TestRouteDocumentOnlyTag(t *testing.T) {
	r := newTestRouter(nil)
	resp, err := r.Route(context.Background(), ragtypes.QueryRequest{Query: "-d what is RAG"}, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Answer)
}

func TestRouteDatabaseOnlyTagWithNoDatabasesFallsBack(t *testing.T) {
	r := newTestRouter(nil)
	resp, err := r.Route(context.Background(), ragtypes.QueryRequest{Query: "-db what is RAG"}, nil)
	require.NoError(t, err)
	found := false
	for _, s := range resp.Sources {
		if s.SourceType == ragtypes.SourceSystem {
			found = true
		}
	}
	assert.True(t, found, "expected an explanatory System source")
}

func TestRouteEmptyQueryIsInvalid(t *testing.T) {
	r := newTestRouter(nil)
	_, err := r.Route(context.Background(), ragtypes.QueryRequest{Query: "   "}, nil)
	assert.Error(t, err)
}

func TestRouteStrongDocumentMatchShortCircuits(t *testing.T) {
	r := newTestRouter(nil)
	resp, err := r.Route(context.Background(), ragtypes.QueryRequest{Query: "RAG combines retrieval and generation"}, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Answer)
}
