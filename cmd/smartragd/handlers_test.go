package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartrag/smartrag-core/internal/aiprovider"
	"github.com/smartrag/smartrag-core/internal/convstore"
	"github.com/smartrag/smartrag-core/internal/docstore"
	"github.com/smartrag/smartrag-core/internal/intent"
	"github.com/smartrag/smartrag-core/internal/merger"
	"github.com/smartrag/smartrag-core/internal/normalize"
	"github.com/smartrag/smartrag-core/internal/orchestrator"
	"github.com/smartrag/smartrag-core/internal/retrypolicy"
	"github.com/smartrag/smartrag-core/internal/router"
	"github.com/smartrag/smartrag-core/internal/scoring"
)

type stubProvider struct{}

func (stubProvider) Kind() aiprovider.Kind { return aiprovider.Custom }
func (stubProvider) GenerateText(ctx context.Context, prompt string, cfg aiprovider.GenerationConfig) (string, error) {
	return "a grounded answer", nil
}
func (stubProvider) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	return nil, nil
}

func newTestServer() *server {
	docs := docstore.NewInMemory()
	convs := convstore.NewInMemory()
	n := normalize.New("")
	factory := aiprovider.NewFactory([]aiprovider.Provider{stubProvider{}}, false, retrypolicy.Policy{Kind: retrypolicy.None, MaxAttempts: 1}, nil)

	r := router.New(router.Config{
		Docs:       docs,
		Scorer:     scoring.New(n),
		Analyzer:   intent.New(stubProvider{}, nil),
		Merger:     merger.New(factory),
		Normalizer: n,
	})

	orch := orchestrator.New(orchestrator.Config{
		Docs: docs, Convs: convs, Normalizer: n, Router: r,
		MinChunkSize: 50, MaxChunkSize: 500, ChunkOverlap: 50,
	})
	return &server{orch: orch}
}

func newTestEngine(s *server) *gin.Engine {
	gin.SetMode(gin.TestMode)
	e := gin.New()
	api := e.Group("/api/v1")
	api.POST("/documents/upload", s.uploadDocument)
	api.POST("/rag/query", s.query)
	e.GET("/health", s.health)
	return e
}

func TestHealthEndpoint(t *testing.T) {
	e := newTestEngine(newTestServer())
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	e.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUploadThenQuery(t *testing.T) {
	s := newTestServer()
	e := newTestEngine(s)

	uploadBody := `{"fileName":"guide.txt","content":"RAG combines retrieval and generation to ground answers."}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/upload", strings.NewReader(uploadBody))
	req.Header.Set("Content-Type", "application/json")
	e.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	queryBody := `{"sessionId":"s1","query":"What is RAG?"}`
	w2 := httptest.NewRecorder()
	req2 := httptest.NewRequest(http.MethodPost, "/api/v1/rag/query", strings.NewReader(queryBody))
	req2.Header.Set("Content-Type", "application/json")
	e.ServeHTTP(w2, req2)
	assert.Equal(t, http.StatusOK, w2.Code)
}

func TestUploadRejectsMissingContent(t *testing.T) {
	e := newTestEngine(newTestServer())
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/upload", strings.NewReader(`{"fileName":"empty.txt"}`))
	req.Header.Set("Content-Type", "application/json")
	e.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
