// Package orchestrator wires every SmartRAG subsystem behind the two
// public entry points spec.md §2 calls out at the top level: querying and
// document ingestion. Grounded on unified-rag-service/main.go's
// UnifiedRAGService, which held exactly this kind of "one struct, every
// collaborator" top-level wiring; generalized from its hardcoded
// Postgres+Ollama+MinIO trio into constructor-injected collaborators.
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/smartrag/smartrag-core/internal/chunking"
	"github.com/smartrag/smartrag-core/internal/convstore"
	"github.com/smartrag/smartrag-core/internal/docstore"
	"github.com/smartrag/smartrag-core/internal/embeddings"
	"github.com/smartrag/smartrag-core/internal/metrics"
	"github.com/smartrag/smartrag-core/internal/normalize"
	"github.com/smartrag/smartrag-core/internal/ragerr"
	"github.com/smartrag/smartrag-core/internal/router"
	"github.com/smartrag/smartrag-core/internal/tracing"
	"github.com/smartrag/smartrag-core/pkg/ragtypes"
)

// Orchestrator is the top-level, concurrency-safe entry point. All public
// methods are safe for concurrent invocation and share no per-request
// mutable state (spec.md §5).
type Orchestrator struct {
	docs       docstore.Repository
	convs      convstore.Repository
	embedder   *embeddings.Client
	normalizer *normalize.Normalizer
	router     *router.Router
	metrics    *metrics.Registry
	logger     *zap.Logger

	minChunkSize, maxChunkSize, chunkOverlap int
}

// Config bundles every collaborator Orchestrator needs.
type Config struct {
	Docs         docstore.Repository
	Convs        convstore.Repository
	Embedder     *embeddings.Client
	Normalizer   *normalize.Normalizer
	Router       *router.Router
	Metrics      *metrics.Registry
	Logger       *zap.Logger
	MinChunkSize int
	MaxChunkSize int
	ChunkOverlap int
}

func New(cfg Config) *Orchestrator {
	return &Orchestrator{
		docs: cfg.Docs, convs: cfg.Convs, embedder: cfg.Embedder, normalizer: cfg.Normalizer,
		router: cfg.Router, metrics: cfg.Metrics, logger: cfg.Logger,
		minChunkSize: cfg.MinChunkSize, maxChunkSize: cfg.MaxChunkSize, chunkOverlap: cfg.ChunkOverlap,
	}
}

// Query answers req, appending the turn to the session's history only on
// full success — spec.md §5's "partial work is not persisted" rule means
// a Cancelled or otherwise-failed response never touches convstore.
func (o *Orchestrator) Query(ctx context.Context, req ragtypes.QueryRequest) (ragtypes.RagResponse, error) {
	ctx, span := tracing.Start(ctx, "orchestrator.Query")
	defer span.End()

	history, err := o.convs.GetHistory(ctx, req.SessionID)
	if err != nil {
		o.countQuery("error")
		return ragtypes.RagResponse{}, err
	}

	resp, err := o.router.Route(ctx, req, history)
	if err != nil {
		o.countQuery("error")
		return ragtypes.RagResponse{}, err
	}
	resp.SearchedAt = time.Now()

	if err := o.convs.Append(ctx, req.SessionID, ragtypes.Turn{
		Question:       req.Query,
		Answer:         resp.Answer,
		SourcesForTurn: resp.Sources,
		Timestamp:      resp.SearchedAt,
	}); err != nil {
		if o.logger != nil {
			o.logger.Warn("failed to persist turn", zap.String("sessionId", req.SessionID), zap.Error(err))
		}
	}

	o.countQuery("success")
	return resp, nil
}

func (o *Orchestrator) countQuery(outcome string) {
	if o.metrics != nil {
		o.metrics.QueriesHandled.WithLabelValues(outcome).Inc()
	}
}

// IngestDocument chunks, embeds, and stores one document, returning the
// stored Document (with ContentHash populated for duplicate detection).
// A content-hash match against an already-stored document for the same
// tenant is idempotent: the existing document is returned unchanged.
func (o *Orchestrator) IngestDocument(ctx context.Context, doc ragtypes.Document) (ragtypes.Document, error) {
	ctx, span := tracing.Start(ctx, "orchestrator.IngestDocument")
	defer span.End()

	if doc.Content == "" {
		return ragtypes.Document{}, fmt.Errorf("%w: empty document content", ragerr.ErrInvalidInput)
	}

	normalized := o.normalizer.Normalize(doc.Content)
	doc.Content = normalized
	doc.Chunks = chunking.Chunk(doc.ID, normalized, o.minChunkSize, o.maxChunkSize, o.chunkOverlap, doc.DocType)

	if o.embedder != nil {
		texts := make([]string, len(doc.Chunks))
		for i, c := range doc.Chunks {
			texts[i] = c.Content
		}
		vecs, err := o.embedder.Embed(ctx, texts)
		if err != nil {
			if o.logger != nil {
				o.logger.Warn("embedding generation failed during ingest, storing chunks without vectors", zap.Error(err))
			}
		} else {
			for i := range doc.Chunks {
				doc.Chunks[i].Embedding = vecs[i]
			}
		}
	}

	stored, err := o.docs.Add(ctx, doc)
	if err != nil {
		return ragtypes.Document{}, err
	}
	return stored, nil
}
