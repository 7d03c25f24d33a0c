// Package router implements the Strategy Router of spec.md §4.11: the
// top-level per-query orchestration that runs document search and intent
// analysis concurrently, picks DocumentOnly/DatabaseOnly/Hybrid, and
// delegates to internal/merger for the final response. Grounded on
// unified-rag-service's handleRAGQuery handler, which performs the same
// "parse request, search, generate, respond" sequence this package
// generalizes into two concurrent legs; Route waits for both before
// choosing a strategy, and on a strong document match the intent result
// goes unused.
package router

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/smartrag/smartrag-core/internal/dbexec"
	"github.com/smartrag/smartrag-core/internal/docstore"
	"github.com/smartrag/smartrag-core/internal/embeddings"
	"github.com/smartrag/smartrag-core/internal/expand"
	"github.com/smartrag/smartrag-core/internal/intent"
	"github.com/smartrag/smartrag-core/internal/merger"
	"github.com/smartrag/smartrag-core/internal/normalize"
	"github.com/smartrag/smartrag-core/internal/ragerr"
	"github.com/smartrag/smartrag-core/internal/respbuild"
	"github.com/smartrag/smartrag-core/internal/scoring"
	"github.com/smartrag/smartrag-core/internal/sqlgen"
	"github.com/smartrag/smartrag-core/internal/tracing"
	"github.com/smartrag/smartrag-core/pkg/ragtypes"
)

// DatabaseConfig ties one configured database's identity together with
// its executor key, dialect, and schema summary for intent analysis and
// SQL generation.
type DatabaseConfig struct {
	ID      string
	Name    string
	Type    sqlgen.DatabaseType
	Schema  []sqlgen.TableSchema
}

// Router wires every SmartRAG subsystem behind one Route entry point.
type Router struct {
	docs        docstore.Repository
	embedder    *embeddings.Client
	scorer      *scoring.Engine
	analyzer    *intent.Analyzer
	sqlgen      *sqlgen.Generator
	dbexec      dbexec.Execer
	merger      *merger.Merger
	normalizer  *normalize.Normalizer
	databases   []DatabaseConfig
	logger      *zap.Logger
	cfg         ragtypes.ResponseConfiguration
}

// Config bundles the collaborators Router needs. Embedder, SQLGen, DBExec
// and Logger may be nil: a nil Embedder makes document search
// keyword-only, and a nil SQLGen or DBExec skips database queries. An
// empty Databases disables every DB-touching path. The remaining fields
// are required.
type Config struct {
	Docs       docstore.Repository
	Embedder   *embeddings.Client
	Scorer     *scoring.Engine
	Analyzer   *intent.Analyzer
	SQLGen     *sqlgen.Generator
	DBExec     dbexec.Execer
	Merger     *merger.Merger
	Normalizer *normalize.Normalizer
	Databases  []DatabaseConfig
	Logger     *zap.Logger
	ResponseConfiguration ragtypes.ResponseConfiguration
}

func New(cfg Config) *Router {
	return &Router{
		docs:       cfg.Docs,
		embedder:   cfg.Embedder,
		scorer:     cfg.Scorer,
		analyzer:   cfg.Analyzer,
		sqlgen:     cfg.SQLGen,
		dbexec:     cfg.DBExec,
		merger:     cfg.Merger,
		normalizer: cfg.Normalizer,
		databases:  cfg.Databases,
		logger:     cfg.Logger,
		cfg:        cfg.ResponseConfiguration,
	}
}

// documentRace is the result of the concurrent document-search leg.
type documentRace struct {
	answer *merger.DocumentAnswer
	err    error
}

// Route executes spec.md §4.11's algorithm for one query. history is the
// session's prior turns (already fetched by the caller, which also owns
// session persistence — the router never mutates session state, per
// spec.md §5's "session is updated only on full success" rule).
func (r *Router) Route(ctx context.Context, req ragtypes.QueryRequest, history []ragtypes.Turn) (ragtypes.RagResponse, error) {
	ctx, span := tracing.Start(ctx, "router.Route")
	defer span.End()

	tags, strippedQuery := intent.ParseTags(req.Query)
	if strippedQuery == "" {
		return ragtypes.RagResponse{}, fmt.Errorf("%w: empty query", ragerr.ErrInvalidInput)
	}

	if len(r.databases) == 0 && tags.DatabaseOnly {
		// Open Question (d), SPEC_FULL.md §C: -db with no DB configured
		// falls back to DocumentOnly with an explanatory System source.
		if r.logger != nil {
			r.logger.Warn("-db tag given but no databases configured, falling back to DocumentOnly")
		}
		tags.DatabaseOnly = false
		resp, err := r.runDocumentOnly(ctx, strippedQuery, history)
		if err != nil {
			return resp, err
		}
		resp.Sources = append(resp.Sources, ragtypes.SearchSource{
			SourceType:      ragtypes.SourceSystem,
			RelevantContent: "database search was requested but no databases are configured; answered from documents only",
		})
		return resp, nil
	}

	raceCtx, cancelRace := context.WithCancel(ctx)
	defer cancelRace()

	var wg sync.WaitGroup
	var docResult documentRace
	var intentResult *ragtypes.QueryIntent

	wg.Add(2)
	go func() {
		defer wg.Done()
		docResult.answer, docResult.err = r.documentSearch(raceCtx, strippedQuery)
	}()
	go func() {
		defer wg.Done()
		intentResult = r.analyzer.Analyze(raceCtx, strippedQuery, r.databaseSummaries())
	}()
	wg.Wait()

	if tags.DocumentOnly {
		return r.finish(ctx, strippedQuery, history, docResult.answer, nil)
	}

	if docResult.err == nil && docResult.answer != nil && scoring.IsStrongMatch(docResult.answer.Aggregates) {
		return r.finish(ctx, strippedQuery, history, docResult.answer, nil)
	}

	strategy := intent.StrategyFromConfidence(intentResult)
	if tags.DatabaseOnly {
		strategy = ragtypes.StrategyDatabaseOnly
	}
	hasDocMatches := docResult.answer != nil && len(docResult.answer.Aggregates) > 0
	if strategy == ragtypes.StrategyDatabaseOnly && !intentResult.HasDatabaseQueries() {
		strategy = ragtypes.StrategyDocumentOnly
	}
	if strategy == ragtypes.StrategyDocumentOnly && !hasDocMatches && intentResult.HasDatabaseQueries() {
		strategy = ragtypes.StrategyHybrid
	}

	switch strategy {
	case ragtypes.StrategyDocumentOnly:
		return r.finish(ctx, strippedQuery, history, docResult.answer, nil)
	case ragtypes.StrategyDatabaseOnly:
		dbResults := r.runDatabaseQueries(ctx, intentResult)
		return r.finish(ctx, strippedQuery, history, nil, dbResults)
	default: // Hybrid
		dbResults := r.runDatabaseQueries(ctx, intentResult)
		return r.finish(ctx, strippedQuery, history, docResult.answer, dbResults)
	}
}

func (r *Router) finish(ctx context.Context, query string, history []ragtypes.Turn, doc *merger.DocumentAnswer, dbResults []dbexec.Result) (ragtypes.RagResponse, error) {
	select {
	case <-ctx.Done():
		return ragtypes.RagResponse{}, fmt.Errorf("%w", ragerr.ErrCancelled)
	default:
	}
	return r.merger.Merge(ctx, query, history, doc, dbResults, r.cfg)
}

func (r *Router) runDocumentOnly(ctx context.Context, query string, history []ragtypes.Turn) (ragtypes.RagResponse, error) {
	doc, err := r.documentSearch(ctx, query)
	if err != nil {
		return ragtypes.RagResponse{}, err
	}
	return r.finish(ctx, query, history, doc, nil)
}

// documentSearch embeds query, scores candidates, aggregates by document,
// expands the winning chunks' context, and builds per-chunk sources with
// §4.10 location metadata.
func (r *Router) documentSearch(ctx context.Context, query string) (*merger.DocumentAnswer, error) {
	ctx, span := tracing.Start(ctx, "router.documentSearch")
	defer span.End()

	var queryEmbedding []float32
	if r.embedder != nil {
		vecs, err := r.embedder.Embed(ctx, []string{query})
		if err == nil && len(vecs) == 1 {
			queryEmbedding = vecs[0]
		}
	}

	candidates, err := r.docs.Search(ctx, "", queryEmbedding, 200)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return &merger.DocumentAnswer{}, nil
	}

	scored := r.scorer.Score(query, queryEmbedding, candidates)
	aggregates := r.scorer.AggregateByDocument(query, scored)
	relevant := scoring.RelevantDocuments(aggregates)

	allByDoc := map[string][]ragtypes.Chunk{}
	for _, c := range candidates {
		allByDoc[c.DocumentID] = append(allByDoc[c.DocumentID], c)
	}

	var topChunks []ragtypes.Chunk
	for _, agg := range relevant {
		if len(agg.Chunks) > 0 {
			topChunks = append(topChunks, agg.Chunks[0])
		}
	}
	if len(topChunks) == 0 {
		return &merger.DocumentAnswer{Aggregates: aggregates}, nil
	}

	window := expand.SelectWindow(query, candidates, topChunks[0])
	expanded := expand.Expand(topChunks, allByDoc, window)
	contextText := expand.BuildLimitedContext(expanded, 16000)

	sources := make([]ragtypes.SearchSource, 0, len(expanded))
	for i, c := range expanded {
		docForChunk, ok, _ := r.docs.GetByID(ctx, c.DocumentID)
		var location string
		if ok {
			location = respbuild.BuildLocation(docForChunk, c)
		}
		idx := i
		start, end := c.StartPosition, c.EndPosition
		sources = append(sources, ragtypes.SearchSource{
			SourceType:      ragtypes.SourceDocument,
			DocumentID:      c.DocumentID,
			FileName:        c.FileName,
			RelevantContent: c.Content,
			RelevanceScore:  c.RelevanceScore,
			Location:        location,
			ChunkIndex:      &idx,
			StartPosition:   &start,
			EndPosition:     &end,
		})
	}

	return &merger.DocumentAnswer{
		Answer:     contextText,
		Aggregates: aggregates,
		Sources:    sources,
	}, nil
}

func (r *Router) databaseSummaries() []intent.DatabaseSummary {
	out := make([]intent.DatabaseSummary, 0, len(r.databases))
	for _, d := range r.databases {
		out = append(out, intent.DatabaseSummary{ID: d.ID, Name: d.Name, Schema: schemaSummary(d.Schema)})
	}
	return out
}

func schemaSummary(tables []sqlgen.TableSchema) string {
	var out string
	for _, t := range tables {
		out += t.Name + " "
	}
	return out
}

// runDatabaseQueries generates and executes one SQL query per requested
// database. A database whose SQL generation fails validation twice
// (ragerr.ErrSqlGenerationFailed) is not silently dropped: it is reported
// as its own failed dbexec.Result so the merger's existing System-source
// path (dbRowSources) surfaces it to the caller the same way a failed
// execution would, per spec.md §7's "report as a System source with an
// explanatory relevantContent" requirement.
func (r *Router) runDatabaseQueries(ctx context.Context, qi *ragtypes.QueryIntent) []dbexec.Result {
	if qi == nil || len(qi.DatabaseQueries) == 0 || r.sqlgen == nil || r.dbexec == nil {
		return nil
	}
	queries := map[string]string{}
	var failed []dbexec.Result
	for _, dq := range qi.DatabaseQueries {
		cfg := r.databaseByID(dq.DatabaseID)
		if cfg == nil {
			continue
		}
		sql, err := r.sqlgen.Generate(ctx, cfg.Type, dq, cfg.Schema)
		if err != nil {
			failed = append(failed, dbexec.Result{DatabaseID: dq.DatabaseID, Err: err})
			continue
		}
		queries[dq.DatabaseID] = sql
	}
	if len(queries) == 0 {
		return failed
	}
	return append(r.dbexec.ExecuteMany(ctx, queries), failed...)
}

func (r *Router) databaseByID(id string) *DatabaseConfig {
	for i := range r.databases {
		if r.databases[i].ID == id {
			return &r.databases[i]
		}
	}
	return nil
}
