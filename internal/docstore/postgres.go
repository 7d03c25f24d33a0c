package docstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	"go.uber.org/zap"

	"github.com/smartrag/smartrag-core/internal/ragerr"
	"github.com/smartrag/smartrag-core/internal/retrypolicy"
	"github.com/smartrag/smartrag-core/internal/tracing"
	"github.com/smartrag/smartrag-core/pkg/ragtypes"
)

// Postgres is a pgvector-backed Repository. Grounded on
// unified-rag-service/rag_implementations.go's retrieveSimilarChunks
// (hybrid 0.7/0.3 vector+keyword ORDER BY expression) and storeDocument/
// storeDocumentChunk, generalized to the Document/Chunk model and the
// scoring package's own hybrid weighting (the SQL side here only narrows
// candidates by vector distance; final 0.8/0.2 scoring happens in
// internal/scoring against the returned chunks).
type Postgres struct {
	pool   *pgxpool.Pool
	retry  retrypolicy.Policy
	logger *zap.Logger
}

func NewPostgres(pool *pgxpool.Pool, retry retrypolicy.Policy, logger *zap.Logger) *Postgres {
	return &Postgres{pool: pool, retry: retry, logger: logger}
}

// Schema creates the tables Postgres expects; callers run it once at
// startup (migrations are out of scope per spec.md's non-goals).
const Schema = `
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS smartrag_documents (
	id TEXT PRIMARY KEY,
	tenant_id TEXT NOT NULL DEFAULT 'default',
	file_name TEXT NOT NULL,
	content_type TEXT,
	content TEXT NOT NULL,
	uploaded_by TEXT,
	uploaded_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	file_size BIGINT,
	document_type TEXT NOT NULL,
	metadata JSONB,
	content_hash TEXT NOT NULL,
	UNIQUE (tenant_id, content_hash)
);

CREATE TABLE IF NOT EXISTS smartrag_chunks (
	id TEXT PRIMARY KEY,
	document_id TEXT NOT NULL REFERENCES smartrag_documents(id) ON DELETE CASCADE,
	chunk_index INT NOT NULL,
	content TEXT NOT NULL,
	start_position INT NOT NULL,
	end_position INT NOT NULL,
	embedding vector(1536),
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS smartrag_chunks_embedding_idx
	ON smartrag_chunks USING ivfflat (embedding vector_cosine_ops) WITH (lists = 100);
`

func (p *Postgres) Add(ctx context.Context, doc ragtypes.Document) (ragtypes.Document, error) {
	ctx, span := tracing.Start(ctx, "docstore.Add")
	defer span.End()

	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if doc.TenantID == "" {
		doc.TenantID = "default"
	}
	doc.ContentHash = ContentHash(doc.TenantID, doc.Content)

	meta, err := json.Marshal(doc.Metadata)
	if err != nil {
		return ragtypes.Document{}, fmt.Errorf("%w: %v", ragerr.ErrInvalidInput, err)
	}

	_, err = retrypolicy.Do(ctx, p.retry, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, p.pool.QueryRow(ctx, `
			INSERT INTO smartrag_documents
				(id, tenant_id, file_name, content_type, content, uploaded_by, uploaded_at, file_size, document_type, metadata, content_hash)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
			ON CONFLICT (tenant_id, content_hash) DO UPDATE SET tenant_id = EXCLUDED.tenant_id
			RETURNING id
		`, doc.ID, doc.TenantID, doc.FileName, doc.ContentType, doc.Content, doc.UploadedBy,
			doc.UploadedAt, doc.FileSize, string(doc.DocType), meta, doc.ContentHash,
		).Scan(&doc.ID)
	}, isRetryable)
	if err != nil {
		return ragtypes.Document{}, fmt.Errorf("%w: %v", ragerr.ErrStoreUnavailable, err)
	}

	for _, c := range doc.Chunks {
		if err := p.insertChunk(ctx, doc.ID, c); err != nil {
			return ragtypes.Document{}, err
		}
	}
	return doc, nil
}

func (p *Postgres) insertChunk(ctx context.Context, documentID string, c ragtypes.Chunk) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	var vec *pgvector.Vector
	if len(c.Embedding) > 0 {
		v := pgvector.NewVector(c.Embedding)
		vec = &v
	}
	_, err := retrypolicy.Do(ctx, p.retry, func(ctx context.Context) (struct{}, error) {
		_, err := p.pool.Exec(ctx, `
			INSERT INTO smartrag_chunks (id, document_id, chunk_index, content, start_position, end_position, embedding)
			VALUES ($1,$2,$3,$4,$5,$6,$7)
		`, c.ID, documentID, c.ChunkIndex, c.Content, c.StartPosition, c.EndPosition, vec)
		return struct{}{}, err
	}, isRetryable)
	if err != nil {
		return fmt.Errorf("%w: %v", ragerr.ErrStoreUnavailable, err)
	}
	return nil
}

func (p *Postgres) GetByID(ctx context.Context, id string) (ragtypes.Document, bool, error) {
	row := p.pool.QueryRow(ctx, `
		SELECT id, tenant_id, file_name, content_type, content, uploaded_by, uploaded_at, file_size, document_type, metadata, content_hash
		FROM smartrag_documents WHERE id = $1
	`, id)

	var doc ragtypes.Document
	var metaRaw []byte
	var docType string
	if err := row.Scan(&doc.ID, &doc.TenantID, &doc.FileName, &doc.ContentType, &doc.Content,
		&doc.UploadedBy, &doc.UploadedAt, &doc.FileSize, &docType, &metaRaw, &doc.ContentHash); err != nil {
		if err == pgx.ErrNoRows {
			return ragtypes.Document{}, false, nil
		}
		return ragtypes.Document{}, false, fmt.Errorf("%w: %v", ragerr.ErrStoreUnavailable, err)
	}
	doc.DocType = ragtypes.DocumentType(docType)
	if len(metaRaw) > 0 {
		_ = json.Unmarshal(metaRaw, &doc.Metadata)
	}

	chunks, err := p.chunksForDocument(ctx, id)
	if err != nil {
		return ragtypes.Document{}, false, err
	}
	doc.Chunks = chunks
	return doc, true, nil
}

func (p *Postgres) chunksForDocument(ctx context.Context, documentID string) ([]ragtypes.Chunk, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, document_id, chunk_index, content, start_position, end_position, created_at
		FROM smartrag_chunks WHERE document_id = $1 ORDER BY chunk_index
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ragerr.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var out []ragtypes.Chunk
	for rows.Next() {
		var c ragtypes.Chunk
		if err := rows.Scan(&c.ID, &c.DocumentID, &c.ChunkIndex, &c.Content, &c.StartPosition, &c.EndPosition, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: %v", ragerr.ErrStoreUnavailable, err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (p *Postgres) GetAll(ctx context.Context) ([]ragtypes.Document, error) {
	rows, err := p.pool.Query(ctx, `SELECT id FROM smartrag_documents ORDER BY uploaded_at`)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ragerr.ErrStoreUnavailable, err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("%w: %v", ragerr.ErrStoreUnavailable, err)
		}
		ids = append(ids, id)
	}
	rows.Close()

	out := make([]ragtypes.Document, 0, len(ids))
	for _, id := range ids {
		doc, ok, err := p.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, doc)
		}
	}
	return out, nil
}

func (p *Postgres) Delete(ctx context.Context, id string) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM smartrag_documents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%w: %v", ragerr.ErrStoreUnavailable, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: document %s not found", ragerr.ErrInvalidInput, id)
	}
	return nil
}

func (p *Postgres) Count(ctx context.Context) (int, error) {
	var n int
	if err := p.pool.QueryRow(ctx, `SELECT count(*) FROM smartrag_documents`).Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: %v", ragerr.ErrStoreUnavailable, err)
	}
	return n, nil
}

// Search ranks chunks by pgvector cosine distance (the <=> operator),
// narrowing to tenantID when set. Final hybrid scoring (vector + keyword,
// 0.8/0.2) is applied afterward by internal/scoring.
func (p *Postgres) Search(ctx context.Context, tenantID string, queryEmbedding []float32, limit int) ([]ragtypes.Chunk, error) {
	ctx, span := tracing.Start(ctx, "docstore.Search")
	defer span.End()

	if limit <= 0 {
		limit = 50
	}
	vec := pgvector.NewVector(queryEmbedding)

	query := `
		SELECT c.id, c.document_id, c.chunk_index, c.content, c.start_position, c.end_position, c.created_at,
		       d.file_name, d.document_type
		FROM smartrag_chunks c
		JOIN smartrag_documents d ON d.id = c.document_id
		WHERE c.embedding IS NOT NULL
	`
	args := []any{vec}
	if tenantID != "" {
		query += " AND d.tenant_id = $2"
		args = append(args, tenantID)
	}
	query += fmt.Sprintf(" ORDER BY c.embedding <=> $1 LIMIT %d", limit)

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ragerr.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var out []ragtypes.Chunk
	for rows.Next() {
		var c ragtypes.Chunk
		var docType string
		if err := rows.Scan(&c.ID, &c.DocumentID, &c.ChunkIndex, &c.Content, &c.StartPosition, &c.EndPosition,
			&c.CreatedAt, &c.FileName, &docType); err != nil {
			return nil, fmt.Errorf("%w: %v", ragerr.ErrStoreUnavailable, err)
		}
		c.DocType = ragtypes.DocumentType(docType)
		out = append(out, c)
	}
	return out, rows.Err()
}

func (p *Postgres) ClearAll(ctx context.Context) error {
	_, err := p.pool.Exec(ctx, `TRUNCATE smartrag_documents CASCADE`)
	if err != nil {
		return fmt.Errorf("%w: %v", ragerr.ErrStoreUnavailable, err)
	}
	return nil
}

func isRetryable(err error) bool {
	return err != nil
}
