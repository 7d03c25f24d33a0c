// Package docstore implements the DocumentRepository collaborator of
// spec.md §4.3/§6: an in-memory reference implementation plus a
// Postgres+pgvector-backed one. Grounded on unified-rag-service's
// storeDocument/storeDocumentChunk/retrieveSimilarChunks (rag_implementations.go),
// generalized from a single hardcoded legal-domain schema into the
// document-type-agnostic Document/Chunk model.
package docstore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"sync"

	"github.com/smartrag/smartrag-core/internal/ragerr"
	"github.com/smartrag/smartrag-core/internal/scoring"
	"github.com/smartrag/smartrag-core/pkg/ragtypes"
)

// Repository is the DocumentRepository collaborator (spec.md §4.3/§6).
type Repository interface {
	Add(ctx context.Context, doc ragtypes.Document) (ragtypes.Document, error)
	GetByID(ctx context.Context, id string) (ragtypes.Document, bool, error)
	GetAll(ctx context.Context) ([]ragtypes.Document, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
	Search(ctx context.Context, tenantID string, queryEmbedding []float32, limit int) ([]ragtypes.Chunk, error)
	ClearAll(ctx context.Context) error
}

// ContentHash returns the tenant-scoped duplicate-detection key (Open
// Question (b) in SPEC_FULL.md §C): sha256 of "tenantId\x00content".
func ContentHash(tenantID, content string) string {
	if tenantID == "" {
		tenantID = "default"
	}
	sum := sha256.Sum256([]byte(tenantID + "\x00" + content))
	return hex.EncodeToString(sum[:])
}

// InMemory is a process-local Repository, safe for concurrent use. It is
// also the fallback used when a configured remote store repeatedly fails
// (spec.md §7 StoreUnavailable after retries is surfaced by callers, not
// silently swallowed here).
type InMemory struct {
	mu        sync.RWMutex
	documents map[string]ragtypes.Document
	byHash    map[string]string // contentHash -> documentID
}

func NewInMemory() *InMemory {
	return &InMemory{
		documents: map[string]ragtypes.Document{},
		byHash:    map[string]string{},
	}
}

func (m *InMemory) Add(_ context.Context, doc ragtypes.Document) (ragtypes.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	hash := ContentHash(doc.TenantID, doc.Content)
	doc.ContentHash = hash
	if existingID, ok := m.byHash[hash]; ok {
		return m.documents[existingID], nil
	}
	m.documents[doc.ID] = doc
	m.byHash[hash] = doc.ID
	return doc, nil
}

func (m *InMemory) GetByID(_ context.Context, id string) (ragtypes.Document, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.documents[id]
	return d, ok, nil
}

func (m *InMemory) GetAll(_ context.Context) ([]ragtypes.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]ragtypes.Document, 0, len(m.documents))
	for _, d := range m.documents {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *InMemory) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.documents[id]
	if !ok {
		return fmt.Errorf("%w: document %s not found", ragerr.ErrInvalidInput, id)
	}
	delete(m.documents, id)
	delete(m.byHash, d.ContentHash)
	return nil
}

func (m *InMemory) Count(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.documents), nil
}

// Search performs brute-force cosine ranking over every chunk of every
// document for tenantID (empty tenantID searches all tenants). It exists
// primarily as a reference/testing implementation; Postgres exercises the
// same contract via pgvector's native operator.
func (m *InMemory) Search(_ context.Context, tenantID string, queryEmbedding []float32, limit int) ([]ragtypes.Chunk, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var candidates []ragtypes.Chunk
	for _, doc := range m.documents {
		if tenantID != "" && doc.TenantID != tenantID {
			continue
		}
		for _, c := range doc.Chunks {
			c.FileName = doc.FileName
			c.DocType = doc.DocType
			candidates = append(candidates, c)
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return scoring.Cosine(queryEmbedding, candidates[i].Embedding) > scoring.Cosine(queryEmbedding, candidates[j].Embedding)
	})
	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates, nil
}

func (m *InMemory) ClearAll(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.documents = map[string]ragtypes.Document{}
	m.byHash = map[string]string{}
	return nil
}
