package docstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartrag/smartrag-core/pkg/ragtypes"
)

func TestInMemoryAddAndGet(t *testing.T) {
	repo := NewInMemory()
	doc, err := repo.Add(context.Background(), ragtypes.Document{ID: "d1", FileName: "a.txt", Content: "hello world"})
	require.NoError(t, err)
	assert.NotEmpty(t, doc.ContentHash)

	got, ok, err := repo.GetByID(context.Background(), "d1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "a.txt", got.FileName)
}

func TestInMemoryDuplicateContentIsIdempotent(t *testing.T) {
	repo := NewInMemory()
	first, _ := repo.Add(context.Background(), ragtypes.Document{ID: "d1", TenantID: "t1", Content: "same text"})
	second, _ := repo.Add(context.Background(), ragtypes.Document{ID: "d2", TenantID: "t1", Content: "same text"})
	assert.Equal(t, first.ID, second.ID)

	count, _ := repo.Count(context.Background())
	assert.Equal(t, 1, count)
}

func TestInMemoryDuplicateIsTenantScoped(t *testing.T) {
	repo := NewInMemory()
	repo.Add(context.Background(), ragtypes.Document{ID: "d1", TenantID: "t1", Content: "same text"})
	repo.Add(context.Background(), ragtypes.Document{ID: "d2", TenantID: "t2", Content: "same text"})

	count, _ := repo.Count(context.Background())
	assert.Equal(t, 2, count)
}

func TestInMemoryDeleteNotFound(t *testing.T) {
	repo := NewInMemory()
	err := repo.Delete(context.Background(), "missing")
	assert.Error(t, err)
}

func TestInMemorySearchFiltersByTenant(t *testing.T) {
	repo := NewInMemory()
	repo.Add(context.Background(), ragtypes.Document{
		ID: "d1", TenantID: "t1", FileName: "a.txt", Content: "x",
		Chunks: []ragtypes.Chunk{{ID: "c1", DocumentID: "d1", Content: "x"}},
	})
	repo.Add(context.Background(), ragtypes.Document{
		ID: "d2", TenantID: "t2", FileName: "b.txt", Content: "y",
		Chunks: []ragtypes.Chunk{{ID: "c2", DocumentID: "d2", Content: "y"}},
	})

	chunks, err := repo.Search(context.Background(), "t1", nil, 10)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "d1", chunks[0].DocumentID)
}

func TestInMemoryClearAll(t *testing.T) {
	repo := NewInMemory()
	repo.Add(context.Background(), ragtypes.Document{ID: "d1", Content: "x"})
	require.NoError(t, repo.ClearAll(context.Background()))
	count, _ := repo.Count(context.Background())
	assert.Equal(t, 0, count)
}

func TestContentHashTenantScoping(t *testing.T) {
	assert.NotEqual(t, ContentHash("t1", "same"), ContentHash("t2", "same"))
	assert.Equal(t, ContentHash("default", "same"), ContentHash("", "same"))
}
