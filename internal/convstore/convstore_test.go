package convstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartrag/smartrag-core/pkg/ragtypes"
)

func TestInMemoryAppendAndHistoryOrder(t *testing.T) {
	repo := NewInMemory()
	ctx := context.Background()
	require.NoError(t, repo.Append(ctx, "s1", ragtypes.Turn{Question: "q1", Answer: "a1"}))
	require.NoError(t, repo.Append(ctx, "s1", ragtypes.Turn{Question: "q2", Answer: "a2"}))

	turns, err := repo.GetHistory(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, "q1", turns[0].Question)
	assert.Equal(t, "q2", turns[1].Question)
}

func TestInMemorySessionExists(t *testing.T) {
	repo := NewInMemory()
	ctx := context.Background()
	exists, err := repo.SessionExists(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, exists)

	repo.Append(ctx, "s1", ragtypes.Turn{Question: "q", Answer: "a"})
	exists, err = repo.SessionExists(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestInMemoryGetAllSessionIDsSorted(t *testing.T) {
	repo := NewInMemory()
	ctx := context.Background()
	repo.Append(ctx, "zzz", ragtypes.Turn{Question: "q", Answer: "a"})
	repo.Append(ctx, "aaa", ragtypes.Turn{Question: "q", Answer: "a"})

	ids, err := repo.GetAllSessionIDs(ctx)
	require.NoError(t, err)
	require.Len(t, ids, 2)
	assert.Equal(t, "aaa", ids[0])
}

func TestInMemorySourcesForSession(t *testing.T) {
	repo := NewInMemory()
	ctx := context.Background()
	repo.Append(ctx, "s1", ragtypes.Turn{
		Question: "q", Answer: "a",
		SourcesForTurn: []ragtypes.SearchSource{{DocumentID: "d1"}},
	})
	sources, err := repo.GetSourcesForSession(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, sources, 1)
	assert.Equal(t, "d1", sources[0].DocumentID)
}

func TestResolveProviderQdrantFallsBackToInMemory(t *testing.T) {
	assert.Equal(t, ProviderInMemory, ResolveProvider(ProviderQdrant, nil))
	assert.Equal(t, ProviderRedis, ResolveProvider(ProviderRedis, nil))
	assert.Equal(t, ProviderInMemory, ResolveProvider("", nil))
}
