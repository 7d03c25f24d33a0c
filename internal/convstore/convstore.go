// Package convstore implements the ConversationRepository collaborator of
// spec.md §4/§6: per-session turn history with reader-many/writer-one
// ordering (spec.md §5). Grounded on go-enhanced-rag-service/memory_engine.go's
// gorm+redis interaction log, generalized from its CUDA-specific memory
// degrees into the plain append-only Turn log the spec calls for.
package convstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/smartrag/smartrag-core/pkg/ragtypes"
)

// Repository is the ConversationRepository collaborator (spec.md §6).
type Repository interface {
	GetHistory(ctx context.Context, sessionID string) ([]ragtypes.Turn, error)
	Append(ctx context.Context, sessionID string, turn ragtypes.Turn) error
	GetSourcesForSession(ctx context.Context, sessionID string) ([]ragtypes.SearchSource, error)
	GetAllSessionIDs(ctx context.Context) ([]string, error)
	GetSessionTimestamps(ctx context.Context, sessionID string) (first, last time.Time, err error)
	SessionExists(ctx context.Context, sessionID string) (bool, error)
}

// InMemory is a process-local Repository. A per-session mutex gives each
// session reader-many/writer-one semantics (spec.md §5) without
// serializing unrelated sessions against each other.
type InMemory struct {
	mu       sync.RWMutex
	sessions map[string]*sessionLock
}

type sessionLock struct {
	mu    sync.RWMutex
	turns []ragtypes.Turn
}

func NewInMemory() *InMemory {
	return &InMemory{sessions: map[string]*sessionLock{}}
}

func (m *InMemory) sessionFor(id string) *sessionLock {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if ok {
		return s
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok {
		return s
	}
	s = &sessionLock{}
	m.sessions[id] = s
	return s
}

func (m *InMemory) GetHistory(_ context.Context, sessionID string) ([]ragtypes.Turn, error) {
	s := m.sessionFor(sessionID)
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ragtypes.Turn, len(s.turns))
	copy(out, s.turns)
	return out, nil
}

func (m *InMemory) Append(_ context.Context, sessionID string, turn ragtypes.Turn) error {
	s := m.sessionFor(sessionID)
	s.mu.Lock()
	defer s.mu.Unlock()
	if turn.Timestamp.IsZero() {
		turn.Timestamp = time.Now()
	}
	s.turns = append(s.turns, turn)
	return nil
}

func (m *InMemory) GetSourcesForSession(ctx context.Context, sessionID string) ([]ragtypes.SearchSource, error) {
	turns, err := m.GetHistory(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	var out []ragtypes.SearchSource
	for _, t := range turns {
		out = append(out, t.SourcesForTurn...)
	}
	return out, nil
}

func (m *InMemory) GetAllSessionIDs(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}

func (m *InMemory) GetSessionTimestamps(_ context.Context, sessionID string) (time.Time, time.Time, error) {
	s := m.sessionFor(sessionID)
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.turns) == 0 {
		return time.Time{}, time.Time{}, nil
	}
	return s.turns[0].Timestamp, s.turns[len(s.turns)-1].Timestamp, nil
}

func (m *InMemory) SessionExists(_ context.Context, sessionID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return false, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.turns) > 0, nil
}
