package convstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/smartrag/smartrag-core/internal/ragerr"
	"github.com/smartrag/smartrag-core/internal/xjson"
	"github.com/smartrag/smartrag-core/pkg/ragtypes"
)

// FileSystem stores one JSON file per session under dir, for the
// ConversationStorageProvider FileSystem option (spec.md §6). A process-
// wide mutex set keyed by sessionID gives the same reader-many/writer-one
// guarantee InMemory provides; file-level locking is unnecessary since
// this process is the only writer.
type FileSystem struct {
	dir string

	mu    sync.Mutex
	locks map[string]*sync.RWMutex
}

func NewFileSystem(dir string) (*FileSystem, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: %v", ragerr.ErrStoreUnavailable, err)
	}
	return &FileSystem{dir: dir, locks: map[string]*sync.RWMutex{}}, nil
}

func (f *FileSystem) lockFor(sessionID string) *sync.RWMutex {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.locks[sessionID]
	if !ok {
		l = &sync.RWMutex{}
		f.locks[sessionID] = l
	}
	return l
}

func (f *FileSystem) path(sessionID string) string {
	return filepath.Join(f.dir, sessionID+".json")
}

func (f *FileSystem) GetHistory(_ context.Context, sessionID string) ([]ragtypes.Turn, error) {
	l := f.lockFor(sessionID)
	l.RLock()
	defer l.RUnlock()
	return f.readLocked(sessionID)
}

func (f *FileSystem) readLocked(sessionID string) ([]ragtypes.Turn, error) {
	data, err := os.ReadFile(f.path(sessionID))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ragerr.ErrStoreUnavailable, err)
	}
	var turns []ragtypes.Turn
	if err := xjson.Unmarshal(data, &turns); err != nil {
		return nil, fmt.Errorf("%w: %v", ragerr.ErrStoreUnavailable, err)
	}
	return turns, nil
}

func (f *FileSystem) Append(_ context.Context, sessionID string, turn ragtypes.Turn) error {
	l := f.lockFor(sessionID)
	l.Lock()
	defer l.Unlock()

	turns, err := f.readLocked(sessionID)
	if err != nil {
		return err
	}
	if turn.Timestamp.IsZero() {
		turn.Timestamp = time.Now()
	}
	turns = append(turns, turn)
	data, err := xjson.Marshal(turns)
	if err != nil {
		return fmt.Errorf("%w: %v", ragerr.ErrStoreUnavailable, err)
	}
	if err := os.WriteFile(f.path(sessionID), data, 0o644); err != nil {
		return fmt.Errorf("%w: %v", ragerr.ErrStoreUnavailable, err)
	}
	return nil
}

func (f *FileSystem) GetSourcesForSession(ctx context.Context, sessionID string) ([]ragtypes.SearchSource, error) {
	turns, err := f.GetHistory(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	var out []ragtypes.SearchSource
	for _, t := range turns {
		out = append(out, t.SourcesForTurn...)
	}
	return out, nil
}

func (f *FileSystem) GetAllSessionIDs(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ragerr.ErrStoreUnavailable, err)
	}
	var ids []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".json") {
			ids = append(ids, strings.TrimSuffix(e.Name(), ".json"))
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (f *FileSystem) GetSessionTimestamps(ctx context.Context, sessionID string) (time.Time, time.Time, error) {
	turns, err := f.GetHistory(ctx, sessionID)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if len(turns) == 0 {
		return time.Time{}, time.Time{}, nil
	}
	return turns[0].Timestamp, turns[len(turns)-1].Timestamp, nil
}

func (f *FileSystem) SessionExists(ctx context.Context, sessionID string) (bool, error) {
	turns, err := f.GetHistory(ctx, sessionID)
	if err != nil {
		return false, err
	}
	return len(turns) > 0, nil
}
