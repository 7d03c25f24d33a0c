package convstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/smartrag/smartrag-core/internal/ragerr"
	"github.com/smartrag/smartrag-core/internal/xjson"
	"github.com/smartrag/smartrag-core/pkg/ragtypes"
)

// Redis stores each session's turn log as a single JSON-encoded list key,
// grounded on go-enhanced-rag-service/memory_engine.go's redis-backed
// interaction cache. A per-sessionID key keeps reads/writes for the same
// session naturally serialized by Redis's own per-key command ordering,
// satisfying spec.md §5's reader-many/writer-one guarantee without an
// additional application-level lock.
type Redis struct {
	client *redis.Client
	prefix string
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client, prefix: "smartrag:session:"}
}

func (r *Redis) key(sessionID string) string { return r.prefix + sessionID }

func (r *Redis) GetHistory(ctx context.Context, sessionID string) ([]ragtypes.Turn, error) {
	raw, err := r.client.Get(ctx, r.key(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ragerr.ErrStoreUnavailable, err)
	}
	var turns []ragtypes.Turn
	if err := xjson.Unmarshal(raw, &turns); err != nil {
		return nil, fmt.Errorf("%w: %v", ragerr.ErrStoreUnavailable, err)
	}
	return turns, nil
}

func (r *Redis) Append(ctx context.Context, sessionID string, turn ragtypes.Turn) error {
	if turn.Timestamp.IsZero() {
		turn.Timestamp = time.Now()
	}
	turns, err := r.GetHistory(ctx, sessionID)
	if err != nil {
		return err
	}
	turns = append(turns, turn)
	data, err := xjson.Marshal(turns)
	if err != nil {
		return fmt.Errorf("%w: %v", ragerr.ErrStoreUnavailable, err)
	}
	if err := r.client.Set(ctx, r.key(sessionID), data, 0).Err(); err != nil {
		return fmt.Errorf("%w: %v", ragerr.ErrStoreUnavailable, err)
	}
	return nil
}

func (r *Redis) GetSourcesForSession(ctx context.Context, sessionID string) ([]ragtypes.SearchSource, error) {
	turns, err := r.GetHistory(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	var out []ragtypes.SearchSource
	for _, t := range turns {
		out = append(out, t.SourcesForTurn...)
	}
	return out, nil
}

func (r *Redis) GetAllSessionIDs(ctx context.Context) ([]string, error) {
	var ids []string
	iter := r.client.Scan(ctx, 0, r.prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		ids = append(ids, iter.Val()[len(r.prefix):])
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ragerr.ErrStoreUnavailable, err)
	}
	return ids, nil
}

func (r *Redis) GetSessionTimestamps(ctx context.Context, sessionID string) (time.Time, time.Time, error) {
	turns, err := r.GetHistory(ctx, sessionID)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if len(turns) == 0 {
		return time.Time{}, time.Time{}, nil
	}
	return turns[0].Timestamp, turns[len(turns)-1].Timestamp, nil
}

func (r *Redis) SessionExists(ctx context.Context, sessionID string) (bool, error) {
	n, err := r.client.Exists(ctx, r.key(sessionID)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ragerr.ErrStoreUnavailable, err)
	}
	return n > 0, nil
}
