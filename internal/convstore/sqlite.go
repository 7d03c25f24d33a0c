package convstore

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/smartrag/smartrag-core/internal/ragerr"
	"github.com/smartrag/smartrag-core/internal/xjson"
	"github.com/smartrag/smartrag-core/pkg/ragtypes"
)

// turnRow is the gorm model backing SQLite, grounded on
// go-enhanced-rag-service/memory_engine.go's MemoryInteraction gorm model
// (session_id index, JSON-encoded payload column for the parts that don't
// need to be queried directly).
type turnRow struct {
	ID             uint   `gorm:"primaryKey"`
	SessionID      string `gorm:"index"`
	Question       string
	Answer         string
	SourcesForTurn []byte // JSON-encoded []ragtypes.SearchSource
	Timestamp      time.Time
}

func (turnRow) TableName() string { return "smartrag_turns" }

// SQLite is a gorm-backed Repository for the ConversationStorageProvider
// SQLite option (spec.md §6).
type SQLite struct {
	db *gorm.DB
}

func NewSQLite(db *gorm.DB) (*SQLite, error) {
	if err := db.AutoMigrate(&turnRow{}); err != nil {
		return nil, fmt.Errorf("%w: %v", ragerr.ErrStoreUnavailable, err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) GetHistory(ctx context.Context, sessionID string) ([]ragtypes.Turn, error) {
	var rows []turnRow
	if err := s.db.WithContext(ctx).Where("session_id = ?", sessionID).Order("timestamp asc").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", ragerr.ErrStoreUnavailable, err)
	}
	out := make([]ragtypes.Turn, 0, len(rows))
	for _, r := range rows {
		t := ragtypes.Turn{Question: r.Question, Answer: r.Answer, Timestamp: r.Timestamp}
		if len(r.SourcesForTurn) > 0 {
			_ = xjson.Unmarshal(r.SourcesForTurn, &t.SourcesForTurn)
		}
		out = append(out, t)
	}
	return out, nil
}

func (s *SQLite) Append(ctx context.Context, sessionID string, turn ragtypes.Turn) error {
	if turn.Timestamp.IsZero() {
		turn.Timestamp = time.Now()
	}
	sources, err := xjson.Marshal(turn.SourcesForTurn)
	if err != nil {
		return fmt.Errorf("%w: %v", ragerr.ErrStoreUnavailable, err)
	}
	row := turnRow{
		SessionID:      sessionID,
		Question:       turn.Question,
		Answer:         turn.Answer,
		SourcesForTurn: sources,
		Timestamp:      turn.Timestamp,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("%w: %v", ragerr.ErrStoreUnavailable, err)
	}
	return nil
}

func (s *SQLite) GetSourcesForSession(ctx context.Context, sessionID string) ([]ragtypes.SearchSource, error) {
	turns, err := s.GetHistory(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	var out []ragtypes.SearchSource
	for _, t := range turns {
		out = append(out, t.SourcesForTurn...)
	}
	return out, nil
}

func (s *SQLite) GetAllSessionIDs(ctx context.Context) ([]string, error) {
	var ids []string
	if err := s.db.WithContext(ctx).Model(&turnRow{}).Distinct().Pluck("session_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", ragerr.ErrStoreUnavailable, err)
	}
	return ids, nil
}

func (s *SQLite) GetSessionTimestamps(ctx context.Context, sessionID string) (time.Time, time.Time, error) {
	var first, last turnRow
	if err := s.db.WithContext(ctx).Where("session_id = ?", sessionID).Order("timestamp asc").First(&first).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return time.Time{}, time.Time{}, nil
		}
		return time.Time{}, time.Time{}, fmt.Errorf("%w: %v", ragerr.ErrStoreUnavailable, err)
	}
	if err := s.db.WithContext(ctx).Where("session_id = ?", sessionID).Order("timestamp desc").First(&last).Error; err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: %v", ragerr.ErrStoreUnavailable, err)
	}
	return first.Timestamp, last.Timestamp, nil
}

func (s *SQLite) SessionExists(ctx context.Context, sessionID string) (bool, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&turnRow{}).Where("session_id = ?", sessionID).Count(&n).Error; err != nil {
		return false, fmt.Errorf("%w: %v", ragerr.ErrStoreUnavailable, err)
	}
	return n > 0, nil
}
