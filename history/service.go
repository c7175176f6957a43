// Package history persists finished hands so the lobby can show what
// happened at a table. Backend selection follows HISTORY_STORE:
// memory (default), sqlite, or postgres.
package history

import (
	"context"
	"errors"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	defaultRecentLimit = 200
	maxListLimit       = 100
)

var ErrNotFound = errors.New("not found")

// HandRecord is one settled hand.
type HandRecord struct {
	HandID     string         `json:"hand_id"`
	TableID    uint64         `json:"table_id"`
	HandNo     int            `json:"hand_no"`
	WinnerSeat int            `json:"winner_seat"`
	WinnerAddr string         `json:"winner_addr"`
	Pot        uint64         `json:"pot"`
	PlayedAt   time.Time      `json:"played_at"`
	Summary    map[string]any `json:"summary"`
}

type Service interface {
	Close() error
	// RecordHand stores rec, assigning a HandID when empty.
	RecordHand(ctx context.Context, rec HandRecord) (string, error)
	// ListRecent returns the latest hands of a table, newest first.
	ListRecent(ctx context.Context, tableID uint64, limit int) ([]HandRecord, error)
}

// NewServiceFromEnv picks the backend by mode (falling back to the
// HISTORY_STORE env var) and reports which one was chosen.
func NewServiceFromEnv(mode string) (Service, string, error) {
	m := strings.ToLower(strings.TrimSpace(mode))
	if m == "" {
		m = strings.ToLower(strings.TrimSpace(os.Getenv("HISTORY_STORE")))
	}
	switch m {
	case "", "memory":
		return NewMemoryService(), "memory", nil
	case "local", "sqlite":
		s, err := NewSQLiteServiceFromEnv()
		if err != nil {
			return nil, "", err
		}
		return s, "sqlite", nil
	case "postgres":
		s, err := NewPostgresServiceFromEnv()
		if err != nil {
			return nil, "", err
		}
		return s, "postgres", nil
	default:
		return nil, "", errors.New("unknown HISTORY_STORE mode: " + m)
	}
}

// MemoryService keeps records per table, trimmed to the recent limit.
type MemoryService struct {
	mu     sync.Mutex
	byTbl  map[uint64][]HandRecord
	recent int
}

func NewMemoryService() *MemoryService {
	return &MemoryService{
		byTbl:  make(map[uint64][]HandRecord),
		recent: envIntOrDefault("HISTORY_RECENT_LIMIT", defaultRecentLimit),
	}
}

func (s *MemoryService) Close() error { return nil }

func (s *MemoryService) RecordHand(ctx context.Context, rec HandRecord) (string, error) {
	normalizeRecord(&rec)

	s.mu.Lock()
	defer s.mu.Unlock()
	recs := append(s.byTbl[rec.TableID], rec)
	sort.SliceStable(recs, func(i, j int) bool { return recs[i].PlayedAt.After(recs[j].PlayedAt) })
	if s.recent > 0 && len(recs) > s.recent {
		recs = recs[:s.recent]
	}
	s.byTbl[rec.TableID] = recs
	return rec.HandID, nil
}

func (s *MemoryService) ListRecent(ctx context.Context, tableID uint64, limit int) ([]HandRecord, error) {
	limit = clampLimit(limit)
	s.mu.Lock()
	defer s.mu.Unlock()
	recs := s.byTbl[tableID]
	if len(recs) > limit {
		recs = recs[:limit]
	}
	return append([]HandRecord{}, recs...), nil
}

func normalizeRecord(rec *HandRecord) {
	if strings.TrimSpace(rec.HandID) == "" {
		rec.HandID = uuid.NewString()
	}
	if rec.PlayedAt.IsZero() {
		rec.PlayedAt = time.Now().UTC()
	}
	if rec.Summary == nil {
		rec.Summary = map[string]any{}
	}
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > maxListLimit {
		return 20
	}
	return limit
}

func envIntOrDefault(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
