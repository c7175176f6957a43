package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const defaultLocalDBName = "fhe_poker_history.db"

type SQLiteService struct {
	db     *sql.DB
	recent int
}

func NewSQLiteServiceFromEnv() (*SQLiteService, error) {
	dbPath := strings.TrimSpace(os.Getenv("HISTORY_SQLITE_PATH"))
	if dbPath == "" {
		dbPath = filepath.Join("data", defaultLocalDBName)
	}
	return NewSQLiteService(dbPath)
}

func NewSQLiteService(dbPath string) (*SQLiteService, error) {
	dbPath = strings.TrimSpace(dbPath)
	if dbPath == "" {
		return nil, fmt.Errorf("empty sqlite database path")
	}
	if dbPath != ":memory:" {
		parent := filepath.Dir(dbPath)
		if parent != "" && parent != "." {
			if err := os.MkdirAll(parent, 0o755); err != nil {
				return nil, err
			}
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, pragma := range []string{
		`PRAGMA busy_timeout = 5000;`,
		`PRAGMA journal_mode = WAL;`,
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS hand_history (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    hand_id TEXT NOT NULL,
    table_id INTEGER NOT NULL,
    hand_no INTEGER NOT NULL DEFAULT 0,
    winner_seat INTEGER NOT NULL DEFAULT -1,
    winner_addr TEXT NOT NULL DEFAULT '',
    pot INTEGER NOT NULL DEFAULT 0,
    played_at TIMESTAMP NOT NULL,
    summary_json TEXT NOT NULL DEFAULT '{}',
    UNIQUE (table_id, hand_id)
);
CREATE INDEX IF NOT EXISTS idx_hand_history_table_played
    ON hand_history (table_id, played_at DESC);
`); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &SQLiteService{
		db:     db,
		recent: envIntOrDefault("HISTORY_RECENT_LIMIT", defaultRecentLimit),
	}, nil
}

func (s *SQLiteService) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteService) RecordHand(ctx context.Context, rec HandRecord) (string, error) {
	normalizeRecord(&rec)
	summaryRaw, err := json.Marshal(rec.Summary)
	if err != nil {
		return "", err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
INSERT INTO hand_history (
    hand_id, table_id, hand_no, winner_seat, winner_addr, pot, played_at, summary_json
)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (table_id, hand_id) DO UPDATE
SET
    winner_seat = excluded.winner_seat,
    winner_addr = excluded.winner_addr,
    pot = excluded.pot,
    played_at = excluded.played_at,
    summary_json = excluded.summary_json
`, rec.HandID, rec.TableID, rec.HandNo, rec.WinnerSeat, rec.WinnerAddr, rec.Pot, rec.PlayedAt.UTC(), string(summaryRaw)); err != nil {
		return "", err
	}

	if s.recent > 0 {
		if _, err := tx.ExecContext(ctx, `
DELETE FROM hand_history
WHERE table_id = ?
  AND id IN (
      SELECT id
      FROM hand_history
      WHERE table_id = ?
      ORDER BY played_at DESC, id DESC
      LIMIT -1 OFFSET ?
  )
`, rec.TableID, rec.TableID, s.recent); err != nil {
			return "", err
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return rec.HandID, nil
}

func (s *SQLiteService) ListRecent(ctx context.Context, tableID uint64, limit int) ([]HandRecord, error) {
	limit = clampLimit(limit)
	rows, err := s.db.QueryContext(ctx, `
SELECT hand_id, table_id, hand_no, winner_seat, winner_addr, pot, played_at, summary_json
FROM hand_history
WHERE table_id = ?
ORDER BY played_at DESC, id DESC
LIMIT ?
`, tableID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRecords(rows, limit)
}

func scanRecords(rows *sql.Rows, limit int) ([]HandRecord, error) {
	items := make([]HandRecord, 0, limit)
	for rows.Next() {
		var rec HandRecord
		var summaryRaw []byte
		if err := rows.Scan(&rec.HandID, &rec.TableID, &rec.HandNo, &rec.WinnerSeat,
			&rec.WinnerAddr, &rec.Pot, &rec.PlayedAt, &summaryRaw); err != nil {
			return nil, err
		}
		if len(summaryRaw) > 0 {
			_ = json.Unmarshal(summaryRaw, &rec.Summary)
		}
		if rec.Summary == nil {
			rec.Summary = map[string]any{}
		}
		items = append(items, rec)
	}
	return items, rows.Err()
}
