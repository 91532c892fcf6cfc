// Package store implements the persistence collaborators for terminal
// states: the Postgres match archive and the Redis rating store.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"github.com/JoshuaCandia/custom-chess/pkg/game"
)

// MatchStore archives finished matches in Postgres. It implements
// game.MatchRecorder.
type MatchStore struct {
	db *sql.DB
}

// NewMatchStore opens a connection pool against databaseURL and verifies it.
func NewMatchStore(databaseURL string) (*MatchStore, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("store: database url is required")
	}

	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(16)
	db.SetMaxIdleConns(8)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	return &MatchStore{db: db}, nil
}

// Close releases the connection pool.
func (s *MatchStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// RecordMatch upserts a finished match. Replays of the same room id
// overwrite rather than duplicate.
func (s *MatchStore) RecordMatch(ctx context.Context, rec game.MatchRecord) error {
	q := `INSERT INTO matches (
	    room_id, white_id, white_name, black_id, black_name,
	    winner, reason, move_count, time_limit_ms, started_at, ended_at
	  ) VALUES (
	    $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11
	  ) ON CONFLICT (room_id) DO UPDATE SET
	    white_id=EXCLUDED.white_id,
	    white_name=EXCLUDED.white_name,
	    black_id=EXCLUDED.black_id,
	    black_name=EXCLUDED.black_name,
	    winner=EXCLUDED.winner,
	    reason=EXCLUDED.reason,
	    move_count=EXCLUDED.move_count,
	    time_limit_ms=EXCLUDED.time_limit_ms,
	    started_at=EXCLUDED.started_at,
	    ended_at=EXCLUDED.ended_at`

	_, err := s.db.ExecContext(ctx, q,
		rec.RoomID,
		rec.WhiteID, rec.WhiteName,
		rec.BlackID, rec.BlackName,
		rec.Winner, rec.Reason,
		rec.MoveCount, rec.TimeLimitMs,
		rec.StartedAt, rec.EndedAt,
	)
	return err
}
