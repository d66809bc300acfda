package results

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"

	"github.com/wricardo/puzzlebox/game/engine"
)

const schema = `
CREATE TABLE IF NOT EXISTS results (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id  TEXT    NOT NULL,
	kind        TEXT    NOT NULL,
	config_id   TEXT    NOT NULL DEFAULT '',
	outcome     TEXT    NOT NULL,
	score       INTEGER NOT NULL,
	max_tile    INTEGER NOT NULL DEFAULT 0,
	moves       INTEGER NOT NULL,
	duration_ms INTEGER NOT NULL,
	finished_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS results_kind_score ON results (kind, score DESC, moves ASC);
`

// SQLiteStore keeps results in a SQLite database file
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if missing) the database at path and
// applies the schema
func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite allows a single writer
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	log.Info().Str("path", path).Msg("results database ready")
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Record(ctx context.Context, r *Result) error {
	if err := validate(r); err != nil {
		return fmt.Errorf("record result: %w", err)
	}
	if r.FinishedAt.IsZero() {
		r.FinishedAt = time.Now()
	}

	q := `
	INSERT INTO results (session_id, kind, config_id, outcome, score, max_tile, moves, duration_ms, finished_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?);
	`
	res, err := s.db.ExecContext(ctx, q,
		r.SessionID, string(r.Kind), r.ConfigID, r.Outcome, r.Score, r.MaxTile, r.Moves,
		r.Duration.Milliseconds(), r.FinishedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to insert result: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read result id: %w", err)
	}
	r.ID = id
	return nil
}

func (s *SQLiteStore) List(ctx context.Context, q Query) ([]Result, error) {
	var (
		where []string
		args  []any
	)
	if q.Kind != "" {
		where = append(where, "kind = ?")
		args = append(args, string(q.Kind))
	}
	if q.ConfigID != "" {
		where = append(where, "config_id = ?")
		args = append(args, q.ConfigID)
	}

	stmt := `SELECT id, session_id, kind, config_id, outcome, score, max_tile, moves, duration_ms, finished_at FROM results`
	if len(where) > 0 {
		stmt += " WHERE " + strings.Join(where, " AND ")
	}
	stmt += " ORDER BY score DESC, moves ASC, finished_at ASC, id ASC LIMIT ?"
	args = append(args, q.limit())

	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query results: %w", err)
	}
	defer rows.Close()

	out := []Result{}
	for rows.Next() {
		var (
			r          Result
			kind       string
			durationMS int64
			finishedMS int64
		)
		if err := rows.Scan(&r.ID, &r.SessionID, &kind, &r.ConfigID, &r.Outcome, &r.Score, &r.MaxTile, &r.Moves, &durationMS, &finishedMS); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		r.Kind = engine.GameKind(kind)
		r.Duration = time.Duration(durationMS) * time.Millisecond
		r.FinishedAt = time.UnixMilli(finishedMS)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read results: %w", err)
	}
	return out, nil
}

func (s *SQLiteStore) Close(ctx context.Context) error {
	return s.db.Close()
}
