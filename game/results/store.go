package results

import (
	"context"
	"errors"
	"time"

	"github.com/wricardo/puzzlebox/game/engine"
)

// Outcome values
const (
	OutcomeWon  = "won"
	OutcomeOver = "over"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

var ErrInvalidResult = errors.New("invalid result")

// Result is one finished round
type Result struct {
	ID         int64           `json:"id"`
	SessionID  string          `json:"session_id"`
	Kind       engine.GameKind `json:"kind"`
	ConfigID   string          `json:"config_id"`
	Outcome    string          `json:"outcome"`
	Score      int             `json:"score"`
	MaxTile    int             `json:"max_tile,omitempty"`
	Moves      int             `json:"moves"` // accepted moves, or pair attempts for match rounds
	Duration   time.Duration   `json:"duration"`
	FinishedAt time.Time       `json:"finished_at"`
}

// Query filters a listing. A zero Kind matches every kind.
type Query struct {
	Kind     engine.GameKind `json:"kind,omitempty"`
	ConfigID string          `json:"config_id,omitempty"`
	Limit    int             `json:"limit,omitempty"`
}

// Store keeps finished rounds. Listings are ordered best first: highest
// score, then fewest moves, then earliest finish.
type Store interface {
	Record(ctx context.Context, r *Result) error
	List(ctx context.Context, q Query) ([]Result, error)
	Close(ctx context.Context) error
}

func validate(r *Result) error {
	if r == nil {
		return ErrInvalidResult
	}
	if r.SessionID == "" || r.Kind == "" {
		return ErrInvalidResult
	}
	if r.Outcome != OutcomeWon && r.Outcome != OutcomeOver {
		return ErrInvalidResult
	}
	return nil
}

func (q Query) limit() int {
	switch {
	case q.Limit <= 0:
		return DefaultLimit
	case q.Limit > MaxLimit:
		return MaxLimit
	default:
		return q.Limit
	}
}

// better reports whether a ranks before b
func better(a, b Result) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if a.Moves != b.Moves {
		return a.Moves < b.Moves
	}
	return a.FinishedAt.Before(b.FinishedAt)
}
