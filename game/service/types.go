package service

import (
	"time"

	"github.com/wricardo/puzzlebox/game/engine"
)

// Event types
const (
	EventMove     = "move"
	EventMerge    = "merge"
	EventSpawn    = "spawn"
	EventWin      = "win"
	EventGameOver = "game_over"
	EventFlip     = "flip"
	EventMatch    = "match"
	EventMismatch = "mismatch"
	EventHide     = "hide"
	EventRestart  = "restart"
)

// Select rejection reasons
const (
	ReasonLocked         = "locked"
	ReasonMatched        = "already_matched"
	ReasonAlreadyFlipped = "already_flipped"
	ReasonUnknownTile    = "unknown_tile"
)

// SessionInfo provides information about a game session
type SessionInfo struct {
	ID             string             `json:"id"`
	ConfigID       string             `json:"config_id"`
	Kind           engine.GameKind    `json:"kind"`
	CreatedAt      time.Time          `json:"created_at"`
	LastAccessedAt time.Time          `json:"last_accessed_at"`
	GameState      *engine.GameState  `json:"game_state,omitempty"`
	MatchState     *engine.MatchState `json:"match_state,omitempty"`
	GameConfig     *engine.GameConfig `json:"game_config"`
}

// Snapshot is the full state of a session after an event. Exactly one of
// GameState and MatchState is set, matching Kind.
type Snapshot struct {
	SessionID  string             `json:"session_id"`
	Kind       engine.GameKind    `json:"kind"`
	GameState  *engine.GameState  `json:"game_state,omitempty"`
	MatchState *engine.MatchState `json:"match_state,omitempty"`
	Events     []GameEvent        `json:"events,omitempty"`
}

// MoveResult contains the result of a move on a merge session
type MoveResult struct {
	Accepted      bool              `json:"accepted"`
	GameState     *engine.GameState `json:"game_state"`
	Message       string            `json:"message"`
	Events        []GameEvent       `json:"events,omitempty"`
	Turn          *engine.Turn      `json:"turn,omitempty"`
	PossibleMoves []string          `json:"possible_moves"`
}

// SelectResult contains the result of a tile selection on a match session
type SelectResult struct {
	Accepted    bool                 `json:"accepted"`
	Outcome     engine.SelectOutcome `json:"outcome"`
	Reason      string               `json:"reason,omitempty"`
	MatchState  *engine.MatchState   `json:"match_state"`
	Message     string               `json:"message"`
	Events      []GameEvent          `json:"events,omitempty"`
	HideAfterMS int                  `json:"hide_after_ms,omitempty"` // set on mismatch
}

// GameEvent represents something that happened during play
type GameEvent struct {
	ID        string           `json:"id"`
	Type      string           `json:"type"`
	Message   string           `json:"message"`
	Timestamp time.Time        `json:"timestamp"`
	Position  *engine.Position `json:"position,omitempty"`
	Value     int              `json:"value,omitempty"`
	TileIDs   []int            `json:"tile_ids,omitempty"`
}

// HistoryOptions configures move history retrieval
type HistoryOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
}

// HistoryResponse contains paginated move history
type HistoryResponse struct {
	Moves       []engine.MoveHistoryEntry `json:"moves"`
	TotalMoves  int                       `json:"total_moves"`
	Page        int                       `json:"page"`
	PageSize    int                       `json:"page_size"`
	TotalPages  int                       `json:"total_pages"`
	HasNext     bool                      `json:"has_next"`
	HasPrevious bool                      `json:"has_previous"`
}

// ConfigInfo provides information about a preset
type ConfigInfo struct {
	Filename    string          `json:"filename,omitempty"` // empty for built-in presets
	ConfigID    string          `json:"config_id"`          // The identifier to use for session creation
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Kind        engine.GameKind `json:"kind"`
	Pairs       int             `json:"pairs,omitempty"`
	HideDelayMS int             `json:"hide_delay_ms,omitempty"`
}
