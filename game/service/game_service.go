package service

import (
	"context"
	"errors"
	"time"

	"github.com/wricardo/puzzlebox/game/engine"
	"github.com/wricardo/puzzlebox/game/results"
)

var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrConfigNotFound   = errors.New("configuration not found")
	ErrWrongGameKind    = errors.New("operation not supported by this game")
	ErrInvalidDirection = errors.New("invalid direction")
)

// GameService defines all game-related operations
type GameService interface {
	// Session Management
	CreateSession(ctx context.Context, configID string) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Game Operations
	Move(ctx context.Context, sessionID, direction string) (*MoveResult, error)
	Select(ctx context.Context, sessionID string, tileID int) (*SelectResult, error)
	Restart(ctx context.Context, sessionID string) (*Snapshot, error)

	// Game State
	GetState(ctx context.Context, sessionID string) (*Snapshot, error)
	GetMoveHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error)

	// Configuration
	ListConfigs(ctx context.Context) ([]*ConfigInfo, error)
	LoadConfig(ctx context.Context, configID string) (*engine.GameConfig, error)
	SaveConfig(ctx context.Context, configID string, config *engine.GameConfig) error

	// Results
	ListResults(ctx context.Context, q results.Query) ([]results.Result, error)
}

// SessionManager defines session storage operations
type SessionManager interface {
	Create(id string, config *engine.GameConfig) (*Session, error)
	Get(id string) (*Session, error)
	GetOrCreate(id string, config *engine.GameConfig) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
}

// ConfigManager handles preset loading
type ConfigManager interface {
	LoadConfig(name string) (*engine.GameConfig, error)
	ListConfigs() ([]*ConfigInfo, error)
	GetDefault() *engine.GameConfig
	SaveConfig(name string, config *engine.GameConfig) error
}

// Scheduler runs f once after d. Scheduled calls are never cancelled.
type Scheduler interface {
	AfterFunc(d time.Duration, f func())
}

// Notifier receives the snapshot after every accepted change, including
// the delayed hide of a mismatched pair which happens outside any request.
// NotifySession is called with the service lock held, so snapshots arrive
// in the order the changes were applied. It must not call back into the
// service.
type Notifier interface {
	NotifySession(sessionID string, snapshot *Snapshot)
}

// Session represents an active game session. Exactly one of Grid and Match
// is set, matching Kind.
type Session struct {
	ID             string
	Kind           engine.GameKind
	ConfigID       string
	Config         *engine.GameConfig
	Grid           *engine.GridEngine
	Match          *engine.MatchEngine
	CreatedAt      time.Time
	LastAccessedAt time.Time
	RoundStartedAt time.Time
	Recorded       bool // a result was written for the current round
}

// StartRound marks the beginning of a new round
func (s *Session) StartRound(now time.Time) {
	s.RoundStartedAt = now
	s.Recorded = false
}

type timeScheduler struct{}

func (timeScheduler) AfterFunc(d time.Duration, f func()) {
	time.AfterFunc(d, f)
}

type nopNotifier struct{}

func (nopNotifier) NotifySession(string, *Snapshot) {}
