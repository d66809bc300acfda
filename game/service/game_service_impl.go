package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/wricardo/puzzlebox/game/engine"
	"github.com/wricardo/puzzlebox/game/results"
)

// gameServiceImpl implements the GameService interface. One mutex
// serialises every engine call and its notification, so each event runs to
// completion and is pushed before the next one starts.
type gameServiceImpl struct {
	sessions  SessionManager
	configs   ConfigManager
	results   results.Store
	scheduler Scheduler
	notifier  Notifier
	now       func() time.Time
	mu        sync.Mutex
}

// Option customises a game service
type Option func(*gameServiceImpl)

// WithScheduler replaces the wall-clock scheduler used for mismatch hides
func WithScheduler(s Scheduler) Option {
	return func(g *gameServiceImpl) { g.scheduler = s }
}

// WithNotifier sets the receiver of state snapshots
func WithNotifier(n Notifier) Option {
	return func(g *gameServiceImpl) { g.notifier = n }
}

// WithResults sets the store finished rounds are written to
func WithResults(store results.Store) Option {
	return func(g *gameServiceImpl) { g.results = store }
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(g *gameServiceImpl) { g.now = now }
}

// NewGameService creates a new game service instance
func NewGameService(sessions SessionManager, configs ConfigManager, opts ...Option) GameService {
	s := &gameServiceImpl{
		sessions:  sessions,
		configs:   configs,
		results:   results.NewMemoryStore(),
		scheduler: timeScheduler{},
		notifier:  nopNotifier{},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// configIDFor returns the preset id for a display name, used when a session
// was created from the default preset
func (s *gameServiceImpl) configIDFor(name string) string {
	available, err := s.configs.ListConfigs()
	if err == nil {
		for _, cfg := range available {
			if cfg.Name == name {
				return cfg.ConfigID
			}
		}
	}
	if name == "" {
		return "default"
	}
	return name
}

func (s *gameServiceImpl) resolveConfig(configID string) (*engine.GameConfig, string, error) {
	if configID == "" {
		config := s.configs.GetDefault()
		return config, s.configIDFor(config.Name), nil
	}

	config, err := s.configs.LoadConfig(configID)
	if err == nil {
		return config, configID, nil
	}
	if !errors.Is(err, ErrConfigNotFound) {
		return nil, "", fmt.Errorf("failed to load config %s: %w", configID, err)
	}

	available, listErr := s.configs.ListConfigs()
	if listErr == nil && len(available) > 0 {
		ids := make([]string, 0, len(available))
		for _, cfg := range available {
			ids = append(ids, cfg.ConfigID)
		}
		return nil, "", fmt.Errorf("%w: '%s'. Available configs: %v", ErrConfigNotFound, configID, ids)
	}
	return nil, "", fmt.Errorf("%w: '%s'. Use /api/configs to list available configurations", ErrConfigNotFound, configID)
}

// session fetches a session and bumps its access time. Callers hold s.mu.
func (s *gameServiceImpl) session(sessionID string) (*Session, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", sessionID, err)
	}
	if err := s.sessions.UpdateLastAccessed(sess.ID); err != nil {
		log.Debug().Err(err).Str("session", sess.ID).Msg("update last accessed")
	}
	return sess, nil
}

// CreateSession creates a new game session
func (s *gameServiceImpl) CreateSession(ctx context.Context, configID string) (*SessionInfo, error) {
	config, id, err := s.resolveConfig(configID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Let session manager generate a proper 4-character ID
	sess, err := s.sessions.Create("", config)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	sess.ConfigID = id
	sess.StartRound(s.now())

	log.Info().Str("session", sess.ID).Str("kind", string(sess.Kind)).Str("config", id).Msg("session created")
	return s.sessionInfo(sess), nil
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	return s.sessionInfo(sess), nil
}

// ListSessions returns all active sessions, oldest first
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions := s.sessions.List()
	sort.Slice(sessions, func(i, j int) bool {
		if !sessions[i].CreatedAt.Equal(sessions[j].CreatedAt) {
			return sessions[i].CreatedAt.Before(sessions[j].CreatedAt)
		}
		return sessions[i].ID < sessions[j].ID
	})

	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, s.sessionInfo(sess))
	}
	return result, nil
}

// DeleteSession removes a session. A pending mismatch hide for it becomes
// a no-op, and a won round that was still being played is recorded.
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, err := s.sessions.Get(sessionID); err == nil {
		s.recordAbandonedWin(ctx, sess)
	}
	if err := s.sessions.Delete(sessionID); err != nil {
		return fmt.Errorf("delete session %s: %w", sessionID, err)
	}
	log.Info().Str("session", sessionID).Msg("session deleted")
	return nil
}

// Move slides the tiles of a merge session
func (s *gameServiceImpl) Move(ctx context.Context, sessionID, direction string) (*MoveResult, error) {
	d, err := engine.ParseDirection(direction)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDirection, direction)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Grid == nil {
		return nil, fmt.Errorf("%w: session %s plays %s, move needs %s", ErrWrongGameKind, sess.ID, sess.Kind, engine.KindMerge)
	}

	wasWon := sess.Grid.State().IsWon
	accepted := sess.Grid.Move(d)
	state := sess.Grid.State()

	result := &MoveResult{
		Accepted:      accepted,
		GameState:     &state,
		PossibleMoves: directionNames(sess.Grid.PossibleMoves()),
	}

	if !accepted {
		if state.IsOver {
			result.Message = fmt.Sprintf("Game over with a score of %d. Restart to play again.", state.Score)
		} else {
			result.Message = fmt.Sprintf("Moving %s changes nothing", d)
		}
		log.Debug().Str("session", sess.ID).Str("direction", string(d)).Msg("move ignored")
		return result, nil
	}

	result.Turn = sess.Grid.LastTurn()
	result.Events = s.moveEvents(result.Turn, state, wasWon)
	switch {
	case state.IsOver:
		result.Message = fmt.Sprintf("No moves left. Final score: %d", state.Score)
	case state.IsWon && !wasWon:
		result.Message = "You made 2048! Keep going or restart."
	default:
		result.Message = fmt.Sprintf("Score: %d", state.Score)
	}

	// a won round keeps going, so it is recorded when it ends
	if state.IsOver {
		s.recordResult(ctx, sess, mergeOutcome(state), state.Score, state.MaxTile, state.Moves)
	}

	log.Debug().Str("session", sess.ID).Str("direction", string(d)).Int("score", state.Score).Msg("move")
	s.notifier.NotifySession(sess.ID, &Snapshot{SessionID: sess.ID, Kind: sess.Kind, GameState: &state, Events: result.Events})
	return result, nil
}

func mergeOutcome(state engine.GameState) string {
	if state.IsWon {
		return results.OutcomeWon
	}
	return results.OutcomeOver
}

// recordAbandonedWin records a won merge round that is restarted or
// deleted before it reaches game over. Callers hold s.mu.
func (s *gameServiceImpl) recordAbandonedWin(ctx context.Context, sess *Session) {
	if sess.Grid == nil {
		return
	}
	if state := sess.Grid.State(); state.IsWon {
		s.recordResult(ctx, sess, results.OutcomeWon, state.Score, state.MaxTile, state.Moves)
	}
}

func (s *gameServiceImpl) moveEvents(turn *engine.Turn, state engine.GameState, wasWon bool) []GameEvent {
	events := []GameEvent{s.event(EventMove, fmt.Sprintf("Slid %s", turn.Direction))}

	for _, v := range turn.Merges {
		ev := s.event(EventMerge, fmt.Sprintf("Merged into %d", v))
		ev.Value = v
		events = append(events, ev)
	}

	if turn.Spawned != nil {
		ev := s.event(EventSpawn, fmt.Sprintf("A %d appeared at row %d, column %d", turn.SpawnedAs, turn.Spawned.Row, turn.Spawned.Col))
		pos := *turn.Spawned
		ev.Position = &pos
		ev.Value = turn.SpawnedAs
		events = append(events, ev)
	}

	if state.IsWon && !wasWon {
		ev := s.event(EventWin, fmt.Sprintf("Reached %d", engine.WinValue))
		ev.Value = engine.WinValue
		events = append(events, ev)
	}
	if state.IsOver {
		ev := s.event(EventGameOver, fmt.Sprintf("No moves left. Final score: %d", state.Score))
		ev.Value = state.Score
		events = append(events, ev)
	}
	return events
}

// Select flips a tile of a match session
func (s *gameServiceImpl) Select(ctx context.Context, sessionID string, tileID int) (*SelectResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Match == nil {
		return nil, fmt.Errorf("%w: session %s plays %s, select needs %s", ErrWrongGameKind, sess.ID, sess.Kind, engine.KindMatch)
	}

	before := sess.Match.State()
	outcome, token := sess.Match.Select(tileID)
	state := sess.Match.State()

	result := &SelectResult{
		Accepted:   outcome != engine.SelectRejected,
		Outcome:    outcome,
		MatchState: &state,
	}

	flip := s.event(EventFlip, fmt.Sprintf("Tile %d shows %s", tileID, symbolOf(state.Deck, tileID)))
	flip.TileIDs = []int{tileID}

	switch outcome {
	case engine.SelectRejected:
		result.Reason = rejectReason(before, tileID)
		result.Message = rejectMessage(result.Reason, tileID)
		log.Debug().Str("session", sess.ID).Int("tile", tileID).Str("reason", result.Reason).Msg("select ignored")
		return result, nil

	case engine.SelectFlipped:
		result.Message = "Pick a second tile"
		result.Events = []GameEvent{flip}

	case engine.SelectMatch:
		match := s.event(EventMatch, fmt.Sprintf("Found a pair of %s", symbolOf(state.Deck, tileID)))
		match.TileIDs = []int{before.Flipped[0], tileID}
		result.Events = []GameEvent{flip, match}
		result.Message = fmt.Sprintf("Match! %d of %d pairs found", len(state.Matched)/2, len(state.Deck)/2)

		if state.IsWon {
			win := s.event(EventWin, fmt.Sprintf("All pairs found in %d attempts", state.Attempts))
			win.Value = state.Attempts
			result.Events = append(result.Events, win)
			result.Message = fmt.Sprintf("You found every pair in %d attempts!", state.Attempts)
			s.recordResult(ctx, sess, results.OutcomeWon, len(state.Matched)/2, 0, state.Attempts)
		}

	case engine.SelectMismatch:
		delay := sess.Config.HideDelay()
		mismatch := s.event(EventMismatch, "Not a pair")
		mismatch.TileIDs = append([]int(nil), state.Flipped...)
		result.Events = []GameEvent{flip, mismatch}
		result.Message = "Not a pair"
		result.HideAfterMS = int(delay.Milliseconds())
		s.scheduleHide(sess, *token, delay)
	}

	log.Debug().Str("session", sess.ID).Int("tile", tileID).Str("outcome", string(outcome)).Msg("select")
	s.notifier.NotifySession(sess.ID, &Snapshot{SessionID: sess.ID, Kind: sess.Kind, MatchState: &state, Events: result.Events})
	return result, nil
}

// scheduleHide arranges for the mismatched pair to turn face-down after
// delay. The callback only applies to the same engine and the same token.
func (s *gameServiceImpl) scheduleHide(sess *Session, token engine.HideToken, delay time.Duration) {
	sessionID, match := sess.ID, sess.Match
	s.scheduler.AfterFunc(delay, func() {
		s.resolveMismatch(sessionID, match, token)
	})
}

func (s *gameServiceImpl) resolveMismatch(sessionID string, match *engine.MatchEngine, token engine.HideToken) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil || sess.Match != match {
		log.Debug().Str("session", sessionID).Msg("hide skipped: session gone")
		return
	}

	hidden := match.State().Flipped
	if !match.ResolveMismatch(token) {
		log.Debug().Str("session", sessionID).Int("epoch", token.Epoch).Int("seq", token.Seq).Msg("hide skipped: stale token")
		return
	}

	state := match.State()
	ev := s.event(EventHide, "Tiles turned face-down")
	ev.TileIDs = hidden
	s.notifier.NotifySession(sess.ID, &Snapshot{SessionID: sess.ID, Kind: sess.Kind, MatchState: &state, Events: []GameEvent{ev}})
}

// Restart starts a new round on the session's preset
func (s *gameServiceImpl) Restart(ctx context.Context, sessionID string) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	s.recordAbandonedWin(ctx, sess)

	snapshot := &Snapshot{SessionID: sess.ID, Kind: sess.Kind}
	switch {
	case sess.Grid != nil:
		state := sess.Grid.Restart()
		snapshot.GameState = &state
	case sess.Match != nil:
		state := sess.Match.Restart()
		snapshot.MatchState = &state
	}
	sess.StartRound(s.now())
	snapshot.Events = []GameEvent{s.event(EventRestart, "New game started")}

	log.Info().Str("session", sess.ID).Str("kind", string(sess.Kind)).Msg("game restarted")
	s.notifier.NotifySession(sess.ID, snapshot)
	return snapshot, nil
}

// GetState returns the current snapshot
func (s *gameServiceImpl) GetState(ctx context.Context, sessionID string) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	info := s.sessionInfo(sess)
	return &Snapshot{
		SessionID:  sess.ID,
		Kind:       sess.Kind,
		GameState:  info.GameState,
		MatchState: info.MatchState,
	}, nil
}

// GetMoveHistory returns paginated move history
func (s *gameServiceImpl) GetMoveHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	var history []engine.MoveHistoryEntry
	if sess.Grid != nil {
		history = sess.Grid.History()
	} else if sess.Match != nil {
		history = sess.Match.History()
	}
	return paginate(history, opts), nil
}

func paginate(history []engine.MoveHistoryEntry, opts HistoryOptions) *HistoryResponse {
	total := len(history)

	// Apply defaults
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Limit > 100 {
		opts.Limit = 100
	}
	if opts.Order != "asc" {
		opts.Order = "desc"
	}

	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	start := (opts.Page - 1) * opts.Limit
	end := start + opts.Limit
	if end > total {
		end = total
	}

	moves := []engine.MoveHistoryEntry{}
	if start < total {
		if opts.Order == "desc" {
			// most recent first
			for i := total - 1 - start; i >= total-end; i-- {
				moves = append(moves, history[i])
			}
		} else {
			moves = append(moves, history[start:end]...)
		}
	}

	return &HistoryResponse{
		Moves:       moves,
		TotalMoves:  total,
		Page:        opts.Page,
		PageSize:    opts.Limit,
		TotalPages:  totalPages,
		HasNext:     opts.Page < totalPages,
		HasPrevious: opts.Page > 1,
	}
}

// ListConfigs returns available presets
func (s *gameServiceImpl) ListConfigs(ctx context.Context) ([]*ConfigInfo, error) {
	return s.configs.ListConfigs()
}

// LoadConfig loads a specific preset
func (s *gameServiceImpl) LoadConfig(ctx context.Context, configID string) (*engine.GameConfig, error) {
	return s.configs.LoadConfig(configID)
}

// SaveConfig saves a preset to disk
func (s *gameServiceImpl) SaveConfig(ctx context.Context, configID string, config *engine.GameConfig) error {
	return s.configs.SaveConfig(configID, config)
}

// ListResults returns finished rounds, best first
func (s *gameServiceImpl) ListResults(ctx context.Context, q results.Query) ([]results.Result, error) {
	list, err := s.results.List(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	return list, nil
}

// recordResult writes the outcome of the current round once. Callers hold s.mu.
func (s *gameServiceImpl) recordResult(ctx context.Context, sess *Session, outcome string, score, maxTile, moves int) {
	if sess.Recorded {
		return
	}

	now := s.now()
	r := &results.Result{
		SessionID:  sess.ID,
		Kind:       sess.Kind,
		ConfigID:   sess.ConfigID,
		Outcome:    outcome,
		Score:      score,
		MaxTile:    maxTile,
		Moves:      moves,
		Duration:   now.Sub(sess.RoundStartedAt),
		FinishedAt: now,
	}
	if err := s.results.Record(ctx, r); err != nil {
		log.Error().Err(err).Str("session", sess.ID).Msg("record result")
		return
	}
	sess.Recorded = true
	log.Info().Str("session", sess.ID).Str("kind", string(sess.Kind)).Str("outcome", outcome).Int("score", score).Msg("round finished")
}

func (s *gameServiceImpl) event(typ, message string) GameEvent {
	return GameEvent{
		ID:        uuid.NewString(),
		Type:      typ,
		Message:   message,
		Timestamp: s.now(),
	}
}

func (s *gameServiceImpl) sessionInfo(sess *Session) *SessionInfo {
	info := &SessionInfo{
		ID:             sess.ID,
		ConfigID:       sess.ConfigID,
		Kind:           sess.Kind,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt,
		GameConfig:     sess.Config,
	}
	if info.ConfigID == "" && sess.Config != nil {
		info.ConfigID = s.configIDFor(sess.Config.Name)
	}
	if sess.Grid != nil {
		state := sess.Grid.State()
		info.GameState = &state
	}
	if sess.Match != nil {
		state := sess.Match.State()
		info.MatchState = &state
	}
	return info
}

func directionNames(dirs []engine.Direction) []string {
	names := make([]string, 0, len(dirs))
	for _, d := range dirs {
		names = append(names, string(d))
	}
	return names
}

func symbolOf(deck engine.Deck, id int) string {
	for _, t := range deck {
		if t.ID == id {
			return t.Symbol
		}
	}
	return ""
}

func rejectReason(before engine.MatchState, id int) string {
	if before.Locked {
		return ReasonLocked
	}
	for _, m := range before.Matched {
		if m == id {
			return ReasonMatched
		}
	}
	if symbolOf(before.Deck, id) == "" {
		return ReasonUnknownTile
	}
	return ReasonAlreadyFlipped
}

func rejectMessage(reason string, id int) string {
	switch reason {
	case ReasonLocked:
		return "Wait for the two tiles to turn back over"
	case ReasonMatched:
		return fmt.Sprintf("Tile %d is already matched", id)
	case ReasonUnknownTile:
		return fmt.Sprintf("There is no tile %d", id)
	default:
		return fmt.Sprintf("Tile %d is already face-up", id)
	}
}
