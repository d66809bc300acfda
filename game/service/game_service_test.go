package service_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wricardo/puzzlebox/game/engine"
	"github.com/wricardo/puzzlebox/game/results"
	"github.com/wricardo/puzzlebox/game/service"
)

// MockSessionManager implements service.SessionManager for testing
type MockSessionManager struct {
	sessions map[string]*service.Session
	created  int
}

func NewMockSessionManager() *MockSessionManager {
	return &MockSessionManager{
		sessions: make(map[string]*service.Session),
	}
}

func (m *MockSessionManager) Create(id string, config *engine.GameConfig) (*service.Session, error) {
	m.created++
	if id == "" {
		id = fmt.Sprintf("t%03d", m.created)
	}
	if _, exists := m.sessions[id]; exists {
		return nil, fmt.Errorf("session %s already exists", id)
	}

	grid, match, err := engine.NewEngineForConfig(config, engine.NewRand(uint64(m.created)))
	if err != nil {
		return nil, err
	}

	now := time.Now()
	session := &service.Session{
		ID:             id,
		Kind:           config.Kind,
		Config:         config,
		Grid:           grid,
		Match:          match,
		CreatedAt:      now.Add(time.Duration(m.created) * time.Millisecond),
		LastAccessedAt: now,
	}
	m.sessions[id] = session
	return session, nil
}

func (m *MockSessionManager) Get(id string) (*service.Session, error) {
	session, exists := m.sessions[id]
	if !exists {
		return nil, fmt.Errorf("%w: %s", service.ErrSessionNotFound, id)
	}
	return session, nil
}

func (m *MockSessionManager) GetOrCreate(id string, config *engine.GameConfig) (*service.Session, error) {
	if session, exists := m.sessions[id]; exists {
		return session, nil
	}
	return m.Create(id, config)
}

func (m *MockSessionManager) List() []*service.Session {
	result := make([]*service.Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		result = append(result, session)
	}
	return result
}

func (m *MockSessionManager) Delete(id string) error {
	if _, exists := m.sessions[id]; !exists {
		return fmt.Errorf("%w: %s", service.ErrSessionNotFound, id)
	}
	delete(m.sessions, id)
	return nil
}

func (m *MockSessionManager) UpdateLastAccessed(id string) error {
	if session, exists := m.sessions[id]; exists {
		session.LastAccessedAt = time.Now()
	}
	return nil
}

// MockConfigManager serves a fixed set of presets
type MockConfigManager struct {
	configs map[string]*engine.GameConfig
}

func NewMockConfigManager() *MockConfigManager {
	return &MockConfigManager{
		configs: map[string]*engine.GameConfig{
			"classic": engine.DefaultMergeConfig(),
			"duo": {
				Name:        "Duo",
				Description: "two pairs",
				Kind:        engine.KindMatch,
				Symbols:     []string{"A", "B"},
				HideDelayMS: 250,
			},
		},
	}
}

func (m *MockConfigManager) LoadConfig(name string) (*engine.GameConfig, error) {
	config, ok := m.configs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", service.ErrConfigNotFound, name)
	}
	return config, nil
}

func (m *MockConfigManager) ListConfigs() ([]*service.ConfigInfo, error) {
	return []*service.ConfigInfo{
		{ConfigID: "classic", Name: m.configs["classic"].Name, Kind: engine.KindMerge},
		{ConfigID: "duo", Name: "Duo", Kind: engine.KindMatch, Pairs: 2},
	}, nil
}

func (m *MockConfigManager) GetDefault() *engine.GameConfig {
	return m.configs["classic"]
}

func (m *MockConfigManager) SaveConfig(name string, config *engine.GameConfig) error {
	m.configs[name] = config
	return nil
}

// manualScheduler holds scheduled calls until the test fires them
type manualScheduler struct {
	mu      sync.Mutex
	delays  []time.Duration
	pending []func()
}

func (s *manualScheduler) AfterFunc(d time.Duration, f func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delays = append(s.delays, d)
	s.pending = append(s.pending, f)
}

func (s *manualScheduler) fire() int {
	s.mu.Lock()
	pending := s.pending
	s.pending = nil
	s.mu.Unlock()

	for _, f := range pending {
		f()
	}
	return len(pending)
}

type recordingNotifier struct {
	mu        sync.Mutex
	snapshots []*service.Snapshot
}

func (n *recordingNotifier) NotifySession(sessionID string, snapshot *service.Snapshot) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.snapshots = append(n.snapshots, snapshot)
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.snapshots)
}

func (n *recordingNotifier) last() *service.Snapshot {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.snapshots) == 0 {
		return nil
	}
	return n.snapshots[len(n.snapshots)-1]
}

// zeroRand always picks the first empty cell and spawns a 2
type zeroRand struct{}

func (zeroRand) IntN(int) int     { return 0 }
func (zeroRand) Float64() float64 { return 0 }

type fixture struct {
	svc       service.GameService
	sessions  *MockSessionManager
	scheduler *manualScheduler
	notifier  *recordingNotifier
	results   *results.MemoryStore
}

func newFixture() *fixture {
	f := &fixture{
		sessions:  NewMockSessionManager(),
		scheduler: &manualScheduler{},
		notifier:  &recordingNotifier{},
		results:   results.NewMemoryStore(),
	}
	f.svc = service.NewGameService(f.sessions, NewMockConfigManager(),
		service.WithScheduler(f.scheduler),
		service.WithNotifier(f.notifier),
		service.WithResults(f.results),
	)
	return f
}

func (f *fixture) mergeSession(t *testing.T, g engine.Grid) string {
	t.Helper()
	info, err := f.svc.CreateSession(context.Background(), "classic")
	require.NoError(t, err)
	f.sessions.sessions[info.ID].Grid = engine.NewGridEngineFromGrid(g, zeroRand{})
	return info.ID
}

// matchSession creates a duo session on the deck A A B B
func (f *fixture) matchSession(t *testing.T) string {
	t.Helper()
	info, err := f.svc.CreateSession(context.Background(), "duo")
	require.NoError(t, err)
	deck := engine.Deck{{ID: 0, Symbol: "A"}, {ID: 1, Symbol: "A"}, {ID: 2, Symbol: "B"}, {ID: 3, Symbol: "B"}}
	f.sessions.sessions[info.ID].Match = engine.NewMatchEngineFromDeck(deck, engine.NewRand(1))
	return info.ID
}

func eventTypes(events []service.GameEvent) []string {
	types := make([]string, 0, len(events))
	for _, e := range events {
		types = append(types, e.Type)
	}
	return types
}

func TestGameService_CreateSession(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	info, err := f.svc.CreateSession(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "classic", info.ConfigID)
	assert.Equal(t, engine.KindMerge, info.Kind)
	require.NotNil(t, info.GameState)
	assert.Nil(t, info.MatchState)

	info, err = f.svc.CreateSession(ctx, "duo")
	require.NoError(t, err)
	assert.Equal(t, "duo", info.ConfigID)
	assert.Equal(t, engine.KindMatch, info.Kind)
	require.NotNil(t, info.MatchState)
	assert.Len(t, info.MatchState.Deck, 4)
	assert.Nil(t, info.GameState)

	_, err = f.svc.CreateSession(ctx, "nonexistent")
	require.ErrorIs(t, err, service.ErrConfigNotFound)
	assert.Contains(t, err.Error(), "Available configs")
}

func TestGameService_UnknownSession(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	_, err := f.svc.GetSession(ctx, "zzzz")
	assert.ErrorIs(t, err, service.ErrSessionNotFound)
	_, err = f.svc.Move(ctx, "zzzz", "up")
	assert.ErrorIs(t, err, service.ErrSessionNotFound)
	_, err = f.svc.Select(ctx, "zzzz", 0)
	assert.ErrorIs(t, err, service.ErrSessionNotFound)
	_, err = f.svc.Restart(ctx, "zzzz")
	assert.ErrorIs(t, err, service.ErrSessionNotFound)
	assert.ErrorIs(t, f.svc.DeleteSession(ctx, "zzzz"), service.ErrSessionNotFound)
}

func TestGameService_Move(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	id := f.mergeSession(t, engine.Grid{{2, 2, 0, 0}})

	result, err := f.svc.Move(ctx, id, "left")
	require.NoError(t, err)
	assert.True(t, result.Accepted)
	assert.Equal(t, [engine.GridSize]int{4, 2, 0, 0}, result.GameState.Grid[0])
	assert.Equal(t, 6, result.GameState.Score)
	assert.Equal(t, []string{service.EventMove, service.EventMerge, service.EventSpawn}, eventTypes(result.Events))
	assert.Equal(t, 4, result.Events[1].Value)
	assert.Equal(t, &engine.Position{Row: 0, Col: 1}, result.Events[2].Position)
	for _, e := range result.Events {
		assert.NotEmpty(t, e.ID)
	}
	require.NotNil(t, result.Turn)
	assert.NotEmpty(t, result.PossibleMoves)

	require.Equal(t, 1, f.notifier.count())
	assert.Equal(t, id, f.notifier.last().SessionID)
	assert.Equal(t, result.GameState, f.notifier.last().GameState)

	_, err = f.svc.Move(ctx, id, "sideways")
	assert.ErrorIs(t, err, service.ErrInvalidDirection)

	// arrow key names are accepted
	_, err = f.svc.Move(ctx, id, "ArrowDown")
	assert.NoError(t, err)
}

func TestGameService_MoveThatChangesNothing(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	id := f.mergeSession(t, engine.Grid{{2, 4, 0, 0}})

	result, err := f.svc.Move(ctx, id, "up")
	require.NoError(t, err)
	assert.False(t, result.Accepted)
	assert.Contains(t, result.Message, "changes nothing")
	assert.Empty(t, result.Events)
	assert.Equal(t, 0, result.GameState.Moves)
	assert.Equal(t, []string{"down", "right"}, result.PossibleMoves)
	assert.Equal(t, 0, f.notifier.count())
}

func TestGameService_GameOverRecordsResultOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	id := f.mergeSession(t, engine.Grid{
		{2, 4, 2, 4},
		{4, 2, 4, 2},
		{2, 4, 2, 4},
		{0, 4, 2, 4},
	})

	result, err := f.svc.Move(ctx, id, "left")
	require.NoError(t, err)
	require.True(t, result.Accepted)
	assert.True(t, result.GameState.IsOver)
	assert.Contains(t, eventTypes(result.Events), service.EventGameOver)
	assert.Empty(t, result.PossibleMoves)

	result, err = f.svc.Move(ctx, id, "right")
	require.NoError(t, err)
	assert.False(t, result.Accepted)
	assert.Contains(t, result.Message, "Game over")

	list, err := f.svc.ListResults(ctx, results.Query{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, id, list[0].SessionID)
	assert.Equal(t, results.OutcomeOver, list[0].Outcome)
	assert.Equal(t, "classic", list[0].ConfigID)
	assert.Equal(t, 1, list[0].Moves)
	assert.Equal(t, result.GameState.Score, list[0].Score)
}

func TestGameService_WinIsRecordedWhenTheRoundEnds(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	id := f.mergeSession(t, engine.Grid{{1024, 1024, 0, 0}})

	result, err := f.svc.Move(ctx, id, "left")
	require.NoError(t, err)
	assert.True(t, result.GameState.IsWon)
	assert.Contains(t, eventTypes(result.Events), service.EventWin)

	result, err = f.svc.Move(ctx, id, "right")
	require.NoError(t, err)
	assert.True(t, result.Accepted)
	assert.True(t, result.GameState.IsWon)
	assert.NotContains(t, eventTypes(result.Events), service.EventWin)

	// play continues, nothing is written yet
	list, err := f.svc.ListResults(ctx, results.Query{Kind: engine.KindMerge})
	require.NoError(t, err)
	assert.Empty(t, list)

	final := result.GameState
	_, err = f.svc.Restart(ctx, id)
	require.NoError(t, err)

	list, err = f.svc.ListResults(ctx, results.Query{Kind: engine.KindMerge})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, results.OutcomeWon, list[0].Outcome)
	assert.Equal(t, engine.WinValue, list[0].MaxTile)
	assert.Equal(t, final.Score, list[0].Score)
	assert.Equal(t, 2, list[0].Moves)

	// restarting an unwon round writes nothing
	_, err = f.svc.Restart(ctx, id)
	require.NoError(t, err)
	list, err = f.svc.ListResults(ctx, results.Query{})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	// deleting a won round records it too
	f.sessions.sessions[id].Grid = engine.NewGridEngineFromGrid(engine.Grid{{1024, 1024}}, zeroRand{})
	_, err = f.svc.Move(ctx, id, "left")
	require.NoError(t, err)
	require.NoError(t, f.svc.DeleteSession(ctx, id))

	list, err = f.svc.ListResults(ctx, results.Query{})
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestGameService_WonRoundRecordsFinalScoreAtGameOver(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	id := f.mergeSession(t, engine.Grid{
		{2048, 4, 2, 4},
		{4, 2, 4, 2},
		{2, 4, 2, 4},
		{0, 4, 2, 4},
	})

	result, err := f.svc.Move(ctx, id, "left")
	require.NoError(t, err)
	require.True(t, result.GameState.IsOver)
	require.True(t, result.GameState.IsWon)

	_, err = f.svc.Restart(ctx, id)
	require.NoError(t, err)

	list, err := f.svc.ListResults(ctx, results.Query{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, results.OutcomeWon, list[0].Outcome)
	assert.Equal(t, result.GameState.Score, list[0].Score)
}

// gatedNotifier holds the first snapshot until released
type gatedNotifier struct {
	recordingNotifier
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (n *gatedNotifier) NotifySession(sessionID string, snapshot *service.Snapshot) {
	first := false
	n.once.Do(func() { first = true })
	if first {
		close(n.entered)
		<-n.release
	}
	n.recordingNotifier.NotifySession(sessionID, snapshot)
}

func TestGameService_SnapshotsArriveInOrder(t *testing.T) {
	ctx := context.Background()
	notifier := &gatedNotifier{entered: make(chan struct{}), release: make(chan struct{})}
	sessions := NewMockSessionManager()
	svc := service.NewGameService(sessions, NewMockConfigManager(), service.WithNotifier(notifier))

	info, err := svc.CreateSession(ctx, "classic")
	require.NoError(t, err)
	sessions.sessions[info.ID].Grid = engine.NewGridEngineFromGrid(engine.Grid{{0, 0, 0, 2}}, zeroRand{})

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, err := svc.Move(ctx, info.ID, "left")
		assert.NoError(t, err)
	}()
	<-notifier.entered

	go func() {
		defer wg.Done()
		_, err := svc.Move(ctx, info.ID, "right")
		assert.NoError(t, err)
	}()
	// give the second move time to overtake if it could
	time.Sleep(50 * time.Millisecond)
	close(notifier.release)
	wg.Wait()

	notifier.mu.Lock()
	pushed := make([]int, 0, len(notifier.snapshots))
	for _, snap := range notifier.snapshots {
		pushed = append(pushed, snap.GameState.Moves)
	}
	notifier.mu.Unlock()
	assert.Equal(t, []int{1, 2}, pushed)

	state, err := svc.GetState(ctx, info.ID)
	require.NoError(t, err)
	assert.Equal(t, state.GameState, notifier.last().GameState)
}

func TestGameService_WrongGameKind(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	merge := f.mergeSession(t, engine.Grid{{2}})
	match := f.matchSession(t)

	_, err := f.svc.Move(ctx, match, "left")
	assert.ErrorIs(t, err, service.ErrWrongGameKind)
	_, err = f.svc.Select(ctx, merge, 0)
	assert.ErrorIs(t, err, service.ErrWrongGameKind)
}

func TestGameService_MismatchIsHiddenAfterDelay(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	id := f.matchSession(t)

	result, err := f.svc.Select(ctx, id, 0)
	require.NoError(t, err)
	assert.Equal(t, engine.SelectFlipped, result.Outcome)
	assert.Equal(t, []string{service.EventFlip}, eventTypes(result.Events))

	result, err = f.svc.Select(ctx, id, 2)
	require.NoError(t, err)
	assert.Equal(t, engine.SelectMismatch, result.Outcome)
	assert.Equal(t, 250, result.HideAfterMS)
	assert.Equal(t, []int{0, 2}, result.MatchState.Flipped)
	assert.Equal(t, []string{service.EventFlip, service.EventMismatch}, eventTypes(result.Events))
	require.Equal(t, []time.Duration{250 * time.Millisecond}, f.scheduler.delays)

	result, err = f.svc.Select(ctx, id, 1)
	require.NoError(t, err)
	assert.False(t, result.Accepted)
	assert.Equal(t, service.ReasonLocked, result.Reason)
	assert.Equal(t, []int{0, 2}, result.MatchState.Flipped)

	notified := f.notifier.count()
	require.Equal(t, 1, f.scheduler.fire())
	require.Equal(t, notified+1, f.notifier.count())

	hide := f.notifier.last()
	require.NotNil(t, hide.MatchState)
	assert.Empty(t, hide.MatchState.Flipped)
	assert.False(t, hide.MatchState.Locked)
	require.Len(t, hide.Events, 1)
	assert.Equal(t, service.EventHide, hide.Events[0].Type)
	assert.Equal(t, []int{0, 2}, hide.Events[0].TileIDs)

	state, err := f.svc.GetState(ctx, id)
	require.NoError(t, err)
	for _, tile := range state.MatchState.Deck {
		assert.False(t, tile.IsFlipped)
	}
	assert.Empty(t, state.MatchState.Matched)
}

func TestGameService_MatchToWin(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	id := f.matchSession(t)

	f.svc.Select(ctx, id, 0)
	f.svc.Select(ctx, id, 3)
	f.scheduler.fire()

	f.svc.Select(ctx, id, 0)
	result, err := f.svc.Select(ctx, id, 1)
	require.NoError(t, err)
	assert.Equal(t, engine.SelectMatch, result.Outcome)
	assert.Equal(t, []int{0, 1}, result.MatchState.Matched)
	assert.Empty(t, result.MatchState.Flipped)
	assert.Equal(t, []int{0, 1}, result.Events[1].TileIDs)

	f.svc.Select(ctx, id, 2)
	result, err = f.svc.Select(ctx, id, 3)
	require.NoError(t, err)
	assert.True(t, result.MatchState.IsWon)
	assert.Equal(t, []string{service.EventFlip, service.EventMatch, service.EventWin}, eventTypes(result.Events))
	assert.Zero(t, f.scheduler.fire())

	list, err := f.svc.ListResults(ctx, results.Query{Kind: engine.KindMatch})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 2, list[0].Score)
	assert.Equal(t, 3, list[0].Moves)
	assert.Equal(t, "duo", list[0].ConfigID)
}

func TestGameService_SelectRejections(t *testing.T) {
	tests := []struct {
		name   string
		setup  []int
		tile   int
		reason string
	}{
		{"same tile twice", []int{0}, 0, service.ReasonAlreadyFlipped},
		{"matched tile", []int{0, 1}, 1, service.ReasonMatched},
		{"unknown tile", nil, 42, service.ReasonUnknownTile},
		{"negative tile", nil, -3, service.ReasonUnknownTile},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			f := newFixture()
			id := f.matchSession(t)
			for _, tile := range tt.setup {
				_, err := f.svc.Select(ctx, id, tile)
				require.NoError(t, err)
			}
			notified := f.notifier.count()

			result, err := f.svc.Select(ctx, id, tt.tile)
			require.NoError(t, err)
			assert.False(t, result.Accepted)
			assert.Equal(t, engine.SelectRejected, result.Outcome)
			assert.Equal(t, tt.reason, result.Reason)
			assert.NotEmpty(t, result.Message)
			assert.Equal(t, notified, f.notifier.count())
		})
	}
}

func TestGameService_RestartDuringHideDelay(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	id := f.matchSession(t)

	f.svc.Select(ctx, id, 0)
	f.svc.Select(ctx, id, 2)

	snapshot, err := f.svc.Restart(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 1, snapshot.MatchState.Epoch)
	assert.Equal(t, []string{service.EventRestart}, eventTypes(snapshot.Events))

	// flip a tile on the new deck; the stale hide must leave it alone
	_, err = f.svc.Select(ctx, id, 1)
	require.NoError(t, err)
	notified := f.notifier.count()

	f.scheduler.fire()
	assert.Equal(t, notified, f.notifier.count())

	state, err := f.svc.GetState(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, state.MatchState.Flipped)
}

func TestGameService_DeleteDuringHideDelay(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	id := f.matchSession(t)

	f.svc.Select(ctx, id, 0)
	f.svc.Select(ctx, id, 2)
	require.NoError(t, f.svc.DeleteSession(ctx, id))
	notified := f.notifier.count()

	assert.NotPanics(t, func() { f.scheduler.fire() })
	assert.Equal(t, notified, f.notifier.count())
}

func TestGameService_ReplacedSessionIgnoresOldHide(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	id := f.matchSession(t)

	f.svc.Select(ctx, id, 0)
	f.svc.Select(ctx, id, 2)

	// same id, fresh engine with an identical pending token
	deck := engine.Deck{{ID: 0, Symbol: "A"}, {ID: 1, Symbol: "A"}, {ID: 2, Symbol: "B"}, {ID: 3, Symbol: "B"}}
	replacement := engine.NewMatchEngineFromDeck(deck, engine.NewRand(2))
	replacement.Select(0)
	replacement.Select(2)
	f.sessions.sessions[id].Match = replacement

	f.scheduler.fire()
	assert.True(t, replacement.Locked())
}

func TestGameService_RestartMerge(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	id := f.mergeSession(t, engine.Grid{{2, 2}})
	f.svc.Move(ctx, id, "left")

	snapshot, err := f.svc.Restart(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, snapshot.GameState)
	assert.Equal(t, 0, snapshot.GameState.Moves)
	assert.Equal(t, 1, snapshot.GameState.Epoch)
	assert.Equal(t, snapshot, f.notifier.last())
}

func TestGameService_GetMoveHistory(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	id := f.mergeSession(t, engine.Grid{{2}})

	for i := 0; i < 5; i++ {
		_, err := f.svc.Move(ctx, id, "up")
		require.NoError(t, err)
	}

	numbers := func(h *service.HistoryResponse) []int {
		var n []int
		for _, m := range h.Moves {
			n = append(n, m.MoveNumber)
		}
		return n
	}

	h, err := f.svc.GetMoveHistory(ctx, id, service.HistoryOptions{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, []int{5, 4}, numbers(h))
	assert.Equal(t, 5, h.TotalMoves)
	assert.Equal(t, 3, h.TotalPages)
	assert.True(t, h.HasNext)
	assert.False(t, h.HasPrevious)

	h, err = f.svc.GetMoveHistory(ctx, id, service.HistoryOptions{Limit: 2, Page: 3})
	require.NoError(t, err)
	assert.Equal(t, []int{1}, numbers(h))
	assert.False(t, h.HasNext)

	h, err = f.svc.GetMoveHistory(ctx, id, service.HistoryOptions{Limit: 2, Page: 2, Order: "asc"})
	require.NoError(t, err)
	assert.Equal(t, []int{3, 4}, numbers(h))

	h, err = f.svc.GetMoveHistory(ctx, id, service.HistoryOptions{Limit: 2, Page: 9})
	require.NoError(t, err)
	assert.NotNil(t, h.Moves)
	assert.Empty(t, h.Moves)

	h, err = f.svc.GetMoveHistory(ctx, id, service.HistoryOptions{Limit: 500})
	require.NoError(t, err)
	assert.Equal(t, 100, h.PageSize)
}

func TestGameService_ListSessions(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	var ids []string
	for _, preset := range []string{"classic", "duo", "classic"} {
		info, err := f.svc.CreateSession(ctx, preset)
		require.NoError(t, err)
		ids = append(ids, info.ID)
	}

	list, err := f.svc.ListSessions(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	for i, info := range list {
		assert.Equal(t, ids[i], info.ID)
	}
	assert.Equal(t, engine.KindMatch, list[1].Kind)
}

func TestGameService_ConcurrentMoves(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	info, err := f.svc.CreateSession(ctx, "classic")
	require.NoError(t, err)

	var wg sync.WaitGroup
	dirs := []string{"up", "down", "left", "right"}
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				_, err := f.svc.Move(ctx, info.ID, dirs[(i+j)%4])
				assert.NoError(t, err)
				_, err = f.svc.GetState(ctx, info.ID)
				assert.NoError(t, err)
			}
		}(i)
	}
	wg.Wait()

	h, err := f.svc.GetMoveHistory(ctx, info.ID, service.HistoryOptions{})
	require.NoError(t, err)
	assert.Equal(t, 200, h.TotalMoves)
}

func TestGameService_Configs(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	configs, err := f.svc.ListConfigs(ctx)
	require.NoError(t, err)
	assert.Len(t, configs, 2)

	preset := &engine.GameConfig{Name: "tiny", Description: "x", Kind: engine.KindMatch, Symbols: []string{"x", "y"}}
	require.NoError(t, f.svc.SaveConfig(ctx, "tiny", preset))
	loaded, err := f.svc.LoadConfig(ctx, "tiny")
	require.NoError(t, err)
	assert.Equal(t, "tiny", loaded.Name)
}
