package engine

// GridEngine owns one merge puzzle round and applies the turn protocol.
// It is not safe for concurrent use; callers serialise access.
type GridEngine struct {
	state    GameState
	rng      Rand
	lastTurn *Turn
	history  []MoveHistoryEntry
}

// NewGridEngine creates an engine with a freshly spawned grid
func NewGridEngine(rng Rand) *GridEngine {
	if rng == nil {
		rng = NewDefaultRand()
	}
	e := &GridEngine{rng: rng}
	e.reset()
	return e
}

// NewGridEngineFromGrid creates an engine positioned on an existing grid.
// Score and flags are derived from the grid.
func NewGridEngineFromGrid(g Grid, rng Rand) *GridEngine {
	if rng == nil {
		rng = NewDefaultRand()
	}
	return &GridEngine{
		rng: rng,
		state: GameState{
			Grid:    g,
			Score:   Score(g),
			IsOver:  IsGameOver(g),
			IsWon:   IsGameWon(g),
			MaxTile: MaxTile(g),
		},
	}
}

func (e *GridEngine) reset() {
	g := CreateGrid(e.rng)
	e.state = GameState{
		Grid:    g,
		Score:   Score(g),
		MaxTile: MaxTile(g),
		Epoch:   e.state.Epoch,
	}
	e.lastTurn = nil
}

// State returns a snapshot of the current round
func (e *GridEngine) State() GameState {
	return e.state
}

// Restart discards the round and starts a new one. Move history is kept
// across restarts, up to MaxHistory entries.
func (e *GridEngine) Restart() GameState {
	e.state.Epoch++
	e.reset()
	e.history = appendHistory(e.history, "restart", true, e.state.Score)
	return e.state
}

// Move applies one turn. It returns false when the round is over or the
// direction leaves the grid unchanged; the state is then untouched.
func (e *GridEngine) Move(d Direction) bool {
	accepted := e.move(d)
	e.history = appendHistory(e.history, string(d), accepted, e.state.Score)
	return accepted
}

func (e *GridEngine) move(d Direction) bool {
	if e.state.IsOver || !d.Valid() {
		return false
	}

	next, merges := moveWithMerges(e.state.Grid, d)
	if GridsEqual(next, e.state.Grid) {
		return false
	}

	turn := &Turn{Direction: d, Merges: merges}
	if pos, ok := SpawnTile(&next, e.rng); ok {
		turn.Spawned = &pos
		turn.SpawnedAs = next[pos.Row][pos.Col]
	}

	e.state.Grid = next
	e.state.Score = Score(next)
	e.state.MaxTile = MaxTile(next)
	e.state.IsWon = e.state.IsWon || IsGameWon(next)
	e.state.IsOver = IsGameOver(next)
	e.state.Moves++
	e.lastTurn = turn
	return true
}

// LastTurn describes the most recent accepted move, nil before the first
func (e *GridEngine) LastTurn() *Turn {
	return e.lastTurn
}

// CanMove reports whether d would change the grid
func (e *GridEngine) CanMove(d Direction) bool {
	if e.state.IsOver || !d.Valid() {
		return false
	}
	return !GridsEqual(Move(e.state.Grid, d), e.state.Grid)
}

// PossibleMoves returns the directions that change the grid
func (e *GridEngine) PossibleMoves() []Direction {
	var possible []Direction
	for _, d := range Directions {
		if e.CanMove(d) {
			possible = append(possible, d)
		}
	}
	return possible
}

// History returns the most recent inputs, oldest first
func (e *GridEngine) History() []MoveHistoryEntry {
	return e.history
}

// BulkMove applies moves in order and stops once the round is over
func (e *GridEngine) BulkMove(moves []Direction) []bool {
	results := make([]bool, 0, len(moves))
	for _, d := range moves {
		if e.state.IsOver {
			break
		}
		results = append(results, e.Move(d))
	}
	return results
}
