package engine

import (
	"fmt"
	"sort"
)

// CreateDeck lays out every symbol twice, applies a uniform Fisher-Yates
// shuffle and numbers the tiles by position. All tiles start face-down.
func CreateDeck(symbols []string, rng Rand) Deck {
	pool := make([]string, 0, len(symbols)*2)
	pool = append(pool, symbols...)
	pool = append(pool, symbols...)

	for i := len(pool) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		pool[i], pool[j] = pool[j], pool[i]
	}

	deck := make(Deck, len(pool))
	for i, symbol := range pool {
		deck[i] = Tile{ID: i, Symbol: symbol}
	}
	return deck
}

// MatchEngine owns one pair-match round.
//
// States: idle (nothing flipped), one flipped, locked (two mismatched tiles
// shown until ResolveMismatch is called with the token Select handed out).
// It is not safe for concurrent use; callers serialise access.
type MatchEngine struct {
	symbols  []string
	rng      Rand
	deck     Deck
	flipped  []int
	matched  map[int]bool
	attempts int
	epoch    int
	seq      int
	pending  *HideToken
	history  []MoveHistoryEntry
}

// NewMatchEngine deals a fresh deck for the given symbols
func NewMatchEngine(symbols []string, rng Rand) *MatchEngine {
	if rng == nil {
		rng = NewDefaultRand()
	}
	e := &MatchEngine{
		symbols: append([]string(nil), symbols...),
		rng:     rng,
	}
	e.deal()
	return e
}

// NewMatchEngineFromDeck creates an engine on a prepared deck, face-down
func NewMatchEngineFromDeck(deck Deck, rng Rand) *MatchEngine {
	if rng == nil {
		rng = NewDefaultRand()
	}
	e := &MatchEngine{
		rng:     rng,
		deck:    make(Deck, len(deck)),
		matched: make(map[int]bool),
	}
	seen := make(map[string]bool)
	for i, t := range deck {
		e.deck[i] = Tile{ID: t.ID, Symbol: t.Symbol}
		if !seen[t.Symbol] {
			seen[t.Symbol] = true
			e.symbols = append(e.symbols, t.Symbol)
		}
	}
	return e
}

func (e *MatchEngine) deal() {
	e.deck = CreateDeck(e.symbols, e.rng)
	e.flipped = nil
	e.matched = make(map[int]bool)
	e.attempts = 0
	e.pending = nil
}

// State returns a snapshot of the current round
func (e *MatchEngine) State() MatchState {
	deck := make(Deck, len(e.deck))
	copy(deck, e.deck)

	matched := make([]int, 0, len(e.matched))
	for id := range e.matched {
		matched = append(matched, id)
	}
	sort.Ints(matched)

	flipped := make([]int, len(e.flipped))
	copy(flipped, e.flipped)

	return MatchState{
		Deck:     deck,
		Flipped:  flipped,
		Matched:  matched,
		IsWon:    e.isWon(),
		Locked:   e.pending != nil,
		Attempts: e.attempts,
		Epoch:    e.epoch,
	}
}

func (e *MatchEngine) isWon() bool {
	return len(e.deck) > 0 && len(e.matched) == len(e.deck)
}

// Locked reports whether a mismatch is waiting to be hidden
func (e *MatchEngine) Locked() bool {
	return e.pending != nil
}

// Pending returns the outstanding hide token, if any
func (e *MatchEngine) Pending() (HideToken, bool) {
	if e.pending == nil {
		return HideToken{}, false
	}
	return *e.pending, true
}

// Restart deals a new deck and moves to a new epoch, which invalidates any
// hide token issued before
func (e *MatchEngine) Restart() MatchState {
	e.epoch++
	e.deal()
	e.record("restart", true)
	return e.State()
}

func (e *MatchEngine) tile(id int) *Tile {
	if id < 0 || id >= len(e.deck) || e.deck[id].ID != id {
		for i := range e.deck {
			if e.deck[i].ID == id {
				return &e.deck[i]
			}
		}
		return nil
	}
	return &e.deck[id]
}

// Select flips the tile with the given id. A mismatch returns the token the
// caller must pass to ResolveMismatch once the display delay has elapsed.
func (e *MatchEngine) Select(id int) (SelectOutcome, *HideToken) {
	outcome, token := e.selectTile(id)
	e.record(fmt.Sprintf("select:%d", id), outcome != SelectRejected)
	return outcome, token
}

func (e *MatchEngine) selectTile(id int) (SelectOutcome, *HideToken) {
	if e.pending != nil || e.matched[id] {
		return SelectRejected, nil
	}
	t := e.tile(id)
	if t == nil {
		return SelectRejected, nil
	}
	if len(e.flipped) == 1 && e.flipped[0] == id {
		return SelectRejected, nil
	}

	if len(e.flipped) == 0 {
		t.IsFlipped = true
		e.flipped = []int{id}
		return SelectFlipped, nil
	}

	first := e.tile(e.flipped[0])
	t.IsFlipped = true
	e.attempts++

	if first.Symbol == t.Symbol {
		e.matched[first.ID] = true
		e.matched[t.ID] = true
		e.flipped = nil
		return SelectMatch, nil
	}

	e.flipped = []int{first.ID, t.ID}
	e.seq++
	token := HideToken{Epoch: e.epoch, Seq: e.seq}
	e.pending = &token
	return SelectMismatch, &token
}

// ResolveMismatch turns the two mismatched tiles face-down again. Tokens
// from an earlier epoch or an already resolved mismatch are ignored.
func (e *MatchEngine) ResolveMismatch(token HideToken) bool {
	if e.pending == nil || *e.pending != token {
		return false
	}
	for _, id := range e.flipped {
		if t := e.tile(id); t != nil {
			t.IsFlipped = false
		}
	}
	e.flipped = nil
	e.pending = nil
	e.record("hide", true)
	return true
}

// IsWon reports whether every tile has been matched
func (e *MatchEngine) IsWon() bool {
	return e.isWon()
}

// Pairs returns the number of matched pairs
func (e *MatchEngine) Pairs() int {
	return len(e.matched) / 2
}

// Attempts returns how many pair comparisons were made this round
func (e *MatchEngine) Attempts() int {
	return e.attempts
}

// History returns the most recent inputs, oldest first
func (e *MatchEngine) History() []MoveHistoryEntry {
	return e.history
}

func (e *MatchEngine) record(action string, accepted bool) {
	e.history = appendHistory(e.history, action, accepted, e.Pairs())
}
