package engine

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func deckOf(symbols ...string) Deck {
	deck := make(Deck, len(symbols))
	for i, s := range symbols {
		deck[i] = Tile{ID: i, Symbol: s}
	}
	return deck
}

func flippedIDs(deck Deck) []int {
	var ids []int
	for _, t := range deck {
		if t.IsFlipped {
			ids = append(ids, t.ID)
		}
	}
	return ids
}

func TestCreateDeck(t *testing.T) {
	deck := CreateDeck(DefaultSymbols, NewRand(8))
	require.Len(t, deck, 16)

	counts := make(map[string]int)
	for i, tile := range deck {
		assert.Equal(t, i, tile.ID)
		assert.False(t, tile.IsFlipped)
		counts[tile.Symbol]++
	}
	assert.Len(t, counts, len(DefaultSymbols))
	for symbol, n := range counts {
		assert.Equal(t, 2, n, "symbol %s", symbol)
	}
}

func TestCreateDeck_UniformArrangements(t *testing.T) {
	rng := NewRand(31)
	const decks = 6000

	// {A,A,B,B} has six distinct arrangements
	seen := make(map[string]int)
	for i := 0; i < decks; i++ {
		var sb strings.Builder
		for _, tile := range CreateDeck([]string{"A", "B"}, rng) {
			sb.WriteString(tile.Symbol)
		}
		seen[sb.String()]++
	}

	require.Len(t, seen, 6)
	for arrangement, n := range seen {
		assert.InDelta(t, decks/6, n, 150, "arrangement %s", arrangement)
	}
}

func TestMatchEngine_MismatchThenHide(t *testing.T) {
	e := NewMatchEngineFromDeck(deckOf("A", "A", "B", "B"), NewRand(1))

	outcome, token := e.Select(0)
	assert.Equal(t, SelectFlipped, outcome)
	assert.Nil(t, token)
	assert.Equal(t, []int{0}, e.State().Flipped)

	outcome, token = e.Select(2)
	assert.Equal(t, SelectMismatch, outcome)
	require.NotNil(t, token)

	state := e.State()
	assert.True(t, state.Locked)
	assert.Equal(t, []int{0, 2}, state.Flipped)
	assert.Equal(t, []int{0, 2}, flippedIDs(state.Deck))
	assert.Equal(t, 1, state.Attempts)

	// a third tile during the delay is ignored
	before := e.State()
	outcome, _ = e.Select(1)
	assert.Equal(t, SelectRejected, outcome)
	assert.Equal(t, before, e.State())

	require.True(t, e.ResolveMismatch(*token))
	state = e.State()
	assert.False(t, state.Locked)
	assert.Empty(t, state.Flipped)
	assert.Empty(t, flippedIDs(state.Deck))
	assert.Empty(t, state.Matched)
	assert.False(t, state.IsWon)
}

func TestMatchEngine_MatchIsImmediate(t *testing.T) {
	e := NewMatchEngineFromDeck(deckOf("A", "A", "B", "B"), NewRand(1))

	e.Select(0)
	outcome, token := e.Select(1)
	assert.Equal(t, SelectMatch, outcome)
	assert.Nil(t, token)

	state := e.State()
	assert.Equal(t, []int{0, 1}, state.Matched)
	assert.Empty(t, state.Flipped)
	assert.False(t, state.Locked)
	assert.Equal(t, 1, e.Pairs())
}

func TestMatchEngine_Win(t *testing.T) {
	e := NewMatchEngineFromDeck(deckOf("A", "B", "A", "B"), NewRand(1))

	e.Select(0)
	e.Select(2)
	assert.False(t, e.IsWon())
	e.Select(3)
	outcome, _ := e.Select(1)
	assert.Equal(t, SelectMatch, outcome)

	state := e.State()
	assert.True(t, state.IsWon)
	assert.Equal(t, []int{0, 1, 2, 3}, state.Matched)
	assert.Equal(t, 2, state.Attempts)
}

func TestMatchEngine_Rejections(t *testing.T) {
	tests := []struct {
		name  string
		setup []int
		id    int
	}{
		{"same tile twice", []int{0}, 0},
		{"matched tile", []int{0, 1}, 0},
		{"negative id", nil, -1},
		{"unknown id", nil, 99},
		{"unknown id while one flipped", []int{2}, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewMatchEngineFromDeck(deckOf("A", "A", "B", "B"), NewRand(1))
			for _, id := range tt.setup {
				e.Select(id)
			}
			before := e.State()

			outcome, token := e.Select(tt.id)
			assert.Equal(t, SelectRejected, outcome)
			assert.Nil(t, token)
			assert.Equal(t, before, e.State())
		})
	}
}

func TestMatchEngine_StaleTokenAfterRestart(t *testing.T) {
	e := NewMatchEngineFromDeck(deckOf("A", "A", "B", "B"), NewRand(1))
	e.Select(0)
	_, token := e.Select(2)
	require.NotNil(t, token)

	state := e.Restart()
	assert.Equal(t, 1, state.Epoch)
	assert.False(t, state.Locked)
	assert.Len(t, state.Deck, 4)

	e.Select(0)
	before := e.State()
	assert.False(t, e.ResolveMismatch(*token))
	assert.Equal(t, before, e.State())
}

func TestMatchEngine_ResolveTwice(t *testing.T) {
	e := NewMatchEngineFromDeck(deckOf("A", "A", "B", "B"), NewRand(1))
	e.Select(0)
	_, first := e.Select(3)
	require.NotNil(t, first)

	require.True(t, e.ResolveMismatch(*first))
	assert.False(t, e.ResolveMismatch(*first))

	// a later mismatch issues a fresh token
	e.Select(1)
	_, second := e.Select(2)
	require.NotNil(t, second)
	assert.NotEqual(t, *first, *second)
	assert.False(t, e.ResolveMismatch(*first))
	assert.True(t, e.Locked())
}

func TestMatchEngine_History(t *testing.T) {
	e := NewMatchEngineFromDeck(deckOf("A", "A", "B", "B"), NewRand(1))
	e.Select(0)
	e.Select(0)
	e.Select(1)

	history := e.History()
	require.Len(t, history, 3)
	assert.Equal(t, "select:0", history[0].Action)
	assert.True(t, history[0].Accepted)
	assert.False(t, history[1].Accepted)
	assert.Equal(t, 1, history[2].Score)
}

func TestMatchEngine_HistoryIsBounded(t *testing.T) {
	e := NewMatchEngineFromDeck(deckOf("A", "A", "B", "B"), NewRand(1))
	for i := 0; i < 2*MaxHistory; i++ {
		e.Select(99)
	}

	history := e.History()
	assert.LessOrEqual(t, len(history), MaxHistory)
	assert.Equal(t, 2*MaxHistory, history[len(history)-1].MoveNumber)
}

func TestNewMatchEngine_DealsShuffledDeck(t *testing.T) {
	e := NewMatchEngine([]string{"x", "y", "z"}, NewRand(6))
	state := e.State()
	assert.Len(t, state.Deck, 6)
	assert.Empty(t, state.Flipped)
	assert.Empty(t, state.Matched)
	assert.Equal(t, 0, state.Epoch)
}
