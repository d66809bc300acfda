package engine

import "time"

// GameKind identifies which puzzle a preset or session runs
type GameKind string

const (
	KindMerge GameKind = "merge"
	KindMatch GameKind = "match"

	// Grid constants
	GridSize       = 4
	WinValue       = 2048
	TwoProbability = 0.9

	// Match constants
	MinSymbols       = 2
	MaxSymbols       = 32
	DefaultHideDelay = 1000 * time.Millisecond
	MaxHideDelayMS   = 10000

	// MaxHistory bounds the inputs an engine remembers
	MaxHistory = 1000
)

// Grid is the fixed 4x4 board of the merge puzzle. 0 marks an empty cell.
type Grid [GridSize][GridSize]int

// Direction is a slide direction on the grid
type Direction string

const (
	Up    Direction = "up"
	Down  Direction = "down"
	Left  Direction = "left"
	Right Direction = "right"
)

// Directions lists every direction in a stable order
var Directions = []Direction{Up, Down, Left, Right}

// Position represents row/column coordinates on the grid
type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// GameState is the merge puzzle snapshot handed to renderers
type GameState struct {
	Grid    Grid `json:"grid"`
	Score   int  `json:"score"`
	IsOver  bool `json:"is_over"`
	IsWon   bool `json:"is_won"`
	Moves   int  `json:"moves"`
	MaxTile int  `json:"max_tile"`
	Epoch   int  `json:"epoch"`
}

// Turn describes what the last accepted move did
type Turn struct {
	Direction Direction `json:"direction"`
	Merges    []int     `json:"merges,omitempty"` // values produced by merges
	Spawned   *Position `json:"spawned,omitempty"`
	SpawnedAs int       `json:"spawned_as,omitempty"`
}

// Tile is one card of the match deck
type Tile struct {
	ID        int    `json:"id"`
	Symbol    string `json:"symbol"`
	IsFlipped bool   `json:"is_flipped"`
}

// Deck is the ordered, shuffled sequence of tiles
type Deck []Tile

// MatchState is the pair-match snapshot handed to renderers
type MatchState struct {
	Deck     Deck  `json:"deck"`
	Flipped  []int `json:"flipped"`
	Matched  []int `json:"matched"`
	IsWon    bool  `json:"is_won"`
	Locked   bool  `json:"locked"`
	Attempts int   `json:"attempts"`
	Epoch    int   `json:"epoch"`
}

// SelectOutcome reports how a tile selection was handled
type SelectOutcome string

const (
	SelectRejected SelectOutcome = "rejected"
	SelectFlipped  SelectOutcome = "flipped"
	SelectMatch    SelectOutcome = "match"
	SelectMismatch SelectOutcome = "mismatch"
)

// HideToken identifies one pending mismatch hide. It only applies to the
// engine epoch and selection sequence it was issued for.
type HideToken struct {
	Epoch int `json:"epoch"`
	Seq   int `json:"seq"`
}

// GameConfig is a game preset loaded from JSON
type GameConfig struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Kind        GameKind `json:"kind"`
	Symbols     []string `json:"symbols,omitempty"`
	HideDelayMS int      `json:"hide_delay_ms,omitempty"`
	Welcome     string   `json:"welcome,omitempty"`
}

// HideDelay returns the mismatch display delay for the preset
func (c *GameConfig) HideDelay() time.Duration {
	if c == nil || c.HideDelayMS <= 0 {
		return DefaultHideDelay
	}
	return time.Duration(c.HideDelayMS) * time.Millisecond
}

// MoveHistoryEntry represents a single input in the game history
type MoveHistoryEntry struct {
	Action     string `json:"action"`
	Accepted   bool   `json:"accepted"`
	Score      int    `json:"score"`
	MoveNumber int    `json:"move_number"`
	Timestamp  int64  `json:"timestamp"`
}
