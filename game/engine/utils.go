package engine

import (
	"fmt"
	"strings"
	"time"
)

// CreateGrid returns an empty grid with two tiles spawned
func CreateGrid(rng Rand) Grid {
	var g Grid
	SpawnTile(&g, rng)
	SpawnTile(&g, rng)
	return g
}

// EmptyCells lists empty cells in row-major order
func EmptyCells(g Grid) []Position {
	var cells []Position
	for r := 0; r < GridSize; r++ {
		for c := 0; c < GridSize; c++ {
			if g[r][c] == 0 {
				cells = append(cells, Position{Row: r, Col: c})
			}
		}
	}
	return cells
}

// SpawnTile places a 2 (90%) or a 4 (10%) on a uniformly chosen empty cell.
// It returns false and leaves the grid alone when no cell is empty.
func SpawnTile(g *Grid, rng Rand) (Position, bool) {
	empty := EmptyCells(*g)
	if len(empty) == 0 {
		return Position{}, false
	}

	pos := empty[rng.IntN(len(empty))]
	value := 4
	if rng.Float64() < TwoProbability {
		value = 2
	}
	g[pos.Row][pos.Col] = value
	return pos, true
}

// GridsEqual reports whether all 16 cells match
func GridsEqual(a, b Grid) bool {
	return a == b
}

// IsGameOver reports whether no direction changes the grid
func IsGameOver(g Grid) bool {
	for _, d := range Directions {
		if !GridsEqual(g, Move(g, d)) {
			return false
		}
	}
	return true
}

// IsGameWon reports whether any cell holds the winning value
func IsGameWon(g Grid) bool {
	for _, row := range g {
		for _, v := range row {
			if v == WinValue {
				return true
			}
		}
	}
	return false
}

// Score sums all non-zero cells
func Score(g Grid) int {
	total := 0
	for _, row := range g {
		for _, v := range row {
			total += v
		}
	}
	return total
}

// MaxTile returns the largest value on the grid
func MaxTile(g Grid) int {
	max := 0
	for _, row := range g {
		for _, v := range row {
			if v > max {
				max = v
			}
		}
	}
	return max
}

// FormatGrid renders the grid as aligned text rows, "." for empty cells
func FormatGrid(g Grid) []string {
	width := len(fmt.Sprint(MaxTile(g)))
	if width < 1 {
		width = 1
	}

	rows := make([]string, 0, GridSize)
	for _, row := range g {
		cells := make([]string, 0, GridSize)
		for _, v := range row {
			cell := "."
			if v != 0 {
				cell = fmt.Sprint(v)
			}
			cells = append(cells, fmt.Sprintf("%*s", width, cell))
		}
		rows = append(rows, strings.Join(cells, " "))
	}
	return rows
}

// appendHistory records one input. Once MaxHistory entries are held the
// oldest quarter is dropped; move numbers keep counting.
func appendHistory(h []MoveHistoryEntry, action string, accepted bool, score int) []MoveHistoryEntry {
	next := 1
	if len(h) > 0 {
		next = h[len(h)-1].MoveNumber + 1
	}
	if len(h) >= MaxHistory {
		drop := MaxHistory / 4
		n := copy(h, h[drop:])
		h = h[:n]
	}
	return append(h, MoveHistoryEntry{
		Action:     action,
		Accepted:   accepted,
		Score:      score,
		MoveNumber: next,
		Timestamp:  time.Now().Unix(),
	})
}
