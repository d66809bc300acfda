package engine

import (
	"fmt"
	"strings"
)

// ParseDirection converts user input into a Direction. It accepts the plain
// names in any case plus the browser arrow-key names.
func ParseDirection(input string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "up", "arrowup":
		return Up, nil
	case "down", "arrowdown":
		return Down, nil
	case "left", "arrowleft":
		return Left, nil
	case "right", "arrowright":
		return Right, nil
	}
	return "", fmt.Errorf("invalid direction %q", input)
}

// Valid reports whether d is one of the four directions
func (d Direction) Valid() bool {
	switch d {
	case Up, Down, Left, Right:
		return true
	}
	return false
}

// linePositions returns the cells of line i ordered along the direction of
// travel, so index 0 is the cell tiles slide towards.
func linePositions(d Direction, i int) [GridSize]Position {
	var out [GridSize]Position
	for k := 0; k < GridSize; k++ {
		switch d {
		case Left:
			out[k] = Position{Row: i, Col: k}
		case Right:
			out[k] = Position{Row: i, Col: GridSize - 1 - k}
		case Up:
			out[k] = Position{Row: k, Col: i}
		case Down:
			out[k] = Position{Row: GridSize - 1 - k, Col: i}
		}
	}
	return out
}

// mergeLine compacts and merges one oriented line. Each tile merges at most
// once, so [2,2,2,2] becomes [4,4,0,0].
func mergeLine(line [GridSize]int) ([GridSize]int, []int) {
	compact := make([]int, 0, GridSize)
	for _, v := range line {
		if v != 0 {
			compact = append(compact, v)
		}
	}

	var merges []int
	for i := 0; i < len(compact)-1; i++ {
		if compact[i] == compact[i+1] {
			compact[i] *= 2
			compact[i+1] = 0
			merges = append(merges, compact[i])
			i++
		}
	}

	var out [GridSize]int
	k := 0
	for _, v := range compact {
		if v != 0 {
			out[k] = v
			k++
		}
	}
	return out, merges
}

// Move slides every line of the grid in direction d and returns the result.
// The input grid is not modified. An invalid direction returns g unchanged.
func Move(g Grid, d Direction) Grid {
	out, _ := moveWithMerges(g, d)
	return out
}

func moveWithMerges(g Grid, d Direction) (Grid, []int) {
	if !d.Valid() {
		return g, nil
	}

	out := g
	var merges []int
	for i := 0; i < GridSize; i++ {
		positions := linePositions(d, i)

		var line [GridSize]int
		for k, p := range positions {
			line[k] = g[p.Row][p.Col]
		}

		merged, m := mergeLine(line)
		merges = append(merges, m...)

		for k, p := range positions {
			out[p.Row][p.Col] = merged[k]
		}
	}
	return out, merges
}
