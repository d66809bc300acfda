package main

import (
	"fmt"
	"sort"

	"github.com/wricardo/puzzlebox/game/engine"
)

// Strategy names accepted by --strategy
const (
	StrategyRandom = "random"
	StrategyCorner = "corner"
	StrategyGreedy = "greedy"
	StrategyMemory = "memory"
)

// cornerOrder keeps the largest tiles packed into the bottom-left corner
var cornerOrder = []engine.Direction{engine.Down, engine.Left, engine.Right, engine.Up}

type mergePlayer interface {
	Next(e *engine.GridEngine) engine.Direction
}

type matchPlayer interface {
	Next(state engine.MatchState) int
	Observe(state engine.MatchState)
}

func newMergePlayer(name string, rng engine.Rand) (mergePlayer, error) {
	switch name {
	case StrategyRandom:
		return &randomMerger{rng: rng}, nil
	case StrategyCorner, "":
		return cornerMerger{}, nil
	case StrategyGreedy:
		return greedyMerger{}, nil
	}
	return nil, fmt.Errorf("unknown merge strategy %q (want %s, %s or %s)", name, StrategyRandom, StrategyCorner, StrategyGreedy)
}

func newMatchPlayer(name string, rng engine.Rand) (matchPlayer, error) {
	switch name {
	case StrategyRandom:
		return &randomMatcher{rng: rng}, nil
	case StrategyMemory, "":
		return newMemoryMatcher(rng), nil
	}
	return nil, fmt.Errorf("unknown match strategy %q (want %s or %s)", name, StrategyRandom, StrategyMemory)
}

type randomMerger struct {
	rng engine.Rand
}

func (p *randomMerger) Next(e *engine.GridEngine) engine.Direction {
	possible := e.PossibleMoves()
	if len(possible) == 0 {
		return engine.Down
	}
	return possible[p.rng.IntN(len(possible))]
}

type cornerMerger struct{}

func (cornerMerger) Next(e *engine.GridEngine) engine.Direction {
	for _, d := range cornerOrder {
		if e.CanMove(d) {
			return d
		}
	}
	return engine.Down
}

// greedyMerger picks the move that leaves the most empty cells before the
// spawn, breaking ties in corner order
type greedyMerger struct{}

func (greedyMerger) Next(e *engine.GridEngine) engine.Direction {
	grid := e.State().Grid
	best, bestEmpty := engine.Down, -1
	for _, d := range cornerOrder {
		if !e.CanMove(d) {
			continue
		}
		if empty := len(engine.EmptyCells(engine.Move(grid, d))); empty > bestEmpty {
			best, bestEmpty = d, empty
		}
	}
	return best
}

// faceDown lists the tiles that can still be selected
func faceDown(state engine.MatchState) []int {
	var ids []int
	for _, t := range state.Deck {
		if !t.IsFlipped {
			ids = append(ids, t.ID)
		}
	}
	return ids
}

type randomMatcher struct {
	rng engine.Rand
}

func (p *randomMatcher) Next(state engine.MatchState) int {
	ids := faceDown(state)
	if len(ids) == 0 {
		return -1
	}
	return ids[p.rng.IntN(len(ids))]
}

func (p *randomMatcher) Observe(engine.MatchState) {}

// memoryMatcher never forgets a revealed tile
type memoryMatcher struct {
	rng  engine.Rand
	seen map[int]string
}

func newMemoryMatcher(rng engine.Rand) *memoryMatcher {
	return &memoryMatcher{rng: rng, seen: make(map[int]string)}
}

func (p *memoryMatcher) Observe(state engine.MatchState) {
	for _, t := range state.Deck {
		if t.IsFlipped {
			p.seen[t.ID] = t.Symbol
		}
	}
}

func (p *memoryMatcher) Next(state engine.MatchState) int {
	down := faceDown(state)
	if len(down) == 0 {
		return -1
	}
	isDown := make(map[int]bool, len(down))
	for _, id := range down {
		isDown[id] = true
	}

	if len(state.Flipped) == 1 {
		first := state.Flipped[0]
		if partner, ok := p.partner(first, isDown); ok {
			return partner
		}
		return p.unseen(down)
	}

	// a known pair among the face-down tiles
	bySymbol := make(map[string][]int)
	for _, id := range down {
		if s, ok := p.seen[id]; ok {
			bySymbol[s] = append(bySymbol[s], id)
		}
	}
	symbols := make([]string, 0, len(bySymbol))
	for s := range bySymbol {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)
	for _, s := range symbols {
		if ids := bySymbol[s]; len(ids) == 2 {
			return ids[0]
		}
	}
	return p.unseen(down)
}

func (p *memoryMatcher) partner(first int, isDown map[int]bool) (int, bool) {
	symbol, ok := p.seen[first]
	if !ok {
		return 0, false
	}
	ids := make([]int, 0, len(p.seen))
	for id, s := range p.seen {
		if s == symbol && id != first && isDown[id] {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return 0, false
	}
	sort.Ints(ids)
	return ids[0], true
}

func (p *memoryMatcher) unseen(down []int) int {
	var fresh []int
	for _, id := range down {
		if _, ok := p.seen[id]; !ok {
			fresh = append(fresh, id)
		}
	}
	if len(fresh) == 0 {
		fresh = down
	}
	return fresh[p.rng.IntN(len(fresh))]
}
