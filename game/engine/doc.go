// Package engine provides the game logic for the two Puzzle Box games.
//
// The engine package implements:
//   - The merge puzzle (2048): a fixed 4x4 grid, directional moves with
//     one-merge-per-tile semantics, random tile spawns, win and game-over
//     detection
//   - The match puzzle: a shuffled deck of symbol pairs, flip/match state
//     machine and epoch-guarded mismatch hiding
//   - Preset validation
//
// Core Types:
//
// GridEngine owns one merge round and applies the turn protocol: a move that
// changes the grid spawns a tile and re-evaluates score, win and game over; a
// move that changes nothing is ignored. Move, IsGameOver and friends are also
// exported as pure functions over Grid values.
//
// MatchEngine owns one match round. Selecting two different symbols locks the
// engine and returns a HideToken; the caller schedules ResolveMismatch after
// the preset delay. Restart bumps the epoch so tokens from an earlier round
// are ignored.
//
// Randomness is always injected through the Rand interface:
//
//	rng := engine.NewRand(42)
//	grid := engine.NewGridEngine(rng)
//	grid.Move(engine.Left)
//
//	match := engine.NewMatchEngine(engine.DefaultSymbols, rng)
//	match.Select(0)
//	if outcome, token := match.Select(1); outcome == engine.SelectMismatch {
//		// one display delay later, on the goroutine that owns match:
//		match.ResolveMismatch(*token)
//	}
//
// Neither engine is safe for concurrent use.
package engine
