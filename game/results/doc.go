// Package results records finished rounds of both puzzles.
//
// Only the outcome of a round is stored (score, moves, duration), never the
// board itself; a live game exists only in process memory. Two Store
// implementations are provided: MemoryStore for tests and ephemeral runs,
// and SQLiteStore backed by github.com/mattn/go-sqlite3.
package results
