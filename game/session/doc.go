// Package session provides the in-memory session registry for Puzzle Box.
//
// The session package implements:
//   - Thread-safe session storage and retrieval
//   - Unique session ID generation
//   - Engine construction for the preset kind of each session
//   - Session cleanup and expiration
//
// Session Identifiers:
//
// Sessions use 4-character hex IDs for easy reference. Generation uses
// crypto/rand and retries on collision; lookups are case-insensitive.
//
// Randomness:
//
// Each session engine gets its own engine.Rand from the manager's
// RandFactory. Tests pass a factory returning seeded sources.
//
//	manager := session.NewManagerWithRand(func() engine.Rand {
//		return engine.NewRand(42)
//	})
//	sess, err := manager.Create("", engine.DefaultMergeConfig())
//
// Sessions are never written to disk; a restart of the process ends them.
package session
