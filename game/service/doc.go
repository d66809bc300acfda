// Package service provides the business logic layer for Puzzle Box.
//
// The service package implements:
//   - Multi-session game management for both puzzles
//   - The turn protocol of the merge puzzle and tile selection of the match
//     puzzle, with events describing what happened
//   - Scheduling of the delayed hide of a mismatched pair
//   - Move history paging
//   - Recording of finished rounds
//
// Core Interfaces:
//
// GameService is the main service interface providing high-level game operations.
// SessionManager handles session creation, retrieval, and lifecycle.
// ConfigManager manages preset loading and validation.
// Scheduler and Notifier connect the service to time and to push transports.
//
// Architecture:
//
// The service layer sits between the transport layer (HTTP/WebSocket/MCP) and
// the engines. Engines are not safe for concurrent use, so every call that
// touches one runs under a single service mutex. A mismatch hands out an
// engine.HideToken; the scheduled callback takes the same mutex, checks that
// the session still owns the same engine and applies the token, which is a
// no-op if the round was restarted in between.
//
// Usage:
//
//	sessionMgr := session.NewManager()
//	configMgr, _ := config.NewManager("configs")
//	gameService := service.NewGameService(sessionMgr, configMgr,
//		service.WithNotifier(hub),
//		service.WithResults(store),
//	)
//
//	info, err := gameService.CreateSession(ctx, "classic")
//	result, err := gameService.Move(ctx, info.ID, "left")
package service
