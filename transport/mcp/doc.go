// Package mcp exposes the puzzle server to AI agents over the Model Context
// Protocol.
//
// The Client holds no game state. Every tool call is proxied to the REST
// API and the JSON response is rendered as plain text that an agent can
// read: the merge grid as aligned rows, the match deck with "??" for
// face-down tiles and brackets around matched pairs.
//
// Tools:
//   - create_session, list_sessions, get_session
//   - game_state, move (merge), select_tile (match), restart_game
//   - move_history, list_configs, list_results, game_instructions
//
// REST errors come back as tool errors, never as protocol errors, so an
// agent sees "operation not supported by this game" when it calls move on
// a match session.
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	server.ServeStdio(client.GetMCPServer())
package mcp
