// Package websocket pushes session snapshots to browser clients.
//
// A single Hub goroutine owns the subscription table. Clients connect to
// /ws?session=<id> and receive one JSON text frame per accepted change:
//
//	{"session_id": "ab12", "event": "state_update", "snapshot": {...}}
//
// The Hub implements service.Notifier, so the game service publishes moves,
// selections, restarts and the delayed hide of a mismatched pair without the
// HTTP layer being involved. Incoming frames are read only to process
// pong and close control messages.
//
// Usage:
//
//	hub := websocket.NewHub()
//	go hub.Run()
//	defer hub.Stop()
//
//	svc := service.NewGameService(sessions, configs, service.WithNotifier(hub))
package websocket
