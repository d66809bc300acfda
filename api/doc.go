// Package api provides the HTTP REST surface of the puzzle server.
//
// Endpoints:
//
// Sessions:
//   - POST /api/sessions            {"config_id": "classic"}; empty body uses the default preset
//   - GET /api/sessions             ?sort=created|accessed&order=asc|desc&limit=N&kind=merge|match
//   - GET /api/sessions/{id}
//   - DELETE /api/sessions/{id}
//
// Play:
//   - GET /api/sessions/{id}/state
//   - POST /api/sessions/{id}/move     {"direction": "up|down|left|right"} (merge sessions)
//   - POST /api/sessions/{id}/select   {"tile_id": 3} (match sessions)
//   - POST /api/sessions/{id}/restart
//   - GET /api/sessions/{id}/history   ?page=1&limit=20&order=desc
//
// Presets and results:
//   - GET /api/configs, POST /api/configs, GET /api/configs/{name}
//   - GET /api/results                 ?kind=merge&config_id=classic&limit=20
//   - GET /api/health
//
// Live updates:
//   - GET /ws?session={id} upgrades to a websocket fed by the game service
//
// Errors are JSON objects of the form {"error": "..."}. Unknown sessions and
// presets map to 404, an operation on the wrong kind of game to 409, and
// malformed input to 400. A move or selection the game ignores is not an
// error: it returns 200 with "accepted": false.
package api
