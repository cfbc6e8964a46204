// Package api provides HTTP REST API handlers for the warehouse simulator.
//
// The api package implements:
//   - Session management endpoints
//   - Move, bulk move and scripted run endpoints
//   - Configuration listing, retrieval and upload
//   - WebSocket upgrade handling
//
// Endpoints:
//
// Session Management:
//   - POST /api/sessions - Create a session {config_id, wide}
//   - GET /api/sessions - List sessions (?sort=created|accessed&order=asc|desc&limit=N)
//   - GET /api/sessions/unified - Several boards at once (?sessionIds=a,b or ?configName=X)
//   - GET /api/sessions/{id} - Get a session
//   - DELETE /api/sessions/{id} - Delete a session
//
// Simulation:
//   - GET /api/sessions/{id}/state - Current board and robot position
//   - POST /api/sessions/{id}/move - One ad-hoc move {direction, reset}
//   - POST /api/sessions/{id}/bulk-move - Several ad-hoc moves {moves, reset}
//   - POST /api/sessions/{id}/run - Drain the scripted moves {limit}
//   - POST /api/sessions/{id}/reset - Rebuild the initial board
//   - GET /api/sessions/{id}/history - Paginated history (?page&limit&order)
//   - GET /api/sessions/{id}/boxes - Box positions and GPS score
//
// Configuration:
//   - GET /api/configs - List available puzzles
//   - GET /api/configs/{name} - Get one puzzle
//   - POST /api/configs - Save a puzzle (config_id defaults to a slug of the name)
//
// Other:
//   - GET /ws?session={id} - Live board updates
//   - GET /healthz - Liveness probe
//
// Errors:
//
// Failures are returned as {"error": "..."}. Unknown sessions and configs
// map to 404, invalid input to 400 and duplicate session IDs to 409.
//
// Usage:
//
//	hub := websocket.NewHub()
//	go hub.Run(ctx)
//
//	server := api.NewServer(gameService, hub)
//	http.ListenAndServe(":8080", server)
package api
