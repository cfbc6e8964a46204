// Package websocket provides live board updates for the warehouse simulator.
//
// The websocket package implements:
//   - Session-aware viewer connections
//   - State broadcasting after every mutating call
//   - Connection lifecycle management
//
// Architecture:
//
// A central Hub owns every connection. Its Run goroutine is the only code that
// touches the client map; registrations, broadcasts and count queries reach it
// over channels. Each client has a read pump that keeps the connection alive
// and a write pump that delivers queued frames and pings.
//
// Message Protocol:
//
// Viewers are read-only. Every outgoing frame is one JSON object:
//
//	{"session_id": "ab12", "event": "state_update", "state": {...}}
//	{"session_id": "ab12", "event": "script_run", "data": {...}}
//
// Clients pick their session with the query parameter ?session=ab12.
//
// Usage:
//
//	hub := websocket.NewHub()
//	go hub.Run(ctx)
//
//	router.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
//		hub.ServeWS(w, r, r.URL.Query().Get("session"))
//	})
//
//	hub.BroadcastToSession(sessionID, state)
//
// Broadcasts never block the caller. When the queue is full the message is
// dropped, and a viewer too slow to drain its own buffer is disconnected.
package websocket
