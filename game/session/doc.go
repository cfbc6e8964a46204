// Package session provides session management for the warehouse simulator.
//
// The session package implements:
//   - Thread-safe, in-memory session storage and retrieval
//   - Unique session ID generation
//   - Session lifecycle management and expiry
//
// Core Types:
//
// Manager is the session registry. Each session wraps its own
// engine.Simulator, so boards hosted side by side never share state; every
// board keeps a single robot and executes its moves strictly in sequence.
//
// Session Identifiers:
//
// Sessions use 4-character hex IDs generated from crypto/rand. Lookups are
// case-insensitive.
//
// Usage:
//
//	manager := session.NewManager()
//
//	sess, err := manager.Create("", config)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	sess, err = manager.Get(sessionID)
//
// Sessions live only as long as the process. Stale ones can be dropped with
// CleanupExpiredSessions.
package session
