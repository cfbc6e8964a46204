// Package service provides the business logic layer for the warehouse simulator.
//
// The service package implements:
//   - Multi-session simulation management
//   - Ad-hoc moves, bulk moves and scripted runs
//   - Paginated move history and box scoring
//   - Configuration listing, loading and saving
//
// Core Interfaces:
//
// GameService is the main service interface used by the HTTP, WebSocket and
// MCP transports. SessionManager and ConfigManager are implemented by the
// session and config packages.
//
// Concurrency:
//
// A simulator is not safe for concurrent use. Every operation locks its
// session for its whole duration, so moves on one board are strictly
// sequential while different boards proceed independently. Long operations
// check the request context between moves and stop at a move boundary when it
// is cancelled.
//
// Usage:
//
//	sessionMgr := session.NewManager()
//	configMgr, _ := config.NewManager("configs")
//	gameService := service.NewGameService(sessionMgr, configMgr)
//
//	info, err := gameService.CreateSession(ctx, "larger_example", true)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	result, err := gameService.Run(ctx, info.ID, 0)
//	fmt.Println(result.Score)
package service
