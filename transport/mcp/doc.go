// Package mcp exposes the warehouse simulator to AI agents over the Model
// Context Protocol.
//
// The Client is a thin proxy: every tool call becomes a request to the REST
// API, so agents and browser viewers share the same sessions and the WebSocket
// hub sees every change.
//
// MCP Tools:
//   - create_session, list_sessions, get_session: Session management
//   - game_state: Board, robot position and GPS score
//   - move, bulk_move: Ad-hoc moves that leave the script untouched
//   - run_script: Execute the puzzle's scripted moves
//   - reset_game, move_history: Rewind and inspect
//   - box_positions: Box coordinates with their GPS values
//   - describe_cell: One cell of the board in words
//   - list_configs, game_instructions: Reference material
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	server.ServeStdio(client.GetMCPServer())
package mcp
