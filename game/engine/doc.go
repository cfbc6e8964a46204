// Package engine provides the core simulation for the warehouse robot.
//
// The engine package implements the box pushing mechanics including:
//   - A flat, bounds-checked grid of cell kinds
//   - All-or-nothing pushes of single-wide and double-wide boxes
//   - Scripted move execution and move history
//   - Puzzle parsing, configuration loading and validation
//   - GPS scoring of the final box layout
//
// Core Types:
//
// The Engine interface defines the main contract for simulation operations,
// implemented by Simulator. Grid holds the board, PuzzleConfig defines the
// layout and move script loaded from disk, and GameState is the serialisable
// snapshot handed to the service layer.
//
// Usage:
//
//	puzzle, err := engine.ParsePuzzle(input)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	grid, err := engine.BuildGrid(puzzle.Layout, true)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	sim, err := engine.NewSimulatorFromGrid(grid, puzzle.Moves)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	summary := sim.Run()
//	fmt.Println(summary.Score)
//
// Push Rules:
//
// A push succeeds only when every cell along the chain is eventually backed by
// an empty cell. Pushing a double-wide box up or down also pushes whatever sits
// ahead of its other half, so one push can fan out into a lattice of boxes.
// Feasibility is resolved for the whole lattice before any cell moves.
package engine
