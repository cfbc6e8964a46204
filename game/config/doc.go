// Package config provides puzzle configuration management for the warehouse simulator.
//
// The config package handles:
//   - Loading puzzles from JSON, YAML, plain text and zstd-compressed text
//   - Schema and semantic validation
//   - Default configuration management
//   - Configuration discovery and listing
//
// File Formats:
//
// Structured configs (.json, .yaml, .yml) carry a name, description, layout
// rows, the move script and optional message templates. They are checked
// against an embedded JSON Schema before the layout itself is validated.
//
// Plain puzzle inputs (.txt) hold the map rows, a blank line, then the move
// lines. The same input compressed with zstd (.txt.zst) is decompressed on
// load. The config ID of a text input doubles as its name.
//
// Available Configurations:
//   - larger_example: 10x10 board with a long script, used as the default
//   - small_example: 8x8 board with a short script
//   - corridor: single corridor for push chains against a wall
//   - wide_fan: pre-widened board exercising vertical fan-out
//
// Usage:
//
//	manager, err := config.NewManager("configs")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	puzzle, err := manager.LoadConfig("small_example")
//
//	// List available configurations
//	configs, err := manager.ListConfigs()
//
// Validation:
//
// All configurations are validated for:
//   - Rectangular layouts within the size limits
//   - Known map symbols and exactly one robot
//   - Paired double-wide box halves
//   - A walled perimeter
//   - Message templates carrying their format verbs
package config
