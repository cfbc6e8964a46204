// Command validate checks every puzzle file in a configs directory
// (../configs unless a directory is given). It checks:
//   - Schema and layout validity (through the config manager)
//   - Box reachability: every box is connected to the robot over non-wall cells
//   - Narrow boxes wedged into a corner, which can never move again
//   - The scripted moves run cleanly, reporting the GPS score narrow and widened
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/wricardo/mcp-training/warehouse/game/config"
	"github.com/wricardo/mcp-training/warehouse/game/engine"
)

// puzzlePatterns are the file globs the config manager can load.
var puzzlePatterns = []string{"*.json", "*.yaml", "*.yml", "*.txt", "*.txt.zst"}

// ValidationResult captures the outcome of validating a single file.
// If Valid is true, Errors contains informational messages; otherwise it
// accumulates the validation errors that were found. Lines starting with
// "✓" are informational and lines starting with "⚠" are warnings.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
}

func (r *ValidationResult) fail(format string, args ...interface{}) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *ValidationResult) note(format string, args ...interface{}) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// validateConfig loads one puzzle file through the manager and checks it.
func validateConfig(manager *config.Manager, filename string) ValidationResult {
	result := ValidationResult{
		File:   filename,
		Valid:  true,
		Errors: []string{},
	}

	puzzle, err := manager.LoadConfig(filename)
	if err != nil {
		result.fail("%v", err)
		return result
	}

	sim, err := engine.NewSimulator(puzzle)
	if err != nil {
		result.fail("Cannot build simulator: %v", err)
		return result
	}
	grid := sim.Grid()

	reach := validateReachability(grid, sim.GetRobotPosition())
	result.Errors = append(result.Errors, reach.Errors...)

	if cornered := corneredBoxes(grid); len(cornered) > 0 {
		result.note("⚠ Cornered boxes: %d can never move (%s)", len(cornered), formatPositions(cornered))
	}

	summary := sim.Run()
	if err := sim.CheckInvariants(); err != nil {
		result.fail("Invariant broken after script: %v", err)
		return result
	}

	result.note("✓ Name: %s", puzzle.Name)
	result.note("✓ Grid: %dx%d", grid.Width(), grid.Height())
	result.note("✓ Boxes: %d", len(engine.BoxPositions(grid)))
	result.note("✓ Script: %d moves, %d blocked, GPS score %d", summary.Executed, summary.Blocked, summary.Score)

	if !sim.Wide() {
		wideScore, err := runWidened(puzzle)
		if err != nil {
			result.fail("Widened board is invalid: %v", err)
			return result
		}
		result.note("✓ Widened GPS score: %d", wideScore)
	}

	return result
}

// runWidened replays the script on the double-wide version of the puzzle.
func runWidened(puzzle *engine.PuzzleConfig) (int, error) {
	sim, err := engine.NewSimulator(puzzle.WithWide(true))
	if err != nil {
		return 0, err
	}
	summary := sim.Run()
	if err := sim.CheckInvariants(); err != nil {
		return 0, err
	}
	return summary.Score, nil
}

// validateReachability flood fills from the robot over non-wall cells and
// warns about boxes outside that region. Boxes count as passable since the
// robot may push them aside.
func validateReachability(grid *engine.Grid, robot engine.Position) ValidationResult {
	result := ValidationResult{
		Valid:  true,
		Errors: []string{},
	}

	visited := map[engine.Position]bool{robot: true}
	queue := []engine.Position{robot}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, dir := range engine.AllDirections {
			next := current.Step(dir)
			if visited[next] || !grid.InBounds(next) || grid.Get(next) == engine.Wall {
				continue
			}
			visited[next] = true
			queue = append(queue, next)
		}
	}

	boxes := engine.BoxPositions(grid)
	var unreachable []engine.Position
	for _, box := range boxes {
		if !visited[box] {
			unreachable = append(unreachable, box)
		}
	}

	if len(unreachable) > 0 {
		result.note("⚠ Reachability: %d/%d boxes walled off from the robot (%s)",
			len(unreachable), len(boxes), formatPositions(unreachable))
	} else {
		result.note("✓ Reachability: all %d boxes reachable from the robot", len(boxes))
	}

	return result
}

// corneredBoxes lists narrow boxes with a wall on one vertical and one
// horizontal side.
func corneredBoxes(grid *engine.Grid) []engine.Position {
	isWall := func(p engine.Position) bool {
		return !grid.InBounds(p) || grid.Get(p) == engine.Wall
	}

	var cornered []engine.Position
	for _, box := range grid.Find(engine.Box) {
		vertical := isWall(box.Step(engine.Up)) || isWall(box.Step(engine.Down))
		horizontal := isWall(box.Step(engine.Left)) || isWall(box.Step(engine.Right))
		if vertical && horizontal {
			cornered = append(cornered, box)
		}
	}
	return cornered
}

func formatPositions(positions []engine.Position) string {
	parts := make([]string, len(positions))
	for i, p := range positions {
		parts[i] = fmt.Sprintf("(%d,%d)", p.X, p.Y)
	}
	return strings.Join(parts, " ")
}

// puzzleFiles lists loadable puzzle files in dir, sorted by name.
func puzzleFiles(dir string) ([]string, error) {
	seen := map[string]bool{}
	var files []string
	for _, pattern := range puzzlePatterns {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}
		for _, match := range matches {
			name := filepath.Base(match)
			if !seen[name] {
				seen[name] = true
				files = append(files, name)
			}
		}
	}
	sort.Strings(files)
	return files, nil
}

// main validates each puzzle file, printing a concise report and exiting
// with non-zero status if any are invalid.
func main() {
	configDir := "../configs"
	if len(os.Args) > 1 {
		configDir = os.Args[1]
	}

	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)

	manager, err := config.NewManagerWithLogger(configDir, logger)
	if err != nil {
		logger.WithError(err).Fatal("Cannot open config directory")
	}

	files, err := puzzleFiles(configDir)
	if err != nil {
		logger.WithError(err).Fatal("Error finding config files")
	}

	allValid := true
	for _, file := range files {
		result := validateConfig(manager, file)

		fmt.Printf("\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Println("✅ VALID")
			for _, info := range result.Errors {
				fmt.Println("  " + info)
			}
		} else {
			fmt.Println("❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				if !strings.HasPrefix(err, "✓") {
					fmt.Println("  ❌ " + err)
				}
			}
		}
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Println("✅ All puzzles are valid!")
	} else {
		fmt.Println("❌ Some puzzles have errors")
		os.Exit(1)
	}
}
