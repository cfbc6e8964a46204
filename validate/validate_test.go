package main

import (
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/wricardo/mcp-training/warehouse/game/config"
	"github.com/wricardo/mcp-training/warehouse/game/engine"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
}

func newTestManager(t *testing.T, dir string) *config.Manager {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	manager, err := config.NewManagerWithLogger(dir, logger)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}
	return manager
}

func hasLine(lines []string, prefix string) bool {
	for _, line := range lines {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return false
}

const corridorJSON = `{
	"name": "Corridor",
	"description": "Two boxes in a corridor",
	"layout": ["########", "#@OO...#", "########"],
	"moves": ">>>>>"
}`

const pocketJSON = `{
	"name": "Pocket",
	"description": "A box sealed off in a wall pocket",
	"layout": ["#######", "#@.#O.#", "#######"],
	"moves": "><"
}`

func TestValidateConfig_ValidConfig(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "corridor.json", corridorJSON)
	manager := newTestManager(t, dir)

	result := validateConfig(manager, "corridor.json")
	if !result.Valid {
		t.Fatalf("Expected valid config, but got errors: %v", result.Errors)
	}

	for _, want := range []string{
		"✓ Reachability: all 2 boxes reachable from the robot",
		"✓ Grid: 8x3",
		"✓ Script: 5 moves, 2 blocked, GPS score 211",
		"✓ Widened GPS score: 218",
	} {
		if !hasLine(result.Errors, want) {
			t.Errorf("Expected line %q in %v", want, result.Errors)
		}
	}
}

func TestValidateConfig_RawInput(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "small.txt", `########
#..O.O.#
##@.O..#
#...O..#
#.#.O..#
#...O..#
#......#
########

<^^>>>vv<v>>v<<
`)
	manager := newTestManager(t, dir)

	result := validateConfig(manager, "small.txt")
	if !result.Valid {
		t.Fatalf("Expected valid config, but got errors: %v", result.Errors)
	}
	if !hasLine(result.Errors, "✓ Script: 15 moves") || !strings.Contains(strings.Join(result.Errors, "\n"), "GPS score 2028") {
		t.Errorf("Expected score 2028 in %v", result.Errors)
	}
}

func TestValidateConfig_Warnings(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "pocket.json", pocketJSON)
	manager := newTestManager(t, dir)

	result := validateConfig(manager, "pocket.json")
	if !result.Valid {
		t.Fatalf("Warnings should not invalidate a puzzle: %v", result.Errors)
	}

	for _, want := range []string{
		"⚠ Reachability: 1/1 boxes walled off from the robot (4,1)",
		"⚠ Cornered boxes: 1 can never move (4,1)",
	} {
		if !hasLine(result.Errors, want) {
			t.Errorf("Expected line %q in %v", want, result.Errors)
		}
	}
}

func TestValidateConfig_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		content  string
		wantText string
	}{
		{
			name:     "invalid JSON",
			file:     "broken.json",
			content:  `{"name": "test", invalid json}`,
			wantText: "invalid config",
		},
		{
			name:     "missing description",
			file:     "nodesc.json",
			content:  `{"name": "x", "layout": ["#####", "#@O.#", "#####"]}`,
			wantText: "invalid config",
		},
		{
			name:     "two robots",
			file:     "robots.txt",
			content:  "#####\n#@.@#\n#####\n\n<\n",
			wantText: "invalid config",
		},
		{
			name:     "broken wall",
			file:     "hole.yaml",
			content:  "name: hole\ndescription: gap in the wall\nlayout:\n  - \"#####\"\n  - \"#@O..\"\n  - \"#####\"\n",
			wantText: "invalid config",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeFile(t, dir, tt.file, tt.content)
			manager := newTestManager(t, dir)

			result := validateConfig(manager, tt.file)
			if result.Valid {
				t.Fatalf("Expected invalid result for %s", tt.file)
			}
			if !strings.Contains(strings.Join(result.Errors, "\n"), tt.wantText) {
				t.Errorf("Expected %q in errors: %v", tt.wantText, result.Errors)
			}
		})
	}
}

func TestValidateReachability(t *testing.T) {
	grid, err := engine.BuildGrid([]string{
		"#########",
		"#@.O.#O.#",
		"#...O####",
		"#########",
	}, false)
	if err != nil {
		t.Fatalf("BuildGrid: %v", err)
	}

	result := validateReachability(grid, engine.Position{X: 1, Y: 1})
	if len(result.Errors) != 1 || result.Errors[0] != "⚠ Reachability: 1/3 boxes walled off from the robot (6,1)" {
		t.Errorf("unexpected result: %v", result.Errors)
	}
}

func TestCorneredBoxes(t *testing.T) {
	grid, err := engine.BuildGrid([]string{
		"#######",
		"#O...O#",
		"#..O..#",
		"#O.@..#",
		"#######",
	}, false)
	if err != nil {
		t.Fatalf("BuildGrid: %v", err)
	}

	got := corneredBoxes(grid)
	want := []engine.Position{{X: 1, Y: 1}, {X: 5, Y: 1}, {X: 1, Y: 3}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("corneredBoxes = %v, want %v", got, want)
	}
}

func TestPuzzleFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.yaml", "a.json", "c.txt", "d.txt.zst", "notes.md"} {
		writeFile(t, dir, name, "")
	}

	files, err := puzzleFiles(dir)
	if err != nil {
		t.Fatalf("puzzleFiles: %v", err)
	}

	want := []string{"a.json", "b.yaml", "c.txt", "d.txt.zst"}
	if !reflect.DeepEqual(files, want) {
		t.Errorf("puzzleFiles = %v, want %v", files, want)
	}
}

func TestValidateShippedConfigs(t *testing.T) {
	dir := filepath.Join("..", "configs")
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		t.Skip("Skipping test - configs directory not found")
	}

	manager := newTestManager(t, dir)
	files, err := puzzleFiles(dir)
	if err != nil {
		t.Fatalf("puzzleFiles: %v", err)
	}

	for _, file := range files {
		result := validateConfig(manager, file)
		if !result.Valid {
			t.Errorf("%s: %v", file, result.Errors)
		}
		if file == "larger_example.json" {
			joined := strings.Join(result.Errors, "\n")
			if !strings.Contains(joined, "GPS score 10092") || !strings.Contains(joined, "Widened GPS score: 9021") {
				t.Errorf("unexpected scores for larger example: %v", result.Errors)
			}
		}
	}
}
