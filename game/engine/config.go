package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

var (
	ErrEmptyLayout    = errors.New("layout is empty")
	ErrRaggedLayout   = errors.New("layout rows differ in width")
	ErrInvalidSymbol  = errors.New("invalid map symbol")
	ErrNoRobot        = errors.New("layout has no robot")
	ErrMultipleRobots = errors.New("layout has more than one robot")
	ErrUnpairedBox    = errors.New("double-wide box half without its partner")
	ErrOpenPerimeter  = errors.New("layout perimeter is not walled")
)

// Messages holds the status texts shown after each move
type Messages struct {
	Welcome  string `json:"welcome,omitempty" yaml:"welcome,omitempty"`
	Moved    string `json:"moved,omitempty" yaml:"moved,omitempty"`
	Pushed   string `json:"pushed,omitempty" yaml:"pushed,omitempty"`
	Blocked  string `json:"blocked,omitempty" yaml:"blocked,omitempty"`
	Finished string `json:"finished,omitempty" yaml:"finished,omitempty"`
}

func (m Messages) welcome() string {
	if m.Welcome != "" {
		return m.Welcome
	}
	return "Robot ready. Boxes move only when the whole chain has room."
}

func (m Messages) moved(d Direction) string {
	if m.Moved != "" {
		return fmt.Sprintf(m.Moved, d)
	}
	return fmt.Sprintf("Moved %s", d)
}

func (m Messages) pushed(n int, d Direction) string {
	if m.Pushed != "" {
		return fmt.Sprintf(m.Pushed, n, d)
	}
	return fmt.Sprintf("Pushed %d box(es) %s", n, d)
}

func (m Messages) blocked(d Direction) string {
	if m.Blocked != "" {
		return fmt.Sprintf(m.Blocked, d)
	}
	return fmt.Sprintf("Blocked moving %s", d)
}

func (m Messages) finished(score int) string {
	if m.Finished != "" {
		return fmt.Sprintf(m.Finished, score)
	}
	return fmt.Sprintf("Script finished. GPS score: %d", score)
}

// PuzzleConfig describes a warehouse board and its move script
type PuzzleConfig struct {
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description" yaml:"description"`
	Layout      []string `json:"layout" yaml:"layout"`
	Moves       string   `json:"moves" yaml:"moves"`
	Wide        bool     `json:"wide,omitempty" yaml:"wide,omitempty"`
	Messages    Messages `json:"messages,omitempty" yaml:"messages,omitempty"`
}

// WithWide returns a copy of the config with the double-wide transform toggled
func (c *PuzzleConfig) WithWide(wide bool) *PuzzleConfig {
	clone := *c
	clone.Layout = append([]string(nil), c.Layout...)
	clone.Wide = wide
	return &clone
}

// IsWideLayout reports whether the layout is already written in double-wide notation
func (c *PuzzleConfig) IsWideLayout() bool {
	for _, row := range c.Layout {
		if strings.ContainsAny(row, "[]") {
			return true
		}
	}
	return false
}

// ValidatePuzzleConfig validates a puzzle configuration for correctness
func ValidatePuzzleConfig(config *PuzzleConfig) error {
	if config == nil {
		return fmt.Errorf("config validation: config cannot be nil")
	}
	if config.Name == "" {
		return fmt.Errorf("config validation: name is required")
	}
	if config.Description == "" {
		return fmt.Errorf("config validation: description is required")
	}

	if len(config.Layout) < MinGridSize || len(config.Layout) > MaxGridSize {
		return fmt.Errorf("config validation: layout must have between %d and %d rows, got %d",
			MinGridSize, MaxGridSize, len(config.Layout))
	}
	if w := len(config.Layout[0]); w < MinGridSize || w > 2*MaxGridSize {
		return fmt.Errorf("config validation: layout must have between %d and %d columns, got %d",
			MinGridSize, 2*MaxGridSize, w)
	}

	if config.Wide && config.IsWideLayout() {
		return fmt.Errorf("config validation: layout is already double-wide but wide is set")
	}

	if _, err := BuildGrid(config.Layout, config.Wide); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}

	// Validate format strings
	if config.Messages.Pushed != "" && !strings.Contains(config.Messages.Pushed, "%d") {
		return fmt.Errorf("config validation: messages.pushed must contain %%d for the box count")
	}
	if config.Messages.Finished != "" && !strings.Contains(config.Messages.Finished, "%d") {
		return fmt.Errorf("config validation: messages.finished must contain %%d for the score")
	}
	for name, msg := range map[string]string{"moved": config.Messages.Moved, "blocked": config.Messages.Blocked} {
		if msg != "" && !strings.Contains(msg, "%s") {
			return fmt.Errorf("config validation: messages.%s must contain %%s for the direction", name)
		}
	}

	return nil
}

// WidenLayout applies the double-wide transform to a narrow layout
func WidenLayout(layout []string) []string {
	wide := make([]string, len(layout))
	for i, row := range layout {
		var b strings.Builder
		b.Grow(2 * len(row))
		for j := 0; j < len(row); j++ {
			switch row[j] {
			case '#':
				b.WriteString("##")
			case 'O':
				b.WriteString("[]")
			case '@':
				b.WriteString("@.")
			case '.':
				b.WriteString("..")
			default:
				// Unknown symbols are kept doubled so BuildGrid can report them
				b.WriteByte(row[j])
				b.WriteByte(row[j])
			}
		}
		wide[i] = b.String()
	}
	return wide
}

// BuildGrid turns map rows into a grid, applying the double-wide transform when wide is set
func BuildGrid(layout []string, wide bool) (*Grid, error) {
	if len(layout) == 0 || len(layout[0]) == 0 {
		return nil, ErrEmptyLayout
	}
	rows := layout
	if wide {
		rows = WidenLayout(layout)
	}

	width := len(rows[0])
	grid := NewGrid(width, len(rows))
	robots := 0
	for y, row := range rows {
		if len(row) != width {
			return nil, fmt.Errorf("%w: row %d has %d cells, expected %d", ErrRaggedLayout, y+1, len(row), width)
		}
		for x := 0; x < width; x++ {
			kind, ok := KindFromSymbol(row[x])
			if !ok {
				return nil, fmt.Errorf("%w: '%c' at row %d, col %d", ErrInvalidSymbol, row[x], y+1, x+1)
			}
			if kind == Robot {
				robots++
			}
			grid.Set(Position{X: x, Y: y}, kind)
		}
	}

	switch {
	case robots == 0:
		return nil, ErrNoRobot
	case robots > 1:
		return nil, fmt.Errorf("%w: found %d", ErrMultipleRobots, robots)
	}
	if err := checkPairing(grid); err != nil {
		return nil, err
	}
	if err := checkPerimeter(grid); err != nil {
		return nil, err
	}
	return grid, nil
}

// LoadPuzzleConfig loads a puzzle configuration from a JSON file
func LoadPuzzleConfig(filename string) (*PuzzleConfig, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	var config PuzzleConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, err
	}

	if err := ValidatePuzzleConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// PuzzleConfigFromInput builds a config from the plain text puzzle format
func PuzzleConfigFromInput(name, input string, wide bool) (*PuzzleConfig, error) {
	puzzle, err := ParsePuzzle(input)
	if err != nil {
		return nil, err
	}
	config := &PuzzleConfig{
		Name:        name,
		Description: fmt.Sprintf("Imported %dx%d warehouse with %d moves", len(puzzle.Layout[0]), len(puzzle.Layout), len(puzzle.Moves)),
		Layout:      puzzle.Layout,
		Moves:       EncodeMoves(puzzle.Moves),
		Wide:        wide,
	}
	if err := ValidatePuzzleConfig(config); err != nil {
		return nil, err
	}
	return config, nil
}
