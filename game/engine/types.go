package engine

import "strings"

// CellKind represents what occupies a single grid cell
type CellKind string

const (
	Empty    CellKind = "empty"
	Wall     CellKind = "wall"
	Box      CellKind = "box"
	BoxLeft  CellKind = "box_left"
	BoxRight CellKind = "box_right"
	Robot    CellKind = "robot"

	// Validation constants
	MinGridSize  = 3
	MaxGridSize  = 200
	MaxBulkMoves = 500
	MaxRunMoves  = 100000
)

// Symbol returns the single-character map symbol for the kind
func (k CellKind) Symbol() byte {
	switch k {
	case Wall:
		return '#'
	case Box:
		return 'O'
	case BoxLeft:
		return '['
	case BoxRight:
		return ']'
	case Robot:
		return '@'
	default:
		return '.'
	}
}

// IsBoxHalf reports whether the kind is one half of a double-wide box
func (k CellKind) IsBoxHalf() bool {
	return k == BoxLeft || k == BoxRight
}

// KindFromSymbol maps a map symbol to its cell kind
func KindFromSymbol(c byte) (CellKind, bool) {
	switch c {
	case '#':
		return Wall, true
	case 'O':
		return Box, true
	case '[':
		return BoxLeft, true
	case ']':
		return BoxRight, true
	case '@':
		return Robot, true
	case '.':
		return Empty, true
	}
	return "", false
}

// Direction is a unit move on the grid
type Direction string

const (
	Up    Direction = "up"
	Down  Direction = "down"
	Left  Direction = "left"
	Right Direction = "right"
)

// AllDirections lists the four moves in a stable order
var AllDirections = []Direction{Up, Down, Left, Right}

// ParseDirection accepts a direction name (any case) or one of ^ v < >
func ParseDirection(s string) (Direction, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "up", "^", "u":
		return Up, true
	case "down", "v", "d":
		return Down, true
	case "left", "<", "l":
		return Left, true
	case "right", ">", "r":
		return Right, true
	}
	return "", false
}

// Symbol returns the script symbol for the direction
func (d Direction) Symbol() byte {
	switch d {
	case Up:
		return '^'
	case Down:
		return 'v'
	case Left:
		return '<'
	default:
		return '>'
	}
}

// Valid reports whether d is one of the four unit moves
func (d Direction) Valid() bool {
	return d == Up || d == Down || d == Left || d == Right
}

// Vertical reports whether the direction moves along the Y axis
func (d Direction) Vertical() bool {
	return d == Up || d == Down
}

// Delta returns the unit offset of the direction
func (d Direction) Delta() (dx, dy int) {
	switch d {
	case Up:
		return 0, -1
	case Down:
		return 0, 1
	case Left:
		return -1, 0
	case Right:
		return 1, 0
	}
	return 0, 0
}

// Position represents x,y coordinates; Y grows downwards
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Step returns the neighbouring position in direction d
func (p Position) Step(d Direction) Position {
	dx, dy := d.Delta()
	return Position{X: p.X + dx, Y: p.Y + dy}
}

// GPS returns the goods positioning coordinate used for scoring
func (p Position) GPS() int {
	return 100*p.Y + p.X
}

// MoveHistoryEntry represents a single executed move
type MoveHistoryEntry struct {
	Action       Direction `json:"action"`
	FromPosition Position  `json:"from_position"`
	ToPosition   Position  `json:"to_position"`
	Success      bool      `json:"success"`
	BoxesPushed  int       `json:"boxes_pushed"`
	Scripted     bool      `json:"scripted"`
	Timestamp    int64     `json:"timestamp"`
	MoveNumber   int       `json:"move_number"`
}

// MoveOutcome describes the effect of a single move attempt
type MoveOutcome struct {
	Direction Direction  `json:"direction"`
	From      Position   `json:"from"`
	To        Position   `json:"to"`
	Success   bool       `json:"success"`
	Pushed    []Position `json:"pushed,omitempty"` // new positions of the boxes that moved
	Blocker   *Position  `json:"blocker,omitempty"`
}

// RunSummary is the result of draining the scripted move list
type RunSummary struct {
	Executed   int `json:"executed"`
	Succeeded  int `json:"succeeded"`
	Blocked    int `json:"blocked"`
	Remaining  int `json:"remaining"`
	BoxesMoved int `json:"boxes_moved"`
	Score      int `json:"score"`
}

// GameState is the serialisable view of a simulation
type GameState struct {
	Layout       []string           `json:"layout"`
	Width        int                `json:"width"`
	Height       int                `json:"height"`
	Wide         bool               `json:"wide"`
	RobotPos     Position           `json:"robot_pos"`
	Score        int                `json:"score"`
	BoxCount     int                `json:"box_count"`
	Message      string             `json:"message"`
	ConfigName   string             `json:"config_name"`
	ScriptLength int                `json:"script_length"`
	ScriptCursor int                `json:"script_cursor"`
	Finished     bool               `json:"finished"`
	TotalMoves   int                `json:"total_moves"`
	LastMove     *MoveHistoryEntry  `json:"last_move,omitempty"`

	// CurrentMovesCount counts only the moves since the last reset, while
	// TotalMoves remains cumulative.
	CurrentMovesCount int `json:"current_moves_count"`

	// Computed helper view (not required for core game logic)
	LocalView3x3 []string `json:"local_view_3x3,omitempty"`
}
