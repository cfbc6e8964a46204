package engine

import (
	"context"
	"fmt"
	"time"
)

// Engine provides the main interface for simulation operations
type Engine interface {
	// State management
	GetState() *GameState
	Reset() *GameState
	GetRobotPosition() Position
	Grid() *Grid
	Wide() bool

	// Movement operations
	Move(direction Direction) MoveOutcome
	CanMove(direction Direction) bool
	GetPossibleMoves() []Direction
	CanPush(p Position, d Direction) bool
	Push(p Position, d Direction) bool

	// Scripted moves
	Step() (MoveOutcome, bool)
	Run() RunSummary
	RunN(limit int) RunSummary
	RunContext(ctx context.Context, limit int) (RunSummary, error)
	Remaining() int

	// Scoring hand-off
	Boxes() []Position
	GPSScore() int

	// Configuration
	GetConfig() *PuzzleConfig

	// History
	GetMoveHistory() []MoveHistoryEntry
	GetLastMove() *MoveHistoryEntry

	CheckInvariants() error
}

var _ Engine = (*Simulator)(nil)

// Simulator owns one board, its robot and its move script. It is not safe for
// concurrent use; callers serialise access.
type Simulator struct {
	config *PuzzleConfig
	grid   *Grid
	robot  Position
	wide   bool

	initial      *Grid
	initialRobot Position

	script []Direction
	cursor int

	message string

	history    []MoveHistoryEntry
	totalMoves int
	current    []MoveHistoryEntry
}

// NewSimulator builds a simulator from a validated puzzle configuration
func NewSimulator(config *PuzzleConfig) (*Simulator, error) {
	if err := ValidatePuzzleConfig(config); err != nil {
		return nil, err
	}

	grid, err := BuildGrid(config.Layout, config.Wide)
	if err != nil {
		return nil, err
	}

	sim, err := NewSimulatorFromGrid(grid, DecodeMoves(config.Moves))
	if err != nil {
		return nil, err
	}
	sim.config = config
	sim.wide = config.Wide || hasBoxHalves(grid)
	sim.message = config.Messages.welcome()
	return sim, nil
}

// NewSimulatorFromGrid wraps an existing grid. The grid must hold exactly one robot.
func NewSimulatorFromGrid(grid *Grid, script []Direction) (*Simulator, error) {
	if grid == nil {
		return nil, fmt.Errorf("grid cannot be nil")
	}
	robots := grid.Find(Robot)
	switch {
	case len(robots) == 0:
		return nil, ErrNoRobot
	case len(robots) > 1:
		return nil, fmt.Errorf("%w: found %d", ErrMultipleRobots, len(robots))
	}

	return &Simulator{
		grid:         grid,
		robot:        robots[0],
		wide:         hasBoxHalves(grid),
		initial:      grid.Clone(),
		initialRobot: robots[0],
		script:       script,
		history:      []MoveHistoryEntry{},
		current:      []MoveHistoryEntry{},
	}, nil
}

// Grid returns the live grid. Callers must not mutate it.
func (s *Simulator) Grid() *Grid {
	return s.grid
}

// Wide reports whether the board uses double-wide boxes
func (s *Simulator) Wide() bool {
	return s.wide
}

// GetConfig returns the puzzle configuration, or nil for grid-built simulators
func (s *Simulator) GetConfig() *PuzzleConfig {
	return s.config
}

// GetRobotPosition returns the robot's current position
func (s *Simulator) GetRobotPosition() Position {
	return s.robot
}

// Move attempts to move the robot one step, pushing whatever lies ahead.
// It does not consume the script.
func (s *Simulator) Move(direction Direction) MoveOutcome {
	return s.execute(direction, false)
}

// CanMove checks whether the robot could move in the given direction
func (s *Simulator) CanMove(direction Direction) bool {
	return s.CanPush(s.robot, direction)
}

// GetPossibleMoves returns all directions the robot can currently move in
func (s *Simulator) GetPossibleMoves() []Direction {
	var possible []Direction
	for _, dir := range AllDirections {
		if s.CanMove(dir) {
			possible = append(possible, dir)
		}
	}
	return possible
}

// Step executes the next scripted move. It returns false once the script is drained.
func (s *Simulator) Step() (MoveOutcome, bool) {
	if s.cursor >= len(s.script) {
		return MoveOutcome{}, false
	}
	dir := s.script[s.cursor]
	s.cursor++
	return s.execute(dir, true), true
}

// Run drains the remaining script
func (s *Simulator) Run() RunSummary {
	return s.RunN(0)
}

// RunN executes at most limit scripted moves; a limit of zero or less means no limit
func (s *Simulator) RunN(limit int) RunSummary {
	summary, _ := s.RunContext(context.Background(), limit)
	return summary
}

// RunContext is RunN with cancellation. The context is checked between moves,
// never inside one, so a cancelled run leaves a consistent board behind.
func (s *Simulator) RunContext(ctx context.Context, limit int) (RunSummary, error) {
	var summary RunSummary
	var err error
	for limit <= 0 || summary.Executed < limit {
		if err = ctx.Err(); err != nil {
			break
		}
		outcome, ok := s.Step()
		if !ok {
			break
		}
		summary.Executed++
		if outcome.Success {
			summary.Succeeded++
			summary.BoxesMoved += len(outcome.Pushed)
		} else {
			summary.Blocked++
		}
	}
	summary.Remaining = s.Remaining()
	summary.Score = s.GPSScore()
	if summary.Remaining == 0 && len(s.script) > 0 {
		s.message = s.messages().finished(summary.Score)
	}
	return summary, err
}

// Remaining returns how many scripted moves have not been executed yet
func (s *Simulator) Remaining() int {
	return len(s.script) - s.cursor
}

// Reset restores the initial board and rewinds the script
func (s *Simulator) Reset() *GameState {
	s.grid = s.initial.Clone()
	s.robot = s.initialRobot
	s.cursor = 0
	s.message = s.messages().welcome()

	// Cumulative history survives; only the current segment is cleared
	s.current = []MoveHistoryEntry{}

	return s.GetState()
}

// GetState returns a serialisable snapshot of the simulation
func (s *Simulator) GetState() *GameState {
	name := ""
	if s.config != nil {
		name = s.config.Name
	}
	boxes := s.Boxes()
	return &GameState{
		Layout:            s.grid.Rows(),
		Width:             s.grid.Width(),
		Height:            s.grid.Height(),
		Wide:              s.wide,
		RobotPos:          s.robot,
		Score:             s.GPSScore(),
		BoxCount:          len(boxes),
		Message:           s.message,
		ConfigName:        name,
		ScriptLength:      len(s.script),
		ScriptCursor:      s.cursor,
		Finished:          s.cursor >= len(s.script),
		TotalMoves:        s.totalMoves,
		CurrentMovesCount: len(s.current),
		LastMove:          s.GetLastMove(),
	}
}

// GetMoveHistory returns the complete move history
func (s *Simulator) GetMoveHistory() []MoveHistoryEntry {
	return s.history
}

// GetLastMove returns the last move made, or nil if no moves
func (s *Simulator) GetLastMove() *MoveHistoryEntry {
	if len(s.history) == 0 {
		return nil
	}
	last := s.history[len(s.history)-1]
	return &last
}

func (s *Simulator) execute(requested Direction, scripted bool) MoveOutcome {
	from := s.robot
	direction, valid := ParseDirection(string(requested))
	if !valid {
		s.message = fmt.Sprintf("Unknown direction %q", requested)
		return MoveOutcome{Direction: requested, From: from, To: from}
	}
	outcome := MoveOutcome{Direction: direction, From: from, To: from}

	ok, pushed, blocker := s.push(from, direction)
	if ok {
		s.robot = from.Step(direction)
		outcome.To = s.robot
		outcome.Success = true
		outcome.Pushed = pushed
	} else {
		outcome.Blocker = blocker
	}

	msgs := s.messages()
	switch {
	case !ok:
		s.message = msgs.blocked(direction)
	case len(pushed) > 0:
		s.message = msgs.pushed(len(pushed), direction)
	default:
		s.message = msgs.moved(direction)
	}

	s.addMoveToHistory(outcome, scripted)
	return outcome
}

func (s *Simulator) addMoveToHistory(outcome MoveOutcome, scripted bool) {
	entry := MoveHistoryEntry{
		Action:       outcome.Direction,
		FromPosition: outcome.From,
		ToPosition:   outcome.To,
		Success:      outcome.Success,
		BoxesPushed:  len(outcome.Pushed),
		Scripted:     scripted,
		Timestamp:    time.Now().Unix(),
		MoveNumber:   s.totalMoves + 1,
	}
	s.history = append(s.history, entry)
	s.totalMoves++
	s.current = append(s.current, entry)
}

func (s *Simulator) messages() Messages {
	if s.config == nil {
		return Messages{}
	}
	return s.config.Messages
}
