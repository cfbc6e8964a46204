package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/wricardo/mcp-training/warehouse/game/engine"
)

// Matched against the config manager's error text; the config package imports
// this one, so its sentinel cannot be referenced here
const errConfigNotFoundText = "configuration not found"

// ErrInvalidDirection is returned for a move that names no known direction
var ErrInvalidDirection = errors.New("invalid direction")

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions SessionManager
	configs  ConfigManager
	log      logrus.FieldLogger
	mu       sync.RWMutex
}

// NewGameService creates a new game service instance
func NewGameService(sessions SessionManager, configs ConfigManager) GameService {
	return NewGameServiceWithLogger(sessions, configs, logrus.StandardLogger())
}

// NewGameServiceWithLogger creates a game service that logs through logger
func NewGameServiceWithLogger(sessions SessionManager, configs ConfigManager, logger logrus.FieldLogger) GameService {
	return &gameServiceImpl{
		sessions: sessions,
		configs:  configs,
		log:      logger.WithField("component", "service"),
	}
}

// getConfigID returns the config_id for a given config name, used for consistent API responses
func (s *gameServiceImpl) getConfigID(configName string) string {
	availableConfigs, err := s.configs.ListConfigs()
	if err == nil {
		for _, cfg := range availableConfigs {
			if cfg.Name == configName {
				return cfg.ConfigID
			}
		}
	}
	// Fallback: return as-is or "default"
	if configName == "" {
		return "default"
	}
	return configName
}

// CreateSession creates a new simulation session
func (s *gameServiceImpl) CreateSession(ctx context.Context, configName string, wide bool) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Load configuration
	var config *engine.PuzzleConfig
	var err error
	if configName != "" {
		config, err = s.configs.LoadConfig(configName)
		if err != nil {
			// Provide helpful error message with available options
			if strings.Contains(err.Error(), errConfigNotFoundText) {
				availableConfigs, listErr := s.configs.ListConfigs()
				if listErr == nil && len(availableConfigs) > 0 {
					var configIDs []string
					for _, cfg := range availableConfigs {
						configIDs = append(configIDs, cfg.ConfigID)
					}
					return nil, fmt.Errorf("config '%s' not found. Available configs: %v: %w", configName, configIDs, err)
				}
				return nil, fmt.Errorf("config '%s' not found. Use /api/configs to list available configurations: %w", configName, err)
			}
			return nil, fmt.Errorf("failed to load config %s: %w", configName, err)
		}
	} else {
		config = s.configs.GetDefault()
	}
	if config == nil {
		return nil, errors.New("no puzzle configuration available")
	}
	if wide && !config.Wide && !config.IsWideLayout() {
		config = config.WithWide(true)
	}

	// Let session manager generate a proper 4-character ID
	session, err := s.sessions.Create("", config)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	// Determine the config identifier to return - prefer the input configName if provided,
	// otherwise look up the config_id by display name
	configID := configName
	if configID == "" {
		configID = s.getConfigID(config.Name)
	}

	s.log.WithFields(logrus.Fields{
		"session": session.ID,
		"config":  configID,
		"wide":    session.Engine.Wide(),
	}).Info("session created")

	info := s.sessionInfo(session)
	info.ConfigName = configID
	return info, nil
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}

	s.sessions.UpdateLastAccessed(sessionID)

	return s.sessionInfo(session), nil
}

// ListSessions returns all active sessions
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))

	for _, sess := range sessions {
		result = append(result, s.sessionInfo(sess))
	}

	return result, nil
}

// DeleteSession removes a session
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.sessions.Delete(sessionID); err != nil {
		return err
	}
	s.log.WithField("session", sessionID).Info("session deleted")
	return nil
}

// Move executes a single ad-hoc move for a session
func (s *gameServiceImpl) Move(ctx context.Context, sessionID, direction string, reset bool) (*MoveResult, error) {
	sess, err := s.lockSession(sessionID)
	if err != nil {
		return nil, err
	}
	defer sess.Unlock()

	dir, ok := engine.ParseDirection(direction)
	if !ok {
		return nil, fmt.Errorf("%w %q: use up, down, left, right or ^ v < >", ErrInvalidDirection, direction)
	}

	// Collect events
	events := []GameEvent{}

	// Handle reset if requested
	if reset {
		sess.Engine.Reset()
		events = append(events, resetEvent())
	}

	outcome := sess.Engine.Move(dir)
	state := sess.Engine.GetState()

	result := &MoveResult{
		Success:   outcome.Success,
		GameState: state,
		Message:   state.Message,
		Events:    append(events, outcomeEvent(outcome, state.Message)),
		Step:      stepInfo(1, outcome),
	}
	if outcome.Blocker != nil {
		result.BlockedBy = attemptInfo(sess.Engine.Grid(), *outcome.Blocker)
	}

	// Enrich state with decision aids
	state.LocalView3x3 = buildLocal3x3(sess.Engine.Grid(), state.RobotPos)

	s.log.WithFields(logrus.Fields{
		"session": sess.ID,
		"dir":     dir,
		"from":    outcome.From,
		"to":      outcome.To,
		"pushed":  len(outcome.Pushed),
		"ok":      outcome.Success,
	}).Debug("move")

	return result, nil
}

// BulkMove executes multiple ad-hoc moves in sequence. Blocked moves are
// no-ops and the batch carries on; a cancelled context stops it between moves.
func (s *gameServiceImpl) BulkMove(ctx context.Context, sessionID string, moves []string, reset bool) (*BulkMoveResult, error) {
	sess, err := s.lockSession(sessionID)
	if err != nil {
		return nil, err
	}
	defer sess.Unlock()

	result := &BulkMoveResult{
		RequestedMoves: len(moves),
		Events:         make([]GameEvent, 0),
		Success:        true,
	}

	// Handle reset
	if reset {
		sess.Engine.Reset()
		result.Events = append(result.Events, resetEvent())
	}

	startState := sess.Engine.GetState()
	result.StartPos = startState.RobotPos
	result.StartScore = startState.Score

	// Limit moves to prevent abuse
	if len(moves) > engine.MaxBulkMoves {
		result.Truncated = true
		result.Limit = engine.MaxBulkMoves
		moves = moves[:engine.MaxBulkMoves]
	}

	for i, move := range moves {
		if err := ctx.Err(); err != nil {
			result.StoppedReason = fmt.Sprintf("cancelled: %v", err)
			result.StoppedOnMove = i + 1
			break
		}

		dir, ok := engine.ParseDirection(move)
		if !ok {
			result.Invalid++
			result.Success = false
			result.Events = append(result.Events, GameEvent{
				Type:      "invalid",
				Message:   fmt.Sprintf("Skipped unknown direction %q", move),
				Timestamp: time.Now(),
				Position:  sess.Engine.GetRobotPosition(),
			})
			continue
		}

		outcome := sess.Engine.Move(dir)
		result.MovesExecuted++
		if outcome.Success {
			result.Succeeded++
			result.BoxesMoved += len(outcome.Pushed)
		} else {
			result.Blocked++
			result.Success = false
			if result.BlockedBy == nil && outcome.Blocker != nil {
				result.BlockedBy = attemptInfo(sess.Engine.Grid(), *outcome.Blocker)
			}
		}
		result.Steps = append(result.Steps, *stepInfo(i+1, outcome))
		if !outcome.Success || len(outcome.Pushed) > 0 {
			result.Events = append(result.Events, outcomeEvent(outcome, ""))
		}
	}

	endState := sess.Engine.GetState()
	result.GameState = endState
	result.EndPos = endState.RobotPos
	result.EndScore = endState.Score
	result.ScoreDelta = endState.Score - result.StartScore
	result.Message = endState.Message

	// Decision aids
	result.PossibleMoves = possibleMoves(sess.Engine)
	result.LocalView3x3 = buildLocal3x3(sess.Engine.Grid(), endState.RobotPos)
	endState.LocalView3x3 = result.LocalView3x3

	s.log.WithFields(logrus.Fields{
		"session":   sess.ID,
		"requested": result.RequestedMoves,
		"executed":  result.MovesExecuted,
		"blocked":   result.Blocked,
		"pushed":    result.BoxesMoved,
	}).Info("bulk move")

	return result, nil
}

// Run executes the session's scripted moves. A limit of zero or less drains
// the script, capped at engine.MaxRunMoves per call.
func (s *gameServiceImpl) Run(ctx context.Context, sessionID string, limit int) (*RunResult, error) {
	sess, err := s.lockSession(sessionID)
	if err != nil {
		return nil, err
	}
	defer sess.Unlock()

	result := &RunResult{}
	if limit <= 0 || limit > engine.MaxRunMoves {
		if sess.Engine.Remaining() > engine.MaxRunMoves {
			result.Truncated = true
			result.Limit = engine.MaxRunMoves
		}
		limit = engine.MaxRunMoves
	}

	started := time.Now()
	summary, runErr := sess.Engine.RunContext(ctx, limit)
	result.RunSummary = summary
	if runErr != nil {
		result.StoppedReason = fmt.Sprintf("cancelled: %v", runErr)
	}

	state := sess.Engine.GetState()
	state.LocalView3x3 = buildLocal3x3(sess.Engine.Grid(), state.RobotPos)
	result.GameState = state
	result.Message = state.Message

	s.log.WithFields(logrus.Fields{
		"session":   sess.ID,
		"executed":  summary.Executed,
		"blocked":   summary.Blocked,
		"remaining": summary.Remaining,
		"score":     summary.Score,
		"elapsed":   time.Since(started),
	}).Info("run")

	return result, nil
}

// Reset resets a session to its initial board
func (s *gameServiceImpl) Reset(ctx context.Context, sessionID string) (*engine.GameState, error) {
	sess, err := s.lockSession(sessionID)
	if err != nil {
		return nil, err
	}
	defer sess.Unlock()

	state := sess.Engine.Reset()
	state.LocalView3x3 = buildLocal3x3(sess.Engine.Grid(), state.RobotPos)

	s.log.WithField("session", sess.ID).Info("session reset")
	return state, nil
}

// GetGameState retrieves the current simulation state
func (s *gameServiceImpl) GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error) {
	sess, err := s.lockSession(sessionID)
	if err != nil {
		return nil, err
	}
	defer sess.Unlock()

	state := sess.Engine.GetState()
	state.LocalView3x3 = buildLocal3x3(sess.Engine.Grid(), state.RobotPos)
	return state, nil
}

// GetBoxes lists the boxes of a session with their GPS score
func (s *gameServiceImpl) GetBoxes(ctx context.Context, sessionID string) (*BoxesResult, error) {
	sess, err := s.lockSession(sessionID)
	if err != nil {
		return nil, err
	}
	defer sess.Unlock()

	boxes := sess.Engine.Boxes()
	if boxes == nil {
		boxes = []engine.Position{}
	}
	return &BoxesResult{
		Boxes: boxes,
		Count: len(boxes),
		Score: sess.Engine.GPSScore(),
		Wide:  sess.Engine.Wide(),
	}, nil
}

// GetMoveHistory returns paginated move history
func (s *gameServiceImpl) GetMoveHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error) {
	sess, err := s.lockSession(sessionID)
	if err != nil {
		return nil, err
	}
	defer sess.Unlock()

	return paginateHistory(sess.Engine.GetMoveHistory(), opts), nil
}

// ListConfigs returns available puzzle configurations
func (s *gameServiceImpl) ListConfigs(ctx context.Context) ([]*ConfigInfo, error) {
	return s.configs.ListConfigs()
}

// LoadConfig loads a specific puzzle configuration
func (s *gameServiceImpl) LoadConfig(ctx context.Context, configName string) (*engine.PuzzleConfig, error) {
	return s.configs.LoadConfig(configName)
}

// SaveConfig saves a puzzle configuration to disk
func (s *gameServiceImpl) SaveConfig(ctx context.Context, configName string, config *engine.PuzzleConfig) error {
	if err := s.configs.SaveConfig(configName, config); err != nil {
		return err
	}
	s.log.WithField("config", configName).Info("config saved")
	return nil
}

// lockSession looks up a session, marks it accessed and returns it locked
func (s *gameServiceImpl) lockSession(sessionID string) (*Session, error) {
	s.mu.RLock()
	sess, err := s.sessions.Get(sessionID)
	s.mu.RUnlock()
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}

	s.sessions.UpdateLastAccessed(sessionID)
	sess.Lock()
	return sess, nil
}

func (s *gameServiceImpl) sessionInfo(sess *Session) *SessionInfo {
	sess.Lock()
	defer sess.Unlock()

	return &SessionInfo{
		ID:             sess.ID,
		ConfigName:     s.getConfigID(sess.Config.Name), // Return config_id consistently
		Wide:           sess.Engine.Wide(),
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt,
		GameState:      sess.Engine.GetState(),
		PuzzleConfig:   sess.Config,
	}
}

func paginateHistory(history []engine.MoveHistoryEntry, opts HistoryOptions) *HistoryResponse {
	total := len(history)

	// Apply defaults
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Limit > 100 {
		opts.Limit = 100
	}
	if opts.Order == "" {
		opts.Order = "desc"
	}

	// Calculate pagination
	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	start := (opts.Page - 1) * opts.Limit
	end := start + opts.Limit
	if end > total {
		end = total
	}

	// Get the slice of moves
	var moves []engine.MoveHistoryEntry
	if opts.Order == "desc" {
		// Reverse order (most recent first)
		for i := total - 1 - start; i >= 0 && i >= total-end; i-- {
			moves = append(moves, history[i])
		}
	} else if start < total {
		moves = append(moves, history[start:end]...)
	}

	// Ensure moves is not nil
	if moves == nil {
		moves = []engine.MoveHistoryEntry{}
	}

	return &HistoryResponse{
		Moves:       moves,
		TotalMoves:  total,
		Page:        opts.Page,
		PageSize:    opts.Limit,
		TotalPages:  totalPages,
		HasNext:     opts.Page < totalPages,
		HasPrevious: opts.Page > 1,
	}
}

func resetEvent() GameEvent {
	return GameEvent{
		Type:      "reset",
		Message:   "Board reset to initial state",
		Timestamp: time.Now(),
	}
}

// outcomeEvent turns a move outcome into a single event
func outcomeEvent(outcome engine.MoveOutcome, message string) GameEvent {
	ev := GameEvent{Timestamp: time.Now(), Position: outcome.To}
	switch {
	case !outcome.Success:
		ev.Type = "blocked"
		ev.Message = fmt.Sprintf("Blocked moving %s at (%d,%d)", outcome.Direction, outcome.From.X, outcome.From.Y)
	case len(outcome.Pushed) > 0:
		ev.Type = "push"
		ev.Message = fmt.Sprintf("Pushed %d box(es) %s to (%d,%d)", len(outcome.Pushed), outcome.Direction, outcome.To.X, outcome.To.Y)
	default:
		ev.Type = "move"
		ev.Message = fmt.Sprintf("Moved %s to (%d,%d)", outcome.Direction, outcome.To.X, outcome.To.Y)
	}
	if message != "" {
		ev.Message = message
	}
	return ev
}

func stepInfo(idx int, outcome engine.MoveOutcome) *StepInfo {
	return &StepInfo{
		Idx:     idx,
		Dir:     string(outcome.Direction),
		From:    outcome.From,
		To:      outcome.To,
		Success: outcome.Success,
		Pushed:  len(outcome.Pushed),
		Blocker: outcome.Blocker,
	}
}

func attemptInfo(grid *engine.Grid, p engine.Position) *AttemptInfo {
	char, kind := mapCellToCharAndType(grid, p)
	return &AttemptInfo{X: p.X, Y: p.Y, TileChar: char, TileType: kind}
}

func possibleMoves(sim *engine.Simulator) []string {
	dirs := sim.GetPossibleMoves()
	out := make([]string, len(dirs))
	for i, d := range dirs {
		out[i] = string(d)
	}
	return out
}

// Helpers for result enrichment
func mapCellToCharAndType(grid *engine.Grid, p engine.Position) (string, string) {
	if !grid.InBounds(p) {
		return "#", "boundary"
	}
	kind := grid.Get(p)
	return string(kind.Symbol()), string(kind)
}

func buildLocal3x3(grid *engine.Grid, robot engine.Position) []string {
	if grid == nil {
		return nil
	}
	lines := make([]string, 0, 3)
	for dy := -1; dy <= 1; dy++ {
		var row strings.Builder
		for dx := -1; dx <= 1; dx++ {
			ch, _ := mapCellToCharAndType(grid, engine.Position{X: robot.X + dx, Y: robot.Y + dy})
			row.WriteString(ch)
		}
		lines = append(lines, row.String())
	}
	return lines
}
