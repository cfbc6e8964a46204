package service

import (
	"time"

	"github.com/wricardo/mcp-training/warehouse/game/engine"
)

// SessionInfo provides information about a simulation session
type SessionInfo struct {
	ID             string               `json:"id"`
	ConfigName     string               `json:"config_name"`
	Wide           bool                 `json:"wide"`
	CreatedAt      time.Time            `json:"created_at"`
	LastAccessedAt time.Time            `json:"last_accessed_at"`
	GameState      *engine.GameState    `json:"game_state"`
	PuzzleConfig   *engine.PuzzleConfig `json:"puzzle_config"`
}

// MoveResult contains the result of a move operation
type MoveResult struct {
	Success   bool              `json:"success"`
	GameState *engine.GameState `json:"game_state"`
	Message   string            `json:"message"`
	Events    []GameEvent       `json:"events,omitempty"`
	Step      *StepInfo         `json:"step,omitempty"`
	BlockedBy *AttemptInfo      `json:"blocked_by,omitempty"`
}

// BulkMoveResult contains the result of multiple moves. Blocked moves do not
// stop the batch; they are no-ops exactly like blocked scripted moves.
type BulkMoveResult struct {
	// Summary
	RequestedMoves int               `json:"requested_moves"`
	MovesExecuted  int               `json:"moves_executed"`
	Succeeded      int               `json:"succeeded"`
	Blocked        int               `json:"blocked"`
	Invalid        int               `json:"invalid,omitempty"`
	BoxesMoved     int               `json:"boxes_moved"`
	Success        bool              `json:"success"` // every executed move succeeded
	GameState      *engine.GameState `json:"game_state"`
	Events         []GameEvent       `json:"events"`
	StoppedReason  string            `json:"stopped_reason,omitempty"`
	StoppedOnMove  int               `json:"stopped_on_move,omitempty"` // 1-based index of the first move not executed
	Truncated      bool              `json:"truncated,omitempty"`
	Limit          int               `json:"limit,omitempty"`

	// Start/end snapshot
	StartPos   engine.Position `json:"start_pos"`
	EndPos     engine.Position `json:"end_pos"`
	StartScore int             `json:"start_score"`
	EndScore   int             `json:"end_score"`
	ScoreDelta int             `json:"score_delta"`

	// Per-step compact trace (only for this call)
	Steps []StepInfo `json:"steps,omitempty"`

	// First blocked move diagnostics
	BlockedBy *AttemptInfo `json:"blocked_by,omitempty"`

	// Final status aids
	Message       string   `json:"message,omitempty"`
	PossibleMoves []string `json:"possible_moves,omitempty"`
	LocalView3x3  []string `json:"local_view_3x3,omitempty"`
}

// RunResult contains the result of draining the scripted moves
type RunResult struct {
	engine.RunSummary
	GameState     *engine.GameState `json:"game_state"`
	Message       string            `json:"message"`
	StoppedReason string            `json:"stopped_reason,omitempty"`
	Truncated     bool              `json:"truncated,omitempty"`
	Limit         int               `json:"limit,omitempty"`
}

// BoxesResult lists the boxes of a session and their GPS score
type BoxesResult struct {
	Boxes []engine.Position `json:"boxes"`
	Count int               `json:"count"`
	Score int               `json:"score"`
	Wide  bool              `json:"wide"`
}

// StepInfo is a compact record for each executed move in the bulk call
type StepInfo struct {
	Idx     int              `json:"idx"`
	Dir     string           `json:"dir"`
	From    engine.Position  `json:"from"`
	To      engine.Position  `json:"to"`
	Success bool             `json:"success"`
	Pushed  int              `json:"pushed,omitempty"`
	Blocker *engine.Position `json:"blocker,omitempty"`
}

// AttemptInfo details the cell that stopped a push
type AttemptInfo struct {
	X        int    `json:"x"`
	Y        int    `json:"y"`
	TileChar string `json:"tile_char"`
	TileType string `json:"tile_type"`
}

// GameEvent represents an event that occurred during a simulation
type GameEvent struct {
	Type      string          `json:"type"` // "move", "push", "blocked", "reset", "finished"
	Message   string          `json:"message"`
	Timestamp time.Time       `json:"timestamp"`
	Position  engine.Position `json:"position,omitempty"`
}

// HistoryOptions configures move history retrieval
type HistoryOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
}

// HistoryResponse contains paginated move history
type HistoryResponse struct {
	Moves       []engine.MoveHistoryEntry `json:"moves"`
	TotalMoves  int                       `json:"total_moves"`
	Page        int                       `json:"page"`
	PageSize    int                       `json:"page_size"`
	TotalPages  int                       `json:"total_pages"`
	HasNext     bool                      `json:"has_next"`
	HasPrevious bool                      `json:"has_previous"`
}

// ConfigInfo provides information about a puzzle configuration
type ConfigInfo struct {
	Filename    string `json:"filename"`
	ConfigID    string `json:"config_id"` // The identifier to use for session creation
	Name        string `json:"name"`      // Display name
	Description string `json:"description"`
	Format      string `json:"format"` // json, yaml, txt or txt.zst
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Boxes       int    `json:"boxes"`
	Moves       int    `json:"moves"`
	Wide        bool   `json:"wide"`
}
