package service_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/wricardo/mcp-training/warehouse/game/engine"
	"github.com/wricardo/mcp-training/warehouse/game/service"
)

// MockSessionManager implements service.SessionManager for testing
type MockSessionManager struct {
	sessions map[string]*service.Session
}

func NewMockSessionManager() *MockSessionManager {
	return &MockSessionManager{
		sessions: make(map[string]*service.Session),
	}
}

func (m *MockSessionManager) Create(id string, config *engine.PuzzleConfig) (*service.Session, error) {
	// Generate ID if empty (mimics real session manager behavior)
	if id == "" {
		id = fmt.Sprintf("test_%d", len(m.sessions)+1)
	}

	if _, exists := m.sessions[id]; exists {
		return nil, errors.New("session already exists")
	}

	sim, err := engine.NewSimulator(config)
	if err != nil {
		return nil, err
	}

	session := &service.Session{
		ID:             id,
		Engine:         sim,
		Config:         config,
		CreatedAt:      time.Now(),
		LastAccessedAt: time.Now(),
	}

	m.sessions[id] = session
	return session, nil
}

func (m *MockSessionManager) Get(id string) (*service.Session, error) {
	session, exists := m.sessions[id]
	if !exists {
		return nil, errors.New("session not found")
	}
	return session, nil
}

func (m *MockSessionManager) GetOrCreate(id string, config *engine.PuzzleConfig) (*service.Session, error) {
	if session, exists := m.sessions[id]; exists {
		return session, nil
	}
	return m.Create(id, config)
}

func (m *MockSessionManager) List() []*service.Session {
	result := make([]*service.Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		result = append(result, session)
	}
	return result
}

func (m *MockSessionManager) Delete(id string) error {
	if _, exists := m.sessions[id]; !exists {
		return errors.New("session not found")
	}
	delete(m.sessions, id)
	return nil
}

func (m *MockSessionManager) UpdateLastAccessed(id string) error {
	if session, exists := m.sessions[id]; exists {
		session.LastAccessedAt = time.Now()
		return nil
	}
	return errors.New("session not found")
}

// MockConfigManager implements service.ConfigManager for testing
type MockConfigManager struct {
	configs map[string]*engine.PuzzleConfig
}

func NewMockConfigManager() *MockConfigManager {
	// Create a default test config
	defaultConfig := &engine.PuzzleConfig{
		Name:        "test",
		Description: "Test configuration",
		Layout: []string{
			"#######",
			"#.....#",
			"#.@O..#",
			"#.....#",
			"#######",
		},
		Moves: ">>>>^",
	}

	return &MockConfigManager{
		configs: map[string]*engine.PuzzleConfig{
			"test":    defaultConfig,
			"default": defaultConfig,
		},
	}
}

func (m *MockConfigManager) LoadConfig(name string) (*engine.PuzzleConfig, error) {
	config, exists := m.configs[name]
	if !exists {
		return nil, errors.New("configuration not found")
	}
	return config, nil
}

func (m *MockConfigManager) ListConfigs() ([]*service.ConfigInfo, error) {
	result := make([]*service.ConfigInfo, 0, len(m.configs))
	for name, config := range m.configs {
		result = append(result, &service.ConfigInfo{
			Filename:    name + ".json",
			ConfigID:    name,
			Name:        config.Name,
			Description: config.Description,
		})
	}
	return result, nil
}

func (m *MockConfigManager) GetDefault() *engine.PuzzleConfig {
	return m.configs["default"]
}

func (m *MockConfigManager) SaveConfig(name string, config *engine.PuzzleConfig) error {
	if err := engine.ValidatePuzzleConfig(config); err != nil {
		return err
	}
	m.configs[name] = config
	return nil
}

func newTestService() service.GameService {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return service.NewGameServiceWithLogger(NewMockSessionManager(), NewMockConfigManager(), logger)
}

// Test cases
func TestGameService_CreateSession(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	tests := []struct {
		name       string
		configName string
		wide       bool
		wantErr    bool
		wantWidth  int
	}{
		{
			name:       "create with default config",
			configName: "",
			wantWidth:  7,
		},
		{
			name:       "create with specific config",
			configName: "test",
			wantWidth:  7,
		},
		{
			name:       "create wide",
			configName: "test",
			wide:       true,
			wantWidth:  14,
		},
		{
			name:       "create with invalid config",
			configName: "nonexistent",
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session, err := svc.CreateSession(ctx, tt.configName, tt.wide)
			if (err != nil) != tt.wantErr {
				t.Errorf("CreateSession() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr {
				if !strings.Contains(err.Error(), "Available configs") {
					t.Errorf("Expected available configs in error, got %v", err)
				}
				return
			}
			if session == nil {
				t.Fatal("CreateSession() returned nil session")
			}
			if session.GameState.Width != tt.wantWidth {
				t.Errorf("Expected width %d, got %d", tt.wantWidth, session.GameState.Width)
			}
			if session.Wide != tt.wide {
				t.Errorf("Expected wide=%v, got %v", tt.wide, session.Wide)
			}
		})
	}
}

func TestGameService_Move(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	// Create a session first
	sessionInfo, err := svc.CreateSession(ctx, "test", false)
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}

	tests := []struct {
		name      string
		sessionID string
		direction string
		reset     bool
		wantErr   bool
	}{
		{
			name:      "valid move up",
			sessionID: sessionInfo.ID,
			direction: "up",
		},
		{
			name:      "valid move with reset",
			sessionID: sessionInfo.ID,
			direction: "right",
			reset:     true,
		},
		{
			name:      "symbol direction",
			sessionID: sessionInfo.ID,
			direction: "v",
		},
		{
			name:      "invalid session",
			sessionID: "nonexistent",
			direction: "up",
			wantErr:   true,
		},
		{
			name:      "invalid direction",
			sessionID: sessionInfo.ID,
			direction: "diagonal",
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := svc.Move(ctx, tt.sessionID, tt.direction, tt.reset)
			if (err != nil) != tt.wantErr {
				t.Errorf("Move() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && result == nil {
				t.Error("Move() returned nil result")
			}
		})
	}

	// Reset to ensure consistent start
	_, _ = svc.Reset(ctx, sessionInfo.ID)

	// Push the box from (3,2) to (4,2)
	res1, err := svc.Move(ctx, sessionInfo.ID, "right", false)
	if err != nil {
		t.Fatalf("Move right failed unexpectedly: %v", err)
	}
	if !res1.Success || res1.Step == nil || res1.Step.Pushed != 1 {
		t.Errorf("Expected a successful push, got success=%v step=%+v", res1.Success, res1.Step)
	}
	if len(res1.Events) != 1 || res1.Events[0].Type != "push" {
		t.Errorf("Expected one push event, got %+v", res1.Events)
	}
	if len(res1.GameState.LocalView3x3) != 3 || res1.GameState.LocalView3x3[1] != ".@O" {
		t.Errorf("Unexpected local view: %v", res1.GameState.LocalView3x3)
	}

	// Push again so the box rests against the wall, then fail
	_, _ = svc.Move(ctx, sessionInfo.ID, "right", false)
	res2, err := svc.Move(ctx, sessionInfo.ID, "right", false)
	if err != nil {
		t.Fatalf("Move right failed with error: %v", err)
	}
	if res2.Success {
		t.Error("Expected push into the wall to fail")
	}
	if res2.BlockedBy == nil || res2.BlockedBy.TileChar != "#" || res2.BlockedBy.X != 6 {
		t.Errorf("Expected BlockedBy the wall at x=6, got %+v", res2.BlockedBy)
	}
}

func TestGameService_BulkMove(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	// Create a session
	sessionInfo, err := svc.CreateSession(ctx, "test", false)
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}

	tests := []struct {
		name      string
		sessionID string
		moves     []string
		reset     bool
		wantErr   bool
	}{
		{
			name:      "valid bulk moves",
			sessionID: sessionInfo.ID,
			moves:     []string{"up", "right", "down", "left"},
		},
		{
			name:      "bulk moves with reset",
			sessionID: sessionInfo.ID,
			moves:     []string{"up", "up"},
			reset:     true,
		},
		{
			name:      "empty moves",
			sessionID: sessionInfo.ID,
			moves:     []string{},
		},
		{
			name:      "invalid session",
			sessionID: "nonexistent",
			moves:     []string{"up"},
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := svc.BulkMove(ctx, tt.sessionID, tt.moves, tt.reset)
			if (err != nil) != tt.wantErr {
				t.Errorf("BulkMove() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && result == nil {
				t.Error("BulkMove() returned nil result")
			}
			if !tt.wantErr && result != nil {
				if result.RequestedMoves != len(tt.moves) {
					t.Errorf("BulkMove() RequestedMoves = %v, want %v", result.RequestedMoves, len(tt.moves))
				}
			}
		})
	}

	// Blocked moves do not stop the batch
	res3, err := svc.BulkMove(ctx, sessionInfo.ID, []string{">", ">", ">", "x", "^"}, true)
	if err != nil {
		t.Fatalf("BulkMove diagnostics failed with error: %v", err)
	}
	if res3.MovesExecuted != 4 || res3.Succeeded != 3 || res3.Blocked != 1 || res3.Invalid != 1 {
		t.Errorf("Unexpected counts: %+v", res3)
	}
	if res3.Success {
		t.Error("Expected Success=false when a move was blocked")
	}
	if len(res3.Steps) != 4 {
		t.Errorf("Expected 4 steps, got %d", len(res3.Steps))
	}
	if res3.BlockedBy == nil || res3.BlockedBy.TileType != "wall" {
		t.Errorf("Expected BlockedBy a wall, got %+v", res3.BlockedBy)
	}
	if res3.BoxesMoved != 2 || res3.ScoreDelta != 2 {
		t.Errorf("Expected 2 boxes moved and score delta 2, got %d and %d", res3.BoxesMoved, res3.ScoreDelta)
	}
	if res3.EndPos != (engine.Position{X: 4, Y: 1}) {
		t.Errorf("Expected robot at (4,1), got %v", res3.EndPos)
	}
}

func TestGameService_BulkMoveTruncates(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	sessionInfo, err := svc.CreateSession(ctx, "test", false)
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}

	moves := make([]string, engine.MaxBulkMoves+10)
	for i := range moves {
		if i%2 == 0 {
			moves[i] = "up"
		} else {
			moves[i] = "down"
		}
	}

	result, err := svc.BulkMove(ctx, sessionInfo.ID, moves, false)
	if err != nil {
		t.Fatalf("BulkMove failed: %v", err)
	}
	if !result.Truncated || result.Limit != engine.MaxBulkMoves {
		t.Errorf("Expected truncation at %d, got %+v", engine.MaxBulkMoves, result.Limit)
	}
	if result.MovesExecuted != engine.MaxBulkMoves {
		t.Errorf("Expected %d executed moves, got %d", engine.MaxBulkMoves, result.MovesExecuted)
	}
}

func TestGameService_BulkMoveCancelled(t *testing.T) {
	svc := newTestService()

	sessionInfo, err := svc.CreateSession(context.Background(), "test", false)
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := svc.BulkMove(ctx, sessionInfo.ID, []string{"up", "down"}, false)
	if err != nil {
		t.Fatalf("BulkMove failed: %v", err)
	}
	if result.MovesExecuted != 0 || result.StoppedOnMove != 1 {
		t.Errorf("Expected no moves executed, got %+v", result)
	}
	if !strings.HasPrefix(result.StoppedReason, "cancelled") {
		t.Errorf("Expected cancelled stop reason, got %q", result.StoppedReason)
	}
}

func TestGameService_Run(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	sessionInfo, err := svc.CreateSession(ctx, "test", false)
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}

	partial, err := svc.Run(ctx, sessionInfo.ID, 2)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if partial.Executed != 2 || partial.Remaining != 3 {
		t.Errorf("Expected 2 executed and 3 remaining, got %+v", partial.RunSummary)
	}

	result, err := svc.Run(ctx, sessionInfo.ID, 0)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.Remaining != 0 || !result.GameState.Finished {
		t.Errorf("Expected script drained, got %+v", result.RunSummary)
	}
	if result.Score != 205 {
		t.Errorf("Expected score 205, got %d", result.Score)
	}

	boxes, err := svc.GetBoxes(ctx, sessionInfo.ID)
	if err != nil {
		t.Fatalf("GetBoxes failed: %v", err)
	}
	if boxes.Count != 1 || boxes.Score != 205 || boxes.Boxes[0] != (engine.Position{X: 5, Y: 2}) {
		t.Errorf("Unexpected boxes result: %+v", boxes)
	}

	if _, err := svc.Run(ctx, "nonexistent", 0); err == nil {
		t.Error("Expected error for unknown session")
	}
}

func TestGameService_GetMoveHistory(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	// Create a session and make some moves
	sessionInfo, err := svc.CreateSession(ctx, "test", false)
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}

	// Make some moves to generate history
	moves := []string{"up", "right", "down", "left"}
	if _, err := svc.BulkMove(ctx, sessionInfo.ID, moves, false); err != nil {
		t.Fatalf("Failed to make moves: %v", err)
	}

	tests := []struct {
		name      string
		sessionID string
		opts      service.HistoryOptions
		wantMoves int
		first     engine.Direction
		wantErr   bool
	}{
		{
			name:      "default options",
			sessionID: sessionInfo.ID,
			opts:      service.HistoryOptions{},
			wantMoves: 4,
			first:     engine.Left,
		},
		{
			name:      "with pagination",
			sessionID: sessionInfo.ID,
			opts: service.HistoryOptions{
				Page:  2,
				Limit: 3,
				Order: "asc",
			},
			wantMoves: 1,
			first:     engine.Left,
		},
		{
			name:      "ascending order",
			sessionID: sessionInfo.ID,
			opts: service.HistoryOptions{
				Page:  1,
				Limit: 10,
				Order: "asc",
			},
			wantMoves: 4,
			first:     engine.Up,
		},
		{
			name:      "invalid session",
			sessionID: "nonexistent",
			opts:      service.HistoryOptions{},
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := svc.GetMoveHistory(ctx, tt.sessionID, tt.opts)
			if (err != nil) != tt.wantErr {
				t.Errorf("GetMoveHistory() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr {
				return
			}
			if len(result.Moves) != tt.wantMoves {
				t.Fatalf("Expected %d moves, got %d", tt.wantMoves, len(result.Moves))
			}
			if result.Moves[0].Action != tt.first {
				t.Errorf("Expected first move %s, got %s", tt.first, result.Moves[0].Action)
			}
			if result.TotalMoves != 4 {
				t.Errorf("Expected 4 total moves, got %d", result.TotalMoves)
			}
		})
	}
}

func TestGameService_ListSessions(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	// Create multiple sessions
	for i := 0; i < 3; i++ {
		if _, err := svc.CreateSession(ctx, "test", i%2 == 0); err != nil {
			t.Fatalf("Failed to create session %d: %v", i, err)
		}
	}

	// List sessions
	sessionList, err := svc.ListSessions(ctx)
	if err != nil {
		t.Fatalf("ListSessions() error = %v", err)
	}

	if len(sessionList) != 3 {
		t.Errorf("ListSessions() returned %d sessions, want 3", len(sessionList))
	}
}

func TestGameService_DeleteSession(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	sessionInfo, err := svc.CreateSession(ctx, "test", false)
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}
	if err := svc.DeleteSession(ctx, sessionInfo.ID); err != nil {
		t.Fatalf("DeleteSession() error = %v", err)
	}
	if _, err := svc.GetSession(ctx, sessionInfo.ID); err == nil {
		t.Error("Expected error for deleted session")
	}
}

func TestGameService_Reset(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	// Create a session
	sessionInfo, err := svc.CreateSession(ctx, "test", false)
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}

	// Make some moves
	if _, err := svc.Move(ctx, sessionInfo.ID, "right", false); err != nil {
		t.Fatalf("Failed to move: %v", err)
	}

	// Reset the board
	state, err := svc.Reset(ctx, sessionInfo.ID)
	if err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	if state.RobotPos != (engine.Position{X: 2, Y: 2}) {
		t.Errorf("Expected robot back at (2,2), got %v", state.RobotPos)
	}
	if state.Layout[2] != "#.@O..#" {
		t.Errorf("Expected initial row, got %s", state.Layout[2])
	}
}

func TestGameService_SaveConfig(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	config := &engine.PuzzleConfig{
		Name:        "corridor",
		Description: "Two boxes in a corridor",
		Layout:      []string{"######", "#@OO.#", "######"},
		Moves:       ">>",
	}
	if err := svc.SaveConfig(ctx, "corridor", config); err != nil {
		t.Fatalf("SaveConfig() error = %v", err)
	}

	loaded, err := svc.LoadConfig(ctx, "corridor")
	if err != nil || loaded.Name != "corridor" {
		t.Errorf("Expected saved config to load, got %v, %v", loaded, err)
	}
}
