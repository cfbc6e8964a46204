package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/wricardo/mcp-training/warehouse/game/engine"
	"github.com/wricardo/mcp-training/warehouse/game/service"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			// Long scripts run server side; give them room
			Timeout: 60 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Warehouse Robot Simulator",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Warehouse Robot Simulator - MCP Interface

This is a thin client that proxies all requests to the REST API server.

SIMULATION:
A robot (@) moves through a walled warehouse (#). Walking into a box (O, or the
double-wide halves [ and ]) pushes it, along with every box it touches in that
direction. If any box in the chain would hit a wall, nothing moves.

AVAILABLE TOOLS:
- create_session: Load a puzzle (optionally widened to double-wide boxes)
- game_state: Board, robot position and GPS score
- move / bulk_move: Ad-hoc moves (do not consume the script) - explain your intent
- run_script: Execute the puzzle's scripted moves
- box_positions: Box coordinates and their GPS sum
- reset_game, move_history, list_sessions, get_session, list_configs
- describe_cell: Inspect a single cell
- game_instructions: Full rules

NOTE: The 'intent' parameter on move/bulk_move serves as rubber duck debugging - explain your reasoning!`),
	)

	c.registerTools()
}

func sessionIDProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Session ID",
	}
}

var directionEnum = []string{"up", "down", "left", "right", "^", "v", "<", ">"}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	// Session management
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create a new simulation session from a puzzle config",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"config_id": map[string]interface{}{
					"type":        "string",
					"description": "Config to load (see list_configs). Defaults to the server's default puzzle",
				},
				"wide": map[string]interface{}{
					"type":        "boolean",
					"description": "Widen the map so every box becomes a double-wide [] box",
				},
			},
		},
	}, c.handleCreateSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all active simulation sessions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListSessions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_session",
		Description: "Get details of a specific session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleGetSession)

	// Simulation operations
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_state",
		Description: "Get the current board, robot position and GPS score",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleGameState)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "move",
		Description: "Move the robot one step, pushing any boxes in the way",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
				"direction": map[string]interface{}{
					"type":        "string",
					"enum":        directionEnum,
					"description": "Direction to move",
				},
				"intent": map[string]interface{}{
					"type":        "string",
					"description": "Brief explanation of the intent behind this move (serves as a rubber duck to help explain your reasoning)",
				},
				"reset": map[string]interface{}{
					"type":        "boolean",
					"description": "Reset before moving",
				},
			},
			Required: []string{"session_id", "direction"},
		},
	}, c.handleMove)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "bulk_move",
		Description: fmt.Sprintf("Execute several moves in sequence (up to %d). Blocked moves are skipped, like in a script", engine.MaxBulkMoves),
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
				"moves": map[string]interface{}{
					"type": "array",
					"items": map[string]interface{}{
						"type": "string",
						"enum": directionEnum,
					},
					"description": "Array of moves",
				},
				"script": map[string]interface{}{
					"type":        "string",
					"description": "Moves as a symbol string such as \"<^^>>v\"; used when moves is empty",
				},
				"intent": map[string]interface{}{
					"type":        "string",
					"description": "Brief explanation of the intent behind this sequence of moves (serves as a rubber duck to help explain your reasoning)",
				},
				"reset": map[string]interface{}{
					"type":        "boolean",
					"description": "Reset before moving",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleBulkMove)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "run_script",
		Description: "Execute the puzzle's remaining scripted moves and report the GPS score",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of scripted moves to execute (default: all)",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleRunScript)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "reset_game",
		Description: "Reset the board and rewind the script",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleReset)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "move_history",
		Description: "Get move history for a session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
				"page": map[string]interface{}{
					"type":        "integer",
					"description": "Page number",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Items per page",
				},
				"order": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"asc", "desc"},
					"description": "Oldest or newest first",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleMoveHistory)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "box_positions",
		Description: "List every box (left half for double-wide boxes) with its GPS coordinate and the total",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleBoxPositions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_configs",
		Description: "List available puzzle configurations",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListConfigs)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_instructions",
		Description: "Get the full simulation rules",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleGameInstructions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "describe_cell",
		Description: "Describe a single cell of the board. Useful for telling [ and ] apart or checking what blocks a push",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
				"x": map[string]interface{}{
					"type":        "integer",
					"description": "X coordinate (column, 0-based)",
				},
				"y": map[string]interface{}{
					"type":        "integer",
					"description": "Y coordinate (row, 0-based)",
				},
			},
			Required: []string{"session_id", "x", "y"},
		},
	}, c.handleDescribeCell)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

func arguments(request mcp.CallToolRequest) map[string]interface{} {
	args, _ := request.Params.Arguments.(map[string]interface{})
	if args == nil {
		return map[string]interface{}{}
	}
	return args
}

func sessionPath(sessionID, suffix string) string {
	return "/api/sessions/" + url.PathEscape(sessionID) + suffix
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	configID, _ := args["config_id"].(string)
	wide, _ := args["wide"].(bool)

	body := map[string]interface{}{"wide": wide}
	if configID != "" {
		body["config_id"] = configID
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "POST", "/api/sessions", body, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Created session: %s\nConfig: %s\n\n%s", session.ID, session.ConfigName, formatGameState(session.GameState))
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count    int                   `json:"count"`
		Sessions []service.SessionInfo `json:"sessions"`
	}

	if err := c.apiCall(ctx, "GET", "/api/sessions", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Active Sessions (%d):\n\n", response.Count)
	for _, s := range response.Sessions {
		score := 0
		if s.GameState != nil {
			score = s.GameState.Score
		}
		fmt.Fprintf(&b, "- %s (Config: %s, Wide: %v, Score: %d, Created: %s)\n",
			s.ID, s.ConfigName, s.Wide, score, s.CreatedAt.Format("15:04:05"))
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var session service.SessionInfo
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, ""), nil, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) handleGameState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var state engine.GameState
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "/state"), nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatGameState(&state)), nil
}

func (c *Client) handleMove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)
	direction, _ := args["direction"].(string)
	reset, _ := args["reset"].(bool)
	// intent is for the caller's benefit only

	body := map[string]interface{}{
		"direction": direction,
		"reset":     reset,
	}

	var result service.MoveResult
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/move"), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatMoveResult(&result)), nil
}

func (c *Client) handleBulkMove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)
	movesRaw, _ := args["moves"].([]interface{})
	script, _ := args["script"].(string)
	reset, _ := args["reset"].(bool)

	moves := make([]string, 0, len(movesRaw))
	for _, m := range movesRaw {
		if move, ok := m.(string); ok {
			moves = append(moves, move)
		}
	}
	if len(moves) == 0 && script != "" {
		for _, d := range engine.DecodeMoves(script) {
			moves = append(moves, string(d))
		}
	}
	if len(moves) == 0 {
		return mcp.NewToolResultError("no moves given: pass moves or script"), nil
	}

	body := map[string]interface{}{
		"moves": moves,
		"reset": reset,
	}

	var result service.BulkMoveResult
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/bulk-move"), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatBulkMoveResult(sessionID, &result)), nil
}

func (c *Client) handleRunScript(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)

	body := map[string]interface{}{}
	if limit, ok := args["limit"].(float64); ok && limit > 0 {
		body["limit"] = int(limit)
	}

	var result service.RunResult
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/run"), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatRunResult(&result)), nil
}

func (c *Client) handleReset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var response struct {
		Message string            `json:"message"`
		State   *engine.GameState `json:"state"`
	}

	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/reset"), nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("%s\n\n%s", response.Message, formatGameState(response.State))
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleMoveHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)

	params := url.Values{}
	if page, ok := args["page"].(float64); ok {
		params.Set("page", fmt.Sprintf("%d", int(page)))
	}
	if limit, ok := args["limit"].(float64); ok {
		params.Set("limit", fmt.Sprintf("%d", int(limit)))
	}
	if order, ok := args["order"].(string); ok {
		params.Set("order", order)
	}
	path := sessionPath(sessionID, "/history")
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var history service.HistoryResponse
	if err := c.apiCall(ctx, "GET", path, nil, &history); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatHistory(&history)), nil
}

func (c *Client) handleBoxPositions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var boxes service.BoxesResult
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "/boxes"), nil, &boxes); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatBoxes(&boxes)), nil
}

func (c *Client) handleListConfigs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var configs []service.ConfigInfo
	if err := c.apiCall(ctx, "GET", "/api/configs", nil, &configs); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	b.WriteString("Available Configurations:\n\n")
	for _, cfg := range configs {
		fmt.Fprintf(&b, "• %s (config_id: %s, %s)\n  %s\n  Grid: %dx%d, Boxes: %d, Scripted moves: %d",
			cfg.Name, cfg.ConfigID, cfg.Format, cfg.Description, cfg.Width, cfg.Height, cfg.Boxes, cfg.Moves)
		if cfg.Wide {
			b.WriteString(", double-wide")
		}
		b.WriteString("\n\n")
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGameInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(instructions), nil
}

func (c *Client) handleDescribeCell(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)
	xf, okX := args["x"].(float64)
	yf, okY := args["y"].(float64)
	if !okX || !okY {
		return mcp.NewToolResultError("x and y are required integers"), nil
	}
	x, y := int(xf), int(yf)

	var state engine.GameState
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "/state"), nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if y < 0 || y >= len(state.Layout) || x < 0 || x >= len(state.Layout[y]) {
		return mcp.NewToolResultError(fmt.Sprintf("(%d,%d) is outside the %dx%d board", x, y, state.Width, state.Height)), nil
	}

	return mcp.NewToolResultText(describeCell(&state, x, y)), nil
}

const instructions = `Warehouse Robot Simulator - Complete Instructions

OBJECTIVE:
Run a warehouse robot through a list of moves and report where the boxes end up.
The result is the GPS score: the sum of 100*row + column over every box.

GRID LEGEND:
• @ - Robot (exactly one)
• # - Wall (never moves; the outer border is always wall)
• O - Box
• [ ] - Left and right halves of a double-wide box (always side by side)
• . - Empty floor

MOVEMENT:
• Moves are up, down, left, right (or ^ v < >).
• Moving into floor just moves the robot.
• Moving into a box pushes it. Boxes touching it in the direction of travel are
  pushed too, as one chain.
• If anything in the chain would hit a wall, the whole move is a no-op: the
  robot and every box stay where they are. This is not an error.

DOUBLE-WIDE BOXES:
• create_session with wide=true doubles the map: # becomes ##, O becomes [],
  . becomes .. and @ becomes @.
• A horizontal push moves the chain of halves exactly like narrow boxes.
• A vertical push moves both halves of each box. Each half can touch a
  different box above or below, so one push can lift a whole pyramid; if any
  box in that tree is blocked by a wall, nothing moves.

SCORING:
• Narrow boxes score at their own cell.
• Double-wide boxes score at the [ half.

SCRIPTS:
• Every puzzle carries a scripted move list. run_script executes the rest of it.
• move and bulk_move are ad-hoc moves; they change the board but never advance
  the script.
• reset_game restores the initial board and rewinds the script.

TIPS:
• Use box_positions to check the score without parsing the board.
• Use describe_cell to tell [ from ] before a vertical push.

Happy pushing!`

// Formatting helpers

func formatSessionInfo(session *service.SessionInfo) string {
	return fmt.Sprintf("Session: %s\nConfig: %s\nWide: %v\nCreated: %s\n\n%s",
		session.ID, session.ConfigName, session.Wide,
		session.CreatedAt.Format("2006-01-02 15:04:05"),
		formatGameState(session.GameState))
}

func formatGameState(state *engine.GameState) string {
	if state == nil {
		return "No simulation state available"
	}

	var b strings.Builder

	fmt.Fprintf(&b, "Robot: (%d,%d) | Score: %d | Boxes: %d | Script: %d/%d | Moves: %d\n\n",
		state.RobotPos.X, state.RobotPos.Y, state.Score, state.BoxCount,
		state.ScriptCursor, state.ScriptLength, state.TotalMoves)

	if len(state.LocalView3x3) == 3 {
		b.WriteString("Local 3x3:\n")
		for _, row := range state.LocalView3x3 {
			b.WriteString(row + "\n")
		}
		b.WriteString("\n")
	}

	for _, row := range state.Layout {
		b.WriteString(row)
		b.WriteString("\n")
	}

	if state.Finished {
		b.WriteString("\n✅ SCRIPT FINISHED")
	}

	if state.Message != "" {
		fmt.Fprintf(&b, "\nMessage: %s", state.Message)
	}

	return b.String()
}

func formatMoveResult(result *service.MoveResult) string {
	var b strings.Builder
	if result.Success {
		b.WriteString("✓ Move successful\n")
	} else {
		b.WriteString("✗ Move blocked\n")
	}

	if s := result.Step; s != nil {
		fmt.Fprintf(&b, "Step: %s (%d,%d)→(%d,%d) pushed=%d\n",
			s.Dir, s.From.X, s.From.Y, s.To.X, s.To.Y, s.Pushed)
	}

	if a := result.BlockedBy; a != nil {
		fmt.Fprintf(&b, "Blocked by: (%d,%d) tile=%s %s\n", a.X, a.Y, a.TileChar, a.TileType)
	}

	if len(result.Events) > 0 {
		b.WriteString("Events:\n")
		for _, event := range result.Events {
			fmt.Fprintf(&b, "- %s: %s\n", event.Type, event.Message)
		}
	}

	b.WriteString("\n")
	b.WriteString(formatGameState(result.GameState))
	return b.String()
}

func formatBulkMoveResult(sessionID string, result *service.BulkMoveResult) string {
	var b strings.Builder

	configName := ""
	width, height := 0, 0
	if result.GameState != nil {
		configName = result.GameState.ConfigName
		width, height = result.GameState.Width, result.GameState.Height
	}
	fmt.Fprintf(&b, "Session: %s • Config: %s • Grid: %dx%d\n", sessionID, configName, width, height)

	fmt.Fprintf(&b, "Executed %d/%d moves (%d succeeded, %d blocked",
		result.MovesExecuted, result.RequestedMoves, result.Succeeded, result.Blocked)
	if result.Invalid > 0 {
		fmt.Fprintf(&b, ", %d invalid", result.Invalid)
	}
	b.WriteString(")\n")
	if result.Truncated {
		fmt.Fprintf(&b, "Truncated to %d moves\n", result.Limit)
	}
	if result.StoppedReason != "" {
		fmt.Fprintf(&b, "Stopped: %s\n", result.StoppedReason)
	}
	fmt.Fprintf(&b, "Robot (%d,%d)→(%d,%d) • Score %d→%d (Δ%+d) • Boxes moved: %d\n",
		result.StartPos.X, result.StartPos.Y, result.EndPos.X, result.EndPos.Y,
		result.StartScore, result.EndScore, result.ScoreDelta, result.BoxesMoved)

	if len(result.Steps) > 0 {
		b.WriteString("\nSteps (this call):\n")
		for _, s := range result.Steps {
			b.WriteString(formatStepLine(s))
		}
	}

	if a := result.BlockedBy; a != nil {
		fmt.Fprintf(&b, "\nFirst block: (%d,%d) tile=%s %s\n", a.X, a.Y, a.TileChar, a.TileType)
	}

	if len(result.PossibleMoves) > 0 {
		b.WriteString("\nPossible moves: ")
		b.WriteString(strings.Join(result.PossibleMoves, ","))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(formatGameState(result.GameState))
	return b.String()
}

func formatStepLine(s service.StepInfo) string {
	status := "✓"
	if !s.Success {
		status = "✗"
	}
	line := fmt.Sprintf("%d. %s (%d,%d)→(%d,%d) %s", s.Idx, s.Dir, s.From.X, s.From.Y, s.To.X, s.To.Y, status)
	if s.Pushed > 0 {
		line += fmt.Sprintf(" pushed=%d", s.Pushed)
	}
	if s.Blocker != nil {
		line += fmt.Sprintf(" wall=(%d,%d)", s.Blocker.X, s.Blocker.Y)
	}
	return line + "\n"
}

func formatRunResult(result *service.RunResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Executed %d scripted moves (%d succeeded, %d blocked), %d remaining\n",
		result.Executed, result.Succeeded, result.Blocked, result.Remaining)
	fmt.Fprintf(&b, "Boxes moved: %d\nGPS score: %d\n", result.BoxesMoved, result.Score)
	if result.StoppedReason != "" {
		fmt.Fprintf(&b, "Stopped: %s\n", result.StoppedReason)
	}
	b.WriteString("\n")
	b.WriteString(formatGameState(result.GameState))
	return b.String()
}

func formatBoxes(boxes *service.BoxesResult) string {
	var b strings.Builder
	kind := "narrow"
	if boxes.Wide {
		kind = "double-wide, [ half"
	}
	fmt.Fprintf(&b, "%d boxes (%s) • GPS score: %d\n\n", boxes.Count, kind, boxes.Score)
	for i, p := range boxes.Boxes {
		fmt.Fprintf(&b, "%d. (%d,%d) gps=%d\n", i+1, p.X, p.Y, p.GPS())
	}
	return b.String()
}

func formatHistory(history *service.HistoryResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Move History (Page %d/%d, Total: %d moves):\n\n",
		history.Page, history.TotalPages, history.TotalMoves)

	for _, move := range history.Moves {
		status := "✓"
		if !move.Success {
			status = "✗"
		}
		source := "ad-hoc"
		if move.Scripted {
			source = "script"
		}
		fmt.Fprintf(&b, "#%d: %s (%d,%d)→(%d,%d) %s %s",
			move.MoveNumber, move.Action,
			move.FromPosition.X, move.FromPosition.Y,
			move.ToPosition.X, move.ToPosition.Y, status, source)
		if move.BoxesPushed > 0 {
			fmt.Fprintf(&b, " pushed=%d", move.BoxesPushed)
		}
		b.WriteString("\n")
	}

	if history.HasNext {
		b.WriteString("\n(more on the next page)")
	}
	return b.String()
}

// describeCell explains what occupies a cell and how it behaves under a push
func describeCell(state *engine.GameState, x, y int) string {
	ch := state.Layout[y][x]
	kind, ok := engine.KindFromSymbol(ch)
	if !ok {
		return fmt.Sprintf("(%d,%d): unknown symbol %q", x, y, ch)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Cell (%d,%d): '%c' %s\n", x, y, ch, kind)

	switch kind {
	case engine.Wall:
		b.WriteString("Walls never move; any push chain reaching one is blocked.\n")
	case engine.Box:
		fmt.Fprintf(&b, "Box scoring %d.\n", engine.Position{X: x, Y: y}.GPS())
	case engine.BoxLeft:
		fmt.Fprintf(&b, "Left half of a double-wide box; its partner is at (%d,%d). Scores %d.\n",
			x+1, y, engine.Position{X: x, Y: y}.GPS())
	case engine.BoxRight:
		fmt.Fprintf(&b, "Right half of a double-wide box; its partner is at (%d,%d), which holds the score.\n", x-1, y)
	case engine.Robot:
		b.WriteString("The robot.\n")
	default:
		b.WriteString("Empty floor.\n")
	}

	if x == state.RobotPos.X || y == state.RobotPos.Y {
		fmt.Fprintf(&b, "In line with the robot at (%d,%d).\n", state.RobotPos.X, state.RobotPos.Y)
	}
	return b.String()
}
