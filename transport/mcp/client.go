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

	"github.com/wricardo/marble-maze/game/engine"
	"github.com/wricardo/marble-maze/game/service"
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
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Marble Maze",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Marble Maze - MCP Interface

This is a thin client that proxies all requests to the REST API server.

GAME OBJECTIVE:
Roll the marble (@) onto the star (*) of every board in the catalog. Once
commanded, the marble keeps rolling until a bumper (#) stops it, a hole (O)
swallows it, or it lands on the star.

AVAILABLE TOOLS:
- create_session: Create a new game session (use manual=true to step the clock yourself)
- list_sessions / get_session: Inspect sessions
- board_state: Current board, marble and progress
- direct: Command a direction while the marble is at rest
- tick: Advance a manual session's clock, optionally until the marble rests
- reset_game: Restart from the first board
- hint: Shortest command sequence to the star from the resting cell
- describe_cell: What is at a given row/col
- list_catalogs: Available catalogs
- game_instructions: Full rules`),
	)

	c.registerTools()
}

func sessionSchema(extra map[string]interface{}, required ...string) mcp.ToolInputSchema {
	properties := map[string]interface{}{
		"session_id": map[string]interface{}{
			"type":        "string",
			"description": "Session ID",
		},
	}
	for name, prop := range extra {
		properties[name] = prop
	}
	return mcp.ToolInputSchema{
		Type:       "object",
		Properties: properties,
		Required:   append([]string{"session_id"}, required...),
	}
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	// Session management
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create a new game session with optional catalog selection",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"catalog_id": map[string]interface{}{
					"type":        "string",
					"description": "Catalog to play (optional, see list_catalogs)",
				},
				"manual": map[string]interface{}{
					"type":        "boolean",
					"description": "Only advance the clock through the tick tool",
				},
			},
		},
	}, c.handleCreateSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all active game sessions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListSessions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_session",
		Description: "Get details of a specific session",
		InputSchema: sessionSchema(nil),
	}, c.handleGetSession)

	// Game operations
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "board_state",
		Description: "Get the current board, marble position and progress",
		InputSchema: sessionSchema(nil),
	}, c.handleBoardState)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "direct",
		Description: "Command the marble to roll in a direction. Ignored unless the marble is at rest.",
		InputSchema: sessionSchema(map[string]interface{}{
			"direction": map[string]interface{}{
				"type":        "string",
				"enum":        []string{"up", "down", "left", "right"},
				"description": "Direction to roll",
			},
			"intent": map[string]interface{}{
				"type":        "string",
				"description": "Brief explanation of what this roll should achieve",
			},
		}, "direction"),
	}, c.handleDirect)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "tick",
		Description: "Advance the clock of a manual session",
		InputSchema: sessionSchema(map[string]interface{}{
			"ticks": map[string]interface{}{
				"type":        "integer",
				"description": fmt.Sprintf("Number of ticks (1-%d, default 1)", engine.MaxStepTicks),
			},
			"until_rest": map[string]interface{}{
				"type":        "boolean",
				"description": "Stop early once the marble is at rest",
			},
		}),
	}, c.handleTick)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "reset_game",
		Description: "Restart the session from its first board",
		InputSchema: sessionSchema(nil),
	}, c.handleReset)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "hint",
		Description: "Shortest sequence of directions from the marble's resting cell to the star",
		InputSchema: sessionSchema(nil),
	}, c.handleHint)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "describe_cell",
		Description: "Describe the tile at a row and column of the current board",
		InputSchema: sessionSchema(map[string]interface{}{
			"row": map[string]interface{}{
				"type":        "integer",
				"description": "Row index (0 is the top row)",
			},
			"col": map[string]interface{}{
				"type":        "integer",
				"description": "Column index (0 is the left column)",
			},
		}, "row", "col"),
	}, c.handleDescribeCell)

	// Catalogs
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_catalogs",
		Description: "List available board catalogs",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListCatalogs)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_instructions",
		Description: "Get the rules of the game",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleGameInstructions)
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
	return args
}

func sessionPath(args map[string]interface{}, suffix string) (string, error) {
	sessionID, _ := args["session_id"].(string)
	if sessionID == "" {
		return "", fmt.Errorf("session_id is required")
	}
	return "/api/sessions/" + url.PathEscape(sessionID) + suffix, nil
}

func intArg(args map[string]interface{}, name string) (int, bool) {
	switch v := args[name].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	}
	return 0, false
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	opts := service.CreateOptions{}
	opts.CatalogID, _ = args["catalog_id"].(string)
	opts.Manual, _ = args["manual"].(bool)

	var session service.SessionInfo
	if err := c.apiCall(ctx, "POST", "/api/sessions", opts, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	mode := "server clock"
	if session.Manual {
		mode = "manual clock (use tick)"
	}
	result := fmt.Sprintf("Created session: %s\nCatalog: %s (%s)\nClock: %s\n\n%s",
		session.ID, session.CatalogName, session.CatalogID, mode, formatSnapshot(session.State))
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

	var result strings.Builder
	fmt.Fprintf(&result, "Active Sessions (%d):\n\n", response.Count)
	for _, s := range response.Sessions {
		level := 0
		if s.State != nil {
			level = s.State.Level
		}
		fmt.Fprintf(&result, "- %s (Catalog: %s, Level: %d, Created: %s)\n",
			s.ID, s.CatalogID, level, s.CreatedAt.Format("15:04:05"))
	}

	return mcp.NewToolResultText(result.String()), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := sessionPath(arguments(request), "")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "GET", path, nil, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) handleBoardState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := sessionPath(arguments(request), "/state")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var state engine.Snapshot
	if err := c.apiCall(ctx, "GET", path, nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSnapshot(&state)), nil
}

func (c *Client) handleDirect(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	path, err := sessionPath(args, "/direction")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	direction, _ := args["direction"].(string)

	var result service.DirectResult
	if err := c.apiCall(ctx, "POST", path, map[string]string{"direction": direction}, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("%s\n\n%s", result.Message, formatSnapshot(result.State))), nil
}

func (c *Client) handleTick(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	path, err := sessionPath(args, "/tick")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	ticks, ok := intArg(args, "ticks")
	if !ok {
		ticks = 1
	}
	untilRest, _ := args["until_rest"].(bool)

	var result service.TickResult
	body := map[string]interface{}{"ticks": ticks, "until_rest": untilRest}
	if err := c.apiCall(ctx, "POST", path, body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatTickResult(&result)), nil
}

func (c *Client) handleReset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := sessionPath(arguments(request), "/reset")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var response struct {
		Message string              `json:"message"`
		Session service.SessionInfo `json:"session"`
	}
	if err := c.apiCall(ctx, "POST", path, nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("%s\n\n%s", response.Message, formatSnapshot(response.Session.State))), nil
}

func (c *Client) handleHint(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := sessionPath(arguments(request), "/hint")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var hint service.HintResult
	if err := c.apiCall(ctx, "GET", path, nil, &hint); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatHint(&hint)), nil
}

func (c *Client) handleDescribeCell(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	path, err := sessionPath(args, "/state")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	row, okRow := intArg(args, "row")
	col, okCol := intArg(args, "col")
	if !okRow || !okCol {
		return mcp.NewToolResultError("row and col are required"), nil
	}

	var state engine.Snapshot
	if err := c.apiCall(ctx, "GET", path, nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(describeCell(&state, engine.Cell{Row: row, Col: col})), nil
}

func (c *Client) handleListCatalogs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var catalogs []service.CatalogInfo
	if err := c.apiCall(ctx, "GET", "/api/catalogs", nil, &catalogs); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var result strings.Builder
	result.WriteString("Available Catalogs:\n\n")
	for _, catalog := range catalogs {
		fmt.Fprintf(&result, "• %s (id: %s)\n  %s\n  Grid: %dx%d, Boards: %d\n\n",
			catalog.Name, catalog.CatalogID, catalog.Description, catalog.Rows, catalog.Cols, catalog.Boards)
	}

	return mcp.NewToolResultText(result.String()), nil
}

const instructions = `Marble Maze - Instructions

OBJECTIVE:
Each catalog is an ordered list of boards. Roll the marble onto the star of
the current board to move on to the next one. Clear every board to win.

LEGEND:
• @ - Marble
• . - Plain floor, the marble rolls across it
• # - Bumper, stops the marble on the cell before it
• O - Hole, the marble falls and respawns at its spawn cell
• * - Star, clears the board
• $ - Marble after the last board is cleared
The edge of the board behaves like a hole.

MOVEMENT:
• A direction is only accepted while the marble is at rest.
• Once moving, the marble keeps rolling one fraction of a tile per tick
  until something stops it. You cannot steer mid-roll.
• After a star there is a short pause, then the next board loads. The
  marble is re-centred where it stopped, or on the board's entry cell.

CLOCK:
• Sessions follow the server clock unless created with manual=true.
• Manual sessions only move through the tick tool; use until_rest=true to
  play one roll at a time.

STRATEGY:
• Plan rolls from bumper to bumper; only cells next to a bumper (or the
  star) are places the marble can stop.
• Use hint when stuck. It returns the shortest sequence of directions from
  the current resting cell.`

func (c *Client) handleGameInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(instructions), nil
}

// Formatting helpers

func formatSessionInfo(session *service.SessionInfo) string {
	mode := "server"
	if session.Manual {
		mode = "manual"
	}
	return fmt.Sprintf("Session: %s\nCatalog: %s (%s)\nClock: %s\nCreated: %s\n\n%s",
		session.ID, session.CatalogName, session.CatalogID, mode,
		session.CreatedAt.Format("2006-01-02 15:04:05"),
		formatSnapshot(session.State))
}

func formatSnapshot(state *engine.Snapshot) string {
	if state == nil {
		return "No board state available"
	}

	var result strings.Builder
	fmt.Fprintf(&result, "Board %d/%d: %s | Marble: %s heading %s | Tick: %d | Falls: %d\n\n",
		state.Level, state.TotalBoards, state.BoardName,
		state.MarbleCell, state.Marble.Direction, state.Ticks, state.Falls)

	for _, line := range state.Lines() {
		result.WriteString(line)
		result.WriteString("\n")
	}

	switch {
	case state.Victory:
		result.WriteString("\nVICTORY! All boards cleared.")
	case state.GameOver:
		result.WriteString("\nLast star reached, finishing...")
	case state.PauseRemaining > 0:
		fmt.Fprintf(&result, "\nStar reached, next board in %d ticks", state.PauseRemaining)
	case state.Marble.Direction == engine.None:
		result.WriteString("\nMarble at rest, ready for a direction")
	}

	return result.String()
}

func formatTickResult(result *service.TickResult) string {
	var out strings.Builder
	fmt.Fprintf(&out, "Advanced %d of %d ticks, last outcome: %s\n", result.Ticks, result.Requested, result.Outcome)
	for _, event := range result.Events {
		fmt.Fprintf(&out, "- tick %d: %s\n", event.Tick, event.Message)
	}
	out.WriteString("\n")
	out.WriteString(formatSnapshot(result.State))
	return out.String()
}

func formatHint(hint *service.HintResult) string {
	if len(hint.Directions) == 0 {
		return fmt.Sprintf("The marble is already on the star at %s", hint.From)
	}

	var out strings.Builder
	fmt.Fprintf(&out, "From %s: %s (%d ticks)\n", hint.From, strings.Join(hint.Directions, ", "), hint.Ticks)
	for i, move := range hint.Moves {
		fmt.Fprintf(&out, "%d. %s %s -> %s (%s)\n", i+1, move.Direction, move.From, move.To, move.Outcome)
	}
	return out.String()
}

func describeCell(state *engine.Snapshot, cell engine.Cell) string {
	if cell.Row < 0 || cell.Row >= state.Rows || cell.Col < 0 || cell.Col >= state.Cols {
		return fmt.Sprintf("%s is off the board (%dx%d); the marble falls there like a hole", cell, state.Rows, state.Cols)
	}

	kind := state.At(cell)
	var detail string
	switch kind {
	case engine.Plain:
		detail = "the marble rolls across it"
	case engine.Bumper:
		detail = "stops a marble rolling into it on the previous cell"
	case engine.Hole:
		detail = "the marble falls in and respawns"
	case engine.Star:
		detail = "landing here clears the board"
	}

	result := fmt.Sprintf("%s: %s (%c) - %s", cell, kind, kind.Glyph(), detail)
	if cell == state.MarbleCell {
		result += "\nThe marble is here."
	}
	return result
}
