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
	"github.com/wricardo/puzzlebox/game/engine"
	"github.com/wricardo/puzzlebox/game/results"
	"github.com/wricardo/puzzlebox/game/service"
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

func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Puzzle Box",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Puzzle Box - MCP Interface

Two puzzles are served through sessions:
- merge (2048): slide tiles on a 4x4 grid with the move tool
- match (memory): flip tiles two at a time with the select_tile tool

Start with list_configs, then create_session with a config_id. Call
game_instructions for the full rules.`),
	)

	c.registerTools()
}

func sessionProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Session ID",
	}
}

func (c *Client) registerTools() {
	// Sessions
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create a new game session from a preset",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"config_id": map[string]interface{}{
					"type":        "string",
					"description": "Preset to play, e.g. classic or peek-a-chu (optional)",
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
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"session_id": sessionProperty()},
			Required:   []string{"session_id"},
		},
	}, c.handleGetSession)

	// Play
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_state",
		Description: "Get the current board of a session",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"session_id": sessionProperty()},
			Required:   []string{"session_id"},
		},
	}, c.handleGameState)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "move",
		Description: "Slide every tile of a merge session in one direction",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"direction": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"up", "down", "left", "right"},
					"description": "Direction to slide",
				},
				"intent": map[string]interface{}{
					"type":        "string",
					"description": "Brief explanation of why this move was chosen",
				},
			},
			Required: []string{"session_id", "direction"},
		},
	}, c.handleMove)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "select_tile",
		Description: "Flip a face-down tile of a match session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"tile_id": map[string]interface{}{
					"type":        "integer",
					"description": "ID of the tile to flip (0-based)",
				},
			},
			Required: []string{"session_id", "tile_id"},
		},
	}, c.handleSelectTile)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "restart_game",
		Description: "Deal a fresh board for the session, keeping its preset",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"session_id": sessionProperty()},
			Required:   []string{"session_id"},
		},
	}, c.handleRestart)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "move_history",
		Description: "Get the input history of a session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"page": map[string]interface{}{
					"type":        "integer",
					"description": "Page number",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Items per page",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleMoveHistory)

	// Presets and results
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_configs",
		Description: "List available presets",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListConfigs)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_results",
		Description: "Show the best finished rounds",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"kind": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"merge", "match"},
					"description": "Only rounds of this puzzle",
				},
				"config_id": map[string]interface{}{
					"type":        "string",
					"description": "Only rounds of this preset",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of rows",
				},
			},
		},
	}, c.handleListResults)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_instructions",
		Description: "Get the rules of both puzzles",
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
		if json.NewDecoder(resp.Body).Decode(&errResp) == nil && errResp["error"] != "" {
			return fmt.Errorf("%s", errResp["error"])
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}
	return nil
}

func arguments(request mcp.CallToolRequest) map[string]interface{} {
	if args, ok := request.Params.Arguments.(map[string]interface{}); ok {
		return args
	}
	return map[string]interface{}{}
}

func sessionPath(args map[string]interface{}, suffix string) (string, error) {
	sessionID, _ := args["session_id"].(string)
	if sessionID == "" {
		return "", fmt.Errorf("session_id is required")
	}
	return "/api/sessions/" + url.PathEscape(sessionID) + suffix, nil
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	configID, _ := arguments(request)["config_id"].(string)

	body := map[string]string{}
	if configID != "" {
		body["config_id"] = configID
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "POST", "/api/sessions", body, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Created session: %s\nConfig: %s (%s)\n\n%s",
		session.ID, session.ConfigID, session.Kind, formatSessionBoard(&session))), nil
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
		fmt.Fprintf(&b, "- %s (%s, config: %s, created: %s)\n",
			s.ID, s.Kind, s.ConfigID, s.CreatedAt.Format("15:04:05"))
	}
	return mcp.NewToolResultText(b.String()), nil
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

func (c *Client) handleGameState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := sessionPath(arguments(request), "/state")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var snapshot service.Snapshot
	if err := c.apiCall(ctx, "GET", path, nil, &snapshot); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSnapshot(&snapshot)), nil
}

func (c *Client) handleMove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	path, err := sessionPath(args, "/move")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	direction, _ := args["direction"].(string)

	var result service.MoveResult
	if err := c.apiCall(ctx, "POST", path, map[string]string{"direction": direction}, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatMoveResult(&result)), nil
}

func (c *Client) handleSelectTile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	path, err := sessionPath(args, "/select")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	tileID, ok := args["tile_id"].(float64)
	if !ok {
		return mcp.NewToolResultError("tile_id is required"), nil
	}

	var result service.SelectResult
	if err := c.apiCall(ctx, "POST", path, map[string]int{"tile_id": int(tileID)}, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSelectResult(&result)), nil
}

func (c *Client) handleRestart(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := sessionPath(arguments(request), "/restart")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var snapshot service.Snapshot
	if err := c.apiCall(ctx, "POST", path, nil, &snapshot); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText("Game restarted\n\n" + formatSnapshot(&snapshot)), nil
}

func (c *Client) handleMoveHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	path, err := sessionPath(args, "/history")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	query := url.Values{}
	if page, ok := args["page"].(float64); ok {
		query.Set("page", fmt.Sprint(int(page)))
	}
	if limit, ok := args["limit"].(float64); ok {
		query.Set("limit", fmt.Sprint(int(limit)))
	}
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var history service.HistoryResponse
	if err := c.apiCall(ctx, "GET", path, nil, &history); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatHistory(&history)), nil
}

func (c *Client) handleListConfigs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var configs []service.ConfigInfo
	if err := c.apiCall(ctx, "GET", "/api/configs", nil, &configs); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	b.WriteString("Available Configurations:\n\n")
	for _, config := range configs {
		fmt.Fprintf(&b, "• %s (config_id: %s, %s)\n  %s\n", config.Name, config.ConfigID, config.Kind, config.Description)
		if config.Kind == engine.KindMatch {
			fmt.Fprintf(&b, "  Pairs: %d, hide delay: %dms\n", config.Pairs, config.HideDelayMS)
		}
		b.WriteString("\n")
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleListResults(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	query := url.Values{}
	if kind, _ := args["kind"].(string); kind != "" {
		query.Set("kind", kind)
	}
	if configID, _ := args["config_id"].(string); configID != "" {
		query.Set("config_id", configID)
	}
	if limit, ok := args["limit"].(float64); ok {
		query.Set("limit", fmt.Sprint(int(limit)))
	}
	path := "/api/results"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var response struct {
		Count   int              `json:"count"`
		Results []results.Result `json:"results"`
	}
	if err := c.apiCall(ctx, "GET", path, nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatResults(response.Results)), nil
}

func (c *Client) handleGameInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(instructions), nil
}

const instructions = `Puzzle Box - Instructions

MERGE (2048):
• The board is a 4x4 grid. Empty cells show as "."
• move slides every tile as far as it goes toward one edge
• Two equal tiles that meet merge into their sum, once per move
• Every merge adds the new tile's value to the score
• A move that changes the board spawns a 2 (90%) or a 4 (10%) on a random empty cell
• A move that changes nothing is ignored and spawns nothing
• Reaching 2048 wins; you may keep playing after the win
• The game is over when the grid is full and no neighbours are equal

MATCH (memory):
• Tiles are dealt face down; every symbol appears exactly twice
• select_tile flips one tile; flip two per attempt
• Equal symbols stay face up as a matched pair
• Different symbols stay visible for the preset's hide delay, then flip back
• Selections during that delay, on a face-up tile or on a matched tile are ignored
• Matching every pair wins

SESSIONS:
• Each session has a 4-character ID and plays one preset
• restart_game deals a fresh board for the same preset
• Finished rounds appear in list_results

Good luck!`

// Formatting

func formatSessionInfo(session *service.SessionInfo) string {
	return fmt.Sprintf("Session: %s\nKind: %s\nConfig: %s\nCreated: %s\n\n%s",
		session.ID, session.Kind, session.ConfigID,
		session.CreatedAt.Format("2006-01-02 15:04:05"),
		formatSessionBoard(session))
}

func formatSessionBoard(session *service.SessionInfo) string {
	if session.MatchState != nil {
		return formatMatchState(session.MatchState)
	}
	return formatGameState(session.GameState)
}

func formatSnapshot(snapshot *service.Snapshot) string {
	if snapshot.MatchState != nil {
		return formatMatchState(snapshot.MatchState)
	}
	return formatGameState(snapshot.GameState)
}

func formatGameState(state *engine.GameState) string {
	if state == nil {
		return "No game state available"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Score: %d | Max tile: %d | Moves: %d\n\n", state.Score, state.MaxTile, state.Moves)
	for _, row := range engine.FormatGrid(state.Grid) {
		b.WriteString(row + "\n")
	}

	switch {
	case state.IsOver && state.IsWon:
		b.WriteString("\n🎉 2048 reached! No moves left.")
	case state.IsOver:
		b.WriteString("\n💀 GAME OVER")
	case state.IsWon:
		b.WriteString("\n🎉 2048 reached! Keep going for a higher score.")
	}
	return b.String()
}

func formatMatchState(state *engine.MatchState) string {
	if state == nil {
		return "No game state available"
	}

	matched := make(map[int]bool, len(state.Matched))
	for _, id := range state.Matched {
		matched[id] = true
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Pairs: %d/%d | Attempts: %d\n\n", len(state.Matched)/2, len(state.Deck)/2, state.Attempts)
	for i, tile := range state.Deck {
		label := "??"
		switch {
		case matched[tile.ID]:
			label = "[" + tile.Symbol + "]"
		case tile.IsFlipped:
			label = tile.Symbol
		}
		fmt.Fprintf(&b, "%2d:%-12s", tile.ID, label)
		if (i+1)%engine.GridSize == 0 || i == len(state.Deck)-1 {
			b.WriteString("\n")
		}
	}

	switch {
	case state.IsWon:
		b.WriteString("\n🎉 All pairs found!")
	case state.Locked:
		b.WriteString("\nMismatch shown, tiles flip back shortly")
	}
	return b.String()
}

func formatEvents(events []service.GameEvent) string {
	if len(events) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("Events:\n")
	for _, event := range events {
		fmt.Fprintf(&b, "- %s: %s\n", event.Type, event.Message)
	}
	return b.String()
}

func formatMoveResult(result *service.MoveResult) string {
	response := "✗ Move ignored\n"
	if result.Accepted {
		response = "✓ Move accepted\n"
	}
	if result.Message != "" {
		response += result.Message + "\n"
	}
	response += formatEvents(result.Events)
	if len(result.PossibleMoves) > 0 {
		response += "Possible moves: " + strings.Join(result.PossibleMoves, ", ") + "\n"
	}

	response += "\n" + formatGameState(result.GameState)
	return response
}

func formatSelectResult(result *service.SelectResult) string {
	response := fmt.Sprintf("✓ %s\n", result.Outcome)
	if !result.Accepted {
		response = fmt.Sprintf("✗ Selection ignored (%s)\n", result.Reason)
	}
	if result.Message != "" {
		response += result.Message + "\n"
	}
	if result.HideAfterMS > 0 {
		response += fmt.Sprintf("Tiles flip back in %dms\n", result.HideAfterMS)
	}
	response += formatEvents(result.Events)

	response += "\n" + formatMatchState(result.MatchState)
	return response
}

func formatHistory(history *service.HistoryResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Move History (Page %d/%d), %d total\n\n", history.Page, history.TotalPages, history.TotalMoves)

	for _, move := range history.Moves {
		status := "✓"
		if !move.Accepted {
			status = "✗"
		}
		fmt.Fprintf(&b, "%d. %s %s [Score: %d]\n", move.MoveNumber, move.Action, status, move.Score)
	}
	return b.String()
}

func formatResults(list []results.Result) string {
	if len(list) == 0 {
		return "No finished rounds yet"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Best Rounds (%d):\n\n", len(list))
	for i, r := range list {
		fmt.Fprintf(&b, "%d. %s/%s %s score=%d moves=%d", i+1, r.Kind, r.ConfigID, r.Outcome, r.Score, r.Moves)
		if r.Kind == engine.KindMerge {
			fmt.Fprintf(&b, " max=%d", r.MaxTile)
		}
		fmt.Fprintf(&b, " (session %s, %s)\n", r.SessionID, r.Duration.Round(time.Second))
	}
	return b.String()
}
