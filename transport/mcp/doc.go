// Package mcp provides a Model Context Protocol front end for the Marble Maze game.
//
// The Client is a thin MCP server whose tools proxy to the REST API, so the
// same game can be played by an AI agent and watched over WebSocket.
//
// MCP Tools:
//   - create_session: Create a session, optionally on a catalog and with a manual clock
//   - list_sessions, get_session: Inspect sessions
//   - board_state: Board glyphs, marble cell and progress
//   - direct: Command a direction while the marble rests
//   - tick: Advance a manual session's clock
//   - reset_game: Restart from the first board
//   - hint: Shortest command sequence to the current star
//   - describe_cell: Explain one tile
//   - list_catalogs, game_instructions
//
// Transport Modes:
//   - HTTP: mounted at /mcp by the server command
//   - Stdio: the stdio-mcp command, which starts an internal API server when
//     none is reachable
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	server.ServeStdio(client.GetMCPServer())
package mcp
