// Package api provides HTTP REST API handlers for the Marble Maze game.
//
// The api package implements:
//   - Session management endpoints
//   - Direction commands and manual clock steps
//   - Catalog listing and retrieval
//   - WebSocket upgrade handling
//
// Endpoints:
//
// Session Management:
//   - POST /api/sessions - Create new session ({"catalog_id": "classic", "manual": true})
//   - GET /api/sessions - List sessions (?sort=created|accessed&order=asc|desc&limit=N)
//   - GET /api/sessions/{id} - Get specific session
//   - DELETE /api/sessions/{id} - Delete session
//
// Game Operations:
//   - GET /api/sessions/{id}/state - Current frame snapshot
//   - POST /api/sessions/{id}/direction - Command a direction ({"direction": "left"})
//   - POST /api/sessions/{id}/tick - Advance a manual clock ({"ticks": 10, "until_rest": true})
//   - POST /api/sessions/{id}/reset - Restart from the first board
//   - GET /api/sessions/{id}/hint - Shortest command sequence to a star
//
// Catalogs:
//   - GET /api/catalogs - List available catalogs
//   - GET /api/catalogs/{name} - Get a catalog by id or file name
//
// WebSocket:
//   - GET /ws?session={id} - Stream state_update frames and accept {"direction": "up"}
//
// Error Handling:
//
// Errors are returned as JSON, {"error": "message"}, with the status taken
// from the underlying error: 404 for unknown sessions and catalogs, 400 for
// bad directions and tick counts, 409 when the marble is moving, the game is
// over or a tick targets a server clock session, 422 for invalid or
// unsolvable catalogs. A known path with the wrong method gets 405.
//
// Usage:
//
//	server := api.NewServer(gameService, hub, log.Logger)
//	http.ListenAndServe(":8080", server)
package api
