// Package websocket provides WebSocket transport for the Marble Maze game.
//
// The package uses a hub-and-spoke model where a central Hub manages all
// WebSocket connections. Each client connection is handled by a read and a
// write goroutine; the hub goroutine owns registration and fan-out.
//
// Message Protocol:
//
// Clients connect with ?session={id} and send direction commands:
//
//	{"direction": "left"}
//
// Every frame sent to clients is a Message:
//
//	{"session_id": "a1b2c3d4", "event": "state_update", "outcome": "moved", "state": {...}}
//
// Accepted commands and every changed clock tick produce a state_update for
// all clients of the session. A command dropped because the marble is still
// rolling is answered with command_ignored to the sender only; malformed
// frames and service errors with error.
//
// Usage:
//
//	hub := websocket.NewHub(gameService, log.Logger)
//	go hub.Run(ctx)
//
//	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
//		hub.ServeWS(w, r, r.URL.Query().Get("session"))
//	})
package websocket
