// Package session provides session management for the Marble Maze game.
//
// The session package implements:
//   - Thread-safe session storage and retrieval
//   - Unique session ID generation
//   - Session lifecycle management and expiry
//
// Core Types:
//
// Manager is the session store used by the game service. Each stored
// service.Session owns its own engine behind a mutex, so different sessions
// can be ticked and commanded concurrently.
//
// Session Identifiers:
//
// Generated IDs are the first eight hex characters of a random UUID. Lookups
// are case-insensitive.
//
// Usage:
//
//	manager := session.NewManager(log.Logger)
//
//	sess, err := manager.Create("", "classic", config, engine.DefaultSettings(), false)
//	if err != nil {
//		log.Fatal().Err(err).Msg("create session")
//	}
//
//	sess, err = manager.Get(sess.ID)
//
// Cleanup:
//
// Sessions are kept in memory only. CleanupExpiredSessions drops those that
// have not been accessed within the given age.
package session
