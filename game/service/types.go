package service

import (
	"fmt"
	"time"

	"github.com/wricardo/marble-maze/game/engine"
	"github.com/wricardo/marble-maze/game/solver"
)

// SessionInfo provides information about a game session
type SessionInfo struct {
	ID             string           `json:"id"`
	CatalogID      string           `json:"catalog_id"`
	CatalogName    string           `json:"catalog_name"`
	Manual         bool             `json:"manual"`
	CreatedAt      time.Time        `json:"created_at"`
	LastAccessedAt time.Time        `json:"last_accessed_at"`
	Message        string           `json:"message"`
	Fault          string           `json:"fault,omitempty"` // why the session stopped ticking
	State          *engine.Snapshot `json:"state"`
}

// GameEvent represents an event that occurred during play
type GameEvent struct {
	Type    string      `json:"type"` // "stopped", "fell", "star", "advanced", "finished"
	Message string      `json:"message"`
	Tick    uint64      `json:"tick"`
	Level   int         `json:"level"`
	Cell    engine.Cell `json:"cell"`
}

// TickResult contains the result of advancing a session's clock
type TickResult struct {
	SessionID string           `json:"session_id"`
	Requested int              `json:"requested"`
	Ticks     int              `json:"ticks"`
	Outcome   engine.Outcome   `json:"outcome"` // last outcome other than idle
	Events    []GameEvent      `json:"events,omitempty"`
	Message   string           `json:"message"`
	State     *engine.Snapshot `json:"state"`
}

// DirectResult contains the result of a direction command
type DirectResult struct {
	SessionID string           `json:"session_id"`
	Accepted  bool             `json:"accepted"`
	Direction engine.Direction `json:"direction"`
	Message   string           `json:"message,omitempty"`
	State     *engine.Snapshot `json:"state"`
}

// HintResult is the shortest route to a star from the marble's resting cell
type HintResult struct {
	From       engine.Cell   `json:"from"`
	Directions []string      `json:"directions"`
	Moves      []solver.Move `json:"moves"`
	Ticks      int           `json:"ticks"`
}

// SessionUpdate is a changed frame produced by the server clock
type SessionUpdate struct {
	SessionID string           `json:"session_id"`
	Outcome   engine.Outcome   `json:"outcome"`
	Events    []GameEvent      `json:"events,omitempty"`
	Message   string           `json:"message"`
	State     *engine.Snapshot `json:"state"`
}

// SessionError is a tick failure of one clock-driven session
type SessionError struct {
	SessionID string
	Err       error
}

func (e *SessionError) Error() string {
	return fmt.Sprintf("session %s: %v", e.SessionID, e.Err)
}

func (e *SessionError) Unwrap() error { return e.Err }

// CatalogInfo provides information about a catalog file
type CatalogInfo struct {
	Filename    string `json:"filename"`
	CatalogID   string `json:"catalog_id"` // The identifier to use for session creation
	Name        string `json:"name"`       // Display name
	Description string `json:"description"`
	Rows        int    `json:"rows"`
	Cols        int    `json:"cols"`
	Boards      int    `json:"boards"`
}
