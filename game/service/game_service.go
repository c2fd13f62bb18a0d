package service

import (
	"context"
	"errors"
	"time"

	"github.com/wricardo/marble-maze/game/engine"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrCatalogNotFound = errors.New("catalog not found")
	ErrInvalidCatalog  = errors.New("invalid catalog")
	ErrNotResting      = errors.New("marble is not at rest")
	ErrGameFinished    = errors.New("game is finished")
	ErrInvalidTicks    = errors.New("invalid tick count")
	ErrClockDriven     = errors.New("session is driven by the server clock")
)

// GameService defines all game-related operations
type GameService interface {
	// Session Management
	CreateSession(ctx context.Context, opts CreateOptions) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Game Operations
	Direct(ctx context.Context, sessionID, direction string) (*DirectResult, error)
	Step(ctx context.Context, sessionID string, ticks int, untilRest bool) (*TickResult, error)
	Reset(ctx context.Context, sessionID string) (*SessionInfo, error)
	AdvanceRunning(ctx context.Context) ([]*SessionUpdate, []*SessionError)

	// Game State
	GetSnapshot(ctx context.Context, sessionID string) (*engine.Snapshot, error)
	Hint(ctx context.Context, sessionID string) (*HintResult, error)

	// Catalogs
	ListCatalogs(ctx context.Context) ([]*CatalogInfo, error)
	LoadCatalog(ctx context.Context, name string) (*engine.CatalogConfig, error)
}

// SessionManager defines session storage operations
type SessionManager interface {
	Create(id, configID string, config *engine.CatalogConfig, settings engine.Settings, manual bool) (*Session, error)
	Get(id string) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
}

// ConfigManager handles catalog loading
type ConfigManager interface {
	LoadCatalog(name string) (*engine.CatalogConfig, error)
	ListCatalogs() ([]*CatalogInfo, error)
	GetDefault() *engine.CatalogConfig
	DefaultName() string
}

// CreateOptions selects the catalog and clock mode of a new session
type CreateOptions struct {
	CatalogID string `json:"catalog_id,omitempty"`
	// Manual sessions only advance through Step; the others follow the
	// server clock.
	Manual bool `json:"manual,omitempty"`
}

// Session represents an active game session
type Session struct {
	ID        string
	ConfigID  string
	Config    *engine.CatalogConfig
	Settings  engine.Settings
	Manual    bool
	CreatedAt time.Time

	state *sessionState
}
