package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/wricardo/marble-maze/game/engine"
)

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions SessionManager
	configs  ConfigManager
	settings engine.Settings
	mu       sync.RWMutex
}

// NewGameService creates a new game service instance. Every session it
// creates runs with settings.
func NewGameService(sessions SessionManager, configs ConfigManager, settings engine.Settings) GameService {
	return &gameServiceImpl{
		sessions: sessions,
		configs:  configs,
		settings: settings,
	}
}

// CreateSession creates a new game session
func (s *gameServiceImpl) CreateSession(ctx context.Context, opts CreateOptions) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Load catalog
	var config *engine.CatalogConfig
	catalogID := opts.CatalogID
	if catalogID != "" {
		var err error
		config, err = s.configs.LoadCatalog(catalogID)
		if err != nil {
			// Provide helpful error message with available options
			if errors.Is(err, ErrCatalogNotFound) {
				available, listErr := s.configs.ListCatalogs()
				if listErr == nil && len(available) > 0 {
					var ids []string
					for _, c := range available {
						ids = append(ids, c.CatalogID)
					}
					return nil, fmt.Errorf("%w: '%s'. Available catalogs: %v", ErrCatalogNotFound, catalogID, ids)
				}
				return nil, fmt.Errorf("%w: '%s'. Use /api/catalogs to list available catalogs", ErrCatalogNotFound, catalogID)
			}
			return nil, fmt.Errorf("failed to load catalog %s: %w", catalogID, err)
		}
	} else {
		config = s.configs.GetDefault()
		catalogID = s.configs.DefaultName()
	}

	// Let the session manager generate the ID
	session, err := s.sessions.Create("", catalogID, config, s.settings, opts.Manual)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return sessionInfo(session), nil
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	session, err := s.touch(sessionID)
	if err != nil {
		return nil, err
	}
	return sessionInfo(session), nil
}

// ListSessions returns all active sessions
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, sessionInfo(sess))
	}
	return result, nil
}

// DeleteSession removes a session
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.sessions.Delete(sessionID); err != nil {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	return nil
}

// Direct applies a direction token to a session. A command dropped because
// the marble is moving or between boards is not an error.
func (s *gameServiceImpl) Direct(ctx context.Context, sessionID, direction string) (*DirectResult, error) {
	d, err := engine.ParseDirection(direction)
	if err != nil {
		return nil, err
	}

	session, err := s.touch(sessionID)
	if err != nil {
		return nil, err
	}

	accepted := session.Command(d)
	snap := session.Snapshot()

	result := &DirectResult{
		SessionID: session.ID,
		Accepted:  accepted,
		Direction: d,
		State:     &snap,
	}
	switch {
	case accepted:
		result.Message = fmt.Sprintf("Rolling %s", d)
	case snap.Victory:
		result.Message = "Game is finished"
	default:
		result.Message = "Ignored: marble is moving"
	}
	return result, nil
}

// Step advances a manual session's clock by hand. Sessions on the server
// clock refuse it.
func (s *gameServiceImpl) Step(ctx context.Context, sessionID string, ticks int, untilRest bool) (*TickResult, error) {
	session, err := s.touch(sessionID)
	if err != nil {
		return nil, err
	}
	if !session.Manual {
		return nil, fmt.Errorf("%w: %s", ErrClockDriven, session.ID)
	}
	return session.Tick(ticks, untilRest)
}

// Reset restarts a session from its first board
func (s *gameServiceImpl) Reset(ctx context.Context, sessionID string) (*SessionInfo, error) {
	session, err := s.touch(sessionID)
	if err != nil {
		return nil, err
	}
	if err := session.Reset(); err != nil {
		return nil, fmt.Errorf("failed to reset session: %w", err)
	}
	return sessionInfo(session), nil
}

// AdvanceRunning ticks every clock-driven session once. It returns the
// sessions whose frame changed and the sessions whose tick failed. A failed
// session is skipped from then on until it is reset.
func (s *gameServiceImpl) AdvanceRunning(ctx context.Context) ([]*SessionUpdate, []*SessionError) {
	s.mu.RLock()
	sessions := s.sessions.List()
	s.mu.RUnlock()

	var updates []*SessionUpdate
	var failures []*SessionError
	for _, session := range sessions {
		if ctx.Err() != nil {
			break
		}
		if session.Manual || session.Fault() != nil {
			continue
		}

		result, err := session.Tick(1, false)
		if err != nil {
			failures = append(failures, &SessionError{SessionID: session.ID, Err: err})
			continue
		}
		if !result.Outcome.Changed() {
			continue
		}
		updates = append(updates, &SessionUpdate{
			SessionID: session.ID,
			Outcome:   result.Outcome,
			Events:    result.Events,
			Message:   result.Message,
			State:     result.State,
		})
	}
	return updates, failures
}

// GetSnapshot returns the current frame of a session
func (s *gameServiceImpl) GetSnapshot(ctx context.Context, sessionID string) (*engine.Snapshot, error) {
	session, err := s.touch(sessionID)
	if err != nil {
		return nil, err
	}
	snap := session.Snapshot()
	return &snap, nil
}

// Hint solves the current board from the marble's resting cell
func (s *gameServiceImpl) Hint(ctx context.Context, sessionID string) (*HintResult, error) {
	session, err := s.touch(sessionID)
	if err != nil {
		return nil, err
	}

	solution, err := session.Solve()
	if err != nil {
		return nil, err
	}

	return &HintResult{
		From:       solution.Start,
		Directions: solution.Directions(),
		Moves:      solution.Moves,
		Ticks:      solution.Ticks,
	}, nil
}

// ListCatalogs returns all available catalogs
func (s *gameServiceImpl) ListCatalogs(ctx context.Context) ([]*CatalogInfo, error) {
	return s.configs.ListCatalogs()
}

// LoadCatalog loads a specific catalog
func (s *gameServiceImpl) LoadCatalog(ctx context.Context, name string) (*engine.CatalogConfig, error) {
	return s.configs.LoadCatalog(name)
}

// touch looks a session up and marks it as accessed
func (s *gameServiceImpl) touch(sessionID string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	s.sessions.UpdateLastAccessed(sessionID)
	return session, nil
}

func sessionInfo(session *Session) *SessionInfo {
	snap := session.Snapshot()
	var fault string
	if err := session.Fault(); err != nil {
		fault = err.Error()
	}
	return &SessionInfo{
		ID:             session.ID,
		CatalogID:      session.ConfigID,
		CatalogName:    session.Config.Name,
		Manual:         session.Manual,
		CreatedAt:      session.CreatedAt,
		LastAccessedAt: session.LastAccessed(),
		Message:        session.Message(),
		Fault:          fault,
		State:          &snap,
	}
}
