package service

import (
	"fmt"
	"sync"
	"time"

	"github.com/wricardo/marble-maze/game/engine"
	"github.com/wricardo/marble-maze/game/solver"
)

// sessionState serializes every access to one engine
type sessionState struct {
	mu      sync.Mutex
	engine  *engine.Engine
	message string

	// fault is the tick error that halted the engine. It is cleared by Reset.
	fault error
	// advance replaces engine.Tick when set
	advance func(*engine.Engine) (engine.Outcome, error)

	// accessMu guards lastAccessed apart from mu so expiry never waits on a
	// long Tick
	accessMu     sync.Mutex
	lastAccessed time.Time
}

// NewSession builds a session and its engine from a catalog configuration
func NewSession(id, configID string, config *engine.CatalogConfig, settings engine.Settings, manual bool) (*Session, error) {
	eng, err := engine.NewEngine(config, settings)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	return &Session{
		ID:        id,
		ConfigID:  configID,
		Config:    config,
		Settings:  settings,
		Manual:    manual,
		CreatedAt: now,
		state:     &sessionState{engine: eng, message: config.Messages.Welcome, lastAccessed: now},
	}, nil
}

// Touch records at as the last time the session was used
func (s *Session) Touch(at time.Time) {
	s.state.accessMu.Lock()
	defer s.state.accessMu.Unlock()
	s.state.lastAccessed = at
}

// LastAccessed returns the last time the session was used
func (s *Session) LastAccessed() time.Time {
	s.state.accessMu.Lock()
	defer s.state.accessMu.Unlock()
	return s.state.lastAccessed
}

// Tick advances the session by up to n ticks. With untilRest it stops as
// soon as the marble is stationary with no transition pending.
func (s *Session) Tick(n int, untilRest bool) (*TickResult, error) {
	if n < 1 || n > engine.MaxStepTicks {
		return nil, fmt.Errorf("%w: %d not in [1,%d]", ErrInvalidTicks, n, engine.MaxStepTicks)
	}

	st := s.state
	st.mu.Lock()
	defer st.mu.Unlock()

	if st.fault != nil {
		return nil, st.fault
	}

	result := &TickResult{SessionID: s.ID, Requested: n}
	for i := 0; i < n; i++ {
		outcome, err := st.tick()
		if err != nil {
			st.fault = fmt.Errorf("tick %d: %w", st.engine.Ticks(), err)
			return nil, st.fault
		}
		result.Ticks++
		if outcome.Changed() {
			result.Outcome = outcome
		}
		if event, ok := s.eventFor(outcome); ok {
			result.Events = append(result.Events, event)
			st.message = event.Message
		}

		if st.engine.Finished() {
			break
		}
		if untilRest && st.resting() {
			break
		}
	}

	snap := st.engine.Snapshot()
	result.State = &snap
	result.Message = st.message
	return result, nil
}

func (st *sessionState) tick() (engine.Outcome, error) {
	if st.advance != nil {
		return st.advance(st.engine)
	}
	return st.engine.Tick()
}

// Fault returns the tick error that halted the session, or nil
func (s *Session) Fault() error {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	return s.state.fault
}

// resting reports whether a command would be accepted right now
func (st *sessionState) resting() bool {
	return st.engine.Direction() == engine.None && !st.engine.TransitionPending()
}

// eventFor turns an outcome into a player-facing event. Caller holds the lock.
func (s *Session) eventFor(outcome engine.Outcome) (GameEvent, bool) {
	e := s.state.engine
	msgs := s.Config.Messages

	var message string
	switch outcome {
	case engine.OutcomeStopped:
		message = msgs.Stopped
	case engine.OutcomeFell:
		message = msgs.Fell
	case engine.OutcomeStar:
		message = msgs.Star
	case engine.OutcomeAdvanced:
		message = fmt.Sprintf(msgs.Advanced, e.Level())
	case engine.OutcomeFinished:
		message = fmt.Sprintf(msgs.Victory, e.TotalBoards())
	default:
		return GameEvent{}, false
	}

	return GameEvent{
		Type:    outcome.String(),
		Message: message,
		Tick:    e.Ticks(),
		Level:   e.Level(),
		Cell:    e.MarbleCell(),
	}, true
}

// Command applies a direction. It reports whether the marble accepted it.
func (s *Session) Command(d engine.Direction) bool {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	return s.state.engine.Command(d)
}

// Snapshot returns a copy of the current frame state
func (s *Session) Snapshot() engine.Snapshot {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	return s.state.engine.Snapshot()
}

// Message returns the most recent player-facing message
func (s *Session) Message() string {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	return s.state.message
}

// Reset starts the session over from the first board of its catalog
func (s *Session) Reset() error {
	eng, err := engine.NewEngine(s.Config, s.Settings)
	if err != nil {
		return err
	}

	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	s.state.engine = eng
	s.state.message = s.Config.Messages.Welcome
	s.state.fault = nil
	return nil
}

// Solve finds the shortest command sequence from the marble's resting cell
// to a star on the current board
func (s *Session) Solve() (*solver.Solution, error) {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	e := s.state.engine
	if e.Finished() {
		return nil, ErrGameFinished
	}
	if !s.state.resting() {
		return nil, ErrNotResting
	}
	return solver.SolveBoard(e.Board(), e.MarbleCell(), e.Marble().SpawnCell, e.Geometry())
}
