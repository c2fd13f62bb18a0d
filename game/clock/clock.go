package clock

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/wricardo/marble-maze/game/service"
)

// Advancer steps every running session by one tick
type Advancer interface {
	AdvanceRunning(ctx context.Context) ([]*service.SessionUpdate, []*service.SessionError)
}

// Publisher receives the changed frames of a session
type Publisher interface {
	BroadcastToSession(sessionID string, update *service.SessionUpdate)
}

// Expirer drops sessions idle for longer than maxAge
type Expirer interface {
	CleanupExpiredSessions(maxAge time.Duration) int
}

// Clock drives the running sessions at a fixed rate
type Clock struct {
	advancer  Advancer
	publisher Publisher
	interval  time.Duration
	logger    zerolog.Logger
}

// New creates a clock ticking every interval. A nil publisher drops updates.
func New(advancer Advancer, publisher Publisher, interval time.Duration, logger zerolog.Logger) *Clock {
	return &Clock{
		advancer:  advancer,
		publisher: publisher,
		interval:  interval,
		logger:    logger.With().Str("component", "clock").Logger(),
	}
}

// Interval returns the time between ticks
func (c *Clock) Interval() time.Duration {
	return c.interval
}

// Run ticks until ctx is cancelled
func (c *Clock) Run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.logger.Info().Dur("interval", c.interval).Msg("clock started")
	for {
		select {
		case <-ctx.Done():
			c.logger.Info().Msg("clock stopped")
			return
		case <-ticker.C:
			c.Step(ctx)
		}
	}
}

// Step advances all running sessions once and publishes what changed. It
// returns the number of updates published. Failed sessions are logged.
func (c *Clock) Step(ctx context.Context) int {
	updates, failures := c.advancer.AdvanceRunning(ctx)
	for _, failure := range failures {
		c.logger.Error().
			Err(failure.Err).
			Str("session", failure.SessionID).
			Msg("session halted")
	}
	for _, update := range updates {
		if c.publisher != nil {
			c.publisher.BroadcastToSession(update.SessionID, update)
		}
		for _, event := range update.Events {
			c.logger.Debug().
				Str("session", update.SessionID).
				Str("event", event.Type).
				Int("level", event.Level).
				Msg(event.Message)
		}
	}
	return len(updates)
}

// CleanupRoutine periodically removes sessions that have not been accessed
// within maxAge, until ctx is cancelled.
func CleanupRoutine(ctx context.Context, expirer Expirer, interval, maxAge time.Duration, logger zerolog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := expirer.CleanupExpiredSessions(maxAge); removed > 0 {
				logger.Info().Int("removed", removed).Msg("cleaned up expired sessions")
			}
		}
	}
}
