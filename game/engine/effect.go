package engine

import (
	"errors"
	"fmt"
)

// ErrUnhandledTile means a tile kind reached the resolver that has no
// effect. Boards are validated on load, so this is always a bug.
var ErrUnhandledTile = errors.New("unhandled tile kind")

// Resolve applies the effect of a fired trigger to the marble and reports
// the resulting outcome
func Resolve(t Trigger, m *Marble, g Geometry) (Outcome, error) {
	switch t.Kind {
	case Star:
		m.Position = g.CellCenter(t.Current)
		m.TransitionPending = true
		return OutcomeStar, nil
	case Hole:
		m.Respawn(g)
		return OutcomeFell, nil
	case Bumper:
		m.Position = g.CellCenter(t.Current)
		m.Direction = None
		return OutcomeStopped, nil
	}
	return OutcomeIdle, fmt.Errorf("%w: %v at %v", ErrUnhandledTile, t.Kind, t.Current)
}
