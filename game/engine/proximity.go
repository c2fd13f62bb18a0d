package engine

// TriggerClass distinguishes tiles that fire once the marble sits on them
// from tiles that fire one cell early
type TriggerClass uint8

const (
	LandedOn TriggerClass = iota + 1
	Approaching
)

// landedOnKinds fire when the marble reaches the center of their cell
var landedOnKinds = map[TileKind]bool{
	Star: true,
	Hole: true,
}

// approachingKinds fire when the marble reaches the center of the cell
// in front of them
var approachingKinds = map[TileKind]bool{
	Bumper: true,
}

// Trigger records which tile fired and where the marble was at the time
type Trigger struct {
	Kind    TileKind
	Class   TriggerClass
	Current Cell
	Next    Cell
}

// InTriggerZone reports whether pos has reached center, allowing half a
// tick of travel so a discrete step cannot jump over the exact point.
// A stationary marble is never in range.
func InTriggerZone(d Direction, pos, center Point, speed float64) bool {
	half := speed / 2
	switch d {
	case Left:
		return pos.X <= center.X+half
	case Up:
		return pos.Y <= center.Y+half
	case Right:
		return pos.X >= center.X-half
	case Down:
		return pos.Y >= center.Y-half
	}
	return false
}

// Detect looks for a trigger under or in front of the marble. Landed-on
// kinds under the marble win over an approaching kind ahead of it.
func Detect(b *Board, m *Marble, g Geometry) (Trigger, bool) {
	if m.Direction == None {
		return Trigger{}, false
	}

	current := m.Cell(g)
	next := current.Step(m.Direction)
	if !InTriggerZone(m.Direction, m.Position, g.CellCenter(current), g.Speed(m.Direction)) {
		return Trigger{}, false
	}

	if kind := b.At(current); landedOnKinds[kind] {
		return Trigger{Kind: kind, Class: LandedOn, Current: current, Next: next}, true
	}
	if kind := b.At(next); approachingKinds[kind] {
		return Trigger{Kind: kind, Class: Approaching, Current: current, Next: next}, true
	}
	return Trigger{}, false
}
