package engine

// Marble is the mutable simulation state of the player's marble
type Marble struct {
	Position          Point     `json:"position"`
	Direction         Direction `json:"direction"`
	SpawnCell         Cell      `json:"spawn_cell"`
	TransitionPending bool      `json:"transition_pending"`

	spawned bool
}

// Spawn centers the marble on cell and stops it. The first call records
// cell as the spawn cell; later calls keep the original one.
func (m *Marble) Spawn(cell Cell, g Geometry) {
	m.Position = g.CellCenter(cell)
	m.Direction = None
	m.TransitionPending = false
	if !m.spawned {
		m.SpawnCell = cell
		m.spawned = true
	}
}

// Respawn returns the marble to its spawn cell
func (m *Marble) Respawn(g Geometry) {
	m.Spawn(m.SpawnCell, g)
}

// SetDirection starts the marble moving. It only takes effect while the
// marble is stationary and no transition is pending; otherwise the request
// is dropped and false is returned.
func (m *Marble) SetDirection(d Direction) bool {
	if m.Direction != None || m.TransitionPending {
		return false
	}
	m.Direction = d
	return true
}

// Cell returns the grid cell under the marble
func (m *Marble) Cell(g Geometry) Cell {
	return g.CellAt(m.Position)
}

// Center snaps the marble onto the center of its current cell
func (m *Marble) Center(g Geometry) {
	m.Position = g.CellCenter(m.Cell(g))
}
