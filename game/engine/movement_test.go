package engine

import (
	"errors"
	"strings"
	"testing"
	"time"
)

// 40x40 tiles give a speed of 16 units per tick and a half-speed window of 8
func testSettings() Settings {
	return Settings{
		Geometry:        Geometry{TileWidth: 40, TileHeight: 40},
		TickRate:        10,
		TransitionDelay: 300 * time.Millisecond,
	}
}

func newTestEngine(t *testing.T, rows, cols int, spawn Cell, specs ...BoardSpec) *Engine {
	t.Helper()
	catalog, err := NewCatalog(rows, cols, specs)
	if err != nil {
		t.Fatalf("NewCatalog failed: %v", err)
	}
	e, err := NewEngineWithCatalog(catalog, spawn, testSettings())
	if err != nil {
		t.Fatalf("NewEngineWithCatalog failed: %v", err)
	}
	return e
}

func TestGeometry_RoundTrip(t *testing.T) {
	geometries := []Geometry{
		{TileWidth: 40, TileHeight: 40},
		{TileWidth: 32, TileHeight: 24},
		{TileWidth: 0.5, TileHeight: 7.25},
	}

	for _, g := range geometries {
		for row := -3; row <= 12; row++ {
			for col := -3; col <= 12; col++ {
				cell := Cell{Row: row, Col: col}
				if got := g.CellAt(g.CellCenter(cell)); got != cell {
					t.Errorf("%+v: CellAt(CellCenter(%v)) = %v", g, cell, got)
				}
			}
		}
	}
}

func TestGeometry_CellAtEveryReachablePosition(t *testing.T) {
	g := Geometry{TileWidth: 40, TileHeight: 40}
	for x := -100.0; x <= 300; x += 4 {
		p := Point{X: x, Y: 60}
		cell := g.CellAt(p)
		center := g.CellCenter(cell)
		if g.CellAt(center) != cell {
			t.Errorf("Position %v: cell %v does not round trip through %v", p, cell, center)
		}
		if p.X < float64(cell.Col)*40 || p.X >= float64(cell.Col+1)*40 {
			t.Errorf("Position %v mapped to %v which does not contain it", p, cell)
		}
	}
}

func TestGeometry_Speed(t *testing.T) {
	g := Geometry{TileWidth: 50, TileHeight: 20}
	tests := []struct {
		direction Direction
		expected  float64
	}{
		{Left, 20},
		{Right, 20},
		{Up, 8},
		{Down, 8},
		{None, 0},
	}

	for _, test := range tests {
		if got := g.Speed(test.direction); got != test.expected {
			t.Errorf("Speed(%v): expected %v, got %v", test.direction, test.expected, got)
		}
	}
}

func TestInTriggerZone(t *testing.T) {
	center := Point{X: 60, Y: 60}
	tests := []struct {
		name      string
		direction Direction
		pos       Point
		expected  bool
	}{
		{"right before window", Right, Point{X: 51, Y: 60}, false},
		{"right at window edge", Right, Point{X: 52, Y: 60}, true},
		{"right past center", Right, Point{X: 70, Y: 60}, true},
		{"left before window", Left, Point{X: 69, Y: 60}, false},
		{"left at window edge", Left, Point{X: 68, Y: 60}, true},
		{"down before window", Down, Point{X: 60, Y: 51.9}, false},
		{"down at center", Down, Point{X: 60, Y: 60}, true},
		{"up before window", Up, Point{X: 60, Y: 68.1}, false},
		{"up at window edge", Up, Point{X: 60, Y: 68}, true},
		{"stationary at center", None, Point{X: 60, Y: 60}, false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := InTriggerZone(test.direction, test.pos, center, 16); got != test.expected {
				t.Errorf("InTriggerZone(%v, %v): expected %v, got %v", test.direction, test.pos, test.expected, got)
			}
		})
	}
}

func TestDetect_TriggerClasses(t *testing.T) {
	g := Geometry{TileWidth: 40, TileHeight: 40}
	board, err := NewBoard(3, 3, BoardSpec{
		Default: Plain,
		Overrides: []Override{
			{Row: 1, Col: 1, Kind: Star},
			{Row: 0, Col: 2, Kind: Bumper},
			{Row: 2, Col: 2, Kind: Hole},
		},
	})
	if err != nil {
		t.Fatalf("NewBoard failed: %v", err)
	}

	tests := []struct {
		name      string
		marble    Marble
		triggered bool
		kind      TileKind
		class     TriggerClass
	}{
		{
			name:      "star under marble",
			marble:    Marble{Position: g.CellCenter(Cell{1, 1}), Direction: Right},
			triggered: true, kind: Star, class: LandedOn,
		},
		{
			name:      "star entered but center not reached",
			marble:    Marble{Position: Point{X: 42, Y: 60}, Direction: Right},
			triggered: false,
		},
		{
			name:      "bumper ahead",
			marble:    Marble{Position: g.CellCenter(Cell{0, 1}), Direction: Right},
			triggered: true, kind: Bumper, class: Approaching,
		},
		{
			name:      "bumper behind is ignored",
			marble:    Marble{Position: g.CellCenter(Cell{0, 1}), Direction: Left},
			triggered: false,
		},
		{
			name:      "hole under marble",
			marble:    Marble{Position: g.CellCenter(Cell{2, 2}), Direction: Up},
			triggered: true, kind: Hole, class: LandedOn,
		},
		{
			name:      "off the grid reads as hole",
			marble:    Marble{Position: g.CellCenter(Cell{-1, 0}), Direction: Up},
			triggered: true, kind: Hole, class: LandedOn,
		},
		{
			name:      "edge ahead is not approaching",
			marble:    Marble{Position: g.CellCenter(Cell{0, 0}), Direction: Up},
			triggered: false,
		},
		{
			name:      "stationary on star",
			marble:    Marble{Position: g.CellCenter(Cell{1, 1}), Direction: None},
			triggered: false,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			m := test.marble
			trigger, ok := Detect(board, &m, g)
			if ok != test.triggered {
				t.Fatalf("Expected triggered=%v, got %v (%+v)", test.triggered, ok, trigger)
			}
			if !ok {
				return
			}
			if trigger.Kind != test.kind || trigger.Class != test.class {
				t.Errorf("Expected %v/%v, got %v/%v", test.kind, test.class, trigger.Kind, trigger.Class)
			}
		})
	}
}

func TestDetect_LandedOnWinsOverApproaching(t *testing.T) {
	g := Geometry{TileWidth: 40, TileHeight: 40}
	board, err := NewBoard(1, 3, BoardSpec{
		Default: Plain,
		Overrides: []Override{
			{Row: 0, Col: 1, Kind: Hole},
			{Row: 0, Col: 2, Kind: Bumper},
		},
	})
	if err != nil {
		t.Fatalf("NewBoard failed: %v", err)
	}

	m := Marble{Position: g.CellCenter(Cell{0, 1}), Direction: Right}
	trigger, ok := Detect(board, &m, g)
	if !ok || trigger.Kind != Hole {
		t.Errorf("Expected the hole to fire first, got %+v (ok=%v)", trigger, ok)
	}
}

func TestResolve_Effects(t *testing.T) {
	g := Geometry{TileWidth: 40, TileHeight: 40}
	spawn := Cell{0, 0}

	t.Run("star", func(t *testing.T) {
		var m Marble
		m.Spawn(spawn, g)
		m.Direction = Right
		m.Position = Point{X: 95, Y: 20}

		outcome, err := Resolve(Trigger{Kind: Star, Current: Cell{0, 2}}, &m, g)
		if err != nil || outcome != OutcomeStar {
			t.Fatalf("Expected OutcomeStar, got %v (%v)", outcome, err)
		}
		if m.Position != (Point{X: 100, Y: 20}) {
			t.Errorf("Expected re-centering on (0,2), got %v", m.Position)
		}
		if !m.TransitionPending {
			t.Error("Expected transition to be pending")
		}
		if m.Direction != Right {
			t.Errorf("Star must leave direction unchanged, got %v", m.Direction)
		}
	})

	t.Run("hole", func(t *testing.T) {
		var m Marble
		m.Spawn(spawn, g)
		m.Direction = Down
		m.Position = Point{X: 20, Y: 100}

		outcome, err := Resolve(Trigger{Kind: Hole, Current: Cell{2, 0}}, &m, g)
		if err != nil || outcome != OutcomeFell {
			t.Fatalf("Expected OutcomeFell, got %v (%v)", outcome, err)
		}
		if m.Position != g.CellCenter(spawn) {
			t.Errorf("Expected respawn at %v, got %v", g.CellCenter(spawn), m.Position)
		}
		if m.TransitionPending {
			t.Error("Hole must not start a transition")
		}
		if m.Direction != None {
			t.Errorf("Hole resets direction to None, got %v", m.Direction)
		}
	})

	t.Run("bumper", func(t *testing.T) {
		var m Marble
		m.Spawn(spawn, g)
		m.Direction = Left
		m.Position = Point{X: 64, Y: 20}

		outcome, err := Resolve(Trigger{Kind: Bumper, Current: Cell{0, 1}, Next: Cell{0, 0}}, &m, g)
		if err != nil || outcome != OutcomeStopped {
			t.Fatalf("Expected OutcomeStopped, got %v (%v)", outcome, err)
		}
		if m.Position != (Point{X: 60, Y: 20}) {
			t.Errorf("Expected re-centering on (0,1), got %v", m.Position)
		}
		if m.Direction != None {
			t.Errorf("Expected direction None, got %v", m.Direction)
		}
	})

	t.Run("unhandled kinds fail fast", func(t *testing.T) {
		for _, kind := range []TileKind{Plain, TileKind(9)} {
			var m Marble
			_, err := Resolve(Trigger{Kind: kind}, &m, g)
			if !errors.Is(err, ErrUnhandledTile) {
				t.Errorf("Resolve(%v): expected ErrUnhandledTile, got %v", kind, err)
			}
			if err != nil && !strings.Contains(err.Error(), kind.String()) {
				t.Errorf("Error should name the offending kind: %v", err)
			}
		}
	})
}

func TestMarble_SpawnRecordsFirstCellOnly(t *testing.T) {
	g := Geometry{TileWidth: 40, TileHeight: 40}
	var m Marble

	m.Spawn(Cell{1, 1}, g)
	if m.SpawnCell != (Cell{1, 1}) {
		t.Fatalf("Expected spawn cell (1,1), got %v", m.SpawnCell)
	}

	m.TransitionPending = true
	m.Direction = Up
	m.Spawn(Cell{2, 3}, g)

	if m.SpawnCell != (Cell{1, 1}) {
		t.Errorf("Later spawns must keep the original spawn cell, got %v", m.SpawnCell)
	}
	if m.Position != g.CellCenter(Cell{2, 3}) {
		t.Errorf("Expected marble centered on (2,3), got %v", m.Position)
	}
	if m.Direction != None || m.TransitionPending {
		t.Errorf("Spawn must stop the marble and clear the transition: %+v", m)
	}
}

func TestMarble_SetDirectionGating(t *testing.T) {
	g := Geometry{TileWidth: 40, TileHeight: 40}

	tests := []struct {
		name      string
		direction Direction
		pending   bool
		accepted  bool
	}{
		{"stationary", None, false, true},
		{"moving", Left, false, false},
		{"pending transition", None, true, false},
		{"moving and pending", Up, true, false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			var m Marble
			m.Spawn(Cell{0, 0}, g)
			m.Direction = test.direction
			m.TransitionPending = test.pending
			before := m

			accepted := m.SetDirection(Down)
			if accepted != test.accepted {
				t.Fatalf("Expected accepted=%v, got %v", test.accepted, accepted)
			}
			if !accepted && m != before {
				t.Errorf("Rejected SetDirection must not change state: %+v -> %+v", before, m)
			}
			if !accepted {
				// rejection is idempotent
				if m.SetDirection(Right) || m != before {
					t.Error("Second rejected SetDirection changed state")
				}
			}
		})
	}
}

func TestTick_StationaryMarbleIsUnchanged(t *testing.T) {
	e := newTestEngine(t, 3, 3, Cell{1, 1},
		BoardSpec{Default: Plain, Overrides: []Override{{Row: 0, Col: 0, Kind: Star}}})

	cells := []Cell{{0, 1}, {1, 1}, {2, 2}, {1, 0}}
	for _, cell := range cells {
		e.marble.Position = e.settings.Geometry.CellCenter(cell)
		e.marble.Position.X += 3
		before := e.Marble()

		for i := 0; i < 5; i++ {
			outcome, err := e.Tick()
			if err != nil {
				t.Fatalf("Tick failed: %v", err)
			}
			if outcome != OutcomeIdle {
				t.Errorf("Expected OutcomeIdle, got %v", outcome)
			}
		}
		if e.Marble() != before {
			t.Errorf("Stationary marble changed: %+v -> %+v", before, e.Marble())
		}
	}
}

func TestTick_MovesBySpeed(t *testing.T) {
	e := newTestEngine(t, 5, 5, Cell{2, 2},
		BoardSpec{Default: Plain, Overrides: []Override{{Row: 4, Col: 4, Kind: Star}}})

	tests := []struct {
		direction Direction
		expected  Point
	}{
		{Right, Point{X: 116, Y: 100}},
		{Left, Point{X: 84, Y: 100}},
		{Down, Point{X: 100, Y: 116}},
		{Up, Point{X: 100, Y: 84}},
	}

	for _, test := range tests {
		t.Run(test.direction.String(), func(t *testing.T) {
			e.marble.Spawn(Cell{2, 2}, e.settings.Geometry)
			if !e.Command(test.direction) {
				t.Fatal("Expected command to be accepted")
			}
			outcome, err := e.Tick()
			if err != nil || outcome != OutcomeMoved {
				t.Fatalf("Expected OutcomeMoved, got %v (%v)", outcome, err)
			}
			if e.Marble().Position != test.expected {
				t.Errorf("Expected position %v, got %v", test.expected, e.Marble().Position)
			}
		})
	}
}
