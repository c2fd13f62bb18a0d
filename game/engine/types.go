package engine

import (
	"fmt"
	"strings"
)

// TileKind represents the closed set of board cell kinds
type TileKind uint8

const (
	Plain TileKind = iota
	Bumper
	Hole
	Star
)

// Validation and tuning constants
const (
	MinGridSize  = 1
	MaxGridSize  = 64
	MaxBoards    = 256
	MinTickRate  = 1
	MaxTickRate  = 1000
	MaxStepTicks = 10000

	// SpeedFactor is the fraction of a tile edge travelled per tick
	SpeedFactor = 0.4
)

var tileKindNames = [...]string{
	Plain:  "plain",
	Bumper: "bumper",
	Hole:   "hole",
	Star:   "star",
}

// Valid reports whether k is one of the four known tile kinds
func (k TileKind) Valid() bool {
	return int(k) < len(tileKindNames)
}

func (k TileKind) String() string {
	if !k.Valid() {
		return fmt.Sprintf("TileKind(%d)", uint8(k))
	}
	return tileKindNames[k]
}

// ParseTileKind converts a text tag into a TileKind
func ParseTileKind(s string) (TileKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "plain":
		return Plain, nil
	case "bumper":
		return Bumper, nil
	case "hole":
		return Hole, nil
	case "star":
		return Star, nil
	}
	return 0, fmt.Errorf("unknown tile kind %q", s)
}

// MarshalText implements encoding.TextMarshaler
func (k TileKind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("unknown tile kind %d", uint8(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (k *TileKind) UnmarshalText(text []byte) error {
	parsed, err := ParseTileKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Glyph returns the single-character form used by text renderers
func (k TileKind) Glyph() rune {
	switch k {
	case Plain:
		return '.'
	case Bumper:
		return '#'
	case Hole:
		return 'O'
	case Star:
		return '*'
	}
	return '?'
}

// Direction is the marble's heading; None means stationary
type Direction uint8

const (
	None Direction = iota
	Up
	Down
	Left
	Right
)

var directionNames = [...]string{
	None:  "none",
	Up:    "up",
	Down:  "down",
	Left:  "left",
	Right: "right",
}

func (d Direction) String() string {
	if int(d) >= len(directionNames) {
		return fmt.Sprintf("Direction(%d)", uint8(d))
	}
	return directionNames[d]
}

// MarshalText implements encoding.TextMarshaler
func (d Direction) MarshalText() ([]byte, error) {
	if int(d) >= len(directionNames) {
		return nil, fmt.Errorf("unknown direction %d", uint8(d))
	}
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. It accepts "none" in
// addition to the four command tokens so snapshots round-trip.
func (d *Direction) UnmarshalText(text []byte) error {
	if strings.EqualFold(strings.TrimSpace(string(text)), "none") {
		*d = None
		return nil
	}
	parsed, err := ParseDirection(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Delta returns the row and column step for one cell in direction d
func (d Direction) Delta() (dRow, dCol int) {
	switch d {
	case Up:
		return -1, 0
	case Down:
		return 1, 0
	case Left:
		return 0, -1
	case Right:
		return 0, 1
	}
	return 0, 0
}

// Directions lists the four command directions in a stable order
var Directions = []Direction{Up, Down, Left, Right}

// Cell is a zero-based grid coordinate. Cells outside the board are legal
// values and read as Hole.
type Cell struct {
	Row int `json:"row" yaml:"row"`
	Col int `json:"col" yaml:"col"`
}

// Step returns the neighbouring cell in direction d
func (c Cell) Step(d Direction) Cell {
	dr, dc := d.Delta()
	return Cell{Row: c.Row + dr, Col: c.Col + dc}
}

func (c Cell) String() string {
	return fmt.Sprintf("(%d,%d)", c.Row, c.Col)
}

// Point is a continuous position in rendering units
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Outcome describes what a single tick did
type Outcome uint8

const (
	OutcomeIdle Outcome = iota
	OutcomeMoved
	OutcomeStopped
	OutcomeFell
	OutcomeStar
	OutcomePaused
	OutcomeAdvanced
	OutcomeFinished
)

var outcomeNames = [...]string{
	OutcomeIdle:     "idle",
	OutcomeMoved:    "moved",
	OutcomeStopped:  "stopped",
	OutcomeFell:     "fell",
	OutcomeStar:     "star",
	OutcomePaused:   "paused",
	OutcomeAdvanced: "advanced",
	OutcomeFinished: "finished",
}

func (o Outcome) String() string {
	if int(o) >= len(outcomeNames) {
		return fmt.Sprintf("Outcome(%d)", uint8(o))
	}
	return outcomeNames[o]
}

// MarshalText implements encoding.TextMarshaler
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// Changed reports whether the tick mutated observable state
func (o Outcome) Changed() bool {
	return o != OutcomeIdle
}

// UnmarshalText implements encoding.TextUnmarshaler
func (o *Outcome) UnmarshalText(text []byte) error {
	for i, name := range outcomeNames {
		if name == string(text) {
			*o = Outcome(i)
			return nil
		}
	}
	return fmt.Errorf("unknown outcome %q", text)
}
