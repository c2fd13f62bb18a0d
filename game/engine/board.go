package engine

import (
	"errors"
	"fmt"
)

var (
	ErrCatalogExhausted = errors.New("board catalog exhausted")
	ErrInvalidBoard     = errors.New("invalid board specification")
)

// Override sets a single cell of a board spec to a non-default kind
type Override struct {
	Row  int      `json:"row" yaml:"row"`
	Col  int      `json:"col" yaml:"col"`
	Kind TileKind `json:"kind" yaml:"kind"`
}

// BoardSpec is one catalog entry: a default kind plus sparse overrides.
// Entry, when set, is where the marble is placed after transitioning onto
// this board; otherwise it keeps the cell it rested on.
type BoardSpec struct {
	Name      string     `json:"name,omitempty" yaml:"name,omitempty"`
	Default   TileKind   `json:"default" yaml:"default"`
	Overrides []Override `json:"overrides,omitempty" yaml:"overrides,omitempty"`
	Entry     *Cell      `json:"entry,omitempty" yaml:"entry,omitempty"`
}

// validate checks spec against the shared board dimensions
func (s *BoardSpec) validate(rows, cols int) error {
	if !s.Default.Valid() {
		return fmt.Errorf("%w: default kind %v is not a tile kind", ErrInvalidBoard, s.Default)
	}
	for i, o := range s.Overrides {
		if !o.Kind.Valid() {
			return fmt.Errorf("%w: override %d has unknown kind %v", ErrInvalidBoard, i, o.Kind)
		}
		if o.Row < 0 || o.Row >= rows || o.Col < 0 || o.Col >= cols {
			return fmt.Errorf("%w: override %d at (%d,%d) outside %dx%d grid",
				ErrInvalidBoard, i, o.Row, o.Col, rows, cols)
		}
	}
	if s.Entry != nil {
		if s.Entry.Row < 0 || s.Entry.Row >= rows || s.Entry.Col < 0 || s.Entry.Col >= cols {
			return fmt.Errorf("%w: entry %v outside %dx%d grid", ErrInvalidBoard, *s.Entry, rows, cols)
		}
	}
	return nil
}

// Board is an immutable grid of tile kinds
type Board struct {
	name  string
	rows  int
	cols  int
	tiles []TileKind
	entry *Cell
}

// NewBoard validates spec and builds the board it describes
func NewBoard(rows, cols int, spec BoardSpec) (*Board, error) {
	if rows < MinGridSize || rows > MaxGridSize || cols < MinGridSize || cols > MaxGridSize {
		return nil, fmt.Errorf("%w: dimensions %dx%d outside [%d,%d]",
			ErrInvalidBoard, rows, cols, MinGridSize, MaxGridSize)
	}
	if err := spec.validate(rows, cols); err != nil {
		return nil, err
	}
	return buildBoard(rows, cols, spec), nil
}

// buildBoard assumes spec has already been validated
func buildBoard(rows, cols int, spec BoardSpec) *Board {
	tiles := make([]TileKind, rows*cols)
	for i := range tiles {
		tiles[i] = spec.Default
	}
	for _, o := range spec.Overrides {
		tiles[o.Row*cols+o.Col] = o.Kind
	}
	b := &Board{name: spec.Name, rows: rows, cols: cols, tiles: tiles}
	if spec.Entry != nil {
		entry := *spec.Entry
		b.entry = &entry
	}
	return b
}

func (b *Board) Name() string { return b.name }
func (b *Board) Rows() int    { return b.rows }
func (b *Board) Cols() int    { return b.cols }

// Entry returns the configured entry cell, if any
func (b *Board) Entry() (Cell, bool) {
	if b.entry == nil {
		return Cell{}, false
	}
	return *b.entry, true
}

// InBounds reports whether c lies on the grid
func (b *Board) InBounds(c Cell) bool {
	return c.Row >= 0 && c.Row < b.rows && c.Col >= 0 && c.Col < b.cols
}

// At returns the kind at c. Off-grid cells read as Hole.
func (b *Board) At(c Cell) TileKind {
	if !b.InBounds(c) {
		return Hole
	}
	return b.tiles[c.Row*b.cols+c.Col]
}

// Kinds returns a row-major copy of the grid
func (b *Board) Kinds() [][]TileKind {
	out := make([][]TileKind, b.rows)
	for r := range out {
		out[r] = make([]TileKind, b.cols)
		copy(out[r], b.tiles[r*b.cols:(r+1)*b.cols])
	}
	return out
}

// Find returns every cell holding kind k, row-major
func (b *Board) Find(k TileKind) []Cell {
	var cells []Cell
	for i, t := range b.tiles {
		if t == k {
			cells = append(cells, Cell{Row: i / b.cols, Col: i % b.cols})
		}
	}
	return cells
}

// Catalog is a one-shot, forward-only sequence of board specs sharing
// the same dimensions
type Catalog struct {
	rows  int
	cols  int
	specs []BoardSpec
}

// NewCatalog validates every spec up front so a running engine never sees a
// malformed board
func NewCatalog(rows, cols int, specs []BoardSpec) (*Catalog, error) {
	if rows < MinGridSize || rows > MaxGridSize || cols < MinGridSize || cols > MaxGridSize {
		return nil, fmt.Errorf("%w: dimensions %dx%d outside [%d,%d]",
			ErrInvalidBoard, rows, cols, MinGridSize, MaxGridSize)
	}
	if len(specs) > MaxBoards {
		return nil, fmt.Errorf("%w: %d boards exceeds limit of %d", ErrInvalidBoard, len(specs), MaxBoards)
	}
	for i := range specs {
		if err := specs[i].validate(rows, cols); err != nil {
			return nil, fmt.Errorf("board %d: %w", i, err)
		}
	}
	owned := make([]BoardSpec, len(specs))
	copy(owned, specs)
	return &Catalog{rows: rows, cols: cols, specs: owned}, nil
}

func (c *Catalog) Rows() int { return c.rows }
func (c *Catalog) Cols() int { return c.cols }

// IsExhausted reports whether every board has been taken
func (c *Catalog) IsExhausted() bool {
	return len(c.specs) == 0
}

// Remaining returns the number of boards not yet taken
func (c *Catalog) Remaining() int {
	return len(c.specs)
}

// LoadNext removes and builds the front board
func (c *Catalog) LoadNext() (*Board, error) {
	if c.IsExhausted() {
		return nil, ErrCatalogExhausted
	}
	spec := c.specs[0]
	c.specs[0] = BoardSpec{}
	c.specs = c.specs[1:]
	return buildBoard(c.rows, c.cols, spec), nil
}
