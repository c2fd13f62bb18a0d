package engine

import (
	"fmt"
	"math"
)

// Geometry maps between grid cells and continuous rendering coordinates.
// Cell (r, c) covers [c*W, (c+1)*W) x [r*H, (r+1)*H).
type Geometry struct {
	TileWidth  float64 `json:"tile_width"`
	TileHeight float64 `json:"tile_height"`
}

// Validate checks that both tile edges are positive and finite
func (g Geometry) Validate() error {
	if !(g.TileWidth > 0) || math.IsInf(g.TileWidth, 0) {
		return fmt.Errorf("tile width must be positive, got %v", g.TileWidth)
	}
	if !(g.TileHeight > 0) || math.IsInf(g.TileHeight, 0) {
		return fmt.Errorf("tile height must be positive, got %v", g.TileHeight)
	}
	return nil
}

// CellCenter returns the center point of a cell
func (g Geometry) CellCenter(c Cell) Point {
	return Point{
		X: float64(c.Col)*g.TileWidth + g.TileWidth/2,
		Y: float64(c.Row)*g.TileHeight + g.TileHeight/2,
	}
}

// CellAt returns the cell containing p. Floor division keeps negative
// coordinates in negative (out-of-grid) cells instead of folding them onto 0.
func (g Geometry) CellAt(p Point) Cell {
	return Cell{
		Row: int(math.Floor(p.Y / g.TileHeight)),
		Col: int(math.Floor(p.X / g.TileWidth)),
	}
}

// Speed is the distance travelled per tick along d's axis
func (g Geometry) Speed(d Direction) float64 {
	switch d {
	case Left, Right:
		return SpeedFactor * g.TileWidth
	case Up, Down:
		return SpeedFactor * g.TileHeight
	}
	return 0
}

// Advance moves p by one tick of travel in direction d
func (g Geometry) Advance(p Point, d Direction) Point {
	s := g.Speed(d)
	switch d {
	case Left:
		p.X -= s
	case Right:
		p.X += s
	case Up:
		p.Y -= s
	case Down:
		p.Y += s
	}
	return p
}

// Size returns the board's extent in rendering units
func (g Geometry) Size(rows, cols int) (width, height float64) {
	return float64(cols) * g.TileWidth, float64(rows) * g.TileHeight
}
