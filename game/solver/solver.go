package solver

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/wricardo/marble-maze/game/engine"
)

var (
	ErrUnsolvable = errors.New("no sequence of moves reaches a star")
	ErrRollLimit  = errors.New("marble did not come to rest")
)

// Move is one command issued from a resting cell and where it ended
type Move struct {
	Direction engine.Direction `json:"direction"`
	From      engine.Cell      `json:"from"`
	To        engine.Cell      `json:"to"`
	Outcome   engine.Outcome   `json:"outcome"`
	Ticks     int              `json:"ticks"`
}

// Solution is a shortest command sequence from a start cell to a star
type Solution struct {
	Start engine.Cell `json:"start"`
	Moves []Move      `json:"moves"`
	Ticks int         `json:"ticks"`
}

// Directions returns the command tokens of the solution in order
func (s *Solution) Directions() []string {
	dirs := make([]string, len(s.Moves))
	for i, m := range s.Moves {
		dirs[i] = m.Direction.String()
	}
	return dirs
}

// Star returns the cell the solution finishes on
func (s *Solution) Star() engine.Cell {
	if len(s.Moves) == 0 {
		return s.Start
	}
	return s.Moves[len(s.Moves)-1].To
}

func (s *Solution) String() string {
	return fmt.Sprintf("%s (%d moves, %d ticks)", strings.Join(s.Directions(), " "), len(s.Moves), s.Ticks)
}

// rollLimit bounds a single roll: the marble crosses at most every cell of
// the longer axis plus the one off-grid cell before something fires
func rollLimit(b *engine.Board) int {
	cells := b.Rows()
	if b.Cols() > cells {
		cells = b.Cols()
	}
	ticksPerCell := int(math.Ceil(1/engine.SpeedFactor)) + 1
	return (cells + 2) * ticksPerCell
}

// Roll simulates the marble leaving from in direction d until a tile stops,
// drops or finishes it. spawn is where a fall returns the marble to.
func Roll(b *engine.Board, from, spawn engine.Cell, d engine.Direction, g engine.Geometry) (Move, error) {
	var m engine.Marble
	m.Spawn(spawn, g)
	m.Spawn(from, g)
	m.SetDirection(d)

	limit := rollLimit(b)
	for tick := 1; tick <= limit; tick++ {
		if trigger, ok := engine.Detect(b, &m, g); ok {
			outcome, err := engine.Resolve(trigger, &m, g)
			if err != nil {
				return Move{}, err
			}
			return Move{
				Direction: d,
				From:      from,
				To:        m.Cell(g),
				Outcome:   outcome,
				Ticks:     tick,
			}, nil
		}
		m.Position = g.Advance(m.Position, d)
	}
	return Move{}, fmt.Errorf("%w: %v from %v after %d ticks", ErrRollLimit, d, from, limit)
}

// SolveBoard runs a breadth-first search over resting cells and returns the
// solution with the fewest commands. Falls are legal moves that return the
// marble to spawn.
func SolveBoard(b *engine.Board, start, spawn engine.Cell, g engine.Geometry) (*Solution, error) {
	type queueItem struct {
		cell  engine.Cell
		moves []Move
	}

	queue := []queueItem{{cell: start}}
	visited := map[engine.Cell]bool{start: true}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, d := range engine.Directions {
			move, err := Roll(b, current.cell, spawn, d, g)
			if err != nil {
				return nil, err
			}

			path := append(append([]Move{}, current.moves...), move)
			if move.Outcome == engine.OutcomeStar {
				return newSolution(start, path), nil
			}

			if visited[move.To] {
				continue
			}
			visited[move.To] = true
			queue = append(queue, queueItem{cell: move.To, moves: path})
		}
	}

	return nil, fmt.Errorf("%w: start %v", ErrUnsolvable, start)
}

func newSolution(start engine.Cell, moves []Move) *Solution {
	s := &Solution{Start: start, Moves: moves}
	for _, m := range moves {
		s.Ticks += m.Ticks
	}
	return s
}

// BoardSolution pairs a board of a catalog with its solution
type BoardSolution struct {
	Index    int       `json:"index"`
	Name     string    `json:"name"`
	Solution *Solution `json:"solution"`
}

// SolveCatalog plays every board of the catalog in order, carrying the
// marble onto each next board the way the engine does. It stops at the
// first board that cannot be cleared.
func SolveCatalog(config *engine.CatalogConfig, g engine.Geometry) ([]BoardSolution, error) {
	catalog, err := config.NewCatalog()
	if err != nil {
		return nil, err
	}

	var results []BoardSolution
	start := config.Spawn
	for i := 0; !catalog.IsExhausted(); i++ {
		board, err := catalog.LoadNext()
		if err != nil {
			return results, err
		}
		if i > 0 {
			if entry, ok := board.Entry(); ok {
				start = entry
			}
		}

		solution, err := SolveBoard(board, start, config.Spawn, g)
		if err != nil {
			return results, fmt.Errorf("board %d (%s): %w", i+1, board.Name(), err)
		}
		results = append(results, BoardSolution{Index: i + 1, Name: board.Name(), Solution: solution})
		start = solution.Star()
	}
	return results, nil
}
