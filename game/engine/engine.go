package engine

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownDirection is returned for command tokens other than
// left, right, up and down
var ErrUnknownDirection = errors.New("unknown direction")

// ParseDirection converts a command token into a Direction
func ParseDirection(token string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(token)) {
	case "up":
		return Up, nil
	case "down":
		return Down, nil
	case "left":
		return Left, nil
	case "right":
		return Right, nil
	}
	return None, fmt.Errorf("%w: %q", ErrUnknownDirection, token)
}

// IsGameOver reports whether a pending transition has nowhere to go
func IsGameOver(m *Marble, c *Catalog) bool {
	return m.TransitionPending && c.IsExhausted()
}

// Engine advances one game: the current board, the catalog of boards still
// to come and the marble. It is not safe for concurrent use; callers that
// share an engine must serialize Tick, Command and Snapshot.
type Engine struct {
	settings   Settings
	pauseTicks int

	catalog *Catalog
	board   *Board
	marble  Marble

	level          int
	totalBoards    int
	pauseRemaining int
	finished       bool
	ticks          uint64
	falls          int
}

// NewEngine creates an engine from a catalog configuration
func NewEngine(config *CatalogConfig, settings Settings) (*Engine, error) {
	if err := ValidateCatalogConfig(config); err != nil {
		return nil, err
	}
	catalog, err := config.NewCatalog()
	if err != nil {
		return nil, err
	}
	return NewEngineWithCatalog(catalog, config.Spawn, settings)
}

// NewEngineWithCatalog installs the first board of catalog and spawns the
// marble on spawn
func NewEngineWithCatalog(catalog *Catalog, spawn Cell, settings Settings) (*Engine, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if catalog == nil {
		return nil, fmt.Errorf("catalog cannot be nil")
	}

	total := catalog.Remaining()
	board, err := catalog.LoadNext()
	if err != nil {
		return nil, fmt.Errorf("failed to load first board: %w", err)
	}
	if !board.InBounds(spawn) {
		return nil, fmt.Errorf("%w: spawn %v outside %dx%d grid", ErrInvalidBoard, spawn, board.Rows(), board.Cols())
	}

	e := &Engine{
		settings:    settings,
		pauseTicks:  settings.PauseTicks(),
		catalog:     catalog,
		board:       board,
		level:       1,
		totalBoards: total,
	}
	e.marble.Spawn(spawn, settings.Geometry)
	return e, nil
}

// Tick advances the simulation by one step
func (e *Engine) Tick() (Outcome, error) {
	if e.finished {
		return OutcomeIdle, nil
	}
	e.ticks++

	if e.marble.TransitionPending {
		return e.stepTransition()
	}

	if e.marble.Direction == None {
		return OutcomeIdle, nil
	}

	g := e.settings.Geometry
	if trigger, ok := Detect(e.board, &e.marble, g); ok {
		outcome, err := Resolve(trigger, &e.marble, g)
		if err != nil {
			return OutcomeIdle, err
		}
		if outcome == OutcomeFell {
			e.falls++
		}
		if outcome == OutcomeStar {
			e.pauseRemaining = e.pauseTicks
		}
		return outcome, nil
	}

	e.marble.Position = g.Advance(e.marble.Position, e.marble.Direction)
	return OutcomeMoved, nil
}

// stepTransition runs the pause that follows a star and then installs the
// next board, or ends the game when there is none
func (e *Engine) stepTransition() (Outcome, error) {
	if e.pauseRemaining > 0 {
		e.pauseRemaining--
		return OutcomePaused, nil
	}

	if IsGameOver(&e.marble, e.catalog) {
		e.finished = true
		return OutcomeFinished, nil
	}

	board, err := e.catalog.LoadNext()
	if err != nil {
		return OutcomeIdle, err
	}

	g := e.settings.Geometry
	landing, ok := board.Entry()
	if !ok {
		landing = e.marble.Cell(g)
	}
	e.board = board
	e.level++
	e.marble.Spawn(landing, g)
	return OutcomeAdvanced, nil
}

// Command applies a direction from the input controller. It returns false
// when the marble is moving or a transition is pending.
func (e *Engine) Command(d Direction) bool {
	if d == None || e.finished {
		return false
	}
	return e.marble.SetDirection(d)
}

// CommandToken parses and applies a direction token
func (e *Engine) CommandToken(token string) (bool, error) {
	d, err := ParseDirection(token)
	if err != nil {
		return false, err
	}
	return e.Command(d), nil
}

// IsGameOver applies the termination check to the live state
func (e *Engine) IsGameOver() bool {
	return IsGameOver(&e.marble, e.catalog)
}

// Finished reports whether the game ended after the last star
func (e *Engine) Finished() bool { return e.finished }

func (e *Engine) Board() *Board { return e.board }
func (e *Engine) Marble() Marble { return e.marble }
func (e *Engine) Settings() Settings { return e.settings }
func (e *Engine) Level() int { return e.level }
func (e *Engine) Ticks() uint64 { return e.ticks }
func (e *Engine) PauseRemaining() int { return e.pauseRemaining }
func (e *Engine) RemainingBoards() int { return e.catalog.Remaining() }
func (e *Engine) TotalBoards() int { return e.totalBoards }
func (e *Engine) Falls() int { return e.falls }
func (e *Engine) MarbleCell() Cell { return e.marble.Cell(e.settings.Geometry) }
func (e *Engine) Geometry() Geometry { return e.settings.Geometry }
func (e *Engine) Direction() Direction { return e.marble.Direction }
func (e *Engine) TransitionPending() bool { return e.marble.TransitionPending }

// Run ticks until a tick does anything other than plain movement or
// maxTicks is reached. It returns the ticks taken and the last outcome.
func (e *Engine) Run(maxTicks int) (int, Outcome, error) {
	last := OutcomeIdle
	for i := 0; i < maxTicks; i++ {
		outcome, err := e.Tick()
		if err != nil {
			return i + 1, outcome, err
		}
		last = outcome
		if outcome != OutcomeMoved {
			return i + 1, outcome, nil
		}
	}
	return maxTicks, last, nil
}
