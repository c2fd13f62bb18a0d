package main

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

var directions = []string{"up", "right", "down", "left"}

// ExploreStrategy cycles through the directions per resting cell. It is
// used when the server has no hint for the current board.
type ExploreStrategy struct {
	tried map[Cell]int
}

func NewExploreStrategy() *ExploreStrategy {
	return &ExploreStrategy{tried: make(map[Cell]int)}
}

// NextMove returns the next untried direction from cell
func (s *ExploreStrategy) NextMove(cell Cell) string {
	n := s.tried[cell]
	s.tried[cell] = n + 1
	return directions[n%len(directions)]
}

func (s *ExploreStrategy) Reset() {
	s.tried = make(map[Cell]int)
}

// Player drives one session to victory through the REST API
type Player struct {
	client   *Client
	explore  *ExploreStrategy
	maxMoves int
	delay    time.Duration
	logger   zerolog.Logger
}

func NewPlayer(client *Client, maxMoves int, delay time.Duration, logger zerolog.Logger) *Player {
	return &Player{
		client:   client,
		explore:  NewExploreStrategy(),
		maxMoves: maxMoves,
		delay:    delay,
		logger:   logger,
	}
}

// Result summarizes one attempt
type Result struct {
	Moves   int
	Hinted  int
	Falls   int
	Ticks   uint64
	Victory bool
	State   *State
}

// nextDirection asks the server's solver first and explores when the board
// has no solution from the current cell
func (p *Player) nextDirection(state *State) (string, bool, error) {
	hint, err := p.client.Hint()
	if err == nil && len(hint.Directions) > 0 {
		return hint.Directions[0], true, nil
	}

	var apiErr *APIError
	if err != nil && !(errors.As(err, &apiErr) && apiErr.Status == http.StatusUnprocessableEntity) {
		return "", false, err
	}
	return p.explore.NextMove(state.MarbleCell), false, nil
}

// Play resets the session and rolls until victory or the move limit
func (p *Player) Play() (*Result, error) {
	state, err := p.client.Reset()
	if err != nil {
		return nil, err
	}
	p.explore.Reset()

	result := &Result{State: state}
	for !state.Victory && result.Moves < p.maxMoves {
		if !state.Resting() {
			tick, err := p.client.Tick(maxSettleTicks, true)
			if err != nil {
				return result, err
			}
			state = tick.State
			continue
		}

		direction, hinted, err := p.nextDirection(state)
		if err != nil {
			return result, err
		}
		if hinted {
			result.Hinted++
		}

		direct, err := p.client.Direct(direction)
		if err != nil {
			return result, err
		}
		result.Moves++
		if !direct.Accepted {
			p.logger.Debug().Str("direction", direction).Str("message", direct.Message).Msg("command ignored")
		}

		tick, err := p.client.Tick(maxSettleTicks, true)
		if err != nil {
			return result, err
		}
		state = tick.State

		for _, e := range tick.Events {
			p.logger.Debug().Str("event", e.Type).Uint64("tick", e.Tick).Msg(e.Message)
		}
		p.logger.Info().
			Str("direction", direction).
			Bool("hint", hinted).
			Str("outcome", tick.Outcome).
			Str("cell", state.MarbleCell.String()).
			Str("board", fmt.Sprintf("%d/%d", state.Level, state.TotalBoards)).
			Msg("move")

		if p.delay > 0 {
			time.Sleep(p.delay)
		}
	}

	result.State = state
	result.Victory = state.Victory
	result.Falls = state.Falls
	result.Ticks = state.Ticks
	return result, nil
}

// maxSettleTicks bounds a single roll plus a board transition
const maxSettleTicks = 10000
