package terminal

import (
	"context"
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rs/zerolog"

	"github.com/wricardo/marble-maze/game/engine"
	"github.com/wricardo/marble-maze/game/service"
)

var (
	styleDefault = tcell.StyleDefault
	styleBumper  = tcell.StyleDefault.Foreground(tcell.ColorYellow)
	styleHole    = tcell.StyleDefault.Foreground(tcell.ColorBlue)
	styleStar    = tcell.StyleDefault.Foreground(tcell.ColorGold).Bold(true)
	styleMarble  = tcell.StyleDefault.Foreground(tcell.ColorWhite).Bold(true)
	styleStatus  = tcell.StyleDefault.Foreground(tcell.ColorGray)
)

// KeyDirection maps arrow keys, hjkl and wasd to a direction
func KeyDirection(ev *tcell.EventKey) (engine.Direction, bool) {
	switch ev.Key() {
	case tcell.KeyUp:
		return engine.Up, true
	case tcell.KeyDown:
		return engine.Down, true
	case tcell.KeyLeft:
		return engine.Left, true
	case tcell.KeyRight:
		return engine.Right, true
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'k', 'w', 'K', 'W':
			return engine.Up, true
		case 'j', 's', 'J', 'S':
			return engine.Down, true
		case 'h', 'a', 'H', 'A':
			return engine.Left, true
		case 'l', 'd', 'L', 'D':
			return engine.Right, true
		}
	}
	return engine.None, false
}

// IsQuit reports whether the key ends the game
func IsQuit(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return true
	case tcell.KeyRune:
		return ev.Rune() == 'q' || ev.Rune() == 'Q'
	}
	return false
}

func tileStyle(kind engine.TileKind) tcell.Style {
	switch kind {
	case engine.Bumper:
		return styleBumper
	case engine.Hole:
		return styleHole
	case engine.Star:
		return styleStar
	}
	return styleDefault
}

// Draw renders a frame: the board, one glyph per cell, followed by a status
// line and an optional message
func Draw(screen tcell.Screen, snap *engine.Snapshot, message string) {
	screen.Clear()

	lines := snap.Lines()
	for r, line := range lines {
		c := 0
		for _, ch := range line {
			style := tileStyle(snap.At(engine.Cell{Row: r, Col: c}))
			if ch == '@' || ch == '$' {
				style = styleMarble
			}
			screen.SetContent(c, r, ch, nil, style)
			c++
		}
	}

	status := fmt.Sprintf("Board %d/%d %s  tick %d  falls %d", snap.Level, snap.TotalBoards, snap.BoardName, snap.Ticks, snap.Falls)
	drawText(screen, 0, len(lines)+1, status, styleStatus)
	if message != "" {
		drawText(screen, 0, len(lines)+2, message, styleDefault)
	}
	drawText(screen, 0, len(lines)+4, "arrows/hjkl/wasd roll  r reset  q quit", styleStatus)

	screen.Show()
}

func drawText(screen tcell.Screen, x, y int, text string, style tcell.Style) {
	for i, ch := range []rune(text) {
		screen.SetContent(x+i, y, ch, nil, style)
	}
}

// Game plays one session on a terminal screen, ticking it locally
type Game struct {
	screen  tcell.Screen
	session *service.Session
	logger  zerolog.Logger
	message string
}

// NewGame binds a session to an initialized screen
func NewGame(screen tcell.Screen, session *service.Session, logger zerolog.Logger) *Game {
	return &Game{
		screen:  screen,
		session: session,
		logger:  logger.With().Str("component", "terminal").Str("session", session.ID).Logger(),
		message: session.Message(),
	}
}

// Tick advances the session once and redraws when the frame changed
func (g *Game) Tick() error {
	result, err := g.session.Tick(1, false)
	if err != nil {
		return err
	}
	for _, event := range result.Events {
		g.message = event.Message
		g.logger.Debug().Str("event", event.Type).Int("level", event.Level).Msg(event.Message)
	}
	if result.Outcome.Changed() {
		g.Draw()
	}
	return nil
}

// HandleEvent applies one terminal event and reports whether to keep running
func (g *Game) HandleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		if IsQuit(ev) {
			return false
		}
		if ev.Key() == tcell.KeyRune && (ev.Rune() == 'r' || ev.Rune() == 'R') {
			if err := g.session.Reset(); err != nil {
				g.logger.Error().Err(err).Msg("reset failed")
			}
			g.message = g.session.Message()
			g.Draw()
			return true
		}
		if d, ok := KeyDirection(ev); ok {
			if g.session.Command(d) {
				g.message = fmt.Sprintf("Rolling %s", d)
				g.Draw()
			}
		}

	case *tcell.EventResize:
		g.screen.Sync()
		g.Draw()
	}
	return true
}

// Draw renders the current frame
func (g *Game) Draw() {
	snap := g.session.Snapshot()
	Draw(g.screen, &snap, g.message)
}

// Run ticks at the session's tick rate and processes input until the
// player quits or ctx is cancelled. The caller owns the screen.
func (g *Game) Run(ctx context.Context) error {
	ticker := time.NewTicker(g.session.Settings.TickInterval())
	defer ticker.Stop()

	events := make(chan tcell.Event, 100)
	done := make(chan struct{})
	defer close(done)

	go func() {
		for {
			ev := g.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-done:
				return
			}
		}
	}()

	g.Draw()
	for {
		select {
		case <-ctx.Done():
			return nil

		case ev := <-events:
			if !g.HandleEvent(ev) {
				return nil
			}

		case <-ticker.C:
			if err := g.Tick(); err != nil {
				return err
			}
		}
	}
}
