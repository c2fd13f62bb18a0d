package terminal

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rs/zerolog"

	"github.com/wricardo/marble-maze/game/engine"
	"github.com/wricardo/marble-maze/game/service"
)

func newSimScreen(t *testing.T) tcell.SimulationScreen {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	if err := screen.Init(); err != nil {
		t.Fatalf("Failed to init screen: %v", err)
	}
	screen.SetSize(40, 12)
	t.Cleanup(screen.Fini)
	return screen
}

func newTestGame(t *testing.T) (*Game, tcell.SimulationScreen) {
	t.Helper()
	settings := engine.Settings{
		Geometry:        engine.Geometry{TileWidth: 40, TileHeight: 40},
		TickRate:        10,
		TransitionDelay: 300 * time.Millisecond,
	}
	session, err := service.NewSession("local", "default", engine.DefaultCatalogConfig(), settings, true)
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}
	screen := newSimScreen(t)
	return NewGame(screen, session, zerolog.Nop()), screen
}

func rowText(screen tcell.SimulationScreen, y, width int) string {
	var b strings.Builder
	for x := 0; x < width; x++ {
		ch, _, _, _ := screen.GetContent(x, y)
		b.WriteRune(ch)
	}
	return b.String()
}

func TestKeyDirection(t *testing.T) {
	tests := []struct {
		name string
		ev   *tcell.EventKey
		want engine.Direction
		ok   bool
	}{
		{"arrow up", tcell.NewEventKey(tcell.KeyUp, 0, tcell.ModNone), engine.Up, true},
		{"arrow down", tcell.NewEventKey(tcell.KeyDown, 0, tcell.ModNone), engine.Down, true},
		{"arrow left", tcell.NewEventKey(tcell.KeyLeft, 0, tcell.ModNone), engine.Left, true},
		{"arrow right", tcell.NewEventKey(tcell.KeyRight, 0, tcell.ModNone), engine.Right, true},
		{"k", tcell.NewEventKey(tcell.KeyRune, 'k', tcell.ModNone), engine.Up, true},
		{"j", tcell.NewEventKey(tcell.KeyRune, 'j', tcell.ModNone), engine.Down, true},
		{"h", tcell.NewEventKey(tcell.KeyRune, 'h', tcell.ModNone), engine.Left, true},
		{"l", tcell.NewEventKey(tcell.KeyRune, 'l', tcell.ModNone), engine.Right, true},
		{"w", tcell.NewEventKey(tcell.KeyRune, 'w', tcell.ModNone), engine.Up, true},
		{"S", tcell.NewEventKey(tcell.KeyRune, 'S', tcell.ModNone), engine.Down, true},
		{"a", tcell.NewEventKey(tcell.KeyRune, 'a', tcell.ModNone), engine.Left, true},
		{"d", tcell.NewEventKey(tcell.KeyRune, 'd', tcell.ModNone), engine.Right, true},
		{"x", tcell.NewEventKey(tcell.KeyRune, 'x', tcell.ModNone), engine.None, false},
		{"enter", tcell.NewEventKey(tcell.KeyEnter, 0, tcell.ModNone), engine.None, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := KeyDirection(tt.ev)
			if got != tt.want || ok != tt.ok {
				t.Errorf("KeyDirection() = %v, %v; want %v, %v", got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestIsQuit(t *testing.T) {
	tests := []struct {
		name string
		ev   *tcell.EventKey
		want bool
	}{
		{"q", tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone), true},
		{"escape", tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone), true},
		{"ctrl-c", tcell.NewEventKey(tcell.KeyCtrlC, 0, tcell.ModCtrl), true},
		{"l", tcell.NewEventKey(tcell.KeyRune, 'l', tcell.ModNone), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsQuit(tt.ev); got != tt.want {
				t.Errorf("IsQuit() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDraw(t *testing.T) {
	screen := newSimScreen(t)
	snap := &engine.Snapshot{
		BoardName:   "strip",
		Rows:        2,
		Cols:        3,
		Tiles:       [][]engine.TileKind{{engine.Plain, engine.Bumper, engine.Star}, {engine.Hole, engine.Plain, engine.Plain}},
		MarbleCell:  engine.Cell{Row: 1, Col: 2},
		Level:       1,
		TotalBoards: 2,
	}

	Draw(screen, snap, "Bumped!")

	if got := rowText(screen, 0, 3); got != ".#*" {
		t.Errorf("Row 0 = %q, want %q", got, ".#*")
	}
	if got := rowText(screen, 1, 3); got != "O.@" {
		t.Errorf("Row 1 = %q, want %q", got, "O.@")
	}

	_, _, style, _ := screen.GetContent(2, 1)
	if style != styleMarble {
		t.Error("Expected marble style on the marble cell")
	}
	_, _, style, _ = screen.GetContent(1, 0)
	if style != styleBumper {
		t.Error("Expected bumper style on the bumper cell")
	}

	if got := rowText(screen, 3, 20); !strings.HasPrefix(got, "Board 1/2 strip") {
		t.Errorf("Status line = %q", got)
	}
	if got := rowText(screen, 4, 7); got != "Bumped!" {
		t.Errorf("Message line = %q", got)
	}
}

func TestDrawVictory(t *testing.T) {
	screen := newSimScreen(t)
	snap := &engine.Snapshot{
		Rows:       1,
		Cols:       2,
		Tiles:      [][]engine.TileKind{{engine.Plain, engine.Star}},
		MarbleCell: engine.Cell{Row: 0, Col: 1},
		GameOver:   true,
		Victory:    true,
	}

	Draw(screen, snap, "")

	if got := rowText(screen, 0, 2); got != ".$" {
		t.Errorf("Row 0 = %q, want %q", got, ".$")
	}
}

func TestGame_PlayBoard(t *testing.T) {
	game, screen := newTestGame(t)

	if !game.HandleEvent(tcell.NewEventKey(tcell.KeyRight, 0, tcell.ModNone)) {
		t.Fatal("Direction key should not quit")
	}
	if game.session.Snapshot().Marble.Direction != engine.Right {
		t.Fatal("Expected the marble to roll right")
	}
	if game.message != "Rolling right" {
		t.Errorf("Expected 'Rolling right', got %q", game.message)
	}

	// star on tick 11, next board installed on tick 15
	for i := 0; i < 15; i++ {
		if err := game.Tick(); err != nil {
			t.Fatalf("Tick %d failed: %v", i+1, err)
		}
	}

	snap := game.session.Snapshot()
	if snap.Level != 2 {
		t.Fatalf("Expected level 2, got %d", snap.Level)
	}
	if game.message != "Level 2" {
		t.Errorf("Expected 'Level 2', got %q", game.message)
	}
	if got := rowText(screen, 2, 5); got != "..O.@" {
		t.Errorf("Expected marble redrawn at (2,4) on board 2, got %q", got)
	}

	game.HandleEvent(tcell.NewEventKey(tcell.KeyRune, 'r', tcell.ModNone))
	if game.session.Snapshot().Level != 1 {
		t.Error("Expected reset to return to level 1")
	}

	if game.HandleEvent(tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone)) {
		t.Error("Expected q to quit")
	}
}

func TestGame_Run(t *testing.T) {
	t.Run("quits on q", func(t *testing.T) {
		game, screen := newTestGame(t)
		screen.InjectKey(tcell.KeyRune, 'q', tcell.ModNone)

		done := make(chan error, 1)
		go func() { done <- game.Run(context.Background()) }()

		select {
		case err := <-done:
			if err != nil {
				t.Errorf("Run returned error: %v", err)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("Run did not return after q")
		}
	})

	t.Run("stops on cancel", func(t *testing.T) {
		game, _ := newTestGame(t)
		ctx, cancel := context.WithCancel(context.Background())

		done := make(chan error, 1)
		go func() { done <- game.Run(ctx) }()
		cancel()

		select {
		case err := <-done:
			if err != nil {
				t.Errorf("Run returned error: %v", err)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("Run did not return after cancel")
		}
	})
}
