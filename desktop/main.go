// Command desktop is a windowed client for the Marble Maze server. It
// attaches to an existing session (first argument) or creates one, follows
// the server clock over the WebSocket and draws the marble between cells
// as it rolls.
package main

import (
	"fmt"
	"image/color"
	"log"
	"os"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

const (
	cellSize       = 48
	headerHeight   = 64
	screenWidth    = 640
	screenHeight   = 640
	defaultBaseURL = "http://localhost:8080"
	bumpDuration   = 250 * time.Millisecond
	fallDuration   = 400 * time.Millisecond
	pollInterval   = 500 * time.Millisecond
)

var (
	backgroundColor = color.RGBA{20, 20, 30, 255}
	marbleColor     = color.RGBA{230, 230, 240, 255}
	bumpColor       = color.RGBA{255, 80, 80, 255}
	fallColor       = color.RGBA{120, 120, 140, 255}
)

// Game implements ebiten.Game for one session
type Game struct {
	client   *Client
	lastPoll time.Time
}

var directionKeys = map[string][]ebiten.Key{
	"up":    {ebiten.KeyArrowUp, ebiten.KeyW, ebiten.KeyK},
	"down":  {ebiten.KeyArrowDown, ebiten.KeyS, ebiten.KeyJ},
	"left":  {ebiten.KeyArrowLeft, ebiten.KeyA, ebiten.KeyH},
	"right": {ebiten.KeyArrowRight, ebiten.KeyD, ebiten.KeyL},
}

// Update handles input
func (g *Game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) || inpututil.IsKeyJustPressed(ebiten.KeyQ) {
		return ebiten.Termination
	}

	if time.Since(g.lastPoll) > pollInterval {
		g.client.Poll()
		g.lastPoll = time.Now()
	}

	for direction, keys := range directionKeys {
		for _, key := range keys {
			if inpututil.IsKeyJustPressed(key) {
				if err := g.client.Direct(direction); err != nil {
					log.Printf("Failed to send %s: %v", direction, err)
				}
			}
		}
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		if err := g.client.Reset(); err != nil {
			log.Printf("Failed to reset: %v", err)
		}
	}
	return nil
}

// Draw renders the board, the marble and the status header
func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(backgroundColor)

	state, message, sinceBump, sinceFall := g.client.View()
	if state == nil {
		ebitenutil.DebugPrint(screen, "Loading...")
		return
	}

	header := fmt.Sprintf("Board %d/%d: %s   tick %d   falls %d", state.Level, state.TotalBoards, state.BoardName, state.Ticks, state.Falls)
	ebitenutil.DebugPrintAt(screen, header, 10, 8)
	ebitenutil.DebugPrintAt(screen, message, 10, 26)
	ebitenutil.DebugPrintAt(screen, "Arrows/WASD/HJKL roll  R restart  Q quit", 10, 44)

	for r, row := range state.Tiles {
		for c, kind := range row {
			x := float32(c * cellSize)
			y := float32(r*cellSize + headerHeight)
			vector.DrawFilledRect(screen, x, y, cellSize-1, cellSize-1, tileColor(kind), false)
		}
	}

	if state.Geometry.TileWidth <= 0 || state.Geometry.TileHeight <= 0 {
		return
	}

	// Position is in server rendering units; scale it to window pixels
	cx := float32(state.Marble.Position.X / state.Geometry.TileWidth * cellSize)
	cy := float32(state.Marble.Position.Y/state.Geometry.TileHeight*cellSize) + headerHeight
	radius := float32(cellSize) * 0.35

	clr := color.Color(marbleColor)
	switch {
	case sinceFall < fallDuration:
		clr = fallColor
		radius *= float32(sinceFall) / float32(fallDuration)
	case sinceBump < bumpDuration:
		clr = bumpColor
	}
	vector.DrawFilledCircle(screen, cx, cy, radius, clr, true)

	if state.Victory {
		ebitenutil.DebugPrintAt(screen, "*** VICTORY ***", 10, headerHeight+state.Rows*cellSize+10)
	} else if state.PauseRemaining > 0 {
		ebitenutil.DebugPrintAt(screen, fmt.Sprintf("Next board in %d ticks", state.PauseRemaining), 10, headerHeight+state.Rows*cellSize+10)
	}
}

// Layout returns the game screen size
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return screenWidth, screenHeight
}

// tileColor returns the color for each tile kind
func tileColor(kind string) color.Color {
	switch kind {
	case "plain":
		return color.RGBA{70, 110, 70, 255}
	case "bumper":
		return color.RGBA{180, 120, 40, 255}
	case "hole":
		return color.RGBA{10, 10, 10, 255}
	case "star":
		return color.RGBA{250, 210, 40, 255}
	default:
		return color.RGBA{50, 50, 50, 255}
	}
}

func main() {
	baseURL := os.Getenv("MARBLE_MAZE_URL")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	sessionID := ""
	if len(os.Args) > 1 {
		sessionID = os.Args[1]
	}

	client, err := NewClient(baseURL, sessionID, os.Getenv("CATALOG"))
	if err != nil {
		log.Fatal(err)
	}
	defer client.Close()

	ebiten.SetWindowSize(screenWidth, screenHeight)
	ebiten.SetWindowTitle("Marble Maze")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	if err := ebiten.RunGame(&Game{client: client}); err != nil {
		log.Fatal(err)
	}
}
