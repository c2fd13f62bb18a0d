package engine

// Snapshot is a read-only copy of everything a renderer needs for one frame
type Snapshot struct {
	BoardName       string       `json:"board_name"`
	Rows            int          `json:"rows"`
	Cols            int          `json:"cols"`
	Tiles           [][]TileKind `json:"tiles"`
	Geometry        Geometry     `json:"geometry"`
	Marble          Marble       `json:"marble"`
	MarbleCell      Cell         `json:"marble_cell"`
	Level           int          `json:"level"`
	TotalBoards     int          `json:"total_boards"`
	RemainingBoards int          `json:"remaining_boards"`
	PauseRemaining  int          `json:"pause_remaining"`
	GameOver        bool         `json:"game_over"`
	Victory         bool         `json:"victory"`
	Ticks           uint64       `json:"ticks"`
	Falls           int          `json:"falls"`
}

// Snapshot copies the current frame state. GameOver is the raw termination
// check; Victory turns true once the pacing delay has elapsed as well.
func (e *Engine) Snapshot() Snapshot {
	return Snapshot{
		BoardName:       e.board.Name(),
		Rows:            e.board.Rows(),
		Cols:            e.board.Cols(),
		Tiles:           e.board.Kinds(),
		Geometry:        e.settings.Geometry,
		Marble:          e.marble,
		MarbleCell:      e.MarbleCell(),
		Level:           e.level,
		TotalBoards:     e.totalBoards,
		RemainingBoards: e.catalog.Remaining(),
		PauseRemaining:  e.pauseRemaining,
		GameOver:        e.IsGameOver(),
		Victory:         e.finished,
		Ticks:           e.ticks,
		Falls:           e.falls,
	}
}

// At returns the kind at c, reading off-grid cells as Hole
func (s *Snapshot) At(c Cell) TileKind {
	if c.Row < 0 || c.Row >= len(s.Tiles) || c.Col < 0 || c.Col >= len(s.Tiles[c.Row]) {
		return Hole
	}
	return s.Tiles[c.Row][c.Col]
}

// Lines renders the board as glyph rows with the marble drawn as '@',
// or '$' once the game is won
func (s *Snapshot) Lines() []string {
	lines := make([]string, len(s.Tiles))
	for r, row := range s.Tiles {
		buf := make([]rune, len(row))
		for c, kind := range row {
			buf[c] = kind.Glyph()
		}
		if s.MarbleCell.Row == r && s.MarbleCell.Col >= 0 && s.MarbleCell.Col < len(row) {
			if s.Victory {
				buf[s.MarbleCell.Col] = '$'
			} else {
				buf[s.MarbleCell.Col] = '@'
			}
		}
		lines[r] = string(buf)
	}
	return lines
}
