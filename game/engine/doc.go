// Package engine provides the core game logic for the Marble Maze game.
//
// The engine package implements the game mechanics including:
//   - Continuous marble motion over a fixed-size tile grid
//   - Trigger detection for holes, stars and bumpers relative to travel direction
//   - Tile effects: respawn, level transition and stopping
//   - The ordered, one-shot catalog of boards consumed as levels complete
//   - Configuration loading and validation (JSON and YAML)
//
// Core Types:
//
// Engine owns one game: the current Board, the Catalog of boards still to
// come and the Marble. Tick is the per-frame transition function; Command is
// the gated input path. Snapshot returns a copy suitable for rendering.
//
// Usage:
//
//	config, err := engine.LoadCatalogConfig("configs/classic.json")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	eng, err := engine.NewEngine(config, engine.DefaultSettings())
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	eng.Command(engine.Right)
//	for !eng.Finished() {
//		if _, err := eng.Tick(); err != nil {
//			log.Fatal(err)
//		}
//	}
//
// Game Rules:
//
// The marble rolls in a straight line until something stops it. It halts in
// front of a bumper, falls back to its spawn cell when it reaches the center
// of a hole (running off the board counts as a hole), and completes the level
// when it reaches the center of a star. After a short pause the next board is
// installed; the game is won when a star is reached on the last board.
package engine
