// Command analyze prints quick, human-readable statistics about the catalogs
// in the project's configs directory. For each board it summarizes tile
// counts, the shortest command sequence to the star, and resting cells the
// marble can reach but never leave for the star.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v3"

	"github.com/wricardo/marble-maze/game/config"
	"github.com/wricardo/marble-maze/game/engine"
	"github.com/wricardo/marble-maze/game/solver"
)

// BoardAnalysis holds the statistics of a single board
type BoardAnalysis struct {
	Index     int
	Name      string
	Counts    map[engine.TileKind]int
	Start     engine.Cell
	Nearest   engine.Cell
	Distance  int
	Solution  *solver.Solution
	Reachable []engine.Cell
	DeadEnds  []engine.Cell
}

// reachableRests returns every cell the marble can come to rest on from
// start, in breadth-first order. Star outcomes are not rests.
func reachableRests(b *engine.Board, start, spawn engine.Cell, g engine.Geometry) ([]engine.Cell, error) {
	visited := map[engine.Cell]bool{start: true}
	order := []engine.Cell{start}

	for i := 0; i < len(order); i++ {
		for _, d := range engine.Directions {
			move, err := solver.Roll(b, order[i], spawn, d, g)
			if err != nil {
				return nil, err
			}
			if move.Outcome == engine.OutcomeStar || visited[move.To] {
				continue
			}
			visited[move.To] = true
			order = append(order, move.To)
		}
	}
	return order, nil
}

// analyzeCatalog replays the catalog board by board
func analyzeCatalog(catalog *engine.CatalogConfig, g engine.Geometry) ([]BoardAnalysis, error) {
	solutions, err := solver.SolveCatalog(catalog, g)
	if err != nil {
		return nil, err
	}

	boards, err := catalog.NewCatalog()
	if err != nil {
		return nil, err
	}

	var results []BoardAnalysis
	start := catalog.Spawn
	for _, s := range solutions {
		board, err := boards.LoadNext()
		if err != nil {
			return nil, err
		}
		start = s.Solution.Start

		reachable, err := reachableRests(board, start, catalog.Spawn, g)
		if err != nil {
			return nil, err
		}

		var deadEnds []engine.Cell
		for _, cell := range reachable {
			if _, err := solver.SolveBoard(board, cell, catalog.Spawn, g); err != nil {
				deadEnds = append(deadEnds, cell)
			}
		}

		nearest, distance, _ := engine.FindNearestStar(board, start)

		results = append(results, BoardAnalysis{
			Index:     s.Index,
			Name:      s.Name,
			Counts:    engine.KindCounts(board),
			Start:     start,
			Nearest:   nearest,
			Distance:  distance,
			Solution:  s.Solution,
			Reachable: reachable,
			DeadEnds:  deadEnds,
		})
	}
	return results, nil
}

// printAnalysis writes the report for one catalog
func printAnalysis(w io.Writer, info string, catalog *engine.CatalogConfig, g engine.Geometry) {
	fmt.Fprintf(w, "\n=== Analyzing %s ===\n", info)
	fmt.Fprintf(w, "Name: %s\n", catalog.Name)
	fmt.Fprintf(w, "Grid Size: %d x %d\n", catalog.Rows, catalog.Cols)
	fmt.Fprintf(w, "Spawn: %v\n", catalog.Spawn)
	fmt.Fprintf(w, "Boards: %d\n", len(catalog.Boards))

	boards, err := analyzeCatalog(catalog, g)
	if err != nil {
		fmt.Fprintf(w, "⚠️  CRITICAL: %v\n", err)
		return
	}

	totalMoves, totalTicks := 0, 0
	for _, b := range boards {
		fmt.Fprintf(w, "\nBoard %d: %s\n", b.Index, b.Name)
		fmt.Fprintf(w, "  Tiles: plain %d, bumper %d, hole %d, star %d\n",
			b.Counts[engine.Plain], b.Counts[engine.Bumper], b.Counts[engine.Hole], b.Counts[engine.Star])
		fmt.Fprintf(w, "  Start: %v, nearest star %v (%d cells)\n", b.Start, b.Nearest, b.Distance)
		fmt.Fprintf(w, "  Shortest: %s\n", b.Solution)
		fmt.Fprintf(w, "  Resting cells reachable: %d\n", len(b.Reachable))

		if len(b.DeadEnds) > 0 {
			fmt.Fprintf(w, "  ⚠️  WARNING: %d resting cells cannot reach the star!\n", len(b.DeadEnds))
			for i, c := range b.DeadEnds {
				if i < 5 {
					fmt.Fprintf(w, "     Dead end: %v\n", c)
				}
			}
			if len(b.DeadEnds) > 5 {
				fmt.Fprintf(w, "     ... and %d more\n", len(b.DeadEnds)-5)
			}
		} else {
			fmt.Fprintln(w, "  ✅ The star is reachable from every resting cell")
		}

		totalMoves += len(b.Solution.Moves)
		totalTicks += b.Solution.Ticks
	}

	fmt.Fprintf(w, "\nTotal: %d moves, %d ticks\n", totalMoves, totalTicks)
}

func newCommand(w io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "analyze",
		Usage:     "print statistics about marble maze catalogs",
		ArgsUsage: "[catalog...]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "dir", Value: "configs", Usage: "Directory containing catalog files", Sources: cli.EnvVars("CONFIG_DIR")},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			manager, err := config.NewManager(cmd.String("dir"), zerolog.Nop())
			if err != nil {
				return err
			}

			names := cmd.Args().Slice()
			if len(names) == 0 {
				catalogs, err := manager.ListCatalogs()
				if err != nil {
					return err
				}
				for _, c := range catalogs {
					names = append(names, c.CatalogID)
				}
			}

			g := engine.DefaultSettings().Geometry
			for _, name := range names {
				catalog, err := manager.LoadCatalog(name)
				if err != nil {
					fmt.Fprintf(w, "\n=== Analyzing %s ===\nError loading catalog: %v\n", name, err)
					continue
				}
				printAnalysis(w, name, catalog, g)
			}
			return nil
		},
	}
}

func main() {
	if err := newCommand(os.Stdout).Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
