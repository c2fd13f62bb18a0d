// Command validate checks catalog files (.json, .yaml, .yml) in a configs
// directory. For each file it checks:
//   - Decoding and required fields
//   - Dimensions, spawn cell and tile kinds of every board
//   - Presence of a star on every board
//   - Message templates
//   - Solvability: every board can be cleared in order from the spawn cell
//
// It exits with a non-zero status if any file is invalid.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/wricardo/marble-maze/game/engine"
	"github.com/wricardo/marble-maze/game/solver"
)

var errInvalidCatalogs = errors.New("some catalogs are invalid")

// ValidationResult captures the outcome of validating a single file.
// If Valid is true, Errors contains informational messages; otherwise it
// accumulates the validation errors that were found.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
}

func (r *ValidationResult) fail(format string, args ...interface{}) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *ValidationResult) info(format string, args ...interface{}) {
	r.Errors = append(r.Errors, "✓ "+fmt.Sprintf(format, args...))
}

// validateCatalog loads and validates a single catalog file, then replays
// it with the solver using geometry g
func validateCatalog(filePath string, g engine.Geometry) ValidationResult {
	result := ValidationResult{
		File:   filepath.Base(filePath),
		Valid:  true,
		Errors: []string{},
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.fail("Failed to read file: %v", err)
		return result
	}

	config, err := engine.DecodeCatalogConfig(data, filepath.Ext(filePath))
	if err != nil {
		result.fail("Invalid catalog: %v", err)
		return result
	}

	solutions, err := solver.SolveCatalog(config, g)
	if err != nil {
		result.fail("Solvability failure: %v", err)
		return result
	}

	result.info("Name: %s", config.Name)
	result.info("Grid: %dx%d", config.Rows, config.Cols)
	result.info("Spawn: %v", config.Spawn)
	result.info("Boards: %d", len(config.Boards))
	for _, s := range solutions {
		result.info("Board %d (%s): %s", s.Index, s.Name, s.Solution)
	}
	return result
}

// catalogFiles lists catalog files in dir, sorted by name
func catalogFiles(dir string) ([]string, error) {
	var files []string
	for _, ext := range engine.CatalogExtensions {
		matches, err := filepath.Glob(filepath.Join(dir, "*"+ext))
		if err != nil {
			return nil, err
		}
		files = append(files, matches...)
	}
	sort.Strings(files)
	return files, nil
}

// validateDir validates every catalog in dir, writes a report to w and
// reports whether all of them are valid
func validateDir(w io.Writer, dir string, g engine.Geometry) (bool, error) {
	files, err := catalogFiles(dir)
	if err != nil {
		return false, fmt.Errorf("error finding catalog files: %w", err)
	}
	if len(files) == 0 {
		return false, fmt.Errorf("no catalog files in %s", dir)
	}

	allValid := true
	for _, file := range files {
		result := validateCatalog(file, g)

		fmt.Fprintf(w, "\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Fprintln(w, "✅ VALID")
			for _, info := range result.Errors {
				fmt.Fprintln(w, "  "+info)
			}
		} else {
			fmt.Fprintln(w, "❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				if !strings.HasPrefix(err, "✓") {
					fmt.Fprintln(w, "  ❌ "+err)
				}
			}
		}
	}

	fmt.Fprintf(w, "\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Fprintln(w, "✅ All catalogs are valid!")
	} else {
		fmt.Fprintln(w, "❌ Some catalogs have errors")
	}
	return allValid, nil
}

func newCommand(w io.Writer) *cli.Command {
	return &cli.Command{
		Name:  "validate",
		Usage: "validate marble maze catalogs",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "dir", Value: "../configs", Usage: "Directory containing catalog files", Sources: cli.EnvVars("CONFIG_DIR")},
			&cli.FloatFlag{Name: "tile-size", Value: engine.DefaultSettings().Geometry.TileWidth, Usage: "Tile edge used when replaying boards"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			size := cmd.Float("tile-size")
			valid, err := validateDir(w, cmd.String("dir"), engine.Geometry{TileWidth: size, TileHeight: size})
			if err != nil {
				return err
			}
			if !valid {
				return errInvalidCatalogs
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
