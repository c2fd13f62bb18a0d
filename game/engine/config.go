package engine

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Settings holds the process-wide simulation parameters that are not part
// of a catalog file
type Settings struct {
	Geometry        Geometry      `json:"geometry"`
	TickRate        int           `json:"tick_rate"`
	TransitionDelay time.Duration `json:"transition_delay"`
}

// DefaultSettings returns 40x40 tiles at 60 ticks per second with a
// half-second pause before a new board is installed
func DefaultSettings() Settings {
	return Settings{
		Geometry:        Geometry{TileWidth: 40, TileHeight: 40},
		TickRate:        60,
		TransitionDelay: 500 * time.Millisecond,
	}
}

// Validate checks settings for usable values
func (s Settings) Validate() error {
	if err := s.Geometry.Validate(); err != nil {
		return fmt.Errorf("settings validation: %w", err)
	}
	if s.TickRate < MinTickRate || s.TickRate > MaxTickRate {
		return fmt.Errorf("settings validation: tick_rate must be between %d and %d, got %d",
			MinTickRate, MaxTickRate, s.TickRate)
	}
	if s.TransitionDelay < 0 {
		return fmt.Errorf("settings validation: transition_delay cannot be negative, got %v", s.TransitionDelay)
	}
	return nil
}

// TickInterval is the wall-clock time between two ticks
func (s Settings) TickInterval() time.Duration {
	return time.Second / time.Duration(s.TickRate)
}

// PauseTicks converts the transition delay into a whole number of ticks,
// rounding up
func (s Settings) PauseTicks() int {
	ticks := s.TransitionDelay.Seconds() * float64(s.TickRate)
	return int(math.Ceil(ticks - 1e-9))
}

// Messages are the player-facing texts for game events
type Messages struct {
	Welcome  string `json:"welcome" yaml:"welcome"`
	Stopped  string `json:"stopped" yaml:"stopped"`
	Fell     string `json:"fell" yaml:"fell"`
	Star     string `json:"star" yaml:"star"`
	Advanced string `json:"advanced" yaml:"advanced"`
	Victory  string `json:"victory" yaml:"victory"`
}

// CatalogConfig is the on-disk description of a game: shared dimensions,
// the initial spawn cell and the ordered boards
type CatalogConfig struct {
	Name        string      `json:"name" yaml:"name"`
	Description string      `json:"description" yaml:"description"`
	Rows        int         `json:"rows" yaml:"rows"`
	Cols        int         `json:"cols" yaml:"cols"`
	Spawn       Cell        `json:"spawn" yaml:"spawn"`
	Boards      []BoardSpec `json:"boards" yaml:"boards"`
	Messages    Messages    `json:"messages" yaml:"messages"`
}

// applyDefaults fills in optional fields left empty by the file
func applyDefaults(config *CatalogConfig) {
	if config.Messages.Welcome == "" {
		config.Messages.Welcome = "Roll the marble to the star!"
	}
	if config.Messages.Stopped == "" {
		config.Messages.Stopped = "Bumped!"
	}
	if config.Messages.Fell == "" {
		config.Messages.Fell = "The marble fell into a hole."
	}
	if config.Messages.Star == "" {
		config.Messages.Star = "Star reached!"
	}
	if config.Messages.Advanced == "" {
		config.Messages.Advanced = "Level %d"
	}
	if config.Messages.Victory == "" {
		config.Messages.Victory = "All %d boards cleared!"
	}
	for i := range config.Boards {
		if config.Boards[i].Name == "" {
			config.Boards[i].Name = fmt.Sprintf("board %d", i+1)
		}
	}
}

// ValidateCatalogConfig validates a catalog configuration for correctness
// and basic playability
func ValidateCatalogConfig(config *CatalogConfig) error {
	if config == nil {
		return fmt.Errorf("config validation: config is nil")
	}
	if config.Name == "" {
		return fmt.Errorf("config validation: name is required")
	}

	if config.Rows < MinGridSize || config.Rows > MaxGridSize {
		return fmt.Errorf("config validation: rows must be between %d and %d, got %d", MinGridSize, MaxGridSize, config.Rows)
	}
	if config.Cols < MinGridSize || config.Cols > MaxGridSize {
		return fmt.Errorf("config validation: cols must be between %d and %d, got %d", MinGridSize, MaxGridSize, config.Cols)
	}

	if config.Spawn.Row < 0 || config.Spawn.Row >= config.Rows || config.Spawn.Col < 0 || config.Spawn.Col >= config.Cols {
		return fmt.Errorf("config validation: spawn %v outside %dx%d grid", config.Spawn, config.Rows, config.Cols)
	}

	if len(config.Boards) == 0 {
		return fmt.Errorf("config validation: at least one board is required")
	}
	if len(config.Boards) > MaxBoards {
		return fmt.Errorf("config validation: at most %d boards allowed, got %d", MaxBoards, len(config.Boards))
	}

	// The marble rests on the spawn cell after every fall and on the entry
	// cell, or the previous board's star, after every transition
	var previous *Board
	for i := range config.Boards {
		spec := &config.Boards[i]
		board, err := NewBoard(config.Rows, config.Cols, *spec)
		if err != nil {
			return fmt.Errorf("config validation: board %d: %v", i+1, err)
		}
		if len(board.Find(Star)) == 0 {
			return fmt.Errorf("config validation: board %d has no star", i+1)
		}
		if kind := board.At(config.Spawn); !restable(kind) {
			return fmt.Errorf("config validation: spawn %v sits on a %v on board %d", config.Spawn, kind, i+1)
		}
		if entry, ok := board.Entry(); ok {
			if kind := board.At(entry); !restable(kind) {
				return fmt.Errorf("config validation: entry %v sits on a %v on board %d", entry, kind, i+1)
			}
		} else if previous != nil {
			for _, landing := range previous.Find(Star) {
				if kind := board.At(landing); !restable(kind) {
					return fmt.Errorf("config validation: board %d has no entry and the star at %v of board %d lands on a %v", i+1, landing, i, kind)
				}
			}
		}
		previous = board
	}

	if !strings.Contains(config.Messages.Advanced, "%d") {
		return fmt.Errorf("config validation: messages.advanced must contain %%d for the level number")
	}
	if !strings.Contains(config.Messages.Victory, "%d") {
		return fmt.Errorf("config validation: messages.victory must contain %%d for the board count")
	}

	return nil
}

// restable reports whether the marble may come to rest on a tile of kind k
func restable(k TileKind) bool {
	return k == Plain || k == Star
}

// NewCatalog builds a fresh one-shot catalog from the config
func (config *CatalogConfig) NewCatalog() (*Catalog, error) {
	return NewCatalog(config.Rows, config.Cols, config.Boards)
}

// DecodeCatalogConfig parses raw catalog data. format is a file extension
// (".json", ".yaml" or ".yml"); anything else is treated as JSON.
func DecodeCatalogConfig(data []byte, format string) (*CatalogConfig, error) {
	var config CatalogConfig
	switch strings.ToLower(format) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, err
		}
	default:
		if err := json.Unmarshal(data, &config); err != nil {
			return nil, err
		}
	}

	applyDefaults(&config)

	if err := ValidateCatalogConfig(&config); err != nil {
		return nil, err
	}
	return &config, nil
}

// LoadCatalogConfig loads a catalog configuration from a JSON or YAML file
func LoadCatalogConfig(filename string) (*CatalogConfig, error) {
	// Support CONFIG_DIR environment variable for alternative config directory
	configPath := filename
	if configDir := os.Getenv("CONFIG_DIR"); configDir != "" {
		if strings.HasPrefix(filename, "configs/") {
			configPath = filepath.Join(configDir, strings.TrimPrefix(filename, "configs/"))
		}
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	return DecodeCatalogConfig(data, filepath.Ext(configPath))
}

// CatalogExtensions are the file extensions recognised as catalog files,
// in lookup order
var CatalogExtensions = []string{".json", ".yaml", ".yml"}

// DefaultCatalogConfig returns a small built-in two-board game used when
// no catalog files are available
func DefaultCatalogConfig() *CatalogConfig {
	config := &CatalogConfig{
		Name:        "default",
		Description: "Built-in two board warm-up",
		Rows:        5,
		Cols:        5,
		Spawn:       Cell{Row: 2, Col: 0},
		Boards: []BoardSpec{
			{
				Name:    "straight run",
				Default: Plain,
				Overrides: []Override{
					{Row: 2, Col: 4, Kind: Star},
				},
			},
			{
				Name:    "around the hole",
				Default: Plain,
				Overrides: []Override{
					{Row: 2, Col: 2, Kind: Hole},
					{Row: 0, Col: 4, Kind: Bumper},
					{Row: 4, Col: 4, Kind: Star},
				},
			},
		},
	}
	applyDefaults(config)
	return config
}
