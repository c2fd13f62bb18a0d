package engine

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const testCatalogJSON = `{
  "name": "test",
  "description": "two boards",
  "rows": 3,
  "cols": 3,
  "spawn": {"row": 1, "col": 0},
  "boards": [
    {"name": "first", "default": "plain", "overrides": [{"row": 1, "col": 2, "kind": "star"}]},
    {"default": "plain", "overrides": [{"row": 0, "col": 0, "kind": "star"}, {"row": 2, "col": 2, "kind": "hole"}], "entry": {"row": 2, "col": 0}}
  ]
}`

const testCatalogYAML = `name: test
description: two boards
rows: 3
cols: 3
spawn: {row: 1, col: 0}
boards:
  - name: first
    default: plain
    overrides:
      - {row: 1, col: 2, kind: star}
  - default: plain
    overrides:
      - {row: 0, col: 0, kind: star}
      - {row: 2, col: 2, kind: hole}
    entry: {row: 2, col: 0}
messages:
  victory: "Cleared %d boards"
`

func checkTestCatalog(t *testing.T, config *CatalogConfig) {
	t.Helper()
	if config.Name != "test" || config.Rows != 3 || config.Cols != 3 {
		t.Errorf("Unexpected header: %+v", config)
	}
	if config.Spawn != (Cell{1, 0}) {
		t.Errorf("Expected spawn (1,0), got %v", config.Spawn)
	}
	if len(config.Boards) != 2 {
		t.Fatalf("Expected 2 boards, got %d", len(config.Boards))
	}
	if config.Boards[0].Overrides[0].Kind != Star {
		t.Errorf("Expected star override, got %v", config.Boards[0].Overrides[0].Kind)
	}
	if config.Boards[1].Name != "board 2" {
		t.Errorf("Expected default board name, got %q", config.Boards[1].Name)
	}
	if config.Boards[1].Entry == nil || *config.Boards[1].Entry != (Cell{2, 0}) {
		t.Errorf("Expected entry (2,0), got %v", config.Boards[1].Entry)
	}
	if config.Messages.Advanced != "Level %d" {
		t.Errorf("Expected default advanced message, got %q", config.Messages.Advanced)
	}
}

func TestDecodeCatalogConfig_JSON(t *testing.T) {
	config, err := DecodeCatalogConfig([]byte(testCatalogJSON), ".json")
	if err != nil {
		t.Fatalf("DecodeCatalogConfig failed: %v", err)
	}
	checkTestCatalog(t, config)
}

func TestDecodeCatalogConfig_YAML(t *testing.T) {
	for _, ext := range []string{".yaml", ".YML"} {
		config, err := DecodeCatalogConfig([]byte(testCatalogYAML), ext)
		if err != nil {
			t.Fatalf("DecodeCatalogConfig(%s) failed: %v", ext, err)
		}
		checkTestCatalog(t, config)
		if config.Messages.Victory != "Cleared %d boards" {
			t.Errorf("Expected custom victory message, got %q", config.Messages.Victory)
		}
	}
}

func TestDecodeCatalogConfig_Malformed(t *testing.T) {
	if _, err := DecodeCatalogConfig([]byte(`{"name": `), ".json"); err == nil {
		t.Error("Expected error for truncated JSON")
	}
	if _, err := DecodeCatalogConfig([]byte("name: [unclosed"), ".yaml"); err == nil {
		t.Error("Expected error for broken YAML")
	}
	bad := strings.Replace(testCatalogJSON, `"kind": "star"}]}`, `"kind": "lava"}]}`, 1)
	if _, err := DecodeCatalogConfig([]byte(bad), ".json"); err == nil {
		t.Error("Expected error for unknown tile kind")
	}
}

func TestValidateCatalogConfig(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*CatalogConfig)
		wantErr string
	}{
		{"valid", func(c *CatalogConfig) {}, ""},
		{"nil boards", func(c *CatalogConfig) { c.Boards = nil }, "at least one board"},
		{"missing name", func(c *CatalogConfig) { c.Name = "" }, "name is required"},
		{"zero rows", func(c *CatalogConfig) { c.Rows = 0 }, "rows must be between"},
		{"too many cols", func(c *CatalogConfig) { c.Cols = MaxGridSize + 1 }, "cols must be between"},
		{"spawn outside", func(c *CatalogConfig) { c.Spawn = Cell{Row: 5, Col: 0} }, "spawn"},
		{"board without star", func(c *CatalogConfig) {
			c.Boards = append(c.Boards, BoardSpec{Default: Plain})
		}, "has no star"},
		{"override outside", func(c *CatalogConfig) {
			c.Boards[1].Overrides = append(c.Boards[1].Overrides, Override{Row: 9, Col: 9, Kind: Hole})
		}, "board 2"},
		{"spawn on hole", func(c *CatalogConfig) {
			c.Boards[0].Overrides = append(c.Boards[0].Overrides, Override{Row: 2, Col: 0, Kind: Hole})
		}, "sits on a hole"},
		{"spawn on hole of a later board", func(c *CatalogConfig) {
			c.Boards[1].Overrides = append(c.Boards[1].Overrides, Override{Row: 2, Col: 0, Kind: Hole})
		}, "sits on a hole on board 2"},
		{"spawn on bumper of a later board", func(c *CatalogConfig) {
			c.Boards[1].Overrides = append(c.Boards[1].Overrides, Override{Row: 2, Col: 0, Kind: Bumper})
		}, "sits on a bumper on board 2"},
		{"entry on hole", func(c *CatalogConfig) { c.Boards[1].Entry = &Cell{Row: 2, Col: 2} }, "entry"},
		{"entry on star", func(c *CatalogConfig) { c.Boards[1].Entry = &Cell{Row: 4, Col: 4} }, ""},
		{"landing on hole without entry", func(c *CatalogConfig) {
			c.Boards[1].Overrides = append(c.Boards[1].Overrides, Override{Row: 2, Col: 4, Kind: Hole})
		}, "lands on a hole"},
		{"entry avoids a bad landing", func(c *CatalogConfig) {
			c.Boards[1].Overrides = append(c.Boards[1].Overrides, Override{Row: 2, Col: 4, Kind: Hole})
			c.Boards[1].Entry = &Cell{Row: 4, Col: 0}
		}, ""},
		{"advanced without level", func(c *CatalogConfig) { c.Messages.Advanced = "Next!" }, "messages.advanced"},
		{"victory without count", func(c *CatalogConfig) { c.Messages.Victory = "Won" }, "messages.victory"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			config := DefaultCatalogConfig()
			test.modify(config)
			err := ValidateCatalogConfig(config)
			if test.wantErr == "" {
				if err != nil {
					t.Errorf("Expected valid config, got %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Expected error containing %q, got nil", test.wantErr)
			}
			if !strings.Contains(err.Error(), test.wantErr) {
				t.Errorf("Expected error containing %q, got %v", test.wantErr, err)
			}
		})
	}

	if err := ValidateCatalogConfig(nil); err == nil {
		t.Error("Expected error for nil config")
	}
}

func TestLoadCatalogConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yaml")
	if err := os.WriteFile(path, []byte(testCatalogYAML), 0644); err != nil {
		t.Fatalf("Failed to write catalog: %v", err)
	}

	config, err := LoadCatalogConfig(path)
	if err != nil {
		t.Fatalf("LoadCatalogConfig failed: %v", err)
	}
	checkTestCatalog(t, config)

	if _, err := LoadCatalogConfig(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestLoadCatalogConfig_ConfigDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "test.json"), []byte(testCatalogJSON), 0644); err != nil {
		t.Fatalf("Failed to write catalog: %v", err)
	}
	t.Setenv("CONFIG_DIR", dir)

	config, err := LoadCatalogConfig("configs/test.json")
	if err != nil {
		t.Fatalf("LoadCatalogConfig with CONFIG_DIR failed: %v", err)
	}
	checkTestCatalog(t, config)
}

func TestSettings_PauseTicks(t *testing.T) {
	tests := []struct {
		rate     int
		delay    time.Duration
		expected int
	}{
		{60, 500 * time.Millisecond, 30},
		{60, 0, 0},
		{60, 100 * time.Millisecond, 6},
		{60, 10 * time.Millisecond, 1},
		{10, 300 * time.Millisecond, 3},
		{30, time.Second, 30},
	}

	for _, test := range tests {
		s := Settings{Geometry: Geometry{TileWidth: 1, TileHeight: 1}, TickRate: test.rate, TransitionDelay: test.delay}
		if got := s.PauseTicks(); got != test.expected {
			t.Errorf("PauseTicks(%v @ %d/s): expected %d, got %d", test.delay, test.rate, test.expected, got)
		}
	}
}

func TestSettings_Validate(t *testing.T) {
	if err := DefaultSettings().Validate(); err != nil {
		t.Fatalf("Default settings invalid: %v", err)
	}
	if DefaultSettings().TickInterval() != time.Second/60 {
		t.Errorf("Unexpected tick interval %v", DefaultSettings().TickInterval())
	}

	tests := []struct {
		name   string
		modify func(*Settings)
	}{
		{"zero width", func(s *Settings) { s.Geometry.TileWidth = 0 }},
		{"negative height", func(s *Settings) { s.Geometry.TileHeight = -1 }},
		{"zero rate", func(s *Settings) { s.TickRate = 0 }},
		{"rate too high", func(s *Settings) { s.TickRate = MaxTickRate + 1 }},
		{"negative delay", func(s *Settings) { s.TransitionDelay = -time.Second }},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			s := DefaultSettings()
			test.modify(&s)
			if err := s.Validate(); err == nil {
				t.Error("Expected validation error")
			}
		})
	}
}
