package engine

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseTileKind(t *testing.T) {
	tests := []struct {
		input    string
		expected TileKind
		wantErr  bool
	}{
		{"plain", Plain, false},
		{"BUMPER", Bumper, false},
		{" hole ", Hole, false},
		{"star", Star, false},
		{"water", 0, true},
		{"", 0, true},
	}

	for _, test := range tests {
		t.Run(test.input, func(t *testing.T) {
			kind, err := ParseTileKind(test.input)
			if test.wantErr {
				if err == nil {
					t.Errorf("ParseTileKind(%q): expected error, got %v", test.input, kind)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseTileKind(%q): unexpected error %v", test.input, err)
			}
			if kind != test.expected {
				t.Errorf("ParseTileKind(%q): expected %v, got %v", test.input, test.expected, kind)
			}
		})
	}
}

func TestTileKind_Valid(t *testing.T) {
	for _, kind := range []TileKind{Plain, Bumper, Hole, Star} {
		if !kind.Valid() {
			t.Errorf("Expected %v to be valid", kind)
		}
	}
	if TileKind(4).Valid() {
		t.Error("Expected TileKind(4) to be invalid")
	}
	if TileKind(4).String() != "TileKind(4)" {
		t.Errorf("Unexpected string for invalid kind: %s", TileKind(4).String())
	}
}

func TestTileKind_JSON(t *testing.T) {
	var override Override
	if err := json.Unmarshal([]byte(`{"row":1,"col":2,"kind":"star"}`), &override); err != nil {
		t.Fatalf("Failed to unmarshal override: %v", err)
	}
	if override.Kind != Star || override.Row != 1 || override.Col != 2 {
		t.Errorf("Unexpected override: %+v", override)
	}

	if err := json.Unmarshal([]byte(`{"row":1,"col":2,"kind":"lava"}`), &override); err == nil {
		t.Error("Expected error for unknown kind")
	}

	data, err := json.Marshal(Override{Row: 0, Col: 0, Kind: Bumper})
	if err != nil {
		t.Fatalf("Failed to marshal: %v", err)
	}
	if string(data) != `{"row":0,"col":0,"kind":"bumper"}` {
		t.Errorf("Unexpected JSON: %s", data)
	}

	if _, err := json.Marshal(Override{Kind: TileKind(7)}); err == nil {
		t.Error("Expected marshal error for invalid kind")
	}
}

func TestParseDirection(t *testing.T) {
	tests := []struct {
		token    string
		expected Direction
	}{
		{"up", Up},
		{"down", Down},
		{"left", Left},
		{"right", Right},
		{"  Right ", Right},
		{"UP", Up},
	}

	for _, test := range tests {
		t.Run(test.token, func(t *testing.T) {
			d, err := ParseDirection(test.token)
			if err != nil {
				t.Fatalf("ParseDirection(%q): unexpected error %v", test.token, err)
			}
			if d != test.expected {
				t.Errorf("ParseDirection(%q): expected %v, got %v", test.token, test.expected, d)
			}
		})
	}

	for _, token := range []string{"none", "", "north", "stop"} {
		if _, err := ParseDirection(token); !errors.Is(err, ErrUnknownDirection) {
			t.Errorf("ParseDirection(%q): expected ErrUnknownDirection, got %v", token, err)
		}
	}
}

func TestDirection_Delta(t *testing.T) {
	tests := []struct {
		direction Direction
		dRow      int
		dCol      int
	}{
		{Up, -1, 0},
		{Down, 1, 0},
		{Left, 0, -1},
		{Right, 0, 1},
		{None, 0, 0},
	}

	for _, test := range tests {
		t.Run(test.direction.String(), func(t *testing.T) {
			dr, dc := test.direction.Delta()
			if dr != test.dRow || dc != test.dCol {
				t.Errorf("Delta(%v): expected (%d,%d), got (%d,%d)", test.direction, test.dRow, test.dCol, dr, dc)
			}
			next := Cell{Row: 5, Col: 5}.Step(test.direction)
			if next.Row != 5+test.dRow || next.Col != 5+test.dCol {
				t.Errorf("Step(%v): got %v", test.direction, next)
			}
		})
	}
}

func TestDirection_TextRoundTrip(t *testing.T) {
	for _, d := range []Direction{None, Up, Down, Left, Right} {
		text, err := d.MarshalText()
		if err != nil {
			t.Fatalf("MarshalText(%v): %v", d, err)
		}
		var back Direction
		if err := back.UnmarshalText(text); err != nil {
			t.Fatalf("UnmarshalText(%s): %v", text, err)
		}
		if back != d {
			t.Errorf("Round trip of %v gave %v", d, back)
		}
	}
}

func TestOutcome_Changed(t *testing.T) {
	if OutcomeIdle.Changed() {
		t.Error("Idle must not report a change")
	}
	for _, o := range []Outcome{OutcomeMoved, OutcomeStopped, OutcomeFell, OutcomeStar, OutcomePaused, OutcomeAdvanced, OutcomeFinished} {
		if !o.Changed() {
			t.Errorf("Expected %v to report a change", o)
		}
	}

	var o Outcome
	if err := o.UnmarshalText([]byte("fell")); err != nil || o != OutcomeFell {
		t.Errorf("UnmarshalText(fell): got %v, %v", o, err)
	}
	if err := o.UnmarshalText([]byte("exploded")); err == nil {
		t.Error("Expected error for unknown outcome")
	}
}
