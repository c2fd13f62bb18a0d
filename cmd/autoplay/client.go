package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// State is the subset of the board state the player looks at
type State struct {
	BoardName      string `json:"board_name"`
	MarbleCell     Cell   `json:"marble_cell"`
	Level          int    `json:"level"`
	TotalBoards    int    `json:"total_boards"`
	PauseRemaining int    `json:"pause_remaining"`
	Victory        bool   `json:"victory"`
	Ticks          uint64 `json:"ticks"`
	Falls          int    `json:"falls"`
	Marble         struct {
		Direction         string `json:"direction"`
		TransitionPending bool   `json:"transition_pending"`
	} `json:"marble"`
}

// Resting reports whether the marble will accept a command
func (s *State) Resting() bool {
	return s.Marble.Direction == "none" && !s.Marble.TransitionPending
}

// Cell is a grid coordinate
type Cell struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func (c Cell) String() string {
	return fmt.Sprintf("(%d,%d)", c.Row, c.Col)
}

type SessionResponse struct {
	ID          string `json:"id"`
	CatalogName string `json:"catalog_name"`
	Manual      bool   `json:"manual"`
	Message     string `json:"message"`
	State       *State `json:"state"`
}

// errServerClock means the session follows the server clock, so the player
// cannot step it
var errServerClock = errors.New("session follows the server clock")

type DirectResponse struct {
	Accepted bool   `json:"accepted"`
	Message  string `json:"message"`
	State    *State `json:"state"`
}

type Event struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Tick    uint64 `json:"tick"`
}

type TickResponse struct {
	Ticks   int     `json:"ticks"`
	Outcome string  `json:"outcome"`
	Events  []Event `json:"events"`
	Message string  `json:"message"`
	State   *State  `json:"state"`
}

type HintResponse struct {
	From       Cell     `json:"from"`
	Directions []string `json:"directions"`
	Ticks      int      `json:"ticks"`
}

// APIError is a non-2xx answer from the server
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error %d: %s", e.Status, e.Message)
}

type Client struct {
	baseURL   string
	sessionID string
	client    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// SessionID returns the session the client plays
func (c *Client) SessionID() string { return c.sessionID }

func (c *Client) call(method, path string, body interface{}, result interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &errResp) == nil && errResp.Error != "" {
			return &APIError{Status: resp.StatusCode, Message: errResp.Error}
		}
		return &APIError{Status: resp.StatusCode, Message: strings.TrimSpace(string(data))}
	}

	if result == nil {
		return nil
	}
	if err := json.Unmarshal(data, result); err != nil {
		return fmt.Errorf("parse %s response: %w", path, err)
	}
	return nil
}

// CreateSession starts a manually clocked session so the player owns time
func (c *Client) CreateSession(catalog string) (*SessionResponse, error) {
	req := map[string]interface{}{"manual": true}
	if catalog != "" {
		req["catalog_id"] = catalog
	}

	var session SessionResponse
	if err := c.call(http.MethodPost, "/api/sessions", req, &session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	c.sessionID = session.ID
	return &session, nil
}

// Resume attaches to an existing session
func (c *Client) Resume(sessionID string) (*SessionResponse, error) {
	c.sessionID = sessionID
	var session SessionResponse
	if err := c.call(http.MethodGet, "/api/sessions/"+sessionID, nil, &session); err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if !session.Manual {
		return nil, fmt.Errorf("%w: %s", errServerClock, session.ID)
	}
	return &session, nil
}

func (c *Client) Reset() (*State, error) {
	var resp struct {
		Message string          `json:"message"`
		Session SessionResponse `json:"session"`
	}
	if err := c.call(http.MethodPost, c.path("/reset"), nil, &resp); err != nil {
		return nil, fmt.Errorf("reset: %w", err)
	}
	return resp.Session.State, nil
}

func (c *Client) Direct(direction string) (*DirectResponse, error) {
	var resp DirectResponse
	if err := c.call(http.MethodPost, c.path("/direction"), map[string]string{"direction": direction}, &resp); err != nil {
		return nil, fmt.Errorf("direct %s: %w", direction, err)
	}
	return &resp, nil
}

// Tick steps the session clock; with untilRest it stops once the marble
// can be commanded again
func (c *Client) Tick(ticks int, untilRest bool) (*TickResponse, error) {
	req := map[string]interface{}{"ticks": ticks, "until_rest": untilRest}
	var resp TickResponse
	if err := c.call(http.MethodPost, c.path("/tick"), req, &resp); err != nil {
		return nil, fmt.Errorf("tick: %w", err)
	}
	return &resp, nil
}

func (c *Client) Hint() (*HintResponse, error) {
	var resp HintResponse
	if err := c.call(http.MethodGet, c.path("/hint"), nil, &resp); err != nil {
		return nil, fmt.Errorf("hint: %w", err)
	}
	return &resp, nil
}

func (c *Client) path(suffix string) string {
	return "/api/sessions/" + c.sessionID + suffix
}
