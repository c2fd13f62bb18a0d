package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Snapshot mirrors the board state the server publishes
type Snapshot struct {
	BoardName string     `json:"board_name"`
	Rows      int        `json:"rows"`
	Cols      int        `json:"cols"`
	Tiles     [][]string `json:"tiles"`
	Geometry  struct {
		TileWidth  float64 `json:"tile_width"`
		TileHeight float64 `json:"tile_height"`
	} `json:"geometry"`
	Marble struct {
		Position struct {
			X float64 `json:"x"`
			Y float64 `json:"y"`
		} `json:"position"`
		Direction string `json:"direction"`
	} `json:"marble"`
	Level           int    `json:"level"`
	TotalBoards     int    `json:"total_boards"`
	RemainingBoards int    `json:"remaining_boards"`
	PauseRemaining  int    `json:"pause_remaining"`
	Victory         bool   `json:"victory"`
	Ticks           uint64 `json:"ticks"`
	Falls           int    `json:"falls"`
}

// WSMessage is a frame received from the hub
type WSMessage struct {
	SessionID string    `json:"session_id"`
	Event     string    `json:"event"`
	Outcome   string    `json:"outcome"`
	State     *Snapshot `json:"state"`
	Message   string    `json:"message"`
}

// SessionData is the response of the session endpoints
type SessionData struct {
	ID          string    `json:"id"`
	CatalogName string    `json:"catalog_name"`
	Message     string    `json:"message"`
	State       *Snapshot `json:"state"`
}

// Client keeps the latest state of one session in sync with the server
type Client struct {
	baseURL   string
	sessionID string
	catalog   string

	conn    *websocket.Conn
	writeMu sync.Mutex

	mu        sync.RWMutex
	state     *Snapshot
	message   string
	bumpedAt  time.Time
	fellAt    time.Time
	connected bool
}

// NewClient creates or attaches to a session and connects its WebSocket
func NewClient(baseURL, sessionID, catalog string) (*Client, error) {
	c := &Client{baseURL: strings.TrimSuffix(baseURL, "/"), sessionID: sessionID, catalog: catalog}

	var session SessionData
	var err error
	if sessionID == "" {
		session, err = c.createSession()
	} else {
		session, err = c.fetchSession()
	}
	if err != nil {
		return nil, err
	}
	c.sessionID = session.ID
	c.apply(session.State, session.Message, "")

	if err := c.connect(); err != nil {
		log.Printf("WebSocket unavailable for %s: %v (falling back to polling)", c.sessionID, err)
	} else {
		go c.listen()
	}
	return c, nil
}

func (c *Client) createSession() (SessionData, error) {
	payload := "{}"
	if c.catalog != "" {
		payload = fmt.Sprintf(`{"catalog_id":%q}`, c.catalog)
	}

	var session SessionData
	err := c.do(http.MethodPost, "/api/sessions", payload, &session)
	if err == nil {
		log.Printf("Created new session: %s (catalog: %s)", session.ID, session.CatalogName)
	}
	return session, err
}

func (c *Client) fetchSession() (SessionData, error) {
	var session SessionData
	err := c.do(http.MethodGet, "/api/sessions/"+c.sessionID, "", &session)
	return session, err
}

func (c *Client) do(method, path, payload string, result interface{}) error {
	var body io.Reader
	if payload != "" {
		body = strings.NewReader(payload)
	}
	req, err := http.NewRequest(method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("%s %s: %s: %s", method, path, resp.Status, strings.TrimSpace(string(data)))
	}
	if result == nil {
		return nil
	}
	if err := json.Unmarshal(data, result); err != nil {
		return fmt.Errorf("failed to parse response: %v (body: %s)", err, string(data))
	}
	return nil
}

func (c *Client) connect() error {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return err
	}
	scheme := "ws"
	if u.Scheme == "https" {
		scheme = "wss"
	}

	wsURL := url.URL{Scheme: scheme, Host: u.Host, Path: "/ws"}
	q := wsURL.Query()
	q.Set("session", c.sessionID)
	wsURL.RawQuery = q.Encode()

	conn, _, err := websocket.DefaultDialer.Dial(wsURL.String(), nil)
	if err != nil {
		return err
	}

	c.conn = conn
	c.mu.Lock()
	c.connected = true
	c.mu.Unlock()
	log.Printf("WebSocket connected for session %s", c.sessionID)
	return nil
}

// listen applies every frame from the hub until the connection drops
func (c *Client) listen() {
	defer func() {
		c.conn.Close()
		c.mu.Lock()
		c.connected = false
		c.mu.Unlock()
	}()

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			log.Printf("WebSocket read error for %s: %v", c.sessionID, err)
			return
		}

		var msg WSMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Printf("WebSocket JSON parse error: %v", err)
			continue
		}

		switch msg.Event {
		case "state_update":
			c.apply(msg.State, msg.Message, msg.Outcome)
		case "command_ignored", "error":
			c.mu.Lock()
			c.message = msg.Message
			c.mu.Unlock()
		}
	}
}

func (c *Client) apply(state *Snapshot, message, outcome string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if state != nil {
		c.state = state
	}
	if message != "" {
		c.message = message
	}
	switch outcome {
	case "stopped":
		c.bumpedAt = time.Now()
	case "fell":
		c.fellAt = time.Now()
	}
}

// Direct sends a direction command over the WebSocket, or over HTTP when
// the socket is down
func (c *Client) Direct(direction string) error {
	c.mu.RLock()
	connected := c.connected
	c.mu.RUnlock()

	if connected {
		c.writeMu.Lock()
		defer c.writeMu.Unlock()
		return c.conn.WriteJSON(map[string]string{"direction": direction})
	}

	var result struct {
		Accepted bool      `json:"accepted"`
		Message  string    `json:"message"`
		State    *Snapshot `json:"state"`
	}
	payload := fmt.Sprintf(`{"direction":%q}`, direction)
	if err := c.do(http.MethodPost, "/api/sessions/"+c.sessionID+"/direction", payload, &result); err != nil {
		return err
	}
	c.apply(result.State, result.Message, "")
	return nil
}

// Reset restarts the session from its first board
func (c *Client) Reset() error {
	var result struct {
		Message string      `json:"message"`
		Session SessionData `json:"session"`
	}
	if err := c.do(http.MethodPost, "/api/sessions/"+c.sessionID+"/reset", "{}", &result); err != nil {
		return err
	}
	c.apply(result.Session.State, result.Session.Message, "")
	return nil
}

// Poll refreshes the state over HTTP while the WebSocket is down
func (c *Client) Poll() {
	c.mu.RLock()
	connected := c.connected
	c.mu.RUnlock()
	if connected {
		return
	}

	session, err := c.fetchSession()
	if err != nil {
		log.Printf("Error fetching state for %s: %v", c.sessionID, err)
		return
	}
	c.apply(session.State, session.Message, "")
}

// View returns the latest state and message along with how long ago the
// marble last bumped and fell
func (c *Client) View() (*Snapshot, string, time.Duration, time.Duration) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state, c.message, time.Since(c.bumpedAt), time.Since(c.fellAt)
}

// Close closes the WebSocket
func (c *Client) Close() {
	if c.conn != nil {
		c.conn.Close()
	}
}
