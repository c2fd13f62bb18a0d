package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/wricardo/marble-maze/game/engine"
	"github.com/wricardo/marble-maze/game/service"
)

type mockCommander struct {
	DirectFunc func(ctx context.Context, sessionID, direction string) (*service.DirectResult, error)
}

func (m *mockCommander) Direct(ctx context.Context, sessionID, direction string) (*service.DirectResult, error) {
	return m.DirectFunc(ctx, sessionID, direction)
}

func newTestClient(hub *Hub, sessionID string) *Client {
	return &Client{
		hub:       hub,
		sessionID: sessionID,
		send:      make(chan []byte, 256),
	}
}

func startHub(t *testing.T, commander Commander) *Hub {
	t.Helper()
	hub := NewHub(commander, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)
	return hub
}

func readMessage(t *testing.T, ch <-chan []byte) Message {
	t.Helper()
	select {
	case data := <-ch:
		var message Message
		if err := json.Unmarshal(data, &message); err != nil {
			t.Fatalf("Failed to unmarshal message: %v", err)
		}
		return message
	case <-time.After(time.Second):
		t.Fatal("No message received within timeout")
	}
	return Message{}
}

func waitForClients(t *testing.T, hub *Hub, sessionID string, want int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for hub.ClientCount(sessionID) != want {
		if time.Now().After(deadline) {
			t.Fatalf("Expected %d clients in %s, got %d", want, sessionID, hub.ClientCount(sessionID))
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func testSnapshot() *engine.Snapshot {
	return &engine.Snapshot{
		BoardName: "first",
		Rows:      2,
		Cols:      2,
		Tiles:     [][]engine.TileKind{{engine.Plain, engine.Star}, {engine.Plain, engine.Plain}},
		Marble:    engine.Marble{Direction: engine.Right},
		Level:     1,
	}
}

func TestNewHub(t *testing.T) {
	hub := NewHub(nil, zerolog.Nop())

	if hub.sessions == nil {
		t.Error("Hub sessions map is nil")
	}
	if hub.broadcast == nil || hub.replies == nil {
		t.Error("Hub outbound channels are nil")
	}
	if hub.register == nil || hub.unregister == nil {
		t.Error("Hub registration channels are nil")
	}
}

func TestHubRegisterClient(t *testing.T) {
	hub := NewHub(nil, zerolog.Nop())
	client := newTestClient(hub, "test-session")

	hub.registerClient(client)

	if !hub.sessions["test-session"][client] {
		t.Error("Client was not registered in session")
	}
	if hub.ClientCount("test-session") != 1 {
		t.Errorf("Expected 1 client in session, got %d", hub.ClientCount("test-session"))
	}
}

func TestHubUnregisterClient(t *testing.T) {
	hub := NewHub(nil, zerolog.Nop())
	client := newTestClient(hub, "test-session")

	hub.registerClient(client)
	hub.unregisterClient(client)

	if _, exists := hub.sessions["test-session"]; exists {
		t.Error("Session should have been cleaned up after last client unregistered")
	}
	if _, ok := <-client.send; ok {
		t.Error("Expected send channel to be closed")
	}

	// A second unregister is a no-op
	hub.unregisterClient(client)
}

func TestHubMultipleClientsInSession(t *testing.T) {
	hub := NewHub(nil, zerolog.Nop())
	sessionID := "multi-client-session"

	client1 := newTestClient(hub, sessionID)
	client2 := newTestClient(hub, sessionID)
	hub.registerClient(client1)
	hub.registerClient(client2)

	if hub.ClientCount(sessionID) != 2 {
		t.Errorf("Expected 2 clients in session, got %d", hub.ClientCount(sessionID))
	}

	hub.unregisterClient(client1)

	if hub.ClientCount(sessionID) != 1 {
		t.Errorf("Expected 1 client remaining in session, got %d", hub.ClientCount(sessionID))
	}
	if !hub.sessions[sessionID][client2] {
		t.Error("client2 should still be registered")
	}
}

func TestHubBroadcastToSession(t *testing.T) {
	hub := startHub(t, nil)
	sessionID := "broadcast-test"

	client := newTestClient(hub, sessionID)
	other := newTestClient(hub, "other")
	hub.registerClient(client)
	hub.registerClient(other)

	hub.BroadcastToSession(sessionID, &service.SessionUpdate{
		SessionID: sessionID,
		Outcome:   engine.OutcomeStar,
		Events:    []service.GameEvent{{Type: "star", Message: "Star reached!"}},
		Message:   "Star reached!",
		State:     testSnapshot(),
	})

	message := readMessage(t, client.send)
	if message.SessionID != sessionID {
		t.Errorf("Expected sessionID %s, got %s", sessionID, message.SessionID)
	}
	if message.Event != EventStateUpdate {
		t.Errorf("Expected event %q, got %q", EventStateUpdate, message.Event)
	}
	if message.Outcome != engine.OutcomeStar {
		t.Errorf("Expected outcome star, got %s", message.Outcome)
	}
	if message.State == nil || message.State.At(engine.Cell{Row: 0, Col: 1}) != engine.Star {
		t.Error("Snapshot not correctly transmitted")
	}
	if len(message.Events) != 1 || message.Events[0].Type != "star" {
		t.Errorf("Expected star event, got %+v", message.Events)
	}

	select {
	case <-other.send:
		t.Error("Clients of other sessions must not receive the frame")
	case <-time.After(20 * time.Millisecond):
	}
}

func TestHubBroadcastEvent(t *testing.T) {
	hub := NewHub(nil, zerolog.Nop())

	hub.BroadcastEvent("event-test", "custom-event", "test-data")

	select {
	case message := <-hub.broadcast:
		if message.SessionID != "event-test" {
			t.Errorf("Expected sessionID 'event-test', got %s", message.SessionID)
		}
		if message.Event != "custom-event" {
			t.Errorf("Expected event 'custom-event', got %s", message.Event)
		}
		if message.Data != "test-data" {
			t.Errorf("Expected data 'test-data', got %v", message.Data)
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("No broadcast message queued")
	}
}

func TestHubBroadcastQueueFull(t *testing.T) {
	hub := NewHub(nil, zerolog.Nop())

	for i := 0; i < broadcastBuffer+10; i++ {
		hub.BroadcastEvent("full", "tick", i)
	}
	if len(hub.broadcast) != broadcastBuffer {
		t.Errorf("Expected queue to hold %d frames, got %d", broadcastBuffer, len(hub.broadcast))
	}
}

func TestHubHandleCommand(t *testing.T) {
	tests := []struct {
		name      string
		payload   string
		result    *service.DirectResult
		err       error
		wantEvent string
	}{
		{
			name:      "accepted",
			payload:   `{"direction":"left"}`,
			result:    &service.DirectResult{Accepted: true, Direction: engine.Left, Message: "Rolling left", State: testSnapshot()},
			wantEvent: EventStateUpdate,
		},
		{
			name:      "ignored while moving",
			payload:   `{"direction":"up"}`,
			result:    &service.DirectResult{Accepted: false, Message: "Ignored: marble is moving", State: testSnapshot()},
			wantEvent: EventCommandIgnored,
		},
		{
			name:      "service error",
			payload:   `{"direction":"sideways"}`,
			err:       errors.New("unknown direction"),
			wantEvent: EventError,
		},
		{
			name:      "malformed frame",
			payload:   `not json`,
			wantEvent: EventError,
		},
		{
			name:      "missing direction",
			payload:   `{}`,
			wantEvent: EventError,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			var gotDirection string
			commander := &mockCommander{DirectFunc: func(ctx context.Context, sessionID, direction string) (*service.DirectResult, error) {
				gotDirection = direction
				return test.result, test.err
			}}
			hub := startHub(t, commander)
			client := newTestClient(hub, "cmd")
			hub.registerClient(client)

			hub.handleCommand(client, []byte(test.payload))

			message := readMessage(t, client.send)
			if message.Event != test.wantEvent {
				t.Errorf("Expected event %q, got %q", test.wantEvent, message.Event)
			}
			if test.result != nil && test.result.Accepted {
				if gotDirection != "left" {
					t.Errorf("Expected direction forwarded, got %q", gotDirection)
				}
				if message.Message != "Rolling left" || message.State == nil {
					t.Errorf("Expected accepted frame with state, got %+v", message)
				}
			}
		})
	}
}

func TestWebSocketUpgrade(t *testing.T) {
	hub := startHub(t, nil)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWS(w, r, r.URL.Query().Get("session"))
	}))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "?session=ws-test"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to connect to WebSocket: %v", err)
	}

	waitForClients(t, hub, "ws-test", 1)

	conn.Close()

	waitForClients(t, hub, "ws-test", 0)
}

func TestWebSocketRoundTrip(t *testing.T) {
	commander := &mockCommander{DirectFunc: func(ctx context.Context, sessionID, direction string) (*service.DirectResult, error) {
		if sessionID != "msg-test" {
			t.Errorf("Expected session msg-test, got %s", sessionID)
		}
		return &service.DirectResult{Accepted: true, Direction: engine.Right, Message: "Rolling right", State: testSnapshot()}, nil
	}}
	hub := startHub(t, commander)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWS(w, r, r.URL.Query().Get("session"))
	}))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "?session=msg-test"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to connect to WebSocket: %v", err)
	}
	defer conn.Close()

	waitForClients(t, hub, "msg-test", 1)

	if err := conn.WriteJSON(Command{Direction: "right"}); err != nil {
		t.Fatalf("Failed to send command: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(time.Second))
	var message Message
	if err := conn.ReadJSON(&message); err != nil {
		t.Fatalf("Failed to read WebSocket message: %v", err)
	}

	if message.SessionID != "msg-test" || message.Event != EventStateUpdate {
		t.Errorf("Unexpected frame: %+v", message)
	}
	if message.Message != "Rolling right" {
		t.Errorf("Expected 'Rolling right', got %q", message.Message)
	}
	if message.State == nil || message.State.Marble.Direction != engine.Right {
		t.Error("Snapshot not correctly received")
	}
}
