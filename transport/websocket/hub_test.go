package websocket

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/wricardo/mcp-training/warehouse/game/engine"
)

func newTestHub() *Hub {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewHubWithLogger(logger)
}

func newTestClient(hub *Hub, sessionID string) *Client {
	return &Client{
		hub:       hub,
		sessionID: sessionID,
		send:      make(chan []byte, 256),
	}
}

func TestNewHub(t *testing.T) {
	hub := NewHub()

	if hub == nil {
		t.Fatal("NewHub() returned nil")
	}
	if hub.sessions == nil {
		t.Error("Hub sessions map is nil")
	}
	if hub.broadcast == nil || hub.register == nil || hub.unregister == nil || hub.counts == nil {
		t.Error("Hub channels must be initialised")
	}
}

func TestHubRegisterClient(t *testing.T) {
	hub := newTestHub()
	client := newTestClient(hub, "test-session")

	hub.registerClient(client)

	if !hub.sessions["test-session"][client] {
		t.Error("Client was not registered in session")
	}
	if len(hub.sessions["test-session"]) != 1 {
		t.Errorf("Expected 1 client in session, got %d", len(hub.sessions["test-session"]))
	}
}

func TestHubUnregisterClient(t *testing.T) {
	hub := newTestHub()
	client := newTestClient(hub, "test-session")

	hub.registerClient(client)
	hub.unregisterClient(client)

	if _, exists := hub.sessions["test-session"]; exists {
		t.Error("Session should have been cleaned up after last client unregistered")
	}
	if _, ok := <-client.send; ok {
		t.Error("Send channel should be closed on unregister")
	}

	// A second unregister is a no-op
	hub.unregisterClient(client)
}

func TestHubMultipleClientsInSession(t *testing.T) {
	hub := newTestHub()
	sessionID := "multi-client-session"

	client1 := newTestClient(hub, sessionID)
	client2 := newTestClient(hub, sessionID)
	other := newTestClient(hub, "other-session")

	hub.registerClient(client1)
	hub.registerClient(client2)
	hub.registerClient(other)

	if len(hub.sessions[sessionID]) != 2 {
		t.Errorf("Expected 2 clients in session, got %d", len(hub.sessions[sessionID]))
	}

	hub.broadcastMessage(&Message{SessionID: sessionID, Event: EventStateUpdate})
	if len(client1.send) != 1 || len(client2.send) != 1 {
		t.Error("Both session clients should receive the broadcast")
	}
	if len(other.send) != 0 {
		t.Error("Clients of other sessions must not receive the broadcast")
	}

	hub.unregisterClient(client1)
	if !hub.sessions[sessionID][client2] || len(hub.sessions[sessionID]) != 1 {
		t.Error("client2 should still be registered alone")
	}
}

func TestHubSlowClientDropped(t *testing.T) {
	hub := newTestHub()
	slow := &Client{hub: hub, sessionID: "slow", send: make(chan []byte)}
	hub.registerClient(slow)

	hub.broadcastMessage(&Message{SessionID: "slow", Event: EventStateUpdate})

	if _, exists := hub.sessions["slow"]; exists {
		t.Error("A client that cannot take a message should be dropped")
	}
}

func TestHubBroadcastToSession(t *testing.T) {
	hub := newTestHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	sessionID := "broadcast-test"
	client := newTestClient(hub, sessionID)
	hub.register <- client

	state := &engine.GameState{
		RobotPos: engine.Position{X: 5, Y: 3},
		Score:    104,
		Layout:   []string{"#####", "#@O.#", "#####"},
	}
	hub.BroadcastToSession(sessionID, state)

	select {
	case data := <-client.send:
		var message Message
		if err := json.Unmarshal(data, &message); err != nil {
			t.Fatalf("Failed to unmarshal message: %v", err)
		}
		if message.SessionID != sessionID {
			t.Errorf("Expected sessionID %s, got %s", sessionID, message.SessionID)
		}
		if message.Event != EventStateUpdate {
			t.Errorf("Expected event %q, got %s", EventStateUpdate, message.Event)
		}
		if message.State == nil || message.State.RobotPos != (engine.Position{X: 5, Y: 3}) {
			t.Error("GameState not correctly transmitted")
		}
	case <-time.After(time.Second):
		t.Error("No message received within timeout")
	}
}

func TestHubBroadcastEvent(t *testing.T) {
	hub := newTestHub()

	hub.BroadcastEvent("event-test", EventRun, "test-data")

	select {
	case message := <-hub.broadcast:
		if message.SessionID != "event-test" {
			t.Errorf("Expected sessionID 'event-test', got %s", message.SessionID)
		}
		if message.Event != EventRun {
			t.Errorf("Expected event %q, got %s", EventRun, message.Event)
		}
		if message.Data != "test-data" {
			t.Errorf("Expected data 'test-data', got %v", message.Data)
		}
	default:
		t.Error("Expected the event to be queued")
	}
}

func TestHubBroadcastQueueFull(t *testing.T) {
	hub := newTestHub()

	// Without a running hub the queue fills up and further messages are dropped
	for i := 0; i < broadcastBuffer+10; i++ {
		hub.BroadcastEvent("full", EventMoves, i)
	}
	if len(hub.broadcast) != broadcastBuffer {
		t.Errorf("Expected %d queued messages, got %d", broadcastBuffer, len(hub.broadcast))
	}
}

func TestHubRunStopsOnCancel(t *testing.T) {
	hub := newTestHub()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()

	client := newTestClient(hub, "closing")
	hub.register <- client
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
	if _, ok := <-client.send; ok {
		t.Error("Clients should be closed when the hub stops")
	}
}

func startTestServer(t *testing.T, hub *Hub) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessionID := r.URL.Query().Get("session")
		if sessionID == "" {
			sessionID = "default"
		}
		hub.ServeWS(w, r, sessionID)
	}))
	t.Cleanup(server.Close)
	return server
}

func waitForCount(t *testing.T, hub *Hub, sessionID string, want int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if hub.ClientCount(context.Background(), sessionID) == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Errorf("Expected %d clients in %s, got %d", want, sessionID, hub.ClientCount(context.Background(), sessionID))
}

func TestWebSocketUpgrade(t *testing.T) {
	hub := newTestHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	server := startTestServer(t, hub)
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "?session=ws-test"

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to connect to WebSocket: %v", err)
	}

	waitForCount(t, hub, "ws-test", 1)

	conn.Close()

	waitForCount(t, hub, "ws-test", 0)
}

func TestWebSocketMessageReceive(t *testing.T) {
	hub := newTestHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	server := startTestServer(t, hub)
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "?session=msg-test"

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to connect to WebSocket: %v", err)
	}
	defer conn.Close()

	waitForCount(t, hub, "msg-test", 1)

	hub.BroadcastToSession("msg-test", &engine.GameState{
		RobotPos: engine.Position{X: 10, Y: 15},
		Score:    10092,
	})
	hub.BroadcastEvent("msg-test", EventRun, engine.RunSummary{Executed: 700, Score: 10092})

	conn.SetReadDeadline(time.Now().Add(time.Second))

	var first Message
	if err := conn.ReadJSON(&first); err != nil {
		t.Fatalf("Failed to read WebSocket message: %v", err)
	}
	if first.SessionID != "msg-test" || first.Event != EventStateUpdate {
		t.Errorf("Unexpected first message: %+v", first)
	}
	if first.State == nil || first.State.RobotPos != (engine.Position{X: 10, Y: 15}) || first.State.Score != 10092 {
		t.Error("GameState not correctly received")
	}

	var second Message
	if err := conn.ReadJSON(&second); err != nil {
		t.Fatalf("Failed to read WebSocket message: %v", err)
	}
	if second.Event != EventRun {
		t.Errorf("Expected %q, got %q", EventRun, second.Event)
	}
	data, ok := second.Data.(map[string]interface{})
	if !ok || data["score"] != float64(10092) {
		t.Errorf("Unexpected run payload: %v", second.Data)
	}
}
