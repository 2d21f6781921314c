package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"stellar-salvage/server/logging"
)

func newTestServer(t *testing.T) (*httptest.Server, *Hub) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := testConfig()
	cfg.ClientDir = ""
	hub := NewHub(cfg, logging.NopPublisher())
	srv := httptest.NewServer(NewRouter(hub, cfg))
	t.Cleanup(srv.Close)
	return srv, hub
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("healthz request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}
}

func TestStatusEndpoint(t *testing.T) {
	srv, hub := newTestServer(t)
	hub.Join()

	resp, err := http.Get(srv.URL + "/status")
	if err != nil {
		t.Fatalf("status request: %v", err)
	}
	defer resp.Body.Close()

	var status statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if status.Players != 1 {
		t.Fatalf("expected 1 player, got %d", status.Players)
	}
}

func TestJoinEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Post(srv.URL+"/join", "application/json", nil)
	if err != nil {
		t.Fatalf("join request: %v", err)
	}
	defer resp.Body.Close()

	var join joinResponse
	if err := json.NewDecoder(resp.Body).Decode(&join); err != nil {
		t.Fatalf("decode join: %v", err)
	}
	if join.ID == "" || join.Ver != ProtocolVersion {
		t.Fatalf("unexpected join response: %+v", join)
	}
}

func TestWebsocketRejectsUnknownPlayer(t *testing.T) {
	srv, _ := newTestServer(t)

	wsURL := strings.Replace(srv.URL, "http", "ws", 1) + "/ws?id=ghost"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg invalidMessageEvent
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read rejection: %v", err)
	}
	if msg.Type != "invalidMessage" || msg.Reason != "unknownPlayer" {
		t.Fatalf("unexpected rejection: %+v", msg)
	}
}

func TestWebsocketInitAndCollectRoundTrip(t *testing.T) {
	srv, hub := newTestServer(t)
	join := hub.Join()

	wsURL := strings.Replace(srv.URL, "http", "ws", 1) + "/ws?id=" + join.ID
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var init playerInitEvent
	if err := conn.ReadJSON(&init); err != nil {
		t.Fatalf("read init: %v", err)
	}
	if init.Type != "playerInit" || init.Self.ID != join.ID {
		t.Fatalf("unexpected init: type %s self %s", init.Type, init.Self.ID)
	}
	if len(init.Objects) == 0 {
		t.Fatalf("init without objects")
	}

	// A collect on a nonexistent object answers with a failure result.
	if err := conn.WriteJSON(map[string]any{"type": "collect", "objectId": 999_999}); err != nil {
		t.Fatalf("write collect: %v", err)
	}
	var result collectionResultEvent
	if err := conn.ReadJSON(&result); err != nil {
		t.Fatalf("read result: %v", err)
	}
	if result.Type != "collectionResult" || result.Success {
		t.Fatalf("expected a failed result, got %+v", result)
	}
	if result.Reason != "objectUnavailable" {
		t.Fatalf("unexpected reason %s", result.Reason)
	}
}

func TestWebsocketRejectsMalformedPayload(t *testing.T) {
	srv, hub := newTestServer(t)
	join := hub.Join()

	wsURL := strings.Replace(srv.URL, "http", "ws", 1) + "/ws?id=" + join.ID
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var init playerInitEvent
	if err := conn.ReadJSON(&init); err != nil {
		t.Fatalf("read init: %v", err)
	}

	if err := conn.WriteJSON(map[string]any{"type": "update", "speedHack": 99}); err != nil {
		t.Fatalf("write payload: %v", err)
	}
	var msg invalidMessageEvent
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read rejection: %v", err)
	}
	if msg.Type != "invalidMessage" {
		t.Fatalf("expected invalidMessage, got %+v", msg)
	}
}
