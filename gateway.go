package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// NewRouter builds the HTTP surface: the static client, health and status
// probes, the join handshake, and the WebSocket endpoint.
func NewRouter(hub *Hub, cfg Config) *gin.Engine {
	r := gin.Default()

	if cfg.ClientDir != "" {
		r.Static("/client", cfg.ClientDir)
		r.GET("/", func(c *gin.Context) {
			c.Redirect(http.StatusTemporaryRedirect, "/client/")
		})
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, hub.Status())
	})

	r.POST("/join", func(c *gin.Context) {
		c.JSON(http.StatusOK, hub.Join())
	})

	r.GET("/ws", handleWebsocket(hub, cfg))

	return r
}

// handleWebsocket upgrades the connection for a player that already joined
// and runs its read loop until the socket drops.
func handleWebsocket(hub *Hub, cfg Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		playerID := c.Query("id")
		if playerID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing id"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Println("ws upgrade error:", err)
			return
		}

		sub, init, ok := hub.Subscribe(playerID, conn)
		if !ok {
			data, _ := json.Marshal(invalidMessageEvent{Type: "invalidMessage", Reason: "unknownPlayer"})
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			conn.WriteMessage(websocket.TextMessage, data)
			conn.Close()
			return
		}

		if data, err := json.Marshal(init); err == nil {
			if writeErr := sub.send(data); writeErr != nil {
				hub.Disconnect(playerID, "writeFailed")
				return
			}
		}

		readLoop(hub, cfg, playerID, conn)
	}
}

// readLoop drains inbound messages, applying the per-connection rate limit
// and schema validation before anything touches the hub.
func readLoop(hub *Hub, cfg Config, playerID string, conn *websocket.Conn) {
	limiter := rate.NewLimiter(rate.Limit(cfg.MessagesPerSecond), cfg.MessageBurst)

	for {
		msgType, raw, err := conn.ReadMessage()
		if err != nil {
			hub.Disconnect(playerID, "connectionClosed")
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}
		if !limiter.Allow() {
			hub.SendInvalid(playerID, "rateLimited")
			continue
		}

		var envelope clientEnvelope
		if err := json.Unmarshal(raw, &envelope); err != nil {
			hub.SendInvalid(playerID, "malformedJson")
			continue
		}
		if err := validateInbound(envelope.Type, raw); err != nil {
			if errors.Is(err, ErrInvalidMessage) {
				hub.SendInvalid(playerID, failureReason(err))
			}
			continue
		}

		switch envelope.Type {
		case "update":
			var cmd updateCommand
			if json.Unmarshal(raw, &cmd) == nil {
				hub.HandleUpdate(playerID, cmd)
			}
		case "collect":
			var cmd collectCommand
			if json.Unmarshal(raw, &cmd) == nil {
				hub.HandleCollect(playerID, cmd)
			}
		case "chat":
			var cmd chatCommand
			if json.Unmarshal(raw, &cmd) == nil {
				hub.HandleChat(playerID, cmd)
			}
		case "heartbeat":
			var cmd heartbeatCommand
			if json.Unmarshal(raw, &cmd) == nil {
				hub.HandleHeartbeat(playerID, cmd)
			}
		}
	}
}
