package server

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/gorilla/websocket"

	"stellar-salvage/server/logging"
	logginglifecycle "stellar-salvage/server/logging/lifecycle"
)

// Hub owns the world and every live subscriber. All world mutations run
// under mu; outbound events staged during a mutation are dispatched after
// the lock is released.
type Hub struct {
	mu          sync.Mutex
	world       *World
	subscribers map[string]*subscriber
	config      Config
	publisher   logging.Publisher
}

type subscriber struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func NewHub(cfg Config, publisher logging.Publisher) *Hub {
	if publisher == nil {
		publisher = logging.NopPublisher()
	}
	return &Hub{
		world:       newWorld(cfg, publisher),
		subscribers: make(map[string]*subscriber),
		config:      cfg.normalized(),
		publisher:   publisher,
	}
}

// Join registers a new player and returns the snapshot the client boots from.
func (h *Hub) Join() joinResponse {
	now := time.Now()

	h.mu.Lock()
	state := h.world.spawnPlayer(now)
	self := state.snapshot()
	players := h.world.playersSnapshotLocked()
	objects := h.world.objectsSnapshotLocked()
	h.world.queueBroadcast(playerJoinedEvent{Type: "playerJoined", Player: self})
	events := h.world.drainEventsLocked()
	h.mu.Unlock()

	logginglifecycle.PlayerJoined(context.Background(), h.publisher, h.tick(),
		logging.EntityRef{ID: self.ID, Kind: logging.EntityKindPlayer},
		logginglifecycle.PlayerJoinedPayload{
			SpawnX: self.Position.X,
			SpawnY: self.Position.Y,
			SpawnZ: self.Position.Z,
		}, nil)

	h.dispatch(events)

	return joinResponse{
		Ver:        ProtocolVersion,
		ID:         self.ID,
		Self:       self,
		Players:    players,
		Objects:    objects,
		ServerTime: now.UnixMilli(),
	}
}

// Subscribe associates a WebSocket connection with an existing player. A
// reconnect replaces the previous connection.
func (h *Hub) Subscribe(playerID string, conn *websocket.Conn) (*subscriber, playerInitEvent, bool) {
	now := time.Now()

	h.mu.Lock()
	state, ok := h.world.players[playerID]
	if !ok {
		h.mu.Unlock()
		return nil, playerInitEvent{}, false
	}
	state.lastUpdate = now

	if existing, ok := h.subscribers[playerID]; ok {
		existing.conn.Close()
	}
	sub := &subscriber{conn: conn}
	h.subscribers[playerID] = sub

	init := playerInitEvent{
		Type:       "playerInit",
		Self:       state.snapshot(),
		Players:    h.world.playersSnapshotLocked(),
		Objects:    h.world.objectsSnapshotLocked(),
		ServerTime: now.UnixMilli(),
	}
	h.mu.Unlock()

	return sub, init, true
}

// Disconnect removes the player, dissolves its battles, and closes the
// connection if one is still attached.
func (h *Hub) Disconnect(playerID, reason string) {
	now := time.Now()

	h.mu.Lock()
	sub, subOK := h.subscribers[playerID]
	if subOK {
		delete(h.subscribers, playerID)
	}
	removed := h.world.removePlayer(playerID, now)
	if removed {
		h.world.queueBroadcast(playerLeftEvent{Type: "playerLeft", ID: playerID, Reason: reason})
	}
	events := h.world.drainEventsLocked()
	h.mu.Unlock()

	if subOK {
		sub.conn.Close()
	}
	if removed {
		logginglifecycle.PlayerDisconnected(context.Background(), h.publisher, h.tick(),
			logging.EntityRef{ID: playerID, Kind: logging.EntityKindPlayer},
			logginglifecycle.PlayerDisconnectedPayload{Reason: reason}, nil)
	}

	h.dispatch(events)
}

// HandleUpdate applies a position/rotation/radiation update and answers with
// the player's nearby view, throttled per connection.
func (h *Hub) HandleUpdate(playerID string, cmd updateCommand) bool {
	now := time.Now()

	h.mu.Lock()
	state, ok := h.world.players[playerID]
	if !ok {
		h.mu.Unlock()
		return false
	}
	h.world.applyPlayerUpdate(state, cmd, now)

	if now.Sub(state.lastBroadcast) >= gameStateMinInterval {
		state.lastBroadcast = now
		h.world.queueUnicast(playerID, h.world.buildGameState(state))
	}
	events := h.world.drainEventsLocked()
	h.mu.Unlock()

	h.dispatch(events)
	return true
}

// HandleCollect resolves a collection attempt and reports the outcome. The
// acting player always receives a collectionResult; the world only hears
// about attempts that succeeded.
func (h *Hub) HandleCollect(playerID string, cmd collectCommand) {
	now := time.Now()

	h.mu.Lock()
	outcome, err := h.world.attemptCollect(playerID, cmd.ObjectID, now)
	if err != nil {
		h.world.queueUnicast(playerID, collectionResultEvent{
			Type:     "collectionResult",
			Success:  false,
			Reason:   failureReason(err),
			ObjectID: cmd.ObjectID,
		})
	} else {
		h.world.queueUnicast(playerID, collectionResultEvent{
			Type:           "collectionResult",
			Success:        !outcome.Stolen,
			Reason:         stolenReason(outcome),
			ObjectID:       outcome.ObjectID,
			Points:         outcome.Points,
			By:             outcome.WinnerID,
			WinnerDistance: outcome.WinnerDistance,
			ActorDistance:  outcome.ActorDistance,
			Competitors:    outcome.Competitors,
		})
		if outcome.Stolen {
			h.world.queueBroadcast(resourceStolenEvent{
				Type:           "resourceStolen",
				ObjectID:       outcome.ObjectID,
				ObjectType:     outcome.ObjectType,
				By:             outcome.WinnerID,
				From:           outcome.ActorID,
				Points:         outcome.Points,
				WinnerDistance: outcome.WinnerDistance,
				ActorDistance:  outcome.ActorDistance,
				Competitors:    outcome.Competitors,
			})
		} else {
			h.world.queueBroadcast(resourceCollectedEvent{
				Type:        "resourceCollected",
				ObjectID:    outcome.ObjectID,
				ObjectType:  outcome.ObjectType,
				By:          outcome.WinnerID,
				Points:      outcome.Points,
				Competitors: outcome.Competitors,
			})
		}
	}
	events := h.world.drainEventsLocked()
	h.mu.Unlock()

	h.dispatch(events)
}

func stolenReason(outcome CollectOutcome) string {
	if outcome.Stolen {
		return "stolen"
	}
	return ""
}

// HandleChat relays a chat line to every subscriber. Oversized messages are
// truncated rather than dropped.
func (h *Hub) HandleChat(playerID string, cmd chatCommand) {
	now := time.Now()
	message := truncateChat(cmd.Message)

	h.mu.Lock()
	state, ok := h.world.players[playerID]
	if !ok {
		h.mu.Unlock()
		return
	}
	state.lastUpdate = now
	h.world.queueBroadcast(chatMessageEvent{
		Type:    "chatMessage",
		ID:      playerID,
		Message: message,
		SentAt:  now.UnixMilli(),
	})
	events := h.world.drainEventsLocked()
	h.mu.Unlock()

	h.dispatch(events)
}

// truncateChat caps the message at maxChatLength bytes, backing the cut off
// to a rune boundary so a multi-byte character is never split.
func truncateChat(message string) string {
	if len(message) <= maxChatLength {
		return message
	}
	cut := maxChatLength
	for cut > 0 && !utf8.RuneStart(message[cut]) {
		cut--
	}
	return message[:cut]
}

// HandleHeartbeat refreshes the activity clock and echoes the client's
// timestamp for RTT measurement.
func (h *Hub) HandleHeartbeat(playerID string, cmd heartbeatCommand) {
	now := time.Now()

	h.mu.Lock()
	state, ok := h.world.players[playerID]
	if !ok {
		h.mu.Unlock()
		return
	}
	state.lastUpdate = now
	h.world.queueUnicast(playerID, heartbeatAckEvent{
		Type:       "heartbeatAck",
		ServerTime: now.UnixMilli(),
		ClientTime: cmd.SentAt,
	})
	events := h.world.drainEventsLocked()
	h.mu.Unlock()

	h.dispatch(events)
}

// SendInvalid tells one connection its last payload was dropped.
func (h *Hub) SendInvalid(playerID, reason string) {
	h.dispatch([]pendingEvent{{
		targetID: playerID,
		payload:  invalidMessageEvent{Type: "invalidMessage", Reason: reason},
	}})
}

// Status reports the counters the health endpoint exposes.
func (h *Hub) Status() statusResponse {
	h.mu.Lock()
	players := len(h.world.players)
	objects := len(h.world.objects)
	h.mu.Unlock()

	return statusResponse{
		Status:     "ok",
		Players:    players,
		Objects:    objects,
		ServerTime: time.Now().UnixMilli(),
	}
}

// RunSimulation drives the fixed-rate tick loop until the stop channel
// closes. Players purged for inactivity lose their connection here.
func (h *Hub) RunSimulation(stop <-chan struct{}) {
	ticker := time.NewTicker(h.config.radiationTick())
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			h.step(now)
		}
	}
}

func (h *Hub) step(now time.Time) {
	h.mu.Lock()
	purged := h.world.advance(now)
	toClose := make([]*subscriber, 0, len(purged))
	for _, id := range purged {
		if sub, ok := h.subscribers[id]; ok {
			toClose = append(toClose, sub)
			delete(h.subscribers, id)
		}
		h.world.queueBroadcast(playerLeftEvent{Type: "playerLeft", ID: id, Reason: "timeout"})
	}
	events := h.world.drainEventsLocked()
	h.mu.Unlock()

	for _, sub := range toClose {
		sub.conn.Close()
	}
	for _, id := range purged {
		logginglifecycle.PlayerDisconnected(context.Background(), h.publisher, h.tick(),
			logging.EntityRef{ID: id, Kind: logging.EntityKindPlayer},
			logginglifecycle.PlayerDisconnectedPayload{Reason: "timeout"}, nil)
	}

	h.dispatch(events)
}

// dispatch marshals and delivers staged events outside the world lock. A
// failed write tears the connection down via Disconnect.
func (h *Hub) dispatch(events []pendingEvent) {
	if len(events) == 0 {
		return
	}

	h.mu.Lock()
	subs := make(map[string]*subscriber, len(h.subscribers))
	for id, sub := range h.subscribers {
		subs[id] = sub
	}
	h.mu.Unlock()

	var failed []string
	for _, event := range events {
		data, err := json.Marshal(event.payload)
		if err != nil {
			log.Printf("failed to marshal %T: %v", event.payload, err)
			continue
		}
		if event.targetID != "" {
			if sub, ok := subs[event.targetID]; ok {
				if writeErr := sub.send(data); writeErr != nil {
					failed = append(failed, event.targetID)
					delete(subs, event.targetID)
				}
			}
			continue
		}
		for id, sub := range subs {
			if writeErr := sub.send(data); writeErr != nil {
				log.Printf("failed to send to %s: %v", id, writeErr)
				failed = append(failed, id)
				delete(subs, id)
			}
		}
	}

	for _, id := range failed {
		h.Disconnect(id, "writeFailed")
	}
}

func (s *subscriber) send(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

func (h *Hub) tick() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.world.currentTick
}
