package server

import (
	"time"

	"stellar-salvage/server/logging"
)

// testConfig keeps the world small and fully deterministic for tests.
func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Seed = 42
	cfg.ObjectCounts = map[string]int{
		"discovery":     3,
		"exploding":     1,
		"rare":          1,
		"spaceCreature": 1,
		"ringPortal":    1,
	}
	return cfg
}

func newTestWorld(cfg Config) *World {
	return newWorld(cfg, logging.NopPublisher())
}

// placePlayer registers a living player at a fixed position, bypassing the
// randomized spawn pose.
func placePlayer(w *World, id string, pos Vec3, now time.Time) *playerState {
	state := &playerState{
		Player: Player{
			ID:              id,
			Position:        pos,
			Alive:           true,
			SpeedMultiplier: w.config.BaseSpeed,
		},
		warned:     make(map[float64]bool),
		lastUpdate: now,
		joinedAt:   now,
	}
	w.players[id] = state
	return state
}

// firstObjectOfType returns the lowest-id available object of the given type.
func firstObjectOfType(w *World, typ ObjectType) *objectState {
	for id := uint64(1); id <= w.nextObjectID; id++ {
		obj, ok := w.objects[id]
		if ok && obj.Type == typ && obj.Available {
			return obj
		}
	}
	return nil
}

// drainPayloads empties the staged event queue and returns the payloads.
func drainPayloads(w *World) []any {
	events := w.drainEventsLocked()
	payloads := make([]any, 0, len(events))
	for _, event := range events {
		payloads = append(payloads, event.payload)
	}
	return payloads
}

// drainPayloadsFor empties the staged event queue and returns the payloads
// addressed to one target id.
func drainPayloadsFor(w *World, targetID string) []any {
	events := w.drainEventsLocked()
	var payloads []any
	for _, event := range events {
		if event.targetID == targetID {
			payloads = append(payloads, event.payload)
		}
	}
	return payloads
}
