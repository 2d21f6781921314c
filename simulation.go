package server

import (
	"context"
	"math/rand"
	"sort"
	"time"

	"stellar-salvage/server/logging"
	loggingcombat "stellar-salvage/server/logging/combat"
	logginggameplay "stellar-salvage/server/logging/gameplay"
)

// World owns the authoritative game state. Every mutation, whether from an
// inbound message handler or a tick pass, runs under the hub mutex, so the
// contention resolver always sees one consistent position snapshot.
type World struct {
	players      map[string]*playerState
	objects      map[uint64]*objectState
	battles      map[string]*battleState
	nextObjectID uint64

	config    Config
	rng       *rand.Rand
	publisher logging.Publisher

	currentTick uint64
	pending     []pendingEvent

	nextMaintenanceAt time.Time
	nextLeaderboardAt time.Time

	battlesResolved int
}

// pendingEvent is an outbound envelope staged during a locked mutation and
// drained by the hub for fan-out after the mutation commits.
type pendingEvent struct {
	targetID string // empty means broadcast
	payload  any
}

func newWorld(cfg Config, publisher logging.Publisher) *World {
	normalized := cfg.normalized()
	if publisher == nil {
		publisher = logging.NopPublisher()
	}
	seed := normalized.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	w := &World{
		players:   make(map[string]*playerState),
		objects:   make(map[uint64]*objectState),
		battles:   make(map[string]*battleState),
		config:    normalized,
		rng:       rand.New(rand.NewSource(seed)),
		publisher: publisher,
	}
	w.generateObjects()
	return w
}

func (w *World) queueBroadcast(payload any) {
	w.pending = append(w.pending, pendingEvent{payload: payload})
}

func (w *World) queueUnicast(targetID string, payload any) {
	w.pending = append(w.pending, pendingEvent{targetID: targetID, payload: payload})
}

// drainEventsLocked hands the staged events to the caller and clears the
// queue. Callers must hold the hub mutex.
func (w *World) drainEventsLocked() []pendingEvent {
	if len(w.pending) == 0 {
		return nil
	}
	drained := w.pending
	w.pending = nil
	return drained
}

func (w *World) entityRef(id string) logging.EntityRef {
	return logging.EntityRef{ID: id, Kind: logging.EntityKindPlayer}
}

// advance runs one scheduler step. The fine-grained passes (radiation,
// boost expiry, player respawn) run every step; maintenance and leaderboard
// run when their coarser deadlines come due. Returns the ids purged for
// inactivity so the hub can drop their connections.
func (w *World) advance(now time.Time) []string {
	w.currentTick++

	for _, id := range w.sortedPlayerIDs() {
		w.respawnPlayer(w.players[id], now)
	}

	w.radiationPass(now)
	w.boostExpiryPass(now)

	var purged []string
	if !now.Before(w.nextMaintenanceAt) {
		purged = w.maintenancePass(now)
		w.nextMaintenanceAt = now.Add(w.config.maintenanceTick())
	}
	if !now.Before(w.nextLeaderboardAt) {
		w.leaderboardPass(now)
		w.nextLeaderboardAt = now.Add(w.config.leaderboardTick())
	}
	return purged
}

// radiationPass applies the environmental baseline and, when enabled, the
// peer-proximity accrual (closer pairs contribute more). Threshold warnings
// fire once per upward crossing, never repeatedly while above.
func (w *World) radiationPass(now time.Time) {
	ids := w.sortedLivingIDs()
	// Position snapshot first so accrual order cannot skew pair distances.
	positions := make(map[string]Vec3, len(ids))
	for _, id := range ids {
		positions[id] = w.players[id].Position
	}

	for _, id := range ids {
		state := w.players[id]
		level := state.RadiationLevel + w.config.RadiationPerTick

		if w.config.PeerRadiationEnabled {
			for _, otherID := range ids {
				if otherID == id {
					continue
				}
				d := distance(positions[id], positions[otherID])
				if d < w.config.PeerRadiationRange {
					level += w.config.PeerRadiationPerTick * (1 - d/w.config.PeerRadiationRange)
				}
			}
		}

		state.RadiationLevel = clamp(level, 0, radiationMax)
		w.checkRadiationWarnings(state)

		if state.RadiationLevel >= radiationMax {
			if w.triggerRadiationDeath(state, now) {
				loggingcombat.PlayerKilled(context.Background(), w.publisher, w.currentTick,
					w.entityRef(state.ID),
					loggingcombat.PlayerKilledPayload{Cause: "radiation", Deaths: state.Stats.Deaths},
					nil)
			}
		}
	}
}

// checkRadiationWarnings gates each threshold on the crossing, resetting the
// gate once the level drops back below it.
func (w *World) checkRadiationWarnings(state *playerState) {
	for _, threshold := range w.config.WarningThresholds {
		switch {
		case state.RadiationLevel >= threshold && !state.warned[threshold]:
			state.warned[threshold] = true
			w.queueUnicast(state.ID, radiationWarningEvent{
				Type:      "radiationWarning",
				Level:     state.RadiationLevel,
				Threshold: threshold,
			})
		case state.RadiationLevel < threshold:
			state.warned[threshold] = false
		}
	}
}

// boostExpiryPass recomputes the multiplier for every player whose boost
// window elapsed and tells them the burst is over.
func (w *World) boostExpiryPass(now time.Time) {
	for _, id := range w.sortedPlayerIDs() {
		state := w.players[id]
		if state.boostUntil.IsZero() || now.Before(state.boostUntil) {
			continue
		}
		state.boostUntil = time.Time{}
		w.updateSpeedMultiplier(state, now)
		w.queueUnicast(id, speedBoostEndedEvent{
			Type:            "speedBoostEnded",
			SpeedMultiplier: state.SpeedMultiplier,
		})
	}
}

// maintenancePass is the coarse sweep: object respawn, flee steering,
// inactivity purge, and one battle-engine pass when contact is possible.
func (w *World) maintenancePass(now time.Time) []string {
	// Flee steering runs before the respawn sweep so a queued resync
	// snapshot carries the positions clients are about to see.
	w.stepMobileObjects()

	if respawned := w.respawnSweep(now); respawned > 0 {
		logginggameplay.ObjectsRespawned(context.Background(), w.publisher, w.currentTick,
			logginggameplay.RespawnPayload{Count: respawned}, nil)
		w.queueBroadcast(worldSyncEvent{
			Type:       "worldSync",
			Objects:    w.objectsSnapshotLocked(),
			ServerTime: now.UnixMilli(),
		})
	}

	purged := w.removeInactive(now)

	if len(w.players) > 1 {
		w.runBattlePass(now)
	}
	return purged
}

// leaderboardPass broadcasts the ranked top-N snapshot with aggregate
// battle statistics.
func (w *World) leaderboardPass(now time.Time) {
	players := w.playersSnapshotLocked()
	sort.SliceStable(players, func(i, j int) bool { return players[i].Score > players[j].Score })

	size := w.config.LeaderboardSize
	if size > len(players) {
		size = len(players)
	}
	entries := make([]leaderboardEntry, 0, size)
	for i := 0; i < size; i++ {
		p := players[i]
		entries = append(entries, leaderboardEntry{
			Rank:   i + 1,
			ID:     p.ID,
			Score:  p.Score,
			Kills:  p.Stats.Kills,
			Deaths: p.Stats.Deaths,
			Stolen: p.Stats.ResourcesStolen,
		})
	}

	totals := leaderboardTotals{
		ActiveBattles:   len(w.battles),
		BattlesResolved: w.battlesResolved,
	}
	for _, p := range players {
		totals.Kills += p.Stats.Kills
		totals.Deaths += p.Stats.Deaths
	}

	w.queueBroadcast(leaderboardUpdateEvent{
		Type:       "leaderboardUpdate",
		Entries:    entries,
		Totals:     totals,
		ServerTime: now.UnixMilli(),
	})
}

// buildGameState assembles the per-player nearby view sent after updates.
func (w *World) buildGameState(state *playerState) gameStateEvent {
	radius := w.config.GameStateRadius
	var nearbyPlayers []Player
	for _, other := range w.players {
		if other.ID == state.ID {
			continue
		}
		if distance(state.Position, other.Position) <= radius {
			nearbyPlayers = append(nearbyPlayers, other.snapshot())
		}
	}
	sort.Slice(nearbyPlayers, func(i, j int) bool { return nearbyPlayers[i].ID < nearbyPlayers[j].ID })

	var nearbyObjects []WorldObject
	for _, obj := range w.objects {
		if obj.Available && distance(state.Position, obj.Position) <= radius {
			nearbyObjects = append(nearbyObjects, obj.WorldObject)
		}
	}
	sort.Slice(nearbyObjects, func(i, j int) bool { return nearbyObjects[i].ID < nearbyObjects[j].ID })

	return gameStateEvent{
		Type:          "gameState",
		Self:          state.snapshot(),
		NearbyPlayers: nearbyPlayers,
		NearbyObjects: nearbyObjects,
	}
}

func (w *World) sortedPlayerIDs() []string {
	ids := make([]string, 0, len(w.players))
	for id := range w.players {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
