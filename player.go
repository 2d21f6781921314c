package server

import (
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
)

// Player is the broadcast-friendly snapshot of a connected player.
type Player struct {
	ID              string      `json:"id"`
	Position        Vec3        `json:"position"`
	RotationX       float64     `json:"rotationX"`
	RotationY       float64     `json:"rotationY"`
	Color           string      `json:"color"`
	RadiationLevel  float64     `json:"radiationLevel"`
	Score           int         `json:"score"`
	Alive           bool        `json:"alive"`
	SpeedMultiplier float64     `json:"speedMultiplier"`
	Stats           PlayerStats `json:"stats"`
}

// PlayerStats aggregates per-category survival counters.
type PlayerStats struct {
	Discoveries     int `json:"discoveries"`
	RareItems       int `json:"rareItems"`
	Creatures       int `json:"creatures"`
	ResourcesStolen int `json:"resourcesStolen"`
	ResourcesLost   int `json:"resourcesLost"`
	Kills           int `json:"kills"`
	Deaths          int `json:"deaths"`
}

type playerState struct {
	Player
	boostUntil    time.Time
	respawnAt     time.Time
	warned        map[float64]bool
	lastUpdate    time.Time
	lastBroadcast time.Time
	joinedAt      time.Time
}

func (s *playerState) snapshot() Player {
	return s.Player
}

var playerPalette = []string{
	"#ff5c5c", "#ffa94d", "#ffe24d", "#7bed6a",
	"#4dd8ff", "#5c7bff", "#b35cff", "#ff5cd0",
}

// spawnPlayer allocates a player at a proximity-biased spawn pose and
// registers it with the world.
func (w *World) spawnPlayer(now time.Time) *playerState {
	state := &playerState{
		Player: Player{
			ID:              uuid.NewString(),
			Color:           playerPalette[w.rng.Intn(len(playerPalette))],
			Alive:           true,
			SpeedMultiplier: w.config.BaseSpeed,
		},
		warned:     make(map[float64]bool),
		lastUpdate: now,
		joinedAt:   now,
	}
	state.Position, state.RotationY = w.spawnPose()
	w.players[state.ID] = state
	return state
}

// spawnPose biases new spawns toward an existing living player at a
// configured distance band, rotated to face them. The first player in an
// empty world lands bounded-random near the origin instead.
func (w *World) spawnPose() (Vec3, float64) {
	anchor := w.randomLivingPlayer()
	if anchor == nil {
		return w.randomPosition().scale(w.config.SpawnBandMax / w.config.WorldExtent), 0
	}

	dist := w.config.SpawnBandMin + w.rng.Float64()*(w.config.SpawnBandMax-w.config.SpawnBandMin)
	angle := w.rng.Float64() * 2 * math.Pi
	pos := Vec3{
		X: anchor.Position.X + math.Cos(angle)*dist,
		Y: anchor.Position.Y,
		Z: anchor.Position.Z + math.Sin(angle)*dist,
	}.clamped(w.config.WorldExtent)

	facing := anchor.Position.sub(pos)
	yaw := math.Atan2(facing.X, facing.Z)
	return pos, yaw
}

// randomLivingPlayer picks uniformly over living players, iterating in id
// order so a fixed seed reproduces the choice.
func (w *World) randomLivingPlayer() *playerState {
	ids := make([]string, 0, len(w.players))
	for id, state := range w.players {
		if state.Alive {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil
	}
	sort.Strings(ids)
	return w.players[ids[w.rng.Intn(len(ids))]]
}

// applyPlayerUpdate overwrites position/rotation/radiation from an inbound
// update. Absent fields keep their previous value, never reset to zero. A
// dead player only refreshes its activity timestamp.
func (w *World) applyPlayerUpdate(state *playerState, cmd updateCommand, now time.Time) {
	state.lastUpdate = now
	if !state.Alive {
		return
	}

	if cmd.Position != nil {
		state.Position = *cmd.Position
	}
	if cmd.RotationX != nil {
		state.RotationX = *cmd.RotationX
	}
	if cmd.RotationY != nil {
		state.RotationY = *cmd.RotationY
	}
	if cmd.RadiationLevel != nil {
		state.RadiationLevel = clamp(*cmd.RadiationLevel, 0, radiationMax)
	}

	w.updateSpeedMultiplier(state, now)

	if state.RadiationLevel >= radiationMax {
		w.triggerRadiationDeath(state, now)
	}
}

// updateSpeedMultiplier recomputes the derived multiplier:
// base + min(score × rate, maxBonus). An active boost window overrides the
// derived value outright and drops back at expiry (acute burst, no ramp).
func (w *World) updateSpeedMultiplier(state *playerState, now time.Time) {
	if now.Before(state.boostUntil) {
		state.SpeedMultiplier = w.config.BoostMultiplier
		return
	}
	bonus := math.Min(float64(state.Score)*w.config.ScoreBonusRate, w.config.MaxScoreBonus)
	state.SpeedMultiplier = w.config.BaseSpeed + bonus
}

// grantSpeedBoost opens (or extends) the boost window. The factor scales the
// window length per object type.
func (w *World) grantSpeedBoost(state *playerState, factor float64, now time.Time) {
	if factor <= 0 {
		factor = 1
	}
	until := now.Add(time.Duration(float64(w.config.boostDuration()) * factor))
	if until.After(state.boostUntil) {
		state.boostUntil = until
	}
	state.SpeedMultiplier = w.config.BoostMultiplier
}

// killPlayer runs the death transition shared by radiation and proximity
// kills. Idempotent: a second call before respawn completes is a no-op.
func (w *World) killPlayer(state *playerState, cause string, now time.Time) bool {
	if state == nil || !state.Alive {
		return false
	}
	state.Alive = false
	state.Stats.Deaths++
	state.RadiationLevel = 0
	state.Score = maxInt(0, state.Score-w.config.DeathPenalty)
	state.boostUntil = time.Time{}
	state.warned = make(map[float64]bool)
	state.Position, state.RotationY = w.spawnPose()
	state.respawnAt = now.Add(w.config.respawnDelay())
	w.updateSpeedMultiplier(state, now)

	w.queueBroadcast(playerDeathEvent{
		Type:        "playerDeath",
		ID:          state.ID,
		Cause:       cause,
		Score:       state.Score,
		Deaths:      state.Stats.Deaths,
		RespawnInMs: w.config.RespawnDelayMs,
	})
	return true
}

func (w *World) triggerRadiationDeath(state *playerState, now time.Time) bool {
	return w.killPlayer(state, "radiation", now)
}

// respawnPlayer flips a dead player back to alive once its delay elapsed.
func (w *World) respawnPlayer(state *playerState, now time.Time) bool {
	if state == nil || state.Alive || state.respawnAt.IsZero() || now.Before(state.respawnAt) {
		return false
	}
	state.Alive = true
	state.respawnAt = time.Time{}
	w.updateSpeedMultiplier(state, now)
	w.queueBroadcast(playerRespawnEvent{Type: "playerRespawn", Player: state.snapshot()})
	return true
}

// removePlayer drops a player from the registry and purges any battle it is
// party to. Returns whether the player existed.
func (w *World) removePlayer(id string, now time.Time) bool {
	if _, ok := w.players[id]; !ok {
		return false
	}
	delete(w.players, id)
	w.purgeBattlesFor(id, now)
	return true
}

// removeInactive purges every player that has gone silent for longer than
// the configured timeout. Returns the purged ids.
func (w *World) removeInactive(now time.Time) []string {
	timeout := w.config.inactivityTimeout()
	var purged []string
	for id, state := range w.players {
		if now.Sub(state.lastUpdate) > timeout {
			purged = append(purged, id)
		}
	}
	sort.Strings(purged)
	for _, id := range purged {
		w.removePlayer(id, now)
	}
	return purged
}

func (w *World) playersSnapshotLocked() []Player {
	players := make([]Player, 0, len(w.players))
	for _, state := range w.players {
		players = append(players, state.snapshot())
	}
	sort.Slice(players, func(i, j int) bool { return players[i].ID < players[j].ID })
	return players
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
