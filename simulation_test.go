package server

import (
	"math"
	"testing"
	"time"
)

func TestRadiationPassBaselineAccrual(t *testing.T) {
	cfg := testConfig()
	cfg.PeerRadiationEnabled = false
	w := newTestWorld(cfg)
	now := time.Now()
	state := placePlayer(w, "p1", Vec3{}, now)

	w.radiationPass(now)
	if state.RadiationLevel != cfg.RadiationPerTick {
		t.Fatalf("expected baseline accrual %f, got %f", cfg.RadiationPerTick, state.RadiationLevel)
	}
}

func TestRadiationPassPeerProximityWeighting(t *testing.T) {
	cfg := testConfig()
	w := newTestWorld(cfg)
	now := time.Now()

	a := placePlayer(w, "a", Vec3{}, now)
	placePlayer(w, "b", Vec3{X: cfg.PeerRadiationRange / 2}, now)

	w.radiationPass(now)

	// Half the range away contributes half the per-tick peer dose.
	want := cfg.RadiationPerTick + cfg.PeerRadiationPerTick*0.5
	if math.Abs(a.RadiationLevel-want) > 1e-9 {
		t.Fatalf("expected %f, got %f", want, a.RadiationLevel)
	}
}

func TestRadiationPassPeerOutOfRangeContributesNothing(t *testing.T) {
	cfg := testConfig()
	w := newTestWorld(cfg)
	now := time.Now()

	a := placePlayer(w, "a", Vec3{}, now)
	placePlayer(w, "b", Vec3{X: cfg.PeerRadiationRange + 1}, now)

	w.radiationPass(now)
	if a.RadiationLevel != cfg.RadiationPerTick {
		t.Fatalf("distant peer contributed radiation: %f", a.RadiationLevel)
	}
}

func TestRadiationPassDisabledPeerAccrual(t *testing.T) {
	cfg := testConfig()
	cfg.PeerRadiationEnabled = false
	w := newTestWorld(cfg)
	now := time.Now()

	a := placePlayer(w, "a", Vec3{}, now)
	placePlayer(w, "b", Vec3{X: 1}, now)

	w.radiationPass(now)
	if a.RadiationLevel != cfg.RadiationPerTick {
		t.Fatalf("peer accrual applied while disabled: %f", a.RadiationLevel)
	}
}

func TestRadiationDeathAtCeiling(t *testing.T) {
	w := newTestWorld(testConfig())
	now := time.Now()
	state := placePlayer(w, "p1", Vec3{}, now)
	state.RadiationLevel = radiationMax - 0.1

	w.radiationPass(now)
	if state.Alive {
		t.Fatalf("expected death at the ceiling")
	}
	if state.Stats.Deaths != 1 {
		t.Fatalf("expected one death, got %d", state.Stats.Deaths)
	}
}

func TestRadiationWarningsFireOncePerCrossing(t *testing.T) {
	cfg := testConfig()
	cfg.PeerRadiationEnabled = false
	w := newTestWorld(cfg)
	now := time.Now()
	state := placePlayer(w, "p1", Vec3{}, now)

	state.RadiationLevel = 69.9
	w.radiationPass(now)
	warnings := countWarnings(drainPayloadsFor(w, "p1"))
	if warnings != 1 {
		t.Fatalf("expected one warning at the 70 crossing, got %d", warnings)
	}

	// Still above 70: no repeat.
	w.radiationPass(now)
	if n := countWarnings(drainPayloadsFor(w, "p1")); n != 0 {
		t.Fatalf("warning repeated while above threshold: %d", n)
	}

	// Drop below, then cross again: fires again.
	state.RadiationLevel = 50
	w.radiationPass(now)
	drainPayloads(w)
	state.RadiationLevel = 69.9
	w.radiationPass(now)
	if n := countWarnings(drainPayloadsFor(w, "p1")); n != 1 {
		t.Fatalf("warning did not re-arm after dropping below, got %d", n)
	}
}

func countWarnings(payloads []any) int {
	n := 0
	for _, p := range payloads {
		if _, ok := p.(radiationWarningEvent); ok {
			n++
		}
	}
	return n
}

func TestBoostExpiryPassSendsEndNotice(t *testing.T) {
	w := newTestWorld(testConfig())
	now := time.Now()
	state := placePlayer(w, "p1", Vec3{}, now)
	w.grantSpeedBoost(state, 1, now)

	// Before expiry nothing happens.
	w.boostExpiryPass(now.Add(time.Second))
	if len(drainPayloadsFor(w, "p1")) != 0 {
		t.Fatalf("boost ended early")
	}

	after := now.Add(w.config.boostDuration() + time.Millisecond)
	w.boostExpiryPass(after)
	if !state.boostUntil.IsZero() {
		t.Fatalf("boost window not cleared")
	}
	if state.SpeedMultiplier != w.config.BaseSpeed {
		t.Fatalf("speed not recomputed after expiry: %f", state.SpeedMultiplier)
	}

	payloads := drainPayloadsFor(w, "p1")
	found := false
	for _, p := range payloads {
		if event, ok := p.(speedBoostEndedEvent); ok {
			found = true
			if event.SpeedMultiplier != w.config.BaseSpeed {
				t.Fatalf("end notice carries wrong multiplier: %f", event.SpeedMultiplier)
			}
		}
	}
	if !found {
		t.Fatalf("no speedBoostEnded notice")
	}
}

func TestLeaderboardPassRanksByScore(t *testing.T) {
	cfg := testConfig()
	cfg.LeaderboardSize = 2
	w := newTestWorld(cfg)
	now := time.Now()

	low := placePlayer(w, "low", Vec3{}, now)
	mid := placePlayer(w, "mid", Vec3{X: 300}, now)
	high := placePlayer(w, "high", Vec3{X: 600}, now)
	low.Score, mid.Score, high.Score = 10, 50, 90
	high.Stats.Kills = 2
	mid.Stats.Deaths = 1
	w.battlesResolved = 3

	w.leaderboardPass(now)

	var update *leaderboardUpdateEvent
	for _, p := range drainPayloads(w) {
		if event, ok := p.(leaderboardUpdateEvent); ok {
			update = &event
		}
	}
	if update == nil {
		t.Fatalf("no leaderboard broadcast")
	}
	if len(update.Entries) != 2 {
		t.Fatalf("expected top 2 entries, got %d", len(update.Entries))
	}
	if update.Entries[0].ID != "high" || update.Entries[0].Rank != 1 {
		t.Fatalf("wrong first entry: %+v", update.Entries[0])
	}
	if update.Entries[1].ID != "mid" || update.Entries[1].Rank != 2 {
		t.Fatalf("wrong second entry: %+v", update.Entries[1])
	}
	if update.Totals.BattlesResolved != 3 {
		t.Fatalf("wrong resolved total: %d", update.Totals.BattlesResolved)
	}
	if update.Totals.Kills != 2 || update.Totals.Deaths != 1 {
		t.Fatalf("wrong aggregate stats: %+v", update.Totals)
	}
}

func TestAdvanceRespawnsDuePlayers(t *testing.T) {
	w := newTestWorld(testConfig())
	now := time.Now()
	state := placePlayer(w, "p1", Vec3{}, now)
	w.killPlayer(state, "radiation", now)
	drainPayloads(w)

	w.advance(now.Add(w.config.respawnDelay() + time.Second))
	if !state.Alive {
		t.Fatalf("advance did not respawn a due player")
	}
}

func TestAdvanceReportsInactivityPurges(t *testing.T) {
	w := newTestWorld(testConfig())
	now := time.Now()

	silent := placePlayer(w, "silent", Vec3{}, now)
	silent.lastUpdate = now.Add(-w.config.inactivityTimeout() - time.Minute)
	w.nextMaintenanceAt = now

	purged := w.advance(now)
	if len(purged) != 1 || purged[0] != "silent" {
		t.Fatalf("expected [silent], got %v", purged)
	}
}

func TestAdvanceSyncsWorldAfterObjectRespawn(t *testing.T) {
	w := newTestWorld(testConfig())
	now := time.Now()

	obj := firstObjectOfType(w, ObjectDiscovery)
	obj.markCollected("p1", now.Add(-time.Hour))
	w.nextMaintenanceAt = now

	w.advance(now)

	found := false
	for _, p := range drainPayloads(w) {
		if event, ok := p.(worldSyncEvent); ok {
			found = true
			for _, snap := range event.Objects {
				if snap.ID == obj.ID && !snap.Available {
					t.Fatalf("sync still shows object %d unavailable", obj.ID)
				}
			}
		}
	}
	if !found {
		t.Fatalf("no worldSync broadcast after respawn")
	}
}

func TestMaintenanceSyncCarriesFledPositions(t *testing.T) {
	w := newTestWorld(testConfig())
	now := time.Now()

	collected := firstObjectOfType(w, ObjectDiscovery)
	collected.markCollected("p1", now.Add(-time.Hour))

	rare := firstObjectOfType(w, ObjectRare)
	before := rare.Position
	placePlayer(w, "p1", rare.Position, now)

	w.maintenancePass(now)

	if rare.Position == before {
		t.Fatalf("rare object did not flee")
	}
	found := false
	for _, p := range drainPayloads(w) {
		if event, ok := p.(worldSyncEvent); ok {
			found = true
			for _, snap := range event.Objects {
				if snap.ID == rare.ID && snap.Position != rare.Position {
					t.Fatalf("sync carries stale position %+v, object at %+v", snap.Position, rare.Position)
				}
			}
		}
	}
	if !found {
		t.Fatalf("no worldSync broadcast after respawn")
	}
}

func TestBuildGameStateFiltersByRadius(t *testing.T) {
	w := newTestWorld(testConfig())
	now := time.Now()

	self := placePlayer(w, "self", Vec3{}, now)
	placePlayer(w, "near", Vec3{X: w.config.GameStateRadius - 1}, now)
	placePlayer(w, "far", Vec3{X: w.config.GameStateRadius + 100}, now)

	view := w.buildGameState(self)
	if view.Self.ID != "self" {
		t.Fatalf("wrong self snapshot")
	}
	if len(view.NearbyPlayers) != 1 || view.NearbyPlayers[0].ID != "near" {
		t.Fatalf("wrong nearby players: %+v", view.NearbyPlayers)
	}
	for _, obj := range view.NearbyObjects {
		if distance(self.Position, obj.Position) > w.config.GameStateRadius {
			t.Fatalf("object %d outside the view radius", obj.ID)
		}
	}
}
