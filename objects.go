package server

import (
	"time"
)

// ObjectType enumerates the collectible variants.
type ObjectType string

const (
	ObjectDiscovery     ObjectType = "discovery"
	ObjectExploding     ObjectType = "exploding"
	ObjectRare          ObjectType = "rare"
	ObjectSpaceCreature ObjectType = "spaceCreature"
	ObjectRingPortal    ObjectType = "ringPortal"
)

// objectTypeSpec fixes the per-variant tuning. FleeSpeed > 0 marks a type as
// mobile; ReducesRadiation marks the portal behavior.
type objectTypeSpec struct {
	Points           int
	CollectRadius    float64
	Respawn          time.Duration
	DefaultCount     int
	FleeSpeed        float64
	DetectRange      float64
	Hued             bool
	BoostFactor      float64
	ReducesRadiation bool
}

var objectTypeSpecs = map[ObjectType]objectTypeSpec{
	ObjectDiscovery: {
		Points:        10,
		CollectRadius: 30,
		Respawn:       30 * time.Second,
		DefaultCount:  40,
		Hued:          true,
		BoostFactor:   1,
	},
	ObjectExploding: {
		Points:        25,
		CollectRadius: 35,
		Respawn:       60 * time.Second,
		DefaultCount:  10,
		BoostFactor:   1.5,
	},
	ObjectRare: {
		Points:        50,
		CollectRadius: 25,
		Respawn:       90 * time.Second,
		DefaultCount:  8,
		FleeSpeed:     15,
		DetectRange:   100,
		BoostFactor:   1,
	},
	ObjectSpaceCreature: {
		Points:        75,
		CollectRadius: 40,
		Respawn:       120 * time.Second,
		DefaultCount:  6,
		FleeSpeed:     25,
		DetectRange:   150,
		BoostFactor:   1,
	},
	ObjectRingPortal: {
		Points:           15,
		CollectRadius:    30,
		Respawn:          45 * time.Second,
		DefaultCount:     4,
		BoostFactor:      1,
		ReducesRadiation: true,
	},
}

// objectTypeOrder keeps world generation deterministic for a fixed seed.
var objectTypeOrder = []ObjectType{
	ObjectDiscovery,
	ObjectExploding,
	ObjectRare,
	ObjectSpaceCreature,
	ObjectRingPortal,
}

// WorldObject is the broadcast-friendly snapshot of a collectible.
type WorldObject struct {
	ID        uint64     `json:"id"`
	Type      ObjectType `json:"type"`
	Position  Vec3       `json:"position"`
	Available bool       `json:"available"`
	Hue       float64    `json:"hue,omitempty"`
}

type objectState struct {
	WorldObject
	collectedBy string
	collectedAt time.Time
}

func (s *objectState) spec() objectTypeSpec {
	return objectTypeSpecs[s.Type]
}

// markCollected flips the object to unavailable on behalf of a collector.
func (s *objectState) markCollected(playerID string, now time.Time) {
	s.Available = false
	s.collectedBy = playerID
	s.collectedAt = now
}

// generateObjects replaces the full object set with fresh randomized
// positions and resets the id counter. No respawn timers survive.
func (w *World) generateObjects() {
	w.objects = make(map[uint64]*objectState)
	w.nextObjectID = 0

	for _, typ := range objectTypeOrder {
		spec := objectTypeSpecs[typ]
		count := spec.DefaultCount
		if override, ok := w.config.ObjectCounts[string(typ)]; ok && override >= 0 {
			count = override
		}
		for i := 0; i < count; i++ {
			w.nextObjectID++
			obj := &objectState{WorldObject: WorldObject{
				ID:        w.nextObjectID,
				Type:      typ,
				Position:  w.randomPosition(),
				Available: true,
			}}
			if spec.Hued {
				obj.Hue = w.rng.Float64() * 360
			}
			w.objects[obj.ID] = obj
		}
	}
}

func (w *World) randomPosition() Vec3 {
	extent := w.config.WorldExtent
	return Vec3{
		X: (w.rng.Float64()*2 - 1) * extent,
		Y: (w.rng.Float64()*2 - 1) * extent,
		Z: (w.rng.Float64()*2 - 1) * extent,
	}
}

// checkRespawn transitions an unavailable object back to available once its
// type's respawn duration has elapsed. Idempotent for available objects.
func (w *World) checkRespawn(obj *objectState, now time.Time) bool {
	if obj == nil || obj.Available {
		return false
	}
	if now.Sub(obj.collectedAt) < obj.spec().Respawn {
		return false
	}
	obj.Available = true
	obj.collectedBy = ""
	obj.collectedAt = time.Time{}
	return true
}

// respawnSweep runs checkRespawn over every object and returns how many came
// back.
func (w *World) respawnSweep(now time.Time) int {
	respawned := 0
	for _, obj := range w.objects {
		if w.checkRespawn(obj, now) {
			respawned++
		}
	}
	return respawned
}

// stepMobileObjects applies the flee-steering rule: move directly away from
// the nearest living player at the type's flee speed, with a reduced
// vertical component, clamped to world bounds. Discrete steering, no
// momentum.
func (w *World) stepMobileObjects() {
	for _, obj := range w.objects {
		spec := obj.spec()
		if spec.FleeSpeed <= 0 || !obj.Available {
			continue
		}
		threat, dist := w.nearestLivingPlayer(obj.Position)
		if threat == nil || dist > spec.DetectRange {
			continue
		}
		away := obj.Position.sub(threat.Position).normalized()
		if away == (Vec3{}) {
			away = Vec3{X: 1}
		}
		away.Y *= verticalFleeFactor
		obj.Position = obj.Position.add(away.scale(spec.FleeSpeed)).clamped(w.config.WorldExtent)
	}
}

func (w *World) nearestLivingPlayer(pos Vec3) (*playerState, float64) {
	var best *playerState
	bestDist := 0.0
	for _, player := range w.players {
		if !player.Alive {
			continue
		}
		d := distance(pos, player.Position)
		if best == nil || d < bestDist {
			best = player
			bestDist = d
		}
	}
	return best, bestDist
}

// ObjectsSnapshot copies the objects for broadcasting, ordered by id.
func (w *World) objectsSnapshotLocked() []WorldObject {
	objects := make([]WorldObject, 0, len(w.objects))
	for id := uint64(1); id <= w.nextObjectID; id++ {
		if obj, ok := w.objects[id]; ok {
			objects = append(objects, obj.WorldObject)
		}
	}
	return objects
}
