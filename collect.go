package server

import (
	"context"
	"sort"
	"strconv"
	"time"

	"stellar-salvage/server/logging"
	logginggameplay "stellar-salvage/server/logging/gameplay"
)

// CollectOutcome reports how a collection attempt resolved. When Stolen is
// true the winner is the closest competitor, not the acting player.
type CollectOutcome struct {
	ObjectID       uint64
	ObjectType     ObjectType
	ActorID        string
	WinnerID       string
	Stolen         bool
	Points         int
	ActorDistance  float64
	WinnerDistance float64
	Competitors    int
}

// competitor pairs a contending player with its distance to the object.
type competitor struct {
	state *playerState
	dist  float64
}

// closerCompetitor is the total-order comparison that decides theft. A
// competitor wins only when strictly closer; a distance tie favors the
// acting player. Ties between competitors break on id so the outcome is
// reproducible.
func closerCompetitor(a, b competitor) bool {
	if a.dist != b.dist {
		return a.dist < b.dist
	}
	return a.state.ID < b.state.ID
}

// attemptCollect resolves one collection attempt atomically with respect to
// every other attempt on the same object: callers hold the hub mutex, so the
// competitor scan and the award see a single consistent position snapshot.
func (w *World) attemptCollect(playerID string, objectID uint64, now time.Time) (CollectOutcome, error) {
	actor, ok := w.players[playerID]
	if !ok {
		return CollectOutcome{}, ErrPlayerNotFound
	}
	if !actor.Alive {
		return CollectOutcome{}, ErrPlayerDead
	}
	obj, ok := w.objects[objectID]
	if !ok || !obj.Available {
		return CollectOutcome{}, ErrObjectUnavailable
	}

	spec := obj.spec()
	actorDist := distance(actor.Position, obj.Position)
	if actorDist > spec.CollectRadius {
		return CollectOutcome{}, ErrOutOfRange
	}

	competitors := w.competitorsFor(actor, obj)
	outcome := CollectOutcome{
		ObjectID:      obj.ID,
		ObjectType:    obj.Type,
		ActorID:       actor.ID,
		ActorDistance: actorDist,
		Points:        spec.Points,
		Competitors:   len(competitors),
	}

	if len(competitors) > 0 && competitors[0].dist < actorDist {
		thief := competitors[0]
		outcome.Stolen = true
		outcome.WinnerID = thief.state.ID
		outcome.WinnerDistance = thief.dist
		w.applyTheft(thief.state, actor, obj, now)
		logginggameplay.Stolen(context.Background(), w.publisher, w.currentTick,
			w.entityRef(thief.state.ID),
			[]logging.EntityRef{objectRef(obj.ID), w.entityRef(actor.ID)},
			logginggameplay.StolenPayload{
				ObjectType:     string(obj.Type),
				Points:         spec.Points,
				ActorDistance:  actorDist,
				WinnerDistance: thief.dist,
			}, nil)
		return outcome, nil
	}

	outcome.WinnerID = actor.ID
	outcome.WinnerDistance = actorDist
	w.applyCollection(actor, obj, now)
	logginggameplay.Collected(context.Background(), w.publisher, w.currentTick,
		w.entityRef(actor.ID), objectRef(obj.ID),
		logginggameplay.CollectedPayload{
			ObjectType: string(obj.Type),
			Points:     spec.Points,
			Distance:   actorDist,
		}, nil)
	return outcome, nil
}

func objectRef(id uint64) logging.EntityRef {
	return logging.EntityRef{ID: strconv.FormatUint(id, 10), Kind: logging.EntityKindObject}
}

// competitorsFor enumerates the other living players within the steal radius
// of the object, sorted closest first.
func (w *World) competitorsFor(actor *playerState, obj *objectState) []competitor {
	var out []competitor
	for _, state := range w.players {
		if state.ID == actor.ID || !state.Alive {
			continue
		}
		d := distance(state.Position, obj.Position)
		if d <= w.config.StealRadius {
			out = append(out, competitor{state: state, dist: d})
		}
	}
	sort.Slice(out, func(i, j int) bool { return closerCompetitor(out[i], out[j]) })
	return out
}

// applyCollection rewards a deliberate pickup: points, category counter,
// speed boost, and the portal radiation reduction where the type carries it.
func (w *World) applyCollection(actor *playerState, obj *objectState, now time.Time) {
	spec := obj.spec()
	obj.markCollected(actor.ID, now)

	actor.Score += spec.Points
	switch obj.Type {
	case ObjectDiscovery, ObjectExploding:
		actor.Stats.Discoveries++
	case ObjectRare, ObjectRingPortal:
		actor.Stats.RareItems++
	case ObjectSpaceCreature:
		actor.Stats.Creatures++
	}
	w.grantSpeedBoost(actor, spec.BoostFactor, now)

	if spec.ReducesRadiation {
		span := w.config.PortalReductionMax - w.config.PortalReductionMin
		reduction := w.config.PortalReductionMin + w.rng.Float64()*span
		actor.RadiationLevel = clamp(actor.RadiationLevel-reduction, 0, radiationMax)
	}
}

// applyTheft rewards the intercepting competitor with points, theft credit,
// and the standard speed boost. The thief gets no category counter and no
// portal radiation reduction, since the pickup was opportunistic. The losing
// actor only records the loss.
func (w *World) applyTheft(thief, actor *playerState, obj *objectState, now time.Time) {
	spec := obj.spec()
	obj.markCollected(thief.ID, now)

	thief.Score += spec.Points
	thief.Stats.ResourcesStolen++
	w.grantSpeedBoost(thief, spec.BoostFactor, now)

	actor.Stats.ResourcesLost++
}
