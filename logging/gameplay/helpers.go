package gameplay

import (
	"context"

	"stellar-salvage/server/logging"
)

const (
	// EventCollected is emitted when a player secures an object.
	EventCollected logging.EventType = "gameplay.collected"
	// EventStolen is emitted when a closer rival takes the object instead.
	EventStolen logging.EventType = "gameplay.stolen"
	// EventObjectsRespawned is emitted when the respawn sweep restores objects.
	EventObjectsRespawned logging.EventType = "gameplay.objects_respawned"
)

// CollectedPayload captures the reward granted for a collection.
type CollectedPayload struct {
	ObjectType string  `json:"objectType"`
	Points     int     `json:"points"`
	Distance   float64 `json:"distance"`
}

// StolenPayload captures both sides of a contested collection.
type StolenPayload struct {
	ObjectType     string  `json:"objectType"`
	Points         int     `json:"points"`
	ActorDistance  float64 `json:"actorDistance"`
	WinnerDistance float64 `json:"winnerDistance"`
}

// RespawnPayload counts how many objects came back in one sweep.
type RespawnPayload struct {
	Count int `json:"count"`
}

// Collected publishes a successful collection event.
func Collected(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, target logging.EntityRef, payload CollectedPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventCollected,
		Tick:     tick,
		Actor:    actor,
		Targets:  []logging.EntityRef{target},
		Severity: logging.SeverityInfo,
		Category: logging.CategoryGameplay,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}

// Stolen publishes a theft event. Actor is the thief, targets are the
// contested object and the losing player.
func Stolen(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, targets []logging.EntityRef, payload StolenPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventStolen,
		Tick:     tick,
		Actor:    actor,
		Targets:  targets,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryGameplay,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}

// ObjectsRespawned publishes a respawn sweep summary.
func ObjectsRespawned(ctx context.Context, pub logging.Publisher, tick uint64, payload RespawnPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventObjectsRespawned,
		Tick:     tick,
		Actor:    logging.EntityRef{Kind: logging.EntityKindWorld},
		Severity: logging.SeverityInfo,
		Category: logging.CategoryGameplay,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}
