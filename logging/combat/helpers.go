package combat

import (
	"context"

	"stellar-salvage/server/logging"
)

const (
	// EventPlayerKilled is emitted when a player dies, whatever the cause.
	EventPlayerKilled logging.EventType = "combat.player_killed"
	// EventBattleStarted is emitted when a proximity battle forms.
	EventBattleStarted logging.EventType = "combat.battle_started"
	// EventBattleEnded is emitted when a battle dissolves without a kill.
	EventBattleEnded logging.EventType = "combat.battle_ended"
	// EventProximityKill is emitted when a battle resolves against its victim.
	EventProximityKill logging.EventType = "combat.proximity_kill"
)

// PlayerKilledPayload describes the death and the running death count.
type PlayerKilledPayload struct {
	Cause  string `json:"cause"`
	Deaths int    `json:"deaths"`
}

// BattlePayload identifies a battle by its participant signature.
type BattlePayload struct {
	Signature    string   `json:"signature"`
	Participants []string `json:"participants"`
	VictimID     string   `json:"victimId,omitempty"`
	Reason       string   `json:"reason,omitempty"`
}

// ProximityKillPayload lists who shared the kill credit.
type ProximityKillPayload struct {
	Signature  string   `json:"signature"`
	KillerIDs  []string `json:"killerIds"`
	ScoreBonus int      `json:"scoreBonus"`
}

// PlayerKilled publishes a death event for the given player.
func PlayerKilled(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload PlayerKilledPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventPlayerKilled,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryCombat,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}

// BattleStarted publishes a battle formation event.
func BattleStarted(ctx context.Context, pub logging.Publisher, tick uint64, targets []logging.EntityRef, payload BattlePayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventBattleStarted,
		Tick:     tick,
		Actor:    logging.EntityRef{Kind: logging.EntityKindWorld},
		Targets:  targets,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryCombat,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}

// BattleEnded publishes a battle dissolution event.
func BattleEnded(ctx context.Context, pub logging.Publisher, tick uint64, targets []logging.EntityRef, payload BattlePayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventBattleEnded,
		Tick:     tick,
		Actor:    logging.EntityRef{Kind: logging.EntityKindWorld},
		Targets:  targets,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryCombat,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}

// ProximityKill publishes a battle resolution event against the victim.
func ProximityKill(ctx context.Context, pub logging.Publisher, tick uint64, victim logging.EntityRef, payload ProximityKillPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventProximityKill,
		Tick:     tick,
		Actor:    victim,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryCombat,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}
