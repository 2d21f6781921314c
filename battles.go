package server

import (
	"context"
	"sort"
	"strings"
	"time"

	"stellar-salvage/server/logging"
	loggingcombat "stellar-salvage/server/logging/combat"
)

// battleState tracks one active proximity battle. The signature (the sorted,
// hyphen-joined participant ids) is both the identity and the map key, so an
// unchanged member set survives across ticks with its original start time.
type battleState struct {
	signature    string
	participants []string
	victimID     string
	startedAt    time.Time
}

func battleSignature(ids []string) string {
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)
	return strings.Join(sorted, "-")
}

// runBattlePass executes one full state-machine sweep: formation for new
// mutual clusters, dissolution for member sets that no longer reproduce, and
// resolution for battles whose countdown elapsed.
func (w *World) runBattlePass(now time.Time) {
	if !w.config.ProximityBattlesEnabled {
		return
	}

	seen := make(map[string]bool)
	claimed := make(map[string]bool)
	for _, id := range w.sortedLivingIDs() {
		if claimed[id] {
			continue
		}
		members := w.mutualClusterFor(id, claimed)
		if len(members) < 2 {
			continue
		}
		for _, member := range members {
			claimed[member] = true
		}
		sig := battleSignature(members)
		seen[sig] = true
		if _, exists := w.battles[sig]; !exists {
			w.formBattle(sig, members, now)
		}
	}

	for _, sig := range w.sortedBattleSignatures() {
		battle := w.battles[sig]
		if !seen[sig] {
			w.dissolveBattle(battle, "separated")
			continue
		}
		if now.Sub(battle.startedAt) >= w.config.proximityKillTime() {
			w.resolveBattle(battle, now)
		}
	}
}

// mutualClusterFor grows a pairwise-mutual member set around the focal
// player, considering unclaimed living players in id order. A candidate
// joins only when it is within the kill distance of every member already in,
// so every member pair of the resulting set is mutually in range.
func (w *World) mutualClusterFor(focalID string, claimed map[string]bool) []string {
	members := []string{focalID}
	for _, otherID := range w.sortedLivingIDs() {
		if otherID == focalID || claimed[otherID] {
			continue
		}
		other := w.players[otherID]
		mutual := true
		for _, memberID := range members {
			if distance(w.players[memberID].Position, other.Position) > w.config.ProximityKillDistance {
				mutual = false
				break
			}
		}
		if mutual {
			members = append(members, otherID)
		}
	}
	return members
}

// formBattle captures the member with the highest radiation as the
// designated victim and notifies every member of the countdown deadline.
func (w *World) formBattle(sig string, members []string, now time.Time) {
	sorted := append([]string(nil), members...)
	sort.Strings(sorted)

	victimID := ""
	victimLevel := -1.0
	for _, id := range sorted {
		state := w.players[id]
		if state.RadiationLevel > victimLevel {
			victimID = id
			victimLevel = state.RadiationLevel
		}
	}

	battle := &battleState{
		signature:    sig,
		participants: sorted,
		victimID:     victimID,
		startedAt:    now,
	}
	w.battles[sig] = battle

	deadline := now.Add(w.config.proximityKillTime())
	for _, id := range sorted {
		w.queueUnicast(id, proximityBattleStartEvent{
			Type:         "proximityBattleStart",
			Signature:    sig,
			Participants: sorted,
			VictimID:     victimID,
			DeadlineMs:   deadline.UnixMilli(),
		})
	}

	loggingcombat.BattleStarted(context.Background(), w.publisher, w.currentTick,
		w.entityRefs(sorted),
		loggingcombat.BattlePayload{Signature: sig, Participants: sorted, VictimID: victimID},
		nil)
}

// dissolveBattle removes the battle and notifies every member still known to
// the registry.
func (w *World) dissolveBattle(battle *battleState, reason string) {
	delete(w.battles, battle.signature)
	for _, id := range battle.participants {
		if _, ok := w.players[id]; !ok {
			continue
		}
		w.queueUnicast(id, proximityBattleEndEvent{
			Type:      "proximityBattleEnd",
			Signature: battle.signature,
			Reason:    reason,
		})
	}

	loggingcombat.BattleEnded(context.Background(), w.publisher, w.currentTick,
		w.entityRefs(battle.participants),
		loggingcombat.BattlePayload{
			Signature:    battle.signature,
			Participants: battle.participants,
			VictimID:     battle.victimID,
			Reason:       reason,
		}, nil)
}

// resolveBattle executes the elimination once the countdown elapses. A
// victim that already died from another cause still removes the battle but
// awards no kill credit.
func (w *World) resolveBattle(battle *battleState, now time.Time) {
	delete(w.battles, battle.signature)
	w.battlesResolved++

	victim, ok := w.players[battle.victimID]
	if !ok || !victim.Alive {
		for _, id := range battle.participants {
			if _, present := w.players[id]; !present {
				continue
			}
			w.queueUnicast(id, proximityBattleEndEvent{
				Type:      "proximityBattleEnd",
				Signature: battle.signature,
				Reason:    "resolved",
			})
		}
		return
	}

	var killers []string
	for _, id := range battle.participants {
		if id == battle.victimID {
			continue
		}
		state, present := w.players[id]
		if !present || !state.Alive {
			continue
		}
		state.Stats.Kills++
		state.Score += w.config.KillScoreBonus
		killers = append(killers, id)
	}

	w.killPlayer(victim, "proximityBattle", now)
	w.queueBroadcast(proximityKillEvent{
		Type:       "proximityKill",
		Signature:  battle.signature,
		VictimID:   battle.victimID,
		Killers:    killers,
		ScoreBonus: w.config.KillScoreBonus,
	})

	loggingcombat.ProximityKill(context.Background(), w.publisher, w.currentTick,
		w.entityRef(battle.victimID),
		loggingcombat.ProximityKillPayload{
			Signature:  battle.signature,
			KillerIDs:  killers,
			ScoreBonus: w.config.KillScoreBonus,
		}, nil)
}

// purgeBattlesFor dissolves every battle a removed player was party to, so
// no battle ever references a player missing from the registry.
func (w *World) purgeBattlesFor(id string, now time.Time) {
	for _, sig := range w.sortedBattleSignatures() {
		battle := w.battles[sig]
		for _, member := range battle.participants {
			if member == id {
				w.dissolveBattle(battle, "participantLeft")
				break
			}
		}
	}
}

func (w *World) entityRefs(ids []string) []logging.EntityRef {
	refs := make([]logging.EntityRef, 0, len(ids))
	for _, id := range ids {
		refs = append(refs, w.entityRef(id))
	}
	return refs
}

func (w *World) sortedLivingIDs() []string {
	ids := make([]string, 0, len(w.players))
	for id, state := range w.players {
		if state.Alive {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

func (w *World) sortedBattleSignatures() []string {
	sigs := make([]string, 0, len(w.battles))
	for sig := range w.battles {
		sigs = append(sigs, sig)
	}
	sort.Strings(sigs)
	return sigs
}
