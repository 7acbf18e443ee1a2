// Package round drives the match lifecycle: pre-round freeze, the active
// round clock, objective capture, win-condition checks, scoring, and the
// transition into the next round or the end of the match.
package round

import (
	"github.com/skirmish/skirmish/internal/core/events/bus"
	"github.com/skirmish/skirmish/internal/core/mapdata"
	"github.com/skirmish/skirmish/internal/core/observability/log"
	"github.com/skirmish/skirmish/internal/core/world"
)

// Config overrides the default round timings. Zero fields keep defaults.
type Config struct {
	RoundTime  float64
	FreezeTime float64
	WinScore   int
}

func (c Config) withDefaults() Config {
	if c.RoundTime <= 0 {
		c.RoundTime = world.RoundTimeSec
	}
	if c.FreezeTime <= 0 {
		c.FreezeTime = world.FreezeTimeSec
	}
	if c.WinScore <= 0 {
		c.WinScore = world.MatchWinScore
	}
	return c
}

// Manager owns round and match state transitions. It splits the frame in
// two: Advance runs before gameplay systems and moves timers and lifecycle
// phases; Evaluate runs after them and applies capture progress and win
// conditions to the frame's final state.
type Manager struct {
	cfg    Config
	m      *mapdata.Data
	events *bus.Bus
	lg     log.Log

	// Delay between a round ending and the next one starting (or the
	// match closing out).
	overTimer float64

	onReset func(w *world.World)
}

// NewManager builds a lifecycle manager for one match on the given map.
func NewManager(cfg Config, m *mapdata.Data, events *bus.Bus, lg log.Log) *Manager {
	return &Manager{cfg: cfg.withDefaults(), m: m, events: events, lg: lg}
}

// SetResetHook registers a callback invoked after every round reset, once
// pawns are respawned. The AI controller uses it to clear per-bot state.
func (mgr *Manager) SetResetHook(fn func(w *world.World)) { mgr.onReset = fn }

// StartRound arms the current round: respawns pawns, clears transient
// entities, and enters the freeze phase.
func (mgr *Manager) StartRound(w *world.World) {
	w.Grenades = w.Grenades[:0]
	w.Smokes = w.Smokes[:0]
	w.Tracers = w.Tracers[:0]
	w.Stun = world.StunState{}
	w.HitFlashAlpha = 0

	w.Objective = world.ObjectiveZone{Pos: w.Objective.Pos, Radius: w.Objective.Radius}
	w.RoundState = world.RoundWaiting
	w.RoundTimer = mgr.cfg.RoundTime
	w.FreezeTimer = mgr.cfg.FreezeTime
	w.RoundWinner = world.TeamNone
	mgr.overTimer = 0

	mgr.spawnPawns(w)
	if mgr.onReset != nil {
		mgr.onReset(w)
	}
	mgr.lg.Info("round start",
		log.Int("round", w.RoundNumber),
		log.Int("score_attack", w.ScoreAttack),
		log.Int("score_defend", w.ScoreDefend))
}

// RestartMatch zeroes the scoreboard and starts round one again.
func (mgr *Manager) RestartMatch(w *world.World) {
	w.ScoreAttack = 0
	w.ScoreDefend = 0
	w.RoundNumber = 1
	mgr.lg.Info("match restart")
	mgr.StartRound(w)
}

// Advance moves lifecycle timers and phase transitions. Runs at the top of
// the frame, before any gameplay system.
func (mgr *Manager) Advance(w *world.World, dt float64) {
	switch w.RoundState {
	case world.RoundWaiting:
		w.FreezeTimer -= dt
		if w.FreezeTimer <= 0 {
			w.FreezeTimer = 0
			w.RoundState = world.RoundActive
			mgr.lg.Info("round live", log.Int("round", w.RoundNumber))
		}
	case world.RoundActive:
		w.RoundTimer -= dt
	case world.RoundOver:
		mgr.overTimer -= dt
		if mgr.overTimer <= 0 {
			if w.ScoreAttack >= mgr.cfg.WinScore || w.ScoreDefend >= mgr.cfg.WinScore {
				mgr.endMatch(w)
				return
			}
			w.RoundNumber++
			mgr.StartRound(w)
		}
	case world.MatchOver:
		// Terminal until RestartMatch.
	}
}

// Evaluate applies objective capture and win conditions against the frame's
// final state. Only meaningful while the round is active.
func (mgr *Manager) Evaluate(w *world.World, dt float64) {
	if w.RoundState != world.RoundActive {
		return
	}

	mgr.tickCapture(w, dt)

	// Defend-favoring conditions are checked first: mutual elimination and
	// a defender dying on the timeout frame both go to the defense.
	switch {
	case w.Objective.Captured:
		mgr.endRound(w, world.TeamAttack, "objective captured")
	case !w.TeamAlive(world.TeamAttack):
		mgr.endRound(w, world.TeamDefend, "attackers eliminated")
	case w.RoundTimer <= 0:
		w.RoundTimer = 0
		mgr.endRound(w, world.TeamDefend, "time expired")
	case !w.TeamAlive(world.TeamDefend):
		mgr.endRound(w, world.TeamAttack, "defenders eliminated")
	}
}

// tickCapture accrues capture progress while any living attacker stands in
// the zone and decays it at half rate while the zone is empty. Progress is
// measured on the ground plane.
func (mgr *Manager) tickCapture(w *world.World, dt float64) {
	if w.Objective.Captured {
		return
	}
	contested := false
	for i := range w.Pawns {
		p := &w.Pawns[i]
		if !p.Alive || p.Team != world.TeamAttack {
			continue
		}
		dx := p.Xform.Pos.X - w.Objective.Pos.X
		dz := p.Xform.Pos.Z - w.Objective.Pos.Z
		if dx*dx+dz*dz <= w.Objective.Radius*w.Objective.Radius {
			contested = true
			break
		}
	}
	if contested {
		w.Objective.CaptureProgress += dt
		if w.Objective.CaptureProgress >= world.ObjectiveCaptureSec {
			w.Objective.CaptureProgress = world.ObjectiveCaptureSec
			w.Objective.Captured = true
		}
		return
	}
	w.Objective.CaptureProgress -= dt * world.CaptureDecayRate
	if w.Objective.CaptureProgress < 0 {
		w.Objective.CaptureProgress = 0
	}
}

func (mgr *Manager) endRound(w *world.World, winner world.Team, reason string) {
	w.RoundState = world.RoundOver
	w.RoundWinner = winner
	mgr.overTimer = world.RoundOverDelaySec
	if winner == world.TeamAttack {
		w.ScoreAttack++
	} else {
		w.ScoreDefend++
	}
	mgr.events.Publish(bus.RoundEnded{Winner: winner, Round: w.RoundNumber})
	mgr.lg.Info("round over",
		log.Int("round", w.RoundNumber),
		log.String("winner", winner.String()),
		log.String("reason", reason),
		log.Int("score_attack", w.ScoreAttack),
		log.Int("score_defend", w.ScoreDefend))
}

func (mgr *Manager) endMatch(w *world.World) {
	w.RoundState = world.MatchOver
	mgr.events.Publish(bus.MatchEnded{ScoreAttack: w.ScoreAttack, ScoreDefend: w.ScoreDefend})
	mgr.lg.Info("match over",
		log.Int("score_attack", w.ScoreAttack),
		log.Int("score_defend", w.ScoreDefend))
}

// spawnPawns rebuilds all six pawns from the map's spawn points, cycling
// through each team's points in order. Pawn 0 is the human attacker; the
// rest are bots. Attackers carry rifles, defenders SMGs.
func (mgr *Manager) spawnPawns(w *world.World) {
	var attack, defend []mapdata.SpawnPoint
	for _, sp := range mgr.m.Spawns {
		if sp.Team == world.TeamAttack {
			attack = append(attack, sp)
		} else {
			defend = append(defend, sp)
		}
	}

	w.PlayerID = 0
	for i := range w.Pawns {
		team := world.TeamAttack
		weapon := world.WeaponRifle
		points := attack
		slot := i
		if i >= world.TeamSize {
			team = world.TeamDefend
			weapon = world.WeaponSMG
			points = defend
			slot = i - world.TeamSize
		}

		p := world.Pawn{
			ID:         i,
			Team:       team,
			IsBot:      i != w.PlayerID,
			Alive:      true,
			HP:         world.MaxHP,
			OnGround:   true,
			Weapon:     world.NewWeaponState(weapon, 3),
			FragCount:  1,
			SmokeCount: 1,
			StunCount:  1,
		}
		if len(points) > 0 {
			sp := points[slot%len(points)]
			p.Xform.Pos = sp.Pos
			p.Xform.Pos.Y += 0.01 // settle onto the floor via the first sweep
			p.Xform.Yaw = sp.Yaw
			p.OnGround = false
		}
		w.Pawns[i] = p
	}
}

// OverTimeLeft exposes the remaining post-round delay, for overlays.
func (mgr *Manager) OverTimeLeft() float64 { return mgr.overTimer }
