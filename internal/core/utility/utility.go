// Package utility advances thrown grenades: ballistic flight, detonation
// effects, and the decay of the transient state detonations leave behind.
package utility

import (
	"github.com/skirmish/skirmish/internal/core/events/bus"
	"github.com/skirmish/skirmish/internal/core/mathx"
	"github.com/skirmish/skirmish/internal/core/physics"
	"github.com/skirmish/skirmish/internal/core/world"
)

const (
	grenadeBounce  = 0.45 // restitution
	grenadeGravity = -18.0
	groundPlaneY   = 0.1
	tangentDamping = 0.8
	grenadeHalf    = 0.1 // collision half-extent
)

// Update advances every live grenade, detonates expired fuses, and decays
// smoke zones, tracers, and the screen-effect timers.
func Update(w *world.World, dt float64, events *bus.Bus) {
	for i := range w.Grenades {
		g := &w.Grenades[i]
		if g.Detonated {
			continue
		}

		g.FuseTimer -= dt

		// Euler integration with a ground-plane bounce.
		g.Vel.Y += grenadeGravity * dt
		g.Pos = g.Pos.Add(g.Vel.Scale(dt))

		if g.Pos.Y < groundPlaneY {
			g.Pos.Y = groundPlaneY
			g.Vel.Y = -g.Vel.Y * grenadeBounce
			g.Vel.X *= tangentDamping
			g.Vel.Z *= tangentDamping
		}

		// Reflective bounce off any solid the grenade box overlaps.
		box := mathx.AABB{
			Min: g.Pos.Sub(mathx.V3(grenadeHalf, grenadeHalf, grenadeHalf)),
			Max: g.Pos.Add(mathx.V3(grenadeHalf, grenadeHalf, grenadeHalf)),
		}
		for s := range w.Solids {
			if box.Overlaps(w.Solids[s].Bounds) {
				g.Vel.X = -g.Vel.X * grenadeBounce
				g.Vel.Z = -g.Vel.Z * grenadeBounce
			}
		}

		if g.FuseTimer <= 0 {
			detonate(w, g, events)
		}
	}

	// Drop detonated grenades.
	live := w.Grenades[:0]
	for _, g := range w.Grenades {
		if !g.Detonated {
			live = append(live, g)
		}
	}
	w.Grenades = live

	// Smoke decay.
	smokes := w.Smokes[:0]
	for _, s := range w.Smokes {
		s.LifeLeft -= dt
		if s.LifeLeft > 0 {
			smokes = append(smokes, s)
		}
	}
	w.Smokes = smokes

	// Tracer decay.
	tracers := w.Tracers[:0]
	for _, t := range w.Tracers {
		t.LifeSec -= dt
		if t.LifeSec > 0 {
			tracers = append(tracers, t)
		}
	}
	w.Tracers = tracers

	// Screen effect timers never go negative.
	if w.Stun.TimeLeft > 0 {
		w.Stun.TimeLeft -= dt
		if w.Stun.TimeLeft < 0 {
			w.Stun.TimeLeft = 0
		}
	}
	if w.HitFlashAlpha > 0 {
		w.HitFlashAlpha = max(0, w.HitFlashAlpha-dt*world.HitFlashDecay)
	}
}

func detonate(w *world.World, g *world.GrenadeEntity, events *bus.Bus) {
	g.Detonated = true
	events.Publish(bus.GrenadeDetonated{Kind: g.Kind, Pos: g.Pos, OwnerID: g.OwnerID})

	switch g.Kind {
	case world.UtilityFrag:
		detonateFrag(w, g.Pos)
	case world.UtilitySmoke:
		w.AddSmoke(world.SmokeZone{
			Pos:      g.Pos,
			Radius:   world.SmokeRadius,
			LifeLeft: world.SmokeDurationSec,
		})
	case world.UtilityStun:
		detonateStun(w, g.Pos)
	}
}

// detonateFrag applies line-of-sight checked damage with linear distance
// falloff: full at the blast point, zero at the radius edge.
func detonateFrag(w *world.World, blast mathx.Vec3) {
	for i := range w.Pawns {
		pawn := &w.Pawns[i]
		if !pawn.Alive {
			continue
		}
		d := mathx.Dist(pawn.Xform.Pos, blast)
		if d > world.FragRadius {
			continue
		}
		if d > 0 {
			hr := physics.RaycastSolids(blast, pawn.Xform.Pos.Sub(blast).Normalize(), d, w.Solids)
			// An obstruction effectively at the pawn's own position does not
			// shield it.
			if hr.Hit && hr.Distance < d-0.1 {
				continue
			}
		}
		falloff := 1.0 - d/world.FragRadius
		pawn.ApplyDamage(int(world.FragDamage * falloff))
		if i == w.PlayerID {
			w.HitFlashAlpha = 1.0
		}
	}
}

// detonateStun applies the stun overlay to the human pawn only; bots carry
// no perceptual impairment model.
func detonateStun(w *world.World, blast mathx.Vec3) {
	for i := range w.Pawns {
		pawn := &w.Pawns[i]
		if !pawn.Alive || pawn.IsBot {
			continue
		}
		if mathx.Dist(pawn.Xform.Pos, blast) > world.FragRadius*world.StunRadiusScale {
			continue
		}
		w.Stun.TimeLeft = world.StunDurationSec
		w.Stun.Peak = world.StunDurationSec
	}
}
