// Package physics resolves pawn movement against static level geometry and
// answers the ray queries the rest of the simulation is built on.
package physics

import (
	"github.com/skirmish/skirmish/internal/core/mathx"
	"github.com/skirmish/skirmish/internal/core/world"
)

// Skin keeps a resolved box from starting the next frame exactly flush
// against geometry, avoiding jitter from repeated boundary contact.
const Skin = 0.001

// groundSnapThreshold classifies a shallow upward push as ground contact
// even on solids not flagged as floor (crate tops, low cover).
const groundSnapThreshold = 0.1

func pawnBox(pos mathx.Vec3) mathx.AABB {
	return mathx.AABB{
		Min: mathx.V3(pos.X-world.PlayerRadius-Skin, pos.Y-Skin, pos.Z-world.PlayerRadius-Skin),
		Max: mathx.V3(pos.X+world.PlayerRadius+Skin, pos.Y+world.PlayerHeight+Skin, pos.Z+world.PlayerRadius+Skin),
	}
}

// lateralObstacle reports whether a solid can block horizontal movement at
// the pawn's current height. The solid a pawn stands on (and anything ending
// within step height of the feet) resolves on the Y pass only; without this
// the skin-deep foot contact would read as a lateral collision and eject a
// grounded pawn to the solid's far edge. Skin contact at the head is the
// same situation mirrored.
func lateralObstacle(pos mathx.Vec3, b mathx.AABB) bool {
	if b.Max.Y <= pos.Y+groundSnapThreshold {
		return false
	}
	return b.Min.Y < pos.Y+world.PlayerHeight
}

// verticalObstacle reports whether a solid sits over or under the pawn's
// actual footprint. A wall the pawn stands flush against touches the
// inflated box only through the skin; letting the Y pass resolve it would
// shove the pawn down its full height and eat jumps.
func verticalObstacle(pos mathx.Vec3, b mathx.AABB) bool {
	return b.Min.X < pos.X+world.PlayerRadius && b.Max.X > pos.X-world.PlayerRadius &&
		b.Min.Z < pos.Z+world.PlayerRadius && b.Max.Z > pos.Z-world.PlayerRadius
}

// Sweep advances pos by vel*dt against the solid list and returns the
// corrected position, the corrected velocity (collided components zeroed) and
// whether the entity ended the step resting on a floor surface.
//
// Movement is resolved per axis in the fixed order X, Z, Y rather than as one
// combined step, so an entity cannot catch the corner where two solids meet.
func Sweep(pos, vel mathx.Vec3, dt float64, solids []world.Solid) (mathx.Vec3, mathx.Vec3, bool) {
	onGround := false
	delta := vel.Scale(dt)

	// X axis
	pos.X += delta.X
	for i := range solids {
		b := solids[i].Bounds
		if !lateralObstacle(pos, b) || !pawnBox(pos).Overlaps(b) {
			continue
		}
		out := b.Max.X - (pos.X - world.PlayerRadius) + Skin
		in := (pos.X + world.PlayerRadius) - b.Min.X + Skin
		if out < in {
			pos.X += out
		} else {
			pos.X -= in
		}
		vel.X = 0
	}

	// Z axis
	pos.Z += delta.Z
	for i := range solids {
		b := solids[i].Bounds
		if !lateralObstacle(pos, b) || !pawnBox(pos).Overlaps(b) {
			continue
		}
		out := b.Max.Z - (pos.Z - world.PlayerRadius) + Skin
		in := (pos.Z + world.PlayerRadius) - b.Min.Z + Skin
		if out < in {
			pos.Z += out
		} else {
			pos.Z -= in
		}
		vel.Z = 0
	}

	// Y axis; an upward push means the feet were inside the solid, which is
	// how standing on geometry presents after the gravity step.
	pos.Y += delta.Y
	for i := range solids {
		b := solids[i].Bounds
		if !verticalObstacle(pos, b) || !pawnBox(pos).Overlaps(b) {
			continue
		}
		up := b.Max.Y - pos.Y + Skin
		down := (pos.Y + world.PlayerHeight) - b.Min.Y + Skin
		if up < down {
			pos.Y += up
			if solids[i].IsFloor || up < groundSnapThreshold {
				onGround = true
			}
		} else {
			pos.Y -= down
		}
		vel.Y = 0
	}

	// Hard safety net: never fall through the world floor.
	if pos.Y < 0 {
		pos.Y = 0
		vel.Y = 0
		onGround = true
	}

	return pos, vel, onGround
}
