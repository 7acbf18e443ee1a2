// Package weapons resolves hitscan weapon fire and thrown utility items.
package weapons

import (
	"math"
	"math/rand"

	"github.com/skirmish/skirmish/internal/core/events/bus"
	"github.com/skirmish/skirmish/internal/core/mathx"
	"github.com/skirmish/skirmish/internal/core/physics"
	"github.com/skirmish/skirmish/internal/core/world"
)

// ApplySpread samples a randomized direction within a cone of half-angle
// spreadRad around dir.
func ApplySpread(dir mathx.Vec3, spreadRad float64, rng *rand.Rand) mathx.Vec3 {
	if spreadRad <= 0 {
		return dir
	}
	theta := rng.Float64() * 2 * math.Pi
	phi := rng.Float64() * spreadRad

	up := mathx.V3(0, 1, 0)
	right := dir.Cross(up).Normalize()
	if right.LengthSqr() < 1e-4 {
		right = mathx.V3(1, 0, 0)
	}
	up2 := right.Cross(dir)
	offset := right.Scale(math.Cos(theta) * math.Sin(phi)).
		Add(up2.Scale(math.Sin(theta) * math.Sin(phi)))
	return dir.Add(offset).Normalize()
}

// ShotResult is the per-pellet trace outcome.
type ShotResult struct {
	HitPawn   bool
	HitPawnID int
	EndPoint  mathx.Vec3
}

// FireRay casts one pellet from origin along direction and returns the
// nearest of geometry or a living pawn's bounding box, excluding the shooter.
func FireRay(w *world.World, origin, direction mathx.Vec3, maxRange float64, shooterID int) ShotResult {
	result := ShotResult{HitPawnID: -1}

	geom := physics.RaycastSolids(origin, direction, maxRange, w.Solids)
	bestDist := maxRange
	if geom.Hit {
		bestDist = geom.Distance
	}

	bestID := -1
	for i := range w.Pawns {
		p := &w.Pawns[i]
		if !p.Alive || i == shooterID {
			continue
		}
		if t, ok := physics.RayAABB(origin, direction, p.BBox()); ok && t < bestDist {
			bestDist = t
			bestID = i
		}
	}

	if bestID >= 0 {
		result.HitPawn = true
		result.HitPawnID = bestID
		result.EndPoint = origin.Add(direction.Scale(bestDist))
		return result
	}
	if geom.Hit {
		result.EndPoint = geom.Point
	} else {
		result.EndPoint = origin.Add(direction.Scale(maxRange))
	}
	return result
}

// Fire attempts a full weapon discharge for the given pawn: ammo and cooldown
// bookkeeping, pellet spread, damage, tracers, and the auto-reload on an
// emptied magazine. Returns false when firing is not currently permitted.
func Fire(w *world.World, shooterID int, rng *rand.Rand, events *bus.Bus) bool {
	shooter := &w.Pawns[shooterID]
	ws := &shooter.Weapon
	if !ws.CanFire() {
		return false
	}

	st := ws.Stats()
	ws.AmmoMag--
	ws.FireCooldown = 60.0 / st.FireRateRPM

	events.Publish(bus.WeaponFired{PawnID: shooterID, Weapon: ws.ID})

	spread := st.SpreadRad
	if ws.ADS {
		spread *= st.ADSSpreadMult
	}
	eye := shooter.EyePos()
	look := shooter.LookDir()

	tracerCol := world.ColTracerBot
	if shooterID == w.PlayerID {
		tracerCol = world.ColTracerPlayer
	}

	for p := 0; p < st.Pellets; p++ {
		dir := ApplySpread(look, spread, rng)
		sr := FireRay(w, eye, dir, st.Range, shooterID)

		if sr.HitPawn {
			target := &w.Pawns[sr.HitPawnID]
			target.ApplyDamage(st.Damage)
			if sr.HitPawnID == w.PlayerID {
				w.HitFlashAlpha = 1.0
			}
		}

		w.AddTracer(world.BulletTracer{
			Origin:  eye,
			End:     sr.EndPoint,
			LifeSec: world.TracerLifeSec,
			Color:   tracerCol,
		})
	}

	if ws.AmmoMag == 0 && ws.AmmoReserve > 0 {
		ws.ReloadTimer = st.ReloadTimeSec
	}
	return true
}

// StartReload begins a manual reload. It refuses while already reloading,
// with a full magazine, or with no reserve left.
func StartReload(ws *world.WeaponState) bool {
	st := ws.Stats()
	if ws.ReloadTimer > 0 || ws.AmmoMag >= st.MagSize || ws.AmmoReserve <= 0 {
		return false
	}
	ws.ReloadTimer = st.ReloadTimeSec
	return true
}

// Tick advances the cooldown and reload countdowns. When a reload completes,
// ammo transfers from reserve up to magazine capacity.
func Tick(ws *world.WeaponState, dt float64) {
	if ws.FireCooldown > 0 {
		ws.FireCooldown -= dt
	}
	if ws.ReloadTimer > 0 {
		ws.ReloadTimer -= dt
		if ws.ReloadTimer <= 0 {
			st := ws.Stats()
			need := st.MagSize - ws.AmmoMag
			take := min(need, ws.AmmoReserve)
			ws.AmmoMag += take
			ws.AmmoReserve -= take
		}
	}
}

// ThrowUtility consumes one charge of the requested kind and spawns the
// grenade at the thrower's eye with an upward arc. It reports failure with
// the charge untouched when no charge remains or the grenade list is full.
func ThrowUtility(w *world.World, throwerID int, kind world.UtilityID) bool {
	thrower := &w.Pawns[throwerID]

	var count *int
	switch kind {
	case world.UtilityFrag:
		count = &thrower.FragCount
	case world.UtilitySmoke:
		count = &thrower.SmokeCount
	default:
		count = &thrower.StunCount
	}
	if *count <= 0 {
		return false
	}

	fuse := world.ShortFuseSec
	if kind == world.UtilityFrag {
		fuse = world.FragFuseSec
	}
	vel := thrower.LookDir().Scale(world.ThrowSpeed)
	vel.Y += world.ThrowArcUp

	if !w.AddGrenade(world.GrenadeEntity{
		Kind:      kind,
		Pos:       thrower.EyePos(),
		Vel:       vel,
		FuseTimer: fuse,
		OwnerID:   throwerID,
	}) {
		return false
	}
	*count--
	return true
}
