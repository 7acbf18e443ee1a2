package world

import (
	"math"

	"github.com/skirmish/skirmish/internal/core/mathx"
)

// Transform is a position plus look orientation.
type Transform struct {
	Pos   mathx.Vec3
	Yaw   float64 // horizontal look (radians)
	Pitch float64 // vertical look
}

// WeaponState is the mutable per-pawn weapon instance.
type WeaponState struct {
	ID           WeaponID
	AmmoMag      int
	AmmoReserve  int
	ReloadTimer  float64 // > 0 while reloading
	FireCooldown float64 // time until next shot allowed
	ADS          bool
}

// Stats returns the immutable definition for the equipped weapon.
func (w WeaponState) Stats() WeaponStats { return WeaponTable[w.ID] }

// CanFire reports whether a shot is currently permitted.
func (w WeaponState) CanFire() bool {
	return w.FireCooldown <= 0 && w.ReloadTimer <= 0 && w.AmmoMag > 0
}

// NewWeaponState equips a weapon kind with a full magazine and the given
// number of reserve magazines.
func NewWeaponState(id WeaponID, reserveMags int) WeaponState {
	st := WeaponTable[id]
	return WeaponState{
		ID:          id,
		AmmoMag:     st.MagSize,
		AmmoReserve: st.MagSize * reserveMags,
	}
}

// Pawn is one combatant, human- or AI-controlled. Pawns are never removed
// mid-match; elimination is Alive=false.
type Pawn struct {
	ID    int
	Team  Team
	IsBot bool
	Alive bool

	Xform    Transform
	Velocity mathx.Vec3
	OnGround bool

	HP int

	Weapon WeaponState

	// Utility charges; each pawn starts the round with 1 of each.
	FragCount  int
	SmokeCount int
	StunCount  int
}

// BBox returns the pawn's collision box from the fixed radius and height.
func (p Pawn) BBox() mathx.AABB {
	r := p.Xform.Pos
	return mathx.AABB{
		Min: mathx.V3(r.X-PlayerRadius, r.Y, r.Z-PlayerRadius),
		Max: mathx.V3(r.X+PlayerRadius, r.Y+PlayerHeight, r.Z+PlayerRadius),
	}
}

// EyePos returns the camera/muzzle origin.
func (p Pawn) EyePos() mathx.Vec3 {
	return mathx.V3(p.Xform.Pos.X, p.Xform.Pos.Y+PlayerHeight*0.9, p.Xform.Pos.Z)
}

// LookDir returns the unit look vector derived from yaw and pitch.
func (p Pawn) LookDir() mathx.Vec3 {
	return mathx.V3(
		math.Cos(p.Xform.Pitch)*math.Sin(p.Xform.Yaw),
		math.Sin(p.Xform.Pitch),
		math.Cos(p.Xform.Pitch)*math.Cos(p.Xform.Yaw),
	)
}

// TorsoPos returns the aim point bots target.
func (p Pawn) TorsoPos() mathx.Vec3 {
	return p.Xform.Pos.Add(mathx.V3(0, PlayerHeight*0.6, 0))
}

// ApplyDamage subtracts dmg from HP, clamping at zero and flipping Alive.
func (p *Pawn) ApplyDamage(dmg int) {
	p.HP -= dmg
	if p.HP <= 0 {
		p.HP = 0
		p.Alive = false
	}
}

// Solid is one immutable piece of level geometry.
type Solid struct {
	Bounds  mathx.AABB
	Color   RGBA
	IsFloor bool
}

// Waypoint is one node of the undirected bot navigation graph.
type Waypoint struct {
	Pos        mathx.Vec3
	Neighbours []int // indices into World.Waypoints
}

// ObjectiveZone is the capturable area the attacking team must hold.
type ObjectiveZone struct {
	Pos             mathx.Vec3
	Radius          float64
	CaptureProgress float64 // 0 .. ObjectiveCaptureSec
	Captured        bool    // terminal once set
}

// GrenadeEntity is a thrown utility item in flight. All three kinds share it.
type GrenadeEntity struct {
	Kind      UtilityID
	Pos       mathx.Vec3
	Vel       mathx.Vec3
	FuseTimer float64 // seconds until detonation
	Detonated bool
	OwnerID   int
}

// SmokeZone is the persistent occlusion sphere a smoke grenade leaves behind.
type SmokeZone struct {
	Pos      mathx.Vec3
	Radius   float64
	LifeLeft float64
}

// BulletTracer is a transient visual record of one pellet's flight; it has
// no gameplay effect.
type BulletTracer struct {
	Origin  mathx.Vec3
	End     mathx.Vec3
	LifeSec float64
	Color   RGBA
}

// StunState is the global screen-overlay effect applied to the human pawn.
type StunState struct {
	TimeLeft float64
	Peak     float64
}

// Alpha returns the current overlay intensity in [0,1].
func (s StunState) Alpha() float64 {
	if s.TimeLeft <= 0 || s.Peak <= 0 {
		return 0
	}
	return s.TimeLeft / s.Peak
}
