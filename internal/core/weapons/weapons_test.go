package weapons

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skirmish/skirmish/internal/core/events/bus"
	"github.com/skirmish/skirmish/internal/core/mathx"
	"github.com/skirmish/skirmish/internal/core/world"
)

func testWorld() *world.World {
	w := world.New()
	for i := range w.Pawns {
		w.Pawns[i].ID = i
		w.Pawns[i].HP = world.MaxHP
	}
	// Shooter at the origin looking down +Z, one enemy 10m ahead.
	w.Pawns[0].Alive = true
	w.Pawns[0].Team = world.TeamAttack
	w.Pawns[0].Weapon = world.NewWeaponState(world.WeaponPistol, 3)

	w.Pawns[3].Alive = true
	w.Pawns[3].Team = world.TeamDefend
	w.Pawns[3].Xform.Pos = mathx.V3(0, 0, 10)
	return w
}

func rng() *rand.Rand { return rand.New(rand.NewSource(1)) }

func TestFireHitsEnemyAndConsumesAmmo(t *testing.T) {
	w := testWorld()
	r := rng()

	ok := Fire(w, 0, r, nil)
	require.True(t, ok)

	assert.Equal(t, 11, w.Pawns[0].Weapon.AmmoMag)
	assert.InDelta(t, 60.0/300.0, w.Pawns[0].Weapon.FireCooldown, 1e-9)
	assert.Equal(t, world.MaxHP-35, w.Pawns[3].HP)
	assert.Len(t, w.Tracers, 1)
}

func TestFireKillsAtZeroHP(t *testing.T) {
	w := testWorld()
	w.Pawns[3].HP = 35

	Fire(w, 0, rng(), nil)

	assert.Equal(t, 0, w.Pawns[3].HP)
	assert.False(t, w.Pawns[3].Alive)
}

func TestFireBlockedWhileReloadingOrCoolingOrEmpty(t *testing.T) {
	w := testWorld()
	w.Pawns[0].Weapon.ReloadTimer = 1
	assert.False(t, Fire(w, 0, rng(), nil))

	w.Pawns[0].Weapon.ReloadTimer = 0
	w.Pawns[0].Weapon.FireCooldown = 0.2
	assert.False(t, Fire(w, 0, rng(), nil))

	w.Pawns[0].Weapon.FireCooldown = 0
	w.Pawns[0].Weapon.AmmoMag = 0
	assert.False(t, Fire(w, 0, rng(), nil))

	assert.Equal(t, world.MaxHP, w.Pawns[3].HP)
}

func TestFirePublishesDischargeEvent(t *testing.T) {
	w := testWorld()
	b := bus.New()
	var fired []bus.WeaponFired
	b.Subscribe(bus.TopicWeaponFired, func(e bus.Event) {
		fired = append(fired, e.(bus.WeaponFired))
	})

	Fire(w, 0, rng(), b)

	require.Len(t, fired, 1)
	assert.Equal(t, 0, fired[0].PawnID)
	assert.Equal(t, world.WeaponPistol, fired[0].Weapon)
}

func TestFireGeometryBlocksPawnHit(t *testing.T) {
	w := testWorld()
	w.Solids = []world.Solid{{Bounds: mathx.AABB{
		Min: mathx.V3(-2, 0, 4), Max: mathx.V3(2, 3, 5),
	}}}

	Fire(w, 0, rng(), nil)

	assert.Equal(t, world.MaxHP, w.Pawns[3].HP)
	// Tracer ends at the wall, not the full range.
	require.Len(t, w.Tracers, 1)
	assert.Less(t, w.Tracers[0].End.Z, 6.0)
}

func TestFireHitFlashOnHumanTarget(t *testing.T) {
	w := testWorld()
	// Defender shoots the human pawn.
	w.Pawns[3].Weapon = world.NewWeaponState(world.WeaponPistol, 3)
	w.Pawns[3].Xform.Yaw = math.Pi // look back down -Z

	Fire(w, 3, rng(), nil)

	assert.Equal(t, 1.0, w.HitFlashAlpha)
	assert.Equal(t, world.MaxHP-35, w.Pawns[0].HP)
}

func TestAutoReloadOnEmptyMagazine(t *testing.T) {
	w := testWorld()
	w.Pawns[0].Weapon.AmmoMag = 1

	Fire(w, 0, rng(), nil)

	assert.Equal(t, 0, w.Pawns[0].Weapon.AmmoMag)
	assert.Equal(t, world.WeaponTable[world.WeaponPistol].ReloadTimeSec, w.Pawns[0].Weapon.ReloadTimer)
}

func TestShotgunFiresPellets(t *testing.T) {
	w := testWorld()
	w.Pawns[0].Weapon = world.NewWeaponState(world.WeaponShotgun, 3)

	Fire(w, 0, rng(), nil)

	assert.Len(t, w.Tracers, 8)
	assert.Equal(t, 5, w.Pawns[0].Weapon.AmmoMag)
}

func TestTracerCapDropsOldest(t *testing.T) {
	w := testWorld()
	for i := 0; i < world.MaxTracers; i++ {
		w.AddTracer(world.BulletTracer{LifeSec: 1})
	}

	Fire(w, 0, rng(), nil)

	assert.Len(t, w.Tracers, world.MaxTracers)
	assert.Equal(t, world.TracerLifeSec, w.Tracers[world.MaxTracers-1].LifeSec)
}

func TestTickCompletesReload(t *testing.T) {
	ws := world.NewWeaponState(world.WeaponRifle, 3)
	ws.AmmoMag = 3
	ws.ReloadTimer = 0.1

	Tick(&ws, 0.2)

	assert.LessOrEqual(t, ws.ReloadTimer, 0.0)
	assert.Equal(t, 30, ws.AmmoMag)
	assert.Equal(t, 63, ws.AmmoReserve)
}

func TestTickReloadLimitedByReserve(t *testing.T) {
	ws := world.NewWeaponState(world.WeaponRifle, 1)
	ws.AmmoMag = 3
	ws.AmmoReserve = 10
	ws.ReloadTimer = 0.1

	Tick(&ws, 0.2)

	assert.Equal(t, 13, ws.AmmoMag)
	assert.Equal(t, 0, ws.AmmoReserve)
}

func TestStartReloadRefusals(t *testing.T) {
	ws := world.NewWeaponState(world.WeaponRifle, 3)
	assert.False(t, StartReload(&ws), "full magazine")

	ws.AmmoMag = 10
	ws.ReloadTimer = 0.5
	assert.False(t, StartReload(&ws), "already reloading")

	ws.ReloadTimer = 0
	ws.AmmoReserve = 0
	assert.False(t, StartReload(&ws), "no reserve")

	ws.AmmoReserve = 30
	assert.True(t, StartReload(&ws))
	assert.Equal(t, world.WeaponTable[world.WeaponRifle].ReloadTimeSec, ws.ReloadTimer)
}

func TestThrowUtility(t *testing.T) {
	w := testWorld()
	w.Pawns[0].FragCount = 1

	assert.True(t, ThrowUtility(w, 0, world.UtilityFrag))
	assert.Equal(t, 0, w.Pawns[0].FragCount)
	assert.Len(t, w.Grenades, 1)
	assert.Equal(t, world.FragFuseSec, w.Grenades[0].FuseTimer)
	assert.Positive(t, w.Grenades[0].Vel.Y)

	// No charge left: refuse, count unchanged.
	assert.False(t, ThrowUtility(w, 0, world.UtilityFrag))
	assert.Equal(t, 0, w.Pawns[0].FragCount)
	assert.Len(t, w.Grenades, 1)
}

func TestThrowUtilityShortFuseForSmoke(t *testing.T) {
	w := testWorld()
	w.Pawns[0].SmokeCount = 1

	require.True(t, ThrowUtility(w, 0, world.UtilitySmoke))
	require.Len(t, w.Grenades, 1)
	assert.Equal(t, world.ShortFuseSec, w.Grenades[0].FuseTimer)
}

func TestThrowUtilityCapacityDropKeepsCharge(t *testing.T) {
	w := testWorld()
	w.Pawns[0].StunCount = 1
	for i := 0; i < world.MaxGrenades; i++ {
		w.AddGrenade(world.GrenadeEntity{})
	}

	assert.False(t, ThrowUtility(w, 0, world.UtilityStun))
	assert.Equal(t, 1, w.Pawns[0].StunCount)
}

func TestApplySpreadStaysWithinCone(t *testing.T) {
	r := rng()
	dir := mathx.V3(0, 0, 1)
	for i := 0; i < 200; i++ {
		out := ApplySpread(dir, 0.2, r)
		assert.InDelta(t, 1.0, out.Length(), 1e-9)
		angle := math.Acos(mathx.Clamp(out.Dot(dir), -1, 1))
		assert.LessOrEqual(t, angle, 0.21)
	}
}
