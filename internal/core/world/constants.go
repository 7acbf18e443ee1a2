package world

// Match tuning. Values are load-bearing for balance; change with care.

// Teams
const (
	TeamSize = 3
	MaxHP    = 100
)

// Round
const (
	RoundTimeSec           = 90.0
	ObjectiveCaptureSec    = 10.0 // hold to win
	CaptureDecayRate       = 0.5  // drain rate multiplier while uncontested
	FreezeTimeSec          = 3.0  // pre-round freeze
	RoundOverDelaySec      = 4.0
	MatchWinScore          = 5
	DefaultObjectiveRadius = 3.0
)

// Movement
const (
	PlayerSpeed      = 5.0 // m/s
	SprintMultiplier = 1.5
	PlayerHeight     = 1.75
	PlayerRadius     = 0.4
	Gravity          = -18.0
	JumpVelocity     = 6.5
	PitchLimit       = 1.45 // radians, human look clamp
)

// Utility
const (
	FragRadius       = 4.5
	FragDamage       = 80.0
	FragFuseSec      = 2.5
	ShortFuseSec     = 0.8 // smoke and stun
	SmokeDurationSec = 12.0
	SmokeRadius      = 3.5
	StunDurationSec  = 2.0
	StunRadiusScale  = 1.5 // of FragRadius
	ThrowSpeed       = 12.0
	ThrowArcUp       = 4.0
	HitFlashDecay    = 2.5 // alpha per second
)

// Bots
const (
	BotVisionRange   = 40.0
	BotVisionDot     = 0.50 // cos(60 deg) FOV half-angle
	BotFOVSlack      = 0.30 // widened awareness beyond the nominal cone
	BotReactionSec   = 0.25
	BotVisionHz      = 10.0
	BotAimNoiseRad   = 0.04
	BotSpeed         = 3.5
	BotWaypointReach = 1.0
	BotEngageMin     = 6.0
	BotEngageMax     = 15.0
	BotRetreatHP     = 25 // below this, fall back if an ally is up
	BotRecoverHP     = 50
)

// Entity caps keep per-frame cost bounded; overflow is a silent drop.
const (
	MaxPawns     = 6 // 3v3
	MaxGrenades  = 16
	MaxSmokes    = 8
	MaxTracers   = 64
	MaxWaypoints = 64
)

const TracerLifeSec = 0.06

// WeaponID identifies one of the five fixed weapon kinds.
type WeaponID uint8

const (
	WeaponPistol WeaponID = iota
	WeaponSMG
	WeaponRifle
	WeaponSniper
	WeaponShotgun
	WeaponCount
)

func (w WeaponID) String() string {
	switch w {
	case WeaponPistol:
		return "pistol"
	case WeaponSMG:
		return "smg"
	case WeaponRifle:
		return "rifle"
	case WeaponSniper:
		return "sniper"
	case WeaponShotgun:
		return "shotgun"
	}
	return "unknown"
}

// WeaponStats is the immutable per-kind weapon definition.
type WeaponStats struct {
	Name          string
	Damage        int     // HP per bullet hit
	MagSize       int
	FireRateRPM   float64 // rounds per minute
	ReloadTimeSec float64
	SpreadRad     float64 // base crosshair spread (radians)
	ADSSpreadMult float64 // multiplier when aiming down sights
	Range         float64 // max raycast range (metres)
	Pellets       int     // shotgun: pellets per shot; else 1
	SemiAuto      bool    // true = one shot per trigger press
}

// WeaponTable is indexed by WeaponID.
var WeaponTable = [WeaponCount]WeaponStats{
	WeaponPistol:  {"Pistol", 35, 12, 300, 1.5, 0.030, 0.40, 80, 1, true},
	WeaponSMG:     {"SMG", 22, 25, 900, 2.0, 0.080, 0.60, 50, 1, false},
	WeaponRifle:   {"Rifle", 30, 30, 600, 2.2, 0.020, 0.30, 150, 1, false},
	WeaponSniper:  {"Sniper", 100, 5, 40, 3.5, 0.005, 0.10, 300, 1, true},
	WeaponShotgun: {"Shotgun", 18, 6, 120, 2.8, 0.200, 0.50, 20, 8, false},
}

// Team tags a pawn's side.
type Team uint8

const (
	TeamAttack Team = iota
	TeamDefend
	TeamNone
)

func (t Team) String() string {
	switch t {
	case TeamAttack:
		return "attack"
	case TeamDefend:
		return "defend"
	}
	return "none"
}

// UtilityID identifies a thrown-utility kind.
type UtilityID uint8

const (
	UtilityFrag UtilityID = iota
	UtilitySmoke
	UtilityStun
)

func (u UtilityID) String() string {
	switch u {
	case UtilityFrag:
		return "frag"
	case UtilitySmoke:
		return "smoke"
	case UtilityStun:
		return "stun"
	}
	return "unknown"
}

// RGBA is a render-only color carried through to snapshots; the simulation
// never reads it.
type RGBA struct {
	R, G, B, A uint8
}

var (
	ColAttack       = RGBA{220, 80, 80, 255}
	ColDefend       = RGBA{80, 150, 220, 255}
	ColFloor        = RGBA{60, 60, 60, 255}
	ColWall         = RGBA{90, 90, 100, 255}
	ColTracerPlayer = RGBA{255, 240, 160, 220}
	ColTracerBot    = RGBA{255, 140, 100, 200}
)
