package world

import "github.com/skirmish/skirmish/internal/core/mathx"

// Snapshot is the read-only per-frame view handed to presentation clients.
// Slices are deep copies; mutating a snapshot never touches the live world.
type Snapshot struct {
	Pawns     [MaxPawns]PawnView `json:"pawns"`
	PlayerID  int                `json:"playerId"`
	Solids    []Solid            `json:"solids"`
	Objective ObjectiveZone      `json:"objective"`
	Grenades  []GrenadeEntity    `json:"grenades"`
	Smokes    []SmokeZone        `json:"smokes"`
	Tracers   []BulletTracer     `json:"tracers"`

	StunAlpha     float64 `json:"stunAlpha"`
	HitFlashAlpha float64 `json:"hitFlashAlpha"`

	RoundState  string  `json:"roundState"`
	RoundTimer  float64 `json:"roundTimer"`
	FreezeTimer float64 `json:"freezeTimer"`
	RoundWinner string  `json:"roundWinner"`
	ScoreAttack int     `json:"scoreAttack"`
	ScoreDefend int     `json:"scoreDefend"`
	RoundNumber int     `json:"roundNumber"`
}

// PawnView is the rendered subset of a pawn.
type PawnView struct {
	ID      int        `json:"id"`
	Team    string     `json:"team"`
	IsBot   bool       `json:"isBot"`
	Alive   bool       `json:"alive"`
	Pos     mathx.Vec3 `json:"pos"`
	Yaw     float64    `json:"yaw"`
	Pitch   float64    `json:"pitch"`
	HP      int        `json:"hp"`
	Weapon  string     `json:"weapon"`
	AmmoMag int        `json:"ammoMag"`
	AmmoRsv int        `json:"ammoReserve"`
	Reload  float64    `json:"reloadTimer"`
	ADS     bool       `json:"ads"`
	Frags   int        `json:"frags"`
	Smokes  int        `json:"smokes"`
	Stuns   int        `json:"stuns"`
}

// TakeSnapshot copies the render-relevant world state.
func (w *World) TakeSnapshot() Snapshot {
	s := Snapshot{
		PlayerID:      w.PlayerID,
		Solids:        append([]Solid(nil), w.Solids...),
		Objective:     w.Objective,
		Grenades:      append([]GrenadeEntity(nil), w.Grenades...),
		Smokes:        append([]SmokeZone(nil), w.Smokes...),
		Tracers:       append([]BulletTracer(nil), w.Tracers...),
		StunAlpha:     w.Stun.Alpha(),
		HitFlashAlpha: w.HitFlashAlpha,
		RoundState:    w.RoundState.String(),
		RoundTimer:    w.RoundTimer,
		FreezeTimer:   w.FreezeTimer,
		RoundWinner:   w.RoundWinner.String(),
		ScoreAttack:   w.ScoreAttack,
		ScoreDefend:   w.ScoreDefend,
		RoundNumber:   w.RoundNumber,
	}
	for i := range w.Pawns {
		p := &w.Pawns[i]
		s.Pawns[i] = PawnView{
			ID:      p.ID,
			Team:    p.Team.String(),
			IsBot:   p.IsBot,
			Alive:   p.Alive,
			Pos:     p.Xform.Pos,
			Yaw:     p.Xform.Yaw,
			Pitch:   p.Xform.Pitch,
			HP:      p.HP,
			Weapon:  p.Weapon.ID.String(),
			AmmoMag: p.Weapon.AmmoMag,
			AmmoRsv: p.Weapon.AmmoReserve,
			Reload:  p.Weapon.ReloadTimer,
			ADS:     p.Weapon.ADS,
			Frags:   p.FragCount,
			Smokes:  p.SmokeCount,
			Stuns:   p.StunCount,
		}
	}
	return s
}
