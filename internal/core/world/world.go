package world

// RoundState is the round lifecycle phase.
type RoundState uint8

const (
	RoundWaiting RoundState = iota // pre-round freeze
	RoundActive
	RoundOver
	MatchOver
)

func (s RoundState) String() string {
	switch s {
	case RoundWaiting:
		return "waiting"
	case RoundActive:
		return "active"
	case RoundOver:
		return "round_over"
	case MatchOver:
		return "match_over"
	}
	return "unknown"
}

// World is the single mutable aggregate holding all simulation state for one
// match. Every simulation component reads and writes through it; there is no
// ownership transfer, only scoped access per frame.
type World struct {
	Pawns    [MaxPawns]Pawn
	PlayerID int // index of the human pawn

	Solids    []Solid
	Waypoints []Waypoint
	Objective ObjectiveZone

	Grenades []GrenadeEntity
	Smokes   []SmokeZone
	Tracers  []BulletTracer

	// Screen effects for the human pawn.
	Stun          StunState
	HitFlashAlpha float64

	// Round and match bookkeeping.
	RoundState  RoundState
	RoundTimer  float64
	FreezeTimer float64
	RoundWinner Team
	ScoreAttack int
	ScoreDefend int
	RoundNumber int
}

// New returns an empty world with sane zero-round bookkeeping.
func New() *World {
	return &World{
		RoundState:  RoundWaiting,
		RoundTimer:  RoundTimeSec,
		FreezeTimer: FreezeTimeSec,
		RoundWinner: TeamNone,
		RoundNumber: 1,
		Grenades:    make([]GrenadeEntity, 0, MaxGrenades),
		Smokes:      make([]SmokeZone, 0, MaxSmokes),
		Tracers:     make([]BulletTracer, 0, MaxTracers),
	}
}

// Player returns the human-controlled pawn.
func (w *World) Player() *Pawn { return &w.Pawns[w.PlayerID] }

// TeamAlive reports whether any pawn on team t is still alive.
func (w *World) TeamAlive(t Team) bool {
	for i := range w.Pawns {
		if w.Pawns[i].Team == t && w.Pawns[i].Alive {
			return true
		}
	}
	return false
}

// AliveCount returns the number of living pawns on team t.
func (w *World) AliveCount(t Team) int {
	n := 0
	for i := range w.Pawns {
		if w.Pawns[i].Team == t && w.Pawns[i].Alive {
			n++
		}
	}
	return n
}

// AddTracer appends a tracer, silently dropping the oldest once the cap is
// reached.
func (w *World) AddTracer(t BulletTracer) {
	if len(w.Tracers) >= MaxTracers {
		copy(w.Tracers, w.Tracers[1:])
		w.Tracers[len(w.Tracers)-1] = t
		return
	}
	w.Tracers = append(w.Tracers, t)
}

// AddGrenade appends a grenade; returns false on a full list.
func (w *World) AddGrenade(g GrenadeEntity) bool {
	if len(w.Grenades) >= MaxGrenades {
		return false
	}
	w.Grenades = append(w.Grenades, g)
	return true
}

// AddSmoke appends a smoke zone; returns false on a full list.
func (w *World) AddSmoke(s SmokeZone) bool {
	if len(w.Smokes) >= MaxSmokes {
		return false
	}
	w.Smokes = append(w.Smokes, s)
	return true
}
