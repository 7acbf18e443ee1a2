// Package session owns one running match: the world, the per-frame system
// ordering, the human player's input application, and the seeded random
// source every system draws from. One Session is one deterministic replayable
// match given the same seed and intent stream.
package session

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/skirmish/skirmish/internal/core/ai"
	"github.com/skirmish/skirmish/internal/core/events/bus"
	"github.com/skirmish/skirmish/internal/core/mapdata"
	"github.com/skirmish/skirmish/internal/core/mathx"
	"github.com/skirmish/skirmish/internal/core/observability/log"
	"github.com/skirmish/skirmish/internal/core/physics"
	"github.com/skirmish/skirmish/internal/core/round"
	"github.com/skirmish/skirmish/internal/core/utility"
	"github.com/skirmish/skirmish/internal/core/weapons"
	"github.com/skirmish/skirmish/internal/core/world"
)

// maxFrameDt caps a single simulation step. Longer host stalls slow the
// simulation down instead of tunneling entities through geometry.
const maxFrameDt = 0.05

// Intent is one frame of human input, already mapped from whatever device
// produced it. Pressed fields are one-frame edges; Held fields are levels.
type Intent struct {
	MoveX  float64 // -1 .. 1, strafe
	MoveZ  float64 // -1 .. 1, forward
	LookDX float64 // yaw delta, radians
	LookDY float64 // pitch delta, radians

	Jump   bool
	Sprint bool

	FireHeld    bool
	FirePressed bool
	ADS         bool
	Reload      bool

	// SelectWeapon swaps the human loadout; -1 keeps the current weapon.
	SelectWeapon int

	ThrowFrag  bool
	ThrowSmoke bool
	ThrowStun  bool
}

// NewIntent returns an empty intent with no weapon selection.
func NewIntent() Intent { return Intent{SelectWeapon: -1} }

// Config selects the match seed and round timing overrides.
type Config struct {
	Seed  int64 // 0 picks a time-based seed
	Round round.Config
}

// Session is one match instance. Step is not safe for concurrent use;
// SetIntent may be called from another goroutine.
type Session struct {
	ID     uuid.UUID
	World  *world.World
	Events *bus.Bus

	rng    *rand.Rand
	bots   *ai.Controller
	rounds *round.Manager
	lg     log.Log

	mu     sync.Mutex
	intent Intent
}

// New assembles a match on the given map and starts round one.
func New(cfg Config, m *mapdata.Data, lg log.Log) *Session {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))
	events := bus.New()

	w := world.New()
	m.Apply(w)

	s := &Session{
		ID:     uuid.New(),
		World:  w,
		Events: events,
		rng:    rng,
		bots:   ai.NewController(rng, events),
		rounds: round.NewManager(cfg.Round, m, events, lg),
		lg:     lg,
		intent: NewIntent(),
	}
	s.rounds.SetResetHook(s.bots.Reset)
	s.rounds.StartRound(w)
	lg.Info("session start",
		log.String("session_id", s.ID.String()),
		log.Uint64("map", m.Fingerprint),
		log.Any("seed", seed))
	return s
}

// SetIntent replaces the pending human input for the next Step.
func (s *Session) SetIntent(in Intent) {
	s.mu.Lock()
	s.intent = in
	s.mu.Unlock()
}

// Restart resets the scoreboard and begins a fresh match.
func (s *Session) Restart() {
	s.rounds.RestartMatch(s.World)
}

// OverTimeLeft exposes the post-round delay for overlays.
func (s *Session) OverTimeLeft() float64 { return s.rounds.OverTimeLeft() }

// TakeSnapshot copies the current world state for presentation. Call from
// the goroutine driving Step.
func (s *Session) TakeSnapshot() world.Snapshot { return s.World.TakeSnapshot() }

// Step advances the simulation by dt seconds. Frame order is fixed:
// lifecycle timers first, then (while the round is live) human input, bots,
// and utility physics, and finally win-condition evaluation against the
// frame's settled state.
func (s *Session) Step(dt float64) {
	if dt <= 0 {
		return
	}
	if dt > maxFrameDt {
		dt = maxFrameDt
	}

	s.mu.Lock()
	in := s.intent
	// Edge-triggered fields fire once even if the next SetIntent is late.
	s.intent.FirePressed = false
	s.intent.Jump = false
	s.intent.Reload = false
	s.intent.SelectWeapon = -1
	s.intent.ThrowFrag = false
	s.intent.ThrowSmoke = false
	s.intent.ThrowStun = false
	s.mu.Unlock()

	w := s.World
	s.rounds.Advance(w, dt)

	if w.RoundState == world.RoundActive {
		s.applyIntent(w, in, dt)
		s.bots.Update(w, dt)
		utility.Update(w, dt, s.Events)
	}

	s.rounds.Evaluate(w, dt)
}

// applyIntent drives the human pawn from one frame of input. Dead pawns
// only keep falling; look and weapons are frozen.
func (s *Session) applyIntent(w *world.World, in Intent, dt float64) {
	p := w.Player()
	if !p.Alive {
		s.integrateGravity(p, dt, w.Solids)
		return
	}

	p.Xform.Yaw += in.LookDX
	p.Xform.Pitch = mathx.Clamp(p.Xform.Pitch-in.LookDY, -world.PitchLimit, world.PitchLimit)

	s.applyMovement(p, in, dt, w.Solids)
	s.applyWeapon(w, p, in, dt)
}

func (s *Session) applyMovement(p *world.Pawn, in Intent, dt float64, solids []world.Solid) {
	sinY, cosY := math.Sin(p.Xform.Yaw), math.Cos(p.Xform.Yaw)
	forward := mathx.V3(sinY, 0, cosY)
	right := mathx.V3(cosY, 0, -sinY)

	wish := forward.Scale(in.MoveZ).Add(right.Scale(in.MoveX))
	if l := wish.Length(); l > 1 {
		wish = wish.Scale(1 / l)
	}
	speed := world.PlayerSpeed
	if in.Sprint {
		speed *= world.SprintMultiplier
	}
	p.Velocity.X = wish.X * speed
	p.Velocity.Z = wish.Z * speed

	if in.Jump && p.OnGround {
		p.Velocity.Y = world.JumpVelocity
		p.OnGround = false
	}
	if !p.OnGround {
		p.Velocity.Y += world.Gravity * dt
	}

	p.Xform.Pos, p.Velocity, p.OnGround = physics.Sweep(p.Xform.Pos, p.Velocity, dt, solids)
}

func (s *Session) applyWeapon(w *world.World, p *world.Pawn, in Intent, dt float64) {
	if in.SelectWeapon >= 0 && in.SelectWeapon < int(world.WeaponCount) {
		id := world.WeaponID(in.SelectWeapon)
		if id != p.Weapon.ID {
			p.Weapon = world.NewWeaponState(id, 2)
		}
	}

	p.Weapon.ADS = in.ADS
	weapons.Tick(&p.Weapon, dt)

	if in.Reload {
		weapons.StartReload(&p.Weapon)
	}

	trigger := in.FireHeld
	if p.Weapon.Stats().SemiAuto {
		trigger = in.FirePressed
	}
	if trigger {
		weapons.Fire(w, p.ID, s.rng, s.Events)
	}

	switch {
	case in.ThrowFrag:
		weapons.ThrowUtility(w, p.ID, world.UtilityFrag)
	case in.ThrowSmoke:
		weapons.ThrowUtility(w, p.ID, world.UtilitySmoke)
	case in.ThrowStun:
		weapons.ThrowUtility(w, p.ID, world.UtilityStun)
	}
}

func (s *Session) integrateGravity(p *world.Pawn, dt float64, solids []world.Solid) {
	if p.OnGround {
		return
	}
	p.Velocity.X = 0
	p.Velocity.Z = 0
	p.Velocity.Y += world.Gravity * dt
	p.Xform.Pos, p.Velocity, p.OnGround = physics.Sweep(p.Xform.Pos, p.Velocity, dt, solids)
}
