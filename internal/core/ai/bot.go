// Package ai drives the bot pawns with a per-agent finite state machine:
// patrol along the waypoint graph, engage visible enemies, search last-known
// positions, and retreat when badly hurt with allies still up.
package ai

import (
	"math"
	"math/rand"

	"github.com/skirmish/skirmish/internal/core/events/bus"
	"github.com/skirmish/skirmish/internal/core/mathx"
	"github.com/skirmish/skirmish/internal/core/physics"
	"github.com/skirmish/skirmish/internal/core/weapons"
	"github.com/skirmish/skirmish/internal/core/world"
)

// State is the bot FSM state.
type State uint8

const (
	Patrol State = iota
	Engage
	Search
	Retreat
)

func (s State) String() string {
	switch s {
	case Patrol:
		return "patrol"
	case Engage:
		return "engage"
	case Search:
		return "search"
	case Retreat:
		return "retreat"
	}
	return "unknown"
}

// Brain is the per-bot mutable memory, reset at round start. It is indexed
// consistently with the world's pawn array.
type Brain struct {
	State         State
	WaypointIdx   int
	TargetID      int // -1 = none
	LastKnown     mathx.Vec3
	VisionTimer   float64 // countdown to the next throttled vision check
	ReactionTimer float64 // delay before the first shot after gaining sight
	StrafeTimer   float64
	StrafeSign    float64
	HasSightLine  bool
}

// Controller owns every bot brain and the randomness the bots consume, so a
// match has a single resettable AI ownership root.
type Controller struct {
	rng    *rand.Rand
	events *bus.Bus
	brains [world.MaxPawns]Brain
}

func NewController(rng *rand.Rand, events *bus.Bus) *Controller {
	c := &Controller{rng: rng, events: events}
	c.Reset(nil)
	return c
}

// Brain exposes one bot's memory; tests and the session reset use it.
func (c *Controller) Brain(i int) *Brain { return &c.brains[i] }

// Reset reinitializes all brains for a fresh round. Each bot starts patrol
// at a waypoint spread by its pawn index.
func (c *Controller) Reset(w *world.World) {
	for i := range c.brains {
		c.brains[i] = Brain{TargetID: -1, StrafeSign: 1}
		if w != nil && len(w.Waypoints) > 0 {
			c.brains[i].WaypointIdx = i % len(w.Waypoints)
		}
	}
}

// Update runs one frame of AI for every living bot pawn.
func (c *Controller) Update(w *world.World, dt float64) {
	for i := range w.Pawns {
		bot := &w.Pawns[i]
		if !bot.IsBot || !bot.Alive {
			continue
		}
		c.updateBot(w, i, dt)
	}
}

func (c *Controller) updateBot(w *world.World, id int, dt float64) {
	bot := &w.Pawns[id]
	brain := &c.brains[id]

	weapons.Tick(&bot.Weapon, dt)

	// Throttled vision: the O(bots x pawns) visibility scan runs at a fixed
	// rate, not every frame.
	brain.VisionTimer -= dt
	if brain.VisionTimer <= 0 {
		brain.VisionTimer = 1.0 / world.BotVisionHz
		if vis := findVisibleEnemy(w, id); vis >= 0 {
			brain.TargetID = vis
			brain.LastKnown = w.Pawns[vis].Xform.Pos
			brain.HasSightLine = true
			brain.State = Engage
		} else if brain.TargetID >= 0 {
			brain.HasSightLine = false
			if brain.State == Engage {
				brain.State = Search
			}
		}
	}

	// Retreat overrides everything while badly hurt with an ally still up.
	if bot.HP < world.BotRetreatHP && w.AliveCount(bot.Team) > 1 {
		brain.State = Retreat
	}

	switch brain.State {
	case Patrol:
		c.patrol(w, id, dt)
	case Engage:
		c.engage(w, id, dt)
	case Search:
		c.search(w, id, dt)
	case Retreat:
		c.retreat(w, id, dt)
	}
}

func (c *Controller) patrol(w *world.World, id int, dt float64) {
	if len(w.Waypoints) == 0 {
		return
	}
	bot := &w.Pawns[id]
	brain := &c.brains[id]

	wp := &w.Waypoints[brain.WaypointIdx%len(w.Waypoints)]
	moveToward(bot, wp.Pos, dt, w.Solids, 0)

	if mathx.Dist(bot.Xform.Pos, wp.Pos) < world.BotWaypointReach {
		next := -1
		if len(wp.Neighbours) > 0 {
			next = wp.Neighbours[c.rng.Intn(len(wp.Neighbours))]
		}
		if next < 0 || next >= len(w.Waypoints) {
			next = (brain.WaypointIdx + 1) % len(w.Waypoints)
		}
		brain.WaypointIdx = next
	}
}

func (c *Controller) engage(w *world.World, id int, dt float64) {
	bot := &w.Pawns[id]
	brain := &c.brains[id]

	if brain.TargetID < 0 || !w.Pawns[brain.TargetID].Alive {
		brain.State = Patrol
		brain.TargetID = -1
		return
	}
	target := &w.Pawns[brain.TargetID]

	c.aimAt(bot, target.TorsoPos())

	brain.StrafeTimer -= dt
	if brain.StrafeTimer <= 0 {
		brain.StrafeTimer = 0.8 + c.rng.Float64()*1.2
		if c.rng.Intn(2) == 0 {
			brain.StrafeSign = 1
		} else {
			brain.StrafeSign = -1
		}
	}

	engageDist := mathx.Dist(bot.Xform.Pos, target.Xform.Pos)
	switch {
	case engageDist > world.BotEngageMax:
		moveToward(bot, target.Xform.Pos, dt, w.Solids, brain.StrafeSign)
	case engageDist < world.BotEngageMin:
		away := bot.Xform.Pos.Sub(target.Xform.Pos).Normalize()
		moveToward(bot, bot.Xform.Pos.Add(away), dt, w.Solids, 0)
	default:
		// Hold range and strafe laterally.
		look := bot.LookDir()
		right := mathx.V3(look.Z, 0, -look.X)
		vel := right.Scale(brain.StrafeSign * world.BotSpeed * 0.5)
		bot.Velocity.X = vel.X
		bot.Velocity.Z = vel.Z
		if !bot.OnGround {
			bot.Velocity.Y += world.Gravity * dt
		} else {
			bot.Velocity.Y = 0
		}
		bot.Xform.Pos, bot.Velocity, bot.OnGround = physics.Sweep(bot.Xform.Pos, bot.Velocity, dt, w.Solids)
	}

	// Fire only while sight is currently held, after the reaction delay.
	if brain.HasSightLine {
		brain.ReactionTimer -= dt
		if brain.ReactionTimer <= 0 {
			weapons.Fire(w, id, c.rng, c.events)
		}
	} else {
		brain.ReactionTimer = world.BotReactionSec
	}
}

func (c *Controller) search(w *world.World, id int, dt float64) {
	bot := &w.Pawns[id]
	brain := &c.brains[id]

	moveToward(bot, brain.LastKnown, dt, w.Solids, 0)
	if mathx.Dist(bot.Xform.Pos, brain.LastKnown) < world.BotWaypointReach*2 {
		brain.State = Patrol
		brain.TargetID = -1
	}
}

func (c *Controller) retreat(w *world.World, id int, dt float64) {
	bot := &w.Pawns[id]
	brain := &c.brains[id]

	if len(w.Waypoints) > 0 {
		nearest := nearestWaypoint(bot.Xform.Pos, w.Waypoints)
		moveToward(bot, w.Waypoints[nearest].Pos, dt, w.Solids, 0)
	}
	if bot.HP > world.BotRecoverHP {
		brain.State = Patrol
	}
}

// aimAt points the bot at a world position with bounded per-frame angular
// noise for imperfect accuracy.
func (c *Controller) aimAt(bot *world.Pawn, targetPos mathx.Vec3) {
	delta := targetPos.Sub(bot.EyePos())
	dist := delta.Length()
	if dist < 0.01 {
		return
	}

	noiseX := (c.rng.Float64() - 0.5) * world.BotAimNoiseRad * 2
	noiseY := (c.rng.Float64() - 0.5) * world.BotAimNoiseRad
	delta.X += noiseX * dist
	delta.Y += noiseY * dist

	bot.Xform.Yaw = math.Atan2(delta.X, delta.Z)
	bot.Xform.Pitch = mathx.Clamp(
		math.Atan2(delta.Y, math.Hypot(delta.X, delta.Z)), -1.3, 1.3)
}

// findVisibleEnemy returns the closest living enemy pawn within vision range
// and the widened FOV cone, unobstructed by geometry or smoke. -1 when none.
func findVisibleEnemy(w *world.World, botID int) int {
	bot := &w.Pawns[botID]
	eye := bot.EyePos()
	eyeDir := bot.LookDir()

	bestDistSqr := world.BotVisionRange * world.BotVisionRange
	bestID := -1

	for i := range w.Pawns {
		p := &w.Pawns[i]
		if !p.Alive || p.Team == bot.Team || i == botID {
			continue
		}

		enemyPos := p.Xform.Pos.Add(mathx.V3(0, world.PlayerHeight*0.5, 0))
		toEnemy := enemyPos.Sub(eye)
		d2 := toEnemy.LengthSqr()
		if d2 > bestDistSqr {
			continue
		}

		// Bots get a cone wider than the nominal FOV: game sense.
		if toEnemy.Normalize().Dot(eyeDir) < world.BotVisionDot-world.BotFOVSlack {
			continue
		}

		d := math.Sqrt(d2)
		if hr := physics.RaycastSolids(eye, toEnemy.Normalize(), d, w.Solids); hr.Hit && hr.Distance < d-0.2 {
			continue
		}
		if physics.RayBlockedBySmoke(eye, enemyPos, w.Smokes) {
			continue
		}

		bestDistSqr = d2
		bestID = i
	}
	return bestID
}

// moveToward drives a bot horizontally at a target through the shared
// movement sweep, optionally mixing in a perpendicular strafe component.
func moveToward(bot *world.Pawn, target mathx.Vec3, dt float64, solids []world.Solid, strafeSign float64) {
	toTarget := target.Sub(bot.Xform.Pos)
	toTarget.Y = 0
	if toTarget.Length() < 0.05 {
		return
	}

	forward := toTarget.Normalize()
	right := mathx.V3(forward.Z, 0, -forward.X)
	move := forward.Add(right.Scale(strafeSign * 0.3)).Normalize()

	bot.Velocity.X = move.X * world.BotSpeed
	bot.Velocity.Z = move.Z * world.BotSpeed
	if !bot.OnGround {
		bot.Velocity.Y += world.Gravity * dt
	} else {
		bot.Velocity.Y = 0
	}

	bot.Xform.Pos, bot.Velocity, bot.OnGround = physics.Sweep(bot.Xform.Pos, bot.Velocity, dt, solids)

	// Face the movement direction.
	bot.Xform.Yaw = math.Atan2(toTarget.X, toTarget.Z)
}

func nearestWaypoint(pos mathx.Vec3, wps []world.Waypoint) int {
	best := 0
	bestD := math.Inf(1)
	for i := range wps {
		if d := pos.Sub(wps[i].Pos).LengthSqr(); d < bestD {
			bestD = d
			best = i
		}
	}
	return best
}
