package round

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skirmish/skirmish/internal/core/events/bus"
	"github.com/skirmish/skirmish/internal/core/mapdata"
	"github.com/skirmish/skirmish/internal/core/observability/log"
	"github.com/skirmish/skirmish/internal/core/world"
)

const step = 1.0 / 60.0

func newMatch(t *testing.T) (*Manager, *world.World, *bus.Bus) {
	t.Helper()
	events := bus.New()
	m := mapdata.Fallback()
	w := world.New()
	m.Apply(w)
	mgr := NewManager(Config{}, m, events, log.NewNop())
	mgr.StartRound(w)
	return mgr, w, events
}

// advanceToActive burns through the freeze phase.
func advanceToActive(t *testing.T, mgr *Manager, w *world.World) {
	t.Helper()
	for i := 0; i < 400 && w.RoundState == world.RoundWaiting; i++ {
		mgr.Advance(w, step)
	}
	require.Equal(t, world.RoundActive, w.RoundState)
}

func killTeam(w *world.World, team world.Team) {
	for i := range w.Pawns {
		if w.Pawns[i].Team == team {
			w.Pawns[i].Alive = false
			w.Pawns[i].HP = 0
		}
	}
}

func TestStartRoundSpawnsLoadouts(t *testing.T) {
	_, w, _ := newMatch(t)

	assert.Equal(t, 0, w.PlayerID)
	for i := range w.Pawns {
		p := &w.Pawns[i]
		require.True(t, p.Alive)
		assert.Equal(t, world.MaxHP, p.HP)
		assert.Equal(t, i != 0, p.IsBot)
		assert.Equal(t, 1, p.FragCount)
		assert.Equal(t, 1, p.SmokeCount)
		assert.Equal(t, 1, p.StunCount)
		if i < world.TeamSize {
			assert.Equal(t, world.TeamAttack, p.Team)
			assert.Equal(t, world.WeaponRifle, p.Weapon.ID)
		} else {
			assert.Equal(t, world.TeamDefend, p.Team)
			assert.Equal(t, world.WeaponSMG, p.Weapon.ID)
		}
		assert.Equal(t, p.Weapon.Stats().MagSize, p.Weapon.AmmoMag)
		assert.Equal(t, p.Weapon.Stats().MagSize*3, p.Weapon.AmmoReserve)
	}

	// Teammates spawn on distinct points.
	assert.NotEqual(t, w.Pawns[0].Xform.Pos, w.Pawns[1].Xform.Pos)
	assert.Equal(t, world.RoundWaiting, w.RoundState)
	assert.Equal(t, world.FreezeTimeSec, w.FreezeTimer)
	assert.Equal(t, world.RoundTimeSec, w.RoundTimer)
}

func TestFreezeExpiresIntoActive(t *testing.T) {
	mgr, w, _ := newMatch(t)

	mgr.Advance(w, world.FreezeTimeSec-0.01)
	assert.Equal(t, world.RoundWaiting, w.RoundState)

	mgr.Advance(w, 0.02)
	assert.Equal(t, world.RoundActive, w.RoundState)
	assert.Zero(t, w.FreezeTimer)
}

func TestCaptureHoldWinsRound(t *testing.T) {
	mgr, w, events := newMatch(t)
	advanceToActive(t, mgr, w)

	var ended []bus.RoundEnded
	events.Subscribe(bus.TopicRoundEnded, func(e bus.Event) {
		ended = append(ended, e.(bus.RoundEnded))
	})

	w.Pawns[0].Xform.Pos = w.Objective.Pos
	for i := 0; i < 200 && w.RoundState == world.RoundActive; i++ {
		mgr.Evaluate(w, 0.1)
	}

	require.Equal(t, world.RoundOver, w.RoundState)
	assert.Equal(t, world.TeamAttack, w.RoundWinner)
	assert.True(t, w.Objective.Captured)
	assert.Equal(t, world.ObjectiveCaptureSec, w.Objective.CaptureProgress)
	assert.Equal(t, 1, w.ScoreAttack)
	require.Len(t, ended, 1)
	assert.Equal(t, world.TeamAttack, ended[0].Winner)
}

func TestCaptureDecaysAtHalfRateWhenAbandoned(t *testing.T) {
	mgr, w, _ := newMatch(t)
	advanceToActive(t, mgr, w)

	w.Pawns[0].Xform.Pos = w.Objective.Pos
	for i := 0; i < 40; i++ {
		mgr.Evaluate(w, 0.1) // 4s in the zone
	}
	require.InDelta(t, 4.0, w.Objective.CaptureProgress, 1e-9)

	w.Pawns[0].Xform.Pos.X += 100
	mgr.Evaluate(w, 1.0)
	assert.InDelta(t, 3.5, w.Objective.CaptureProgress, 1e-9)

	mgr.Evaluate(w, 100)
	assert.Zero(t, w.Objective.CaptureProgress)
	assert.Equal(t, world.RoundActive, w.RoundState)
}

func TestDeadAttackerCannotCapture(t *testing.T) {
	mgr, w, _ := newMatch(t)
	advanceToActive(t, mgr, w)

	w.Pawns[0].Xform.Pos = w.Objective.Pos
	w.Pawns[0].Alive = false
	mgr.Evaluate(w, 1.0)
	assert.Zero(t, w.Objective.CaptureProgress)
}

func TestTimeExpiryWinsForDefenders(t *testing.T) {
	mgr, w, _ := newMatch(t)
	advanceToActive(t, mgr, w)

	w.RoundTimer = 0.005
	mgr.Advance(w, step)
	mgr.Evaluate(w, step)

	assert.Equal(t, world.RoundOver, w.RoundState)
	assert.Equal(t, world.TeamDefend, w.RoundWinner)
	assert.Equal(t, 1, w.ScoreDefend)
	assert.Zero(t, w.RoundTimer)
}

func TestEliminationWins(t *testing.T) {
	t.Run("defenders eliminated", func(t *testing.T) {
		mgr, w, _ := newMatch(t)
		advanceToActive(t, mgr, w)
		killTeam(w, world.TeamDefend)
		mgr.Evaluate(w, step)
		assert.Equal(t, world.TeamAttack, w.RoundWinner)
	})
	t.Run("attackers eliminated", func(t *testing.T) {
		mgr, w, _ := newMatch(t)
		advanceToActive(t, mgr, w)
		killTeam(w, world.TeamAttack)
		mgr.Evaluate(w, step)
		assert.Equal(t, world.TeamDefend, w.RoundWinner)
	})
	t.Run("mutual elimination favors defense", func(t *testing.T) {
		mgr, w, _ := newMatch(t)
		advanceToActive(t, mgr, w)
		killTeam(w, world.TeamAttack)
		killTeam(w, world.TeamDefend)
		mgr.Evaluate(w, step)
		assert.Equal(t, world.TeamDefend, w.RoundWinner)
		assert.Equal(t, 1, w.ScoreDefend)
		assert.Zero(t, w.ScoreAttack)
	})
	t.Run("last defender dies on timeout frame favors defense", func(t *testing.T) {
		mgr, w, _ := newMatch(t)
		advanceToActive(t, mgr, w)
		killTeam(w, world.TeamDefend)
		w.RoundTimer = 0
		mgr.Evaluate(w, step)
		assert.Equal(t, world.TeamDefend, w.RoundWinner)
	})
}

func TestRoundOverDelayThenNextRound(t *testing.T) {
	mgr, w, _ := newMatch(t)
	advanceToActive(t, mgr, w)
	killTeam(w, world.TeamDefend)
	w.Grenades = append(w.Grenades, world.GrenadeEntity{})
	mgr.Evaluate(w, step)
	require.Equal(t, world.RoundOver, w.RoundState)
	require.Equal(t, 1, w.RoundNumber)

	mgr.Advance(w, world.RoundOverDelaySec-0.01)
	assert.Equal(t, world.RoundOver, w.RoundState)

	mgr.Advance(w, 0.02)
	assert.Equal(t, world.RoundWaiting, w.RoundState)
	assert.Equal(t, 2, w.RoundNumber)
	assert.Equal(t, world.TeamNone, w.RoundWinner)
	assert.Empty(t, w.Grenades)
	assert.True(t, w.Pawns[3].Alive, "defenders respawn for the next round")
	assert.Equal(t, 1, w.ScoreAttack, "score carries across rounds")
}

func TestMatchOverAtWinScore(t *testing.T) {
	events := bus.New()
	m := mapdata.Fallback()
	w := world.New()
	m.Apply(w)
	mgr := NewManager(Config{RoundTime: 1, FreezeTime: 0.1, WinScore: 2}, m, events, log.NewNop())
	mgr.StartRound(w)

	var matchEnds []bus.MatchEnded
	events.Subscribe(bus.TopicMatchEnded, func(e bus.Event) {
		matchEnds = append(matchEnds, e.(bus.MatchEnded))
	})

	for round := 0; round < 2; round++ {
		advanceToActive(t, mgr, w)
		killTeam(w, world.TeamDefend)
		mgr.Evaluate(w, step)
		mgr.Advance(w, world.RoundOverDelaySec+0.01)
	}

	assert.Equal(t, world.MatchOver, w.RoundState)
	assert.Equal(t, 2, w.ScoreAttack)
	require.Len(t, matchEnds, 1)
	assert.Equal(t, 2, matchEnds[0].ScoreAttack)

	// Terminal until restarted.
	mgr.Advance(w, 10)
	assert.Equal(t, world.MatchOver, w.RoundState)

	mgr.RestartMatch(w)
	assert.Equal(t, world.RoundWaiting, w.RoundState)
	assert.Zero(t, w.ScoreAttack)
	assert.Equal(t, 1, w.RoundNumber)
}

func TestResetHookRunsEveryRoundStart(t *testing.T) {
	events := bus.New()
	m := mapdata.Fallback()
	w := world.New()
	m.Apply(w)
	mgr := NewManager(Config{}, m, events, log.NewNop())

	calls := 0
	mgr.SetResetHook(func(*world.World) { calls++ })

	mgr.StartRound(w)
	require.Equal(t, 1, calls)

	advanceToActive(t, mgr, w)
	killTeam(w, world.TeamAttack)
	mgr.Evaluate(w, step)
	mgr.Advance(w, world.RoundOverDelaySec+0.01)
	assert.Equal(t, 2, calls)
}

func TestEvaluateInactiveIsNoOp(t *testing.T) {
	mgr, w, _ := newMatch(t)

	// Still frozen: a full zone and a dead team must not end anything.
	w.Pawns[0].Xform.Pos = w.Objective.Pos
	killTeam(w, world.TeamDefend)
	mgr.Evaluate(w, 100)
	assert.Equal(t, world.RoundWaiting, w.RoundState)
	assert.Zero(t, w.Objective.CaptureProgress)
}
