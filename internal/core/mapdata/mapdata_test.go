package mapdata

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skirmish/skirmish/internal/core/mathx"
	"github.com/skirmish/skirmish/internal/core/observability/log"
	"github.com/skirmish/skirmish/internal/core/world"
)

const sampleMap = `
# test arena
SOLID -10 -0.2 -10 10 0 10 60 60 60 floor
SOLID -10 0 -10 -9.5 4 10 90 90 100

WAYPOINT 0 -5 0 0
WAYPOINT 1 5 0 0
EDGE 0 1
EDGE 0 7

OBJECTIVE 2 0 3 4.5
SPAWN 0 -8 0.1 -8 90
SPAWN 1 8 0.1 8 -90
`

func TestParseSampleMap(t *testing.T) {
	d, err := Parse(strings.NewReader(sampleMap))
	require.NoError(t, err)

	require.Len(t, d.Solids, 2)
	assert.True(t, d.Solids[0].IsFloor)
	assert.False(t, d.Solids[1].IsFloor)
	assert.Equal(t, mathx.V3(-10, -0.2, -10), d.Solids[0].Bounds.Min)
	assert.Equal(t, world.RGBA{R: 90, G: 90, B: 100, A: 255}, d.Solids[1].Color)

	require.Len(t, d.Waypoints, 2)
	assert.Equal(t, mathx.V3(5, 0, 0), d.Waypoints[1].Pos)

	assert.Equal(t, mathx.V3(2, 0, 3), d.Objective.Pos)
	assert.Equal(t, 4.5, d.Objective.Radius)

	require.Len(t, d.Spawns, 2)
	assert.Equal(t, world.TeamAttack, d.Spawns[0].Team)
	assert.Equal(t, world.TeamDefend, d.Spawns[1].Team)
	assert.InDelta(t, 1.5708, d.Spawns[0].Yaw, 1e-3)
}

func TestParseEdgesAreSymmetric(t *testing.T) {
	d, err := Parse(strings.NewReader(sampleMap))
	require.NoError(t, err)

	assert.Contains(t, d.Waypoints[0].Neighbours, 1)
	assert.Contains(t, d.Waypoints[1].Neighbours, 0)
}

func TestParseIgnoresOutOfRangeEdge(t *testing.T) {
	d, err := Parse(strings.NewReader(sampleMap))
	require.NoError(t, err)

	// EDGE 0 7 references a waypoint that never appears.
	assert.Equal(t, []int{1}, d.Waypoints[0].Neighbours)
}

func TestParseRejectsMalformedInput(t *testing.T) {
	cases := map[string]string{
		"unknown directive": "BOGUS 1 2 3",
		"short solid":       "SOLID 1 2 3",
		"bad number":        "WAYPOINT 0 x 0 0",
		"waypoint id range": "WAYPOINT 100 0 0 0",
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(src))
			assert.Error(t, err)
		})
	}
}

func TestLoadFingerprintIsContentStable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "arena.map")
	require.NoError(t, os.WriteFile(path, []byte(sampleMap), 0o644))

	a, err := Load(path)
	require.NoError(t, err)
	b, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, a.Fingerprint, b.Fingerprint)
	assert.NotZero(t, a.Fingerprint)

	require.NoError(t, os.WriteFile(path, []byte(sampleMap+"\nWAYPOINT 2 0 0 9\n"), 0o644))
	c, err := Load(path)
	require.NoError(t, err)
	assert.NotEqual(t, a.Fingerprint, c.Fingerprint)
}

func TestLoadOrFallback(t *testing.T) {
	d := LoadOrFallback(filepath.Join(t.TempDir(), "missing.map"), log.NewNop())
	require.NotNil(t, d)
	assert.NotEmpty(t, d.Solids)
}

func TestFallbackArenaIsWellFormed(t *testing.T) {
	d := Fallback()

	require.NotEmpty(t, d.Solids)
	assert.True(t, d.Solids[0].IsFloor)

	// Waypoint graph must be symmetric and in range.
	for i, wp := range d.Waypoints {
		for _, n := range wp.Neighbours {
			require.GreaterOrEqual(t, n, 0)
			require.Less(t, n, len(d.Waypoints))
			assert.Contains(t, d.Waypoints[n].Neighbours, i, "edge %d->%d not symmetric", i, n)
		}
	}

	var attack, defend int
	for _, sp := range d.Spawns {
		if sp.Team == world.TeamAttack {
			attack++
		} else {
			defend++
		}
	}
	assert.Equal(t, world.TeamSize, attack)
	assert.Equal(t, world.TeamSize, defend)

	assert.Greater(t, d.Objective.Radius, 0.0)
	assert.NotZero(t, d.Fingerprint)
}

func TestApplyCopiesNeighbourLists(t *testing.T) {
	d := Fallback()
	w := world.New()
	d.Apply(w)

	require.Len(t, w.Waypoints, len(d.Waypoints))
	w.Waypoints[0].Neighbours[0] = 99
	assert.NotEqual(t, 99, d.Waypoints[0].Neighbours[0])
}
