// Package mapdata holds the level-data contract the simulation consumes:
// static solids, the waypoint graph, the objective zone, and spawn points.
// It parses the text map format and provides a procedural fallback so a
// match can always start.
package mapdata

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/skirmish/skirmish/internal/core/mathx"
	"github.com/skirmish/skirmish/internal/core/observability/log"
	"github.com/skirmish/skirmish/internal/core/world"
)

// SpawnPoint places one pawn at round start.
type SpawnPoint struct {
	Team world.Team
	Pos  mathx.Vec3
	Yaw  float64 // radians
}

// Data is one loaded map.
type Data struct {
	Solids      []world.Solid
	Waypoints   []world.Waypoint
	Objective   world.ObjectiveZone
	Spawns      []SpawnPoint
	Fingerprint uint64 // content hash; lets clients cache geometry
}

// Apply installs the static geometry into a world. Waypoint neighbour lists
// are copied so AI mutation can never reach back into the map data.
func (d *Data) Apply(w *world.World) {
	w.Solids = append([]world.Solid(nil), d.Solids...)
	w.Waypoints = make([]world.Waypoint, len(d.Waypoints))
	for i, wp := range d.Waypoints {
		w.Waypoints[i] = world.Waypoint{
			Pos:        wp.Pos,
			Neighbours: append([]int(nil), wp.Neighbours...),
		}
	}
	w.Objective = world.ObjectiveZone{Pos: d.Objective.Pos, Radius: d.Objective.Radius}
}

// Load reads and parses a map file.
func Load(path string) (*Data, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open map: %w", err)
	}
	d, err := Parse(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	d.Fingerprint = xxhash.Sum64(raw)
	return d, nil
}

// LoadOrFallback loads the map at path, falling back to the procedural map
// when the file is missing or malformed.
func LoadOrFallback(path string, lg log.Log) *Data {
	d, err := Load(path)
	if err != nil {
		lg.Warn("map load failed, using procedural fallback",
			log.String("path", path), log.Err(err))
		return Fallback()
	}
	lg.Info("map loaded",
		log.String("path", path),
		log.Int("solids", len(d.Solids)),
		log.Int("waypoints", len(d.Waypoints)),
		log.Uint64("fingerprint", d.Fingerprint))
	return d
}

// Parse decodes the text map format:
//
//	# comment
//	SOLID     minX minY minZ maxX maxY maxZ R G B [floor]
//	WAYPOINT  id x y z
//	EDGE      fromID toID          (bidirectional)
//	OBJECTIVE x y z radius
//	SPAWN     team x y z yawDeg    (team 0=attack 1=defend)
//
// Edges referencing unknown waypoint ids are ignored.
func Parse(r io.Reader) (*Data, error) {
	d := &Data{Objective: world.ObjectiveZone{Radius: world.DefaultObjectiveRadius}}

	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		var err error
		switch fields[0] {
		case "SOLID":
			err = d.parseSolid(fields[1:])
		case "WAYPOINT":
			err = d.parseWaypoint(fields[1:])
		case "EDGE":
			err = d.parseEdge(fields[1:])
		case "OBJECTIVE":
			err = d.parseObjective(fields[1:])
		case "SPAWN":
			err = d.parseSpawn(fields[1:])
		default:
			err = fmt.Errorf("unknown directive %q", fields[0])
		}
		if err != nil {
			return nil, fmt.Errorf("map line %d: %w", lineNo, err)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read map: %w", err)
	}
	return d, nil
}

func floats(fields []string, n int) ([]float64, error) {
	if len(fields) < n {
		return nil, fmt.Errorf("want %d numeric fields, got %d", n, len(fields))
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		v, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return nil, fmt.Errorf("field %d: %w", i+1, err)
		}
		out[i] = v
	}
	return out, nil
}

func (d *Data) parseSolid(fields []string) error {
	v, err := floats(fields, 9)
	if err != nil {
		return err
	}
	s := world.Solid{
		Bounds: mathx.AABB{
			Min: mathx.V3(v[0], v[1], v[2]),
			Max: mathx.V3(v[3], v[4], v[5]),
		},
		Color:   world.RGBA{R: uint8(v[6]), G: uint8(v[7]), B: uint8(v[8]), A: 255},
		IsFloor: len(fields) > 9 && fields[9] == "floor",
	}
	d.Solids = append(d.Solids, s)
	return nil
}

func (d *Data) parseWaypoint(fields []string) error {
	v, err := floats(fields, 4)
	if err != nil {
		return err
	}
	id := int(v[0])
	if id < 0 || id >= world.MaxWaypoints {
		return fmt.Errorf("waypoint id %d out of range", id)
	}
	for len(d.Waypoints) <= id {
		d.Waypoints = append(d.Waypoints, world.Waypoint{})
	}
	d.Waypoints[id].Pos = mathx.V3(v[1], v[2], v[3])
	return nil
}

func (d *Data) parseEdge(fields []string) error {
	v, err := floats(fields, 2)
	if err != nil {
		return err
	}
	a, b := int(v[0]), int(v[1])
	// Out-of-range edges are dropped, not fatal: hand-edited files
	// routinely carry stale edge lists.
	if a < 0 || b < 0 || a >= len(d.Waypoints) || b >= len(d.Waypoints) {
		return nil
	}
	d.Waypoints[a].Neighbours = append(d.Waypoints[a].Neighbours, b)
	d.Waypoints[b].Neighbours = append(d.Waypoints[b].Neighbours, a)
	return nil
}

func (d *Data) parseObjective(fields []string) error {
	v, err := floats(fields, 4)
	if err != nil {
		return err
	}
	d.Objective.Pos = mathx.V3(v[0], v[1], v[2])
	d.Objective.Radius = v[3]
	return nil
}

func (d *Data) parseSpawn(fields []string) error {
	v, err := floats(fields, 5)
	if err != nil {
		return err
	}
	team := world.TeamAttack
	if int(v[0]) == 1 {
		team = world.TeamDefend
	}
	d.Spawns = append(d.Spawns, SpawnPoint{
		Team: team,
		Pos:  mathx.V3(v[1], v[2], v[3]),
		Yaw:  v[4] * math.Pi / 180,
	})
	return nil
}

// Fallback returns the built-in procedural arena: a floor, four outer walls,
// four cover boxes, a six-node waypoint loop, one objective, and three spawn
// points per team.
func Fallback() *Data {
	cover := world.RGBA{R: 110, G: 80, B: 60, A: 255}
	crate := world.RGBA{R: 80, G: 90, B: 80, A: 255}

	box := func(minX, minY, minZ, maxX, maxY, maxZ float64, col world.RGBA, floor bool) world.Solid {
		return world.Solid{
			Bounds:  mathx.AABB{Min: mathx.V3(minX, minY, minZ), Max: mathx.V3(maxX, maxY, maxZ)},
			Color:   col,
			IsFloor: floor,
		}
	}

	d := &Data{
		Solids: []world.Solid{
			box(-25, -0.2, -25, 25, 0, 25, world.ColFloor, true),
			box(-25, 0, -25, -24.5, 4, 25, world.ColWall, false),
			box(24.5, 0, -25, 25, 4, 25, world.ColWall, false),
			box(-25, 0, -25, 25, 4, -24.5, world.ColWall, false),
			box(-25, 0, 24.5, 25, 4, 25, world.ColWall, false),
			box(-3, 0, -2, -1, 1.2, 2, cover, false),
			box(1, 0, -2, 3, 1.2, 2, cover, false),
			box(-8, 0, 3, -6, 2.5, 5, crate, false),
			box(6, 0, 3, 8, 2.5, 5, crate, false),
		},
		Waypoints: []world.Waypoint{
			{Pos: mathx.V3(-10, 0, -8), Neighbours: []int{1, 5}},
			{Pos: mathx.V3(0, 0, -8), Neighbours: []int{0, 2}},
			{Pos: mathx.V3(10, 0, -8), Neighbours: []int{1, 3}},
			{Pos: mathx.V3(10, 0, 0), Neighbours: []int{2, 4}},
			{Pos: mathx.V3(5, 0, 5), Neighbours: []int{3, 5}},
			{Pos: mathx.V3(-5, 0, 5), Neighbours: []int{4, 0}},
		},
		Objective: world.ObjectiveZone{Pos: mathx.V3(5, 0, 8), Radius: world.DefaultObjectiveRadius},
		Spawns: []SpawnPoint{
			{Team: world.TeamAttack, Pos: mathx.V3(-12, 0.1, -15), Yaw: 0},
			{Team: world.TeamAttack, Pos: mathx.V3(-14, 0.1, -13), Yaw: 0.2},
			{Team: world.TeamAttack, Pos: mathx.V3(-10, 0.1, -13), Yaw: -0.2},
			{Team: world.TeamDefend, Pos: mathx.V3(12, 0.1, 12), Yaw: math.Pi},
			{Team: world.TeamDefend, Pos: mathx.V3(14, 0.1, 10), Yaw: math.Pi - 0.2},
			{Team: world.TeamDefend, Pos: mathx.V3(10, 0.1, 10), Yaw: math.Pi + 0.2},
		},
	}
	d.Fingerprint = xxhash.Sum64String("skirmish/fallback-arena/v1")
	return d
}
