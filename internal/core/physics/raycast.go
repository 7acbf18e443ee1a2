package physics

import (
	"math"

	"github.com/skirmish/skirmish/internal/core/mathx"
	"github.com/skirmish/skirmish/internal/core/world"
)

// Hit is the result of a geometry ray query. Absence of a hit is a normal,
// frequent outcome and is reported by the flag, never an error.
type Hit struct {
	Hit        bool
	Distance   float64
	Point      mathx.Vec3
	SolidIndex int
}

// RayAABB intersects a ray with a box using the slab method and returns the
// nearest strictly positive entry distance. Rays starting inside the box
// report no hit, matching how the sweep already keeps entities out of solids.
func RayAABB(origin, dir mathx.Vec3, box mathx.AABB) (float64, bool) {
	tMin := math.Inf(-1)
	tMax := math.Inf(1)

	axes := [3][3]float64{
		{origin.X, dir.X, 0}, {origin.Y, dir.Y, 0}, {origin.Z, dir.Z, 0},
	}
	mins := [3]float64{box.Min.X, box.Min.Y, box.Min.Z}
	maxs := [3]float64{box.Max.X, box.Max.Y, box.Max.Z}

	for i := 0; i < 3; i++ {
		o, d := axes[i][0], axes[i][1]
		if math.Abs(d) < 1e-12 {
			if o < mins[i] || o > maxs[i] {
				return 0, false
			}
			continue
		}
		t1 := (mins[i] - o) / d
		t2 := (maxs[i] - o) / d
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		if t1 > tMin {
			tMin = t1
		}
		if t2 < tMax {
			tMax = t2
		}
		if tMin > tMax {
			return 0, false
		}
	}
	if tMin <= 0 {
		return 0, false
	}
	return tMin, true
}

// RaycastSolids finds the nearest geometry intersection within maxDist.
// A degenerate direction or non-positive range reports no hit.
func RaycastSolids(origin, dir mathx.Vec3, maxDist float64, solids []world.Solid) Hit {
	best := Hit{SolidIndex: -1, Distance: maxDist + 1}
	if maxDist <= 0 || dir.LengthSqr() < 1e-12 {
		return Hit{SolidIndex: -1}
	}
	for i := range solids {
		if t, ok := RayAABB(origin, dir, solids[i].Bounds); ok && t < best.Distance {
			best.Hit = true
			best.Distance = t
			best.Point = origin.Add(dir.Scale(t))
			best.SolidIndex = i
		}
	}
	if best.Distance > maxDist {
		return Hit{SolidIndex: -1}
	}
	return best
}

// RaySphere returns the nearest strictly positive intersection distance of a
// ray with a sphere.
func RaySphere(origin, dir, center mathx.Vec3, radius float64) (float64, bool) {
	oc := origin.Sub(center)
	b := oc.Dot(dir)
	c := oc.LengthSqr() - radius*radius
	disc := b*b - c
	if disc < 0 {
		return 0, false
	}
	sq := math.Sqrt(disc)
	if t := -b - sq; t > 0 {
		return t, true
	}
	if t := -b + sq; t > 0 {
		return t, true
	}
	return 0, false
}

// RayBlockedBySmoke reports whether the segment from -> to passes through any
// live smoke zone.
func RayBlockedBySmoke(from, to mathx.Vec3, smokes []world.SmokeZone) bool {
	seg := to.Sub(from)
	length := seg.Length()
	if length < 0.01 {
		return false
	}
	dir := seg.Scale(1 / length)
	for i := range smokes {
		if t, ok := RaySphere(from, dir, smokes[i].Pos, smokes[i].Radius); ok && t < length {
			return true
		}
	}
	return false
}
