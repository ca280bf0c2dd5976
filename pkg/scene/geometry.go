package scene

import (
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/solarform/pkg/geom"
)

// Geometry is pickable shape data in a node's local frame.
type Geometry interface {
	// intersect returns the ray parameter and the local surface normal of
	// the nearest crossing in front of the ray origin.
	intersect(r geom.Ray) (t float64, normal v3.Vec, ok bool)
}

// ---------------------------------------------------------------------------
// Box
// ---------------------------------------------------------------------------

// Box is an axis-aligned box centered on the node origin.
type Box struct {
	Size v3.Vec
}

func (b Box) intersect(r geom.Ray) (float64, v3.Vec, bool) {
	half := b.Size.MulScalar(0.5)
	o := [3]float64{r.Origin.X, r.Origin.Y, r.Origin.Z}
	d := [3]float64{r.Direction.X, r.Direction.Y, r.Direction.Z}
	h := [3]float64{half.X, half.Y, half.Z}

	tNear, tFar := math.Inf(-1), math.Inf(1)
	nearAxis, nearSign := -1, 0.0
	farAxis, farSign := -1, 0.0
	for i := 0; i < 3; i++ {
		if math.Abs(d[i]) < 1e-12 {
			if o[i] < -h[i] || o[i] > h[i] {
				return 0, v3.Vec{}, false
			}
			continue
		}
		t1 := (-h[i] - o[i]) / d[i]
		t2 := (h[i] - o[i]) / d[i]
		s1, s2 := -1.0, 1.0
		if t1 > t2 {
			t1, t2 = t2, t1
			s1, s2 = s2, s1
		}
		if t1 > tNear {
			tNear, nearAxis, nearSign = t1, i, s1
		}
		if t2 < tFar {
			tFar, farAxis, farSign = t2, i, s2
		}
		if tNear > tFar {
			return 0, v3.Vec{}, false
		}
	}
	if tFar < 0 {
		return 0, v3.Vec{}, false
	}
	t, axis, sign := tNear, nearAxis, nearSign
	if tNear < 0 {
		// Origin inside the box: report the exit face.
		t, axis, sign = tFar, farAxis, farSign
	}
	if axis < 0 {
		return 0, v3.Vec{}, false
	}
	var n [3]float64
	n[axis] = sign
	return t, v3.Vec{X: n[0], Y: n[1], Z: n[2]}, true
}

// ---------------------------------------------------------------------------
// Polygon
// ---------------------------------------------------------------------------

// Polygon is a convex planar polygon. Its normal follows the winding of
// the first three points (counter-clockwise seen from the front).
type Polygon struct {
	Points []v3.Vec
}

// Normal returns the unit normal of the polygon's plane.
func (p Polygon) Normal() v3.Vec {
	if len(p.Points) < 3 {
		return v3.Vec{}
	}
	var n v3.Vec
	// Newell's method tolerates a collinear leading triple.
	for i := range p.Points {
		a, b := p.Points[i], p.Points[(i+1)%len(p.Points)]
		n.X += (a.Y - b.Y) * (a.Z + b.Z)
		n.Y += (a.Z - b.Z) * (a.X + b.X)
		n.Z += (a.X - b.X) * (a.Y + b.Y)
	}
	if n.Length() < 1e-12 {
		return v3.Vec{}
	}
	return n.Normalize()
}

// Contains reports whether q, assumed to lie in the polygon's plane, is
// inside or on the boundary.
func (p Polygon) Contains(q v3.Vec) bool {
	n := p.Normal()
	for i := range p.Points {
		a, b := p.Points[i], p.Points[(i+1)%len(p.Points)]
		if geom.Cross(b.Sub(a), q.Sub(a)).Dot(n) < -1e-9 {
			return false
		}
	}
	return true
}

// Centroid returns the vertex average.
func (p Polygon) Centroid() v3.Vec {
	var c v3.Vec
	for _, pt := range p.Points {
		c = c.Add(pt)
	}
	if len(p.Points) == 0 {
		return c
	}
	return c.MulScalar(1 / float64(len(p.Points)))
}

func (p Polygon) intersect(r geom.Ray) (float64, v3.Vec, bool) {
	n := p.Normal()
	if n.Length() == 0 {
		return 0, v3.Vec{}, false
	}
	t, ok := geom.RayPlaneDistance(r, geom.Plane{Point: p.Points[0], Normal: n})
	if !ok || !p.Contains(r.At(t)) {
		return 0, v3.Vec{}, false
	}
	return t, n, true
}

// ---------------------------------------------------------------------------
// GroundPlane
// ---------------------------------------------------------------------------

// GroundPlane is the infinite z = 0 plane, pickable from above only.
type GroundPlane struct{}

func (GroundPlane) intersect(r geom.Ray) (float64, v3.Vec, bool) {
	if r.Direction.Z >= 0 {
		return 0, v3.Vec{}, false
	}
	t, ok := geom.RayPlaneDistance(r, geom.Plane{Normal: v3.Vec{Z: 1}})
	if !ok {
		return 0, v3.Vec{}, false
	}
	return t, v3.Vec{Z: 1}, true
}
