package geom

import (
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// parallelEpsilon is the smallest |dir·normal| treated as a real crossing.
const parallelEpsilon = 1e-9

// Ray is a half-line starting at Origin. Direction need not be unit length,
// but every ray built by this module normalizes it.
type Ray struct {
	Origin    v3.Vec
	Direction v3.Vec
}

// At returns the point Origin + t*Direction.
func (r Ray) At(t float64) v3.Vec {
	return r.Origin.Add(r.Direction.MulScalar(t))
}

// Plane is an infinite plane through Point with the given Normal.
type Plane struct {
	Point  v3.Vec
	Normal v3.Vec
}

// NewPlane returns a plane with a normalized normal.
func NewPlane(point, normal v3.Vec) Plane {
	return Plane{Point: point, Normal: normal.Normalize()}
}

// SignedDistance returns the distance of p above the plane along its normal.
func (p Plane) SignedDistance(q v3.Vec) float64 {
	return q.Sub(p.Point).Dot(p.Normal)
}

// IntersectRayPlane returns where the ray crosses the plane. It reports false
// when the ray is parallel to the plane or the plane lies behind the origin.
func IntersectRayPlane(r Ray, p Plane) (v3.Vec, bool) {
	t, ok := RayPlaneDistance(r, p)
	if !ok {
		return v3.Vec{}, false
	}
	return r.At(t), true
}

// RayPlaneDistance returns the ray parameter of the crossing with p.
func RayPlaneDistance(r Ray, p Plane) (float64, bool) {
	denom := r.Direction.Dot(p.Normal)
	if math.Abs(denom) < parallelEpsilon {
		return 0, false
	}
	t := p.Point.Sub(r.Origin).Dot(p.Normal) / denom
	if t < 0 || math.IsNaN(t) {
		return 0, false
	}
	return t, true
}
