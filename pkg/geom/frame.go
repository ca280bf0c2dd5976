package geom

import (
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Frame is a rigid transform: an origin and three orthonormal axes, all
// expressed in the enclosing frame. Composing frames never accumulates
// scale, so ToLocal is an exact inverse of ToWorld.
type Frame struct {
	Origin  v3.Vec
	X, Y, Z v3.Vec
}

// Identity is the world frame.
var Identity = Frame{X: v3.Vec{X: 1}, Y: v3.Vec{Y: 1}, Z: v3.Vec{Z: 1}}

// NewFrame returns the frame at origin rotated by the Euler angles r.
func NewFrame(origin, r v3.Vec) Frame {
	x, y, z := basis(EulerMatrix(r))
	return Frame{Origin: origin, X: x, Y: y, Z: z}
}

// ToWorld maps a point from this frame to the enclosing frame.
func (f Frame) ToWorld(p v3.Vec) v3.Vec {
	return f.Origin.Add(f.DirToWorld(p))
}

// ToLocal maps a point from the enclosing frame into this frame.
func (f Frame) ToLocal(p v3.Vec) v3.Vec {
	return f.DirToLocal(p.Sub(f.Origin))
}

// DirToWorld rotates a direction from this frame to the enclosing frame.
func (f Frame) DirToWorld(d v3.Vec) v3.Vec {
	return f.X.MulScalar(d.X).Add(f.Y.MulScalar(d.Y)).Add(f.Z.MulScalar(d.Z))
}

// DirToLocal rotates a direction from the enclosing frame into this frame.
func (f Frame) DirToLocal(d v3.Vec) v3.Vec {
	return v3.Vec{X: d.Dot(f.X), Y: d.Dot(f.Y), Z: d.Dot(f.Z)}
}

// Mul returns child expressed in the enclosing frame of f.
func (f Frame) Mul(child Frame) Frame {
	return Frame{
		Origin: f.ToWorld(child.Origin),
		X:      f.DirToWorld(child.X),
		Y:      f.DirToWorld(child.Y),
		Z:      f.DirToWorld(child.Z),
	}
}

// Euler returns the Euler angles of the frame's rotation.
func (f Frame) Euler() v3.Vec {
	return eulerFromBasis(f.X, f.Y, f.Z)
}

// Azimuth returns the heading of the frame's X axis about the Z axis.
func (f Frame) Azimuth() float64 {
	return math.Atan2(f.X.Y, f.X.X)
}

// RayToLocal maps a ray into this frame. Distances along the ray are
// preserved because the frame is rigid.
func (f Frame) RayToLocal(r Ray) Ray {
	return Ray{Origin: f.ToLocal(r.Origin), Direction: f.DirToLocal(r.Direction)}
}

// Cross returns the cross product a × b.
func Cross(a, b v3.Vec) v3.Vec {
	return v3.Vec{
		X: a.Y*b.Z - a.Z*b.Y,
		Y: a.Z*b.X - a.X*b.Z,
		Z: a.X*b.Y - a.Y*b.X,
	}
}

// Distance returns |a - b|.
func Distance(a, b v3.Vec) float64 {
	return a.Sub(b).Length()
}

// HorizontalDistance returns the distance between a and b ignoring Z.
func HorizontalDistance(a, b v3.Vec) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}
