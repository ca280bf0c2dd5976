package geom

import (
	"math"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Euler angles are stored as [x, y, z] in radians and compose as
// Rz(z)·Ry(y)·Rx(x), the same order the kernel uses for solids.

// EulerMatrix returns the rotation matrix for the Euler angles r.
func EulerMatrix(r v3.Vec) sdf.M44 {
	return sdf.RotateZ(r.Z).Mul(sdf.RotateY(r.Y)).Mul(sdf.RotateX(r.X))
}

// EulerArray converts a stored rotation array to a vector.
func EulerArray(r [3]float64) v3.Vec {
	return v3.Vec{X: r[0], Y: r[1], Z: r[2]}
}

// Array converts a vector to the [3]float64 form used by elements.
func Array(v v3.Vec) [3]float64 {
	return [3]float64{v.X, v.Y, v.Z}
}

// FromArray converts a [3]float64 to a vector.
func FromArray(a [3]float64) v3.Vec {
	return v3.Vec{X: a[0], Y: a[1], Z: a[2]}
}

// RotateDirection applies the linear part of m to the direction v.
func RotateDirection(m sdf.M44, v v3.Vec) v3.Vec {
	return m.MulPosition(v).Sub(m.MulPosition(v3.Vec{}))
}

// basis returns the images of the unit axes under the linear part of m.
func basis(m sdf.M44) (x, y, z v3.Vec) {
	o := m.MulPosition(v3.Vec{})
	x = m.MulPosition(v3.Vec{X: 1}).Sub(o)
	y = m.MulPosition(v3.Vec{Y: 1}).Sub(o)
	z = m.MulPosition(v3.Vec{Z: 1}).Sub(o)
	return x, y, z
}

// EulerFromMatrix decomposes the rotation part of m into Euler angles.
func EulerFromMatrix(m sdf.M44) v3.Vec {
	return eulerFromBasis(basis(m))
}

// eulerFromBasis decomposes the rotation whose columns are c0, c1, c2.
func eulerFromBasis(c0, c1, c2 v3.Vec) v3.Vec {
	// Rows of the rotation: m20 = c0.Z, m21 = c1.Z, m22 = c2.Z.
	sy := Clamp(-c0.Z, -1, 1)
	y := math.Asin(sy)
	if math.Abs(sy) < 1-1e-9 {
		return v3.Vec{
			X: math.Atan2(c1.Z, c2.Z),
			Y: y,
			Z: math.Atan2(c0.Y, c0.X),
		}
	}
	// Gimbal lock: x and z rotate about the same axis, fold everything into z.
	return v3.Vec{
		X: 0,
		Y: y,
		Z: math.Atan2(-c1.X, c1.Y),
	}
}

// Azimuth returns the rotation of m about the world Z axis, taken from the
// image of the X axis projected on the horizontal plane.
func Azimuth(m sdf.M44) float64 {
	x, _, _ := basis(m)
	return math.Atan2(x.Y, x.X)
}

// RotationFromNormal returns Euler angles (with y = 0) whose matrix maps +Z
// onto n. A vertical normal yields the zero rotation.
func RotationFromNormal(n v3.Vec) v3.Vec {
	n = n.Normalize()
	if math.Abs(n.X) < 1e-12 && math.Abs(n.Y) < 1e-12 {
		if n.Z >= 0 {
			return v3.Vec{}
		}
		return v3.Vec{X: math.Pi}
	}
	return v3.Vec{
		X: math.Acos(Clamp(n.Z, -1, 1)),
		Z: math.Atan2(n.X, -n.Y),
	}
}

// RotateZ rotates v about the Z axis by angle.
func RotateZ(v v3.Vec, angle float64) v3.Vec {
	s, c := math.Sincos(angle)
	return v3.Vec{X: v.X*c - v.Y*s, Y: v.X*s + v.Y*c, Z: v.Z}
}

// HorizontalDirection drops the Z component of v and normalizes the rest.
// The zero vector is returned when v is vertical.
func HorizontalDirection(v v3.Vec) v3.Vec {
	h := v3.Vec{X: v.X, Y: v.Y}
	if h.Length() < 1e-12 {
		return v3.Vec{}
	}
	return h.Normalize()
}
