// Package kernel defines the abstract geometry kernel interface. The
// tessellator and the legality check build element solids through it, so
// the backend can be swapped without touching either.
package kernel

import "github.com/chazu/solarform/pkg/geom"

// Solid is an opaque handle to a geometry kernel solid.
// Implementations wrap their internal representation.
type Solid interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() (min, max [3]float64)
}

// Kernel is the abstract geometry kernel interface.
type Kernel interface {
	// Primitives, centered on the origin. A cylinder's axis is Z.
	Box(x, y, z float64) Solid
	Cylinder(height, radius float64, segments int) Solid

	// Boolean operations
	Union(a, b Solid) Solid
	Difference(a, b Solid) Solid
	Intersection(a, b Solid) Solid

	// Transforms
	Translate(s Solid, x, y, z float64) Solid
	Rotate(s Solid, x, y, z float64) Solid // Euler angles in radians, Rz·Ry·Rx
	Place(s Solid, f geom.Frame) Solid

	// Mesh output
	ToMesh(s Solid) (*Mesh, error)
}

// Overlaps reports whether two boxes share a region thicker than tol on
// every axis.
func Overlaps(aMin, aMax, bMin, bMax [3]float64, tol float64) bool {
	for i := 0; i < 3; i++ {
		lo := max(aMin[i], bMin[i])
		hi := min(aMax[i], bMax[i])
		if hi-lo <= tol {
			return false
		}
	}
	return true
}

// Contains reports whether the inner box lies within the outer box,
// allowing tol of slack.
func Contains(outerMin, outerMax, innerMin, innerMax [3]float64, tol float64) bool {
	for i := 0; i < 3; i++ {
		if innerMin[i] < outerMin[i]-tol || innerMax[i] > outerMax[i]+tol {
			return false
		}
	}
	return true
}
