package scene

import (
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/solarform/pkg/geom"
)

// PerspectiveCamera turns normalized device coordinates into pick rays.
// FOV is the vertical field of view in degrees.
type PerspectiveCamera struct {
	Position v3.Vec  `json:"position"`
	Target   v3.Vec  `json:"target"`
	Up       v3.Vec  `json:"up"`
	FOV      float64 `json:"fov"`
	Aspect   float64 `json:"aspect"`
}

// DefaultCamera looks at the origin from the south-west, Z up.
func DefaultCamera() PerspectiveCamera {
	return PerspectiveCamera{
		Position: v3.Vec{X: -20, Y: -30, Z: 25},
		Up:       v3.Vec{Z: 1},
		FOV:      45,
		Aspect:   16.0 / 9.0,
	}
}

// Ray returns the pick ray through the screen point (ndcX, ndcY), both in
// [-1, 1] with +y up.
func (c PerspectiveCamera) Ray(ndcX, ndcY float64) geom.Ray {
	forward := c.Target.Sub(c.Position)
	if forward.Length() < 1e-12 {
		forward = v3.Vec{Y: 1}
	}
	forward = forward.Normalize()
	up := c.Up
	if up.Length() < 1e-12 {
		up = v3.Vec{Z: 1}
	}
	right := geom.Cross(forward, up)
	if right.Length() < 1e-12 {
		// Looking straight along up: pick any perpendicular.
		right = geom.Cross(forward, v3.Vec{Y: 1})
	}
	right = right.Normalize()
	trueUp := geom.Cross(right, forward)

	fov := c.FOV
	if fov <= 0 {
		fov = 45
	}
	aspect := c.Aspect
	if aspect <= 0 {
		aspect = 1
	}
	tanHalf := math.Tan(fov * math.Pi / 360)
	dir := forward.
		Add(right.MulScalar(ndcX * tanHalf * aspect)).
		Add(trueUp.MulScalar(ndcY * tanHalf))
	return geom.Ray{Origin: c.Position, Direction: dir.Normalize()}
}

// Project maps a world point to normalized device coordinates. The last
// result is false when the point lies behind the camera.
func (c PerspectiveCamera) Project(p v3.Vec) (float64, float64, bool) {
	forward := c.Target.Sub(c.Position).Normalize()
	up := c.Up
	if up.Length() < 1e-12 {
		up = v3.Vec{Z: 1}
	}
	right := geom.Cross(forward, up).Normalize()
	trueUp := geom.Cross(right, forward)
	d := p.Sub(c.Position)
	depth := d.Dot(forward)
	if depth <= 0 {
		return 0, 0, false
	}
	fov := c.FOV
	if fov <= 0 {
		fov = 45
	}
	aspect := c.Aspect
	if aspect <= 0 {
		aspect = 1
	}
	tanHalf := math.Tan(fov * math.Pi / 360)
	x := d.Dot(right) / depth / (tanHalf * aspect)
	y := d.Dot(trueUp) / depth / tanHalf
	return x, y, true
}
