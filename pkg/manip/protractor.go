package manip

import (
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/solarform/pkg/element"
	"github.com/chazu/solarform/pkg/geom"
)

// ProtractorRules handles protractors on foundation tops or the ground.
// LX is the arm length; the x rotation lifts the arm up to vertical.
type ProtractorRules struct{}

func (ProtractorRules) Kind() element.Kind { return element.KindProtractor }

func (ProtractorRules) Allows(_ element.Element, op Operation) bool {
	switch op {
	case Move, ResizeX, RotateUpper, RotateLower, Tilt:
		return true
	}
	return false
}

func (ProtractorRules) Begin(c *Context, g *Gesture) bool {
	pf := c.parentFrame(g.Start)
	center := pf.ToWorld(v3.Vec{X: g.Start.CX, Y: g.Start.CY, Z: g.Start.CZ})
	g.Anchor = center
	switch g.Op {
	case Move:
		g.WorldAzimuth = boxFrame(pf, g.Start).Azimuth()
	case ResizeX, RotateUpper, RotateLower:
		g.Plane = geom.NewPlane(center, pf.Z)
	case Tilt:
		g.Plane = geom.NewPlane(center, pf.DirToWorld(geom.RotateZ(v3.Vec{X: 1}, g.Start.Rotation[2])))
	default:
		return false
	}
	return true
}

func (r ProtractorRules) Update(c *Context, g *Gesture, ray geom.Ray) (element.Element, bool) {
	e := g.Start
	if g.Op == Move {
		return moveOnSurface(c, g, ray, foundationTop, groundSurface)
	}
	hit, ok := geom.IntersectRayPlane(ray, g.Plane)
	if !ok {
		return e, false
	}
	pf := c.parentFrame(e)

	switch g.Op {
	case ResizeX:
		e.LX = math.Max(c.Options.MinSize, geom.HorizontalDistance(pf.ToLocal(hit), pf.ToLocal(g.Anchor)))
	case RotateUpper, RotateLower:
		a, ok := headingTo(pf, g, hit)
		if !ok {
			return e, false
		}
		e.Rotation[2] = a
	case Tilt:
		v := hit.Sub(g.Anchor)
		up := pf.Z
		yAz := pf.DirToWorld(geom.RotateZ(v3.Vec{Y: 1}, e.Rotation[2]))
		e.Rotation[0] = geom.Clamp(math.Atan2(v.Dot(up), v.Dot(yAz)), 0, math.Pi/2)
	default:
		unhandled(r, g.Op)
	}
	return e, true
}
