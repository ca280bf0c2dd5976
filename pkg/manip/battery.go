package manip

import (
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/solarform/pkg/element"
	"github.com/chazu/solarform/pkg/geom"
)

// BatteryRules handles battery storage boxes, which stand on foundation
// tops only.
type BatteryRules struct{}

func (BatteryRules) Kind() element.Kind { return element.KindBatteryStorage }

func (BatteryRules) Allows(_ element.Element, op Operation) bool {
	switch op {
	case Move, ResizeX, ResizeY, ResizeXY, ResizeZ, RotateUpper, RotateLower:
		return true
	}
	return false
}

func (BatteryRules) Begin(c *Context, g *Gesture) bool {
	pf := c.parentFrame(g.Start)
	bf := boxFrame(pf, g.Start)
	switch g.Op {
	case Move:
		g.WorldAzimuth = bf.Azimuth()
	case ResizeX, ResizeY, ResizeXY:
		sx, sy := g.Handle.signs()
		if (g.Op != ResizeY && sx == 0) || (g.Op != ResizeX && sy == 0) {
			return false
		}
		if g.Op == ResizeX {
			sy = 0
		}
		if g.Op == ResizeY {
			sx = 0
		}
		g.Axis = v3.Vec{X: sx, Y: sy}
		g.Anchor = bf.ToWorld(v3.Vec{X: -sx * g.Start.LX / 2, Y: -sy * g.Start.LY / 2})
		g.Plane = geom.NewPlane(bf.Origin, bf.Z)
	case ResizeZ:
		g.Anchor = bf.ToWorld(v3.Vec{Z: -g.Start.LZ / 2})
		g.Axis = bf.Z
		g.Plane = c.facingPlane(g.Anchor, bf.Z)
	case RotateUpper, RotateLower:
		g.Anchor = bf.Origin
		g.Plane = geom.NewPlane(bf.Origin, pf.Z)
	default:
		return false
	}
	return true
}

func (r BatteryRules) Update(c *Context, g *Gesture, ray geom.Ray) (element.Element, bool) {
	e := g.Start
	if g.Op == Move {
		return moveOnSurface(c, g, ray, foundationTop)
	}
	hit, ok := geom.IntersectRayPlane(ray, g.Plane)
	if !ok {
		return e, false
	}
	pf := c.parentFrame(e)
	bf := boxFrame(pf, e)

	switch g.Op {
	case ResizeX, ResizeY, ResizeXY:
		local := bf.ToLocal(hit)
		anchor := bf.ToLocal(g.Anchor)
		var center v3.Vec
		if g.Axis.X != 0 {
			cx, lx := geom.ResizeAlong(anchor, v3.Vec{X: g.Axis.X}, local, 0, c.Options.MinSize)
			center.X, e.LX = cx.X, lx
		}
		if g.Axis.Y != 0 {
			cy, ly := geom.ResizeAlong(anchor, v3.Vec{Y: g.Axis.Y}, local, 0, c.Options.MinSize)
			center.Y, e.LY = cy.Y, ly
		}
		setCenter(&e, pf.ToLocal(bf.ToWorld(center)))
	case ResizeZ:
		lz := math.Max(c.Options.MinSize, hit.Sub(g.Anchor).Dot(g.Axis))
		e.LZ = lz
		setCenter(&e, pf.ToLocal(g.Anchor.Add(g.Axis.MulScalar(lz/2))))
	case RotateUpper, RotateLower:
		a, ok := headingTo(pf, g, hit)
		if !ok {
			return e, false
		}
		e.Rotation[2] = a
	default:
		unhandled(r, g.Op)
	}
	return e, true
}

// moveOnSurface drops a box-shaped element onto the picked surface, its
// base resting on it, and keeps its heading in world space.
func moveOnSurface(c *Context, g *Gesture, ray geom.Ray, accepted ...surfaceKind) (element.Element, bool) {
	e := g.Start
	h, ok := c.pickSurface(ray, e.ID, accepted...)
	if !ok {
		return e, false
	}
	pf := h.node.WorldFrame()
	local := pf.ToLocal(h.point)
	e.CX, e.CY, e.CZ = local.X, local.Y, local.Z+e.LZ/2
	reparent(&e, h)
	e.Rotation[2] = geom.NormalizeAngle(g.WorldAzimuth - pf.Azimuth())
	return e, true
}

// headingTo returns the z rotation that points the gesture's rotate
// handle at hit. The upper handle sits on the local +Y side, the lower one
// on -Y.
func headingTo(pf geom.Frame, g *Gesture, hit v3.Vec) (float64, bool) {
	v := pf.DirToLocal(hit.Sub(g.Anchor))
	if math.Hypot(v.X, v.Y) < 1e-9 {
		return 0, false
	}
	a := math.Atan2(v.Y, v.X)
	if g.Op == RotateUpper {
		a -= math.Pi / 2
	} else {
		a += math.Pi / 2
	}
	return geom.NormalizeAngle(a), true
}

// boxFrame returns the world frame of an element placed by center and
// rotation.
func boxFrame(pf geom.Frame, e element.Element) geom.Frame {
	return pf.Mul(geom.NewFrame(v3.Vec{X: e.CX, Y: e.CY, Z: e.CZ}, geom.EulerArray(e.Rotation)))
}

func setCenter(e *element.Element, p v3.Vec) {
	e.CX, e.CY, e.CZ = p.X, p.Y, p.Z
}
