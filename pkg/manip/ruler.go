package manip

import (
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/solarform/pkg/element"
	"github.com/chazu/solarform/pkg/geom"
	"github.com/chazu/solarform/pkg/scene"
	"github.com/chazu/solarform/pkg/snap"
	"github.com/chazu/solarform/pkg/store"
)

// minVerticalRuler is the shortest a vertical ruler can be dragged.
const minVerticalRuler = 0.5

// RulerRules handles measuring rulers. Endpoints snap to foundation
// corners, wall ends and other rulers, and fall back to the grid.
type RulerRules struct{}

func (RulerRules) Kind() element.Kind { return element.KindRuler }

func (RulerRules) Allows(e element.Element, op Operation) bool {
	d, _ := e.Ruler()
	switch op {
	case Move:
		return true
	case ResizeX:
		return d.Type == element.RulerHorizontal
	case ResizeZ:
		return d.Type == element.RulerVertical
	}
	return false
}

func (RulerRules) Begin(c *Context, g *Gesture) bool {
	pf := c.parentFrame(g.Start)
	l, r := rulerWorld(pf, g.Start)
	g.Snaps = snap.BuildGroundSnapPoints(c.Elements(), g.ID)

	switch g.Op {
	case Move:
		g.Plane = geom.NewPlane(l, v3.Vec{Z: 1})
		if grab, ok := geom.IntersectRayPlane(c.pointerRay(g), g.Plane); ok {
			g.Offset = l.Sub(grab)
			g.Offset.Z = 0
		}
	case ResizeX:
		switch g.Handle {
		case Left:
			g.Anchor = r
			g.Plane = geom.NewPlane(l, v3.Vec{Z: 1})
		case Right:
			g.Anchor = l
			g.Plane = geom.NewPlane(r, v3.Vec{Z: 1})
		default:
			return false
		}
	case ResizeZ:
		bottom := l
		if r.Z < l.Z {
			bottom = r
		}
		g.Anchor = bottom
		g.Plane = c.facingPlane(bottom, v3.Vec{Z: 1})
	default:
		return false
	}
	return true
}

func (rr RulerRules) Update(c *Context, g *Gesture, ray geom.Ray) (element.Element, bool) {
	e := g.Start
	if g.Op == Move {
		return rr.move(c, g, ray)
	}
	hit, ok := geom.IntersectRayPlane(ray, g.Plane)
	if !ok {
		return e, false
	}
	pf := c.parentFrame(e)
	l, r := rulerWorld(pf, e)

	switch g.Op {
	case ResizeX:
		moving := l
		if g.Handle == Right {
			moving = r
		}
		p, m := snap.Nearest(v3.Vec{X: hit.X, Y: hit.Y, Z: moving.Z}, g.Snaps, c.Options.SnapThreshold, c.Options.GridStep)
		if geom.HorizontalDistance(p, g.Anchor) < store.MinRulerLength {
			dir := geom.HorizontalDirection(p.Sub(g.Anchor))
			if dir.Length() == 0 {
				dir = geom.HorizontalDirection(moving.Sub(g.Anchor))
			}
			if dir.Length() == 0 {
				dir = v3.Vec{X: 1}
			}
			p = g.Anchor.Add(dir.MulScalar(store.MinRulerLength))
			p.Z = moving.Z
			m = nil
		}
		g.Match = m
		if g.Handle == Right {
			r = p
		} else {
			l = p
		}
	case ResizeZ:
		length := math.Max(minVerticalRuler, hit.Z-g.Anchor.Z)
		top := g.Anchor.Add(v3.Vec{Z: length})
		if l.Z <= r.Z {
			r = top
		} else {
			l = top
		}
	default:
		unhandled(rr, g.Op)
	}
	setRuler(&e, pf, l, r)
	return e, true
}

func (RulerRules) move(c *Context, g *Gesture, ray geom.Ray) (element.Element, bool) {
	e := g.Start
	h, ok := c.pickSurface(ray, e.ID, foundationTop, groundSurface)
	if !ok {
		return e, false
	}
	l, r := rulerWorld(c.parentFrame(e), e)
	span := r.Sub(l)
	// The lower endpoint rests on the surface.
	left := h.point.Add(g.Offset)
	left.Z = h.point.Z + l.Z - math.Min(l.Z, r.Z)
	right := left.Add(span)

	p, m := snap.Nearest(left, g.Snaps, c.Options.SnapThreshold, c.Options.GridStep)
	if m == nil {
		if q, mr := snap.Nearest(right, g.Snaps, c.Options.SnapThreshold, c.Options.GridStep); mr != nil {
			p, m = q.Sub(span), mr
		}
	}
	shift := v3.Vec{X: p.X - left.X, Y: p.Y - left.Y}
	g.Match = m

	reparent(&e, h)
	setRuler(&e, h.node.WorldFrame(), left.Add(shift), right.Add(shift))
	return e, true
}

// rulerWorld returns a ruler's endpoints in world space.
func rulerWorld(pf geom.Frame, e element.Element) (v3.Vec, v3.Vec) {
	l, r := scene.RulerEndpoints(e)
	return pf.ToWorld(l), pf.ToWorld(r)
}

// setRuler stores world endpoints l and r relative to the parent frame pf
// and centers the element between them.
func setRuler(e *element.Element, pf geom.Frame, l, r v3.Vec) {
	d, _ := e.Ruler()
	ll, rl := pf.ToLocal(l), pf.ToLocal(r)
	d.LeftEndPoint = geom.Array(ll)
	d.RightEndPoint = geom.Array(rl)
	e.Data = d
	setCenter(e, ll.Add(rl).MulScalar(0.5))
}
