package manip

import (
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/solarform/pkg/element"
	"github.com/chazu/solarform/pkg/geom"
	"github.com/chazu/solarform/pkg/pvmodel"
	"github.com/chazu/solarform/pkg/scene"
)

// PanelRules moves, resizes, rotates and tilts solar panel racks. A panel
// rides on foundation tops, outer wall faces, roof segments and cuboid
// faces; its width and length snap to whole modules.
type PanelRules struct{}

func (PanelRules) Kind() element.Kind { return element.KindSolarPanel }

func (PanelRules) Allows(e element.Element, op Operation) bool {
	d, _ := e.SolarPanel()
	switch op {
	case Move, ResizeX, ResizeY, ResizeZ:
		return true
	case RotateUpper, RotateLower, Tilt:
		return d.TrackerType == element.NoTracker
	default:
		return false
	}
}

func (PanelRules) Begin(c *Context, g *Gesture) bool {
	e := g.Start
	parent := c.parent(e)
	onWall := parent != nil && parent.Kind == element.KindWall
	pf := c.parentFrame(e)
	rack := pf.Mul(scene.PanelFrame(e, parent))
	surface := panelSurface(pf, e, parent)

	switch g.Op {
	case Move:
		d, _ := e.SolarPanel()
		g.WorldAzimuth = pf.Azimuth() + geom.RotationFromNormal(scene.MountNormal(e)).Z + d.RelativeAzimuth
	case ResizeX, ResizeY:
		sx, sy := g.Handle.signs()
		axis, half := rack.X.MulScalar(sx), e.LX/2
		if g.Op == ResizeY {
			axis, half = rack.Y.MulScalar(sy), e.LY/2
		}
		if axis.Length() < 1e-9 {
			return false
		}
		g.Axis = axis
		g.Anchor = rack.Origin.Sub(axis.MulScalar(half))
		g.Plane = geom.NewPlane(g.Anchor, rack.Z)
	case ResizeZ:
		if onWall {
			return false
		}
		g.Anchor = surface.Origin
		g.Axis = surface.Z
		g.Plane = c.facingPlane(surface.Origin, surface.Z)
	case RotateUpper, RotateLower:
		if onWall {
			return false
		}
		g.Anchor = rack.Origin
		g.Plane = geom.NewPlane(rack.Origin, surface.Z)
	case Tilt:
		g.Anchor = rack.Origin
		g.Plane = geom.NewPlane(rack.Origin, rack.X)
	default:
		return false
	}
	return true
}

func (r PanelRules) Update(c *Context, g *Gesture, ray geom.Ray) (element.Element, bool) {
	e := g.Start
	d, _ := e.SolarPanel()
	parent := c.parent(e)
	onWall := parent != nil && parent.Kind == element.KindWall
	pf := c.parentFrame(e)

	if g.Op == Move {
		return r.move(c, g, ray)
	}
	hit, ok := geom.IntersectRayPlane(ray, g.Plane)
	if !ok {
		return e, false
	}

	switch g.Op {
	case ResizeX, ResizeY:
		model := pvmodel.Resolve(d.ModelName)
		stepX, stepY := model.Steps(d.Orientation)
		step := stepX
		if g.Op == ResizeY {
			step = stepY
		}
		center, length := geom.ResizeAlong(g.Anchor, g.Axis, hit, step, c.Options.MinSize)
		if g.Op == ResizeX {
			e.LX = length
		} else {
			e.LY = length
		}
		rack := pf.Mul(scene.PanelFrame(g.Start, parent))
		n := pf.DirToWorld(scene.MountNormal(e))
		delta := center.Sub(rack.Origin)
		delta = delta.Sub(n.MulScalar(delta.Dot(n)))
		shiftMount(&e, parent, pf.DirToLocal(delta))
	case ResizeZ:
		h := hit.Sub(g.Anchor).Dot(g.Axis)
		d.PoleHeight = math.Max(0, h-e.LZ/2)
	case RotateUpper, RotateLower:
		surface := panelSurface(pf, e, parent)
		v := surface.DirToLocal(hit.Sub(g.Anchor))
		if math.Hypot(v.X, v.Y) < 1e-9 {
			return e, false
		}
		a := math.Atan2(v.Y, v.X)
		if g.Op == RotateUpper {
			a -= math.Pi / 2
		} else {
			a += math.Pi / 2
		}
		d.RelativeAzimuth = geom.NormalizeAngle(a)
	case Tilt:
		surface := panelSurface(pf, e, parent)
		v := hit.Sub(g.Anchor)
		n := surface.Z
		if onWall {
			up := surface.Y
			d.TiltAngle = geom.Clamp(-math.Atan2(math.Max(0, v.Dot(n)), -v.Dot(up)), -math.Pi/2, 0)
		} else {
			y0 := surface.DirToWorld(geom.RotateZ(v3.Vec{Y: 1}, d.RelativeAzimuth))
			limit := math.Pi / 2
			if half := e.LY / 2; d.PoleHeight < half {
				limit = math.Asin(d.PoleHeight / half)
			}
			d.TiltAngle = geom.Clamp(math.Atan2(-v.Dot(y0), v.Dot(n)), -limit, limit)
		}
	default:
		unhandled(r, g.Op)
	}
	e.Data = d
	return e, true
}

func (PanelRules) move(c *Context, g *Gesture, ray geom.Ray) (element.Element, bool) {
	e := g.Start
	d, _ := e.SolarPanel()
	h, ok := c.pickSurface(ray, e.ID, foundationTop, wallOutside, roofSegment, cuboidFace)
	if !ok {
		return e, false
	}
	pf := h.node.WorldFrame()
	local := pf.ToLocal(h.point)
	coords := scene.ElementCoords(local, &h.parent)
	e.CX, e.CY, e.CZ = coords[0], coords[1], coords[2]
	reparent(&e, h)

	surfaceRot := geom.RotationFromNormal(h.normal)
	e.Normal = geom.Array(h.normal)
	e.Rotation = geom.Array(surfaceRot)
	if h.parent.Kind == element.KindWall {
		d.RelativeAzimuth = 0
		d.TiltAngle = geom.Clamp(d.TiltAngle, -math.Pi/2, 0)
	} else {
		d.RelativeAzimuth = geom.NormalizeAngle(g.WorldAzimuth - pf.Azimuth() - surfaceRot.Z)
	}
	e.Data = d
	return e, true
}

// panelSurface returns the surface frame under a panel in world space: the
// origin is the mount point and Z is the surface normal.
func panelSurface(pf geom.Frame, e element.Element, parent *element.Element) geom.Frame {
	s := geom.NewFrame(scene.MountPoint(e, parent), geom.RotationFromNormal(scene.MountNormal(e)))
	return pf.Mul(s)
}

// shiftMount moves an element's mount point by a parent-local delta.
func shiftMount(e *element.Element, parent *element.Element, delta v3.Vec) {
	if parent != nil && parent.Kind == element.KindWall {
		if parent.LX > 0 {
			e.CX += delta.X / parent.LX
		}
		if parent.LZ > 0 {
			e.CZ += delta.Z / parent.LZ
		}
		return
	}
	e.CX += delta.X
	e.CY += delta.Y
	e.CZ += delta.Z
}
