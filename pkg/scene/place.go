package scene

import (
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/solarform/pkg/element"
	"github.com/chazu/solarform/pkg/geom"
)

// Element positions are stored relative to the parent element:
//
//   - under Ground, Foundation, Cuboid or Roof: (cx, cy, cz) is the offset
//     from the parent node origin along the parent's own axes, in length
//     units. A roof node coincides with its foundation node.
//   - under Wall: cx and cz are fractions in [-0.5, 0.5] of the wall's
//     length and height; the outer face of a wall is its local -Y side.
//
// These helpers convert between that convention and parent-node-local
// points.

// DefaultNormal is the mount normal of an element on a horizontal surface.
var DefaultNormal = v3.Vec{Z: 1}

// WallOuterNormal is the outward normal of a wall in its own frame.
var WallOuterNormal = v3.Vec{Y: -1}

// MountPoint returns the point of the parent surface the element is
// attached to, in the parent node's frame.
func MountPoint(e element.Element, parent *element.Element) v3.Vec {
	if parent != nil && parent.Kind == element.KindWall {
		return v3.Vec{X: e.CX * parent.LX, Y: -parent.LY / 2, Z: e.CZ * parent.LZ}
	}
	return v3.Vec{X: e.CX, Y: e.CY, Z: e.CZ}
}

// ElementCoords converts a parent-node-local point into the element's
// stored (cx, cy, cz) for that parent.
func ElementCoords(local v3.Vec, parent *element.Element) [3]float64 {
	if parent != nil && parent.Kind == element.KindWall {
		var cx, cz float64
		if parent.LX > 0 {
			cx = local.X / parent.LX
		}
		if parent.LZ > 0 {
			cz = local.Z / parent.LZ
		}
		return [3]float64{cx, 0, cz}
	}
	return [3]float64{local.X, local.Y, local.Z}
}

// MountNormal returns the element's stored surface normal, defaulting to
// straight up.
func MountNormal(e element.Element) v3.Vec {
	n := geom.FromArray(e.Normal)
	if n.Length() < 1e-12 {
		return DefaultNormal
	}
	return n.Normalize()
}

// PanelFrame returns a solar panel's rack frame in the parent node's frame:
// the surface orientation, then the relative azimuth about the surface
// normal, then the tilt about the rack's local X axis. The origin is lifted
// off the surface by the pole height plus half the rack thickness.
func PanelFrame(e element.Element, parent *element.Element) geom.Frame {
	d, _ := e.SolarPanel()
	n := MountNormal(e)
	surface := geom.NewFrame(v3.Vec{}, geom.RotationFromNormal(n))
	rack := geom.NewFrame(v3.Vec{}, v3.Vec{X: d.TiltAngle, Z: d.RelativeAzimuth})
	f := surface.Mul(rack)
	f.Origin = MountPoint(e, parent).Add(n.MulScalar(d.PoleHeight + e.LZ/2))
	return f
}

// RulerEndpoints returns a ruler's endpoints in its parent node's frame.
func RulerEndpoints(e element.Element) (v3.Vec, v3.Vec) {
	d, _ := e.Ruler()
	return geom.FromArray(d.LeftEndPoint), geom.FromArray(d.RightEndPoint)
}

// LocalFrame returns the node transform of e relative to its parent node,
// and the pickable size of its box, if any.
func LocalFrame(e element.Element, parent *element.Element) (geom.Frame, v3.Vec) {
	size := v3.Vec{X: e.LX, Y: e.LY, Z: e.LZ}
	switch e.Kind {
	case element.KindRoof:
		return geom.Identity, v3.Vec{}
	case element.KindSolarPanel:
		return PanelFrame(e, parent), size
	case element.KindWindow, element.KindDoor:
		return geom.NewFrame(MountPoint(e, parent).Add(v3.Vec{Y: parentDepth(parent) / 2}), v3.Vec{}), size
	case element.KindRuler:
		l, r := RulerEndpoints(e)
		d := r.Sub(l)
		mid := l.Add(d.MulScalar(0.5))
		length := d.Length()
		var rot v3.Vec
		if math.Hypot(d.X, d.Y) < 1e-9 && math.Abs(d.Z) > 1e-9 {
			rot = v3.Vec{Y: -math.Pi / 2}
			if d.Z < 0 {
				rot.Y = math.Pi / 2
			}
		} else {
			rot = v3.Vec{Z: math.Atan2(d.Y, d.X)}
		}
		return geom.NewFrame(mid, rot), v3.Vec{X: math.Max(length, 1e-3), Y: math.Max(e.LY, 0.1), Z: math.Max(e.LZ, 0.05)}
	default:
		return geom.NewFrame(v3.Vec{X: e.CX, Y: e.CY, Z: e.CZ}, geom.EulerArray(e.Rotation)), size
	}
}

func parentDepth(parent *element.Element) float64 {
	if parent == nil {
		return 0
	}
	return parent.LY
}
