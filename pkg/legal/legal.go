// Package legal decides whether a just-committed element may stay where
// the user put it. Solids come from the geometry kernel and are compared
// by their world bounding boxes.
package legal

import (
	"log/slog"
	"math"

	"github.com/chazu/solarform/pkg/element"
	"github.com/chazu/solarform/pkg/kernel"
	"github.com/chazu/solarform/pkg/scene"
)

// Tolerance is the overlap and overhang allowed before a placement is
// rejected.
const Tolerance = 0.01

// Checker rejects placements that overlap a sibling of the same kind or
// hang off their supporting surface. Rulers, protractors and roofs are
// always accepted.
type Checker struct {
	Kernel kernel.Kernel
	Log    *slog.Logger
}

// New returns a checker using k.
func New(k kernel.Kernel, log *slog.Logger) *Checker {
	if log == nil {
		log = slog.Default()
	}
	return &Checker{Kernel: k, Log: log}
}

// IsNewPositionOk reports whether e, as found in all, is an acceptable
// placement.
func (c *Checker) IsNewPositionOk(e element.Element, all []element.Element) bool {
	switch e.Kind {
	case element.KindSolarPanel, element.KindBatteryStorage, element.KindCuboid:
	default:
		return true
	}

	g := scene.NewGraph()
	g.Sync(all)
	n := g.Node(e.ID)
	if n == nil {
		return true
	}
	eMin, eMax, ok := c.bounds(n)
	if !ok {
		return true
	}

	for _, o := range all {
		if o.ID == e.ID || o.Kind != e.Kind || o.ParentID != e.ParentID {
			continue
		}
		on := g.Node(o.ID)
		if on == nil {
			continue
		}
		oMin, oMax, ok := c.bounds(on)
		if ok && kernel.Overlaps(eMin, eMax, oMin, oMax, Tolerance) {
			c.Log.Debug("placement overlaps sibling", "id", e.ID.Short(), "other", o.ID.Short())
			return false
		}
	}

	if !onSurface(e, g) {
		c.Log.Debug("placement hangs off its surface", "id", e.ID.Short())
		return false
	}
	return true
}

// bounds returns the world bounding box of a node's box geometry.
func (c *Checker) bounds(n *scene.Node) (min, max [3]float64, ok bool) {
	b, isBox := n.Geometry.(scene.Box)
	if !isBox {
		return min, max, false
	}
	s := c.Kernel.Place(c.Kernel.Box(b.Size.X, b.Size.Y, b.Size.Z), n.WorldFrame())
	min, max = s.BoundingBox()
	return min, max, true
}

// onSurface checks that the mount point of e lies over its parent: inside
// the footprint of a foundation or cuboid, inside a wall, or over a roof
// segment.
func onSurface(e element.Element, g *scene.Graph) bool {
	if e.IsRoot() {
		return true
	}
	parent, ok := g.Element(e.ParentID)
	if !ok {
		return true
	}
	switch parent.Kind {
	case element.KindWall:
		return math.Abs(e.CX) <= 0.5+Tolerance && math.Abs(e.CZ) <= 0.5+Tolerance
	case element.KindFoundation, element.KindCuboid:
		return math.Abs(e.CX) <= parent.LX/2+Tolerance &&
			math.Abs(e.CY) <= parent.LY/2+Tolerance
	case element.KindRoof:
		n := g.Node(parent.ID)
		meta, _ := scene.ExtractRoleMetadata(n).(*scene.RoofMeta)
		if meta == nil {
			return true
		}
		return meta.SegmentAt(e.CX, e.CY) >= 0
	default:
		return true
	}
}
