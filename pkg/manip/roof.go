package manip

import (
	"math"

	"github.com/chazu/solarform/pkg/element"
	"github.com/chazu/solarform/pkg/geom"
	"github.com/chazu/solarform/pkg/scene"
)

// RoofRules drags the apex of a roof up and down. The footprint follows
// the walls, so rise is the only thing a pointer edits.
type RoofRules struct{}

func (RoofRules) Kind() element.Kind { return element.KindRoof }

func (RoofRules) Allows(_ element.Element, op Operation) bool {
	return op == ResizeZ
}

func (RoofRules) Begin(c *Context, g *Gesture) bool {
	n := c.Graph.Node(g.ID)
	meta, ok := scene.ExtractRoleMetadata(n).(*scene.RoofMeta)
	if !ok || meta == nil || g.Op != ResizeZ {
		return false
	}
	rf := n.WorldFrame()
	g.Anchor = rf.ToWorld(meta.Centroid)
	g.Axis = rf.Z
	g.Plane = c.facingPlane(g.Anchor, rf.Z)
	return true
}

func (r RoofRules) Update(c *Context, g *Gesture, ray geom.Ray) (element.Element, bool) {
	e := g.Start
	if g.Op != ResizeZ {
		unhandled(r, g.Op)
	}
	hit, ok := geom.IntersectRayPlane(ray, g.Plane)
	if !ok {
		return e, false
	}
	d, _ := e.Roof()
	d.Rise = math.Max(0, hit.Sub(g.Anchor).Dot(g.Axis))
	e.Data = d
	return e, true
}
