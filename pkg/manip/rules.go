package manip

import (
	"fmt"
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/solarform/pkg/element"
	"github.com/chazu/solarform/pkg/geom"
	"github.com/chazu/solarform/pkg/scene"
	"github.com/chazu/solarform/pkg/snap"
	"github.com/chazu/solarform/pkg/store"
)

// Rules is the kind-specific half of a gesture.
type Rules interface {
	Kind() element.Kind
	// Allows reports whether op may start on e.
	Allows(e element.Element, op Operation) bool
	// Begin captures the anchor geometry on pointer-down. Returning false
	// refuses the gesture.
	Begin(c *Context, g *Gesture) bool
	// Update computes the transient element for the pointer ray, always
	// starting from g.Start. Returning false skips the frame.
	Update(c *Context, g *Gesture, ray geom.Ray) (element.Element, bool)
}

// Gesture is the transient state of one pointer gesture.
type Gesture struct {
	ID      element.ID
	Kind    element.Kind
	Op      Operation
	Handle  Handle
	Start   element.Element
	Pending element.Element
	Pointer Pointer

	// Anchor is the fixed world point the operation resizes or turns
	// about; Plane is the invisible surface pointer rays are cast
	// against for every operation except Move.
	Anchor v3.Vec
	Plane  geom.Plane
	// Axis and Sign describe a single-axis resize in world space.
	Axis v3.Vec
	Sign float64
	// WorldAzimuth is the element's heading at pointer-down, kept when
	// the element changes parent.
	WorldAzimuth float64
	// Offset is the grab offset of a ruler move.
	Offset v3.Vec
	Snaps  []snap.Point
	Match  *snap.Point
}

// Context exposes the scene and settings to rules.
type Context struct {
	Graph   *scene.Graph
	Camera  scene.PerspectiveCamera
	Options Options

	store *store.Store
}

// Elements returns the committed element collection.
func (c *Context) Elements() []element.Element {
	if c.store == nil {
		return nil
	}
	return c.store.Elements()
}

// parent returns the parent element of e, nil for ground.
func (c *Context) parent(e element.Element) *element.Element {
	if e.IsRoot() {
		return nil
	}
	p, ok := c.Graph.Element(e.ParentID)
	if !ok {
		return nil
	}
	return &p
}

// parentFrame returns the world frame of e's parent node.
func (c *Context) parentFrame(e element.Element) geom.Frame {
	if e.IsRoot() {
		return geom.Identity
	}
	if n := c.Graph.Node(e.ParentID); n != nil {
		return n.WorldFrame()
	}
	return geom.Identity
}

// nodeFrame returns the world frame of e's own node.
func (c *Context) nodeFrame(id element.ID) (geom.Frame, bool) {
	n := c.Graph.Node(id)
	if n == nil {
		return geom.Frame{}, false
	}
	return n.WorldFrame(), true
}

// pointerRay returns the ray for the gesture's current pointer.
func (c *Context) pointerRay(g *Gesture) geom.Ray {
	return c.Camera.Ray(g.Pointer.X, g.Pointer.Y)
}

// facingPlane returns the plane through p that contains axis and faces the
// camera as squarely as possible. It is used for height-like drags.
func (c *Context) facingPlane(p, axis v3.Vec) geom.Plane {
	axis = axis.Normalize()
	toCam := c.Camera.Position.Sub(p)
	n := toCam.Sub(axis.MulScalar(toCam.Dot(axis)))
	if n.Length() < 1e-9 {
		n = geom.Cross(axis, v3.Vec{X: 1})
		if n.Length() < 1e-9 {
			n = geom.Cross(axis, v3.Vec{Y: 1})
		}
	}
	return geom.NewPlane(p, n)
}

// hit is a qualifying parent surface under the pointer.
type hit struct {
	parent   element.Element
	node     *scene.Node // the parent element's node
	point    v3.Vec      // world
	normal   v3.Vec      // in the parent node frame
	distance float64
	priority int
}

// surfaceKind names the parent surfaces a Move can land on, in priority
// order.
type surfaceKind int

const (
	foundationTop surfaceKind = iota
	wallOutside
	roofSegment
	cuboidFace
	groundSurface
)

// tieDistance is how close two hits must be to be ranked by priority
// instead of distance.
const tieDistance = 1e-6

// pickSurface casts ray at the scene, ignoring the subtree of the moved
// element, and returns the nearest hit on one of the accepted surfaces.
// Coincident hits are ranked by the order of accepted.
func (c *Context) pickSurface(ray geom.Ray, exclude element.ID, accepted ...surfaceKind) (hit, bool) {
	var best hit
	found := false
	for _, h := range scene.Intersect(ray, c.Graph.Pickables(), true, c.Graph.Node(exclude)) {
		cand, ok := c.classify(h, accepted)
		if !ok {
			continue
		}
		if !found || cand.distance < best.distance-tieDistance ||
			(math.Abs(cand.distance-best.distance) <= tieDistance && cand.priority < best.priority) {
			best, found = cand, true
		}
	}
	return best, found
}

func (c *Context) classify(h scene.Hit, accepted []surfaceKind) (hit, bool) {
	var kind surfaceKind
	owner := h.Node
	switch h.Node.Role {
	case scene.RoleFoundation:
		kind = foundationTop
	case scene.RoleWall:
		kind = wallOutside
	case scene.RoleRoofSegment:
		kind = roofSegment
		owner = scene.FindAncestorByRole(h.Node, scene.RoleRoof)
	case scene.RoleCuboid:
		kind = cuboidFace
	case scene.RoleGround:
		kind = groundSurface
	default:
		return hit{}, false
	}
	priority := -1
	for i, a := range accepted {
		if a == kind {
			priority = i
		}
	}
	if priority < 0 || owner == nil {
		return hit{}, false
	}

	out := hit{node: owner, point: h.Point, distance: h.Distance, priority: priority}
	if kind == groundSurface {
		out.parent = element.Element{ID: element.GroundID}
		out.normal = v3.Vec{Z: 1}
		return out, true
	}
	parent, ok := c.Graph.ElementOf(owner)
	if !ok {
		return hit{}, false
	}
	out.parent = parent
	local := owner.WorldFrame().DirToLocal(h.Normal)
	switch kind {
	case foundationTop:
		if local.Z < 0.99 {
			return hit{}, false
		}
		out.normal = v3.Vec{Z: 1}
	case wallOutside:
		if local.Y > -0.99 {
			return hit{}, false
		}
		out.normal = scene.WallOuterNormal
	case roofSegment:
		if local.Z <= 0 {
			return hit{}, false
		}
		out.normal = local.Normalize()
	case cuboidFace:
		if local.Z < -0.99 {
			return hit{}, false
		}
		out.normal = axisSnap(local)
	}
	return out, true
}

// axisSnap returns the signed unit axis closest to v.
func axisSnap(v v3.Vec) v3.Vec {
	ax, ay, az := math.Abs(v.X), math.Abs(v.Y), math.Abs(v.Z)
	switch {
	case ax >= ay && ax >= az:
		return v3.Vec{X: math.Copysign(1, v.X)}
	case ay >= az:
		return v3.Vec{Y: math.Copysign(1, v.Y)}
	default:
		return v3.Vec{Z: math.Copysign(1, v.Z)}
	}
}

// foundationOf returns the foundation id an element placed on parent
// belongs to.
func foundationOf(parent element.Element) element.ID {
	switch parent.Kind {
	case element.KindFoundation:
		return parent.ID
	case element.KindWall, element.KindRoof:
		if !parent.FoundationID.IsZero() {
			return parent.FoundationID
		}
		return parent.ParentID
	default:
		return ""
	}
}

// reparent points e at the hit's parent.
func reparent(e *element.Element, h hit) {
	if h.parent.ID == element.GroundID {
		e.ParentID = element.GroundID
		e.FoundationID = ""
		return
	}
	e.ParentID = h.parent.ID
	e.FoundationID = foundationOf(h.parent)
}

// unhandled fails loudly on an operation the rules admitted but cannot
// compute.
func unhandled(r Rules, op Operation) {
	panic(fmt.Sprintf("manip: %s rules have no case for operation %v", r.Kind(), op))
}
