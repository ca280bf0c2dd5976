package scene

import (
	"fmt"

	"github.com/chazu/solarform/pkg/element"
)

// Graph owns the node tree mirroring the element store. It is not safe for
// concurrent use; the editor serializes access.
type Graph struct {
	Root   *Node
	Ground *Node

	nodes map[element.ID]*Node
	elems map[element.ID]element.Element
}

// NewGraph returns a graph holding only the root and the ground plane.
func NewGraph() *Graph {
	root := NewNode("Root", RoleRoot)
	ground := NewNode("Ground", RoleGround)
	ground.Geometry = GroundPlane{}
	root.Add(ground)
	return &Graph{
		Root:   root,
		Ground: ground,
		nodes:  make(map[element.ID]*Node),
		elems:  make(map[element.ID]element.Element),
	}
}

// Node returns the node of an element, or nil.
func (g *Graph) Node(id element.ID) *Node {
	if id == element.GroundID {
		return g.Ground
	}
	return g.nodes[id]
}

// Element returns the element last synced or applied for id.
func (g *Graph) Element(id element.ID) (element.Element, bool) {
	e, ok := g.elems[id]
	return e, ok
}

// ElementOf returns the element a node stands for.
func (g *Graph) ElementOf(n *Node) (element.Element, bool) {
	if n == nil || n.ElementID.IsZero() {
		return element.Element{}, false
	}
	return g.Element(n.ElementID)
}

// Len returns the number of element nodes.
func (g *Graph) Len() int { return len(g.nodes) }

// Pickables returns the roots to raycast against.
func (g *Graph) Pickables() []*Node {
	return g.Root.Children
}

// Sync rebuilds the tree from a full element collection: nodes are created
// or updated in place, re-parented when parentId changed, and dropped when
// their element is gone.
func (g *Graph) Sync(elems []element.Element) {
	g.elems = make(map[element.ID]element.Element, len(elems))
	for _, e := range elems {
		g.elems[e.ID] = e
		if _, ok := g.nodes[e.ID]; !ok {
			n := NewNode(fmt.Sprintf("%s %s", e.Kind, e.ID.Short()), RoleOf(e.Kind))
			n.ElementID = e.ID
			g.nodes[e.ID] = n
		}
	}
	for _, e := range elems {
		g.attach(e)
	}
	for id, n := range g.nodes {
		if _, ok := g.elems[id]; !ok {
			n.Detach()
			delete(g.nodes, id)
		}
	}
	for _, e := range elems {
		g.configure(g.nodes[e.ID], e)
	}
}

// Apply writes one element's transient state onto its node without
// touching the store. Re-parenting takes effect immediately. It reports
// false when the element has no node yet.
func (g *Graph) Apply(e element.Element) bool {
	n := g.nodes[e.ID]
	if n == nil {
		return false
	}
	g.elems[e.ID] = e
	g.attach(e)
	g.configure(n, e)
	for _, c := range n.Children {
		if ce, ok := g.elems[c.ElementID]; ok && !c.ElementID.IsZero() {
			g.configure(c, ce)
		}
	}
	return true
}

func (g *Graph) parentOf(e element.Element) (*Node, *element.Element) {
	if e.IsRoot() {
		return g.Root, nil
	}
	pn := g.nodes[e.ParentID]
	pe, ok := g.elems[e.ParentID]
	if pn == nil || !ok {
		return g.Root, nil
	}
	return pn, &pe
}

func (g *Graph) attach(e element.Element) {
	n := g.nodes[e.ID]
	pn, _ := g.parentOf(e)
	if pn.IsDescendantOf(n) {
		// An ownership cycle; hang the node off the root instead.
		pn = g.Root
	}
	pn.Add(n)
}

func (g *Graph) configure(n *Node, e element.Element) {
	_, parent := g.parentOf(e)
	f, size := LocalFrame(e, parent)
	n.Position = f.Origin
	n.Rotation = f.Euler()
	n.Visible = true
	if e.Kind == element.KindRoof {
		g.configureRoof(n, e, parent)
		return
	}
	n.Geometry = Box{Size: size}
}

// configureRoof attaches the roof surface metadata and replaces the
// segment children.
func (g *Graph) configureRoof(n *Node, roof element.Element, foundation *element.Element) {
	n.Geometry = nil
	var f element.Element
	if foundation != nil {
		f = *foundation
	}
	var walls []element.Element
	for _, e := range g.elems {
		if e.Kind == element.KindWall && e.ParentID == roof.ParentID {
			if wd, _ := e.Wall(); wd.RoofID.IsZero() || wd.RoofID == roof.ID {
				walls = append(walls, e)
			}
		}
	}
	meta := BuildRoofMeta(roof, f, walls)
	n.UserData = meta

	kept := n.Children[:0]
	for _, c := range n.Children {
		if c.Role == RoleRoofSegment {
			c.Parent = nil
			continue
		}
		kept = append(kept, c)
	}
	n.Children = kept
	for i, s := range meta.Segments {
		seg := NewNode(fmt.Sprintf("Roof Segment %d", i), RoleRoofSegment)
		seg.Geometry = s.Polygon()
		n.Add(seg)
	}
}
