// Package tessellate turns an element collection into triangle meshes
// using a geometry kernel. One mesh is produced per visible element, in
// world space.
package tessellate

import (
	"fmt"
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/solarform/pkg/element"
	"github.com/chazu/solarform/pkg/geom"
	"github.com/chazu/solarform/pkg/kernel"
	"github.com/chazu/solarform/pkg/scene"
)

// poleRadius is the radius of a panel mounting pole.
const poleRadius = 0.05

// resolution is implemented by kernels that mesh on a fixed grid. Thin
// parts are thickened to two cells so they do not vanish.
type resolution interface {
	MeshCells() int
}

// frameStack accumulates node frames during the scene walk.
type frameStack struct {
	frames []geom.Frame
}

func (fs *frameStack) push(f geom.Frame) {
	fs.frames = append(fs.frames, fs.top().Mul(f))
}

func (fs *frameStack) pop() {
	if len(fs.frames) > 0 {
		fs.frames = fs.frames[:len(fs.frames)-1]
	}
}

// top returns the accumulated world frame.
func (fs *frameStack) top() geom.Frame {
	if len(fs.frames) == 0 {
		return geom.Identity
	}
	return fs.frames[len(fs.frames)-1]
}

// Tessellate builds the scene for elems and meshes every element in it.
// Windows and doors are cut out of their wall rather than meshed on their
// own. The tessellator is read-only and never mutates elems.
func Tessellate(elems []element.Element, k kernel.Kernel) ([]*kernel.Mesh, error) {
	if len(elems) == 0 {
		return nil, nil
	}
	g := scene.NewGraph()
	g.Sync(elems)

	t := &tessellator{g: g, k: k}
	if r, ok := k.(resolution); ok {
		t.cells = r.MeshCells()
	}

	var meshes []*kernel.Mesh
	fs := &frameStack{}
	for _, root := range g.Root.Children {
		collected, err := t.walk(root, fs)
		if err != nil {
			return nil, err
		}
		meshes = append(meshes, collected...)
	}
	return meshes, nil
}

type tessellator struct {
	g     *scene.Graph
	k     kernel.Kernel
	cells int
}

// walk recursively traverses a node and its children, collecting meshes.
func (t *tessellator) walk(n *scene.Node, fs *frameStack) ([]*kernel.Mesh, error) {
	fs.push(n.LocalFrame())
	defer fs.pop()

	var meshes []*kernel.Mesh
	if !n.ElementID.IsZero() {
		m, err := t.mesh(n, fs.top())
		if err != nil {
			return nil, fmt.Errorf("tessellate: element %s: %w", n.ElementID.Short(), err)
		}
		if m != nil {
			m.ElementID = string(n.ElementID)
			m.Role = string(n.Role)
			meshes = append(meshes, m)
		}
	}
	for _, c := range n.Children {
		collected, err := t.walk(c, fs)
		if err != nil {
			return nil, err
		}
		meshes = append(meshes, collected...)
	}
	return meshes, nil
}

// mesh builds the geometry of one element node placed at world.
func (t *tessellator) mesh(n *scene.Node, world geom.Frame) (*kernel.Mesh, error) {
	switch n.Role {
	case scene.RoleWindow, scene.RoleDoor:
		return nil, nil
	case scene.RoleRoof:
		meta, _ := n.UserData.(*scene.RoofMeta)
		if meta == nil {
			return nil, nil
		}
		return roofMesh(meta, world), nil
	}

	box, ok := n.Geometry.(scene.Box)
	if !ok {
		return nil, nil
	}
	solid := t.box(box.Size)
	switch n.Role {
	case scene.RoleWall:
		solid = t.cutOpenings(n, solid, box.Size)
	case scene.RoleSolarPanel:
		if pole := t.pole(n); pole != nil {
			return t.k.ToMesh(t.k.Union(t.k.Place(solid, world), pole))
		}
	}
	return t.k.ToMesh(t.k.Place(solid, world))
}

// box returns a centered box, thickened where the kernel grid would lose
// it.
func (t *tessellator) box(size v3.Vec) kernel.Solid {
	if t.cells > 0 {
		floor := 2 * math.Max(size.X, math.Max(size.Y, size.Z)) / float64(t.cells)
		size = v3.Vec{X: math.Max(size.X, floor), Y: math.Max(size.Y, floor), Z: math.Max(size.Z, floor)}
	}
	return t.k.Box(size.X, size.Y, size.Z)
}

// cutOpenings subtracts the wall's windows and doors, in wall-local space.
func (t *tessellator) cutOpenings(wall *scene.Node, solid kernel.Solid, size v3.Vec) kernel.Solid {
	for _, c := range wall.Children {
		if c.Role != scene.RoleWindow && c.Role != scene.RoleDoor {
			continue
		}
		b, ok := c.Geometry.(scene.Box)
		if !ok {
			continue
		}
		f := c.LocalFrame()
		f.Origin.Y = 0
		hole := t.k.Box(b.Size.X, 2*size.Y+1, b.Size.Z)
		solid = t.k.Difference(solid, t.k.Place(hole, f))
	}
	return solid
}

// pole returns the world-space mounting pole of a panel, or nil when the
// rack sits on its surface.
func (t *tessellator) pole(n *scene.Node) kernel.Solid {
	e, ok := t.g.Element(n.ElementID)
	if !ok {
		return nil
	}
	d, _ := e.SolarPanel()
	if d.PoleHeight <= 0 {
		return nil
	}
	var parent *element.Element
	if p, ok := t.g.Element(e.ParentID); ok {
		parent = &p
	}
	normal := scene.MountNormal(e)
	base := scene.MountPoint(e, parent)
	local := geom.NewFrame(base.Add(normal.MulScalar(d.PoleHeight/2)), geom.RotationFromNormal(normal))
	parentWorld := geom.Identity
	if n.Parent != nil {
		parentWorld = n.Parent.WorldFrame()
	}
	radius := poleRadius
	if t.cells > 0 {
		longest := math.Max(d.PoleHeight, math.Max(e.LX, e.LY))
		radius = math.Max(radius, 2*longest/float64(t.cells))
	}
	cyl := t.k.Cylinder(d.PoleHeight, radius, 16)
	return t.k.Place(cyl, parentWorld.Mul(local))
}

// roofMesh triangulates the roof segments directly; they are already
// planar convex polygons.
func roofMesh(meta *scene.RoofMeta, world geom.Frame) *kernel.Mesh {
	m := &kernel.Mesh{}
	for _, s := range meta.Segments {
		if len(s.Points) < 3 {
			continue
		}
		n := geom.Array(world.DirToWorld(s.Normal))
		p0 := geom.Array(world.ToWorld(s.Points[0]))
		for i := 1; i+1 < len(s.Points); i++ {
			m.AddTriangle(p0, geom.Array(world.ToWorld(s.Points[i])), geom.Array(world.ToWorld(s.Points[i+1])), n)
		}
	}
	return m
}
