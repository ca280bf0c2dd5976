package scene

import (
	"sort"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/solarform/pkg/geom"
)

// Hit is one ray crossing. Point and Normal are in world space.
type Hit struct {
	Node     *Node
	Point    v3.Vec
	Normal   v3.Vec
	Distance float64
}

// Intersect casts r against the given roots and returns the hits sorted by
// distance. With recursive set, descendants are tested too. Hidden nodes
// are not pickable but their children still are. The subtree of exclude
// is skipped entirely.
func Intersect(r geom.Ray, roots []*Node, recursive bool, exclude *Node) []Hit {
	if l := r.Direction.Length(); l > 0 {
		r.Direction = r.Direction.MulScalar(1 / l)
	}
	var hits []Hit
	var test func(n *Node, parent geom.Frame)
	test = func(n *Node, parent geom.Frame) {
		if exclude != nil && n == exclude {
			return
		}
		world := parent.Mul(n.LocalFrame())
		if n.Visible && n.Geometry != nil {
			if t, normal, ok := n.Geometry.intersect(world.RayToLocal(r)); ok {
				hits = append(hits, Hit{
					Node:     n,
					Point:    r.At(t),
					Normal:   world.DirToWorld(normal),
					Distance: t,
				})
			}
		}
		if !recursive {
			return
		}
		for _, c := range n.Children {
			test(c, world)
		}
	}
	for _, root := range roots {
		parent := geom.Identity
		if root.Parent != nil {
			parent = root.Parent.WorldFrame()
		}
		test(root, parent)
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Distance < hits[j].Distance })
	return hits
}
