// Package snap indexes the ground-level points a ruler endpoint can snap
// to: foundation corners, wall endpoints and the endpoints of other
// rulers. The index is built once when a gesture starts.
package snap

import (
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/solarform/pkg/element"
	"github.com/chazu/solarform/pkg/geom"
)

// Kind tells where a snap point came from.
type Kind int

const (
	FoundationCorner Kind = iota
	WallEndpoint
	RulerEndpoint
)

func (k Kind) String() string {
	switch k {
	case FoundationCorner:
		return "foundation-corner"
	case WallEndpoint:
		return "wall-endpoint"
	case RulerEndpoint:
		return "ruler-endpoint"
	default:
		return "unknown"
	}
}

// Point is one snap target in world space. Direction points away from the
// source element: outward along the diagonal for corners, along the wall
// axis for wall ends, along the ruler for ruler ends.
type Point struct {
	Position  v3.Vec
	Direction v3.Vec
	Source    element.ID
	Kind      Kind
}

// BuildGroundSnapPoints scans elems once and returns every snap target.
// Points belonging to the element exclude are left out so a ruler never
// snaps to itself.
func BuildGroundSnapPoints(elems []element.Element, exclude element.ID) []Point {
	frames := make(map[element.ID]geom.Frame)
	for _, e := range elems {
		if e.Kind == element.KindFoundation || e.Kind == element.KindCuboid {
			frames[e.ID] = geom.NewFrame(v3.Vec{X: e.CX, Y: e.CY, Z: e.CZ}, geom.EulerArray(e.Rotation))
		}
	}
	frameOf := func(e element.Element) (geom.Frame, bool) {
		if e.IsRoot() {
			return geom.Identity, true
		}
		f, ok := frames[e.ParentID]
		return f, ok
	}

	var pts []Point
	for _, e := range elems {
		if e.ID == exclude {
			continue
		}
		switch e.Kind {
		case element.KindFoundation:
			f := frames[e.ID]
			hx, hy := e.LX/2, e.LY/2
			for _, c := range [][2]float64{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}} {
				local := v3.Vec{X: c[0] * hx, Y: c[1] * hy, Z: e.LZ / 2}
				pts = append(pts, Point{
					Position:  f.ToWorld(local),
					Direction: f.DirToWorld(v3.Vec{X: c[0], Y: c[1]}.Normalize()),
					Source:    e.ID,
					Kind:      FoundationCorner,
				})
			}
		case element.KindWall:
			f, ok := frameOf(e)
			if !ok {
				continue
			}
			wd, _ := e.Wall()
			l, r := f.ToWorld(geom.FromArray(wd.LeftPoint)), f.ToWorld(geom.FromArray(wd.RightPoint))
			pts = append(pts, endpoints(l, r, e.ID, WallEndpoint)...)
		case element.KindRuler:
			f, ok := frameOf(e)
			if !ok {
				continue
			}
			rd, _ := e.Ruler()
			l, r := f.ToWorld(geom.FromArray(rd.LeftEndPoint)), f.ToWorld(geom.FromArray(rd.RightEndPoint))
			pts = append(pts, endpoints(l, r, e.ID, RulerEndpoint)...)
		}
	}
	return pts
}

func endpoints(l, r v3.Vec, id element.ID, k Kind) []Point {
	axis := r.Sub(l)
	if axis.Length() > 1e-12 {
		axis = axis.Normalize()
	}
	return []Point{
		{Position: l, Direction: axis.MulScalar(-1), Source: id, Kind: k},
		{Position: r, Direction: axis, Source: id, Kind: k},
	}
}

// Nearest resolves p against the index. A target whose horizontal distance
// to p is strictly below threshold wins, the closest one if several
// qualify; the result takes its x and y and keeps p's z. Without a match
// x and y are rounded to grid and the returned point is nil.
func Nearest(p v3.Vec, index []Point, threshold, grid float64) (v3.Vec, *Point) {
	best := -1
	bestDist := math.Inf(1)
	for i := range index {
		d := geom.HorizontalDistance(p, index[i].Position)
		if d < threshold && d < bestDist {
			best, bestDist = i, d
		}
	}
	if best >= 0 {
		s := index[best].Position
		return v3.Vec{X: s.X, Y: s.Y, Z: p.Z}, &index[best]
	}
	return v3.Vec{X: geom.Quantize(p.X, grid), Y: geom.Quantize(p.Y, grid), Z: p.Z}, nil
}
