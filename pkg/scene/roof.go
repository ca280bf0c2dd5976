package scene

import (
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/solarform/pkg/element"
)

// RoofSegment is one planar face of a roof, in the roof frame (which is
// the frame of the roof's foundation). Points satisfy Normal·p = D.
type RoofSegment struct {
	Normal v3.Vec
	D      float64
	Points []v3.Vec
}

// Polygon returns the segment outline.
func (s RoofSegment) Polygon() Polygon {
	return Polygon{Points: s.Points}
}

// HeightAt returns the z of the segment plane above (x, y).
func (s RoofSegment) HeightAt(x, y float64) float64 {
	if math.Abs(s.Normal.Z) < 1e-12 {
		return s.Points[0].Z
	}
	return (s.D - s.Normal.X*x - s.Normal.Y*y) / s.Normal.Z
}

// RoofMeta is attached to roof nodes. Centroid lies on the roof base.
type RoofMeta struct {
	Centroid   v3.Vec
	BaseHeight float64
	Rise       float64
	Segments   []RoofSegment
}

func (*RoofMeta) metadata() {}

// Top returns the highest point of the roof above its centroid, where the
// rise handle sits.
func (m *RoofMeta) Top() v3.Vec {
	return v3.Vec{X: m.Centroid.X, Y: m.Centroid.Y, Z: m.BaseHeight + m.Rise}
}

// SegmentAt returns the index of the segment covering (x, y) seen from
// above, or -1.
func (m *RoofMeta) SegmentAt(x, y float64) int {
	for i, s := range m.Segments {
		flat := make([]v3.Vec, len(s.Points))
		for j, p := range s.Points {
			flat[j] = v3.Vec{X: p.X, Y: p.Y}
		}
		poly := Polygon{Points: flat}
		if poly.Normal().Z < 0 {
			for a, b := 0, len(flat)-1; a < b; a, b = a+1, b-1 {
				flat[a], flat[b] = flat[b], flat[a]
			}
		}
		if len(flat) >= 3 && poly.Contains(v3.Vec{X: x, Y: y}) {
			return i
		}
	}
	return -1
}

// BuildRoofMeta derives the roof surface from its foundation and the walls
// standing on that foundation. The footprint is the bounding rectangle of
// the wall endpoints, or of the foundation when there are no walls, and
// the base sits on top of the tallest wall.
func BuildRoofMeta(roof element.Element, foundation element.Element, walls []element.Element) *RoofMeta {
	data, _ := roof.Roof()

	x0, y0 := -foundation.LX/2, -foundation.LY/2
	x1, y1 := foundation.LX/2, foundation.LY/2
	base := foundation.LZ / 2
	if len(walls) > 0 {
		x0, y0 = math.Inf(1), math.Inf(1)
		x1, y1 = math.Inf(-1), math.Inf(-1)
		var top float64
		for _, w := range walls {
			wd, _ := w.Wall()
			for _, p := range [][3]float64{wd.LeftPoint, wd.RightPoint} {
				x0, y0 = math.Min(x0, p[0]), math.Min(y0, p[1])
				x1, y1 = math.Max(x1, p[0]), math.Max(y1, p[1])
			}
			top = math.Max(top, w.LZ)
		}
		base += top
		if x1-x0 < 1e-9 || y1-y0 < 1e-9 {
			x0, y0 = -foundation.LX/2, -foundation.LY/2
			x1, y1 = foundation.LX/2, foundation.LY/2
		}
	}

	rise := math.Max(data.Rise, 0)
	c0 := v3.Vec{X: x0, Y: y0, Z: base}
	c1 := v3.Vec{X: x1, Y: y0, Z: base}
	c2 := v3.Vec{X: x1, Y: y1, Z: base}
	c3 := v3.Vec{X: x0, Y: y1, Z: base}
	meta := &RoofMeta{
		Centroid:   v3.Vec{X: (x0 + x1) / 2, Y: (y0 + y1) / 2, Z: base},
		BaseHeight: base,
		Rise:       rise,
	}

	var faces [][]v3.Vec
	switch {
	case rise < 1e-9:
		faces = [][]v3.Vec{{c0, c1, c2, c3}}
	case data.Type == element.RoofShed:
		faces = [][]v3.Vec{{c0, c1, c2.Add(v3.Vec{Z: rise}), c3.Add(v3.Vec{Z: rise})}}
	default:
		apex := meta.Top()
		faces = [][]v3.Vec{
			{c0, c1, apex},
			{c1, c2, apex},
			{c2, c3, apex},
			{c3, c0, apex},
		}
	}
	for _, pts := range faces {
		n := Polygon{Points: pts}.Normal()
		meta.Segments = append(meta.Segments, RoofSegment{
			Normal: n,
			D:      n.Dot(pts[0]),
			Points: pts,
		})
	}
	return meta
}
