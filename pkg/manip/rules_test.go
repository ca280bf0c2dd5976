package manip

import (
	"math"
	"testing"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/solarform/pkg/element"
	"github.com/chazu/solarform/pkg/geom"
	"github.com/chazu/solarform/pkg/scene"
)

// mountedSite extends twoFoundations with foundation h sixty meters north
// carrying a south wall wl and a panel wp hung on its outer face, a battery
// on a, a panel pb on the turned foundation b, and a protractor on open
// ground.
func mountedSite() []element.Element {
	panel := element.SolarPanelData{ModelName: "UNIT-1x2", Orientation: element.Portrait}
	return append(twoFoundations(),
		element.Element{ID: "h", Kind: element.KindFoundation, ParentID: element.GroundID, CY: 60, CZ: 0.5, LX: 10, LY: 10, LZ: 1},
		element.Element{ID: "wl", Kind: element.KindWall, ParentID: "h", FoundationID: "h", CY: -5, CZ: 2, LX: 8, LY: 0.2, LZ: 3,
			Data: element.WallData{LeftPoint: [3]float64{-4, -5, 0}, RightPoint: [3]float64{4, -5, 0}}},
		element.Element{ID: "wp", Kind: element.KindSolarPanel, ParentID: "wl", FoundationID: "h", LX: 1, LY: 2, LZ: 0.05,
			Normal: [3]float64{0, -1, 0}, Selected: true, Data: panel},
		element.Element{ID: "bat", Kind: element.KindBatteryStorage, ParentID: "a", FoundationID: "a", CX: 3, CY: 3, CZ: 1,
			LX: 1, LY: 1, LZ: 1, Selected: true,
			Data: element.BatteryStorageData{ChargingEfficiency: 0.95, DischargingEfficiency: 0.95}},
		element.Element{ID: "pb", Kind: element.KindSolarPanel, ParentID: "b", FoundationID: "b", CX: 3, CY: 3, CZ: 0.5,
			LX: 2, LY: 4, LZ: 0.05, Normal: [3]float64{0, 0, 1}, Selected: true, Data: panel},
		element.Element{ID: "pr", Kind: element.KindProtractor, ParentID: element.GroundID, CY: -20, CZ: 0.025,
			LX: 2, LY: 1, LZ: 0.05, Selected: true, Data: element.ProtractorData{TickMarkLength: 0.1}},
	)
}

func sameAngle(a, b float64) bool {
	return near(math.Cos(a), math.Cos(b)) && near(math.Sin(a), math.Sin(b))
}

func (h *harness) worldFrame(id element.ID) geom.Frame {
	var f geom.Frame
	h.sess.WithGraph(func(g *scene.Graph) { f = g.Node(id).WorldFrame() })
	return f
}

// ---------------------------------------------------------------------------
// Battery storage
// ---------------------------------------------------------------------------

func TestBatteryResize(t *testing.T) {
	tests := []struct {
		name     string
		op       Operation
		handle   Handle
		from, to v3.Vec
		center   [3]float64
		size     [3]float64
	}{
		{"corner grows", ResizeXY, UpperRight, v3.Vec{X: 3.5, Y: 3.5, Z: 1.5}, v3.Vec{X: 5, Y: 4.2, Z: 1.5},
			[3]float64{3.75, 3.35, 1}, [3]float64{2.5, 1.7, 1}},
		{"corner floors", ResizeXY, UpperRight, v3.Vec{X: 3.5, Y: 3.5, Z: 1.5}, v3.Vec{X: 2.8, Y: 2.8, Z: 1.5},
			[3]float64{2.75, 2.75, 1}, [3]float64{0.5, 0.5, 1}},
		{"height grows", ResizeZ, Top, v3.Vec{X: 3, Y: 3, Z: 2}, v3.Vec{X: 3, Y: 3, Z: 3},
			[3]float64{3, 3, 1.5}, [3]float64{1, 1, 2}},
		{"height floors", ResizeZ, Top, v3.Vec{X: 3, Y: 3, Z: 2}, v3.Vec{X: 3, Y: 3, Z: 1.2},
			[3]float64{3, 3, 0.75}, [3]float64{1, 1, 0.5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, mountedSite(), Options{})
			if res := h.drag(t, "bat", tt.op, tt.handle, tt.from, tt.to); !res.Committed {
				t.Fatalf("result = %+v", res)
			}
			b := h.get(t, "bat")
			got := [6]float64{b.CX, b.CY, b.CZ, b.LX, b.LY, b.LZ}
			want := [6]float64{tt.center[0], tt.center[1], tt.center[2], tt.size[0], tt.size[1], tt.size[2]}
			for i := range got {
				if !near(got[i], want[i]) {
					t.Fatalf("centre+size = %v, want %v", got, want)
				}
			}
		})
	}
}

func TestBatteryRotate(t *testing.T) {
	tests := []struct {
		op   Operation
		to   v3.Vec
		want float64
	}{
		{RotateUpper, v3.Vec{X: 2, Y: 3, Z: 1.5}, math.Pi / 2},
		{RotateLower, v3.Vec{X: 3, Y: 4, Z: 1.5}, math.Pi},
	}
	for _, tt := range tests {
		t.Run(tt.op.String(), func(t *testing.T) {
			h := newHarness(t, mountedSite(), Options{})
			h.drag(t, "bat", tt.op, Center, v3.Vec{X: 3, Y: 3, Z: 1.5}, tt.to)
			b := h.get(t, "bat")
			if !sameAngle(b.Rotation[2], tt.want) {
				t.Errorf("rotation = %v, want %v", b.Rotation[2], tt.want)
			}
		})
	}
}

func TestBatteryMoveKeepsWorldPose(t *testing.T) {
	h := newHarness(t, mountedSite(), Options{})

	res := h.drag(t, "bat", Move, Center, v3.Vec{X: 3, Y: 3, Z: 2}, v3.Vec{X: 21, Y: 1, Z: 1})
	if !res.Committed || res.Command.Name() != "Move Battery Storage" {
		t.Fatalf("result = %+v", res)
	}
	b := h.get(t, "bat")
	if b.ParentID != "b" || b.FoundationID != "b" {
		t.Fatalf("parent = %s/%s, want b/b", b.ParentID, b.FoundationID)
	}
	if !near(b.CX, 1) || !near(b.CY, -1) || !near(b.CZ, 1) {
		t.Errorf("local centre = (%v, %v, %v), want (1, -1, 1)", b.CX, b.CY, b.CZ)
	}
	if !sameAngle(b.Rotation[2], -math.Pi/2) {
		t.Errorf("local rotation = %v, want -π/2", b.Rotation[2])
	}
	f := h.worldFrame("bat")
	if !near(f.Origin.X, 21) || !near(f.Origin.Y, 1) || !near(f.Origin.Z, 1.5) {
		t.Errorf("world centre = %v, want (21, 1, 1.5)", f.Origin)
	}
	if !sameAngle(f.Azimuth(), 0) {
		t.Errorf("world azimuth = %v, want 0", f.Azimuth())
	}
}

func TestBatteryStaysOnFoundations(t *testing.T) {
	h := newHarness(t, mountedSite(), Options{})
	if !h.sess.PointerDown("bat", Move, Center, h.aim(v3.Vec{X: 3, Y: 3, Z: 2})) {
		t.Fatal("PointerDown refused")
	}
	if h.sess.PointerMove(h.aim(v3.Vec{X: -40, Y: 40})) {
		t.Error("battery followed the pointer onto bare ground")
	}
	h.sess.Cancel()
}

// ---------------------------------------------------------------------------
// Protractor
// ---------------------------------------------------------------------------

func TestProtractorArmLength(t *testing.T) {
	center := v3.Vec{Y: -20, Z: 0.025}
	tests := []struct {
		name string
		to   v3.Vec
		want float64
	}{
		{"along the arm", center.Add(v3.Vec{X: 3}), 3},
		{"sideways", center.Add(v3.Vec{Y: 2}), 2},
		{"floors", center.Add(v3.Vec{X: 0.2}), 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, mountedSite(), Options{})
			h.drag(t, "pr", ResizeX, Right, center.Add(v3.Vec{X: 2}), tt.to)
			if got := h.get(t, "pr").LX; !near(got, tt.want) {
				t.Errorf("arm = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestProtractorTiltRange(t *testing.T) {
	center := v3.Vec{Y: -20, Z: 0.025}
	tests := []struct {
		name string
		to   v3.Vec
		want float64
	}{
		{"half way", center.Add(v3.Vec{Y: 1, Z: 1}), math.Pi / 4},
		{"past vertical", center.Add(v3.Vec{Y: -1, Z: 1}), math.Pi / 2},
		{"below ground", center.Add(v3.Vec{Y: 1, Z: -1}), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, mountedSite(), Options{})
			if !h.sess.PointerDown("pr", Tilt, Top, h.aim(center)) {
				t.Fatal("PointerDown refused")
			}
			if !h.sess.PointerMove(h.aim(tt.to)) {
				t.Fatal("frame skipped")
			}
			g, _ := h.sess.Active()
			if !near(g.Pending.Rotation[0], tt.want) {
				t.Errorf("tilt = %v, want %v", g.Pending.Rotation[0], tt.want)
			}
			h.sess.Cancel()
		})
	}
}

// ---------------------------------------------------------------------------
// Solar panels on walls, roofs and turned foundations
// ---------------------------------------------------------------------------

func TestPanelMovesOntoWallFace(t *testing.T) {
	elems := mountedSite()
	d, _ := elems[2].SolarPanel()
	d.TiltAngle = 0.4
	elems[2].Data = d
	h := newHarness(t, elems, Options{})

	// The outer face of wl is the plane y = 54.9, from z = 1 to z = 4.
	res := h.drag(t, "p", Move, Center, v3.Vec{Z: 1}, v3.Vec{X: 2, Y: 54.9, Z: 3.25})
	if !res.Committed {
		t.Fatalf("result = %+v", res)
	}
	p := h.get(t, "p")
	if p.ParentID != "wl" || p.FoundationID != "h" {
		t.Fatalf("parent = %s/%s, want wl/h", p.ParentID, p.FoundationID)
	}
	if !near(p.CX, 0.25) || !near(p.CY, 0) || !near(p.CZ, 0.25) {
		t.Errorf("wall fractions = (%v, %v, %v), want (0.25, 0, 0.25)", p.CX, p.CY, p.CZ)
	}
	if p.Normal != [3]float64{0, -1, 0} {
		t.Errorf("normal = %v, want the outer face", p.Normal)
	}
	got, _ := p.SolarPanel()
	if got.RelativeAzimuth != 0 || got.TiltAngle != 0 {
		t.Errorf("azimuth %v tilt %v, want 0 and a tilt clamped to 0", got.RelativeAzimuth, got.TiltAngle)
	}
	f := h.worldFrame("p")
	if !near(f.Origin.X, 2) || !near(f.Origin.Y, 54.875) || !near(f.Origin.Z, 3.25) {
		t.Errorf("rack origin = %v, want (2, 54.875, 3.25)", f.Origin)
	}
}

func TestWallPanelOperations(t *testing.T) {
	tests := []struct {
		op   Operation
		want bool
	}{
		{Move, true},
		{ResizeX, true},
		{Tilt, true},
		{ResizeZ, false},
		{RotateUpper, false},
		{RotateLower, false},
	}
	for _, tt := range tests {
		t.Run(tt.op.String(), func(t *testing.T) {
			h := newHarness(t, mountedSite(), Options{})
			if got := h.sess.PointerDown("wp", tt.op, Right, h.aim(v3.Vec{Y: 54.875, Z: 2.5})); got != tt.want {
				t.Errorf("PointerDown = %v, want %v", got, tt.want)
			}
			h.sess.Cancel()
		})
	}
}

func TestWallPanelTiltsDownward(t *testing.T) {
	rack := v3.Vec{Y: 54.875, Z: 2.5}
	tests := []struct {
		name string
		to   v3.Vec
		want float64
	}{
		{"out and down", rack.Add(v3.Vec{Y: -1, Z: -1}), -math.Pi / 4},
		{"out and up", rack.Add(v3.Vec{Y: -1, Z: 1}), -math.Pi / 2},
		{"into the wall", rack.Add(v3.Vec{Y: 1, Z: -1}), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, mountedSite(), Options{})
			h.drag(t, "wp", Tilt, Top, rack, tt.to)
			p := h.get(t, "wp")
			d, _ := p.SolarPanel()
			if !near(d.TiltAngle, tt.want) {
				t.Errorf("tilt = %v, want %v", d.TiltAngle, tt.want)
			}
		})
	}
}

func TestPanelMovesOntoRoofSegment(t *testing.T) {
	h := newHarness(t, mountedSite(), Options{})

	// The east face of r rises from z = 1 at x = 5 to the apex at z = 2.
	res := h.drag(t, "p", Move, Center, v3.Vec{Z: 1}, v3.Vec{X: 2, Y: 30, Z: 1.6})
	if !res.Committed {
		t.Fatalf("result = %+v", res)
	}
	p := h.get(t, "p")
	if p.ParentID != "r" || p.FoundationID != "c" {
		t.Fatalf("parent = %s/%s, want r/c", p.ParentID, p.FoundationID)
	}
	if !near(p.CX, 2) || !near(p.CY, 0) || !near(p.CZ, 1.1) {
		t.Errorf("centre = (%v, %v, %v), want (2, 0, 1.1)", p.CX, p.CY, p.CZ)
	}
	want := v3.Vec{X: 0.2, Z: 1}.Normalize()
	if n := geom.FromArray(p.Normal); !near(n.X, want.X) || !near(n.Y, 0) || !near(n.Z, want.Z) {
		t.Errorf("normal = %v, want %v", n, want)
	}
	d, _ := p.SolarPanel()
	heading := geom.RotationFromNormal(geom.FromArray(p.Normal)).Z + d.RelativeAzimuth
	if !sameAngle(heading, 0) {
		t.Errorf("world heading = %v, want the original 0", heading)
	}
}

func TestPanelRotateOnTurnedFoundation(t *testing.T) {
	// pb's rack centre; b is turned a quarter, so world +X is b's -Y.
	anchor := v3.Vec{X: 17, Y: 3, Z: 1.025}
	tests := []struct {
		op              Operation
		relative, world float64
	}{
		{RotateUpper, math.Pi, -math.Pi / 2},
		{RotateLower, 0, math.Pi / 2},
	}
	for _, tt := range tests {
		t.Run(tt.op.String(), func(t *testing.T) {
			h := newHarness(t, mountedSite(), Options{})
			h.drag(t, "pb", tt.op, Center, anchor, anchor.Add(v3.Vec{X: 1}))
			p := h.get(t, "pb")
			d, _ := p.SolarPanel()
			if !sameAngle(d.RelativeAzimuth, tt.relative) {
				t.Errorf("relative azimuth = %v, want %v", d.RelativeAzimuth, tt.relative)
			}
			if az := h.worldFrame("pb").Azimuth(); !sameAngle(az, tt.world) {
				t.Errorf("world azimuth = %v, want %v", az, tt.world)
			}
		})
	}
}
