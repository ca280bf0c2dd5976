package engine

import (
	"math"
	"testing"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/solarform/pkg/element"
)

// ---------------------------------------------------------------------------
// Preprocessing tests
// ---------------------------------------------------------------------------

func TestPreprocessKeywords(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{
			name:   "simple keyword",
			input:  `(roof :type :gable)`,
			expect: `(roof "__kw_type" "__kw_gable")`,
		},
		{
			name:   "multiple keywords",
			input:  `(roof :rise 2 :thickness 0.2)`,
			expect: `(roof "__kw_rise" 2 "__kw_thickness" 0.2)`,
		},
		{
			name:   "keyword in string preserved",
			input:  `"thing with :keyword inside"`,
			expect: `"thing with :keyword inside"`,
		},
		{
			name:   "assignment operator preserved",
			input:  `(def x := 10)`,
			expect: `(def x := 10)`,
		},
		{
			name:   "kebab-case identifier",
			input:  `(solar-panel :on r)`,
			expect: `(solar_panel "__kw_on" r)`,
		},
		{
			name:   "minus operator preserved",
			input:  `(- 10 5)`,
			expect: `(- 10 5)`,
		},
		{
			name:   "negative number preserved",
			input:  `(vec3 -5 -4 0)`,
			expect: `(vec3 -5 -4 0)`,
		},
		{
			name:   "comment converted to // style",
			input:  `;; comment with :keyword`,
			expect: `// comment with :keyword`,
		},
		{
			name:   "single semicolon comment",
			input:  `; simple comment`,
			expect: `// simple comment`,
		},
		{
			name:   "hyphen in keyword preserved",
			input:  `:r-value`,
			expect: `"__kw_r-value"`,
		},
		{
			name:   "model name string preserved",
			input:  `:model "SPR-X21-335"`,
			expect: `"__kw_model" "SPR-X21-335"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := preprocessSource(tt.input)
			if got != tt.expect {
				t.Errorf("preprocessSource(%q) = %q, want %q", tt.input, got, tt.expect)
			}
		})
	}
}

func TestParseArgs(t *testing.T) {
	kw := func(s string) zygo.Sexp { return &zygo.SexpStr{S: kwPrefix + s} }
	args := []zygo.Sexp{
		kw("type"), kw("shed"),
		kw("vertical"),
		kw("rise"), &zygo.SexpInt{Val: 2},
		&zygo.SexpInt{Val: 7},
		kw("locked"),
	}
	a := parseArgs("test", args)

	if s, err := toKeywordString(a.kw["type"]); err != nil || s != "shed" {
		t.Errorf("type = %q, %v; want shed", s, err)
	}
	if a.kw["vertical"] != zygo.SexpNull {
		t.Errorf("vertical should be a flag, got %v", a.kw["vertical"])
	}
	if !a.has("locked") {
		t.Error("trailing keyword should be a flag")
	}
	var rise float64
	if err := a.float("rise", &rise); err != nil || rise != 2 {
		t.Errorf("rise = %v, %v; want 2", rise, err)
	}
	if len(a.positional) != 1 {
		t.Errorf("got %d positional args, want 1", len(a.positional))
	}
}

// ---------------------------------------------------------------------------
// Scene builtins
// ---------------------------------------------------------------------------

func evalScene(t *testing.T, src string) map[element.ID]element.Element {
	t.Helper()
	elems, evalErrs, err := NewEngine().Evaluate(src)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("eval errors: %v", evalErrs)
	}
	out := make(map[element.ID]element.Element, len(elems))
	for _, e := range elems {
		out[e.ID] = e
	}
	return out
}

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestFoundationAndCuboid(t *testing.T) {
	got := evalScene(t, `
(foundation :id "f" :at (vec3 1 2 0) :size (vec3 10 8 0.2) :rotation 0.5)
(cuboid :id "c" :at (vec3 20 0 0))`)

	f := got["f"]
	if f.Kind != element.KindFoundation || f.ParentID != element.GroundID {
		t.Fatalf("foundation = %+v", f)
	}
	if f.CX != 1 || f.CY != 2 || !near(f.CZ, 0.1) {
		t.Errorf("center = (%v, %v, %v), want (1, 2, 0.1)", f.CX, f.CY, f.CZ)
	}
	if f.LX != 10 || f.LY != 8 || f.Rotation[2] != 0.5 {
		t.Errorf("size %v x %v, rotation %v", f.LX, f.LY, f.Rotation)
	}
	c := got["c"]
	if c.LZ != 2 || c.CZ != 1 {
		t.Errorf("cuboid defaults: lz %v cz %v", c.LZ, c.CZ)
	}
}

func TestGeneratedIDs(t *testing.T) {
	elems, evalErrs, err := NewEngine().Evaluate(`(foundation) (foundation :at (vec3 20 0 0))`)
	if err != nil || len(evalErrs) > 0 {
		t.Fatalf("Evaluate: %v %v", err, evalErrs)
	}
	if len(elems) != 2 {
		t.Fatalf("got %d elements, want 2", len(elems))
	}
	if elems[0].ID.IsZero() || elems[0].ID == elems[1].ID {
		t.Errorf("ids %q and %q should be distinct and non-empty", elems[0].ID, elems[1].ID)
	}
}

func TestWallsAndRoof(t *testing.T) {
	got := evalScene(t, `
(def f (foundation :id "f" :size (vec3 10 8 0.2)))
(def south (wall :id "s" :on f :from (vec3 -5 -4 0) :to (vec3 5 -4 0) :height 3))
(wall :id "e" :on f :from (vec3 5 -4 0) :to (vec3 5 4 0) :height 3)
(roof :id "r" :on f :type :gable :rise 2 :r-value 3.5)
(window :id "win" :on south :at (vec3 0.2 0 0.1))`)

	s := got["s"]
	if s.ParentID != "f" || s.FoundationID != "f" {
		t.Errorf("wall parent %q foundation %q", s.ParentID, s.FoundationID)
	}
	if s.CX != 0 || s.CY != -4 || !near(s.CZ, 1.6) {
		t.Errorf("wall center = (%v, %v, %v), want (0, -4, 1.6)", s.CX, s.CY, s.CZ)
	}
	if s.LX != 10 || s.LZ != 3 || s.Rotation[2] != 0 {
		t.Errorf("wall size %v x %v, rotation %v", s.LX, s.LZ, s.Rotation)
	}
	e := got["e"]
	if !near(e.Rotation[2], math.Pi/2) {
		t.Errorf("east wall rotation = %v, want pi/2", e.Rotation[2])
	}
	for _, id := range []element.ID{"s", "e"} {
		w := got[id]
		if wd, _ := w.Wall(); wd.RoofID != "r" {
			t.Errorf("wall %s roof = %q, want r", id, wd.RoofID)
		}
	}

	r := got["r"]
	rd, ok := r.Roof()
	if !ok || rd.Type != element.RoofGable || rd.Rise != 2 || rd.RValue != 3.5 {
		t.Errorf("roof data = %+v", rd)
	}

	win := got["win"]
	if win.ParentID != "s" || win.FoundationID != "f" || win.CX != 0.2 || win.CZ != 0.1 {
		t.Errorf("window = %+v", win)
	}
}

func TestSolarPanelPlacement(t *testing.T) {
	got := evalScene(t, `
(def f (foundation :id "f" :size (vec3 10 10 0.2)))
(def r (roof :id "r" :on f :rise 2))
(solar-panel :id "p" :on r :at (vec3 0 -2.5 0) :model "UNIT-1x2" :columns 3 :rows 2)
(def g (foundation :id "g" :at (vec3 30 0 0) :size (vec3 10 10 0.2)))
(solar-panel :id "q" :on g :orientation :landscape :tilt 0.4 :pole 1.5)`)

	p := got["p"]
	if p.ParentID != "r" || p.FoundationID != "f" {
		t.Errorf("panel parent %q foundation %q", p.ParentID, p.FoundationID)
	}
	if p.LX != 3 || p.LY != 4 || p.LZ != 0.05 {
		t.Errorf("panel size = %v x %v x %v, want 3 x 4 x 0.05", p.LX, p.LY, p.LZ)
	}
	// Halfway up the south face of a pyramid rising 2 above a 0.2 slab.
	if !near(p.CZ, 1.1) {
		t.Errorf("panel cz = %v, want 1.1", p.CZ)
	}
	if p.Normal[1] >= 0 || p.Normal[2] <= 0 {
		t.Errorf("panel normal = %v, want facing south and up", p.Normal)
	}

	q := got["q"]
	qd, _ := q.SolarPanel()
	if qd.Orientation != element.Landscape || qd.TiltAngle != 0.4 || qd.PoleHeight != 1.5 {
		t.Errorf("panel data = %+v", qd)
	}
	if !near(q.LX, 1.559) || !near(q.LY, 1.046) || !near(q.CZ, 0.1) {
		t.Errorf("panel box = %v x %v at z %v", q.LX, q.LY, q.CZ)
	}
	if q.Normal != [3]float64{0, 0, 1} {
		t.Errorf("panel normal = %v, want up", q.Normal)
	}
}

func TestWallMountedPanel(t *testing.T) {
	got := evalScene(t, `
(def f (foundation :size (vec3 10 8 0.2)))
(def w (wall :on f :from (vec3 -5 -4 0) :to (vec3 5 -4 0)))
(solar-panel :id "p" :on w :at (vec3 0.25 0 0.1) :tilt 0.5 :azimuth 1)`)

	p := got["p"]
	d, _ := p.SolarPanel()
	if d.RelativeAzimuth != 0 || d.TiltAngle != 0 {
		t.Errorf("wall panel tilt %v azimuth %v, want both clamped to 0", d.TiltAngle, d.RelativeAzimuth)
	}
	if p.Normal != [3]float64{0, -1, 0} {
		t.Errorf("wall panel normal = %v", p.Normal)
	}
	if p.CX != 0.25 || p.CZ != 0.1 {
		t.Errorf("wall panel fractions = (%v, %v)", p.CX, p.CZ)
	}
}

func TestDevicesAndGauges(t *testing.T) {
	got := evalScene(t, `
(def f (foundation :id "f" :size (vec3 10 10 0.2)))
(battery-storage :id "b" :on f :at (vec3 2 1 0) :size (vec3 1 1 1.5))
(ruler :id "h" :from (vec3 0 -10 0) :to (vec3 4 -10 0))
(ruler :id "v" :on f :from (vec3 0 0 0.1) :to (vec3 0 0 3.1) :vertical)
(protractor :id "a" :on f :at (vec3 1 1 0) :arm 3)`)

	b := got["b"]
	if b.CX != 2 || b.CY != 1 || !near(b.CZ, 0.85) {
		t.Errorf("battery center = (%v, %v, %v), want (2, 1, 0.85)", b.CX, b.CY, b.CZ)
	}
	if bd, _ := b.BatteryStorage(); bd.ChargingEfficiency != 0.95 {
		t.Errorf("battery data = %+v", bd)
	}

	h := got["h"]
	hd, _ := h.Ruler()
	if h.ParentID != element.GroundID || hd.Type != element.RulerHorizontal || h.LX != 4 {
		t.Errorf("horizontal ruler = %+v", h)
	}
	v := got["v"]
	if vd, _ := v.Ruler(); vd.Type != element.RulerVertical || vd.RightEndPoint[2] != 3.1 {
		t.Errorf("vertical ruler data = %+v", vd)
	}

	a := got["a"]
	if a.LX != 3 || !near(a.CZ, 0.125) {
		t.Errorf("protractor arm %v at z %v", a.LX, a.CZ)
	}
}

func TestSceneErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"vec3 arity", `(vec3 1 2)`},
		{"wall without foundation", `(wall :from (vec3 0 0 0) :to (vec3 1 0 0))`},
		{"degenerate wall", `(def f (foundation)) (wall :on f :from (vec3 1 1 0) :to (vec3 1 1 0))`},
		{"window on foundation", `(def f (foundation)) (window :on f)`},
		{"unknown roof type", `(def f (foundation)) (roof :on f :type :dome)`},
		{"negative rise", `(def f (foundation)) (roof :on f :rise -1)`},
		{"unknown model", `(def f (foundation)) (solar-panel :on f :model "NOPE")`},
		{"zero columns", `(def f (foundation)) (solar-panel :on f :columns 0)`},
		{"panel off roof", `(def f (foundation)) (def r (roof :on f)) (solar-panel :on r :at (vec3 50 0 0))`},
		{"duplicate id", `(foundation :id "a") (foundation :id "a")`},
		{"not a reference", `(wall :on 3 :from (vec3 0 0 0) :to (vec3 1 0 0))`},
		{"non-positive size", `(foundation :size (vec3 0 1 1))`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			elems, evalErrs, err := NewEngine().Evaluate(tt.src)
			if err != nil {
				t.Fatalf("expected non-fatal eval error, got fatal: %v", err)
			}
			if len(evalErrs) == 0 {
				t.Fatalf("expected an eval error, got elements %+v", elems)
			}
			if evalErrs[0].Message == "" {
				t.Error("eval error should have a non-empty message")
			}
		})
	}
}

func TestArithmeticStillWorks(t *testing.T) {
	got := evalScene(t, `
(def w 12)
(foundation :id "f" :size (vec3 (* w 2) (/ w 2) 0.2))`)
	f := got["f"]
	if f.LX != 24 || f.LY != 6 {
		t.Errorf("foundation size %v x %v, want 24 x 6", f.LX, f.LY)
	}
}
