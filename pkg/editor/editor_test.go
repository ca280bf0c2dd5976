package editor_test

import (
	"errors"
	"io"
	"log/slog"
	"math"
	"testing"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/solarform/pkg/action"
	"github.com/chazu/solarform/pkg/config"
	"github.com/chazu/solarform/pkg/editor"
	"github.com/chazu/solarform/pkg/element"
	"github.com/chazu/solarform/pkg/manip"
	"github.com/chazu/solarform/pkg/scene"
	"github.com/chazu/solarform/pkg/store"
)

const testScene = `
(def a (foundation :id "a" :size (vec3 10 10 1)))
(solar-panel :id "p" :on a :model "UNIT-1x2" :columns 2 :rows 2)
(def f (foundation :id "f" :at (vec3 0 30 0) :size (vec3 10 10 0.2)))
(roof :id "r1" :on f :r-value 2.0)
(roof :id "r2" :on f :r-value 3.0)
(roof :id "r3" :on f :r-value 2.5)
(def g (foundation :id "g" :at (vec3 30 0 0) :size (vec3 10 10 0.2)))
(roof :id "other" :on g :r-value 2.0)
(ruler :id "ru" :from (vec3 -2 -10 0) :to (vec3 2 -10 0))
`

func newEditor(t *testing.T) *editor.Editor {
	t.Helper()
	cfg := config.Default()
	cfg.MeshCells = 24
	ed := editor.New(cfg, editor.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	t.Cleanup(ed.Close)
	res := ed.Evaluate(testScene)
	if len(res.Errors) > 0 {
		t.Fatalf("Evaluate errors: %v", res.Errors)
	}
	return ed
}

func near(a, b float64) bool { return math.Abs(a-b) < 1e-6 }

func TestEvaluateLoadsScene(t *testing.T) {
	ed := newEditor(t)

	if got := len(ed.Elements()); got != 9 {
		t.Fatalf("got %d elements, want 9", got)
	}
	meshes, err := ed.Meshes()
	if err != nil {
		t.Fatalf("Meshes: %v", err)
	}
	if len(meshes) != 9 {
		t.Errorf("got %d meshes, want 9", len(meshes))
	}
	if h := ed.History(); h.CanUndo || h.Len != 0 {
		t.Errorf("history after load = %+v, want empty", h)
	}
	if errs := ed.Validate(); store.HasErrors(errs) {
		t.Errorf("loaded scene has errors: %v", errs)
	}
}

func TestEvaluateErrorKeepsScene(t *testing.T) {
	ed := newEditor(t)
	before := ed.State().Version

	res := ed.Evaluate(`(wall :from (vec3 0 0 0) :to (vec3 1 0 0))`)
	if len(res.Errors) == 0 {
		t.Fatal("expected errors")
	}
	if len(res.Meshes) != 0 {
		t.Errorf("got %d meshes on error", len(res.Meshes))
	}
	if got := ed.State().Version; got != before {
		t.Errorf("store version moved from %d to %d", before, got)
	}
	if got := len(ed.Elements()); got != 9 {
		t.Errorf("got %d elements, want the previous 9", got)
	}
}

func TestEvaluateReportsValidationErrors(t *testing.T) {
	ed := newEditor(t)
	res := ed.Evaluate(`(ruler :from (vec3 1 1 0) :to (vec3 1 1 0))`)
	if len(res.Errors) == 0 {
		t.Fatal("a zero-length ruler should be rejected")
	}
}

func TestGestureThroughEditor(t *testing.T) {
	ed := newEditor(t)
	if err := ed.Select("p"); err != nil {
		t.Fatalf("Select: %v", err)
	}
	aim := func(p v3.Vec) manip.Pointer {
		ed.SetCamera(scene.PerspectiveCamera{
			Position: p.Add(v3.Vec{X: -3, Y: -10, Z: 20}),
			Target:   p,
			Up:       v3.Vec{Z: 1},
			FOV:      45,
			Aspect:   1,
		})
		return manip.Pointer{}
	}

	if !ed.PointerDown("p", manip.ResizeX, manip.Right, aim(v3.Vec{X: 1, Z: 1.025})) {
		t.Fatal("PointerDown refused")
	}
	if ed.OrbitEnabled() {
		t.Error("orbit should be disabled during a gesture")
	}
	if !ed.PointerMove(aim(v3.Vec{X: 4.4, Z: 1.025})) {
		t.Fatal("frame skipped")
	}
	res := ed.PointerUp()
	if !res.Committed {
		t.Fatalf("result = %+v, want committed", res)
	}
	if !ed.OrbitEnabled() {
		t.Error("orbit should be enabled after the gesture")
	}

	p, err := ed.Element("p")
	if err != nil {
		t.Fatal(err)
	}
	if !near(p.LX, 5) || !near(p.CX, 1.5) {
		t.Errorf("panel lx=%v cx=%v, want 5, 1.5", p.LX, p.CX)
	}
	if h := ed.History(); h.Last != "Resize Solar Panel" {
		t.Errorf("history = %+v", h)
	}

	if name, ok := ed.Undo(); !ok || name != "Resize Solar Panel" {
		t.Fatalf("Undo = %q, %v", name, ok)
	}
	p, _ = ed.Element("p")
	if p.LX != 2 || p.CX != 0 {
		t.Errorf("after undo lx=%v cx=%v, want 2, 0", p.LX, p.CX)
	}
	if _, ok := ed.Redo(); !ok {
		t.Fatal("nothing to redo")
	}
	p, _ = ed.Element("p")
	if !near(p.LX, 5) {
		t.Errorf("after redo lx=%v, want 5", p.LX)
	}
}

func TestCancelGesture(t *testing.T) {
	ed := newEditor(t)
	if ed.CancelGesture() {
		t.Error("cancel without a gesture should report false")
	}
	if err := ed.Select("ru"); err != nil {
		t.Fatal(err)
	}
	if !ed.PointerDown("ru", manip.Move, manip.Center, manip.Pointer{}) {
		t.Fatal("PointerDown refused")
	}
	if !ed.CancelGesture() {
		t.Error("cancel should end the gesture")
	}
	if h := ed.History(); h.Len != 0 {
		t.Errorf("cancel pushed %d commands", h.Len)
	}
}

func TestSetFieldUndo(t *testing.T) {
	ed := newEditor(t)

	if err := ed.SetField("r1", "roof.rise", 2); err != nil {
		t.Fatalf("SetField: %v", err)
	}
	r1, _ := ed.Element("r1")
	if d, _ := r1.Roof(); d.Rise != 2 {
		t.Errorf("rise = %v, want 2", d.Rise)
	}
	ed.Undo()
	r1, _ = ed.Element("r1")
	if d, _ := r1.Roof(); d.Rise != 1 {
		t.Errorf("rise after undo = %v, want 1", d.Rise)
	}
}

func TestSetFieldErrors(t *testing.T) {
	ed := newEditor(t)
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"unknown field", ed.SetField("r1", "roof.colour", 1), editor.ErrUnknownField},
		{"unknown element", ed.SetField("nope", "roof.rise", 1), store.ErrNotFound},
		{"wrong kind", ed.SetField("p", "roof.rise", 1), action.ErrWrongKind},
		{"invalid value", ed.SetField("r1", "roof.rise", -1), action.ErrInvalidValue},
		{"unknown group field", ed.ApplyToRoofsAbove("f", "roof.colour", 1), editor.ErrUnknownField},
		{"unknown selection", ed.Select("nope"), store.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, tt.want) {
				t.Errorf("err = %v, want %v", tt.err, tt.want)
			}
		})
	}
}

func TestApplyToRoofsAboveUndoesAsOneStep(t *testing.T) {
	ed := newEditor(t)
	rValue := func(id element.ID) float64 {
		e, err := ed.Element(id)
		if err != nil {
			t.Fatal(err)
		}
		d, _ := e.Roof()
		return d.RValue
	}

	if err := ed.ApplyToRoofsAbove("f", "roof.rValue", 4); err != nil {
		t.Fatalf("ApplyToRoofsAbove: %v", err)
	}
	for _, id := range []element.ID{"r1", "r2", "r3"} {
		if got := rValue(id); got != 4 {
			t.Errorf("%s r-value = %v, want 4", id, got)
		}
	}
	if got := rValue("other"); got != 2 {
		t.Errorf("roof on another foundation changed to %v", got)
	}
	if h := ed.History(); h.Len != 1 {
		t.Errorf("history has %d commands, want 1", h.Len)
	}

	if _, ok := ed.Undo(); !ok {
		t.Fatal("nothing to undo")
	}
	want := map[element.ID]float64{"r1": 2.0, "r2": 3.0, "r3": 2.5}
	for id, v := range want {
		if got := rValue(id); got != v {
			t.Errorf("%s r-value after undo = %v, want %v", id, got, v)
		}
	}
}

func TestSelect(t *testing.T) {
	ed := newEditor(t)
	if err := ed.Select("p", "ru"); err != nil {
		t.Fatal(err)
	}
	st := ed.State()
	if len(st.MultiSelection) != 2 {
		t.Errorf("multi selection = %v", st.MultiSelection)
	}
	if p, _ := st.Find("p"); !p.Selected {
		t.Error("first id should be selected")
	}
	if err := ed.Select(); err != nil {
		t.Fatal(err)
	}
	for _, e := range ed.Elements() {
		if e.Selected {
			t.Errorf("%s still selected", e.ID)
		}
	}
}
