package action

import (
	"errors"
	"math"
	"testing"

	"github.com/chazu/solarform/pkg/element"
	"github.com/chazu/solarform/pkg/store"
	"github.com/chazu/solarform/pkg/undo"
)

func roofSite() *store.Store {
	s := store.New()
	s.Load([]element.Element{
		{ID: "f", Kind: element.KindFoundation, ParentID: element.GroundID, LX: 10, LY: 10, LZ: 0.2},
		{ID: "r1", Kind: element.KindRoof, ParentID: "f", FoundationID: "f", LX: 10, LY: 10, LZ: 1, Data: element.RoofData{RValue: 2.0}},
		{ID: "r2", Kind: element.KindRoof, ParentID: "f", FoundationID: "f", LX: 10, LY: 10, LZ: 1, Data: element.RoofData{RValue: 3.0}},
		{ID: "r3", Kind: element.KindRoof, ParentID: "f", FoundationID: "f", LX: 10, LY: 10, LZ: 1, Data: element.RoofData{RValue: 2.5}},
		{ID: "g", Kind: element.KindFoundation, ParentID: element.GroundID, LX: 4, LY: 4, LZ: 0.2},
		{ID: "r4", Kind: element.KindRoof, ParentID: "g", FoundationID: "g", LX: 4, LY: 4, LZ: 1, Data: element.RoofData{RValue: 1.0}},
		{ID: "p", Kind: element.KindSolarPanel, ParentID: "f", FoundationID: "f", LX: 1, LY: 2, LZ: 0.05, Data: element.SolarPanelData{}},
	})
	return s
}

func rValues(s *store.Store, ids ...element.ID) []float64 {
	var out []float64
	for _, id := range ids {
		e, _ := s.Get(id)
		out = append(out, RoofRValue.Get(e))
	}
	return out
}

func equal(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestGroupUndoRestoresEachRoof(t *testing.T) {
	s := roofSite()
	log := undo.NewManager(0)

	cmd, err := SetValueForAll(s, log, RoofRValue, RoofsAbove("f"), 4.0)
	if err != nil {
		t.Fatalf("SetValueForAll: %v", err)
	}
	if cmd == nil || len(cmd.Old()) != 3 {
		t.Fatalf("command should cover three roofs, got %+v", cmd)
	}
	if got := rValues(s, "r1", "r2", "r3", "r4"); !equal(got, []float64{4, 4, 4, 1}) {
		t.Fatalf("after set: %v", got)
	}
	if log.Len() != 1 {
		t.Fatalf("one undo step expected, got %d", log.Len())
	}

	log.Undo()
	if got := rValues(s, "r1", "r2", "r3"); !equal(got, []float64{2.0, 3.0, 2.5}) {
		t.Errorf("after undo: %v, want [2 3 2.5]", got)
	}
	log.Redo()
	if got := rValues(s, "r1", "r2", "r3"); !equal(got, []float64{4, 4, 4}) {
		t.Errorf("after redo: %v", got)
	}
}

func TestGroupCommandSnapshotsOldValues(t *testing.T) {
	s := roofSite()
	log := undo.NewManager(0)
	cmd, _ := SetValueForAll(s, log, RoofRValue, RoofsAbove("f"), 4.0)
	m := cmd.Old()
	m["r1"] = 99
	log.Undo()
	if got := rValues(s, "r1"); got[0] != 2.0 {
		t.Errorf("mutating Old() leaked into the command: r1 = %v", got[0])
	}
}

func TestSetValueSingle(t *testing.T) {
	s := roofSite()
	log := undo.NewManager(0)
	before := s.Version()

	cmd, err := SetValue(s, log, RoofRise, "r2", 1.5)
	if err != nil {
		t.Fatal(err)
	}
	if cmd.Old != 0 || cmd.New != 1.5 {
		t.Errorf("command = %+v", cmd)
	}
	if s.Version() != before+1 {
		t.Errorf("expected exactly one commit, version %d -> %d", before, s.Version())
	}
	log.Undo()
	e, _ := s.Get("r2")
	if RoofRise.Get(e) != 0 {
		t.Errorf("undo left rise = %v", RoofRise.Get(e))
	}
	if got, _ := e.Roof(); got.RValue != 3.0 {
		t.Errorf("undo clobbered another field: %+v", got)
	}
}

func TestSetValueErrors(t *testing.T) {
	s := roofSite()
	log := undo.NewManager(0)
	tests := []struct {
		name string
		run  func() error
		want error
	}{
		{"missing", func() error { _, err := SetValue(s, log, RoofRise, "nope", 1); return err }, store.ErrNotFound},
		{"wrong kind", func() error { _, err := SetValue(s, log, RoofRise, "p", 1); return err }, ErrWrongKind},
		{"negative rise", func() error { _, err := SetValue(s, log, RoofRise, "r1", -1); return err }, ErrInvalidValue},
		{"NaN r-value", func() error { _, err := SetValue(s, log, RoofRValue, "r1", math.NaN()); return err }, ErrInvalidValue},
		{"tilt too steep", func() error { _, err := SetValue(s, log, PanelTilt, "p", 2); return err }, ErrInvalidValue},
		{"group invalid", func() error { _, err := SetValueForAll(s, log, RoofRValue, OfKind(element.KindRoof), 0); return err }, ErrInvalidValue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.run(); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
	if log.CanUndo() {
		t.Error("failed edits must not push commands")
	}
}

func TestSetValueUnchangedIsNoop(t *testing.T) {
	s := roofSite()
	log := undo.NewManager(0)
	cmd, err := SetValue(s, log, RoofRValue, "r1", 2.0)
	if err != nil || cmd != nil {
		t.Errorf("cmd=%v err=%v, want nil nil", cmd, err)
	}
	if log.CanUndo() {
		t.Error("no-op edit pushed a command")
	}
}

func TestScopes(t *testing.T) {
	st := roofSite().State()
	tests := []struct {
		name  string
		scope Scope
		want  int
	}{
		{"roofs above f", RoofsAbove("f"), 3},
		{"roofs above g", RoofsAbove("g"), 1},
		{"siblings of r1", SiblingsOf("r1"), 3},
		{"siblings of unknown", SiblingsOf("zz"), 0},
		{"all foundations", OfKind(element.KindFoundation), 2},
	}
	for _, tt := range tests {
		if got := len(tt.scope(st)); got != tt.want {
			t.Errorf("%s: %d ids, want %d", tt.name, got, tt.want)
		}
	}
}

func TestGestureCommandRestoresParentLinks(t *testing.T) {
	s := roofSite()
	log := undo.NewManager(0)
	before, _ := s.Get("p")
	after := before
	after.ParentID, after.FoundationID = "g", "g"
	after.CX, after.CY = 1, -1
	s.Set(func(d *store.Draft) { d.Put(after) })
	log.Push(NewGestureCommand("Move Solar Panel", s, []element.Element{before}, []element.Element{after}))

	log.Undo()
	if got, _ := s.Get("p"); got != before {
		t.Errorf("undo: %+v, want %+v", got, before)
	}
	log.Redo()
	if got, _ := s.Get("p"); got != after {
		t.Errorf("redo: %+v, want %+v", got, after)
	}
}

func TestLookupFloat(t *testing.T) {
	for _, name := range FloatFieldNames() {
		f, ok := LookupFloat(name)
		if !ok || f.Name != name {
			t.Errorf("LookupFloat(%q) = %v, %v", name, f.Name, ok)
		}
	}
	if _, ok := LookupFloat("roof.color"); ok {
		t.Error("unexpected field")
	}
}
