package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/chazu/solarform/pkg/element"
	"github.com/chazu/solarform/pkg/manip"
)

// counter returns the value of the series of family name whose labels
// include all of want.
func counter(t *testing.T, reg *prometheus.Registry, name string, want map[string]string) float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
	series:
		for _, m := range mf.GetMetric() {
			got := make(map[string]string)
			for _, lp := range m.GetLabel() {
				got[lp.GetName()] = lp.GetValue()
			}
			for k, v := range want {
				if got[k] != v {
					continue series
				}
			}
			return m.GetCounter().GetValue()
		}
	}
	return 0
}

func TestGestureCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.GestureStarted(element.KindSolarPanel, manip.ResizeX)
	m.GestureCommitted(element.KindSolarPanel, manip.ResizeX)
	m.GestureStarted(element.KindSolarPanel, manip.Move)
	m.GestureRejected(element.KindSolarPanel, manip.Move)
	m.GestureStarted(element.KindRuler, manip.Move)
	m.GestureCancelled(element.KindRuler, manip.Move)

	tests := []struct {
		kind, op, outcome string
		want              float64
	}{
		{"Solar Panel", "resize-x", OutcomeStarted, 1},
		{"Solar Panel", "resize-x", OutcomeCommitted, 1},
		{"Solar Panel", "move", OutcomeRejected, 1},
		{"Solar Panel", "move", OutcomeCommitted, 0},
		{"Ruler", "move", OutcomeCancelled, 1},
	}
	for _, tt := range tests {
		got := counter(t, reg, "solarform_gestures_total", map[string]string{
			"kind": tt.kind, "operation": tt.op, "outcome": tt.outcome,
		})
		if got != tt.want {
			t.Errorf("%s %s %s = %v, want %v", tt.kind, tt.op, tt.outcome, got, tt.want)
		}
	}
}

func TestHistoryAndEvaluationCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.Undo()
	m.Undo()
	m.Redo()
	m.Evaluated("ok")
	m.Evaluated("error")
	m.Evaluated("ok")

	if got := counter(t, reg, "solarform_history_steps_total", map[string]string{"direction": "undo"}); got != 2 {
		t.Errorf("undo = %v, want 2", got)
	}
	if got := counter(t, reg, "solarform_history_steps_total", map[string]string{"direction": "redo"}); got != 1 {
		t.Errorf("redo = %v, want 1", got)
	}
	if got := counter(t, reg, "solarform_script_evaluations_total", map[string]string{"result": "ok"}); got != 2 {
		t.Errorf("ok evaluations = %v, want 2", got)
	}
}

func TestRegisterTwicePanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)
	defer func() {
		if recover() == nil {
			t.Error("registering the same collectors twice should panic")
		}
	}()
	New(reg)
}
