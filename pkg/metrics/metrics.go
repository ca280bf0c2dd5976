// Package metrics exposes editor activity as Prometheus counters.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/chazu/solarform/pkg/element"
	"github.com/chazu/solarform/pkg/manip"
)

// Gesture outcomes, used as the outcome label.
const (
	OutcomeStarted   = "started"
	OutcomeCommitted = "committed"
	OutcomeRejected  = "rejected"
	OutcomeCancelled = "cancelled"
)

// Metrics counts gestures, history navigation and script evaluations. It
// implements manip.Observer.
type Metrics struct {
	gestures    *prometheus.CounterVec
	history     *prometheus.CounterVec
	evaluations *prometheus.CounterVec
}

var _ manip.Observer = (*Metrics)(nil)

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		gestures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "solarform",
			Name:      "gestures_total",
			Help:      "Pointer gestures by element kind, operation and outcome.",
		}, []string{"kind", "operation", "outcome"}),
		history: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "solarform",
			Name:      "history_steps_total",
			Help:      "Undo and redo steps taken.",
		}, []string{"direction"}),
		evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "solarform",
			Name:      "script_evaluations_total",
			Help:      "Scene script evaluations by result.",
		}, []string{"result"}),
	}
	reg.MustRegister(m.gestures, m.history, m.evaluations)
	return m
}

func (m *Metrics) gesture(k element.Kind, op manip.Operation, outcome string) {
	m.gestures.WithLabelValues(k.String(), op.String(), outcome).Inc()
}

func (m *Metrics) GestureStarted(k element.Kind, op manip.Operation) {
	m.gesture(k, op, OutcomeStarted)
}

func (m *Metrics) GestureCommitted(k element.Kind, op manip.Operation) {
	m.gesture(k, op, OutcomeCommitted)
}

func (m *Metrics) GestureRejected(k element.Kind, op manip.Operation) {
	m.gesture(k, op, OutcomeRejected)
}

func (m *Metrics) GestureCancelled(k element.Kind, op manip.Operation) {
	m.gesture(k, op, OutcomeCancelled)
}

// Undo counts one undo step that ran a command.
func (m *Metrics) Undo() { m.history.WithLabelValues("undo").Inc() }

// Redo counts one redo step that ran a command.
func (m *Metrics) Redo() { m.history.WithLabelValues("redo").Inc() }

// Evaluated counts a script evaluation; result is "ok", "error" or "fatal".
func (m *Metrics) Evaluated(result string) {
	m.evaluations.WithLabelValues(result).Inc()
}
