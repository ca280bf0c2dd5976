// Package editor wires the element store, undo log, scene graph, gesture
// session, script engine and geometry kernel into one object. The desktop
// and HTTP shells both drive an Editor.
package editor

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/chazu/solarform/pkg/action"
	"github.com/chazu/solarform/pkg/config"
	"github.com/chazu/solarform/pkg/element"
	"github.com/chazu/solarform/pkg/engine"
	"github.com/chazu/solarform/pkg/kernel"
	"github.com/chazu/solarform/pkg/kernel/sdfx"
	"github.com/chazu/solarform/pkg/legal"
	"github.com/chazu/solarform/pkg/manip"
	"github.com/chazu/solarform/pkg/metrics"
	"github.com/chazu/solarform/pkg/scene"
	"github.com/chazu/solarform/pkg/store"
	"github.com/chazu/solarform/pkg/tessellate"
	"github.com/chazu/solarform/pkg/undo"
)

// ErrUnknownField is returned by SetField for a field name that is not
// registered.
var ErrUnknownField = errors.New("unknown field")

// EvalResult is what loading a scene script produces.
type EvalResult struct {
	Meshes   []*kernel.Mesh       `json:"meshes"`
	Errors   []engine.EvalError   `json:"errors"`
	Warnings []engine.EvalWarning `json:"warnings"`
}

// History summarizes the undo log.
type History struct {
	CanUndo bool   `json:"canUndo"`
	CanRedo bool   `json:"canRedo"`
	Len     int    `json:"len"`
	Last    string `json:"last,omitempty"`
}

// Option customizes an Editor.
type Option func(*options)

type options struct {
	registry  prometheus.Registerer
	logger    *slog.Logger
	scheduler manip.Scheduler
	controls  manip.Controls
}

// WithRegistry registers the editor metrics on reg instead of a private
// registry.
func WithRegistry(reg prometheus.Registerer) Option {
	return func(o *options) { o.registry = reg }
}

// WithLogger replaces the logger built from the configuration.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithScheduler replaces the timer used for rollbacks.
func WithScheduler(s manip.Scheduler) Option {
	return func(o *options) { o.scheduler = s }
}

// WithControls replaces the orbit controls toggled by gestures.
func WithControls(c manip.Controls) Option {
	return func(o *options) { o.controls = c }
}

// Editor is safe for concurrent use.
type Editor struct {
	cfg     *config.Config
	log     *slog.Logger
	store   *store.Store
	history *undo.Manager
	session *manip.Session
	engine  *engine.Engine
	kernel  kernel.Kernel
	metrics *metrics.Metrics
	orbit   *manip.OrbitFlag

	unsubscribe func()
}

// New builds an editor from cfg. A nil cfg uses config.Default().
func New(cfg *config.Config, opts ...Option) *Editor {
	if cfg == nil {
		cfg = config.Default()
	}
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.registry == nil {
		o.registry = prometheus.NewRegistry()
	}
	if o.logger == nil {
		o.logger = cfg.Logger()
	}

	k := sdfx.New(sdfx.WithMeshCells(cfg.MeshCells))
	ed := &Editor{
		cfg:     cfg,
		log:     o.logger,
		store:   store.New(),
		history: undo.NewManager(cfg.UndoDepth),
		engine:  engine.NewEngine(engine.WithTimeout(cfg.EvalTimeout)),
		kernel:  k,
		metrics: metrics.New(o.registry),
	}
	controls := o.controls
	if controls == nil {
		ed.orbit = manip.NewOrbitFlag()
		controls = ed.orbit
	}
	ed.session = manip.NewSession(ed.store, ed.history, scene.NewGraph(), manip.Options{
		SnapThreshold: cfg.SnapThreshold,
		GridStep:      cfg.GridStep,
		MinSize:       cfg.MinSize,
		RollbackDelay: cfg.RollbackDelay,
		Controls:      controls,
		Scheduler:     o.scheduler,
		Checker:       legal.New(k, o.logger),
		Observer:      ed.metrics,
	})
	ed.unsubscribe = ed.store.Subscribe(func(st store.State) {
		ed.session.Sync(st.Elements)
	})
	return ed
}

// Close detaches the editor from its store.
func (ed *Editor) Close() {
	ed.unsubscribe()
}

// Config returns the configuration the editor was built with.
func (ed *Editor) Config() *config.Config { return ed.cfg }

// Metrics returns the editor's instrumentation.
func (ed *Editor) Metrics() *metrics.Metrics { return ed.metrics }

// Subscribe registers fn for every store commit.
func (ed *Editor) Subscribe(fn func(store.State)) (unsubscribe func()) {
	return ed.store.Subscribe(fn)
}

// ---------------------------------------------------------------------------
// Scene loading
// ---------------------------------------------------------------------------

// Evaluate runs a scene script. On success the store is replaced by the
// script's elements, the undo log is cleared and meshes for the new scene
// are returned. On failure the store is untouched and the errors describe
// what went wrong.
func (ed *Editor) Evaluate(source string) EvalResult {
	res := EvalResult{
		Meshes:   []*kernel.Mesh{},
		Errors:   []engine.EvalError{},
		Warnings: []engine.EvalWarning{},
	}

	out, err := ed.engine.Result(source)
	if err != nil {
		ed.log.Error("evaluate failed", "err", err)
		ed.metrics.Evaluated("fatal")
		res.Errors = append(res.Errors, engine.EvalError{Message: err.Error()})
		return res
	}
	if len(out.Errors) > 0 {
		ed.metrics.Evaluated("error")
		res.Errors = append(res.Errors, out.Errors...)
		return res
	}
	elems := out.Elements

	for _, v := range store.Validate(store.State{Elements: elems}) {
		if v.Severity == store.SeverityError {
			res.Errors = append(res.Errors, engine.EvalError{Message: v.Error()})
			continue
		}
		res.Warnings = append(res.Warnings, engine.EvalWarning{Message: v.Message, ElementID: v.ElementID})
	}
	if len(res.Errors) > 0 {
		ed.metrics.Evaluated("error")
		return res
	}
	res.Warnings = append(res.Warnings, out.Warnings...)

	meshes, err := tessellate.Tessellate(elems, ed.kernel)
	if err != nil {
		ed.log.Error("tessellate failed", "err", err)
		ed.metrics.Evaluated("error")
		res.Errors = append(res.Errors, engine.EvalError{Message: "tessellation failed: " + err.Error()})
		return res
	}

	ed.Load(elems)
	ed.metrics.Evaluated("ok")
	ed.log.Info("scene loaded", "elements", len(elems), "meshes", len(meshes))
	res.Meshes = meshes
	return res
}

// Load replaces the collection and clears the undo log. An active gesture
// is cancelled first.
func (ed *Editor) Load(elems []element.Element) {
	ed.session.Cancel()
	ed.store.Load(elems)
	ed.history.Clear()
}

// Meshes tessellates the current collection.
func (ed *Editor) Meshes() ([]*kernel.Mesh, error) {
	return tessellate.Tessellate(ed.store.Elements(), ed.kernel)
}

// ---------------------------------------------------------------------------
// Queries
// ---------------------------------------------------------------------------

// Elements returns the collection in insertion order.
func (ed *Editor) Elements() []element.Element { return ed.store.Elements() }

// Element returns one element.
func (ed *Editor) Element(id element.ID) (element.Element, error) {
	e, ok := ed.store.Get(id)
	if !ok {
		return element.Element{}, fmt.Errorf("element %s: %w", id, store.ErrNotFound)
	}
	return e, nil
}

// State returns a snapshot of the store.
func (ed *Editor) State() store.State { return ed.store.State() }

// Validate checks the structural invariants of the collection.
func (ed *Editor) Validate() []store.ValidationError {
	return store.Validate(ed.store.State())
}

// History reports the undo log state.
func (ed *Editor) History() History {
	h := History{
		CanUndo: ed.history.CanUndo(),
		CanRedo: ed.history.CanRedo(),
		Len:     ed.history.Len(),
	}
	if c, ok := ed.history.Last(); ok {
		h.Last = c.Name()
	}
	return h
}

// OrbitEnabled reports whether camera orbiting is currently allowed. It is
// always true when the editor was given its own controls.
func (ed *Editor) OrbitEnabled() bool {
	if ed.orbit == nil {
		return true
	}
	return ed.orbit.Enabled()
}

// ---------------------------------------------------------------------------
// Selection and camera
// ---------------------------------------------------------------------------

// Select makes ids the selection. One id selects it alone; several form a
// multi-selection; none clears the selection.
func (ed *Editor) Select(ids ...element.ID) error {
	for _, id := range ids {
		if _, ok := ed.store.Get(id); !ok {
			return fmt.Errorf("select %s: %w", id, store.ErrNotFound)
		}
	}
	ed.store.Set(func(d *store.Draft) {
		switch len(ids) {
		case 0:
			d.SelectOnly("")
			d.SetMultiSelection(nil)
		case 1:
			d.SelectOnly(ids[0])
			d.SetMultiSelection(nil)
		default:
			d.SelectOnly(ids[0])
			d.SetMultiSelection(ids)
		}
	})
	return nil
}

// SetCamera replaces the camera used to turn pointers into rays.
func (ed *Editor) SetCamera(c scene.PerspectiveCamera) { ed.session.SetCamera(c) }

// Camera returns the current camera.
func (ed *Editor) Camera() scene.PerspectiveCamera { return ed.session.Camera() }

// ---------------------------------------------------------------------------
// Gestures
// ---------------------------------------------------------------------------

// PointerDown starts a gesture; see manip.Session.PointerDown.
func (ed *Editor) PointerDown(id element.ID, op manip.Operation, h manip.Handle, p manip.Pointer) bool {
	return ed.session.PointerDown(id, op, h, p)
}

// PointerMove advances the active gesture.
func (ed *Editor) PointerMove(p manip.Pointer) bool { return ed.session.PointerMove(p) }

// PointerUp ends the active gesture.
func (ed *Editor) PointerUp() manip.Result { return ed.session.PointerUp() }

// CancelGesture abandons the active gesture.
func (ed *Editor) CancelGesture() bool { return ed.session.Cancel() }

// ---------------------------------------------------------------------------
// History
// ---------------------------------------------------------------------------

// Undo reverts the latest command and returns its name.
func (ed *Editor) Undo() (string, bool) {
	c, ok := ed.history.Undo()
	if !ok {
		return "", false
	}
	ed.metrics.Undo()
	return c.Name(), true
}

// Redo reapplies the latest undone command and returns its name.
func (ed *Editor) Redo() (string, bool) {
	c, ok := ed.history.Redo()
	if !ok {
		return "", false
	}
	ed.metrics.Redo()
	return c.Name(), true
}

// ---------------------------------------------------------------------------
// Discrete edits
// ---------------------------------------------------------------------------

func lookupField(name string) (action.Field[float64], error) {
	f, ok := action.LookupFloat(name)
	if !ok {
		return f, fmt.Errorf("%q: %w", name, ErrUnknownField)
	}
	return f, nil
}

// SetField writes one numeric field of one element as a single undoable
// command. Writing the current value changes nothing.
func (ed *Editor) SetField(id element.ID, name string, v float64) error {
	f, err := lookupField(name)
	if err != nil {
		return err
	}
	if _, err := action.SetValue(ed.store, ed.history, f, id, v); err != nil {
		return err
	}
	return nil
}

// ApplyToRoofsAbove writes a roof field on every roof above foundation
// foundationID as one undoable command.
func (ed *Editor) ApplyToRoofsAbove(foundationID element.ID, name string, v float64) error {
	f, err := lookupField(name)
	if err != nil {
		return err
	}
	if _, err := action.SetValueForAll(ed.store, ed.history, f, action.RoofsAbove(foundationID), v); err != nil {
		return err
	}
	return nil
}

// FieldNames lists the fields SetField accepts.
func FieldNames() []string { return action.FloatFieldNames() }
