// Package manip drives pointer gestures on placed elements.
//
// A gesture starts on pointer-down over a handle, advances once per frame
// while the pointer is held, and ends on the window-level pointer-up. Each
// frame recomputes the element from the snapshot taken at pointer-down and
// pushes the result onto the scene node only; the store sees exactly one
// commit when the gesture ends, paired with exactly one undo command.
// Kind-specific geometry lives behind the Rules interface.
package manip

import (
	"fmt"
	"sync"
	"time"

	"github.com/chazu/solarform/pkg/action"
	"github.com/chazu/solarform/pkg/element"
	"github.com/chazu/solarform/pkg/scene"
	"github.com/chazu/solarform/pkg/store"
	"github.com/chazu/solarform/pkg/undo"
)

// ---------------------------------------------------------------------------
// Collaborators
// ---------------------------------------------------------------------------

// Controls is the camera orbit control; it is disabled while a gesture is
// active.
type Controls interface {
	SetEnabled(enabled bool)
}

// Scheduler runs f once after d.
type Scheduler interface {
	AfterFunc(d time.Duration, f func())
}

// Checker decides whether a just-committed element is acceptable given
// the rest of the collection.
type Checker interface {
	IsNewPositionOk(e element.Element, all []element.Element) bool
}

// Observer hears about gesture outcomes.
type Observer interface {
	GestureStarted(k element.Kind, op Operation)
	GestureCommitted(k element.Kind, op Operation)
	GestureRejected(k element.Kind, op Operation)
	GestureCancelled(k element.Kind, op Operation)
}

// TimerScheduler schedules with time.AfterFunc.
type TimerScheduler struct{}

func (TimerScheduler) AfterFunc(d time.Duration, f func()) { time.AfterFunc(d, f) }

// OrbitFlag is a Controls that just records the flag.
type OrbitFlag struct {
	mu      sync.Mutex
	enabled bool
}

// NewOrbitFlag returns enabled controls.
func NewOrbitFlag() *OrbitFlag { return &OrbitFlag{enabled: true} }

func (o *OrbitFlag) SetEnabled(enabled bool) {
	o.mu.Lock()
	o.enabled = enabled
	o.mu.Unlock()
}

// Enabled reports the current flag.
func (o *OrbitFlag) Enabled() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.enabled
}

// Options tunes a Session. Zero values fall back to the defaults.
type Options struct {
	SnapThreshold float64
	GridStep      float64
	MinSize       float64
	RollbackDelay time.Duration

	Controls  Controls
	Scheduler Scheduler
	Checker   Checker
	Observer  Observer
}

func (o Options) withDefaults() Options {
	if o.SnapThreshold <= 0 {
		o.SnapThreshold = 1
	}
	if o.GridStep <= 0 {
		o.GridStep = 0.5
	}
	if o.MinSize <= 0 {
		o.MinSize = 0.5
	}
	if o.Controls == nil {
		o.Controls = NewOrbitFlag()
	}
	if o.Scheduler == nil {
		o.Scheduler = TimerScheduler{}
	}
	return o
}

// ---------------------------------------------------------------------------
// Session
// ---------------------------------------------------------------------------

// Result describes how a gesture ended.
type Result struct {
	ID        element.ID   `json:"id,omitempty"`
	Operation Operation    `json:"operation"`
	Committed bool         `json:"committed"`
	Rejected  bool         `json:"rejected"`
	Command   undo.Command `json:"-"`
}

// Session is the single gesture driver of an editor. At most one gesture
// is active at a time. Session is safe for concurrent use; store writes,
// subscriber callbacks and collaborator calls happen with its lock
// released.
type Session struct {
	mu     sync.Mutex
	store  *store.Store
	log    *undo.Manager
	graph  *scene.Graph
	camera scene.PerspectiveCamera
	rules  map[element.Kind]Rules
	opts   Options
	active *Gesture
	// rollingBack holds elements whose rejected commit has not been
	// restored yet; they cannot be grabbed until it is.
	rollingBack map[element.ID]bool
}

// NewSession wires a session to its store, undo log and scene graph, with
// rules for every manipulable kind.
func NewSession(s *store.Store, log *undo.Manager, g *scene.Graph, opts Options) *Session {
	sess := &Session{
		store:  s,
		log:    log,
		graph:  g,
		camera: scene.DefaultCamera(),
		rules:  make(map[element.Kind]Rules),
		opts:   opts.withDefaults(),

		rollingBack: make(map[element.ID]bool),
	}
	for _, r := range []Rules{PanelRules{}, BatteryRules{}, RulerRules{}, ProtractorRules{}, RoofRules{}} {
		sess.Register(r)
	}
	return sess
}

// Register installs or replaces the rules for r.Kind().
func (s *Session) Register(r Rules) {
	s.mu.Lock()
	s.rules[r.Kind()] = r
	s.mu.Unlock()
}

// SetCamera replaces the camera used to turn pointers into rays.
func (s *Session) SetCamera(c scene.PerspectiveCamera) {
	s.mu.Lock()
	s.camera = c
	s.mu.Unlock()
}

// Camera returns the current camera.
func (s *Session) Camera() scene.PerspectiveCamera {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.camera
}

// Sync rebuilds the scene from the store contents. An active gesture's
// transient state is re-applied on top.
func (s *Session) Sync(elems []element.Element) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.graph.Sync(elems)
	if g := s.active; g != nil {
		s.graph.Apply(g.Pending)
	}
}

// WithGraph runs fn with exclusive access to the scene graph.
func (s *Session) WithGraph(fn func(g *scene.Graph)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.graph)
}

// RollingBack reports whether id has a rejected commit waiting to be
// restored.
func (s *Session) RollingBack(id element.ID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rollingBack[id]
}

// Active returns a copy of the active gesture.
func (s *Session) Active() (Gesture, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return Gesture{}, false
	}
	return *s.active, true
}

// PointerDown starts a gesture on element id. It is refused, returning
// false, when a gesture is already active, the element is unknown, not
// selected, locked, waiting for a rollback, has no scene node, or its kind
// does not support op.
func (s *Session) PointerDown(id element.ID, op Operation, h Handle, p Pointer) bool {
	s.mu.Lock()
	if s.active != nil || s.rollingBack[id] {
		s.mu.Unlock()
		return false
	}
	e, ok := s.store.Get(id)
	if !ok || !e.Selected || e.Locked || op == None {
		s.mu.Unlock()
		return false
	}
	r := s.rules[e.Kind]
	if r == nil || !r.Allows(e, op) || s.graph.Node(id) == nil {
		s.mu.Unlock()
		return false
	}
	g := &Gesture{
		ID:      id,
		Kind:    e.Kind,
		Op:      op,
		Handle:  h,
		Start:   e,
		Pending: e,
		Pointer: p,
	}
	ctx := s.context()
	if !r.Begin(ctx, g) {
		s.mu.Unlock()
		return false
	}
	s.active = g
	opts := s.opts
	s.mu.Unlock()

	opts.Controls.SetEnabled(false)
	if opts.Observer != nil {
		opts.Observer.GestureStarted(e.Kind, op)
	}
	Logger().Debug("gesture started", "id", id.Short(), "kind", e.Kind.String(), "op", op.String(), "handle", h.String())
	return true
}

// PointerMove records the pointer and runs one frame.
func (s *Session) PointerMove(p Pointer) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return false
	}
	s.active.Pointer = p
	return s.frameLocked()
}

// Frame runs one per-frame update for the active gesture. It returns false
// when there is no gesture or the frame was skipped because the scene node
// is missing or the pointer ray hit nothing usable; the element then keeps
// its last transient transform.
func (s *Session) Frame() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return false
	}
	return s.frameLocked()
}

func (s *Session) frameLocked() bool {
	g := s.active
	if s.graph.Node(g.ID) == nil {
		Logger().Debug("frame skipped: no scene node", "id", g.ID.Short())
		return false
	}
	r := s.rules[g.Kind]
	ray := s.camera.Ray(g.Pointer.X, g.Pointer.Y)
	next, ok := r.Update(s.context(), g, ray)
	if !ok {
		return false
	}
	g.Pending = next
	s.graph.Apply(next)
	return true
}

// PointerUp ends the active gesture. It is meant for a window-level
// listener and does nothing without an active gesture. An unchanged
// element commits nothing. Otherwise the element is written to the store
// in one mutation and, unless the legality check rejects it, one undo
// command is pushed. A rejected commit is rolled back after the configured
// delay and leaves no command behind.
func (s *Session) PointerUp() Result {
	s.mu.Lock()
	g := s.active
	if g == nil {
		s.mu.Unlock()
		return Result{}
	}
	s.active = nil
	opts := s.opts
	s.mu.Unlock()

	opts.Controls.SetEnabled(true)
	res := Result{ID: g.ID, Operation: g.Op}
	if g.Pending == g.Start {
		return res
	}

	before, after := g.Start, g.Pending
	var committed bool
	s.store.Set(func(d *store.Draft) {
		cur, ok := d.Get(g.ID)
		if !ok {
			return
		}
		after.Selected = cur.Selected
		before.Selected = cur.Selected
		d.Put(after)
		committed = true
	})
	if !committed {
		return res
	}

	if opts.Checker != nil && !opts.Checker.IsNewPositionOk(after, s.store.Elements()) {
		res.Rejected = true
		s.mu.Lock()
		s.rollingBack[g.ID] = true
		s.mu.Unlock()
		opts.Scheduler.AfterFunc(opts.RollbackDelay, func() {
			s.store.Set(func(d *store.Draft) {
				if cur, ok := d.Get(before.ID); ok {
					b := before
					b.Selected = cur.Selected
					d.Put(b)
				}
			})
			s.mu.Lock()
			delete(s.rollingBack, g.ID)
			s.mu.Unlock()
		})
		if opts.Observer != nil {
			opts.Observer.GestureRejected(g.Kind, g.Op)
		}
		Logger().Warn("gesture rejected", "id", g.ID.Short(), "kind", g.Kind.String(), "op", g.Op.String())
		return res
	}

	name := fmt.Sprintf("%s %s", g.Op.verb(), g.Kind)
	cmd := action.NewGestureCommand(name, s.store, []element.Element{before}, []element.Element{after})
	s.log.Push(cmd)
	res.Committed = true
	res.Command = cmd
	if opts.Observer != nil {
		opts.Observer.GestureCommitted(g.Kind, g.Op)
	}
	Logger().Info("gesture committed", "id", g.ID.Short(), "command", name)
	return res
}

// Cancel abandons the active gesture: the scene node returns to the
// pointer-down snapshot, orbit controls come back, and neither the store
// nor the undo log is touched.
func (s *Session) Cancel() bool {
	s.mu.Lock()
	g := s.active
	if g == nil {
		s.mu.Unlock()
		return false
	}
	s.active = nil
	s.graph.Apply(g.Start)
	opts := s.opts
	s.mu.Unlock()

	opts.Controls.SetEnabled(true)
	if opts.Observer != nil {
		opts.Observer.GestureCancelled(g.Kind, g.Op)
	}
	Logger().Debug("gesture cancelled", "id", g.ID.Short())
	return true
}

func (s *Session) context() *Context {
	return &Context{
		Graph:   s.graph,
		Camera:  s.camera,
		Options: s.opts,
		store:   s.store,
	}
}
