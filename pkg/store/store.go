// Package store holds the flat, normalized collection of placed elements.
//
// Every write goes through Set: the mutator receives a private draft of the
// whole collection, the draft is committed atomically, and subscribers are
// notified once. Gestures, undo/redo replays and menu edits all share this
// single write path, so observers never see a half-applied change.
package store

import (
	"errors"
	"sync"

	"github.com/chazu/solarform/pkg/element"
)

// ErrNotFound is returned when an element id does not resolve.
var ErrNotFound = errors.New("element not found")

// State is an immutable snapshot of the store.
type State struct {
	Elements       []element.Element `json:"elements"`
	MultiSelection []element.ID      `json:"multiSelection"`
	Version        uint64            `json:"version"`
}

// Find returns the element with the given id from the snapshot.
func (s State) Find(id element.ID) (element.Element, bool) {
	for _, e := range s.Elements {
		if e.ID == id {
			return e, true
		}
	}
	return element.Element{}, false
}

// Subscriber is notified after every committed Set.
type Subscriber func(State)

// Store is safe for concurrent use. Subscribers run on the goroutine that
// called Set, after the store lock is released.
type Store struct {
	mu      sync.Mutex
	elems   map[element.ID]element.Element
	order   []element.ID
	multi   []element.ID
	version uint64

	subMu   sync.Mutex
	subs    map[int]Subscriber
	nextSub int
}

// New returns an empty store.
func New() *Store {
	return &Store{
		elems: make(map[element.ID]element.Element),
		subs:  make(map[int]Subscriber),
	}
}

// Set runs fn against a draft of the collection and commits the result.
// fn must not call back into the store. If fn panics nothing is committed
// and the panic propagates.
func (s *Store) Set(fn func(d *Draft)) {
	s.notify(s.apply(fn))
}

func (s *Store) apply(fn func(d *Draft)) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.draft()
	fn(d)
	s.commit(d)
	return s.stateLocked()
}

// Load replaces the whole collection in one commit.
func (s *Store) Load(elems []element.Element) {
	s.Set(func(d *Draft) {
		d.elems = make(map[element.ID]*element.Element, len(elems))
		d.order = d.order[:0]
		d.multi = nil
		for _, e := range elems {
			d.Put(e)
		}
	})
}

// Get returns a copy of one element.
func (s *Store) Get(id element.ID) (element.Element, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.elems[id]
	return e, ok
}

// Elements returns copies of all elements in insertion order.
func (s *Store) Elements() []element.Element {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.elementsLocked()
}

// State returns a snapshot of the whole store.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

// Version returns the number of commits so far.
func (s *Store) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

// Subscribe registers fn and returns a function that removes it.
func (s *Store) Subscribe(fn Subscriber) (unsubscribe func()) {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()
	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *Store) notify(st State) {
	s.subMu.Lock()
	subs := make([]Subscriber, 0, len(s.subs))
	for i := 0; i < s.nextSub; i++ {
		if fn, ok := s.subs[i]; ok {
			subs = append(subs, fn)
		}
	}
	s.subMu.Unlock()
	for _, fn := range subs {
		fn(st)
	}
}

func (s *Store) draft() *Draft {
	d := &Draft{
		elems: make(map[element.ID]*element.Element, len(s.elems)),
		order: append([]element.ID(nil), s.order...),
		multi: append([]element.ID(nil), s.multi...),
	}
	for id, e := range s.elems {
		e := e
		d.elems[id] = &e
	}
	return d
}

func (s *Store) commit(d *Draft) {
	elems := make(map[element.ID]element.Element, len(d.elems))
	order := make([]element.ID, 0, len(d.order))
	for _, id := range d.order {
		if e, ok := d.elems[id]; ok {
			elems[id] = *e
			order = append(order, id)
		}
	}
	s.elems = elems
	s.order = order
	s.multi = d.multi
	s.version++
}

func (s *Store) elementsLocked() []element.Element {
	out := make([]element.Element, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.elems[id])
	}
	return out
}

func (s *Store) stateLocked() State {
	return State{
		Elements:       s.elementsLocked(),
		MultiSelection: append([]element.ID(nil), s.multi...),
		Version:        s.version,
	}
}
