package action

import (
	"fmt"

	"github.com/chazu/solarform/pkg/element"
	"github.com/chazu/solarform/pkg/store"
	"github.com/chazu/solarform/pkg/undo"
)

// ---------------------------------------------------------------------------
// Single-element edits
// ---------------------------------------------------------------------------

// ValueCommand changes one field of one element.
type ValueCommand[T comparable] struct {
	undo.Base
	store *store.Store
	field Field[T]
	ID    element.ID
	Old   T
	New   T
}

func (c *ValueCommand[T]) Undo() { writeField(c.store, c.field, map[element.ID]T{c.ID: c.Old}) }
func (c *ValueCommand[T]) Redo() { writeField(c.store, c.field, map[element.ID]T{c.ID: c.New}) }

// SetValue writes v to field f of element id in one store commit and pushes
// the matching command. Writing the current value is a no-op that returns a
// nil command.
func SetValue[T comparable](s *store.Store, log *undo.Manager, f Field[T], id element.ID, v T) (*ValueCommand[T], error) {
	e, ok := s.Get(id)
	if !ok {
		return nil, fmt.Errorf("set %s on %s: %w", f.Name, id, store.ErrNotFound)
	}
	if err := f.check(e, v); err != nil {
		return nil, err
	}
	old := f.Get(e)
	if old == v {
		return nil, nil
	}
	writeField(s, f, map[element.ID]T{id: v})
	cmd := &ValueCommand[T]{
		Base:  undo.NewBase("Set " + f.Name),
		store: s,
		field: f,
		ID:    id,
		Old:   old,
		New:   v,
	}
	log.Push(cmd)
	return cmd, nil
}

// ---------------------------------------------------------------------------
// Group edits
// ---------------------------------------------------------------------------

// GroupValueCommand sets one value on many elements and restores each
// element's own previous value on undo. It is a single undo step.
type GroupValueCommand[T comparable] struct {
	undo.Base
	store *store.Store
	field Field[T]
	old   map[element.ID]T
	New   T
}

// Old returns a copy of the per-element previous values.
func (c *GroupValueCommand[T]) Old() map[element.ID]T {
	out := make(map[element.ID]T, len(c.old))
	for id, v := range c.old {
		out[id] = v
	}
	return out
}

func (c *GroupValueCommand[T]) Undo() { writeField(c.store, c.field, c.old) }

func (c *GroupValueCommand[T]) Redo() {
	next := make(map[element.ID]T, len(c.old))
	for id := range c.old {
		next[id] = c.New
	}
	writeField(c.store, c.field, next)
}

// Scope selects the elements a group edit applies to.
type Scope func(st store.State) []element.ID

// RoofsAbove selects every roof resting on the given foundation.
func RoofsAbove(foundationID element.ID) Scope {
	return func(st store.State) []element.ID {
		var ids []element.ID
		for _, e := range st.Elements {
			if e.Kind == element.KindRoof && (e.FoundationID == foundationID || e.ParentID == foundationID) {
				ids = append(ids, e.ID)
			}
		}
		return ids
	}
}

// SiblingsOf selects elements of the same kind sharing id's parent,
// including id itself.
func SiblingsOf(id element.ID) Scope {
	return func(st store.State) []element.ID {
		self, ok := st.Find(id)
		if !ok {
			return nil
		}
		var ids []element.ID
		for _, e := range st.Elements {
			if e.Kind == self.Kind && e.ParentID == self.ParentID {
				ids = append(ids, e.ID)
			}
		}
		return ids
	}
}

// OfKind selects every element of kind k.
func OfKind(k element.Kind) Scope {
	return func(st store.State) []element.ID {
		var ids []element.ID
		for _, e := range st.Elements {
			if e.Kind == k {
				ids = append(ids, e.ID)
			}
		}
		return ids
	}
}

// SetValueForAll writes v to field f of every element in scope that carries
// the field, in one store commit, and pushes one group command. Elements
// that already hold v are left out of the command. It returns a nil command
// when nothing changes.
func SetValueForAll[T comparable](s *store.Store, log *undo.Manager, f Field[T], scope Scope, v T) (*GroupValueCommand[T], error) {
	if f.Validate != nil {
		if err := f.Validate(v); err != nil {
			return nil, fmt.Errorf("%s = %v: %w", f.Name, v, err)
		}
	}
	st := s.State()
	old := make(map[element.ID]T)
	for _, id := range scope(st) {
		e, ok := st.Find(id)
		if !ok || e.Kind != f.Kind {
			continue
		}
		if cur := f.Get(e); cur != v {
			old[id] = cur
		}
	}
	if len(old) == 0 {
		return nil, nil
	}
	cmd := &GroupValueCommand[T]{
		Base:  undo.NewBase(fmt.Sprintf("Set %s for %d elements", f.Name, len(old))),
		store: s,
		field: f,
		old:   old,
		New:   v,
	}
	cmd.Redo()
	log.Push(cmd)
	return cmd, nil
}

// writeField applies values in one store commit. Elements that have since
// disappeared are skipped.
func writeField[T comparable](s *store.Store, f Field[T], values map[element.ID]T) {
	s.Set(func(d *store.Draft) {
		for id, v := range values {
			if e, ok := d.Get(id); ok && e.Kind == f.Kind {
				f.Set(e, v)
			}
		}
	})
}
