// Package action builds the undoable commands the editor pushes onto the
// undo log: whole-element gesture commits and discrete field edits, single
// or applied to a group of elements.
package action

import (
	"errors"

	"github.com/chazu/solarform/pkg/element"
	"github.com/chazu/solarform/pkg/store"
	"github.com/chazu/solarform/pkg/undo"
)

var (
	// ErrInvalidValue is returned when a field value fails validation.
	ErrInvalidValue = errors.New("invalid value")
	// ErrWrongKind is returned when a field does not apply to the element.
	ErrWrongKind = errors.New("field does not apply to element kind")
)

// Compile-time interface checks.
var (
	_ undo.Command = (*GestureCommand)(nil)
	_ undo.Command = (*ValueCommand[float64])(nil)
	_ undo.Command = (*GroupValueCommand[float64])(nil)
)

// ---------------------------------------------------------------------------
// Gesture commands
// ---------------------------------------------------------------------------

// GestureCommand restores whole element snapshots. It is what a finished
// drag produces: the elements as they were at pointer-down and as they were
// committed at pointer-up, parent links included.
type GestureCommand struct {
	undo.Base
	store  *store.Store
	before []element.Element
	after  []element.Element
}

// NewGestureCommand captures copies of before and after.
func NewGestureCommand(name string, s *store.Store, before, after []element.Element) *GestureCommand {
	return &GestureCommand{
		Base:   undo.NewBase(name),
		store:  s,
		before: append([]element.Element(nil), before...),
		after:  append([]element.Element(nil), after...),
	}
}

// Before returns the pre-gesture snapshots.
func (c *GestureCommand) Before() []element.Element {
	return append([]element.Element(nil), c.before...)
}

// After returns the committed snapshots.
func (c *GestureCommand) After() []element.Element {
	return append([]element.Element(nil), c.after...)
}

func (c *GestureCommand) Undo() { restore(c.store, c.before) }
func (c *GestureCommand) Redo() { restore(c.store, c.after) }

func restore(s *store.Store, elems []element.Element) {
	s.Set(func(d *store.Draft) {
		for _, e := range elems {
			// Keep the live selection flag; it is not part of the edit.
			if cur, ok := d.Get(e.ID); ok {
				e.Selected = cur.Selected
			}
			d.Put(e)
		}
	})
}
