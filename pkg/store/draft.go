package store

import "github.com/chazu/solarform/pkg/element"

// Draft is the mutable copy of the collection handed to a Set mutator.
// Pointers returned by Get and Children stay valid until the mutator
// returns.
type Draft struct {
	elems map[element.ID]*element.Element
	order []element.ID
	multi []element.ID
}

// Get returns the draft copy of an element for in-place editing.
func (d *Draft) Get(id element.ID) (*element.Element, bool) {
	e, ok := d.elems[id]
	return e, ok
}

// Len returns the number of elements in the draft.
func (d *Draft) Len() int { return len(d.elems) }

// Put inserts e or replaces the element with the same id. New elements are
// appended to the insertion order; replaced ones keep their slot. A nil
// payload is replaced by the kind's default.
func (d *Draft) Put(e element.Element) {
	if e.Data == nil {
		e.Data = element.DefaultData(e.Kind)
	}
	if _, ok := d.elems[e.ID]; !ok {
		d.order = append(d.order, e.ID)
	}
	d.elems[e.ID] = &e
}

// Remove deletes id together with every element that hangs off it,
// directly or transitively, and returns the removed ids.
func (d *Draft) Remove(id element.ID) []element.ID {
	if _, ok := d.elems[id]; !ok {
		return nil
	}
	doomed := map[element.ID]bool{id: true}
	for changed := true; changed; {
		changed = false
		for cid, e := range d.elems {
			if doomed[cid] {
				continue
			}
			if doomed[e.ParentID] || doomed[e.FoundationID] {
				doomed[cid] = true
				changed = true
			}
		}
	}
	var removed []element.ID
	for _, oid := range d.order {
		if doomed[oid] {
			delete(d.elems, oid)
			removed = append(removed, oid)
		}
	}
	kept := d.multi[:0]
	for _, mid := range d.multi {
		if !doomed[mid] {
			kept = append(kept, mid)
		}
	}
	d.multi = kept
	return removed
}

// Each visits elements in insertion order until fn returns false.
func (d *Draft) Each(fn func(e *element.Element) bool) {
	for _, id := range d.order {
		if e, ok := d.elems[id]; ok {
			if !fn(e) {
				return
			}
		}
	}
}

// Children returns the elements whose parent is id.
func (d *Draft) Children(id element.ID) []*element.Element {
	var out []*element.Element
	d.Each(func(e *element.Element) bool {
		if e.ParentID == id {
			out = append(out, e)
		}
		return true
	})
	return out
}

// SelectOnly makes id the sole selected element and clears the multi
// selection. An empty id clears the selection.
func (d *Draft) SelectOnly(id element.ID) {
	for _, e := range d.elems {
		e.Selected = e.ID == id
	}
	d.multi = nil
}

// SetMultiSelection replaces the multi-selection id set. Unknown ids are
// dropped.
func (d *Draft) SetMultiSelection(ids []element.ID) {
	d.multi = d.multi[:0]
	seen := make(map[element.ID]bool, len(ids))
	for _, id := range ids {
		if _, ok := d.elems[id]; ok && !seen[id] {
			d.multi = append(d.multi, id)
			seen[id] = true
		}
	}
}

// MultiSelection returns the current multi-selection ids.
func (d *Draft) MultiSelection() []element.ID {
	return append([]element.ID(nil), d.multi...)
}
