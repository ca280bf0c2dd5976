// Package undo is the linear undo/redo command log.
//
// A command carries everything it needs to revert and replay itself; the
// manager only orders them. Pushing a new command discards the redo side.
package undo

import (
	"sync"
	"time"
)

// Command is one undoable step. Undo and Redo must be self-sufficient:
// every value they write is captured when the command is created.
type Command interface {
	Name() string
	Timestamp() time.Time
	Undo()
	Redo()
}

// Base supplies the name and timestamp part of a Command.
type Base struct {
	name string
	ts   time.Time
}

// NewBase stamps a command name with the current time.
func NewBase(name string) Base {
	return Base{name: name, ts: time.Now()}
}

func (b Base) Name() string         { return b.name }
func (b Base) Timestamp() time.Time { return b.ts }

// Func adapts a pair of closures to Command.
type Func struct {
	Base
	UndoFn func()
	RedoFn func()
}

// NewFunc returns a closure-backed command.
func NewFunc(name string, undo, redo func()) *Func {
	return &Func{Base: NewBase(name), UndoFn: undo, RedoFn: redo}
}

func (f *Func) Undo() { f.UndoFn() }
func (f *Func) Redo() { f.RedoFn() }

// Group replays several commands as one step: Undo runs them newest first,
// Redo oldest first.
type Group struct {
	Base
	Commands []Command
}

func (g *Group) Undo() {
	for i := len(g.Commands) - 1; i >= 0; i-- {
		g.Commands[i].Undo()
	}
}

func (g *Group) Redo() {
	for _, c := range g.Commands {
		c.Redo()
	}
}

// Manager is safe for concurrent use. Command closures always run with the
// manager lock released, so they may freely write to the element store.
type Manager struct {
	mu    sync.Mutex
	stack []Command
	pos   int // stack[:pos] is applied, stack[pos:] can be redone
	limit int

	depth   int
	pending *Group
}

// NewManager returns a manager keeping at most limit commands; zero means
// unlimited.
func NewManager(limit int) *Manager {
	return &Manager{limit: limit}
}

// Push records an already-applied command. Inside a Begin/End pair the
// command joins the pending group instead.
func (m *Manager) Push(c Command) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pending != nil {
		m.pending.Commands = append(m.pending.Commands, c)
		return
	}
	m.pushLocked(c)
}

func (m *Manager) pushLocked(c Command) {
	m.stack = append(m.stack[:m.pos], c)
	if m.limit > 0 && len(m.stack) > m.limit {
		drop := len(m.stack) - m.limit
		m.stack = append([]Command(nil), m.stack[drop:]...)
	}
	m.pos = len(m.stack)
}

// Begin opens a group; commands pushed until the matching End become one
// undo step named name. Groups nest; only the outermost name is kept.
func (m *Manager) Begin(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.depth == 0 {
		m.pending = &Group{Base: NewBase(name)}
	}
	m.depth++
}

// End closes the group opened by Begin. An empty group is discarded.
func (m *Manager) End() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.depth == 0 {
		return
	}
	m.depth--
	if m.depth > 0 {
		return
	}
	g := m.pending
	m.pending = nil
	if len(g.Commands) > 0 {
		m.pushLocked(g)
	}
}

// Undo reverts the most recent applied command and reports whether there
// was one.
func (m *Manager) Undo() (Command, bool) {
	m.mu.Lock()
	if m.pos == 0 {
		m.mu.Unlock()
		return nil, false
	}
	m.pos--
	c := m.stack[m.pos]
	m.mu.Unlock()

	c.Undo()
	return c, true
}

// Redo replays the most recently undone command.
func (m *Manager) Redo() (Command, bool) {
	m.mu.Lock()
	if m.pos == len(m.stack) {
		m.mu.Unlock()
		return nil, false
	}
	c := m.stack[m.pos]
	m.pos++
	m.mu.Unlock()

	c.Redo()
	return c, true
}

// CanUndo reports whether Undo would do anything.
func (m *Manager) CanUndo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pos > 0
}

// CanRedo reports whether Redo would do anything.
func (m *Manager) CanRedo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pos < len(m.stack)
}

// Len returns the number of applied commands.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pos
}

// Last returns the most recent applied command.
func (m *Manager) Last() (Command, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pos == 0 {
		return nil, false
	}
	return m.stack[m.pos-1], true
}

// Clear forgets all history, including an open group.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stack = nil
	m.pos = 0
	m.depth = 0
	m.pending = nil
}
