package main

import (
	"context"
	"log"

	"github.com/wailsapp/wails/v2/pkg/runtime"

	"github.com/chazu/solarform/pkg/config"
	"github.com/chazu/solarform/pkg/editor"
	"github.com/chazu/solarform/pkg/element"
	"github.com/chazu/solarform/pkg/kernel"
	"github.com/chazu/solarform/pkg/manip"
	"github.com/chazu/solarform/pkg/scene"
	"github.com/chazu/solarform/pkg/store"
)

// StoreChangedEvent is emitted to the frontend after every store commit,
// carrying the new store.State.
const StoreChangedEvent = "store:changed"

// roleColors gives each kind of element a distinct default color.
var roleColors = map[scene.Role]string{
	scene.RoleFoundation:     "#9E9E9E",
	scene.RoleWall:           "#E0C9A6",
	scene.RoleRoof:           "#B5533C",
	scene.RoleCuboid:         "#7F8C8D",
	scene.RoleSolarPanel:     "#1F3A93",
	scene.RoleBatteryStorage: "#2ECC71",
	scene.RoleRuler:          "#F39C12",
	scene.RoleProtractor:     "#9B59B6",
}

const fallbackColor = "#4A90D9"

// App is the Wails backend. It exposes methods to the frontend via bindings.
type App struct {
	ctx    context.Context
	editor *editor.Editor
}

// MeshData is the JSON-serializable mesh format sent to the frontend.
type MeshData struct {
	Vertices  []float32 `json:"vertices"`
	Normals   []float32 `json:"normals"`
	Indices   []uint32  `json:"indices"`
	ElementID string    `json:"elementId"`
	Role      string    `json:"role"`
	Color     string    `json:"color"`
}

// EvalErrorData is a JSON-serializable eval error for the frontend.
type EvalErrorData struct {
	Line      int    `json:"line"`
	Col       int    `json:"col"`
	Message   string `json:"message"`
	ElementID string `json:"elementId,omitempty"`
}

// EvalResult is the full result returned to the frontend.
type EvalResult struct {
	Meshes   []MeshData      `json:"meshes"`
	Errors   []EvalErrorData `json:"errors"`
	Warnings []EvalErrorData `json:"warnings"`
}

// HistoryStep reports an undo or redo.
type HistoryStep struct {
	Name string `json:"name"`
	Done bool   `json:"done"`
}

// NewApp creates a new App around an editor built from the environment.
func NewApp() *App {
	return NewAppWithEditor(editor.New(config.Load()))
}

// NewAppWithEditor creates an App around ed.
func NewAppWithEditor(ed *editor.Editor) *App {
	return &App{editor: ed}
}

// startup is called by Wails on app startup. The context is saved so store
// changes can be pushed to the frontend as runtime events.
func (a *App) startup(ctx context.Context) {
	a.ctx = ctx
	a.editor.Subscribe(func(st store.State) {
		runtime.EventsEmit(a.ctx, StoreChangedEvent, st)
	})
}

// shutdown is called by Wails when the window closes.
func (a *App) shutdown(ctx context.Context) {
	a.editor.Close()
}

func toMeshData(meshes []*kernel.Mesh) []MeshData {
	out := make([]MeshData, 0, len(meshes))
	for _, m := range meshes {
		color, ok := roleColors[scene.Role(m.Role)]
		if !ok {
			color = fallbackColor
		}
		out = append(out, MeshData{
			Vertices:  m.Vertices,
			Normals:   m.Normals,
			Indices:   m.Indices,
			ElementID: m.ElementID,
			Role:      m.Role,
			Color:     color,
		})
	}
	return out
}

// Evaluate takes scene script source and returns mesh data + errors.
// This is the primary binding called by the frontend editor. A successful
// evaluation replaces the scene.
func (a *App) Evaluate(source string) EvalResult {
	res := a.editor.Evaluate(source)
	result := EvalResult{
		Meshes:   toMeshData(res.Meshes),
		Errors:   []EvalErrorData{},
		Warnings: []EvalErrorData{},
	}
	for _, e := range res.Errors {
		result.Errors = append(result.Errors, EvalErrorData{
			Line:    e.Line,
			Col:     e.Col,
			Message: e.Message,
		})
	}
	for _, w := range res.Warnings {
		result.Warnings = append(result.Warnings, EvalErrorData{
			Line:      w.Line,
			Col:       w.Col,
			Message:   w.Message,
			ElementID: string(w.ElementID),
		})
	}
	return result
}

// Meshes returns meshes for the current scene, after gestures and edits.
func (a *App) Meshes() ([]MeshData, error) {
	meshes, err := a.editor.Meshes()
	if err != nil {
		log.Printf("Meshes error: %v", err)
		return nil, err
	}
	return toMeshData(meshes), nil
}

// Elements returns every element in insertion order.
func (a *App) Elements() []element.Element {
	return a.editor.Elements()
}

// SetCamera updates the camera the frontend renders with, so pointer
// coordinates map to the same rays.
func (a *App) SetCamera(c scene.PerspectiveCamera) {
	a.editor.SetCamera(c)
}

// Select replaces the selection.
func (a *App) Select(ids []string) error {
	conv := make([]element.ID, len(ids))
	for i, id := range ids {
		conv[i] = element.ID(id)
	}
	return a.editor.Select(conv...)
}

// PointerDown starts a gesture on a handle of element id. x and y are
// normalized device coordinates.
func (a *App) PointerDown(id, operation, handle string, x, y float64) (bool, error) {
	op, err := manip.ParseOperation(operation)
	if err != nil {
		return false, err
	}
	h, err := manip.ParseHandle(handle)
	if err != nil {
		return false, err
	}
	return a.editor.PointerDown(element.ID(id), op, h, manip.Pointer{X: x, Y: y}), nil
}

// PointerMove advances the active gesture.
func (a *App) PointerMove(x, y float64) bool {
	return a.editor.PointerMove(manip.Pointer{X: x, Y: y})
}

// PointerUp ends the active gesture. The frontend calls it from a
// window-level listener.
func (a *App) PointerUp() manip.Result {
	return a.editor.PointerUp()
}

// CancelGesture abandons the active gesture.
func (a *App) CancelGesture() bool {
	return a.editor.CancelGesture()
}

// Undo reverts the latest command.
func (a *App) Undo() HistoryStep {
	name, ok := a.editor.Undo()
	return HistoryStep{Name: name, Done: ok}
}

// Redo reapplies the latest undone command.
func (a *App) Redo() HistoryStep {
	name, ok := a.editor.Redo()
	return HistoryStep{Name: name, Done: ok}
}

// SetField writes one numeric field, such as "roof.rValue", of one element.
func (a *App) SetField(id, field string, value float64) error {
	return a.editor.SetField(element.ID(id), field, value)
}

// ApplyToRoofsAbove writes a roof field on every roof above a foundation.
func (a *App) ApplyToRoofsAbove(foundationID, field string, value float64) error {
	return a.editor.ApplyToRoofsAbove(element.ID(foundationID), field, value)
}

// Fields lists the field names SetField accepts.
func (a *App) Fields() []string {
	return editor.FieldNames()
}
