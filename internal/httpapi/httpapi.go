// Package httpapi serves an editor over HTTP with JSON bodies.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/chazu/solarform/pkg/action"
	"github.com/chazu/solarform/pkg/editor"
	"github.com/chazu/solarform/pkg/element"
	"github.com/chazu/solarform/pkg/manip"
	"github.com/chazu/solarform/pkg/scene"
	"github.com/chazu/solarform/pkg/store"
)

// ============================================================
// Server
// ============================================================

// Options tunes the HTTP app.
type Options struct {
	// Gatherer backs /metrics; nil leaves the route out.
	Gatherer prometheus.Gatherer
	// AccessLog enables the request logger middleware.
	AccessLog bool
	// ReadTimeout and WriteTimeout default to 10 seconds.
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Handler holds the editor the routes act on.
type Handler struct {
	ed *editor.Editor
}

// New builds the fiber app with every route registered.
func New(ed *editor.Editor, opts Options) *fiber.App {
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = 10 * time.Second
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 10 * time.Second
	}
	app := fiber.New(fiber.Config{
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
		AppName:      "Solarform",
	})

	// ============================================================
	// Global Middleware
	// ============================================================

	app.Use(recover.New())
	if opts.AccessLog {
		app.Use(logger.New(logger.Config{
			Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
			TimeFormat: "15:04:05",
			TimeZone:   "Local",
		}))
	}

	// ============================================================
	// Health and Metrics Routes
	// ============================================================

	app.Get("/health/live", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "alive"})
	})
	app.Get("/health/ready", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ready"})
	})
	if opts.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))
	}

	// ============================================================
	// Editor Routes
	// ============================================================

	h := &Handler{ed: ed}

	app.Post("/scene/evaluate", h.Evaluate)
	app.Put("/scene", h.LoadScene)
	app.Get("/scene", h.State)
	app.Get("/scene/meshes", h.Meshes)
	app.Get("/scene/validation", h.Validation)

	app.Get("/elements", h.Elements)
	app.Get("/elements/:id", h.Element)
	app.Put("/elements/:id/fields/:field", h.SetField)
	app.Put("/foundations/:id/roofs/fields/:field", h.ApplyToRoofsAbove)

	app.Put("/selection", h.Select)
	app.Put("/camera", h.SetCamera)
	app.Get("/camera", h.Camera)

	app.Post("/gesture/down", h.PointerDown)
	app.Post("/gesture/move", h.PointerMove)
	app.Post("/gesture/up", h.PointerUp)
	app.Post("/gesture/cancel", h.Cancel)

	app.Get("/history", h.History)
	app.Post("/history/undo", h.Undo)
	app.Post("/history/redo", h.Redo)

	return app
}

// ============================================================
// Helpers
// ============================================================

// decode parses the JSON body into v. When it reports false the error
// response is already written and the returned error should be passed on.
func decode(c fiber.Ctx, v any) (bool, error) {
	if len(c.Body()) == 0 {
		return false, c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "body required"})
	}
	if err := json.Unmarshal(c.Body(), v); err != nil {
		return false, c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON payload"})
	}
	return true, nil
}

// editError maps editor errors to HTTP statuses.
func editError(c fiber.Ctx, err error) error {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, store.ErrNotFound), errors.Is(err, editor.ErrUnknownField):
		status = http.StatusNotFound
	case errors.Is(err, action.ErrInvalidValue), errors.Is(err, action.ErrWrongKind):
		status = http.StatusUnprocessableEntity
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

// ============================================================
// Scene Handlers
// ============================================================

type evaluateRequest struct {
	Source string `json:"source"`
}

// Evaluate runs a scene script and replaces the scene on success.
func (h *Handler) Evaluate(c fiber.Ctx) error {
	var req evaluateRequest
	if ok, err := decode(c, &req); !ok {
		return err
	}
	res := h.ed.Evaluate(req.Source)
	if len(res.Errors) > 0 {
		return c.Status(http.StatusUnprocessableEntity).JSON(res)
	}
	return c.JSON(res)
}

// LoadScene replaces the scene with the posted elements.
func (h *Handler) LoadScene(c fiber.Ctx) error {
	var elems []element.Element
	if ok, err := decode(c, &elems); !ok {
		return err
	}
	if errs := store.Validate(store.State{Elements: elems}); store.HasErrors(errs) {
		msgs := make([]string, 0, len(errs))
		for _, e := range errs {
			msgs = append(msgs, e.Error())
		}
		return c.Status(http.StatusUnprocessableEntity).JSON(fiber.Map{"error": "invalid scene", "details": msgs})
	}
	h.ed.Load(elems)
	return c.JSON(h.ed.State())
}

// State returns the store snapshot.
func (h *Handler) State(c fiber.Ctx) error {
	return c.JSON(h.ed.State())
}

// Meshes tessellates the current scene.
func (h *Handler) Meshes(c fiber.Ctx) error {
	meshes, err := h.ed.Meshes()
	if err != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(meshes)
}

type validationEntry struct {
	ElementID element.ID `json:"elementId,omitempty"`
	Severity  string     `json:"severity"`
	Message   string     `json:"message"`
}

// Validation lists structural findings for the current scene.
func (h *Handler) Validation(c fiber.Ctx) error {
	out := []validationEntry{}
	for _, v := range h.ed.Validate() {
		out = append(out, validationEntry{ElementID: v.ElementID, Severity: v.Severity.String(), Message: v.Message})
	}
	return c.JSON(out)
}

// ============================================================
// Element Handlers
// ============================================================

// Elements lists every element.
func (h *Handler) Elements(c fiber.Ctx) error {
	return c.JSON(h.ed.Elements())
}

// Element returns one element.
func (h *Handler) Element(c fiber.Ctx) error {
	e, err := h.ed.Element(element.ID(c.Params("id")))
	if err != nil {
		return editError(c, err)
	}
	return c.JSON(e)
}

type valueRequest struct {
	Value *float64 `json:"value"`
}

func (h *Handler) value(c fiber.Ctx) (float64, bool, error) {
	var req valueRequest
	if ok, err := decode(c, &req); !ok {
		return 0, false, err
	}
	if req.Value == nil {
		return 0, false, c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "value required"})
	}
	return *req.Value, true, nil
}

// SetField writes one numeric field of one element.
func (h *Handler) SetField(c fiber.Ctx) error {
	v, ok, err := h.value(c)
	if !ok {
		return err
	}
	if err := h.ed.SetField(element.ID(c.Params("id")), c.Params("field"), v); err != nil {
		return editError(c, err)
	}
	return c.JSON(h.ed.History())
}

// ApplyToRoofsAbove writes a roof field on every roof above a foundation.
func (h *Handler) ApplyToRoofsAbove(c fiber.Ctx) error {
	v, ok, err := h.value(c)
	if !ok {
		return err
	}
	if err := h.ed.ApplyToRoofsAbove(element.ID(c.Params("id")), c.Params("field"), v); err != nil {
		return editError(c, err)
	}
	return c.JSON(h.ed.History())
}

type selectRequest struct {
	IDs []element.ID `json:"ids"`
}

// Select replaces the selection.
func (h *Handler) Select(c fiber.Ctx) error {
	var req selectRequest
	if ok, err := decode(c, &req); !ok {
		return err
	}
	if err := h.ed.Select(req.IDs...); err != nil {
		return editError(c, err)
	}
	return c.JSON(h.ed.State())
}

// SetCamera replaces the pick camera.
func (h *Handler) SetCamera(c fiber.Ctx) error {
	var cam scene.PerspectiveCamera
	if ok, err := decode(c, &cam); !ok {
		return err
	}
	h.ed.SetCamera(cam)
	return c.JSON(cam)
}

// Camera returns the pick camera.
func (h *Handler) Camera(c fiber.Ctx) error {
	return c.JSON(h.ed.Camera())
}

// ============================================================
// Gesture Handlers
// ============================================================

type pointerDownRequest struct {
	ID        element.ID `json:"id"`
	Operation string     `json:"operation"`
	Handle    string     `json:"handle"`
	X         float64    `json:"x"`
	Y         float64    `json:"y"`
}

// PointerDown starts a gesture.
func (h *Handler) PointerDown(c fiber.Ctx) error {
	var req pointerDownRequest
	if ok, err := decode(c, &req); !ok {
		return err
	}
	op, err := manip.ParseOperation(req.Operation)
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if req.Handle == "" {
		req.Handle = manip.Center.String()
	}
	hd, err := manip.ParseHandle(req.Handle)
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	started := h.ed.PointerDown(req.ID, op, hd, manip.Pointer{X: req.X, Y: req.Y})
	if !started {
		return c.Status(http.StatusConflict).JSON(fiber.Map{"started": false})
	}
	return c.JSON(fiber.Map{"started": true})
}

// PointerMove advances the active gesture.
func (h *Handler) PointerMove(c fiber.Ctx) error {
	var p manip.Pointer
	if ok, err := decode(c, &p); !ok {
		return err
	}
	return c.JSON(fiber.Map{"applied": h.ed.PointerMove(p)})
}

// PointerUp ends the active gesture.
func (h *Handler) PointerUp(c fiber.Ctx) error {
	return c.JSON(h.ed.PointerUp())
}

// Cancel abandons the active gesture.
func (h *Handler) Cancel(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"cancelled": h.ed.CancelGesture()})
}

// ============================================================
// History Handlers
// ============================================================

// History reports the undo log state.
func (h *Handler) History(c fiber.Ctx) error {
	return c.JSON(h.ed.History())
}

// Undo reverts the latest command.
func (h *Handler) Undo(c fiber.Ctx) error {
	name, ok := h.ed.Undo()
	return c.JSON(fiber.Map{"name": name, "done": ok})
}

// Redo reapplies the latest undone command.
func (h *Handler) Redo(c fiber.Ctx) error {
	name, ok := h.ed.Redo()
	return c.JSON(fiber.Map{"name": name, "done": ok})
}
