package engine

import (
	"fmt"
	"math"
	"strings"

	v3 "github.com/deadsy/sdfx/vec/v3"
	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/solarform/pkg/element"
	"github.com/chazu/solarform/pkg/geom"
	"github.com/chazu/solarform/pkg/pvmodel"
	"github.com/chazu/solarform/pkg/scene"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource transforms scene script source code before passing it to
// zygomys. It performs two transformations:
//
//  1. Keyword conversion: :keyword -> "__kw_keyword" (string literal)
//     This avoids the need to register keyword symbols as globals, which
//     would conflict with user-defined variables of the same name.
//
//  2. Kebab-case to underscore: solar-panel -> solar_panel
//     zygomys does not allow hyphens in identifiers (it interprets them
//     as the subtraction operator). This converts kebab-case identifiers
//     to underscore form outside of strings and comments.
//
// Both transformations respect string literal boundaries and line comments.
func preprocessSource(source string) string {
	result := make([]byte, 0, len(source)+len(source)/4)
	b := []byte(source)
	i := 0
	for i < len(b) {
		// Skip double-quoted string literals.
		if b[i] == '"' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '"' {
				if b[i] == '\\' && i+1 < len(b) {
					result = append(result, b[i], b[i+1])
					i += 2
					continue
				}
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Skip backtick-quoted string literals.
		if b[i] == '`' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '`' {
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Convert ; line comments to // comments for zygomys.
		// zygomys uses // for line comments, not the traditional Lisp ;.
		if b[i] == ';' {
			result = append(result, '/', '/')
			i++
			// Skip additional ; characters (;; style).
			for i < len(b) && b[i] == ';' {
				i++
			}
			for i < len(b) && b[i] != '\n' {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Transform :keyword to "__kw_keyword".
		if b[i] == ':' && i+1 < len(b) {
			// Preserve := (assignment operator).
			if b[i+1] == '=' {
				result = append(result, b[i], b[i+1])
				i += 2
				continue
			}
			// Check for keyword: colon followed by a letter.
			if isLetter(b[i+1]) {
				j := i + 1
				for j < len(b) && isKWChar(b[j]) {
					j++
				}
				kwName := string(b[i+1 : j])
				result = append(result, '"')
				result = append(result, []byte(kwPrefix)...)
				result = append(result, []byte(kwName)...)
				result = append(result, '"')
				i = j
				continue
			}
		}
		// Transform kebab-case identifiers: alpha-alpha -> alpha_alpha.
		// Only when hyphen sits between identifier characters (not a minus operator).
		if b[i] == '-' && i > 0 && i+1 < len(b) &&
			isIdentChar(b[i-1]) && isIdentStartChar(b[i+1]) {
			result = append(result, '_')
			i++
			continue
		}
		result = append(result, b[i])
		i++
	}
	return string(result)
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

func isIdentStartChar(c byte) bool {
	return isLetter(c)
}

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpElementRef wraps an element ID so it can be passed between builtins,
// for example as the :on argument of a child element.
type sexpElementRef struct {
	id   element.ID
	kind element.Kind
}

func (r *sexpElementRef) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(%s %s)", strings.ToLower(strings.ReplaceAll(r.kind.String(), " ", "-")), r.id.Short())
}
func (r *sexpElementRef) Type() *zygo.RegisteredType { return nil }

// sexpVec3 wraps a vector.
type sexpVec3 struct {
	vec v3.Vec
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %.2f %.2f %.2f)", v.vec.X, v.vec.Y, v.vec.Z)
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW checks if a Sexp is a preprocessed keyword string.
// Returns the keyword name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	fn         string
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
// Keywords are identified by the __kw_ prefix added during preprocessing.
// A trailing keyword with no value is a flag.
func parseArgs(fn string, args []zygo.Sexp) kwArgs {
	result := kwArgs{fn: fn, kw: make(map[string]zygo.Sexp)}
	i := 0
	for i < len(args) {
		name, ok := isKW(args[i])
		if !ok {
			result.positional = append(result.positional, args[i])
			i++
			continue
		}
		if i+1 < len(args) {
			if _, next := isKW(args[i+1]); !next || isValueKeyword(name) {
				result.kw[name] = args[i+1]
				i += 2
				continue
			}
		}
		result.kw[name] = zygo.SexpNull
		i++
	}
	return result
}

// isValueKeyword reports whether the keyword takes another keyword as its
// value, as in :type :shed.
func isValueKeyword(name string) bool {
	switch name {
	case "type", "orientation", "tracker":
		return true
	}
	return false
}

// has reports whether keyword name was given.
func (a kwArgs) has(name string) bool {
	_, ok := a.kw[name]
	return ok
}

// float reads an optional numeric keyword into dst.
func (a kwArgs) float(name string, dst *float64) error {
	v, ok := a.kw[name]
	if !ok {
		return nil
	}
	f, err := toFloat64(v)
	if err != nil {
		return fmt.Errorf("%s: %s: %w", a.fn, name, err)
	}
	*dst = f
	return nil
}

// vec reads an optional vec3 keyword into dst.
func (a kwArgs) vec(name string, dst *v3.Vec) error {
	v, ok := a.kw[name]
	if !ok {
		return nil
	}
	vec, err := toVec3(v)
	if err != nil {
		return fmt.Errorf("%s: %s: %w", a.fn, name, err)
	}
	*dst = vec
	return nil
}

// str reads an optional string or keyword argument into dst.
func (a kwArgs) str(name string, dst *string) error {
	v, ok := a.kw[name]
	if !ok {
		return nil
	}
	s, err := toKeywordString(v)
	if err != nil {
		return fmt.Errorf("%s: %s: %w", a.fn, name, err)
	}
	*dst = s
	return nil
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toKeywordString extracts a keyword name or plain string from a Sexp.
// Handles both preprocessed keywords (__kw_z) and plain strings ("z").
func toKeywordString(s zygo.Sexp) (string, error) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", fmt.Errorf("expected keyword or string, got %T (%s)", s, s.SexpString(nil))
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], nil
	}
	return str.S, nil
}

// toVec3 extracts a vector from a sexpVec3.
func toVec3(s zygo.Sexp) (v3.Vec, error) {
	if v, ok := s.(*sexpVec3); ok {
		return v.vec, nil
	}
	return v3.Vec{}, fmt.Errorf("expected vec3, got %T (%s)", s, s.SexpString(nil))
}

// toElementRef extracts an element reference.
func toElementRef(s zygo.Sexp) (*sexpElementRef, error) {
	if r, ok := s.(*sexpElementRef); ok {
		return r, nil
	}
	return nil, fmt.Errorf("expected element reference, got %T (%s)", s, s.SexpString(nil))
}

// ---------------------------------------------------------------------------
// Scene builder
// ---------------------------------------------------------------------------

// builder collects the elements a script creates, in creation order.
type builder struct {
	elems []element.Element
	index map[element.ID]int
}

func newBuilder() *builder {
	return &builder{index: make(map[element.ID]int)}
}

// Elements returns the collected elements.
func (b *builder) Elements() []element.Element {
	out := make([]element.Element, len(b.elems))
	copy(out, b.elems)
	return out
}

func (b *builder) get(id element.ID) *element.Element {
	i, ok := b.index[id]
	if !ok {
		return nil
	}
	return &b.elems[i]
}

// add stores e under its id, or a fresh one, and returns a reference.
func (b *builder) add(e element.Element) (*sexpElementRef, error) {
	if e.ID.IsZero() {
		e.ID = element.NewID()
	}
	if _, dup := b.index[e.ID]; dup {
		return nil, fmt.Errorf("duplicate element id %q", e.ID)
	}
	b.index[e.ID] = len(b.elems)
	b.elems = append(b.elems, e)
	return &sexpElementRef{id: e.ID, kind: e.Kind}, nil
}

// parent resolves the :on argument and checks its kind against the
// allowed parents of k. Without :on the element stands on the ground,
// which must be allowed for k.
func (b *builder) parent(a kwArgs, k element.Kind) (*element.Element, error) {
	v, ok := a.kw["on"]
	if !ok {
		if element.AllowsGround(k) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: :on is required", a.fn)
	}
	ref, err := toElementRef(v)
	if err != nil {
		return nil, fmt.Errorf("%s: on: %w", a.fn, err)
	}
	p := b.get(ref.id)
	if p == nil {
		return nil, fmt.Errorf("%s: on: unknown element %s", a.fn, ref.id.Short())
	}
	for _, allowed := range element.AllowedParents(k) {
		if p.Kind == allowed {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%s: cannot be placed on a %s", a.fn, p.Kind)
}

// base returns an element of kind k with id, label and parent filled in.
func (b *builder) base(a kwArgs, k element.Kind) (element.Element, *element.Element, error) {
	e := element.Element{Kind: k, ParentID: element.GroundID, Data: element.DefaultData(k)}
	var id string
	if err := a.str("id", &id); err != nil {
		return e, nil, err
	}
	e.ID = element.ID(id)
	if err := a.str("label", &e.Label); err != nil {
		return e, nil, err
	}
	if a.has("locked") {
		e.Locked = true
	}
	p, err := b.parent(a, k)
	if err != nil {
		return e, nil, err
	}
	if p != nil {
		e.ParentID = p.ID
		e.FoundationID = p.ID
		if p.Kind != element.KindFoundation && !p.FoundationID.IsZero() {
			e.FoundationID = p.FoundationID
		}
	}
	return e, p, nil
}

// wallsOf returns the walls standing on foundation id.
func (b *builder) wallsOf(id element.ID) []element.Element {
	var walls []element.Element
	for _, e := range b.elems {
		if e.Kind == element.KindWall && e.ParentID == id {
			walls = append(walls, e)
		}
	}
	return walls
}

// roofMeta rebuilds the surface of a roof from the current walls.
func (b *builder) roofMeta(roof element.Element) *scene.RoofMeta {
	var f element.Element
	if p := b.get(roof.ParentID); p != nil {
		f = *p
	}
	var walls []element.Element
	for _, w := range b.wallsOf(roof.ParentID) {
		if wd, _ := w.Wall(); wd.RoofID.IsZero() || wd.RoofID == roof.ID {
			walls = append(walls, w)
		}
	}
	return scene.BuildRoofMeta(roof, f, walls)
}

// ---------------------------------------------------------------------------
// Enumerations
// ---------------------------------------------------------------------------

func toRoofType(s string) (element.RoofType, error) {
	for t := element.RoofPyramid; t <= element.RoofShed; t++ {
		if strings.EqualFold(t.String(), s) {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown roof type %q", s)
}

func toOrientation(s string) (element.Orientation, error) {
	switch s {
	case "portrait":
		return element.Portrait, nil
	case "landscape":
		return element.Landscape, nil
	}
	return 0, fmt.Errorf("unknown orientation %q, expected portrait or landscape", s)
}

func toTracker(s string) (element.TrackerType, error) {
	switch s {
	case "none":
		return element.NoTracker, nil
	case "altazimuth", "dual":
		return element.AltazimuthDualAxis, nil
	case "horizontal":
		return element.HorizontalSingleAxis, nil
	case "vertical":
		return element.VerticalSingleAxis, nil
	case "tilted":
		return element.TiltedSingleAxis, nil
	}
	return 0, fmt.Errorf("unknown tracker %q", s)
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// Lengths are meters and angles radians throughout the scene language.
const (
	defaultSlab       = 0.2
	defaultWallHeight = 3.0
	defaultWallDepth  = 0.2
)

// registerBuiltins installs all scene builtins into a zygomys environment.
// The builtins append to b during evaluation.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, b *builder) {

	// -----------------------------------------------------------------------
	// (vec3 1 2 3)
	// -----------------------------------------------------------------------
	env.AddFunction("vec3", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("vec3 requires exactly 3 arguments, got %d", len(args))
		}

		x, err := toFloat64(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vec3: x: %w", err)
		}
		y, err := toFloat64(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vec3: y: %w", err)
		}
		z, err := toFloat64(args[2])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vec3: z: %w", err)
		}

		return &sexpVec3{vec: v3.Vec{X: x, Y: y, Z: z}}, nil
	})

	// -----------------------------------------------------------------------
	// (foundation :id "f1" :at (vec3 0 0 0) :size (vec3 10 8 0.2) :rotation 0)
	// -----------------------------------------------------------------------
	env.AddFunction("foundation", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		return box(b, parseArgs("foundation", args), element.KindFoundation, v3.Vec{X: 10, Y: 10, Z: defaultSlab})
	})

	// -----------------------------------------------------------------------
	// (cuboid :at (vec3 0 0 0) :size (vec3 2 2 2) :rotation 0)
	// -----------------------------------------------------------------------
	env.AddFunction("cuboid", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		return box(b, parseArgs("cuboid", args), element.KindCuboid, v3.Vec{X: 2, Y: 2, Z: 2})
	})

	// -----------------------------------------------------------------------
	// (battery-storage :on f :at (vec3 2 0 0) :size (vec3 1 1 1.5)
	//                  :charging 0.95 :discharging 0.95)
	// -----------------------------------------------------------------------
	env.AddFunction("battery_storage", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs("battery-storage", args)
		e, p, err := b.base(pa, element.KindBatteryStorage)
		if err != nil {
			return zygo.SexpNull, err
		}
		at, size := v3.Vec{}, v3.Vec{X: 1, Y: 1, Z: 1.5}
		d := element.BatteryStorageData{ChargingEfficiency: 0.95, DischargingEfficiency: 0.95}
		var rot float64
		for _, err := range []error{
			pa.vec("at", &at), pa.vec("size", &size), pa.float("rotation", &rot),
			pa.float("charging", &d.ChargingEfficiency), pa.float("discharging", &d.DischargingEfficiency),
		} {
			if err != nil {
				return zygo.SexpNull, err
			}
		}
		e.CX, e.CY, e.CZ = at.X, at.Y, p.LZ/2+size.Z/2
		e.LX, e.LY, e.LZ = size.X, size.Y, size.Z
		e.Rotation = [3]float64{0, 0, rot}
		e.Data = d
		return b.add(e)
	})

	// -----------------------------------------------------------------------
	// (wall :on f :from (vec3 -5 -4 0) :to (vec3 5 -4 0) :height 3 :thickness 0.2)
	// -----------------------------------------------------------------------
	env.AddFunction("wall", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs("wall", args)
		e, p, err := b.base(pa, element.KindWall)
		if err != nil {
			return zygo.SexpNull, err
		}
		var from, to v3.Vec
		height, depth := defaultWallHeight, defaultWallDepth
		for _, err := range []error{
			pa.vec("from", &from), pa.vec("to", &to), pa.float("height", &height), pa.float("thickness", &depth),
		} {
			if err != nil {
				return zygo.SexpNull, err
			}
		}
		span := v3.Vec{X: to.X - from.X, Y: to.Y - from.Y}
		if span.Length() < 1e-9 {
			return zygo.SexpNull, fmt.Errorf("wall: :from and :to must differ")
		}
		e.CX, e.CY, e.CZ = (from.X+to.X)/2, (from.Y+to.Y)/2, p.LZ/2+height/2
		e.LX, e.LY, e.LZ = span.Length(), depth, height
		e.Rotation = [3]float64{0, 0, math.Atan2(span.Y, span.X)}
		e.Data = element.WallData{
			LeftPoint:  [3]float64{from.X, from.Y, 0},
			RightPoint: [3]float64{to.X, to.Y, 0},
		}
		return b.add(e)
	})

	// -----------------------------------------------------------------------
	// (roof :on f :type :pyramid :rise 2 :thickness 0.2 :r-value 3)
	// -----------------------------------------------------------------------
	env.AddFunction("roof", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs("roof", args)
		e, p, err := b.base(pa, element.KindRoof)
		if err != nil {
			return zygo.SexpNull, err
		}
		d := element.RoofData{Rise: 1, Thickness: defaultSlab, RValue: 2}
		kind := "pyramid"
		for _, err := range []error{
			pa.str("type", &kind), pa.float("rise", &d.Rise), pa.float("thickness", &d.Thickness),
			pa.float("r-value", &d.RValue), pa.float("rafter-spacing", &d.RafterSpacing), pa.float("rafter-width", &d.RafterWidth),
		} {
			if err != nil {
				return zygo.SexpNull, err
			}
		}
		if d.Type, err = toRoofType(kind); err != nil {
			return zygo.SexpNull, fmt.Errorf("roof: type: %w", err)
		}
		if d.Rise < 0 {
			return zygo.SexpNull, fmt.Errorf("roof: rise must not be negative")
		}
		e.LX, e.LY, e.LZ = p.LX, p.LY, d.Thickness
		e.Data = d
		ref, err := b.add(e)
		if err != nil {
			return zygo.SexpNull, err
		}
		for _, w := range b.wallsOf(p.ID) {
			wall := b.get(w.ID)
			if wd, _ := wall.Wall(); wd.RoofID.IsZero() {
				wd.RoofID = ref.id
				wall.Data = wd
			}
		}
		return ref, nil
	})

	// -----------------------------------------------------------------------
	// (window :on w :at (vec3 0 0 0.1) :size (vec3 1.2 0.1 1))
	// (door :on w :at (vec3 -0.3 0 -0.15) :size (vec3 1 0.1 2.1))
	// -----------------------------------------------------------------------
	opening := func(fn string, k element.Kind, size v3.Vec) func(*zygo.Zlisp, string, []zygo.Sexp) (zygo.Sexp, error) {
		return func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			pa := parseArgs(fn, args)
			e, _, err := b.base(pa, k)
			if err != nil {
				return zygo.SexpNull, err
			}
			var at v3.Vec
			if err := pa.vec("at", &at); err != nil {
				return zygo.SexpNull, err
			}
			if err := pa.vec("size", &size); err != nil {
				return zygo.SexpNull, err
			}
			if math.Abs(at.X) > 0.5 || math.Abs(at.Z) > 0.5 {
				return zygo.SexpNull, fmt.Errorf("%s: :at x and z are fractions of the wall within [-0.5, 0.5]", fn)
			}
			e.CX, e.CZ = at.X, at.Z
			e.LX, e.LY, e.LZ = size.X, size.Y, size.Z
			return b.add(e)
		}
	}
	env.AddFunction("window", opening("window", element.KindWindow, v3.Vec{X: 1.2, Y: 0.1, Z: 1}))
	env.AddFunction("door", opening("door", element.KindDoor, v3.Vec{X: 1, Y: 0.1, Z: 2.1}))

	// -----------------------------------------------------------------------
	// (solar-panel :on r :at (vec3 1 0 0) :model "SPR-X21-335" :columns 4 :rows 2
	//              :orientation :landscape :tilt 0.3 :azimuth 0 :pole 0.5 :tracker :none)
	// -----------------------------------------------------------------------
	env.AddFunction("solar_panel", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs("solar-panel", args)
		e, p, err := b.base(pa, element.KindSolarPanel)
		if err != nil {
			return zygo.SexpNull, err
		}
		d := element.SolarPanelData{ModelName: pvmodel.DefaultName}
		var at v3.Vec
		cols, rows := 1.0, 1.0
		orientation, tracker := "portrait", "none"
		for _, err := range []error{
			pa.vec("at", &at), pa.str("model", &d.ModelName), pa.float("columns", &cols), pa.float("rows", &rows),
			pa.str("orientation", &orientation), pa.str("tracker", &tracker),
			pa.float("tilt", &d.TiltAngle), pa.float("azimuth", &d.RelativeAzimuth),
			pa.float("pole", &d.PoleHeight), pa.float("pole-spacing", &d.PoleSpacing),
		} {
			if err != nil {
				return zygo.SexpNull, err
			}
		}
		if _, ok := pvmodel.Lookup(d.ModelName); !ok {
			return zygo.SexpNull, fmt.Errorf("solar-panel: unknown model %q", d.ModelName)
		}
		if d.Orientation, err = toOrientation(orientation); err != nil {
			return zygo.SexpNull, fmt.Errorf("solar-panel: %w", err)
		}
		if d.TrackerType, err = toTracker(tracker); err != nil {
			return zygo.SexpNull, fmt.Errorf("solar-panel: %w", err)
		}
		if cols < 1 || rows < 1 {
			return zygo.SexpNull, fmt.Errorf("solar-panel: columns and rows must be at least 1")
		}
		model := pvmodel.Resolve(d.ModelName)
		sx, sy := model.Steps(d.Orientation)
		e.LX, e.LY, e.LZ = math.Round(cols)*sx, math.Round(rows)*sy, model.Thickness

		normal := scene.DefaultNormal
		switch p.Kind {
		case element.KindFoundation, element.KindCuboid:
			e.CX, e.CY, e.CZ = at.X, at.Y, p.LZ/2
		case element.KindWall:
			if math.Abs(at.X) > 0.5 || math.Abs(at.Z) > 0.5 {
				return zygo.SexpNull, fmt.Errorf("solar-panel: on a wall, :at x and z are fractions within [-0.5, 0.5]")
			}
			normal = scene.WallOuterNormal
			e.CX, e.CZ = at.X, at.Z
			d.RelativeAzimuth = 0
			d.TiltAngle = geom.Clamp(d.TiltAngle, -math.Pi/2, 0)
		case element.KindRoof:
			meta := b.roofMeta(*p)
			i := meta.SegmentAt(at.X, at.Y)
			if i < 0 {
				return zygo.SexpNull, fmt.Errorf("solar-panel: (%.2f, %.2f) is not over the roof", at.X, at.Y)
			}
			seg := meta.Segments[i]
			normal = seg.Normal
			e.CX, e.CY, e.CZ = at.X, at.Y, seg.HeightAt(at.X, at.Y)
		}
		e.Normal = geom.Array(normal)
		e.Rotation = geom.Array(geom.RotationFromNormal(normal))
		e.Data = d
		return b.add(e)
	})

	// -----------------------------------------------------------------------
	// (ruler :from (vec3 0 0 0) :to (vec3 4 0 0))
	// (ruler :on f :from (vec3 0 0 0.1) :to (vec3 0 0 3.1) :vertical)
	// -----------------------------------------------------------------------
	env.AddFunction("ruler", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs("ruler", args)
		e, _, err := b.base(pa, element.KindRuler)
		if err != nil {
			return zygo.SexpNull, err
		}
		var from, to v3.Vec
		if err := pa.vec("from", &from); err != nil {
			return zygo.SexpNull, err
		}
		if err := pa.vec("to", &to); err != nil {
			return zygo.SexpNull, err
		}
		d := element.RulerData{LeftEndPoint: geom.Array(from), RightEndPoint: geom.Array(to)}
		if pa.has("vertical") {
			d.Type = element.RulerVertical
		}
		mid := from.Add(to).MulScalar(0.5)
		e.CX, e.CY, e.CZ = mid.X, mid.Y, mid.Z
		e.LX, e.LY, e.LZ = geom.Distance(from, to), 0.1, 0.05
		e.Data = d
		return b.add(e)
	})

	// -----------------------------------------------------------------------
	// (protractor :at (vec3 0 0 0) :arm 2 :tick 0.1 :rotation 0)
	// -----------------------------------------------------------------------
	env.AddFunction("protractor", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs("protractor", args)
		e, p, err := b.base(pa, element.KindProtractor)
		if err != nil {
			return zygo.SexpNull, err
		}
		var at v3.Vec
		arm, rot := 2.0, 0.0
		d := element.ProtractorData{TickMarkLength: 0.1}
		for _, err := range []error{
			pa.vec("at", &at), pa.float("arm", &arm), pa.float("tick", &d.TickMarkLength), pa.float("rotation", &rot),
		} {
			if err != nil {
				return zygo.SexpNull, err
			}
		}
		e.LX, e.LY, e.LZ = arm, 0.05, 0.05
		e.CX, e.CY, e.CZ = at.X, at.Y, e.LZ/2
		if p != nil {
			e.CZ += p.LZ / 2
		}
		e.Rotation = [3]float64{0, 0, rot}
		e.Data = d
		return b.add(e)
	})
}

// box builds a foundation or cuboid standing on the ground.
func box(b *builder, pa kwArgs, k element.Kind, size v3.Vec) (zygo.Sexp, error) {
	e, _, err := b.base(pa, k)
	if err != nil {
		return zygo.SexpNull, err
	}
	var at v3.Vec
	var rot float64
	for _, err := range []error{pa.vec("at", &at), pa.vec("size", &size), pa.float("rotation", &rot)} {
		if err != nil {
			return zygo.SexpNull, err
		}
	}
	if size.X <= 0 || size.Y <= 0 || size.Z <= 0 {
		return zygo.SexpNull, fmt.Errorf("%s: :size must be positive", pa.fn)
	}
	e.CX, e.CY, e.CZ = at.X, at.Y, at.Z+size.Z/2
	e.LX, e.LY, e.LZ = size.X, size.Y, size.Z
	e.Rotation = [3]float64{0, 0, rot}
	return b.add(e)
}
