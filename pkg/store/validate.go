package store

import (
	"fmt"
	"math"

	"github.com/chazu/solarform/pkg/element"
	"github.com/chazu/solarform/pkg/pvmodel"
)

// ValidationSeverity indicates whether a finding means the collection is
// structurally broken or merely suspicious.
type ValidationSeverity int

const (
	SeverityError   ValidationSeverity = iota // structural invariant broken
	SeverityWarning                           // informational
)

func (s ValidationSeverity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("ValidationSeverity(%d)", int(s))
	}
}

// ValidationError describes a single validation finding.
type ValidationError struct {
	ElementID element.ID
	Message   string
	Severity  ValidationSeverity
}

func (e ValidationError) Error() string {
	if e.ElementID.IsZero() {
		return fmt.Sprintf("[%s] %s", e.Severity, e.Message)
	}
	return fmt.Sprintf("[%s] element %s: %s", e.Severity, e.ElementID.Short(), e.Message)
}

// MinRulerLength is the shortest ruler the editor can produce.
const MinRulerLength = 0.5

// Validate checks the structural invariants of a snapshot: resolvable and
// acyclic ownership, permitted parent kinds, positive dimensions and a
// single sole selection. It never mutates its input.
func Validate(st State) []ValidationError {
	byID := make(map[element.ID]element.Element, len(st.Elements))
	for _, e := range st.Elements {
		byID[e.ID] = e
	}
	var errs []ValidationError
	errs = append(errs, validateParents(st.Elements, byID)...)
	errs = append(errs, validateOwnershipCycles(st.Elements, byID)...)
	errs = append(errs, validateDimensions(st.Elements)...)
	errs = append(errs, validateSelection(st.Elements)...)
	return errs
}

// HasErrors reports whether any finding has error severity.
func HasErrors(errs []ValidationError) bool {
	for _, e := range errs {
		if e.Severity == SeverityError {
			return true
		}
	}
	return false
}

func validateParents(elems []element.Element, byID map[element.ID]element.Element) []ValidationError {
	var errs []ValidationError
	for _, e := range elems {
		if e.IsRoot() {
			if !element.AllowsGround(e.Kind) {
				errs = append(errs, ValidationError{
					ElementID: e.ID,
					Message:   fmt.Sprintf("%s cannot sit on the ground", e.Kind),
					Severity:  SeverityError,
				})
			}
			continue
		}
		parent, ok := byID[e.ParentID]
		if !ok {
			errs = append(errs, ValidationError{
				ElementID: e.ID,
				Message:   fmt.Sprintf("parent %s does not exist", e.ParentID.Short()),
				Severity:  SeverityError,
			})
			continue
		}
		if !kindIn(parent.Kind, element.AllowedParents(e.Kind)) {
			errs = append(errs, ValidationError{
				ElementID: e.ID,
				Message:   fmt.Sprintf("%s cannot be attached to a %s", e.Kind, parent.Kind),
				Severity:  SeverityError,
			})
		}
		if !e.FoundationID.IsZero() {
			if f, ok := byID[e.FoundationID]; !ok || f.Kind != element.KindFoundation {
				errs = append(errs, ValidationError{
					ElementID: e.ID,
					Message:   fmt.Sprintf("foundation %s does not exist", e.FoundationID.Short()),
					Severity:  SeverityWarning,
				})
			}
		}
	}
	return errs
}

// validateOwnershipCycles walks each parent chain with 3-color marking.
func validateOwnershipCycles(elems []element.Element, byID map[element.ID]element.Element) []ValidationError {
	const (
		white = iota
		gray
		black
	)
	color := make(map[element.ID]int)
	var errs []ValidationError

	var visit func(id element.ID) bool
	visit = func(id element.ID) bool {
		switch color[id] {
		case black:
			return false
		case gray:
			errs = append(errs, ValidationError{
				ElementID: id,
				Message:   fmt.Sprintf("ownership cycle through %s", id.Short()),
				Severity:  SeverityError,
			})
			return true
		}
		color[id] = gray
		e := byID[id]
		if _, ok := byID[e.ParentID]; ok && !e.IsRoot() {
			if visit(e.ParentID) {
				color[id] = black
				return true
			}
		}
		color[id] = black
		return false
	}
	for _, e := range elems {
		visit(e.ID)
	}
	return errs
}

func validateDimensions(elems []element.Element) []ValidationError {
	var errs []ValidationError
	for _, e := range elems {
		for i, l := range e.Size() {
			if l > 0 && !math.IsInf(l, 0) {
				continue
			}
			errs = append(errs, ValidationError{
				ElementID: e.ID,
				Message:   fmt.Sprintf("dimension %s must be positive, got %v", "xyz"[i:i+1], l),
				Severity:  SeverityError,
			})
		}
		switch e.Kind {
		case element.KindRuler:
			if r, ok := e.Ruler(); ok {
				d := distance(r.LeftEndPoint, r.RightEndPoint)
				if d < MinRulerLength {
					errs = append(errs, ValidationError{
						ElementID: e.ID,
						Message:   fmt.Sprintf("ruler length %.3f is below %.1f", d, MinRulerLength),
						Severity:  SeverityWarning,
					})
				}
			}
		case element.KindSolarPanel:
			if p, ok := e.SolarPanel(); ok {
				sx, sy := pvmodel.Resolve(p.ModelName).Steps(p.Orientation)
				if !isMultiple(e.LX, sx) || !isMultiple(e.LY, sy) {
					errs = append(errs, ValidationError{
						ElementID: e.ID,
						Message:   fmt.Sprintf("panel %.3fx%.3f is not a whole number of %.3fx%.3f modules", e.LX, e.LY, sx, sy),
						Severity:  SeverityWarning,
					})
				}
			}
		}
	}
	return errs
}

func validateSelection(elems []element.Element) []ValidationError {
	var selected []element.ID
	for _, e := range elems {
		if e.Selected {
			selected = append(selected, e.ID)
		}
	}
	if len(selected) <= 1 {
		return nil
	}
	return []ValidationError{{
		Message:  fmt.Sprintf("%d elements are marked selected, at most one may be", len(selected)),
		Severity: SeverityWarning,
	}}
}

func kindIn(k element.Kind, kinds []element.Kind) bool {
	for _, c := range kinds {
		if c == k {
			return true
		}
	}
	return false
}

func distance(a, b [3]float64) float64 {
	dx, dy, dz := b[0]-a[0], b[1]-a[1], b[2]-a[2]
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

func isMultiple(l, step float64) bool {
	if step <= 0 {
		return true
	}
	n := math.Round(l / step)
	return n >= 1 && math.Abs(l-n*step) < 1e-6
}
