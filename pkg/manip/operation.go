package manip

import "fmt"

// Operation is the state of a gesture. None is both the initial and the
// terminal state.
type Operation int

const (
	None Operation = iota
	Move
	ResizeX
	ResizeY
	ResizeXY
	ResizeZ
	RotateUpper
	RotateLower
	Tilt
)

func (o Operation) String() string {
	switch o {
	case None:
		return "none"
	case Move:
		return "move"
	case ResizeX:
		return "resize-x"
	case ResizeY:
		return "resize-y"
	case ResizeXY:
		return "resize-xy"
	case ResizeZ:
		return "resize-z"
	case RotateUpper:
		return "rotate-upper"
	case RotateLower:
		return "rotate-lower"
	case Tilt:
		return "tilt"
	default:
		return fmt.Sprintf("Operation(%d)", int(o))
	}
}

// ParseOperation is the inverse of String.
func ParseOperation(s string) (Operation, error) {
	for o := None; o <= Tilt; o++ {
		if o.String() == s {
			return o, nil
		}
	}
	return None, fmt.Errorf("unknown operation %q", s)
}

// verb names the operation in undo history.
func (o Operation) verb() string {
	switch o {
	case Move:
		return "Move"
	case ResizeX, ResizeY, ResizeXY, ResizeZ:
		return "Resize"
	case RotateUpper, RotateLower:
		return "Rotate"
	case Tilt:
		return "Tilt"
	default:
		return "Edit"
	}
}

// Handle is the grip the pointer went down on.
type Handle int

const (
	Center Handle = iota
	Left
	Right
	Upper
	Lower
	LowerLeft
	LowerRight
	UpperLeft
	UpperRight
	Top
)

var handleNames = [...]string{"center", "left", "right", "upper", "lower", "lower-left", "lower-right", "upper-left", "upper-right", "top"}

func (h Handle) String() string {
	if h >= 0 && int(h) < len(handleNames) {
		return handleNames[h]
	}
	return fmt.Sprintf("Handle(%d)", int(h))
}

// ParseHandle is the inverse of String.
func ParseHandle(s string) (Handle, error) {
	for i, n := range handleNames {
		if n == s {
			return Handle(i), nil
		}
	}
	return Center, fmt.Errorf("unknown handle %q", s)
}

// signs returns the direction of the handle along the element's local X
// and Y axes. Zero means the handle does not sit on that side.
func (h Handle) signs() (sx, sy float64) {
	switch h {
	case Left:
		return -1, 0
	case Right:
		return 1, 0
	case Lower:
		return 0, -1
	case Upper:
		return 0, 1
	case LowerLeft:
		return -1, -1
	case LowerRight:
		return 1, -1
	case UpperLeft:
		return -1, 1
	case UpperRight:
		return 1, 1
	default:
		return 0, 0
	}
}

// Pointer is a pointer position in normalized device coordinates.
type Pointer struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}
