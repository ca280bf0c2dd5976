package element

// Data is the kind-specific payload of an element. Implementations are plain
// values without slices or maps, so copying an Element copies its payload.
type Data interface {
	elementData() // restricts implementations to this package
}

// ---------------------------------------------------------------------------
// Structure
// ---------------------------------------------------------------------------

// FoundationData carries nothing beyond the common fields today.
type FoundationData struct{}

func (FoundationData) elementData() {}

// CuboidData carries nothing beyond the common fields today.
type CuboidData struct{}

func (CuboidData) elementData() {}

// WallData describes a wall segment on a foundation. LeftPoint and
// RightPoint are the wall's base endpoints in the foundation frame.
type WallData struct {
	LeftPoint  [3]float64 `json:"leftPoint"`
	RightPoint [3]float64 `json:"rightPoint"`
	RoofID     ID         `json:"roofId,omitempty"`
}

func (WallData) elementData() {}

// RoofType selects the roof geometry.
type RoofType int

const (
	RoofPyramid RoofType = iota
	RoofHip
	RoofGable
	RoofGambrel
	RoofMansard
	RoofShed
)

func (t RoofType) String() string {
	switch t {
	case RoofPyramid:
		return "pyramid"
	case RoofHip:
		return "hip"
	case RoofGable:
		return "gable"
	case RoofGambrel:
		return "gambrel"
	case RoofMansard:
		return "mansard"
	case RoofShed:
		return "shed"
	default:
		return "unknown"
	}
}

// RoofStructure selects how the roof is framed.
type RoofStructure int

const (
	RoofStructureDefault RoofStructure = iota
	RoofStructureRafter
	RoofStructureGlass
)

// RoofData describes a roof resting on the walls that reference it.
type RoofData struct {
	Type          RoofType      `json:"roofType"`
	Rise          float64       `json:"rise"`
	Thickness     float64       `json:"thickness"`
	RValue        float64       `json:"rValue"`
	Structure     RoofStructure `json:"roofStructure"`
	RafterSpacing float64       `json:"rafterSpacing"`
	RafterWidth   float64       `json:"rafterWidth"`
}

func (RoofData) elementData() {}

// WindowData carries nothing beyond the common fields today.
type WindowData struct{}

func (WindowData) elementData() {}

// DoorData carries nothing beyond the common fields today.
type DoorData struct{}

func (DoorData) elementData() {}

// ---------------------------------------------------------------------------
// Energy devices
// ---------------------------------------------------------------------------

// Orientation is how PV modules are laid out in a panel rack.
type Orientation int

const (
	Portrait Orientation = iota
	Landscape
)

func (o Orientation) String() string {
	if o == Landscape {
		return "landscape"
	}
	return "portrait"
}

// TrackerType selects the sun tracker driving a panel. Any tracker other
// than NoTracker overrides the manual tilt and azimuth.
type TrackerType int

const (
	NoTracker TrackerType = iota
	AltazimuthDualAxis
	HorizontalSingleAxis
	VerticalSingleAxis
	TiltedSingleAxis
)

func (t TrackerType) String() string {
	switch t {
	case NoTracker:
		return "none"
	case AltazimuthDualAxis:
		return "altazimuth"
	case HorizontalSingleAxis:
		return "horizontal-single-axis"
	case VerticalSingleAxis:
		return "vertical-single-axis"
	case TiltedSingleAxis:
		return "tilted-single-axis"
	default:
		return "unknown"
	}
}

// SolarPanelData describes a rack of PV modules. LX and LY of the element
// are whole multiples of the module footprint for the orientation.
type SolarPanelData struct {
	ModelName       string      `json:"pvModelName"`
	Orientation     Orientation `json:"orientation"`
	TiltAngle       float64     `json:"tiltAngle"`
	RelativeAzimuth float64     `json:"relativeAzimuth"`
	TrackerType     TrackerType `json:"trackerType"`
	PoleHeight      float64     `json:"poleHeight"`
	PoleSpacing     float64     `json:"poleSpacing"`
}

func (SolarPanelData) elementData() {}

// BatteryStorageData describes a battery cabinet.
type BatteryStorageData struct {
	ChargingEfficiency    float64 `json:"chargingEfficiency"`
	DischargingEfficiency float64 `json:"dischargingEfficiency"`
}

func (BatteryStorageData) elementData() {}

// ---------------------------------------------------------------------------
// Measurement
// ---------------------------------------------------------------------------

// RulerType distinguishes ground rulers from vertical ones.
type RulerType int

const (
	RulerHorizontal RulerType = iota
	RulerVertical
)

// RulerData holds the ruler endpoints in the parent frame. For a vertical
// ruler the right endpoint sits directly above the left one.
type RulerData struct {
	Type          RulerType  `json:"rulerType"`
	LeftEndPoint  [3]float64 `json:"leftEndPoint"`
	RightEndPoint [3]float64 `json:"rightEndPoint"`
}

func (RulerData) elementData() {}

// ProtractorData describes an angle gauge. LX of the element is the arm
// length; rotation[0] is its tilt and rotation[2] its azimuth.
type ProtractorData struct {
	TickMarkLength float64 `json:"tickMarkLength"`
}

func (ProtractorData) elementData() {}
