package element

import (
	"encoding/json"
	"fmt"
)

// elementJSON mirrors Element with the payload left raw so it can be decoded
// once the kind is known.
type elementJSON struct {
	ID           ID              `json:"id"`
	Kind         Kind            `json:"type"`
	Label        string          `json:"label,omitempty"`
	ParentID     ID              `json:"parentId"`
	FoundationID ID              `json:"foundationId,omitempty"`
	CX           float64         `json:"cx"`
	CY           float64         `json:"cy"`
	CZ           float64         `json:"cz"`
	LX           float64         `json:"lx"`
	LY           float64         `json:"ly"`
	LZ           float64         `json:"lz"`
	Rotation     [3]float64      `json:"rotation"`
	Normal       [3]float64      `json:"normal"`
	Locked       bool            `json:"locked"`
	Selected     bool            `json:"selected"`
	Data         json.RawMessage `json:"data,omitempty"`
}

// UnmarshalJSON decodes an element and its kind-specific payload.
func (e *Element) UnmarshalJSON(b []byte) error {
	var raw elementJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*e = Element{
		ID:           raw.ID,
		Kind:         raw.Kind,
		Label:        raw.Label,
		ParentID:     raw.ParentID,
		FoundationID: raw.FoundationID,
		CX:           raw.CX,
		CY:           raw.CY,
		CZ:           raw.CZ,
		LX:           raw.LX,
		LY:           raw.LY,
		LZ:           raw.LZ,
		Rotation:     raw.Rotation,
		Normal:       raw.Normal,
		Locked:       raw.Locked,
		Selected:     raw.Selected,
	}
	data, err := decodeData(raw.Kind, raw.Data)
	if err != nil {
		return fmt.Errorf("element %s: %w", raw.ID, err)
	}
	e.Data = data
	return nil
}

// DefaultData returns the zero payload for a kind.
func DefaultData(k Kind) Data {
	switch k {
	case KindFoundation:
		return FoundationData{}
	case KindWall:
		return WallData{}
	case KindRoof:
		return RoofData{}
	case KindCuboid:
		return CuboidData{}
	case KindSolarPanel:
		return SolarPanelData{}
	case KindBatteryStorage:
		return BatteryStorageData{}
	case KindRuler:
		return RulerData{}
	case KindProtractor:
		return ProtractorData{}
	case KindWindow:
		return WindowData{}
	case KindDoor:
		return DoorData{}
	default:
		return nil
	}
}

func decodeData(k Kind, raw json.RawMessage) (Data, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return DefaultData(k), nil
	}
	var err error
	switch k {
	case KindFoundation:
		return FoundationData{}, nil
	case KindCuboid:
		return CuboidData{}, nil
	case KindWindow:
		return WindowData{}, nil
	case KindDoor:
		return DoorData{}, nil
	case KindWall:
		var d WallData
		err = json.Unmarshal(raw, &d)
		return d, err
	case KindRoof:
		var d RoofData
		err = json.Unmarshal(raw, &d)
		return d, err
	case KindSolarPanel:
		var d SolarPanelData
		err = json.Unmarshal(raw, &d)
		return d, err
	case KindBatteryStorage:
		var d BatteryStorageData
		err = json.Unmarshal(raw, &d)
		return d, err
	case KindRuler:
		var d RulerData
		err = json.Unmarshal(raw, &d)
		return d, err
	case KindProtractor:
		var d ProtractorData
		err = json.Unmarshal(raw, &d)
		return d, err
	default:
		return nil, fmt.Errorf("unknown element kind %d", int(k))
	}
}
