package action

import (
	"fmt"
	"math"
	"sort"

	"github.com/chazu/solarform/pkg/element"
)

// Field describes one editable scalar of an element payload.
type Field[T comparable] struct {
	Name     string
	Kind     element.Kind
	Get      func(e element.Element) T
	Set      func(e *element.Element, v T)
	Validate func(v T) error
}

// check validates v and that e carries the field.
func (f Field[T]) check(e element.Element, v T) error {
	if e.Kind != f.Kind {
		return fmt.Errorf("%s on %s: %w", f.Name, e.Kind, ErrWrongKind)
	}
	if f.Validate != nil {
		if err := f.Validate(v); err != nil {
			return fmt.Errorf("%s = %v: %w", f.Name, v, err)
		}
	}
	return nil
}

func positive(v float64) error {
	if !(v > 0) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: must be positive", ErrInvalidValue)
	}
	return nil
}

func nonNegative(v float64) error {
	if !(v >= 0) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: must not be negative", ErrInvalidValue)
	}
	return nil
}

func fraction(v float64) error {
	if !(v > 0 && v <= 1) {
		return fmt.Errorf("%w: must be in (0, 1]", ErrInvalidValue)
	}
	return nil
}

func within(lo, hi float64) func(float64) error {
	return func(v float64) error {
		if !(v >= lo && v <= hi) {
			return fmt.Errorf("%w: must be in [%.4g, %.4g]", ErrInvalidValue, lo, hi)
		}
		return nil
	}
}

// roofField builds a float field over RoofData.
func roofField(name string, get func(element.RoofData) float64, set func(*element.RoofData, float64), validate func(float64) error) Field[float64] {
	return Field[float64]{
		Name: name,
		Kind: element.KindRoof,
		Get: func(e element.Element) float64 {
			d, _ := e.Roof()
			return get(d)
		},
		Set: func(e *element.Element, v float64) {
			d, _ := e.Roof()
			set(&d, v)
			e.Data = d
		},
		Validate: validate,
	}
}

func panelField(name string, get func(element.SolarPanelData) float64, set func(*element.SolarPanelData, float64), validate func(float64) error) Field[float64] {
	return Field[float64]{
		Name: name,
		Kind: element.KindSolarPanel,
		Get: func(e element.Element) float64 {
			d, _ := e.SolarPanel()
			return get(d)
		},
		Set: func(e *element.Element, v float64) {
			d, _ := e.SolarPanel()
			set(&d, v)
			e.Data = d
		},
		Validate: validate,
	}
}

func batteryField(name string, get func(element.BatteryStorageData) float64, set func(*element.BatteryStorageData, float64), validate func(float64) error) Field[float64] {
	return Field[float64]{
		Name: name,
		Kind: element.KindBatteryStorage,
		Get: func(e element.Element) float64 {
			d, _ := e.BatteryStorage()
			return get(d)
		},
		Set: func(e *element.Element, v float64) {
			d, _ := e.BatteryStorage()
			set(&d, v)
			e.Data = d
		},
		Validate: validate,
	}
}

var (
	RoofRValue = roofField("roof.rValue",
		func(d element.RoofData) float64 { return d.RValue },
		func(d *element.RoofData, v float64) { d.RValue = v },
		positive)
	RoofRise = roofField("roof.rise",
		func(d element.RoofData) float64 { return d.Rise },
		func(d *element.RoofData, v float64) { d.Rise = v },
		nonNegative)
	RoofThickness = roofField("roof.thickness",
		func(d element.RoofData) float64 { return d.Thickness },
		func(d *element.RoofData, v float64) { d.Thickness = v },
		positive)
	RafterSpacing = roofField("roof.rafterSpacing",
		func(d element.RoofData) float64 { return d.RafterSpacing },
		func(d *element.RoofData, v float64) { d.RafterSpacing = v },
		positive)
	RafterWidth = roofField("roof.rafterWidth",
		func(d element.RoofData) float64 { return d.RafterWidth },
		func(d *element.RoofData, v float64) { d.RafterWidth = v },
		positive)

	PanelTilt = panelField("solarPanel.tiltAngle",
		func(d element.SolarPanelData) float64 { return d.TiltAngle },
		func(d *element.SolarPanelData, v float64) { d.TiltAngle = v },
		within(-math.Pi/2, math.Pi/2))
	PanelRelativeAzimuth = panelField("solarPanel.relativeAzimuth",
		func(d element.SolarPanelData) float64 { return d.RelativeAzimuth },
		func(d *element.SolarPanelData, v float64) { d.RelativeAzimuth = v },
		within(-math.Pi, math.Pi))
	PanelPoleHeight = panelField("solarPanel.poleHeight",
		func(d element.SolarPanelData) float64 { return d.PoleHeight },
		func(d *element.SolarPanelData, v float64) { d.PoleHeight = v },
		nonNegative)

	BatteryChargingEfficiency = batteryField("batteryStorage.chargingEfficiency",
		func(d element.BatteryStorageData) float64 { return d.ChargingEfficiency },
		func(d *element.BatteryStorageData, v float64) { d.ChargingEfficiency = v },
		fraction)
	BatteryDischargingEfficiency = batteryField("batteryStorage.dischargingEfficiency",
		func(d element.BatteryStorageData) float64 { return d.DischargingEfficiency },
		func(d *element.BatteryStorageData, v float64) { d.DischargingEfficiency = v },
		fraction)

	ProtractorTickMarkLength = Field[float64]{
		Name: "protractor.tickMarkLength",
		Kind: element.KindProtractor,
		Get: func(e element.Element) float64 {
			d, _ := e.Protractor()
			return d.TickMarkLength
		},
		Set: func(e *element.Element, v float64) {
			d, _ := e.Protractor()
			d.TickMarkLength = v
			e.Data = d
		},
		Validate: positive,
	}
)

var floatFields = map[string]Field[float64]{}

func init() {
	for _, f := range []Field[float64]{
		RoofRValue, RoofRise, RoofThickness, RafterSpacing, RafterWidth,
		PanelTilt, PanelRelativeAzimuth, PanelPoleHeight,
		BatteryChargingEfficiency, BatteryDischargingEfficiency,
		ProtractorTickMarkLength,
	} {
		floatFields[f.Name] = f
	}
}

// LookupFloat returns the float field registered under name.
func LookupFloat(name string) (Field[float64], bool) {
	f, ok := floatFields[name]
	return f, ok
}

// FloatFieldNames lists the registered float fields.
func FloatFieldNames() []string {
	names := make([]string, 0, len(floatFields))
	for n := range floatFields {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
