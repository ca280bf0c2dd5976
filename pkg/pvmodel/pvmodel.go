// Package pvmodel is the catalog of photovoltaic modules a solar panel rack
// can be built from. A rack's footprint is always a whole number of modules.
package pvmodel

import (
	"sort"

	"github.com/chazu/solarform/pkg/element"
)

// Model describes one PV module. Width and Length are in length units,
// Efficiency is a fraction, NominalPower is in watts.
type Model struct {
	Name         string  `json:"name"`
	Brand        string  `json:"brand"`
	Width        float64 `json:"width"`
	Length       float64 `json:"length"`
	Thickness    float64 `json:"thickness"`
	Efficiency   float64 `json:"efficiency"`
	NominalPower float64 `json:"nominalPower"`
	Bifacial     bool    `json:"bifacial"`
}

// DefaultName is the model used when a panel names none or an unknown one.
const DefaultName = "SPR-X21-335"

var catalog = map[string]Model{
	"SPR-X21-335": {Name: "SPR-X21-335", Brand: "SunPower", Width: 1.046, Length: 1.559, Thickness: 0.046, Efficiency: 0.211, NominalPower: 335},
	"SPR-E20-327": {Name: "SPR-E20-327", Brand: "SunPower", Width: 1.046, Length: 1.559, Thickness: 0.046, Efficiency: 0.204, NominalPower: 327},
	"CS3U-370MB":  {Name: "CS3U-370MB", Brand: "Canadian Solar", Width: 0.992, Length: 2.000, Thickness: 0.035, Efficiency: 0.186, NominalPower: 370, Bifacial: true},
	"JAM72S10":    {Name: "JAM72S10", Brand: "JA Solar", Width: 0.996, Length: 1.979, Thickness: 0.040, Efficiency: 0.199, NominalPower: 390},
	"UNIT-1x2":    {Name: "UNIT-1x2", Brand: "Generic", Width: 1, Length: 2, Thickness: 0.05, Efficiency: 0.2, NominalPower: 400},
}

// Lookup returns the model with the given name.
func Lookup(name string) (Model, bool) {
	m, ok := catalog[name]
	return m, ok
}

// Default returns the default model.
func Default() Model {
	return catalog[DefaultName]
}

// Resolve returns the named model, falling back to the default.
func Resolve(name string) Model {
	if m, ok := Lookup(name); ok {
		return m
	}
	return Default()
}

// Names lists the catalog in sorted order.
func Names() []string {
	names := make([]string, 0, len(catalog))
	for n := range catalog {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Steps returns the rack size increments along the panel's local x and y
// axes. Portrait racks stack module widths along x and lengths along y;
// landscape racks swap them.
func (m Model) Steps(o element.Orientation) (x, y float64) {
	if o == element.Landscape {
		return m.Length, m.Width
	}
	return m.Width, m.Length
}

// Count returns how many modules fit along a rack side of length l with
// the given step. At least one module always fits.
func Count(l, step float64) int {
	if step <= 0 {
		return 1
	}
	n := int(l/step + 0.5)
	if n < 1 {
		return 1
	}
	return n
}
