// Package element defines the placed-element data model: a flat record of
// identity, ownership, pose, and a kind-specific payload.
package element

import (
	"fmt"

	"github.com/google/uuid"
)

// ID is the opaque, stable identity of an element.
type ID string

// GroundID is the pseudo-parent of elements that sit directly on the ground:
// root-level foundations and cuboids, and rulers or protractors placed on
// open ground. Its frame is the world frame.
const GroundID ID = "Ground"

// NewID returns a fresh random element ID.
func NewID() ID {
	return ID(uuid.NewString())
}

// IsZero reports whether the ID is unset.
func (id ID) IsZero() bool { return id == "" }

// Short returns the first eight characters of the ID for log messages.
func (id ID) Short() string {
	if len(id) > 8 {
		return string(id[:8])
	}
	return string(id)
}

// Kind enumerates the closed set of element types.
type Kind int

const (
	KindFoundation Kind = iota
	KindWall
	KindRoof
	KindCuboid
	KindSolarPanel
	KindBatteryStorage
	KindRuler
	KindProtractor
	KindWindow
	KindDoor
)

func (k Kind) String() string {
	switch k {
	case KindFoundation:
		return "Foundation"
	case KindWall:
		return "Wall"
	case KindRoof:
		return "Roof"
	case KindCuboid:
		return "Cuboid"
	case KindSolarPanel:
		return "Solar Panel"
	case KindBatteryStorage:
		return "Battery Storage"
	case KindRuler:
		return "Ruler"
	case KindProtractor:
		return "Protractor"
	case KindWindow:
		return "Window"
	case KindDoor:
		return "Door"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Element is one placed object. Position and rotation are expressed in the
// frame of the parent named by ParentID; see the package documentation of
// scene for how each parent kind defines its frame.
type Element struct {
	ID           ID         `json:"id"`
	Kind         Kind       `json:"type"`
	Label        string     `json:"label,omitempty"`
	ParentID     ID         `json:"parentId"`
	FoundationID ID         `json:"foundationId,omitempty"`
	CX           float64    `json:"cx"`
	CY           float64    `json:"cy"`
	CZ           float64    `json:"cz"`
	LX           float64    `json:"lx"`
	LY           float64    `json:"ly"`
	LZ           float64    `json:"lz"`
	Rotation     [3]float64 `json:"rotation"`
	Normal       [3]float64 `json:"normal"`
	Locked       bool       `json:"locked"`
	Selected     bool       `json:"selected"`
	Data         Data       `json:"data,omitempty"`
}

// Center returns the position as an array.
func (e *Element) Center() [3]float64 {
	return [3]float64{e.CX, e.CY, e.CZ}
}

// SetCenter assigns cx, cy, cz.
func (e *Element) SetCenter(c [3]float64) {
	e.CX, e.CY, e.CZ = c[0], c[1], c[2]
}

// Size returns lx, ly, lz as an array.
func (e *Element) Size() [3]float64 {
	return [3]float64{e.LX, e.LY, e.LZ}
}

// IsRoot reports whether the element hangs directly off the ground.
func (e *Element) IsRoot() bool {
	return e.ParentID == GroundID || e.ParentID.IsZero()
}

// SolarPanel returns the payload of a solar panel element.
func (e *Element) SolarPanel() (SolarPanelData, bool) {
	d, ok := e.Data.(SolarPanelData)
	return d, ok
}

// Roof returns the payload of a roof element.
func (e *Element) Roof() (RoofData, bool) {
	d, ok := e.Data.(RoofData)
	return d, ok
}

// Wall returns the payload of a wall element.
func (e *Element) Wall() (WallData, bool) {
	d, ok := e.Data.(WallData)
	return d, ok
}

// Ruler returns the payload of a ruler element.
func (e *Element) Ruler() (RulerData, bool) {
	d, ok := e.Data.(RulerData)
	return d, ok
}

// BatteryStorage returns the payload of a battery storage element.
func (e *Element) BatteryStorage() (BatteryStorageData, bool) {
	d, ok := e.Data.(BatteryStorageData)
	return d, ok
}

// Protractor returns the payload of a protractor element.
func (e *Element) Protractor() (ProtractorData, bool) {
	d, ok := e.Data.(ProtractorData)
	return d, ok
}

// AllowedParents returns the kinds an element of kind k may be attached to.
// Ground is always accepted for rulers, protractors, foundations and cuboids.
func AllowedParents(k Kind) []Kind {
	switch k {
	case KindWall:
		return []Kind{KindFoundation}
	case KindRoof:
		return []Kind{KindFoundation}
	case KindSolarPanel:
		return []Kind{KindFoundation, KindWall, KindRoof, KindCuboid}
	case KindBatteryStorage:
		return []Kind{KindFoundation}
	case KindRuler, KindProtractor:
		return []Kind{KindFoundation}
	case KindWindow, KindDoor:
		return []Kind{KindWall}
	default:
		return nil
	}
}

// AllowsGround reports whether k may sit on the ground.
func AllowsGround(k Kind) bool {
	switch k {
	case KindFoundation, KindCuboid, KindRuler, KindProtractor:
		return true
	}
	return false
}
