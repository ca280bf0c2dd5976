package store

import (
	"strings"
	"testing"

	"github.com/chazu/solarform/pkg/element"
)

func TestValidateCleanSite(t *testing.T) {
	st := State{Elements: smallSite()}
	if errs := Validate(st); len(errs) != 0 {
		t.Errorf("expected no findings, got %v", errs)
	}
}

func TestValidateFindings(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func([]element.Element) []element.Element
		severity ValidationSeverity
		contains string
	}{
		{
			name: "dangling parent",
			mutate: func(es []element.Element) []element.Element {
				es[3].ParentID = "gone"
				return es
			},
			severity: SeverityError,
			contains: "does not exist",
		},
		{
			name: "panel cannot hang off a panel",
			mutate: func(es []element.Element) []element.Element {
				return append(es, element.Element{ID: "p2", Kind: element.KindSolarPanel, ParentID: "p1", LX: 1, LY: 2, LZ: 0.05,
					Data: element.SolarPanelData{ModelName: "UNIT-1x2"}})
			},
			severity: SeverityError,
			contains: "cannot be attached",
		},
		{
			name: "wall on the ground",
			mutate: func(es []element.Element) []element.Element {
				es[1].ParentID = element.GroundID
				return es
			},
			severity: SeverityError,
			contains: "ground",
		},
		{
			name: "zero dimension",
			mutate: func(es []element.Element) []element.Element {
				es[4].LY = 0
				return es
			},
			severity: SeverityError,
			contains: "dimension y",
		},
		{
			name: "ownership cycle",
			mutate: func(es []element.Element) []element.Element {
				return append(es,
					element.Element{ID: "a", Kind: element.KindWall, ParentID: "b", LX: 1, LY: 1, LZ: 1},
					element.Element{ID: "b", Kind: element.KindWall, ParentID: "a", LX: 1, LY: 1, LZ: 1},
				)
			},
			severity: SeverityError,
			contains: "cycle",
		},
		{
			name: "panel not a module multiple",
			mutate: func(es []element.Element) []element.Element {
				es[3].LX = 1.5
				return es
			},
			severity: SeverityWarning,
			contains: "whole number",
		},
		{
			name: "short ruler",
			mutate: func(es []element.Element) []element.Element {
				return append(es, element.Element{ID: "u", Kind: element.KindRuler, ParentID: element.GroundID, LX: 0.2, LY: 0.1, LZ: 0.1,
					Data: element.RulerData{RightEndPoint: [3]float64{0.2, 0, 0}}})
			},
			severity: SeverityWarning,
			contains: "ruler length",
		},
		{
			name: "two selected",
			mutate: func(es []element.Element) []element.Element {
				es[0].Selected = true
				es[4].Selected = true
				return es
			},
			severity: SeverityWarning,
			contains: "selected",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := Validate(State{Elements: tt.mutate(smallSite())})
			for _, e := range errs {
				if e.Severity == tt.severity && strings.Contains(e.Error(), tt.contains) {
					return
				}
			}
			t.Errorf("no %s finding containing %q in %v", tt.severity, tt.contains, errs)
		})
	}
}
