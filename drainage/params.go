package drainage

import (
	"fmt"
	"sort"
	"strings"

	"github.com/notargets/glacierflow/components"
)

// ErrParam is shared with the other process models so that callers can test
// for any parameter error with one sentinel.
var ErrParam = components.ErrParam

type Params struct {
	Gravity           float64 `json:"gravity"`            // m/s^2
	IceDensity        float64 `json:"ice_density"`        // kg/m^3
	WaterDensity      float64 `json:"water_density"`      // kg/m^3
	CavitySpacing     float64 `json:"cavity_spacing"`     // m, l_c
	BedBumpHeight     float64 `json:"bed_bump_height"`    // m, h_c
	IceFlowN          float64 `json:"ice_flow_n"`         // Glen's n
	IceFlowCoeff      float64 `json:"ice_flow_coeff"`     // Pa^-n s^-1
	SheetConductivity float64 `json:"sheet_conductivity"` // k
	FlowExpA          float64 `json:"flow_exp_a"`
	FlowExpB          float64 `json:"flow_exp_b"`
}

func DefaultParams() Params {
	return Params{
		Gravity:           9.81,
		IceDensity:        917,
		WaterDensity:      1000,
		CavitySpacing:     10,
		BedBumpHeight:     1.0,
		IceFlowN:          3,
		IceFlowCoeff:      2.4e-24,
		SheetConductivity: 0.05,
		FlowExpA:          3,
		FlowExpB:          2,
	}
}

func (p *Params) Table() components.ParamTable {
	return components.ParamTable{
		"gravity":            &p.Gravity,
		"ice_density":        &p.IceDensity,
		"water_density":      &p.WaterDensity,
		"cavity_spacing":     &p.CavitySpacing,
		"bed_bump_height":    &p.BedBumpHeight,
		"ice_flow_n":         &p.IceFlowN,
		"ice_flow_coeff":     &p.IceFlowCoeff,
		"sheet_conductivity": &p.SheetConductivity,
		"flow_exp_a":         &p.FlowExpA,
		"flow_exp_b":         &p.FlowExpB,
	}
}

// Set returns a copy of p with one parameter changed.
func (p Params) Set(name string, value float64) (Params, error) {
	out := p
	if err := out.Table().Set(name, value); err != nil {
		return p, err
	}
	if err := out.Validate(); err != nil {
		return p, err
	}
	return out, nil
}

// Apply sets every named parameter in turn.
func (p Params) Apply(values map[string]float64) (out Params, err error) {
	out = p
	t := out.Table()
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err = t.Set(name, values[name]); err != nil {
			return p, err
		}
	}
	if err = out.Validate(); err != nil {
		return p, err
	}
	return
}

func (p Params) Validate() error {
	t := p.Table()
	if err := t.RequirePositive("gravity", "ice_density", "water_density", "cavity_spacing",
		"bed_bump_height", "ice_flow_n", "sheet_conductivity", "flow_exp_b"); err != nil {
		return err
	}
	if !(p.IceFlowCoeff >= 0) {
		return fmt.Errorf("%w: ice_flow_coeff = %g, must not be negative", ErrParam, p.IceFlowCoeff)
	}
	if !(p.FlowExpA >= 0) {
		return fmt.Errorf("%w: flow_exp_a = %g, must not be negative", ErrParam, p.FlowExpA)
	}
	return nil
}

// BoundaryPolicy selects which classified boundary nodes hold a fixed
// potential. The rest of the boundary is no-flux. InletsFixed, the zero
// value, pins inflow nodes at their base potential.
type BoundaryPolicy uint8

const (
	InletsFixed BoundaryPolicy = iota
	OutletsFixed
)

var BoundaryPolicyNameMap = map[string]BoundaryPolicy{
	"outlets": OutletsFixed,
	"inlets":  InletsFixed,
}

func (bp BoundaryPolicy) String() string {
	switch bp {
	case OutletsFixed:
		return "outlets"
	case InletsFixed:
		return "inlets"
	}
	return fmt.Sprintf("BoundaryPolicy(%d)", bp)
}

func ParseBoundaryPolicy(label string) (bp BoundaryPolicy, err error) {
	var ok bool
	if bp, ok = BoundaryPolicyNameMap[strings.ToLower(strings.TrimSpace(label))]; !ok {
		err = fmt.Errorf("%w: unknown boundary policy %q, expected inlets or outlets", ErrParam, label)
	}
	return
}
