/*
Package components holds the common contract of the process models and the
smaller models built on it. Each model reads named fields from a field.Set,
returns a new Set with its outputs, and keeps no state between steps.
*/
package components

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/notargets/glacierflow/field"
)

var (
	ErrParam    = errors.New("invalid parameter")
	ErrTimeStep = errors.New("invalid time step")
)

// Field names shared between models.
const (
	IceThickness        = "ice_thickness"
	SurfaceElevation    = "surface_elevation"
	BedElevation        = "bed_elevation"
	SlidingVelocity     = "sliding_velocity"
	BasalMeltRate       = "basal_melt_rate"
	Potential           = "potential"
	SheetFlowHeight     = "sheet_flow_height"
	EffectivePressure   = "effective_pressure"
	DeformationVelocity = "deformation_velocity"
	TillThickness       = "till_thickness"
	ErosionRate         = "erosion_rate"
	FringeThickness     = "fringe_thickness"
	FringeSaturation    = "fringe_saturation"
	FringeUndercooling  = "fringe_undercooling"
	TemperatureGradient = "temperature_gradient"
	DispersedThickness  = "dispersed_thickness"
	RegelationRate      = "regelation_rate"
)

type Component interface {
	InputFields() field.Requirements
	OutputFields() field.Requirements
	RunOneStep(dt float64, fields field.Set) (field.Set, error)
}

// Run checks the time step and the input contract, steps c, then checks the
// output contract.
func Run(c Component, m field.Counter, dt float64, fields field.Set) (out field.Set, err error) {
	if err = CheckTimeStep(dt); err != nil {
		return
	}
	if err = c.InputFields().Check(m, fields); err != nil {
		return
	}
	if out, err = c.RunOneStep(dt, fields); err != nil {
		return nil, err
	}
	if err = c.OutputFields().Check(m, out); err != nil {
		return nil, fmt.Errorf("model output: %w", err)
	}
	return
}

func CheckTimeStep(dt float64) error {
	if !(dt > 0) || math.IsInf(dt, 1) {
		return fmt.Errorf("%w: %g, must be positive and finite", ErrTimeStep, dt)
	}
	return nil
}

// ParamTable maps parameter names onto the fields of a parameter struct.
type ParamTable map[string]*float64

func (t ParamTable) Set(name string, value float64) error {
	p, ok := t[name]
	if !ok {
		return fmt.Errorf("%w: unknown parameter %q, expected one of %v", ErrParam, name, t.Names())
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return fmt.Errorf("%w: %s = %g", ErrParam, name, value)
	}
	*p = value
	return nil
}

func (t ParamTable) Names() (names []string) {
	for name := range t {
		names = append(names, name)
	}
	sort.Strings(names)
	return
}

func (t ParamTable) Values() (values map[string]float64) {
	values = make(map[string]float64, len(t))
	for name, p := range t {
		values[name] = *p
	}
	return
}

// RequirePositive reports the first listed parameter that is not > 0.
func (t ParamTable) RequirePositive(names ...string) error {
	for _, name := range names {
		if p, ok := t[name]; ok && !(*p > 0) {
			return fmt.Errorf("%w: %s = %g, must be positive", ErrParam, name, *p)
		}
	}
	return nil
}
