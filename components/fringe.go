package components

import (
	"fmt"
	"math"

	"github.com/notargets/glacierflow/field"
	"github.com/notargets/glacierflow/mesh"
	"github.com/notargets/glacierflow/types"
)

type FringeParams struct {
	SurfaceEnergy    float64 `json:"surface_energy"`     // J/m^2
	PoreThroatRadius float64 `json:"pore_throat_radius"` // m
	MeltTemperature  float64 `json:"melt_temperature"`   // K
	IceDensity       float64 `json:"ice_density"`
	WaterDensity     float64 `json:"water_density"`
	WaterViscosity   float64 `json:"water_viscosity"` // Pa s
	LatentHeat       float64 `json:"latent_heat"`
	IceConductivity  float64 `json:"ice_conductivity"`
	TillPorosity     float64 `json:"till_porosity"`
	TillPermeability float64 `json:"till_permeability"` // m^2
	TillGrainRadius  float64 `json:"till_grain_radius"` // m
	FilmThickness    float64 `json:"film_thickness"`    // m
	Alpha            float64 `json:"alpha"`
	Beta             float64 `json:"beta"`
	MinFringe        float64 `json:"min_fringe"` // m
}

func DefaultFringeParams() FringeParams {
	return FringeParams{
		SurfaceEnergy:    0.034,
		PoreThroatRadius: 1e-6,
		MeltTemperature:  273,
		IceDensity:       917,
		WaterDensity:     1000,
		WaterViscosity:   1.8e-3,
		LatentHeat:       3.34e5,
		IceConductivity:  2.0,
		TillPorosity:     0.35,
		TillPermeability: 4.1e-17,
		TillGrainRadius:  1.5e-4,
		FilmThickness:    1e-8,
		Alpha:            3.1,
		Beta:             0.53,
		MinFringe:        1e-3,
	}
}

func (p *FringeParams) Table() ParamTable {
	return ParamTable{
		"surface_energy":     &p.SurfaceEnergy,
		"pore_throat_radius": &p.PoreThroatRadius,
		"melt_temperature":   &p.MeltTemperature,
		"ice_density":        &p.IceDensity,
		"water_density":      &p.WaterDensity,
		"water_viscosity":    &p.WaterViscosity,
		"latent_heat":        &p.LatentHeat,
		"ice_conductivity":   &p.IceConductivity,
		"till_porosity":      &p.TillPorosity,
		"till_permeability":  &p.TillPermeability,
		"till_grain_radius":  &p.TillGrainRadius,
		"film_thickness":     &p.FilmThickness,
		"alpha":              &p.Alpha,
		"beta":               &p.Beta,
		"min_fringe":         &p.MinFringe,
	}
}

func (p FringeParams) Set(name string, value float64) (FringeParams, error) {
	if err := p.Table().Set(name, value); err != nil {
		return p, err
	}
	return p, p.Validate()
}

func (p FringeParams) Validate() error {
	t := p.Table()
	if err := t.RequirePositive(t.Names()...); err != nil {
		return err
	}
	if p.TillPorosity >= 1 {
		return fmt.Errorf("%w: till_porosity = %g, must be below 1", ErrParam, p.TillPorosity)
	}
	if p.Beta == 1 {
		return fmt.Errorf("%w: beta must not be 1", ErrParam)
	}
	return nil
}

// EntryPressure is the pressure needed for ice to enter the pore throats.
func (p FringeParams) EntryPressure() float64 { return 2 * p.SurfaceEnergy / p.PoreThroatRadius }

// BaseTemperature is the temperature at the base of the fringe.
func (p FringeParams) BaseTemperature() float64 {
	return p.MeltTemperature - p.EntryPressure()*p.MeltTemperature/(p.IceDensity*p.LatentHeat)
}

// FrozenFringe evolves a partially frozen layer of till beneath the ice by
// heave at the ice lens balanced against basal melt.
type FrozenFringe struct {
	mesh   *mesh.Mesh
	params FringeParams
}

func NewFrozenFringe(m *mesh.Mesh, p FringeParams) (*FrozenFringe, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &FrozenFringe{mesh: m, params: p}, nil
}

func (ff *FrozenFringe) Params() FringeParams { return ff.params }

func (ff *FrozenFringe) InputFields() field.Requirements {
	return field.Requirements{
		EffectivePressure: types.Node,
		BasalMeltRate:     types.Node,
		FringeThickness:   types.Node,
	}
}

func (ff *FrozenFringe) OutputFields() field.Requirements {
	return field.Requirements{
		FringeThickness:    types.Node,
		FringeSaturation:   types.Node,
		FringeUndercooling: types.Node,
	}
}

// thermal gradient across the fringe for a given melt rate
func (ff *FrozenFringe) gradient(melt float64) float64 {
	p := ff.params
	return -melt * p.IceDensity * p.LatentHeat / p.IceConductivity
}

// State returns the dimensionless undercooling and the ice saturation for a
// fringe of thickness h.
func (ff *FrozenFringe) State(h, melt float64) (theta, saturation float64) {
	p := ff.params
	theta = 1 - ff.gradient(melt)*h/(p.MeltTemperature-p.BaseTemperature())
	theta = math.Max(theta, 1)
	saturation = 1 - math.Pow(theta, -p.Beta)
	return
}

// HeaveRate is the growth rate of the ice lens at the top of the fringe.
func (ff *FrozenFringe) HeaveRate(theta, N, melt float64) float64 {
	var (
		p     = ff.params
		phi   = p.TillPorosity
		a, b  = p.Alpha, p.Beta
		G     = ff.gradient(melt)
		dT    = p.MeltTemperature - p.BaseTemperature()
		rhow2 = p.WaterDensity * p.WaterDensity
		Vn    = -(rhow2 * p.LatentHeat * G * p.TillPermeability) /
			(p.IceDensity * p.MeltTemperature * p.WaterViscosity)
		Pi = -(rhow2 * p.TillPermeability * G * p.TillGrainRadius * p.TillGrainRadius) /
			(p.IceDensity * p.IceDensity * dT * math.Pow(p.FilmThickness, 3))
	)
	num := theta + phi*(1-theta+(math.Pow(theta, 1-b)-1)/(1-b)) - N/p.EntryPressure()
	den := (1-phi)*(1-phi)/(a+1)*(math.Pow(theta, a+1)-1) +
		2*(1-phi)*phi/(a-b+1)*(math.Pow(theta, a-b+1)-1) +
		phi*phi/(a-2*b+1)*(math.Pow(theta, a-2*b+1)-1) +
		Pi
	if den == 0 {
		return 0
	}
	return Vn * num / den
}

func (ff *FrozenFringe) RunOneStep(dt float64, fields field.Set) (out field.Set, err error) {
	if err = CheckTimeStep(dt); err != nil {
		return
	}
	if err = ff.InputFields().Check(ff.mesh, fields); err != nil {
		return
	}
	var (
		p     = ff.params
		N     = fields[EffectivePressure]
		melt  = fields[BasalMeltRate]
		h     = fields.Values(FringeThickness)
		sat   = make([]float64, len(h))
		theta = make([]float64, len(h))
	)
	for i := range h {
		th, S := ff.State(h[i], melt.At(i))
		var dhdt float64
		if S != 0 {
			dhdt = (-melt.At(i) - ff.HeaveRate(th, N.At(i), melt.At(i))) / (p.TillPorosity * S)
		}
		h[i] = math.Max(h[i]+dhdt*dt, p.MinFringe)
		theta[i], sat[i] = ff.State(h[i], melt.At(i))
	}
	out = field.NewSet(
		field.Must(FringeThickness, h, "m", types.Node),
		field.Must(FringeSaturation, sat, "", types.Node),
		field.Must(FringeUndercooling, theta, "", types.Node),
	)
	return
}
