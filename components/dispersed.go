package components

import (
	"fmt"
	"math"

	"github.com/notargets/glacierflow/field"
	"github.com/notargets/glacierflow/mesh"
	"github.com/notargets/glacierflow/rootfind"
	"github.com/notargets/glacierflow/types"
)

type DispersedParams struct {
	IceDensity      float64 `json:"ice_density"`
	IceConductivity float64 `json:"ice_conductivity"` // W/m/K
	LatentHeat      float64 `json:"latent_heat"`      // J/kg
}

func DefaultDispersedParams() DispersedParams {
	return DispersedParams{
		IceDensity:      917,
		IceConductivity: 2.0,
		LatentHeat:      3.34e5,
	}
}

func (p *DispersedParams) Table() ParamTable {
	return ParamTable{
		"ice_density":      &p.IceDensity,
		"ice_conductivity": &p.IceConductivity,
		"latent_heat":      &p.LatentHeat,
	}
}

func (p DispersedParams) Set(name string, value float64) (DispersedParams, error) {
	if err := p.Table().Set(name, value); err != nil {
		return p, err
	}
	return p, p.Validate()
}

func (p DispersedParams) Validate() error {
	return p.Table().RequirePositive("ice_density", "ice_conductivity", "latent_heat")
}

// DispersedLayer grows a layer of debris-laden ice by regelation driven by
// the basal temperature gradient.
type DispersedLayer struct {
	mesh   *mesh.Mesh
	params DispersedParams
	newton rootfind.Newton
}

func NewDispersedLayer(m *mesh.Mesh, p DispersedParams) (*DispersedLayer, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &DispersedLayer{mesh: m, params: p, newton: rootfind.NewNewton()}, nil
}

func (d *DispersedLayer) Params() DispersedParams { return d.params }

func (d *DispersedLayer) InputFields() field.Requirements {
	return field.Requirements{TemperatureGradient: types.Node, DispersedThickness: types.Node}
}

func (d *DispersedLayer) OutputFields() field.Requirements {
	return field.Requirements{DispersedThickness: types.Node, RegelationRate: types.Node}
}

// RegelationRate is 3 k G / (rho_i L).
func (d *DispersedLayer) RegelationRate(gradient []float64) (rate []float64) {
	p := d.params
	rate = make([]float64, len(gradient))
	for i, G := range gradient {
		rate[i] = 3 * p.IceConductivity * G / (p.IceDensity * p.LatentHeat)
	}
	return
}

func (d *DispersedLayer) RunOneStep(dt float64, fields field.Set) (out field.Set, err error) {
	if err = CheckTimeStep(dt); err != nil {
		return
	}
	if err = d.InputFields().Check(d.mesh, fields); err != nil {
		return
	}
	var (
		rate = d.RegelationRate(fields.Values(TemperatureGradient))
		h0   = fields.Values(DispersedThickness)
		h    []float64
	)
	h, _, err = d.newton.Solve(h0, func(x []float64, active []int, f, df []float64) {
		for _, i := range active {
			f[i] = x[i] - h0[i] - rate[i]*dt
			df[i] = 1
		}
	})
	if err != nil {
		return nil, fmt.Errorf("dispersed layer update: %w", err)
	}
	for i := range h {
		h[i] = math.Max(h[i], 0)
	}
	out = field.NewSet(
		field.Must(DispersedThickness, h, "m", types.Node),
		field.Must(RegelationRate, rate, "m/s", types.Node),
	)
	return
}
