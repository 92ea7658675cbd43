package components

import (
	"fmt"
	"math"

	"github.com/notargets/glacierflow/field"
	"github.com/notargets/glacierflow/mesh"
	"github.com/notargets/glacierflow/types"
)

type SIAParams struct {
	IceFlowCoefficient float64 `json:"ice_flow_coefficient"` // Pa^-n s^-1
	GlensN             float64 `json:"glens_n"`
	IceDensity         float64 `json:"ice_density"`
	Gravity            float64 `json:"gravity"`
}

func DefaultSIAParams() SIAParams {
	return SIAParams{
		IceFlowCoefficient: 2.4e-24,
		GlensN:             3,
		IceDensity:         917,
		Gravity:            9.81,
	}
}

func (p *SIAParams) Table() ParamTable {
	return ParamTable{
		"ice_flow_coefficient": &p.IceFlowCoefficient,
		"glens_n":              &p.GlensN,
		"ice_density":          &p.IceDensity,
		"gravity":              &p.Gravity,
	}
}

func (p SIAParams) Set(name string, value float64) (SIAParams, error) {
	if err := p.Table().Set(name, value); err != nil {
		return p, err
	}
	return p, p.Validate()
}

func (p SIAParams) Validate() error {
	if err := p.Table().RequirePositive("glens_n", "ice_density", "gravity"); err != nil {
		return err
	}
	if p.IceFlowCoefficient < 0 {
		return fmt.Errorf("%w: ice_flow_coefficient = %g, must not be negative", ErrParam, p.IceFlowCoefficient)
	}
	return nil
}

// ShallowIceApproximation computes ice deformation velocity on links from a
// Glen-Nye rheology under the shallow ice approximation. dt is unused.
type ShallowIceApproximation struct {
	mesh   *mesh.Mesh
	params SIAParams
}

func NewShallowIceApproximation(m *mesh.Mesh, p SIAParams) (*ShallowIceApproximation, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &ShallowIceApproximation{mesh: m, params: p}, nil
}

func (s *ShallowIceApproximation) Params() SIAParams { return s.params }

func (s *ShallowIceApproximation) InputFields() field.Requirements {
	return field.Requirements{IceThickness: types.Node, SurfaceElevation: types.Node}
}

func (s *ShallowIceApproximation) OutputFields() field.Requirements {
	return field.Requirements{DeformationVelocity: types.Link}
}

// CalcVelocity is positive along links pointing up the surface slope.
func (s *ShallowIceApproximation) CalcVelocity(fields field.Set) (u []float64, err error) {
	if err = s.InputFields().Check(s.mesh, fields); err != nil {
		return
	}
	var (
		p     = s.params
		n     = p.GlensN
		coeff = 2 * p.IceFlowCoefficient / (n + 2) * math.Pow(p.IceDensity*p.Gravity, n)
		slope = s.mesh.CalcGradAtLink(fields[SurfaceElevation].Values())
		H     = s.mesh.MapMeanOfLinkNodesToLink(fields[IceThickness].Values())
	)
	u = make([]float64, len(slope))
	for l, sl := range slope {
		u[l] = coeff * math.Pow(math.Abs(sl), n-1) * sl * math.Pow(H[l], n+1)
	}
	return
}

func (s *ShallowIceApproximation) RunOneStep(dt float64, fields field.Set) (out field.Set, err error) {
	var u []float64
	if u, err = s.CalcVelocity(fields); err != nil {
		return
	}
	out = field.NewSet(field.Must(DeformationVelocity, u, "m/s", types.Link))
	return
}
