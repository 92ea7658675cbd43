package components

import (
	"fmt"
	"math"

	"github.com/notargets/glacierflow/field"
	"github.com/notargets/glacierflow/mesh"
	"github.com/notargets/glacierflow/types"
)

type EroderParams struct {
	RateCoefficient float64 `json:"rate_coefficient"` // m^(1-p) s^(p-1)
	SlidingExponent float64 `json:"sliding_exponent"`
}

func DefaultEroderParams() EroderParams {
	return EroderParams{
		RateCoefficient: 2.7e-7 * 31556926,
		SlidingExponent: 2,
	}
}

func (p *EroderParams) Table() ParamTable {
	return ParamTable{
		"rate_coefficient": &p.RateCoefficient,
		"sliding_exponent": &p.SlidingExponent,
	}
}

func (p EroderParams) Set(name string, value float64) (EroderParams, error) {
	if err := p.Table().Set(name, value); err != nil {
		return p, err
	}
	return p, p.Validate()
}

func (p EroderParams) Validate() error {
	if p.RateCoefficient < 0 {
		return fmt.Errorf("%w: rate_coefficient = %g, must not be negative", ErrParam, p.RateCoefficient)
	}
	return p.Table().RequirePositive("sliding_exponent")
}

// SimpleGlacialEroder abrades the bed at a rate proportional to a power of the
// sliding speed and adds the eroded material to the till layer.
type SimpleGlacialEroder struct {
	mesh   *mesh.Mesh
	params EroderParams
}

func NewSimpleGlacialEroder(m *mesh.Mesh, p EroderParams) (*SimpleGlacialEroder, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &SimpleGlacialEroder{mesh: m, params: p}, nil
}

func (e *SimpleGlacialEroder) Params() EroderParams { return e.params }

func (e *SimpleGlacialEroder) InputFields() field.Requirements {
	return field.Requirements{SlidingVelocity: types.Node, TillThickness: types.Node}
}

func (e *SimpleGlacialEroder) OutputFields() field.Requirements {
	return field.Requirements{ErosionRate: types.Node, TillThickness: types.Node}
}

func (e *SimpleGlacialEroder) RunOneStep(dt float64, fields field.Set) (out field.Set, err error) {
	if err = CheckTimeStep(dt); err != nil {
		return
	}
	if err = e.InputFields().Check(e.mesh, fields); err != nil {
		return
	}
	var (
		u    = fields[SlidingVelocity]
		till = fields.Values(TillThickness)
		rate = make([]float64, u.Len())
	)
	for i := range rate {
		rate[i] = e.params.RateCoefficient * math.Pow(math.Abs(u.At(i)), e.params.SlidingExponent)
		till[i] += rate[i] * dt
	}
	out = field.NewSet(
		field.Must(ErosionRate, rate, "m/s", types.Node),
		field.Must(TillThickness, till, fields[TillThickness].Units, types.Node),
	)
	return
}
