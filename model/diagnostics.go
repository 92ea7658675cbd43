package model

import (
	"github.com/notargets/glacierflow/components"
	"github.com/notargets/glacierflow/drainage"
	"github.com/notargets/glacierflow/field"
	"github.com/notargets/glacierflow/types"
)

// EffectivePressure publishes the drainage model's effective pressure as a
// field for the components that read it.
type EffectivePressure struct {
	Drainage *drainage.Model
}

func (ep EffectivePressure) InputFields() field.Requirements {
	return field.Requirements{
		components.IceThickness: types.Node,
		components.BedElevation: types.Node,
		components.Potential:    types.Node,
	}
}

func (ep EffectivePressure) OutputFields() field.Requirements {
	return field.Requirements{components.EffectivePressure: types.Node}
}

func (ep EffectivePressure) RunOneStep(_ float64, fields field.Set) (out field.Set, err error) {
	var N []float64
	if N, err = ep.Drainage.EffectivePressure(fields); err != nil {
		return
	}
	out = field.NewSet(field.Must(components.EffectivePressure, N, "Pa", types.Node))
	return
}
