package model

import (
	"errors"
	"fmt"
	"strings"

	"github.com/notargets/glacierflow/components"
	"github.com/notargets/glacierflow/drainage"
	"github.com/notargets/glacierflow/mesh"
)

var ErrUnknownComponent = errors.New("unknown component")

// ComponentNames lists the components that can follow the drainage model.
var ComponentNames = []string{
	"effective_pressure",
	"frozen_fringe",
	"glacial_eroder",
	"shallow_ice",
	"dispersed_layer",
}

func newStep(name string, m *mesh.Mesh, dm *drainage.Model) (step Step, err error) {
	var c components.Component
	switch name {
	case "effective_pressure":
		c = EffectivePressure{Drainage: dm}
	case "frozen_fringe":
		c, err = components.NewFrozenFringe(m, components.DefaultFringeParams())
	case "glacial_eroder":
		c, err = components.NewSimpleGlacialEroder(m, components.DefaultEroderParams())
	case "shallow_ice":
		c, err = components.NewShallowIceApproximation(m, components.DefaultSIAParams())
	case "dispersed_layer":
		c, err = components.NewDispersedLayer(m, components.DefaultDispersedParams())
	default:
		err = fmt.Errorf("%w: %q, expected one of %s", ErrUnknownComponent, name,
			strings.Join(ComponentNames, ", "))
	}
	if err != nil {
		return
	}
	step = Step{Name: name, Component: c}
	return
}

// Steps runs the drainage model first, then the named components in order.
// The frozen fringe reads effective pressure, which is published ahead of it
// when not requested explicitly.
func Steps(m *mesh.Mesh, dm *drainage.Model, names ...string) (steps []Step, err error) {
	steps = []Step{{Name: "drainage", Component: dm}}
	seen := map[string]bool{}
	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		if seen[name] {
			continue
		}
		if name == "frozen_fringe" && !seen["effective_pressure"] {
			var ep Step
			if ep, err = newStep("effective_pressure", m, dm); err != nil {
				return nil, err
			}
			steps = append(steps, ep)
			seen["effective_pressure"] = true
		}
		var step Step
		if step, err = newStep(name, m, dm); err != nil {
			return nil, err
		}
		steps = append(steps, step)
		seen[name] = true
	}
	return
}
