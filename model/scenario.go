package model

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/notargets/glacierflow/components"
	"github.com/notargets/glacierflow/drainage"
	"github.com/notargets/glacierflow/field"
	"github.com/notargets/glacierflow/grids"
	"github.com/notargets/glacierflow/mesh"
	"github.com/notargets/glacierflow/types"
)

const (
	SecondsPerYear = 31556926.0
	// basal temperature gradient given to the regelation layer
	DefaultTemperatureGradient = 0.03 // K/m
)

// GlaDSMesh is a raster draining through its low-x edge, closed elsewhere.
func GlaDSMesh(rows, cols int, spacing float64) (*mesh.Mesh, error) {
	return grids.NewRaster(rows, cols, spacing, spacing,
		grids.WithEdgeStatus(grids.Top, types.Closed),
		grids.WithEdgeStatus(grids.Right, types.Closed),
		grids.WithEdgeStatus(grids.Bottom, types.Closed),
	)
}

// GlaDSParams are the drainage constants of the GlaDS comparison case.
func GlaDSParams() drainage.Params {
	p := drainage.DefaultParams()
	p.BedBumpHeight = 0.5
	return p
}

// GlaDSPolicy holds the outlet edge at its base potential. Water in the GlaDS
// case starts near overburden, so every open boundary node classifies as an
// outlet and the inlet policy has nothing to anchor the potential.
const GlaDSPolicy = drainage.OutletsFixed

// UniformParams switch off creep closure, leaving cavity opening as the only
// change in sheet thickness.
func UniformParams() drainage.Params {
	p := drainage.DefaultParams()
	p.IceFlowCoeff = 0
	return p
}

/*
GlaDS sets up an ice sheet margin: a square-root surface rising to 1500 m
over the length of the mesh, a gently sloping bed, 50 m/a sliding and melt
that decreases with surface elevation. Water starts at overburden pressure
except on the outlet edge x = 0.
*/
func GlaDS(m *mesh.Mesh, p drainage.Params) field.Set {
	var (
		n       = m.NumberOfNodes()
		x       = m.XOfNode()
		x0      = floats.Min(x)
		length  = floats.Max(x) - x0
		surface = make([]float64, n)
		bed     = make([]float64, n)
		H       = make([]float64, n)
		melt    = make([]float64, n)
		phi     = make([]float64, n)
	)
	for i := range x {
		xi := x[i] - x0
		surface[i] = math.Sqrt(xi+10) * 1500 / math.Sqrt(length)
		bed[i] = xi * 1e-3
		H[i] = surface[i] - bed[i]
		melt[i] = math.Max(1.62e-6-surface[i]*1e-3*1.16e-6, 0)
		phi[i] = p.IceDensity * p.Gravity * H[i]
		if xi == 0 {
			phi[i] = p.WaterDensity * p.Gravity * bed[i]
		}
	}
	return baseFields(m, surface, bed, H, melt, phi,
		constant(n, 50/SecondsPerYear), constant(n, 1e-3))
}

/*
Uniform describes a slab of constant thickness on a bed rising with x. With
no melt and water starting at the base potential, opening cavities draw water
in through the high edge, which classifies as an inlet.
*/
type Uniform struct {
	IceThickness     float64 // m
	BedSlope         float64 // rise of the bed per unit x
	SlidingVelocity  float64 // m/s
	MeltRate         float64 // m/s
	SheetThickness   float64 // m
	PressureFraction float64 // initial water pressure over overburden at core nodes
}

func DefaultUniform() Uniform {
	return Uniform{
		IceThickness:     500,
		BedSlope:         0.01,
		SlidingVelocity:  30 / SecondsPerYear,
		MeltRate:         0,
		SheetThickness:   0.01,
		PressureFraction: 0,
	}
}

func (u Uniform) Fields(m *mesh.Mesh, p drainage.Params) field.Set {
	var (
		n       = m.NumberOfNodes()
		x       = m.XOfNode()
		x0      = floats.Min(x)
		surface = make([]float64, n)
		bed     = make([]float64, n)
		phi     = make([]float64, n)
	)
	for i := range x {
		bed[i] = u.BedSlope * (x[i] - x0)
		surface[i] = bed[i] + u.IceThickness
		phi[i] = p.WaterDensity * p.Gravity * bed[i]
		if m.Status(i) == types.Core {
			phi[i] += u.PressureFraction * p.IceDensity * p.Gravity * u.IceThickness
		}
	}
	return baseFields(m, surface, bed, constant(n, u.IceThickness), constant(n, u.MeltRate), phi,
		constant(n, u.SlidingVelocity), constant(n, u.SheetThickness))
}

// baseFields adds the state read by the optional components to the drainage
// inputs.
func baseFields(m *mesh.Mesh, surface, bed, H, melt, phi, ub, h []float64) field.Set {
	n := m.NumberOfNodes()
	return field.NewSet(
		field.Must(components.SurfaceElevation, surface, "m", types.Node),
		field.Must(components.BedElevation, bed, "m", types.Node),
		field.Must(components.IceThickness, H, "m", types.Node),
		field.Must(components.BasalMeltRate, melt, "m/s", types.Node),
		field.Must(components.Potential, phi, "Pa", types.Node),
		field.Must(components.SlidingVelocity, ub, "m/s", types.Node),
		field.Must(components.SheetFlowHeight, h, "m", types.Node),
		field.Must(components.TillThickness, constant(n, 0), "m", types.Node),
		field.Must(components.FringeThickness, constant(n, components.DefaultFringeParams().MinFringe), "m", types.Node),
		field.Must(components.DispersedThickness, constant(n, 0), "m", types.Node),
		field.Must(components.TemperatureGradient, constant(n, DefaultTemperatureGradient), "K/m", types.Node),
	)
}

func constant(n int, v float64) (out []float64) {
	out = make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return
}
