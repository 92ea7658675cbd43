package model

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/glacierflow/components"
	"github.com/notargets/glacierflow/drainage"
	"github.com/notargets/glacierflow/field"
	"github.com/notargets/glacierflow/fvm"
	"github.com/notargets/glacierflow/grids"
	"github.com/notargets/glacierflow/types"
)

func finite(t *testing.T, fields field.Set, names ...string) {
	for _, name := range names {
		f, ok := fields[name]
		require.True(t, ok, name)
		for i := 0; i < f.Len(); i++ {
			v := f.At(i)
			assert.False(t, math.IsNaN(v) || math.IsInf(v, 0), "%s[%d] = %g", name, i, v)
		}
	}
}

func TestGlaDS(t *testing.T) {
	m, err := GlaDSMesh(5, 8, 400)
	require.NoError(t, err)
	assert.Equal(t, types.Closed, m.Status(7))
	assert.Equal(t, types.FixedValue, m.Status(8))
	p := GlaDSParams()
	assert.Equal(t, 0.5, p.BedBumpHeight)
	fields := GlaDS(m, p)
	{ // Every open boundary node is an outlet, so pinning inlets anchors nothing
		dm, err := drainage.New(m, p)
		require.NoError(t, err)
		md, err := New(m, fields, Step{Name: "drainage", Component: dm})
		require.NoError(t, err)
		err = md.Update(86400)
		assert.True(t, errors.Is(err, fvm.ErrIllPosed))
		assert.Equal(t, 0, md.Steps)
		tags, err := dm.ClassifyBoundaries(fields)
		require.NoError(t, err)
		assert.Equal(t, 0, drainage.TagCounts(tags)[types.Inflow])
	}
	dm, err := drainage.New(m, p, drainage.WithBoundaryPolicy(GlaDSPolicy))
	require.NoError(t, err)
	steps, err := Steps(m, dm, "frozen_fringe", "glacial_eroder", "shallow_ice", "dispersed_layer")
	require.NoError(t, err)
	var names []string
	for _, s := range steps {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{"drainage", "effective_pressure", "frozen_fringe", "glacial_eroder",
		"shallow_ice", "dispersed_layer"}, names)

	assert.Equal(t, 0., fields[components.Potential].At(8))
	assert.InDelta(t, 1500, fields[components.SurfaceElevation].At(7), 20)
	md, err := New(m, fields, steps...)
	require.NoError(t, err)

	var reports int
	elapsed, err := md.Solve(86400, 1, 10, func(*Model) { reports++ })
	require.NoError(t, err)
	assert.Greater(t, int64(elapsed), int64(-1))
	assert.Equal(t, 1, reports)
	assert.Equal(t, 1, md.Steps)
	assert.Equal(t, 86400., md.Time)
	out := md.Fields()
	finite(t, out, components.Potential, components.SheetFlowHeight, components.EffectivePressure,
		components.FringeThickness, components.TillThickness, components.DeformationVelocity,
		components.DispersedThickness)
	assert.Equal(t, m.NumberOfLinks(), out[components.DeformationVelocity].Len())
	// outlet edge holds the base potential
	for _, i := range grids.EdgeNodes(5, 8, grids.Left) {
		if m.Status(i) != types.Closed {
			assert.Equal(t, 0., out[components.Potential].At(i))
		}
	}
	// the initial set is untouched
	assert.Equal(t, 1e-3, fields[components.SheetFlowHeight].At(12))

	summary := md.Summarize(components.Potential, components.DeformationVelocity, "missing")
	require.Len(t, summary, 1)
	assert.Equal(t, components.Potential, summary[0].Name)
	assert.Equal(t, 0., summary[0].Min)
}

func TestUniform(t *testing.T) {
	m, err := grids.NewRaster(4, 6, 100, 100)
	require.NoError(t, err)
	p := UniformParams()
	assert.Equal(t, 0., p.IceFlowCoeff)
	dm, err := drainage.New(m, p)
	require.NoError(t, err)
	assert.Equal(t, drainage.InletsFixed, dm.Policy())
	steps, err := Steps(m, dm, "glacial_eroder")
	require.NoError(t, err)
	u := DefaultUniform()
	md, err := New(m, u.Fields(m, p), steps...)
	require.NoError(t, err)

	var reported []int
	_, err = md.Solve(3600, 5, 2, func(md *Model) { reported = append(reported, md.Steps) })
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 4, 5}, reported)
	assert.Equal(t, 5, md.Steps)
	var (
		till = md.Fields()[components.TillThickness]
		rate = components.DefaultEroderParams().RateCoefficient * u.SlidingVelocity * u.SlidingVelocity
	)
	assert.InDelta(t, 5*3600*rate, till.At(0), 1e-12)
	finite(t, md.Fields(), components.Potential, components.SheetFlowHeight)
	var (
		h   = md.Fields()[components.SheetFlowHeight]
		phi = md.Fields()[components.Potential]
		top = p.WaterDensity * p.Gravity * u.BedSlope * 500
	)
	for _, i := range m.CoreNodes() {
		assert.Greater(t, h.At(i), u.SheetThickness)
		// opening cavities draw the potential below the inlet edge
		assert.Less(t, phi.At(i), top)
	}
	tags, err := dm.ClassifyBoundaries(md.Fields())
	require.NoError(t, err)
	// the right edge away from its corners
	assert.Equal(t, types.Inflow, tags[11])
	assert.Equal(t, types.Inflow, tags[17])
}

func TestModelErrors(t *testing.T) {
	m, err := grids.NewRaster(4, 6, 100, 100)
	require.NoError(t, err)
	dm, err := drainage.New(m, drainage.DefaultParams())
	require.NoError(t, err)
	fields := DefaultUniform().Fields(m, dm.Params())

	_, err = Steps(m, dm, "tvd_advection")
	assert.True(t, errors.Is(err, ErrUnknownComponent))

	// a fringe with no effective pressure published ahead of it
	fringe, err := components.NewFrozenFringe(m, components.DefaultFringeParams())
	require.NoError(t, err)
	_, err = New(m, fields, Step{Name: "fringe", Component: fringe})
	assert.True(t, errors.Is(err, field.ErrMissingField))

	// no component produces sliding velocity
	sia, err := components.NewShallowIceApproximation(m, components.DefaultSIAParams())
	require.NoError(t, err)
	eroder, err := components.NewSimpleGlacialEroder(m, components.DefaultEroderParams())
	require.NoError(t, err)
	bad := fields.With()
	delete(bad, components.SlidingVelocity)
	_, err = New(m, bad, Step{Name: "sia", Component: sia}, Step{Name: "eroder", Component: eroder})
	assert.True(t, errors.Is(err, field.ErrMissingField))

	short := fields.With(field.Must(components.IceThickness, []float64{1}, "m", types.Node))
	_, err = New(m, short)
	assert.True(t, errors.Is(err, field.ErrLength))

	// the eroder wants sliding at nodes, not links
	links := fields.With(field.Must(components.SlidingVelocity, make([]float64, m.NumberOfLinks()), "m/s", types.Link))
	_, err = New(m, links, Step{Name: "eroder", Component: eroder})
	assert.True(t, errors.Is(err, field.ErrWrongLocation))

	// failed update leaves the model alone
	md, err := New(m, fields, Step{Name: "drainage", Component: dm})
	require.NoError(t, err)
	err = md.Update(-1)
	assert.True(t, errors.Is(err, components.ErrTimeStep))
	assert.Equal(t, 0, md.Steps)
	assert.Equal(t, 0., md.Time)
}
