package cmd

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ghodss/yaml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/glacierflow/InputParameters"
	"github.com/notargets/glacierflow/components"
	"github.com/notargets/glacierflow/fvm"
	"github.com/notargets/glacierflow/grids"
	"github.com/notargets/glacierflow/types"
)

var lattice = []byte(`NDIME= 2
NELEM= 8
5 0 1 4 0
5 0 4 3 1
5 1 2 5 2
5 1 4 5 3
5 3 4 7 4
5 3 7 6 5
5 4 5 8 6
5 4 8 7 7
NPOIN= 9
0 0 0
1 0 1
2 0 2
0 1 3
1 1 4
2 1 5
0 2 6
1 2 7
2 2 8
NMARK= 1
MARKER_TAG= boundary
MARKER_ELEMS= 8
3 0 1
3 1 2
3 2 5
3 5 8
3 8 7
3 7 6
3 6 3
3 3 0
`)

func TestBuildMesh(t *testing.T) {
	{ // Raster edges
		mp := InputParameters.MeshParameters{Type: "raster", Rows: 4, Cols: 5, Spacing: 10,
			EdgeStatus: map[string]string{"Top": "wall", "left": "outlet"}}
		m, err := BuildMesh(mp, "uniform")
		require.NoError(t, err)
		assert.Equal(t, 20, m.NumberOfNodes())
		top := grids.EdgeNodes(4, 5, grids.Top)
		for _, n := range top[1 : len(top)-1] {
			assert.Equal(t, types.Closed, m.Status(n))
		}
		// edges apply in name order, so the left edge takes the corner
		assert.Equal(t, types.FixedValue, m.Status(15))
		assert.Equal(t, types.FixedValue, m.Status(5))

		mp.EdgeStatus["diagonal"] = "closed"
		_, err = BuildMesh(mp, "uniform")
		assert.Error(t, err)
	}
	{ // GlaDS raster drains through x = 0 only
		mp := InputParameters.MeshParameters{Type: "raster", Rows: 4, Cols: 5, Spacing: 10}
		m, err := BuildMesh(mp, "glads")
		require.NoError(t, err)
		assert.Equal(t, types.Closed, m.Status(9))
		assert.Equal(t, types.FixedValue, m.Status(5))
	}
	{
		m, err := BuildMesh(InputParameters.MeshParameters{Type: "hex", Rows: 5, Cols: 6, Spacing: 1}, "uniform")
		require.NoError(t, err)
		assert.Equal(t, 30, m.NumberOfNodes())
	}
	{
		fname := filepath.Join(t.TempDir(), "lattice.su2")
		require.NoError(t, os.WriteFile(fname, lattice, 0644))
		mp := InputParameters.MeshParameters{Type: "su2", File: fname,
			MarkerStatus: map[string]string{"boundary": "closed"}}
		m, err := BuildMesh(mp, "uniform")
		require.NoError(t, err)
		assert.Equal(t, 1, m.NumberOfCells())
		assert.Equal(t, types.Closed, m.Status(0))

		var buf bytes.Buffer
		rp := InputParameters.NewRunParameters()
		rp.Mesh = mp
		_, err = DescribeMesh(rp, &buf)
		require.NoError(t, err)
		assert.Contains(t, buf.String(), "8 closed nodes")
		assert.Contains(t, buf.String(), "1 core nodes")
	}
	{
		_, err := BuildMesh(InputParameters.MeshParameters{Type: "tetra"}, "uniform")
		assert.Error(t, err)
	}
}

func TestRun(t *testing.T) {
	var (
		dir    = t.TempDir()
		input  = filepath.Join(dir, "input.yaml")
		output = filepath.Join(dir, "out.yaml")
	)
	require.NoError(t, os.WriteFile(input, []byte(`
Title: slab
Mesh: {Type: raster, Rows: 4, Cols: 6, Spacing: 100}
Scenario: uniform
TimeStep: 3600
Steps: 3
LinearSolver: lu
Components: [glacial_eroder]
Drainage:
  ice_flow_coeff: 0
`), 0644))
	rp, err := readInput(input)
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, Run(rp, output, &buf))
	assert.Contains(t, buf.String(), "\"slab\"")

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	var out Output
	require.NoError(t, yaml.Unmarshal(data, &out))
	assert.Equal(t, "slab", out.Title)
	assert.Equal(t, 3, out.Steps)
	assert.Equal(t, 3*3600., out.Time)
	assert.Len(t, out.X, 24)
	for _, name := range []string{components.Potential, components.SheetFlowHeight, components.TillThickness} {
		assert.Len(t, out.Fields[name], 24, name)
	}

	{ // Errors surface instead of exiting
		_, err := readInput("")
		assert.Error(t, err)
		rp.Components = []string{"tvd_advection"}
		assert.Error(t, Run(rp, "", &buf))
		rp.Components = nil
		rp.Drainage = map[string]float64{"no_such_parameter": 1}
		assert.Error(t, Run(rp, "", &buf))
	}
	{ // The GlaDS margin starts near overburden and has no inlet to pin
		rp.Drainage = nil
		rp.Scenario = "glads"
		rp.Mesh = InputParameters.MeshParameters{Type: "raster", Rows: 5, Cols: 8, Spacing: 400}
		rp.TimeStep, rp.Steps = 86400, 1
		rp.BoundaryPolicy = "inlets"
		assert.True(t, errors.Is(Run(rp, "", &buf), fvm.ErrIllPosed))
		rp.BoundaryPolicy = ""
		assert.NoError(t, Run(rp, "", &buf))
	}
}
