package mesh_test

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/glacierflow/grids"
	"github.com/notargets/glacierflow/mesh"
	"github.com/notargets/glacierflow/types"
)

func rasterTopology(t *testing.T) mesh.Topology {
	topo, err := grids.RasterTopology(3, 4, 1, 1)
	require.NoError(t, err)
	return topo
}

func TestValidation(t *testing.T) {
	corrupt := map[string]func(topo *mesh.Topology){
		"flipped direction": func(topo *mesh.Topology) { topo.LinkDirsAtNode[5][0] = -1 },
		"duplicate link": func(topo *mesh.Topology) {
			topo.NodeAtLinkTail[1], topo.NodeAtLinkHead[1] = 0, 1
		},
		"misaligned neighbor": func(topo *mesh.Topology) { topo.AdjacentNodesAtNode[5][0] = 4 },
		"ragged table":        func(topo *mesh.Topology) { topo.LinksAtNode[2] = []int{1, 5, 0} },
		"index out of range":  func(topo *mesh.Topology) { topo.LinksAtNode[0][2] = 99 },
		"core without cell":   func(topo *mesh.Topology) { topo.StatusAtNode[0] = types.Core },
		"cell not inverse":    func(topo *mesh.Topology) { topo.NodeAtCell[0] = 6 },
		"zero cell area":      func(topo *mesh.Topology) { topo.AreaOfCell[1] = 0 },
		"missing face": func(topo *mesh.Topology) {
			topo.FaceAtLink[topo.LinkAtFace[0]] = -1
		},
		"short status":      func(topo *mesh.Topology) { topo.StatusAtNode = topo.StatusAtNode[:3] },
		"patch not listed":  func(topo *mesh.Topology) { topo.PatchesAtNode[0][0] = -1 },
		"short patch":       func(topo *mesh.Topology) { topo.NodesAtPatch[0][2] = -1 },
		"coincident nodes":  func(topo *mesh.Topology) { topo.NodeX[1] = 0 },
		"unknown status":    func(topo *mesh.Topology) { topo.StatusAtNode[0] = 9 },
		"padding with link": func(topo *mesh.Topology) { topo.LinkDirsAtNode[0][2] = 1 },
	}
	for name, fn := range corrupt {
		topo := rasterTopology(t)
		fn(&topo)
		_, err := mesh.New(topo)
		if assert.Error(t, err, name) {
			assert.True(t, errors.Is(err, mesh.ErrTopology), name)
		}
	}
	{ // The untouched topology is valid, and later edits to it do not leak in
		topo := rasterTopology(t)
		m, err := mesh.New(topo)
		require.NoError(t, err)
		topo.NodeX[0] = 100
		topo.LinksAtNode[5][0] = -1
		assert.Equal(t, 0., m.NodeX(0))
		l, _ := m.LinkAt(5, 0)
		assert.NotEqual(t, -1, l)
		links := m.LinksAtNode(5)
		links[0] = 99
		assert.NotEqual(t, 99, m.LinksAtNode(5)[0])
		assert.Equal(t, 12, m.Count(types.Node))
		assert.Equal(t, 2, m.Count(types.Cell))
		assert.Equal(t, 7, m.Count(types.Face))
		assert.Equal(t, -1, m.LinkBetween(0, 5))
		assert.Equal(t, -1, m.LinkBetween(3, 3))
		assert.Equal(t, 1., m.CellAreaAtNode(5))
		assert.Equal(t, 0., m.CellAreaAtNode(0))
	}
}

func TestMappers(t *testing.T) {
	m, err := grids.NewRaster(3, 4, 1, 1)
	require.NoError(t, err)
	var (
		nNodes = m.NumberOfNodes()
		nLinks = m.NumberOfLinks()
		x, y   = m.XOfNode(), m.YOfNode()
		ones   = make([]float64, nLinks)
		ids    = make([]float64, nLinks)
	)
	for l := range ones {
		ones[l], ids[l] = 1, float64(l)
	}
	{ // Link means and differences
		z := make([]float64, nNodes)
		for n := range z {
			z[n] = 2*x[n] + 3*y[n]
		}
		mean := m.MapMeanOfLinkNodesToLink(z)
		grad := m.CalcGradAtLink(z)
		for l := 0; l < nLinks; l++ {
			tl, hd := m.NodeAtLinkTail(l), m.NodeAtLinkHead(l)
			assert.InDelta(t, (z[tl]+z[hd])/2, mean[l], 1e-12)
			if m.AngleOfLink(l) == 0 {
				assert.InDelta(t, 2., grad[l], 1e-12)
			} else {
				assert.InDelta(t, 3., grad[l], 1e-12)
			}
		}
	}
	{ // Mean of links at node ignores padding
		mean := m.MapMeanOfLinksToNode(ids)
		assert.InDelta(t, 1.5, mean[0], 1e-12) // links 0 and 3
		links := m.LinksAtNode(5)
		assert.InDelta(t, float64(links[0]+links[1]+links[2]+links[3])/4, mean[5], 1e-12)
	}
	{ // Signed sums
		sum := m.SumAtNodes(ones)
		assert.Equal(t, 2., sum[0])
		assert.Equal(t, 0., sum[5])
		assert.Equal(t, -2., sum[nNodes-1])
	}
	{ // Vectors onto links and back
		vx, vy := make([]float64, nNodes), make([]float64, nNodes)
		for n := range vx {
			vx[n], vy[n] = 1, 2
		}
		proj := m.MapVectorsToLinks(vx, vy)
		rx, ry := m.ResolveValuesOnLinks(proj)
		for l := 0; l < nLinks; l++ {
			if m.AngleOfLink(l) == 0 {
				assert.InDelta(t, 1., proj[l], 1e-12)
				assert.InDelta(t, 1., rx[l], 1e-12)
				assert.InDelta(t, 0., ry[l], 1e-12)
			} else {
				assert.InDelta(t, 2., proj[l], 1e-12)
				assert.InDelta(t, 0., rx[l], 1e-12)
				assert.InDelta(t, 2., ry[l], 1e-12)
			}
		}
	}
	{ // Upwind selection
		vals := make([]float64, nNodes)
		for n := range vals {
			vals[n] = float64(10 * n)
		}
		ctrl := make([]float64, nNodes)
		ctrl[0] = 5
		out := m.MapValueAtMaxNodeToLink(ctrl, vals)
		assert.Equal(t, 0., out[0])  // tail 0 controls link 0->1
		assert.Equal(t, 20., out[1]) // tie goes to the head, node 2
		patch := m.MapMeanOfPatchNodesToPatch(vals)
		assert.InDelta(t, (0+10+40+50)/4., patch[0], 1e-12)
	}
	{ // Shape mismatch panics
		assert.Panics(t, func() { m.CalcGradAtLink(make([]float64, 3)) })
		assert.Panics(t, func() { m.SumAtNodes(make([]float64, nNodes)) })
	}
}

func TestDivergence(t *testing.T) {
	{ // Constant link flux has zero divergence at every cell node
		m, err := grids.NewRaster(5, 6, 2, 3)
		require.NoError(t, err)
		q := make([]float64, m.NumberOfLinks())
		for l := range q {
			q[l] = 0.7
		}
		div := m.CalcFluxDivAtNode(q)
		for n := 0; n < m.NumberOfNodes(); n++ {
			assert.InDelta(t, 0., div[n], 1e-12)
		}
	}
	{ // Outflow from a single cell
		m, err := grids.NewRaster(3, 3, 2, 3)
		require.NoError(t, err)
		q := make([]float64, m.NumberOfLinks())
		for k := 0; k < 4; k++ {
			l, dir := m.LinkAt(4, k)
			q[l] = float64(dir)
		}
		div := m.CalcFluxDivAtNode(q)
		assert.InDelta(t, (3+2+3+2)/6., div[4], 1e-12)
		assert.Equal(t, 0., div[0])
	}
	{ // A uniform vector field is divergence free on hexagonal cells
		m, err := grids.NewHex(6, 7, 1.5)
		require.NoError(t, err)
		vx, vy := make([]float64, m.NumberOfNodes()), make([]float64, m.NumberOfNodes())
		for n := range vx {
			vx[n], vy[n] = 0.3, -1.1
		}
		div := m.CalcFluxDivAtNode(m.MapVectorsToLinks(vx, vy))
		for _, n := range m.CoreNodes() {
			assert.InDelta(t, 0., div[n], 1e-12)
		}
	}
}

func TestGradientAtPatch(t *testing.T) {
	m, err := grids.NewRaster(3, 3, 1, 1)
	require.NoError(t, err)
	var (
		x, y = m.XOfNode(), m.YOfNode()
		z    = make([]float64, m.NumberOfNodes())
	)
	for n := range z {
		z[n] = 2*x[n] + 3*y[n]
	}
	normals := m.CalcUnitNormalAtPatch(z)
	for _, nrm := range normals {
		assert.InDeltaSlice(t, []float64{-2 / math.Sqrt(14), -3 / math.Sqrt(14), 1 / math.Sqrt(14)}, nrm[:], 1e-12)
	}
	slope := math.Acos(1 / math.Sqrt(14))
	pSlope, pComp := m.CalcGradAtPatch(z)
	for p := range pSlope {
		assert.InDelta(t, slope, pSlope[p], 1e-12)
		assert.InDelta(t, 2/math.Sqrt(13)*slope, pComp[p][0], 1e-12)
		assert.InDelta(t, 3/math.Sqrt(13)*slope, pComp[p][1], 1e-12)
	}
	nSlope, nComp := m.CalcGradientVectorAtNode(z)
	for n := range nSlope {
		assert.InDelta(t, slope, nSlope[n], 1e-12)
		assert.InDelta(t, 2/math.Sqrt(13)*slope, nComp[n][0], 1e-12)
	}
	{ // Downhill planes have components pointing up the gradient as well
		for n := range z {
			z[n] = -x[n]
		}
		_, comp := m.CalcGradAtPatch(z)
		assert.InDelta(t, -math.Pi/4, comp[0][0], 1e-12)
		assert.InDelta(t, 0., comp[0][1], 1e-12)
	}
	{ // A node outside every patch has no gradient vector
		topo := rasterTopology(t)
		last := len(topo.NodesAtPatch) - 1
		topo.NodesAtPatch = topo.NodesAtPatch[:last]
		for _, row := range topo.PatchesAtNode {
			for k, p := range row {
				if p == last {
					row[k] = -1
				}
			}
		}
		m, err := mesh.New(topo)
		require.NoError(t, err)
		z := m.XOfNode()
		slope, comp := m.CalcGradientVectorAtNode(z)
		assert.True(t, math.IsNaN(slope[11]))
		assert.True(t, math.IsNaN(comp[11][0]))
		assert.True(t, math.IsNaN(comp[11][1]))
		assert.InDelta(t, math.Pi/4, slope[0], 1e-12)

		topo = rasterTopology(t)
		topo.NodesAtPatch, topo.PatchesAtNode = nil, nil
		m, err = mesh.New(topo)
		require.NoError(t, err)
		slope, _ = m.CalcGradientVectorAtNode(z)
		for n := range slope {
			assert.True(t, math.IsNaN(slope[n]), "node %d", n)
		}
	}
}
