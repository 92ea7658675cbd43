package grids

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/glacierflow/mesh"
	"github.com/notargets/glacierflow/types"
)

func checkLinkSymmetry(t *testing.T, m *mesh.Mesh) {
	for l := 0; l < m.NumberOfLinks(); l++ {
		i, j := m.NodeAtLinkTail(l), m.NodeAtLinkHead(l)
		assert.Equal(t, l, m.LinkBetween(i, j))
		assert.Equal(t, m.LinkBetween(i, j), m.LinkBetween(j, i))
	}
	for n := 0; n < m.NumberOfNodes(); n++ {
		for k := 0; k < m.MaxLinksPerNode(); k++ {
			if j := m.AdjacentNodeAt(n, k); j != -1 {
				l, _ := m.LinkAt(n, k)
				assert.Equal(t, l, m.LinkBetween(n, j))
			}
		}
	}
}

func TestRaster(t *testing.T) {
	{ // Counts for a 3x4 raster
		m, err := NewRaster(3, 4, 1, 1)
		require.NoError(t, err)
		assert.Equal(t, 12, m.NumberOfNodes())
		assert.Equal(t, 17, m.NumberOfLinks())
		assert.Equal(t, 6, m.NumberOfPatches())
		assert.Equal(t, 6, m.NumberOfCorners())
		assert.Equal(t, 2, m.NumberOfCells())
		assert.Equal(t, 7, m.NumberOfFaces())
		assert.Equal(t, []int{5, 6}, m.CoreNodes())
		assert.Equal(t, 10, len(m.BoundaryNodes()))
		checkLinkSymmetry(t, m)
	}
	{ // landlab numbering on a 5x5 raster
		m, err := NewRaster(5, 5, 2, 3)
		require.NoError(t, err)
		assert.Equal(t, 6, m.NodeAtCell(0))
		assert.Equal(t, []int{10, 14, 9, 5}, m.LinksAtNode(6))
		assert.Equal(t, []int{1, 1, -1, -1}, m.LinkDirsAtNode(6))
		assert.Equal(t, []int{7, 11, 5, 1}, m.AdjacentNodesAtNode(6))
		assert.Equal(t, []int{0, 4, -1, -1}, m.LinksAtNode(0))
		assert.Equal(t, []int{12, 11, 6, 7}, m.NodesAtPatch(5))
		assert.Equal(t, []int{0, -1, -1, -1}, m.PatchesAtNode(0))
		assert.Equal(t, 6., m.AreaOfCell(0))
		assert.Equal(t, 2., m.LengthOfLink(0))
		assert.Equal(t, 3., m.LengthOfLink(4))
		assert.Equal(t, 0., m.AngleOfLink(0))
		assert.InDelta(t, math.Pi/2, m.AngleOfLink(4), 1e-15)
		f := m.FaceAtLink(9) // horizontal link 5->6
		assert.Equal(t, 3., m.LengthOfFace(f))
		f = m.FaceAtLink(5) // vertical link 1->6
		assert.Equal(t, 2., m.LengthOfFace(f))
		corners, ok := m.CornersAtFace(f)
		assert.True(t, ok)
		x0, _ := m.Corner(corners[0])
		x1, _ := m.Corner(corners[1])
		assert.Equal(t, []float64{1, 3}, []float64{x0, x1})
		assert.Equal(t, -1, m.FaceAtLink(0))
		checkLinkSymmetry(t, m)
		assert.Equal(t, 24, m.NumberOfFaces())
	}
	{ // Edge status
		m, err := NewRaster(4, 4, 1, 1, WithEdgeStatus(Top, types.Closed), WithOrigin(10, 20))
		require.NoError(t, err)
		for _, n := range EdgeNodes(4, 4, Top) {
			assert.Equal(t, types.Closed, m.Status(n))
		}
		assert.Equal(t, types.FixedValue, m.Status(0))
		assert.Equal(t, 10., m.NodeX(0))
		assert.Equal(t, 21., m.NodeY(4))
		// link 9->13 reaches a closed node
		assert.Equal(t, types.Inactive, m.LinkStatus(m.LinkBetween(9, 13)))
		assert.Equal(t, types.Active, m.LinkStatus(m.LinkBetween(5, 1)))
		assert.Equal(t, types.Inactive, m.LinkStatus(m.LinkBetween(0, 1)))
	}
	{ // Bad input
		_, err := NewRaster(1, 4, 1, 1)
		assert.Error(t, err)
		_, err = NewRaster(3, 3, 0, 1)
		assert.Error(t, err)
		_, err = NewRaster(3, 3, 1, 1, WithEdgeStatus(Left, types.Core))
		assert.Error(t, err)
	}
}

func TestHex(t *testing.T) {
	var (
		s = 2.
	)
	m, err := NewHex(5, 6, s)
	require.NoError(t, err)
	assert.Equal(t, 30, m.NumberOfNodes())
	assert.Equal(t, 12, m.NumberOfCells())
	assert.Equal(t, 6, m.MaxLinksPerNode())
	for c := 0; c < m.NumberOfCells(); c++ {
		assert.InDelta(t, math.Sqrt(3)/2*s*s, m.AreaOfCell(c), 1e-12)
	}
	for f := 0; f < m.NumberOfFaces(); f++ {
		assert.InDelta(t, s/math.Sqrt(3), m.LengthOfFace(f), 1e-12)
	}
	for l := 0; l < m.NumberOfLinks(); l++ {
		assert.InDelta(t, s, m.LengthOfLink(l), 1e-12)
		// links point up, or right when horizontal
		a := m.AngleOfLink(l)
		assert.True(t, a > -1e-12 && a < math.Pi-1e-12)
	}
	checkLinkSymmetry(t, m)
	_, err = NewHex(1, 6, s)
	assert.Error(t, err)
}

func TestTriangulation(t *testing.T) {
	var (
		x = []float64{0, 1, 2, 0, 1, 2, 0, 1, 2}
		y = []float64{0, 0, 0, 1, 1, 1, 2, 2, 2}
		// each unit square split along its rising diagonal, some clockwise
		tris = [][3]int{
			{0, 1, 4}, {0, 4, 3},
			{1, 2, 5}, {1, 4, 5},
			{3, 4, 7}, {3, 7, 6},
			{4, 5, 8}, {4, 8, 7},
		}
	)
	{ // One interior node with a unit square cell
		m, err := FromTriangulation(x, y, tris)
		require.NoError(t, err)
		assert.Equal(t, 1, m.NumberOfCells())
		assert.Equal(t, 4, m.NodeAtCell(0))
		assert.InDelta(t, 1., m.AreaOfCell(0), 1e-12)
		assert.Equal(t, 8, m.NumberOfPatches())
		assert.Equal(t, 16, m.NumberOfLinks())
		assert.Equal(t, 6, m.NumberOfFaces())
		assert.Equal(t, 6, m.MaxLinksPerNode())
		// the diagonals carry zero-length faces
		assert.InDelta(t, 0., m.LengthOfFace(m.FaceAtLink(m.LinkBetween(0, 4))), 1e-12)
		assert.InDelta(t, 1., m.LengthOfFace(m.FaceAtLink(m.LinkBetween(4, 5))), 1e-12)
		for p := 0; p < m.NumberOfPatches(); p++ {
			assert.InDelta(t, 0.5, m.AreaOfPatch(p), 1e-12)
		}
		checkLinkSymmetry(t, m)
	}
	{ // Hull markers
		m, err := FromTriangulation(x, y, tris, WithNodeStatus(map[int]types.NodeStatus{2: types.Closed}))
		require.NoError(t, err)
		assert.Equal(t, types.Closed, m.Status(2))
		_, err = FromTriangulation(x, y, tris, WithNodeStatus(map[int]types.NodeStatus{4: types.Closed}))
		assert.Error(t, err)
		_, err = FromTriangulation(x, y, tris, WithNodeStatus(map[int]types.NodeStatus{0: types.Core}))
		assert.Error(t, err)
	}
	{ // Bad triangles
		_, err := FromTriangulation(x, y, [][3]int{{0, 1, 2}})
		assert.Error(t, err)
		_, err = FromTriangulation(x, y, [][3]int{{0, 1, 9}})
		assert.Error(t, err)
		_, err = FromTriangulation(x, y[:3], tris)
		assert.Error(t, err)
	}
}
