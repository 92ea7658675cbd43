package grids

import (
	"fmt"

	"github.com/notargets/glacierflow/mesh"
	"github.com/notargets/glacierflow/types"
)

type Edge uint8

const (
	Right Edge = iota
	Top
	Left
	Bottom
)

var EdgeNameMap = map[string]Edge{
	"right":  Right,
	"top":    Top,
	"left":   Left,
	"bottom": Bottom,
}

type rasterConfig struct {
	x0, y0     float64
	edgeStatus []edgeStatus
}

type edgeStatus struct {
	edge   Edge
	status types.NodeStatus
}

type RasterOption func(*rasterConfig)

func WithOrigin(x0, y0 float64) RasterOption {
	return func(c *rasterConfig) { c.x0, c.y0 = x0, y0 }
}

// WithEdgeStatus sets the status of every perimeter node on one edge.
// Corner nodes take the status of the last edge applied to them.
func WithEdgeStatus(e Edge, s types.NodeStatus) RasterOption {
	return func(c *rasterConfig) {
		c.edgeStatus = append(c.edgeStatus, edgeStatus{e, s})
	}
}

/*
RasterTopology lays out a rows x cols grid with landlab's numbering:
  - nodes row-major from the lower left
  - links row by row, the horizontal links of a row followed by the
    vertical links leading up from it, all pointing in +x or +y
  - links_at_node ordered east, north, west, south
  - one cell per interior node, one face per link touching a cell
  - square patches, nodes counter-clockwise from the upper right
*/
func RasterTopology(rows, cols int, dx, dy float64, opts ...RasterOption) (t mesh.Topology, err error) {
	if rows < 2 || cols < 2 {
		err = fmt.Errorf("raster needs at least 2x2 nodes, have %dx%d", rows, cols)
		return
	}
	if !(dx > 0) || !(dy > 0) {
		err = fmt.Errorf("raster spacing must be positive, have %g, %g", dx, dy)
		return
	}
	var (
		cfg      = &rasterConfig{}
		nNodes   = rows * cols
		block    = 2*cols - 1
		nLinks   = rows*(cols-1) + (rows-1)*cols
		nPatches = (rows - 1) * (cols - 1)
		node     = func(r, c int) int { return r*cols + c }
		horiz    = func(r, c int) int { return r*block + c }
		vert     = func(r, c int) int { return r*block + cols - 1 + c }
		patch    = func(r, c int) int { return r*(cols-1) + c }
	)
	for _, opt := range opts {
		opt(cfg)
	}
	t = mesh.Topology{
		NodeX:               make([]float64, nNodes),
		NodeY:               make([]float64, nNodes),
		StatusAtNode:        make([]types.NodeStatus, nNodes),
		NodeAtLinkTail:      make([]int, nLinks),
		NodeAtLinkHead:      make([]int, nLinks),
		LinksAtNode:         make([][]int, nNodes),
		LinkDirsAtNode:      make([][]int, nNodes),
		AdjacentNodesAtNode: make([][]int, nNodes),
		NodesAtPatch:        make([][]int, nPatches),
		PatchesAtNode:       make([][]int, nNodes),
		CellAtNode:          make([]int, nNodes),
		FaceAtLink:          make([]int, nLinks),
		CornerX:             make([]float64, nPatches),
		CornerY:             make([]float64, nPatches),
	}
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			n := node(r, c)
			t.NodeX[n], t.NodeY[n] = cfg.x0+float64(c)*dx, cfg.y0+float64(r)*dy
			if r == 0 || c == 0 || r == rows-1 || c == cols-1 {
				t.StatusAtNode[n] = types.FixedValue
			}
			links := []int{-1, -1, -1, -1}
			dirs := []int{0, 0, 0, 0}
			adj := []int{-1, -1, -1, -1}
			if c < cols-1 {
				links[0], dirs[0], adj[0] = horiz(r, c), 1, n+1
				t.NodeAtLinkTail[horiz(r, c)], t.NodeAtLinkHead[horiz(r, c)] = n, n+1
			}
			if r < rows-1 {
				links[1], dirs[1], adj[1] = vert(r, c), 1, n+cols
				t.NodeAtLinkTail[vert(r, c)], t.NodeAtLinkHead[vert(r, c)] = n, n+cols
			}
			if c > 0 {
				links[2], dirs[2], adj[2] = horiz(r, c-1), -1, n-1
			}
			if r > 0 {
				links[3], dirs[3], adj[3] = vert(r-1, c), -1, n-cols
			}
			t.LinksAtNode[n], t.LinkDirsAtNode[n], t.AdjacentNodesAtNode[n] = links, dirs, adj
			patches := []int{-1, -1, -1, -1}
			if r < rows-1 && c < cols-1 {
				patches[0] = patch(r, c)
			}
			if r < rows-1 && c > 0 {
				patches[1] = patch(r, c-1)
			}
			if r > 0 && c > 0 {
				patches[2] = patch(r-1, c-1)
			}
			if r > 0 && c < cols-1 {
				patches[3] = patch(r-1, c)
			}
			t.PatchesAtNode[n] = patches
		}
	}
	for r := 0; r < rows-1; r++ {
		for c := 0; c < cols-1; c++ {
			p := patch(r, c)
			t.NodesAtPatch[p] = []int{node(r+1, c+1), node(r+1, c), node(r, c), node(r, c+1)}
			t.CornerX[p], t.CornerY[p] = cfg.x0+(float64(c)+0.5)*dx, cfg.y0+(float64(r)+0.5)*dy
		}
	}
	for _, es := range cfg.edgeStatus {
		if es.status == types.Core {
			err = fmt.Errorf("perimeter nodes cannot be core nodes")
			return
		}
		for _, n := range edgeNodes(rows, cols, es.edge) {
			t.StatusAtNode[n] = es.status
		}
	}
	for n := range t.CellAtNode {
		t.CellAtNode[n] = -1
		if t.StatusAtNode[n] == types.Core {
			t.CellAtNode[n] = len(t.NodeAtCell)
			t.NodeAtCell = append(t.NodeAtCell, n)
			t.AreaOfCell = append(t.AreaOfCell, dx*dy)
		}
	}
	for l := 0; l < nLinks; l++ {
		t.FaceAtLink[l] = -1
		tl, hd := t.NodeAtLinkTail[l], t.NodeAtLinkHead[l]
		if t.CellAtNode[tl] == -1 && t.CellAtNode[hd] == -1 {
			continue
		}
		t.FaceAtLink[l] = len(t.LinkAtFace)
		t.LinkAtFace = append(t.LinkAtFace, l)
		r, c := tl/cols, tl%cols
		if hd == tl+1 { // horizontal link, vertical face
			t.LengthOfFace = append(t.LengthOfFace, dy)
			t.CornersAtFace = append(t.CornersAtFace, [2]int{patch(r-1, c), patch(r, c)})
		} else {
			t.LengthOfFace = append(t.LengthOfFace, dx)
			t.CornersAtFace = append(t.CornersAtFace, [2]int{patch(r, c-1), patch(r, c)})
		}
	}
	return
}

func NewRaster(rows, cols int, dx, dy float64, opts ...RasterOption) (m *mesh.Mesh, err error) {
	var t mesh.Topology
	if t, err = RasterTopology(rows, cols, dx, dy, opts...); err != nil {
		return
	}
	return mesh.New(t)
}

func edgeNodes(rows, cols int, e Edge) (nodes []int) {
	switch e {
	case Right:
		for r := 0; r < rows; r++ {
			nodes = append(nodes, r*cols+cols-1)
		}
	case Top:
		for c := 0; c < cols; c++ {
			nodes = append(nodes, (rows-1)*cols+c)
		}
	case Left:
		for r := 0; r < rows; r++ {
			nodes = append(nodes, r*cols)
		}
	case Bottom:
		for c := 0; c < cols; c++ {
			nodes = append(nodes, c)
		}
	}
	return
}

// EdgeNodes lists the perimeter nodes of one raster edge in increasing order.
func EdgeNodes(rows, cols int, e Edge) []int { return edgeNodes(rows, cols, e) }
