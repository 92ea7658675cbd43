package mesh

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/notargets/glacierflow/types"
)

var ErrTopology = errors.New("invalid mesh topology")

/*
Topology is the connectivity and geometry handed over by a mesh generator.
Fixed-width tables use -1 for unused slots. LinkDirsAtNode is +1 where the
node is the tail of the link (outgoing) and -1 where it is the head.
AdjacentNodesAtNode is aligned slot by slot with LinksAtNode.
*/
type Topology struct {
	NodeX, NodeY        []float64
	StatusAtNode        []types.NodeStatus
	NodeAtLinkTail      []int
	NodeAtLinkHead      []int
	LinksAtNode         [][]int
	LinkDirsAtNode      [][]int
	AdjacentNodesAtNode [][]int
	NodesAtPatch        [][]int // counter-clockwise, first three span the patch plane
	PatchesAtNode       [][]int
	CellAtNode          []int
	NodeAtCell          []int
	FaceAtLink          []int
	LinkAtFace          []int
	CornerX, CornerY    []float64
	CornersAtFace       [][2]int
	LengthOfFace        []float64
	AreaOfCell          []float64
}

// Mesh is an immutable, validated dual graph. It is safe for concurrent use.
type Mesh struct {
	nNodes, nLinks, nPatches, nCorners, nFaces, nCells int

	x, y           []float64
	status         []types.NodeStatus
	tail, head     []int
	linkWidth      int
	linksAtNode    []int
	linkDirsAtNode []int
	adjAtNode      []int
	patchWidth     int
	nodesAtPatch   []int
	nodePatchWidth int
	patchesAtNode  []int
	cellAtNode     []int
	nodeAtCell     []int
	faceAtLink     []int
	linkAtFace     []int
	cornerX        []float64
	cornerY        []float64
	cornersAtFace  [][2]int
	faceLength     []float64
	cellArea       []float64

	// Derived
	linkLength   []float64
	linkCos      []float64
	linkSin      []float64
	patchArea    []float64
	linkStatus   []types.LinkStatus
	coreNodes    []int
	boundary     []int
	activeLinks  []int
	linkByNodes  map[types.EdgeKey]int
	cellAreaNode []float64
}

func topoErr(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrTopology, fmt.Sprintf(format, args...))
}

// New validates t and copies it into a Mesh. The caller keeps ownership of t.
func New(t Topology) (m *Mesh, err error) {
	m = &Mesh{
		nNodes:   len(t.NodeX),
		nLinks:   len(t.NodeAtLinkTail),
		nPatches: len(t.NodesAtPatch),
		nCorners: len(t.CornerX),
		nFaces:   len(t.LinkAtFace),
		nCells:   len(t.NodeAtCell),
	}
	if err = m.loadArrays(t); err != nil {
		return nil, err
	}
	if err = m.checkLinks(); err != nil {
		return nil, err
	}
	if err = m.checkNodeTables(); err != nil {
		return nil, err
	}
	if err = m.checkCellsAndFaces(); err != nil {
		return nil, err
	}
	if err = m.checkPatches(); err != nil {
		return nil, err
	}
	m.derive()
	return
}

func checkLen(name string, got, want int) error {
	if got != want {
		return topoErr("%s has length %d, expected %d", name, got, want)
	}
	return nil
}

// flatten packs a fixed-width table row-major and range checks its entries.
func flatten(name string, rows [][]int, nRows, limit int) (flat []int, width int, err error) {
	if err = checkLen(name, len(rows), nRows); err != nil {
		return
	}
	if nRows == 0 {
		return
	}
	width = len(rows[0])
	flat = make([]int, 0, nRows*width)
	for i, row := range rows {
		if len(row) != width {
			err = topoErr("%s row %d has width %d, expected %d", name, i, len(row), width)
			return
		}
		for k, v := range row {
			if v < -1 || v >= limit {
				err = topoErr("%s[%d][%d] = %d is outside [-1,%d)", name, i, k, v, limit)
				return
			}
		}
		flat = append(flat, row...)
	}
	return
}

func (m *Mesh) loadArrays(t Topology) (err error) {
	var (
		nn = m.nNodes
	)
	for _, c := range []struct {
		name      string
		got, want int
	}{
		{"y_of_node", len(t.NodeY), nn},
		{"status_at_node", len(t.StatusAtNode), nn},
		{"cell_at_node", len(t.CellAtNode), nn},
		{"node_at_link_head", len(t.NodeAtLinkHead), m.nLinks},
		{"face_at_link", len(t.FaceAtLink), m.nLinks},
		{"area_of_cell", len(t.AreaOfCell), m.nCells},
		{"length_of_face", len(t.LengthOfFace), m.nFaces},
		{"y_of_corner", len(t.CornerY), m.nCorners},
	} {
		if err = checkLen(c.name, c.got, c.want); err != nil {
			return
		}
	}
	if m.nCorners > 0 {
		if err = checkLen("corners_at_face", len(t.CornersAtFace), m.nFaces); err != nil {
			return
		}
	} else if len(t.CornersAtFace) != 0 {
		return topoErr("corners_at_face given without corner coordinates")
	}
	if m.linksAtNode, m.linkWidth, err = flatten("links_at_node", t.LinksAtNode, nn, m.nLinks); err != nil {
		return
	}
	var w int
	if m.linkDirsAtNode, w, err = flatten("link_dirs_at_node", t.LinkDirsAtNode, nn, 2); err != nil {
		return
	}
	if nn > 0 && w != m.linkWidth {
		return topoErr("link_dirs_at_node width %d differs from links_at_node width %d", w, m.linkWidth)
	}
	if m.adjAtNode, w, err = flatten("adjacent_nodes_at_node", t.AdjacentNodesAtNode, nn, nn); err != nil {
		return
	}
	if nn > 0 && w != m.linkWidth {
		return topoErr("adjacent_nodes_at_node width %d differs from links_at_node width %d", w, m.linkWidth)
	}
	if m.nodesAtPatch, m.patchWidth, err = flatten("nodes_at_patch", t.NodesAtPatch, m.nPatches, nn); err != nil {
		return
	}
	if m.nPatches > 0 {
		if m.patchesAtNode, m.nodePatchWidth, err = flatten("patches_at_node", t.PatchesAtNode, nn, m.nPatches); err != nil {
			return
		}
	} else if len(t.PatchesAtNode) != 0 && len(t.PatchesAtNode[0]) != 0 {
		return topoErr("patches_at_node given without patches")
	}
	m.x, m.y = slices.Clone(t.NodeX), slices.Clone(t.NodeY)
	m.status = slices.Clone(t.StatusAtNode)
	m.tail, m.head = slices.Clone(t.NodeAtLinkTail), slices.Clone(t.NodeAtLinkHead)
	m.cellAtNode, m.nodeAtCell = slices.Clone(t.CellAtNode), slices.Clone(t.NodeAtCell)
	m.faceAtLink, m.linkAtFace = slices.Clone(t.FaceAtLink), slices.Clone(t.LinkAtFace)
	m.cornerX, m.cornerY = slices.Clone(t.CornerX), slices.Clone(t.CornerY)
	m.cornersAtFace = slices.Clone(t.CornersAtFace)
	m.faceLength, m.cellArea = slices.Clone(t.LengthOfFace), slices.Clone(t.AreaOfCell)
	for i, s := range m.status {
		if s > types.Closed {
			return topoErr("status_at_node[%d] = %d is not a node status", i, s)
		}
	}
	return
}

func (m *Mesh) checkLinks() (err error) {
	m.linkByNodes = make(map[types.EdgeKey]int, m.nLinks)
	for l := 0; l < m.nLinks; l++ {
		t, h := m.tail[l], m.head[l]
		if t < 0 || t >= m.nNodes || h < 0 || h >= m.nNodes {
			return topoErr("link %d joins %d and %d, outside [0,%d)", l, t, h, m.nNodes)
		}
		if t == h {
			return topoErr("link %d is a loop at node %d", l, t)
		}
		key := types.NewEdgeKey([2]int{t, h})
		if prev, ok := m.linkByNodes[key]; ok {
			return topoErr("links %d and %d both join nodes %d and %d", prev, l, t, h)
		}
		m.linkByNodes[key] = l
		if math.Hypot(m.x[h]-m.x[t], m.y[h]-m.y[t]) == 0 {
			return topoErr("link %d has zero length", l)
		}
	}
	return
}

func (m *Mesh) checkNodeTables() (err error) {
	var (
		atTail = make([]int, m.nLinks)
		atHead = make([]int, m.nLinks)
	)
	for n := 0; n < m.nNodes; n++ {
		for k := 0; k < m.linkWidth; k++ {
			var (
				ind = n*m.linkWidth + k
				l   = m.linksAtNode[ind]
				dir = m.linkDirsAtNode[ind]
				adj = m.adjAtNode[ind]
			)
			if l == -1 {
				if dir != 0 || adj != -1 {
					return topoErr("node %d slot %d is padding but has dir %d, neighbor %d", n, k, dir, adj)
				}
				continue
			}
			switch {
			case m.tail[l] == n && dir == 1:
				atTail[l]++
			case m.head[l] == n && dir == -1:
				atHead[l]++
			default:
				return topoErr("node %d lists link %d (%d->%d) with direction %d",
					n, l, m.tail[l], m.head[l], dir)
			}
			if adj != m.OtherEnd(l, n) {
				return topoErr("adjacent_nodes_at_node[%d][%d] = %d, link %d leads to %d",
					n, k, adj, l, m.OtherEnd(l, n))
			}
		}
	}
	for l := 0; l < m.nLinks; l++ {
		if atTail[l] != 1 || atHead[l] != 1 {
			return topoErr("link %d listed %d times at its tail and %d times at its head",
				l, atTail[l], atHead[l])
		}
	}
	return
}

func (m *Mesh) checkCellsAndFaces() (err error) {
	for c := 0; c < m.nCells; c++ {
		n := m.nodeAtCell[c]
		if n < 0 || n >= m.nNodes {
			return topoErr("node_at_cell[%d] = %d is outside [0,%d)", c, n, m.nNodes)
		}
		if m.cellAtNode[n] != c {
			return topoErr("cell %d is at node %d, but cell_at_node[%d] = %d", c, n, n, m.cellAtNode[n])
		}
		if !(m.cellArea[c] > 0) {
			return topoErr("cell %d has area %g", c, m.cellArea[c])
		}
	}
	for n := 0; n < m.nNodes; n++ {
		c := m.cellAtNode[n]
		if c < -1 || c >= m.nCells {
			return topoErr("cell_at_node[%d] = %d is outside [-1,%d)", n, c, m.nCells)
		}
		if c != -1 && m.nodeAtCell[c] != n {
			return topoErr("node %d has cell %d, but node_at_cell[%d] = %d", n, c, c, m.nodeAtCell[c])
		}
		if (m.status[n] == types.Core) != (c != -1) {
			return topoErr("node %d has status %s and cell %d", n, m.status[n], c)
		}
	}
	for f := 0; f < m.nFaces; f++ {
		l := m.linkAtFace[f]
		if l < 0 || l >= m.nLinks {
			return topoErr("link_at_face[%d] = %d is outside [0,%d)", f, l, m.nLinks)
		}
		if m.faceAtLink[l] != f {
			return topoErr("face %d crosses link %d, but face_at_link[%d] = %d", f, l, l, m.faceAtLink[l])
		}
		if m.faceLength[f] < 0 {
			return topoErr("face %d has negative length %g", f, m.faceLength[f])
		}
		if m.nCorners > 0 {
			for _, cr := range m.cornersAtFace[f] {
				if cr < 0 || cr >= m.nCorners {
					return topoErr("face %d has corner %d outside [0,%d)", f, cr, m.nCorners)
				}
			}
		}
	}
	for l := 0; l < m.nLinks; l++ {
		var (
			f        = m.faceAtLink[l]
			withCell = m.cellAtNode[m.tail[l]] != -1 || m.cellAtNode[m.head[l]] != -1
		)
		if f < -1 || f >= m.nFaces {
			return topoErr("face_at_link[%d] = %d is outside [-1,%d)", l, f, m.nFaces)
		}
		if f != -1 && m.linkAtFace[f] != l {
			return topoErr("link %d has face %d, but link_at_face[%d] = %d", l, f, f, m.linkAtFace[f])
		}
		if withCell != (f != -1) {
			return topoErr("link %d touches a cell: %v, has face: %d", l, withCell, f)
		}
	}
	return
}

func (m *Mesh) checkPatches() (err error) {
	if m.nPatches == 0 {
		return
	}
	if m.patchWidth < 3 {
		return topoErr("nodes_at_patch has width %d, patches need at least three nodes", m.patchWidth)
	}
	member := make(map[[2]int]bool)
	for p := 0; p < m.nPatches; p++ {
		nodes := m.nodesAtPatch[p*m.patchWidth : (p+1)*m.patchWidth]
		padded := false
		for k, n := range nodes {
			if n == -1 {
				if k < 3 {
					return topoErr("patch %d has fewer than three nodes", p)
				}
				padded = true
				continue
			}
			if padded {
				return topoErr("patch %d has a node after padding", p)
			}
			if slices.Contains(nodes[:k], n) {
				return topoErr("patch %d repeats node %d", p, n)
			}
			member[[2]int{n, p}] = true
		}
	}
	count := 0
	for n := 0; n < m.nNodes; n++ {
		for k := 0; k < m.nodePatchWidth; k++ {
			p := m.patchesAtNode[n*m.nodePatchWidth+k]
			if p == -1 {
				continue
			}
			if !member[[2]int{n, p}] {
				return topoErr("patches_at_node lists patch %d at node %d, which is not one of its nodes", p, n)
			}
			count++
		}
	}
	if count != len(member) {
		return topoErr("patches_at_node lists %d node-patch pairs, nodes_at_patch has %d", count, len(member))
	}
	return
}

func (m *Mesh) derive() {
	m.linkLength = make([]float64, m.nLinks)
	m.linkCos = make([]float64, m.nLinks)
	m.linkSin = make([]float64, m.nLinks)
	m.linkStatus = make([]types.LinkStatus, m.nLinks)
	for l := 0; l < m.nLinks; l++ {
		t, h := m.tail[l], m.head[l]
		dx, dy := m.x[h]-m.x[t], m.y[h]-m.y[t]
		m.linkLength[l] = math.Hypot(dx, dy)
		m.linkCos[l], m.linkSin[l] = dx/m.linkLength[l], dy/m.linkLength[l]
		st, sh := m.status[t], m.status[h]
		if (st == types.Core && sh != types.Closed) || (sh == types.Core && st != types.Closed) {
			m.activeLinks = append(m.activeLinks, l)
		} else {
			m.linkStatus[l] = types.Inactive
		}
	}
	for n := 0; n < m.nNodes; n++ {
		if m.status[n] == types.Core {
			m.coreNodes = append(m.coreNodes, n)
		} else {
			m.boundary = append(m.boundary, n)
		}
	}
	m.cellAreaNode = make([]float64, m.nNodes)
	for c, n := range m.nodeAtCell {
		m.cellAreaNode[n] = m.cellArea[c]
	}
	m.patchArea = make([]float64, m.nPatches)
	for p := 0; p < m.nPatches; p++ {
		var (
			nodes = m.validNodesAtPatch(p)
			a     float64
		)
		for k, n := range nodes {
			nn := nodes[(k+1)%len(nodes)]
			a += m.x[n]*m.y[nn] - m.x[nn]*m.y[n]
		}
		m.patchArea[p] = math.Abs(a) / 2
	}
}

func (m *Mesh) validNodesAtPatch(p int) (nodes []int) {
	nodes = m.nodesAtPatch[p*m.patchWidth : (p+1)*m.patchWidth]
	if ind := slices.Index(nodes, -1); ind >= 0 {
		nodes = nodes[:ind]
	}
	return
}
