package mesh

import (
	"fmt"
	"math"
	"slices"

	"github.com/notargets/glacierflow/types"
)

func (m *Mesh) NumberOfNodes() int   { return m.nNodes }
func (m *Mesh) NumberOfLinks() int   { return m.nLinks }
func (m *Mesh) NumberOfPatches() int { return m.nPatches }
func (m *Mesh) NumberOfCorners() int { return m.nCorners }
func (m *Mesh) NumberOfFaces() int   { return m.nFaces }
func (m *Mesh) NumberOfCells() int   { return m.nCells }

// Count is the number of elements of the given kind.
func (m *Mesh) Count(loc types.Location) int {
	switch loc {
	case types.Node:
		return m.nNodes
	case types.Link:
		return m.nLinks
	case types.Patch:
		return m.nPatches
	case types.Corner:
		return m.nCorners
	case types.Face:
		return m.nFaces
	case types.Cell:
		return m.nCells
	}
	panic(fmt.Errorf("unknown location %v", loc))
}

func (m *Mesh) String() string {
	return fmt.Sprintf("mesh: %d nodes (%d core), %d links (%d active), %d patches, %d faces, %d cells",
		m.nNodes, len(m.coreNodes), m.nLinks, len(m.activeLinks), m.nPatches, m.nFaces, m.nCells)
}

func (m *Mesh) NodeX(n int) float64               { return m.x[n] }
func (m *Mesh) NodeY(n int) float64               { return m.y[n] }
func (m *Mesh) XOfNode() []float64                { return slices.Clone(m.x) }
func (m *Mesh) YOfNode() []float64                { return slices.Clone(m.y) }
func (m *Mesh) Status(n int) types.NodeStatus     { return m.status[n] }
func (m *Mesh) StatusAtNode() []types.NodeStatus  { return slices.Clone(m.status) }
func (m *Mesh) CoreNodes() []int                  { return slices.Clone(m.coreNodes) }
func (m *Mesh) BoundaryNodes() []int              { return slices.Clone(m.boundary) }
func (m *Mesh) NodeAtLinkTail(l int) int          { return m.tail[l] }
func (m *Mesh) NodeAtLinkHead(l int) int          { return m.head[l] }
func (m *Mesh) LinkStatus(l int) types.LinkStatus { return m.linkStatus[l] }
func (m *Mesh) ActiveLinks() []int                { return slices.Clone(m.activeLinks) }
func (m *Mesh) LengthOfLink(l int) float64        { return m.linkLength[l] }
func (m *Mesh) CellAtNode(n int) int              { return m.cellAtNode[n] }
func (m *Mesh) NodeAtCell(c int) int              { return m.nodeAtCell[c] }
func (m *Mesh) FaceAtLink(l int) int              { return m.faceAtLink[l] }
func (m *Mesh) LinkAtFace(f int) int              { return m.linkAtFace[f] }
func (m *Mesh) LengthOfFace(f int) float64        { return m.faceLength[f] }
func (m *Mesh) AreaOfCell(c int) float64          { return m.cellArea[c] }
func (m *Mesh) AreaOfPatch(p int) float64         { return m.patchArea[p] }
func (m *Mesh) MaxLinksPerNode() int              { return m.linkWidth }
func (m *Mesh) MaxNodesPerPatch() int             { return m.patchWidth }

// CellAreaAtNode is zero for nodes without a cell.
func (m *Mesh) CellAreaAtNode(n int) float64 { return m.cellAreaNode[n] }

// AngleOfLink is measured counter-clockwise from +x, tail to head.
func (m *Mesh) AngleOfLink(l int) float64 {
	return math.Atan2(m.linkSin[l], m.linkCos[l])
}

func (m *Mesh) LengthsOfLinks() []float64 { return slices.Clone(m.linkLength) }

func (m *Mesh) CornersAtFace(f int) (corners [2]int, ok bool) {
	if m.nCorners == 0 {
		return [2]int{-1, -1}, false
	}
	return m.cornersAtFace[f], true
}

func (m *Mesh) Corner(cr int) (x, y float64) { return m.cornerX[cr], m.cornerY[cr] }

// LinkAt returns slot k of the node's link table. Padding slots return -1, 0.
func (m *Mesh) LinkAt(n, k int) (link, dir int) {
	ind := n*m.linkWidth + k
	return m.linksAtNode[ind], m.linkDirsAtNode[ind]
}

// AdjacentNodeAt is the neighbor across slot k, or -1.
func (m *Mesh) AdjacentNodeAt(n, k int) int { return m.adjAtNode[n*m.linkWidth+k] }

func (m *Mesh) LinksAtNode(n int) []int {
	return slices.Clone(m.linksAtNode[n*m.linkWidth : (n+1)*m.linkWidth])
}

func (m *Mesh) LinkDirsAtNode(n int) []int {
	return slices.Clone(m.linkDirsAtNode[n*m.linkWidth : (n+1)*m.linkWidth])
}

func (m *Mesh) AdjacentNodesAtNode(n int) []int {
	return slices.Clone(m.adjAtNode[n*m.linkWidth : (n+1)*m.linkWidth])
}

func (m *Mesh) NodesAtPatch(p int) []int {
	return slices.Clone(m.nodesAtPatch[p*m.patchWidth : (p+1)*m.patchWidth])
}

func (m *Mesh) PatchesAtNode(n int) []int {
	if m.nPatches == 0 {
		return nil
	}
	return slices.Clone(m.patchesAtNode[n*m.nodePatchWidth : (n+1)*m.nodePatchWidth])
}

// OtherEnd is the far node of link l seen from node n.
func (m *Mesh) OtherEnd(l, n int) int {
	if m.tail[l] == n {
		return m.head[l]
	}
	return m.tail[l]
}

// LinkBetween returns the link joining i and j, or -1.
func (m *Mesh) LinkBetween(i, j int) int {
	if i < 0 || j < 0 || i == j {
		return -1
	}
	if l, ok := m.linkByNodes[types.NewEdgeKey([2]int{i, j})]; ok {
		return l
	}
	return -1
}
