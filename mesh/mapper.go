package mesh

import (
	"fmt"
	"math"

	"github.com/notargets/glacierflow/types"
)

// The mapping operators are pure and return fresh arrays. Passing an array
// whose length does not match its location is a programming error and
// panics, the same way gonum/mat treats shape mismatches.

func (m *Mesh) mustLen(op string, v []float64, loc types.Location) {
	if want := m.Count(loc); len(v) != want {
		panic(fmt.Errorf("%s: array of length %d given, %d %ss expected", op, len(v), want, loc))
	}
}

// MapMeanOfLinkNodesToLink averages the two end nodes of each link.
func (m *Mesh) MapMeanOfLinkNodesToLink(v []float64) (out []float64) {
	m.mustLen("MapMeanOfLinkNodesToLink", v, types.Node)
	out = make([]float64, m.nLinks)
	for l := range out {
		out[l] = 0.5 * (v[m.tail[l]] + v[m.head[l]])
	}
	return
}

// MapMeanOfLinksToNode averages the links touching each node, ignoring
// padding. A node without links gets NaN.
func (m *Mesh) MapMeanOfLinksToNode(v []float64) (out []float64) {
	m.mustLen("MapMeanOfLinksToNode", v, types.Link)
	out = make([]float64, m.nNodes)
	for n := range out {
		var (
			sum   float64
			count int
		)
		for k := 0; k < m.linkWidth; k++ {
			if l := m.linksAtNode[n*m.linkWidth+k]; l != -1 {
				sum += v[l]
				count++
			}
		}
		if count == 0 {
			out[n] = math.NaN()
			continue
		}
		out[n] = sum / float64(count)
	}
	return
}

// MapVectorsToLinks projects the node-mean of a vector field onto each
// link's tail-to-head direction.
func (m *Mesh) MapVectorsToLinks(vx, vy []float64) (out []float64) {
	m.mustLen("MapVectorsToLinks", vx, types.Node)
	m.mustLen("MapVectorsToLinks", vy, types.Node)
	out = make([]float64, m.nLinks)
	for l := range out {
		var (
			t, h = m.tail[l], m.head[l]
			ux   = 0.5 * (vx[t] + vx[h])
			uy   = 0.5 * (vy[t] + vy[h])
		)
		out[l] = ux*m.linkCos[l] + uy*m.linkSin[l]
	}
	return
}

// ResolveValuesOnLinks splits a signed link scalar into x and y parts.
func (m *Mesh) ResolveValuesOnLinks(v []float64) (x, y []float64) {
	m.mustLen("ResolveValuesOnLinks", v, types.Link)
	x, y = make([]float64, m.nLinks), make([]float64, m.nLinks)
	for l := range v {
		x[l] = v[l] * m.linkCos[l]
		y[l] = v[l] * m.linkSin[l]
	}
	return
}

// MapValueAtMaxNodeToLink takes values from the end node with the larger
// control value; ties go to the head.
func (m *Mesh) MapValueAtMaxNodeToLink(controls, values []float64) (out []float64) {
	m.mustLen("MapValueAtMaxNodeToLink", controls, types.Node)
	m.mustLen("MapValueAtMaxNodeToLink", values, types.Node)
	out = make([]float64, m.nLinks)
	for l := range out {
		t, h := m.tail[l], m.head[l]
		if controls[t] > controls[h] {
			out[l] = values[t]
		} else {
			out[l] = values[h]
		}
	}
	return
}

func (m *Mesh) MapMeanOfPatchNodesToPatch(v []float64) (out []float64) {
	m.mustLen("MapMeanOfPatchNodesToPatch", v, types.Node)
	out = make([]float64, m.nPatches)
	for p := range out {
		nodes := m.validNodesAtPatch(p)
		for _, n := range nodes {
			out[p] += v[n]
		}
		out[p] /= float64(len(nodes))
	}
	return
}

// SumAtNodes adds link values into nodes, positive for links leaving the node.
func (m *Mesh) SumAtNodes(v []float64) (out []float64) {
	m.mustLen("SumAtNodes", v, types.Link)
	out = make([]float64, m.nNodes)
	for n := range out {
		for k := 0; k < m.linkWidth; k++ {
			ind := n*m.linkWidth + k
			if l := m.linksAtNode[ind]; l != -1 {
				out[n] += float64(m.linkDirsAtNode[ind]) * v[l]
			}
		}
	}
	return
}

// CalcGradAtLink is the difference along each link, head minus tail, over its length.
func (m *Mesh) CalcGradAtLink(v []float64) (out []float64) {
	m.mustLen("CalcGradAtLink", v, types.Node)
	out = make([]float64, m.nLinks)
	for l := range out {
		out[l] = (v[m.head[l]] - v[m.tail[l]]) / m.linkLength[l]
	}
	return
}

// CalcFluxDivAtNode is the net outflow per unit cell area of a link flux
// measured along tail to head. Nodes without a cell are zero.
func (m *Mesh) CalcFluxDivAtNode(q []float64) (out []float64) {
	m.mustLen("CalcFluxDivAtNode", q, types.Link)
	faceFlux := make([]float64, m.nLinks)
	for l, f := range m.faceAtLink {
		if f != -1 {
			faceFlux[l] = q[l] * m.faceLength[f]
		}
	}
	out = m.SumAtNodes(faceFlux)
	for n := range out {
		if a := m.cellAreaNode[n]; a > 0 {
			out[n] /= a
		} else {
			out[n] = 0
		}
	}
	return
}
