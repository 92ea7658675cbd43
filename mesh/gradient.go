package mesh

import (
	"math"

	"github.com/notargets/glacierflow/types"
)

// CalcUnitNormalAtPatch returns the upward unit normal of the plane through
// the first three nodes of each patch, with v as the vertical coordinate.
func (m *Mesh) CalcUnitNormalAtPatch(v []float64) (normals [][3]float64) {
	m.mustLen("CalcUnitNormalAtPatch", v, types.Node)
	normals = make([][3]float64, m.nPatches)
	for p := range normals {
		var (
			nodes      = m.nodesAtPatch[p*m.patchWidth:]
			a, b, c    = nodes[0], nodes[1], nodes[2]
			pqx, pqy   = m.x[b] - m.x[a], m.y[b] - m.y[a]
			prx, pry   = m.x[c] - m.x[a], m.y[c] - m.y[a]
			pqz, prz   = v[b] - v[a], v[c] - v[a]
			nx, ny, nz = pqy*prz - pqz*pry, pqz*prx - pqx*prz, pqx*pry - pqy*prx
			mag        = math.Sqrt(nx*nx + ny*ny + nz*nz)
		)
		if nz < 0 {
			nx, ny, nz = -nx, -ny, -nz
		}
		normals[p] = [3]float64{nx / mag, ny / mag, nz / mag}
	}
	return
}

// CalcGradAtPatch returns the slope angle (radians) of each patch plane and
// its x and y components, pointing up the gradient.
func (m *Mesh) CalcGradAtPatch(v []float64) (slope []float64, components [][2]float64) {
	normals := m.CalcUnitNormalAtPatch(v)
	slope = make([]float64, m.nPatches)
	components = make([][2]float64, m.nPatches)
	for p, n := range normals {
		slope[p] = math.Acos(math.Min(n[2], 1))
		theta := math.Atan2(-n[1], -n[0])
		components[p] = [2]float64{math.Cos(theta) * slope[p], math.Sin(theta) * slope[p]}
	}
	return
}

// CalcGradientVectorAtNode averages patch slopes and their components over
// the patches around each node. A node touching no patch gets NaN.
func (m *Mesh) CalcGradientVectorAtNode(v []float64) (slope []float64, components [][2]float64) {
	pSlope, pComp := m.CalcGradAtPatch(v)
	slope = make([]float64, m.nNodes)
	components = make([][2]float64, m.nNodes)
	for n := 0; n < m.nNodes; n++ {
		var count float64
		for k := 0; k < m.nodePatchWidth; k++ {
			p := m.patchesAtNode[n*m.nodePatchWidth+k]
			if p == -1 {
				continue
			}
			slope[n] += pSlope[p]
			components[n][0] += pComp[p][0]
			components[n][1] += pComp[p][1]
			count++
		}
		if count == 0 {
			slope[n] = math.NaN()
			components[n] = [2]float64{math.NaN(), math.NaN()}
			continue
		}
		slope[n] /= count
		components[n][0] /= count
		components[n][1] /= count
	}
	return
}
