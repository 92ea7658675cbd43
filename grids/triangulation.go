package grids

import (
	"fmt"
	"math"
	"sort"

	"github.com/notargets/glacierflow/mesh"
	"github.com/notargets/glacierflow/types"
)

type triConfig struct {
	status map[int]types.NodeStatus
}

type TriOption func(*triConfig)

// WithNodeStatus overrides the status of hull nodes, e.g. from mesh file markers.
func WithNodeStatus(status map[int]types.NodeStatus) TriOption {
	return func(c *triConfig) {
		if c.status == nil {
			c.status = make(map[int]types.NodeStatus, len(status))
		}
		for n, s := range status {
			c.status[n] = s
		}
	}
}

/*
FromTriangulation builds the Voronoi dual of a triangulation. Triangles
become patches, their circumcenters become corners, nodes on the hull are
boundary nodes and every other node gets the cell bounded by the
circumcenters of the triangles around it. Links point up, or right when
horizontal, and are numbered in sorted edge-key order.
*/
func FromTriangulation(x, y []float64, triangles [][3]int, opts ...TriOption) (m *mesh.Mesh, err error) {
	var t mesh.Topology
	if t, err = TriangulationTopology(x, y, triangles, opts...); err != nil {
		return
	}
	return mesh.New(t)
}

func TriangulationTopology(x, y []float64, triangles [][3]int, opts ...TriOption) (t mesh.Topology, err error) {
	var (
		cfg      = &triConfig{}
		nNodes   = len(x)
		nPatches = len(triangles)
		tris     = make([][3]int, nPatches)
		edgeTris = make(map[types.EdgeKey][]int)
	)
	for _, opt := range opts {
		opt(cfg)
	}
	if len(y) != nNodes {
		err = fmt.Errorf("have %d x and %d y coordinates", nNodes, len(y))
		return
	}
	for k, tri := range triangles {
		for _, v := range tri {
			if v < 0 || v >= nNodes {
				err = fmt.Errorf("triangle %d has vertex %d outside [0,%d)", k, v, nNodes)
				return
			}
		}
		a := signedArea(x, y, tri)
		switch {
		case a == 0:
			err = fmt.Errorf("triangle %d is degenerate", k)
			return
		case a < 0:
			tri[1], tri[2] = tri[2], tri[1]
		}
		tris[k] = tri
		for i := 0; i < 3; i++ {
			key := types.NewEdgeKey([2]int{tri[i], tri[(i+1)%3]})
			edgeTris[key] = append(edgeTris[key], k)
			if len(edgeTris[key]) > 2 {
				err = fmt.Errorf("edge %v is shared by more than two triangles", key.Vertices())
				return
			}
		}
	}
	keys := make(types.EdgeKeySlice, 0, len(edgeTris))
	for key := range edgeTris {
		keys = append(keys, key)
	}
	sort.Sort(keys)

	t = mesh.Topology{
		NodeX:          append([]float64(nil), x...),
		NodeY:          append([]float64(nil), y...),
		StatusAtNode:   make([]types.NodeStatus, nNodes),
		NodeAtLinkTail: make([]int, len(keys)),
		NodeAtLinkHead: make([]int, len(keys)),
		NodesAtPatch:   make([][]int, nPatches),
		CellAtNode:     make([]int, nNodes),
		FaceAtLink:     make([]int, len(keys)),
		CornerX:        make([]float64, nPatches),
		CornerY:        make([]float64, nPatches),
	}
	for _, key := range keys {
		if len(edgeTris[key]) == 1 {
			for _, n := range key.Vertices() {
				t.StatusAtNode[n] = types.FixedValue
			}
		}
	}
	for n, s := range cfg.status {
		if n < 0 || n >= nNodes {
			err = fmt.Errorf("status given for node %d outside [0,%d)", n, nNodes)
			return
		}
		if t.StatusAtNode[n] == types.Core && s != types.Core {
			err = fmt.Errorf("node %d is inside the triangulation and cannot be a boundary", n)
			return
		}
		if t.StatusAtNode[n] != types.Core && s == types.Core {
			err = fmt.Errorf("node %d is on the hull and cannot be a core node", n)
			return
		}
		t.StatusAtNode[n] = s
	}

	linksOf := make([][]int, nNodes)
	for l, key := range keys {
		v := key.Vertices()
		tl, hd := v[0], v[1]
		if y[tl] > y[hd] || (y[tl] == y[hd] && x[tl] > x[hd]) {
			tl, hd = hd, tl
		}
		t.NodeAtLinkTail[l], t.NodeAtLinkHead[l] = tl, hd
		linksOf[tl] = append(linksOf[tl], l)
		linksOf[hd] = append(linksOf[hd], l)
	}
	var width int
	for _, ls := range linksOf {
		width = max(width, len(ls))
	}
	t.LinksAtNode = make([][]int, nNodes)
	t.LinkDirsAtNode = make([][]int, nNodes)
	t.AdjacentNodesAtNode = make([][]int, nNodes)
	for n, ls := range linksOf {
		other := func(l int) int {
			if t.NodeAtLinkTail[l] == n {
				return t.NodeAtLinkHead[l]
			}
			return t.NodeAtLinkTail[l]
		}
		sort.SliceStable(ls, func(i, j int) bool {
			return angleFrom(x, y, n, other(ls[i])) < angleFrom(x, y, n, other(ls[j]))
		})
		links, dirs, adj := padded(width), make([]int, width), padded(width)
		for k, l := range ls {
			links[k], adj[k] = l, other(l)
			dirs[k] = -1
			if t.NodeAtLinkTail[l] == n {
				dirs[k] = 1
			}
		}
		t.LinksAtNode[n], t.LinkDirsAtNode[n], t.AdjacentNodesAtNode[n] = links, dirs, adj
	}

	patchesOf := make([][]int, nNodes)
	centroid := make([][2]float64, nPatches)
	for p, tri := range tris {
		t.NodesAtPatch[p] = []int{tri[0], tri[1], tri[2]}
		t.CornerX[p], t.CornerY[p] = circumcenter(x, y, tri)
		centroid[p] = [2]float64{
			(x[tri[0]] + x[tri[1]] + x[tri[2]]) / 3,
			(y[tri[0]] + y[tri[1]] + y[tri[2]]) / 3,
		}
		for _, n := range tri {
			patchesOf[n] = append(patchesOf[n], p)
		}
	}
	width = 0
	for _, ps := range patchesOf {
		width = max(width, len(ps))
	}
	t.PatchesAtNode = make([][]int, nNodes)
	for n, ps := range patchesOf {
		fan := func(p int) float64 {
			return math.Mod(math.Atan2(centroid[p][1]-y[n], centroid[p][0]-x[n])+2*math.Pi, 2*math.Pi)
		}
		sort.SliceStable(ps, func(i, j int) bool { return fan(ps[i]) < fan(ps[j]) })
		row := padded(width)
		copy(row, ps)
		t.PatchesAtNode[n] = row
	}

	for n := range t.CellAtNode {
		t.CellAtNode[n] = -1
		if t.StatusAtNode[n] != types.Core {
			continue
		}
		var area float64
		ps := patchesOf[n]
		for k, p := range ps {
			q := ps[(k+1)%len(ps)]
			area += t.CornerX[p]*t.CornerY[q] - t.CornerX[q]*t.CornerY[p]
		}
		t.CellAtNode[n] = len(t.NodeAtCell)
		t.NodeAtCell = append(t.NodeAtCell, n)
		t.AreaOfCell = append(t.AreaOfCell, math.Abs(area)/2)
	}
	for l, key := range keys {
		t.FaceAtLink[l] = -1
		if t.CellAtNode[t.NodeAtLinkTail[l]] == -1 && t.CellAtNode[t.NodeAtLinkHead[l]] == -1 {
			continue
		}
		pair := edgeTris[key]
		if len(pair) != 2 {
			err = fmt.Errorf("link %d touches a cell but lies on the hull", l)
			return
		}
		p, q := pair[0], pair[1]
		t.FaceAtLink[l] = len(t.LinkAtFace)
		t.LinkAtFace = append(t.LinkAtFace, l)
		t.CornersAtFace = append(t.CornersAtFace, [2]int{p, q})
		t.LengthOfFace = append(t.LengthOfFace,
			math.Hypot(t.CornerX[q]-t.CornerX[p], t.CornerY[q]-t.CornerY[p]))
	}
	return
}

func padded(width int) (row []int) {
	row = make([]int, width)
	for i := range row {
		row[i] = -1
	}
	return
}

func signedArea(x, y []float64, tri [3]int) float64 {
	a, b, c := tri[0], tri[1], tri[2]
	return 0.5 * ((x[b]-x[a])*(y[c]-y[a]) - (x[c]-x[a])*(y[b]-y[a]))
}

func angleFrom(x, y []float64, from, to int) float64 {
	return math.Mod(math.Atan2(y[to]-y[from], x[to]-x[from])+2*math.Pi, 2*math.Pi)
}

func circumcenter(x, y []float64, tri [3]int) (cx, cy float64) {
	var (
		ax, ay = x[tri[0]], y[tri[0]]
		bx, by = x[tri[1]] - ax, y[tri[1]] - ay
		qx, qy = x[tri[2]] - ax, y[tri[2]] - ay
		d      = 2 * (bx*qy - by*qx)
		b2     = bx*bx + by*by
		q2     = qx*qx + qy*qy
	)
	cx = ax + (qy*b2-by*q2)/d
	cy = ay + (bx*q2-qx*b2)/d
	return
}
