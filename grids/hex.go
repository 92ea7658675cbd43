package grids

import (
	"fmt"
	"math"

	"github.com/notargets/glacierflow/mesh"
)

// HexPoints lays nodes on rows offset by half a spacing on odd rows and
// joins them into equilateral triangles, giving hexagonal cells.
func HexPoints(rows, cols int, spacing float64) (x, y []float64, triangles [][3]int, err error) {
	if rows < 2 || cols < 2 {
		err = fmt.Errorf("hex grid needs at least 2x2 nodes, have %dx%d", rows, cols)
		return
	}
	if !(spacing > 0) {
		err = fmt.Errorf("hex spacing must be positive, have %g", spacing)
		return
	}
	var (
		dy   = spacing * math.Sqrt(3) / 2
		node = func(r, c int) int { return r*cols + c }
	)
	x, y = make([]float64, rows*cols), make([]float64, rows*cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			x[node(r, c)] = float64(c) * spacing
			if r%2 == 1 {
				x[node(r, c)] += spacing / 2
			}
			y[node(r, c)] = float64(r) * dy
		}
	}
	for r := 0; r < rows-1; r++ {
		for c := 0; c < cols-1; c++ {
			a0, a1 := node(r, c), node(r, c+1)
			b0, b1 := node(r+1, c), node(r+1, c+1)
			if r%2 == 0 {
				triangles = append(triangles, [3]int{a0, a1, b0}, [3]int{a1, b1, b0})
			} else {
				triangles = append(triangles, [3]int{a0, b1, b0}, [3]int{a0, a1, b1})
			}
		}
	}
	return
}

func NewHex(rows, cols int, spacing float64, opts ...TriOption) (m *mesh.Mesh, err error) {
	var (
		x, y []float64
		tris [][3]int
	)
	if x, y, tris, err = HexPoints(rows, cols, spacing); err != nil {
		return
	}
	return FromTriangulation(x, y, tris, opts...)
}
