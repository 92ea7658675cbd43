package fvm

import (
	"errors"
	"fmt"
	"slices"

	"github.com/james-bowman/sparse"
	"k8s.io/klog/v2"

	"github.com/notargets/glacierflow/mesh"
	"github.com/notargets/glacierflow/types"
	"github.com/notargets/glacierflow/utils"
)

var (
	ErrIllPosed     = errors.New("linear system is not anchored by any fixed-value boundary")
	ErrProblemShape = errors.New("problem arrays do not match the mesh")
)

/*
Problem describes a finite-volume balance on the cells of a mesh:

	sum over faces of cell c: Coeffs[f] * (phi[neighbor] - phi[c]) = Forcing[c]

Neighbors that are core nodes contribute their unknown, neighbors flagged in
IsFixedValue contribute BoundaryValues, every other neighbor is a no-flux
boundary and contributes nothing.
*/
type Problem struct {
	Coeffs         []float64 // faces
	Forcing        []float64 // cells
	BoundaryValues []float64 // nodes
	IsFixedValue   []bool    // nodes
}

// System is the assembled A x = b over cells.
type System struct {
	A        *sparse.CSR
	B        []float64
	Anchored []bool // cell has a nonzero connection to a fixed value
}

type Assembler struct {
	mesh           *mesh.Mesh
	parallelDegree int
}

type Option func(*Assembler)

func WithParallelDegree(np int) Option {
	return func(a *Assembler) { a.parallelDegree = np }
}

func NewAssembler(m *mesh.Mesh, opts ...Option) (a *Assembler) {
	a = &Assembler{
		mesh:           m,
		parallelDegree: utils.DefaultParallelDegree(m.NumberOfCells()),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.parallelDegree < 1 {
		a.parallelDegree = 1
	}
	return
}

func (a *Assembler) checkShape(p Problem) error {
	var (
		m = a.mesh
	)
	for _, c := range []struct {
		name      string
		got, want int
	}{
		{"coefficients", len(p.Coeffs), m.NumberOfFaces()},
		{"forcing", len(p.Forcing), m.NumberOfCells()},
		{"boundary values", len(p.BoundaryValues), m.NumberOfNodes()},
		{"fixed-value flags", len(p.IsFixedValue), m.NumberOfNodes()},
	} {
		if c.got != c.want {
			return fmt.Errorf("%w: %d %s, expected %d", ErrProblemShape, c.got, c.name, c.want)
		}
	}
	return nil
}

// Assemble builds the system row by row; rows are independent and are
// filled concurrently, one partition of cells per goroutine.
func (a *Assembler) Assemble(p Problem) (sys *System, err error) {
	if err = a.checkShape(p); err != nil {
		return
	}
	var (
		m      = a.mesh
		nCells = m.NumberOfCells()
		rows   = make([]utils.RowEntries, nCells)
		pm     = utils.NewPartitionMap(a.parallelDegree, nCells)
	)
	sys = &System{
		B:        slices.Clone(p.Forcing),
		Anchored: make([]bool, nCells),
	}
	pm.Run(func(bn, cMin, cMax int) {
		for c := cMin; c < cMax; c++ {
			a.assembleRow(c, p, &rows[c], sys)
		}
	})
	sys.A = utils.NewCSRFromRows(nCells, rows)
	if klog.V(4).Enabled() {
		klog.Infof("assembled %d cell rows, %d nonzeros, %d partitions",
			nCells, sys.A.NNZ(), pm.ParallelDegree)
	}
	return
}

func (a *Assembler) assembleRow(c int, p Problem, row *utils.RowEntries, sys *System) {
	var (
		m = a.mesh
		i = m.NodeAtCell(c)
	)
	row.Add(c, 0)
	for k := 0; k < m.MaxLinksPerNode(); k++ {
		l, _ := m.LinkAt(i, k)
		if l == -1 {
			continue
		}
		var (
			j     = m.OtherEnd(l, i)
			coeff = p.Coeffs[m.FaceAtLink(l)]
		)
		switch {
		case m.Status(j) == types.Core:
			row.Add(c, -coeff)
			row.Add(m.CellAtNode(j), coeff)
		case p.IsFixedValue[j]:
			row.Add(c, -coeff)
			sys.B[c] += -coeff * p.BoundaryValues[j]
			if coeff != 0 {
				sys.Anchored[c] = true
			}
		}
	}
}

// CheckWellPosed fails with ErrIllPosed when a group of cells connected
// through nonzero coefficients has no anchored cell, so its potential is
// only determined up to a constant.
func (s *System) CheckWellPosed() error {
	var (
		n       = len(s.B)
		visited = make([]bool, n)
		queue   []int
	)
	for start := 0; start < n; start++ {
		if visited[start] {
			continue
		}
		var (
			anchored bool
			size     int
		)
		visited[start] = true
		queue = append(queue[:0], start)
		for len(queue) > 0 {
			c := queue[0]
			queue = queue[1:]
			size++
			anchored = anchored || s.Anchored[c]
			cols, vals := utils.CSRRow(s.A, c)
			for k, cc := range cols {
				if cc != c && vals[k] != 0 && !visited[cc] {
					visited[cc] = true
					queue = append(queue, cc)
				}
			}
		}
		if !anchored {
			return fmt.Errorf("%w: %d connected cells starting at cell %d", ErrIllPosed, size, start)
		}
	}
	return nil
}
