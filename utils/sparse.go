package utils

import (
	"fmt"
	"math"
	"sort"

	"github.com/james-bowman/sparse"
	"gonum.org/v1/gonum/mat"
)

// RowEntries accumulates the nonzeros of one sparse row before packing.
// Adding to an existing column sums into it.
type RowEntries struct {
	Cols []int
	Vals []float64
}

func (r *RowEntries) Add(col int, val float64) {
	for i, c := range r.Cols {
		if c == col {
			r.Vals[i] += val
			return
		}
	}
	r.Cols = append(r.Cols, col)
	r.Vals = append(r.Vals, val)
}

func (r *RowEntries) Len() int           { return len(r.Cols) }
func (r *RowEntries) Less(i, j int) bool { return r.Cols[i] < r.Cols[j] }
func (r *RowEntries) Swap(i, j int) {
	r.Cols[i], r.Cols[j] = r.Cols[j], r.Cols[i]
	r.Vals[i], r.Vals[j] = r.Vals[j], r.Vals[i]
}

// NewCSRFromRows packs rows into CSR storage with ascending column order.
// Explicit zeros are kept so the sparsity pattern reflects the stencil.
func NewCSRFromRows(nc int, rows []RowEntries) (A *sparse.CSR) {
	var (
		nr     = len(rows)
		indptr = make([]int, nr+1)
		nnz    int
	)
	for i := range rows {
		nnz += len(rows[i].Cols)
	}
	var (
		ind  = make([]int, 0, nnz)
		data = make([]float64, 0, nnz)
	)
	for i := range rows {
		sort.Sort(&rows[i])
		for k, c := range rows[i].Cols {
			if c < 0 || c >= nc {
				panic(fmt.Errorf("column %d out of range [0,%d) in row %d", c, nc, i))
			}
			ind = append(ind, c)
			data = append(data, rows[i].Vals[k])
		}
		indptr[i+1] = len(ind)
	}
	A = sparse.NewCSR(nr, nc, indptr, ind, data)
	return
}

// CSRRow returns the stored columns and values of row i, sharing storage.
func CSRRow(A *sparse.CSR, i int) (cols []int, vals []float64) {
	raw := A.RawMatrix()
	cols = raw.Ind[raw.Indptr[i]:raw.Indptr[i+1]]
	vals = raw.Data[raw.Indptr[i]:raw.Indptr[i+1]]
	return
}

// CSRMulVec computes dst = A x.
func CSRMulVec(A *sparse.CSR, x, dst []float64) {
	var (
		nr, nc = A.Dims()
		raw    = A.RawMatrix()
	)
	if len(x) != nc || len(dst) != nr {
		panic(fmt.Errorf("dimension mismatch: A is %dx%d, x %d, dst %d", nr, nc, len(x), len(dst)))
	}
	for i := 0; i < nr; i++ {
		var sum float64
		for k := raw.Indptr[i]; k < raw.Indptr[i+1]; k++ {
			sum += raw.Data[k] * x[raw.Ind[k]]
		}
		dst[i] = sum
	}
}

func CSRDiagonal(A *sparse.CSR) (diag []float64) {
	var (
		nr, _ = A.Dims()
		raw   = A.RawMatrix()
	)
	diag = make([]float64, nr)
	for i := 0; i < nr; i++ {
		for k := raw.Indptr[i]; k < raw.Indptr[i+1]; k++ {
			if raw.Ind[k] == i {
				diag[i] += raw.Data[k]
			}
		}
	}
	return
}

func CSRToDense(A *sparse.CSR) (D *mat.Dense) {
	var (
		nr, nc = A.Dims()
		raw    = A.RawMatrix()
	)
	D = mat.NewDense(nr, nc, nil)
	for i := 0; i < nr; i++ {
		for k := raw.Indptr[i]; k < raw.Indptr[i+1]; k++ {
			D.Set(i, raw.Ind[k], D.At(i, raw.Ind[k])+raw.Data[k])
		}
	}
	return
}

// CSRIsSymmetric compares each stored entry with its transpose, relative to
// the largest stored magnitude.
func CSRIsSymmetric(A *sparse.CSR, rtol float64) bool {
	var (
		nr, nc = A.Dims()
		raw    = A.RawMatrix()
		scale  float64
	)
	if nr != nc {
		return false
	}
	for _, v := range raw.Data {
		scale = math.Max(scale, math.Abs(v))
	}
	for i := 0; i < nr; i++ {
		for k := raw.Indptr[i]; k < raw.Indptr[i+1]; k++ {
			if math.Abs(raw.Data[k]-A.At(raw.Ind[k], i)) > rtol*scale {
				return false
			}
		}
	}
	return true
}
