package linsolve

import (
	"errors"
	"testing"

	"github.com/james-bowman/sparse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/glacierflow/utils"
)

// laplacian1D is the Dirichlet second difference matrix with positive diagonal.
func laplacian1D(n int) *sparse.CSR {
	rows := make([]utils.RowEntries, n)
	for i := 0; i < n; i++ {
		rows[i].Add(i, 2)
		if i > 0 {
			rows[i].Add(i-1, -1)
		}
		if i < n-1 {
			rows[i].Add(i+1, -1)
		}
	}
	return utils.NewCSRFromRows(n, rows)
}

func TestSolvers(t *testing.T) {
	var (
		n = 40
		A = laplacian1D(n)
		x = make([]float64, n)
		b = make([]float64, n)
	)
	for i := range x {
		x[i] = float64(i*i) / 7
	}
	utils.CSRMulVec(A, x, b)
	for _, name := range []string{"lu", "cg", "auto"} {
		s, err := New(name)
		require.NoError(t, err)
		assert.Equal(t, name, s.Name())
		sol, err := s.Solve(A, b)
		require.NoError(t, err, name)
		assert.InDeltaSlice(t, x, sol, 1e-4, name)
	}
	{ // Auto switches to CG above the dense limit
		s := NewAuto()
		s.DenseLimit = 10
		s.CG.MaxIter = 1 // one iteration cannot solve this system
		_, err := s.Solve(A, b)
		assert.True(t, errors.Is(err, ErrNotConverged))
	}
	{ // Zero right hand side
		sol, err := NewCG().Solve(A, make([]float64, n))
		require.NoError(t, err)
		assert.Equal(t, make([]float64, n), sol)
	}
	{ // Singular
		rows := make([]utils.RowEntries, 2)
		rows[0].Add(0, 1)
		rows[0].Add(1, -1)
		rows[1].Add(0, -1)
		rows[1].Add(1, 1)
		S := utils.NewCSRFromRows(2, rows)
		_, err := NewLU().Solve(S, []float64{1, -1})
		assert.True(t, errors.Is(err, ErrIllConditioned))
	}
	{ // Indefinite
		rows := make([]utils.RowEntries, 2)
		rows[0].Add(0, -1)
		rows[1].Add(1, 1)
		_, err := NewCG().Solve(utils.NewCSRFromRows(2, rows), []float64{1, 1})
		assert.True(t, errors.Is(err, ErrNotSPD))
	}
	{ // Shape and name errors
		_, err := NewLU().Solve(A, b[:3])
		assert.Error(t, err)
		_, err = New("gmres")
		assert.Error(t, err)
	}
}
