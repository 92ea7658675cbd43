package linsolve

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/james-bowman/sparse"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"k8s.io/klog/v2"

	"github.com/notargets/glacierflow/utils"
)

var (
	ErrNotConverged   = errors.New("iterative solve did not converge")
	ErrIllConditioned = errors.New("matrix is singular or ill-conditioned")
	ErrNotSPD         = errors.New("matrix is not symmetric positive definite")
)

// Solver solves A x = b for square A.
type Solver interface {
	Solve(A *sparse.CSR, b []float64) (x []float64, err error)
	Name() string
}

func checkDims(A *sparse.CSR, b []float64) error {
	nr, nc := A.Dims()
	if nr != nc || len(b) != nr {
		return fmt.Errorf("cannot solve %dx%d system with %d right hand sides", nr, nc, len(b))
	}
	return nil
}

// LU is a dense direct solve, suited to the small cell counts of test and
// profile meshes.
type LU struct {
	CondLimit float64
}

func NewLU() *LU { return &LU{CondLimit: 1e14} }

func (s *LU) Name() string { return "lu" }

func (s *LU) Solve(A *sparse.CSR, b []float64) (x []float64, err error) {
	if err = checkDims(A, b); err != nil {
		return
	}
	var (
		n   = len(b)
		lu  mat.LU
		sol = mat.NewVecDense(n, nil)
	)
	if n == 0 {
		return []float64{}, nil
	}
	lu.Factorize(utils.CSRToDense(A))
	if cond := lu.Cond(); math.IsInf(cond, 1) || cond > s.CondLimit {
		err = fmt.Errorf("%w: condition number %g", ErrIllConditioned, cond)
		return
	}
	if err = sol.SolveVec(&lu, mat.NewVecDense(n, append([]float64(nil), b...))); err != nil {
		err = fmt.Errorf("%w: %v", ErrIllConditioned, err)
		return
	}
	x = sol.RawVector().Data
	return
}

// CG is Jacobi-preconditioned conjugate gradients working directly on the
// CSR storage. The assembled potential system is symmetric with a positive
// diagonal once every cell group is anchored.
type CG struct {
	RTol, ATol float64
	MaxIter    int
}

func NewCG() *CG { return &CG{RTol: 1e-10, ATol: 1e-30, MaxIter: 10000} }

func (s *CG) Name() string { return "cg" }

func (s *CG) Solve(A *sparse.CSR, b []float64) (x []float64, err error) {
	if err = checkDims(A, b); err != nil {
		return
	}
	var (
		n     = len(b)
		diag  = utils.CSRDiagonal(A)
		r     = append([]float64(nil), b...)
		z     = make([]float64, n)
		p     = make([]float64, n)
		Ap    = make([]float64, n)
		bNorm = floats.Norm(b, 2)
		tol   = math.Max(s.RTol*bNorm, s.ATol)
	)
	x = make([]float64, n)
	if bNorm == 0 {
		return
	}
	for i, d := range diag {
		if !(d > 0) {
			return nil, fmt.Errorf("%w: diagonal entry %d is %g", ErrNotSPD, i, d)
		}
	}
	floats.DivTo(z, r, diag)
	copy(p, z)
	rz := floats.Dot(r, z)
	for iter := 1; iter <= s.MaxIter; iter++ {
		utils.CSRMulVec(A, p, Ap)
		pAp := floats.Dot(p, Ap)
		if !(pAp > 0) {
			return nil, fmt.Errorf("%w: search direction curvature %g at iteration %d", ErrNotSPD, pAp, iter)
		}
		alpha := rz / pAp
		floats.AddScaled(x, alpha, p)
		floats.AddScaled(r, -alpha, Ap)
		if res := floats.Norm(r, 2); res <= tol {
			klog.V(4).Infof("cg converged in %d iterations, residual %g", iter, res)
			return
		}
		floats.DivTo(z, r, diag)
		rzNew := floats.Dot(r, z)
		floats.AddScaledTo(p, z, rzNew/rz, p)
		rz = rzNew
	}
	return nil, fmt.Errorf("%w: residual %g after %d iterations", ErrNotConverged, floats.Norm(r, 2), s.MaxIter)
}

// Auto uses LU up to DenseLimit unknowns and CG beyond.
type Auto struct {
	DenseLimit int
	LU         *LU
	CG         *CG
}

func NewAuto() *Auto { return &Auto{DenseLimit: 1500, LU: NewLU(), CG: NewCG()} }

func (s *Auto) Name() string { return "auto" }

func (s *Auto) Solve(A *sparse.CSR, b []float64) (x []float64, err error) {
	if len(b) <= s.DenseLimit {
		return s.LU.Solve(A, b)
	}
	return s.CG.Solve(A, b)
}

func New(name string) (s Solver, err error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "auto":
		s = NewAuto()
	case "lu", "direct":
		s = NewLU()
	case "cg", "pcg":
		s = NewCG()
	default:
		err = fmt.Errorf("unknown linear solver %q, use lu, cg or auto", name)
	}
	return
}
