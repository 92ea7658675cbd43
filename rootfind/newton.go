package rootfind

import (
	"errors"
	"fmt"
	"math"
	"slices"
)

var ErrNotConverged = errors.New("newton iteration did not converge")

// ConvergenceError reports the state of a batch solve that ran out of
// iterations or produced a non-finite iterate.
type ConvergenceError struct {
	Iterations  int
	Unconverged int     // elements still above tolerance
	Worst       int     // element with the largest remaining step
	WorstStep   float64 // its last step
	Wrapped     error
}

func (e *ConvergenceError) Error() string {
	return fmt.Sprintf("%v: %d elements unconverged after %d iterations, worst %d (step %g)",
		e.Wrapped, e.Unconverged, e.Iterations, e.Worst, e.WorstStep)
}

func (e *ConvergenceError) Unwrap() error { return e.Wrapped }

// Residual evaluates f(x) and df/dx elementwise for the elements listed in
// active, writing into f and df at the same indices.
type Residual func(x []float64, active []int, f, df []float64)

// Newton solves a batch of independent scalar equations f_i(x_i) = 0 with a
// shared iteration count. Element i stops moving once its Newton step is
// within ATol + RTol*|x_i|.
type Newton struct {
	RTol, ATol float64
	MaxIter    int
}

func NewNewton() Newton { return Newton{RTol: 1e-6, ATol: 1e-6, MaxIter: 50} }

func (n Newton) Solve(x0 []float64, residual Residual) (x []float64, iterations int, err error) {
	var (
		N      = len(x0)
		f      = make([]float64, N)
		df     = make([]float64, N)
		active = make([]int, N)
		step   = make([]float64, N)
	)
	x = slices.Clone(x0)
	for i := range active {
		active[i] = i
	}
	for iterations = 1; iterations <= n.MaxIter && len(active) > 0; iterations++ {
		residual(x, active, f, df)
		next := active[:0]
		for _, i := range active {
			step[i] = f[i] / df[i]
			x[i] -= step[i]
			if math.IsNaN(x[i]) || math.IsInf(x[i], 0) {
				return nil, iterations, &ConvergenceError{
					Iterations: iterations, Unconverged: 1, Worst: i, WorstStep: step[i],
					Wrapped: fmt.Errorf("%w: non-finite iterate at element %d (f %g, df %g)",
						ErrNotConverged, i, f[i], df[i]),
				}
			}
			if math.Abs(step[i]) > n.ATol+n.RTol*math.Abs(x[i]) {
				next = append(next, i)
			}
		}
		active = next
	}
	iterations--
	if len(active) > 0 {
		worst := active[0]
		for _, i := range active {
			if math.Abs(step[i]) > math.Abs(step[worst]) {
				worst = i
			}
		}
		return nil, iterations, &ConvergenceError{
			Iterations: iterations, Unconverged: len(active), Worst: worst, WorstStep: step[worst],
			Wrapped: ErrNotConverged,
		}
	}
	return
}
