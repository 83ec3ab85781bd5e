// Package solver implements the Thomas algorithm: a single-pass O(n)
// direct solver for tridiagonal linear systems. No pivoting is performed,
// which keeps the solve deterministic; a zero pivot is reported as
// ErrSingular instead of letting NaN/Inf leak into the result.
package solver

import (
	"errors"
	"fmt"
	"math"
)

// ErrSingular reports a zero (or numerically zero) pivot during the solve.
// Match with errors.Is.
var ErrSingular = errors.New("solver: singular tridiagonal system")

// DefaultTol is the pivot magnitude below which a system is treated as
// singular when using Solve.
const DefaultTol = 1e-14

// Solve solves A·x = d where A is tridiagonal with sub-diagonal a,
// diagonal b and super-diagonal c. All four slices must have equal length
// n >= 1; a[0] and c[n-1] are ignored.
//
// Inputs are never mutated: the elimination works on internal copies, so
// calling Solve twice with the same slices yields the same result and the
// caller may keep reusing its buffers.
func Solve(a, b, c, d []float64) ([]float64, error) {
	return SolveTol(a, b, c, d, DefaultTol)
}

// SolveTol is Solve with an explicit singularity tolerance.
func SolveTol(a, b, c, d []float64, tol float64) ([]float64, error) {
	n := len(b)
	if n == 0 {
		return nil, fmt.Errorf("solver: empty system")
	}
	if len(a) != n || len(c) != n || len(d) != n {
		return nil, fmt.Errorf("solver: diagonal lengths a=%d b=%d c=%d d=%d differ", len(a), n, len(c), len(d))
	}

	// Work on copies of the two vectors the elimination rewrites.
	diag := append([]float64(nil), b...)
	rhs := append([]float64(nil), d...)

	// Forward elimination.
	for i := 1; i < n; i++ {
		if math.Abs(diag[i-1]) <= tol {
			return nil, fmt.Errorf("zero pivot at row %d: %w", i-1, ErrSingular)
		}
		m := a[i] / diag[i-1]
		diag[i] -= m * c[i-1]
		rhs[i] -= m * rhs[i-1]
	}

	// Back substitution.
	if math.Abs(diag[n-1]) <= tol {
		return nil, fmt.Errorf("zero pivot at row %d: %w", n-1, ErrSingular)
	}
	x := make([]float64, n)
	x[n-1] = rhs[n-1] / diag[n-1]
	for i := n - 2; i >= 0; i-- {
		x[i] = (rhs[i] - c[i]*x[i+1]) / diag[i]
	}
	return x, nil
}
