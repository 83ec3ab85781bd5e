// Package pde advances a Black-Scholes solution vector through time with
// finite-difference schemes built on a shared grid discretization.
//
// Both steppers follow the same index convention: the vector at layer i
// evolves to layer i+1, with boundary values evaluated at the target
// layer's time. A step never mutates its input; each layer is a fresh
// slice, so a caller can hold onto intermediate layers safely.
package pde

import (
	"github.com/contactkeval/option-pde/internal/grid"
)

// State tracks a stepper through its run.
type State int

const (
	StateInitialized State = iota // payoff set, no step taken
	StateStepping                 // mid-run
	StateDone                     // all N layers produced
)

func (s State) String() string {
	switch s {
	case StateInitialized:
		return "initialized"
	case StateStepping:
		return "stepping"
	case StateDone:
		return "done"
	}
	return "unknown"
}

// ExplicitStepper advances layers by direct multiplication with (I + L),
// L being the tridiagonal stencil matrix with zeroed boundary rows.
//
// The scheme is conditionally stable: coefficient magnitudes scale with
// Dt/Dx^2 (see grid.Grid.StabilityRatio) and the stepper deliberately
// performs no stability check. Divergence shows up as unbounded values in
// the output, not as an error.
type ExplicitStepper struct {
	g     *grid.Grid
	co    *grid.Coefficients
	bnd   Boundary
	taken int
}

func NewExplicitStepper(g *grid.Grid, co *grid.Coefficients, bnd Boundary) *ExplicitStepper {
	return &ExplicitStepper{g: g, co: co, bnd: bnd}
}

// State reports where the stepper is relative to the grid's N layers.
func (st *ExplicitStepper) State() State {
	switch {
	case st.taken == 0:
		return StateInitialized
	case st.taken < st.g.N:
		return StateStepping
	}
	return StateDone
}

// Step produces the next layer from v. The boundary overwrite happens
// after the interior update, at the target layer's time. Once the
// stepper is Done there are no further layers: Step becomes a no-op and
// returns an untouched copy of v.
func (st *ExplicitStepper) Step(v []float64) []float64 {
	if st.taken >= st.g.N {
		return append([]float64(nil), v...)
	}

	m := st.g.M
	next := make([]float64, m+1)

	// Interior: v'[k] = A_k·v[k-1] + (1+B_k)·v[k] + C_k·v[k+1].
	// Rows 0 and M of the stencil are zero, so those entries carry over
	// untouched until the boundary overwrite below.
	next[0] = v[0]
	next[m] = v[m]
	for k := 1; k < m; k++ {
		next[k] = st.co.A[k]*v[k-1] + (1+st.co.B[k])*v[k] + st.co.C[k]*v[k+1]
	}

	t := st.g.Times[st.taken+1]
	next[0] = st.bnd.Lower(t)
	next[m] = st.bnd.Upper(t)

	st.taken++
	return next
}

// Run advances v0 by steps layers and returns the final vector. Zero
// steps returns an untouched copy of v0. Run(v0, g.N) walks the whole
// grid and leaves the stepper Done.
func (st *ExplicitStepper) Run(v0 []float64, steps int) []float64 {
	v := append([]float64(nil), v0...)
	for i := 0; i < steps; i++ {
		v = st.Step(v)
	}
	return v
}
