package pde

import (
	"fmt"

	"github.com/contactkeval/option-pde/internal/grid"
	"github.com/contactkeval/option-pde/internal/solver"
)

// ImplicitStepper advances layers by solving the fully implicit system
// (I - L)·v' = v at each step. Unconditionally stable, so it carries no
// Dt/Dx^2 constraint; that is the reason it exists alongside the explicit
// scheme. Each step costs one O(M) tridiagonal solve.
type ImplicitStepper struct {
	g   *grid.Grid
	bnd Boundary

	// System diagonals, assembled once: sub = -A, diag = 1-B, super = -C.
	// Coefficient rows 0 and M are zero, which leaves identity rows at the
	// boundary, so boundary values are injected through the RHS.
	sub, diag, super []float64

	taken int
}

func NewImplicitStepper(g *grid.Grid, co *grid.Coefficients, bnd Boundary) *ImplicitStepper {
	st := &ImplicitStepper{
		g:     g,
		bnd:   bnd,
		sub:   make([]float64, g.M+1),
		diag:  make([]float64, g.M+1),
		super: make([]float64, g.M+1),
	}
	for k := 0; k <= g.M; k++ {
		st.sub[k] = -co.A[k]
		st.diag[k] = 1 - co.B[k]
		st.super[k] = -co.C[k]
	}
	return st
}

// State reports where the stepper is relative to the grid's N layers.
func (st *ImplicitStepper) State() State {
	switch {
	case st.taken == 0:
		return StateInitialized
	case st.taken < st.g.N:
		return StateStepping
	}
	return StateDone
}

// Step solves for the next layer. A singular system aborts the run; the
// error names the time index so the caller knows where the run died.
// Once the stepper is Done there are no further layers: Step becomes a
// no-op and returns an untouched copy of v.
func (st *ImplicitStepper) Step(v []float64) ([]float64, error) {
	if st.taken >= st.g.N {
		return append([]float64(nil), v...), nil
	}

	m := st.g.M
	t := st.g.Times[st.taken+1]

	rhs := append([]float64(nil), v...)
	rhs[0] = st.bnd.Lower(t)
	rhs[m] = st.bnd.Upper(t)

	next, err := solver.Solve(st.sub, st.diag, st.super, rhs)
	if err != nil {
		return nil, fmt.Errorf("implicit step at time index %d: %w", st.taken, err)
	}

	st.taken++
	return next, nil
}

// Run advances v0 by steps layers. Zero steps returns an untouched copy
// of v0.
func (st *ImplicitStepper) Run(v0 []float64, steps int) ([]float64, error) {
	v := append([]float64(nil), v0...)
	for i := 0; i < steps; i++ {
		var err error
		v, err = st.Step(v)
		if err != nil {
			return nil, err
		}
	}
	return v, nil
}
