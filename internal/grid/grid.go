// Package grid builds the uniform time/price discretization of the
// Black-Scholes PDE domain and derives the per-node stencil coefficients
// shared by the explicit and implicit schemes.
//
// A Grid and its Coefficients are built once per pricing run and must not
// be mutated afterwards; concurrent runs each own their own copies.
package grid

import (
	"errors"
	"fmt"
)

// ErrBadConfig is returned (wrapped) for any invalid grid parameter set.
// Callers match it with errors.Is.
var ErrBadConfig = errors.New("grid: invalid parameters")

// Params are the inputs of a grid build.
type Params struct {
	SMin  float64 // lower price bound of the truncated domain
	SMax  float64 // upper price bound
	T     float64 // maturity in years
	N     int     // time steps (layers = N+1)
	M     int     // space steps (nodes = M+1)
	Sigma float64 // annualized volatility
	R     float64 // risk-free rate
}

// Grid is the uniform discretization of [0,T] x [SMin,SMax].
type Grid struct {
	N, M  int
	Dt    float64   // T/N
	Dx    float64   // (SMax-SMin)/M
	S     []float64 // price levels, len M+1, S[0]=SMin .. S[M]=SMax
	Times []float64 // time points, len N+1, Times[0]=0 .. Times[N]=T
}

// Coefficients are the per-node stencil weights, len M+1 each.
// Entries 0 and M are forced to zero so boundary nodes never act as
// update sources for the interior.
type Coefficients struct {
	A []float64 // sub-diagonal weight
	B []float64 // diagonal weight
	C []float64 // super-diagonal weight
}

// Build validates p and constructs the grid and its coefficients.
//
// The coefficients do not depend on time (constant-parameter PDE), so one
// derivation serves every layer of the run.
func Build(p Params) (*Grid, *Coefficients, error) {
	if err := validate(p); err != nil {
		return nil, nil, err
	}

	g := &Grid{
		N:  p.N,
		M:  p.M,
		Dt: p.T / float64(p.N),
		Dx: (p.SMax - p.SMin) / float64(p.M),
	}

	g.S = make([]float64, p.M+1)
	for k := 0; k <= p.M; k++ {
		g.S[k] = p.SMin + float64(k)*g.Dx
	}
	g.S[p.M] = p.SMax // exact endpoint, no accumulated rounding

	g.Times = make([]float64, p.N+1)
	for n := 0; n <= p.N; n++ {
		g.Times[n] = float64(n) * g.Dt
	}
	g.Times[p.N] = p.T

	co := &Coefficients{
		A: make([]float64, p.M+1),
		B: make([]float64, p.M+1),
		C: make([]float64, p.M+1),
	}
	diffusion := p.Sigma * p.Sigma * g.Dt / (g.Dx * g.Dx)
	drift := p.R * g.Dt / g.Dx
	for k := 1; k < p.M; k++ {
		s := g.S[k]
		co.A[k] = 0.5*diffusion*s*s - 0.5*drift*s
		co.B[k] = -diffusion*s*s - p.R*g.Dt
		co.C[k] = 0.5*diffusion*s*s + 0.5*drift*s
	}
	// rows 0 and M stay zero

	return g, co, nil
}

// StabilityRatio returns Dt/Dx^2, the quantity a caller should bound
// before trusting the explicit scheme. The grid never enforces it.
func (g *Grid) StabilityRatio() float64 {
	return g.Dt / (g.Dx * g.Dx)
}

func validate(p Params) error {
	switch {
	case p.M < 2:
		return fmt.Errorf("space steps M=%d, need at least 2: %w", p.M, ErrBadConfig)
	case p.N < 1:
		return fmt.Errorf("time steps N=%d, need at least 1: %w", p.N, ErrBadConfig)
	case p.SMin >= p.SMax:
		return fmt.Errorf("price bounds [%g,%g] not increasing: %w", p.SMin, p.SMax, ErrBadConfig)
	case p.Sigma <= 0:
		return fmt.Errorf("volatility %g must be positive: %w", p.Sigma, ErrBadConfig)
	case p.T <= 0:
		return fmt.Errorf("maturity %g must be positive: %w", p.T, ErrBadConfig)
	}
	return nil
}
