package pde

import "math"

// Boundary evaluates the Dirichlet conditions of the European call on the
// truncated domain: worthless at the lower edge, forward intrinsic value
// at the upper edge.
type Boundary struct {
	Strike float64
	Rate   float64
	SMax   float64
}

// Lower is the option value pinned at SMin.
func (b Boundary) Lower(t float64) float64 { return 0 }

// Upper is the option value pinned at SMax: s_max - K·e^(-r·t).
func (b Boundary) Upper(t float64) float64 {
	return b.SMax - b.Strike*math.Exp(-b.Rate*t)
}

// Payoff returns the terminal call payoff max(s-K, 0) per grid node.
// Both schemes start stepping from this vector.
func Payoff(s []float64, strike float64) []float64 {
	v := make([]float64, len(s))
	for k, sk := range s {
		v[k] = math.Max(sk-strike, 0)
	}
	return v
}
