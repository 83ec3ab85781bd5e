package pde

import (
	"fmt"
	"math"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/contactkeval/option-pde/internal/data"
	"github.com/contactkeval/option-pde/internal/grid"
	"github.com/contactkeval/option-pde/internal/logger"
	"github.com/contactkeval/option-pde/internal/pricing"
)

// Engine wires a run config and an optional market-data provider into one
// pricing run: grid build, payoff, N steps per scheme, closed-form
// reference curve.
type Engine struct {
	cfg  *Config
	prov data.Provider
}

// Config struct
type Config struct {
	Underlying string  `json:"underlying,omitempty"`                                   // e.g. "SPY", used when sourcing vol from market data
	Strike     float64 `json:"strike" validate:"gt=0"`                                 // K
	Rate       float64 `json:"rate"`                                                   // r, annualized
	Sigma      float64 `json:"sigma,omitempty" validate:"gte=0"`                       // annualized vol; 0 = estimate from provider bars
	Maturity   float64 `json:"maturity" validate:"gt=0"`                               // T in years
	SMin       float64 `json:"s_min"`                                                  // lower price bound
	SMax       float64 `json:"s_max" validate:"gtfield=SMin"`                          // upper price bound
	TimeSteps  int     `json:"time_steps" validate:"min=1"`                            // N
	SpaceSteps int     `json:"space_steps" validate:"min=2"`                           // M
	Scheme     string  `json:"scheme,omitempty" validate:"omitempty,oneof=explicit implicit both"` // default "both"
	ReportDir  string  `json:"report_dir,omitempty"`                                   // output directory
	Verbosity  int     `json:"verbosity,omitempty"`                                    // 0=errors,1=info,2=debug
}

// Result carries the final price surfaces plus the validation stats the
// reporting stage consumes. Explicit/Implicit are nil when the scheme was
// not run.
type Result struct {
	Underlying     string    `json:"underlying,omitempty"`
	S              []float64 `json:"s"`
	Explicit       []float64 `json:"explicit,omitempty"`
	Implicit       []float64 `json:"implicit,omitempty"`
	Reference      []float64 `json:"reference"`
	MaxErrExplicit float64   `json:"max_err_explicit,omitempty"`
	MaxErrImplicit float64   `json:"max_err_implicit,omitempty"`

	// Implied vol recovered from each scheme's surface at the grid node
	// nearest the strike; zero when the inversion does not converge
	// (e.g. a blown-up explicit run).
	ATMImpliedVolExplicit float64 `json:"atm_implied_vol_explicit,omitempty"`
	ATMImpliedVolImplicit float64 `json:"atm_implied_vol_implicit,omitempty"`

	StabilityRatio float64 `json:"stability_ratio"`
}

func NewEngine(cfg *Config, prov data.Provider) *Engine {
	return &Engine{cfg: cfg, prov: prov}
}

// Run executes one pricing run.
func (e *Engine) Run() (*Result, error) {
	cfg := e.cfg
	// fill defaults
	if cfg.Scheme == "" {
		cfg.Scheme = "both"
	}
	if cfg.ReportDir == "" {
		cfg.ReportDir = "./out"
	}
	if cfg.Verbosity < 0 || cfg.Verbosity > 3 {
		cfg.Verbosity = 1
	}
	logger.SetVerbosity(cfg.Verbosity)

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid run config: %w", err)
	}

	sigma := cfg.Sigma
	if sigma == 0 {
		hv, err := e.historicalVol()
		if err != nil {
			return nil, fmt.Errorf("sigma unset and vol estimate failed: %w", err)
		}
		logger.Infof("hist vol = %.2f%%", hv*100)
		sigma = hv
	}

	g, co, err := grid.Build(grid.Params{
		SMin:  cfg.SMin,
		SMax:  cfg.SMax,
		T:     cfg.Maturity,
		N:     cfg.TimeSteps,
		M:     cfg.SpaceSteps,
		Sigma: sigma,
		R:     cfg.Rate,
	})
	if err != nil {
		return nil, err
	}
	logger.Infof("grid %dx%d dt=%g dx=%g dt/dx^2=%.4g", g.N, g.M, g.Dt, g.Dx, g.StabilityRatio())

	bnd := Boundary{Strike: cfg.Strike, Rate: cfg.Rate, SMax: cfg.SMax}
	v0 := Payoff(g.S, cfg.Strike)

	res := &Result{
		Underlying:     cfg.Underlying,
		S:              g.S,
		Reference:      pricing.CallPrices(g.S, cfg.Strike, cfg.Maturity, cfg.Rate, sigma),
		StabilityRatio: g.StabilityRatio(),
	}

	start := time.Now()
	atm := nearestIndex(g.S, cfg.Strike)
	if cfg.Scheme == "explicit" || cfg.Scheme == "both" {
		st := NewExplicitStepper(g, co, bnd)
		res.Explicit = st.Run(v0, g.N)
		res.MaxErrExplicit = maxInteriorErr(res.Explicit, res.Reference)
		res.ATMImpliedVolExplicit = atmImpliedVol(g.S[atm], res.Explicit[atm], cfg, sigma)
		logger.Infof("explicit done, max interior err vs closed form = %.4f", res.MaxErrExplicit)
	}
	if cfg.Scheme == "implicit" || cfg.Scheme == "both" {
		st := NewImplicitStepper(g, co, bnd)
		v, err := st.Run(v0, g.N)
		if err != nil {
			return nil, err
		}
		res.Implicit = v
		res.MaxErrImplicit = maxInteriorErr(res.Implicit, res.Reference)
		res.ATMImpliedVolImplicit = atmImpliedVol(g.S[atm], res.Implicit[atm], cfg, sigma)
		logger.Infof("implicit done, max interior err vs closed form = %.4f", res.MaxErrImplicit)
	}
	logger.Debugf("stepping finished in %v", time.Since(start))

	return res, nil
}

// historicalVol estimates annualized volatility from one year of provider
// daily bars when the config leaves sigma unset.
func (e *Engine) historicalVol() (float64, error) {
	if e.prov == nil {
		return 0, fmt.Errorf("no market data provider configured")
	}
	underlying := e.cfg.Underlying
	if underlying == "" {
		underlying = "SPY"
	}
	to := time.Now().UTC()
	bars, err := e.prov.GetDailyBars(underlying, to.AddDate(-1, 0, 0), to)
	if err != nil {
		return 0, err
	}
	if len(bars) < 2 {
		return 0, fmt.Errorf("not enough bars for %s to estimate vol", underlying)
	}
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return data.AnnualizedVolatility(closes), nil
}

// atmImpliedVol inverts the surface price at the near-the-strike node
// back to a volatility, a second sanity stat alongside the max errors: a
// healthy run recovers something close to the input sigma. Failures
// (blown-up surfaces) report as zero, not as an error.
func atmImpliedVol(spot, price float64, cfg *Config, sigma float64) float64 {
	iv, err := pricing.ImpliedVolATM(spot, cfg.Strike, cfg.Maturity, cfg.Rate, price)
	if err != nil {
		logger.Debugf("ATM implied vol did not converge (input vol %.4f): %v", sigma, err)
		return 0
	}
	logger.Debugf("ATM implied vol %.2f%% (input vol %.2f%%)", iv*100, sigma*100)
	return iv
}

// nearestIndex returns the index of the grid node closest to target.
func nearestIndex(s []float64, target float64) int {
	best := 0
	for k := range s {
		if math.Abs(s[k]-target) < math.Abs(s[best]-target) {
			best = k
		}
	}
	return best
}

// maxInteriorErr is the max abs difference over interior nodes only; the
// truncated-domain bias at the edges is not a scheme error.
func maxInteriorErr(got, ref []float64) float64 {
	maxErr := 0.0
	for k := 1; k < len(got)-1; k++ {
		if d := math.Abs(got[k] - ref[k]); d > maxErr {
			maxErr = d
		}
	}
	return maxErr
}
