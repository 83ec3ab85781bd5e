package pde

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contactkeval/option-pde/internal/data"
)

func validConfig() *Config {
	return &Config{
		Underlying: "SPY",
		Strike:     100,
		Rate:       0.01,
		Sigma:      0.2,
		Maturity:   1,
		SMin:       10,
		SMax:       150,
		TimeSteps:  1000,
		SpaceSteps: 100,
		Scheme:     "both",
	}
}

// Both schemes must land on the closed-form curve across the interior of
// the grid once the discretization is fine enough.
func TestRunConvergesToClosedForm(t *testing.T) {
	e := NewEngine(validConfig(), nil)
	res, err := e.Run()
	require.NoError(t, err)

	require.Len(t, res.S, 101)
	require.Len(t, res.Reference, 101)
	require.Len(t, res.Explicit, 101)
	require.Len(t, res.Implicit, 101)

	assert.Less(t, res.MaxErrImplicit, 0.5, "implicit scheme too far from closed form")
	assert.Less(t, res.MaxErrExplicit, 0.5, "explicit scheme too far from closed form")
	assert.Positive(t, res.StabilityRatio)

	// Inverting the surface near the strike should recover the input vol.
	assert.InDelta(t, 0.2, res.ATMImpliedVolImplicit, 0.02)
	assert.InDelta(t, 0.2, res.ATMImpliedVolExplicit, 0.02)
}

func TestRunSchemeSelection(t *testing.T) {
	cfg := validConfig()
	cfg.TimeSteps = 50
	cfg.SpaceSteps = 20
	cfg.Scheme = "implicit"

	res, err := NewEngine(cfg, nil).Run()
	require.NoError(t, err)
	assert.Nil(t, res.Explicit)
	assert.NotNil(t, res.Implicit)

	cfg2 := validConfig()
	cfg2.TimeSteps = 50
	cfg2.SpaceSteps = 20
	cfg2.Scheme = "explicit"

	res2, err := NewEngine(cfg2, nil).Run()
	require.NoError(t, err)
	assert.NotNil(t, res2.Explicit)
	assert.Nil(t, res2.Implicit)
}

func TestRunRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero strike", func(c *Config) { c.Strike = 0 }},
		{"negative maturity", func(c *Config) { c.Maturity = -1 }},
		{"bounds inverted", func(c *Config) { c.SMin, c.SMax = 150, 10 }},
		{"too few space steps", func(c *Config) { c.SpaceSteps = 1 }},
		{"too few time steps", func(c *Config) { c.TimeSteps = 0 }},
		{"unknown scheme", func(c *Config) { c.Scheme = "crank-nicolson" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			_, err := NewEngine(cfg, nil).Run()
			require.Error(t, err)
		})
	}
}

func TestRunEstimatesVolFromProvider(t *testing.T) {
	cfg := validConfig()
	cfg.Sigma = 0
	cfg.TimeSteps = 50
	cfg.SpaceSteps = 20

	res, err := NewEngine(cfg, data.NewSyntheticProvider(42)).Run()
	require.NoError(t, err)
	assert.NotNil(t, res.Implicit)
}

func TestRunNeedsVolSource(t *testing.T) {
	cfg := validConfig()
	cfg.Sigma = 0

	_, err := NewEngine(cfg, nil).Run()
	require.Error(t, err)
}
