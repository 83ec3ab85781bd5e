package pde

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contactkeval/option-pde/internal/grid"
	"github.com/contactkeval/option-pde/internal/solver"
	"github.com/contactkeval/option-pde/internal/testutil"
)

func buildTestGrid(t *testing.T, n, m int) (*grid.Grid, *grid.Coefficients, Boundary) {
	t.Helper()
	g, co, err := grid.Build(grid.Params{
		SMin: 10, SMax: 150, T: 1, N: n, M: m, Sigma: 0.2, R: 0.01,
	})
	require.NoError(t, err)
	return g, co, Boundary{Strike: 100, Rate: 0.01, SMax: 150}
}

func TestPayoffInvariant(t *testing.T) {
	g, _, _ := buildTestGrid(t, 10, 20)
	v := Payoff(g.S, 100)
	require.Len(t, v, g.M+1)
	for k, s := range g.S {
		assert.Equal(t, math.Max(s-100, 0), v[k], "node %d", k)
	}
}

func TestZeroStepsLeavePayoffUntouched(t *testing.T) {
	g, co, bnd := buildTestGrid(t, 10, 20)
	v0 := Payoff(g.S, 100)

	ex := NewExplicitStepper(g, co, bnd)
	got := ex.Run(v0, 0)
	assert.Equal(t, v0, got)
	assert.Equal(t, StateInitialized, ex.State())

	im := NewImplicitStepper(g, co, bnd)
	got2, err := im.Run(v0, 0)
	require.NoError(t, err)
	assert.Equal(t, v0, got2)
	assert.Equal(t, StateInitialized, im.State())
}

func TestStepDoesNotMutateInput(t *testing.T) {
	g, co, bnd := buildTestGrid(t, 10, 20)
	v0 := Payoff(g.S, 100)
	orig := append([]float64(nil), v0...)

	_ = NewExplicitStepper(g, co, bnd).Step(v0)
	assert.Equal(t, orig, v0)

	_, err := NewImplicitStepper(g, co, bnd).Step(v0)
	require.NoError(t, err)
	assert.Equal(t, orig, v0)
}

func TestBoundaryInvariantEveryLayer(t *testing.T) {
	g, co, bnd := buildTestGrid(t, 50, 30)

	checkLayer := func(t *testing.T, v []float64, i int) {
		t.Helper()
		tgt := g.Times[i]
		assert.Equal(t, 0.0, v[0], "lower boundary at layer %d", i)
		assert.InDelta(t, 150-100*math.Exp(-0.01*tgt), v[g.M], 1e-12, "upper boundary at layer %d", i)
	}

	ex := NewExplicitStepper(g, co, bnd)
	v := Payoff(g.S, 100)
	for i := 0; i < g.N; i++ {
		v = ex.Step(v)
		checkLayer(t, v, i+1)
	}
	assert.Equal(t, StateDone, ex.State())

	im := NewImplicitStepper(g, co, bnd)
	v = Payoff(g.S, 100)
	for i := 0; i < g.N; i++ {
		var err error
		v, err = im.Step(v)
		require.NoError(t, err)
		checkLayer(t, v, i+1)
	}
	assert.Equal(t, StateDone, im.State())
}

func TestStateTransitions(t *testing.T) {
	g, co, bnd := buildTestGrid(t, 3, 10)
	st := NewExplicitStepper(g, co, bnd)
	v := Payoff(g.S, 100)

	assert.Equal(t, StateInitialized, st.State())
	v = st.Step(v)
	assert.Equal(t, StateStepping, st.State())
	v = st.Step(v)
	assert.Equal(t, StateStepping, st.State())
	_ = st.Step(v)
	assert.Equal(t, StateDone, st.State())
}

func TestStepPastDoneIsNoOp(t *testing.T) {
	g, co, bnd := buildTestGrid(t, 1, 10)
	v0 := Payoff(g.S, 100)

	ex := NewExplicitStepper(g, co, bnd)
	v := ex.Step(v0)
	require.Equal(t, StateDone, ex.State())
	again := ex.Step(v)
	assert.Equal(t, v, again)
	assert.Equal(t, StateDone, ex.State())

	im := NewImplicitStepper(g, co, bnd)
	w, err := im.Step(v0)
	require.NoError(t, err)
	require.Equal(t, StateDone, im.State())
	wAgain, err := im.Step(w)
	require.NoError(t, err)
	assert.Equal(t, w, wAgain)
	assert.Equal(t, StateDone, im.State())
}

func TestSchemesAgreeInStableRegime(t *testing.T) {
	// N=1000 keeps dt below the explicit scheme's stability threshold for
	// sigma=0.2 on [10,150] with M=100.
	g, co, bnd := buildTestGrid(t, 1000, 100)
	v0 := Payoff(g.S, 100)

	exp := NewExplicitStepper(g, co, bnd).Run(v0, g.N)
	imp, err := NewImplicitStepper(g, co, bnd).Run(v0, g.N)
	require.NoError(t, err)

	// Boundary nodes are pinned identically in both schemes, so the
	// whole-vector max is the interior max.
	maxDiff := testutil.MaxAbsDiff(t, exp, imp)
	assert.Less(t, maxDiff, 0.5, "schemes diverged: max diff %f", maxDiff)
}

func TestImplicitSingularSystemPropagates(t *testing.T) {
	g, _, bnd := buildTestGrid(t, 5, 2)

	// Hand-built coefficients with B=1 at the single interior node leave a
	// zero diagonal pivot in the implicit system.
	co := &grid.Coefficients{
		A: []float64{0, 0, 0},
		B: []float64{0, 1, 0},
		C: []float64{0, 0, 0},
	}
	st := NewImplicitStepper(g, co, bnd)
	v0 := Payoff(g.S, 100)

	_, err := st.Step(v0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, solver.ErrSingular), "want ErrSingular, got %v", err)
	assert.Contains(t, err.Error(), "time index 0")

	// No NaN ever reaches the caller.
	res, err2 := st.Run(v0, g.N)
	require.Error(t, err2)
	assert.Nil(t, res)
}

func TestExplicitBlowUpIsDataNotError(t *testing.T) {
	// Deliberately unstable: a handful of giant time steps.
	g, co, err := grid.Build(grid.Params{
		SMin: 10, SMax: 150, T: 1, N: 2, M: 140, Sigma: 0.8, R: 0.01,
	})
	require.NoError(t, err)
	bnd := Boundary{Strike: 100, Rate: 0.01, SMax: 150}

	st := NewExplicitStepper(g, co, bnd)
	v := st.Run(Payoff(g.S, 100), g.N)

	// The run completes; garbage values are the caller's problem.
	require.Len(t, v, g.M+1)
	assert.Equal(t, StateDone, st.State())
}
