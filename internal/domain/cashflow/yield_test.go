package cashflow

import (
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Eduvent/bono-app-sub002/internal/domain/entity/bonds"
)

func TestSolveRate(t *testing.T) {
	testCases := []struct {
		name     string
		flows    []float64
		expected float64
	}{
		{"par bullet", []float64{-1000, 25, 25, 25, 1025}, 0.025},
		{"zero coupon", []float64{-900, 0, 0, 0, 1000}, math.Pow(1000.0/900.0, 0.25) - 1},
		{"discount bond", []float64{-950, 30, 30, 1030}, math.NaN()},
		{"premium bond", []float64{-1100, 40, 40, 40, 40, 1040}, math.NaN()},
		{"issuer side", []float64{982.5, -25, -25, -25, -1025}, math.NaN()},
		{"negative yield", []float64{-1000, 0, 990}, math.Sqrt(0.99) - 1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r, err := SolveRate(tc.flows)
			require.NoError(t, err)

			npv, _ := NPV(tc.flows, r)
			assert.Less(t, math.Abs(npv), solverTolerance)
			assert.GreaterOrEqual(t, r, solverLower)
			assert.LessOrEqual(t, r, solverUpper)
			if !math.IsNaN(tc.expected) {
				assert.InDelta(t, tc.expected, r, 1e-8)
			}
		})
	}
}

func TestSolveRate_ConvergenceErrors(t *testing.T) {
	testCases := []struct {
		name  string
		flows []float64
	}{
		{"all positive", []float64{100, 25, 25}},
		{"all negative", []float64{-100, -25, -25}},
		{"all zero", []float64{0, 0, 0}},
		{"root above bracket", []float64{-1, 1000}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := SolveRate(tc.flows)
			require.ErrorIs(t, err, bonds.ErrConvergence)

			var ce *bonds.ConvergenceError
			require.ErrorAs(t, err, &ce)
			assert.NotEmpty(t, ce.Reason)
		})
	}
}

func TestNPV_Derivative(t *testing.T) {
	flows := []float64{-1000, 25, 25, 25, 1025}
	r := 0.03
	h := 1e-7

	_, deriv := NPV(flows, r)
	up, _ := NPV(flows, r+h)
	down, _ := NPV(flows, r-h)
	assert.InDelta(t, (up-down)/(2*h), deriv, 1e-3)
}

func TestAnnualize(t *testing.T) {
	assert.InDelta(t, 0.050625, Annualize(0.025, 2), 1e-12)
	assert.InDelta(t, 0.1, Annualize(0.1, 1), 1e-12)
	assert.InDelta(t, math.Pow(1.01, 12)-1, Annualize(0.01, 12), 1e-12)
}

func TestSolveRate_LargeNominals(t *testing.T) {
	for _, nominal := range []float64{1e6, 1e9, 1e11} {
		t.Run(fmt.Sprintf("%g", nominal), func(t *testing.T) {
			flows := make([]float64, 21)
			flows[0] = -nominal
			for k := 1; k <= 20; k++ {
				flows[k] = 0.025 * nominal
			}
			flows[20] += nominal

			r, err := SolveRate(flows)
			require.NoError(t, err)
			assert.InDelta(t, 0.025, r, 1e-9)
		})
	}
}

func TestCompute_LargeNominalKeepsMetrics(t *testing.T) {
	terms := plainBond()
	terms.MaturityDate = date(2034, time.January, 15)
	terms.NominalValue = 1e10
	terms.PurchasePrice = 1e10
	terms.PlacementCost = 0.01
	terms.TaxRate = 0.3
	terms.DiscountRate = 0.05

	res, err := Compute(terms)
	require.NoError(t, err)
	require.NoError(t, res.MetricsErr)
	assert.False(t, res.Partial())
	require.NotNil(t, res.Metrics.TREA)
	require.NotNil(t, res.Metrics.TCEA)
	assert.InDelta(t, Annualize(0.025, 2), *res.Metrics.TREA, 1e-9)
}
