package cashflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Eduvent/bono-app-sub002/internal/domain/entity/bonds"
)

func TestCheckConsistency(t *testing.T) {
	periods := []bonds.CashFlowPeriod{
		{Index: 0, IssuerFlow: 982.5, InvestorFlow: -1000},
		{Index: 1, IssuerFlow: -25, InvestorFlow: 25},
		{Index: 2, IssuerFlow: -25.004, InvestorFlow: 25},
		{Index: 3, IssuerFlow: -25, InvestorFlow: 26},
	}

	warnings := CheckConsistency(periods)
	require.Len(t, warnings, 1)
	assert.Equal(t, 3, warnings[0].Period)
	assert.InDelta(t, 1.0, warnings[0].Difference, 1e-12)
	assert.Contains(t, warnings[0].String(), "period 3")
}

func TestCheckConsistency_ComputedScheduleIsClean(t *testing.T) {
	terms := plainBond()
	terms.PlacementCost = 0.01
	terms.TaxRate = 0.3
	terms.MaturityPremium = 0.02
	terms.Grace = []bonds.GraceEntry{{Period: 1, Kind: bonds.GraceTotal}}

	res, err := Compute(terms)
	require.NoError(t, err)
	assert.Empty(t, res.Warnings)
}
