package cashflow

import (
	"math"

	"github.com/Eduvent/bono-app-sub002/internal/domain/entity/bonds"
)

// ConsistencyTolerance is the absolute currency difference allowed between
// the issuer's gross outflow and the investor's inflow of one period.
const ConsistencyTolerance = 0.01

// CheckConsistency verifies that issuer (gross, pre-shield) and investor
// flows mirror each other in periods 1..N. Period 0 is skipped: proceeds net
// of issue costs and the purchase price differ by construction.
func CheckConsistency(periods []bonds.CashFlowPeriod) []bonds.ConsistencyWarning {
	var warnings []bonds.ConsistencyWarning
	for _, p := range periods {
		if p.Index == 0 {
			continue
		}
		diff := p.IssuerFlow + p.InvestorFlow
		if math.Abs(diff) >= ConsistencyTolerance || math.IsNaN(diff) {
			warnings = append(warnings, bonds.ConsistencyWarning{
				Period:       p.Index,
				IssuerFlow:   p.IssuerFlow,
				InvestorFlow: p.InvestorFlow,
				Difference:   diff,
			})
		}
	}
	return warnings
}
