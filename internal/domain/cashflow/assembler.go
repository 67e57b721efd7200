package cashflow

import (
	"math"

	"github.com/Eduvent/bono-app-sub002/internal/domain/entity/bonds"
)

// foldState is what one period hands to the next.
type foldState struct {
	outstanding float64
}

// Assemble folds over the timeline and produces one CashFlowPeriod per slot.
// rates holds the periodic coupon rate of periods 1..N.
func Assemble(t *bonds.Terms, slots []Slot, ix *Indexer, rates []float64) []bonds.CashFlowPeriod {
	n := len(slots) - 1
	periods := make([]bonds.CashFlowPeriod, 0, len(slots))

	proceeds := t.NetProceeds()
	periods = append(periods, bonds.CashFlowPeriod{
		Index:          0,
		Date:           slots[0].Date,
		Grace:          bonds.GraceNone,
		IndexedBalance: t.NominalValue,
		IssuerFlow:     proceeds,
		IssuerNetFlow:  proceeds,
		InvestorFlow:   -t.PurchasePrice,
	})

	state := foldState{outstanding: t.NominalValue}
	for k := 1; k <= n; k++ {
		var period bonds.CashFlowPeriod
		period, state = step(t, slots[k], ix, rates[k-1], n, state)
		periods = append(periods, period)
	}
	return periods
}

func step(t *bonds.Terms, slot Slot, ix *Indexer, rate float64, n int, state foldState) (bonds.CashFlowPeriod, foldState) {
	k := slot.Index
	balance := ix.Index(state.outstanding, k)
	interest := balance * rate
	remaining := n - k + 1

	var coupon, amortization, capitalized float64
	switch slot.Grace {
	case bonds.GraceTotal:
		if t.CapitalizeGrace {
			capitalized = interest
		}
	case bonds.GracePartial:
		coupon = interest
	default:
		coupon = interest
		amortization = amortize(t.Amortization, balance, rate, remaining)
	}

	var premium float64
	if k == n {
		premium = t.MaturityPremium * t.NominalValue
	}

	installment := coupon + amortization
	shield := coupon * t.TaxRate
	gross := -(installment + premium)
	input := ix.Input(k)

	period := bonds.CashFlowPeriod{
		Index:             k,
		Date:              slot.Date,
		AnnualInflation:   input.Annual,
		SemesterInflation: input.Semester,
		PeriodInflation:   ix.Rate(k),
		Grace:             slot.Grace,
		PeriodicRate:      rate,
		IndexedBalance:    balance,
		Coupon:            coupon,
		Capitalized:       capitalized,
		Amortization:      amortization,
		Installment:       installment,
		Premium:           premium,
		TaxShield:         shield,
		IssuerFlow:        gross,
		IssuerNetFlow:     gross + shield,
		InvestorFlow:      installment + premium,
	}
	return period, foldState{outstanding: balance - amortization + capitalized}
}

// amortize returns the principal repaid in a regular (non-grace) period.
// The last period always repays whatever is left.
func amortize(policy bonds.AmortizationPolicy, balance, rate float64, remaining int) float64 {
	if remaining <= 1 {
		return balance
	}
	switch policy {
	case bonds.AmortizationLevelPrincipal:
		return balance / float64(remaining)
	case bonds.AmortizationLevelInstallment:
		if rate == 0 {
			return balance / float64(remaining)
		}
		installment := balance * rate / (1 - math.Pow(1+rate, -float64(remaining)))
		return installment - balance*rate
	default:
		return 0
	}
}
