package cashflow

import (
	"fmt"

	"github.com/Eduvent/bono-app-sub002/internal/domain/entity/bonds"
)

// PeriodicRate converts an annual coupon rate to the bond's period length
// under its rate convention.
func PeriodicRate(t *bonds.Terms, annual float64) float64 {
	if t.EffectiveRateConvention() == bonds.RateEffective {
		return compound(annual, t.PeriodDays()/float64(t.DayCount))
	}
	return annual / float64(t.Frequency)
}

// PeriodicDiscountRate is the annual effective discount rate compounded to
// one period.
func PeriodicDiscountRate(t *bonds.Terms) float64 {
	return compound(t.DiscountRate, t.PeriodDays()/float64(t.DayCount))
}

// couponRates returns the periodic coupon rate of periods 1..n. Floating
// bonds under the reset policy re-derive it each period from their index.
func couponRates(t *bonds.Terms, n int) ([]float64, error) {
	rates := make([]float64, n)
	reset := t.EffectiveRateType() == bonds.RateFloating && t.EffectiveFloatingPolicy() == bonds.FloatingReset
	if !reset {
		fixed := PeriodicRate(t, t.CouponRate)
		for i := range rates {
			rates[i] = fixed
		}
		return rates, nil
	}

	if len(t.FloatingRates) < n {
		return nil, &bonds.DataError{
			BondID: t.ID,
			Series: "floating_rates",
			Period: len(t.FloatingRates) + 1,
			Reason: fmt.Sprintf("series has %d entries, %d periods required", len(t.FloatingRates), n),
		}
	}
	for k := 1; k <= n; k++ {
		annual := t.FloatingRates[k-1] + t.Spread
		if annual < 0 {
			return nil, &bonds.DataError{BondID: t.ID, Series: "floating_rates", Period: k, Reason: "index plus spread is negative"}
		}
		rates[k-1] = PeriodicRate(t, annual)
	}
	return rates, nil
}
