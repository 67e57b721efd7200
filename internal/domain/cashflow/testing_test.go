package cashflow

import (
	"time"

	"github.com/google/uuid"

	"github.com/Eduvent/bono-app-sub002/internal/domain/entity/bonds"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// plainBond is the reference case: 2-year, 5% nominal, semiannual, bullet,
// no inflation, no grace, no costs, no tax.
func plainBond() *bonds.Terms {
	return &bonds.Terms{
		ID:            uuid.MustParse("6f1c1f8e-3f4e-4a8e-9a55-1d2b3c4d5e6f"),
		Name:          "plain",
		Currency:      "PEN",
		NominalValue:  1000,
		PurchasePrice: 1000,
		IssueDate:     date(2024, time.January, 15),
		MaturityDate:  date(2026, time.January, 15),
		CouponRate:    0.05,
		Frequency:     2,
		Amortization:  bonds.AmortizationBullet,
		DayCount:      360,
	}
}

func sumAmortization(periods []bonds.CashFlowPeriod) float64 {
	var total float64
	for _, p := range periods[1:] {
		total += p.Amortization
	}
	return total
}
