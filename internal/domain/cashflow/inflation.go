package cashflow

import (
	"fmt"
	"math"

	"github.com/Eduvent/bono-app-sub002/internal/domain/entity/bonds"
)

const semesterDays = 180.0

// Indexer turns the bond's inflation series into per-period rates and
// applies them to the outstanding principal.
type Indexer struct {
	enabled bool
	inputs  []bonds.InflationRate
	rates   []float64
}

// NewIndexer prepares the periodic inflation rates for periods 1..n. Annual
// and semester rates are compounded to the period length, never scaled.
func NewIndexer(t *bonds.Terms, n int) (*Indexer, error) {
	if !t.InflationIndexed {
		return &Indexer{}, nil
	}
	if len(t.Inflation) < n {
		return nil, &bonds.DataError{
			BondID: t.ID,
			Series: "inflation",
			Period: len(t.Inflation) + 1,
			Reason: fmt.Sprintf("series has %d entries, %d periods required", len(t.Inflation), n),
		}
	}

	periodDays := t.PeriodDays()
	rates := make([]float64, n)
	for k := 1; k <= n; k++ {
		in := t.Inflation[k-1]
		var rate float64
		switch {
		case in.Semester != 0:
			rate = compound(in.Semester, periodDays/semesterDays)
		default:
			rate = compound(in.Annual, periodDays/float64(t.DayCount))
		}
		if math.IsNaN(rate) || rate <= -1 {
			return nil, &bonds.DataError{BondID: t.ID, Series: "inflation", Period: k, Reason: "rate must be greater than -100%"}
		}
		rates[k-1] = rate
	}
	return &Indexer{enabled: true, inputs: t.Inflation[:n], rates: rates}, nil
}

// Enabled reports whether the bond is inflation-linked.
func (ix *Indexer) Enabled() bool { return ix.enabled }

// Rate is the periodic inflation of period k (1-based); zero when indexing is off.
func (ix *Indexer) Rate(k int) float64 {
	if !ix.enabled || k < 1 || k > len(ix.rates) {
		return 0
	}
	return ix.rates[k-1]
}

// Input returns the raw series entry for period k.
func (ix *Indexer) Input(k int) bonds.InflationRate {
	if !ix.enabled || k < 1 || k > len(ix.inputs) {
		return bonds.InflationRate{}
	}
	return ix.inputs[k-1]
}

// Index carries a balance from the end of period k-1 to the start of period k.
func (ix *Indexer) Index(balance float64, k int) float64 {
	return balance * (1 + ix.Rate(k))
}

// Balances is the indexed principal at the start of each period 0..n when
// nothing is repaid: balance(0) = nominal, balance(k) = balance(k-1)*(1+rate(k)).
func (ix *Indexer) Balances(nominal float64, n int) []float64 {
	out := make([]float64, n+1)
	out[0] = nominal
	for k := 1; k <= n; k++ {
		out[k] = ix.Index(out[k-1], k)
	}
	return out
}

// compound converts a rate quoted over one horizon to a rate over `fraction`
// of that horizon.
func compound(rate, fraction float64) float64 {
	return math.Pow(1+rate, fraction) - 1
}
