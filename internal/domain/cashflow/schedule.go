package cashflow

import (
	"fmt"
	"time"

	"github.com/Eduvent/bono-app-sub002/internal/domain/entity/bonds"
)

// Slot is one entry of the period timeline: its index, payment date and the
// grace kind that applies to it. Slot 0 is the issuance date.
type Slot struct {
	Index int
	Date  time.Time
	Grace bonds.GraceKind
}

// BuildSchedule lays out periods 0..N for the bond. N is the whole number of
// periods between issue and maturity; a maturity that falls between two
// coupon dates is rejected rather than truncated. Grace entries must lie in
// [1, N], and partial or total grace at period N is rejected as well, because
// the final period has to repay the outstanding principal.
func BuildSchedule(t *bonds.Terms) ([]Slot, error) {
	n, err := periodCount(t)
	if err != nil {
		return nil, err
	}

	grace := make(map[int]bonds.GraceKind, len(t.Grace))
	for _, entry := range t.Grace {
		if entry.Period < 1 || entry.Period > n {
			return nil, &bonds.ValidationError{BondID: t.ID, Field: "grace", Period: entry.Period, Reason: fmt.Sprintf("period outside [1, %d]", n)}
		}
		if !entry.Kind.IsValid() {
			return nil, &bonds.ValidationError{BondID: t.ID, Field: "grace", Period: entry.Period, Reason: fmt.Sprintf("unknown kind %q", entry.Kind)}
		}
		if _, dup := grace[entry.Period]; dup {
			return nil, &bonds.ValidationError{BondID: t.ID, Field: "grace", Period: entry.Period, Reason: "period listed twice"}
		}
		if entry.Period == n && entry.Kind != bonds.GraceNone {
			return nil, &bonds.ValidationError{BondID: t.ID, Field: "grace", Period: entry.Period, Reason: "principal must be repaid at maturity"}
		}
		grace[entry.Period] = entry.Kind
	}

	step := t.PeriodMonths()
	slots := make([]Slot, 0, n+1)
	slots = append(slots, Slot{Index: 0, Date: t.IssueDate, Grace: bonds.GraceNone})
	for k := 1; k <= n; k++ {
		kind, ok := grace[k]
		if !ok {
			kind = bonds.GraceNone
		}
		slots = append(slots, Slot{
			Index: k,
			Date:  addMonths(t.IssueDate, k*step),
			Grace: kind,
		})
	}
	return slots, nil
}

func periodCount(t *bonds.Terms) (int, error) {
	if t.Frequency <= 0 || 12%t.Frequency != 0 {
		return 0, &bonds.ValidationError{BondID: t.ID, Field: "frequency", Reason: fmt.Sprintf("%d periods per year does not divide a year into whole months", t.Frequency)}
	}
	if t.IssueDate.IsZero() || t.MaturityDate.IsZero() {
		return 0, &bonds.ValidationError{BondID: t.ID, Field: "dates", Reason: "issue and maturity dates are required"}
	}
	if !t.MaturityDate.After(t.IssueDate) {
		return 0, &bonds.ValidationError{BondID: t.ID, Field: "maturity_date", Reason: "must be after issue date"}
	}

	iy, im, _ := t.IssueDate.Date()
	my, mm, _ := t.MaturityDate.Date()
	months := (my-iy)*12 + int(mm-im)
	if !sameDay(addMonths(t.IssueDate, months), t.MaturityDate) || months%t.PeriodMonths() != 0 {
		return 0, &bonds.ValidationError{BondID: t.ID, Field: "maturity_date", Reason: "tenor is not a whole number of periods"}
	}
	return months / t.PeriodMonths(), nil
}

// addMonths behaves like a spreadsheet EDATE: the day is clamped to the last
// day of the target month instead of overflowing into the next one.
func addMonths(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(months), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	if last := first.AddDate(0, 1, -1).Day(); d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// Validate checks the terms without computing anything. Compute runs it
// first; the bond service runs it before storing terms.
func Validate(t *bonds.Terms) error {
	if t == nil {
		return &bonds.ValidationError{Reason: "terms are nil"}
	}
	invalid := func(field, reason string) error {
		return &bonds.ValidationError{BondID: t.ID, Field: field, Reason: reason}
	}

	switch {
	case t.NominalValue <= 0:
		return invalid("nominal_value", "must be positive")
	case t.PurchasePrice <= 0:
		return invalid("purchase_price", "must be positive")
	case t.CouponRate < 0:
		return invalid("coupon_rate", "must not be negative")
	case !t.EffectiveRateType().IsValid():
		return invalid("rate_type", fmt.Sprintf("unknown rate type %q", t.RateType))
	case !t.EffectiveRateConvention().IsValid():
		return invalid("rate_convention", fmt.Sprintf("unknown rate convention %q", t.RateConvention))
	case !t.EffectiveFloatingPolicy().IsValid():
		return invalid("floating_policy", fmt.Sprintf("unknown floating policy %q", t.FloatingPolicy))
	case !t.Amortization.IsValid():
		return invalid("amortization", fmt.Sprintf("unknown amortization policy %q", t.Amortization))
	case t.DayCount < 360 || t.DayCount > 366:
		return invalid("day_count", "days per year must be between 360 and 366")
	case t.TaxRate < 0 || t.TaxRate >= 1:
		return invalid("tax_rate", "must be in [0, 1)")
	case t.MaturityPremium < 0:
		return invalid("maturity_premium", "must not be negative")
	case t.PlacementCost < 0 || t.FlotationCost < 0 || t.SettlementCost < 0:
		return invalid("costs", "cost percentages must not be negative")
	case t.IssueCosts() >= 1:
		return invalid("costs", "issue costs consume the whole nominal value")
	case t.DiscountRate <= -1:
		return invalid("discount_rate", "must be greater than -100%")
	}

	_, err := BuildSchedule(t)
	return err
}
