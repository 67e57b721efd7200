// Package cashflow computes a bond's period-by-period cash flows and the
// metrics both sides of the bond derive from them.
//
// Everything here is a pure function of bonds.Terms: no I/O, no shared
// state, no logging. Periods of one bond are folded strictly in order;
// distinct bonds can be computed concurrently without coordination.
package cashflow

import (
	"errors"

	"github.com/Eduvent/bono-app-sub002/internal/domain/entity/bonds"
)

// Result is the outcome of one computation. When MetricsErr is set the
// periods are complete but the yields in Metrics are missing.
type Result struct {
	Periods    []bonds.CashFlowPeriod
	Metrics    *bonds.FinancialMetrics
	MetricsErr error
	Warnings   []bonds.ConsistencyWarning
}

// Partial reports whether the metrics are degraded.
func (r *Result) Partial() bool {
	return r.MetricsErr != nil
}

// Compute runs the whole pipeline: timeline, indexing, assembly, metrics and
// the consistency pass. Validation and data errors abort before any period
// is produced; convergence errors only degrade the metrics.
func Compute(t *bonds.Terms) (*Result, error) {
	if err := Validate(t); err != nil {
		return nil, err
	}
	slots, err := BuildSchedule(t)
	if err != nil {
		return nil, err
	}
	n := len(slots) - 1

	ix, err := NewIndexer(t, n)
	if err != nil {
		return nil, err
	}
	rates, err := couponRates(t, n)
	if err != nil {
		return nil, err
	}

	periods := Assemble(t, slots, ix, rates)
	metrics, metricsErr := measure(t, periods)
	return &Result{
		Periods:    periods,
		Metrics:    metrics,
		MetricsErr: metricsErr,
		Warnings:   CheckConsistency(periods),
	}, nil
}

// measure solves both sides' yields and aggregates their discount metrics.
// A side whose yield does not converge is discounted at the bond's discount
// rate instead, and its yield stays nil.
func measure(t *bonds.Terms, periods []bonds.CashFlowPeriod) (*bonds.FinancialMetrics, error) {
	investor := make([]float64, len(periods))
	issuerGross := make([]float64, len(periods))
	issuerNet := make([]float64, len(periods))
	for i, p := range periods {
		investor[i] = p.InvestorFlow
		issuerGross[i] = p.IssuerFlow
		issuerNet[i] = p.IssuerNetFlow
	}

	fallback := PeriodicDiscountRate(t)
	metrics := &bonds.FinancialMetrics{}
	var errs []error

	solve := func(flows []float64, view string) (float64, *float64, bool) {
		r, err := SolveRate(flows)
		if err != nil {
			var ce *bonds.ConvergenceError
			if errors.As(err, &ce) {
				ce.BondID = t.ID
				ce.View = view
			}
			errs = append(errs, err)
			return 0, nil, false
		}
		annual := Annualize(r, t.Frequency)
		return r, &annual, true
	}

	investorRate, trea, ok := solve(investor, "investor")
	investorSource := bonds.RateSourceSolved
	if !ok {
		investorRate, investorSource = fallback, bonds.RateSourceDiscount
	}
	issuerRate, tcea, ok := solve(issuerNet, "issuer")
	issuerSource := bonds.RateSourceSolved
	if !ok {
		issuerRate, issuerSource = fallback, bonds.RateSourceDiscount
	}
	_, tceaGross, _ := solve(issuerGross, "issuer gross")

	metrics.TREA = trea
	metrics.TCEA = tcea
	metrics.TCEAGross = tceaGross

	metrics.Investor = Measure(investor, investorRate, t.Frequency)
	metrics.Investor.RateSource = investorSource
	metrics.Issuer = Measure(issuerGross, issuerRate, t.Frequency)
	metrics.Issuer.RateSource = issuerSource

	metrics.Duration = metrics.Investor.Duration
	metrics.ModifiedDuration = metrics.Investor.ModifiedDuration
	metrics.Convexity = metrics.Investor.Convexity

	metrics.Price = Discount(investor, fallback).PresentValue()
	metrics.NPV = metrics.Price - t.PurchasePrice

	d := Discount(investor, investorRate)
	for i := range periods {
		periods[i].DiscountedFlow = d.Flows[i]
		periods[i].TimeWeighted = d.TimeWeighted[i]
		periods[i].ConvexityWeighted = d.ConvexityWeighted[i]
	}

	return metrics, errors.Join(errs...)
}
