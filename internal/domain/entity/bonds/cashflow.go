package bonds

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleIssuer   Role = "issuer"
	RoleInvestor Role = "investor"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleIssuer, RoleInvestor:
		return true
	default:
		return false
	}
}

func NewRole(s string) (Role, error) {
	r := Role(s)
	if !r.IsValid() {
		return "", fmt.Errorf("invalid role: %s", s)
	}
	return r, nil
}

// CashFlowPeriod is one row of a computed schedule. Period 0 is issuance.
type CashFlowPeriod struct {
	Index             int       `json:"index"`
	Date              time.Time `json:"date"`
	AnnualInflation   float64   `json:"annual_inflation"`
	SemesterInflation float64   `json:"semester_inflation"`
	PeriodInflation   float64   `json:"period_inflation"`
	Grace             GraceKind `json:"grace"`
	PeriodicRate      float64   `json:"periodic_rate"`
	IndexedBalance    float64   `json:"indexed_balance"`
	Coupon            float64   `json:"coupon"`
	Capitalized       float64   `json:"capitalized"`
	Amortization      float64   `json:"amortization"`
	Installment       float64   `json:"installment"`
	Premium           float64   `json:"premium"`
	TaxShield         float64   `json:"tax_shield"`
	IssuerFlow        float64   `json:"issuer_flow"`
	IssuerNetFlow     float64   `json:"issuer_net_flow"`
	InvestorFlow      float64   `json:"investor_flow"`
	DiscountedFlow    float64   `json:"discounted_flow"`
	TimeWeighted      float64   `json:"time_weighted"`
	ConvexityWeighted float64   `json:"convexity_weighted"`
}

// PeriodCore holds the fields shared by both role views.
type PeriodCore struct {
	Index           int       `json:"index"`
	Date            time.Time `json:"date"`
	PeriodInflation float64   `json:"period_inflation"`
	Grace           GraceKind `json:"grace"`
	IndexedBalance  float64   `json:"indexed_balance"`
	Coupon          float64   `json:"coupon"`
	Amortization    float64   `json:"amortization"`
	Installment     float64   `json:"installment"`
	Premium         float64   `json:"premium"`
}

type IssuerView struct {
	PeriodCore
	TaxShield     float64 `json:"tax_shield"`
	IssuerFlow    float64 `json:"issuer_flow"`
	IssuerNetFlow float64 `json:"issuer_net_flow"`
}

type InvestorView struct {
	PeriodCore
	InvestorFlow      float64 `json:"investor_flow"`
	DiscountedFlow    float64 `json:"discounted_flow"`
	TimeWeighted      float64 `json:"time_weighted"`
	ConvexityWeighted float64 `json:"convexity_weighted"`
}

func (p CashFlowPeriod) Core() PeriodCore {
	return PeriodCore{
		Index:           p.Index,
		Date:            p.Date,
		PeriodInflation: p.PeriodInflation,
		Grace:           p.Grace,
		IndexedBalance:  p.IndexedBalance,
		Coupon:          p.Coupon,
		Amortization:    p.Amortization,
		Installment:     p.Installment,
		Premium:         p.Premium,
	}
}

func (p CashFlowPeriod) IssuerView() IssuerView {
	return IssuerView{
		PeriodCore:    p.Core(),
		TaxShield:     p.TaxShield,
		IssuerFlow:    p.IssuerFlow,
		IssuerNetFlow: p.IssuerNetFlow,
	}
}

func (p CashFlowPeriod) InvestorView() InvestorView {
	return InvestorView{
		PeriodCore:        p.Core(),
		InvestorFlow:      p.InvestorFlow,
		DiscountedFlow:    p.DiscountedFlow,
		TimeWeighted:      p.TimeWeighted,
		ConvexityWeighted: p.ConvexityWeighted,
	}
}

// RateSource records which rate a view was discounted at.
type RateSource string

const (
	RateSourceSolved   RateSource = "solved"
	RateSourceDiscount RateSource = "discount"
)

// ViewMetrics are the discount aggregates of one side's flows. Durations are
// in years, convexity in years squared.
type ViewMetrics struct {
	Duration         float64    `json:"duration"`
	ModifiedDuration float64    `json:"modified_duration"`
	Convexity        float64    `json:"convexity"`
	PeriodicRate     float64    `json:"periodic_rate"`
	RateSource       RateSource `json:"rate_source"`
}

// FinancialMetrics is recomputed in full with every schedule. Top-level
// duration figures are the investor's; yields are nil when the solver failed.
type FinancialMetrics struct {
	Duration         float64     `json:"duration"`
	ModifiedDuration float64     `json:"modified_duration"`
	Convexity        float64     `json:"convexity"`
	TCEA             *float64    `json:"tcea"`
	TCEAGross        *float64    `json:"tcea_gross"`
	TREA             *float64    `json:"trea"`
	Price            float64     `json:"price"`
	NPV              float64     `json:"npv"`
	Investor         ViewMetrics `json:"investor"`
	Issuer           ViewMetrics `json:"issuer"`
}

// Schedule is a computed schedule as stored and served by the service layer.
type Schedule struct {
	BondID       uuid.UUID            `json:"bond_id"`
	TermsHash    string               `json:"terms_hash"`
	Periods      []CashFlowPeriod     `json:"periods"`
	Metrics      *FinancialMetrics    `json:"metrics,omitempty"`
	MetricsError string               `json:"metrics_error,omitempty"`
	Partial      bool                 `json:"partial"`
	Warnings     []ConsistencyWarning `json:"warnings,omitempty"`
	ComputedAt   time.Time            `json:"computed_at"`
}
