package bonds

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type RateType string

const (
	RateFixed    RateType = "fixed"
	RateFloating RateType = "floating"
)

func (rt RateType) IsValid() bool {
	switch rt {
	case RateFixed, RateFloating:
		return true
	default:
		return false
	}
}

// RateConvention tells how an annual rate is turned into a periodic one.
type RateConvention string

const (
	RateNominal   RateConvention = "nominal"
	RateEffective RateConvention = "effective"
)

func (rc RateConvention) IsValid() bool {
	switch rc {
	case RateNominal, RateEffective:
		return true
	default:
		return false
	}
}

// FloatingPolicy selects whether a floating bond keeps its coupon rate or
// re-derives it every period from FloatingRates.
type FloatingPolicy string

const (
	FloatingHold  FloatingPolicy = "hold"
	FloatingReset FloatingPolicy = "reset"
)

func (fp FloatingPolicy) IsValid() bool {
	switch fp {
	case FloatingHold, FloatingReset:
		return true
	default:
		return false
	}
}

type AmortizationPolicy string

const (
	AmortizationBullet           AmortizationPolicy = "bullet"
	AmortizationLevelPrincipal   AmortizationPolicy = "level_principal"
	AmortizationLevelInstallment AmortizationPolicy = "level_installment"
)

func (ap AmortizationPolicy) IsValid() bool {
	switch ap {
	case AmortizationBullet, AmortizationLevelPrincipal, AmortizationLevelInstallment:
		return true
	default:
		return false
	}
}

type GraceKind string

const (
	GraceNone    GraceKind = "none"
	GracePartial GraceKind = "partial"
	GraceTotal   GraceKind = "total"
)

func (gk GraceKind) String() string {
	return string(gk)
}

func (gk GraceKind) IsValid() bool {
	switch gk {
	case GraceNone, GracePartial, GraceTotal:
		return true
	default:
		return false
	}
}

func NewGraceKind(s string) (GraceKind, error) {
	gk := GraceKind(s)
	if !gk.IsValid() {
		return "", fmt.Errorf("invalid grace kind: %s", s)
	}
	return gk, nil
}

// GraceEntry marks a single period (1-based) with a grace kind.
type GraceEntry struct {
	Period int       `json:"period" yaml:"period"`
	Kind   GraceKind `json:"kind" yaml:"kind"`
}

// InflationRate is the inflation observed for one period. Semester takes
// precedence over Annual when it is non-zero.
type InflationRate struct {
	Annual   float64 `json:"annual,omitempty" yaml:"annual,omitempty"`
	Semester float64 `json:"semester,omitempty" yaml:"semester,omitempty"`
}

// Terms are the static terms of a bond. Rates and cost percentages are
// decimals (0.05 = 5%).
type Terms struct {
	ID             uuid.UUID          `json:"id" yaml:"id"`
	Name           string             `json:"name,omitempty" yaml:"name,omitempty"`
	Currency       string             `json:"currency,omitempty" yaml:"currency,omitempty"`
	NominalValue   float64            `json:"nominal_value" yaml:"nominal_value"`
	PurchasePrice  float64            `json:"purchase_price" yaml:"purchase_price"`
	IssueDate      time.Time          `json:"issue_date" yaml:"issue_date"`
	MaturityDate   time.Time          `json:"maturity_date" yaml:"maturity_date"`
	CouponRate     float64            `json:"coupon_rate" yaml:"coupon_rate"`
	RateConvention RateConvention     `json:"rate_convention,omitempty" yaml:"rate_convention,omitempty"`
	RateType       RateType           `json:"rate_type,omitempty" yaml:"rate_type,omitempty"`
	FloatingPolicy FloatingPolicy     `json:"floating_policy,omitempty" yaml:"floating_policy,omitempty"`
	FloatingRates  []float64          `json:"floating_rates,omitempty" yaml:"floating_rates,omitempty"`
	Spread         float64            `json:"spread,omitempty" yaml:"spread,omitempty"`
	Frequency      int                `json:"frequency" yaml:"frequency"`
	Amortization   AmortizationPolicy `json:"amortization" yaml:"amortization"`

	InflationIndexed bool            `json:"inflation_indexed" yaml:"inflation_indexed"`
	Inflation        []InflationRate `json:"inflation,omitempty" yaml:"inflation,omitempty"`

	Grace           []GraceEntry `json:"grace,omitempty" yaml:"grace,omitempty"`
	CapitalizeGrace bool         `json:"capitalize_grace" yaml:"capitalize_grace"`

	MaturityPremium float64 `json:"maturity_premium" yaml:"maturity_premium"`
	PlacementCost   float64 `json:"placement_cost" yaml:"placement_cost"`
	FlotationCost   float64 `json:"flotation_cost" yaml:"flotation_cost"`
	SettlementCost  float64 `json:"settlement_cost" yaml:"settlement_cost"`
	DiscountRate    float64 `json:"discount_rate" yaml:"discount_rate"`
	DayCount        int     `json:"day_count" yaml:"day_count"`
	TaxRate         float64 `json:"tax_rate" yaml:"tax_rate"`

	CreatedAt time.Time `json:"created_at,omitempty" yaml:"-"`
	UpdatedAt time.Time `json:"updated_at,omitempty" yaml:"-"`
}

// PeriodMonths is the number of calendar months between two coupon dates.
func (t Terms) PeriodMonths() int {
	if t.Frequency <= 0 {
		return 0
	}
	return 12 / t.Frequency
}

// PeriodDays is the period length on a 30-day month basis.
func (t Terms) PeriodDays() float64 {
	return float64(30 * t.PeriodMonths())
}

// IssueCosts is the share of the nominal value the issuer pays at issuance.
func (t Terms) IssueCosts() float64 {
	return t.PlacementCost + t.FlotationCost + t.SettlementCost
}

// NetProceeds is what the issuer actually receives at period 0.
func (t Terms) NetProceeds() float64 {
	return t.NominalValue * (1 - t.IssueCosts())
}

func (t Terms) EffectiveRateType() RateType {
	if t.RateType == "" {
		return RateFixed
	}
	return t.RateType
}

func (t Terms) EffectiveRateConvention() RateConvention {
	if t.RateConvention == "" {
		return RateNominal
	}
	return t.RateConvention
}

func (t Terms) EffectiveFloatingPolicy() FloatingPolicy {
	if t.FloatingPolicy == "" {
		return FloatingHold
	}
	return t.FloatingPolicy
}

// Hash fingerprints everything that influences a computed schedule, so a
// stored schedule can be matched against the terms it was built from.
func (t Terms) Hash() (string, error) {
	t.CreatedAt = time.Time{}
	t.UpdatedAt = time.Time{}
	payload, err := json.Marshal(t)
	if err != nil {
		return "", fmt.Errorf("marshal terms: %w", err)
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:]), nil
}
