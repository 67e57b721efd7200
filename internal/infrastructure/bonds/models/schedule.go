package models

import "time"

type ScheduleModel struct {
	BondUID      string    `gorm:"primaryKey;column:bond_uid;type:uuid"`
	TermsHash    string    `gorm:"column:terms_hash;type:char(64);not null"`
	Metrics      []byte    `gorm:"column:metrics;type:jsonb"`
	MetricsError string    `gorm:"column:metrics_error;type:text;not null;default:''"`
	Partial      bool      `gorm:"column:partial;not null;default:false"`
	Warnings     []byte    `gorm:"column:warnings;type:jsonb"`
	ComputedAt   time.Time `gorm:"column:computed_at;type:timestamptz;not null"`
}

func (ScheduleModel) TableName() string {
	return "schedules"
}

// CashFlowPeriodModel is one row of a stored schedule; rows of a bond are
// replaced as a whole whenever its schedule is saved.
type CashFlowPeriodModel struct {
	BondUID           string    `gorm:"primaryKey;column:bond_uid;type:uuid"`
	PeriodIndex       int       `gorm:"primaryKey;column:period_index;type:integer"`
	PeriodDate        time.Time `gorm:"column:period_date;type:date;not null"`
	AnnualInflation   float64   `gorm:"column:annual_inflation;type:double precision;not null;default:0"`
	SemesterInflation float64   `gorm:"column:semester_inflation;type:double precision;not null;default:0"`
	PeriodInflation   float64   `gorm:"column:period_inflation;type:double precision;not null;default:0"`
	Grace             string    `gorm:"column:grace;type:varchar(16);not null"`
	PeriodicRate      float64   `gorm:"column:periodic_rate;type:double precision;not null;default:0"`
	IndexedBalance    float64   `gorm:"column:indexed_balance;type:double precision;not null"`
	Coupon            float64   `gorm:"column:coupon;type:double precision;not null"`
	Capitalized       float64   `gorm:"column:capitalized;type:double precision;not null;default:0"`
	Amortization      float64   `gorm:"column:amortization;type:double precision;not null"`
	Installment       float64   `gorm:"column:installment;type:double precision;not null"`
	Premium           float64   `gorm:"column:premium;type:double precision;not null;default:0"`
	TaxShield         float64   `gorm:"column:tax_shield;type:double precision;not null;default:0"`
	IssuerFlow        float64   `gorm:"column:issuer_flow;type:double precision;not null"`
	IssuerNetFlow     float64   `gorm:"column:issuer_net_flow;type:double precision;not null"`
	InvestorFlow      float64   `gorm:"column:investor_flow;type:double precision;not null"`
	DiscountedFlow    float64   `gorm:"column:discounted_flow;type:double precision;not null;default:0"`
	TimeWeighted      float64   `gorm:"column:time_weighted;type:double precision;not null;default:0"`
	ConvexityWeighted float64   `gorm:"column:convexity_weighted;type:double precision;not null;default:0"`
}

func (CashFlowPeriodModel) TableName() string {
	return "cashflow_periods"
}
