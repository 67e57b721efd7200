package models

import "time"

// BondModel mirrors the bonds table read and written by the pgx repository.
// It only drives schema migration.
type BondModel struct {
	UID              string    `gorm:"primaryKey;column:uid;type:uuid"`
	Name             string    `gorm:"column:name;type:varchar(255);not null;default:''"`
	Currency         string    `gorm:"column:currency;type:varchar(8);not null;default:''"`
	NominalValue     float64   `gorm:"column:nominal_value;type:double precision;not null"`
	PurchasePrice    float64   `gorm:"column:purchase_price;type:double precision;not null"`
	IssueDate        time.Time `gorm:"column:issue_date;type:date;not null"`
	MaturityDate     time.Time `gorm:"column:maturity_date;type:date;not null;index"`
	CouponRate       float64   `gorm:"column:coupon_rate;type:double precision;not null"`
	RateConvention   string    `gorm:"column:rate_convention;type:varchar(16);not null;default:''"`
	RateType         string    `gorm:"column:rate_type;type:varchar(16);not null;default:''"`
	FloatingPolicy   string    `gorm:"column:floating_policy;type:varchar(16);not null;default:''"`
	FloatingRates    []byte    `gorm:"column:floating_rates;type:jsonb"`
	Spread           float64   `gorm:"column:spread;type:double precision;not null;default:0"`
	Frequency        int       `gorm:"column:frequency;type:integer;not null"`
	Amortization     string    `gorm:"column:amortization;type:varchar(32);not null"`
	InflationIndexed bool      `gorm:"column:inflation_indexed;not null;default:false"`
	Inflation        []byte    `gorm:"column:inflation;type:jsonb"`
	Grace            []byte    `gorm:"column:grace;type:jsonb"`
	CapitalizeGrace  bool      `gorm:"column:capitalize_grace;not null;default:false"`
	MaturityPremium  float64   `gorm:"column:maturity_premium;type:double precision;not null;default:0"`
	PlacementCost    float64   `gorm:"column:placement_cost;type:double precision;not null;default:0"`
	FlotationCost    float64   `gorm:"column:flotation_cost;type:double precision;not null;default:0"`
	SettlementCost   float64   `gorm:"column:settlement_cost;type:double precision;not null;default:0"`
	DiscountRate     float64   `gorm:"column:discount_rate;type:double precision;not null;default:0"`
	DayCount         int       `gorm:"column:day_count;type:integer;not null;default:360"`
	TaxRate          float64   `gorm:"column:tax_rate;type:double precision;not null;default:0"`
	CreatedAt        time.Time `gorm:"column:created_at;type:timestamptz;default:CURRENT_TIMESTAMP"`
	UpdatedAt        time.Time `gorm:"column:updated_at;type:timestamptz;default:CURRENT_TIMESTAMP"`
}

func (BondModel) TableName() string {
	return "bonds"
}

// All lists every model in migration order.
func All() []interface{} {
	return []interface{}{
		&BondModel{},
		&ScheduleModel{},
		&CashFlowPeriodModel{},
	}
}
