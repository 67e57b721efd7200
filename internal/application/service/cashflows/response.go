package cashflows

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Eduvent/bono-app-sub002/internal/domain/entity/bonds"
)

// Query selects the cash flows of one bond as seen by one role. Nil bounds
// are open; inverted bounds are swapped.
type Query struct {
	BondID        uuid.UUID
	Role          bonds.Role
	PeriodFrom    *int
	PeriodTo      *int
	AutoCalculate bool
}

func (q Query) validate() error {
	if !q.Role.IsValid() {
		return ErrInvalidRole
	}
	if (q.PeriodFrom != nil && *q.PeriodFrom < 0) || (q.PeriodTo != nil && *q.PeriodTo < 0) {
		return ErrInvalidRange
	}
	return nil
}

func (q Query) bounds() (int, int) {
	from, to := 0, int(^uint(0)>>1)
	if q.PeriodFrom != nil {
		from = *q.PeriodFrom
	}
	if q.PeriodTo != nil {
		to = *q.PeriodTo
	}
	if from > to {
		from, to = to, from
	}
	return from, to
}

type Summary struct {
	TotalPeriods   int             `json:"total_periods"`
	FirstDate      *time.Time      `json:"first_date,omitempty"`
	LastDate       *time.Time      `json:"last_date,omitempty"`
	IssuerTotal    decimal.Decimal `json:"issuer_total"`
	IssuerNetTotal decimal.Decimal `json:"issuer_net_total"`
	InvestorTotal  decimal.Decimal `json:"investor_total"`
	LastUpdated    *time.Time      `json:"last_updated,omitempty"`
}

type Metadata struct {
	RowCount    int        `json:"row_count"`
	Currency    string     `json:"currency,omitempty"`
	Role        bonds.Role `json:"role"`
	GeneratedAt time.Time  `json:"generated_at"`
}

// Response carries exactly one of IssuerPeriods or InvestorPeriods,
// depending on the role asked for.
type Response struct {
	BondID          uuid.UUID                  `json:"bond_id"`
	Role            bonds.Role                 `json:"role"`
	Calculated      bool                       `json:"calculated"`
	IssuerPeriods   []bonds.IssuerView         `json:"issuer_periods,omitempty"`
	InvestorPeriods []bonds.InvestorView       `json:"investor_periods,omitempty"`
	Summary         Summary                    `json:"summary"`
	Metadata        Metadata                   `json:"metadata"`
	Metrics         *bonds.FinancialMetrics    `json:"metrics,omitempty"`
	Partial         bool                       `json:"partial"`
	MetricsError    string                     `json:"metrics_error,omitempty"`
	Warnings        []bonds.ConsistencyWarning `json:"warnings,omitempty"`
}

type MetricsResponse struct {
	BondID       uuid.UUID               `json:"bond_id"`
	Metrics      *bonds.FinancialMetrics `json:"metrics"`
	Partial      bool                    `json:"partial"`
	MetricsError string                  `json:"metrics_error,omitempty"`
	LastUpdated  *time.Time              `json:"last_updated,omitempty"`
}

// Rows returns the number of projected periods.
func (r *Response) Rows() int {
	if r.Role == bonds.RoleIssuer {
		return len(r.IssuerPeriods)
	}
	return len(r.InvestorPeriods)
}

func emptyResponse(terms *bonds.Terms, q Query, now time.Time) *Response {
	return &Response{
		BondID: terms.ID,
		Role:   q.Role,
		Summary: Summary{
			IssuerTotal:    decimal.Zero,
			IssuerNetTotal: decimal.Zero,
			InvestorTotal:  decimal.Zero,
		},
		Metadata: Metadata{
			Currency:    terms.Currency,
			Role:        q.Role,
			GeneratedAt: now.UTC(),
		},
	}
}

func buildResponse(terms *bonds.Terms, schedule *bonds.Schedule, q Query, now time.Time) *Response {
	resp := emptyResponse(terms, q, now)
	resp.Calculated = true
	resp.Metrics = schedule.Metrics
	resp.Partial = schedule.Partial
	resp.MetricsError = schedule.MetricsError
	resp.Warnings = schedule.Warnings

	computedAt := schedule.ComputedAt
	resp.Summary.LastUpdated = &computedAt
	if n := len(schedule.Periods); n > 0 {
		resp.Summary.TotalPeriods = n - 1
	}

	from, to := q.bounds()
	issuer, issuerNet, investor := decimal.Zero, decimal.Zero, decimal.Zero
	for _, p := range schedule.Periods {
		if p.Index < from || p.Index > to {
			continue
		}
		if q.Role == bonds.RoleIssuer {
			resp.IssuerPeriods = append(resp.IssuerPeriods, p.IssuerView())
		} else {
			resp.InvestorPeriods = append(resp.InvestorPeriods, p.InvestorView())
		}
		issuer = issuer.Add(decimal.NewFromFloat(p.IssuerFlow))
		issuerNet = issuerNet.Add(decimal.NewFromFloat(p.IssuerNetFlow))
		investor = investor.Add(decimal.NewFromFloat(p.InvestorFlow))

		date := p.Date
		if resp.Summary.FirstDate == nil {
			resp.Summary.FirstDate = &date
		}
		resp.Summary.LastDate = &date
	}

	resp.Summary.IssuerTotal = issuer.Round(2)
	resp.Summary.IssuerNetTotal = issuerNet.Round(2)
	resp.Summary.InvestorTotal = investor.Round(2)
	resp.Metadata.RowCount = resp.Rows()
	return resp
}
