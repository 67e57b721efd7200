package bonds

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrValidation  = errors.New("validation error")
	ErrData        = errors.New("data error")
	ErrConvergence = errors.New("convergence error")

	ErrBondNotFound     = errors.New("bond not found")
	ErrScheduleNotFound = errors.New("schedule not found")
)

// ValidationError reports malformed or inconsistent terms. No schedule is
// produced when it is returned.
type ValidationError struct {
	BondID uuid.UUID
	Field  string
	Period int
	Reason string
}

func (e *ValidationError) Error() string {
	return describe("invalid bond terms", e.BondID, e.Field, e.Period, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// DataError reports a required time series that is missing or too short.
type DataError struct {
	BondID uuid.UUID
	Series string
	Period int
	Reason string
}

func (e *DataError) Error() string {
	return describe("missing data", e.BondID, e.Series, e.Period, e.Reason)
}

func (e *DataError) Unwrap() error { return ErrData }

// ConvergenceError is returned when no periodic rate zeroes a flow series.
// It only invalidates yields, never the schedule itself.
type ConvergenceError struct {
	BondID     uuid.UUID
	View       string
	Iterations int
	Reason     string
}

func (e *ConvergenceError) Error() string {
	var b strings.Builder
	b.WriteString("rate did not converge")
	if e.BondID != uuid.Nil {
		fmt.Fprintf(&b, " for bond %s", e.BondID)
	}
	if e.View != "" {
		fmt.Fprintf(&b, " (%s)", e.View)
	}
	if e.Iterations > 0 {
		fmt.Fprintf(&b, " after %d iterations", e.Iterations)
	}
	if e.Reason != "" {
		fmt.Fprintf(&b, ": %s", e.Reason)
	}
	return b.String()
}

func (e *ConvergenceError) Unwrap() error { return ErrConvergence }

// ConsistencyWarning flags a period whose issuer and investor flows do not
// mirror each other. It never aborts a computation.
type ConsistencyWarning struct {
	Period       int     `json:"period"`
	IssuerFlow   float64 `json:"issuer_flow"`
	InvestorFlow float64 `json:"investor_flow"`
	Difference   float64 `json:"difference"`
}

func (w ConsistencyWarning) String() string {
	return fmt.Sprintf("period %d: issuer %.6f and investor %.6f differ by %.6f", w.Period, w.IssuerFlow, w.InvestorFlow, w.Difference)
}

func describe(prefix string, id uuid.UUID, field string, period int, reason string) string {
	var b strings.Builder
	b.WriteString(prefix)
	if id != uuid.Nil {
		fmt.Fprintf(&b, " for bond %s", id)
	}
	if field != "" {
		fmt.Fprintf(&b, ": %s", field)
	}
	if period > 0 {
		fmt.Fprintf(&b, " (period %d)", period)
	}
	if reason != "" {
		fmt.Fprintf(&b, ": %s", reason)
	}
	return b.String()
}
