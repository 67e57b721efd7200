package broker

import (
	"time"

	"github.com/google/uuid"
)

// BondChanged is published whenever stored terms change or disappear.
type BondChanged struct {
	BondUID   uuid.UUID `json:"bond_uid"`
	ChangedAt time.Time `json:"changed_at"`
}

// ScheduleComputed announces a freshly stored schedule.
type ScheduleComputed struct {
	BondUID    uuid.UUID `json:"bond_uid"`
	TermsHash  string    `json:"terms_hash"`
	Periods    int       `json:"periods"`
	Partial    bool      `json:"partial"`
	TREA       *float64  `json:"trea,omitempty"`
	TCEA       *float64  `json:"tcea,omitempty"`
	Warnings   int       `json:"warnings"`
	ComputedAt time.Time `json:"computed_at"`
}
