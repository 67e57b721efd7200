package interfaces

import (
	"context"

	"github.com/google/uuid"

	"github.com/Eduvent/bono-app-sub002/internal/domain/entity/bonds"
)

type BondRepository interface {
	CreateBond(ctx context.Context, terms *bonds.Terms) error
	GetBond(ctx context.Context, uid uuid.UUID) (*bonds.Terms, error)
	UpdateBond(ctx context.Context, terms *bonds.Terms) error
	DeleteBond(ctx context.Context, uid uuid.UUID) error
	ListBonds(ctx context.Context, limit, offset int) ([]bonds.Terms, error)
	Close()
}

type ScheduleRepository interface {
	SaveSchedule(ctx context.Context, schedule *bonds.Schedule) error
	GetSchedule(ctx context.Context, bondUID uuid.UUID) (*bonds.Schedule, error)
	DeleteSchedule(ctx context.Context, bondUID uuid.UUID) error
	Close()
}

// EventPublisher announces changes to terms and freshly computed schedules.
type EventPublisher interface {
	PublishBondChanged(ctx context.Context, bondUID uuid.UUID) error
	PublishScheduleComputed(ctx context.Context, schedule *bonds.Schedule) error
}
