package bonds

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Eduvent/bono-app-sub002/internal/domain/cashflow"
	domain "github.com/Eduvent/bono-app-sub002/internal/domain/entity/bonds"
	interfaces "github.com/Eduvent/bono-app-sub002/internal/domain/interfaces"
)

var (
	ErrNilTerms     = errors.New("bond terms are nil")
	ErrInvalidLimit = errors.New("limit must be positive")
)

const maxListLimit = 500

type Service struct {
	repo      interfaces.BondRepository
	schedules interfaces.ScheduleRepository
	events    interfaces.EventPublisher
	logger    logrus.FieldLogger
	now       func() time.Time
}

// NewService wires the bond terms service. events may be nil when nothing
// listens for changes (the importer, tests).
func NewService(repo interfaces.BondRepository, schedules interfaces.ScheduleRepository, events interfaces.EventPublisher, logger logrus.FieldLogger) *Service {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Service{
		repo:      repo,
		schedules: schedules,
		events:    events,
		logger:    logger.WithField("component", "bonds"),
		now:       time.Now,
	}
}

func (s *Service) CreateBond(ctx context.Context, terms *domain.Terms) error {
	if terms == nil {
		return ErrNilTerms
	}
	if terms.ID == uuid.Nil {
		terms.ID = uuid.New()
	}
	if err := cashflow.Validate(terms); err != nil {
		return err
	}
	now := s.now().UTC()
	terms.CreatedAt, terms.UpdatedAt = now, now
	return s.repo.CreateBond(ctx, terms)
}

func (s *Service) GetBond(ctx context.Context, uid uuid.UUID) (*domain.Terms, error) {
	return s.repo.GetBond(ctx, uid)
}

func (s *Service) ListBonds(ctx context.Context, limit, offset int) ([]domain.Terms, error) {
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListBonds(ctx, limit, offset)
}

// UpdateBond replaces the stored terms. The schedule computed from the old
// terms is dropped and a change event goes out.
func (s *Service) UpdateBond(ctx context.Context, terms *domain.Terms) error {
	if terms == nil {
		return ErrNilTerms
	}
	if err := cashflow.Validate(terms); err != nil {
		return err
	}
	terms.UpdatedAt = s.now().UTC()
	if err := s.repo.UpdateBond(ctx, terms); err != nil {
		return err
	}
	return s.invalidate(ctx, terms.ID)
}

func (s *Service) DeleteBond(ctx context.Context, uid uuid.UUID) error {
	if err := s.repo.DeleteBond(ctx, uid); err != nil {
		return err
	}
	return s.invalidate(ctx, uid)
}

func (s *Service) invalidate(ctx context.Context, uid uuid.UUID) error {
	if err := s.schedules.DeleteSchedule(ctx, uid); err != nil && !errors.Is(err, domain.ErrScheduleNotFound) {
		return fmt.Errorf("invalidate schedule: %w", err)
	}
	if s.events == nil {
		return nil
	}
	if err := s.events.PublishBondChanged(ctx, uid); err != nil {
		// the stored schedule is already gone; readers recompute on demand
		s.logger.WithError(err).WithField("bond_uid", uid).Warn("publish bond changed")
	}
	return nil
}

func (s *Service) Close() {
	s.repo.Close()
}
