package cashflows

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/Eduvent/bono-app-sub002/internal/domain/cashflow"
	"github.com/Eduvent/bono-app-sub002/internal/domain/entity/bonds"
	interfaces "github.com/Eduvent/bono-app-sub002/internal/domain/interfaces"
)

var (
	ErrInvalidRole  = errors.New("role must be issuer or investor")
	ErrInvalidRange = errors.New("period bounds must not be negative")
	ErrNilTerms     = errors.New("bond terms are nil")
)

const defaultWorkers = 4

type Service struct {
	bonds     interfaces.BondRepository
	schedules interfaces.ScheduleRepository
	events    interfaces.EventPublisher
	logger    logrus.FieldLogger
	workers   int

	inflight singleflight.Group
	now      func() time.Time
}

func NewService(bondRepo interfaces.BondRepository, schedules interfaces.ScheduleRepository, events interfaces.EventPublisher, workers int, logger logrus.FieldLogger) *Service {
	if workers <= 0 {
		workers = defaultWorkers
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Service{
		bonds:     bondRepo,
		schedules: schedules,
		events:    events,
		logger:    logger.WithField("component", "cashflows"),
		workers:   workers,
		now:       time.Now,
	}
}

// GetCashFlows serves the stored schedule of a bond, projected to one role.
// A stored schedule built from different terms counts as missing.
func (s *Service) GetCashFlows(ctx context.Context, q Query) (*Response, error) {
	if err := q.validate(); err != nil {
		return nil, err
	}
	terms, err := s.bonds.GetBond(ctx, q.BondID)
	if err != nil {
		return nil, err
	}

	schedule, err := s.current(ctx, terms)
	if err != nil {
		return nil, err
	}
	if schedule == nil {
		if !q.AutoCalculate {
			return emptyResponse(terms, q, s.now()), nil
		}
		if schedule, err = s.recompute(ctx, terms); err != nil {
			return nil, err
		}
	}
	return buildResponse(terms, schedule, q, s.now()), nil
}

// GetMetrics returns the metrics of a bond, computing its schedule if needed.
func (s *Service) GetMetrics(ctx context.Context, bondUID uuid.UUID) (*MetricsResponse, error) {
	resp, err := s.GetCashFlows(ctx, Query{BondID: bondUID, Role: bonds.RoleInvestor, AutoCalculate: true})
	if err != nil {
		return nil, err
	}
	return &MetricsResponse{
		BondID:       resp.BondID,
		Metrics:      resp.Metrics,
		Partial:      resp.Partial,
		MetricsError: resp.MetricsError,
		LastUpdated:  resp.Summary.LastUpdated,
	}, nil
}

// Recalculate drops whatever is stored for the bond and computes it again.
func (s *Service) Recalculate(ctx context.Context, bondUID uuid.UUID) (*bonds.Schedule, error) {
	terms, err := s.bonds.GetBond(ctx, bondUID)
	if err != nil {
		return nil, err
	}
	if err := s.schedules.DeleteSchedule(ctx, bondUID); err != nil && !errors.Is(err, bonds.ErrScheduleNotFound) {
		return nil, fmt.Errorf("delete schedule: %w", err)
	}
	return s.recompute(ctx, terms)
}

// RecalculateMany recomputes every bond independently, at most s.workers at a
// time. A failing bond does not stop the others. Deleted bonds are skipped and
// terms the engine rejects are only logged;
// the remaining failures are joined.
func (s *Service) RecalculateMany(ctx context.Context, ids []uuid.UUID) error {
	var (
		mu   sync.Mutex
		errs []error
	)
	g := new(errgroup.Group)
	g.SetLimit(s.workers)
	for _, id := range ids {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			_, err := s.Recalculate(ctx, id)
			switch {
			case err == nil:
			case errors.Is(err, bonds.ErrBondNotFound):
				s.logger.WithField("bond_uid", id).Debug("bond is gone, nothing to recalculate")
			case errors.Is(err, bonds.ErrValidation), errors.Is(err, bonds.ErrData):
				s.logger.WithError(err).WithField("bond_uid", id).Warn("bond terms cannot be computed")
			default:
				mu.Lock()
				errs = append(errs, fmt.Errorf("bond %s: %w", id, err))
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// ComputeTerms runs the engine on terms that are not stored anywhere.
func (s *Service) ComputeTerms(terms *bonds.Terms) (*bonds.Schedule, error) {
	if terms == nil {
		return nil, ErrNilTerms
	}
	if terms.ID == uuid.Nil {
		terms.ID = uuid.New()
	}
	return NewSchedule(terms, s.now())
}

// BuildResponse projects a schedule the same way GetCashFlows does.
func (s *Service) BuildResponse(terms *bonds.Terms, schedule *bonds.Schedule, q Query) (*Response, error) {
	if err := q.validate(); err != nil {
		return nil, err
	}
	return buildResponse(terms, schedule, q, s.now()), nil
}

// NewSchedule computes the schedule of terms and stamps it with their hash.
func NewSchedule(terms *bonds.Terms, now time.Time) (*bonds.Schedule, error) {
	hash, err := terms.Hash()
	if err != nil {
		return nil, err
	}
	res, err := cashflow.Compute(terms)
	if err != nil {
		return nil, err
	}
	schedule := &bonds.Schedule{
		BondID:     terms.ID,
		TermsHash:  hash,
		Periods:    res.Periods,
		Metrics:    res.Metrics,
		Partial:    res.Partial(),
		Warnings:   res.Warnings,
		ComputedAt: now.UTC(),
	}
	if res.MetricsErr != nil {
		schedule.MetricsError = res.MetricsErr.Error()
	}
	return schedule, nil
}

func (s *Service) current(ctx context.Context, terms *bonds.Terms) (*bonds.Schedule, error) {
	schedule, err := s.schedules.GetSchedule(ctx, terms.ID)
	if errors.Is(err, bonds.ErrScheduleNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	hash, err := terms.Hash()
	if err != nil {
		return nil, err
	}
	if schedule.TermsHash != hash {
		s.logger.WithField("bond_uid", terms.ID).Debug("stored schedule is stale")
		return nil, nil
	}
	return schedule, nil
}

// recompute computes, stores and announces a schedule. Concurrent callers
// holding the same terms share one computation. The shared work outlives the
// caller that started it.
func (s *Service) recompute(ctx context.Context, terms *bonds.Terms) (*bonds.Schedule, error) {
	hash, err := terms.Hash()
	if err != nil {
		return nil, err
	}
	shared := context.WithoutCancel(ctx)
	ch := s.inflight.DoChan(terms.ID.String()+":"+hash, func() (interface{}, error) {
		ctx := shared
		start := time.Now()
		schedule, err := NewSchedule(terms, s.now())
		if err != nil {
			s.logger.WithError(err).WithField("bond_uid", terms.ID).Warn("compute schedule")
			return nil, err
		}
		if err := s.schedules.SaveSchedule(ctx, schedule); err != nil {
			return nil, fmt.Errorf("save schedule: %w", err)
		}

		entry := s.logger.WithFields(logrus.Fields{
			"bond_uid": terms.ID,
			"periods":  len(schedule.Periods) - 1,
			"partial":  schedule.Partial,
			"took_ms":  time.Since(start).Milliseconds(),
		})
		if len(schedule.Warnings) > 0 {
			entry.WithField("warnings", len(schedule.Warnings)).Warn("schedule computed with inconsistencies")
		} else {
			entry.Info("schedule computed")
		}

		if s.events != nil {
			if err := s.events.PublishScheduleComputed(ctx, schedule); err != nil {
				entry.WithError(err).Warn("publish schedule computed")
			}
		}
		return schedule, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*bonds.Schedule), nil
	}
}
