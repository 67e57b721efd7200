package schedules

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	domain "github.com/Eduvent/bono-app-sub002/internal/domain/entity/bonds"
)

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(ctx context.Context, dsn string) (*Repository, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse pgx config: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}
	return &Repository{pool: pool}, nil
}

func (r *Repository) Close() {
	if r == nil || r.pool == nil {
		return
	}
	r.pool.Close()
}

var periodColumns = []string{
	"bond_uid", "period_index", "period_date", "annual_inflation", "semester_inflation",
	"period_inflation", "grace", "periodic_rate", "indexed_balance", "coupon", "capitalized",
	"amortization", "installment", "premium", "tax_shield", "issuer_flow", "issuer_net_flow",
	"investor_flow", "discounted_flow", "time_weighted", "convexity_weighted",
}

const upsertScheduleQuery = `
	INSERT INTO schedules (bond_uid, terms_hash, metrics, metrics_error, partial, warnings, computed_at)
	VALUES ($1,$2,$3,$4,$5,$6,$7)
	ON CONFLICT (bond_uid) DO UPDATE
	SET terms_hash = EXCLUDED.terms_hash,
	    metrics = EXCLUDED.metrics,
	    metrics_error = EXCLUDED.metrics_error,
	    partial = EXCLUDED.partial,
	    warnings = EXCLUDED.warnings,
	    computed_at = EXCLUDED.computed_at`

// SaveSchedule replaces the stored schedule of a bond: header upsert and a
// bulk copy of its periods in one transaction.
func (r *Repository) SaveSchedule(ctx context.Context, schedule *domain.Schedule) error {
	if schedule == nil {
		return errors.New("nil schedule")
	}
	metrics, err := marshalJSON(schedule.Metrics)
	if err != nil {
		return fmt.Errorf("marshal metrics: %w", err)
	}
	warnings, err := marshalJSON(schedule.Warnings)
	if err != nil {
		return fmt.Errorf("marshal warnings: %w", err)
	}

	return r.withTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, upsertScheduleQuery,
			schedule.BondID,
			schedule.TermsHash,
			metrics,
			schedule.MetricsError,
			schedule.Partial,
			warnings,
			schedule.ComputedAt,
		); err != nil {
			return fmt.Errorf("upsert schedule: %w", err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM cashflow_periods WHERE bond_uid=$1`, schedule.BondID); err != nil {
			return fmt.Errorf("clear periods: %w", err)
		}
		if _, err := tx.CopyFrom(ctx, pgx.Identifier{"cashflow_periods"}, periodColumns, pgx.CopyFromRows(periodRows(schedule))); err != nil {
			return fmt.Errorf("copy periods: %w", err)
		}
		return nil
	})
}

// GetSchedule reads the header and the periods in one batch round trip.
func (r *Repository) GetSchedule(ctx context.Context, bondUID uuid.UUID) (*domain.Schedule, error) {
	batch := &pgx.Batch{}
	batch.Queue(`
		SELECT bond_uid, terms_hash, metrics, metrics_error, partial, warnings, computed_at
		FROM schedules
		WHERE bond_uid=$1`, bondUID)
	batch.Queue(`
		SELECT period_index, period_date, annual_inflation, semester_inflation, period_inflation, grace,
		       periodic_rate, indexed_balance, coupon, capitalized, amortization, installment, premium,
		       tax_shield, issuer_flow, issuer_net_flow, investor_flow, discounted_flow, time_weighted,
		       convexity_weighted
		FROM cashflow_periods
		WHERE bond_uid=$1
		ORDER BY period_index ASC`, bondUID)

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	schedule, err := scanSchedule(results.QueryRow())
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrScheduleNotFound
		}
		return nil, err
	}

	rows, err := results.Query()
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		period, err := scanPeriod(rows)
		if err != nil {
			return nil, err
		}
		schedule.Periods = append(schedule.Periods, period)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return schedule, nil
}

func (r *Repository) DeleteSchedule(ctx context.Context, bondUID uuid.UUID) error {
	return r.withTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM cashflow_periods WHERE bond_uid=$1`, bondUID); err != nil {
			return err
		}
		cmdTag, err := tx.Exec(ctx, `DELETE FROM schedules WHERE bond_uid=$1`, bondUID)
		if err != nil {
			return err
		}
		if cmdTag.RowsAffected() == 0 {
			return domain.ErrScheduleNotFound
		}
		return nil
	})
}

func (r *Repository) withTx(ctx context.Context, fn func(pgx.Tx) error) (err error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()
	if err = fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// periodRows lists the period values in periodColumns order.
func periodRows(schedule *domain.Schedule) [][]interface{} {
	rows := make([][]interface{}, 0, len(schedule.Periods))
	for _, p := range schedule.Periods {
		rows = append(rows, []interface{}{
			schedule.BondID,
			p.Index,
			p.Date,
			p.AnnualInflation,
			p.SemesterInflation,
			p.PeriodInflation,
			string(p.Grace),
			p.PeriodicRate,
			p.IndexedBalance,
			p.Coupon,
			p.Capitalized,
			p.Amortization,
			p.Installment,
			p.Premium,
			p.TaxShield,
			p.IssuerFlow,
			p.IssuerNetFlow,
			p.InvestorFlow,
			p.DiscountedFlow,
			p.TimeWeighted,
			p.ConvexityWeighted,
		})
	}
	return rows
}

func scanSchedule(row pgx.Row) (*domain.Schedule, error) {
	var (
		schedule          domain.Schedule
		metrics, warnings []byte
	)
	if err := row.Scan(
		&schedule.BondID,
		&schedule.TermsHash,
		&metrics,
		&schedule.MetricsError,
		&schedule.Partial,
		&warnings,
		&schedule.ComputedAt,
	); err != nil {
		return nil, err
	}
	if len(metrics) > 0 && string(metrics) != "null" {
		schedule.Metrics = &domain.FinancialMetrics{}
		if err := json.Unmarshal(metrics, schedule.Metrics); err != nil {
			return nil, fmt.Errorf("decode metrics: %w", err)
		}
	}
	if len(warnings) > 0 {
		if err := json.Unmarshal(warnings, &schedule.Warnings); err != nil {
			return nil, fmt.Errorf("decode warnings: %w", err)
		}
	}
	schedule.ComputedAt = schedule.ComputedAt.UTC()
	return &schedule, nil
}

func scanPeriod(row pgx.Row) (domain.CashFlowPeriod, error) {
	var (
		p     domain.CashFlowPeriod
		grace string
	)
	err := row.Scan(
		&p.Index,
		&p.Date,
		&p.AnnualInflation,
		&p.SemesterInflation,
		&p.PeriodInflation,
		&grace,
		&p.PeriodicRate,
		&p.IndexedBalance,
		&p.Coupon,
		&p.Capitalized,
		&p.Amortization,
		&p.Installment,
		&p.Premium,
		&p.TaxShield,
		&p.IssuerFlow,
		&p.IssuerNetFlow,
		&p.InvestorFlow,
		&p.DiscountedFlow,
		&p.TimeWeighted,
		&p.ConvexityWeighted,
	)
	if err != nil {
		return p, err
	}
	p.Grace = domain.GraceKind(grace)
	p.Date = p.Date.UTC()
	return p, nil
}

func marshalJSON(v interface{}) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}
