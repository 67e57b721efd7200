package bonds

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
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

const bondColumns = `uid, name, currency, nominal_value, purchase_price, issue_date, maturity_date,
	coupon_rate, rate_convention, rate_type, floating_policy, floating_rates, spread, frequency,
	amortization, inflation_indexed, inflation, grace, capitalize_grace, maturity_premium,
	placement_cost, flotation_cost, settlement_cost, discount_rate, day_count, tax_rate,
	created_at, updated_at`

func (r *Repository) CreateBond(ctx context.Context, terms *domain.Terms) error {
	return r.createBondWith(ctx, r.pool, terms)
}

func (r *Repository) GetBond(ctx context.Context, uid uuid.UUID) (*domain.Terms, error) {
	query := `SELECT ` + bondColumns + ` FROM bonds WHERE uid = $1`

	terms := &domain.Terms{}
	if err := scanBondInto(r.pool.QueryRow(ctx, query, uid), terms); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrBondNotFound
		}
		return nil, err
	}
	return terms, nil
}

func (r *Repository) ListBonds(ctx context.Context, limit, offset int) ([]domain.Terms, error) {
	if limit <= 0 {
		return nil, errors.New("limit must be positive")
	}
	query := `SELECT ` + bondColumns + ` FROM bonds ORDER BY created_at, uid LIMIT $1 OFFSET $2`
	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := make([]domain.Terms, 0, limit)
	for rows.Next() {
		var terms domain.Terms
		if err := scanBondInto(rows, &terms); err != nil {
			return nil, err
		}
		list = append(list, terms)
	}
	return list, rows.Err()
}

func (r *Repository) UpdateBond(ctx context.Context, terms *domain.Terms) error {
	return r.withTx(ctx, func(tx pgx.Tx) error {
		if err := ensureBondExists(ctx, tx, terms.ID); err != nil {
			return err
		}
		return r.updateBondWith(ctx, tx, terms)
	})
}

func (r *Repository) DeleteBond(ctx context.Context, uid uuid.UUID) error {
	return r.deleteBondWith(ctx, r.pool, uid)
}

// UpsertBonds writes many terms in one round trip; the importer uses it.
func (r *Repository) UpsertBonds(ctx context.Context, list []domain.Terms) error {
	batch := &pgx.Batch{}
	for i := range list {
		args, err := bondArgs(&list[i])
		if err != nil {
			return err
		}
		batch.Queue(upsertBondQuery, args...)
	}
	return execBatch(ctx, r.pool, batch)
}

type queryRower interface {
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

type commandTagExecutor interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
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

const insertBondQuery = `
	INSERT INTO bonds (` + bondColumns + `)
	VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,$25,$26,$27,$28)
	RETURNING ` + bondColumns

const upsertBondQuery = `
	INSERT INTO bonds (` + bondColumns + `)
	VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,$25,$26,$27,$28)
	ON CONFLICT (uid) DO UPDATE
	SET name = EXCLUDED.name,
	    currency = EXCLUDED.currency,
	    nominal_value = EXCLUDED.nominal_value,
	    purchase_price = EXCLUDED.purchase_price,
	    issue_date = EXCLUDED.issue_date,
	    maturity_date = EXCLUDED.maturity_date,
	    coupon_rate = EXCLUDED.coupon_rate,
	    rate_type = EXCLUDED.rate_type,
	    frequency = EXCLUDED.frequency,
	    amortization = EXCLUDED.amortization,
	    updated_at = EXCLUDED.updated_at`

func (r *Repository) createBondWith(ctx context.Context, runner queryRower, terms *domain.Terms) error {
	if terms == nil {
		return errors.New("bond terms are nil")
	}
	if terms.ID == uuid.Nil {
		terms.ID = uuid.New()
	}
	now := time.Now().UTC()
	if terms.CreatedAt.IsZero() {
		terms.CreatedAt = now
	}
	if terms.UpdatedAt.IsZero() {
		terms.UpdatedAt = now
	}

	args, err := bondArgs(terms)
	if err != nil {
		return err
	}
	return scanBondInto(runner.QueryRow(ctx, insertBondQuery, args...), terms)
}

func (r *Repository) updateBondWith(ctx context.Context, runner queryRower, terms *domain.Terms) error {
	if terms == nil {
		return errors.New("bond terms are nil")
	}
	if terms.ID == uuid.Nil {
		return errors.New("bond UID is required")
	}
	if terms.UpdatedAt.IsZero() {
		terms.UpdatedAt = time.Now().UTC()
	}

	const query = `
		UPDATE bonds
		SET name=$2, currency=$3, nominal_value=$4, purchase_price=$5, issue_date=$6, maturity_date=$7,
			coupon_rate=$8, rate_convention=$9, rate_type=$10, floating_policy=$11, floating_rates=$12,
			spread=$13, frequency=$14, amortization=$15, inflation_indexed=$16, inflation=$17, grace=$18,
			capitalize_grace=$19, maturity_premium=$20, placement_cost=$21, flotation_cost=$22,
			settlement_cost=$23, discount_rate=$24, day_count=$25, tax_rate=$26, updated_at=$27
		WHERE uid=$1
		RETURNING ` + bondColumns

	args, err := bondArgs(terms)
	if err != nil {
		return err
	}
	// created_at is never rewritten
	args = append(args[:26:26], args[27])
	if err := scanBondInto(runner.QueryRow(ctx, query, args...), terms); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrBondNotFound
		}
		return err
	}
	return nil
}

func (r *Repository) deleteBondWith(ctx context.Context, execer commandTagExecutor, uid uuid.UUID) error {
	const query = `DELETE FROM bonds WHERE uid=$1`
	cmdTag, err := execer.Exec(ctx, query, uid)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrBondNotFound
	}
	return nil
}

func ensureBondExists(ctx context.Context, tx pgx.Tx, uid uuid.UUID) error {
	var exists int
	if err := tx.QueryRow(ctx, `SELECT 1 FROM bonds WHERE uid=$1 FOR UPDATE`, uid).Scan(&exists); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrBondNotFound
		}
		return err
	}
	return nil
}

// bondArgs lists the column values in bondColumns order.
func bondArgs(t *domain.Terms) ([]interface{}, error) {
	floating, err := marshalJSON(t.FloatingRates)
	if err != nil {
		return nil, fmt.Errorf("marshal floating rates: %w", err)
	}
	inflation, err := marshalJSON(t.Inflation)
	if err != nil {
		return nil, fmt.Errorf("marshal inflation: %w", err)
	}
	grace, err := marshalJSON(t.Grace)
	if err != nil {
		return nil, fmt.Errorf("marshal grace: %w", err)
	}
	return []interface{}{
		t.ID,
		t.Name,
		t.Currency,
		t.NominalValue,
		t.PurchasePrice,
		t.IssueDate,
		t.MaturityDate,
		t.CouponRate,
		string(t.RateConvention),
		string(t.RateType),
		string(t.FloatingPolicy),
		floating,
		t.Spread,
		t.Frequency,
		string(t.Amortization),
		t.InflationIndexed,
		inflation,
		grace,
		t.CapitalizeGrace,
		t.MaturityPremium,
		t.PlacementCost,
		t.FlotationCost,
		t.SettlementCost,
		t.DiscountRate,
		t.DayCount,
		t.TaxRate,
		t.CreatedAt,
		t.UpdatedAt,
	}, nil
}

func scanBondInto(row pgx.Row, t *domain.Terms) error {
	var (
		rateConvention, rateType, floatingPolicy, amortization string
		floating, inflation, grace                             []byte
	)
	err := row.Scan(
		&t.ID,
		&t.Name,
		&t.Currency,
		&t.NominalValue,
		&t.PurchasePrice,
		&t.IssueDate,
		&t.MaturityDate,
		&t.CouponRate,
		&rateConvention,
		&rateType,
		&floatingPolicy,
		&floating,
		&t.Spread,
		&t.Frequency,
		&amortization,
		&t.InflationIndexed,
		&inflation,
		&grace,
		&t.CapitalizeGrace,
		&t.MaturityPremium,
		&t.PlacementCost,
		&t.FlotationCost,
		&t.SettlementCost,
		&t.DiscountRate,
		&t.DayCount,
		&t.TaxRate,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return err
	}
	t.RateConvention = domain.RateConvention(rateConvention)
	t.RateType = domain.RateType(rateType)
	t.FloatingPolicy = domain.FloatingPolicy(floatingPolicy)
	t.Amortization = domain.AmortizationPolicy(amortization)
	t.IssueDate = t.IssueDate.UTC()
	t.MaturityDate = t.MaturityDate.UTC()

	if err := unmarshalJSON(floating, &t.FloatingRates); err != nil {
		return fmt.Errorf("decode floating rates: %w", err)
	}
	if err := unmarshalJSON(inflation, &t.Inflation); err != nil {
		return fmt.Errorf("decode inflation: %w", err)
	}
	if err := unmarshalJSON(grace, &t.Grace); err != nil {
		return fmt.Errorf("decode grace: %w", err)
	}
	return nil
}

func execBatch(ctx context.Context, pool *pgxpool.Pool, batch *pgx.Batch) error {
	if batch.Len() == 0 {
		return nil
	}
	results := pool.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			_ = results.Close()
			return err
		}
	}
	return results.Close()
}

func marshalJSON(v interface{}) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}

func unmarshalJSON(data []byte, v interface{}) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}
