package cashflows

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Eduvent/bono-app-sub002/internal/domain/entity/bonds"
	"github.com/Eduvent/bono-app-sub002/internal/infrastructure/memory"
)

var fixedNow = time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)

func storedTerms(t *testing.T, repo *memory.Repository) *bonds.Terms {
	t.Helper()
	terms := &bonds.Terms{
		ID:            uuid.New(),
		Currency:      "PEN",
		NominalValue:  1000,
		PurchasePrice: 1000,
		IssueDate:     time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC),
		MaturityDate:  time.Date(2026, time.January, 15, 0, 0, 0, 0, time.UTC),
		CouponRate:    0.05,
		Frequency:     2,
		Amortization:  bonds.AmortizationBullet,
		DayCount:      360,
	}
	require.NoError(t, repo.CreateBond(context.Background(), terms))
	return terms
}

func newTestService() (*Service, *memory.Repository, *memory.Publisher) {
	repo := memory.NewRepository()
	pub := &memory.Publisher{}
	svc := NewService(repo, repo, pub, 2, nil)
	svc.now = func() time.Time { return fixedNow }
	return svc, repo, pub
}

func intPtr(v int) *int { return &v }

func TestGetCashFlows_WithoutAutoCalculate(t *testing.T) {
	svc, repo, pub := newTestService()
	terms := storedTerms(t, repo)

	resp, err := svc.GetCashFlows(context.Background(), Query{BondID: terms.ID, Role: bonds.RoleInvestor})
	require.NoError(t, err)
	assert.False(t, resp.Calculated)
	assert.Empty(t, resp.InvestorPeriods)
	assert.Nil(t, resp.Metrics)
	assert.Zero(t, resp.Metadata.RowCount)
	assert.Zero(t, pub.ComputedCount())
}

func TestGetCashFlows_AutoCalculateStoresAndReuses(t *testing.T) {
	svc, repo, pub := newTestService()
	terms := storedTerms(t, repo)
	ctx := context.Background()
	q := Query{BondID: terms.ID, Role: bonds.RoleInvestor, AutoCalculate: true}

	resp, err := svc.GetCashFlows(ctx, q)
	require.NoError(t, err)
	assert.True(t, resp.Calculated)
	require.Len(t, resp.InvestorPeriods, 5)
	assert.Empty(t, resp.IssuerPeriods)
	assert.Equal(t, 4, resp.Summary.TotalPeriods)
	assert.Equal(t, 5, resp.Metadata.RowCount)
	assert.Equal(t, "PEN", resp.Metadata.Currency)
	assert.True(t, decimal.NewFromInt(100).Equal(resp.Summary.InvestorTotal), resp.Summary.InvestorTotal.String())
	assert.True(t, decimal.NewFromInt(-100).Equal(resp.Summary.IssuerTotal), resp.Summary.IssuerTotal.String())
	require.NotNil(t, resp.Metrics.TREA)
	assert.InDelta(t, 0.050625, *resp.Metrics.TREA, 1e-8)
	assert.Equal(t, 1, pub.ComputedCount())

	stored, err := repo.GetSchedule(ctx, terms.ID)
	require.NoError(t, err)
	assert.Equal(t, fixedNow, stored.ComputedAt)

	_, err = svc.GetCashFlows(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, 1, pub.ComputedCount(), "a fresh stored schedule is served as is")
}

func TestGetCashFlows_StaleScheduleIsRecomputed(t *testing.T) {
	svc, repo, pub := newTestService()
	terms := storedTerms(t, repo)
	ctx := context.Background()

	_, err := svc.GetCashFlows(ctx, Query{BondID: terms.ID, Role: bonds.RoleInvestor, AutoCalculate: true})
	require.NoError(t, err)

	terms.CouponRate = 0.06
	require.NoError(t, repo.UpdateBond(ctx, terms))

	resp, err := svc.GetCashFlows(ctx, Query{BondID: terms.ID, Role: bonds.RoleInvestor})
	require.NoError(t, err)
	assert.False(t, resp.Calculated)

	resp, err = svc.GetCashFlows(ctx, Query{BondID: terms.ID, Role: bonds.RoleInvestor, AutoCalculate: true})
	require.NoError(t, err)
	assert.InDelta(t, 30.0, resp.InvestorPeriods[1].Coupon, 1e-9)
	assert.Equal(t, 2, pub.ComputedCount())
}

func TestGetCashFlows_IssuerViewAndRange(t *testing.T) {
	svc, repo, _ := newTestService()
	terms := storedTerms(t, repo)
	terms.TaxRate = 0.3
	require.NoError(t, repo.UpdateBond(context.Background(), terms))

	resp, err := svc.GetCashFlows(context.Background(), Query{
		BondID:        terms.ID,
		Role:          bonds.RoleIssuer,
		PeriodFrom:    intPtr(3),
		PeriodTo:      intPtr(1),
		AutoCalculate: true,
	})
	require.NoError(t, err)
	require.Len(t, resp.IssuerPeriods, 3)
	assert.Empty(t, resp.InvestorPeriods)
	assert.Equal(t, 1, resp.IssuerPeriods[0].Index)
	assert.Equal(t, 3, resp.IssuerPeriods[2].Index)
	assert.InDelta(t, 7.5, resp.IssuerPeriods[0].TaxShield, 1e-9)
	assert.True(t, decimal.NewFromFloat(-52.5).Equal(resp.Summary.IssuerNetTotal), resp.Summary.IssuerNetTotal.String())
	assert.Equal(t, 4, resp.Summary.TotalPeriods)
	require.NotNil(t, resp.Summary.FirstDate)
	assert.True(t, time.Date(2024, time.July, 15, 0, 0, 0, 0, time.UTC).Equal(*resp.Summary.FirstDate))
}

func TestGetCashFlows_Errors(t *testing.T) {
	svc, repo, _ := newTestService()
	terms := storedTerms(t, repo)
	ctx := context.Background()

	_, err := svc.GetCashFlows(ctx, Query{BondID: terms.ID, Role: "auditor"})
	assert.ErrorIs(t, err, ErrInvalidRole)

	_, err = svc.GetCashFlows(ctx, Query{BondID: terms.ID, Role: bonds.RoleIssuer, PeriodFrom: intPtr(-1)})
	assert.ErrorIs(t, err, ErrInvalidRange)

	_, err = svc.GetCashFlows(ctx, Query{BondID: uuid.New(), Role: bonds.RoleIssuer})
	assert.ErrorIs(t, err, bonds.ErrBondNotFound)
}

func TestGetCashFlows_DataErrorIsNotStored(t *testing.T) {
	svc, repo, pub := newTestService()
	terms := storedTerms(t, repo)
	terms.InflationIndexed = true
	require.NoError(t, repo.UpdateBond(context.Background(), terms))

	_, err := svc.GetCashFlows(context.Background(), Query{BondID: terms.ID, Role: bonds.RoleInvestor, AutoCalculate: true})
	require.ErrorIs(t, err, bonds.ErrData)

	_, err = repo.GetSchedule(context.Background(), terms.ID)
	assert.ErrorIs(t, err, bonds.ErrScheduleNotFound)
	assert.Zero(t, pub.ComputedCount())
}

func TestGetCashFlows_PartialMetrics(t *testing.T) {
	svc, repo, _ := newTestService()
	terms := storedTerms(t, repo)
	terms.CouponRate = 0
	terms.PurchasePrice = 1
	terms.Frequency = 1
	terms.MaturityDate = time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.UpdateBond(context.Background(), terms))

	resp, err := svc.GetCashFlows(context.Background(), Query{BondID: terms.ID, Role: bonds.RoleInvestor, AutoCalculate: true})
	require.NoError(t, err)
	assert.True(t, resp.Partial)
	assert.NotEmpty(t, resp.MetricsError)
	assert.Len(t, resp.InvestorPeriods, 2)
	assert.Nil(t, resp.Metrics.TREA)
}

func TestGetMetrics(t *testing.T) {
	svc, repo, _ := newTestService()
	terms := storedTerms(t, repo)

	resp, err := svc.GetMetrics(context.Background(), terms.ID)
	require.NoError(t, err)
	require.NotNil(t, resp.Metrics)
	assert.Equal(t, terms.ID, resp.BondID)
	assert.InDelta(t, 1.928, resp.Metrics.Duration, 1e-3)
	require.NotNil(t, resp.LastUpdated)
}

func TestRecalculate(t *testing.T) {
	svc, repo, pub := newTestService()
	terms := storedTerms(t, repo)
	ctx := context.Background()

	first, err := svc.Recalculate(ctx, terms.ID)
	require.NoError(t, err)
	second, err := svc.Recalculate(ctx, terms.ID)
	require.NoError(t, err)

	assert.Equal(t, first.TermsHash, second.TermsHash)
	assert.Equal(t, first.Periods, second.Periods)
	assert.Equal(t, 2, pub.ComputedCount())
}

func TestRecalculateMany(t *testing.T) {
	svc, repo, pub := newTestService()
	ctx := context.Background()

	ids := make([]uuid.UUID, 0, 6)
	for i := 0; i < 5; i++ {
		ids = append(ids, storedTerms(t, repo).ID)
	}
	broken := storedTerms(t, repo)
	broken.Frequency = 7
	require.NoError(t, repo.UpdateBond(ctx, broken))
	ids = append(ids, uuid.New(), broken.ID)

	require.NoError(t, svc.RecalculateMany(ctx, ids), "missing bonds and rejected terms are not retried")
	assert.Equal(t, 5, pub.ComputedCount())

	for _, id := range ids[:5] {
		_, err := repo.GetSchedule(ctx, id)
		assert.NoError(t, err)
	}
	_, err := repo.GetSchedule(ctx, broken.ID)
	assert.ErrorIs(t, err, bonds.ErrScheduleNotFound)
}

func TestRecalculateMany_StorageErrorsAreReturned(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()
	id := storedTerms(t, repo).ID

	repo.Err = errors.New("connection refused")
	err := svc.RecalculateMany(ctx, []uuid.UUID{id})
	require.Error(t, err)
	assert.Contains(t, err.Error(), id.String())
	assert.Contains(t, err.Error(), "connection refused")
}

func TestGetCashFlows_Concurrent(t *testing.T) {
	svc, repo, _ := newTestService()
	terms := storedTerms(t, repo)

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.GetCashFlows(context.Background(), Query{BondID: terms.ID, Role: bonds.RoleInvestor, AutoCalculate: true})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}
}

func TestComputeTerms(t *testing.T) {
	svc, _, pub := newTestService()

	_, err := svc.ComputeTerms(nil)
	assert.ErrorIs(t, err, ErrNilTerms)

	terms := &bonds.Terms{
		NominalValue:  1000,
		PurchasePrice: 1000,
		IssueDate:     time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC),
		MaturityDate:  time.Date(2026, time.January, 15, 0, 0, 0, 0, time.UTC),
		CouponRate:    0.05,
		Frequency:     2,
		Amortization:  bonds.AmortizationLevelPrincipal,
		DayCount:      360,
	}
	schedule, err := svc.ComputeTerms(terms)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, schedule.BondID)
	assert.Len(t, schedule.Periods, 5)
	assert.NotEmpty(t, schedule.TermsHash)
	assert.Zero(t, pub.ComputedCount(), "stateless computes are not announced")
}

// gatedSchedules holds the first save until release is closed and rejects
// saves made under a cancelled context.
type gatedSchedules struct {
	*memory.Repository
	mu      sync.Mutex
	saves   int
	entered chan struct{}
	release chan struct{}
}

func newGatedSchedules(repo *memory.Repository) *gatedSchedules {
	return &gatedSchedules{Repository: repo, entered: make(chan struct{}), release: make(chan struct{})}
}

func (g *gatedSchedules) SaveSchedule(ctx context.Context, schedule *bonds.Schedule) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	g.mu.Lock()
	g.saves++
	first := g.saves == 1
	g.mu.Unlock()
	if first {
		close(g.entered)
		<-g.release
	}
	return g.Repository.SaveSchedule(ctx, schedule)
}

func TestRecompute_NewerTermsDoNotShareAnOlderComputation(t *testing.T) {
	repo := memory.NewRepository()
	gated := newGatedSchedules(repo)
	svc := NewService(repo, gated, nil, 2, nil)
	ctx := context.Background()

	older := storedTerms(t, repo)
	done := make(chan error, 1)
	go func() {
		_, err := svc.recompute(ctx, older)
		done <- err
	}()
	<-gated.entered

	newer := *older
	newer.CouponRate = 0.08
	newerHash, err := newer.Hash()
	require.NoError(t, err)

	schedule, err := svc.recompute(ctx, &newer)
	require.NoError(t, err)
	assert.Equal(t, newerHash, schedule.TermsHash)

	close(gated.release)
	require.NoError(t, <-done)
}

func TestRecompute_CancelledCallerDoesNotAbortTheSave(t *testing.T) {
	repo := memory.NewRepository()
	gated := newGatedSchedules(repo)
	close(gated.release)
	svc := NewService(repo, gated, nil, 2, nil)
	terms := storedTerms(t, repo)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := svc.recompute(ctx, terms)
	if err != nil {
		assert.ErrorIs(t, err, context.Canceled)
	}

	assert.Eventually(t, func() bool {
		_, err := repo.GetSchedule(context.Background(), terms.ID)
		return err == nil
	}, time.Second, 5*time.Millisecond)
}
