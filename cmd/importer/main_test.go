package main

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/Eduvent/bono-app-sub002/internal/domain/entity/bonds"
	"github.com/Eduvent/bono-app-sub002/internal/infrastructure/investapi"
)

type stubSource map[string]*domain.Terms

func (s stubSource) FetchTerms(_ context.Context, figi string) (*domain.Terms, error) {
	terms, ok := s[figi]
	if !ok {
		return nil, errors.New("not found")
	}
	copied := *terms
	return &copied, nil
}

func validTerms(figi string) *domain.Terms {
	return &domain.Terms{
		ID:            investapi.BondID(figi),
		NominalValue:  1000,
		PurchasePrice: 990,
		IssueDate:     time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC),
		MaturityDate:  time.Date(2027, time.March, 1, 0, 0, 0, 0, time.UTC),
		CouponRate:    0.07,
		Frequency:     2,
		Amortization:  domain.AmortizationBullet,
		DiscountRate:  0.08,
		DayCount:      360,
	}
}

func TestCollectFigis(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bonds.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"bonds": ["bbg2", " BBG3 ", ""]}`), 0o600))

	figis, err := collectFigis([]string{"BBG1", "BBG2"}, path)
	require.NoError(t, err)
	assert.Equal(t, []string{"BBG1", "BBG2", "BBG3"}, figis)

	_, err = collectFigis(nil, filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestFetchAll_SkipsBrokenBonds(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	invalid := validTerms("BBG3")
	invalid.Frequency = 5
	source := stubSource{
		"BBG1": validTerms("BBG1"),
		"BBG2": validTerms("BBG2"),
		"BBG3": invalid,
	}

	imported, skipped := fetchAll(context.Background(), source, []string{"BBG1", "BBG2", "BBG3", "BBG4"}, 2, logger)
	assert.Equal(t, 2, skipped)
	require.Len(t, imported, 2)

	ids := []string{imported[0].ID.String(), imported[1].ID.String()}
	sort.Strings(ids)
	expected := []string{investapi.BondID("BBG1").String(), investapi.BondID("BBG2").String()}
	sort.Strings(expected)
	assert.Equal(t, expected, ids)
}
