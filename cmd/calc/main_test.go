package main

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appcashflows "github.com/Eduvent/bono-app-sub002/internal/application/service/cashflows"
	domain "github.com/Eduvent/bono-app-sub002/internal/domain/entity/bonds"
	"github.com/Eduvent/bono-app-sub002/internal/interfaces/export"
)

const termsYAML = `
name: Corp 6% 2027
currency: USD
nominal_value: 1000
purchase_price: 1000
issue_date: 2024-03-01
maturity_date: 2027-03-01
coupon_rate: 0.06
frequency: 2
amortization: level_principal
grace:
  - period: 1
    kind: total
capitalize_grace: true
discount_rate: 0.05
day_count: 360
tax_rate: 0.3
`

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestLoadTerms_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bond.yaml")
	require.NoError(t, os.WriteFile(path, []byte(termsYAML), 0o600))

	terms, err := loadTerms(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "USD", terms.Currency)
	assert.Equal(t, time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC), terms.IssueDate)
	assert.Equal(t, domain.AmortizationLevelPrincipal, terms.Amortization)
	require.Len(t, terms.Grace, 1)
	assert.Equal(t, domain.GraceTotal, terms.Grace[0].Kind)
	assert.True(t, terms.CapitalizeGrace)
}

func TestLoadTerms_JSONAndStdin(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bond.json")
	payload := `{"nominal_value": 500, "issue_date": "2024-01-15T00:00:00Z", "frequency": 4}`
	require.NoError(t, os.WriteFile(path, []byte(payload), 0o600))

	terms, err := loadTerms(path, nil)
	require.NoError(t, err)
	assert.Equal(t, 500.0, terms.NominalValue)
	assert.Equal(t, 4, terms.Frequency)

	terms, err = loadTerms("-", strings.NewReader(termsYAML))
	require.NoError(t, err)
	assert.Equal(t, 0.06, terms.CouponRate)

	_, err = loadTerms(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	assert.Error(t, err)
}

func TestRender(t *testing.T) {
	terms, err := loadTerms("-", strings.NewReader(termsYAML))
	require.NoError(t, err)

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		resp, err := render(&buf, terms, options{Role: "investor", Format: "json"}, quietLogger())
		require.NoError(t, err)
		assert.Equal(t, 7, resp.Metadata.RowCount)

		var decoded appcashflows.Response
		require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
		require.Len(t, decoded.InvestorPeriods, 7)
		assert.Zero(t, decoded.InvestorPeriods[1].InvestorFlow, "total grace pays nothing")
	})

	t.Run("csv issuer range", func(t *testing.T) {
		from, to := 1, 3
		var buf bytes.Buffer
		_, err := render(&buf, terms, options{Role: "issuer", Format: "csv", From: &from, To: &to}, quietLogger())
		require.NoError(t, err)

		rows, err := export.ReadCSV(&buf)
		require.NoError(t, err)
		require.Len(t, rows, 3)
		assert.Equal(t, 1.0, rows[0]["index"])
		assert.Contains(t, rows[0], "tax_shield")
	})

	t.Run("errors", func(t *testing.T) {
		_, err := render(io.Discard, terms, options{Role: "broker", Format: "json"}, quietLogger())
		assert.Error(t, err)

		_, err = render(io.Discard, terms, options{Role: "issuer", Format: "xml"}, quietLogger())
		assert.Error(t, err)

		invalid := *terms
		invalid.Frequency = 7
		_, err = render(io.Discard, &invalid, options{Role: "issuer", Format: "json"}, quietLogger())
		assert.ErrorIs(t, err, domain.ErrValidation)
	})
}
