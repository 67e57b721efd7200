package http

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appbonds "github.com/Eduvent/bono-app-sub002/internal/application/service/bonds"
	appcashflows "github.com/Eduvent/bono-app-sub002/internal/application/service/cashflows"
	domain "github.com/Eduvent/bono-app-sub002/internal/domain/entity/bonds"
	"github.com/Eduvent/bono-app-sub002/internal/infrastructure/memory"
	"github.com/Eduvent/bono-app-sub002/internal/interfaces/export"
)

type testServer struct {
	handler *Handler
	repo    *memory.Repository
	events  *memory.Publisher
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	repo := memory.NewRepository()
	events := &memory.Publisher{}
	bondSvc := appbonds.NewService(repo, repo, events, logger)
	cfSvc := appcashflows.NewService(repo, repo, events, 2, logger)

	return &testServer{
		handler: NewHandler(bondSvc, cfSvc, nil, 0, logger),
		repo:    repo,
		events:  events,
	}
}

func (s *testServer) do(t *testing.T, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) createBond(t *testing.T) domain.Terms {
	t.Helper()
	rec := s.do(t, http.MethodPost, bondsBasePath, plainTerms())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created domain.Terms
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotEqual(t, uuid.Nil, created.ID)
	return created
}

func plainTerms() domain.Terms {
	return domain.Terms{
		Name:          "Corp 5% 2026",
		Currency:      "PEN",
		NominalValue:  1000,
		PurchasePrice: 1000,
		IssueDate:     time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC),
		MaturityDate:  time.Date(2026, time.January, 15, 0, 0, 0, 0, time.UTC),
		CouponRate:    0.05,
		Frequency:     2,
		Amortization:  domain.AmortizationBullet,
		DiscountRate:  0.05,
		DayCount:      360,
		TaxRate:       0.3,
	}
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body["error"]
}

func TestHandler_BondCRUD(t *testing.T) {
	s := newTestServer(t)
	created := s.createBond(t)
	path := bondsBasePath + "/" + created.ID.String()

	rec := s.do(t, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var fetched domain.Terms
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fetched))
	assert.Equal(t, "Corp 5% 2026", fetched.Name)

	rec = s.do(t, http.MethodGet, bondsBasePath+"?limit=10", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []domain.Terms
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 1)

	update := plainTerms()
	update.CouponRate = 0.06
	rec = s.do(t, http.MethodPut, path, update)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 1, s.events.ChangedCount())

	rec = s.do(t, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(t, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_ErrorMapping(t *testing.T) {
	s := newTestServer(t)
	created := s.createBond(t)

	invalid := plainTerms()
	invalid.Frequency = 5

	testCases := []struct {
		name   string
		method string
		target string
		body   any
		status int
	}{
		{"invalid terms", http.MethodPost, bondsBasePath, invalid, http.StatusUnprocessableEntity},
		{"malformed body", http.MethodPost, bondsBasePath, "not terms", http.StatusBadRequest},
		{"bad uid", http.MethodGet, bondsBasePath + "/nope", nil, http.StatusBadRequest},
		{"unknown bond", http.MethodGet, bondsBasePath + "/" + uuid.NewString(), nil, http.StatusNotFound},
		{"unknown bond cash flows", http.MethodGet, bondsBasePath + "/" + uuid.NewString() + "/cashflows", nil, http.StatusNotFound},
		{"bad role", http.MethodGet, bondsBasePath + "/" + created.ID.String() + "/cashflows?role=broker", nil, http.StatusBadRequest},
		{"negative period", http.MethodGet, bondsBasePath + "/" + created.ID.String() + "/cashflows?period_from=-1", nil, http.StatusBadRequest},
		{"bad format", http.MethodGet, bondsBasePath + "/" + created.ID.String() + "/cashflows?format=xml", nil, http.StatusBadRequest},
		{"bad limit", http.MethodGet, bondsBasePath + "?limit=0", nil, http.StatusBadRequest},
		{"invalid calculate", http.MethodPost, calculatePath, invalid, http.StatusUnprocessableEntity},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec := s.do(t, tc.method, tc.target, tc.body)
			assert.Equal(t, tc.status, rec.Code, rec.Body.String())
			assert.NotEmpty(t, decodeError(t, rec))
		})
	}
}

func TestHandler_GetCashFlows(t *testing.T) {
	s := newTestServer(t)
	created := s.createBond(t)
	path := bondsBasePath + "/" + created.ID.String() + "/cashflows"

	rec := s.do(t, http.MethodGet, path+"?role=issuer&period_from=2&period_to=1", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp appcashflows.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Calculated)
	assert.Equal(t, domain.RoleIssuer, resp.Role)
	require.Len(t, resp.IssuerPeriods, 2)
	assert.Empty(t, resp.InvestorPeriods)
	assert.Equal(t, 1, resp.IssuerPeriods[0].Index)
	assert.InDelta(t, -25.0, resp.IssuerPeriods[0].IssuerFlow, 1e-9)
	assert.InDelta(t, 7.5, resp.IssuerPeriods[0].TaxShield, 1e-9)
	assert.Equal(t, 2, resp.Metadata.RowCount)
	assert.Equal(t, "PEN", resp.Metadata.Currency)
	assert.Equal(t, 1, s.events.ComputedCount())

	// served from storage the second time
	rec = s.do(t, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, s.events.ComputedCount())
}

func TestHandler_GetCashFlowsWithoutAutoCalculate(t *testing.T) {
	s := newTestServer(t)
	created := s.createBond(t)

	rec := s.do(t, http.MethodGet, bondsBasePath+"/"+created.ID.String()+"/cashflows?auto_calculate=false", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp appcashflows.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Calculated)
	assert.Zero(t, resp.Metadata.RowCount)
	assert.Zero(t, s.events.ComputedCount())
}

func TestHandler_GetCashFlowsCSV(t *testing.T) {
	s := newTestServer(t)
	created := s.createBond(t)

	rec := s.do(t, http.MethodGet, bondsBasePath+"/"+created.ID.String()+"/cashflows?format=csv", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/csv"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "investor.csv")

	rows, err := export.ReadCSV(rec.Body)
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.InDelta(t, -1000.0, rows[0]["investor_flow"], 1e-2)
	assert.InDelta(t, 1025.0, rows[4]["investor_flow"], 1e-2)
}

func TestHandler_MetricsAndRecalculate(t *testing.T) {
	s := newTestServer(t)
	created := s.createBond(t)
	base := bondsBasePath + "/" + created.ID.String()

	rec := s.do(t, http.MethodGet, base+"/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var metrics appcashflows.MetricsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &metrics))
	require.NotNil(t, metrics.Metrics)
	require.NotNil(t, metrics.Metrics.TREA)
	assert.InDelta(t, 0.050625, *metrics.Metrics.TREA, 1e-8)
	assert.False(t, metrics.Partial)

	rec = s.do(t, http.MethodPost, base+"/cashflows/recalculate", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var schedule domain.Schedule
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &schedule))
	assert.Len(t, schedule.Periods, 5)
	assert.Equal(t, 2, s.events.ComputedCount())
}

func TestHandler_CalculateIsStateless(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, calculatePath+"?role=investor&period_from=4", plainTerms())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp appcashflows.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.InvestorPeriods, 1)
	assert.InDelta(t, 1025.0, resp.InvestorPeriods[0].InvestorFlow, 1e-9)

	rec = s.do(t, http.MethodGet, bondsBasePath, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
	assert.Zero(t, s.events.ComputedCount())
}

func TestHandler_CacheKey(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/bonds/abc/cashflows?role=issuer", nil)

	h := &Handler{}
	assert.Equal(t, "cache:GET:/api/v1/bonds/abc/cashflows?role=issuer", h.cacheKey(c))
}

func TestHandler_UncalculatedCashFlowsAreNotCached(t *testing.T) {
	s := newTestServer(t)
	created := s.createBond(t)

	testCases := []struct {
		query     string
		skipCache bool
	}{
		{"?auto_calculate=false", true},
		{"", false},
		{"?auto_calculate=false", false},
	}

	for _, tc := range testCases {
		rec := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(rec)
		c.Params = gin.Params{{Key: "uid", Value: created.ID.String()}}
		c.Request = httptest.NewRequest(http.MethodGet, bondsBasePath+"/"+created.ID.String()+"/cashflows"+tc.query, nil)

		s.handler.getCashFlows(c)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, tc.skipCache, c.GetBool(skipCacheKey), "query %q", tc.query)
		assert.Equal(t, tc.skipCache, !cacheable(c, rec.Code, rec.Header().Get("Content-Type"), rec.Body.Len()))
	}
}

func TestCacheable(t *testing.T) {
	gin.SetMode(gin.TestMode)

	testCases := []struct {
		name        string
		skip        bool
		status      int
		contentType string
		size        int
		expected    bool
	}{
		{"json ok", false, http.StatusOK, "application/json; charset=utf-8", 10, true},
		{"marked by handler", true, http.StatusOK, "application/json; charset=utf-8", 10, false},
		{"csv", false, http.StatusOK, contentTypeCSV, 10, false},
		{"error", false, http.StatusNotFound, "application/json; charset=utf-8", 10, false},
		{"empty body", false, http.StatusOK, "application/json", 0, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			if tc.skip {
				c.Set(skipCacheKey, true)
			}
			assert.Equal(t, tc.expected, cacheable(c, tc.status, tc.contentType, tc.size))
		})
	}
}
