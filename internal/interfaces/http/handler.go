// @title           Bond Cash Flow API
// @version         1.0
// @description     Bond terms storage, cash-flow schedules and yield metrics
// @termsOfService  http://swagger.io/terms/

// @contact.name   API Support
// @contact.url    http://www.swagger.io/support
// @contact.email  support@swagger.io

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:8080
// @BasePath  /api/v1

package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	appinterfaces "github.com/Eduvent/bono-app-sub002/internal/application/interfaces"
	appbonds "github.com/Eduvent/bono-app-sub002/internal/application/service/bonds"
	appcashflows "github.com/Eduvent/bono-app-sub002/internal/application/service/cashflows"
	domain "github.com/Eduvent/bono-app-sub002/internal/domain/entity/bonds"
	"github.com/Eduvent/bono-app-sub002/internal/interfaces/export"
)

const (
	bondsBasePath     = "/api/v1/bonds"
	calculatePath     = "/api/v1/calculate"
	defaultListLimit  = 50
	cacheKeyPrefix    = "cache:GET:"
	formatCSV         = "csv"
	formatJSON        = "json"
	contentTypeCSV    = "text/csv; charset=utf-8"
	contentTypeJSON   = "application/json"
	evictScanPageSize = 100

	// skipCacheKey marks a response the cache middleware must not store.
	skipCacheKey = "cache.skip"
)

var (
	errMissingUID    = errors.New("missing uid")
	errInvalidFormat = errors.New("format must be json or csv")
)

type Handler struct {
	router    *gin.Engine
	bonds     *appbonds.Service
	cashflows *appcashflows.Service
	cache     *redis.Client
	cacheTTL  time.Duration
	logger    logrus.FieldLogger
}

var _ appinterfaces.HTTPHandler = (*Handler)(nil)

func NewHandler(bondSvc *appbonds.Service, cfSvc *appcashflows.Service, cache *redis.Client, cacheTTL time.Duration, logger logrus.FieldLogger) *Handler {
	router := gin.New()
	router.Use(gin.Recovery())

	h := &Handler{
		router:    router,
		bonds:     bondSvc,
		cashflows: cfSvc,
		cache:     cache,
		cacheTTL:  cacheTTL,
		logger:    logger.WithField("component", "http"),
	}
	h.registerRoutes()
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) registerRoutes() {
	h.router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	bonds := h.router.Group(bondsBasePath)
	if h.cache != nil && h.cacheTTL > 0 {
		bonds.Use(h.cacheMiddleware())
	}
	{
		bonds.POST("", h.createBond)
		bonds.GET("", h.listBonds)
		bonds.GET("/:uid", h.getBond)
		bonds.PUT("/:uid", h.updateBond)
		bonds.DELETE("/:uid", h.deleteBond)

		bonds.GET("/:uid/cashflows", h.getCashFlows)
		bonds.POST("/:uid/cashflows/recalculate", h.recalculate)
		bonds.GET("/:uid/metrics", h.getMetrics)
	}

	h.router.POST(calculatePath, h.calculate)
}

// Bond terms handlers

// createBond stores new bond terms
// @Summary      Create bond
// @Description  Validate and store the terms of a bond
// @Tags         bonds
// @Accept       json
// @Produce      json
// @Param        bond  body      domain.Terms  true  "Bond terms"
// @Success      201   {object}  domain.Terms
// @Failure      400   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /bonds [post]
func (h *Handler) createBond(c *gin.Context) {
	var terms domain.Terms
	if err := c.ShouldBindJSON(&terms); err != nil {
		writeError(c, http.StatusBadRequest, err)
		return
	}
	if err := h.bonds.CreateBond(c.Request.Context(), &terms); err != nil {
		writeError(c, statusFor(err), err)
		return
	}
	h.evictList(c.Request.Context())
	c.JSON(http.StatusCreated, terms)
}

// listBonds returns a page of bond terms
// @Summary      List bonds
// @Tags         bonds
// @Produce      json
// @Param        limit   query     int  false  "Page size"  default(50)
// @Param        offset  query     int  false  "Offset"     default(0)
// @Success      200     {array}   domain.Terms
// @Failure      400     {object}  map[string]string
// @Failure      500     {object}  map[string]string
// @Router       /bonds [get]
func (h *Handler) listBonds(c *gin.Context) {
	limit, err := parseIntQueryDefault(c, "limit", defaultListLimit)
	if err != nil {
		writeError(c, http.StatusBadRequest, err)
		return
	}
	offset, err := parseIntQueryDefault(c, "offset", 0)
	if err != nil || offset < 0 {
		writeError(c, http.StatusBadRequest, errors.New("offset must be a non-negative integer"))
		return
	}
	items, err := h.bonds.ListBonds(c.Request.Context(), limit, offset)
	if err != nil {
		writeError(c, statusFor(err), err)
		return
	}
	if items == nil {
		items = []domain.Terms{}
	}
	c.JSON(http.StatusOK, items)
}

// getBond retrieves bond terms by UID
// @Summary      Get bond
// @Tags         bonds
// @Produce      json
// @Param        uid   path      string  true  "Bond UID"
// @Success      200   {object}  domain.Terms
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /bonds/{uid} [get]
func (h *Handler) getBond(c *gin.Context) {
	uid, err := parseUIDParam(c)
	if err != nil {
		writeError(c, http.StatusBadRequest, err)
		return
	}
	terms, err := h.bonds.GetBond(c.Request.Context(), uid)
	if err != nil {
		writeError(c, statusFor(err), err)
		return
	}
	c.JSON(http.StatusOK, terms)
}

// updateBond replaces bond terms and drops the stored schedule
// @Summary      Update bond
// @Tags         bonds
// @Accept       json
// @Produce      json
// @Param        uid   path      string        true  "Bond UID"
// @Param        bond  body      domain.Terms  true  "Bond terms"
// @Success      200   {object}  domain.Terms
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /bonds/{uid} [put]
func (h *Handler) updateBond(c *gin.Context) {
	uid, err := parseUIDParam(c)
	if err != nil {
		writeError(c, http.StatusBadRequest, err)
		return
	}
	var terms domain.Terms
	if err := c.ShouldBindJSON(&terms); err != nil {
		writeError(c, http.StatusBadRequest, err)
		return
	}
	terms.ID = uid
	if err := h.bonds.UpdateBond(c.Request.Context(), &terms); err != nil {
		writeError(c, statusFor(err), err)
		return
	}
	h.evictBond(c.Request.Context(), uid)
	c.JSON(http.StatusOK, terms)
}

// deleteBond removes bond terms and their schedule
// @Summary      Delete bond
// @Tags         bonds
// @Param        uid   path      string  true  "Bond UID"
// @Success      204   "No Content"
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /bonds/{uid} [delete]
func (h *Handler) deleteBond(c *gin.Context) {
	uid, err := parseUIDParam(c)
	if err != nil {
		writeError(c, http.StatusBadRequest, err)
		return
	}
	if err := h.bonds.DeleteBond(c.Request.Context(), uid); err != nil {
		writeError(c, statusFor(err), err)
		return
	}
	h.evictBond(c.Request.Context(), uid)
	c.Status(http.StatusNoContent)
}

// Cash flow handlers

// getCashFlows returns the schedule of a bond as one role sees it
// @Summary      Get cash flows
// @Description  Periods of the stored schedule, computed on demand unless auto_calculate=false
// @Tags         cashflows
// @Produce      json
// @Produce      text/csv
// @Param        uid             path      string  true   "Bond UID"
// @Param        role            query     string  false  "issuer or investor"  default(investor)
// @Param        period_from     query     int     false  "First period"
// @Param        period_to       query     int     false  "Last period"
// @Param        auto_calculate  query     bool    false  "Compute when missing"  default(true)
// @Param        format          query     string  false  "json or csv"  default(json)
// @Success      200   {object}  appcashflows.Response
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /bonds/{uid}/cashflows [get]
func (h *Handler) getCashFlows(c *gin.Context) {
	uid, err := parseUIDParam(c)
	if err != nil {
		writeError(c, http.StatusBadRequest, err)
		return
	}
	q, format, err := parseCashFlowQuery(c)
	if err != nil {
		writeError(c, http.StatusBadRequest, err)
		return
	}
	q.BondID = uid

	resp, err := h.cashflows.GetCashFlows(c.Request.Context(), q)
	if err != nil {
		writeError(c, statusFor(err), err)
		return
	}
	if !resp.Calculated {
		// nothing stored yet; a later recompute must be visible before the TTL
		c.Set(skipCacheKey, true)
	}
	h.writeCashFlows(c, resp, format)
}

// recalculate discards the stored schedule and computes it again
// @Summary      Recalculate cash flows
// @Tags         cashflows
// @Produce      json
// @Param        uid   path      string  true  "Bond UID"
// @Success      200   {object}  domain.Schedule
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /bonds/{uid}/cashflows/recalculate [post]
func (h *Handler) recalculate(c *gin.Context) {
	uid, err := parseUIDParam(c)
	if err != nil {
		writeError(c, http.StatusBadRequest, err)
		return
	}
	schedule, err := h.cashflows.Recalculate(c.Request.Context(), uid)
	if err != nil {
		writeError(c, statusFor(err), err)
		return
	}
	h.evictBond(c.Request.Context(), uid)
	c.JSON(http.StatusOK, schedule)
}

// getMetrics returns yields, durations and price of a bond
// @Summary      Get metrics
// @Tags         cashflows
// @Produce      json
// @Param        uid   path      string  true  "Bond UID"
// @Success      200   {object}  appcashflows.MetricsResponse
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /bonds/{uid}/metrics [get]
func (h *Handler) getMetrics(c *gin.Context) {
	uid, err := parseUIDParam(c)
	if err != nil {
		writeError(c, http.StatusBadRequest, err)
		return
	}
	resp, err := h.cashflows.GetMetrics(c.Request.Context(), uid)
	if err != nil {
		writeError(c, statusFor(err), err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// calculate computes a schedule for terms that are not stored
// @Summary      Calculate
// @Description  Stateless computation; nothing is persisted or published
// @Tags         cashflows
// @Accept       json
// @Produce      json
// @Produce      text/csv
// @Param        bond         body      domain.Terms  true   "Bond terms"
// @Param        role         query     string        false  "issuer or investor"  default(investor)
// @Param        period_from  query     int           false  "First period"
// @Param        period_to    query     int           false  "Last period"
// @Param        format       query     string        false  "json or csv"  default(json)
// @Success      200   {object}  appcashflows.Response
// @Failure      400   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /calculate [post]
func (h *Handler) calculate(c *gin.Context) {
	var terms domain.Terms
	if err := c.ShouldBindJSON(&terms); err != nil {
		writeError(c, http.StatusBadRequest, err)
		return
	}
	q, format, err := parseCashFlowQuery(c)
	if err != nil {
		writeError(c, http.StatusBadRequest, err)
		return
	}
	schedule, err := h.cashflows.ComputeTerms(&terms)
	if err != nil {
		writeError(c, statusFor(err), err)
		return
	}
	q.BondID = terms.ID
	resp, err := h.cashflows.BuildResponse(&terms, schedule, q)
	if err != nil {
		writeError(c, statusFor(err), err)
		return
	}
	h.writeCashFlows(c, resp, format)
}

func (h *Handler) writeCashFlows(c *gin.Context, resp *appcashflows.Response, format string) {
	if format != formatCSV {
		c.JSON(http.StatusOK, resp)
		return
	}

	var buf bytes.Buffer
	var err error
	if resp.Role == domain.RoleIssuer {
		err = export.WriteIssuerCSV(&buf, resp.IssuerPeriods)
	} else {
		err = export.WriteInvestorCSV(&buf, resp.InvestorPeriods)
	}
	if err != nil {
		writeError(c, http.StatusInternalServerError, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fmt.Sprintf("%s-%s.csv", resp.BondID, resp.Role)))
	c.Data(http.StatusOK, contentTypeCSV, buf.Bytes())
}

// Helpers

func parseCashFlowQuery(c *gin.Context) (appcashflows.Query, string, error) {
	q := appcashflows.Query{AutoCalculate: true}

	role, err := domain.NewRole(c.DefaultQuery("role", string(domain.RoleInvestor)))
	if err != nil {
		return q, "", err
	}
	q.Role = role

	if q.PeriodFrom, err = parseOptionalIntQuery(c, "period_from"); err != nil {
		return q, "", err
	}
	if q.PeriodTo, err = parseOptionalIntQuery(c, "period_to"); err != nil {
		return q, "", err
	}
	if raw := c.Query("auto_calculate"); raw != "" {
		auto, err := strconv.ParseBool(raw)
		if err != nil {
			return q, "", fmt.Errorf("auto_calculate: %w", err)
		}
		q.AutoCalculate = auto
	}

	format := strings.ToLower(c.DefaultQuery("format", formatJSON))
	if format != formatJSON && format != formatCSV {
		return q, "", errInvalidFormat
	}
	return q, format, nil
}

func parseUIDParam(c *gin.Context) (uuid.UUID, error) {
	uid, err := uuid.Parse(c.Param("uid"))
	if err != nil {
		return uuid.Nil, errMissingUID
	}
	return uid, nil
}

func parseIntQueryDefault(c *gin.Context, key string, fallback int) (int, error) {
	value := c.Query(key)
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", key)
	}
	return parsed, nil
}

func parseOptionalIntQuery(c *gin.Context, key string) (*int, error) {
	value := c.Query(key)
	if value == "" {
		return nil, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("%s must be an integer", key)
	}
	return &parsed, nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrData):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrBondNotFound), errors.Is(err, domain.ErrScheduleNotFound):
		return http.StatusNotFound
	case errors.Is(err, appcashflows.ErrInvalidRole),
		errors.Is(err, appcashflows.ErrInvalidRange),
		errors.Is(err, appcashflows.ErrNilTerms),
		errors.Is(err, appbonds.ErrInvalidLimit),
		errors.Is(err, appbonds.ErrNilTerms):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, status int, err error) {
	if err == nil {
		status = http.StatusInternalServerError
		err = errors.New("unknown error")
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// cacheMiddleware caches GET responses in Redis.
func (h *Handler) cacheMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if h.cache == nil || c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		key := h.cacheKey(c)
		ctx := c.Request.Context()

		if cached, err := h.cache.Get(ctx, key).Result(); err == nil {
			c.Data(http.StatusOK, contentTypeJSON, []byte(cached))
			c.Abort()
			return
		}

		recorder := &responseRecorder{
			ResponseWriter: c.Writer,
			status:         http.StatusOK,
			body:           &bytes.Buffer{},
		}
		c.Writer = recorder

		c.Next()

		if !cacheable(c, recorder.status, recorder.Header().Get("Content-Type"), recorder.body.Len()) {
			return
		}
		if err := h.cache.Set(ctx, key, recorder.body.Bytes(), h.cacheTTL).Err(); err != nil {
			h.logger.WithError(err).Warn("cache set failed")
		}
	}
}

// cacheable reports whether a finished response may be stored. Only
// successful JSON is cached since the hit path replays JSON only.
func cacheable(c *gin.Context, status int, contentType string, size int) bool {
	if c.GetBool(skipCacheKey) {
		return false
	}
	if !strings.HasPrefix(contentType, contentTypeJSON) {
		return false
	}
	return status >= 200 && status < 300 && size > 0
}

type responseRecorder struct {
	gin.ResponseWriter
	body   *bytes.Buffer
	status int
}

func (r *responseRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseRecorder) Write(data []byte) (int, error) {
	if len(data) > 0 {
		r.body.Write(data)
	}
	return r.ResponseWriter.Write(data)
}

func (h *Handler) cacheKey(c *gin.Context) string {
	return fmt.Sprintf("%s%s?%s", cacheKeyPrefix, c.Request.URL.Path, c.Request.URL.RawQuery)
}

// evictBond drops every cached response under the bond's path and the list pages.
func (h *Handler) evictBond(ctx context.Context, uid uuid.UUID) {
	h.evict(ctx, fmt.Sprintf("%s%s/%s*", cacheKeyPrefix, bondsBasePath, uid))
	h.evictList(ctx)
}

func (h *Handler) evictList(ctx context.Context) {
	h.evict(ctx, fmt.Sprintf("%s%s\\?*", cacheKeyPrefix, bondsBasePath))
}

func (h *Handler) evict(ctx context.Context, pattern string) {
	if h.cache == nil {
		return
	}
	iter := h.cache.Scan(ctx, 0, pattern, evictScanPageSize).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		h.logger.WithError(err).WithField("pattern", pattern).Warn("cache scan failed")
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := h.cache.Del(ctx, keys...).Err(); err != nil {
		h.logger.WithError(err).WithField("pattern", pattern).Warn("cache eviction failed")
	}
}
