// Package handlers exposes the session over HTTP with gin.
package handlers

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/farmaintel/price-service/internal/catalog"
	"github.com/farmaintel/price-service/internal/engine"
	"github.com/farmaintel/price-service/internal/pipeline"
	"github.com/farmaintel/price-service/internal/session"
	"github.com/farmaintel/price-service/internal/types"
	"github.com/gin-gonic/gin"
)

// MaxUploadBytes bounds one uploaded supplier file
const MaxUploadBytes = 50 << 20

var (
	mu   sync.RWMutex
	sess *session.Session
)

// InitSession sets the session served by the handlers
func InitSession(s *session.Session) {
	mu.Lock()
	defer mu.Unlock()
	sess = s
}

func currentSession() *session.Session {
	mu.RLock()
	defer mu.RUnlock()
	return sess
}

// requireSession writes 503 when no session was initialized
func requireSession(c *gin.Context) (*session.Session, bool) {
	s := currentSession()
	if s == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "session not initialized"})
		return nil, false
	}
	return s, true
}

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error string `json:"error" jsonschema:"required"`
}

// StageMessage is a non-fatal problem reported during a run
type StageMessage struct {
	Stage   string `json:"stage" jsonschema:"required"`
	Message string `json:"message" jsonschema:"required"`
}

// ProcessResponse is returned by a completed run
type ProcessResponse struct {
	RunID      string                    `json:"runId" jsonschema:"required"`
	Settings   pipeline.Settings         `json:"settings" jsonschema:"required"`
	Reports    []pipeline.SupplierReport `json:"reports" jsonschema:"required"`
	Warnings   []StageMessage            `json:"warnings"`
	Converted  int                       `json:"converted"`
	ReportPath string                    `json:"reportPath,omitempty"`
	Summary    *engine.Summary           `json:"summary" jsonschema:"required"`
	Duration   string                    `json:"duration"`
}

// RecalculateRequest changes the margin and join strategy of the last run
type RecalculateRequest struct {
	MarginPct    *float64 `json:"margin_pct" jsonschema:"minimum=0"`
	JoinStrategy string   `json:"join_strategy" jsonschema:"enum=anchor,enum=full"`
}

// RateRequest sets the exchange rate manually
type RateRequest struct {
	ExchangeRate float64 `json:"exchange_rate" binding:"required,gt=0" jsonschema:"required,exclusiveMinimum=0"`
}

// SettingsResponse is the settings snapshot in effect
type SettingsResponse struct {
	Settings pipeline.Settings `json:"settings" jsonschema:"required"`
	HasData  bool              `json:"hasData"`
}

// CatalogPage is one page of catalog entries
type CatalogPage struct {
	Entries   []catalog.EntryView `json:"entries" jsonschema:"required"`
	Total     int                 `json:"total" jsonschema:"required"`
	Offset    int                 `json:"offset"`
	Limit     int                 `json:"limit"`
	Universal bool                `json:"universal"`
}

// AnalyticsResponse bundles the aggregate views of the primary catalog
type AnalyticsResponse struct {
	Executive engine.Executive                      `json:"executive" jsonschema:"required"`
	BaseVsNet map[types.SupplierID]engine.BaseVsNet `json:"baseVsNet"`
}

// GapsResponse lists the products a supplier lacks while others stock them
type GapsResponse struct {
	Target     types.SupplierID         `json:"target" jsonschema:"required"`
	Count      int                      `json:"count"`
	BySupplier map[types.SupplierID]int `json:"bySupplier"`
	Units      map[types.SupplierID]int `json:"units"`
	Entries    []catalog.EntryView      `json:"entries"`
}

// SearchResponse lists products matching a molecule keyword
type SearchResponse struct {
	Query   string              `json:"query"`
	Entries []catalog.EntryView `json:"entries"`
}

func views(entries []*catalog.Entry) []catalog.EntryView {
	out := make([]catalog.EntryView, len(entries))
	for i, e := range entries {
		out[i] = e.View()
	}
	return out
}

// respondSessionError maps session errors to status codes
func respondSessionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, session.ErrNoData), errors.Is(err, engine.ErrNotParsed):
		c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})
	case errors.Is(err, session.ErrNoRateSource):
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
	}
}

func formatDuration(d time.Duration) string {
	return d.Round(time.Millisecond).String()
}

// RegisterRoutes mounts the API endpoints on api
func RegisterRoutes(api gin.IRouter) {
	api.GET("/suppliers", ListSuppliers)
	api.POST("/process", Process)
	api.POST("/recalculate", Recalculate)
	api.GET("/runs/latest", LatestRun)

	settings := api.Group("/settings")
	{
		settings.GET("", GetSettings)
		settings.PUT("/rate", SetRate)
		settings.POST("/rate/refresh", RefreshRate)
	}

	api.GET("/catalog", ListCatalog)
	api.GET("/catalog/:barcode", GetProduct)
	api.GET("/analytics", Analytics)
	api.GET("/gaps/:supplier", Gaps)
	api.GET("/search", Search)
	api.GET("/export", Export)
}
