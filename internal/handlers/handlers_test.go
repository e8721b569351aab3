package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/farmaintel/price-service/internal/adapters/registry"
	"github.com/farmaintel/price-service/internal/engine"
	"github.com/farmaintel/price-service/internal/pipeline"
	"github.com/farmaintel/price-service/internal/report"
	"github.com/farmaintel/price-service/internal/session"
	"github.com/farmaintel/price-service/internal/types"
)

const droactivaCSV = "DESCRIPCION;BARRA;PRECIO(USD);EXISTENCIA;IVA;DA(%)\n" +
	"AMOXICILINA 500MG;7591;2,50;10;0;0\n"

const dromarkoCSV = "DESCRIPCION;BARRA;PRECIO(USD);NETO(USD);EXISTENCIA;IVA;DA(%)\n" +
	"AMOXICILINA 500MG;7591;3,00;2,00;4;0;0\n" +
	"OMEPRAZOL 20MG;7595;1,00;1,00;4;0;0\n"

type stubRate float64

func (r stubRate) FetchRate(ctx context.Context) (float64, error) {
	if r <= 0 {
		return 0, errors.New("bank unreachable")
	}
	return float64(r), nil
}

func init() {
	gin.SetMode(gin.TestMode)
}

func setupRouter(t *testing.T, rates pipeline.RateSource) *gin.Engine {
	t.Helper()
	runner := pipeline.New(pipeline.WithRegistry(registry.NewRegistry()))
	InitSession(session.New(runner, rates, pipeline.DefaultSettings()))
	t.Cleanup(func() { InitSession(nil) })

	r := gin.New()
	r.GET("/health", HealthCheck)
	RegisterRoutes(r.Group("/api/v1"))
	return r
}

func multipartBody(t *testing.T, files map[string]string, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	for field, content := range files {
		fw, err := mw.CreateFormFile(field, field+".csv")
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())
	return body, mw.FormDataContentType()
}

func do(r http.Handler, method, path string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func process(t *testing.T, r http.Handler, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	body, ct := multipartBody(t, map[string]string{
		"droactiva": droactivaCSV,
		"dromarko":  dromarkoCSV,
	}, fields)
	return do(r, http.MethodPost, "/api/v1/process", body, ct)
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestHealthCheck(t *testing.T) {
	r := setupRouter(t, nil)

	w := do(r, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "empty", decode[HealthResponse](t, w).Session)

	require.Equal(t, http.StatusOK, process(t, r, nil).Code)
	w = do(r, http.MethodGet, "/health", nil, "")
	assert.Equal(t, "loaded", decode[HealthResponse](t, w).Session)
}

func TestEndpointsWithoutData(t *testing.T) {
	r := setupRouter(t, nil)

	for _, path := range []string{"/api/v1/catalog", "/api/v1/analytics", "/api/v1/gaps/droactiva", "/api/v1/search?q=amox", "/api/v1/export", "/api/v1/runs/latest"} {
		w := do(r, http.MethodGet, path, nil, "")
		assert.Equal(t, http.StatusConflict, w.Code, path)
	}

	w := do(r, http.MethodPost, "/api/v1/recalculate", bytes.NewBufferString(`{"margin_pct": 10}`), "application/json")
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestProcess(t *testing.T) {
	r := setupRouter(t, nil)

	w := process(t, r, map[string]string{"margin_pct": "10", "exchange_rate": "40"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decode[ProcessResponse](t, w)
	assert.NotEmpty(t, resp.RunID)
	assert.Equal(t, 10.0, resp.Settings.MarginPct)
	assert.Equal(t, 40.0, resp.Settings.ExchangeRate)
	require.Len(t, resp.Reports, 2)
	assert.Equal(t, types.SupplierDroactiva, resp.Reports[0].Supplier)
	assert.Equal(t, 1, resp.Reports[0].Records)
	assert.Equal(t, 2, resp.Reports[1].Records)
	assert.Equal(t, 1, resp.Summary.TotalProducts)
	assert.Empty(t, resp.Warnings)

	w = do(r, http.MethodGet, "/api/v1/settings", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	settings := decode[SettingsResponse](t, w)
	assert.True(t, settings.HasData)
	assert.Equal(t, 10.0, settings.Settings.MarginPct)
}

func TestProcessRejectsBadInput(t *testing.T) {
	r := setupRouter(t, nil)

	body, ct := multipartBody(t, nil, map[string]string{"margin_pct": "5"})
	w := do(r, http.MethodPost, "/api/v1/process", body, ct)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	for _, fields := range []map[string]string{
		{"margin_pct": "abc"},
		{"margin_pct": "-1"},
		{"join_strategy": "sideways"},
		{"fetch_rate": "maybe"},
	} {
		w := process(t, r, fields)
		assert.Equal(t, http.StatusBadRequest, w.Code, fields)
	}
	assert.False(t, currentSession().HasData())
}

func TestProcessWithoutParsableFiles(t *testing.T) {
	r := setupRouter(t, nil)

	body, ct := multipartBody(t, map[string]string{"droactiva": "nothing useful here\n"}, nil)
	w := do(r, http.MethodPost, "/api/v1/process", body, ct)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "Droactiva")
}

func TestProcessReportsRateWarning(t *testing.T) {
	r := setupRouter(t, stubRate(0))

	w := process(t, r, map[string]string{"fetch_rate": "true"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decode[ProcessResponse](t, w)
	require.Len(t, resp.Warnings, 1)
	assert.Equal(t, pipeline.StageRate, resp.Warnings[0].Stage)
}

func TestRecalculate(t *testing.T) {
	r := setupRouter(t, nil)
	require.Equal(t, http.StatusOK, process(t, r, nil).Code)

	w := do(r, http.MethodPost, "/api/v1/recalculate", bytes.NewBufferString(`{"margin_pct": 50, "join_strategy": "full"}`), "application/json")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var body struct {
		Settings pipeline.Settings `json:"settings"`
		Summary  *engine.Summary   `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 50.0, body.Settings.MarginPct)
	require.NotNil(t, body.Summary)
	assert.Equal(t, 2, body.Summary.TotalProducts)

	s := currentSession().Settings()
	assert.Equal(t, 50.0, s.MarginPct)
	assert.Equal(t, engine.JoinFullOuter, s.JoinStrategy)

	w = do(r, http.MethodGet, "/api/v1/catalog", nil, "")
	page := decode[CatalogPage](t, w)
	assert.Equal(t, 2, page.Total)

	w = do(r, http.MethodPost, "/api/v1/recalculate", bytes.NewBufferString(`{"join_strategy": "sideways"}`), "application/json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = do(r, http.MethodPost, "/api/v1/recalculate", bytes.NewBufferString(`{"margin_pct": -3}`), "application/json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCatalog(t *testing.T) {
	r := setupRouter(t, nil)
	require.Equal(t, http.StatusOK, process(t, r, nil).Code)

	w := do(r, http.MethodGet, "/api/v1/catalog", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	page := decode[CatalogPage](t, w)
	assert.Equal(t, 1, page.Total)
	require.Len(t, page.Entries, 1)
	assert.Equal(t, "7591", page.Entries[0].Barcode)
	assert.Equal(t, types.SupplierDromarko, page.Entries[0].Winner)

	w = do(r, http.MethodGet, "/api/v1/catalog?universal=true&limit=1&offset=1", nil, "")
	page = decode[CatalogPage](t, w)
	assert.True(t, page.Universal)
	assert.Equal(t, 2, page.Total)
	require.Len(t, page.Entries, 1)
	assert.Equal(t, "7595", page.Entries[0].Barcode)

	w = do(r, http.MethodGet, "/api/v1/catalog?limit=-4", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetProduct(t *testing.T) {
	r := setupRouter(t, nil)
	require.Equal(t, http.StatusOK, process(t, r, nil).Code)

	w := do(r, http.MethodGet, "/api/v1/catalog/7595", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "OMEPRAZOL")

	w = do(r, http.MethodGet, "/api/v1/catalog/0000000", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAnalyticsAndGaps(t *testing.T) {
	r := setupRouter(t, nil)
	require.Equal(t, http.StatusOK, process(t, r, nil).Code)

	w := do(r, http.MethodGet, "/api/v1/analytics", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	analytics := decode[AnalyticsResponse](t, w)
	assert.Equal(t, types.SupplierDroactiva, analytics.Executive.GapTarget)
	assert.Equal(t, 1, analytics.Executive.GapCount)
	assert.Equal(t, types.SupplierDromarko, analytics.Executive.Summary.MostWins)

	w = do(r, http.MethodGet, "/api/v1/analytics?supplier=nobody", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodGet, "/api/v1/gaps/droactiva", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	gaps := decode[GapsResponse](t, w)
	assert.Equal(t, 1, gaps.Count)
	assert.Equal(t, 1, gaps.BySupplier[types.SupplierDromarko])
	assert.Equal(t, 4, gaps.Units[types.SupplierDromarko])
	require.Len(t, gaps.Entries, 1)
	assert.Equal(t, "7595", gaps.Entries[0].Barcode)

	w = do(r, http.MethodGet, "/api/v1/gaps/nobody", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSearch(t *testing.T) {
	r := setupRouter(t, nil)
	require.Equal(t, http.StatusOK, process(t, r, nil).Code)

	w := do(r, http.MethodGet, "/api/v1/search?q=omeprazol", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[SearchResponse](t, w)
	require.Len(t, resp.Entries, 1)
	assert.Equal(t, "7595", resp.Entries[0].Barcode)

	w = do(r, http.MethodGet, "/api/v1/search", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[SearchResponse](t, w).Entries)
}

func TestExport(t *testing.T) {
	r := setupRouter(t, nil)
	require.Equal(t, http.StatusOK, process(t, r, nil).Code)

	w := do(r, http.MethodGet, "/api/v1/export", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Disposition"), `attachment; filename="Analisis_Precio_`))

	wb, err := excelize.OpenReader(w.Body)
	require.NoError(t, err)
	defer wb.Close()
	title, err := wb.GetCellValue(report.SheetName, "A1")
	require.NoError(t, err)
	assert.Equal(t, report.Title, title)
}

func TestRates(t *testing.T) {
	r := setupRouter(t, stubRate(52.25))

	w := do(r, http.MethodPut, "/api/v1/settings/rate", bytes.NewBufferString(`{"exchange_rate": 45.5}`), "application/json")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 45.5, decode[SettingsResponse](t, w).Settings.ExchangeRate)

	w = do(r, http.MethodPut, "/api/v1/settings/rate", bytes.NewBufferString(`{"exchange_rate": 0}`), "application/json")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPost, "/api/v1/settings/rate/refresh", nil, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 52.25, decode[SettingsResponse](t, w).Settings.ExchangeRate)
}

func TestRefreshRateFailures(t *testing.T) {
	r := setupRouter(t, nil)
	w := do(r, http.MethodPost, "/api/v1/settings/rate/refresh", nil, "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	r = setupRouter(t, stubRate(0))
	w = do(r, http.MethodPost, "/api/v1/settings/rate/refresh", nil, "")
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "bank unreachable")
}

func TestLatestRun(t *testing.T) {
	r := setupRouter(t, nil)
	require.Equal(t, http.StatusOK, process(t, r, nil).Code)

	w := do(r, http.MethodGet, "/api/v1/runs/latest", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[map[string]any](t, w)
	assert.NotEmpty(t, resp["runId"])
	assert.Equal(t, float64(0), resp["failed"])
}

func TestListSuppliers(t *testing.T) {
	r := setupRouter(t, nil)

	w := do(r, http.MethodGet, "/api/v1/suppliers", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[struct {
		Suppliers []SupplierInfo `json:"suppliers"`
	}](t, w)
	require.Len(t, resp.Suppliers, len(types.SupplierIDs))
	assert.Equal(t, "365", resp.Suppliers[5].Label)
	assert.Equal(t, "#4285F4", resp.Suppliers[0].Color)
	assert.EqualValues(t, "VES", resp.Suppliers[3].Currency)
}

func TestFormFields(t *testing.T) {
	assert.Equal(t, []string{"p365", "365"}, formFields(types.SupplierP365))
	assert.Equal(t, []string{"nena"}, formFields(types.SupplierNena))
}

func TestNoSession(t *testing.T) {
	InitSession(nil)
	r := gin.New()
	r.GET("/health", HealthCheck)
	RegisterRoutes(r.Group("/api/v1"))

	assert.Equal(t, http.StatusServiceUnavailable, do(r, http.MethodGet, "/api/v1/catalog", nil, "").Code)
	w := do(r, http.MethodGet, "/health", nil, "")
	assert.Equal(t, "not configured", decode[HealthResponse](t, w).Session)
}
