package pipeline

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/farmaintel/price-service/internal/adapters/registry"
	"github.com/farmaintel/price-service/internal/catalog"
	"github.com/farmaintel/price-service/internal/engine"
	"github.com/farmaintel/price-service/internal/report"
	"github.com/farmaintel/price-service/internal/storage"
	"github.com/farmaintel/price-service/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const droactivaCSV = "DESCRIPCION;BARRA;PRECIO(USD);EXISTENCIA;IVA;DA(%)\n" +
	"AMOXICILINA 500MG;7591;2,50;10;0;0\n" +
	"LORATADINA 10MG;7592;1,00;0;0;0\n"

func f24Sheet(t *testing.T) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	rows := [][]interface{}{
		{"FARMACIA 24"},
		{"C. Barra", "Descripción", "Precio Mayor Bs", "PROMO %", "OFERTA %", "DA %", "Existencia"},
		{"7591", "AMOXICILINA 500 MG CAPS", 100, "5%", "3", "2,5", 7},
		{"7599", "SOLO F24", 50, "", "", "", 2},
	}
	for r, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, r+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

type recorder struct {
	mu       sync.Mutex
	progress []int
	errors   map[string]string
	complete *Result
}

func newRecorder() *recorder {
	return &recorder{errors: map[string]string{}}
}

func (r *recorder) OnProgress(message string, pct int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.progress = append(r.progress, pct)
}

func (r *recorder) OnError(stage, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors[stage] = message
}

func (r *recorder) OnComplete(result *Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.complete = result
}

type fixedRate struct {
	rate float64
	err  error
}

func (f fixedRate) FetchRate(ctx context.Context) (float64, error) {
	return f.rate, f.err
}

type fakeExporter struct {
	calls int
	rate  float64
	panic bool
}

func (x *fakeExporter) Export(ctx context.Context, c *catalog.Catalog, rate float64) (string, error) {
	if x.panic {
		panic("disk on fire")
	}
	x.calls++
	x.rate = rate
	return "/tmp/report.xlsx", nil
}

type panicParser struct{}

func (panicParser) Supplier() types.SupplierID       { return types.SupplierCobeca }
func (panicParser) Name() string                     { return "Cobeca" }
func (panicParser) SupportedTypes() []types.FileType { return []types.FileType{types.FileTypeXLSX} }
func (panicParser) AcceptsFile(filename string) bool { return true }
func (panicParser) Parse(content []byte, filename string) (*types.ParseResult, error) {
	panic("index out of range")
}

func TestRunFullPass(t *testing.T) {
	exporter := &fakeExporter{}
	o := New(
		WithRegistry(registry.NewRegistry()),
		WithRateSource(fixedRate{rate: 50}),
		WithExporter(exporter),
	)
	rec := newRecorder()

	settings := DefaultSettings()
	settings.FetchRate = true
	settings.Export = true

	result, err := o.Run(context.Background(), map[types.SupplierID]Source{
		types.SupplierF24:       {Filename: "f24.xlsx", Content: f24Sheet(t)},
		types.SupplierDroactiva: {Filename: "droactiva.csv", Content: []byte(droactivaCSV)},
	}, settings, rec)
	require.NoError(t, err)

	assert.Equal(t, []int{5, 10, 40, 70, 75, 85, 90, 100}, rec.progress)
	assert.Empty(t, rec.errors)
	require.NotNil(t, rec.complete)
	assert.Same(t, result, rec.complete)

	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, 50.0, result.Settings.ExchangeRate)
	assert.Equal(t, 2, result.Converted)
	assert.Equal(t, "/tmp/report.xlsx", result.ReportPath)
	assert.Equal(t, 1, exporter.calls)
	assert.Equal(t, 50.0, exporter.rate)

	require.Len(t, result.Reports, 2)
	assert.Equal(t, types.SupplierDroactiva, result.Reports[0].Supplier)
	assert.Equal(t, 2, result.Reports[0].Records)
	assert.Equal(t, types.SupplierF24, result.Reports[1].Supplier)

	eng := result.Engine
	assert.Equal(t, engine.StateSimulated, eng.State())
	assert.Equal(t, 2, eng.Catalog().Len(), "anchor catalog keeps Droactiva barcodes only")
	assert.Equal(t, 3, eng.Universal().Len())

	entry, ok := eng.Catalog().Get("7591")
	require.True(t, ok)
	// 100 Bs / 50 = 2 USD, minus 10.5% additive offer
	assert.InDelta(t, 1.79, entry.NetPriceFor(types.SupplierF24), 1e-9)
	assert.Equal(t, types.SupplierF24, entry.Winner())
	assert.Equal(t, "AMOXICILINA 500 MG CAPS", entry.Description())
	assert.InDelta(t, 1.79*1.3, entry.SimulatedSalePrice(), 1e-9)
}

func TestRunRateFailureWithUnusableRate(t *testing.T) {
	o := New(WithRegistry(registry.NewRegistry()), WithRateSource(fixedRate{err: errors.New("timeout")}))
	rec := newRecorder()

	settings := DefaultSettings()
	settings.FetchRate = true

	result, err := o.Run(context.Background(), map[types.SupplierID]Source{
		types.SupplierF24: {Filename: "f24.xlsx", Content: f24Sheet(t)},
	}, settings, rec)
	require.NoError(t, err)

	assert.Contains(t, rec.errors, StageRate)
	assert.NotContains(t, rec.errors, StageGeneral)
	assert.Equal(t, 0, result.Converted)
	assert.Equal(t, []int{5, 10, 70, 75, 85, 100}, rec.progress)
}

func TestRunRateFailureKeepsUsableRate(t *testing.T) {
	o := New(WithRegistry(registry.NewRegistry()), WithRateSource(fixedRate{err: errors.New("timeout")}))
	rec := newRecorder()

	settings := DefaultSettings().WithExchangeRate(40)
	settings.FetchRate = true

	result, err := o.Run(context.Background(), map[types.SupplierID]Source{
		types.SupplierF24: {Filename: "f24.xlsx", Content: f24Sheet(t)},
	}, settings, rec)
	require.NoError(t, err)

	assert.Empty(t, rec.errors)
	assert.Equal(t, 40.0, result.Settings.ExchangeRate)
	assert.Equal(t, 2, result.Converted)
}

func TestRunSupplierFailureIsNotFatal(t *testing.T) {
	reg := registry.NewRegistry()
	reg.Register(types.SupplierCobeca, panicParser{})
	o := New(WithRegistry(reg))
	rec := newRecorder()

	result, err := o.Run(context.Background(), map[types.SupplierID]Source{
		types.SupplierDroactiva: {Filename: "droactiva.csv", Content: []byte(droactivaCSV)},
		types.SupplierCobeca:    {Filename: "cobeca.xlsx", Content: []byte("not a workbook")},
		types.SupplierNena:      {Filename: "nena.xlsx"},
	}, DefaultSettings(), rec)
	require.NoError(t, err)

	assert.Contains(t, rec.errors["Cobeca"], "panicked")
	assert.Equal(t, "empty file", rec.errors["Nena"])
	assert.NotContains(t, rec.errors, StageGeneral)
	require.NotNil(t, rec.complete)
	assert.Len(t, result.Failed(), 2)
	assert.Equal(t, 2, result.Engine.Catalog().Len())
}

func TestRunHeaderFailureReported(t *testing.T) {
	o := New(WithRegistry(registry.NewRegistry()))
	rec := newRecorder()

	_, err := o.Run(context.Background(), map[types.SupplierID]Source{
		types.SupplierDromarko: {Filename: "dromarko.csv", Content: []byte("FOO;BAR\n1;2\n")},
	}, DefaultSettings(), rec)

	assert.ErrorIs(t, err, ErrNoSupplierData)
	assert.Contains(t, rec.errors["Dromarko"], "BARRA")
	assert.Contains(t, rec.errors, StageGeneral)
	assert.Nil(t, rec.complete)
}

func TestRunAllRowsSkippedFails(t *testing.T) {
	o := New(WithRegistry(registry.NewRegistry()))
	rec := newRecorder()

	csv := "DESCRIPCION;BARRA;PRECIO(USD);EXISTENCIA;IVA;DA(%)\n" +
		"SIN BARRA;;2,50;10;0;0\n" +
		"SIN PRECIO;7591;0;10;0;0\n"
	_, err := o.Run(context.Background(), map[types.SupplierID]Source{
		types.SupplierDroactiva: {Filename: "droactiva.csv", Content: []byte(csv)},
	}, DefaultSettings(), rec)

	assert.ErrorIs(t, err, ErrNoSupplierData)
	assert.Contains(t, rec.errors["Droactiva"], "no valid price rows")
	assert.Contains(t, rec.errors, StageGeneral)
	assert.Nil(t, rec.complete)
}

func TestRunSkipsSupplierWithoutRecords(t *testing.T) {
	o := New(WithRegistry(registry.NewRegistry()))
	rec := newRecorder()

	empty := "DESCRIPCION;BARRA;PRECIO(USD);NETO(USD);EXISTENCIA;IVA;DA(%)\n" +
		"SIN PRECIO;7591;0;0;4;0;0\n"
	result, err := o.Run(context.Background(), map[types.SupplierID]Source{
		types.SupplierDroactiva: {Filename: "droactiva.csv", Content: []byte(droactivaCSV)},
		types.SupplierDromarko:  {Filename: "dromarko.csv", Content: []byte(empty)},
	}, DefaultSettings(), rec)
	require.NoError(t, err)

	assert.Contains(t, rec.errors["Dromarko"], "no valid price rows")
	require.Len(t, result.Failed(), 1)
	assert.Equal(t, types.SupplierDromarko, result.Failed()[0].Supplier)
	assert.NotContains(t, result.Engine.Raw(), types.SupplierDromarko)
}

func TestRunPanicIsFatal(t *testing.T) {
	o := New(WithRegistry(registry.NewRegistry()), WithExporter(&fakeExporter{panic: true}))
	rec := newRecorder()

	settings := DefaultSettings()
	settings.Export = true

	result, err := o.Run(context.Background(), map[types.SupplierID]Source{
		types.SupplierDroactiva: {Filename: "droactiva.csv", Content: []byte(droactivaCSV)},
	}, settings, rec)

	require.Error(t, err)
	assert.Nil(t, result)
	assert.Contains(t, rec.errors[StageGeneral], "disk on fire")
	assert.Nil(t, rec.complete)
}

func TestRunInvalidSettings(t *testing.T) {
	o := New(WithRegistry(registry.NewRegistry()))
	rec := newRecorder()

	settings := DefaultSettings().WithJoinStrategy("sideways")
	_, err := o.Run(context.Background(), map[types.SupplierID]Source{
		types.SupplierDroactiva: {Filename: "droactiva.csv", Content: []byte(droactivaCSV)},
	}, settings, rec)

	require.Error(t, err)
	assert.Contains(t, rec.errors, StageGeneral)
}

func TestRunExpandsZipAndArchives(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("listas/DROACTIVA.csv")
	require.NoError(t, err)
	_, err = w.Write([]byte(droactivaCSV))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	o := New(WithRegistry(registry.NewRegistry()), WithStorage(store))

	result, err := o.Run(context.Background(), map[types.SupplierID]Source{
		types.SupplierDroactiva: {Filename: "droactiva.zip", Content: buf.Bytes()},
	}, DefaultSettings(), nil)
	require.NoError(t, err)

	assert.Equal(t, "DROACTIVA.csv", result.Reports[0].Filename)
	assert.Equal(t, 2, result.Engine.Catalog().Len())

	uploads, err := store.List(context.Background(), "uploads/")
	require.NoError(t, err)
	assert.Len(t, uploads, 1)
	expanded, err := store.List(context.Background(), "expanded/")
	require.NoError(t, err)
	assert.Len(t, expanded, 1)
}

func TestRunArchivesExportedReport(t *testing.T) {
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	o := New(
		WithRegistry(registry.NewRegistry()),
		WithStorage(store),
		WithExporter(report.NewExporter(t.TempDir())),
	)

	settings := DefaultSettings()
	settings.Export = true
	result, err := o.Run(context.Background(), map[types.SupplierID]Source{
		types.SupplierDroactiva: {Filename: "droactiva.csv", Content: []byte(droactivaCSV)},
	}, settings, nil)
	require.NoError(t, err)
	require.NotEmpty(t, result.ReportPath)

	reports, err := store.List(context.Background(), "reports/")
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Contains(t, reports[0], result.RunID)
}

func TestSettingsSnapshots(t *testing.T) {
	base := DefaultSettings()
	changed := base.WithExchangeRate(45).WithMargin(20).WithJoinStrategy(engine.JoinFullOuter)

	assert.Equal(t, 1.0, base.ExchangeRate)
	assert.Equal(t, 30.0, base.MarginPct)
	assert.Equal(t, 45.0, changed.ExchangeRate)
	assert.Equal(t, 20.0, changed.MarginPct)
	assert.Equal(t, engine.JoinFullOuter, changed.JoinStrategy)

	assert.Error(t, base.WithMargin(-1).Validate())
	assert.NoError(t, changed.Validate())
}
