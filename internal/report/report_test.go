package report

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/farmaintel/price-service/internal/catalog"
	"github.com/farmaintel/price-service/internal/engine"
	"github.com/farmaintel/price-service/internal/presentation"
	"github.com/farmaintel/price-service/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	eng := engine.New()
	err := eng.Process(engine.RawData{
		types.SupplierDroactiva: {
			types.NewSupplierRecord(types.SupplierDroactiva, "7591", "ZINC JARABE", 10, 0, 5),
			types.NewSupplierRecord(types.SupplierDroactiva, "7592", "acetaminofen 500mg", 4, 0, 0),
			types.NewSupplierRecord(types.SupplierDroactiva, "7593", "SOLO DROACTIVA", 2, 0, 1),
		},
		types.SupplierCobeca: {
			types.NewSupplierRecord(types.SupplierCobeca, "7591", "ZINC JARABE 120ML", 8, 0, 3),
			types.NewSupplierRecord(types.SupplierCobeca, "7592", "ACETAMINOFEN 500MG", 5, 0, 2),
		},
	}, 30, engine.JoinAnchorCentric)
	require.NoError(t, err)
	return eng.Catalog()
}

func TestBuild(t *testing.T) {
	generated := time.Date(2026, 3, 2, 14, 5, 0, 0, time.UTC)
	wb, err := Build(sampleCatalog(t), 51.3205, generated)
	require.NoError(t, err)
	defer wb.Close()

	get := func(cell string) string {
		v, err := wb.GetCellValue(SheetName, cell)
		require.NoError(t, err)
		return v
	}

	assert.Equal(t, Title, get("A1"))
	assert.Equal(t, "Tasa BCV: 51.3205", get("A2"))
	assert.Equal(t, "Generado: 02/03/2026 14:05", get("D2"))
	assert.Equal(t, "Código de Barras", get("A4"))
	assert.Equal(t, "Droactiva USD", get("D4"))
	assert.Equal(t, "Droactiva Stock", get("E4"))
	assert.Equal(t, "365 Stock", get("O4"))
	assert.Equal(t, "Mejor Precio", get("P4"))
	assert.Equal(t, "Margen USD", get("T4"))

	// Droactiva wins acetaminofen and the single-supplier row; Cobeca wins
	// zinc. Within Droactiva rows, descriptions sort case-insensitively.
	assert.Equal(t, "7592", get("A5"))
	assert.Equal(t, "7593", get("A6"))
	assert.Equal(t, "7591", get("A7"))
	assert.Equal(t, "Cobeca", get("Q7"))

	diff, err := wb.GetCellValue(SheetName, "R7", excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	assert.Equal(t, "0.25", diff)

	assert.Equal(t, "", get("R6"), "no diff without a runner-up")

	panes, err := wb.GetPanes(SheetName)
	require.NoError(t, err)
	assert.True(t, panes.Freeze)
	assert.Equal(t, 2, panes.XSplit)
	assert.Equal(t, 4, panes.YSplit)
}

func TestSupplierHeaderColors(t *testing.T) {
	wb, err := Build(sampleCatalog(t), 1, time.Now())
	require.NoError(t, err)
	defer wb.Close()

	for cell, id := range map[string]types.SupplierID{"D4": types.SupplierDroactiva, "H4": types.SupplierCobeca} {
		styleID, err := wb.GetCellStyle(SheetName, cell)
		require.NoError(t, err)
		style, err := wb.GetStyle(styleID)
		require.NoError(t, err)
		require.NotEmpty(t, style.Fill.Color, cell)
		assert.True(t, strings.HasSuffix(strings.ToUpper(style.Fill.Color[0]), presentation.Style(id).Color), cell)
	}
}

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleCatalog(t), 1, time.Now()))

	wb, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer wb.Close()
	assert.Equal(t, []string{SheetName}, wb.GetSheetList())
}

func TestExporter(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	x := NewExporter(dir)
	x.now = func() time.Time { return time.Date(2026, 3, 2, 9, 7, 0, 0, time.UTC) }

	path, err := x.Export(context.Background(), sampleCatalog(t), 40)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "Analisis_Precio_20260302_0907.xlsx"), path)

	_, err = os.Stat(path)
	assert.NoError(t, err)
}
