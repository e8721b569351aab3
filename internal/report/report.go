// Package report writes the consolidated catalog to a styled XLSX workbook.
package report

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/farmaintel/price-service/internal/adapters/config"
	"github.com/farmaintel/price-service/internal/catalog"
	"github.com/farmaintel/price-service/internal/parsers/fields"
	"github.com/farmaintel/price-service/internal/presentation"
	"github.com/farmaintel/price-service/internal/types"
	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"
)

const (
	SheetName = "Análisis de Precio"
	Title     = "ANÁLISIS COMPARATIVO DE PRECIOS - DROGUERÍAS"

	titleRow  = 1
	infoRow   = 2
	headerRow = 4

	numFmtMoney   = 4  // #,##0.00
	numFmtPercent = 10 // 0.00%
)

var (
	baseHeaders      = []string{"Código de Barras", "Descripción", "# Proveedores"}
	analyticsHeaders = []string{"Mejor Precio", "Droguería Ganadora", "DIF %", "P. Venta Simulado", "Margen USD"}
)

// Filename returns the report file name for a generation time
func Filename(t time.Time) string {
	return "Analisis_Precio_" + t.Format("20060102_1504") + ".xlsx"
}

// Exporter writes reports into a directory
type Exporter struct {
	dir string
	now func() time.Time
}

// NewExporter creates an exporter writing into dir
func NewExporter(dir string) *Exporter {
	return &Exporter{dir: dir, now: time.Now}
}

// Export writes the catalog to a new file in the exporter directory and
// returns its path
func (x *Exporter) Export(ctx context.Context, c *catalog.Catalog, rate float64) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(x.dir, 0o755); err != nil {
		return "", fmt.Errorf("create report directory %s: %w", x.dir, err)
	}

	generated := x.now()
	wb, err := Build(c, rate, generated)
	if err != nil {
		return "", err
	}
	defer wb.Close()

	path := filepath.Join(x.dir, Filename(generated))
	if err := wb.SaveAs(path); err != nil {
		return "", fmt.Errorf("save report %s: %w", path, err)
	}

	log.Info().Str("path", path).Int("products", c.Len()).Msg("Report exported")
	return path, nil
}

// Write streams the report for c to w
func Write(w io.Writer, c *catalog.Catalog, rate float64, generated time.Time) error {
	wb, err := Build(c, rate, generated)
	if err != nil {
		return err
	}
	defer wb.Close()

	if _, err := wb.WriteTo(w); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

type styles struct {
	title, header, winner, price, percent, text int
	// supplierHeader is filled with each supplier's display color
	supplierHeader map[types.SupplierID]int
}

// Build renders the catalog into a new workbook. The caller closes it.
func Build(c *catalog.Catalog, rate float64, generated time.Time) (*excelize.File, error) {
	wb := excelize.NewFile()
	if err := wb.SetSheetName(wb.GetSheetName(0), SheetName); err != nil {
		wb.Close()
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	st, err := newStyles(wb)
	if err != nil {
		wb.Close()
		return nil, err
	}

	w := &sheetWriter{wb: wb}
	suppliers := types.SupplierIDs
	lastCol := len(baseHeaders) + 2*len(suppliers) + len(analyticsHeaders)

	w.set(1, titleRow, Title, st.title)
	w.merge(1, titleRow, len(baseHeaders)+2+2*len(suppliers), titleRow)
	w.set(1, infoRow, fmt.Sprintf("Tasa BCV: %.4f", rate), 0)
	w.set(4, infoRow, "Generado: "+generated.Format("02/01/2006 15:04"), 0)

	col := 1
	for _, h := range baseHeaders {
		w.set(col, headerRow, h, st.header)
		col++
	}
	for _, s := range suppliers {
		label := presentation.Style(s).Label
		w.set(col, headerRow, label+" USD", st.supplierHeader[s])
		w.set(col+1, headerRow, label+" Stock", st.supplierHeader[s])
		col += 2
	}
	for _, h := range analyticsHeaders {
		w.set(col, headerRow, h, st.header)
		col++
	}

	row := headerRow + 1
	for _, e := range sortedEntries(c) {
		w.writeEntry(row, e, suppliers, st)
		row++
	}

	if w.err != nil {
		wb.Close()
		return nil, fmt.Errorf("write report cells: %w", w.err)
	}

	if err := layout(wb, lastCol); err != nil {
		wb.Close()
		return nil, err
	}
	return wb, nil
}

func (w *sheetWriter) writeEntry(row int, e *catalog.Entry, suppliers []types.SupplierID, st styles) {
	w.set(1, row, e.Barcode(), st.text)
	w.set(2, row, e.Description(), st.text)
	w.set(3, row, e.SupplierCount(), 0)

	col := len(baseHeaders) + 1
	for _, s := range suppliers {
		if price := e.NetPriceFor(s); price > 0 {
			style := st.price
			if s == e.Winner() {
				style = st.winner
			}
			w.set(col, row, fields.Round2(price), style)
		}
		if stock := e.StockFor(s); stock > 0 {
			w.set(col+1, row, stock, 0)
		}
		col += 2
	}

	if e.BestPrice() > 0 {
		w.set(col, row, fields.Round2(e.BestPrice()), st.winner)
	}
	if e.HasWinner() {
		w.set(col+1, row, config.Label(e.Winner()), 0)
	}
	if e.DiffPct() > 0 {
		w.set(col+2, row, e.DiffPct()/100, st.percent)
	}
	if e.SimulatedSalePrice() > 0 {
		w.set(col+3, row, fields.Round2(e.SimulatedSalePrice()), st.price)
	}
	if e.SimulatedMargin() > 0 {
		w.set(col+4, row, fields.Round2(e.SimulatedMargin()), st.price)
	}
}

// sortedEntries orders rows by winning supplier (declaration order, rows
// without a winner last) then by description ignoring case
func sortedEntries(c *catalog.Catalog) []*catalog.Entry {
	entries := c.Entries()
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if oa, ob := winnerOrder(a), winnerOrder(b); oa != ob {
			return oa < ob
		}
		da, db := strings.ToLower(a.Description()), strings.ToLower(b.Description())
		if da != db {
			return da < db
		}
		return a.Barcode() < b.Barcode()
	})
	return entries
}

func winnerOrder(e *catalog.Entry) int {
	if !e.HasWinner() {
		return len(types.SupplierIDs) + 1
	}
	return e.Winner().Order()
}

func layout(wb *excelize.File, lastCol int) error {
	widths := map[int]float64{1: 18, 2: 48, 3: 13}
	for col := 1; col <= lastCol; col++ {
		width, ok := widths[col]
		if !ok {
			width = 14
		}
		name, err := excelize.ColumnNumberToName(col)
		if err != nil {
			return err
		}
		if err := wb.SetColWidth(SheetName, name, name, width); err != nil {
			return fmt.Errorf("set column width: %w", err)
		}
	}

	return wb.SetPanes(SheetName, &excelize.Panes{
		Freeze:      true,
		XSplit:      2,
		YSplit:      headerRow,
		TopLeftCell: cellName(3, headerRow+1),
		ActivePane:  "bottomRight",
	})
}

func newStyles(wb *excelize.File) (styles, error) {
	var st styles
	defs := []struct {
		dst   *int
		style *excelize.Style
	}{
		{&st.title, &excelize.Style{
			Font: &excelize.Font{Bold: true, Size: 14, Color: "FFFFFF"},
			Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"1E2128"}},
		}},
		{&st.header, &excelize.Style{
			Font:      &excelize.Font{Bold: true, Size: 11, Color: "FFFFFF"},
			Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"212529"}},
			Border:    []excelize.Border{{Type: "bottom", Color: "000000", Style: 1}},
			Alignment: &excelize.Alignment{Horizontal: "center"},
		}},
		{&st.winner, &excelize.Style{
			Font:   &excelize.Font{Bold: true, Color: "FFFFFF"},
			Fill:   excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"27AE60"}},
			NumFmt: numFmtMoney,
		}},
		{&st.price, &excelize.Style{NumFmt: numFmtMoney}},
		{&st.percent, &excelize.Style{NumFmt: numFmtPercent}},
		{&st.text, &excelize.Style{Alignment: &excelize.Alignment{Horizontal: "left"}}},
	}
	for _, d := range defs {
		id, err := wb.NewStyle(d.style)
		if err != nil {
			return st, fmt.Errorf("create style: %w", err)
		}
		*d.dst = id
	}

	st.supplierHeader = make(map[types.SupplierID]int, len(types.SupplierIDs))
	for _, s := range types.SupplierIDs {
		id, err := wb.NewStyle(&excelize.Style{
			Font:      &excelize.Font{Bold: true, Size: 10, Color: "FFFFFF"},
			Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{presentation.Style(s).Color}},
			Alignment: &excelize.Alignment{Horizontal: "center"},
		})
		if err != nil {
			return st, fmt.Errorf("create %s header style: %w", s, err)
		}
		st.supplierHeader[s] = id
	}
	return st, nil
}

// sheetWriter keeps the first error so cell writes can be chained
type sheetWriter struct {
	wb  *excelize.File
	err error
}

func (w *sheetWriter) set(col, row int, value any, style int) {
	if w.err != nil {
		return
	}
	cell := cellName(col, row)
	if w.err = w.wb.SetCellValue(SheetName, cell, value); w.err != nil {
		return
	}
	if style != 0 {
		w.err = w.wb.SetCellStyle(SheetName, cell, cell, style)
	}
}

func (w *sheetWriter) merge(fromCol, fromRow, toCol, toRow int) {
	if w.err != nil {
		return
	}
	w.err = w.wb.MergeCell(SheetName, cellName(fromCol, fromRow), cellName(toCol, toRow))
}

func cellName(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}
