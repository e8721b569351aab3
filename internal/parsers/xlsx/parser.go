package xlsx

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"
)

// Parser opens workbooks and exposes one worksheet as a grid
type Parser struct {
	options XlsxParserOptions
}

// NewParser creates a new XLSX parser
func NewParser(options XlsxParserOptions) *Parser {
	return &Parser{
		options: options,
	}
}

// Sheet is a worksheet read with raw (unformatted) cell values. It keeps
// the workbook open for cell type lookups; call Close when done.
type Sheet struct {
	Name string
	file *excelize.File
	rows [][]string
}

// Open reads the selected worksheet from content
func (p *Parser) Open(content []byte) (*Sheet, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}

	sheetName, err := p.selectSheet(f)
	if err != nil {
		f.Close()
		return nil, err
	}

	rows, err := f.GetRows(sheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to read worksheet %q: %w", sheetName, err)
	}

	log.Debug().Str("sheet", sheetName).Int("rows", len(rows)).Msg("Opened worksheet")

	return &Sheet{Name: sheetName, file: f, rows: rows}, nil
}

func (p *Parser) selectSheet(f *excelize.File) (string, error) {
	sheetList := f.GetSheetList()
	if len(sheetList) == 0 {
		return "", fmt.Errorf("workbook has no sheets")
	}

	if p.options.SheetNameOrIndex == nil {
		return sheetList[0], nil
	}

	switch v := p.options.SheetNameOrIndex.(type) {
	case int:
		if v < 0 || v >= len(sheetList) {
			return "", fmt.Errorf("sheet index %d not found. Workbook has %d sheets", v, len(sheetList))
		}
		return sheetList[v], nil
	case string:
		for _, name := range sheetList {
			if name == v {
				return name, nil
			}
		}
		return "", fmt.Errorf("sheet %q not found. Available sheets: %s", v, strings.Join(sheetList, ", "))
	default:
		return sheetList[0], nil
	}
}

// Close releases the workbook
func (s *Sheet) Close() error {
	if s.file == nil {
		return nil
	}
	return s.file.Close()
}

// NumRows returns the number of rows up to the last non-empty one
func (s *Sheet) NumRows() int {
	return len(s.rows)
}

// Width returns the number of cells in a row
func (s *Sheet) Width(row int) int {
	if row < 0 || row >= len(s.rows) {
		return 0
	}
	return len(s.rows[row])
}

// Row returns the cells of a row
func (s *Sheet) Row(row int) []string {
	if row < 0 || row >= len(s.rows) {
		return nil
	}
	return s.rows[row]
}

// Text returns a cell as text. Numbers stored in exponent form are
// expanded so that long barcodes keep all their digits.
func (s *Sheet) Text(row, col int) string {
	if row < 0 || row >= len(s.rows) || col < 0 || col >= len(s.rows[row]) {
		return ""
	}
	return numberText(s.rows[row][col])
}

// Number returns the cell value when the cell is a numeric cell. Text
// cells that merely look like numbers do not count.
func (s *Sheet) Number(row, col int) (float64, bool) {
	text := strings.TrimSpace(s.Text(row, col))
	if text == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	if s.file == nil {
		return v, true
	}
	axis, err := excelize.CoordinatesToCellName(col+1, row+1)
	if err != nil {
		return 0, false
	}
	cellType, err := s.file.GetCellType(s.Name, axis)
	if err != nil {
		return 0, false
	}
	switch cellType {
	case excelize.CellTypeUnset, excelize.CellTypeNumber:
		return v, true
	}
	return 0, false
}

// numberText rewrites exponent notation ("7.591234567890E+12") as plain
// digits; other values are returned unchanged.
func numberText(raw string) string {
	if !strings.ContainsAny(raw, "eE") {
		return raw
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return raw
	}
	if v == math.Trunc(v) && math.Abs(v) < 1e18 {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
