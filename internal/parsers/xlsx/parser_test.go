package xlsx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func buildWorkbook(t *testing.T, sheets map[string][][]interface{}, order ...string) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	for i, name := range order {
		if i == 0 {
			require.NoError(t, f.SetSheetName("Sheet1", name))
		} else {
			_, err := f.NewSheet(name)
			require.NoError(t, err)
		}
		for r, row := range sheets[name] {
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			require.NoError(t, err)
			require.NoError(t, f.SetSheetRow(name, cell, &row))
		}
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestParser_OpenFirstSheet(t *testing.T) {
	content := buildWorkbook(t, map[string][][]interface{}{
		"Lista": {
			{"Código Barra", "Producto", "Precio"},
			{"7591234567890", "ACETAMINOFEN", 12.5},
			{7591234567891, "IBUPROFENO", "13,75"},
		},
		"Otra": {{"x"}},
	}, "Lista", "Otra")

	sheet, err := NewParser(DefaultOptions()).Open(content)
	require.NoError(t, err)
	defer sheet.Close()

	assert.Equal(t, "Lista", sheet.Name)
	assert.Equal(t, 3, sheet.NumRows())
	assert.Equal(t, 3, sheet.Width(0))
	assert.Equal(t, "Código Barra", sheet.Text(0, 0))
	assert.Equal(t, "7591234567891", sheet.Text(2, 0))
	assert.Equal(t, "", sheet.Text(9, 9))

	v, ok := sheet.Number(1, 2)
	assert.True(t, ok)
	assert.Equal(t, 12.5, v)

	_, ok = sheet.Number(1, 0)
	assert.False(t, ok, "barcode stored as text is not numeric")

	_, ok = sheet.Number(2, 2)
	assert.False(t, ok, "comma decimal text is not numeric")
}

func TestParser_SelectSheet(t *testing.T) {
	content := buildWorkbook(t, map[string][][]interface{}{
		"A": {{"a"}},
		"B": {{"b"}},
	}, "A", "B")

	sheet, err := NewParser(XlsxParserOptions{SheetNameOrIndex: "B"}).Open(content)
	require.NoError(t, err)
	assert.Equal(t, "b", sheet.Text(0, 0))
	require.NoError(t, sheet.Close())

	sheet, err = NewParser(XlsxParserOptions{SheetNameOrIndex: 1}).Open(content)
	require.NoError(t, err)
	assert.Equal(t, "B", sheet.Name)
	require.NoError(t, sheet.Close())

	_, err = NewParser(XlsxParserOptions{SheetNameOrIndex: 5}).Open(content)
	assert.Error(t, err)

	_, err = NewParser(XlsxParserOptions{SheetNameOrIndex: "Z"}).Open(content)
	assert.Error(t, err)
}

func TestParser_OpenInvalidContent(t *testing.T) {
	_, err := NewParser(DefaultOptions()).Open([]byte("not a workbook"))
	assert.Error(t, err)
}

func TestNumberText(t *testing.T) {
	assert.Equal(t, "7591234567890", numberText("7.59123456789E+12"))
	assert.Equal(t, "0.015", numberText("1.5E-2"))
	assert.Equal(t, "Precio Especial", numberText("Precio Especial"))
	assert.Equal(t, "12.5", numberText("12.5"))
}
