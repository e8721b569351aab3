package fields

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanBarcode(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"Plain EAN-13", "7591234567890", "7591234567890"},
		{"Strip hyphens and spaces", " 759-123 456 7890 ", "7591234567890"},
		{"Strip leading zeros on long numeric", "007591234567", "7591234567"},
		{"Keep zeros on short numeric", "00123", "00123"},
		{"Keep all-zero code", "000000", "000000"},
		{"Keep all-zero code with separators", "000-0000", "0000000"},
		{"Keep zeros on alphanumeric", "00ABC1234", "00ABC1234"},
		{"Scientific noise stripped", "7.59123E+12", "759123E12"},
		{"Empty", "", ""},
		{"Only punctuation", " -/. ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CleanBarcode(tt.input))
		})
	}
}

func TestCleanBarcode_Idempotent(t *testing.T) {
	inputs := []string{
		"0000001234567", "000000", "0000012", "00ABC", "7591234567890",
		" 0-0-0-1-2-3-4-5-6 ", "000000000001", "ABC-000123", "",
	}
	for _, in := range inputs {
		once := CleanBarcode(in)
		assert.Equal(t, once, CleanBarcode(once), "input %q", in)
	}
}

func TestParseLocaleDecimal(t *testing.T) {
	tests := []struct {
		input    string
		expected float64
	}{
		{"1.351,75", 1351.75},
		{"1,351.75", 1351.75},
		{"7,94", 7.94},
		{"7,9", 7.9},
		{"3.39", 3.39},
		{"1,000", 1000},
		{"12,345,678", 12345678},
		{"| 12,50 |", 12.5},
		{"1 351,75", 1351.75},
		{"12,", 12},
		{"-", 0},
		{"", 0},
		{"   ", 0},
		{"abc", 0},
		{"NaN", 0},
		{"1.2.3", 0},
		{"-4,5", -4.5},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.InDelta(t, tt.expected, ParseLocaleDecimal(tt.input), 1e-9)
		})
	}
}

func TestParseRate(t *testing.T) {
	assert.InDelta(t, 36.5123, ParseRate(" 36,51230000 "), 1e-9)
	assert.InDelta(t, 1234.56, ParseRate("Bs. 1.234,56"), 1e-9)
	assert.InDelta(t, 40.1, ParseRate("40.10"), 1e-9)
	assert.InDelta(t, 36.512, ParseRate("36,512"), 1e-9)
	assert.Zero(t, ParseRate("n/a"))
}

func TestParseStock(t *testing.T) {
	tests := []struct {
		input    string
		expected int
	}{
		{"25", 25},
		{" 1.200 ", 1200},
		{"-3", -3},
		{"10 und", 10},
		{"", 0},
		{"-", 0},
		{"sin stock", 0},
		{"1-2", 0},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseStock(tt.input))
		})
	}
}

func TestCleanDescription(t *testing.T) {
	assert.Equal(t, "ACETAMINOFEN 500MG X 10 TAB", CleanDescription("  ACETAMINOFEN   500MG\tX 10\n TAB "))
	assert.Equal(t, "", CleanDescription("   "))
	assert.Equal(t, "null", CleanDescription(" null "))
}

func TestIsValidDescription(t *testing.T) {
	assert.True(t, IsValidDescription("Dolex 500mg"))
	assert.False(t, IsValidDescription(""))
	assert.False(t, IsValidDescription("  "))
	assert.False(t, IsValidDescription("TRUE"))
	assert.False(t, IsValidDescription("false"))
	assert.False(t, IsValidDescription(" Null "))
}

func TestFoldHeader(t *testing.T) {
	assert.Equal(t, "descripcion", FoldHeader(" Descripción "))
	assert.Equal(t, "codigo barra", FoldHeader("CÓDIGO BARRA"))
	assert.Equal(t, "pais", FoldHeader("PAÍS"))
	assert.Equal(t, "precio mayor (bs)", FoldHeader("Precio Mayor (Bs)"))
}

func TestParsePercentText(t *testing.T) {
	tests := []struct {
		input    string
		expected float64
	}{
		{"Dcto. nena del 7,00%", 7},
		{"Promo 12.5 %", 12.5},
		{"15", 15},
		{"4,5", 4.5},
		{"150", 0},
		{"sin descuento", 0},
		{"", 0},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.InDelta(t, tt.expected, ParsePercentText(tt.input), 1e-9)
		})
	}
}

func TestParsePercentCell(t *testing.T) {
	assert.InDelta(t, 5.0, ParsePercentCell("5%"), 1e-9)
	assert.InDelta(t, 2.5, ParsePercentCell(" 2,50 % "), 1e-9)
	assert.Zero(t, ParsePercentCell(""))
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 13.0, Round2(12.999))
	assert.Equal(t, 1.24, Round2(1.235))
	assert.Equal(t, 0.0, Round2(0))
}
