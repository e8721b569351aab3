package csv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParser_Parse(t *testing.T) {
	content := []byte("DESCRIPCION;BARRA;PRECIO(USD)\r\n ACETAMINOFEN 500MG ; 7591234567890 ;1,25\r\n\r\n\"IBUPROFENO; 400\";7590000000001;2,10\r\n")

	rows, err := NewParser(DefaultOptions()).Parse(content)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"DESCRIPCION", "BARRA", "PRECIO(USD)"}, []string(rows[0]))
	assert.Equal(t, []string{"ACETAMINOFEN 500MG", "7591234567890", "1,25"}, []string(rows[1]))
	assert.Empty(t, rows[2])
	assert.Equal(t, "IBUPROFENO; 400", rows[3][0])
}

func TestParser_DetectsEncodingAndDelimiter(t *testing.T) {
	content := []byte("DESCRIPCI\xD3N;BARRA\nJARABE;123\nGOTAS;456\n")

	rows, err := NewParser(CsvParserOptions{}).Parse(content)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "DESCRIPCIÓN", rows[0][0])
	assert.Equal(t, "456", rows[2][1])
}

func TestDetectDelimiter(t *testing.T) {
	assert.Equal(t, DelimiterSemicolon, DetectDelimiter("a;b;c\n1;2;3\n"))
	assert.Equal(t, DelimiterComma, DetectDelimiter("a,b,c\n1,2,3\n"))
	assert.Equal(t, DelimiterTab, DetectDelimiter("a\tb\n1\t2\n"))
	assert.Equal(t, DelimiterSemicolon, DetectDelimiter(""))
}

func TestSplitCSVLine(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		expected []string
	}{
		{"plain", "a;b;c", []string{"a", "b", "c"}},
		{"empty fields", "a;;c;", []string{"a", "", "c", ""}},
		{"quoted delimiter", `"a;b";c`, []string{"a;b", "c"}},
		{"escaped quote", `"say ""hi""";x`, []string{`say "hi"`, "x"}},
		{"literal inch mark", `GASA 5" X 5";12`, []string{`GASA 5" X 5"`, "12"}},
		{"utf8", "ñandú;é", []string{"ñandú", "é"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SplitCSVLine(tt.line, ';', '"'))
		})
	}
}

func TestIsEmptyRow(t *testing.T) {
	assert.True(t, IsEmptyRow(nil))
	assert.True(t, IsEmptyRow([]string{"", "  "}))
	assert.False(t, IsEmptyRow([]string{"", "x"}))
}
