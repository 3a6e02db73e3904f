package converter

import (
	"bytes"
	"strings"
	"testing"

	"github.com/nconklindev/bulkmap/internal/mapping"
	"github.com/nconklindev/bulkmap/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func exportAndOpen(t *testing.T, res *types.ResultTable, opts ExportOptions) *excelize.File {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, Export(&buf, res, opts))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })

	return f
}

func numFmtOf(t *testing.T, f *excelize.File, sheet, cell string) int {
	t.Helper()

	styleID, err := f.GetCellStyle(sheet, cell)
	require.NoError(t, err)

	style, err := f.GetStyle(styleID)
	require.NoError(t, err)

	return style.NumFmt
}

func TestExportFormatsAndLayout(t *testing.T) {
	res := &types.ResultTable{
		Headers: []string{"판매\n코드", "Price", "Memo"},
		Formats: []mapping.DisplayFormat{mapping.FormatText, mapping.FormatNumber, mapping.FormatGeneral},
		Rows: [][]any{
			{"007", int64(10000), "first"},
			{"010", "ABC", strings.Repeat("x", 80)},
		},
	}

	f := exportAndOpen(t, res, ExportOptions{})
	sheet := DefaultSheetName

	header, err := f.GetCellValue(sheet, "A1")
	require.NoError(t, err)
	assert.Equal(t, "판매 코드", header)

	code, err := f.GetCellValue(sheet, "A2")
	require.NoError(t, err)
	assert.Equal(t, "007", code)
	assert.Equal(t, numFmtText, numFmtOf(t, f, sheet, "A3"))

	price, err := f.GetCellValue(sheet, "B2", excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	assert.Equal(t, "10000", price)
	assert.Equal(t, numFmtThousands, numFmtOf(t, f, sheet, "B2"))

	passthrough, err := f.GetCellValue(sheet, "B3")
	require.NoError(t, err)
	assert.Equal(t, "ABC", passthrough)

	assert.Equal(t, 0, numFmtOf(t, f, sheet, "C2"))

	tests := []struct {
		col   string
		width float64
	}{
		{"A", 11}, // "판매 코드" is 9 cells wide
		{"B", 7},  // "10000"
		{"C", DefaultMaxColWidth},
	}

	for _, tt := range tests {
		w, err := f.GetColWidth(sheet, tt.col)
		require.NoError(t, err)
		assert.Equal(t, tt.width, w, "column %s", tt.col)
	}
}

func TestExportCustomSheetAndCap(t *testing.T) {
	res := &types.ResultTable{
		Headers: []string{"SKU[필수]"},
		Formats: []mapping.DisplayFormat{mapping.FormatGeneral},
		Rows:    [][]any{{strings.Repeat("y", 60)}},
	}

	f := exportAndOpen(t, res, ExportOptions{SheetName: "upload", MaxColWidth: 40})

	assert.Equal(t, "upload", f.GetSheetName(0))

	w, err := f.GetColWidth("upload", "A")
	require.NoError(t, err)
	assert.Equal(t, 40.0, w)
}

func TestExportHeaderOnly(t *testing.T) {
	res := &types.ResultTable{
		Headers: []string{"A", "B"},
		Formats: []mapping.DisplayFormat{mapping.FormatText, mapping.FormatNumber},
	}

	f := exportAndOpen(t, res, ExportOptions{})

	rows, err := f.GetRows(DefaultSheetName)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"A", "B"}}, rows)
}
