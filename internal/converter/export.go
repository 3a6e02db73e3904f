package converter

import (
	"fmt"
	"io"
	"strings"

	"github.com/nconklindev/bulkmap/internal/mapping"
	"github.com/nconklindev/bulkmap/internal/types"

	"github.com/mattn/go-runewidth"
	"github.com/xuri/excelize/v2"
)

// Built-in excelize number formats.
const (
	numFmtText      = 49 // @
	numFmtThousands = 3  // #,##0
)

const (
	DefaultSheetName   = "Sheet1"
	DefaultMaxColWidth = 50
	colPadding         = 2
)

// ExportOptions controls the written workbook.
type ExportOptions struct {
	SheetName   string
	MaxColWidth float64
}

func (o ExportOptions) withDefaults() ExportOptions {
	if o.SheetName == "" {
		o.SheetName = DefaultSheetName
	}
	if o.MaxColWidth <= 0 {
		o.MaxColWidth = DefaultMaxColWidth
	}
	return o
}

// Export writes res as a single-sheet workbook to w.
func Export(w io.Writer, res *types.ResultTable, opts ExportOptions) error {
	f, err := buildWorkbook(res, opts, nil)
	if err != nil {
		return err
	}
	defer f.Close()

	return f.Write(w)
}

// ExportFile writes res to outputFile, reporting progress on progressChan
// when it is non-nil. Progress sends never block.
func ExportFile(outputFile string, res *types.ResultTable, opts ExportOptions, progressChan chan<- float64) error {
	report := func(p float64) {
		if progressChan != nil {
			select {
			case progressChan <- p:
			default:
			}
		}
	}

	f, err := buildWorkbook(res, opts, report)
	if err != nil {
		return err
	}
	defer f.Close()

	return f.SaveAs(outputFile)
}

// SuggestFilename returns "<vendor>_<rowCount>건.xlsx".
func SuggestFilename(vendor string, rowCount int) string {
	vendor = strings.TrimSpace(vendor)
	if vendor == "" {
		vendor = "result"
	}

	vendor = strings.NewReplacer("/", "_", `\`, "_", ":", "_").Replace(vendor)

	return fmt.Sprintf("%s_%d건.xlsx", vendor, rowCount)
}

func buildWorkbook(res *types.ResultTable, opts ExportOptions, report func(float64)) (*excelize.File, error) {
	opts = opts.withDefaults()

	f := excelize.NewFile()

	sheetName := opts.SheetName
	if sheetName != DefaultSheetName {
		if err := f.SetSheetName(DefaultSheetName, sheetName); err != nil {
			f.Close()
			return nil, err
		}
	}

	if err := writeWorkbook(f, sheetName, res, opts, report); err != nil {
		f.Close()
		return nil, err
	}

	return f, nil
}

func writeWorkbook(f *excelize.File, sheetName string, res *types.ResultTable, opts ExportOptions, report func(float64)) error {
	widths := make([]int, len(res.Headers))

	for i, h := range res.Headers {
		label := mapping.DisplayLabel(h)
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellStr(sheetName, cell, label); err != nil {
			return err
		}
		widths[i] = runewidth.StringWidth(label)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center", WrapText: false},
	})
	if err != nil {
		return err
	}
	if err := f.SetRowStyle(sheetName, 1, 1, headerStyle); err != nil {
		return err
	}

	totalRows := len(res.Rows)

	for r, row := range res.Rows {
		for c, v := range row {
			if c >= len(res.Headers) {
				break
			}

			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			text := stringify(v)

			if formatAt(res, c) == mapping.FormatText {
				err = f.SetCellStr(sheetName, cell, text)
			} else {
				err = f.SetCellValue(sheetName, cell, v)
			}
			if err != nil {
				return err
			}

			widths[c] = max(widths[c], runewidth.StringWidth(text))
		}

		if report != nil && totalRows > 0 {
			report(float64(r+1) / float64(totalRows))
		}
	}

	styles, err := columnStyles(f)
	if err != nil {
		return err
	}

	for c := range res.Headers {
		colName, err := excelize.ColumnNumberToName(c + 1)
		if err != nil {
			return err
		}

		width := min(float64(widths[c]+colPadding), opts.MaxColWidth)
		if err := f.SetColWidth(sheetName, colName, colName, width); err != nil {
			return err
		}

		styleID, ok := styles[formatAt(res, c)]
		if !ok || totalRows == 0 {
			continue
		}

		top, _ := excelize.CoordinatesToCellName(c+1, 2)
		bottom, _ := excelize.CoordinatesToCellName(c+1, totalRows+1)
		if err := f.SetCellStyle(sheetName, top, bottom, styleID); err != nil {
			return err
		}
	}

	return nil
}

// columnStyles registers the Text and Number cell styles. General columns
// keep the workbook default.
func columnStyles(f *excelize.File) (map[mapping.DisplayFormat]int, error) {
	text, err := f.NewStyle(&excelize.Style{NumFmt: numFmtText})
	if err != nil {
		return nil, err
	}

	number, err := f.NewStyle(&excelize.Style{NumFmt: numFmtThousands})
	if err != nil {
		return nil, err
	}

	return map[mapping.DisplayFormat]int{
		mapping.FormatText:   text,
		mapping.FormatNumber: number,
	}, nil
}

func formatAt(res *types.ResultTable, col int) mapping.DisplayFormat {
	if col < len(res.Formats) {
		return res.Formats[col]
	}
	return mapping.FormatGeneral
}
