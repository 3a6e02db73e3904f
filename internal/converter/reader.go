package converter

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/nconklindev/bulkmap/internal/types"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/korean"
)

const RowDetectionLimit = 10

// CSV encodings accepted by ReadOptions.
const (
	EncodingAuto  = "auto"
	EncodingUTF8  = "utf-8"
	EncodingCP949 = "cp949"
)

var (
	// ErrIngestion wraps every failure to decode a source or target file.
	ErrIngestion = errors.New("cannot read table")
	ErrEmptyFile = errors.New("empty file")
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ReadOptions controls table ingestion.
type ReadOptions struct {
	// CSVEncoding is one of EncodingAuto, EncodingUTF8 or EncodingCP949.
	CSVEncoding string
}

// SupportedExtensions lists the file types ReadTable accepts.
var SupportedExtensions = []string{".csv", ".xlsx"}

// ReadTable reads a CSV or XLSX file. Every cell is kept as text.
func ReadTable(filePath string, opts ReadOptions) (*types.Table, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIngestion, err)
	}
	defer file.Close()

	return ReadTableFrom(file, filepath.Ext(filePath), opts)
}

// ReadTableFrom reads a table of the given extension from r.
func ReadTableFrom(r io.Reader, ext string, opts ReadOptions) (*types.Table, error) {
	var (
		data *types.Table
		err  error
	)

	switch strings.ToLower(ext) {
	case ".csv":
		data, err = readCSVData(r, opts.CSVEncoding)
	case ".xlsx":
		data, err = readXLSXData(r)
	default:
		err = fmt.Errorf("unsupported file type: %s", ext)
	}

	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIngestion, err)
	}

	return data, nil
}

func readCSVData(r io.Reader, encoding string) (*types.Table, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	text, err := decodeText(raw, encoding)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(bytes.NewReader(text))
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}

	if len(records) == 0 {
		return nil, ErrEmptyFile
	}

	return &types.Table{
		Headers: records[0],
		Rows:    dropBlankRows(records[1:]),
	}, nil
}

// decodeText returns UTF-8 text. Auto keeps valid UTF-8 and otherwise
// assumes CP949, the usual encoding of Korean spreadsheet exports.
func decodeText(raw []byte, encoding string) ([]byte, error) {
	raw = bytes.TrimPrefix(raw, utf8BOM)

	switch strings.ToLower(encoding) {
	case EncodingUTF8, "utf8":
		if !utf8.Valid(raw) {
			return nil, errors.New("file is not valid UTF-8")
		}
		return raw, nil
	case EncodingCP949, "euc-kr":
		return korean.EUCKR.NewDecoder().Bytes(raw)
	case EncodingAuto, "":
		if utf8.Valid(raw) {
			return raw, nil
		}
		return korean.EUCKR.NewDecoder().Bytes(raw)
	default:
		return nil, fmt.Errorf("unknown csv encoding %q", encoding)
	}
}

func readXLSXData(r io.Reader) (*types.Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, err
	}

	if len(rows) == 0 {
		return nil, ErrEmptyFile
	}

	headerRowIdx := findHeaderRow(rows)
	if headerRowIdx == -1 {
		return nil, fmt.Errorf("could not find header row")
	}

	return &types.Table{
		Headers:   rows[headerRowIdx],
		Rows:      dropBlankRows(rows[headerRowIdx+1:]),
		HeaderRow: headerRowIdx,
	}, nil
}

// findHeaderRow returns the first row that carries text, skipping blank
// rows and single-cell title rows that sit above a wider row. A row after
// the chosen header is never promoted, however wide it is.
func findHeaderRow(rows [][]string) int {
	searchLimit := min(len(rows), RowDetectionLimit*2)

	for i := 0; i < searchLimit; i++ {
		nonEmpty, hasText := rowStats(rows[i])
		if nonEmpty == 0 || !hasText {
			continue
		}

		if nonEmpty == 1 && widerRowFollows(rows[i+1:searchLimit], 1) {
			continue
		}

		return i
	}

	return -1
}

func rowStats(row []string) (nonEmpty int, hasText bool) {
	for _, cell := range row {
		trimmed := strings.TrimSpace(cell)
		if trimmed == "" {
			continue
		}
		nonEmpty++
		if containsLetters(trimmed) {
			hasText = true
		}
	}
	return nonEmpty, hasText
}

func widerRowFollows(rows [][]string, width int) bool {
	for _, row := range rows {
		if n, _ := rowStats(row); n > width {
			return true
		}
	}
	return false
}

// containsLetters checks for any letter, Hangul included.
func containsLetters(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

func dropBlankRows(rows [][]string) [][]string {
	out := rows[:0:0]

	for _, row := range rows {
		for _, cell := range row {
			if strings.TrimSpace(cell) != "" {
				out = append(out, row)
				break
			}
		}
	}

	return out
}
