package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/nconklindev/bulkmap/internal/mapping"

	"github.com/xuri/excelize/v2"
)

// maxCellChars is the per-cell text limit of the xlsx format. Longer values
// would be truncated on write, which corrupts the JSON.
const maxCellChars = 32767

// SheetStore keeps mappings in a workbook used as a two-column table:
// Vendor | MappingData, located by header label on the first sheet.
type SheetStore struct {
	path string
	mu   sync.Mutex
}

type sheetRecord struct {
	row    int // 1-based sheet row
	vendor string
	data   string
}

type sheetLayout struct {
	vendorCol int // 0-based, -1 when missing
	dataCol   int
}

func (l sheetLayout) valid() bool { return l.vendorCol >= 0 && l.dataCol >= 0 }

// NewSheetStore returns a store backed by the workbook at path. The file is
// created on first save.
func NewSheetStore(path string) (*SheetStore, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: sheet store path is empty", ErrStoreUnavailable)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("%w: create store directory: %w", ErrStoreUnavailable, err)
	}

	return &SheetStore{path: path}, nil
}

func (s *SheetStore) Load(ctx context.Context, vendor string) (*mapping.Config, bool, error) {
	vendor, err := normalizeVendor(vendor)
	if err != nil {
		return nil, false, err
	}

	records, err := s.records(ctx)
	if err != nil {
		return nil, false, err
	}

	// the first row for a vendor is the one Save rewrites
	for _, r := range records {
		if r.vendor != vendor {
			continue
		}

		cfg, err := decode(vendor, r.data)
		if err != nil {
			log.Printf("sheet store: skipping row %d: %v", r.row, err)
			return nil, false, nil
		}

		return cfg, true, nil
	}

	return nil, false, nil
}

func (s *SheetStore) ListVendors(ctx context.Context) ([]string, error) {
	records, err := s.records(ctx)
	if err != nil {
		return nil, err
	}

	vendors := make([]string, 0, len(records))
	for _, r := range records {
		vendors = append(vendors, r.vendor)
	}

	slices.Sort(vendors)

	return slices.Compact(vendors), nil
}

func (s *SheetStore) Save(ctx context.Context, vendor string, cfg *mapping.Config) error {
	vendor, err := normalizeVendor(vendor)
	if err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := encode(vendor, cfg)
	if err != nil {
		return err
	}

	if len([]rune(data)) > maxCellChars {
		return fmt.Errorf("mapping for %q exceeds the %d character cell limit", vendor, maxCellChars)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.openOrCreate()
	if err != nil {
		return err
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	layout := locateColumns(rows)
	if !layout.valid() {
		if layout, err = initializeHeader(f, sheetName, rows); err != nil {
			return err
		}
		if rows, err = f.GetRows(sheetName); err != nil {
			return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
		}
	}

	target := len(rows) + 1

	for i := 1; i < len(rows); i++ {
		if cellAt(rows[i], layout.vendorCol) == vendor {
			target = i + 1
			break
		}
	}

	vendorCell, _ := excelize.CoordinatesToCellName(layout.vendorCol+1, target)
	dataCell, _ := excelize.CoordinatesToCellName(layout.dataCol+1, target)

	if err := f.SetCellStr(sheetName, vendorCell, vendor); err != nil {
		return err
	}
	if err := f.SetCellStr(sheetName, dataCell, data); err != nil {
		return err
	}

	return s.commit(f)
}

func (s *SheetStore) Close() error { return nil }

func (s *SheetStore) records(ctx context.Context) ([]sheetRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := excelize.OpenFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrStoreUnavailable, s.path, err)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	layout := locateColumns(rows)
	if !layout.valid() {
		return nil, nil
	}

	return recordsFrom(rows, layout), nil
}

func (s *SheetStore) openOrCreate() (*excelize.File, error) {
	f, err := excelize.OpenFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return excelize.NewFile(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrStoreUnavailable, s.path, err)
	}
	return f, nil
}

// commit writes through a temporary file so readers never see a partial workbook.
func (s *SheetStore) commit(f *excelize.File) error {
	tmp := s.path + ".tmp.xlsx"

	if err := f.SaveAs(tmp); err != nil {
		return fmt.Errorf("%w: write %s: %w", ErrStoreUnavailable, tmp, err)
	}

	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("%w: replace %s: %w", ErrStoreUnavailable, s.path, err)
	}

	return nil
}

func locateColumns(rows [][]string) sheetLayout {
	layout := sheetLayout{vendorCol: -1, dataCol: -1}
	if len(rows) == 0 {
		return layout
	}

	for i, h := range rows[0] {
		switch h {
		case ColumnVendor:
			if layout.vendorCol < 0 {
				layout.vendorCol = i
			}
		case ColumnMappingData:
			if layout.dataCol < 0 {
				layout.dataCol = i
			}
		}
	}

	return layout
}

// initializeHeader writes the Vendor | MappingData labels. Existing rows are
// pushed down rather than overwritten.
func initializeHeader(f *excelize.File, sheetName string, rows [][]string) (sheetLayout, error) {
	if len(rows) > 0 {
		if err := f.InsertRows(sheetName, 1, 1); err != nil {
			return sheetLayout{}, err
		}
	}

	if err := f.SetSheetRow(sheetName, "A1", &[]any{ColumnVendor, ColumnMappingData}); err != nil {
		return sheetLayout{}, err
	}

	return sheetLayout{vendorCol: 0, dataCol: 1}, nil
}

func recordsFrom(rows [][]string, layout sheetLayout) []sheetRecord {
	var records []sheetRecord

	for i := 1; i < len(rows); i++ {
		vendor := cellAt(rows[i], layout.vendorCol)
		data := cellAt(rows[i], layout.dataCol)
		if vendor == "" || data == "" {
			continue
		}

		records = append(records, sheetRecord{row: i + 1, vendor: vendor, data: data})
	}

	return records
}

func cellAt(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return row[col]
}
