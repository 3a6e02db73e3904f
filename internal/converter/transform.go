package converter

import (
	"slices"

	"github.com/nconklindev/bulkmap/internal/mapping"
	"github.com/nconklindev/bulkmap/internal/types"
)

// Transform applies cfg to source and returns a table in the target schema,
// one row per source row, together with advisory validation errors.
//
// Unmapped columns are empty. Constants repeat on every row. Column
// references copy the source cell. Text stringifies, Number runs Clean and
// General passes the value through. No cell is left nil.
func Transform(targets []string, source *types.Table, cfg *mapping.Config) (*types.ResultTable, []types.ValidationError) {
	rowCount := source.RowCount()

	res := &types.ResultTable{
		Headers: slices.Clone(targets),
		Formats: make([]mapping.DisplayFormat, len(targets)),
		Rows:    make([][]any, rowCount),
	}
	for i := range res.Rows {
		res.Rows[i] = make([]any, len(targets))
	}

	for col, h := range targets {
		e := cfg.Get(h)
		res.Formats[col] = e.Format

		switch e.Kind {
		case mapping.KindConstant:
			v := applyFormat(e.Value, e.Format)
			for row := range rowCount {
				res.Rows[row][col] = v
			}

		case mapping.KindColumn:
			srcIdx, ok := source.ColumnIndex(e.Value)
			if !ok {
				continue
			}
			for row := range rowCount {
				res.Rows[row][col] = applyFormat(source.Cell(row, srcIdx), e.Format)
			}
		}
	}

	for _, row := range res.Rows {
		for i, v := range row {
			if v == nil {
				row[i] = ""
			}
		}
	}

	return res, Validate(res)
}

func applyFormat(v any, format mapping.DisplayFormat) any {
	switch format {
	case mapping.FormatText:
		return stringify(v)
	case mapping.FormatNumber:
		return Clean(v)
	default:
		return v
	}
}

// Validate counts empty cells in every required column of res.
func Validate(res *types.ResultTable) []types.ValidationError {
	var errs []types.ValidationError

	for col, h := range res.Headers {
		if !mapping.IsRequired(h) {
			continue
		}

		missing := 0
		for _, row := range res.Rows {
			if v := row[col]; v == nil || v == "" {
				missing++
			}
		}

		if missing > 0 {
			errs = append(errs, types.ValidationError{Column: h, MissingCount: missing})
		}
	}

	return errs
}
