package repositories

import (
	"context"
	"errors"
)

var (
	ErrTableNotFound     = errors.New("table file not found")
	ErrSheetNotFound     = errors.New("sheet not found")
	ErrUnsupportedFormat = errors.New("unsupported table format")
)

// DefaultSheetName is the sheet written to new workbooks
const DefaultSheetName = "Sheet1"

// TableRepository reads and writes whole tables. Rows returned by ReadAll are
// rectangular: short rows are padded with "" to the widest row.
//
// Sheet is a sheet name or a zero-based index; "" selects the first sheet.
// Writers replace the target file atomically. Writing into an existing workbook
// replaces only the target sheet's cells and keeps the other sheets.
type TableRepository interface {
	// ResolveSheet returns the name the selector picks in the table at path.
	// Single-sheet formats return "".
	ResolveSheet(ctx context.Context, path, sheet string) (string, error)
	ReadAll(ctx context.Context, path, sheet string) ([][]string, error)
	WriteAll(ctx context.Context, path, sheet string, rows [][]any) error
}

func padRows(rows [][]string) [][]string {
	width := 0
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}
	out := make([][]string, len(rows))
	for i, row := range rows {
		if len(row) == width {
			out[i] = row
			continue
		}
		padded := make([]string, width)
		copy(padded, row)
		out[i] = padded
	}
	return out
}
