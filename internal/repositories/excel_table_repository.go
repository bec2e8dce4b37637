package repositories

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ExcelTableRepository stores tables in .xlsx/.xlsm workbooks
type ExcelTableRepository struct{}

func NewExcelTableRepository() *ExcelTableRepository {
	return &ExcelTableRepository{}
}

func (r *ExcelTableRepository) ResolveSheet(ctx context.Context, path, sheet string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := statTable(path); err != nil {
		return "", err
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	return resolveSheet(f.GetSheetList(), sheet)
}

func (r *ExcelTableRepository) ReadAll(ctx context.Context, path, sheet string) ([][]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := statTable(path); err != nil {
		return nil, err
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheetName, err := resolveSheet(f.GetSheetList(), sheet)
	if err != nil {
		return nil, err
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read Excel rows: %w", err)
	}
	return padRows(rows), nil
}

func (r *ExcelTableRepository) WriteAll(ctx context.Context, path, sheet string, rows [][]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f, sheetName, err := openForWrite(path, sheet)
	if err != nil {
		return err
	}
	defer f.Close()

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("failed to resolve cell for row %d: %w", i+1, err)
		}
		values := row
		if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
			return fmt.Errorf("failed to write Excel row %d: %w", i+1, err)
		}
	}

	// the extension on Path selects the workbook content type on write
	f.Path = path
	return replaceFile(path, func(tmp *os.File) error {
		if err := f.Write(tmp); err != nil {
			return fmt.Errorf("failed to write Excel file: %w", err)
		}
		return nil
	})
}

// openForWrite returns the workbook at path with the target sheet emptied, or a new
// workbook when path does not exist. A sheet name missing from an existing workbook is
// added; a numeric selector must match an existing sheet.
func openForWrite(path, sheet string) (*excelize.File, string, error) {
	sheet = strings.TrimSpace(sheet)

	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return nil, "", fmt.Errorf("failed to stat %s: %w", path, err)
		}
		f := excelize.NewFile()
		name := DefaultSheetName
		if sheet != "" && !isSheetIndex(sheet) {
			name = sheet
		}
		if name != DefaultSheetName {
			if err := f.SetSheetName(DefaultSheetName, name); err != nil {
				f.Close()
				return nil, "", fmt.Errorf("failed to name Excel sheet: %w", err)
			}
		}
		return f, name, nil
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open Excel file: %w", err)
	}

	name, err := resolveSheet(f.GetSheetList(), sheet)
	if err != nil {
		if sheet == "" || isSheetIndex(sheet) {
			f.Close()
			return nil, "", err
		}
		if _, err := f.NewSheet(sheet); err != nil {
			f.Close()
			return nil, "", fmt.Errorf("failed to add Excel sheet %q: %w", sheet, err)
		}
		return f, sheet, nil
	}

	if err := clearSheet(f, name); err != nil {
		f.Close()
		return nil, "", err
	}
	return f, name, nil
}

// clearSheet removes every populated row of sheet, bottom up
func clearSheet(f *excelize.File, sheet string) error {
	rows, err := f.GetRows(sheet)
	if err != nil {
		return fmt.Errorf("failed to read Excel rows: %w", err)
	}
	for n := len(rows); n > 0; n-- {
		if err := f.RemoveRow(sheet, n); err != nil {
			return fmt.Errorf("failed to clear Excel row %d: %w", n, err)
		}
	}
	return nil
}

func isSheetIndex(selector string) bool {
	_, err := strconv.Atoi(selector)
	return err == nil
}

// resolveSheet matches a sheet by exact name first, then by zero-based index
func resolveSheet(sheets []string, selector string) (string, error) {
	if len(sheets) == 0 {
		return "", fmt.Errorf("%w: workbook has no sheets", ErrSheetNotFound)
	}
	selector = strings.TrimSpace(selector)
	if selector == "" {
		return sheets[0], nil
	}
	for _, name := range sheets {
		if name == selector {
			return name, nil
		}
	}
	if idx, err := strconv.Atoi(selector); err == nil && idx >= 0 && idx < len(sheets) {
		return sheets[idx], nil
	}
	return "", fmt.Errorf("%w: %q", ErrSheetNotFound, selector)
}
