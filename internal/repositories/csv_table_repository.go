package repositories

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
)

const utf8BOM = "\ufeff"

// CSVTableRepository stores a table as a single UTF-8 CSV sheet
type CSVTableRepository struct{}

func NewCSVTableRepository() *CSVTableRepository {
	return &CSVTableRepository{}
}

func (r *CSVTableRepository) ResolveSheet(ctx context.Context, path, sheet string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := checkCSVSheet(sheet); err != nil {
		return "", err
	}
	if err := statTable(path); err != nil {
		return "", err
	}
	return "", nil
}

func (r *CSVTableRepository) ReadAll(ctx context.Context, path, sheet string) ([][]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := checkCSVSheet(sheet); err != nil {
		return nil, err
	}
	if err := statTable(path); err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	br := bufio.NewReader(file)
	if head, err := br.Peek(len(utf8BOM)); err == nil && string(head) == utf8BOM {
		br.Discard(len(utf8BOM))
	}

	reader := csv.NewReader(br)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV: %w", err)
	}
	return padRows(rows), nil
}

func (r *CSVTableRepository) WriteAll(ctx context.Context, path, sheet string, rows [][]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return replaceFile(path, func(tmp *os.File) error {
		w := csv.NewWriter(tmp)
		for i, row := range rows {
			record := make([]string, len(row))
			for j, v := range row {
				record[j] = csvValue(v)
			}
			if err := w.Write(record); err != nil {
				return fmt.Errorf("failed to write CSV row %d: %w", i+1, err)
			}
		}
		w.Flush()
		if err := w.Error(); err != nil {
			return fmt.Errorf("failed to flush CSV: %w", err)
		}
		return nil
	})
}

// a CSV file has exactly one sheet
func checkCSVSheet(sheet string) error {
	sheet = strings.TrimSpace(sheet)
	if sheet == "" || sheet == "0" {
		return nil
	}
	return fmt.Errorf("%w: %q (csv tables have a single sheet)", ErrSheetNotFound, sheet)
}

func csvValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case int:
		return strconv.Itoa(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprint(val)
	}
}
