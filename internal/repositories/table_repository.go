package repositories

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

type tableRepository struct {
	excel  TableRepository
	csv    TableRepository
	logger *slog.Logger
}

// NewTableRepository returns a repository that dispatches on the file extension:
// .xlsx/.xlsm go to excelize, .csv to encoding/csv
func NewTableRepository(logger *slog.Logger) TableRepository {
	return &tableRepository{
		excel:  NewExcelTableRepository(),
		csv:    NewCSVTableRepository(),
		logger: logger,
	}
}

func (r *tableRepository) backend(path string) (TableRepository, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return r.excel, nil
	case ".csv":
		return r.csv, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

func (r *tableRepository) ResolveSheet(ctx context.Context, path, sheet string) (string, error) {
	backend, err := r.backend(path)
	if err != nil {
		return "", err
	}
	return backend.ResolveSheet(ctx, path, sheet)
}

func (r *tableRepository) ReadAll(ctx context.Context, path, sheet string) ([][]string, error) {
	backend, err := r.backend(path)
	if err != nil {
		return nil, err
	}
	rows, err := backend.ReadAll(ctx, path, sheet)
	if err != nil {
		return nil, err
	}
	r.logger.Debug("Table read", "path", path, "sheet", sheet, "rows", len(rows))
	return rows, nil
}

func (r *tableRepository) WriteAll(ctx context.Context, path, sheet string, rows [][]any) error {
	backend, err := r.backend(path)
	if err != nil {
		return err
	}
	if err := backend.WriteAll(ctx, path, sheet, rows); err != nil {
		return err
	}
	r.logger.Debug("Table written", "path", path, "sheet", sheet, "rows", len(rows))
	return nil
}

// replaceFile writes through a temp file in the target directory and renames it into place
func replaceFile(path string, write func(f *os.File) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".quizbank-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := write(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

func statTable(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrTableNotFound, path)
		}
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}
	return nil
}
