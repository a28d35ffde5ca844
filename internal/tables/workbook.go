package tables

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/xuri/excelize/v2"

	"github.com/ephraimVPA/Helfzen-zn/internal/metrics"
)

// Workbook keeps the tables in a local .xlsx file. Every call opens, edits and
// saves the file under a process-wide mutex, so it suits development and
// single-instance deployments only.
type Workbook struct {
	mu      sync.Mutex
	path    string
	metrics *metrics.Metrics
}

func NewWorkbook(path string, m *metrics.Metrics) (*Workbook, error) {
	if path == "" {
		return nil, errors.New("workbook path is required")
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create workbook directory: %w", err)
		}
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		f := excelize.NewFile()
		defer f.Close()
		if err := f.SaveAs(path); err != nil {
			return nil, fmt.Errorf("create workbook: %w", err)
		}
	}
	return &Workbook{path: path, metrics: m}, nil
}

func (w *Workbook) Name() string { return "workbook" }

func (w *Workbook) EnsureSheet(ctx context.Context, sheet string, header []string) (err error) {
	done := w.metrics.ObserveTable(w.Name(), "ensure_sheet")
	defer func() { done(err) }()

	return w.edit(func(f *excelize.File) (bool, error) {
		idx, err := f.GetSheetIndex(sheet)
		if err != nil {
			return false, err
		}
		if idx != -1 {
			return false, nil
		}
		if _, err := f.NewSheet(sheet); err != nil {
			return false, err
		}
		if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
			return false, err
		}
		return true, nil
	})
}

func (w *Workbook) Rows(ctx context.Context, sheet string) (rows [][]string, err error) {
	done := w.metrics.ObserveTable(w.Name(), "rows")
	defer func() { done(err) }()

	w.mu.Lock()
	defer w.mu.Unlock()

	f, err := excelize.OpenFile(w.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	all, err := sheetRows(f, sheet)
	if err != nil {
		return nil, err
	}
	if len(all) <= 1 {
		return [][]string{}, nil
	}
	return all[1:], nil
}

func (w *Workbook) Append(ctx context.Context, sheet string, row []string) (err error) {
	done := w.metrics.ObserveTable(w.Name(), "append")
	defer func() { done(err) }()

	return w.edit(func(f *excelize.File) (bool, error) {
		all, err := sheetRows(f, sheet)
		if err != nil {
			return false, err
		}
		cell, err := excelize.CoordinatesToCellName(1, len(all)+1)
		if err != nil {
			return false, err
		}
		return true, f.SetSheetRow(sheet, cell, &row)
	})
}

func (w *Workbook) UpdateCell(ctx context.Context, sheet string, rowIndex, col int, value string) (err error) {
	done := w.metrics.ObserveTable(w.Name(), "update_cell")
	defer func() { done(err) }()

	return w.edit(func(f *excelize.File) (bool, error) {
		all, err := sheetRows(f, sheet)
		if err != nil {
			return false, err
		}
		if rowIndex < 0 || rowIndex+1 >= len(all) {
			return false, ErrRowNotFound
		}
		cell, err := excelize.CoordinatesToCellName(col+1, rowIndex+2)
		if err != nil {
			return false, err
		}
		return true, f.SetCellStr(sheet, cell, value)
	})
}

func (w *Workbook) DeleteRow(ctx context.Context, sheet string, rowIndex int) (err error) {
	done := w.metrics.ObserveTable(w.Name(), "delete_row")
	defer func() { done(err) }()

	return w.edit(func(f *excelize.File) (bool, error) {
		all, err := sheetRows(f, sheet)
		if err != nil {
			return false, err
		}
		if rowIndex < 0 || rowIndex+1 >= len(all) {
			return false, ErrRowNotFound
		}
		return true, f.RemoveRow(sheet, rowIndex+2)
	})
}

func (w *Workbook) SheetNames(ctx context.Context) (names []string, err error) {
	done := w.metrics.ObserveTable(w.Name(), "sheet_names")
	defer func() { done(err) }()

	w.mu.Lock()
	defer w.mu.Unlock()

	f, err := excelize.OpenFile(w.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return f.GetSheetList(), nil
}

// edit opens the workbook, applies fn and saves when fn reports a change.
func (w *Workbook) edit(fn func(f *excelize.File) (bool, error)) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	f, err := excelize.OpenFile(w.path)
	if err != nil {
		return err
	}
	defer f.Close()

	changed, err := fn(f)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	return f.Save()
}

func sheetRows(f *excelize.File, sheet string) ([][]string, error) {
	idx, err := f.GetSheetIndex(sheet)
	if err != nil {
		return nil, err
	}
	if idx == -1 {
		return nil, fmt.Errorf("%w: %s", ErrSheetNotFound, sheet)
	}
	return f.GetRows(sheet)
}
