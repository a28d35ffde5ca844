// Package tables provides row-oriented access to the spreadsheet-like store
// used for comments and the user allow-list.
//
// A table is a named sheet whose first row is a header. Data rows are
// addressed by 0-based index, header excluded. There is no locking or
// optimistic concurrency: concurrent writers may interleave, and callers treat
// a sheet as an append-mostly log.
package tables

import (
	"context"
	"errors"
)

var (
	ErrRowNotFound   = errors.New("row not found")
	ErrSheetNotFound = errors.New("sheet not found")
)

type Table interface {
	// EnsureSheet creates the sheet with the given header row if it is absent.
	EnsureSheet(ctx context.Context, sheet string, header []string) error
	// Rows returns all data rows. Short rows are not padded.
	Rows(ctx context.Context, sheet string) ([][]string, error)
	Append(ctx context.Context, sheet string, row []string) error
	UpdateCell(ctx context.Context, sheet string, rowIndex, col int, value string) error
	DeleteRow(ctx context.Context, sheet string, rowIndex int) error
	SheetNames(ctx context.Context) ([]string, error)
	// Name identifies the backend in logs and metrics.
	Name() string
}

// Cell returns row[i] or "" when the row is short.
func Cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}
