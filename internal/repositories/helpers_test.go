package repositories

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ephraimVPA/Helfzen-zn/internal/tables"
)

var errBackendDown = errors.New("backend down")

func newWorkbook(t *testing.T) *tables.Workbook {
	t.Helper()
	wb, err := tables.NewWorkbook(filepath.Join(t.TempDir(), "store.xlsx"), nil)
	require.NoError(t, err)
	return wb
}

// brokenTable fails every call.
type brokenTable struct{}

func (brokenTable) Name() string { return "broken" }
func (brokenTable) EnsureSheet(context.Context, string, []string) error {
	return errBackendDown
}
func (brokenTable) Rows(context.Context, string) ([][]string, error) { return nil, errBackendDown }
func (brokenTable) Append(context.Context, string, []string) error    { return errBackendDown }
func (brokenTable) UpdateCell(context.Context, string, int, int, string) error {
	return errBackendDown
}
func (brokenTable) DeleteRow(context.Context, string, int) error   { return errBackendDown }
func (brokenTable) SheetNames(context.Context) ([]string, error) { return nil, errBackendDown }
