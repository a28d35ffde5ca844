package services

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"github.com/ephraimVPA/Helfzen-zn/internal/repositories"
	"github.com/ephraimVPA/Helfzen-zn/internal/tables"
)

var testSecret = []byte("services-test-secret-0123")

func nullLogger() logrus.FieldLogger {
	log, _ := test.NewNullLogger()
	return log
}

func newTable(t *testing.T) *tables.Workbook {
	t.Helper()
	wb, err := tables.NewWorkbook(filepath.Join(t.TempDir(), "store.xlsx"), nil)
	require.NoError(t, err)
	return wb
}

func newUserRepo(t *testing.T, rows ...[]string) *repositories.UserRepository {
	t.Helper()
	ctx := context.Background()
	wb := newTable(t)
	require.NoError(t, wb.EnsureSheet(ctx, "Users", repositories.UserHeader))
	for _, row := range rows {
		require.NoError(t, wb.Append(ctx, "Users", row))
	}
	return repositories.NewUserRepository(wb, "Users", nullLogger())
}
