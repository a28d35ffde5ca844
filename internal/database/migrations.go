package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

func RunMigrations(ctx context.Context, pool *pgxpool.Pool, log logrus.FieldLogger) error {
	migrations := []string{
		createSheetHeadersTable,
		createSheetRowsTable,
	}

	for i, migration := range migrations {
		log.Debugf("running migration %d/%d", i+1, len(migrations))
		if _, err := pool.Exec(ctx, migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	log.Info("all migrations completed")
	return nil
}

const createSheetHeadersTable = `
CREATE TABLE IF NOT EXISTS sheet_headers (
  sheet TEXT PRIMARY KEY,
  header TEXT[] NOT NULL,
  created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);
`

const createSheetRowsTable = `
CREATE TABLE IF NOT EXISTS sheet_rows (
  id BIGSERIAL PRIMARY KEY,
  sheet TEXT NOT NULL REFERENCES sheet_headers(sheet) ON DELETE CASCADE,
  cells TEXT[] NOT NULL,
  created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_sheet_rows_sheet_id ON sheet_rows(sheet, id);
`
