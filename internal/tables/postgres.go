package tables

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ephraimVPA/Helfzen-zn/internal/metrics"
)

// Postgres stores each sheet as ordered text[] rows. Row order is insertion
// order (the bigserial id), which keeps 0-based data-row indexes stable
// between a read and the following write as long as nobody deletes in between.
type Postgres struct {
	pool    *pgxpool.Pool
	metrics *metrics.Metrics
}

func NewPostgres(pool *pgxpool.Pool, m *metrics.Metrics) *Postgres {
	return &Postgres{pool: pool, metrics: m}
}

func (p *Postgres) Name() string { return "postgres" }

func (p *Postgres) EnsureSheet(ctx context.Context, sheet string, header []string) (err error) {
	done := p.metrics.ObserveTable(p.Name(), "ensure_sheet")
	defer func() { done(err) }()

	_, err = p.pool.Exec(ctx,
		`INSERT INTO sheet_headers (sheet, header) VALUES ($1, $2) ON CONFLICT (sheet) DO NOTHING`,
		sheet, header)
	return err
}

func (p *Postgres) Rows(ctx context.Context, sheet string) (rows [][]string, err error) {
	done := p.metrics.ObserveTable(p.Name(), "rows")
	defer func() { done(err) }()

	if err := p.requireSheet(ctx, sheet); err != nil {
		return nil, err
	}

	result, err := p.pool.Query(ctx, `SELECT cells FROM sheet_rows WHERE sheet = $1 ORDER BY id`, sheet)
	if err != nil {
		return nil, err
	}
	rows, err = pgx.CollectRows(result, func(row pgx.CollectableRow) ([]string, error) {
		var cells []string
		err := row.Scan(&cells)
		return cells, err
	})
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = [][]string{}
	}
	return rows, nil
}

func (p *Postgres) Append(ctx context.Context, sheet string, row []string) (err error) {
	done := p.metrics.ObserveTable(p.Name(), "append")
	defer func() { done(err) }()

	if err := p.requireSheet(ctx, sheet); err != nil {
		return err
	}
	if row == nil {
		row = []string{}
	}
	_, err = p.pool.Exec(ctx, `INSERT INTO sheet_rows (sheet, cells) VALUES ($1, $2)`, sheet, row)
	return err
}

func (p *Postgres) UpdateCell(ctx context.Context, sheet string, rowIndex, col int, value string) (err error) {
	done := p.metrics.ObserveTable(p.Name(), "update_cell")
	defer func() { done(err) }()

	if rowIndex < 0 || col < 0 {
		return ErrRowNotFound
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var (
		id    int64
		cells []string
	)
	err = tx.QueryRow(ctx,
		`SELECT id, cells FROM sheet_rows WHERE sheet = $1 ORDER BY id OFFSET $2 LIMIT 1 FOR UPDATE`,
		sheet, rowIndex).Scan(&id, &cells)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrRowNotFound
	}
	if err != nil {
		return err
	}

	for len(cells) <= col {
		cells = append(cells, "")
	}
	cells[col] = value

	if _, err := tx.Exec(ctx, `UPDATE sheet_rows SET cells = $1 WHERE id = $2`, cells, id); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (p *Postgres) DeleteRow(ctx context.Context, sheet string, rowIndex int) (err error) {
	done := p.metrics.ObserveTable(p.Name(), "delete_row")
	defer func() { done(err) }()

	if rowIndex < 0 {
		return ErrRowNotFound
	}
	tag, err := p.pool.Exec(ctx,
		`DELETE FROM sheet_rows WHERE id = (
			SELECT id FROM sheet_rows WHERE sheet = $1 ORDER BY id OFFSET $2 LIMIT 1
		)`, sheet, rowIndex)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrRowNotFound
	}
	return nil
}

func (p *Postgres) SheetNames(ctx context.Context) (names []string, err error) {
	done := p.metrics.ObserveTable(p.Name(), "sheet_names")
	defer func() { done(err) }()

	result, err := p.pool.Query(ctx, `SELECT sheet FROM sheet_headers ORDER BY created_at, sheet`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(result, pgx.RowTo[string])
}

func (p *Postgres) requireSheet(ctx context.Context, sheet string) error {
	var exists bool
	err := p.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM sheet_headers WHERE sheet = $1)`, sheet).Scan(&exists)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %s", ErrSheetNotFound, sheet)
	}
	return nil
}
