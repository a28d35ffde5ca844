package tables

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/xuri/excelize/v2"
	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/jwt"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/ephraimVPA/Helfzen-zn/internal/metrics"
)

// Sheets talks to one Google spreadsheet with service-account credentials.
type Sheets struct {
	svc           *sheets.Service
	spreadsheetID string
	metrics       *metrics.Metrics

	mu       sync.Mutex
	sheetIDs map[string]int64
}

// NewSheets builds a client for spreadsheetID. privateKey may carry literal
// "\n" sequences, as it usually does when it comes from an env var.
func NewSheets(ctx context.Context, spreadsheetID, clientEmail, privateKey string, m *metrics.Metrics) (*Sheets, error) {
	if spreadsheetID == "" || clientEmail == "" || privateKey == "" {
		return nil, errors.New("spreadsheet id, client email and private key are required")
	}
	conf := &jwt.Config{
		Email:      clientEmail,
		PrivateKey: []byte(NormalizePrivateKey(privateKey)),
		Scopes:     []string{sheets.SpreadsheetsScope},
		TokenURL:   google.JWTTokenURL,
	}
	svc, err := sheets.NewService(ctx, option.WithHTTPClient(conf.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return NewSheetsWithService(svc, spreadsheetID, m), nil
}

// NewSheetsWithService wraps an existing service, e.g. one pointed at a test
// server through option.WithEndpoint.
func NewSheetsWithService(svc *sheets.Service, spreadsheetID string, m *metrics.Metrics) *Sheets {
	return &Sheets{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		metrics:       m,
		sheetIDs:      map[string]int64{},
	}
}

func NormalizePrivateKey(key string) string {
	return strings.ReplaceAll(key, `\n`, "\n")
}

func (s *Sheets) Name() string { return "sheets" }

func (s *Sheets) EnsureSheet(ctx context.Context, sheet string, header []string) (err error) {
	done := s.metrics.ObserveTable(s.Name(), "ensure_sheet")
	defer func() { done(err) }()

	if _, err := s.sheetID(ctx, sheet); err == nil {
		return nil
	} else if !errors.Is(err, ErrSheetNotFound) {
		return err
	}

	resp, err := s.svc.Spreadsheets.BatchUpdate(s.spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			AddSheet: &sheets.AddSheetRequest{
				Properties: &sheets.SheetProperties{Title: sheet},
			},
		}},
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("add sheet %s: %w", sheet, err)
	}
	if len(resp.Replies) > 0 && resp.Replies[0].AddSheet != nil && resp.Replies[0].AddSheet.Properties != nil {
		s.mu.Lock()
		s.sheetIDs[sheet] = resp.Replies[0].AddSheet.Properties.SheetId
		s.mu.Unlock()
	}

	_, err = s.svc.Spreadsheets.Values.Update(s.spreadsheetID, a1(sheet, "A1"), &sheets.ValueRange{
		Values: [][]interface{}{toValues(header)},
	}).ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("write header for %s: %w", sheet, err)
	}
	return nil
}

func (s *Sheets) Rows(ctx context.Context, sheet string) (rows [][]string, err error) {
	done := s.metrics.ObserveTable(s.Name(), "rows")
	defer func() { done(err) }()

	// A missing tab makes the values API fail with a generic 400.
	if _, err := s.sheetID(ctx, sheet); err != nil {
		return nil, err
	}

	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, a1(sheet, "A2:ZZ")).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	rows = make([][]string, 0, len(resp.Values))
	for _, raw := range resp.Values {
		row := make([]string, len(raw))
		for i, v := range raw {
			row[i] = fmt.Sprint(v)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Append writes with RAW input so user text is never evaluated as a formula.
func (s *Sheets) Append(ctx context.Context, sheet string, row []string) (err error) {
	done := s.metrics.ObserveTable(s.Name(), "append")
	defer func() { done(err) }()

	if _, err := s.sheetID(ctx, sheet); err != nil {
		return err
	}
	_, err = s.svc.Spreadsheets.Values.Append(s.spreadsheetID, a1(sheet, "A1"), &sheets.ValueRange{
		Values: [][]interface{}{toValues(row)},
	}).ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	return err
}

func (s *Sheets) UpdateCell(ctx context.Context, sheet string, rowIndex, col int, value string) (err error) {
	done := s.metrics.ObserveTable(s.Name(), "update_cell")
	defer func() { done(err) }()

	if rowIndex < 0 || col < 0 {
		return ErrRowNotFound
	}
	if _, err := s.sheetID(ctx, sheet); err != nil {
		return err
	}
	cell, err := excelize.CoordinatesToCellName(col+1, rowIndex+2)
	if err != nil {
		return err
	}
	_, err = s.svc.Spreadsheets.Values.Update(s.spreadsheetID, a1(sheet, cell), &sheets.ValueRange{
		Values: [][]interface{}{{value}},
	}).ValueInputOption("RAW").Context(ctx).Do()
	return err
}

func (s *Sheets) DeleteRow(ctx context.Context, sheet string, rowIndex int) (err error) {
	done := s.metrics.ObserveTable(s.Name(), "delete_row")
	defer func() { done(err) }()

	if rowIndex < 0 {
		return ErrRowNotFound
	}
	id, err := s.sheetID(ctx, sheet)
	if err != nil {
		return err
	}

	// Grid indexes are 0-based and include the header row.
	start := int64(rowIndex + 1)
	_, err = s.svc.Spreadsheets.BatchUpdate(s.spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			DeleteDimension: &sheets.DeleteDimensionRequest{
				Range: &sheets.DimensionRange{
					SheetId:         id,
					Dimension:       "ROWS",
					StartIndex:      start,
					EndIndex:        start + 1,
					ForceSendFields: []string{"SheetId", "StartIndex"},
				},
			},
		}},
	}).Context(ctx).Do()
	return err
}

func (s *Sheets) SheetNames(ctx context.Context) (names []string, err error) {
	done := s.metrics.ObserveTable(s.Name(), "sheet_names")
	defer func() { done(err) }()

	if err := s.refresh(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	names = make([]string, 0, len(s.sheetIDs))
	for name := range s.sheetIDs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (s *Sheets) sheetID(ctx context.Context, sheet string) (int64, error) {
	s.mu.Lock()
	id, ok := s.sheetIDs[sheet]
	s.mu.Unlock()
	if ok {
		return id, nil
	}

	if err := s.refresh(ctx); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.sheetIDs[sheet]; ok {
		return id, nil
	}
	return 0, fmt.Errorf("%w: %s", ErrSheetNotFound, sheet)
}

func (s *Sheets) refresh(ctx context.Context) error {
	doc, err := s.svc.Spreadsheets.Get(s.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("load spreadsheet metadata: %w", err)
	}
	ids := make(map[string]int64, len(doc.Sheets))
	for _, sh := range doc.Sheets {
		if sh.Properties != nil {
			ids[sh.Properties.Title] = sh.Properties.SheetId
		}
	}
	s.mu.Lock()
	s.sheetIDs = ids
	s.mu.Unlock()
	return nil
}

// a1 builds a quoted A1 range such as 'My Sheet'!A2:ZZ.
func a1(sheet, rng string) string {
	return "'" + strings.ReplaceAll(sheet, "'", "''") + "'!" + rng
}

func toValues(row []string) []interface{} {
	out := make([]interface{}, len(row))
	for i, v := range row {
		out[i] = v
	}
	return out
}
