package store

import (
	"context"
	"fmt"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// SheetsStore reads and writes a Google Sheet through the Sheets API using a
// service account.
type SheetsStore struct {
	service       *sheets.Service
	spreadsheetID string
	sheetName     string

	columns  []string
	rowCount int
}

// NewSheets connects to the spreadsheet. credentialsFile is a service
// account JSON key with spreadsheet scope.
func NewSheets(ctx context.Context, credentialsFile, spreadsheetID, sheetName string) (*SheetsStore, error) {
	if spreadsheetID == "" {
		return nil, fmt.Errorf("spreadsheet_id is required for the sheets store")
	}

	service, err := sheets.NewService(ctx,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(sheets.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return &SheetsStore{
		service:       service,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
	}, nil
}

// Columns implements RowStore.
func (s *SheetsStore) Columns() []string {
	out := make([]string, len(s.columns))
	copy(out, s.columns)
	return out
}

// ReadRows implements RowStore. The first sheet row is treated as the header.
func (s *SheetsStore) ReadRows(ctx context.Context) ([]Row, error) {
	resp, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, s.sheetName).Context(ctx).Do()
	if err != nil {
		return nil, &Error{Kind: ErrNotFound, Detail: fmt.Sprintf("read sheet %q", s.sheetName), Err: err}
	}
	if len(resp.Values) == 0 {
		return nil, &Error{Kind: ErrNotFound, Detail: fmt.Sprintf("sheet %q is empty", s.sheetName)}
	}

	s.columns = s.columns[:0]
	for _, cell := range resp.Values[0] {
		s.columns = append(s.columns, fmt.Sprint(cell))
	}
	s.rowCount = len(resp.Values)

	rows := make([]Row, 0, len(resp.Values)-1)
	for i, raw := range resp.Values[1:] {
		fields := make(map[string]string, len(s.columns))
		for j, column := range s.columns {
			if j < len(raw) {
				fields[column] = fmt.Sprint(raw[j])
			} else {
				fields[column] = ""
			}
		}
		rows = append(rows, Row{Index: i + 2, Fields: fields})
	}

	return rows, nil
}

// WriteCell implements RowStore.
func (s *SheetsStore) WriteCell(ctx context.Context, rowIndex int, column, value string) error {
	if rowIndex < 2 || rowIndex > s.rowCount {
		return &Error{Kind: ErrNotFound, Detail: fmt.Sprintf("row %d out of range", rowIndex)}
	}
	col, ok := columnIndex(s.columns, column)
	if !ok {
		return &Error{Kind: ErrNotFound, Detail: fmt.Sprintf("column %q not in header", column)}
	}

	cellRange := fmt.Sprintf("%s!%s%d", s.sheetName, columnLetter(col), rowIndex)
	body := &sheets.ValueRange{Values: [][]interface{}{{value}}}
	_, err := s.service.Spreadsheets.Values.Update(s.spreadsheetID, cellRange, body).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return &Error{Kind: ErrWriteFailed, Detail: fmt.Sprintf("update %s", cellRange), Err: err}
	}
	return nil
}

// Close implements RowStore. The Sheets API is stateless, nothing to flush.
func (s *SheetsStore) Close() error {
	return nil
}

// columnLetter converts a 1-based column number to its A1 letter form.
func columnLetter(col int) string {
	letters := ""
	for col > 0 {
		col--
		letters = string(rune('A'+col%26)) + letters
		col /= 26
	}
	return letters
}
