// Package store provides the tabular row stores bookfill reads from and
// writes back to: a Google Sheet or a local xlsx workbook.
package store

import (
	"context"
	"fmt"
)

// Row is one data row. Index is the 1-based sheet row number; the header
// occupies row 1, so data rows start at 2.
type Row struct {
	Index  int
	Fields map[string]string
}

// RowStore is the contract the pipeline consumes. Implementations must keep
// ReadRows ordered by row index.
type RowStore interface {
	// Columns returns the header row in sheet order. ReadRows must be
	// called first.
	Columns() []string
	ReadRows(ctx context.Context) ([]Row, error)
	WriteCell(ctx context.Context, rowIndex int, column, value string) error
	Close() error
}

// ErrorKind categorizes store failures.
type ErrorKind string

const (
	ErrNotFound    ErrorKind = "not_found"
	ErrWriteFailed ErrorKind = "write_failed"
)

// Error is a row store failure. Write failures are reported per cell and do
// not halt subsequent writes.
type Error struct {
	Kind   ErrorKind
	Detail string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("store: %s: %s: %v", e.Kind, e.Detail, e.Err)
	}
	return fmt.Sprintf("store: %s: %s", e.Kind, e.Detail)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// columnIndex resolves a header name to its 1-based column number.
func columnIndex(columns []string, name string) (int, bool) {
	for i, c := range columns {
		if c == name {
			return i + 1, true
		}
	}
	return 0, false
}
