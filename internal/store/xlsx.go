package store

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// XLSXStore reads and writes a local .xlsx workbook, for catalogs kept on
// disk instead of in a Google Sheet.
type XLSXStore struct {
	path      string
	sheetName string
	file      *excelize.File

	columns  []string
	rowCount int
}

// NewXLSX opens the workbook at path.
func NewXLSX(path, sheetName string) (*XLSXStore, error) {
	file, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", path, err)
	}
	if index, err := file.GetSheetIndex(sheetName); err != nil || index == -1 {
		file.Close()
		return nil, &Error{Kind: ErrNotFound, Detail: fmt.Sprintf("sheet %q not in workbook %s", sheetName, path)}
	}
	return &XLSXStore{path: path, sheetName: sheetName, file: file}, nil
}

// Columns implements RowStore.
func (x *XLSXStore) Columns() []string {
	out := make([]string, len(x.columns))
	copy(out, x.columns)
	return out
}

// ReadRows implements RowStore.
func (x *XLSXStore) ReadRows(ctx context.Context) ([]Row, error) {
	raw, err := x.file.GetRows(x.sheetName)
	if err != nil {
		return nil, &Error{Kind: ErrNotFound, Detail: fmt.Sprintf("read sheet %q", x.sheetName), Err: err}
	}
	if len(raw) == 0 {
		return nil, &Error{Kind: ErrNotFound, Detail: fmt.Sprintf("sheet %q is empty", x.sheetName)}
	}

	x.columns = append(x.columns[:0], raw[0]...)
	x.rowCount = len(raw)

	rows := make([]Row, 0, len(raw)-1)
	for i, cells := range raw[1:] {
		fields := make(map[string]string, len(x.columns))
		for j, column := range x.columns {
			if j < len(cells) {
				fields[column] = cells[j]
			} else {
				fields[column] = ""
			}
		}
		rows = append(rows, Row{Index: i + 2, Fields: fields})
	}

	return rows, nil
}

// WriteCell implements RowStore. Each write saves the workbook so a partial
// run still leaves the applied cells on disk.
func (x *XLSXStore) WriteCell(ctx context.Context, rowIndex int, column, value string) error {
	if err := ctx.Err(); err != nil {
		return &Error{Kind: ErrWriteFailed, Detail: "write cancelled", Err: err}
	}
	if rowIndex < 2 || rowIndex > x.rowCount {
		return &Error{Kind: ErrNotFound, Detail: fmt.Sprintf("row %d out of range", rowIndex)}
	}
	col, ok := columnIndex(x.columns, column)
	if !ok {
		return &Error{Kind: ErrNotFound, Detail: fmt.Sprintf("column %q not in header", column)}
	}

	cell, err := excelize.CoordinatesToCellName(col, rowIndex)
	if err != nil {
		return &Error{Kind: ErrWriteFailed, Detail: fmt.Sprintf("cell name for column %d row %d", col, rowIndex), Err: err}
	}
	if err := x.file.SetCellValue(x.sheetName, cell, value); err != nil {
		return &Error{Kind: ErrWriteFailed, Detail: fmt.Sprintf("set %s", cell), Err: err}
	}
	if err := x.file.Save(); err != nil {
		return &Error{Kind: ErrWriteFailed, Detail: fmt.Sprintf("save %s", x.path), Err: err}
	}
	return nil
}

// Close implements RowStore.
func (x *XLSXStore) Close() error {
	return x.file.Close()
}
