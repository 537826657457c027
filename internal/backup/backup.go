// Package backup snapshots the row store to a Parquet file before any cell
// is written, so a bad run can be undone by hand.
package backup

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/lehigh-university-libraries/bookfill/internal/store"
)

// CellRecord is one snapshotted cell. Flat records keep the schema trivial
// to inspect with any Parquet tooling.
type CellRecord struct {
	RowIndex int64  `parquet:"row_index"`
	Column   string `parquet:"column"`
	Value    string `parquet:"value"`
}

// Snapshot writes every cell of rows to a timestamped Parquet file in dir
// and returns its path. runID distinguishes snapshots taken within the same
// second.
func Snapshot(rows []store.Row, columns []string, dir, runID string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create backup directory: %w", err)
	}

	name := fmt.Sprintf("books_backup_%s_%s.parquet", time.Now().Format("20060102_150405"), runID)
	path := filepath.Join(dir, name)

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create backup file: %w", err)
	}
	defer file.Close()

	writer := parquet.NewGenericWriter[CellRecord](file)

	records := make([]CellRecord, 0, len(rows)*len(columns))
	for _, row := range rows {
		for _, column := range columns {
			records = append(records, CellRecord{
				RowIndex: int64(row.Index),
				Column:   column,
				Value:    row.Fields[column],
			})
		}
	}

	if _, err := writer.Write(records); err != nil {
		writer.Close()
		return "", fmt.Errorf("write backup records: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("close backup writer: %w", err)
	}

	slog.Info("Backup created", "path", path, "cells", len(records))
	return path, nil
}

// Load reads a snapshot back. Used to verify snapshots and to eyeball what a
// run changed.
func Load(path string) ([]CellRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open backup file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat backup file: %w", err)
	}

	pf, err := parquet.OpenFile(file, info.Size())
	if err != nil {
		return nil, fmt.Errorf("open parquet: %w", err)
	}

	reader := parquet.NewGenericReader[CellRecord](pf)
	defer reader.Close()

	var records []CellRecord
	batch := make([]CellRecord, 128)
	for {
		n, err := reader.Read(batch)
		if n > 0 {
			records = append(records, batch[:n]...)
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read backup records: %w", err)
		}
	}

	return records, nil
}
