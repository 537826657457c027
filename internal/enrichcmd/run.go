// Package enrichcmd implements the enrich subcommands: run, validate, and
// backup.
package enrichcmd

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/bookfill/internal/backup"
	"github.com/lehigh-university-libraries/bookfill/internal/config"
	"github.com/lehigh-university-libraries/bookfill/internal/metadata"
	"github.com/lehigh-university-libraries/bookfill/internal/pipeline"
	"github.com/lehigh-university-libraries/bookfill/internal/providers"
	"github.com/lehigh-university-libraries/bookfill/internal/store"
	"github.com/lehigh-university-libraries/bookfill/internal/transport"
)

// NewRunCmd creates the run command: the full fetch-match-merge-write
// pipeline.
func NewRunCmd() *cobra.Command {
	var configPath string
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Enrich the catalog with metadata from Google Books and Open Library",
		Long: `Reads every row of the configured catalog, looks up titles with missing
fields against the configured providers, reconciles the answers, and writes
the missing cells back.

Rows with an empty Title cell are skipped. Cells that already hold a value
are never overwritten.`,
		Example: `  # Enrich using config.yaml in the working directory
  bookfill enrich run

  # Show what would change without writing anything
  bookfill enrich run --dry-run`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return executeRun(cmd.Context(), configPath, dryRun)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "config.yaml", "Path to the run configuration file")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Compute outcomes but skip all writes")

	return cmd
}

func executeRun(ctx context.Context, configPath string, dryRun bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if dryRun {
		cfg.DryRun = true
	}
	setupLogging(cfg.LogLevel)

	runID := strings.Split(uuid.NewString(), "-")[0]
	slog.Info("Starting enrichment run",
		"run_id", runID, "store", cfg.Store, "providers", cfg.Providers, "dry_run", cfg.DryRun)

	// Fail the whole run early when offline instead of burning the retry
	// budget on every item.
	if err := transport.Probe(ctx); err != nil {
		return fmt.Errorf("connectivity check failed: %w", err)
	}

	rowStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer rowStore.Close()

	slog.Info("Fetching existing records...")
	rows, err := rowStore.ReadRows(ctx)
	if err != nil {
		return fmt.Errorf("read rows: %w", err)
	}
	if len(rows) == 0 {
		slog.Warn("No records found in the sheet")
		return nil
	}

	if cfg.BackupEnabled && !cfg.DryRun {
		if _, err := backup.Snapshot(rows, rowStore.Columns(), cfg.BackupDir, runID); err != nil {
			return fmt.Errorf("backup before writes: %w", err)
		}
	}

	columnFor := reverseMapping(cfg.FieldMapping)
	stats := pipeline.NewStats(columnFor)
	items := collectItems(cfg, rows, stats)
	slog.Info("Collected items needing enrichment",
		"rows", len(rows), "items", len(items), "skipped", len(rows)-len(items))

	tr := transport.New(transport.Options{
		Attempts:  cfg.RetryAttempts,
		Backoff:   cfg.Backoff(),
		RateDelay: cfg.RateDelay(),
	})

	scheduler := &pipeline.Scheduler{
		Providers:    buildProviders(cfg, tr),
		TargetFields: targetFields(cfg),
		Threshold:    cfg.MatchThreshold,
		Concurrency:  cfg.MaxWorkers,
		BatchSize:    cfg.BatchSize,
		BatchPause:   cfg.Pause(),
	}

	for outcome := range scheduler.Run(ctx, items) {
		stats.Record(outcome)
		switch outcome.Status {
		case pipeline.StatusMatched:
			slog.Info("Found metadata",
				"row", outcome.Item.RowIndex, "title", outcome.Item.Title,
				"fields", len(outcome.Record.Values), "scores", outcome.Scores)
		case pipeline.StatusNoMatch:
			slog.Warn("No metadata found",
				"row", outcome.Item.RowIndex, "title", outcome.Item.Title)
		case pipeline.StatusFailed:
			slog.Error("Item failed",
				"row", outcome.Item.RowIndex, "title", outcome.Item.Title,
				"kind", outcome.ErrKind, "err", outcome.Err)
		}
	}

	applied, failedWrites := applyWrites(ctx, cfg, rowStore, stats.Writes())

	summary := stats.Summary()
	fmt.Println(renderSummary(summary, applied, failedWrites, cfg.DryRun))

	slog.Info("Run completed",
		"run_id", runID,
		"processed", summary.Processed, "matched", summary.Matched,
		"no_match", summary.NoMatch, "failed", summary.Failed,
		"skipped", summary.Skipped, "writes_applied", applied, "writes_failed", failedWrites)

	return nil
}

// collectItems turns store rows into pipeline items. Rows with an empty
// title, or with nothing left to fill, never enter the pipeline and count as
// skipped.
func collectItems(cfg config.Config, rows []store.Row, stats *pipeline.Stats) []pipeline.QueryItem {
	titleColumn := cfg.TitleColumn()

	var items []pipeline.QueryItem
	for _, row := range rows {
		title := strings.TrimSpace(row.Fields[titleColumn])
		if title == "" {
			stats.RecordSkipped()
			continue
		}

		existing := make(map[string]string, len(cfg.FieldMapping))
		hasGap := false
		for column, field := range cfg.FieldMapping {
			value := row.Fields[column]
			existing[field] = value
			if field != metadata.FieldTitle && strings.TrimSpace(value) == "" {
				hasGap = true
			}
		}
		if !hasGap {
			stats.RecordSkipped()
			continue
		}

		items = append(items, pipeline.QueryItem{
			RowIndex: row.Index,
			Title:    title,
			Existing: existing,
		})
	}
	return items
}

// applyWrites pushes the pending writes to the store. A failed write is
// logged and counted, never fatal.
func applyWrites(ctx context.Context, cfg config.Config, rowStore store.RowStore, writes []pipeline.CellWrite) (applied, failed int) {
	for _, w := range writes {
		if cfg.DryRun {
			slog.Info("DRY RUN - would update cell",
				"row", w.RowIndex, "column", w.Column, "value", w.Value, "source", w.Provider)
			applied++
			continue
		}
		if err := rowStore.WriteCell(ctx, w.RowIndex, w.Column, w.Value); err != nil {
			slog.Error("Failed to update cell",
				"row", w.RowIndex, "column", w.Column, "err", err)
			failed++
			continue
		}
		slog.Debug("Updated cell",
			"row", w.RowIndex, "column", w.Column, "value", w.Value, "source", w.Provider)
		applied++
	}
	return applied, failed
}

func openStore(ctx context.Context, cfg config.Config) (store.RowStore, error) {
	switch cfg.Store {
	case "xlsx":
		return store.NewXLSX(cfg.StorePath, cfg.SheetName)
	default:
		return store.NewSheets(ctx, cfg.CredentialsFile, cfg.SpreadsheetID, cfg.SheetName)
	}
}

func buildProviders(cfg config.Config, tr *transport.Transport) []providers.Provider {
	out := make([]providers.Provider, 0, len(cfg.Providers))
	for _, name := range cfg.Providers {
		switch name {
		case config.ProviderGoogleBooks:
			out = append(out, providers.NewGoogleBooks(tr, ""))
		case config.ProviderOpenLibrary:
			out = append(out, providers.NewOpenLibrary(tr, ""))
		}
	}
	return out
}

// targetFields returns the mapped internal fields in the stable vocabulary
// order, so merge output is deterministic.
func targetFields(cfg config.Config) []string {
	mapped := make(map[string]bool, len(cfg.FieldMapping))
	for _, field := range cfg.FieldMapping {
		mapped[field] = true
	}

	var fields []string
	for _, field := range metadata.KnownFields() {
		if mapped[field] {
			fields = append(fields, field)
		}
	}
	return fields
}

// reverseMapping inverts column -> field into field -> column. When two
// columns map to the same field the lexicographically first column wins.
func reverseMapping(fieldMapping map[string]string) map[string]string {
	columns := make([]string, 0, len(fieldMapping))
	for column := range fieldMapping {
		columns = append(columns, column)
	}
	sort.Strings(columns)

	out := make(map[string]string, len(fieldMapping))
	for _, column := range columns {
		field := fieldMapping[column]
		if _, ok := out[field]; !ok {
			out[field] = column
		}
	}
	return out
}
