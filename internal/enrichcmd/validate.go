package enrichcmd

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/bookfill/internal/config"
)

// NewValidateCmd creates the validate command: checks that the store's
// header row covers every mapped column before a run is attempted.
func NewValidateCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the catalog structure against the field mapping",
		Long: `Opens the configured row store and verifies that every column named in
field_mapping exists in the header row. Exits non-zero when columns are
missing, so it can gate a scheduled run.`,
		Example: `  bookfill enrich validate --config config.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return executeValidate(cmd.Context(), configPath)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "config.yaml", "Path to the run configuration file")

	return cmd
}

func executeValidate(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	setupLogging(cfg.LogLevel)

	rowStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer rowStore.Close()

	if _, err := rowStore.ReadRows(ctx); err != nil {
		return fmt.Errorf("read rows: %w", err)
	}

	header := make(map[string]bool)
	for _, column := range rowStore.Columns() {
		header[column] = true
	}

	var missing []string
	for column := range cfg.FieldMapping {
		if !header[column] {
			missing = append(missing, column)
		}
	}

	if len(missing) > 0 {
		sort.Strings(missing)
		return &config.Error{
			Kind:   config.ErrInvalidMapping,
			Detail: fmt.Sprintf("columns missing from sheet header: %v", missing),
		}
	}

	slog.Info("Sheet structure validation passed", "columns", len(cfg.FieldMapping))
	return nil
}
