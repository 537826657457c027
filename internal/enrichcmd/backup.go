package enrichcmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/bookfill/internal/backup"
	"github.com/lehigh-university-libraries/bookfill/internal/config"
)

// NewBackupCmd creates the backup command: a standalone snapshot of the row
// store, the same snapshot run takes before writing.
func NewBackupCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:     "backup",
		Short:   "Snapshot the catalog to a Parquet file",
		Example: `  bookfill enrich backup --config config.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return executeBackup(cmd.Context(), configPath)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "config.yaml", "Path to the run configuration file")

	return cmd
}

func executeBackup(ctx context.Context, configPath string) error {
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

	rows, err := rowStore.ReadRows(ctx)
	if err != nil {
		return fmt.Errorf("read rows: %w", err)
	}

	runID := strings.Split(uuid.NewString(), "-")[0]
	path, err := backup.Snapshot(rows, rowStore.Columns(), cfg.BackupDir, runID)
	if err != nil {
		return err
	}

	fmt.Printf("Backup saved to: %s\n", path)
	return nil
}
