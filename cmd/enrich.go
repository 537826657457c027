package cmd

import (
	"github.com/lehigh-university-libraries/bookfill/internal/enrichcmd"
	"github.com/spf13/cobra"
)

func newEnrichCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "enrich",
		Short: "Catalog enrichment tools",
		Long: `Commands for enriching the catalog: run the full pipeline, validate the
sheet structure against the field mapping, or snapshot the sheet before
making changes by hand.`,
	}

	// Add enrich subcommands
	cmd.AddCommand(enrichcmd.NewRunCmd())
	cmd.AddCommand(enrichcmd.NewValidateCmd())
	cmd.AddCommand(enrichcmd.NewBackupCmd())

	return cmd
}
