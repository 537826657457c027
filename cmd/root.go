package cmd

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bookfill",
		Short: "Fill missing book metadata in a catalog spreadsheet",
		Long: `Bookfill enriches a catalog of books kept in a Google Sheet or a local
xlsx workbook. It looks up each title against Google Books and Open Library,
reconciles the answers, and fills in the empty cells.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
		},
	}

	// Add subcommands
	cmd.AddCommand(newEnrichCmd())

	return cmd
}
