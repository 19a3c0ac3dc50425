package cli

import (
	"fmt"

	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/database"
	"github.com/cmlabs-hris/hris-attendance-go/migrations"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending schema migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadEnv()
		if err != nil {
			return err
		}
		db, err := openDB(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		applied, err := database.Migrate(cmd.Context(), db, migrations.FS)
		if err != nil {
			return err
		}
		return printApplied(cmd, applied)
	},
}

func printApplied(cmd *cobra.Command, applied []string) error {
	w := cmd.OutOrStdout()
	if len(applied) == 0 {
		_, err := fmt.Fprintln(w, "Schema is up to date")
		return err
	}
	for _, version := range applied {
		if _, err := fmt.Fprintf(w, "applied %s\n", version); err != nil {
			return err
		}
	}
	return nil
}
