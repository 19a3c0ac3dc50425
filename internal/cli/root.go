package cli

import (
	"context"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "attendancectl",
	Short:         "Operator tooling for the attendance service",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var appVersion = "dev"

func init() {
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(recomputeCmd)
	rootCmd.AddCommand(reconcileCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(versionCmd)
}

// SetVersion records the build version printed by the version command.
func SetVersion(v string) {
	appVersion = v
}

func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}
