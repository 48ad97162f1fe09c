// Command tipmigrate checks the record store and moves shifts from the
// legacy local SQLite database into it.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"gitea.jw6.us/james/tiptrack/internal/logging"
)

var (
	logger *zap.Logger

	verbose    bool
	timeout    time.Duration
	sqlitePath string
	ownerEmail string
	dryRun     bool
)

var rootCmd = &cobra.Command{
	Use:   "tipmigrate",
	Short: "TipTrack data tools",
	Long: `Maintenance tools for TipTrack.

The database connection comes from APP_DB_DSN (or APP_DB_HOST, APP_DB_NAME,
APP_DB_USER and APP_DB_PASSWORD), optionally via APP_CONFIG_FILE.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if logger != nil {
			return nil
		}
		level := "info"
		if verbose {
			level = "debug"
		}
		l, err := logging.New(level, "console")
		if err != nil {
			return fmt.Errorf("build logger: %w", err)
		}
		logger = l
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 5*time.Minute, "Operation timeout")

	seedLocalCmd.Flags().StringVar(&sqlitePath, "sqlite", "", "Path of the legacy SQLite database to create")
	_ = seedLocalCmd.MarkFlagRequired("sqlite")

	runCmd.Flags().StringVar(&sqlitePath, "sqlite", "", "Path of the legacy SQLite database")
	runCmd.Flags().StringVar(&ownerEmail, "owner", "", "E-mail of the account that will own the migrated shifts")
	runCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Validate every row without writing")
	_ = runCmd.MarkFlagRequired("sqlite")
	_ = runCmd.MarkFlagRequired("owner")

	checkCmd.Flags().StringVar(&ownerEmail, "owner", "", "Also count the shifts owned by this account")

	rootCmd.AddCommand(checkCmd, seedLocalCmd, runCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
