package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"gitea.jw6.us/james/tiptrack/internal/config"
	"gitea.jw6.us/james/tiptrack/internal/importer"
	"gitea.jw6.us/james/tiptrack/internal/store"
)

// checkCmd verifies the record store is reachable.
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Test the record store connection",
	Args:  cobra.NoArgs,
	RunE:  runCheck,
}

// seedLocalCmd creates a legacy database with sample shifts.
var seedLocalCmd = &cobra.Command{
	Use:   "seed-local",
	Short: "Create a legacy SQLite database holding sample shifts",
	Args:  cobra.NoArgs,
	RunE:  runSeedLocal,
}

// runCmd migrates legacy shifts into the record store.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Migrate shifts from a legacy SQLite database",
	Long: `Reads every row of the legacy tips table, validates it like a shift
entered on the dashboard and stores it for the given account. Invalid rows are
skipped and listed.`,
	Args: cobra.NoArgs,
	RunE: runMigrate,
}

func openStore(ctx context.Context) (*pgxpool.Pool, *store.Store, error) {
	dsn, err := config.LoadDSN()
	if err != nil {
		return nil, nil, err
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("create db pool: %w", err)
	}
	return pool, store.New(pool), nil
}

func runCheck(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	pool, stor, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := stor.HealthCheck(ctx); err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Connection successful.")

	if ownerEmail == "" {
		return nil
	}
	owner, err := importer.ResolveOwner(ctx, stor.Users, ownerEmail)
	if err != nil {
		return err
	}
	records, err := stor.Shifts.ListByOwner(ctx, owner.ID)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s owns %d shifts.\n", owner.Email, len(records))
	if len(records) > 0 {
		r := records[0]
		fmt.Fprintf(cmd.OutOrStdout(), "Earliest: %s %s %s, %.2f hours, %.2f tips\n", r.Date, r.DayOfWeek, r.Period, r.HoursWorked, r.TipsEarned)
	}
	return nil
}

func runSeedLocal(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	n, err := importer.SeedLocal(ctx, sqlitePath)
	if err != nil {
		return err
	}
	logger.Info("legacy database seeded", zap.String("path", sqlitePath), zap.Int("inserted", n))
	fmt.Fprintf(cmd.OutOrStdout(), "Database %q has been created and populated with %d sample shifts.\n", sqlitePath, n)
	return nil
}

func runMigrate(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	legacy, err := importer.OpenLegacy(sqlitePath)
	if err != nil {
		return err
	}
	defer legacy.Close()

	pool, stor, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	owner, err := importer.ResolveOwner(ctx, stor.Users, ownerEmail)
	if err != nil {
		return err
	}

	report, err := importer.New(stor.Shifts, logger).Run(ctx, legacy, owner.ID, importer.Options{DryRun: dryRun})
	printReport(cmd, report)
	return err
}

func printReport(cmd *cobra.Command, report importer.Report) {
	out := cmd.OutOrStdout()
	verb := "Migrated"
	if report.DryRun {
		verb = "Would migrate"
	}
	fmt.Fprintf(out, "Found %d legacy shifts. %s %d, skipped %d.\n", report.Read, verb, report.Migrated, len(report.Skipped))
	for _, s := range report.Skipped {
		fmt.Fprintf(out, "  shift %d: %s\n", s.ShiftID, s.Reason)
	}
}
