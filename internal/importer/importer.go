// Package importer moves shifts from the legacy local SQLite database into
// the record store. Every legacy row goes through the same validation as a
// shift saved from the dashboard.
package importer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"gitea.jw6.us/james/tiptrack/internal/metrics"
	"gitea.jw6.us/james/tiptrack/internal/shifts"
	"gitea.jw6.us/james/tiptrack/internal/store"
)

// ErrUnknownOwner is returned when the owner email has no account.
var ErrUnknownOwner = errors.New("no account with that email")

// LegacyRow is one row of the legacy tips table. Amounts are kept as text
// so that bad values reach validation instead of failing the scan.
type LegacyRow struct {
	ShiftID     int64
	Date        sql.NullString
	DayOfWeek   sql.NullString
	Period      sql.NullString
	HoursWorked sql.NullString
	TipsEarned  sql.NullString
}

func (r LegacyRow) input() shifts.DraftInput {
	return shifts.DraftInput{
		Date:        r.Date.String,
		DayOfWeek:   r.DayOfWeek.String,
		Period:      r.Period.String,
		HoursWorked: r.HoursWorked.String,
		TipsEarned:  r.TipsEarned.String,
	}
}

// Skipped describes a legacy row that was not migrated.
type Skipped struct {
	ShiftID int64
	Reason  string
}

// Report summarises a migration run.
type Report struct {
	Read     int
	Migrated int
	Skipped  []Skipped
	DryRun   bool
}

// Options control a migration run.
type Options struct {
	// DryRun validates every row without writing to the store.
	DryRun bool
}

type Importer struct {
	shifts store.ShiftRepository
	logger *zap.Logger
}

func New(shifts store.ShiftRepository, logger *zap.Logger) *Importer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Importer{shifts: shifts, logger: logger}
}

// OpenLegacy opens an existing legacy database read-only.
func OpenLegacy(path string) (*sql.DB, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("legacy database: %w", err)
	}
	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("open legacy database: %w", err)
	}
	return db, nil
}

// ReadLegacy returns every legacy row ordered by shift id.
func ReadLegacy(ctx context.Context, db *sql.DB) ([]LegacyRow, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT shift_id, date, day_of_week, am_or_pm, hours_worked, tips_earned
		FROM tips
		ORDER BY shift_id`)
	if err != nil {
		return nil, fmt.Errorf("query legacy tips: %w", err)
	}
	defer rows.Close()

	var out []LegacyRow
	for rows.Next() {
		var r LegacyRow
		if err := rows.Scan(&r.ShiftID, &r.Date, &r.DayOfWeek, &r.Period, &r.HoursWorked, &r.TipsEarned); err != nil {
			return nil, fmt.Errorf("scan legacy tip: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read legacy tips: %w", err)
	}
	return out, nil
}

// ResolveOwner looks up the account the migrated shifts will belong to.
func ResolveOwner(ctx context.Context, users store.UserRepository, email string) (*store.User, error) {
	user, err := users.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("look up owner: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownOwner, email)
	}
	return user, nil
}

// Run migrates every legacy row for ownerID. Rows that fail validation are
// skipped and reported; a store failure stops the run and returns the report
// so far.
func (im *Importer) Run(ctx context.Context, db *sql.DB, ownerID int64, opts Options) (Report, error) {
	report := Report{DryRun: opts.DryRun}

	rows, err := ReadLegacy(ctx, db)
	if err != nil {
		return report, err
	}
	report.Read = len(rows)
	im.logger.Info("legacy shifts found", zap.Int("count", len(rows)), zap.Bool("dry_run", opts.DryRun))

	for _, row := range rows {
		draft, err := row.input().Validate(ownerID)
		if err != nil {
			im.logger.Warn("skipping legacy shift", zap.Int64("shift_id", row.ShiftID), zap.Error(err))
			report.Skipped = append(report.Skipped, Skipped{ShiftID: row.ShiftID, Reason: err.Error()})
			continue
		}
		if opts.DryRun {
			report.Migrated++
			continue
		}

		rec, err := im.shifts.Insert(ctx, draft)
		if err != nil {
			return report, fmt.Errorf("migrate legacy shift %d: %w", row.ShiftID, err)
		}
		metrics.ShiftCreated("import")
		im.logger.Debug("migrated legacy shift", zap.Int64("shift_id", row.ShiftID), zap.String("id", rec.ID), zap.String("date", rec.Date.String()))
		report.Migrated++
	}

	im.logger.Info("legacy migration finished",
		zap.Int("migrated", report.Migrated),
		zap.Int("skipped", len(report.Skipped)),
		zap.Bool("dry_run", opts.DryRun),
	)
	return report, nil
}
