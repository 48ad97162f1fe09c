package importer

import (
	"context"
	"database/sql"
	"fmt"
)

type sampleShift struct {
	id          int64
	date        string
	day         string
	period      string
	hoursWorked float64
	tipsEarned  float64
}

var sampleShifts = []sampleShift{
	{1, "2025-09-30", "Tue", "AM", 3.83, 64.57},
	{2, "2025-10-01", "Wed", "PM", 4.98, 54.06},
	{3, "2025-10-02", "Thu", "AM", 3.84, 63.18},
	{4, "2025-10-03", "Fri", "AM", 3.20, 46.99},
	{5, "2025-10-04", "Sat", "PM", 4.71, 83.61},
}

const legacySchema = `
CREATE TABLE IF NOT EXISTS tips (
	shift_id INTEGER PRIMARY KEY,
	date TEXT,
	day_of_week TEXT,
	am_or_pm TEXT,
	hours_worked DECIMAL,
	tips_earned DECIMAL
)`

// SeedLocal creates a legacy database at path holding the sample shifts.
// Running it again leaves existing rows alone. It returns the number of rows
// inserted.
func SeedLocal(ctx context.Context, path string) (int, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return 0, fmt.Errorf("open legacy database: %w", err)
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, legacySchema); err != nil {
		return 0, fmt.Errorf("create tips table: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin seed: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	inserted := 0
	for _, s := range sampleShifts {
		res, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO tips (shift_id, date, day_of_week, am_or_pm, hours_worked, tips_earned)
			VALUES (?, ?, ?, ?, ?, ?)`,
			s.id, s.date, s.day, s.period, s.hoursWorked, s.tipsEarned)
		if err != nil {
			return 0, fmt.Errorf("insert sample shift %d: %w", s.id, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			inserted += int(n)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit seed: %w", err)
	}
	return inserted, nil
}
