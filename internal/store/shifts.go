package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"gitea.jw6.us/james/tiptrack/internal/shifts"
)

const shiftColumns = `id::text, user_id, date, day_of_week, am_or_pm, hours_worked::float8, tips_earned::float8`

// shiftRepo implements ShiftRepository over the tips table.
type shiftRepo struct {
	db DBTX
}

func scanShift(row pgx.Row) (shifts.Record, error) {
	var (
		rec    shifts.Record
		date   time.Time
		period string
	)
	if err := row.Scan(&rec.ID, &rec.OwnerID, &date, &rec.DayOfWeek, &period, &rec.HoursWorked, &rec.TipsEarned); err != nil {
		return shifts.Record{}, err
	}
	// DATE columns come back as midnight UTC; take the components as stored.
	rec.Date = shifts.DateOf(date)
	rec.Period = shifts.Period(period)
	return rec, nil
}

func (r *shiftRepo) ListByOwner(ctx context.Context, ownerID int64) ([]shifts.Record, error) {
	defer observeDB(ctx, "shifts.list_by_owner")()
	rows, err := r.db.Query(ctx, `SELECT `+shiftColumns+` FROM tips
WHERE user_id = $1
ORDER BY date ASC, created_at ASC`, ownerID)
	if err != nil {
		return nil, &FetchError{OwnerID: ownerID, Err: err}
	}
	defer rows.Close()

	records := []shifts.Record{}
	for rows.Next() {
		rec, err := scanShift(rows)
		if err != nil {
			return nil, &FetchError{OwnerID: ownerID, Err: err}
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, &FetchError{OwnerID: ownerID, Err: err}
	}
	return records, nil
}

func (r *shiftRepo) Insert(ctx context.Context, draft shifts.Draft) (*shifts.Record, error) {
	defer observeDB(ctx, "shifts.insert")()
	rec, err := scanShift(r.db.QueryRow(ctx, `INSERT INTO tips (user_id, date, day_of_week, am_or_pm, hours_worked, tips_earned)
VALUES ($1, $2::date, $3, $4, $5, $6)
RETURNING `+shiftColumns,
		draft.OwnerID, draft.Date.String(), draft.DayOfWeek, string(draft.Period), draft.HoursWorked, draft.TipsEarned))
	if err != nil {
		return nil, &WriteError{OwnerID: draft.OwnerID, Err: err}
	}
	return &rec, nil
}
