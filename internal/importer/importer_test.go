package importer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"gitea.jw6.us/james/tiptrack/internal/shifts"
	"gitea.jw6.us/james/tiptrack/internal/store"
)

type fakeShiftRepo struct {
	mu        sync.Mutex
	inserted  []shifts.Draft
	insertErr error
	failAfter int
}

func (f *fakeShiftRepo) ListByOwner(ctx context.Context, ownerID int64) ([]shifts.Record, error) {
	return []shifts.Record{}, nil
}

func (f *fakeShiftRepo) Insert(ctx context.Context, d shifts.Draft) (*shifts.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil && len(f.inserted) >= f.failAfter {
		return nil, &store.WriteError{OwnerID: d.OwnerID, Err: f.insertErr}
	}
	f.inserted = append(f.inserted, d)
	return &shifts.Record{ID: fmt.Sprintf("id-%d", len(f.inserted)), OwnerID: d.OwnerID, Date: d.Date}, nil
}

type fakeUsers struct {
	store.UserRepository
	byEmail map[string]*store.User
	err     error
}

func (f *fakeUsers) GetByEmail(ctx context.Context, email string) (*store.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.byEmail[email], nil
}

func seededDB(t *testing.T) (string, *sql.DB) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tip_data.db")
	n, err := SeedLocal(context.Background(), path)
	require.NoError(t, err)
	require.Equal(t, len(sampleShifts), n)

	db, err := OpenLegacy(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return path, db
}

func TestSeedLocalIsIdempotent(t *testing.T) {
	path, _ := seededDB(t)

	n, err := SeedLocal(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestReadLegacy(t *testing.T) {
	_, db := seededDB(t)

	rows, err := ReadLegacy(context.Background(), db)
	require.NoError(t, err)
	require.Len(t, rows, 5)

	assert.Equal(t, int64(1), rows[0].ShiftID)
	assert.Equal(t, "2025-09-30", rows[0].Date.String)
	assert.Equal(t, "Tue", rows[0].DayOfWeek.String)
	assert.Equal(t, "3.83", rows[0].HoursWorked.String)
	assert.Equal(t, "64.57", rows[0].TipsEarned.String)
}

func TestRunMigratesEveryRow(t *testing.T) {
	_, db := seededDB(t)
	repo := &fakeShiftRepo{}
	core, logs := observer.New(zap.InfoLevel)

	report, err := New(repo, zap.New(core)).Run(context.Background(), db, 42, Options{})
	require.NoError(t, err)

	assert.Equal(t, 5, report.Read)
	assert.Equal(t, 5, report.Migrated)
	assert.Empty(t, report.Skipped)
	require.Len(t, repo.inserted, 5)

	last := repo.inserted[4]
	assert.Equal(t, int64(42), last.OwnerID)
	assert.Equal(t, "2025-10-04", last.Date.String())
	assert.Equal(t, shifts.PeriodPM, last.Period)
	assert.InDelta(t, 4.71, last.HoursWorked, 1e-9)
	assert.InDelta(t, 83.61, last.TipsEarned, 1e-9)

	assert.Equal(t, 1, logs.FilterMessage("legacy migration finished").Len())
}

func TestRunDryRunWritesNothing(t *testing.T) {
	_, db := seededDB(t)
	repo := &fakeShiftRepo{}

	report, err := New(repo, nil).Run(context.Background(), db, 42, Options{DryRun: true})
	require.NoError(t, err)

	assert.True(t, report.DryRun)
	assert.Equal(t, 5, report.Migrated)
	assert.Empty(t, repo.inserted)
}

func TestRunSkipsInvalidRows(t *testing.T) {
	path, _ := seededDB(t)

	rw, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	_, err = rw.Exec(`INSERT INTO tips (shift_id, date, day_of_week, am_or_pm, hours_worked, tips_earned) VALUES
		(6, '2025-10-05', 'Sun', 'PM', 4.0, NULL),
		(7, '10/06/2025', 'Mon', 'AM', 3.5, 40),
		(8, '2025-10-07', 'Tue', 'AM', 'n/a', 12)`)
	require.NoError(t, err)
	require.NoError(t, rw.Close())

	db, err := OpenLegacy(path)
	require.NoError(t, err)
	defer db.Close()

	repo := &fakeShiftRepo{}
	report, err := New(repo, nil).Run(context.Background(), db, 1, Options{})
	require.NoError(t, err)

	assert.Equal(t, 8, report.Read)
	assert.Equal(t, 5, report.Migrated)
	require.Len(t, report.Skipped, 3)
	assert.Equal(t, Skipped{ShiftID: 6, Reason: "tips_earned: is required"}, report.Skipped[0])
	assert.Equal(t, Skipped{ShiftID: 7, Reason: "date: must be a YYYY-MM-DD date"}, report.Skipped[1])
	assert.Equal(t, Skipped{ShiftID: 8, Reason: "hours_worked: must be a number"}, report.Skipped[2])
}

func TestRunStopsOnStoreFailure(t *testing.T) {
	_, db := seededDB(t)
	repo := &fakeShiftRepo{insertErr: errors.New("connection reset"), failAfter: 2}

	report, err := New(repo, nil).Run(context.Background(), db, 1, Options{})

	var writeErr *store.WriteError
	require.ErrorAs(t, err, &writeErr)
	assert.Equal(t, 2, report.Migrated)
}

func TestOpenLegacyMissingFile(t *testing.T) {
	_, err := OpenLegacy(filepath.Join(t.TempDir(), "missing.db"))
	require.Error(t, err)
}

func TestResolveOwner(t *testing.T) {
	owner := &store.User{ID: 9, Email: "owner@example.com"}
	users := &fakeUsers{byEmail: map[string]*store.User{owner.Email: owner}}

	got, err := ResolveOwner(context.Background(), users, "owner@example.com")
	require.NoError(t, err)
	assert.Equal(t, int64(9), got.ID)

	_, err = ResolveOwner(context.Background(), users, "nobody@example.com")
	assert.ErrorIs(t, err, ErrUnknownOwner)

	_, err = ResolveOwner(context.Background(), &fakeUsers{err: errors.New("down")}, "owner@example.com")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnknownOwner)
}
