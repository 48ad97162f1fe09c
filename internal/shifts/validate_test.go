package shifts

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validInput() DraftInput {
	return DraftInput{
		Date:        "2025-10-01",
		DayOfWeek:   "Wed",
		Period:      "pm",
		HoursWorked: "4.98",
		TipsEarned:  "54.06",
	}
}

func TestDraftInputValidate(t *testing.T) {
	draft, err := validInput().Validate(42)
	require.NoError(t, err)

	assert.Equal(t, int64(42), draft.OwnerID)
	assert.Equal(t, Date{Year: 2025, Month: 10, Day: 1}, draft.Date)
	assert.Equal(t, "Wed", draft.DayOfWeek)
	assert.Equal(t, PeriodPM, draft.Period)
	assert.InDelta(t, 4.98, draft.HoursWorked, 1e-9)
	assert.InDelta(t, 54.06, draft.TipsEarned, 1e-9)
}

func TestDraftInputValidateRejects(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*DraftInput)
		wantField string
	}{
		{name: "missing date", mutate: func(in *DraftInput) { in.Date = "" }, wantField: "date"},
		{name: "blank day", mutate: func(in *DraftInput) { in.DayOfWeek = "   " }, wantField: "day_of_week"},
		{name: "missing period", mutate: func(in *DraftInput) { in.Period = "" }, wantField: "am_or_pm"},
		{name: "missing hours", mutate: func(in *DraftInput) { in.HoursWorked = "" }, wantField: "hours_worked"},
		{name: "missing tips", mutate: func(in *DraftInput) { in.TipsEarned = "" }, wantField: "tips_earned"},
		{name: "bad date", mutate: func(in *DraftInput) { in.Date = "10/01/2025" }, wantField: "date"},
		{name: "bad period", mutate: func(in *DraftInput) { in.Period = "noon" }, wantField: "am_or_pm"},
		{name: "non-numeric hours", mutate: func(in *DraftInput) { in.HoursWorked = "four" }, wantField: "hours_worked"},
		{name: "infinite hours", mutate: func(in *DraftInput) { in.HoursWorked = "Inf" }, wantField: "hours_worked"},
		{name: "zero hours", mutate: func(in *DraftInput) { in.HoursWorked = "0" }, wantField: "hours_worked"},
		{name: "non-numeric tips", mutate: func(in *DraftInput) { in.TipsEarned = "lots" }, wantField: "tips_earned"},
		{name: "nan tips", mutate: func(in *DraftInput) { in.TipsEarned = "NaN" }, wantField: "tips_earned"},
		{name: "negative tips", mutate: func(in *DraftInput) { in.TipsEarned = "-1" }, wantField: "tips_earned"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mutate(&in)

			_, err := in.Validate(1)
			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "expected ValidationError, got %v", err)
			assert.Equal(t, tt.wantField, verr.Field)
		})
	}
}

func TestDraftInputValidateAcceptsZeroTipsAndCurrency(t *testing.T) {
	in := validInput()
	in.TipsEarned = "$1,020.50"
	draft, err := in.Validate(1)
	require.NoError(t, err)
	assert.InDelta(t, 1020.5, draft.TipsEarned, 1e-9)

	in.TipsEarned = "0"
	draft, err = in.Validate(1)
	require.NoError(t, err)
	assert.Zero(t, draft.TipsEarned)
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in      string
		want    Date
		wantErr bool
	}{
		{in: "2024-01-05", want: Date{2024, 1, 5}},
		{in: " 2024-01-05 ", want: Date{2024, 1, 5}},
		{in: "2024-01-05T00:00:00Z", want: Date{2024, 1, 5}},
		{in: "2024-01-05T23:59:59-10:00", want: Date{2024, 1, 5}},
		{in: "2024-01-05 08:00:00", want: Date{2024, 1, 5}},
		{in: "2024-02-30", wantErr: true},
		{in: "2024-01-05X", wantErr: true},
		{in: "Jan 5", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseDate(tt.in)
		if tt.wantErr {
			assert.Error(t, err, "input %q", tt.in)
			continue
		}
		require.NoError(t, err, "input %q", tt.in)
		assert.Equal(t, tt.want, got, "input %q", tt.in)
	}
}

func TestFormatCurrency(t *testing.T) {
	tests := map[float64]string{
		0:         "$0.00",
		25:        "$25.00",
		54.06:     "$54.06",
		1234.5:    "$1,234.50",
		1000000:   "$1,000,000.00",
		0.005:     "$0.01",
		-12.3:     "-$12.30",
		999.999:   "$1,000.00",
		63.18 * 3: "$189.54",
	}
	for in, want := range tests {
		assert.Equal(t, want, FormatCurrency(in), "FormatCurrency(%v)", in)
	}
}

func TestDraftInputValidateKeepsFullPrecision(t *testing.T) {
	tests := []struct {
		name      string
		hours     string
		tips      string
		wantHours float64
		wantTips  float64
	}{
		{name: "three decimal tips", hours: "4", tips: "12.345", wantHours: 4, wantTips: 12.345},
		{name: "tiny hours", hours: "0.001", tips: "5", wantHours: 0.001, wantTips: 5},
		{name: "large hours", hours: "10000", tips: "1,000,000.125", wantHours: 10000, wantTips: 1000000.125},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			in.HoursWorked = tt.hours
			in.TipsEarned = tt.tips

			draft, err := in.Validate(1)
			require.NoError(t, err)
			assert.Equal(t, tt.wantHours, draft.HoursWorked)
			assert.Equal(t, tt.wantTips, draft.TipsEarned)
		})
	}
}
