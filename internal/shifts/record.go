// Package shifts holds the shift/tip record model and the pure filtering
// and aggregation logic the dashboard runs on every filter change.
package shifts

import (
	"sort"
	"strings"
)

// Period is the half of the day a shift was worked.
type Period string

const (
	PeriodAM Period = "AM"
	PeriodPM Period = "PM"
)

// ParsePeriod accepts am/pm in any case.
func ParsePeriod(s string) (Period, bool) {
	switch Period(strings.ToUpper(strings.TrimSpace(s))) {
	case PeriodAM:
		return PeriodAM, true
	case PeriodPM:
		return PeriodPM, true
	}
	return "", false
}

// Record is one worked shift as stored.
type Record struct {
	ID          string  `json:"id"`
	OwnerID     int64   `json:"user_id"`
	Date        Date    `json:"date"`
	DayOfWeek   string  `json:"day_of_week"`
	Period      Period  `json:"am_or_pm"`
	HoursWorked float64 `json:"hours_worked"`
	TipsEarned  float64 `json:"tips_earned"`
}

// Draft is a record that has not been assigned an ID by the store yet.
type Draft struct {
	OwnerID     int64
	Date        Date
	DayOfWeek   string
	Period      Period
	HoursWorked float64
	TipsEarned  float64
}

// SortByDate orders records ascending by date, keeping insertion order for
// shifts on the same day.
func SortByDate(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Date.Before(records[j].Date)
	})
}
