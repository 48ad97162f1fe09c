package shifts

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// DraftInput carries the raw field values of a "save shift" submission.
type DraftInput struct {
	Date        string `json:"date"`
	DayOfWeek   string `json:"day_of_week"`
	Period      string `json:"am_or_pm"`
	HoursWorked string `json:"hours_worked"`
	TipsEarned  string `json:"tips_earned"`
}

// ValidationError reports a field that failed the pre-insert check.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks every field and builds a Draft owned by ownerID. It never
// touches the store.
func (in DraftInput) Validate(ownerID int64) (Draft, error) {
	fields := []struct {
		name  string
		value string
	}{
		{"date", in.Date},
		{"day_of_week", in.DayOfWeek},
		{"am_or_pm", in.Period},
		{"hours_worked", in.HoursWorked},
		{"tips_earned", in.TipsEarned},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return Draft{}, &ValidationError{Field: f.name, Message: "is required"}
		}
	}

	date, err := ParseDate(in.Date)
	if err != nil {
		return Draft{}, &ValidationError{Field: "date", Message: "must be a YYYY-MM-DD date"}
	}
	period, ok := ParsePeriod(in.Period)
	if !ok {
		return Draft{}, &ValidationError{Field: "am_or_pm", Message: "must be AM or PM"}
	}
	hours, err := parseAmount(in.HoursWorked)
	if err != nil {
		return Draft{}, &ValidationError{Field: "hours_worked", Message: "must be a number"}
	}
	if hours <= 0 {
		return Draft{}, &ValidationError{Field: "hours_worked", Message: "must be greater than zero"}
	}
	tips, err := parseAmount(in.TipsEarned)
	if err != nil {
		return Draft{}, &ValidationError{Field: "tips_earned", Message: "must be a number"}
	}
	if tips < 0 {
		return Draft{}, &ValidationError{Field: "tips_earned", Message: "must not be negative"}
	}

	return Draft{
		OwnerID:     ownerID,
		Date:        date,
		DayOfWeek:   strings.TrimSpace(in.DayOfWeek),
		Period:      period,
		HoursWorked: hours,
		TipsEarned:  tips,
	}, nil
}

func parseAmount(s string) (float64, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "$")
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("not finite: %q", s)
	}
	return v, nil
}
