package api

import (
	"encoding/json"
	"fmt"
	"strings"

	"gitea.jw6.us/james/tiptrack/internal/shifts"
)

// looseString accepts a JSON string or number. Clients send hours and tips
// either way.
type looseString string

func (s *looseString) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	switch {
	case raw == "null":
		*s = ""
		return nil
	case strings.HasPrefix(raw, `"`):
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = looseString(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("expected a string or number, got %s", raw)
	}
	*s = looseString(n.String())
	return nil
}

type shiftRequest struct {
	Date        looseString `json:"date"`
	DayOfWeek   looseString `json:"day_of_week"`
	Period      looseString `json:"am_or_pm"`
	HoursWorked looseString `json:"hours_worked"`
	TipsEarned  looseString `json:"tips_earned"`
}

func (r shiftRequest) input() shifts.DraftInput {
	return shifts.DraftInput{
		Date:        string(r.Date),
		DayOfWeek:   string(r.DayOfWeek),
		Period:      string(r.Period),
		HoursWorked: string(r.HoursWorked),
		TipsEarned:  string(r.TipsEarned),
	}
}
