package shifts

import "errors"

// CategoryAll is the only category value in use. Records carry no category
// yet, so filtering on it keeps everything.
const CategoryAll = "all"

// Criteria selects the records shown on the dashboard. Both bounds are
// inclusive.
type Criteria struct {
	Start    Date
	End      Date
	Category string
}

var ErrInvalidRange = errors.New("start date must not be after end date")

// Validate requires both bounds and Start <= End.
func (c Criteria) Validate() error {
	if c.Start.IsZero() || c.End.IsZero() {
		return errors.New("start and end dates are required")
	}
	if c.Start.After(c.End) {
		return ErrInvalidRange
	}
	return nil
}

// DefaultCriteria spans the earliest to the latest date in records. It
// reports false for an empty set.
func DefaultCriteria(records []Record) (Criteria, bool) {
	if len(records) == 0 {
		return Criteria{}, false
	}
	lo, hi := records[0].Date, records[0].Date
	for _, r := range records[1:] {
		if r.Date.Before(lo) {
			lo = r.Date
		}
		if r.Date.After(hi) {
			hi = r.Date
		}
	}
	return Criteria{Start: lo, End: hi, Category: CategoryAll}, true
}

// Metrics summarises a filtered set.
type Metrics struct {
	Count     int
	TotalTips float64
}

// Average is the mean tips per shift. It reports false for an empty set,
// where no average exists.
func (m Metrics) Average() (float64, bool) {
	if m.Count == 0 {
		return 0, false
	}
	return m.TotalTips / float64(m.Count), true
}

func (m Metrics) Empty() bool { return m.Count == 0 }

// Result is the output of Filter.
type Result struct {
	Records []Record
	Metrics Metrics
}

// Filter keeps the records whose date falls inside c and sums their tips.
// The input slice is not modified; the output keeps input order.
func Filter(records []Record, c Criteria) Result {
	out := make([]Record, 0, len(records))
	var m Metrics
	for _, r := range records {
		if r.Date.Before(c.Start) || r.Date.After(c.End) {
			continue
		}
		if !matchesCategory(r, c.Category) {
			continue
		}
		out = append(out, r)
		m.Count++
		m.TotalTips += r.TipsEarned
	}
	return Result{Records: out, Metrics: m}
}

// matchesCategory is where category filtering will go once records carry
// one. Every record matches today.
func matchesCategory(_ Record, _ string) bool {
	return true
}
