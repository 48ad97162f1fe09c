// Package dashboard drives one dashboard view: it resolves the session,
// loads the owner's shifts, applies the date range and hands the results to
// a Presenter.
package dashboard

import (
	"fmt"
	"strings"

	"gitea.jw6.us/james/tiptrack/internal/shifts"
)

// ChartMode selects what the chart plots.
type ChartMode string

// ChartTipsOverTime plots tips earned per shift against the shift date.
const ChartTipsOverTime ChartMode = "tipsOverTime"

// ParseChartMode accepts a known chart mode. An empty string selects the
// default.
func ParseChartMode(s string) (ChartMode, error) {
	switch strings.TrimSpace(s) {
	case "", string(ChartTipsOverTime):
		return ChartTipsOverTime, nil
	}
	return "", fmt.Errorf("unknown chart type %q", s)
}

// Presenter draws dashboard output. Each Render call replaces whatever the
// previous call of the same kind drew.
type Presenter interface {
	RenderChart(mode ChartMode, records []shifts.Record) error
	RenderTable(records []shifts.Record) error
	RenderMetrics(m shifts.Metrics) error
	RenderEmptyState(message string) error
}
