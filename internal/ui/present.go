package ui

import (
	"strconv"

	"gitea.jw6.us/james/tiptrack/internal/dashboard"
	"gitea.jw6.us/james/tiptrack/internal/shifts"
)

const averagePlaceholder = "N/A"

type chartView struct {
	Mode   dashboard.ChartMode `json:"mode"`
	Title  string              `json:"title"`
	Labels []string            `json:"labels"`
	Values []float64           `json:"values"`
}

type tableRow struct {
	Date   string `json:"date"`
	Day    string `json:"day"`
	Period string `json:"period"`
	Hours  string `json:"hours"`
	Tips   string `json:"tips"`
}

type metricsView struct {
	Count   int
	Total   string
	Average string
}

// pagePresenter turns controller output into template data. The page script
// destroys the Chart.js and DataTables instances it finds before drawing
// from this data, so each render replaces the last one.
type pagePresenter struct {
	chart   *chartView
	table   []tableRow
	metrics *metricsView
	empty   string
}

var _ dashboard.Presenter = (*pagePresenter)(nil)

func (p *pagePresenter) RenderChart(mode dashboard.ChartMode, records []shifts.Record) error {
	view := &chartView{
		Mode:   mode,
		Title:  "Tips Over Time",
		Labels: make([]string, 0, len(records)),
		Values: make([]float64, 0, len(records)),
	}
	for _, r := range records {
		view.Labels = append(view.Labels, r.Date.String())
		view.Values = append(view.Values, r.TipsEarned)
	}
	p.chart = view
	p.empty = ""
	return nil
}

func (p *pagePresenter) RenderTable(records []shifts.Record) error {
	rows := make([]tableRow, 0, len(records))
	for _, r := range records {
		rows = append(rows, tableRow{
			Date:   r.Date.String(),
			Day:    r.DayOfWeek,
			Period: string(r.Period),
			Hours:  strconv.FormatFloat(r.HoursWorked, 'f', -1, 64),
			Tips:   shifts.FormatCurrency(r.TipsEarned),
		})
	}
	p.table = rows
	p.empty = ""
	return nil
}

func (p *pagePresenter) RenderMetrics(m shifts.Metrics) error {
	view := &metricsView{Count: m.Count, Total: shifts.FormatCurrency(m.TotalTips), Average: averagePlaceholder}
	if avg, ok := m.Average(); ok {
		view.Average = shifts.FormatCurrency(avg)
	}
	p.metrics = view
	p.empty = ""
	return nil
}

// RenderEmptyState drops anything rendered before; only the message shows.
func (p *pagePresenter) RenderEmptyState(message string) error {
	p.chart = nil
	p.table = nil
	p.metrics = nil
	p.empty = message
	return nil
}
