package ui

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"gitea.jw6.us/james/tiptrack/internal/dashboard"
	"gitea.jw6.us/james/tiptrack/internal/shifts"
)

const (
	shiftsSheet  = "Shifts"
	summarySheet = "Summary"
	chartCell    = "E2"
	currencyFmt  = `"$"#,##0.00`
)

var tableHeader = []any{"Date", "Day", "AM or PM", "Hours Worked", "Tips Earned"}

// sheetPresenter renders the dashboard into an XLSX workbook: the table on
// "Shifts", metrics and a native line chart on "Summary".
type sheetPresenter struct {
	f          *excelize.File
	money      int
	tableRows  int
	chartRows  int
	chartDrawn bool
}

var _ dashboard.Presenter = (*sheetPresenter)(nil)

func newSheetPresenter() (*sheetPresenter, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", shiftsSheet); err != nil {
		_ = f.Close()
		return nil, err
	}
	if _, err := f.NewSheet(summarySheet); err != nil {
		_ = f.Close()
		return nil, err
	}
	custom := currencyFmt
	money, err := f.NewStyle(&excelize.Style{CustomNumFmt: &custom})
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	if err := f.SetSheetRow(shiftsSheet, "A1", &tableHeader); err != nil {
		_ = f.Close()
		return nil, err
	}
	return &sheetPresenter{f: f, money: money}, nil
}

func (p *sheetPresenter) RenderTable(records []shifts.Record) error {
	// Remove the previous table body from the bottom up.
	for row := p.tableRows + 1; row >= 2; row-- {
		if err := p.f.RemoveRow(shiftsSheet, row); err != nil {
			return err
		}
	}
	for i, r := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{r.Date.String(), r.DayOfWeek, string(r.Period), r.HoursWorked, r.TipsEarned}
		if err := p.f.SetSheetRow(shiftsSheet, cell, &row); err != nil {
			return err
		}
	}
	p.tableRows = len(records)
	if len(records) > 0 {
		last := fmt.Sprintf("E%d", len(records)+1)
		if err := p.f.SetCellStyle(shiftsSheet, "E2", last, p.money); err != nil {
			return err
		}
	}
	return nil
}

// RenderChart writes the series to columns H:I of the summary sheet and
// draws a line chart over it, deleting any chart drawn before.
func (p *sheetPresenter) RenderChart(mode dashboard.ChartMode, records []shifts.Record) error {
	if mode != dashboard.ChartTipsOverTime {
		return fmt.Errorf("unsupported chart type %q", mode)
	}
	if p.chartDrawn {
		if err := p.f.DeleteChart(summarySheet, chartCell); err != nil {
			return err
		}
		p.chartDrawn = false
	}
	for row := p.chartRows + 1; row >= 1; row-- {
		for _, col := range []string{"H", "I"} {
			if err := p.f.SetCellValue(summarySheet, fmt.Sprintf("%s%d", col, row), nil); err != nil {
				return err
			}
		}
	}
	p.chartRows = 0

	if err := p.f.SetSheetRow(summarySheet, "H1", &[]any{"Date", "Tips Earned"}); err != nil {
		return err
	}
	for i, r := range records {
		row := []any{r.Date.String(), r.TipsEarned}
		if err := p.f.SetSheetRow(summarySheet, fmt.Sprintf("H%d", i+2), &row); err != nil {
			return err
		}
	}
	p.chartRows = len(records)
	if len(records) == 0 {
		return nil
	}

	zero := 0.0
	last := len(records) + 1
	err := p.f.AddChart(summarySheet, chartCell, &excelize.Chart{
		Type: excelize.Line,
		Series: []excelize.ChartSeries{{
			Name:       fmt.Sprintf("%s!$I$1", summarySheet),
			Categories: fmt.Sprintf("%s!$H$2:$H$%d", summarySheet, last),
			Values:     fmt.Sprintf("%s!$I$2:$I$%d", summarySheet, last),
		}},
		Title:  []excelize.RichTextRun{{Text: "Tips Over Time"}},
		Legend: excelize.ChartLegend{Position: "none"},
		YAxis:  excelize.ChartAxis{Minimum: &zero},
	})
	if err != nil {
		return err
	}
	p.chartDrawn = true
	return nil
}

func (p *sheetPresenter) RenderMetrics(m shifts.Metrics) error {
	avg := any(averagePlaceholder)
	if v, ok := m.Average(); ok {
		avg = v
	}
	rows := [][]any{
		{"Shifts", m.Count},
		{"Total Tips", m.TotalTips},
		{"Average Tips", avg},
	}
	for i, row := range rows {
		if err := p.f.SetSheetRow(summarySheet, fmt.Sprintf("A%d", i+1), &row); err != nil {
			return err
		}
	}
	return p.f.SetCellStyle(summarySheet, "B2", "B3", p.money)
}

// RenderEmptyState leaves a single message on the summary sheet.
func (p *sheetPresenter) RenderEmptyState(message string) error {
	if err := p.RenderTable(nil); err != nil {
		return err
	}
	if err := p.RenderChart(dashboard.ChartTipsOverTime, nil); err != nil {
		return err
	}
	for _, cell := range []string{"H1", "I1", "A2", "B2", "A3", "B3"} {
		if err := p.f.SetCellValue(summarySheet, cell, nil); err != nil {
			return err
		}
	}
	return p.f.SetSheetRow(summarySheet, "A1", &[]any{message, nil})
}

// WriteTo writes the workbook with the summary sheet active.
func (p *sheetPresenter) WriteTo(w io.Writer) (int64, error) {
	if idx, err := p.f.GetSheetIndex(summarySheet); err == nil && idx >= 0 {
		p.f.SetActiveSheet(idx)
	}
	return p.f.WriteTo(w)
}

func (p *sheetPresenter) Close() error {
	return p.f.Close()
}
