package ui

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"gitea.jw6.us/james/tiptrack/internal/auth"
	"gitea.jw6.us/james/tiptrack/internal/dashboard"
	httperrors "gitea.jw6.us/james/tiptrack/internal/http/errors"
	"gitea.jw6.us/james/tiptrack/internal/shifts"
	"gitea.jw6.us/james/tiptrack/internal/store"
)

const saveFailedMessage = "The shift could not be saved. Please try again."

// startController runs the controller's start-up against the request's
// session. It reports false after redirecting an anonymous visitor to the
// login page or answering 500 when the session could not be looked up.
func (h *Handler) startController(w http.ResponseWriter, r *http.Request, ctrl *dashboard.Controller) bool {
	err := ctrl.Start(r.Context(), func(ctx context.Context) (*auth.Session, error) {
		return h.resolveSession(r.WithContext(ctx))
	})
	unauthenticated := ctrl.State() == dashboard.StateUnauthenticated
	if err != nil {
		if unauthenticated {
			httperrors.InternalError(w, r, err, "session lookup failed")
			return false
		}
		httperrors.LogError(r, "dashboard start failed", err)
	}
	if unauthenticated {
		http.Redirect(w, r, "/auth/login", http.StatusFound)
		return false
	}
	return true
}

// viewParams is the date range, category and chart type carried in a query
// string or a form.
type viewParams struct {
	Start, End string
	Category   string
	Chart      string
}

func viewParamsFrom(v url.Values) viewParams {
	return viewParams{
		Start:    strings.TrimSpace(v.Get("start")),
		End:      strings.TrimSpace(v.Get("end")),
		Category: strings.TrimSpace(v.Get("category")),
		Chart:    strings.TrimSpace(v.Get("chart")),
	}
}

// apply pushes the view parameters into a loaded controller. It reports
// whether a user-chosen range is in effect and a message for anything it
// had to ignore.
func (p viewParams) apply(ctrl *dashboard.Controller) (custom bool, problem string) {
	if ctrl.State() != dashboard.StateLoaded {
		return false, ""
	}
	if p.Chart != "" {
		if err := ctrl.SetChartMode(p.Chart); err != nil {
			problem = "Unknown chart type; showing Tips Over Time."
		}
	}
	if p.Category != "" && p.Category != shifts.CategoryAll {
		problem = "Unknown category; showing all categories."
	}
	if p.Start == "" && p.End == "" {
		return false, problem
	}

	start, err1 := shifts.ParseDate(p.Start)
	end, err2 := shifts.ParseDate(p.End)
	if err1 != nil || err2 != nil {
		return false, "Both a start and an end date are required."
	}
	if err := ctrl.ApplyFilter(shifts.Criteria{Start: start, End: end, Category: shifts.CategoryAll}); err != nil {
		return false, "The start date must not be after the end date."
	}
	return true, problem
}

// Dashboard renders the signed-in owner's shifts, filtered by the query
// parameters start, end, category and chart.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	page := &pagePresenter{}
	ctrl := dashboard.New(h.store.Shifts, page)
	if !h.startController(w, r, ctrl) {
		return
	}

	custom, problem := viewParamsFrom(r.URL.Query()).apply(ctrl)
	data := h.withFlash(r, map[string]any{})
	if problem != "" {
		data["FlashError"] = problem
	}
	h.renderDashboard(w, r, http.StatusOK, ctrl, page, custom, data)
}

// SaveShift stores a shift from the add-shift form and re-renders the
// dashboard in place with the refreshed records.
func (h *Handler) SaveShift(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		httperrors.BadRequestError(w, r, err, "invalid form")
		return
	}

	page := &pagePresenter{}
	ctrl := dashboard.New(h.store.Shifts, page)
	if !h.startController(w, r, ctrl) {
		return
	}
	custom, _ := viewParamsFrom(r.PostForm).apply(ctrl)

	input := shifts.DraftInput{
		Date:        r.PostFormValue("date"),
		DayOfWeek:   r.PostFormValue("day_of_week"),
		Period:      r.PostFormValue("am_or_pm"),
		HoursWorked: r.PostFormValue("hours_worked"),
		TipsEarned:  r.PostFormValue("tips_earned"),
	}

	data := h.withFlash(r, map[string]any{})
	status := http.StatusOK
	_, err := ctrl.SaveShift(r.Context(), input)

	var (
		validationErr *shifts.ValidationError
		writeErr      *store.WriteError
	)
	switch {
	case err == nil:
		data["FlashMessage"] = "Shift saved."
	case errors.As(err, &validationErr):
		status = http.StatusUnprocessableEntity
		data["FormError"] = validationErr.Error()
		data["Form"] = input
	case errors.As(err, &writeErr):
		httperrors.LogError(r, "save shift failed", err)
		status = http.StatusInternalServerError
		data["FormError"] = saveFailedMessage
		data["Form"] = input
	default:
		// Saved, but the refresh failed; the controller shows the fetch error.
		httperrors.LogError(r, "refresh after save failed", err)
		data["FlashMessage"] = "Shift saved."
	}

	h.renderDashboard(w, r, status, ctrl, page, custom, data)
}

func (h *Handler) renderDashboard(w http.ResponseWriter, r *http.Request, status int, ctrl *dashboard.Controller, page *pagePresenter, custom bool, data map[string]any) {
	session := ctrl.Session()
	criteria := ctrl.Criteria()

	data["Title"] = "Dashboard"
	data["Session"] = session
	data["State"] = ctrl.State().String()
	data["Loaded"] = ctrl.State() == dashboard.StateLoaded
	data["EmptyMessage"] = page.empty
	data["Chart"] = page.chart
	data["Table"] = page.table
	data["Metrics"] = page.metrics
	data["Start"] = criteria.Start
	data["End"] = criteria.End
	data["CustomRange"] = custom
	data["ChartMode"] = string(ctrl.ChartMode())
	data["ChartOptions"] = chartOptions
	data["CategoryOptions"] = categoryOptions
	if _, ok := data["Form"]; !ok {
		data["Form"] = shifts.DraftInput{Date: time.Now().Format("2006-01-02"), Period: string(shifts.PeriodPM)}
	}
	if session != nil && session.Provisional {
		data["VerifyNotice"] = "Please verify your e-mail address. Check your inbox for a confirmation link."
	}

	h.renderStatus(w, r, status, "dashboard.html", data)
}

// Export downloads the filtered dashboard as an XLSX workbook.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	sheet, err := newSheetPresenter()
	if err != nil {
		httperrors.InternalError(w, r, err, "create workbook")
		return
	}
	defer func() { _ = sheet.Close() }()

	ctrl := dashboard.New(h.store.Shifts, sheet)
	err = ctrl.Start(r.Context(), func(ctx context.Context) (*auth.Session, error) {
		return h.resolveSession(r.WithContext(ctx))
	})
	if ctrl.State() == dashboard.StateUnauthenticated {
		if err != nil {
			httperrors.InternalError(w, r, err, "export session lookup failed")
			return
		}
		http.Redirect(w, r, "/auth/login", http.StatusFound)
		return
	}
	var fetchErr *store.FetchError
	if err != nil && !errors.As(err, &fetchErr) {
		httperrors.InternalError(w, r, err, "render workbook")
		return
	}
	if err != nil {
		httperrors.LogError(r, "export fetch failed", err)
	}
	if _, problem := viewParamsFrom(r.URL.Query()).apply(ctrl); problem != "" {
		httperrors.LogInfo(r, "export ignored view parameters: "+problem)
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="tips.xlsx"`)
	if _, err := sheet.WriteTo(w); err != nil {
		httperrors.LogError(r, "write workbook", err)
	}
}
