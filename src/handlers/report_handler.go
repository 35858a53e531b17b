package handlers

import (
	"net/http"
	"strconv"

	"github.com/username/gescom/backend/src/security/validation"
	"github.com/username/gescom/backend/src/services"
)

// ReportHandler serves the read-only financial views: dashboard,
// exploitation and treasury.
type ReportHandler struct {
	reports *services.ReportService
}

func NewReportHandler(reports *services.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

func (h *ReportHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	tenantID, _, err := tenantAndID(r)
	if err != nil {
		sendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	view, err := h.reports.Dashboard(r.Context(), tenantID)
	if err != nil {
		writeEntryError(w, r, err)
		return
	}
	sendJSON(w, http.StatusOK, view)
}

// parsePeriod reads the start/end/cum/today query parameters. Dates must be
// ISO; the boolean modes take precedence over bounds when set.
func parsePeriod(r *http.Request) (services.Period, error) {
	q := r.URL.Query()
	var p services.Period
	var err error

	if v := q.Get("start"); v != "" {
		if p.Start, err = validation.ValidateDateString(v, "start"); err != nil {
			return p, err
		}
	}
	if v := q.Get("end"); v != "" {
		if p.End, err = validation.ValidateDateString(v, "end"); err != nil {
			return p, err
		}
	}
	if v := q.Get("cum"); v != "" {
		if p.Cum, err = strconv.ParseBool(v); err != nil {
			return p, err
		}
	}
	if v := q.Get("today"); v != "" {
		if p.Today, err = strconv.ParseBool(v); err != nil {
			return p, err
		}
	}
	return p, nil
}

func (h *ReportHandler) HandleExploitation(w http.ResponseWriter, r *http.Request) {
	tenantID, _, err := tenantAndID(r)
	if err != nil {
		sendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	period, err := parsePeriod(r)
	if err != nil {
		sendJSONError(w, "Invalid period parameters: "+err.Error(), http.StatusBadRequest)
		return
	}
	view, err := h.reports.Exploitation(r.Context(), tenantID, period)
	if err != nil {
		writeEntryError(w, r, err)
		return
	}
	sendJSON(w, http.StatusOK, view)
}

func (h *ReportHandler) HandleTreasury(w http.ResponseWriter, r *http.Request) {
	tenantID, _, err := tenantAndID(r)
	if err != nil {
		sendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	week := r.URL.Query().Get("week")
	if err := validation.ValidateWeekToken(week); err != nil {
		sendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	view, err := h.reports.Treasury(r.Context(), tenantID, week)
	if err != nil {
		writeEntryError(w, r, err)
		return
	}
	sendJSON(w, http.StatusOK, view)
}
