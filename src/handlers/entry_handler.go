package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/username/gescom/backend/src/database"
	"github.com/username/gescom/backend/src/logger"
	"github.com/username/gescom/backend/src/models"
	"github.com/username/gescom/backend/src/security/validation"
	"github.com/username/gescom/backend/src/services"
)

// EntryHandler serves the CRUD surface of every transaction table. Routes
// bind a table name at registration time; the handler methods stay generic.
type EntryHandler struct {
	intake *services.IntakeService
}

func NewEntryHandler(intake *services.IntakeService) *EntryHandler {
	return &EntryHandler{intake: intake}
}

func tenantAndID(r *http.Request) (tenantID, id int64, err error) {
	tenantID, ok := GetTenantIDFromContext(r.Context())
	if !ok {
		return 0, 0, errors.New("tenant scope missing")
	}
	idStr := chi.URLParam(r, "id")
	if idStr == "" {
		return tenantID, 0, nil
	}
	id, err = strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		return 0, 0, errors.New("invalid id")
	}
	return tenantID, id, nil
}

// writeEntryError maps service errors onto HTTP statuses.
func writeEntryError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, validation.ErrValidationFailed):
		sendJSONError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, sql.ErrNoRows):
		sendJSONError(w, "Record not found", http.StatusNotFound)
	case errors.Is(err, services.ErrReferenced):
		sendJSONError(w, "Record is referenced by existing transactions", http.StatusConflict)
	default:
		logger.FromContext(r.Context()).Error("entry operation failed", "error", err)
		sendJSONError(w, "Internal server error", http.StatusInternalServerError)
	}
}

func decodeEntryInput(w http.ResponseWriter, r *http.Request) (*services.EntryInput, bool) {
	var in services.EntryInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		sendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return nil, false
	}
	return &in, true
}

// ---------------------------------------------------------------------------
// Trade entries (sales, purchases, recoveries)
// ---------------------------------------------------------------------------

func (h *EntryHandler) ListTradeEntries(table string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, _, err := tenantAndID(r)
		if err != nil {
			sendJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
		entries, err := models.ListTradeEntries(database.DB, table, tenantID)
		if err != nil {
			writeEntryError(w, r, err)
			return
		}
		if entries == nil {
			entries = []models.TradeEntry{}
		}
		sendJSON(w, http.StatusOK, entries)
	}
}

func (h *EntryHandler) CreateTradeEntry(table string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, _, err := tenantAndID(r)
		if err != nil {
			sendJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
		in, ok := decodeEntryInput(w, r)
		if !ok {
			return
		}
		entry, err := h.intake.CreateTradeEntry(r.Context(), tenantID, table, in)
		if err != nil {
			writeEntryError(w, r, err)
			return
		}
		sendJSON(w, http.StatusCreated, entry)
	}
}

func (h *EntryHandler) UpdateTradeEntry(table string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, id, err := tenantAndID(r)
		if err != nil {
			sendJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
		in, ok := decodeEntryInput(w, r)
		if !ok {
			return
		}
		entry, err := h.intake.UpdateTradeEntry(r.Context(), tenantID, table, id, in)
		if err != nil {
			writeEntryError(w, r, err)
			return
		}
		sendJSON(w, http.StatusOK, entry)
	}
}

// DeleteEntry covers every transaction table; the route binds the table.
func (h *EntryHandler) DeleteEntry(table string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, id, err := tenantAndID(r)
		if err != nil {
			sendJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := h.intake.DeleteEntry(r.Context(), tenantID, table, id); err != nil {
			writeEntryError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// ---------------------------------------------------------------------------
// Cost entries
// ---------------------------------------------------------------------------

func (h *EntryHandler) ListCostEntries(w http.ResponseWriter, r *http.Request) {
	tenantID, _, err := tenantAndID(r)
	if err != nil {
		sendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	entries, err := models.ListCostEntries(database.DB, tenantID)
	if err != nil {
		writeEntryError(w, r, err)
		return
	}
	if entries == nil {
		entries = []models.CostEntry{}
	}
	sendJSON(w, http.StatusOK, entries)
}

func (h *EntryHandler) CreateCostEntry(w http.ResponseWriter, r *http.Request) {
	tenantID, _, err := tenantAndID(r)
	if err != nil {
		sendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	in, ok := decodeEntryInput(w, r)
	if !ok {
		return
	}
	entry, err := h.intake.CreateCostEntry(r.Context(), tenantID, in)
	if err != nil {
		writeEntryError(w, r, err)
		return
	}
	sendJSON(w, http.StatusCreated, entry)
}

func (h *EntryHandler) UpdateCostEntry(w http.ResponseWriter, r *http.Request) {
	tenantID, id, err := tenantAndID(r)
	if err != nil {
		sendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	in, ok := decodeEntryInput(w, r)
	if !ok {
		return
	}
	entry, err := h.intake.UpdateCostEntry(r.Context(), tenantID, id, in)
	if err != nil {
		writeEntryError(w, r, err)
		return
	}
	sendJSON(w, http.StatusOK, entry)
}

// ---------------------------------------------------------------------------
// Payments
// ---------------------------------------------------------------------------

func (h *EntryHandler) ListPayments(w http.ResponseWriter, r *http.Request) {
	tenantID, _, err := tenantAndID(r)
	if err != nil {
		sendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	payments, err := models.ListPayments(database.DB, tenantID)
	if err != nil {
		writeEntryError(w, r, err)
		return
	}
	if payments == nil {
		payments = []models.Payment{}
	}
	sendJSON(w, http.StatusOK, payments)
}

func (h *EntryHandler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	tenantID, _, err := tenantAndID(r)
	if err != nil {
		sendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	in, ok := decodeEntryInput(w, r)
	if !ok {
		return
	}
	p, err := h.intake.CreatePayment(r.Context(), tenantID, in)
	if err != nil {
		writeEntryError(w, r, err)
		return
	}
	sendJSON(w, http.StatusCreated, p)
}

func (h *EntryHandler) UpdatePayment(w http.ResponseWriter, r *http.Request) {
	tenantID, id, err := tenantAndID(r)
	if err != nil {
		sendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	in, ok := decodeEntryInput(w, r)
	if !ok {
		return
	}
	p, err := h.intake.UpdatePayment(r.Context(), tenantID, id, in)
	if err != nil {
		writeEntryError(w, r, err)
		return
	}
	sendJSON(w, http.StatusOK, p)
}

// ---------------------------------------------------------------------------
// Reconciliations
// ---------------------------------------------------------------------------

func (h *EntryHandler) ListReconciliations(w http.ResponseWriter, r *http.Request) {
	tenantID, _, err := tenantAndID(r)
	if err != nil {
		sendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	var cashing *bool
	if v := r.URL.Query().Get("cashing"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			sendJSONError(w, "Invalid cashing filter", http.StatusBadRequest)
			return
		}
		cashing = &parsed
	}

	recs, err := models.ListReconciliations(database.DB, tenantID, cashing)
	if err != nil {
		writeEntryError(w, r, err)
		return
	}
	if recs == nil {
		recs = []models.Reconciliation{}
	}
	sendJSON(w, http.StatusOK, recs)
}

func (h *EntryHandler) CreateReconciliation(w http.ResponseWriter, r *http.Request) {
	tenantID, _, err := tenantAndID(r)
	if err != nil {
		sendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	in, ok := decodeEntryInput(w, r)
	if !ok {
		return
	}
	rec, err := h.intake.CreateReconciliation(r.Context(), tenantID, in)
	if err != nil {
		writeEntryError(w, r, err)
		return
	}
	sendJSON(w, http.StatusCreated, rec)
}

func (h *EntryHandler) UpdateReconciliation(w http.ResponseWriter, r *http.Request) {
	tenantID, id, err := tenantAndID(r)
	if err != nil {
		sendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	in, ok := decodeEntryInput(w, r)
	if !ok {
		return
	}
	rec, err := h.intake.UpdateReconciliation(r.Context(), tenantID, id, in)
	if err != nil {
		writeEntryError(w, r, err)
		return
	}
	sendJSON(w, http.StatusOK, rec)
}

// ---------------------------------------------------------------------------
// Stock snapshots
// ---------------------------------------------------------------------------

func (h *EntryHandler) ListStockSnapshots(w http.ResponseWriter, r *http.Request) {
	tenantID, _, err := tenantAndID(r)
	if err != nil {
		sendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	snaps, err := models.ListStockSnapshots(database.DB, tenantID)
	if err != nil {
		writeEntryError(w, r, err)
		return
	}
	if snaps == nil {
		snaps = []models.StockSnapshot{}
	}
	sendJSON(w, http.StatusOK, snaps)
}

func (h *EntryHandler) CreateStockSnapshot(w http.ResponseWriter, r *http.Request) {
	tenantID, _, err := tenantAndID(r)
	if err != nil {
		sendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	in, ok := decodeEntryInput(w, r)
	if !ok {
		return
	}
	snap, err := h.intake.CreateStockSnapshot(r.Context(), tenantID, in)
	if err != nil {
		writeEntryError(w, r, err)
		return
	}
	sendJSON(w, http.StatusCreated, snap)
}
