package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/username/gescom/backend/src/database"
	"github.com/username/gescom/backend/src/models"
	"github.com/username/gescom/backend/src/services"
)

// ReferenceHandler serves the lookup tables: payment methods (read only),
// cost definitions and sales categories.
type ReferenceHandler struct {
	intake *services.IntakeService
}

func NewReferenceHandler(intake *services.IntakeService) *ReferenceHandler {
	return &ReferenceHandler{intake: intake}
}

// ListPaymentMethods returns the seeded method catalogue. The ids are fixed
// and load-bearing across the aggregation formulas; there is no write path.
func (h *ReferenceHandler) ListPaymentMethods(w http.ResponseWriter, r *http.Request) {
	methods, err := models.ListPaymentMethods(database.DB)
	if err != nil {
		writeEntryError(w, r, err)
		return
	}
	sendJSON(w, http.StatusOK, methods)
}

// ---------------------------------------------------------------------------
// Cost definitions
// ---------------------------------------------------------------------------

type costDefRequest struct {
	Name  string `json:"name"`
	Fixed bool   `json:"fixed"`
}

func (h *ReferenceHandler) ListCostDefs(w http.ResponseWriter, r *http.Request) {
	tenantID, _, err := tenantAndID(r)
	if err != nil {
		sendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	defs, err := models.ListCostDefs(database.DB, tenantID)
	if err != nil {
		writeEntryError(w, r, err)
		return
	}
	if defs == nil {
		defs = []models.CostDef{}
	}
	sendJSON(w, http.StatusOK, defs)
}

func (h *ReferenceHandler) CreateCostDef(w http.ResponseWriter, r *http.Request) {
	tenantID, _, err := tenantAndID(r)
	if err != nil {
		sendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	var body costDefRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		sendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	def, err := h.intake.CreateCostDef(r.Context(), tenantID, body.Name, body.Fixed)
	if err != nil {
		writeEntryError(w, r, err)
		return
	}
	sendJSON(w, http.StatusCreated, def)
}

func (h *ReferenceHandler) UpdateCostDef(w http.ResponseWriter, r *http.Request) {
	tenantID, id, err := tenantAndID(r)
	if err != nil {
		sendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	var body costDefRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		sendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	def, err := h.intake.UpdateCostDef(r.Context(), tenantID, id, body.Name, body.Fixed)
	if err != nil {
		writeEntryError(w, r, err)
		return
	}
	sendJSON(w, http.StatusOK, def)
}

func (h *ReferenceHandler) DeleteCostDef(w http.ResponseWriter, r *http.Request) {
	tenantID, id, err := tenantAndID(r)
	if err != nil {
		sendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.intake.DeleteCostDef(r.Context(), tenantID, id); err != nil {
		writeEntryError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---------------------------------------------------------------------------
// Sales categories
// ---------------------------------------------------------------------------

func (h *ReferenceHandler) ListSalesCategories(w http.ResponseWriter, r *http.Request) {
	tenantID, _, err := tenantAndID(r)
	if err != nil {
		sendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	categories, err := models.ListSalesCategories(database.DB, tenantID)
	if err != nil {
		writeEntryError(w, r, err)
		return
	}
	if categories == nil {
		categories = []models.SalesCategory{}
	}
	sendJSON(w, http.StatusOK, categories)
}

func (h *ReferenceHandler) CreateSalesCategory(w http.ResponseWriter, r *http.Request) {
	tenantID, _, err := tenantAndID(r)
	if err != nil {
		sendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	var body struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		sendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	category, err := h.intake.CreateSalesCategory(r.Context(), tenantID, body.Name)
	if err != nil {
		writeEntryError(w, r, err)
		return
	}
	sendJSON(w, http.StatusCreated, category)
}

func (h *ReferenceHandler) DeleteSalesCategory(w http.ResponseWriter, r *http.Request) {
	tenantID, id, err := tenantAndID(r)
	if err != nil {
		sendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.intake.DeleteSalesCategory(r.Context(), tenantID, id); err != nil {
		writeEntryError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
