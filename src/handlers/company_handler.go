package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/username/gescom/backend/src/database"
	"github.com/username/gescom/backend/src/models"
	"github.com/username/gescom/backend/src/services"
)

type CompanyHandler struct {
	intake *services.IntakeService
}

func NewCompanyHandler(intake *services.IntakeService) *CompanyHandler {
	return &CompanyHandler{intake: intake}
}

func (h *CompanyHandler) ListCompanies(w http.ResponseWriter, r *http.Request) {
	tenantID, _, err := tenantAndID(r)
	if err != nil {
		sendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	companies, err := models.ListCompanies(database.DB, tenantID)
	if err != nil {
		writeEntryError(w, r, err)
		return
	}
	if companies == nil {
		companies = []models.Company{}
	}
	sendJSON(w, http.StatusOK, companies)
}

func (h *CompanyHandler) GetCompany(w http.ResponseWriter, r *http.Request) {
	tenantID, id, err := tenantAndID(r)
	if err != nil {
		sendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	company, err := models.GetCompanyByID(database.DB, tenantID, id)
	if err != nil {
		writeEntryError(w, r, err)
		return
	}
	sendJSON(w, http.StatusOK, company)
}

func (h *CompanyHandler) CreateCompany(w http.ResponseWriter, r *http.Request) {
	tenantID, _, err := tenantAndID(r)
	if err != nil {
		sendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	var body services.CompanyInput
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		sendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	company, err := h.intake.CreateCompany(r.Context(), tenantID, &body)
	if err != nil {
		writeEntryError(w, r, err)
		return
	}
	sendJSON(w, http.StatusCreated, company)
}

func (h *CompanyHandler) UpdateCompany(w http.ResponseWriter, r *http.Request) {
	tenantID, id, err := tenantAndID(r)
	if err != nil {
		sendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	var body services.CompanyInput
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		sendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	company, err := h.intake.UpdateCompany(r.Context(), tenantID, id, &body)
	if err != nil {
		writeEntryError(w, r, err)
		return
	}
	sendJSON(w, http.StatusOK, company)
}

func (h *CompanyHandler) DeleteCompany(w http.ResponseWriter, r *http.Request) {
	tenantID, id, err := tenantAndID(r)
	if err != nil {
		sendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.intake.DeleteCompany(r.Context(), tenantID, id); err != nil {
		writeEntryError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
