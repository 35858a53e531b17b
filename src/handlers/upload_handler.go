package handlers

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/username/gescom/backend/src/config"
	"github.com/username/gescom/backend/src/logger"
	"github.com/username/gescom/backend/src/security/validation"
	"github.com/username/gescom/backend/src/services"
)

// UploadHandler stores supporting documents (invoices, cheque scans) and
// links them to an existing ledger entry.
type UploadHandler struct {
	intake *services.IntakeService
}

func NewUploadHandler(intake *services.IntakeService) *UploadHandler {
	return &UploadHandler{intake: intake}
}

// HandleUploadDocument accepts a multipart upload for /{table}/{id}/document.
// Stored under a generated name; the original filename is never trusted.
func (h *UploadHandler) HandleUploadDocument(w http.ResponseWriter, r *http.Request) {
	ctxLogger := logger.FromContext(r.Context())

	tenantID, id, err := tenantAndID(r)
	if err != nil {
		sendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	table := chi.URLParam(r, "table")

	if err := r.ParseMultipartForm(config.Cfg.MaxUploadSizeBytes); err != nil {
		ctxLogger.Warn("failed to parse multipart form or request too large", "error", err, "limit", config.Cfg.MaxUploadSizeBytes)
		sendJSONError(w, fmt.Sprintf("Failed to process upload or file too large (max %d MB)", config.Cfg.MaxUploadSizeBytes/(1024*1024)), http.StatusBadRequest)
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		ctxLogger.Warn("failed to retrieve file from request", "error", err)
		sendJSONError(w, "Failed to retrieve file from request. Ensure 'file' field is used.", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if fileHeader.Size > config.Cfg.MaxUploadSizeBytes {
		sendJSONError(w, fmt.Sprintf("File too large, max %d MB", config.Cfg.MaxUploadSizeBytes/(1024*1024)), http.StatusBadRequest)
		return
	}

	if err := validation.ValidateClientContentType(fileHeader.Header.Get("Content-Type")); err != nil {
		sendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	detectedContentType, err := validation.ValidateFileContentByMagicBytes(file)
	if err != nil {
		ctxLogger.Warn("server-side file content validation failed", "filename", fileHeader.Filename, "error", err)
		sendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	storedName := uuid.New().String() + validation.ExtensionForContentType(detectedContentType)
	tenantDir := filepath.Join(config.Cfg.UploadDir, fmt.Sprintf("%d", tenantID))
	if err := os.MkdirAll(tenantDir, 0o750); err != nil {
		ctxLogger.Error("failed to create upload directory", "dir", tenantDir, "error", err)
		sendJSONError(w, "Failed to store document", http.StatusInternalServerError)
		return
	}

	dst, err := os.Create(filepath.Join(tenantDir, storedName))
	if err != nil {
		ctxLogger.Error("failed to create document file", "error", err)
		sendJSONError(w, "Failed to store document", http.StatusInternalServerError)
		return
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		ctxLogger.Error("failed to write document file", "error", err)
		sendJSONError(w, "Failed to store document", http.StatusInternalServerError)
		return
	}

	if err := h.intake.AttachDocument(r.Context(), tenantID, table, id, storedName); err != nil {
		// Entry missing or wrong table: remove the orphan file.
		os.Remove(filepath.Join(tenantDir, storedName))
		writeEntryError(w, r, err)
		return
	}

	ctxLogger.Info("document stored", "table", table, "entryID", id, "filename", storedName, "contentType", detectedContentType)
	sendJSON(w, http.StatusOK, map[string]string{"document_filename": storedName})
}

// HandleDownloadDocument serves the stored file for /{table}/{id}/document.
// The stored name is always a generated uuid+extension, so it is safe to
// join under the tenant's upload directory.
func (h *UploadHandler) HandleDownloadDocument(w http.ResponseWriter, r *http.Request) {
	tenantID, id, err := tenantAndID(r)
	if err != nil {
		sendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	table := chi.URLParam(r, "table")

	filename, err := h.intake.DocumentFilename(r.Context(), tenantID, table, id)
	if err != nil {
		writeEntryError(w, r, err)
		return
	}
	if filename == "" || filepath.Base(filename) != filename {
		sendJSONError(w, "No document attached to this entry", http.StatusNotFound)
		return
	}

	path := filepath.Join(config.Cfg.UploadDir, fmt.Sprintf("%d", tenantID), filename)
	if _, err := os.Stat(path); err != nil {
		logger.FromContext(r.Context()).Warn("document file missing on disk", "table", table, "entryID", id, "filename", filename)
		sendJSONError(w, "No document attached to this entry", http.StatusNotFound)
		return
	}
	http.ServeFile(w, r, path)
}
