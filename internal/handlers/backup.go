package handlers

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/barklazza/projeto-vendas/internal/export"
	"github.com/barklazza/projeto-vendas/internal/services"
	"github.com/go-chi/chi/v5"
)

// BackupHandler provides HTTP handlers for backup records.
type BackupHandler struct {
	backups *services.BackupService
	logger  *slog.Logger
}

func NewBackupHandler(backups *services.BackupService, logger *slog.Logger) *BackupHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &BackupHandler{backups: backups, logger: logger}
}

// BackupRouter registers backup routes. Callers must mount it behind RequireAuth.
func BackupRouter(r chi.Router, backups *services.BackupService, logger *slog.Logger) {
	handler := NewBackupHandler(backups, logger)

	r.Post("/", handler.Create)
	r.Get("/", handler.List)
	r.Post("/export", handler.Export)
	r.Route("/{backupID}", func(r chi.Router) {
		r.Delete("/", handler.Delete)
		r.Get("/download", handler.Download)
	})
}

type BackupRequest struct {
	FileName   string `json:"file_name"`
	FileSize   *int64 `json:"file_size"`
	SalesCount int    `json:"sales_count"`
}

func (h *BackupHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, err := userFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req BackupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	backup, err := h.backups.Create(r.Context(), user.ID, services.BackupInput{
		FileName:   req.FileName,
		FileSize:   req.FileSize,
		SalesCount: req.SalesCount,
	})
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, SuccessResponse{Success: true, ID: backup.ID})
}

func (h *BackupHandler) List(w http.ResponseWriter, r *http.Request) {
	user, err := userFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	backups, err := h.backups.List(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, backups)
}

func (h *BackupHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, err := userFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	backupID, err := idParam(r, "backupID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid backup id")
		return
	}

	if err := h.backups.Delete(r.Context(), user.ID, backupID); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
}

// Export generates the backup workbook, records it and returns the file.
func (h *BackupHandler) Export(w http.ResponseWriter, r *http.Request) {
	user, err := userFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	file, backup, err := h.backups.Export(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	w.Header().Set("X-Backup-Id", strconv.Itoa(backup.ID))
	writeFile(w, http.StatusCreated, file)
}

// Download streams an archived backup workbook.
func (h *BackupHandler) Download(w http.ResponseWriter, r *http.Request) {
	user, err := userFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	backupID, err := idParam(r, "backupID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid backup id")
		return
	}

	backup, rc, err := h.backups.Download(r.Context(), user.ID, backupID)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", backup.FileName))
	if backup.FileSize != nil {
		w.Header().Set("Content-Length", strconv.FormatInt(*backup.FileSize, 10))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		h.logger.WarnContext(r.Context(), "backup download interrupted", "backup_id", backupID, "error", err)
	}
}
