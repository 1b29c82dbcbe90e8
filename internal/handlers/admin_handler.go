package handlers

import (
	"fmt"
	"html/template"
	"net/http"
	"path"
	"time"

	"go.uber.org/zap"

	"churchadmin/internal/service"
)

// AdminHandler handles the administrator backup pages
type AdminHandler struct {
	templates     *template.Template
	backupService *service.BackupService
	s3            service.S3API
	bucket        string
	prefix        string
	middleware    *Middleware
	logger        *zap.Logger
}

// NewAdminHandler creates a new admin handler. s3 may be nil, which hides the upload.
func NewAdminHandler(templates *template.Template, backupService *service.BackupService, s3 service.S3API, bucket, prefix string, middleware *Middleware, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		templates:     templates,
		backupService: backupService,
		s3:            s3,
		bucket:        bucket,
		prefix:        prefix,
		middleware:    middleware,
		logger:        logger,
	}
}

func (h *AdminHandler) s3Enabled() bool {
	return h.s3 != nil && h.bucket != ""
}

// Register adds the admin pages to mux
func (h *AdminHandler) Register(mux *http.ServeMux) {
	m := h.middleware
	mux.HandleFunc("GET /admin/backup", m.RequireAdmin(h.ShowBackup))
	mux.HandleFunc("GET /admin/backup/export", m.RequireAdmin(h.ExportBackup))
	mux.HandleFunc("POST /admin/backup/import", m.RequireAdmin(LimitBody(maxBackupBytes, m.CSRFProtect(h.ImportBackup))))
	mux.HandleFunc("POST /admin/backup/s3", m.RequireAdmin(LimitBody(maxFormBytes, m.CSRFProtect(h.UploadBackup))))
}

// ShowBackup shows the backup and restore page
func (h *AdminHandler) ShowBackup(w http.ResponseWriter, r *http.Request) {
	h.renderBackup(w, r, http.StatusOK, "", "")
}

// ExportBackup streams every account and record as a JSON download
func (h *AdminHandler) ExportBackup(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	filename := fmt.Sprintf("churchadmin_backup_%s.json", time.Now().Format("20060102_150405"))
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))

	if err := h.backupService.ExportToWriter(r.Context(), w); err != nil {
		w.Header().Del("Content-Disposition")
		respondWithError(w, h.logger, http.StatusInternalServerError, "Failed to export database", "Error exporting database", err)
		return
	}

	h.logger.Info("database exported", zap.String("admin", user.Email))
}

// ImportBackup restores an uploaded backup file
func (h *AdminHandler) ImportBackup(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	if err := r.ParseMultipartForm(maxBackupBytes); err != nil {
		h.renderBackup(w, r, http.StatusBadRequest, "The upload could not be read. Backups are limited to 32 MB.", "")
		return
	}

	file, _, err := r.FormFile("backup_file")
	if err != nil {
		h.renderBackup(w, r, http.StatusBadRequest, "Please select a backup file", "")
		return
	}
	defer file.Close()

	clearData := checked(r.FormValue("clear_data"))
	if err := h.backupService.ImportFromReader(r.Context(), file, clearData); err != nil {
		h.logger.Error("failed to import backup", zap.String("admin", user.Email), zap.Error(err))
		h.renderBackup(w, r, http.StatusUnprocessableEntity, "Failed to import backup: "+err.Error(), "")
		return
	}

	h.logger.Info("database imported", zap.String("admin", user.Email), zap.Bool("clear_data", clearData))
	h.renderBackup(w, r, http.StatusOK, "", "Backup restored.")
}

// UploadBackup writes a backup to the configured S3 bucket
func (h *AdminHandler) UploadBackup(w http.ResponseWriter, r *http.Request) {
	if !h.s3Enabled() {
		h.renderBackup(w, r, http.StatusBadRequest, "No backup bucket is configured.", "")
		return
	}

	key := path.Join(h.prefix, fmt.Sprintf("churchadmin_backup_%s.json", time.Now().UTC().Format("20060102_150405")))
	if err := h.backupService.UploadToS3(r.Context(), h.s3, h.bucket, key); err != nil {
		h.logger.Error("failed to upload backup", zap.String("bucket", h.bucket), zap.String("key", key), zap.Error(err))
		h.renderBackup(w, r, http.StatusBadGateway, "The backup could not be uploaded. Please try again later.", "")
		return
	}
	h.renderBackup(w, r, http.StatusOK, "", fmt.Sprintf("Backup uploaded to s3://%s/%s.", h.bucket, key))
}

func (h *AdminHandler) renderBackup(w http.ResponseWriter, r *http.Request, status int, errMsg, success string) {
	data := AdminBackupViewData{
		Page:      h.middleware.page(r, "Backup and restore", "backup"),
		S3Enabled: h.s3Enabled(),
		Bucket:    h.bucket,
		Error:     errMsg,
		Success:   success,
	}
	render(w, h.templates, h.logger, status, "admin_backup.tmpl", data)
}
