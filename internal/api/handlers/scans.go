package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/securecicd/backend/internal/api/dto"
	"github.com/securecicd/backend/internal/api/middleware"
	"github.com/securecicd/backend/internal/database/models"
	"github.com/securecicd/backend/internal/scans"
)

type ScanHandler struct {
	db          *gorm.DB
	scanService *scans.Service

	// analyzerDir bounds report downloads; artifact paths outside it are
	// refused even if present on a stored record.
	analyzerDir string
}

func NewScanHandler(db *gorm.DB, scanService *scans.Service, analyzerDir string) *ScanHandler {
	return &ScanHandler{db: db, scanService: scanService, analyzerDir: analyzerDir}
}

// List handles GET /api/scans
func (h *ScanHandler) List(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.GetUserID(r.Context())

	query := h.db.Where("owner_id = ?", ownerID)
	if raw := r.URL.Query().Get("project_id"); raw != "" {
		// A malformed value is ignored rather than poisoning the query.
		if projectID, err := uuid.Parse(raw); err == nil {
			query = query.Where("project_id = ?", projectID)
		}
	}
	if status := r.URL.Query().Get("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var scanList []models.Scan
	if err := query.Order("created_at DESC").Find(&scanList).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to list scans"})
		return
	}

	for i := range scanList {
		h.scanService.Hydrate(&scanList[i])
	}

	writeJSON(w, http.StatusOK, dto.ListResponse{Count: len(scanList), Data: scanList})
}

// Create handles POST /api/scans. The new scan starts queued; running it is a
// separate call.
func (h *ScanHandler) Create(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.GetUserID(r.Context())

	var req dto.CreateScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if errors := req.Validate(); len(errors) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errors})
		return
	}

	projectID, err := uuid.Parse(req.ProjectID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid project ID"})
		return
	}

	var project models.Project
	if err := h.db.Where("id = ? AND owner_id = ?", projectID, ownerID).
		First(&project).Error; err != nil {
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Project not found"})
		return
	}

	scan := models.Scan{
		OwnerID:       ownerID,
		ProjectID:     project.ID,
		RepositoryURL: project.RepositoryURL,
		Status:        models.ScanStatusQueued,
	}
	if req.ScanType != "" {
		scan.ScanType = req.ScanType
	}
	if req.Branch != "" {
		scan.Branch = req.Branch
	}

	if err := h.db.Create(&scan).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to create scan"})
		return
	}

	writeJSON(w, http.StatusCreated, scan)
}

// Get handles GET /api/scans/{id}. Completed records stored before the
// summary schema grew skills-gap data are hydrated from the JSON artifact on
// the way out.
func (h *ScanHandler) Get(w http.ResponseWriter, r *http.Request) {
	scan, ok := h.loadScan(w, r)
	if !ok {
		return
	}

	h.scanService.Hydrate(scan)

	writeJSON(w, http.StatusOK, scan)
}

// Update handles PATCH /api/scans/{id}: direct adjustments from external
// pipeline steps, with lifecycle timestamps stamped to match the new status.
func (h *ScanHandler) Update(w http.ResponseWriter, r *http.Request) {
	scan, ok := h.loadScan(w, r)
	if !ok {
		return
	}

	var req dto.UpdateScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if errors := req.Validate(); len(errors) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errors})
		return
	}

	now := time.Now()
	if req.Status != nil {
		scan.Status = *req.Status
		switch *req.Status {
		case models.ScanStatusRunning:
			if scan.StartedAt == nil {
				scan.StartedAt = &now
			}
		case models.ScanStatusCompleted, models.ScanStatusFailed:
			scan.CompletedAt = &now
		}
	}
	if req.Progress != nil {
		scan.Progress = *req.Progress
	}
	if req.Findings != nil {
		findings := req.Findings
		if len(findings) > models.MaxFindings {
			findings = findings[:models.MaxFindings]
		}
		scan.Findings = findings
	}
	if req.ErrorMessage != nil {
		msg := *req.ErrorMessage
		if len(msg) > models.MaxErrorMessageLen {
			msg = msg[:models.MaxErrorMessageLen]
		}
		scan.ErrorMessage = msg
	}

	if err := h.db.Save(scan).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to update scan"})
		return
	}

	writeJSON(w, http.StatusOK, scan)
}

// Delete handles DELETE /api/scans/{id}
func (h *ScanHandler) Delete(w http.ResponseWriter, r *http.Request) {
	scan, ok := h.loadScan(w, r)
	if !ok {
		return
	}

	if err := h.db.Delete(scan).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to delete scan"})
		return
	}

	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Scan deleted"})
}

// DeleteFailed handles DELETE /api/scans/failed: bulk cleanup of failed runs.
func (h *ScanHandler) DeleteFailed(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.GetUserID(r.Context())

	result := h.db.Where("owner_id = ? AND status = ?", ownerID, models.ScanStatusFailed).
		Delete(&models.Scan{})
	if result.Error != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to delete scans"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Failed scans deleted",
		"deleted": result.RowsAffected,
	})
}

// Run handles POST /api/scans/{id}/run. Accepted means the analyzer was
// started in the background; the scan record reflects progress from there.
func (h *ScanHandler) Run(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.GetUserID(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid scan ID"})
		return
	}

	scan, err := h.scanService.StartRun(r.Context(), ownerID, id)
	if err != nil {
		switch err {
		case scans.ErrScanNotFound:
			writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Scan not found"})
		case scans.ErrAlreadyRunning:
			writeJSON(w, http.StatusConflict, dto.ErrorResponse{Error: "Scan is already running"})
		default:
			writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to start scan"})
		}
		return
	}

	writeJSON(w, http.StatusAccepted, scan)
}

// Report handles GET /api/scans/{id}/report?type=pdf|json and streams the
// stored artifact.
func (h *ScanHandler) Report(w http.ResponseWriter, r *http.Request) {
	scan, ok := h.loadScan(w, r)
	if !ok {
		return
	}

	if !scan.ReportAvailable() {
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "No report available for this scan"})
		return
	}

	reportType := r.URL.Query().Get("type")
	if reportType == "" {
		reportType = "pdf"
	}

	var path *string
	switch reportType {
	case "pdf":
		path = scan.ReportFiles.PDFPath
	case "json":
		path = scan.ReportFiles.JSONPath
	default:
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Report type must be pdf or json"})
		return
	}
	if path == nil {
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Requested report type was not generated"})
		return
	}

	abs, err := h.containedPath(*path)
	if err != nil {
		writeJSON(w, http.StatusForbidden, dto.ErrorResponse{Error: "Report path is not accessible"})
		return
	}

	w.Header().Set("Content-Disposition", "attachment; filename=\""+filepath.Base(abs)+"\"")
	http.ServeFile(w, r, abs)
}

// containedPath resolves p and verifies it stays inside the analyzer
// directory.
func (h *ScanHandler) containedPath(p string) (string, error) {
	root, err := filepath.Abs(h.analyzerDir)
	if err != nil {
		return "", err
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil {
		return "", err
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errPathOutsideRoot
	}
	return abs, nil
}

var errPathOutsideRoot = errors.New("report path escapes analyzer directory")

func (h *ScanHandler) loadScan(w http.ResponseWriter, r *http.Request) (*models.Scan, bool) {
	ownerID := middleware.GetUserID(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid scan ID"})
		return nil, false
	}

	var scan models.Scan
	if err := h.db.Where("id = ? AND owner_id = ?", id, ownerID).First(&scan).Error; err != nil {
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Scan not found"})
		return nil, false
	}

	return &scan, true
}
