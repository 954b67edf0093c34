package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/securecicd/backend/internal/api/dto"
	"github.com/securecicd/backend/internal/api/middleware"
	"github.com/securecicd/backend/internal/database/models"
)

type RiskHandler struct {
	db *gorm.DB
}

func NewRiskHandler(db *gorm.DB) *RiskHandler {
	return &RiskHandler{db: db}
}

// List handles GET /api/risks
func (h *RiskHandler) List(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.GetUserID(r.Context())

	query := h.db.Where("owner_id = ?", ownerID)
	if projectID := r.URL.Query().Get("project_id"); projectID != "" {
		query = query.Where("project_id = ?", projectID)
	}
	if severity := r.URL.Query().Get("severity"); severity != "" {
		query = query.Where("severity = ?", severity)
	}
	if status := r.URL.Query().Get("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var risks []models.Risk
	if err := query.Order("created_at DESC").Find(&risks).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to list risks"})
		return
	}

	writeJSON(w, http.StatusOK, dto.ListResponse{Count: len(risks), Data: risks})
}

// Create handles POST /api/risks
func (h *RiskHandler) Create(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.GetUserID(r.Context())

	var req dto.CreateRiskRequest
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

	risk := models.Risk{
		OwnerID:     ownerID,
		ProjectID:   project.ID,
		Title:       req.Title,
		Description: req.Description,
		File:        req.File,
		Line:        req.Line,
	}
	if req.Severity != "" {
		risk.Severity = models.RiskSeverity(req.Severity)
	}
	if req.RiskScore > 0 {
		risk.RiskScore = req.RiskScore
	}
	if req.ScanID != "" {
		scanID, err := uuid.Parse(req.ScanID)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid scan ID"})
			return
		}
		risk.ScanID = &scanID
	}

	if err := h.db.Create(&risk).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to create risk"})
		return
	}

	writeJSON(w, http.StatusCreated, risk)
}

// Get handles GET /api/risks/{id}
func (h *RiskHandler) Get(w http.ResponseWriter, r *http.Request) {
	risk, ok := h.loadRisk(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, risk)
}

// Update handles PATCH /api/risks/{id}
func (h *RiskHandler) Update(w http.ResponseWriter, r *http.Request) {
	risk, ok := h.loadRisk(w, r)
	if !ok {
		return
	}

	var req dto.UpdateRiskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if errors := req.Validate(); len(errors) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errors})
		return
	}

	if req.Status != nil {
		risk.Status = *req.Status
	}
	if req.Severity != nil {
		risk.Severity = models.RiskSeverity(*req.Severity)
	}
	if req.Notes != nil {
		risk.Notes = *req.Notes
	}

	if err := h.db.Save(risk).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to update risk"})
		return
	}

	writeJSON(w, http.StatusOK, risk)
}

// Delete handles DELETE /api/risks/{id}
func (h *RiskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	risk, ok := h.loadRisk(w, r)
	if !ok {
		return
	}

	if err := h.db.Delete(risk).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to delete risk"})
		return
	}

	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Risk deleted"})
}

func (h *RiskHandler) loadRisk(w http.ResponseWriter, r *http.Request) (*models.Risk, bool) {
	ownerID := middleware.GetUserID(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid risk ID"})
		return nil, false
	}

	var risk models.Risk
	if err := h.db.Where("id = ? AND owner_id = ?", id, ownerID).First(&risk).Error; err != nil {
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Risk not found"})
		return nil, false
	}

	return &risk, true
}
