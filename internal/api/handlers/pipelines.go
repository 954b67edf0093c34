package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/securecicd/backend/internal/api/dto"
	"github.com/securecicd/backend/internal/api/middleware"
	"github.com/securecicd/backend/internal/database/models"
)

// PipelineHandler manages per-project pipeline configuration. Each project
// has at most one pipeline; upserting replaces the stored configuration.
type PipelineHandler struct {
	db *gorm.DB
}

func NewPipelineHandler(db *gorm.DB) *PipelineHandler {
	return &PipelineHandler{db: db}
}

// List handles GET /api/pipelines
func (h *PipelineHandler) List(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.GetUserID(r.Context())

	query := h.db.Where("owner_id = ?", ownerID)
	if projectID := r.URL.Query().Get("project_id"); projectID != "" {
		query = query.Where("project_id = ?", projectID)
	}

	var pipelines []models.Pipeline
	if err := query.Order("created_at DESC").Find(&pipelines).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to list pipelines"})
		return
	}

	writeJSON(w, http.StatusOK, dto.ListResponse{Count: len(pipelines), Data: pipelines})
}

// Upsert handles POST /api/pipelines
func (h *PipelineHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.GetUserID(r.Context())

	var req dto.UpsertPipelineRequest
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

	var pipeline models.Pipeline
	err = h.db.Where("owner_id = ? AND project_id = ?", ownerID, project.ID).
		First(&pipeline).Error
	created := errors.Is(err, gorm.ErrRecordNotFound)
	if created {
		pipeline = models.Pipeline{
			OwnerID:       ownerID,
			ProjectID:     project.ID,
			Stages:        models.DefaultStages(),
			RiskThreshold: models.DefaultRiskThreshold(),
			Enabled:       true,
		}
	} else if err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to load pipeline"})
		return
	}

	if req.Name != "" {
		pipeline.Name = req.Name
	}
	if len(req.Stages) > 0 {
		pipeline.Stages = req.Stages
	}
	if req.RiskThreshold != nil {
		pipeline.RiskThreshold = *req.RiskThreshold
	}
	if req.Enabled != nil {
		pipeline.Enabled = *req.Enabled
	}

	if err := h.db.Save(&pipeline).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to save pipeline"})
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, pipeline)
}

// Get handles GET /api/pipelines/{id}
func (h *PipelineHandler) Get(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.GetUserID(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid pipeline ID"})
		return
	}

	var pipeline models.Pipeline
	if err := h.db.Where("id = ? AND owner_id = ?", id, ownerID).
		First(&pipeline).Error; err != nil {
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Pipeline not found"})
		return
	}

	writeJSON(w, http.StatusOK, pipeline)
}

// Update handles PATCH /api/pipelines/{id}
func (h *PipelineHandler) Update(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.GetUserID(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid pipeline ID"})
		return
	}

	var pipeline models.Pipeline
	if err := h.db.Where("id = ? AND owner_id = ?", id, ownerID).
		First(&pipeline).Error; err != nil {
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Pipeline not found"})
		return
	}

	var req dto.UpdatePipelineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if req.Name != nil {
		pipeline.Name = *req.Name
	}
	if len(req.Stages) > 0 {
		pipeline.Stages = req.Stages
	}
	if req.RiskThreshold != nil {
		pipeline.RiskThreshold = *req.RiskThreshold
	}
	if req.Enabled != nil {
		pipeline.Enabled = *req.Enabled
	}

	if err := h.db.Save(&pipeline).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to update pipeline"})
		return
	}

	writeJSON(w, http.StatusOK, pipeline)
}

// Delete handles DELETE /api/pipelines/{id}
func (h *PipelineHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.GetUserID(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid pipeline ID"})
		return
	}

	result := h.db.Where("id = ? AND owner_id = ?", id, ownerID).Delete(&models.Pipeline{})
	if result.Error != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to delete pipeline"})
		return
	}
	if result.RowsAffected == 0 {
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Pipeline not found"})
		return
	}

	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Pipeline deleted"})
}
