package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/securecicd/backend/internal/api/dto"
	"github.com/securecicd/backend/internal/api/middleware"
	"github.com/securecicd/backend/internal/auth"
	"github.com/securecicd/backend/internal/database/models"
)

type ProjectHandler struct {
	db          *gorm.DB
	authService *auth.Service
}

func NewProjectHandler(db *gorm.DB, authService *auth.Service) *ProjectHandler {
	return &ProjectHandler{db: db, authService: authService}
}

// List handles GET /api/projects
func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.GetUserID(r.Context())

	var projects []models.Project
	if err := h.db.Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&projects).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to list projects"})
		return
	}

	writeJSON(w, http.StatusOK, dto.ListResponse{Count: len(projects), Data: projects})
}

// Create handles POST /api/projects
func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.GetUserID(r.Context())

	var req dto.CreateProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if errors := req.Validate(); len(errors) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errors})
		return
	}

	project := models.Project{
		OwnerID:       ownerID,
		Name:          req.Name,
		RepositoryURL: req.RepositoryURL,
		Description:   req.Description,
		Language:      req.Language,
	}
	if project.Language == "" {
		project.Language = "unknown"
	}

	if err := h.db.Create(&project).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to create project"})
		return
	}

	writeJSON(w, http.StatusCreated, project)
}

// Get handles GET /api/projects/{id}
func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	project, ok := h.loadProject(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, project)
}

// Update handles PATCH /api/projects/{id}
func (h *ProjectHandler) Update(w http.ResponseWriter, r *http.Request) {
	project, ok := h.loadProject(w, r)
	if !ok {
		return
	}

	var req dto.UpdateProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if req.Name != nil {
		project.Name = *req.Name
	}
	if req.Description != nil {
		project.Description = *req.Description
	}
	if req.Language != nil {
		project.Language = *req.Language
	}
	if req.Status != nil {
		project.Status = *req.Status
	}

	if err := h.db.Save(project).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to update project"})
		return
	}

	writeJSON(w, http.StatusOK, project)
}

// Delete handles DELETE /api/projects/{id}. Scans, risks, and the pipeline
// of the project go with it.
func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	project, ok := h.loadProject(w, r)
	if !ok {
		return
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("project_id = ?", project.ID).Delete(&models.Scan{}).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", project.ID).Delete(&models.Risk{}).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", project.ID).Delete(&models.Pipeline{}).Error; err != nil {
			return err
		}
		return tx.Delete(project).Error
	})
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to delete project"})
		return
	}

	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Project deleted"})
}

// ImportGitHub handles POST /api/projects/import/github. Selected
// repositories from the linked GitHub account become projects; repositories
// already imported are skipped.
func (h *ProjectHandler) ImportGitHub(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.GetUserID(r.Context())

	var req dto.ImportGitHubReposRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if errors := req.Validate(); len(errors) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errors})
		return
	}

	repos, err := h.authService.GitHubRepos(r.Context(), ownerID)
	if err != nil {
		switch err {
		case auth.ErrGitHubNotLinked:
			writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "No GitHub account linked"})
		default:
			writeJSON(w, http.StatusBadGateway, dto.ErrorResponse{Error: "Failed to list GitHub repositories"})
		}
		return
	}

	selected := make(map[int64]bool, len(req.RepoIDs))
	for _, id := range req.RepoIDs {
		selected[id] = true
	}

	var imported []models.Project
	for _, repo := range repos {
		if !selected[repo.ID] {
			continue
		}

		githubRepoID := strconv.FormatInt(repo.ID, 10)

		var existing models.Project
		err := h.db.Where("owner_id = ? AND git_hub_repo_id = ?", ownerID, githubRepoID).
			First(&existing).Error
		if err == nil {
			continue
		}

		language := repo.Language
		if language == "" {
			language = "unknown"
		}

		project := models.Project{
			OwnerID:       ownerID,
			Name:          repo.Name,
			FullName:      repo.FullName,
			Description:   repo.Description,
			RepositoryURL: repo.HTMLURL,
			GitHubRepoID:  githubRepoID,
			Language:      language,
			IsPrivate:     repo.Private,
			Stars:         repo.Stars,
			Forks:         repo.Forks,
		}
		if err := h.db.Create(&project).Error; err != nil {
			writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to import repositories"})
			return
		}
		imported = append(imported, project)
	}

	writeJSON(w, http.StatusCreated, dto.ListResponse{Count: len(imported), Data: imported})
}

func (h *ProjectHandler) loadProject(w http.ResponseWriter, r *http.Request) (*models.Project, bool) {
	ownerID := middleware.GetUserID(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid project ID"})
		return nil, false
	}

	var project models.Project
	if err := h.db.Where("id = ? AND owner_id = ?", id, ownerID).First(&project).Error; err != nil {
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Project not found"})
		return nil, false
	}

	return &project, true
}
