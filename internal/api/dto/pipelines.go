package dto

import "github.com/securecicd/backend/internal/database/models"

// UpsertPipelineRequest creates or replaces the pipeline configuration of a
// project.
type UpsertPipelineRequest struct {
	ProjectID     string                `json:"project_id"`
	Name          string                `json:"name"`
	Stages        []string              `json:"stages"`
	RiskThreshold *models.RiskThreshold `json:"risk_threshold"`
	Enabled       *bool                 `json:"enabled"`
}

func (r UpsertPipelineRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if r.ProjectID == "" {
		errors["project_id"] = "Project ID is required"
	}

	return errors
}

// UpdatePipelineRequest adjusts an existing pipeline. Nil fields are left
// untouched.
type UpdatePipelineRequest struct {
	Name          *string               `json:"name"`
	Stages        []string              `json:"stages"`
	RiskThreshold *models.RiskThreshold `json:"risk_threshold"`
	Enabled       *bool                 `json:"enabled"`
}
