package dto

import "github.com/securecicd/backend/internal/database/models"

type CreateRiskRequest struct {
	ProjectID   string  `json:"project_id"`
	ScanID      string  `json:"scan_id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Severity    string  `json:"severity"`
	RiskScore   float64 `json:"risk_score"`
	File        string  `json:"file"`
	Line        *int    `json:"line"`
}

func (r CreateRiskRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if r.ProjectID == "" {
		errors["project_id"] = "Project ID is required"
	}
	if r.Title == "" {
		errors["title"] = "Title is required"
	}
	if r.Severity != "" && !validRiskSeverity(r.Severity) {
		errors["severity"] = "Invalid severity"
	}

	return errors
}

type UpdateRiskRequest struct {
	Status   *models.RiskStatus `json:"status"`
	Severity *string            `json:"severity"`
	Notes    *string            `json:"notes"`
}

func (r UpdateRiskRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if r.Status != nil {
		switch *r.Status {
		case models.RiskStatusOpen, models.RiskStatusAcknowledged,
			models.RiskStatusResolved, models.RiskStatusFalsePositive:
		default:
			errors["status"] = "Invalid risk status"
		}
	}
	if r.Severity != nil && !validRiskSeverity(*r.Severity) {
		errors["severity"] = "Invalid severity"
	}

	return errors
}

func validRiskSeverity(s string) bool {
	switch models.RiskSeverity(s) {
	case models.RiskSeverityLow, models.RiskSeverityMedium,
		models.RiskSeverityHigh, models.RiskSeverityCritical:
		return true
	}
	return false
}
