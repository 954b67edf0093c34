package dto

import "github.com/securecicd/backend/internal/database/models"

type CreateScanRequest struct {
	ProjectID string `json:"project_id"`
	ScanType  string `json:"scan_type"`
	Branch    string `json:"branch"`
}

func (r CreateScanRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if r.ProjectID == "" {
		errors["project_id"] = "Project ID is required"
	}

	return errors
}

// UpdateScanRequest allows external pipeline steps to adjust a scan record
// directly, outside the analyzer-driven lifecycle.
type UpdateScanRequest struct {
	Status       *models.ScanStatus `json:"status"`
	Progress     *int               `json:"progress"`
	ErrorMessage *string            `json:"error_message"`

	// Findings replaces the stored findings when an array is supplied.
	// Absent or null leaves them untouched.
	Findings models.FindingList `json:"findings"`
}

func (r UpdateScanRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if r.Status != nil {
		switch *r.Status {
		case models.ScanStatusQueued, models.ScanStatusRunning,
			models.ScanStatusCompleted, models.ScanStatusFailed:
		default:
			errors["status"] = "Invalid scan status"
		}
	}
	if r.Progress != nil && (*r.Progress < 0 || *r.Progress > 100) {
		errors["progress"] = "Progress must be between 0 and 100"
	}

	return errors
}
