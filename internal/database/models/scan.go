package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type ScanStatus string

const (
	ScanStatusQueued    ScanStatus = "queued"
	ScanStatusRunning   ScanStatus = "running"
	ScanStatusCompleted ScanStatus = "completed"
	ScanStatusFailed    ScanStatus = "failed"
)

const (
	// MaxFindings bounds how many critical-issue entries are stored per scan.
	MaxFindings = 50
	// MaxErrorMessageLen bounds the persisted failure message.
	MaxErrorMessageLen = 2000
	// MaxLogTailLen bounds the persisted trailing analyzer output.
	MaxLogTailLen = 10000
)

// FindingList holds raw critical-issue objects from the analyzer report.
// The issue shape is owned by the external tool, so entries are kept verbatim.
type FindingList []json.RawMessage

// ReportFiles records the artifacts one analyzer run produced. Any field may
// be nil when that artifact kind was not generated.
type ReportFiles struct {
	PDFFile  *string `json:"pdf_file"`
	PDFPath  *string `json:"pdf_path"`
	JSONFile *string `json:"json_file"`
	JSONPath *string `json:"json_path"`
}

type MetricScores struct {
	Overall         float64 `json:"overall"`
	Accuracy        float64 `json:"accuracy"`
	Complexity      float64 `json:"complexity"`
	Efficiency      float64 `json:"efficiency"`
	Maintainability float64 `json:"maintainability"`
	Documentation   float64 `json:"documentation"`
}

type SkillGap struct {
	Skill    string  `json:"skill"`
	Score    float64 `json:"score"`
	Severity string  `json:"severity"`
}

type SkillsGap struct {
	OverallProficiency float64            `json:"overall_proficiency"`
	SkillLevels        map[string]float64 `json:"skill_levels"`
	IdentifiedGaps     []SkillGap         `json:"identified_gaps"`
}

// AnalysisSummary is the normalized digest of one analyzer JSON report.
type AnalysisSummary struct {
	TotalFilesAnalyzed int            `json:"total_files_analyzed"`
	TotalIssues        int            `json:"total_issues"`
	Metrics            MetricScores   `json:"metrics"`
	SkillsGap          SkillsGap      `json:"skills_gap"`
	SeverityCounts     map[string]int `json:"severity_counts"`
	CategoryCounts     map[string]int `json:"category_counts"`
}

// HasSkillsGapData reports whether the summary carries skill-level detail.
// Records written before the summary schema grew skills-gap fields return
// false and are repaired lazily from the JSON artifact on read.
func (s *AnalysisSummary) HasSkillsGapData() bool {
	return s != nil && len(s.SkillsGap.SkillLevels) > 0
}

// Scan represents one execution attempt of the external analyzer against a
// project's repository.
type Scan struct {
	Base
	OwnerID   uuid.UUID `gorm:"type:uuid;index;not null" json:"owner_id"`
	ProjectID uuid.UUID `gorm:"type:uuid;index;not null" json:"project_id"`

	RepositoryURL string `gorm:"not null" json:"repository_url"`
	ScanType      string `gorm:"default:'full'" json:"scan_type"`
	Branch        string `gorm:"default:'main'" json:"branch"`

	Status   ScanStatus `gorm:"not null;index;default:'queued'" json:"status"`
	Progress int        `gorm:"default:0" json:"progress"`

	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	Findings        FindingList      `gorm:"type:jsonb;serializer:json" json:"findings"`
	AnalysisSummary *AnalysisSummary `gorm:"type:jsonb;serializer:json" json:"analysis_summary"`
	ReportFiles     *ReportFiles     `gorm:"type:jsonb;serializer:json" json:"report_files"`

	ErrorMessage    string `json:"error_message,omitempty"`
	AnalyzerLogTail string `gorm:"type:text" json:"analyzer_log_tail,omitempty"`

	// Relationships
	Owner   *User    `gorm:"foreignKey:OwnerID" json:"-"`
	Project *Project `gorm:"foreignKey:ProjectID" json:"-"`
}

func (Scan) TableName() string {
	return "scans"
}

// ReportAvailable reports whether at least one artifact path was recorded.
func (s *Scan) ReportAvailable() bool {
	if s.ReportFiles == nil {
		return false
	}
	return s.ReportFiles.PDFPath != nil || s.ReportFiles.JSONPath != nil
}
