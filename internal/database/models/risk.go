package models

import "github.com/google/uuid"

type RiskSeverity string

const (
	RiskSeverityLow      RiskSeverity = "low"
	RiskSeverityMedium   RiskSeverity = "medium"
	RiskSeverityHigh     RiskSeverity = "high"
	RiskSeverityCritical RiskSeverity = "critical"
)

type RiskStatus string

const (
	RiskStatusOpen          RiskStatus = "open"
	RiskStatusAcknowledged  RiskStatus = "acknowledged"
	RiskStatusResolved      RiskStatus = "resolved"
	RiskStatusFalsePositive RiskStatus = "false_positive"
)

type Risk struct {
	Base
	OwnerID   uuid.UUID  `gorm:"type:uuid;index;not null" json:"owner_id"`
	ProjectID uuid.UUID  `gorm:"type:uuid;index;not null" json:"project_id"`
	ScanID    *uuid.UUID `gorm:"type:uuid;index" json:"scan_id,omitempty"`

	Title       string       `gorm:"not null" json:"title"`
	Description string       `json:"description,omitempty"`
	Severity    RiskSeverity `gorm:"index;default:'medium'" json:"severity"`
	RiskScore   float64      `gorm:"default:5" json:"risk_score"`

	File string `json:"file,omitempty"`
	Line *int   `json:"line,omitempty"`

	Status RiskStatus `gorm:"index;default:'open'" json:"status"`
	Notes  string     `json:"notes,omitempty"`

	// Relationships
	Project *Project `gorm:"foreignKey:ProjectID" json:"-"`
	Scan    *Scan    `gorm:"foreignKey:ScanID" json:"-"`
}

func (Risk) TableName() string {
	return "risks"
}
