package models

import "github.com/google/uuid"

// RiskThreshold is the per-severity gate a pipeline enforces before promoting
// a build.
type RiskThreshold struct {
	Critical int `json:"critical"`
	High     int `json:"high"`
}

func DefaultRiskThreshold() RiskThreshold {
	return RiskThreshold{Critical: 0, High: 5}
}

func DefaultStages() []string {
	return []string{"scan", "analyze", "decide"}
}

type Pipeline struct {
	Base
	OwnerID   uuid.UUID `gorm:"type:uuid;index;index:idx_owner_project_pipeline,unique;not null" json:"owner_id"`
	ProjectID uuid.UUID `gorm:"type:uuid;index:idx_owner_project_pipeline,unique;not null" json:"project_id"`

	Name          string        `gorm:"default:'Default Pipeline'" json:"name"`
	Stages        []string      `gorm:"type:jsonb;serializer:json" json:"stages"`
	RiskThreshold RiskThreshold `gorm:"type:jsonb;serializer:json" json:"risk_threshold"`
	Enabled       bool          `gorm:"default:true" json:"enabled"`

	// Relationships
	Project *Project `gorm:"foreignKey:ProjectID" json:"-"`
}

func (Pipeline) TableName() string {
	return "pipelines"
}
