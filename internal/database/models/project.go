package models

import (
	"time"

	"github.com/google/uuid"
)

type Project struct {
	Base
	OwnerID        uuid.UUID `gorm:"type:uuid;index;index:idx_owner_github_repo;not null" json:"owner_id"`
	Name           string    `gorm:"not null" json:"name"`
	FullName       string    `gorm:"not null" json:"full_name"`
	Description    string    `json:"description,omitempty"`
	RepositoryURL  string    `gorm:"not null" json:"repository_url"`
	RepositoryType string    `gorm:"default:'github'" json:"repository_type"`
	Language       string    `gorm:"default:'unknown'" json:"language"`

	// Set when the project was imported from the owner's GitHub account.
	// Import checks this to keep one project per repository per owner.
	GitHubRepoID string `gorm:"index:idx_owner_github_repo" json:"github_repo_id,omitempty"`

	IsPrivate bool `gorm:"default:false" json:"is_private"`
	Stars     int  `gorm:"default:0" json:"stars"`
	Forks     int  `gorm:"default:0" json:"forks"`

	// Updated as a side effect of a completed scan run.
	LastScan  *time.Time `json:"last_scan,omitempty"`
	RiskScore float64    `gorm:"default:0" json:"risk_score"`

	Status string `gorm:"default:'active'" json:"status"`

	// Relationships
	Owner *User  `gorm:"foreignKey:OwnerID" json:"-"`
	Scans []Scan `gorm:"foreignKey:ProjectID" json:"-"`
}

func (Project) TableName() string {
	return "projects"
}
