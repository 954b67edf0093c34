package models

type AuthProvider string

const (
	ProviderLocal  AuthProvider = "local"
	ProviderGoogle AuthProvider = "google"
	ProviderGitHub AuthProvider = "github"
)

type User struct {
	Base
	Email        string       `gorm:"uniqueIndex;not null" json:"email"`
	Name         string       `gorm:"not null" json:"name"`
	Role         string       `gorm:"default:'user'" json:"role"` // user, admin
	PasswordHash string       `json:"-"`
	Provider     AuthProvider `gorm:"default:'local'" json:"provider"`
	GoogleID     string       `gorm:"index" json:"-"`
	GitHubID     string       `gorm:"index" json:"-"`

	// Encrypted with pkg/crypto before storage.
	GitHubAccessToken string `json:"-"`

	ProfilePhotoURL string `json:"profile_photo_url,omitempty"`
}

func (User) TableName() string {
	return "users"
}
