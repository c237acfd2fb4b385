package model

import (
	"time"
)

// Repository counters are advisory, nothing derives them from real Git data.
type Repository struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"type:varchar(256);not null;index" json:"name"`
	Description *string   `gorm:"type:text" json:"description"`
	IsPublic    bool      `gorm:"not null;index" json:"isPublic"`
	IsVerified  bool      `gorm:"not null;default:false" json:"isVerified"`
	OwnerID     uint      `gorm:"not null;index" json:"ownerId"`
	Owner       *User     `gorm:"constraint:OnDelete:CASCADE;" json:"owner,omitempty"`
	Language    *string   `gorm:"type:varchar(64)" json:"language"`
	Stars       int       `gorm:"not null;default:0" json:"stars"`
	Forks       int       `gorm:"not null;default:0" json:"forks"`
	Branches    int       `gorm:"not null;default:1" json:"branches"`
	Commits     int       `gorm:"not null;default:0" json:"commits"`
	LocalPath   string    `gorm:"type:varchar(512);not null" json:"localPath"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `gorm:"index" json:"updatedAt"`
}

type Collaborator struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	RepositoryID uint       `gorm:"not null;uniqueIndex:idx_collaborator_repo_user" json:"repositoryId"`
	UserID       uint       `gorm:"not null;uniqueIndex:idx_collaborator_repo_user" json:"userId"`
	User         *User      `gorm:"constraint:OnDelete:CASCADE;" json:"user,omitempty"`
	Permission   Permission `gorm:"type:varchar(16);not null;default:read" json:"permission"`
	CreatedAt    time.Time  `json:"createdAt"`
}

type Tag struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex;type:varchar(128);not null" json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

type RepositoryTag struct {
	ID           uint `gorm:"primaryKey" json:"id"`
	RepositoryID uint `gorm:"not null;uniqueIndex:idx_repository_tag" json:"repositoryId"`
	TagID        uint `gorm:"not null;uniqueIndex:idx_repository_tag" json:"tagId"`
	Tag          *Tag `gorm:"constraint:OnDelete:CASCADE;" json:"tag,omitempty"`
}
