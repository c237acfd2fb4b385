package model

import (
	"time"

	"gorm.io/datatypes"
)

// Activity is append-only.
type Activity struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	UserID       uint           `gorm:"not null;index" json:"userId"`
	User         *User          `gorm:"constraint:OnDelete:CASCADE;" json:"user,omitempty"`
	RepositoryID *uint          `gorm:"index" json:"repositoryId"`
	Repository   *Repository    `gorm:"constraint:OnDelete:SET NULL;" json:"repository,omitempty"`
	Type         string         `gorm:"type:varchar(64);not null" json:"type"`
	Payload      datatypes.JSON `gorm:"not null" json:"payload"`
	CreatedAt    time.Time      `gorm:"index" json:"createdAt"`
}
