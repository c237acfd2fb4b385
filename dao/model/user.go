package model

import (
	"time"
)

// User is the basic entity of the system.
// PasswordHash and PrivateKey never leave the server.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"uniqueIndex;type:varchar(64);not null;comment:用户名" json:"username"`
	PasswordHash string    `gorm:"column:password;type:varchar(128);not null" json:"-"`
	DisplayName  string    `gorm:"type:varchar(128);not null" json:"displayName"`
	PublicKey    string    `gorm:"type:text;not null" json:"publicKey"`
	PrivateKey   *string   `gorm:"type:text" json:"-"`
	AvatarURL    *string   `gorm:"type:varchar(512)" json:"avatarUrl"`
	StorageUsed  int64     `gorm:"type:bigint;not null;default:0" json:"storageUsed"`
	StorageLimit int64     `gorm:"type:bigint;not null;default:2000000000" json:"storageLimit"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
