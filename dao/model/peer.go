package model

import (
	"time"

	"gorm.io/datatypes"
)

// Peer is upserted every time a relay connection registers under PeerID.
type Peer struct {
	ID       uint           `gorm:"primaryKey" json:"id"`
	PeerID   string         `gorm:"uniqueIndex;type:varchar(256);not null" json:"peerId"`
	LastSeen time.Time      `gorm:"not null;index" json:"lastSeen"`
	Metadata datatypes.JSON `json:"metadata"`

	Shares []SharedRepository `gorm:"foreignKey:PeerID;references:PeerID;constraint:OnDelete:CASCADE;" json:"-"`
}

// SharedRepository records that a repository was announced to a peer.
type SharedRepository struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	RepositoryID uint      `gorm:"not null;uniqueIndex:idx_shared_repo_peer" json:"repositoryId"`
	PeerID       string    `gorm:"type:varchar(256);not null;uniqueIndex:idx_shared_repo_peer" json:"peerId"`
	Peer         *Peer     `gorm:"-:migration;foreignKey:PeerID;references:PeerID" json:"peer,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}
