package peer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/gitmesh/gitmesh/dao/model"
	"github.com/gitmesh/gitmesh/pkg/db"
)

// ActiveWindow is how recently a peer must have been seen to count as active.
const ActiveWindow = 10 * time.Minute

type DBService interface {
	// Upsert inserts the peer or refreshes its lastSeen.
	// metadata replaces the stored value only when non-empty.
	Upsert(ctx context.Context, peerID string, metadata json.RawMessage, now time.Time) (*model.Peer, error)
	ListActive(ctx context.Context, now time.Time) ([]model.Peer, error)
	CountActive(ctx context.Context, now time.Time) (int64, error)
	// Share records that repositoryID was announced to peerID, once.
	Share(ctx context.Context, repositoryID uint, peerID string) (*model.SharedRepository, error)
	ListShares(ctx context.Context, repositoryID uint) ([]model.SharedRepository, error)
	Unshare(ctx context.Context, repositoryID uint, peerID string) error
}

type service struct {
	db *gorm.DB
}

func NewDBService(gdb *gorm.DB) DBService {
	return &service{db: gdb}
}

func hasMetadata(metadata json.RawMessage) bool {
	return len(metadata) > 0 && string(metadata) != "null"
}

func (s *service) Upsert(ctx context.Context, peerID string, metadata json.RawMessage, now time.Time) (*model.Peer, error) {
	if peerID == "" {
		return nil, fmt.Errorf("peer id: %w", db.ErrInvalid)
	}
	now = now.UTC()

	var peer model.Peer
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("peer_id = ?", peerID).First(&peer).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			peer = model.Peer{PeerID: peerID, LastSeen: now, Metadata: datatypes.JSON("{}")}
			if hasMetadata(metadata) {
				peer.Metadata = datatypes.JSON(metadata)
			}
			return tx.Create(&peer).Error
		}
		if err != nil {
			return err
		}
		updates := map[string]any{"last_seen": now}
		peer.LastSeen = now
		if hasMetadata(metadata) {
			updates["metadata"] = datatypes.JSON(metadata)
			peer.Metadata = datatypes.JSON(metadata)
		}
		return tx.Model(&model.Peer{}).Where("id = ?", peer.ID).Updates(updates).Error
	})
	if err != nil {
		return nil, err
	}
	return &peer, nil
}

func (s *service) active(ctx context.Context, now time.Time) *gorm.DB {
	return s.db.WithContext(ctx).Model(&model.Peer{}).
		Where("last_seen > ?", now.UTC().Add(-ActiveWindow))
}

func (s *service) ListActive(ctx context.Context, now time.Time) ([]model.Peer, error) {
	var peers []model.Peer
	err := s.active(ctx, now).Order("last_seen DESC").Find(&peers).Error
	return peers, err
}

func (s *service) CountActive(ctx context.Context, now time.Time) (int64, error) {
	var n int64
	err := s.active(ctx, now).Count(&n).Error
	return n, err
}

func (s *service) Share(ctx context.Context, repositoryID uint, peerID string) (*model.SharedRepository, error) {
	var share model.SharedRepository
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&model.Repository{}).Where("id = ?", repositoryID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("repository %d: %w", repositoryID, db.ErrNotFound)
		}
		if err := tx.Model(&model.Peer{}).Where("peer_id = ?", peerID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("peer %s: %w", peerID, db.ErrNotFound)
		}

		err := tx.Where("repository_id = ? AND peer_id = ?", repositoryID, peerID).First(&share).Error
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		share = model.SharedRepository{RepositoryID: repositoryID, PeerID: peerID}
		return tx.Create(&share).Error
	})
	if err != nil {
		return nil, err
	}
	return &share, nil
}

func (s *service) ListShares(ctx context.Context, repositoryID uint) ([]model.SharedRepository, error) {
	var shares []model.SharedRepository
	err := s.db.WithContext(ctx).Preload("Peer").
		Where("repository_id = ?", repositoryID).
		Order("created_at DESC").Find(&shares).Error
	return shares, err
}

func (s *service) Unshare(ctx context.Context, repositoryID uint, peerID string) error {
	res := s.db.WithContext(ctx).
		Where("repository_id = ? AND peer_id = ?", repositoryID, peerID).
		Delete(&model.SharedRepository{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return db.ErrNotFound
	}
	return nil
}
