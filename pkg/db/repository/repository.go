package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"k8s.io/klog/v2"

	"github.com/gitmesh/gitmesh/dao/model"
	"github.com/gitmesh/gitmesh/pkg/db"
	"github.com/gitmesh/gitmesh/pkg/storage"
)

// mkdirAttempts bounds the retries when two repositories of one owner
// are created within the same millisecond.
const mkdirAttempts = 5

// Patch lists the only fields an owner may change.
type Patch struct {
	Name        *string
	Description *string
	IsPublic    *bool
	Language    *string
}

type CreateReq struct {
	Name        string
	Description *string
	IsPublic    bool
	Language    *string
}

// DBService reads and writes repositories. A requesterID of 0 means anonymous.
type DBService interface {
	List(ctx context.Context, search string, requesterID uint) ([]model.Repository, error)
	ListByOwner(ctx context.Context, ownerID, requesterID uint) ([]model.Repository, error)
	Get(ctx context.Context, id, requesterID uint) (*model.Repository, error)
	GetOwned(ctx context.Context, id, requesterID uint) (*model.Repository, error)
	Create(ctx context.Context, ownerID uint, req CreateReq) (*model.Repository, error)
	Update(ctx context.Context, id, requesterID uint, patch Patch) (*model.Repository, error)
	Delete(ctx context.Context, id, requesterID uint) error
	Exists(ctx context.Context, id uint) (bool, error)
	Count(ctx context.Context) (int64, error)
}

type service struct {
	db    *gorm.DB
	store storage.Store
	now   func() time.Time
}

func NewDBService(gdb *gorm.DB, store storage.Store) DBService {
	return &service{db: gdb, store: store, now: time.Now}
}

func (s *service) visible(tx *gorm.DB, requesterID uint) *gorm.DB {
	if requesterID == 0 {
		return tx.Where("is_public = ?", true)
	}
	return tx.Where("(is_public = ? OR owner_id = ?)", true, requesterID)
}

// List returns the repositories visible to requesterID, newest update first.
// search matches name or description, case-insensitive.
func (s *service) List(ctx context.Context, search string, requesterID uint) ([]model.Repository, error) {
	tx := s.visible(s.db.WithContext(ctx).Model(&model.Repository{}), requesterID)
	if search = strings.TrimSpace(search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		tx = tx.Where("(LOWER(name) LIKE ? OR LOWER(COALESCE(description, '')) LIKE ?)", pattern, pattern)
	}
	var repos []model.Repository
	err := tx.Preload("Owner").Order("updated_at DESC").Order("id DESC").Find(&repos).Error
	return repos, err
}

func (s *service) ListByOwner(ctx context.Context, ownerID, requesterID uint) ([]model.Repository, error) {
	tx := s.db.WithContext(ctx).Where("owner_id = ?", ownerID)
	if ownerID != requesterID {
		tx = tx.Where("is_public = ?", true)
	}
	var repos []model.Repository
	err := tx.Preload("Owner").Order("updated_at DESC").Order("id DESC").Find(&repos).Error
	return repos, err
}

// Get fails with ErrNotFound, or ErrForbidden for a private repository of someone else.
func (s *service) Get(ctx context.Context, id, requesterID uint) (*model.Repository, error) {
	var repo model.Repository
	if err := s.db.WithContext(ctx).Preload("Owner").First(&repo, id).Error; err != nil {
		return nil, db.NotFound(err)
	}
	if !repo.IsPublic && repo.OwnerID != requesterID {
		return nil, db.ErrForbidden
	}
	return &repo, nil
}

// GetOwned is Get restricted to the owner, whatever the visibility.
func (s *service) GetOwned(ctx context.Context, id, requesterID uint) (*model.Repository, error) {
	repo, err := s.Get(ctx, id, requesterID)
	if err != nil {
		return nil, err
	}
	if repo.OwnerID != requesterID {
		return nil, db.ErrForbidden
	}
	return repo, nil
}

// Create stores the row, its directory and a create_repository activity together.
// The directory is removed again when the transaction fails.
func (s *service) Create(ctx context.Context, ownerID uint, req CreateReq) (*model.Repository, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("repository name: %w", db.ErrInvalid)
	}

	localPath, err := s.makeDir(ownerID)
	if err != nil {
		return nil, fmt.Errorf("create repository directory: %w", err)
	}

	repo := &model.Repository{
		Name:        req.Name,
		Description: req.Description,
		IsPublic:    req.IsPublic,
		Language:    req.Language,
		OwnerID:     ownerID,
		Branches:    1,
		LocalPath:   localPath,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(repo).Error; err != nil {
			if db.IsForeignKey(err) {
				return fmt.Errorf("owner %d: %w", ownerID, db.ErrNotFound)
			}
			return err
		}
		payload, err := json.Marshal(map[string]any{"name": repo.Name})
		if err != nil {
			return err
		}
		return tx.Create(&model.Activity{
			UserID:       ownerID,
			RepositoryID: &repo.ID,
			Type:         model.ActivityCreateRepository,
			Payload:      datatypes.JSON(payload),
		}).Error
	})
	if err != nil {
		if rmErr := s.store.Remove(localPath); rmErr != nil {
			klog.Errorf("remove directory of failed repository %s: %v", localPath, rmErr)
		}
		return nil, err
	}
	return s.Get(ctx, repo.ID, ownerID)
}

func (s *service) makeDir(ownerID uint) (string, error) {
	millis := s.now().UnixMilli()
	for range mkdirAttempts {
		localPath := fmt.Sprintf("/repos/%d_%d", ownerID, millis)
		err := s.store.Create(localPath)
		if err == nil {
			return localPath, nil
		}
		if !errors.Is(err, storage.ErrExist) {
			return "", err
		}
		millis++
	}
	return "", fmt.Errorf("no free directory for owner %d: %w", ownerID, db.ErrConflict)
}

func (s *service) Update(ctx context.Context, id, requesterID uint, patch Patch) (*model.Repository, error) {
	if _, err := s.GetOwned(ctx, id, requesterID); err != nil {
		return nil, err
	}
	updates := map[string]any{}
	if patch.Name != nil {
		if strings.TrimSpace(*patch.Name) == "" {
			return nil, fmt.Errorf("repository name: %w", db.ErrInvalid)
		}
		updates["name"] = *patch.Name
	}
	if patch.Description != nil {
		updates["description"] = *patch.Description
	}
	if patch.IsPublic != nil {
		updates["is_public"] = *patch.IsPublic
	}
	if patch.Language != nil {
		updates["language"] = *patch.Language
	}
	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(&model.Repository{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	return s.Get(ctx, id, requesterID)
}

// Delete drops the repository with its collaborators, tags and shares.
// A failure to remove the directory rolls the rows back.
func (s *service) Delete(ctx context.Context, id, requesterID uint) error {
	repo, err := s.GetOwned(ctx, id, requesterID)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("repository_id = ?", id).Delete(&model.Collaborator{}).Error; err != nil {
			return err
		}
		if err := tx.Where("repository_id = ?", id).Delete(&model.RepositoryTag{}).Error; err != nil {
			return err
		}
		if err := tx.Where("repository_id = ?", id).Delete(&model.SharedRepository{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&model.Activity{}).Where("repository_id = ?", id).
			Update("repository_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Delete(&model.Repository{}, id).Error; err != nil {
			return err
		}
		if err := s.store.Remove(repo.LocalPath); err != nil {
			return fmt.Errorf("remove repository directory: %w", err)
		}
		return nil
	})
}

func (s *service) Exists(ctx context.Context, id uint) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&model.Repository{}).Where("id = ?", id).Count(&n).Error
	return n > 0, err
}

func (s *service) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&model.Repository{}).Count(&n).Error
	return n, err
}
