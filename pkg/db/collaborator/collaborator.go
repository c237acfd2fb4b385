package collaborator

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/gitmesh/gitmesh/dao/model"
	"github.com/gitmesh/gitmesh/pkg/db"
)

type DBService interface {
	List(ctx context.Context, repositoryID uint) ([]model.Collaborator, error)
	// Add grants permission to userID, replacing an earlier grant.
	Add(ctx context.Context, repo *model.Repository, userID uint, permission model.Permission) (*model.Collaborator, error)
	Remove(ctx context.Context, repositoryID, userID uint) error
}

type service struct {
	db *gorm.DB
}

func NewDBService(gdb *gorm.DB) DBService {
	return &service{db: gdb}
}

func (s *service) List(ctx context.Context, repositoryID uint) ([]model.Collaborator, error) {
	var collaborators []model.Collaborator
	err := s.db.WithContext(ctx).Preload("User").
		Where("repository_id = ?", repositoryID).
		Order("id").Find(&collaborators).Error
	return collaborators, err
}

func (s *service) Add(ctx context.Context, repo *model.Repository, userID uint, permission model.Permission) (*model.Collaborator, error) {
	if !permission.IsValid() {
		return nil, fmt.Errorf("permission %q: %w", permission, db.ErrInvalid)
	}
	if userID == repo.OwnerID {
		return nil, fmt.Errorf("owner is not a collaborator: %w", db.ErrInvalid)
	}

	var collaborator model.Collaborator
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user model.User
		if err := tx.Select("id").First(&user, userID).Error; err != nil {
			return db.NotFound(err)
		}
		err := tx.Where("repository_id = ? AND user_id = ?", repo.ID, userID).First(&collaborator).Error
		switch {
		case err == nil:
			collaborator.Permission = permission
			return tx.Model(&collaborator).Update("permission", permission).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			collaborator = model.Collaborator{
				RepositoryID: repo.ID,
				UserID:       userID,
				Permission:   permission,
			}
			return tx.Create(&collaborator).Error
		default:
			return err
		}
	})
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Preload("User").First(&collaborator, collaborator.ID).Error; err != nil {
		return nil, err
	}
	return &collaborator, nil
}

func (s *service) Remove(ctx context.Context, repositoryID, userID uint) error {
	res := s.db.WithContext(ctx).
		Where("repository_id = ? AND user_id = ?", repositoryID, userID).
		Delete(&model.Collaborator{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return db.ErrNotFound
	}
	return nil
}
