package tag

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/gitmesh/gitmesh/dao/model"
	"github.com/gitmesh/gitmesh/pkg/db"
)

type DBService interface {
	ListAll(ctx context.Context) ([]model.Tag, error)
	ListByRepository(ctx context.Context, repositoryID uint) ([]model.Tag, error)
	// Add finds or creates the tag by name and links it once to the repository.
	Add(ctx context.Context, repositoryID uint, name string) (*model.Tag, *model.RepositoryTag, error)
	Remove(ctx context.Context, repositoryID, tagID uint) error
}

type service struct {
	db *gorm.DB
}

func NewDBService(gdb *gorm.DB) DBService {
	return &service{db: gdb}
}

func (s *service) ListAll(ctx context.Context) ([]model.Tag, error) {
	var tags []model.Tag
	err := s.db.WithContext(ctx).Order("name").Find(&tags).Error
	return tags, err
}

func (s *service) ListByRepository(ctx context.Context, repositoryID uint) ([]model.Tag, error) {
	var tags []model.Tag
	err := s.db.WithContext(ctx).
		Joins("JOIN repository_tags ON repository_tags.tag_id = tags.id").
		Where("repository_tags.repository_id = ?", repositoryID).
		Order("tags.name").Find(&tags).Error
	return tags, err
}

func (s *service) Add(ctx context.Context, repositoryID uint, name string) (*model.Tag, *model.RepositoryTag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil, fmt.Errorf("tag name: %w", db.ErrInvalid)
	}

	var (
		tag     model.Tag
		repoTag model.RepositoryTag
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := firstOrCreate(tx, &tag, func() error {
			tag = model.Tag{Name: name}
			return tx.Create(&tag).Error
		}, "name = ?", name); err != nil {
			return err
		}
		return firstOrCreate(tx, &repoTag, func() error {
			repoTag = model.RepositoryTag{RepositoryID: repositoryID, TagID: tag.ID}
			return tx.Create(&repoTag).Error
		}, "repository_id = ? AND tag_id = ?", repositoryID, tag.ID)
	})
	if err != nil {
		return nil, nil, err
	}
	return &tag, &repoTag, nil
}

const createSavePoint = "first_or_create"

// firstOrCreate loads the row matching cond or runs create. create runs behind a
// savepoint so a concurrent insert of the same row leaves tx usable for the reload.
func firstOrCreate(tx *gorm.DB, dest any, create func() error, cond string, params ...any) error {
	err := tx.Where(cond, params...).First(dest).Error
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	if err := tx.SavePoint(createSavePoint).Error; err != nil {
		return err
	}
	if err := create(); err != nil {
		if !db.IsDuplicate(err) {
			return err
		}
		if err := tx.RollbackTo(createSavePoint).Error; err != nil {
			return err
		}
		return tx.Where(cond, params...).First(dest).Error
	}
	return nil
}

func (s *service) Remove(ctx context.Context, repositoryID, tagID uint) error {
	res := s.db.WithContext(ctx).
		Where("repository_id = ? AND tag_id = ?", repositoryID, tagID).
		Delete(&model.RepositoryTag{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return db.ErrNotFound
	}
	return nil
}
