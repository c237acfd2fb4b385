package activity

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/gitmesh/gitmesh/dao/model"
	"github.com/gitmesh/gitmesh/pkg/db"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

type DBService interface {
	Create(ctx context.Context, activity *model.Activity) error
	ListByUser(ctx context.Context, userID uint, limit int) ([]model.Activity, error)
	ListByRepository(ctx context.Context, repositoryID uint, limit int) ([]model.Activity, error)
}

type service struct {
	db *gorm.DB
}

func NewDBService(gdb *gorm.DB) DBService {
	return &service{db: gdb}
}

// NormalizeLimit clamps limit into [1, MaxLimit], DefaultLimit when unset.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	return min(limit, MaxLimit)
}

func (s *service) Create(ctx context.Context, activity *model.Activity) error {
	if strings.TrimSpace(activity.Type) == "" {
		return fmt.Errorf("activity type: %w", db.ErrInvalid)
	}
	if len(activity.Payload) == 0 {
		activity.Payload = []byte("{}")
	}
	err := s.db.WithContext(ctx).Create(activity).Error
	if db.IsForeignKey(err) {
		return fmt.Errorf("activity reference: %w", db.ErrNotFound)
	}
	return err
}

func (s *service) list(ctx context.Context, limit int) *gorm.DB {
	return s.db.WithContext(ctx).
		Preload("User").Preload("Repository").
		Order("created_at DESC").Order("id DESC").
		Limit(NormalizeLimit(limit))
}

func (s *service) ListByUser(ctx context.Context, userID uint, limit int) ([]model.Activity, error) {
	var activities []model.Activity
	err := s.list(ctx, limit).Where("user_id = ?", userID).Find(&activities).Error
	return activities, err
}

func (s *service) ListByRepository(ctx context.Context, repositoryID uint, limit int) ([]model.Activity, error) {
	var activities []model.Activity
	err := s.list(ctx, limit).Where("repository_id = ?", repositoryID).Find(&activities).Error
	return activities, err
}
