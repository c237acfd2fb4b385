package user

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/gitmesh/gitmesh/dao/model"
	"github.com/gitmesh/gitmesh/pkg/db"
)

const passwordCost = 10

type Patch struct {
	DisplayName *string
	AvatarURL   *string
}

type DBService interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id uint) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	Update(ctx context.Context, id uint, patch Patch) (*model.User, error)
	Count(ctx context.Context) (int64, error)
	SumStorageUsed(ctx context.Context) (int64, error)
}

type service struct {
	db *gorm.DB
}

func NewDBService(gdb *gorm.DB) DBService {
	return &service{db: gdb}
}

// Create inserts user, ErrConflict when the username is taken.
func (s *service) Create(ctx context.Context, user *model.User) error {
	if user.StorageLimit == 0 {
		user.StorageLimit = model.DefaultStorageLimit
	}
	err := s.db.WithContext(ctx).Create(user).Error
	if db.IsDuplicate(err) {
		return fmt.Errorf("username %s: %w", user.Username, db.ErrConflict)
	}
	return err
}

func (s *service) GetByID(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, db.NotFound(err)
	}
	return &user, nil
}

func (s *service) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, db.NotFound(err)
	}
	return &user, nil
}

func (s *service) Update(ctx context.Context, id uint, patch Patch) (*model.User, error) {
	updates := map[string]any{}
	if patch.DisplayName != nil {
		updates["display_name"] = *patch.DisplayName
	}
	if patch.AvatarURL != nil {
		updates["avatar_url"] = *patch.AvatarURL
	}
	if len(updates) > 0 {
		res := s.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Updates(updates)
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			return nil, db.ErrNotFound
		}
	}
	return s.GetByID(ctx, id)
}

func (s *service) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&model.User{}).Count(&n).Error
	return n, err
}

// SumStorageUsed is 0 when there are no users.
func (s *service) SumStorageUsed(ctx context.Context) (int64, error) {
	var total int64
	err := s.db.WithContext(ctx).Model(&model.User{}).
		Select("COALESCE(SUM(storage_used), 0)").Scan(&total).Error
	return total, err
}

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), passwordCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
