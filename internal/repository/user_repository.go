//go:generate mockery --name UserRepository --output ./mocks --outpkg mocks --case=underscore
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go_storereview_auth/internal/middleware"
	"go_storereview_auth/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserRepository interface {
	Create(ctx context.Context, db *gorm.DB, user *model.User) error
	FindByID(ctx context.Context, db *gorm.DB, userID uuid.UUID) (*model.User, error)
	// FindByVerifiedEmail はメールアドレスが確認済みのユーザーだけを大文字小文字を区別せずに検索します
	FindByVerifiedEmail(ctx context.Context, db *gorm.DB, email string) (*model.User, error)
	ExistsByEmail(ctx context.Context, db *gorm.DB, email string) (bool, error)
}

type gormUserRepository struct{}

func NewGormUserRepository() UserRepository {
	return &gormUserRepository{}
}

func (r *gormUserRepository) Create(ctx context.Context, db *gorm.DB, user *model.User) error {
	logger := middleware.GetLogger(ctx)

	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}

	result := db.WithContext(ctx).Create(user)
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			logger.Warn("Duplicate key error on create user", "error", result.Error)
			return fmt.Errorf("gormUserRepository.Create: %w", model.ErrConflict)
		}
		logger.Error("Error creating user in DB", "error", result.Error)
		return fmt.Errorf("gormUserRepository.Create: %w", result.Error)
	}
	return nil
}

func (r *gormUserRepository) FindByID(ctx context.Context, db *gorm.DB, userID uuid.UUID) (*model.User, error) {
	logger := middleware.GetLogger(ctx)
	var user model.User

	result := db.WithContext(ctx).Where("id = ?", userID).First(&user)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		logger.Error("Error finding user by ID in DB", "error", result.Error, "user_id", userID.String())
		return nil, fmt.Errorf("gormUserRepository.FindByID: %w", result.Error)
	}
	return &user, nil
}

func (r *gormUserRepository) FindByVerifiedEmail(ctx context.Context, db *gorm.DB, email string) (*model.User, error) {
	logger := middleware.GetLogger(ctx)
	var user model.User

	result := db.WithContext(ctx).
		Where("LOWER(email) = ? AND email_verified_at IS NOT NULL", strings.ToLower(email)).
		First(&user)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			logger.Debug("Verified user not found by email")
			return nil, model.ErrNotFound
		}
		logger.Error("Error finding user by verified email in DB", "error", result.Error)
		return nil, fmt.Errorf("gormUserRepository.FindByVerifiedEmail: %w", result.Error)
	}
	return &user, nil
}

func (r *gormUserRepository) ExistsByEmail(ctx context.Context, db *gorm.DB, email string) (bool, error) {
	logger := middleware.GetLogger(ctx)
	var count int64

	result := db.WithContext(ctx).Model(&model.User{}).
		Where("LOWER(email) = ?", strings.ToLower(email)).
		Count(&count)
	if result.Error != nil {
		logger.Error("Error counting users by email in DB", "error", result.Error)
		return false, fmt.Errorf("gormUserRepository.ExistsByEmail: %w", result.Error)
	}
	return count > 0, nil
}
