//go:generate mockery --name ProviderLinkRepository --output ./mocks --outpkg mocks --case=underscore
package repository

import (
	"context"
	"errors"
	"fmt"

	"go_storereview_auth/internal/middleware"
	"go_storereview_auth/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProviderLinkRepository interface {
	Create(ctx context.Context, db *gorm.DB, link *model.ProviderLink) error
	FindByProviderUserID(ctx context.Context, db *gorm.DB, provider model.Provider, providerUserID string) (*model.ProviderLink, error)
	FindByUserAndProvider(ctx context.Context, db *gorm.DB, userID uuid.UUID, provider model.Provider) (*model.ProviderLink, error)
	// UpdateSnapshot は email / metadata / last_sign_in_at を保存します
	UpdateSnapshot(ctx context.Context, db *gorm.DB, link *model.ProviderLink) error
	ListByUserID(ctx context.Context, db *gorm.DB, userID uuid.UUID) ([]model.ProviderLink, error)
}

type gormProviderLinkRepository struct{}

func NewGormProviderLinkRepository() ProviderLinkRepository {
	return &gormProviderLinkRepository{}
}

func (r *gormProviderLinkRepository) Create(ctx context.Context, db *gorm.DB, link *model.ProviderLink) error {
	logger := middleware.GetLogger(ctx)

	result := db.WithContext(ctx).Create(link)
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			logger.Warn(
				"Duplicate key error on create provider link",
				"error", result.Error,
				"provider", link.Provider,
				"user_id", link.UserID.String(),
			)
			return fmt.Errorf("gormProviderLinkRepository.Create: %w", model.ErrConflict)
		}
		logger.Error(
			"Error creating provider link in DB",
			"error", result.Error,
			"provider", link.Provider,
		)
		return fmt.Errorf("gormProviderLinkRepository.Create: %w", result.Error)
	}
	return nil
}

func (r *gormProviderLinkRepository) FindByProviderUserID(ctx context.Context, db *gorm.DB, provider model.Provider, providerUserID string) (*model.ProviderLink, error) {
	logger := middleware.GetLogger(ctx)
	var link model.ProviderLink

	result := db.WithContext(ctx).
		Where("provider = ? AND provider_user_id = ?", provider, providerUserID).
		First(&link)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		logger.Error(
			"Error finding provider link in DB",
			"error", result.Error,
			"provider", provider,
		)
		return nil, fmt.Errorf("gormProviderLinkRepository.FindByProviderUserID: %w", result.Error)
	}
	return &link, nil
}

func (r *gormProviderLinkRepository) FindByUserAndProvider(ctx context.Context, db *gorm.DB, userID uuid.UUID, provider model.Provider) (*model.ProviderLink, error) {
	logger := middleware.GetLogger(ctx)
	var link model.ProviderLink

	result := db.WithContext(ctx).
		Where("user_id = ? AND provider = ?", userID, provider).
		First(&link)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		logger.Error(
			"Error finding provider link by user in DB",
			"error", result.Error,
			"user_id", userID.String(),
			"provider", provider,
		)
		return nil, fmt.Errorf("gormProviderLinkRepository.FindByUserAndProvider: %w", result.Error)
	}
	return &link, nil
}

func (r *gormProviderLinkRepository) UpdateSnapshot(ctx context.Context, db *gorm.DB, link *model.ProviderLink) error {
	logger := middleware.GetLogger(ctx)

	// Select で明示したカラムはゼロ値 (nil の email) でも更新される
	result := db.WithContext(ctx).Model(link).
		Select("email", "metadata", "last_sign_in_at").
		Updates(link)
	if result.Error != nil {
		logger.Error(
			"Error updating provider link snapshot in DB",
			"error", result.Error,
			"link_id", link.ID,
		)
		return fmt.Errorf("gormProviderLinkRepository.UpdateSnapshot: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("gormProviderLinkRepository.UpdateSnapshot: %w", model.ErrNotFound)
	}
	return nil
}

func (r *gormProviderLinkRepository) ListByUserID(ctx context.Context, db *gorm.DB, userID uuid.UUID) ([]model.ProviderLink, error) {
	logger := middleware.GetLogger(ctx)
	var links []model.ProviderLink

	result := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&links)
	if result.Error != nil {
		logger.Error("Error listing provider links in DB", "error", result.Error, "user_id", userID.String())
		return nil, fmt.Errorf("gormProviderLinkRepository.ListByUserID: %w", result.Error)
	}
	return links, nil
}
