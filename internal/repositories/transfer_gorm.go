package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"custora/internal/models"

	"gorm.io/gorm"
)

type transferRepository struct {
	db *gorm.DB
}

func (r *transferRepository) Create(ctx context.Context, transfer *models.WalletTransfer) error {
	if err := r.db.WithContext(ctx).Create(transfer).Error; err != nil {
		return fmt.Errorf("failed to create transfer: %w", err)
	}
	return nil
}

func (r *transferRepository) GetByID(ctx context.Context, id string) (*models.WalletTransfer, error) {
	var transfer models.WalletTransfer
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&transfer).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransferNotFound
		}
		return nil, fmt.Errorf("failed to get transfer: %w", err)
	}
	return &transfer, nil
}

func (r *transferRepository) Update(ctx context.Context, transfer *models.WalletTransfer) error {
	if err := r.db.WithContext(ctx).Save(transfer).Error; err != nil {
		return fmt.Errorf("failed to update transfer: %w", err)
	}
	return nil
}

func (r *transferRepository) MaturedActive(ctx context.Context, now time.Time, limit int) ([]models.WalletTransfer, error) {
	var transfers []models.WalletTransfer
	err := r.db.WithContext(ctx).
		Where("status = ? AND locked_until IS NOT NULL AND locked_until <= ?",
			models.TransferStatusActive, now).
		Order("locked_until ASC").
		Limit(limit).
		Find(&transfers).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list matured transfers: %w", err)
	}
	return transfers, nil
}
