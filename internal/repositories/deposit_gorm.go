package repositories

import (
	"context"
	"errors"
	"fmt"

	"custora/internal/models"

	"gorm.io/gorm"
)

type depositRepository struct {
	db *gorm.DB
}

func (r *depositRepository) Create(ctx context.Context, deposit *models.Deposit) error {
	if err := r.db.WithContext(ctx).Create(deposit).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateDeposit
		}
		return fmt.Errorf("failed to create deposit: %w", err)
	}
	return nil
}

func (r *depositRepository) GetByTxID(ctx context.Context, txID string) (*models.Deposit, error) {
	var deposit models.Deposit
	err := r.db.WithContext(ctx).Where("tx_id = ?", txID).First(&deposit).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDepositNotFound
		}
		return nil, fmt.Errorf("failed to get deposit: %w", err)
	}
	return &deposit, nil
}

func (r *depositRepository) Update(ctx context.Context, deposit *models.Deposit) error {
	if err := r.db.WithContext(ctx).Save(deposit).Error; err != nil {
		return fmt.Errorf("failed to update deposit: %w", err)
	}
	return nil
}

func (r *depositRepository) ListByUser(ctx context.Context, userID uint, limit, offset int) ([]models.Deposit, error) {
	var deposits []models.Deposit
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&deposits).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list deposits: %w", err)
	}
	return deposits, nil
}
