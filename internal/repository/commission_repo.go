package repository

import (
	"errors"

	"athlos/internal/domain"
	"athlos/internal/models"

	"gorm.io/gorm"
)

type CommissionConfigRepository struct {
	db *gorm.DB
}

func NewCommissionConfigRepository(db *gorm.DB) *CommissionConfigRepository {
	return &CommissionConfigRepository{db: db}
}

func (r *CommissionConfigRepository) Create(cfg *models.CommissionConfig) error {
	return r.db.Create(cfg).Error
}

func (r *CommissionConfigRepository) GetActive() (*models.CommissionConfig, error) {
	var cfg models.CommissionConfig
	err := r.db.Where("is_active = ?", true).Order("created_at DESC").First(&cfg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNoActiveCfg
		}
		return nil, err
	}
	return &cfg, nil
}

// ActiveRateBps resolves the current platform rate once per request; the
// calculator takes it as a plain argument instead of reading shared state.
func (r *CommissionConfigRepository) ActiveRateBps() (int64, error) {
	cfg, err := r.GetActive()
	if err != nil {
		return 0, err
	}
	return cfg.RateBps, nil
}

// Activate makes one config active and deactivates every other row in the
// same transaction, preserving the at-most-one-active invariant.
func (r *CommissionConfigRepository) Activate(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var cfg models.CommissionConfig
		if err := tx.First(&cfg, id).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.CommissionConfig{}).
			Where("id <> ?", id).
			Update("is_active", false).Error; err != nil {
			return err
		}
		return tx.Model(&cfg).Update("is_active", true).Error
	})
}

func (r *CommissionConfigRepository) List() ([]models.CommissionConfig, error) {
	var list []models.CommissionConfig
	err := r.db.Order("is_active DESC, created_at DESC").Find(&list).Error
	return list, err
}
