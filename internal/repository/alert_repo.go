package repository

import (
	"time"

	"athlos/internal/models"

	"gorm.io/gorm"
)

type AlertRepository struct {
	db *gorm.DB
}

func NewAlertRepository(db *gorm.DB) *AlertRepository {
	return &AlertRepository{db: db}
}

func (r *AlertRepository) Create(tx *gorm.DB, a *models.DisintermediationAlert) error {
	return tx.Create(a).Error
}

func (r *AlertRepository) ListUnresolved(limit int) ([]models.DisintermediationAlert, error) {
	var list []models.DisintermediationAlert
	err := r.db.Where("is_resolved = ?", false).Order("created_at DESC").Limit(limit).Find(&list).Error
	return list, err
}

func (r *AlertRepository) Resolve(id uint) error {
	now := time.Now().UTC()
	return r.db.Model(&models.DisintermediationAlert{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"is_resolved": true, "resolved_at": now}).Error
}
