package repository

import (
	"errors"

	"athlos/internal/domain"
	"athlos/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AuditLogRepository struct {
	db *gorm.DB
}

func NewAuditLogRepository(db *gorm.DB) *AuditLogRepository {
	return &AuditLogRepository{db: db}
}

// TailHash returns the entry hash of the most recent ledger entry, or the
// genesis sentinel when the ledger is empty. The tail row is read under a row
// lock where the dialect supports it, so cross-process appenders queue on the
// tail instead of both chaining to it. Timestamps carry microsecond precision
// and appends are serialized, so the order is total.
func (r *AuditLogRepository) TailHash(tx *gorm.DB) (string, error) {
	q := tx
	if supportsRowLock(tx) {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var e models.AuditLog
	err := q.Order("created_at DESC, id DESC").First(&e).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.GenesisHash, nil
		}
		return "", err
	}
	return e.EntryHash, nil
}

func (r *AuditLogRepository) Insert(tx *gorm.DB, e *models.AuditLog) error {
	return tx.Create(e).Error
}

// ListChronological returns the full ledger oldest→newest for chain walking.
func (r *AuditLogRepository) ListChronological() ([]models.AuditLog, error) {
	var list []models.AuditLog
	err := r.db.Order("created_at ASC, id ASC").Find(&list).Error
	return list, err
}

func (r *AuditLogRepository) ListRecent(limit int) ([]models.AuditLog, error) {
	var list []models.AuditLog
	err := r.db.Order("created_at DESC, id DESC").Limit(limit).Find(&list).Error
	return list, err
}

func (r *AuditLogRepository) CountByAction(action string) (int64, error) {
	var c int64
	err := r.db.Model(&models.AuditLog{}).Where("action = ?", action).Count(&c).Error
	return c, err
}
