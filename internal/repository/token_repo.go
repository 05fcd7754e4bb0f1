package repository

import (
	"errors"
	"time"

	"athlos/internal/domain"
	"athlos/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TokenRepository struct {
	db *gorm.DB
}

func NewTokenRepository(db *gorm.DB) *TokenRepository {
	return &TokenRepository{db: db}
}

// Create inserts a new token. A duplicate idempotency key reports
// gorm.ErrDuplicatedKey (TranslateError is enabled on the pool); callers fall
// back to reading the winning row.
func (r *TokenRepository) Create(tx *gorm.DB, t *models.TrustToken) error {
	return tx.Create(t).Error
}

func (r *TokenRepository) GetByID(id uuid.UUID) (*models.TrustToken, error) {
	var t models.TrustToken
	err := r.db.Where("id = ?", id).First(&t).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrTokenNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (r *TokenRepository) GetByIdempotencyKey(key string) (*models.TrustToken, error) {
	var t models.TrustToken
	err := r.db.Where("idempotency_key = ?", key).First(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TokenRepository) GetByIdempotencyKeyTx(tx *gorm.DB, key string) (*models.TrustToken, error) {
	var t models.TrustToken
	err := tx.Where("idempotency_key = ?", key).First(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// GetByIDForUpdate loads the token under an exclusive row lock for the
// duration of the surrounding transaction.
func (r *TokenRepository) GetByIDForUpdate(tx *gorm.DB, id uuid.UUID) (*models.TrustToken, error) {
	q := tx
	if supportsRowLock(tx) {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var t models.TrustToken
	err := q.Where("id = ?", id).First(&t).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrTokenNotFound
		}
		return nil, mapLockError(err)
	}
	return &t, nil
}

// ConsumeActive flips ACTIVE → USED with a guarded update. The WHERE clause
// on status makes the flip atomic on any engine: under N racers exactly one
// update affects a row. Returns false when the token was no longer ACTIVE.
func (r *TokenRepository) ConsumeActive(tx *gorm.DB, t *models.TrustToken, usedAt time.Time, usedByIP, newHash string) (bool, error) {
	res := tx.Model(&models.TrustToken{}).
		Where("id = ? AND status = ?", t.ID, domain.TokenStatusActive).
		Updates(map[string]interface{}{
			"status":         domain.TokenStatusUsed,
			"used_at":        usedAt,
			"used_by_ip":     usedByIP,
			"integrity_hash": newHash,
		})
	if res.Error != nil {
		return false, mapLockError(res.Error)
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	t.Status = domain.TokenStatusUsed
	t.UsedAt = &usedAt
	t.UsedByIP = usedByIP
	t.IntegrityHash = newHash
	return true, nil
}

// TransitionFromActive moves an ACTIVE token to a terminal status (EXPIRED or
// REVOKED) with the same guarded-update shape as ConsumeActive.
func (r *TokenRepository) TransitionFromActive(tx *gorm.DB, t *models.TrustToken, status, newHash string) (bool, error) {
	res := tx.Model(&models.TrustToken{}).
		Where("id = ? AND status = ?", t.ID, domain.TokenStatusActive).
		Updates(map[string]interface{}{
			"status":         status,
			"integrity_hash": newHash,
		})
	if res.Error != nil {
		return false, mapLockError(res.Error)
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	t.Status = status
	t.IntegrityHash = newHash
	return true, nil
}
