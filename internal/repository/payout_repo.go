package repository

import (
	"errors"

	"athlos/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PayoutRepository struct {
	db *gorm.DB
}

func NewPayoutRepository(db *gorm.DB) *PayoutRepository {
	return &PayoutRepository{db: db}
}

func (r *PayoutRepository) Create(tx *gorm.DB, p *models.Payout) error {
	return tx.Create(p).Error
}

// ExistsForToken must run inside the same transaction that holds the token
// row lock, closing the check-then-create race.
func (r *PayoutRepository) ExistsForToken(tx *gorm.DB, tokenID uuid.UUID) (bool, error) {
	var c int64
	err := tx.Model(&models.Payout{}).Where("trust_token_id = ?", tokenID).Count(&c).Error
	return c > 0, err
}

func (r *PayoutRepository) GetByTokenID(tokenID uuid.UUID) (*models.Payout, error) {
	var p models.Payout
	err := r.db.Where("trust_token_id = ?", tokenID).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *PayoutRepository) ListByCoach(coachID uint) ([]models.Payout, error) {
	var list []models.Payout
	err := r.db.Where("coach_id = ?", coachID).Order("created_at DESC").Find(&list).Error
	return list, err
}
