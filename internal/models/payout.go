package models

import (
	"time"

	"github.com/google/uuid"
)

// Payout is the single disbursement record consuming one trust token. The
// unique index on TrustTokenID backs the one-payout-per-token invariant; the
// RESTRICT constraint keeps the underlying token undeletable while a payout
// references it. Amounts are copied verbatim from the token, never recomputed.
type Payout struct {
	ID                uuid.UUID `gorm:"type:char(36);primaryKey" json:"id"`
	TrustTokenID      uuid.UUID `gorm:"type:char(36);uniqueIndex;not null" json:"trust_token_id"`
	CoachID           *uint     `gorm:"index" json:"coach_id"`
	GrossAmount       int64     `gorm:"not null" json:"gross_amount"`
	CommissionAmount  int64     `gorm:"not null" json:"commission_amount"`
	NetAmount         int64     `gorm:"not null" json:"net_amount"`
	CommissionRateBps int64     `gorm:"not null" json:"commission_rate_bps"`
	Status            string    `gorm:"size:20;not null;index" json:"status"`
	CreatedAt         time.Time `json:"created_at"`

	TrustToken TrustToken `gorm:"foreignKey:TrustTokenID;constraint:OnDelete:RESTRICT" json:"-"`
}

func (Payout) TableName() string {
	return "payouts"
}
