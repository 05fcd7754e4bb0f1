package models

import (
	"time"

	"athlos/pkg/integrity"

	"github.com/google/uuid"
)

// TrustToken is a single-use, price-locked authorization for one paid
// transaction between an athlete and a coach. Amounts are minor units and the
// commission split is frozen at creation; payouts copy it verbatim. The ID is
// generated client-side because the integrity hash covers it.
type TrustToken struct {
	ID                uuid.UUID `gorm:"type:char(36);primaryKey" json:"id"`
	ProgramID         uint      `gorm:"not null;index" json:"program_id"`
	CoachID           uint      `gorm:"not null;index" json:"coach_id"`
	AthleteID         uint      `gorm:"not null;index" json:"athlete_id"`
	GrossAmount       int64     `gorm:"not null" json:"gross_amount"`
	CommissionAmount  int64     `gorm:"not null" json:"commission_amount"`
	NetAmount         int64     `gorm:"not null" json:"net_amount"`
	CommissionRateBps int64     `gorm:"not null" json:"commission_rate_bps"`
	Status            string    `gorm:"size:20;not null;index" json:"status"`
	IdempotencyKey    string    `gorm:"size:255;uniqueIndex;not null" json:"-"`
	IntegrityHash     string    `gorm:"size:64;not null" json:"-"`
	CreatedByIP       string    `gorm:"size:45" json:"-"`
	UsedByIP          string    `gorm:"size:45" json:"-"`
	CreatedAt         time.Time `json:"created_at"`
	ExpiresAt         time.Time `gorm:"not null;index" json:"expires_at"`
	UsedAt            *time.Time `json:"used_at"`

	Coach   User `gorm:"foreignKey:CoachID" json:"-"`
	Athlete User `gorm:"foreignKey:AthleteID" json:"-"`
}

func (TrustToken) TableName() string {
	return "trust_tokens"
}

// Fingerprint computes the keyed integrity hash over the token's covered
// fields, including status.
func (t *TrustToken) Fingerprint(secret string) string {
	return integrity.TokenFingerprint(integrity.TokenFields{
		ID:             t.ID.String(),
		ProgramID:      t.ProgramID,
		CoachID:        t.CoachID,
		AthleteID:      t.AthleteID,
		Gross:          t.GrossAmount,
		Commission:     t.CommissionAmount,
		Net:            t.NetAmount,
		RateBps:        t.CommissionRateBps,
		Status:         t.Status,
		IdempotencyKey: t.IdempotencyKey,
	}, secret)
}

// VerifyIntegrity reports whether the stored hash matches a recomputation
// over the current column values. Detection only: a direct store write is
// flagged at the next read, not prevented.
func (t *TrustToken) VerifyIntegrity(secret string) bool {
	return t.IntegrityHash == t.Fingerprint(secret)
}

// IsExpired treats the boundary as expired: a token whose expiry equals now
// is no longer usable.
func (t *TrustToken) IsExpired(now time.Time) bool {
	return !t.ExpiresAt.After(now)
}
