package models

import "time"

// DisintermediationAlert flags a coach-side attempt to complete a transaction
// outside its authorized terms (claiming another coach's payout, zeroed
// commission). Created alongside BYPASS_ATTEMPT ledger entries for operator
// follow-up.
type DisintermediationAlert struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	CoachID     uint       `gorm:"not null;index" json:"coach_id"`
	AlertType   string     `gorm:"size:50;not null;index" json:"alert_type"`
	Severity    string     `gorm:"size:20;not null" json:"severity"`
	Description string     `gorm:"type:text" json:"description"`
	IsResolved  bool       `gorm:"not null;default:false;index" json:"is_resolved"`
	CreatedAt   time.Time  `json:"created_at"`
	ResolvedAt  *time.Time `json:"resolved_at"`

	Coach User `gorm:"foreignKey:CoachID" json:"-"`
}

func (DisintermediationAlert) TableName() string {
	return "disintermediation_alerts"
}
