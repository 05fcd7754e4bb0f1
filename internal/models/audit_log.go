package models

import (
	"time"

	"athlos/pkg/integrity"

	"github.com/google/uuid"
)

// AuditLog is one entry of the append-only, hash-chained financial ledger.
// PreviousHash equals the EntryHash of the chronologically preceding entry
// ("genesis" for the first), so no historical entry can be edited without
// breaking every later link. The chain is linear, which makes PreviousHash
// naturally unique; the unique index doubles as a compare-and-swap guard
// against two concurrent appends claiming the same predecessor.
type AuditLog struct {
	ID               uuid.UUID  `gorm:"type:char(36);primaryKey" json:"id"`
	Action           string     `gorm:"size:50;not null;index" json:"action"`
	ActorType        string     `gorm:"size:20;not null" json:"actor_type"`
	ActorID          string     `gorm:"size:100" json:"actor_id"`
	TargetID         *uuid.UUID `gorm:"type:char(36);index" json:"target_id"`
	RequestSummary   string     `gorm:"type:text" json:"request_summary"` // JSON object
	GrossAmount      *int64     `json:"gross_amount"`
	CommissionAmount *int64     `json:"commission_amount"`
	NetAmount        *int64     `json:"net_amount"`
	Result           string     `gorm:"size:20;not null" json:"result"`
	ErrorMessage     string     `gorm:"type:text" json:"error_message"`
	PreviousHash     string     `gorm:"size:64;not null;uniqueIndex" json:"previous_hash"`
	EntryHash        string     `gorm:"size:64;not null" json:"entry_hash"`
	CreatedAt        time.Time  `gorm:"type:datetime(6);index" json:"created_at"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}

// ComputeHash recomputes the entry hash over the covered fields plus the
// stored previous hash.
func (e *AuditLog) ComputeHash() string {
	return integrity.EntryHash(integrity.EntryFields{
		ID:           e.ID.String(),
		Action:       e.Action,
		ActorType:    e.ActorType,
		ActorID:      e.ActorID,
		Summary:      e.RequestSummary,
		Gross:        e.GrossAmount,
		Commission:   e.CommissionAmount,
		Net:          e.NetAmount,
		Result:       e.Result,
		PreviousHash: e.PreviousHash,
	})
}
