package models

import "time"

// CommissionConfig is the operator-managed platform rate. Rates are stored as
// ten-thousandths (basis points): 1200 = 12.00%. At most one row is active at
// a time; activation deactivates the others inside one transaction rather than
// relying on a database constraint.
type CommissionConfig struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	RateBps   int64     `gorm:"not null" json:"rate_bps"`
	IsActive  bool      `gorm:"not null;default:false;index" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

func (CommissionConfig) TableName() string {
	return "commission_configs"
}
