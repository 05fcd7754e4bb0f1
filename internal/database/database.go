package database

import (
	"fmt"
	"log"
	"strings"
	"time"

	"athlos/config"
	"athlos/internal/domain"
	"athlos/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func NewDB(cfg *config.DatabaseConfig, lockWait time.Duration) (*gorm.DB, error) {
	dsn := withLockWait(cfg.DSN, lockWait)
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Error),
		TranslateError: true, // duplicate-key fallbacks rely on gorm.ErrDuplicatedKey
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	return db, nil
}

// withLockWait appends innodb_lock_wait_timeout as a session variable on the
// DSN, bounding row-lock waits so a blocked transaction fails with a
// LOCK_TIMEOUT instead of queueing indefinitely. Skipped when the DSN already
// sets it.
func withLockWait(dsn string, d time.Duration) string {
	if d <= 0 || strings.Contains(dsn, "innodb_lock_wait_timeout") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%sinnodb_lock_wait_timeout=%d", dsn, sep, int(d.Seconds()))
}

// AutoMigrate runs Gorm auto-migration for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.CommissionConfig{},
		&models.TrustToken{},
		&models.Payout{},
		&models.AuditLog{},
		&models.DisintermediationAlert{},
	)
}

// SeedAdmin creates the initial operator account when none exists.
func SeedAdmin(db *gorm.DB) {
	var c int64
	db.Model(&models.User{}).Where("role = ?", domain.RoleAdmin).Count(&c)
	if c > 0 {
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte("admin12345"), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("[database] seed admin: %v", err)
		return
	}
	admin := &models.User{
		Email:        "admin@athlos.local",
		PasswordHash: string(hash),
		Role:         domain.RoleAdmin,
	}
	if err := db.Create(admin).Error; err != nil {
		log.Printf("[database] seed admin: %v", err)
		return
	}
	log.Println("[database] seeded admin user admin@athlos.local (change the password)")
}

// SeedCommissionConfig installs a default active rate for fresh databases so
// token creation works before an operator configures one.
func SeedCommissionConfig(db *gorm.DB) {
	var c int64
	db.Model(&models.CommissionConfig{}).Count(&c)
	if c > 0 {
		return
	}
	cfg := &models.CommissionConfig{Name: "default", RateBps: 1200, IsActive: true}
	if err := db.Create(cfg).Error; err != nil {
		log.Printf("[database] seed commission config: %v", err)
		return
	}
	log.Printf("[database] seeded commission config %q at %d bps", cfg.Name, cfg.RateBps)
}
