// Package testutil opens throwaway databases for package tests.
package testutil

import (
	"fmt"
	"testing"

	"athlos/internal/models"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB opens an isolated in-memory database for one test and migrates the
// schema. The pool is pinned to one connection: all trust guarantees that rely
// on row locks in production are exercised here through guarded updates, and a
// single connection makes concurrent transactions serialize deterministically.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("test db pool: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := db.AutoMigrate(
		&models.User{},
		&models.CommissionConfig{},
		&models.TrustToken{},
		&models.Payout{},
		&models.AuditLog{},
		&models.DisintermediationAlert{},
	); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}
