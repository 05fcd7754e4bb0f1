package repository

import (
	"strings"

	"athlos/internal/domain"

	"gorm.io/gorm"
)

// supportsRowLock reports whether the dialect honors SELECT ... FOR UPDATE.
// SQLite (used by the test store) serializes writers at the connection level
// instead, so the clause is skipped there.
func supportsRowLock(tx *gorm.DB) bool {
	return tx.Dialector.Name() != "sqlite"
}

// mapLockError converts a driver lock-wait timeout (MySQL error 1205) into
// the LOCK_TIMEOUT failure category so callers never see driver strings.
func mapLockError(err error) error {
	if err == nil {
		return nil
	}
	if strings.Contains(err.Error(), "Lock wait timeout") {
		return domain.ErrLockTimeout
	}
	return err
}
