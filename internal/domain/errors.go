package domain

import "errors"

// ReasonError is a business-rule rejection with a stable reason code.
// Callers branch on the code; handlers return it to the client instead
// of a 500. Infrastructure failures stay plain errors.
type ReasonError struct {
	Code    string
	Message string
}

func (e *ReasonError) Error() string { return e.Message }

// Reason returns the stable code for err, or "" if err is not a
// business-rule rejection.
func Reason(err error) string {
	var re *ReasonError
	if errors.As(err, &re) {
		return re.Code
	}
	return ""
}

var (
	ErrInvalidAmount = &ReasonError{Code: "INVALID_AMOUNT", Message: "gross amount must be positive"}
	ErrInvalidRate   = &ReasonError{Code: "INVALID_RATE", Message: "commission rate must be in (0, 1]"}
	ErrNoActiveCfg   = &ReasonError{Code: "NO_ACTIVE_CONFIG", Message: "no active commission config"}

	ErrKeyRequired     = &ReasonError{Code: "IDEMPOTENCY_KEY_REQUIRED", Message: "idempotency key is required"}
	ErrTokenIDRequired = &ReasonError{Code: "TOKEN_ID_REQUIRED", Message: "token id is required"}
	ErrTokenNotFound   = &ReasonError{Code: "TOKEN_NOT_FOUND", Message: "token not found"}
	ErrTokenNotActive  = &ReasonError{Code: "TOKEN_NOT_ACTIVE", Message: "token is not active"}
	ErrTokenExpired    = &ReasonError{Code: "TOKEN_EXPIRED", Message: "token expired"}
	ErrTokenTampered   = &ReasonError{Code: "INTEGRITY_CHECK_FAILED", Message: "token integrity check failed"}
	ErrCoachMismatch   = &ReasonError{Code: "COACH_MISMATCH", Message: "token belongs to a different coach"}

	ErrPayoutExists     = &ReasonError{Code: "PAYOUT_ALREADY_EXISTS", Message: "payout already exists for this token"}
	ErrCommissionBypass = &ReasonError{Code: "COMMISSION_BYPASS_DETECTED", Message: "commission bypass detected"}

	// ErrLockTimeout is the infrastructure-category failure for a bounded
	// row-lock wait that expired; the caller may retry (creation is idempotent).
	ErrLockTimeout = &ReasonError{Code: "LOCK_TIMEOUT", Message: "timed out waiting for row lock"}
)

// NotActive returns ErrTokenNotActive enriched with the observed status.
func NotActive(status string) *ReasonError {
	return &ReasonError{Code: ErrTokenNotActive.Code, Message: "token status is " + status}
}
