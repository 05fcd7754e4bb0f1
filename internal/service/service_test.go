package service

import (
	"testing"
	"time"

	"athlos/internal/models"
	"athlos/internal/repository"
	"athlos/internal/testutil"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testSecret = "test-ledger-secret"

type testEnv struct {
	db        *gorm.DB
	tokens    *repository.TokenRepository
	configs   *repository.CommissionConfigRepository
	payouts   *repository.PayoutRepository
	alerts    *repository.AlertRepository
	auditRepo *repository.AuditLogRepository
	audit     *AuditService
	tokSvc    *TokenService
	paySvc    *PayoutService
}

// newTestEnv wires the full service graph against a fresh database with a
// single active commission config at 12.00%.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.NewDB(t)
	tokens := repository.NewTokenRepository(db)
	configs := repository.NewCommissionConfigRepository(db)
	payouts := repository.NewPayoutRepository(db)
	alerts := repository.NewAlertRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)
	audit := NewAuditService(auditRepo)
	tokSvc := NewTokenService(db, tokens, configs, NewCommissionService(), audit, testSecret, 10*time.Minute, 72*time.Hour)
	paySvc := NewPayoutService(db, tokens, payouts, alerts, tokSvc, audit, testSecret)

	require.NoError(t, configs.Create(&models.CommissionConfig{Name: "default", RateBps: 1200, IsActive: true}))
	return &testEnv{
		db:        db,
		tokens:    tokens,
		configs:   configs,
		payouts:   payouts,
		alerts:    alerts,
		auditRepo: auditRepo,
		audit:     audit,
		tokSvc:    tokSvc,
		paySvc:    paySvc,
	}
}

func (e *testEnv) createToken(t *testing.T, in CreateTokenInput) *models.TrustToken {
	t.Helper()
	tok, err := e.tokSvc.Create(in)
	require.NoError(t, err)
	return tok
}

// expireToken backdates the expiry column directly; the column is not covered
// by the integrity hash, so the row stays hash-valid.
func (e *testEnv) expireToken(t *testing.T, tok *models.TrustToken) {
	t.Helper()
	past := time.Now().UTC().Add(-time.Minute)
	require.NoError(t, e.db.Model(&models.TrustToken{}).
		Where("id = ?", tok.ID).
		Update("expires_at", past).Error)
}

func (e *testEnv) reloadToken(t *testing.T, tok *models.TrustToken) *models.TrustToken {
	t.Helper()
	got, err := e.tokens.GetByID(tok.ID)
	require.NoError(t, err)
	return got
}

func (e *testEnv) actionCount(t *testing.T, action string) int64 {
	t.Helper()
	n, err := e.auditRepo.CountByAction(action)
	require.NoError(t, err)
	return n
}

func (e *testEnv) requireChainValid(t *testing.T) {
	t.Helper()
	v, err := e.audit.VerifyChainIntegrity()
	require.NoError(t, err)
	require.True(t, v.Valid, "ledger chain broke at %+v", v.BrokenEntry)
}
