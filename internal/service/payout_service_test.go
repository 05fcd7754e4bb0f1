package service

import (
	"sync"
	"testing"
	"time"

	"athlos/internal/domain"
	"athlos/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatePayout(t *testing.T) {
	env := newTestEnv(t)
	tok := env.createToken(t, baseInput())

	p, err := env.paySvc.CreatePayout(tok.ID, tok.CoachID, "198.51.100.4")
	require.NoError(t, err)
	require.NotNil(t, p)

	// Amounts are the token's, copied verbatim.
	assert.Equal(t, tok.GrossAmount, p.GrossAmount)
	assert.Equal(t, tok.CommissionAmount, p.CommissionAmount)
	assert.Equal(t, tok.NetAmount, p.NetAmount)
	assert.Equal(t, domain.PayoutStatusCompleted, p.Status)

	got := env.reloadToken(t, tok)
	assert.Equal(t, domain.TokenStatusUsed, got.Status)
	assert.True(t, got.VerifyIntegrity(testSecret))

	assert.EqualValues(t, 1, env.actionCount(t, domain.ActionPayoutCompleted))
	env.requireChainValid(t)
}

func TestCreatePayoutRequiresTokenID(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.paySvc.CreatePayout(uuid.Nil, 7, "198.51.100.4")
	assert.Equal(t, "TOKEN_ID_REQUIRED", domain.Reason(err))
}

func TestCreatePayoutUnknownToken(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.paySvc.CreatePayout(uuid.New(), 7, "198.51.100.4")
	assert.Equal(t, "TOKEN_NOT_FOUND", domain.Reason(err))
}

func TestCreatePayoutCoachMismatch(t *testing.T) {
	env := newTestEnv(t)
	tok := env.createToken(t, baseInput())

	_, err := env.paySvc.CreatePayout(tok.ID, tok.CoachID+1, "198.51.100.4")
	assert.Equal(t, "COACH_MISMATCH", domain.Reason(err))

	// The rejection is recorded even though the payout itself rolled back:
	// the bypass entry and the alert survive the failed attempt.
	assert.EqualValues(t, 1, env.actionCount(t, domain.ActionBypassAttempt))
	alerts, aerr := env.alerts.ListUnresolved(10)
	require.NoError(t, aerr)
	require.Len(t, alerts, 1)
	assert.Equal(t, domain.AlertTypeCoachMismatch, alerts[0].AlertType)
	assert.Equal(t, domain.AlertSeverityHigh, alerts[0].Severity)

	// The token is untouched and the rightful coach can still redeem it.
	got := env.reloadToken(t, tok)
	assert.Equal(t, domain.TokenStatusActive, got.Status)
	_, err = env.paySvc.CreatePayout(tok.ID, tok.CoachID, "198.51.100.4")
	require.NoError(t, err)
	env.requireChainValid(t)
}

func TestCreatePayoutAfterTokenUsed(t *testing.T) {
	env := newTestEnv(t)
	tok := env.createToken(t, baseInput())

	_, err := env.paySvc.CreatePayout(tok.ID, tok.CoachID, "198.51.100.4")
	require.NoError(t, err)

	_, err = env.paySvc.CreatePayout(tok.ID, tok.CoachID, "198.51.100.4")
	assert.Equal(t, "TOKEN_NOT_ACTIVE", domain.Reason(err))

	var rows int64
	require.NoError(t, env.db.Model(&models.Payout{}).Count(&rows).Error)
	assert.EqualValues(t, 1, rows)
}

func TestCreatePayoutExclusivity(t *testing.T) {
	env := newTestEnv(t)
	tok := env.createToken(t, baseInput())

	// A payout row that exists while the token is still ACTIVE (crash window,
	// manual insert) must block a second one before any state change.
	orphan := &models.Payout{
		ID:                uuid.New(),
		TrustTokenID:      tok.ID,
		GrossAmount:       tok.GrossAmount,
		CommissionAmount:  tok.CommissionAmount,
		NetAmount:         tok.NetAmount,
		CommissionRateBps: tok.CommissionRateBps,
		Status:            domain.PayoutStatusCompleted,
		CreatedAt:         time.Now().UTC(),
	}
	require.NoError(t, env.db.Create(orphan).Error)

	_, err := env.paySvc.CreatePayout(tok.ID, tok.CoachID, "198.51.100.4")
	assert.Equal(t, "PAYOUT_ALREADY_EXISTS", domain.Reason(err))

	got := env.reloadToken(t, tok)
	assert.Equal(t, domain.TokenStatusActive, got.Status)
}

func TestCreatePayoutConcurrently(t *testing.T) {
	env := newTestEnv(t)
	tok := env.createToken(t, baseInput())

	const callers = 8
	payouts := make([]*models.Payout, callers)
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			payouts[i], errs[i] = env.paySvc.CreatePayout(tok.ID, tok.CoachID, "198.51.100.4")
		}(i)
	}
	wg.Wait()

	wins := 0
	for i := 0; i < callers; i++ {
		if errs[i] == nil {
			require.NotNil(t, payouts[i])
			wins++
			continue
		}
		assert.Equal(t, "TOKEN_NOT_ACTIVE", domain.Reason(errs[i]))
	}
	assert.Equal(t, 1, wins, "exactly one payout per token")

	var rows int64
	require.NoError(t, env.db.Model(&models.Payout{}).Count(&rows).Error)
	assert.EqualValues(t, 1, rows)
	assert.EqualValues(t, 1, env.actionCount(t, domain.ActionPayoutCompleted))
	env.requireChainValid(t)
}

func TestCreatePayoutCommissionBypassSentinel(t *testing.T) {
	env := newTestEnv(t)
	tok := env.createToken(t, baseInput())

	// An insider with the secret could zero the commission and recompute a
	// valid hash; the sentinel catches the pattern regardless.
	doctored := *tok
	doctored.CommissionAmount = 0
	doctored.NetAmount = doctored.GrossAmount
	require.NoError(t, env.db.Model(&models.TrustToken{}).
		Where("id = ?", tok.ID).
		Updates(map[string]interface{}{
			"commission_amount": doctored.CommissionAmount,
			"net_amount":        doctored.NetAmount,
			"integrity_hash":    doctored.Fingerprint(testSecret),
		}).Error)

	_, err := env.paySvc.CreatePayout(tok.ID, tok.CoachID, "198.51.100.4")
	assert.Equal(t, "COMMISSION_BYPASS_DETECTED", domain.Reason(err))

	assert.EqualValues(t, 1, env.actionCount(t, domain.ActionBypassAttempt))
	alerts, aerr := env.alerts.ListUnresolved(10)
	require.NoError(t, aerr)
	require.Len(t, alerts, 1)
	assert.Equal(t, domain.AlertTypeCommissionBypass, alerts[0].AlertType)
	assert.Equal(t, domain.AlertSeverityCritical, alerts[0].Severity)

	got := env.reloadToken(t, tok)
	assert.Equal(t, domain.TokenStatusActive, got.Status, "sentinel blocks without consuming")
}

func TestCreatePayoutExpiredToken(t *testing.T) {
	env := newTestEnv(t)
	tok := env.createToken(t, baseInput())
	env.expireToken(t, tok)

	_, err := env.paySvc.CreatePayout(tok.ID, tok.CoachID, "198.51.100.4")
	assert.Equal(t, "TOKEN_EXPIRED", domain.Reason(err))

	got := env.reloadToken(t, tok)
	assert.Equal(t, domain.TokenStatusExpired, got.Status)
	assert.EqualValues(t, 1, env.actionCount(t, domain.ActionPayoutInitiated))
	env.requireChainValid(t)
}

func TestGetByTokenAndList(t *testing.T) {
	env := newTestEnv(t)
	tok := env.createToken(t, baseInput())

	missing, err := env.paySvc.GetByToken(tok.ID)
	require.NoError(t, err)
	assert.Nil(t, missing)

	created, err := env.paySvc.CreatePayout(tok.ID, tok.CoachID, "198.51.100.4")
	require.NoError(t, err)

	found, err := env.paySvc.GetByToken(tok.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, created.ID, found.ID)

	list, err := env.paySvc.ListForCoach(tok.CoachID)
	require.NoError(t, err)
	require.Len(t, list, 1)
}
