package service

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"athlos/internal/domain"
	"athlos/internal/models"
	"athlos/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PayoutService consumes a valid trust token exactly once and emits exactly
// one payout. Every check runs under the token's row lock inside a single
// transaction; nothing partially commits.
type PayoutService struct {
	db      *gorm.DB
	tokens  *repository.TokenRepository
	payouts *repository.PayoutRepository
	alerts  *repository.AlertRepository
	tokSvc  *TokenService
	audit   *AuditService
	secret  string
}

func NewPayoutService(
	db *gorm.DB,
	tokens *repository.TokenRepository,
	payouts *repository.PayoutRepository,
	alerts *repository.AlertRepository,
	tokSvc *TokenService,
	audit *AuditService,
	secret string,
) *PayoutService {
	return &PayoutService{
		db:      db,
		tokens:  tokens,
		payouts: payouts,
		alerts:  alerts,
		tokSvc:  tokSvc,
		audit:   audit,
		secret:  secret,
	}
}

// CreatePayout runs the full payout sequence for coachID against tokenID:
// lock, re-validate, coach ownership, payout exclusivity, commission-bypass
// sentinel, then mark used + create payout + ledger entry. Business
// rejections come back as reason-coded errors.
func (s *PayoutService) CreatePayout(tokenID uuid.UUID, coachID uint, ip string) (*models.Payout, error) {
	if tokenID == uuid.Nil {
		return nil, domain.ErrTokenIDRequired
	}

	// Business rejections are carried out of the transaction via reject so
	// the ledger entries recording them commit; returning them as errors
	// would roll their audit trail back with the payout.
	var payout *models.Payout
	var reject *domain.ReasonError
	err := s.db.Transaction(func(tx *gorm.DB) error {
		t, err := s.tokens.GetByIDForUpdate(tx, tokenID)
		if err != nil {
			if errors.Is(err, domain.ErrTokenNotFound) {
				reject = domain.ErrTokenNotFound
				return nil
			}
			return err
		}

		if expired, err := s.tokSvc.expireIfDue(tx, t); err != nil {
			return err
		} else if expired {
			reject = domain.ErrTokenExpired
			return s.rejectValidation(tx, t, coachID, domain.ErrTokenExpired)
		}

		// Re-validate under the lock; a pre-lock check is never trusted.
		// Coach ownership is checked separately below so a mismatch is
		// recorded as a bypass attempt, not a plain validation failure.
		v, err := s.tokSvc.validate(tx, t, nil)
		if err != nil {
			return err
		}
		if !v.Valid {
			reject = &domain.ReasonError{Code: v.Reason, Message: v.Detail}
			return s.rejectValidation(tx, t, coachID, reject)
		}

		if t.CoachID != coachID {
			reject = domain.ErrCoachMismatch
			return s.recordBypass(tx, t, coachID, domain.AlertTypeCoachMismatch, domain.AlertSeverityHigh,
				"coach mismatch",
				map[string]string{
					"token_id":           t.ID.String(),
					"token_coach_id":     strconv.FormatUint(uint64(t.CoachID), 10),
					"attempted_coach_id": strconv.FormatUint(uint64(coachID), 10),
				})
		}

		// Exclusivity check under the same lock closes the race between
		// "check" and "create".
		exists, err := s.payouts.ExistsForToken(tx, t.ID)
		if err != nil {
			return err
		}
		if exists {
			reject = domain.ErrPayoutExists
			return nil
		}

		// Sentinel against the zeroed-commission tampering pattern.
		if t.CommissionRateBps > 0 && t.CommissionAmount == 0 {
			reject = domain.ErrCommissionBypass
			return s.recordBypass(tx, t, coachID, domain.AlertTypeCommissionBypass, domain.AlertSeverityCritical,
				"commission bypass detected",
				map[string]string{"token_id": t.ID.String()})
		}

		now := time.Now().UTC()
		next := *t
		next.Status = domain.TokenStatusUsed
		ok, err := s.tokens.ConsumeActive(tx, t, now, ip, next.Fingerprint(s.secret))
		if err != nil {
			return err
		}
		if !ok {
			reject = domain.NotActive(t.Status)
			return nil
		}

		// Amounts are copied verbatim from the token; the token is the single
		// source of truth for the agreed split.
		cid := coachID
		payout = &models.Payout{
			ID:                uuid.New(),
			TrustTokenID:      t.ID,
			CoachID:           &cid,
			GrossAmount:       t.GrossAmount,
			CommissionAmount:  t.CommissionAmount,
			NetAmount:         t.NetAmount,
			CommissionRateBps: t.CommissionRateBps,
			Status:            domain.PayoutStatusCompleted,
			CreatedAt:         now,
		}
		if err := s.payouts.Create(tx, payout); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return domain.ErrPayoutExists
			}
			return err
		}

		_, err = s.audit.Append(tx, AuditEntry{
			Action:     domain.ActionPayoutCompleted,
			ActorType:  domain.ActorCoach,
			ActorID:    strconv.FormatUint(uint64(coachID), 10),
			TargetID:   &t.ID,
			Result:     domain.ResultSuccess,
			Gross:      &t.GrossAmount,
			Commission: &t.CommissionAmount,
			Net:        &t.NetAmount,
			Summary: map[string]string{
				"payout_id": payout.ID.String(),
				"token_id":  t.ID.String(),
			},
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	if reject != nil {
		return nil, reject
	}
	return payout, nil
}

// rejectValidation records the failed initiation on the ledger. The caller
// surfaces the rejection after the transaction commits the entry.
func (s *PayoutService) rejectValidation(tx *gorm.DB, t *models.TrustToken, coachID uint, cause *domain.ReasonError) error {
	_, err := s.audit.Append(tx, AuditEntry{
		Action:       domain.ActionPayoutInitiated,
		ActorType:    domain.ActorCoach,
		ActorID:      strconv.FormatUint(uint64(coachID), 10),
		TargetID:     &t.ID,
		Result:       domain.ResultFailure,
		ErrorMessage: cause.Message,
		Summary:      map[string]string{"token_id": t.ID.String()},
	})
	return err
}

// recordBypass writes the blocked BYPASS_ATTEMPT entry and the matching
// disintermediation alert for operator follow-up.
func (s *PayoutService) recordBypass(tx *gorm.DB, t *models.TrustToken, coachID uint, alertType, severity, msg string, summary map[string]string) error {
	if _, err := s.audit.Append(tx, AuditEntry{
		Action:       domain.ActionBypassAttempt,
		ActorType:    domain.ActorCoach,
		ActorID:      strconv.FormatUint(uint64(coachID), 10),
		TargetID:     &t.ID,
		Result:       domain.ResultBlocked,
		ErrorMessage: msg,
		Summary:      summary,
	}); err != nil {
		return err
	}
	return s.alerts.Create(tx, &models.DisintermediationAlert{
		CoachID:     coachID,
		AlertType:   alertType,
		Severity:    severity,
		Description: fmt.Sprintf("%s on token %s", msg, t.ID),
		CreatedAt:   time.Now().UTC(),
	})
}

// GetByToken returns the payout consuming tokenID, or nil.
func (s *PayoutService) GetByToken(tokenID uuid.UUID) (*models.Payout, error) {
	return s.payouts.GetByTokenID(tokenID)
}

// ListForCoach returns a coach's payouts, newest first.
func (s *PayoutService) ListForCoach(coachID uint) ([]models.Payout, error) {
	return s.payouts.ListByCoach(coachID)
}
