package service

import (
	"errors"
	"strconv"
	"time"

	"athlos/internal/domain"
	"athlos/internal/models"
	"athlos/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TokenService owns the trust token lifecycle: idempotent creation, lazy
// expiry, integrity verification and the single-use transition.
type TokenService struct {
	db         *gorm.DB
	tokens     *repository.TokenRepository
	configs    *repository.CommissionConfigRepository
	commission *CommissionService
	audit      *AuditService
	secret     string
	defaultTTL time.Duration
	maxTTL     time.Duration
}

func NewTokenService(
	db *gorm.DB,
	tokens *repository.TokenRepository,
	configs *repository.CommissionConfigRepository,
	commission *CommissionService,
	audit *AuditService,
	secret string,
	defaultTTL, maxTTL time.Duration,
) *TokenService {
	return &TokenService{
		db:         db,
		tokens:     tokens,
		configs:    configs,
		commission: commission,
		audit:      audit,
		secret:     secret,
		defaultTTL: defaultTTL,
		maxTTL:     maxTTL,
	}
}

type CreateTokenInput struct {
	CoachID        uint
	AthleteID      uint
	ProgramID      uint
	GrossAmount    int64
	IdempotencyKey string
	CreatedByIP    string
	TTL            time.Duration // zero means the configured default
}

// Create issues a new ACTIVE token, or returns the existing one unchanged
// when the idempotency key was seen before — no new row, no second audit
// entry. Two racing creates with the same key are decided by the unique
// constraint; the loser reads the winner back.
func (s *TokenService) Create(in CreateTokenInput) (*models.TrustToken, error) {
	if in.IdempotencyKey == "" {
		return nil, domain.ErrKeyRequired
	}
	if existing, err := s.tokens.GetByIdempotencyKey(in.IdempotencyKey); err == nil {
		return existing, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	rate, err := s.configs.ActiveRateBps()
	if err != nil {
		return nil, err
	}
	breakdown, err := s.commission.Calculate(in.GrossAmount, rate)
	if err != nil {
		return nil, err
	}

	ttl := in.TTL
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	if ttl > s.maxTTL {
		ttl = s.maxTTL
	}

	now := time.Now().UTC()
	t := &models.TrustToken{
		ID:                uuid.New(),
		ProgramID:         in.ProgramID,
		CoachID:           in.CoachID,
		AthleteID:         in.AthleteID,
		GrossAmount:       breakdown.Gross,
		CommissionAmount:  breakdown.Commission,
		NetAmount:         breakdown.Net,
		CommissionRateBps: breakdown.RateBps,
		Status:            domain.TokenStatusActive,
		IdempotencyKey:    in.IdempotencyKey,
		CreatedByIP:       in.CreatedByIP,
		CreatedAt:         now,
		ExpiresAt:         now.Add(ttl),
	}
	t.IntegrityHash = t.Fingerprint(s.secret)

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.tokens.Create(tx, t); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				// Lost the race; hand back the winner without a second
				// TOKEN_CREATED entry.
				winner, rerr := s.tokens.GetByIdempotencyKeyTx(tx, in.IdempotencyKey)
				if rerr != nil {
					return rerr
				}
				t = winner
				return nil
			}
			return err
		}
		_, err := s.audit.Append(tx, AuditEntry{
			Action:     domain.ActionTokenCreated,
			ActorType:  domain.ActorSystem,
			ActorID:    strconv.FormatUint(uint64(in.AthleteID), 10),
			TargetID:   &t.ID,
			Result:     domain.ResultSuccess,
			Gross:      &breakdown.Gross,
			Commission: &breakdown.Commission,
			Net:        &breakdown.Net,
			Summary: map[string]string{
				"coach_id":   strconv.FormatUint(uint64(in.CoachID), 10),
				"athlete_id": strconv.FormatUint(uint64(in.AthleteID), 10),
				"program_id": strconv.FormatUint(uint64(in.ProgramID), 10),
			},
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// ValidationResult reports whether a token may be spent and, when it may not,
// the stable reason code plus a human-readable detail.
type ValidationResult struct {
	Valid  bool               `json:"valid"`
	Reason string             `json:"reason,omitempty"`
	Detail string             `json:"detail,omitempty"`
	Token  *models.TrustToken `json:"-"`
}

func invalid(re *domain.ReasonError) ValidationResult {
	return ValidationResult{Reason: re.Code, Detail: re.Message}
}

// ValidateByID resolves the token and validates it. Business outcomes come
// back in the result; only infrastructure failures surface as errors. Runs in
// a transaction because a tampered token writes a TOKEN_TAMPERED entry.
func (s *TokenService) ValidateByID(id uuid.UUID, expectedCoachID *uint) (ValidationResult, error) {
	var res ValidationResult
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var t models.TrustToken
		if err := tx.Where("id = ?", id).First(&t).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				res = invalid(domain.ErrTokenNotFound)
				return nil
			}
			return err
		}
		var err error
		res, err = s.validate(tx, &t, expectedCoachID)
		return err
	})
	return res, err
}

// validate runs the check sequence on a loaded row: status, expiry,
// integrity, coach. Callers holding a row lock pass the locked row, so a
// pre-lock check is never trusted.
func (s *TokenService) validate(tx *gorm.DB, t *models.TrustToken, expectedCoachID *uint) (ValidationResult, error) {
	if t.Status != domain.TokenStatusActive {
		return invalid(domain.NotActive(t.Status)), nil
	}
	if t.IsExpired(time.Now().UTC()) {
		return invalid(domain.ErrTokenExpired), nil
	}
	if !t.VerifyIntegrity(s.secret) {
		_, err := s.audit.Append(tx, AuditEntry{
			Action:       domain.ActionTokenTampered,
			ActorType:    domain.ActorSystem,
			TargetID:     &t.ID,
			Result:       domain.ResultFailure,
			ErrorMessage: "integrity hash mismatch",
			Summary:      map[string]string{"token_id": t.ID.String()},
		})
		if err != nil {
			return ValidationResult{}, err
		}
		return invalid(domain.ErrTokenTampered), nil
	}
	if expectedCoachID != nil && t.CoachID != *expectedCoachID {
		return invalid(domain.ErrCoachMismatch), nil
	}
	return ValidationResult{Valid: true, Token: t}, nil
}

// UseResult reports a consumption attempt.
type UseResult struct {
	Success bool               `json:"success"`
	Reason  string             `json:"reason,omitempty"`
	Detail  string             `json:"detail,omitempty"`
	Token   *models.TrustToken `json:"-"`
}

// Use consumes an ACTIVE token exactly once. The row is locked before
// validation and the ACTIVE→USED flip is a guarded update, so among N
// concurrent callers exactly one succeeds and the rest see TOKEN_NOT_ACTIVE.
func (s *TokenService) Use(id uuid.UUID, coachID *uint, usedByIP string) (UseResult, error) {
	var res UseResult
	err := s.db.Transaction(func(tx *gorm.DB) error {
		t, err := s.tokens.GetByIDForUpdate(tx, id)
		if err != nil {
			if errors.Is(err, domain.ErrTokenNotFound) {
				res = UseResult{Reason: domain.ErrTokenNotFound.Code, Detail: domain.ErrTokenNotFound.Message}
				return nil
			}
			return err
		}

		if expired, err := s.expireIfDue(tx, t); err != nil {
			return err
		} else if expired {
			res = UseResult{Reason: domain.ErrTokenExpired.Code, Detail: domain.ErrTokenExpired.Message}
			return nil
		}

		v, err := s.validate(tx, t, coachID)
		if err != nil {
			return err
		}
		if !v.Valid {
			res = UseResult{Reason: v.Reason, Detail: v.Detail}
			return nil
		}

		now := time.Now().UTC()
		next := *t
		next.Status = domain.TokenStatusUsed
		ok, err := s.tokens.ConsumeActive(tx, t, now, usedByIP, next.Fingerprint(s.secret))
		if err != nil {
			return err
		}
		if !ok {
			res = UseResult{Reason: domain.ErrTokenNotActive.Code, Detail: domain.ErrTokenNotActive.Message}
			return nil
		}

		actorID := ""
		if coachID != nil {
			actorID = strconv.FormatUint(uint64(*coachID), 10)
		}
		if _, err := s.audit.Append(tx, AuditEntry{
			Action:    domain.ActionTokenUsed,
			ActorType: domain.ActorCoach,
			ActorID:   actorID,
			TargetID:  &t.ID,
			Result:    domain.ResultSuccess,
			Summary: map[string]string{
				"token_id":   t.ID.String(),
				"used_by_ip": usedByIP,
			},
		}); err != nil {
			return err
		}
		res = UseResult{Success: true, Token: t}
		return nil
	})
	return res, err
}

// Revoke administratively retires an ACTIVE token. Terminal: no transition
// out of REVOKED.
func (s *TokenService) Revoke(id uuid.UUID, adminID uint) (UseResult, error) {
	var res UseResult
	err := s.db.Transaction(func(tx *gorm.DB) error {
		t, err := s.tokens.GetByIDForUpdate(tx, id)
		if err != nil {
			if errors.Is(err, domain.ErrTokenNotFound) {
				res = UseResult{Reason: domain.ErrTokenNotFound.Code, Detail: domain.ErrTokenNotFound.Message}
				return nil
			}
			return err
		}
		if t.Status != domain.TokenStatusActive {
			na := domain.NotActive(t.Status)
			res = UseResult{Reason: na.Code, Detail: na.Message}
			return nil
		}

		next := *t
		next.Status = domain.TokenStatusRevoked
		ok, err := s.tokens.TransitionFromActive(tx, t, domain.TokenStatusRevoked, next.Fingerprint(s.secret))
		if err != nil {
			return err
		}
		if !ok {
			res = UseResult{Reason: domain.ErrTokenNotActive.Code, Detail: domain.ErrTokenNotActive.Message}
			return nil
		}
		if _, err := s.audit.Append(tx, AuditEntry{
			Action:    domain.ActionTokenRevoked,
			ActorType: domain.ActorAdmin,
			ActorID:   strconv.FormatUint(uint64(adminID), 10),
			TargetID:  &t.ID,
			Result:    domain.ResultSuccess,
			Summary:   map[string]string{"token_id": t.ID.String()},
		}); err != nil {
			return err
		}
		res = UseResult{Success: true, Token: t}
		return nil
	})
	return res, err
}

// expireIfDue lazily settles an ACTIVE token whose TTL elapsed. Expiry is
// observed on use rather than by a background sweep; the transition is
// recorded like any other state change. Caller must hold the row lock.
func (s *TokenService) expireIfDue(tx *gorm.DB, t *models.TrustToken) (bool, error) {
	if t.Status != domain.TokenStatusActive || !t.IsExpired(time.Now().UTC()) {
		return false, nil
	}
	if !t.VerifyIntegrity(s.secret) {
		// Leave a tampered row untouched as evidence; rewriting its hash for
		// the EXPIRED transition would launder the tampering.
		return false, nil
	}
	next := *t
	next.Status = domain.TokenStatusExpired
	ok, err := s.tokens.TransitionFromActive(tx, t, domain.TokenStatusExpired, next.Fingerprint(s.secret))
	if err != nil || !ok {
		return ok, err
	}
	_, err = s.audit.Append(tx, AuditEntry{
		Action:    domain.ActionTokenExpired,
		ActorType: domain.ActorSystem,
		TargetID:  &t.ID,
		Result:    domain.ResultSuccess,
		Summary:   map[string]string{"token_id": t.ID.String()},
	})
	return true, err
}

// Preview returns a token without validation, for the purchase flow UI.
func (s *TokenService) Preview(id uuid.UUID) (*models.TrustToken, error) {
	return s.tokens.GetByID(id)
}
