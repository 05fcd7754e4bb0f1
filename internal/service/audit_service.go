package service

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"athlos/internal/domain"
	"athlos/internal/models"
	"athlos/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuditEntry carries the material of one ledger append.
type AuditEntry struct {
	Action       string
	ActorType    string
	ActorID      string
	TargetID     *uuid.UUID
	Result       string
	Gross        *int64
	Commission   *int64
	Net          *int64
	Summary      map[string]string
	ErrorMessage string
}

// AuditService maintains the append-only hash chain. Appends read the current
// tail hash and must be serialized with respect to each other, otherwise two
// entries can claim the same predecessor and the chain stops verifying. An
// in-process mutex serializes appends here; across processes the unique index
// on previous_hash rejects the loser, which rereads the tail and retries.
type AuditService struct {
	repo *repository.AuditLogRepository
	mu   sync.Mutex
}

func NewAuditService(repo *repository.AuditLogRepository) *AuditService {
	return &AuditService{repo: repo}
}

const appendRetries = 3

// Append writes one chained entry inside the caller's transaction. Callers
// always run Append within a transaction so the entry commits or rolls back
// with the state change it records.
func (s *AuditService) Append(tx *gorm.DB, p AuditEntry) (*models.AuditLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	summary := "{}"
	if len(p.Summary) > 0 {
		b, err := json.Marshal(p.Summary) // map keys marshal sorted: deterministic
		if err != nil {
			return nil, err
		}
		summary = string(b)
	}

	var lastErr error
	for attempt := 0; attempt < appendRetries; attempt++ {
		prev, err := s.repo.TailHash(tx)
		if err != nil {
			return nil, err
		}
		e := &models.AuditLog{
			// V7 ids are time-ordered, so the (created_at, id) tail ordering
			// stays correct even when two entries share a timestamp.
			ID:               uuid.Must(uuid.NewV7()),
			Action:           p.Action,
			ActorType:        p.ActorType,
			ActorID:          p.ActorID,
			TargetID:         p.TargetID,
			RequestSummary:   summary,
			GrossAmount:      p.Gross,
			CommissionAmount: p.Commission,
			NetAmount:        p.Net,
			Result:           p.Result,
			ErrorMessage:     p.ErrorMessage,
			PreviousHash:     prev,
			CreatedAt:        time.Now().UTC(),
		}
		e.EntryHash = e.ComputeHash()
		err = s.repo.Insert(tx, e)
		if err == nil {
			return e, nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, err
		}
		// Another writer chained to the same tail first; reread and retry.
		lastErr = err
	}
	return nil, lastErr
}

// ChainVerification is the outcome of a full ledger walk.
type ChainVerification struct {
	Valid       bool             `json:"valid"`
	Entries     int              `json:"entries"`
	BrokenEntry *models.AuditLog `json:"broken_entry,omitempty"`
}

// VerifyChainIntegrity walks the ledger oldest→newest and fails closed at the
// first entry whose chain link or own hash no longer holds, returning that
// entry as evidence.
func (s *AuditService) VerifyChainIntegrity() (ChainVerification, error) {
	entries, err := s.repo.ListChronological()
	if err != nil {
		return ChainVerification{}, err
	}
	prev := domain.GenesisHash
	for i := range entries {
		e := entries[i]
		if e.PreviousHash != prev {
			return ChainVerification{Valid: false, Entries: len(entries), BrokenEntry: &e}, nil
		}
		if e.EntryHash != e.ComputeHash() {
			return ChainVerification{Valid: false, Entries: len(entries), BrokenEntry: &e}, nil
		}
		prev = e.EntryHash
	}
	return ChainVerification{Valid: true, Entries: len(entries)}, nil
}
