package service

import (
	"fmt"
	"sync"
	"testing"

	"athlos/internal/domain"
	"athlos/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func (e *testEnv) append(t *testing.T, p AuditEntry) *models.AuditLog {
	t.Helper()
	var entry *models.AuditLog
	err := e.db.Transaction(func(tx *gorm.DB) error {
		var err error
		entry, err = e.audit.Append(tx, p)
		return err
	})
	require.NoError(t, err)
	return entry
}

func TestAppendChainsFromGenesis(t *testing.T) {
	env := newTestEnv(t)

	first := env.append(t, AuditEntry{
		Action:    domain.ActionTokenCreated,
		ActorType: domain.ActorSystem,
		Result:    domain.ResultSuccess,
	})
	assert.Equal(t, domain.GenesisHash, first.PreviousHash)

	second := env.append(t, AuditEntry{
		Action:    domain.ActionTokenUsed,
		ActorType: domain.ActorCoach,
		Result:    domain.ResultSuccess,
	})
	assert.Equal(t, first.EntryHash, second.PreviousHash)
	env.requireChainValid(t)
}

func TestVerifyChainDetectsEditedEntry(t *testing.T) {
	env := newTestEnv(t)

	var entries []*models.AuditLog
	for i := 0; i < 4; i++ {
		entries = append(entries, env.append(t, AuditEntry{
			Action:    domain.ActionTokenCreated,
			ActorType: domain.ActorSystem,
			ActorID:   fmt.Sprintf("%d", i),
			Result:    domain.ResultSuccess,
		}))
	}
	env.requireChainValid(t)

	// Rewrite a historical entry in place; the stored hash no longer matches.
	require.NoError(t, env.db.Model(&models.AuditLog{}).
		Where("id = ?", entries[1].ID).
		Update("result", domain.ResultFailure).Error)

	v, err := env.audit.VerifyChainIntegrity()
	require.NoError(t, err)
	assert.False(t, v.Valid)
	require.NotNil(t, v.BrokenEntry)
	assert.Equal(t, entries[1].ID, v.BrokenEntry.ID)
	assert.Equal(t, 4, v.Entries)
}

func TestVerifyChainDetectsBrokenLink(t *testing.T) {
	env := newTestEnv(t)

	for i := 0; i < 3; i++ {
		env.append(t, AuditEntry{
			Action:    domain.ActionTokenCreated,
			ActorType: domain.ActorSystem,
			ActorID:   fmt.Sprintf("%d", i),
			Result:    domain.ResultSuccess,
		})
	}
	entries, err := env.auditRepo.ListChronological()
	require.NoError(t, err)

	// Repoint the last entry at a forged predecessor.
	require.NoError(t, env.db.Model(&models.AuditLog{}).
		Where("id = ?", entries[2].ID).
		Update("previous_hash", "0000000000000000000000000000000000000000000000000000000000000000").Error)

	v, err := env.audit.VerifyChainIntegrity()
	require.NoError(t, err)
	assert.False(t, v.Valid)
	require.NotNil(t, v.BrokenEntry)
	assert.Equal(t, entries[2].ID, v.BrokenEntry.ID)
}

func TestConcurrentAppendsKeepChainLinear(t *testing.T) {
	env := newTestEnv(t)

	const writers = 12
	errs := make([]error, writers)
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = env.db.Transaction(func(tx *gorm.DB) error {
				_, err := env.audit.Append(tx, AuditEntry{
					Action:    domain.ActionTokenCreated,
					ActorType: domain.ActorSystem,
					ActorID:   fmt.Sprintf("writer-%d", i),
					Result:    domain.ResultSuccess,
				})
				return err
			})
		}(i)
	}
	wg.Wait()

	for i := 0; i < writers; i++ {
		require.NoError(t, errs[i])
	}
	v, err := env.audit.VerifyChainIntegrity()
	require.NoError(t, err)
	assert.True(t, v.Valid)
	assert.Equal(t, writers, v.Entries)
}
