package memory

import (
	"context"
	"sync"

	"github.com/riskibarqy/pickem/internal/domain/account"
)

type AccountRepository struct {
	mu         sync.RWMutex
	byID       map[string]account.Account
	byExternal map[string]string
}

func NewAccountRepository() *AccountRepository {
	return &AccountRepository{
		byID:       make(map[string]account.Account),
		byExternal: make(map[string]string),
	}
}

func externalKey(provider, externalID string) string {
	return provider + "|" + externalID
}

func (r *AccountRepository) GetByID(_ context.Context, accountID string) (account.Account, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.byID[accountID]
	return item, ok, nil
}

func (r *AccountRepository) GetByIDs(_ context.Context, accountIDs []string) ([]account.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]account.Account, 0, len(accountIDs))
	for _, id := range accountIDs {
		if item, ok := r.byID[id]; ok {
			out = append(out, item)
		}
	}
	return out, nil
}

// UpsertByExternalID keeps the stored id and created time of an existing account.
func (r *AccountRepository) UpsertByExternalID(_ context.Context, item account.Account) (account.Account, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := externalKey(item.Provider, item.ExternalID)
	if existingID, ok := r.byExternal[key]; ok {
		existing := r.byID[existingID]
		item.ID = existing.ID
		item.CreatedAt = existing.CreatedAt
		r.byID[item.ID] = item
		return item, false, nil
	}

	r.byID[item.ID] = item
	r.byExternal[key] = item.ID
	return item, true, nil
}
