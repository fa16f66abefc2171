package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/riskibarqy/pickem/internal/domain/pool"
)

type PoolRepository struct {
	mu      sync.RWMutex
	pools   map[string]pool.Pool
	entries map[string]map[string]pool.Entry
	locks   keyedMutex
}

func NewPoolRepository() *PoolRepository {
	return &PoolRepository{
		pools:   make(map[string]pool.Pool),
		entries: make(map[string]map[string]pool.Entry),
	}
}

func (r *PoolRepository) Create(_ context.Context, item pool.Pool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.pools[item.ID]; exists {
		return fmt.Errorf("pool %s already exists", item.ID)
	}
	r.pools[item.ID] = item
	return nil
}

func (r *PoolRepository) Update(_ context.Context, item pool.Pool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.pools[item.ID]; !exists {
		return fmt.Errorf("pool %s not found", item.ID)
	}
	r.pools[item.ID] = item
	return nil
}

func (r *PoolRepository) GetByID(_ context.Context, poolID string) (pool.Pool, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.pools[poolID]
	return item, ok, nil
}

func (r *PoolRepository) ListByAccount(_ context.Context, accountID string) ([]pool.Pool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]pool.Pool, 0)
	for poolID, item := range r.pools {
		if item.ManagerID == accountID || r.findEntryLocked(poolID, accountID) != nil {
			out = append(out, item)
		}
	}
	sortPools(out)
	return out, nil
}

func (r *PoolRepository) ListBySeason(_ context.Context, seasonID string) ([]pool.Pool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]pool.Pool, 0)
	for _, item := range r.pools {
		if item.SeasonID == seasonID {
			out = append(out, item)
		}
	}
	sortPools(out)
	return out, nil
}

func (r *PoolRepository) ListEntries(_ context.Context, poolID string) ([]pool.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]pool.Entry, 0, len(r.entries[poolID]))
	for _, item := range r.entries[poolID] {
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *PoolRepository) GetEntry(_ context.Context, poolID, entryID string) (pool.Entry, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.entries[poolID][entryID]
	return item, ok, nil
}

func (r *PoolRepository) FindEntryByAccount(_ context.Context, poolID, accountID string) (pool.Entry, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if item := r.findEntryLocked(poolID, accountID); item != nil {
		return *item, true, nil
	}
	return pool.Entry{}, false, nil
}

func (r *PoolRepository) UpdateEntry(_ context.Context, item pool.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[item.PoolID][item.ID]; !ok {
		return fmt.Errorf("entry %s not found in pool %s", item.ID, item.PoolID)
	}
	r.entries[item.PoolID][item.ID] = item
	return nil
}

// RunInPool holds the pool lock for the whole of fn and applies inserts only when fn succeeds.
func (r *PoolRepository) RunInPool(ctx context.Context, poolID string, fn func(ctx context.Context, tx pool.EntryTx) error) error {
	unlock := r.locks.Lock(poolID)
	defer unlock()

	tx := &poolTx{repo: r, poolID: poolID}
	if err := fn(ctx, tx); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, item := range tx.pending {
		if r.findEntryLocked(poolID, item.AccountID) != nil {
			return fmt.Errorf("entry for account %s already exists in pool %s", item.AccountID, poolID)
		}
		if r.entries[poolID] == nil {
			r.entries[poolID] = make(map[string]pool.Entry)
		}
		r.entries[poolID][item.ID] = item
	}
	return nil
}

func (r *PoolRepository) findEntryLocked(poolID, accountID string) *pool.Entry {
	for _, item := range r.entries[poolID] {
		if item.AccountID == accountID {
			found := item
			return &found
		}
	}
	return nil
}

type poolTx struct {
	repo    *PoolRepository
	poolID  string
	pending []pool.Entry
}

func (t *poolTx) FindEntryByAccount(ctx context.Context, accountID string) (pool.Entry, bool, error) {
	for _, item := range t.pending {
		if item.AccountID == accountID {
			return item, true, nil
		}
	}
	return t.repo.FindEntryByAccount(ctx, t.poolID, accountID)
}

func (t *poolTx) InsertEntry(ctx context.Context, item pool.Entry) error {
	if item.PoolID != t.poolID {
		return fmt.Errorf("entry pool %s does not match transaction pool %s", item.PoolID, t.poolID)
	}
	if _, exists, _ := t.FindEntryByAccount(ctx, item.AccountID); exists {
		return fmt.Errorf("entry for account %s already exists in pool %s", item.AccountID, t.poolID)
	}
	t.pending = append(t.pending, item)
	return nil
}

func sortPools(items []pool.Pool) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].ID < items[j].ID
		}
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
}
