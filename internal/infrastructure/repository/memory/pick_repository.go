package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/riskibarqy/pickem/internal/domain/pick"
)

type PickRepository struct {
	mu    sync.RWMutex
	picks map[string]map[string]pick.Pick
	locks keyedMutex
}

func NewPickRepository() *PickRepository {
	return &PickRepository{picks: make(map[string]map[string]pick.Pick)}
}

func (r *PickRepository) Get(_ context.Context, entryID, slateID string) (pick.Pick, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.picks[entryID][slateID]
	return clonePick(item), ok, nil
}

func (r *PickRepository) ListByEntry(_ context.Context, entryID string) ([]pick.Pick, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]pick.Pick, 0, len(r.picks[entryID]))
	for _, item := range r.picks[entryID] {
		out = append(out, clonePick(item))
	}
	sortPicks(out)
	return out, nil
}

func (r *PickRepository) ListByPool(_ context.Context, poolID string) ([]pick.Pick, error) {
	return r.filter(func(p pick.Pick) bool { return p.PoolID == poolID }), nil
}

func (r *PickRepository) ListByGame(_ context.Context, gameID string) ([]pick.Pick, error) {
	return r.filter(func(p pick.Pick) bool { return p.GameID == gameID }), nil
}

func (r *PickRepository) UpdateCorrect(_ context.Context, entryID, slateID string, correct bool, evaluatedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.picks[entryID][slateID]
	if !ok {
		return fmt.Errorf("pick for entry %s slate %s not found", entryID, slateID)
	}
	item.Correct = &correct
	item.EvaluatedAt = &evaluatedAt
	r.picks[entryID][slateID] = item
	return nil
}

// RunInEntry serialises pick writes per entry and applies them when fn succeeds.
func (r *PickRepository) RunInEntry(ctx context.Context, entryID string, fn func(ctx context.Context, tx pick.Tx) error) error {
	unlock := r.locks.Lock(entryID)
	defer unlock()

	tx := &pickTx{repo: r, entryID: entryID, pending: make(map[string]pick.Pick)}
	if err := fn(ctx, tx); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.picks[entryID] == nil {
		r.picks[entryID] = make(map[string]pick.Pick)
	}
	for slateID, item := range tx.pending {
		r.picks[entryID][slateID] = item
	}
	return nil
}

func (r *PickRepository) filter(keep func(pick.Pick) bool) []pick.Pick {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]pick.Pick, 0)
	for _, bySlate := range r.picks {
		for _, item := range bySlate {
			if keep(item) {
				out = append(out, clonePick(item))
			}
		}
	}
	sortPicks(out)
	return out
}

type pickTx struct {
	repo    *PickRepository
	entryID string
	pending map[string]pick.Pick
}

func (t *pickTx) Get(ctx context.Context, slateID string) (pick.Pick, bool, error) {
	if item, ok := t.pending[slateID]; ok {
		return item, true, nil
	}
	return t.repo.Get(ctx, t.entryID, slateID)
}

func (t *pickTx) Put(_ context.Context, item pick.Pick) error {
	if item.EntryID != t.entryID {
		return fmt.Errorf("pick entry %s does not match transaction entry %s", item.EntryID, t.entryID)
	}
	t.pending[item.SlateID] = clonePick(item)
	return nil
}

func clonePick(item pick.Pick) pick.Pick {
	if item.Correct != nil {
		v := *item.Correct
		item.Correct = &v
	}
	if item.EvaluatedAt != nil {
		v := *item.EvaluatedAt
		item.EvaluatedAt = &v
	}
	return item
}

func sortPicks(items []pick.Pick) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].EntryID == items[j].EntryID {
			return items[i].SlateID < items[j].SlateID
		}
		return items[i].EntryID < items[j].EntryID
	})
}
