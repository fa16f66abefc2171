package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/riskibarqy/pickem/internal/domain/season"
)

type SeasonRepository struct {
	mu      sync.RWMutex
	seasons map[string]season.Season
	slates  map[string]season.Slate
}

func NewSeasonRepository() *SeasonRepository {
	return &SeasonRepository{
		seasons: make(map[string]season.Season),
		slates:  make(map[string]season.Slate),
	}
}

func (r *SeasonRepository) List(_ context.Context) ([]season.Season, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]season.Season, 0, len(r.seasons))
	for _, item := range r.seasons {
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.Before(out[j].StartDate) })
	return out, nil
}

func (r *SeasonRepository) GetByID(_ context.Context, seasonID string) (season.Season, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.seasons[seasonID]
	return item, ok, nil
}

func (r *SeasonRepository) Upsert(_ context.Context, item season.Season) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, exists := r.seasons[item.ID]
	r.seasons[item.ID] = item
	return !exists, nil
}

func (r *SeasonRepository) ListSlates(_ context.Context, seasonID string) ([]season.Slate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]season.Slate, 0)
	for _, item := range r.slates {
		if item.SeasonID == seasonID {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ordinal < out[j].Ordinal })
	return out, nil
}

func (r *SeasonRepository) GetSlate(_ context.Context, slateID string) (season.Slate, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.slates[slateID]
	return item, ok, nil
}

func (r *SeasonRepository) UpsertSlate(_ context.Context, item season.Slate) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if item.ID == "" {
		item.ID = season.SlateKey(item.SeasonID, item.Ordinal)
	}
	_, exists := r.slates[item.ID]
	r.slates[item.ID] = item
	return !exists, nil
}
