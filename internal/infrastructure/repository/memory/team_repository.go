package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/riskibarqy/pickem/internal/domain/team"
)

type TeamRepository struct {
	mu     sync.RWMutex
	bySlug map[string]team.Team
}

func NewTeamRepository(teams []team.Team) *TeamRepository {
	bySlug := make(map[string]team.Team, len(teams))
	for _, item := range teams {
		bySlug[team.NormalizeSlug(item.Slug)] = item
	}

	return &TeamRepository{bySlug: bySlug}
}

func (r *TeamRepository) List(_ context.Context) ([]team.Team, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]team.Team, 0, len(r.bySlug))
	for _, item := range r.bySlug {
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })

	return out, nil
}

func (r *TeamRepository) GetBySlug(_ context.Context, slug string) (team.Team, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.bySlug[team.NormalizeSlug(slug)]
	return item, ok, nil
}

func (r *TeamRepository) Upsert(_ context.Context, item team.Team) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := team.NormalizeSlug(item.Slug)
	item.Slug = key
	_, exists := r.bySlug[key]
	r.bySlug[key] = item

	return !exists, nil
}
