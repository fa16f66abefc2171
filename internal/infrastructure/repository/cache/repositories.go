package cache

import (
	"context"

	"github.com/riskibarqy/pickem/internal/domain/season"
	"github.com/riskibarqy/pickem/internal/domain/team"
	basecache "github.com/riskibarqy/pickem/internal/platform/cache"
)

// keyer versions keys with the shared generation so an import in another
// process orphans every cached read here. A failing generation read falls
// back to generation zero and local deletes.
type keyer struct {
	generation basecache.Generation
}

func (k keyer) key(ctx context.Context, key string) string {
	if k.generation == nil {
		return key
	}
	gen, err := k.generation.Current(ctx)
	if err != nil {
		return key
	}
	return basecache.GenerationKey(gen, key)
}

type TeamRepository struct {
	next  team.Repository
	cache *basecache.Store
	keys  keyer
}

func NewTeamRepository(next team.Repository, cache *basecache.Store, generation basecache.Generation) *TeamRepository {
	return &TeamRepository{next: next, cache: cache, keys: keyer{generation: generation}}
}

func (r *TeamRepository) List(ctx context.Context) ([]team.Team, error) {
	v, err := r.cache.GetOrLoad(ctx, r.keys.key(ctx, "team:list"), func(ctx context.Context) (any, error) {
		items, err := r.next.List(ctx)
		if err != nil {
			return nil, err
		}
		return append([]team.Team(nil), items...), nil
	})
	if err != nil {
		return nil, err
	}

	items, _ := v.([]team.Team)
	return append([]team.Team(nil), items...), nil
}

func (r *TeamRepository) GetBySlug(ctx context.Context, slug string) (team.Team, bool, error) {
	v, err := r.cache.GetOrLoad(ctx, r.keys.key(ctx, "team:slug:"+slug), func(ctx context.Context) (any, error) {
		item, exists, err := r.next.GetBySlug(ctx, slug)
		if err != nil {
			return nil, err
		}
		return cachedTeam{value: item, exists: exists}, nil
	})
	if err != nil {
		return team.Team{}, false, err
	}

	cached, _ := v.(cachedTeam)
	return cached.value, cached.exists, nil
}

func (r *TeamRepository) Upsert(ctx context.Context, item team.Team) (bool, error) {
	created, err := r.next.Upsert(ctx, item)
	if err != nil {
		return false, err
	}
	r.cache.Delete(ctx, r.keys.key(ctx, "team:list"))
	r.cache.Delete(ctx, r.keys.key(ctx, "team:slug:"+item.Slug))
	return created, nil
}

type cachedTeam struct {
	value  team.Team
	exists bool
}

// SeasonRepository caches season and slate reads. Writes pass through and
// drop the affected keys.
type SeasonRepository struct {
	next  season.Repository
	cache *basecache.Store
	keys  keyer
}

func NewSeasonRepository(next season.Repository, cache *basecache.Store, generation basecache.Generation) *SeasonRepository {
	return &SeasonRepository{next: next, cache: cache, keys: keyer{generation: generation}}
}

func (r *SeasonRepository) List(ctx context.Context) ([]season.Season, error) {
	v, err := r.cache.GetOrLoad(ctx, r.keys.key(ctx, "season:list"), func(ctx context.Context) (any, error) {
		items, err := r.next.List(ctx)
		if err != nil {
			return nil, err
		}
		return append([]season.Season(nil), items...), nil
	})
	if err != nil {
		return nil, err
	}

	items, _ := v.([]season.Season)
	return append([]season.Season(nil), items...), nil
}

func (r *SeasonRepository) GetByID(ctx context.Context, seasonID string) (season.Season, bool, error) {
	v, err := r.cache.GetOrLoad(ctx, r.keys.key(ctx, "season:id:"+seasonID), func(ctx context.Context) (any, error) {
		item, exists, err := r.next.GetByID(ctx, seasonID)
		if err != nil {
			return nil, err
		}
		return cachedSeason{value: item, exists: exists}, nil
	})
	if err != nil {
		return season.Season{}, false, err
	}

	cached, _ := v.(cachedSeason)
	return cached.value, cached.exists, nil
}

func (r *SeasonRepository) Upsert(ctx context.Context, item season.Season) (bool, error) {
	created, err := r.next.Upsert(ctx, item)
	if err != nil {
		return false, err
	}
	r.cache.Delete(ctx, r.keys.key(ctx, "season:list"))
	r.cache.Delete(ctx, r.keys.key(ctx, "season:id:"+item.ID))
	return created, nil
}

func (r *SeasonRepository) ListSlates(ctx context.Context, seasonID string) ([]season.Slate, error) {
	v, err := r.cache.GetOrLoad(ctx, r.keys.key(ctx, slateListKey(seasonID)), func(ctx context.Context) (any, error) {
		items, err := r.next.ListSlates(ctx, seasonID)
		if err != nil {
			return nil, err
		}
		return append([]season.Slate(nil), items...), nil
	})
	if err != nil {
		return nil, err
	}

	items, _ := v.([]season.Slate)
	return append([]season.Slate(nil), items...), nil
}

func (r *SeasonRepository) GetSlate(ctx context.Context, slateID string) (season.Slate, bool, error) {
	v, err := r.cache.GetOrLoad(ctx, r.keys.key(ctx, "slate:id:"+slateID), func(ctx context.Context) (any, error) {
		item, exists, err := r.next.GetSlate(ctx, slateID)
		if err != nil {
			return nil, err
		}
		return cachedSlate{value: item, exists: exists}, nil
	})
	if err != nil {
		return season.Slate{}, false, err
	}

	cached, _ := v.(cachedSlate)
	return cached.value, cached.exists, nil
}

func (r *SeasonRepository) UpsertSlate(ctx context.Context, item season.Slate) (bool, error) {
	created, err := r.next.UpsertSlate(ctx, item)
	if err != nil {
		return false, err
	}
	r.cache.Delete(ctx, r.keys.key(ctx, slateListKey(item.SeasonID)))
	r.cache.Delete(ctx, r.keys.key(ctx, "slate:id:"+item.ID))
	return created, nil
}

type cachedSeason struct {
	value  season.Season
	exists bool
}

type cachedSlate struct {
	value  season.Slate
	exists bool
}

func slateListKey(seasonID string) string {
	return "slate:list:season:" + seasonID
}
