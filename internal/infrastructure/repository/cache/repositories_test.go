package cache

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/riskibarqy/pickem/internal/domain/season"
	"github.com/riskibarqy/pickem/internal/domain/team"
	"github.com/riskibarqy/pickem/internal/infrastructure/repository/memory"
	basecache "github.com/riskibarqy/pickem/internal/platform/cache"
)

type countingTeamRepository struct {
	team.Repository
	gets atomic.Int32
}

func (r *countingTeamRepository) GetBySlug(ctx context.Context, slug string) (team.Team, bool, error) {
	r.gets.Add(1)
	return r.Repository.GetBySlug(ctx, slug)
}

type countingSeasonRepository struct {
	season.Repository
	lists atomic.Int32
}

func (r *countingSeasonRepository) ListSlates(ctx context.Context, seasonID string) ([]season.Slate, error) {
	r.lists.Add(1)
	return r.Repository.ListSlates(ctx, seasonID)
}

func TestTeamRepositoryCachesMissesAndDropsOnUpsert(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	next := &countingTeamRepository{Repository: memory.NewTeamRepository(nil)}
	repo := NewTeamRepository(next, basecache.NewStore(time.Minute), nil)

	for i := 0; i < 3; i++ {
		if _, exists, err := repo.GetBySlug(ctx, "kc"); err != nil || exists {
			t.Fatalf("expected cached miss, exists=%v err=%v", exists, err)
		}
	}
	if got := next.gets.Load(); got != 1 {
		t.Fatalf("expected one backend read, got=%d", got)
	}

	if _, err := repo.Upsert(ctx, team.Team{Slug: "kc", Place: "Kansas City", Name: "Chiefs"}); err != nil {
		t.Fatalf("upsert team: %v", err)
	}
	item, exists, err := repo.GetBySlug(ctx, "kc")
	if err != nil || !exists {
		t.Fatalf("expected team after upsert, exists=%v err=%v", exists, err)
	}
	if item.Name != "Chiefs" {
		t.Fatalf("unexpected team: %+v", item)
	}
	if got := next.gets.Load(); got != 2 {
		t.Fatalf("expected reload after upsert, got=%d", got)
	}
}

func TestSeasonRepositoryGenerationBumpOrphansSlates(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	backend := memory.NewSeasonRepository()
	next := &countingSeasonRepository{Repository: backend}
	generation := basecache.NewLocalGeneration()
	repo := NewSeasonRepository(next, basecache.NewStore(0), generation)

	start := time.Date(2011, time.September, 8, 0, 0, 0, 0, time.UTC)
	if _, err := backend.UpsertSlate(ctx, season.Slate{
		ID:       season.SlateKey("2011-2012", 1),
		SeasonID: "2011-2012",
		Ordinal:  1,
		Name:     "Week 1",
		StartAt:  start,
		EndAt:    start.Add(96 * time.Hour),
	}); err != nil {
		t.Fatalf("seed slate: %v", err)
	}

	for i := 0; i < 2; i++ {
		items, err := repo.ListSlates(ctx, "2011-2012")
		if err != nil || len(items) != 1 {
			t.Fatalf("list slates: items=%d err=%v", len(items), err)
		}
	}
	if got := next.lists.Load(); got != 1 {
		t.Fatalf("expected one backend list, got=%d", got)
	}

	// A write made by another process is only visible after the generation moves.
	if _, err := backend.UpsertSlate(ctx, season.Slate{
		ID:       season.SlateKey("2011-2012", 2),
		SeasonID: "2011-2012",
		Ordinal:  2,
		Name:     "Week 2",
		StartAt:  start.Add(7 * 24 * time.Hour),
		EndAt:    start.Add(11 * 24 * time.Hour),
	}); err != nil {
		t.Fatalf("seed second slate: %v", err)
	}
	if items, _ := repo.ListSlates(ctx, "2011-2012"); len(items) != 1 {
		t.Fatalf("expected stale cached list, got=%d", len(items))
	}

	if _, err := generation.Bump(ctx); err != nil {
		t.Fatalf("bump generation: %v", err)
	}
	items, err := repo.ListSlates(ctx, "2011-2012")
	if err != nil || len(items) != 2 {
		t.Fatalf("expected reload after bump: items=%d err=%v", len(items), err)
	}
}
