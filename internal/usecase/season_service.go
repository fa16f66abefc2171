package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/pickem/internal/domain/game"
	"github.com/riskibarqy/pickem/internal/domain/season"
	"github.com/riskibarqy/pickem/internal/platform/cache"
	"github.com/riskibarqy/pickem/internal/platform/logging"
)

// CurrentInvalidator drops memoised current season and slate state.
type CurrentInvalidator interface {
	Invalidate(ctx context.Context) error
}

// Current is the season in play and, when the schedule is loaded, its active slate.
type Current struct {
	Season   season.Season
	Slate    season.Slate
	HasSlate bool
}

type SeasonService struct {
	seasonRepo season.Repository
	gameRepo   game.Repository
	cache      *cache.Store
	generation cache.Generation
	policy     season.CurrentPolicy
	logger     *logging.Logger
	now        func() time.Time
}

func NewSeasonService(
	seasonRepo season.Repository,
	gameRepo game.Repository,
	store *cache.Store,
	generation cache.Generation,
	policy season.CurrentPolicy,
	logger *logging.Logger,
) *SeasonService {
	if logger == nil {
		logger = logging.Default()
	}
	if generation == nil {
		generation = cache.NewLocalGeneration()
	}
	if policy == "" {
		policy = season.PolicyEndNotPassed
	}

	return &SeasonService{
		seasonRepo: seasonRepo,
		gameRepo:   gameRepo,
		cache:      store,
		generation: generation,
		policy:     policy,
		logger:     logger,
		now:        time.Now,
	}
}

func (s *SeasonService) Current(ctx context.Context) (Current, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SeasonService.Current")
	defer span.End()

	if s.cache == nil {
		return s.loadCurrent(ctx)
	}

	gen, err := s.generation.Current(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "read current season cache generation failed, loading uncached", "error", err)
		return s.loadCurrent(ctx)
	}

	key := cache.GenerationKey(gen, "season:current:"+string(s.policy))
	value, err := s.cache.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		return s.loadCurrent(ctx)
	})
	if err != nil {
		return Current{}, err
	}
	out, ok := value.(Current)
	if !ok {
		return Current{}, fmt.Errorf("unexpected current season cache value %T", value)
	}
	return out, nil
}

func (s *SeasonService) CurrentSeason(ctx context.Context) (season.Season, error) {
	current, err := s.Current(ctx)
	if err != nil {
		return season.Season{}, err
	}
	return current.Season, nil
}

// Invalidate bumps the cache generation so every process reloads current state.
func (s *SeasonService) Invalidate(ctx context.Context) error {
	gen, err := s.generation.Bump(ctx)
	if err != nil {
		return fmt.Errorf("invalidate current season: %w", err)
	}
	if s.cache != nil {
		s.cache.DeletePrefix(ctx, cache.GenerationKey(gen-1, ""))
	}
	s.logger.InfoContext(ctx, "current season cache invalidated", "generation", gen)
	return nil
}

func (s *SeasonService) loadCurrent(ctx context.Context) (Current, error) {
	seasons, err := s.seasonRepo.List(ctx)
	if err != nil {
		return Current{}, fmt.Errorf("list seasons: %w", err)
	}

	now := s.now().UTC()
	selected, ok := season.SelectCurrent(seasons, now, s.policy)
	if !ok {
		return Current{}, fmt.Errorf("%w: no season configured", ErrNotFound)
	}

	slates, err := s.seasonRepo.ListSlates(ctx, selected.ID)
	if err != nil {
		return Current{}, fmt.Errorf("list slates for season=%s: %w", selected.ID, err)
	}
	slate, hasSlate := season.SelectCurrentSlate(slates, now)

	return Current{Season: selected, Slate: slate, HasSlate: hasSlate}, nil
}

func (s *SeasonService) GetSeason(ctx context.Context, seasonID string) (season.Season, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SeasonService.GetSeason")
	defer span.End()

	seasonID = strings.TrimSpace(seasonID)
	if seasonID == "" {
		return season.Season{}, fmt.Errorf("%w: season id is required", ErrInvalidInput)
	}
	item, exists, err := s.seasonRepo.GetByID(ctx, seasonID)
	if err != nil {
		return season.Season{}, fmt.Errorf("get season: %w", err)
	}
	if !exists {
		return season.Season{}, fmt.Errorf("%w: season=%s", ErrNotFound, seasonID)
	}
	return item, nil
}

func (s *SeasonService) ListSlates(ctx context.Context, seasonID string) ([]season.Slate, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SeasonService.ListSlates")
	defer span.End()

	if _, err := s.GetSeason(ctx, seasonID); err != nil {
		return nil, err
	}
	items, err := s.seasonRepo.ListSlates(ctx, strings.TrimSpace(seasonID))
	if err != nil {
		return nil, fmt.Errorf("list slates: %w", err)
	}
	return items, nil
}

func (s *SeasonService) GetSlate(ctx context.Context, seasonID string, ordinal int) (season.Slate, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SeasonService.GetSlate")
	defer span.End()

	seasonID = strings.TrimSpace(seasonID)
	if seasonID == "" || ordinal <= 0 {
		return season.Slate{}, fmt.Errorf("%w: season id and slate ordinal are required", ErrInvalidInput)
	}
	slateID := season.SlateKey(seasonID, ordinal)
	item, exists, err := s.seasonRepo.GetSlate(ctx, slateID)
	if err != nil {
		return season.Slate{}, fmt.Errorf("get slate: %w", err)
	}
	if !exists {
		return season.Slate{}, fmt.Errorf("%w: slate=%s", ErrNotFound, slateID)
	}
	return item, nil
}

func (s *SeasonService) ListGames(ctx context.Context, seasonID string, ordinal int) (season.Slate, []game.Game, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SeasonService.ListGames")
	defer span.End()

	slate, err := s.GetSlate(ctx, seasonID, ordinal)
	if err != nil {
		return season.Slate{}, nil, err
	}
	games, err := s.gameRepo.ListBySlate(ctx, slate.ID)
	if err != nil {
		return season.Slate{}, nil, fmt.Errorf("list games by slate: %w", err)
	}
	return slate, games, nil
}
