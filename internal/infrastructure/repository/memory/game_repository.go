package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/riskibarqy/pickem/internal/domain/game"
)

type GameRepository struct {
	mu    sync.RWMutex
	games map[string]game.Game
}

func NewGameRepository() *GameRepository {
	return &GameRepository{games: make(map[string]game.Game)}
}

func (r *GameRepository) GetByID(_ context.Context, gameID string) (game.Game, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.games[gameID]
	return item, ok, nil
}

func (r *GameRepository) ListBySlate(_ context.Context, slateID string) ([]game.Game, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]game.Game, 0)
	for _, item := range r.games {
		if item.SlateID == slateID {
			out = append(out, item)
		}
	}
	sortGames(out)
	return out, nil
}

func (r *GameRepository) FindBySlateAndTeam(_ context.Context, slateID, teamID string) (game.Game, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, item := range r.games {
		if item.SlateID == slateID && item.HasTeam(teamID) {
			return item, true, nil
		}
	}
	return game.Game{}, false, nil
}

func (r *GameRepository) FindByTeamsOnOrAfter(_ context.Context, homeTeamID, awayTeamID string, since time.Time) (game.Game, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var (
		found game.Game
		ok    bool
	)
	for _, item := range r.games {
		if item.HomeTeamID != homeTeamID || item.AwayTeamID != awayTeamID || item.StartAt.Before(since) {
			continue
		}
		if !ok || item.StartAt.Before(found.StartAt) {
			found = item
			ok = true
		}
	}
	return found, ok, nil
}

func (r *GameRepository) Upsert(_ context.Context, item game.Game) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if item.ID == "" {
		item.ID = game.Key(item.SlateID, item.AwayTeamID, item.HomeTeamID)
	}
	_, exists := r.games[item.ID]
	r.games[item.ID] = item
	return !exists, nil
}

func sortGames(items []game.Game) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].StartAt.Equal(items[j].StartAt) {
			return items[i].ID < items[j].ID
		}
		return items[i].StartAt.Before(items[j].StartAt)
	})
}
