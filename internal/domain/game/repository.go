package game

import (
	"context"
	"time"
)

// Repository describes game persistence needs from use cases.
type Repository interface {
	GetByID(ctx context.Context, gameID string) (Game, bool, error)
	ListBySlate(ctx context.Context, slateID string) ([]Game, error)
	FindBySlateAndTeam(ctx context.Context, slateID, teamID string) (Game, bool, error)
	// FindByTeamsOnOrAfter returns the earliest game between home and away starting at or after since.
	FindByTeamsOnOrAfter(ctx context.Context, homeTeamID, awayTeamID string, since time.Time) (Game, bool, error)
	Upsert(ctx context.Context, item Game) (bool, error)
}
