package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/pickem/internal/domain/game"
	qb "github.com/riskibarqy/pickem/internal/platform/querybuilder"
)

type GameRepository struct {
	db *sqlx.DB
}

func NewGameRepository(db *sqlx.DB) *GameRepository {
	return &GameRepository{db: db}
}

func (r *GameRepository) GetByID(ctx context.Context, gameID string) (game.Game, bool, error) {
	query, args, err := qb.Select("*").From("games").
		Where(qb.Eq("id", gameID)).
		Limit(1).
		ToSQL()
	if err != nil {
		return game.Game{}, false, fmt.Errorf("build get game query: %w", err)
	}
	return r.getOne(ctx, query, args, "get game")
}

func (r *GameRepository) ListBySlate(ctx context.Context, slateID string) ([]game.Game, error) {
	query, args, err := qb.Select("*").From("games").
		Where(qb.Eq("slate_id", slateID)).
		OrderBy("start_at", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list games by slate query: %w", err)
	}

	var rows []gameTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list games by slate: %w", err)
	}

	out := make([]game.Game, 0, len(rows))
	for _, row := range rows {
		out = append(out, gameFromRow(row))
	}
	return out, nil
}

func (r *GameRepository) FindBySlateAndTeam(ctx context.Context, slateID, teamID string) (game.Game, bool, error) {
	query, args, err := qb.Select("*").From("games").
		Where(
			qb.Eq("slate_id", slateID),
			qb.Expr("(home_team_id = ? OR away_team_id = ?)", teamID, teamID),
		).
		OrderBy("start_at").
		Limit(1).
		ToSQL()
	if err != nil {
		return game.Game{}, false, fmt.Errorf("build find game by slate and team query: %w", err)
	}
	return r.getOne(ctx, query, args, "find game by slate and team")
}

func (r *GameRepository) FindByTeamsOnOrAfter(ctx context.Context, homeTeamID, awayTeamID string, since time.Time) (game.Game, bool, error) {
	query, args, err := qb.Select("*").From("games").
		Where(
			qb.Eq("home_team_id", homeTeamID),
			qb.Eq("away_team_id", awayTeamID),
			qb.Gte("start_at", since),
		).
		OrderBy("start_at").
		Limit(1).
		ToSQL()
	if err != nil {
		return game.Game{}, false, fmt.Errorf("build find game by teams query: %w", err)
	}
	return r.getOne(ctx, query, args, "find game by teams")
}

func (r *GameRepository) Upsert(ctx context.Context, item game.Game) (bool, error) {
	insertModel := gameTableModel{
		ID:         item.ID,
		SlateID:    item.SlateID,
		SeasonID:   item.SeasonID,
		HomeTeamID: item.HomeTeamID,
		AwayTeamID: item.AwayTeamID,
		HomeScore:  item.HomeScore,
		AwayScore:  item.AwayScore,
		Spread:     item.Spread,
		StartAt:    item.StartAt,
		Final:      item.Final,
		UpdatedAt:  item.UpdatedAt,
	}
	if insertModel.UpdatedAt.IsZero() {
		insertModel.UpdatedAt = time.Now().UTC()
	}

	query, args, err := qb.InsertModel("games", insertModel).
		OnConflict("id").
		UpdateExcluded("home_score", "away_score", "spread", "start_at").
		UpdateExpr("final", "games.final OR EXCLUDED.final").
		UpdateExcluded("updated_at").
		Returning("(xmax = 0) AS inserted").
		ToSQL()
	if err != nil {
		return false, fmt.Errorf("build game upsert query: %w", err)
	}

	var inserted bool
	if err := r.db.GetContext(ctx, &inserted, query, args...); err != nil {
		return false, fmt.Errorf("upsert game: %w", err)
	}
	return inserted, nil
}

func (r *GameRepository) getOne(ctx context.Context, query string, args []any, op string) (game.Game, bool, error) {
	var row gameTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return game.Game{}, false, nil
		}
		return game.Game{}, false, fmt.Errorf("%s: %w", op, err)
	}
	return gameFromRow(row), true, nil
}

func gameFromRow(row gameTableModel) game.Game {
	return game.Game{
		ID:         row.ID,
		SlateID:    row.SlateID,
		SeasonID:   row.SeasonID,
		HomeTeamID: row.HomeTeamID,
		AwayTeamID: row.AwayTeamID,
		HomeScore:  row.HomeScore,
		AwayScore:  row.AwayScore,
		Spread:     row.Spread,
		StartAt:    row.StartAt.UTC(),
		Final:      row.Final,
		UpdatedAt:  row.UpdatedAt.UTC(),
	}
}
