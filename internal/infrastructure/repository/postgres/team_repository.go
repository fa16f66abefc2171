package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/pickem/internal/domain/team"
	qb "github.com/riskibarqy/pickem/internal/platform/querybuilder"
)

type TeamRepository struct {
	db *sqlx.DB
}

func NewTeamRepository(db *sqlx.DB) *TeamRepository {
	return &TeamRepository{db: db}
}

func (r *TeamRepository) List(ctx context.Context) ([]team.Team, error) {
	query, args, err := qb.Select("*").From("teams").
		OrderBy("slug").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select teams query: %w", err)
	}

	var rows []teamTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select teams: %w", err)
	}

	out := make([]team.Team, 0, len(rows))
	for _, row := range rows {
		out = append(out, teamFromRow(row))
	}
	return out, nil
}

func (r *TeamRepository) GetBySlug(ctx context.Context, slug string) (team.Team, bool, error) {
	query, args, err := qb.Select("*").From("teams").
		Where(qb.Eq("slug", slug)).
		Limit(1).
		ToSQL()
	if err != nil {
		return team.Team{}, false, fmt.Errorf("build get team query: %w", err)
	}

	var row teamTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return team.Team{}, false, nil
		}
		return team.Team{}, false, fmt.Errorf("get team: %w", err)
	}
	return teamFromRow(row), true, nil
}

func (r *TeamRepository) Upsert(ctx context.Context, item team.Team) (bool, error) {
	insertModel := teamInsertModel{
		Slug:  item.Slug,
		Place: item.Place,
		Name:  item.Name,
	}

	query, args, err := qb.InsertModel("teams", insertModel).
		OnConflict("slug").
		UpdateExcluded("place", "name").
		UpdateExpr("updated_at", "NOW()").
		Returning("(xmax = 0) AS inserted").
		ToSQL()
	if err != nil {
		return false, fmt.Errorf("build team upsert query: %w", err)
	}

	var inserted bool
	if err := r.db.GetContext(ctx, &inserted, query, args...); err != nil {
		return false, fmt.Errorf("upsert team: %w", err)
	}
	return inserted, nil
}

func teamFromRow(row teamTableModel) team.Team {
	return team.Team{
		Slug:  row.Slug,
		Place: row.Place,
		Name:  row.Name,
	}
}
