package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/pickem/internal/domain/season"
	qb "github.com/riskibarqy/pickem/internal/platform/querybuilder"
)

type SeasonRepository struct {
	db *sqlx.DB
}

func NewSeasonRepository(db *sqlx.DB) *SeasonRepository {
	return &SeasonRepository{db: db}
}

func (r *SeasonRepository) List(ctx context.Context) ([]season.Season, error) {
	query, args, err := qb.Select("*").From("seasons").
		OrderBy("start_date", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select seasons query: %w", err)
	}

	var rows []seasonTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select seasons: %w", err)
	}

	out := make([]season.Season, 0, len(rows))
	for _, row := range rows {
		out = append(out, seasonFromRow(row))
	}
	return out, nil
}

func (r *SeasonRepository) GetByID(ctx context.Context, seasonID string) (season.Season, bool, error) {
	query, args, err := qb.Select("*").From("seasons").
		Where(qb.Eq("id", seasonID)).
		Limit(1).
		ToSQL()
	if err != nil {
		return season.Season{}, false, fmt.Errorf("build get season query: %w", err)
	}

	var row seasonTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return season.Season{}, false, nil
		}
		return season.Season{}, false, fmt.Errorf("get season: %w", err)
	}
	return seasonFromRow(row), true, nil
}

func (r *SeasonRepository) Upsert(ctx context.Context, item season.Season) (bool, error) {
	insertModel := seasonInsertModel{
		ID:        item.ID,
		Name:      item.Name,
		StartDate: item.StartDate,
		EndDate:   item.EndDate,
	}

	query, args, err := qb.InsertModel("seasons", insertModel).
		OnConflict("id").
		UpdateExcluded("name", "start_date", "end_date").
		UpdateExpr("updated_at", "NOW()").
		Returning("(xmax = 0) AS inserted").
		ToSQL()
	if err != nil {
		return false, fmt.Errorf("build season upsert query: %w", err)
	}

	var inserted bool
	if err := r.db.GetContext(ctx, &inserted, query, args...); err != nil {
		return false, fmt.Errorf("upsert season: %w", err)
	}
	return inserted, nil
}

func (r *SeasonRepository) ListSlates(ctx context.Context, seasonID string) ([]season.Slate, error) {
	query, args, err := qb.Select("*").From("slates").
		Where(qb.Eq("season_id", seasonID)).
		OrderBy("ordinal").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select slates query: %w", err)
	}

	var rows []slateTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select slates: %w", err)
	}

	out := make([]season.Slate, 0, len(rows))
	for _, row := range rows {
		out = append(out, slateFromRow(row))
	}
	return out, nil
}

func (r *SeasonRepository) GetSlate(ctx context.Context, slateID string) (season.Slate, bool, error) {
	query, args, err := qb.Select("*").From("slates").
		Where(qb.Eq("id", slateID)).
		Limit(1).
		ToSQL()
	if err != nil {
		return season.Slate{}, false, fmt.Errorf("build get slate query: %w", err)
	}

	var row slateTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return season.Slate{}, false, nil
		}
		return season.Slate{}, false, fmt.Errorf("get slate: %w", err)
	}
	return slateFromRow(row), true, nil
}

func (r *SeasonRepository) UpsertSlate(ctx context.Context, item season.Slate) (bool, error) {
	if item.ID == "" {
		item.ID = season.SlateKey(item.SeasonID, item.Ordinal)
	}
	insertModel := slateInsertModel{
		ID:       item.ID,
		SeasonID: item.SeasonID,
		Ordinal:  item.Ordinal,
		Name:     item.Name,
		StartAt:  item.StartAt,
		EndAt:    item.EndAt,
	}

	query, args, err := qb.InsertModel("slates", insertModel).
		OnConflict("id").
		UpdateExcluded("name", "start_at", "end_at").
		UpdateExpr("updated_at", "NOW()").
		Returning("(xmax = 0) AS inserted").
		ToSQL()
	if err != nil {
		return false, fmt.Errorf("build slate upsert query: %w", err)
	}

	var inserted bool
	if err := r.db.GetContext(ctx, &inserted, query, args...); err != nil {
		return false, fmt.Errorf("upsert slate: %w", err)
	}
	return inserted, nil
}

func seasonFromRow(row seasonTableModel) season.Season {
	return season.Season{
		ID:        row.ID,
		Name:      row.Name,
		StartDate: row.StartDate.UTC(),
		EndDate:   row.EndDate.UTC(),
	}
}

func slateFromRow(row slateTableModel) season.Slate {
	return season.Slate{
		ID:       row.ID,
		SeasonID: row.SeasonID,
		Ordinal:  row.Ordinal,
		Name:     row.Name,
		StartAt:  row.StartAt.UTC(),
		EndAt:    row.EndAt.UTC(),
	}
}
