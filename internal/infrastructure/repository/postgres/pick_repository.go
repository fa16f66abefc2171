package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/pickem/internal/domain/pick"
	qb "github.com/riskibarqy/pickem/internal/platform/querybuilder"
)

type PickRepository struct {
	db *sqlx.DB
}

func NewPickRepository(db *sqlx.DB) *PickRepository {
	return &PickRepository{db: db}
}

func (r *PickRepository) Get(ctx context.Context, entryID, slateID string) (pick.Pick, bool, error) {
	return getPick(ctx, r.db, entryID, slateID)
}

func (r *PickRepository) ListByEntry(ctx context.Context, entryID string) ([]pick.Pick, error) {
	return r.list(ctx, qb.Eq("entry_id", entryID), "list picks by entry")
}

func (r *PickRepository) ListByPool(ctx context.Context, poolID string) ([]pick.Pick, error) {
	return r.list(ctx, qb.Eq("pool_id", poolID), "list picks by pool")
}

func (r *PickRepository) ListByGame(ctx context.Context, gameID string) ([]pick.Pick, error) {
	return r.list(ctx, qb.Eq("game_id", gameID), "list picks by game")
}

func (r *PickRepository) UpdateCorrect(ctx context.Context, entryID, slateID string, correct bool, evaluatedAt time.Time) error {
	query, args, err := qb.Update("picks").
		Set("correct", correct).
		Set("evaluated_at", evaluatedAt).
		Where(qb.Eq("entry_id", entryID), qb.Eq("slate_id", slateID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update pick outcome query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update pick outcome: %w", err)
	}
	return nil
}

// RunInEntry locks the entry row so concurrent submissions for one entry apply in order.
func (r *PickRepository) RunInEntry(ctx context.Context, entryID string, fn func(ctx context.Context, tx pick.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx entry=%s: %w", entryID, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	lockQuery, lockArgs, err := qb.Select("id").From("pool_entries").
		Where(qb.Eq("id", entryID)).
		ForUpdate().
		ToSQL()
	if err != nil {
		return fmt.Errorf("build lock entry query: %w", err)
	}
	var lockedID string
	if err := tx.GetContext(ctx, &lockedID, lockQuery, lockArgs...); err != nil {
		if isNotFound(err) {
			return fmt.Errorf("lock entry=%s: not found", entryID)
		}
		return fmt.Errorf("lock entry=%s: %w", entryID, err)
	}

	if err := fn(ctx, &pickTx{tx: tx, entryID: entryID}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit entry tx: %w", err)
	}
	return nil
}

func (r *PickRepository) list(ctx context.Context, cond qb.Condition, op string) ([]pick.Pick, error) {
	query, args, err := qb.Select("*").From("picks").
		Where(cond).
		OrderBy("slate_id", "entry_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build %s query: %w", op, err)
	}

	var rows []pickTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	out := make([]pick.Pick, 0, len(rows))
	for _, row := range rows {
		out = append(out, pickFromRow(row))
	}
	return out, nil
}

type pickTx struct {
	tx      *sqlx.Tx
	entryID string
}

func (t *pickTx) Get(ctx context.Context, slateID string) (pick.Pick, bool, error) {
	return getPick(ctx, t.tx, t.entryID, slateID)
}

// Put writes the pick for its slate, replacing the previous choice and its outcome.
func (t *pickTx) Put(ctx context.Context, item pick.Pick) error {
	if item.EntryID != t.entryID {
		return fmt.Errorf("put pick: entry=%s outside transaction scope %s", item.EntryID, t.entryID)
	}

	query, args, err := qb.InsertModel("picks", pickToRow(item)).
		OnConflict("entry_id", "slate_id").
		UpdateExcluded("pool_id", "game_id", "team_id", "correct", "submitted_at", "evaluated_at").
		ToSQL()
	if err != nil {
		return fmt.Errorf("build pick upsert query: %w", err)
	}
	if _, err := t.tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert pick: %w", err)
	}
	return nil
}

func getPick(ctx context.Context, q sqlx.QueryerContext, entryID, slateID string) (pick.Pick, bool, error) {
	query, args, err := qb.Select("*").From("picks").
		Where(qb.Eq("entry_id", entryID), qb.Eq("slate_id", slateID)).
		Limit(1).
		ToSQL()
	if err != nil {
		return pick.Pick{}, false, fmt.Errorf("build get pick query: %w", err)
	}

	var row pickTableModel
	if err := sqlx.GetContext(ctx, q, &row, query, args...); err != nil {
		if isNotFound(err) {
			return pick.Pick{}, false, nil
		}
		return pick.Pick{}, false, fmt.Errorf("get pick: %w", err)
	}
	return pickFromRow(row), true, nil
}

func pickToRow(item pick.Pick) pickTableModel {
	return pickTableModel{
		EntryID:     item.EntryID,
		SlateID:     item.SlateID,
		PoolID:      item.PoolID,
		GameID:      item.GameID,
		TeamID:      item.TeamID,
		Correct:     nullBool(item.Correct),
		SubmittedAt: item.SubmittedAt,
		EvaluatedAt: nullTime(item.EvaluatedAt),
	}
}

func pickFromRow(row pickTableModel) pick.Pick {
	return pick.Pick{
		EntryID:     row.EntryID,
		SlateID:     row.SlateID,
		PoolID:      row.PoolID,
		GameID:      row.GameID,
		TeamID:      row.TeamID,
		Correct:     boolPtr(row.Correct),
		SubmittedAt: row.SubmittedAt.UTC(),
		EvaluatedAt: timePtr(row.EvaluatedAt),
	}
}
