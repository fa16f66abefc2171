package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/pickem/internal/domain/pool"
	qb "github.com/riskibarqy/pickem/internal/platform/querybuilder"
)

type PoolRepository struct {
	db *sqlx.DB
}

func NewPoolRepository(db *sqlx.DB) *PoolRepository {
	return &PoolRepository{db: db}
}

func (r *PoolRepository) Create(ctx context.Context, item pool.Pool) error {
	query, args, err := qb.InsertModel("pools", poolToRow(item)).ToSQL()
	if err != nil {
		return fmt.Errorf("build insert pool query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert pool: %w", err)
	}
	return nil
}

func (r *PoolRepository) Update(ctx context.Context, item pool.Pool) error {
	query, args, err := qb.Update("pools").
		Set("name", item.Name).
		Set("description", item.Description).
		Set("invite_only", item.InviteOnly).
		Set("entry_fee", item.EntryFee).
		Set("against_spread", item.AgainstSpread).
		Set("default_team_id", nullString(item.DefaultTeamID)).
		Set("email_updates", item.EmailUpdates).
		Set("updated_at", item.UpdatedAt).
		Where(qb.Eq("id", item.ID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update pool query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update pool: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected update pool: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("update pool: not found")
	}
	return nil
}

func (r *PoolRepository) GetByID(ctx context.Context, poolID string) (pool.Pool, bool, error) {
	query, args, err := qb.Select("*").From("pools").
		Where(qb.Eq("id", poolID)).
		Limit(1).
		ToSQL()
	if err != nil {
		return pool.Pool{}, false, fmt.Errorf("build get pool query: %w", err)
	}

	var row poolTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return pool.Pool{}, false, nil
		}
		return pool.Pool{}, false, fmt.Errorf("get pool: %w", err)
	}
	return poolFromRow(row), true, nil
}

func (r *PoolRepository) ListByAccount(ctx context.Context, accountID string) ([]pool.Pool, error) {
	query, args, err := qb.Select("*").From("pools").
		Where(qb.Expr("(manager_id = ? OR id IN (SELECT pool_id FROM pool_entries WHERE account_id = ?))", accountID, accountID)).
		OrderBy("created_at", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list pools by account query: %w", err)
	}
	return r.selectPools(ctx, query, args, "list pools by account")
}

func (r *PoolRepository) ListBySeason(ctx context.Context, seasonID string) ([]pool.Pool, error) {
	query, args, err := qb.Select("*").From("pools").
		Where(qb.Eq("season_id", seasonID)).
		OrderBy("created_at", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list pools by season query: %w", err)
	}
	return r.selectPools(ctx, query, args, "list pools by season")
}

func (r *PoolRepository) ListEntries(ctx context.Context, poolID string) ([]pool.Entry, error) {
	query, args, err := qb.Select("*").From("pool_entries").
		Where(qb.Eq("pool_id", poolID)).
		OrderBy("created_at", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list pool entries query: %w", err)
	}

	var rows []entryTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list pool entries: %w", err)
	}

	out := make([]pool.Entry, 0, len(rows))
	for _, row := range rows {
		out = append(out, entryFromRow(row))
	}
	return out, nil
}

func (r *PoolRepository) GetEntry(ctx context.Context, poolID, entryID string) (pool.Entry, bool, error) {
	query, args, err := qb.Select("*").From("pool_entries").
		Where(qb.Eq("pool_id", poolID), qb.Eq("id", entryID)).
		Limit(1).
		ToSQL()
	if err != nil {
		return pool.Entry{}, false, fmt.Errorf("build get pool entry query: %w", err)
	}
	return getEntry(ctx, r.db, query, args)
}

func (r *PoolRepository) FindEntryByAccount(ctx context.Context, poolID, accountID string) (pool.Entry, bool, error) {
	return findEntryByAccount(ctx, r.db, poolID, accountID)
}

func (r *PoolRepository) UpdateEntry(ctx context.Context, item pool.Entry) error {
	query, args, err := qb.Update("pool_entries").
		Set("active", item.Active).
		Set("paid", item.Paid).
		Set("updated_at", item.UpdatedAt).
		Where(qb.Eq("pool_id", item.PoolID), qb.Eq("id", item.ID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update pool entry query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update pool entry: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected update pool entry: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("update pool entry: not found")
	}
	return nil
}

// RunInPool locks the pool row for the lifetime of fn, so entry lookups and
// inserts for the same pool never interleave.
func (r *PoolRepository) RunInPool(ctx context.Context, poolID string, fn func(ctx context.Context, tx pool.EntryTx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx pool=%s: %w", poolID, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	lockQuery, lockArgs, err := qb.Select("id").From("pools").
		Where(qb.Eq("id", poolID)).
		ForUpdate().
		ToSQL()
	if err != nil {
		return fmt.Errorf("build lock pool query: %w", err)
	}
	var lockedID string
	if err := tx.GetContext(ctx, &lockedID, lockQuery, lockArgs...); err != nil {
		if isNotFound(err) {
			return fmt.Errorf("lock pool=%s: not found", poolID)
		}
		return fmt.Errorf("lock pool=%s: %w", poolID, err)
	}

	if err := fn(ctx, &poolTx{tx: tx, poolID: poolID}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit pool tx: %w", err)
	}
	return nil
}

func (r *PoolRepository) selectPools(ctx context.Context, query string, args []any, op string) ([]pool.Pool, error) {
	var rows []poolTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	out := make([]pool.Pool, 0, len(rows))
	for _, row := range rows {
		out = append(out, poolFromRow(row))
	}
	return out, nil
}

type poolTx struct {
	tx     *sqlx.Tx
	poolID string
}

func (t *poolTx) FindEntryByAccount(ctx context.Context, accountID string) (pool.Entry, bool, error) {
	return findEntryByAccount(ctx, t.tx, t.poolID, accountID)
}

func (t *poolTx) InsertEntry(ctx context.Context, item pool.Entry) error {
	if item.PoolID != t.poolID {
		return fmt.Errorf("insert entry: pool=%s outside transaction scope %s", item.PoolID, t.poolID)
	}

	query, args, err := qb.InsertModel("pool_entries", entryToRow(item)).ToSQL()
	if err != nil {
		return fmt.Errorf("build insert pool entry query: %w", err)
	}
	if _, err := t.tx.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("insert pool entry: account=%s already has an entry: %w", item.AccountID, err)
		}
		return fmt.Errorf("insert pool entry: %w", err)
	}
	return nil
}

func findEntryByAccount(ctx context.Context, q sqlx.QueryerContext, poolID, accountID string) (pool.Entry, bool, error) {
	query, args, err := qb.Select("*").From("pool_entries").
		Where(qb.Eq("pool_id", poolID), qb.Eq("account_id", accountID)).
		Limit(1).
		ToSQL()
	if err != nil {
		return pool.Entry{}, false, fmt.Errorf("build find entry by account query: %w", err)
	}
	return getEntry(ctx, q, query, args)
}

func getEntry(ctx context.Context, q sqlx.QueryerContext, query string, args []any) (pool.Entry, bool, error) {
	var row entryTableModel
	if err := sqlx.GetContext(ctx, q, &row, query, args...); err != nil {
		if isNotFound(err) {
			return pool.Entry{}, false, nil
		}
		return pool.Entry{}, false, fmt.Errorf("get pool entry: %w", err)
	}
	return entryFromRow(row), true, nil
}

func poolToRow(item pool.Pool) poolTableModel {
	return poolTableModel{
		ID:            item.ID,
		SeasonID:      item.SeasonID,
		ManagerID:     item.ManagerID,
		Name:          item.Name,
		Description:   item.Description,
		InviteOnly:    item.InviteOnly,
		EntryFee:      item.EntryFee,
		AgainstSpread: item.AgainstSpread,
		DefaultTeamID: nullString(item.DefaultTeamID),
		EmailUpdates:  item.EmailUpdates,
		CreatedAt:     item.CreatedAt,
		UpdatedAt:     item.UpdatedAt,
	}
}

func poolFromRow(row poolTableModel) pool.Pool {
	return pool.Pool{
		ID:            row.ID,
		SeasonID:      row.SeasonID,
		ManagerID:     row.ManagerID,
		Name:          row.Name,
		Description:   row.Description,
		InviteOnly:    row.InviteOnly,
		EntryFee:      row.EntryFee,
		AgainstSpread: row.AgainstSpread,
		DefaultTeamID: row.DefaultTeamID.String,
		EmailUpdates:  row.EmailUpdates,
		CreatedAt:     row.CreatedAt.UTC(),
		UpdatedAt:     row.UpdatedAt.UTC(),
	}
}

func entryToRow(item pool.Entry) entryTableModel {
	return entryTableModel{
		ID:        item.ID,
		PoolID:    item.PoolID,
		AccountID: item.AccountID,
		Active:    item.Active,
		Paid:      item.Paid,
		CreatedAt: item.CreatedAt,
		UpdatedAt: item.UpdatedAt,
	}
}

func entryFromRow(row entryTableModel) pool.Entry {
	return pool.Entry{
		ID:        row.ID,
		PoolID:    row.PoolID,
		AccountID: row.AccountID,
		Active:    row.Active,
		Paid:      row.Paid,
		CreatedAt: row.CreatedAt.UTC(),
		UpdatedAt: row.UpdatedAt.UTC(),
	}
}
