package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/pickem/internal/domain/account"
	qb "github.com/riskibarqy/pickem/internal/platform/querybuilder"
)

type AccountRepository struct {
	db *sqlx.DB
}

func NewAccountRepository(db *sqlx.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) GetByID(ctx context.Context, accountID string) (account.Account, bool, error) {
	query, args, err := qb.Select("*").From("accounts").
		Where(qb.Eq("id", accountID)).
		Limit(1).
		ToSQL()
	if err != nil {
		return account.Account{}, false, fmt.Errorf("build get account query: %w", err)
	}

	var row accountTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return account.Account{}, false, nil
		}
		return account.Account{}, false, fmt.Errorf("get account: %w", err)
	}
	return accountFromRow(row), true, nil
}

func (r *AccountRepository) GetByIDs(ctx context.Context, accountIDs []string) ([]account.Account, error) {
	if len(accountIDs) == 0 {
		return nil, nil
	}

	ids := make([]any, 0, len(accountIDs))
	for _, id := range accountIDs {
		ids = append(ids, id)
	}
	query, args, err := qb.Select("*").From("accounts").
		Where(qb.In("id", ids)).
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select accounts query: %w", err)
	}

	var rows []accountTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select accounts: %w", err)
	}

	out := make([]account.Account, 0, len(rows))
	for _, row := range rows {
		out = append(out, accountFromRow(row))
	}
	return out, nil
}

// UpsertByExternalID keeps the stored id and created_at when the provider identity exists.
func (r *AccountRepository) UpsertByExternalID(ctx context.Context, item account.Account) (account.Account, bool, error) {
	insertModel := accountTableModel{
		ID:          item.ID,
		Email:       item.Email,
		FirstName:   item.FirstName,
		LastName:    item.LastName,
		Provider:    item.Provider,
		ExternalID:  item.ExternalID,
		AccessToken: item.AccessToken,
		CreatedAt:   item.CreatedAt,
		UpdatedAt:   item.UpdatedAt,
	}

	query, args, err := qb.InsertModel("accounts", insertModel).
		OnConflict("provider", "external_id").
		UpdateExcluded("email", "first_name", "last_name", "access_token", "updated_at").
		Returning("*", "(xmax = 0) AS inserted").
		ToSQL()
	if err != nil {
		return account.Account{}, false, fmt.Errorf("build account upsert query: %w", err)
	}

	var row struct {
		accountTableModel
		Inserted bool `db:"inserted"`
	}
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		return account.Account{}, false, fmt.Errorf("upsert account: %w", err)
	}
	return accountFromRow(row.accountTableModel), row.Inserted, nil
}

func accountFromRow(row accountTableModel) account.Account {
	return account.Account{
		ID:          row.ID,
		Email:       row.Email,
		FirstName:   row.FirstName,
		LastName:    row.LastName,
		Provider:    row.Provider,
		ExternalID:  row.ExternalID,
		AccessToken: row.AccessToken,
		CreatedAt:   row.CreatedAt.UTC(),
		UpdatedAt:   row.UpdatedAt.UTC(),
	}
}
