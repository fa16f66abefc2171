package account

import "context"

// Repository persists accounts. UpsertByExternalID is keyed by (provider, external id)
// and reports whether a new account was created.
type Repository interface {
	GetByID(ctx context.Context, accountID string) (Account, bool, error)
	GetByIDs(ctx context.Context, accountIDs []string) ([]Account, error)
	UpsertByExternalID(ctx context.Context, item Account) (Account, bool, error)
}
