package pool

import "context"

// Repository describes pool and entry persistence needs from use cases.
type Repository interface {
	Create(ctx context.Context, item Pool) error
	Update(ctx context.Context, item Pool) error
	GetByID(ctx context.Context, poolID string) (Pool, bool, error)
	ListByAccount(ctx context.Context, accountID string) ([]Pool, error)
	ListBySeason(ctx context.Context, seasonID string) ([]Pool, error)

	ListEntries(ctx context.Context, poolID string) ([]Entry, error)
	GetEntry(ctx context.Context, poolID, entryID string) (Entry, bool, error)
	FindEntryByAccount(ctx context.Context, poolID, accountID string) (Entry, bool, error)
	UpdateEntry(ctx context.Context, item Entry) error

	// RunInPool runs fn in a transaction serialised on the pool key.
	RunInPool(ctx context.Context, poolID string, fn func(ctx context.Context, tx EntryTx) error) error
}

// EntryTx is the entry view available inside a pool-scoped transaction.
type EntryTx interface {
	FindEntryByAccount(ctx context.Context, accountID string) (Entry, bool, error)
	InsertEntry(ctx context.Context, item Entry) error
}
