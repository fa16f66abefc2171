package pick

import (
	"context"
	"time"
)

// Repository describes pick persistence needs from use cases.
type Repository interface {
	Get(ctx context.Context, entryID, slateID string) (Pick, bool, error)
	ListByEntry(ctx context.Context, entryID string) ([]Pick, error)
	ListByPool(ctx context.Context, poolID string) ([]Pick, error)
	ListByGame(ctx context.Context, gameID string) ([]Pick, error)
	UpdateCorrect(ctx context.Context, entryID, slateID string, correct bool, evaluatedAt time.Time) error

	// RunInEntry runs fn in a transaction serialised on the entry key.
	RunInEntry(ctx context.Context, entryID string, fn func(ctx context.Context, tx Tx) error) error
}

// Tx is the pick view available inside an entry-scoped transaction.
type Tx interface {
	Get(ctx context.Context, slateID string) (Pick, bool, error)
	Put(ctx context.Context, item Pick) error
}
