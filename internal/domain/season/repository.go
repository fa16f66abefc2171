package season

import "context"

// Repository persists seasons and their slates. Upserts report whether a row was created.
type Repository interface {
	List(ctx context.Context) ([]Season, error)
	GetByID(ctx context.Context, seasonID string) (Season, bool, error)
	Upsert(ctx context.Context, item Season) (bool, error)

	ListSlates(ctx context.Context, seasonID string) ([]Slate, error)
	GetSlate(ctx context.Context, slateID string) (Slate, bool, error)
	UpsertSlate(ctx context.Context, item Slate) (bool, error)
}
