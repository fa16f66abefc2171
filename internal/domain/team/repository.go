package team

import "context"

// Repository describes team persistence needs from use cases.
type Repository interface {
	List(ctx context.Context) ([]Team, error)
	GetBySlug(ctx context.Context, slug string) (Team, bool, error)
	Upsert(ctx context.Context, team Team) (bool, error)
}
