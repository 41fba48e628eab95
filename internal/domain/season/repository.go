package season

import "context"

// Repository describes season persistence needs from use cases.
//
// Activate must deactivate every other season and activate the given one in a
// single atomic operation so the one-active-season invariant cannot be
// observed broken by a concurrent reader.
type Repository interface {
	List(ctx context.Context) ([]Season, error)
	GetByID(ctx context.Context, seasonID string) (Season, bool, error)
	GetActive(ctx context.Context) (Season, bool, error)
	Create(ctx context.Context, item Season) error
	Update(ctx context.Context, item Season) error
	Activate(ctx context.Context, seasonID string) error
}
