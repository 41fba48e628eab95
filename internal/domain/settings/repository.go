package settings

import "context"

// Repository describes settings persistence needs from use cases.
type Repository interface {
	Get(ctx context.Context) (Settings, bool, error)
	Upsert(ctx context.Context, item Settings) error
}
