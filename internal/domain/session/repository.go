package session

import "context"

// Repository describes session persistence needs from use cases.
type Repository interface {
	ListBySeason(ctx context.Context, seasonID string) ([]Session, error)
	GetByID(ctx context.Context, sessionID string) (Session, bool, error)
	Create(ctx context.Context, item Session) error
	Update(ctx context.Context, item Session) error
}
