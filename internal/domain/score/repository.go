package score

import (
	"context"
	"time"
)

// Repository describes score persistence needs from use cases.
//
// Upsert keys on (user, session): at most one score row exists per pair, and a
// second write replaces metrics and total only. Publish operations flip
// IsDraft to false and stamp the publisher; they never touch metrics.
type Repository interface {
	ListBySession(ctx context.Context, sessionID string, publishedOnly bool) ([]Score, error)
	ListBySessions(ctx context.Context, sessionIDs []string, publishedOnly bool) ([]Score, error)
	GetByUserSession(ctx context.Context, userID, sessionID string) (Score, bool, error)
	Upsert(ctx context.Context, item Score) error
	PublishSession(ctx context.Context, sessionID, publishedBy string, at time.Time) (int, error)
	PublishUsers(ctx context.Context, sessionID string, userIDs []string, publishedBy string, at time.Time) (int, error)
}
