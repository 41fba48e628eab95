package memory

import (
	"context"
	"sync"
	"time"

	"github.com/chapterpoints/chapter-scoring/internal/domain/score"
)

type ScoreRepository struct {
	mu sync.RWMutex
	// items keys on sessionID + "/" + userID: at most one score per pair.
	items  map[string]score.Score
	orders []string
}

func NewScoreRepository() *ScoreRepository {
	return &ScoreRepository{items: make(map[string]score.Score)}
}

func scoreKey(sessionID, userID string) string {
	return sessionID + "/" + userID
}

func (r *ScoreRepository) ListBySession(_ context.Context, sessionID string, publishedOnly bool) ([]score.Score, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]score.Score, 0, len(r.orders))
	for _, key := range r.orders {
		s := r.items[key]
		if s.SessionID != sessionID {
			continue
		}
		if publishedOnly && s.IsDraft {
			continue
		}
		out = append(out, cloneScore(s))
	}

	return out, nil
}

func (r *ScoreRepository) ListBySessions(ctx context.Context, sessionIDs []string, publishedOnly bool) ([]score.Score, error) {
	wanted := make(map[string]struct{}, len(sessionIDs))
	for _, id := range sessionIDs {
		wanted[id] = struct{}{}
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]score.Score, 0, len(r.orders))
	for _, key := range r.orders {
		s := r.items[key]
		if _, ok := wanted[s.SessionID]; !ok {
			continue
		}
		if publishedOnly && s.IsDraft {
			continue
		}
		out = append(out, cloneScore(s))
	}

	return out, nil
}

func (r *ScoreRepository) GetByUserSession(_ context.Context, userID, sessionID string) (score.Score, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.items[scoreKey(sessionID, userID)]
	if !ok {
		return score.Score{}, false, nil
	}

	return cloneScore(s), true, nil
}

// Upsert replaces the metrics, total and draft flag of an existing score, or
// stores a new one. Identity fields survive the rewrite.
func (r *ScoreRepository) Upsert(_ context.Context, item score.Score) error {
	key := scoreKey(item.SessionID, item.UserID)

	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.items[key]
	if !ok {
		r.items[key] = cloneScore(item)
		r.orders = append(r.orders, key)
		return nil
	}

	existing.Metrics = item.Metrics.Clone()
	existing.TotalPoints = item.TotalPoints
	existing.IsDraft = item.IsDraft
	existing.EnteredBy = item.EnteredBy
	existing.UpdatedAt = item.UpdatedAt
	r.items[key] = existing

	return nil
}

func (r *ScoreRepository) PublishSession(_ context.Context, sessionID, publishedBy string, at time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	published := 0
	for key, s := range r.items {
		if s.SessionID != sessionID || !s.IsDraft {
			continue
		}
		s.IsDraft = false
		s.PublishedBy = publishedBy
		publishedAt := at
		s.PublishedAt = &publishedAt
		s.UpdatedAt = at
		r.items[key] = s
		published++
	}

	return published, nil
}

func (r *ScoreRepository) PublishUsers(_ context.Context, sessionID string, userIDs []string, publishedBy string, at time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	published := 0
	for _, userID := range userIDs {
		key := scoreKey(sessionID, userID)
		s, ok := r.items[key]
		if !ok || !s.IsDraft {
			continue
		}
		s.IsDraft = false
		s.PublishedBy = publishedBy
		publishedAt := at
		s.PublishedAt = &publishedAt
		s.UpdatedAt = at
		r.items[key] = s
		published++
	}

	return published, nil
}

func cloneScore(s score.Score) score.Score {
	s.Metrics = s.Metrics.Clone()
	if s.PublishedAt != nil {
		at := *s.PublishedAt
		s.PublishedAt = &at
	}
	return s
}
