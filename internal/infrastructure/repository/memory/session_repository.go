package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/chapterpoints/chapter-scoring/internal/domain/session"
)

type SessionRepository struct {
	mu     sync.RWMutex
	items  map[string]session.Session
	orders []string
}

func NewSessionRepository(sessions []session.Session) *SessionRepository {
	items := make(map[string]session.Session, len(sessions))
	orders := make([]string, 0, len(sessions))

	for _, s := range sessions {
		items[s.ID] = s
		orders = append(orders, s.ID)
	}

	return &SessionRepository{
		items:  items,
		orders: orders,
	}
}

func (r *SessionRepository) ListBySeason(_ context.Context, seasonID string) ([]session.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]session.Session, 0, len(r.orders))
	for _, id := range r.orders {
		if s := r.items[id]; s.SeasonID == seasonID {
			out = append(out, s)
		}
	}

	return out, nil
}

func (r *SessionRepository) GetByID(_ context.Context, sessionID string) (session.Session, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.items[sessionID]
	if !ok {
		return session.Session{}, false, nil
	}

	return s, true, nil
}

func (r *SessionRepository) Create(_ context.Context, item session.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[item.ID]; exists {
		return fmt.Errorf("session %s already exists", item.ID)
	}
	r.items[item.ID] = item
	r.orders = append(r.orders, item.ID)

	return nil
}

func (r *SessionRepository) Update(_ context.Context, item session.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[item.ID]; !exists {
		return fmt.Errorf("session %s not found", item.ID)
	}
	r.items[item.ID] = item

	return nil
}
