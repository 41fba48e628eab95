package memory

import (
	"context"
	"sync"

	"github.com/chapterpoints/chapter-scoring/internal/domain/settings"
)

type SettingsRepository struct {
	mu     sync.RWMutex
	item   settings.Settings
	exists bool
}

func NewSettingsRepository() *SettingsRepository {
	return &SettingsRepository{}
}

func NewSettingsRepositoryWith(item settings.Settings) *SettingsRepository {
	return &SettingsRepository{item: item, exists: true}
}

func (r *SettingsRepository) Get(_ context.Context) (settings.Settings, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if !r.exists {
		return settings.Settings{}, false, nil
	}

	return r.item.Clone(), true, nil
}

func (r *SettingsRepository) Upsert(_ context.Context, item settings.Settings) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.item = item.Clone()
	r.exists = true

	return nil
}
