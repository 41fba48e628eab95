package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/chapterpoints/chapter-scoring/internal/domain/settings"
	"github.com/chapterpoints/chapter-scoring/internal/platform/logging"
)

// SettingsService manages the chapter-wide default scoring tables.
type SettingsService struct {
	settingsRepo settings.Repository
	logger       *logging.Logger
}

func NewSettingsService(settingsRepo settings.Repository, logger *logging.Logger) *SettingsService {
	if logger == nil {
		logger = logging.Default()
	}
	return &SettingsService{
		settingsRepo: settingsRepo,
		logger:       logger,
	}
}

func (s *SettingsService) Get(ctx context.Context) (settings.Settings, error) {
	ctx, span := startUsecaseSpan(ctx, "SettingsService.Get")
	defer span.End()

	item, exists, err := s.settingsRepo.Get(ctx)
	if err != nil {
		return settings.Settings{}, fmt.Errorf("get settings: %w", err)
	}
	if !exists {
		return settings.Settings{}, fmt.Errorf("%w: settings are not configured", ErrNotFound)
	}

	return item, nil
}

func (s *SettingsService) Upsert(ctx context.Context, item settings.Settings) (settings.Settings, error) {
	ctx, span := startUsecaseSpan(ctx, "SettingsService.Upsert")
	defer span.End()

	if err := item.Validate(); err != nil {
		return settings.Settings{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	item.UpdatedAt = time.Now()

	if err := s.settingsRepo.Upsert(ctx, item); err != nil {
		return settings.Settings{}, fmt.Errorf("upsert settings: %w", err)
	}

	s.logger.InfoContext(ctx, "scoring settings updated", "point_values", len(item.PointValues), "bonus_values", len(item.BonusValues))
	return item, nil
}
