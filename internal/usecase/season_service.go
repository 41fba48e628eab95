package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chapterpoints/chapter-scoring/internal/domain/season"
	"github.com/chapterpoints/chapter-scoring/internal/platform/id"
	"github.com/chapterpoints/chapter-scoring/internal/platform/logging"
)

// SeasonService manages competitive periods. Activation goes through the
// repository's atomic deactivate-all-then-activate-one path, keeping at most
// one season active no matter how requests interleave.
type SeasonService struct {
	seasonRepo season.Repository
	idGen      id.Generator
	logger     *logging.Logger
}

func NewSeasonService(seasonRepo season.Repository, idGen id.Generator, logger *logging.Logger) *SeasonService {
	if logger == nil {
		logger = logging.Default()
	}
	return &SeasonService{
		seasonRepo: seasonRepo,
		idGen:      idGen,
		logger:     logger,
	}
}

func (s *SeasonService) List(ctx context.Context) ([]season.Season, error) {
	ctx, span := startUsecaseSpan(ctx, "SeasonService.List")
	defer span.End()

	items, err := s.seasonRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list seasons: %w", err)
	}
	return items, nil
}

func (s *SeasonService) GetByID(ctx context.Context, seasonID string) (season.Season, error) {
	ctx, span := startUsecaseSpan(ctx, "SeasonService.GetByID")
	defer span.End()

	seasonID = strings.TrimSpace(seasonID)
	if seasonID == "" {
		return season.Season{}, fmt.Errorf("%w: season id is required", ErrInvalidInput)
	}

	item, exists, err := s.seasonRepo.GetByID(ctx, seasonID)
	if err != nil {
		return season.Season{}, fmt.Errorf("get season: %w", err)
	}
	if !exists {
		return season.Season{}, fmt.Errorf("%w: season=%s", ErrNotFound, seasonID)
	}

	return item, nil
}

// GetActive returns the currently active season, if any.
func (s *SeasonService) GetActive(ctx context.Context) (season.Season, bool, error) {
	ctx, span := startUsecaseSpan(ctx, "SeasonService.GetActive")
	defer span.End()

	item, exists, err := s.seasonRepo.GetActive(ctx)
	if err != nil {
		return season.Season{}, false, fmt.Errorf("get active season: %w", err)
	}

	return item, exists, nil
}

func (s *SeasonService) Create(ctx context.Context, item season.Season) (season.Season, error) {
	ctx, span := startUsecaseSpan(ctx, "SeasonService.Create")
	defer span.End()

	seasonID, err := s.idGen.NewID()
	if err != nil {
		return season.Season{}, fmt.Errorf("generate season id: %w", err)
	}
	item.ID = seasonID
	// New seasons start inactive; activation is an explicit step.
	item.IsActive = false
	if item.CurrentWeek == 0 {
		item.CurrentWeek = 1
	}
	now := time.Now()
	item.CreatedAt = now
	item.UpdatedAt = now

	if err := item.Validate(); err != nil {
		return season.Season{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := s.seasonRepo.Create(ctx, item); err != nil {
		return season.Season{}, fmt.Errorf("create season: %w", err)
	}

	s.logger.InfoContext(ctx, "season created", "season_id", item.ID, "name", item.Name)
	return item, nil
}

func (s *SeasonService) Update(ctx context.Context, item season.Season) (season.Season, error) {
	ctx, span := startUsecaseSpan(ctx, "SeasonService.Update")
	defer span.End()

	existing, err := s.GetByID(ctx, item.ID)
	if err != nil {
		return season.Season{}, err
	}

	// The active flag only moves through Activate.
	item.IsActive = existing.IsActive
	item.CreatedAt = existing.CreatedAt
	item.UpdatedAt = time.Now()
	if err := item.Validate(); err != nil {
		return season.Season{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	if err := s.seasonRepo.Update(ctx, item); err != nil {
		return season.Season{}, fmt.Errorf("update season: %w", err)
	}

	return item, nil
}

// Activate makes seasonID the single active season.
func (s *SeasonService) Activate(ctx context.Context, seasonID string) error {
	ctx, span := startUsecaseSpan(ctx, "SeasonService.Activate")
	defer span.End()

	if _, err := s.GetByID(ctx, seasonID); err != nil {
		return err
	}

	if err := s.seasonRepo.Activate(ctx, seasonID); err != nil {
		return fmt.Errorf("activate season: %w", err)
	}

	s.logger.InfoContext(ctx, "season activated", "season_id", seasonID)
	return nil
}
