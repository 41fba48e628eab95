package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/mock"

	"github.com/chapterpoints/chapter-scoring/internal/domain/score"
	"github.com/chapterpoints/chapter-scoring/internal/domain/settings"
	"github.com/chapterpoints/chapter-scoring/internal/platform/logging"
)

type settingsRepoMock struct {
	mock.Mock
}

func (m *settingsRepoMock) Get(ctx context.Context) (settings.Settings, bool, error) {
	args := m.Called(ctx)
	return args.Get(0).(settings.Settings), args.Bool(1), args.Error(2)
}

func (m *settingsRepoMock) Upsert(ctx context.Context, item settings.Settings) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func TestSettingsService_GetPropagatesRepositoryFailure(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := new(settingsRepoMock)
	repoErr := errors.New("connection reset")
	repo.On("Get", mock.Anything).Return(settings.Settings{}, false, repoErr).Once()

	service := NewSettingsService(repo, logging.NewNop())

	_, err := service.Get(ctx)
	if !errors.Is(err, repoErr) {
		t.Fatalf("expected wrapped repo error, got %v", err)
	}
	repo.AssertExpectations(t)
}

func TestSettingsService_GetMissingIsNotFound(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := new(settingsRepoMock)
	repo.On("Get", mock.Anything).Return(settings.Settings{}, false, nil).Once()

	service := NewSettingsService(repo, logging.NewNop())

	_, err := service.Get(ctx)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	repo.AssertExpectations(t)
}

func TestSettingsService_UpsertValidatesBeforeWriting(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := new(settingsRepoMock)
	service := NewSettingsService(repo, logging.NewNop())

	// Negative point values never reach the repository.
	_, err := service.Upsert(ctx, settings.Settings{
		PointValues: settings.PointValues{score.MetricAttendance: -50},
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	repo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)

	repo.On("Upsert", mock.Anything, mock.MatchedBy(func(item settings.Settings) bool {
		return !item.UpdatedAt.IsZero()
	})).Return(nil).Once()

	updated, err := service.Upsert(ctx, settings.Settings{
		PointValues: settings.PointValues{score.MetricAttendance: 50},
		BonusValues: settings.BonusValues{score.MetricAttendance: 200},
	})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if updated.UpdatedAt.IsZero() {
		t.Fatal("upsert must stamp UpdatedAt")
	}
	repo.AssertExpectations(t)
}
