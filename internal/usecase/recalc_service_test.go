package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/chapterpoints/chapter-scoring/internal/domain/score"
	"github.com/chapterpoints/chapter-scoring/internal/infrastructure/repository/memory"
	"github.com/chapterpoints/chapter-scoring/internal/platform/logging"
)

func newRecalcFixture() (*RecalcService, *memory.ScoreRepository) {
	scores := memory.NewScoreRepository()
	svc := NewRecalcService(
		scores,
		memory.NewSessionRepository(memory.SeedSessions()),
		memory.NewSeasonRepository(memory.SeedSeasons()),
		memory.NewSettingsRepositoryWith(memory.SeedSettings()),
		logging.NewNop(),
	)
	return svc, scores
}

func TestRecalcService_RepairsDriftedTotals(t *testing.T) {
	ctx := context.Background()
	svc, scores := newRecalcFixture()

	seed := []score.Score{
		{ID: "s1", UserID: "user-m1", SessionID: memory.SessionIDSpringWeek1, Metrics: score.Metrics{score.MetricReferrals: 2}, TotalPoints: 999},
		{ID: "s2", UserID: "user-m2", SessionID: memory.SessionIDSpringWeek1, Metrics: score.Metrics{score.MetricAttendance: 1}, TotalPoints: 50},
	}
	for _, sc := range seed {
		if err := scores.Upsert(ctx, sc); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	result, err := svc.Run(ctx, RecalcInput{SeasonID: memory.SeasonIDSpring2026})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Drifted != 1 || result.Updated != 1 || result.FailedCount != 0 {
		t.Fatalf("result = %+v", result)
	}

	fixed, _, _ := scores.GetByUserSession(ctx, "user-m1", memory.SessionIDSpringWeek1)
	if fixed.TotalPoints != 200 {
		t.Fatalf("repaired total = %d, want 200", fixed.TotalPoints)
	}
}

func TestRecalcService_DryRunCountsWithoutWriting(t *testing.T) {
	ctx := context.Background()
	svc, scores := newRecalcFixture()

	if err := scores.Upsert(ctx, score.Score{
		ID: "s1", UserID: "user-m1", SessionID: memory.SessionIDSpringWeek1,
		Metrics: score.Metrics{score.MetricVisitors: 1}, TotalPoints: 10,
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	result, err := svc.Run(ctx, RecalcInput{SeasonID: memory.SeasonIDSpring2026, DryRun: true})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Drifted != 1 || result.Updated != 0 {
		t.Fatalf("result = %+v", result)
	}

	kept, _, _ := scores.GetByUserSession(ctx, "user-m1", memory.SessionIDSpringWeek1)
	if kept.TotalPoints != 10 {
		t.Fatalf("dry run mutated total to %d", kept.TotalPoints)
	}
}

func TestRecalcService_SessionFilterValidation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newRecalcFixture()

	if _, err := svc.Run(ctx, RecalcInput{SeasonID: "missing"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing season err = %v, want ErrNotFound", err)
	}

	_, err := svc.Run(ctx, RecalcInput{
		SeasonID:   memory.SeasonIDSpring2026,
		SessionIDs: []string{memory.SessionIDFallWeek6},
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("foreign session err = %v, want ErrInvalidInput", err)
	}

	result, err := svc.Run(ctx, RecalcInput{
		SeasonID:   memory.SeasonIDSpring2026,
		SessionIDs: []string{memory.SessionIDSpringWeek1},
		MaxWorkers: 99,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.SessionCount != 1 || result.WorkerCount != 1 {
		t.Fatalf("result = %+v", result)
	}
}
