package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/chapterpoints/chapter-scoring/internal/domain/score"
	"github.com/chapterpoints/chapter-scoring/internal/domain/user"
	"github.com/chapterpoints/chapter-scoring/internal/infrastructure/repository/memory"
	"github.com/chapterpoints/chapter-scoring/internal/platform/id"
	"github.com/chapterpoints/chapter-scoring/internal/platform/logging"
)

var (
	adminCaller   = user.Principal{UserID: "user-admin", Name: "Avery Quinn", Role: user.RoleAdmin}
	redLeadCaller = user.Principal{UserID: "user-lead-red", Name: "Morgan Reyes", Role: user.RoleTeamLeader}
	memberCaller  = user.Principal{UserID: "user-m1", Name: "Sam Carter", Role: user.RoleMember}
)

func newScoreServiceFixture() (*ScoreService, *memory.ScoreRepository) {
	scores := memory.NewScoreRepository()
	svc := NewScoreService(
		scores,
		memory.NewSessionRepository(memory.SeedSessions()),
		memory.NewSeasonRepository(memory.SeedSeasons()),
		memory.NewSettingsRepositoryWith(memory.SeedSettings()),
		memory.NewUserRepository(memory.SeedUsers()),
		id.NewRandomGenerator(),
		logging.NewNop(),
	)
	return svc, scores
}

func TestScoreService_UpsertDerivesTotalAndKeepsIdentity(t *testing.T) {
	ctx := context.Background()
	svc, _ := newScoreServiceFixture()

	first, err := svc.Upsert(ctx, redLeadCaller, memory.SessionIDSpringWeek1, "user-m1", score.Metrics{
		score.MetricAttendance: 1,
		score.MetricReferrals:  2,
	})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if first.TotalPoints != 50+200 {
		t.Fatalf("total = %d, want 250", first.TotalPoints)
	}
	if !first.IsDraft {
		t.Fatal("new entry must start as draft")
	}
	if first.EnteredBy != redLeadCaller.UserID {
		t.Fatalf("entered by = %s", first.EnteredBy)
	}

	second, err := svc.Upsert(ctx, redLeadCaller, memory.SessionIDSpringWeek1, "user-m1", score.Metrics{
		score.MetricAttendance: 1,
	})
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("identity changed on rewrite: %s vs %s", second.ID, first.ID)
	}
	if second.TotalPoints != 50 {
		t.Fatalf("rewritten total = %d, want 50", second.TotalPoints)
	}

	got, err := svc.GetByUserSession(ctx, "user-m1", memory.SessionIDSpringWeek1)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.TotalPoints != 50 || got.Metrics.Get(score.MetricReferrals) != 0 {
		t.Fatalf("stored score = %+v", got)
	}
}

func TestScoreService_UpsertAuthorization(t *testing.T) {
	ctx := context.Background()
	svc, _ := newScoreServiceFixture()
	metrics := score.Metrics{score.MetricAttendance: 1}

	// A leader cannot score a member of another team.
	if _, err := svc.Upsert(ctx, redLeadCaller, memory.SessionIDSpringWeek1, "user-m3", metrics); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("cross-team entry err = %v, want ErrUnauthorized", err)
	}

	// Members cannot enter scores at all.
	if _, err := svc.Upsert(ctx, memberCaller, memory.SessionIDSpringWeek1, "user-m1", metrics); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("member entry err = %v, want ErrUnauthorized", err)
	}

	// Admins can score anyone.
	if _, err := svc.Upsert(ctx, adminCaller, memory.SessionIDSpringWeek1, "user-m3", metrics); err != nil {
		t.Fatalf("admin entry: %v", err)
	}
}

func TestScoreService_UpsertRejectsClosedSessionAndBadInput(t *testing.T) {
	ctx := context.Background()
	svc, _ := newScoreServiceFixture()
	metrics := score.Metrics{score.MetricAttendance: 1}

	if _, err := svc.Upsert(ctx, adminCaller, memory.SessionIDFallWeek6, "user-m1", metrics); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("closed session err = %v, want ErrInvalidInput", err)
	}
	if _, err := svc.Upsert(ctx, adminCaller, "missing", "user-m1", metrics); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing session err = %v, want ErrNotFound", err)
	}
	if _, err := svc.Upsert(ctx, adminCaller, memory.SessionIDSpringWeek1, "ghost", metrics); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing user err = %v, want ErrNotFound", err)
	}
	if _, err := svc.Upsert(ctx, adminCaller, memory.SessionIDSpringWeek1, "user-m1", score.Metrics{"golf": 1}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("unknown metric err = %v, want ErrInvalidInput", err)
	}
	if _, err := svc.Upsert(ctx, adminCaller, memory.SessionIDSpringWeek1, "user-m1", score.Metrics{score.MetricCEU: -1}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("negative metric err = %v, want ErrInvalidInput", err)
	}
}

func TestPublishService_PublishSessionFlipsDraftScores(t *testing.T) {
	ctx := context.Background()
	svc, scores := newScoreServiceFixture()
	publish := NewPublishService(scores, memory.NewSessionRepository(memory.SeedSessions()), memory.NewTeamRepository(memory.SeedTeams()), logging.NewNop())

	for _, userID := range []string{"user-m1", "user-m2"} {
		if _, err := svc.Upsert(ctx, redLeadCaller, memory.SessionIDSpringWeek1, userID, score.Metrics{score.MetricAttendance: 1}); err != nil {
			t.Fatalf("seed %s: %v", userID, err)
		}
	}

	if _, err := publish.PublishSession(ctx, redLeadCaller, memory.SessionIDSpringWeek1); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("leader publish err = %v, want ErrUnauthorized", err)
	}

	count, err := publish.PublishSession(ctx, adminCaller, memory.SessionIDSpringWeek1)
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if count != 2 {
		t.Fatalf("published = %d, want 2", count)
	}

	published, err := scores.ListBySession(ctx, memory.SessionIDSpringWeek1, true)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(published) != 2 {
		t.Fatalf("published rows = %d, want 2", len(published))
	}
	for _, sc := range published {
		if sc.IsDraft || sc.PublishedBy != adminCaller.UserID || sc.PublishedAt == nil {
			t.Fatalf("publish stamp missing: %+v", sc)
		}
	}

	// Re-publishing finds nothing left in draft.
	count, err = publish.PublishSession(ctx, adminCaller, memory.SessionIDSpringWeek1)
	if err != nil {
		t.Fatalf("second publish: %v", err)
	}
	if count != 0 {
		t.Fatalf("second publish count = %d, want 0", count)
	}
}

func TestPublishService_PublishUsersIsPartial(t *testing.T) {
	ctx := context.Background()
	svc, scores := newScoreServiceFixture()
	publish := NewPublishService(scores, memory.NewSessionRepository(memory.SeedSessions()), memory.NewTeamRepository(memory.SeedTeams()), logging.NewNop())

	for _, userID := range []string{"user-m1", "user-m2"} {
		if _, err := svc.Upsert(ctx, redLeadCaller, memory.SessionIDSpringWeek1, userID, score.Metrics{score.MetricAttendance: 1}); err != nil {
			t.Fatalf("seed %s: %v", userID, err)
		}
	}

	count, err := publish.PublishUsers(ctx, adminCaller, memory.SessionIDSpringWeek1, []string{"user-m1", "user-ghost"})
	if err != nil {
		t.Fatalf("publish users: %v", err)
	}
	if count != 1 {
		t.Fatalf("published = %d, want 1", count)
	}

	remaining, err := scores.ListBySession(ctx, memory.SessionIDSpringWeek1, false)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for _, sc := range remaining {
		wantDraft := sc.UserID == "user-m2"
		if sc.IsDraft != wantDraft {
			t.Fatalf("user %s draft = %v, want %v", sc.UserID, sc.IsDraft, wantDraft)
		}
	}

	if _, err := publish.PublishUsers(ctx, adminCaller, memory.SessionIDSpringWeek1, nil); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("empty user list err = %v, want ErrInvalidInput", err)
	}
}

func TestPublishService_PublishTeamCoversRosterOnly(t *testing.T) {
	ctx := context.Background()
	svc, scores := newScoreServiceFixture()
	publish := NewPublishService(scores, memory.NewSessionRepository(memory.SeedSessions()), memory.NewTeamRepository(memory.SeedTeams()), logging.NewNop())

	for _, entry := range []struct{ caller user.Principal; userID string }{
		{redLeadCaller, "user-m1"},
		{redLeadCaller, "user-m2"},
		{adminCaller, "user-m3"},
	} {
		if _, err := svc.Upsert(ctx, entry.caller, memory.SessionIDSpringWeek1, entry.userID, score.Metrics{score.MetricAttendance: 1}); err != nil {
			t.Fatalf("seed %s: %v", entry.userID, err)
		}
	}

	count, err := publish.PublishTeam(ctx, adminCaller, memory.SessionIDSpringWeek1, memory.TeamIDRed)
	if err != nil {
		t.Fatalf("publish team: %v", err)
	}
	if count != 2 {
		t.Fatalf("published = %d, want 2", count)
	}

	// The blue member stays in draft.
	remaining, err := scores.ListBySession(ctx, memory.SessionIDSpringWeek1, false)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for _, sc := range remaining {
		wantDraft := sc.UserID == "user-m3"
		if sc.IsDraft != wantDraft {
			t.Fatalf("user %s draft = %v, want %v", sc.UserID, sc.IsDraft, wantDraft)
		}
	}

	if _, err := publish.PublishTeam(ctx, adminCaller, memory.SessionIDSpringWeek1, "team-ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing team err = %v, want ErrNotFound", err)
	}
}
