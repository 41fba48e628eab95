package usecase

import (
	"context"
	"testing"

	"github.com/chapterpoints/chapter-scoring/internal/domain/score"
	"github.com/chapterpoints/chapter-scoring/internal/infrastructure/repository/memory"
	"github.com/chapterpoints/chapter-scoring/internal/platform/broadcast"
	"github.com/chapterpoints/chapter-scoring/internal/platform/logging"
	"github.com/chapterpoints/chapter-scoring/internal/platform/reveal"
)

type leaderboardFixture struct {
	svc      *LeaderboardService
	scores   *memory.ScoreRepository
	settings *memory.SettingsRepository
	sessions *memory.SessionRepository
	gate     *reveal.Gate
	cleanup  func()
}

func newLeaderboardFixture(withSettings bool) leaderboardFixture {
	ch := broadcast.NewChannel()
	gate := reveal.NewGate(ch)

	settingsRepo := memory.NewSettingsRepository()
	if withSettings {
		settingsRepo = memory.NewSettingsRepositoryWith(memory.SeedSettings())
	}
	scores := memory.NewScoreRepository()
	sessions := memory.NewSessionRepository(memory.SeedSessions())

	svc := NewLeaderboardService(
		memory.NewUserRepository(memory.SeedUsers()),
		memory.NewTeamRepository(memory.SeedTeams()),
		scores,
		sessions,
		memory.NewSeasonRepository(memory.SeedSeasons()),
		settingsRepo,
		gate,
		logging.NewNop(),
	)

	return leaderboardFixture{
		svc:      svc,
		scores:   scores,
		settings: settingsRepo,
		sessions: sessions,
		gate:     gate,
		cleanup: func() {
			gate.Close()
			ch.Close()
		},
	}
}

func seedSpringScores(t *testing.T, scores *memory.ScoreRepository) {
	t.Helper()
	ctx := context.Background()
	seed := []score.Score{
		// Stored total deliberately drifted; 3 referrals are worth 300.
		{ID: "s1", UserID: "user-m1", SessionID: memory.SessionIDSpringWeek1, Metrics: score.Metrics{score.MetricReferrals: 3}, TotalPoints: 999},
		{ID: "s2", UserID: "user-m2", SessionID: memory.SessionIDSpringWeek1, Metrics: score.Metrics{score.MetricAttendance: 1}, TotalPoints: 50},
		{ID: "s3", UserID: "user-m3", SessionID: memory.SessionIDSpringWeek1, Metrics: score.Metrics{score.MetricAttendance: 1, score.MetricOne21s: 2}, TotalPoints: 150},
		// Score for a user who no longer exists; must be ignored.
		{ID: "s4", UserID: "user-gone", SessionID: memory.SessionIDSpringWeek1, Metrics: score.Metrics{score.MetricVisitors: 5}, TotalPoints: 750},
	}
	for _, sc := range seed {
		if err := scores.Upsert(ctx, sc); err != nil {
			t.Fatalf("seed score %s: %v", sc.ID, err)
		}
	}
}

func TestLeaderboardService_OnlyRevealedUsersRanked(t *testing.T) {
	ctx := context.Background()
	fx := newLeaderboardFixture(true)
	defer fx.cleanup()
	seedSpringScores(t, fx.scores)

	entries, err := fx.svc.Leaderboard(ctx, memory.SessionIDSpringWeek1, false)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("covered board has %d rows, want 0", len(entries))
	}

	fx.gate.RevealUser("user-m1")
	fx.gate.RevealUser("user-m3")

	entries, err = fx.svc.Leaderboard(ctx, memory.SessionIDSpringWeek1, false)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("rows = %d, want 2", len(entries))
	}

	// user-m1's drifted stored total (999) must be recomputed to 300.
	if entries[0].UserID != "user-m1" || entries[0].WeeklyPoints != 300 || entries[0].Position != 1 {
		t.Fatalf("first row = %+v", entries[0])
	}
	if entries[1].UserID != "user-m3" || entries[1].WeeklyPoints != 150 || entries[1].Position != 2 {
		t.Fatalf("second row = %+v", entries[1])
	}
}

func TestLeaderboardService_TiesSharePosition(t *testing.T) {
	ctx := context.Background()
	fx := newLeaderboardFixture(true)
	defer fx.cleanup()

	seed := []score.Score{
		{ID: "s1", UserID: "user-m1", SessionID: memory.SessionIDSpringWeek1, Metrics: score.Metrics{score.MetricAttendance: 1}, TotalPoints: 50},
		{ID: "s2", UserID: "user-m2", SessionID: memory.SessionIDSpringWeek1, Metrics: score.Metrics{score.MetricOne21s: 1}, TotalPoints: 50},
		{ID: "s3", UserID: "user-m3", SessionID: memory.SessionIDSpringWeek1, Metrics: score.Metrics{}, TotalPoints: 0},
	}
	for _, sc := range seed {
		if err := fx.scores.Upsert(ctx, sc); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	fx.gate.SetUsers([]string{"user-m1", "user-m2", "user-m3"})

	entries, err := fx.svc.Leaderboard(ctx, memory.SessionIDSpringWeek1, false)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("rows = %d, want 3", len(entries))
	}
	// Tied members share a position and order by ID for determinism.
	if entries[0].UserID != "user-m1" || entries[0].Position != 1 {
		t.Fatalf("row 0 = %+v", entries[0])
	}
	if entries[1].UserID != "user-m2" || entries[1].Position != 1 {
		t.Fatalf("row 1 = %+v", entries[1])
	}
	if entries[2].UserID != "user-m3" || entries[2].Position != 3 {
		t.Fatalf("row 2 = %+v", entries[2])
	}
}

func TestLeaderboardService_MissingSettingsYieldsEmptyResults(t *testing.T) {
	ctx := context.Background()
	fx := newLeaderboardFixture(false)
	defer fx.cleanup()
	seedSpringScores(t, fx.scores)
	fx.gate.SetUsers([]string{"user-m1", "user-m2", "user-m3"})

	entries, err := fx.svc.Leaderboard(ctx, memory.SessionIDSpringWeek1, false)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("unconfigured board rows = %d, want 0", len(entries))
	}

	standings, err := fx.svc.TeamStandings(ctx, memory.SessionIDSpringWeek1, false)
	if err != nil {
		t.Fatalf("standings: %v", err)
	}
	if len(standings) != 0 {
		t.Fatalf("unconfigured standings rows = %d, want 0", len(standings))
	}
}

func TestLeaderboardService_TeamStandingsWithholdBonusUntilRevealed(t *testing.T) {
	ctx := context.Background()
	fx := newLeaderboardFixture(true)
	defer fx.cleanup()

	// Every red member attends; blue misses one.
	seed := []score.Score{
		{ID: "s1", UserID: "user-lead-red", SessionID: memory.SessionIDSpringWeek1, Metrics: score.Metrics{score.MetricAttendance: 1}, TotalPoints: 50},
		{ID: "s2", UserID: "user-m1", SessionID: memory.SessionIDSpringWeek1, Metrics: score.Metrics{score.MetricAttendance: 1}, TotalPoints: 50},
		{ID: "s3", UserID: "user-m2", SessionID: memory.SessionIDSpringWeek1, Metrics: score.Metrics{score.MetricAttendance: 1}, TotalPoints: 50},
		{ID: "s4", UserID: "user-lead-blue", SessionID: memory.SessionIDSpringWeek1, Metrics: score.Metrics{score.MetricAttendance: 1, score.MetricReferrals: 2}, TotalPoints: 250},
		{ID: "s5", UserID: "user-m3", SessionID: memory.SessionIDSpringWeek1, Metrics: score.Metrics{score.MetricAttendance: 1}, TotalPoints: 50},
	}
	for _, sc := range seed {
		if err := fx.scores.Upsert(ctx, sc); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	fx.gate.SetUsers([]string{"user-lead-red", "user-m1", "user-m2", "user-lead-blue", "user-m3"})

	standings, err := fx.svc.TeamStandings(ctx, memory.SessionIDSpringWeek1, false)
	if err != nil {
		t.Fatalf("standings: %v", err)
	}
	if len(standings) != 2 {
		t.Fatalf("rows = %d, want 2", len(standings))
	}

	byTeam := map[string]int{}
	for i, row := range standings {
		byTeam[row.TeamID] = i
		if row.BonusPoints != 0 || len(row.EarnedCategories) != 0 {
			t.Fatalf("bonus leaked before reveal: %+v", row)
		}
	}

	// Reveal red's bonus: all three members attended, so attendance pays 200.
	fx.gate.RevealTeamBonus(memory.TeamIDRed)

	standings, err = fx.svc.TeamStandings(ctx, memory.SessionIDSpringWeek1, false)
	if err != nil {
		t.Fatalf("standings: %v", err)
	}
	for _, row := range standings {
		switch row.TeamID {
		case memory.TeamIDRed:
			if row.BonusPoints != 200 {
				t.Fatalf("red bonus = %d, want 200", row.BonusPoints)
			}
			if len(row.EarnedCategories) != 1 || row.EarnedCategories[0] != score.MetricAttendance {
				t.Fatalf("red categories = %v", row.EarnedCategories)
			}
			if row.WeeklyPoints != 150 {
				t.Fatalf("red weekly = %d, want 150", row.WeeklyPoints)
			}
		case memory.TeamIDBlue:
			// Blue's missing member (user-m4 unrevealed does not matter for
			// bonus; user-m4 has no score) blocks the all-in check even if
			// its bonus row were revealed.
			if row.WeeklyPoints != 300 {
				t.Fatalf("blue weekly = %d, want 300", row.WeeklyPoints)
			}
		}
	}

	// Red: 150 + 200 = 350 beats blue's 300.
	if standings[0].TeamID != memory.TeamIDRed || standings[0].Position != 1 {
		t.Fatalf("first standing = %+v", standings[0])
	}
}

func TestLeaderboardService_ExcludedMemberSkipsBonusDenominator(t *testing.T) {
	ctx := context.Background()
	fx := newLeaderboardFixture(true)
	defer fx.cleanup()

	// user-m2 is excluded this week, so red's all-in check covers only the
	// leader and user-m1.
	sess, _, _ := fx.sessions.GetByID(ctx, memory.SessionIDSpringWeek1)
	sess.ExcludedUserIDs = []string{"user-m2"}
	sess.TeamCustomBonuses = map[string]int{memory.TeamIDRed: 25}
	if err := fx.sessions.Update(ctx, sess); err != nil {
		t.Fatalf("update session: %v", err)
	}

	seed := []score.Score{
		{ID: "s1", UserID: "user-lead-red", SessionID: memory.SessionIDSpringWeek1, Metrics: score.Metrics{score.MetricAttendance: 1}, TotalPoints: 50},
		{ID: "s2", UserID: "user-m1", SessionID: memory.SessionIDSpringWeek1, Metrics: score.Metrics{score.MetricAttendance: 1}, TotalPoints: 50},
	}
	for _, sc := range seed {
		if err := fx.scores.Upsert(ctx, sc); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	fx.gate.SetUsers([]string{"user-lead-red", "user-m1"})
	fx.gate.RevealTeamBonus(memory.TeamIDRed)

	standings, err := fx.svc.TeamStandings(ctx, memory.SessionIDSpringWeek1, false)
	if err != nil {
		t.Fatalf("standings: %v", err)
	}
	for _, row := range standings {
		if row.TeamID != memory.TeamIDRed {
			continue
		}
		// Attendance bonus 200 despite user-m2 missing, plus the 25 custom award.
		if row.BonusPoints != 225 {
			t.Fatalf("red bonus = %d, want 225", row.BonusPoints)
		}
	}
}

func TestLeaderboardService_PublishedOnlyFiltersDraftScores(t *testing.T) {
	ctx := context.Background()
	fx := newLeaderboardFixture(true)
	defer fx.cleanup()

	seed := []score.Score{
		{ID: "s1", UserID: "user-m1", SessionID: memory.SessionIDSpringWeek1, Metrics: score.Metrics{score.MetricReferrals: 1}, TotalPoints: 100, IsDraft: true},
		{ID: "s2", UserID: "user-m2", SessionID: memory.SessionIDSpringWeek1, Metrics: score.Metrics{score.MetricAttendance: 1}, TotalPoints: 50, IsDraft: false},
	}
	for _, sc := range seed {
		if err := fx.scores.Upsert(ctx, sc); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	fx.gate.SetUsers([]string{"user-m1", "user-m2"})

	entries, err := fx.svc.Leaderboard(ctx, memory.SessionIDSpringWeek1, true)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	points := map[string]int{}
	for _, e := range entries {
		points[e.UserID] = e.WeeklyPoints
	}
	if points["user-m1"] != 0 {
		t.Fatalf("draft score counted in published view: %v", points)
	}
	if points["user-m2"] != 50 {
		t.Fatalf("published score = %d, want 50", points["user-m2"])
	}
}
