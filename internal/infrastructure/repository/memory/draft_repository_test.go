package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/chapterpoints/chapter-scoring/internal/domain/draft"
)

func newTestDraft() draft.Draft {
	return draft.Draft{
		ID:       "draft-1",
		SeasonID: SeasonIDSpring2026,
		TeamLeaders: []draft.TeamLeaderSlot{
			{TeamID: TeamIDRed, UserID: "user-lead-red", DraftPosition: 1},
			{TeamID: TeamIDBlue, UserID: "user-lead-blue", DraftPosition: 2},
		},
		Status: draft.StatusInProgress,
	}
}

func TestDraftRepository_CreateRejectsSecondDraftForSeason(t *testing.T) {
	ctx := context.Background()
	repo := NewDraftRepository(nil, nil)

	if err := repo.Create(ctx, newTestDraft()); err != nil {
		t.Fatalf("first create: %v", err)
	}

	dup := newTestDraft()
	dup.ID = "draft-2"
	if err := repo.Create(ctx, dup); !errors.Is(err, draft.ErrDraftExists) {
		t.Fatalf("second create err = %v, want ErrDraftExists", err)
	}
}

func TestDraftRepository_AppendPickIsCompareAndSwap(t *testing.T) {
	ctx := context.Background()
	repo := NewDraftRepository(nil, nil)
	if err := repo.Create(ctx, newTestDraft()); err != nil {
		t.Fatalf("create: %v", err)
	}

	pick := draft.Pick{UserID: "user-m5", TeamID: TeamIDRed, Round: 1, PickNumber: 0, PickedAt: time.Now()}
	if err := repo.AppendPick(ctx, "draft-1", 0, pick); err != nil {
		t.Fatalf("first pick: %v", err)
	}

	// A second writer that read pick number 0 must lose.
	stale := draft.Pick{UserID: "user-m6", TeamID: TeamIDBlue, Round: 1, PickNumber: 0, PickedAt: time.Now()}
	if err := repo.AppendPick(ctx, "draft-1", 0, stale); !errors.Is(err, draft.ErrPickConflict) {
		t.Fatalf("stale pick err = %v, want ErrPickConflict", err)
	}

	d, ok, err := repo.GetByID(ctx, "draft-1")
	if err != nil || !ok {
		t.Fatalf("get draft: ok=%v err=%v", ok, err)
	}
	if d.CurrentPickNumber != 1 || len(d.Picks) != 1 {
		t.Fatalf("draft state after conflict: picks=%d counter=%d", len(d.Picks), d.CurrentPickNumber)
	}
}

func TestDraftRepository_FinalizeAssignsTeams(t *testing.T) {
	ctx := context.Background()
	users := NewUserRepository(SeedUsers())
	teams := NewTeamRepository(SeedTeams())
	repo := NewDraftRepository(users, teams)
	if err := repo.Create(ctx, newTestDraft()); err != nil {
		t.Fatalf("create: %v", err)
	}

	assignments := map[string]string{
		"user-m5": TeamIDRed,
		"user-m6": TeamIDBlue,
	}
	if err := repo.Finalize(ctx, "draft-1", assignments); err != nil {
		t.Fatalf("finalize: %v", err)
	}

	d, _, _ := repo.GetByID(ctx, "draft-1")
	if d.Status != draft.StatusCompleted {
		t.Fatalf("status = %s, want completed", d.Status)
	}

	u, ok, _ := users.GetByID(ctx, "user-m5")
	if !ok || u.TeamID != TeamIDRed {
		t.Fatalf("user-m5 team = %q, want %q", u.TeamID, TeamIDRed)
	}

	tm, _, _ := teams.GetByID(ctx, TeamIDRed)
	if !tm.HasMember("user-m5") {
		t.Fatal("user-m5 missing from red roster")
	}

	// Re-finalizing reapplies the same mappings without duplicating rosters.
	if err := repo.Finalize(ctx, "draft-1", assignments); err != nil {
		t.Fatalf("second finalize: %v", err)
	}
	tm, _, _ = teams.GetByID(ctx, TeamIDRed)
	count := 0
	for _, id := range tm.MemberIDs {
		if id == "user-m5" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("user-m5 appears %d times in roster", count)
	}
}
