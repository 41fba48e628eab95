package cache

import (
	"context"
	"testing"
	"time"

	"github.com/chapterpoints/chapter-scoring/internal/infrastructure/repository/memory"
	basecache "github.com/chapterpoints/chapter-scoring/internal/platform/cache"
)

func TestUserRepository_UpdateInvalidatesCachedReads(t *testing.T) {
	ctx := context.Background()
	store := basecache.NewStore(time.Minute)
	repo := NewUserRepository(memory.NewUserRepository(memory.SeedUsers()), store)

	before, ok, err := repo.GetByID(ctx, "user-m1")
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}

	before.Name = "Sam Carter Jr."
	if err := repo.Update(ctx, before); err != nil {
		t.Fatalf("update: %v", err)
	}

	after, ok, err := repo.GetByID(ctx, "user-m1")
	if err != nil || !ok {
		t.Fatalf("get after update: ok=%v err=%v", ok, err)
	}
	if after.Name != "Sam Carter Jr." {
		t.Fatalf("cached stale name %q", after.Name)
	}
}

func TestSeasonRepository_ActivateDropsActiveKey(t *testing.T) {
	ctx := context.Background()
	store := basecache.NewStore(time.Minute)
	repo := NewSeasonRepository(memory.NewSeasonRepository(memory.SeedSeasons()), store)

	active, ok, err := repo.GetActive(ctx)
	if err != nil || !ok {
		t.Fatalf("get active: ok=%v err=%v", ok, err)
	}
	if active.ID != memory.SeasonIDSpring2026 {
		t.Fatalf("active = %s", active.ID)
	}

	if err := repo.Activate(ctx, memory.SeasonIDFall2025); err != nil {
		t.Fatalf("activate: %v", err)
	}

	active, ok, err = repo.GetActive(ctx)
	if err != nil || !ok {
		t.Fatalf("get active after switch: ok=%v err=%v", ok, err)
	}
	if active.ID != memory.SeasonIDFall2025 {
		t.Fatalf("active after switch = %s, want fall", active.ID)
	}
}
