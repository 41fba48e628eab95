// Package cache decorates repositories with TTL caching for the read-heavy
// lookups behind the public leaderboard. Writes pass through and invalidate
// the affected keys.
package cache

import (
	"context"

	"github.com/chapterpoints/chapter-scoring/internal/domain/season"
	"github.com/chapterpoints/chapter-scoring/internal/domain/settings"
	"github.com/chapterpoints/chapter-scoring/internal/domain/team"
	"github.com/chapterpoints/chapter-scoring/internal/domain/user"
	basecache "github.com/chapterpoints/chapter-scoring/internal/platform/cache"
)

type UserRepository struct {
	next  user.Repository
	cache *basecache.Store
}

func NewUserRepository(next user.Repository, cache *basecache.Store) *UserRepository {
	return &UserRepository{next: next, cache: cache}
}

func (r *UserRepository) List(ctx context.Context) ([]user.User, error) {
	v, err := r.cache.GetOrLoad(ctx, "user:list", func(ctx context.Context) (any, error) {
		items, err := r.next.List(ctx)
		if err != nil {
			return nil, err
		}
		return append([]user.User(nil), items...), nil
	})
	if err != nil {
		return nil, err
	}

	items, _ := v.([]user.User)
	return append([]user.User(nil), items...), nil
}

func (r *UserRepository) ListActive(ctx context.Context) ([]user.User, error) {
	v, err := r.cache.GetOrLoad(ctx, "user:list:active", func(ctx context.Context) (any, error) {
		items, err := r.next.ListActive(ctx)
		if err != nil {
			return nil, err
		}
		return append([]user.User(nil), items...), nil
	})
	if err != nil {
		return nil, err
	}

	items, _ := v.([]user.User)
	return append([]user.User(nil), items...), nil
}

func (r *UserRepository) GetByID(ctx context.Context, userID string) (user.User, bool, error) {
	key := "user:id:" + userID
	v, err := r.cache.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		item, exists, err := r.next.GetByID(ctx, userID)
		if err != nil {
			return nil, err
		}
		return cachedUserByID{value: item, exists: exists}, nil
	})
	if err != nil {
		return user.User{}, false, err
	}

	cached, _ := v.(cachedUserByID)
	return cached.value, cached.exists, nil
}

func (r *UserRepository) Create(ctx context.Context, item user.User) error {
	if err := r.next.Create(ctx, item); err != nil {
		return err
	}
	r.invalidate(ctx, item.ID)
	return nil
}

func (r *UserRepository) Update(ctx context.Context, item user.User) error {
	if err := r.next.Update(ctx, item); err != nil {
		return err
	}
	r.invalidate(ctx, item.ID)
	return nil
}

func (r *UserRepository) invalidate(ctx context.Context, userID string) {
	r.cache.InvalidatePrefix(ctx, "user:list")
	r.cache.Invalidate(ctx, "user:id:"+userID)
}

type cachedUserByID struct {
	value  user.User
	exists bool
}

type TeamRepository struct {
	next  team.Repository
	cache *basecache.Store
}

func NewTeamRepository(next team.Repository, cache *basecache.Store) *TeamRepository {
	return &TeamRepository{next: next, cache: cache}
}

func (r *TeamRepository) ListBySeason(ctx context.Context, seasonID string) ([]team.Team, error) {
	key := "team:list:" + seasonID
	v, err := r.cache.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		items, err := r.next.ListBySeason(ctx, seasonID)
		if err != nil {
			return nil, err
		}
		return append([]team.Team(nil), items...), nil
	})
	if err != nil {
		return nil, err
	}

	items, _ := v.([]team.Team)
	return append([]team.Team(nil), items...), nil
}

func (r *TeamRepository) GetByID(ctx context.Context, teamID string) (team.Team, bool, error) {
	key := "team:id:" + teamID
	v, err := r.cache.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		item, exists, err := r.next.GetByID(ctx, teamID)
		if err != nil {
			return nil, err
		}
		return cachedTeamByID{value: item, exists: exists}, nil
	})
	if err != nil {
		return team.Team{}, false, err
	}

	cached, _ := v.(cachedTeamByID)
	return cached.value, cached.exists, nil
}

func (r *TeamRepository) Create(ctx context.Context, item team.Team) error {
	if err := r.next.Create(ctx, item); err != nil {
		return err
	}
	r.invalidate(ctx, item)
	return nil
}

func (r *TeamRepository) Update(ctx context.Context, item team.Team) error {
	if err := r.next.Update(ctx, item); err != nil {
		return err
	}
	r.invalidate(ctx, item)
	return nil
}

func (r *TeamRepository) invalidate(ctx context.Context, item team.Team) {
	r.cache.Invalidate(ctx, "team:list:"+item.SeasonID)
	r.cache.Invalidate(ctx, "team:id:"+item.ID)
}

type cachedTeamByID struct {
	value  team.Team
	exists bool
}

type SeasonRepository struct {
	next  season.Repository
	cache *basecache.Store
}

func NewSeasonRepository(next season.Repository, cache *basecache.Store) *SeasonRepository {
	return &SeasonRepository{next: next, cache: cache}
}

func (r *SeasonRepository) List(ctx context.Context) ([]season.Season, error) {
	v, err := r.cache.GetOrLoad(ctx, "season:list", func(ctx context.Context) (any, error) {
		items, err := r.next.List(ctx)
		if err != nil {
			return nil, err
		}
		return append([]season.Season(nil), items...), nil
	})
	if err != nil {
		return nil, err
	}

	items, _ := v.([]season.Season)
	return append([]season.Season(nil), items...), nil
}

func (r *SeasonRepository) GetByID(ctx context.Context, seasonID string) (season.Season, bool, error) {
	key := "season:id:" + seasonID
	v, err := r.cache.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		item, exists, err := r.next.GetByID(ctx, seasonID)
		if err != nil {
			return nil, err
		}
		return cachedSeasonByID{value: item, exists: exists}, nil
	})
	if err != nil {
		return season.Season{}, false, err
	}

	cached, _ := v.(cachedSeasonByID)
	return cached.value, cached.exists, nil
}

func (r *SeasonRepository) GetActive(ctx context.Context) (season.Season, bool, error) {
	v, err := r.cache.GetOrLoad(ctx, "season:active", func(ctx context.Context) (any, error) {
		item, exists, err := r.next.GetActive(ctx)
		if err != nil {
			return nil, err
		}
		return cachedSeasonByID{value: item, exists: exists}, nil
	})
	if err != nil {
		return season.Season{}, false, err
	}

	cached, _ := v.(cachedSeasonByID)
	return cached.value, cached.exists, nil
}

func (r *SeasonRepository) Create(ctx context.Context, item season.Season) error {
	if err := r.next.Create(ctx, item); err != nil {
		return err
	}
	r.invalidate(ctx, item.ID)
	return nil
}

func (r *SeasonRepository) Update(ctx context.Context, item season.Season) error {
	if err := r.next.Update(ctx, item); err != nil {
		return err
	}
	r.invalidate(ctx, item.ID)
	return nil
}

// Activate invalidates every season key: the previously active season's
// cached copy is stale too.
func (r *SeasonRepository) Activate(ctx context.Context, seasonID string) error {
	if err := r.next.Activate(ctx, seasonID); err != nil {
		return err
	}
	r.cache.InvalidatePrefix(ctx, "season:")
	return nil
}

func (r *SeasonRepository) invalidate(ctx context.Context, seasonID string) {
	r.cache.Invalidate(ctx, "season:list")
	r.cache.Invalidate(ctx, "season:active")
	r.cache.Invalidate(ctx, "season:id:"+seasonID)
}

type cachedSeasonByID struct {
	value  season.Season
	exists bool
}

type SettingsRepository struct {
	next  settings.Repository
	cache *basecache.Store
}

func NewSettingsRepository(next settings.Repository, cache *basecache.Store) *SettingsRepository {
	return &SettingsRepository{next: next, cache: cache}
}

func (r *SettingsRepository) Get(ctx context.Context) (settings.Settings, bool, error) {
	v, err := r.cache.GetOrLoad(ctx, "settings:global", func(ctx context.Context) (any, error) {
		item, exists, err := r.next.Get(ctx)
		if err != nil {
			return nil, err
		}
		return cachedSettings{value: item, exists: exists}, nil
	})
	if err != nil {
		return settings.Settings{}, false, err
	}

	cached, _ := v.(cachedSettings)
	return cached.value, cached.exists, nil
}

func (r *SettingsRepository) Upsert(ctx context.Context, item settings.Settings) error {
	if err := r.next.Upsert(ctx, item); err != nil {
		return err
	}
	r.cache.Invalidate(ctx, "settings:global")
	return nil
}

type cachedSettings struct {
	value  settings.Settings
	exists bool
}
