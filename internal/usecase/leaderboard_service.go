package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/sourcegraph/conc/pool"

	"github.com/chapterpoints/chapter-scoring/internal/domain/score"
	"github.com/chapterpoints/chapter-scoring/internal/domain/season"
	"github.com/chapterpoints/chapter-scoring/internal/domain/session"
	"github.com/chapterpoints/chapter-scoring/internal/domain/settings"
	"github.com/chapterpoints/chapter-scoring/internal/domain/standing"
	"github.com/chapterpoints/chapter-scoring/internal/domain/team"
	"github.com/chapterpoints/chapter-scoring/internal/domain/user"
	"github.com/chapterpoints/chapter-scoring/internal/platform/logging"
	"github.com/chapterpoints/chapter-scoring/internal/platform/reveal"
)

// LeaderboardService assembles the live individual leaderboard and team
// standings for one session. Weekly totals are always recomputed from raw
// metrics; the reveal gate decides which rows the public display may see.
type LeaderboardService struct {
	userRepo     user.Repository
	teamRepo     team.Repository
	scoreRepo    score.Repository
	sessionRepo  session.Repository
	seasonRepo   season.Repository
	settingsRepo settings.Repository
	gate         *reveal.Gate
	logger       *logging.Logger
}

func NewLeaderboardService(
	userRepo user.Repository,
	teamRepo team.Repository,
	scoreRepo score.Repository,
	sessionRepo session.Repository,
	seasonRepo season.Repository,
	settingsRepo settings.Repository,
	gate *reveal.Gate,
	logger *logging.Logger,
) *LeaderboardService {
	if logger == nil {
		logger = logging.Default()
	}
	return &LeaderboardService{
		userRepo:     userRepo,
		teamRepo:     teamRepo,
		scoreRepo:    scoreRepo,
		sessionRepo:  sessionRepo,
		seasonRepo:   seasonRepo,
		settingsRepo: settingsRepo,
		gate:         gate,
		logger:       logger,
	}
}

// sessionInputs is one consistent snapshot of everything a leaderboard or
// standings computation needs.
type sessionInputs struct {
	session     session.Session
	season      season.Season
	users       []user.User
	teams       []team.Team
	scores      []score.Score
	pointValues map[string]int
	bonusValues map[string]int
	configured  bool
}

func (s *LeaderboardService) loadInputs(ctx context.Context, sessionID string, usePublished bool) (sessionInputs, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return sessionInputs{}, fmt.Errorf("%w: session id is required", ErrInvalidInput)
	}

	sess, exists, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return sessionInputs{}, fmt.Errorf("get session: %w", err)
	}
	if !exists {
		return sessionInputs{}, fmt.Errorf("%w: session=%s", ErrNotFound, sessionID)
	}

	in := sessionInputs{session: sess}

	p := pool.New().WithContext(ctx).WithCancelOnError().WithFirstError()
	p.Go(func(ctx context.Context) error {
		seas, ok, err := s.seasonRepo.GetByID(ctx, sess.SeasonID)
		if err != nil {
			return fmt.Errorf("get season: %w", err)
		}
		if !ok {
			return fmt.Errorf("%w: season=%s", ErrNotFound, sess.SeasonID)
		}
		in.season = seas
		return nil
	})
	p.Go(func(ctx context.Context) error {
		users, err := s.userRepo.ListActive(ctx)
		if err != nil {
			return fmt.Errorf("list active users: %w", err)
		}
		in.users = users
		return nil
	})
	p.Go(func(ctx context.Context) error {
		teams, err := s.teamRepo.ListBySeason(ctx, sess.SeasonID)
		if err != nil {
			return fmt.Errorf("list teams: %w", err)
		}
		in.teams = teams
		return nil
	})
	p.Go(func(ctx context.Context) error {
		scores, err := s.scoreRepo.ListBySession(ctx, sessionID, usePublished)
		if err != nil {
			return fmt.Errorf("list scores: %w", err)
		}
		in.scores = scores
		return nil
	})

	var (
		global       settings.Settings
		globalExists bool
	)
	p.Go(func(ctx context.Context) error {
		st, ok, err := s.settingsRepo.Get(ctx)
		if err != nil {
			return fmt.Errorf("get settings: %w", err)
		}
		global, globalExists = st, ok
		return nil
	})

	if err := p.Wait(); err != nil {
		return sessionInputs{}, err
	}

	in.pointValues, in.bonusValues, in.configured = resolveValueTables(in.season, global, globalExists)
	return in, nil
}

// resolveValueTables prefers season-scoped tables and falls back to the
// global settings document. With neither available the computation is not
// configured and callers must report empty results instead of guessing.
func resolveValueTables(seas season.Season, global settings.Settings, globalExists bool) (map[string]int, map[string]int, bool) {
	pointValues := map[string]int(seas.PointValues)
	bonusValues := map[string]int(seas.BonusValues)
	if len(pointValues) == 0 && globalExists {
		pointValues = map[string]int(global.PointValues)
	}
	if len(bonusValues) == 0 && globalExists {
		bonusValues = map[string]int(global.BonusValues)
	}
	return pointValues, bonusValues, len(pointValues) > 0
}

// Leaderboard returns the revealed members of a session ranked by weekly
// points. Rows for users the referee has not yet revealed are absent, not
// zeroed.
func (s *LeaderboardService) Leaderboard(ctx context.Context, sessionID string, usePublished bool) ([]standing.LeaderboardEntry, error) {
	ctx, span := startUsecaseSpan(ctx, "LeaderboardService.Leaderboard")
	defer span.End()

	in, err := s.loadInputs(ctx, sessionID, usePublished)
	if err != nil {
		return nil, err
	}
	if !in.configured {
		return []standing.LeaderboardEntry{}, nil
	}

	usersByID := make(map[string]user.User, len(in.users))
	for _, u := range in.users {
		usersByID[u.ID] = u
	}
	scoresByUser := s.metricsByUser(ctx, in, usersByID)

	gate := s.gate.Snapshot()
	revealed := make(map[string]struct{}, len(gate.UserIDs))
	for _, id := range gate.UserIDs {
		revealed[id] = struct{}{}
	}

	entries := make([]standing.LeaderboardEntry, 0, len(revealed))
	for _, u := range in.users {
		if !u.IsActive {
			continue
		}
		if _, ok := revealed[u.ID]; !ok {
			continue
		}
		entries = append(entries, standing.LeaderboardEntry{
			UserID:       u.ID,
			Name:         u.Name,
			TeamID:       u.TeamID,
			WeeklyPoints: computeUserTotal(scoresByUser[u.ID], in.pointValues),
		})
	}

	// Presorting by ID pins tie order regardless of repository ordering.
	sort.Slice(entries, func(i, j int) bool { return entries[i].UserID < entries[j].UserID })
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].WeeklyPoints > entries[j].WeeklyPoints })
	for i := range entries {
		if i > 0 && entries[i].WeeklyPoints == entries[i-1].WeeklyPoints {
			entries[i].Position = entries[i-1].Position
			continue
		}
		entries[i].Position = i + 1
	}

	return entries, nil
}

// TeamStandings ranks a session's teams. Weekly points count only revealed
// members; bonus points stay at zero until the referee reveals the team's
// bonus row, even though they are computable earlier.
func (s *LeaderboardService) TeamStandings(ctx context.Context, sessionID string, usePublished bool) ([]standing.TeamStanding, error) {
	ctx, span := startUsecaseSpan(ctx, "LeaderboardService.TeamStandings")
	defer span.End()

	in, err := s.loadInputs(ctx, sessionID, usePublished)
	if err != nil {
		return nil, err
	}
	if !in.configured {
		return []standing.TeamStanding{}, nil
	}

	usersByID := make(map[string]user.User, len(in.users))
	for _, u := range in.users {
		usersByID[u.ID] = u
	}
	scoresByUser := s.metricsByUser(ctx, in, usersByID)
	gate := s.gate.Snapshot()
	revealed := make(map[string]struct{}, len(gate.UserIDs))
	for _, id := range gate.UserIDs {
		revealed[id] = struct{}{}
	}

	standings := make([]standing.TeamStanding, 0, len(in.teams))
	for _, tm := range in.teams {
		row := standing.TeamStanding{
			TeamID:           tm.ID,
			Name:             tm.Name,
			Color:            tm.Color,
			EarnedCategories: []string{},
			RosterSize:       len(tm.MemberIDs),
		}

		for _, memberID := range tm.MemberIDs {
			if _, ok := revealed[memberID]; !ok {
				continue
			}
			row.RevealedMembers++
			row.WeeklyPoints += computeUserTotal(scoresByUser[memberID], in.pointValues)
		}

		if s.gate.IsTeamBonusRevealed(tm.ID) {
			bonus := computeTeamBonus(eligibleTeamMembers(tm, in.session), scoresByUser, in.bonusValues, score.BonusCategories())
			row.BonusPoints = bonus.BonusPoints + customTeamBonus(in.session, tm.ID)
			row.EarnedCategories = bonus.EarnedCategories
		}

		standings = append(standings, row)
	}

	sort.Slice(standings, func(i, j int) bool { return standings[i].TeamID < standings[j].TeamID })
	sort.SliceStable(standings, func(i, j int) bool {
		return standings[i].WeeklyPoints+standings[i].BonusPoints > standings[j].WeeklyPoints+standings[j].BonusPoints
	})
	for i := range standings {
		if i > 0 && standings[i].WeeklyPoints+standings[i].BonusPoints == standings[i-1].WeeklyPoints+standings[i-1].BonusPoints {
			standings[i].Position = standings[i-1].Position
			continue
		}
		standings[i].Position = i + 1
	}

	return standings, nil
}

// metricsByUser indexes session scores by user, dropping scores whose user no
// longer exists and logging any stored total that disagrees with the
// recomputed one.
func (s *LeaderboardService) metricsByUser(ctx context.Context, in sessionInputs, usersByID map[string]user.User) map[string]score.Metrics {
	out := make(map[string]score.Metrics, len(in.scores))
	for _, sc := range in.scores {
		if _, ok := usersByID[sc.UserID]; !ok {
			continue
		}
		recomputed := computeUserTotal(sc.Metrics, in.pointValues)
		if sc.TotalPoints != recomputed {
			s.logger.WarnContext(ctx, "stored score total drifted from recomputed total",
				"user_id", sc.UserID,
				"session_id", sc.SessionID,
				"stored", sc.TotalPoints,
				"recomputed", recomputed,
			)
		}
		out[sc.UserID] = sc.Metrics
	}
	return out
}
