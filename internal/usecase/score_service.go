package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chapterpoints/chapter-scoring/internal/domain/score"
	"github.com/chapterpoints/chapter-scoring/internal/domain/season"
	"github.com/chapterpoints/chapter-scoring/internal/domain/session"
	"github.com/chapterpoints/chapter-scoring/internal/domain/settings"
	"github.com/chapterpoints/chapter-scoring/internal/domain/user"
	"github.com/chapterpoints/chapter-scoring/internal/platform/id"
	"github.com/chapterpoints/chapter-scoring/internal/platform/logging"
)

// ScoreService handles weekly metric entry. Team leaders record metrics for
// their own roster while a session is open; admins may record for anyone.
// Entries stay in draft until an admin publishes the session.
type ScoreService struct {
	scoreRepo    score.Repository
	sessionRepo  session.Repository
	seasonRepo   season.Repository
	settingsRepo settings.Repository
	userRepo     user.Repository
	idGen        id.Generator
	logger       *logging.Logger
}

func NewScoreService(
	scoreRepo score.Repository,
	sessionRepo session.Repository,
	seasonRepo season.Repository,
	settingsRepo settings.Repository,
	userRepo user.Repository,
	idGen id.Generator,
	logger *logging.Logger,
) *ScoreService {
	if logger == nil {
		logger = logging.Default()
	}
	return &ScoreService{
		scoreRepo:    scoreRepo,
		sessionRepo:  sessionRepo,
		seasonRepo:   seasonRepo,
		settingsRepo: settingsRepo,
		userRepo:     userRepo,
		idGen:        idGen,
		logger:       logger,
	}
}

// Upsert writes the single score row for (userID, session). The stored total
// is derived from the metrics at write time with the session's effective
// point values.
func (s *ScoreService) Upsert(ctx context.Context, caller user.Principal, sessionID, userID string, metrics score.Metrics) (score.Score, error) {
	ctx, span := startUsecaseSpan(ctx, "ScoreService.Upsert")
	defer span.End()

	sessionID = strings.TrimSpace(sessionID)
	userID = strings.TrimSpace(userID)
	if sessionID == "" || userID == "" {
		return score.Score{}, fmt.Errorf("%w: session id and user id are required", ErrInvalidInput)
	}
	if err := metrics.Validate(); err != nil {
		return score.Score{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	sess, exists, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return score.Score{}, fmt.Errorf("get session: %w", err)
	}
	if !exists {
		return score.Score{}, fmt.Errorf("%w: session=%s", ErrNotFound, sessionID)
	}
	if sess.IsArchived || sess.Status == session.StatusClosed {
		return score.Score{}, fmt.Errorf("%w: session %s is closed for entry", ErrInvalidInput, sessionID)
	}

	target, exists, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return score.Score{}, fmt.Errorf("get user: %w", err)
	}
	if !exists {
		return score.Score{}, fmt.Errorf("%w: user=%s", ErrNotFound, userID)
	}

	if err := s.authorizeEntry(ctx, caller, target); err != nil {
		return score.Score{}, err
	}

	pointValues, err := s.effectivePointValues(ctx, sess.SeasonID)
	if err != nil {
		return score.Score{}, err
	}

	now := time.Now()
	item := score.Score{
		UserID:      userID,
		SessionID:   sessionID,
		Metrics:     metrics.Clone(),
		TotalPoints: computeUserTotal(metrics, pointValues),
		IsDraft:     true,
		EnteredBy:   caller.UserID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	existing, found, err := s.scoreRepo.GetByUserSession(ctx, userID, sessionID)
	if err != nil {
		return score.Score{}, fmt.Errorf("get score: %w", err)
	}
	if found {
		item.ID = existing.ID
		item.CreatedAt = existing.CreatedAt
	} else {
		scoreID, err := s.idGen.NewID()
		if err != nil {
			return score.Score{}, fmt.Errorf("generate score id: %w", err)
		}
		item.ID = scoreID
	}

	if err := s.scoreRepo.Upsert(ctx, item); err != nil {
		return score.Score{}, fmt.Errorf("upsert score: %w", err)
	}

	s.logger.InfoContext(ctx, "score recorded",
		"session_id", sessionID,
		"user_id", userID,
		"entered_by", caller.UserID,
		"total_points", item.TotalPoints,
	)
	return item, nil
}

func (s *ScoreService) authorizeEntry(ctx context.Context, caller user.Principal, target user.User) error {
	switch caller.Role {
	case user.RoleAdmin:
		return nil
	case user.RoleTeamLeader:
		leader, exists, err := s.userRepo.GetByID(ctx, caller.UserID)
		if err != nil {
			return fmt.Errorf("get caller: %w", err)
		}
		if !exists || leader.TeamID == "" || leader.TeamID != target.TeamID {
			return fmt.Errorf("%w: %s is not on your team", ErrUnauthorized, target.ID)
		}
		return nil
	default:
		return fmt.Errorf("%w: members cannot enter scores", ErrUnauthorized)
	}
}

// effectivePointValues resolves the season's tables with the global settings
// as fallback. Entry without any configured tables is rejected rather than
// silently writing zero totals.
func (s *ScoreService) effectivePointValues(ctx context.Context, seasonID string) (map[string]int, error) {
	seas, exists, err := s.seasonRepo.GetByID(ctx, seasonID)
	if err != nil {
		return nil, fmt.Errorf("get season: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: season=%s", ErrNotFound, seasonID)
	}

	global, globalExists, err := s.settingsRepo.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("get settings: %w", err)
	}

	pointValues, _, configured := resolveValueTables(seas, global, globalExists)
	if !configured {
		return nil, fmt.Errorf("%w: no point values configured", ErrInvalidInput)
	}

	return pointValues, nil
}

func (s *ScoreService) GetByUserSession(ctx context.Context, userID, sessionID string) (score.Score, error) {
	ctx, span := startUsecaseSpan(ctx, "ScoreService.GetByUserSession")
	defer span.End()

	userID = strings.TrimSpace(userID)
	sessionID = strings.TrimSpace(sessionID)
	if userID == "" || sessionID == "" {
		return score.Score{}, fmt.Errorf("%w: user id and session id are required", ErrInvalidInput)
	}

	item, exists, err := s.scoreRepo.GetByUserSession(ctx, userID, sessionID)
	if err != nil {
		return score.Score{}, fmt.Errorf("get score: %w", err)
	}
	if !exists {
		return score.Score{}, fmt.Errorf("%w: score for user=%s session=%s", ErrNotFound, userID, sessionID)
	}

	return item, nil
}

func (s *ScoreService) ListBySession(ctx context.Context, sessionID string, publishedOnly bool) ([]score.Score, error) {
	ctx, span := startUsecaseSpan(ctx, "ScoreService.ListBySession")
	defer span.End()

	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, fmt.Errorf("%w: session id is required", ErrInvalidInput)
	}

	if _, exists, err := s.sessionRepo.GetByID(ctx, sessionID); err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	} else if !exists {
		return nil, fmt.Errorf("%w: session=%s", ErrNotFound, sessionID)
	}

	items, err := s.scoreRepo.ListBySession(ctx, sessionID, publishedOnly)
	if err != nil {
		return nil, fmt.Errorf("list scores: %w", err)
	}

	return items, nil
}
