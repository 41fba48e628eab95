package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chapterpoints/chapter-scoring/internal/domain/score"
	"github.com/chapterpoints/chapter-scoring/internal/domain/session"
	"github.com/chapterpoints/chapter-scoring/internal/domain/team"
	"github.com/chapterpoints/chapter-scoring/internal/domain/user"
	"github.com/chapterpoints/chapter-scoring/internal/platform/logging"
)

// PublishService moves draft scores into the published state. Publishing
// stamps who and when; it never edits metrics and is a no-op for scores that
// are already published.
type PublishService struct {
	scoreRepo   score.Repository
	sessionRepo session.Repository
	teamRepo    team.Repository
	logger      *logging.Logger
}

func NewPublishService(scoreRepo score.Repository, sessionRepo session.Repository, teamRepo team.Repository, logger *logging.Logger) *PublishService {
	if logger == nil {
		logger = logging.Default()
	}
	return &PublishService{
		scoreRepo:   scoreRepo,
		sessionRepo: sessionRepo,
		teamRepo:    teamRepo,
		logger:      logger,
	}
}

// PublishSession publishes every draft score of a session and reports how
// many rows flipped.
func (s *PublishService) PublishSession(ctx context.Context, caller user.Principal, sessionID string) (int, error) {
	ctx, span := startUsecaseSpan(ctx, "PublishService.PublishSession")
	defer span.End()

	sessionID = strings.TrimSpace(sessionID)
	if err := s.checkPublish(ctx, caller, sessionID); err != nil {
		return 0, err
	}

	published, err := s.scoreRepo.PublishSession(ctx, sessionID, caller.UserID, time.Now())
	if err != nil {
		return 0, fmt.Errorf("publish session scores: %w", err)
	}

	s.logger.InfoContext(ctx, "session scores published",
		"session_id", sessionID,
		"published_by", caller.UserID,
		"count", published,
	)
	return published, nil
}

// PublishUsers publishes the draft scores of specific members only, for
// partial review flows.
func (s *PublishService) PublishUsers(ctx context.Context, caller user.Principal, sessionID string, userIDs []string) (int, error) {
	ctx, span := startUsecaseSpan(ctx, "PublishService.PublishUsers")
	defer span.End()

	sessionID = strings.TrimSpace(sessionID)
	if err := s.checkPublish(ctx, caller, sessionID); err != nil {
		return 0, err
	}
	if len(userIDs) == 0 {
		return 0, fmt.Errorf("%w: user ids are required", ErrInvalidInput)
	}

	published, err := s.scoreRepo.PublishUsers(ctx, sessionID, userIDs, caller.UserID, time.Now())
	if err != nil {
		return 0, fmt.Errorf("publish user scores: %w", err)
	}

	s.logger.InfoContext(ctx, "user scores published",
		"session_id", sessionID,
		"published_by", caller.UserID,
		"requested", len(userIDs),
		"count", published,
	)
	return published, nil
}

// PublishTeam publishes the draft scores of one team's current roster.
func (s *PublishService) PublishTeam(ctx context.Context, caller user.Principal, sessionID, teamID string) (int, error) {
	ctx, span := startUsecaseSpan(ctx, "PublishService.PublishTeam")
	defer span.End()

	sessionID = strings.TrimSpace(sessionID)
	if err := s.checkPublish(ctx, caller, sessionID); err != nil {
		return 0, err
	}

	teamID = strings.TrimSpace(teamID)
	if teamID == "" {
		return 0, fmt.Errorf("%w: team id is required", ErrInvalidInput)
	}

	item, exists, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		return 0, fmt.Errorf("get team: %w", err)
	}
	if !exists {
		return 0, fmt.Errorf("%w: team=%s", ErrNotFound, teamID)
	}
	if len(item.MemberIDs) == 0 {
		return 0, nil
	}

	published, err := s.scoreRepo.PublishUsers(ctx, sessionID, item.MemberIDs, caller.UserID, time.Now())
	if err != nil {
		return 0, fmt.Errorf("publish team scores: %w", err)
	}

	s.logger.InfoContext(ctx, "team scores published",
		"session_id", sessionID,
		"team_id", teamID,
		"published_by", caller.UserID,
		"count", published,
	)
	return published, nil
}

func (s *PublishService) checkPublish(ctx context.Context, caller user.Principal, sessionID string) error {
	if caller.Role != user.RoleAdmin {
		return fmt.Errorf("%w: only admins publish scores", ErrUnauthorized)
	}

	if sessionID == "" {
		return fmt.Errorf("%w: session id is required", ErrInvalidInput)
	}

	if _, exists, err := s.sessionRepo.GetByID(ctx, sessionID); err != nil {
		return fmt.Errorf("get session: %w", err)
	} else if !exists {
		return fmt.Errorf("%w: session=%s", ErrNotFound, sessionID)
	}

	return nil
}
