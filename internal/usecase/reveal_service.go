package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/chapterpoints/chapter-scoring/internal/domain/user"
	"github.com/chapterpoints/chapter-scoring/internal/platform/logging"
	"github.com/chapterpoints/chapter-scoring/internal/platform/reveal"
)

// RevealService is the referee's control surface over the visibility gate.
// Admins drive the reveal during a live session; everyone else only reads
// the snapshot through the leaderboard.
type RevealService struct {
	gate   *reveal.Gate
	logger *logging.Logger
}

func NewRevealService(gate *reveal.Gate, logger *logging.Logger) *RevealService {
	if logger == nil {
		logger = logging.Default()
	}
	return &RevealService{
		gate:   gate,
		logger: logger,
	}
}

func (s *RevealService) RevealUser(ctx context.Context, caller user.Principal, userID string) (reveal.State, error) {
	ctx, span := startUsecaseSpan(ctx, "RevealService.RevealUser")
	defer span.End()

	userID = strings.TrimSpace(userID)
	if err := s.checkReferee(caller); err != nil {
		return reveal.State{}, err
	}
	if userID == "" {
		return reveal.State{}, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}

	s.gate.RevealUser(userID)
	s.logger.InfoContext(ctx, "member revealed", "user_id", userID, "revealed_by", caller.UserID)
	return s.gate.Snapshot(), nil
}

func (s *RevealService) RevealTeamBonus(ctx context.Context, caller user.Principal, teamID string) (reveal.State, error) {
	ctx, span := startUsecaseSpan(ctx, "RevealService.RevealTeamBonus")
	defer span.End()

	teamID = strings.TrimSpace(teamID)
	if err := s.checkReferee(caller); err != nil {
		return reveal.State{}, err
	}
	if teamID == "" {
		return reveal.State{}, fmt.Errorf("%w: team id is required", ErrInvalidInput)
	}

	s.gate.RevealTeamBonus(teamID)
	s.logger.InfoContext(ctx, "team bonus revealed", "team_id", teamID, "revealed_by", caller.UserID)
	return s.gate.Snapshot(), nil
}

// SetRevealedUsers replaces the revealed set wholesale so the referee can
// step backwards through the board.
func (s *RevealService) SetRevealedUsers(ctx context.Context, caller user.Principal, userIDs []string) (reveal.State, error) {
	ctx, span := startUsecaseSpan(ctx, "RevealService.SetRevealedUsers")
	defer span.End()

	if err := s.checkReferee(caller); err != nil {
		return reveal.State{}, err
	}

	s.gate.SetUsers(userIDs)
	s.logger.InfoContext(ctx, "revealed set replaced", "count", len(userIDs), "revealed_by", caller.UserID)
	return s.gate.Snapshot(), nil
}

// Clear covers everything again; called when a new live session starts.
func (s *RevealService) Clear(ctx context.Context, caller user.Principal) (reveal.State, error) {
	ctx, span := startUsecaseSpan(ctx, "RevealService.Clear")
	defer span.End()

	if err := s.checkReferee(caller); err != nil {
		return reveal.State{}, err
	}

	s.gate.Clear()
	s.logger.InfoContext(ctx, "reveal state cleared", "cleared_by", caller.UserID)
	return s.gate.Snapshot(), nil
}

func (s *RevealService) Snapshot(ctx context.Context) reveal.State {
	_, span := startUsecaseSpan(ctx, "RevealService.Snapshot")
	defer span.End()

	return s.gate.Snapshot()
}

func (s *RevealService) checkReferee(caller user.Principal) error {
	if caller.Role != user.RoleAdmin {
		return fmt.Errorf("%w: only admins control the reveal", ErrUnauthorized)
	}
	return nil
}
