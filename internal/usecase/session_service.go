package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chapterpoints/chapter-scoring/internal/domain/season"
	"github.com/chapterpoints/chapter-scoring/internal/domain/session"
	"github.com/chapterpoints/chapter-scoring/internal/platform/id"
	"github.com/chapterpoints/chapter-scoring/internal/platform/logging"
)

// SessionService manages competition weeks. Status only moves forward
// (draft to open to closed); archiving is a separate flag for hiding old
// weeks from entry screens.
type SessionService struct {
	sessionRepo session.Repository
	seasonRepo  season.Repository
	idGen       id.Generator
	logger      *logging.Logger
}

func NewSessionService(sessionRepo session.Repository, seasonRepo season.Repository, idGen id.Generator, logger *logging.Logger) *SessionService {
	if logger == nil {
		logger = logging.Default()
	}
	return &SessionService{
		sessionRepo: sessionRepo,
		seasonRepo:  seasonRepo,
		idGen:       idGen,
		logger:      logger,
	}
}

func (s *SessionService) ListBySeason(ctx context.Context, seasonID string) ([]session.Session, error) {
	ctx, span := startUsecaseSpan(ctx, "SessionService.ListBySeason")
	defer span.End()

	seasonID = strings.TrimSpace(seasonID)
	if seasonID == "" {
		return nil, fmt.Errorf("%w: season id is required", ErrInvalidInput)
	}

	items, err := s.sessionRepo.ListBySeason(ctx, seasonID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return items, nil
}

func (s *SessionService) GetByID(ctx context.Context, sessionID string) (session.Session, error) {
	ctx, span := startUsecaseSpan(ctx, "SessionService.GetByID")
	defer span.End()

	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return session.Session{}, fmt.Errorf("%w: session id is required", ErrInvalidInput)
	}

	item, exists, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return session.Session{}, fmt.Errorf("get session: %w", err)
	}
	if !exists {
		return session.Session{}, fmt.Errorf("%w: session=%s", ErrNotFound, sessionID)
	}

	return item, nil
}

func (s *SessionService) Create(ctx context.Context, item session.Session) (session.Session, error) {
	ctx, span := startUsecaseSpan(ctx, "SessionService.Create")
	defer span.End()

	seas, exists, err := s.seasonRepo.GetByID(ctx, item.SeasonID)
	if err != nil {
		return session.Session{}, fmt.Errorf("get season: %w", err)
	}
	if !exists {
		return session.Session{}, fmt.Errorf("%w: season=%s", ErrNotFound, item.SeasonID)
	}
	if item.WeekNumber > seas.WeekCount {
		return session.Session{}, fmt.Errorf("%w: week %d exceeds season's %d weeks", ErrInvalidInput, item.WeekNumber, seas.WeekCount)
	}

	sessionID, err := s.idGen.NewID()
	if err != nil {
		return session.Session{}, fmt.Errorf("generate session id: %w", err)
	}
	item.ID = sessionID
	if item.Status == "" {
		item.Status = session.StatusDraft
	}
	now := time.Now()
	item.CreatedAt = now
	item.UpdatedAt = now

	if err := item.Validate(); err != nil {
		return session.Session{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := s.sessionRepo.Create(ctx, item); err != nil {
		return session.Session{}, fmt.Errorf("create session: %w", err)
	}

	s.logger.InfoContext(ctx, "session created", "session_id", item.ID, "season_id", item.SeasonID, "week", item.WeekNumber)
	return item, nil
}

func (s *SessionService) Update(ctx context.Context, item session.Session) (session.Session, error) {
	ctx, span := startUsecaseSpan(ctx, "SessionService.Update")
	defer span.End()

	existing, err := s.GetByID(ctx, item.ID)
	if err != nil {
		return session.Session{}, err
	}
	if !validStatusTransition(existing.Status, item.Status) {
		return session.Session{}, fmt.Errorf("%w: session status cannot move %s -> %s", ErrInvalidInput, existing.Status, item.Status)
	}

	item.SeasonID = existing.SeasonID
	item.CreatedAt = existing.CreatedAt
	item.UpdatedAt = time.Now()
	if err := item.Validate(); err != nil {
		return session.Session{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	if err := s.sessionRepo.Update(ctx, item); err != nil {
		return session.Session{}, fmt.Errorf("update session: %w", err)
	}

	return item, nil
}

func validStatusTransition(from, to session.Status) bool {
	if from == to {
		return true
	}
	switch from {
	case session.StatusDraft:
		return to == session.StatusOpen
	case session.StatusOpen:
		return to == session.StatusClosed
	default:
		return false
	}
}
