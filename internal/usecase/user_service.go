package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chapterpoints/chapter-scoring/internal/domain/user"
	"github.com/chapterpoints/chapter-scoring/internal/platform/id"
	"github.com/chapterpoints/chapter-scoring/internal/platform/logging"
)

type UserService struct {
	userRepo user.Repository
	idGen    id.Generator
	logger   *logging.Logger
}

func NewUserService(userRepo user.Repository, idGen id.Generator, logger *logging.Logger) *UserService {
	if logger == nil {
		logger = logging.Default()
	}
	return &UserService{
		userRepo: userRepo,
		idGen:    idGen,
		logger:   logger,
	}
}

func (s *UserService) List(ctx context.Context, activeOnly bool) ([]user.User, error) {
	ctx, span := startUsecaseSpan(ctx, "UserService.List")
	defer span.End()

	var (
		items []user.User
		err   error
	)
	if activeOnly {
		items, err = s.userRepo.ListActive(ctx)
	} else {
		items, err = s.userRepo.List(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	return items, nil
}

func (s *UserService) GetByID(ctx context.Context, userID string) (user.User, error) {
	ctx, span := startUsecaseSpan(ctx, "UserService.GetByID")
	defer span.End()

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return user.User{}, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}

	item, exists, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return user.User{}, fmt.Errorf("get user: %w", err)
	}
	if !exists {
		return user.User{}, fmt.Errorf("%w: user=%s", ErrNotFound, userID)
	}

	return item, nil
}

func (s *UserService) Create(ctx context.Context, item user.User) (user.User, error) {
	ctx, span := startUsecaseSpan(ctx, "UserService.Create")
	defer span.End()

	userID, err := s.idGen.NewID()
	if err != nil {
		return user.User{}, fmt.Errorf("generate user id: %w", err)
	}
	item.ID = userID
	item.IsActive = true
	now := time.Now()
	item.CreatedAt = now
	item.UpdatedAt = now

	if err := item.Validate(); err != nil {
		return user.User{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := s.userRepo.Create(ctx, item); err != nil {
		return user.User{}, fmt.Errorf("create user: %w", err)
	}

	s.logger.InfoContext(ctx, "user created", "user_id", item.ID, "role", string(item.Role))
	return item, nil
}

func (s *UserService) Update(ctx context.Context, item user.User) (user.User, error) {
	ctx, span := startUsecaseSpan(ctx, "UserService.Update")
	defer span.End()

	existing, err := s.GetByID(ctx, item.ID)
	if err != nil {
		return user.User{}, err
	}

	item.CreatedAt = existing.CreatedAt
	item.UpdatedAt = time.Now()
	if err := item.Validate(); err != nil {
		return user.User{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	if err := s.userRepo.Update(ctx, item); err != nil {
		return user.User{}, fmt.Errorf("update user: %w", err)
	}

	return item, nil
}
