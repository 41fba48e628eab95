package httpapi

import (
	"context"
	"fmt"
	"io"
	"net/http"

	sonic "github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"

	"github.com/chapterpoints/chapter-scoring/internal/platform/broadcast"
	"github.com/chapterpoints/chapter-scoring/internal/platform/logging"
	"github.com/chapterpoints/chapter-scoring/internal/usecase"
)

type Handler struct {
	leaderboardService *usecase.LeaderboardService
	scoreService       *usecase.ScoreService
	publishService     *usecase.PublishService
	revealService      *usecase.RevealService
	draftService       *usecase.DraftService
	seasonService      *usecase.SeasonService
	sessionService     *usecase.SessionService
	userService        *usecase.UserService
	teamService        *usecase.TeamService
	settingsService    *usecase.SettingsService
	recalcService      *usecase.RecalcService
	displayChannel     *broadcast.Channel
	logger             *logging.Logger
	validator          *validator.Validate
}

func NewHandler(
	leaderboardService *usecase.LeaderboardService,
	scoreService *usecase.ScoreService,
	publishService *usecase.PublishService,
	revealService *usecase.RevealService,
	draftService *usecase.DraftService,
	seasonService *usecase.SeasonService,
	sessionService *usecase.SessionService,
	userService *usecase.UserService,
	teamService *usecase.TeamService,
	settingsService *usecase.SettingsService,
	recalcService *usecase.RecalcService,
	displayChannel *broadcast.Channel,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		leaderboardService: leaderboardService,
		scoreService:       scoreService,
		publishService:     publishService,
		revealService:      revealService,
		draftService:       draftService,
		seasonService:      seasonService,
		sessionService:     sessionService,
		userService:        userService,
		teamService:        teamService,
		settingsService:    settingsService,
		recalcService:      recalcService,
		displayChannel:     displayChannel,
		logger:             logger,
		validator:          validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) decodeRequest(body io.Reader, out any) error {
	decoder := sonic.ConfigDefault.NewDecoder(body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(out); err != nil {
		return fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err)
	}
	return nil
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}
