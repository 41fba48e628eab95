package httpapi

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/chapterpoints/chapter-scoring/internal/domain/score"
	"github.com/chapterpoints/chapter-scoring/internal/platform/broadcast"
	"github.com/chapterpoints/chapter-scoring/internal/usecase"
)

// displayUpdateMessageType marks broadcast messages that tell the display to
// refetch the leaderboard.
const displayUpdateMessageType = "display.update"

type displayUpdatePayload struct {
	SessionID string `json:"sessionId"`
	Kind      string `json:"kind"`
}

type upsertScoreRequest struct {
	Metrics map[string]int `json:"metrics" validate:"required,min=1"`
}

type publishUsersRequest struct {
	UserIDs []string `json:"userIds" validate:"required,min=1,dive,required"`
}

type publishResultDTO struct {
	SessionID string `json:"sessionId"`
	Published int    `json:"published"`
}

type scoreDTO struct {
	ID          string         `json:"id"`
	UserID      string         `json:"userId"`
	SessionID   string         `json:"sessionId"`
	Metrics     map[string]int `json:"metrics"`
	TotalPoints int            `json:"totalPoints"`
	IsDraft     bool           `json:"isDraft"`
	EnteredBy   string         `json:"enteredBy"`
	PublishedBy string         `json:"publishedBy,omitempty"`
	PublishedAt string         `json:"publishedAt,omitempty"`
	UpdatedAt   string         `json:"updatedAt"`
}

func (h *Handler) UpsertScore(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.UpsertScore")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	sessionID := strings.TrimSpace(r.PathValue("sessionID"))
	userID := strings.TrimSpace(r.PathValue("userID"))

	var req upsertScoreRequest
	if err := h.decodeRequest(r.Body, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	item, err := h.scoreService.Upsert(ctx, principal, sessionID, userID, score.Metrics(req.Metrics))
	if err != nil {
		h.logger.WarnContext(ctx, "upsert score failed", "session_id", sessionID, "user_id", userID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, scoreToDTO(item))
}

func (h *Handler) GetScore(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetScore")
	defer span.End()

	sessionID := strings.TrimSpace(r.PathValue("sessionID"))
	userID := strings.TrimSpace(r.PathValue("userID"))

	item, err := h.scoreService.GetByUserSession(ctx, userID, sessionID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, scoreToDTO(item))
}

func (h *Handler) ListSessionScores(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListSessionScores")
	defer span.End()

	sessionID := strings.TrimSpace(r.PathValue("sessionID"))
	publishedOnly := r.URL.Query().Get("published") == "true"

	scores, err := h.scoreService.ListBySession(ctx, sessionID, publishedOnly)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	items := make([]scoreDTO, 0, len(scores))
	for _, item := range scores {
		items = append(items, scoreToDTO(item))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) PublishSession(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.PublishSession")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	sessionID := strings.TrimSpace(r.PathValue("sessionID"))
	count, err := h.publishService.PublishSession(ctx, principal, sessionID)
	if err != nil {
		h.logger.WarnContext(ctx, "publish session failed", "session_id", sessionID, "error", err)
		writeError(ctx, w, err)
		return
	}

	h.pushDisplayUpdate(sessionID, "publish")
	writeSuccess(ctx, w, http.StatusOK, publishResultDTO{SessionID: sessionID, Published: count})
}

func (h *Handler) PublishSessionUsers(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.PublishSessionUsers")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	sessionID := strings.TrimSpace(r.PathValue("sessionID"))
	var req publishUsersRequest
	if err := h.decodeRequest(r.Body, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	count, err := h.publishService.PublishUsers(ctx, principal, sessionID, req.UserIDs)
	if err != nil {
		h.logger.WarnContext(ctx, "publish users failed", "session_id", sessionID, "error", err)
		writeError(ctx, w, err)
		return
	}

	h.pushDisplayUpdate(sessionID, "publish")
	writeSuccess(ctx, w, http.StatusOK, publishResultDTO{SessionID: sessionID, Published: count})
}

func (h *Handler) PublishSessionTeam(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.PublishSessionTeam")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	sessionID := strings.TrimSpace(r.PathValue("sessionID"))
	teamID := strings.TrimSpace(r.PathValue("teamID"))

	count, err := h.publishService.PublishTeam(ctx, principal, sessionID, teamID)
	if err != nil {
		h.logger.WarnContext(ctx, "publish team failed", "session_id", sessionID, "team_id", teamID, "error", err)
		writeError(ctx, w, err)
		return
	}

	h.pushDisplayUpdate(sessionID, "publish")
	writeSuccess(ctx, w, http.StatusOK, publishResultDTO{SessionID: sessionID, Published: count})
}

// pushDisplayUpdate is best effort; a display with no live subscribers or a
// full buffer just misses one refresh hint.
func (h *Handler) pushDisplayUpdate(sessionID, kind string) {
	if h.displayChannel == nil {
		return
	}

	msg, err := broadcast.NewMessage(displayUpdateMessageType, displayUpdatePayload{
		SessionID: sessionID,
		Kind:      kind,
	})
	if err != nil {
		h.logger.Warn("encode display update failed", "session_id", sessionID, "error", err)
		return
	}
	h.displayChannel.Publish(msg)
}

func scoreToDTO(v score.Score) scoreDTO {
	dto := scoreDTO{
		ID:          v.ID,
		UserID:      v.UserID,
		SessionID:   v.SessionID,
		Metrics:     map[string]int(v.Metrics),
		TotalPoints: v.TotalPoints,
		IsDraft:     v.IsDraft,
		EnteredBy:   v.EnteredBy,
		PublishedBy: v.PublishedBy,
		UpdatedAt:   v.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if v.PublishedAt != nil {
		dto.PublishedAt = v.PublishedAt.UTC().Format(time.RFC3339)
	}
	return dto
}
