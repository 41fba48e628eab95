package httpapi

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/chapterpoints/chapter-scoring/internal/domain/draft"
	"github.com/chapterpoints/chapter-scoring/internal/usecase"
)

type createDraftRequest struct {
	SeasonID string                  `json:"seasonId" validate:"required"`
	Leaders  []teamLeaderSlotRequest `json:"leaders" validate:"required,min=1,dive"`
}

type updateDraftOrderRequest struct {
	Leaders []teamLeaderSlotRequest `json:"leaders" validate:"required,min=1,dive"`
}

type teamLeaderSlotRequest struct {
	TeamID        string `json:"teamId" validate:"required"`
	UserID        string `json:"userId" validate:"required"`
	DraftPosition int    `json:"draftPosition" validate:"required,min=1"`
}

type makePickRequest struct {
	UserID string `json:"userId" validate:"required"`
	TeamID string `json:"teamId" validate:"required"`
}

type draftDTO struct {
	ID                string              `json:"id"`
	SeasonID          string              `json:"seasonId"`
	TeamLeaders       []teamLeaderSlotDTO `json:"teamLeaders"`
	Picks             []draftPickDTO      `json:"picks"`
	CurrentPickNumber int                 `json:"currentPickNumber"`
	Status            string              `json:"status"`
}

type teamLeaderSlotDTO struct {
	TeamID        string `json:"teamId"`
	UserID        string `json:"userId"`
	DraftPosition int    `json:"draftPosition"`
}

type draftPickDTO struct {
	UserID     string `json:"userId"`
	TeamID     string `json:"teamId"`
	Round      int    `json:"round"`
	PickNumber int    `json:"pickNumber"`
	PickedBy   string `json:"pickedBy"`
	PickedAt   string `json:"pickedAt"`
}

type draftTurnDTO struct {
	Completed bool               `json:"completed"`
	Turn      *teamLeaderSlotDTO `json:"turn,omitempty"`
}

type draftOrderEntryDTO struct {
	TeamID      string `json:"teamId"`
	Name        string `json:"name"`
	TotalPoints int    `json:"totalPoints"`
}

func (h *Handler) CreateDraft(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CreateDraft")
	defer span.End()

	var req createDraftRequest
	if err := h.decodeRequest(r.Body, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	item, err := h.draftService.Create(ctx, req.SeasonID, leaderSlotsFromRequest(req.Leaders))
	if err != nil {
		h.logger.WarnContext(ctx, "create draft failed", "season_id", req.SeasonID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, draftToDTO(item))
}

func (h *Handler) GetSeasonDraft(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetSeasonDraft")
	defer span.End()

	seasonID := strings.TrimSpace(r.PathValue("seasonID"))
	item, err := h.draftService.GetBySeason(ctx, seasonID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, draftToDTO(item))
}

// CalculateDraftOrder ranks the previous season's teams ascending by total so
// the weakest team drafts first.
func (h *Handler) CalculateDraftOrder(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CalculateDraftOrder")
	defer span.End()

	previousSeasonID := strings.TrimSpace(r.URL.Query().Get("previous_season_id"))
	entries, err := h.draftService.CalculateDraftOrder(ctx, previousSeasonID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	items := make([]draftOrderEntryDTO, 0, len(entries))
	for _, entry := range entries {
		items = append(items, draftOrderEntryDTO{
			TeamID:      entry.TeamID,
			Name:        entry.Name,
			TotalPoints: entry.TotalPoints,
		})
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) GetDraftTurn(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetDraftTurn")
	defer span.End()

	draftID := strings.TrimSpace(r.PathValue("draftID"))
	slot, active, err := h.draftService.CurrentTurn(ctx, draftID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	dto := draftTurnDTO{Completed: !active}
	if active {
		slotDTO := leaderSlotToDTO(slot)
		dto.Turn = &slotDTO
	}

	writeSuccess(ctx, w, http.StatusOK, dto)
}

func (h *Handler) ListAvailableDraftUsers(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListAvailableDraftUsers")
	defer span.End()

	draftID := strings.TrimSpace(r.PathValue("draftID"))
	users, err := h.draftService.AvailableUsers(ctx, draftID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	items := make([]userDTO, 0, len(users))
	for _, u := range users {
		items = append(items, userToDTO(u))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) MakeDraftPick(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.MakeDraftPick")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	draftID := strings.TrimSpace(r.PathValue("draftID"))
	var req makePickRequest
	if err := h.decodeRequest(r.Body, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	pick, err := h.draftService.MakePick(ctx, draftID, req.UserID, req.TeamID, principal.UserID)
	if err != nil {
		h.logger.WarnContext(ctx, "draft pick failed", "draft_id", draftID, "user_id", req.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, pickToDTO(pick))
}

func (h *Handler) UpdateDraftOrder(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.UpdateDraftOrder")
	defer span.End()

	draftID := strings.TrimSpace(r.PathValue("draftID"))
	var req updateDraftOrderRequest
	if err := h.decodeRequest(r.Body, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	item, err := h.draftService.UpdateDraftOrder(ctx, draftID, leaderSlotsFromRequest(req.Leaders))
	if err != nil {
		h.logger.WarnContext(ctx, "update draft order failed", "draft_id", draftID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, draftToDTO(item))
}

func (h *Handler) FinalizeDraft(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.FinalizeDraft")
	defer span.End()

	draftID := strings.TrimSpace(r.PathValue("draftID"))
	item, err := h.draftService.Finalize(ctx, draftID)
	if err != nil {
		h.logger.WarnContext(ctx, "finalize draft failed", "draft_id", draftID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, draftToDTO(item))
}

func leaderSlotsFromRequest(in []teamLeaderSlotRequest) []draft.TeamLeaderSlot {
	leaders := make([]draft.TeamLeaderSlot, 0, len(in))
	for _, slot := range in {
		leaders = append(leaders, draft.TeamLeaderSlot{
			TeamID:        slot.TeamID,
			UserID:        slot.UserID,
			DraftPosition: slot.DraftPosition,
		})
	}
	return leaders
}

func draftToDTO(v draft.Draft) draftDTO {
	leaders := make([]teamLeaderSlotDTO, 0, len(v.TeamLeaders))
	for _, slot := range v.TeamLeaders {
		leaders = append(leaders, leaderSlotToDTO(slot))
	}
	picks := make([]draftPickDTO, 0, len(v.Picks))
	for _, pick := range v.Picks {
		picks = append(picks, pickToDTO(pick))
	}

	return draftDTO{
		ID:                v.ID,
		SeasonID:          v.SeasonID,
		TeamLeaders:       leaders,
		Picks:             picks,
		CurrentPickNumber: v.CurrentPickNumber,
		Status:            string(v.Status),
	}
}

func leaderSlotToDTO(v draft.TeamLeaderSlot) teamLeaderSlotDTO {
	return teamLeaderSlotDTO{
		TeamID:        v.TeamID,
		UserID:        v.UserID,
		DraftPosition: v.DraftPosition,
	}
}

func pickToDTO(v draft.Pick) draftPickDTO {
	return draftPickDTO{
		UserID:     v.UserID,
		TeamID:     v.TeamID,
		Round:      v.Round,
		PickNumber: v.PickNumber,
		PickedBy:   v.PickedBy,
		PickedAt:   v.PickedAt.UTC().Format(time.RFC3339),
	}
}
