package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/chapterpoints/chapter-scoring/internal/platform/reveal"
	"github.com/chapterpoints/chapter-scoring/internal/usecase"
)

type setRevealedUsersRequest struct {
	UserIDs []string `json:"userIds" validate:"dive,required"`
}

type revealStateDTO struct {
	Version      uint64   `json:"version"`
	UserIDs      []string `json:"userIds"`
	BonusTeamIDs []string `json:"bonusTeamIds"`
}

func (h *Handler) RevealUser(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RevealUser")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	userID := strings.TrimSpace(r.PathValue("userID"))
	state, err := h.revealService.RevealUser(ctx, principal, userID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, revealStateToDTO(state))
}

func (h *Handler) RevealTeamBonus(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RevealTeamBonus")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	teamID := strings.TrimSpace(r.PathValue("teamID"))
	state, err := h.revealService.RevealTeamBonus(ctx, principal, teamID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, revealStateToDTO(state))
}

// SetRevealedUsers replaces the whole revealed set; the referee uses it for
// "reveal all" and for rewinding a mistaken reveal.
func (h *Handler) SetRevealedUsers(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SetRevealedUsers")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	var req setRevealedUsersRequest
	if err := h.decodeRequest(r.Body, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	state, err := h.revealService.SetRevealedUsers(ctx, principal, req.UserIDs)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, revealStateToDTO(state))
}

func (h *Handler) ClearReveal(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ClearReveal")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	state, err := h.revealService.Clear(ctx, principal)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, revealStateToDTO(state))
}

func (h *Handler) GetRevealState(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetRevealState")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, revealStateToDTO(h.revealService.Snapshot(ctx)))
}

func revealStateToDTO(state reveal.State) revealStateDTO {
	userIDs := state.UserIDs
	if userIDs == nil {
		userIDs = []string{}
	}
	bonusTeamIDs := state.BonusTeamIDs
	if bonusTeamIDs == nil {
		bonusTeamIDs = []string{}
	}
	return revealStateDTO{
		Version:      state.Version,
		UserIDs:      userIDs,
		BonusTeamIDs: bonusTeamIDs,
	}
}
