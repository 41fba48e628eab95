package httpapi

import (
	"net/http"
	"strings"

	"github.com/chapterpoints/chapter-scoring/internal/domain/team"
	"github.com/chapterpoints/chapter-scoring/internal/domain/user"
)

type createUserRequest struct {
	Name   string `json:"name" validate:"required,max=100"`
	Role   string `json:"role" validate:"required"`
	TeamID string `json:"teamId"`
}

type updateUserRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Role     string `json:"role" validate:"required"`
	TeamID   string `json:"teamId"`
	IsActive bool   `json:"isActive"`
}

type userDTO struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	TeamID   string `json:"teamId"`
	IsActive bool   `json:"isActive"`
}

type createTeamRequest struct {
	SeasonID     string `json:"seasonId" validate:"required"`
	Name         string `json:"name" validate:"required,max=100"`
	Color        string `json:"color" validate:"max=32"`
	TeamLeaderID string `json:"teamLeaderId"`
}

type updateTeamRequest struct {
	Name         string `json:"name" validate:"required,max=100"`
	Color        string `json:"color" validate:"max=32"`
	TeamLeaderID string `json:"teamLeaderId"`
}

type teamDTO struct {
	ID           string   `json:"id"`
	SeasonID     string   `json:"seasonId"`
	Name         string   `json:"name"`
	Color        string   `json:"color"`
	TeamLeaderID string   `json:"teamLeaderId"`
	MemberIDs    []string `json:"memberIds"`
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListUsers")
	defer span.End()

	activeOnly := r.URL.Query().Get("active") == "true"
	users, err := h.userService.List(ctx, activeOnly)
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

func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetUser")
	defer span.End()

	item, err := h.userService.GetByID(ctx, strings.TrimSpace(r.PathValue("userID")))
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, userToDTO(item))
}

func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CreateUser")
	defer span.End()

	var req createUserRequest
	if err := h.decodeRequest(r.Body, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	item, err := h.userService.Create(ctx, user.User{
		Name:     req.Name,
		Role:     user.Role(req.Role),
		TeamID:   req.TeamID,
		IsActive: true,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "create user failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, userToDTO(item))
}

func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.UpdateUser")
	defer span.End()

	userID := strings.TrimSpace(r.PathValue("userID"))
	var req updateUserRequest
	if err := h.decodeRequest(r.Body, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	item, err := h.userService.Update(ctx, user.User{
		ID:       userID,
		Name:     req.Name,
		Role:     user.Role(req.Role),
		TeamID:   req.TeamID,
		IsActive: req.IsActive,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "update user failed", "user_id", userID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, userToDTO(item))
}

func (h *Handler) ListSeasonTeams(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListSeasonTeams")
	defer span.End()

	seasonID := strings.TrimSpace(r.PathValue("seasonID"))
	teams, err := h.teamService.ListBySeason(ctx, seasonID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	items := make([]teamDTO, 0, len(teams))
	for _, t := range teams {
		items = append(items, teamToDTO(t))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) GetTeam(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetTeam")
	defer span.End()

	item, err := h.teamService.GetByID(ctx, strings.TrimSpace(r.PathValue("teamID")))
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, teamToDTO(item))
}

func (h *Handler) CreateTeam(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CreateTeam")
	defer span.End()

	var req createTeamRequest
	if err := h.decodeRequest(r.Body, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	item, err := h.teamService.Create(ctx, team.Team{
		SeasonID:     req.SeasonID,
		Name:         req.Name,
		Color:        req.Color,
		TeamLeaderID: req.TeamLeaderID,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "create team failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, teamToDTO(item))
}

func (h *Handler) UpdateTeam(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.UpdateTeam")
	defer span.End()

	teamID := strings.TrimSpace(r.PathValue("teamID"))
	var req updateTeamRequest
	if err := h.decodeRequest(r.Body, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	item, err := h.teamService.Update(ctx, team.Team{
		ID:           teamID,
		Name:         req.Name,
		Color:        req.Color,
		TeamLeaderID: req.TeamLeaderID,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "update team failed", "team_id", teamID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, teamToDTO(item))
}

func userToDTO(v user.User) userDTO {
	return userDTO{
		ID:       v.ID,
		Name:     v.Name,
		Role:     string(v.Role),
		TeamID:   v.TeamID,
		IsActive: v.IsActive,
	}
}

func teamToDTO(v team.Team) teamDTO {
	members := v.MemberIDs
	if members == nil {
		members = []string{}
	}
	return teamDTO{
		ID:           v.ID,
		SeasonID:     v.SeasonID,
		Name:         v.Name,
		Color:        v.Color,
		TeamLeaderID: v.TeamLeaderID,
		MemberIDs:    members,
	}
}
