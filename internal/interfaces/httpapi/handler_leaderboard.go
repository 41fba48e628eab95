package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/chapterpoints/chapter-scoring/internal/domain/standing"
)

type leaderboardEntryDTO struct {
	Position     int    `json:"position"`
	UserID       string `json:"userId"`
	Name         string `json:"name"`
	TeamID       string `json:"teamId"`
	WeeklyPoints int    `json:"weeklyPoints"`
}

type teamStandingDTO struct {
	Position         int      `json:"position"`
	TeamID           string   `json:"teamId"`
	Name             string   `json:"name"`
	Color            string   `json:"color"`
	WeeklyPoints     int      `json:"weeklyPoints"`
	BonusPoints      int      `json:"bonusPoints"`
	TotalPoints      int      `json:"totalPoints"`
	EarnedCategories []string `json:"earnedCategories"`
	RevealedMembers  int      `json:"revealedMembers"`
	RosterSize       int      `json:"rosterSize"`
}

// GetLeaderboard serves the public display board: published scores only,
// reveal-gated rows.
func (h *Handler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetLeaderboard")
	defer span.End()

	h.serveLeaderboard(ctx, w, r, true)
}

// PreviewLeaderboard serves the referee's pre-publish view over draft scores.
func (h *Handler) PreviewLeaderboard(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.PreviewLeaderboard")
	defer span.End()

	h.serveLeaderboard(ctx, w, r, false)
}

func (h *Handler) serveLeaderboard(ctx context.Context, w http.ResponseWriter, r *http.Request, usePublished bool) {
	sessionID := strings.TrimSpace(r.PathValue("sessionID"))
	entries, err := h.leaderboardService.Leaderboard(ctx, sessionID, usePublished)
	if err != nil {
		h.logger.WarnContext(ctx, "leaderboard failed", "session_id", sessionID, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]leaderboardEntryDTO, 0, len(entries))
	for _, entry := range entries {
		items = append(items, leaderboardEntryToDTO(entry))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) GetTeamStandings(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetTeamStandings")
	defer span.End()

	h.serveTeamStandings(ctx, w, r, true)
}

func (h *Handler) PreviewTeamStandings(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.PreviewTeamStandings")
	defer span.End()

	h.serveTeamStandings(ctx, w, r, false)
}

func (h *Handler) serveTeamStandings(ctx context.Context, w http.ResponseWriter, r *http.Request, usePublished bool) {
	sessionID := strings.TrimSpace(r.PathValue("sessionID"))
	standings, err := h.leaderboardService.TeamStandings(ctx, sessionID, usePublished)
	if err != nil {
		h.logger.WarnContext(ctx, "team standings failed", "session_id", sessionID, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]teamStandingDTO, 0, len(standings))
	for _, row := range standings {
		items = append(items, teamStandingToDTO(row))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func leaderboardEntryToDTO(v standing.LeaderboardEntry) leaderboardEntryDTO {
	return leaderboardEntryDTO{
		Position:     v.Position,
		UserID:       v.UserID,
		Name:         v.Name,
		TeamID:       v.TeamID,
		WeeklyPoints: v.WeeklyPoints,
	}
}

func teamStandingToDTO(v standing.TeamStanding) teamStandingDTO {
	return teamStandingDTO{
		Position:         v.Position,
		TeamID:           v.TeamID,
		Name:             v.Name,
		Color:            v.Color,
		WeeklyPoints:     v.WeeklyPoints,
		BonusPoints:      v.BonusPoints,
		TotalPoints:      v.WeeklyPoints + v.BonusPoints,
		EarnedCategories: append([]string{}, v.EarnedCategories...),
		RevealedMembers:  v.RevealedMembers,
		RosterSize:       v.RosterSize,
	}
}
