package httpapi

import (
	"net/http"

	"github.com/chapterpoints/chapter-scoring/internal/domain/user"
)

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
}

// Public routes serve the meeting room display: published scores only, rows
// gated by the referee's reveal state.
func registerPublicRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/sessions/{sessionID}/leaderboard", handler.GetLeaderboard)
	mux.HandleFunc("GET /v1/sessions/{sessionID}/standings", handler.GetTeamStandings)
	mux.HandleFunc("GET /v1/display/stream", handler.StreamDisplay)
	mux.HandleFunc("GET /v1/display/state", handler.GetRevealState)
	mux.HandleFunc("GET /v1/seasons/active", handler.GetActiveSeason)
}

func registerLeaderRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	leaderOrAdmin := func(h http.HandlerFunc) http.Handler {
		return RequireRole(verifier, h, user.RoleTeamLeader)
	}

	mux.Handle("GET /v1/sessions/{sessionID}/leaderboard/preview", leaderOrAdmin(handler.PreviewLeaderboard))
	mux.Handle("GET /v1/sessions/{sessionID}/standings/preview", leaderOrAdmin(handler.PreviewTeamStandings))
	mux.Handle("PUT /v1/sessions/{sessionID}/scores/{userID}", leaderOrAdmin(handler.UpsertScore))
	mux.Handle("GET /v1/sessions/{sessionID}/scores", leaderOrAdmin(handler.ListSessionScores))
	mux.Handle("GET /v1/sessions/{sessionID}/scores/{userID}", leaderOrAdmin(handler.GetScore))
	mux.Handle("GET /v1/seasons/{seasonID}/draft", leaderOrAdmin(handler.GetSeasonDraft))
	mux.Handle("GET /v1/drafts/{draftID}/turn", leaderOrAdmin(handler.GetDraftTurn))
	mux.Handle("GET /v1/drafts/{draftID}/available-users", leaderOrAdmin(handler.ListAvailableDraftUsers))
	mux.Handle("POST /v1/drafts/{draftID}/picks", leaderOrAdmin(handler.MakeDraftPick))
}

// The referee endpoints mutate the progressive reveal. The service layer
// restricts them to admins; RequireAuth resolves the principal.
func registerRefereeRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	mux.Handle("POST /v1/reveal/users/{userID}", RequireAuth(verifier, http.HandlerFunc(handler.RevealUser)))
	mux.Handle("POST /v1/reveal/teams/{teamID}/bonus", RequireAuth(verifier, http.HandlerFunc(handler.RevealTeamBonus)))
	mux.Handle("PUT /v1/reveal/users", RequireAuth(verifier, http.HandlerFunc(handler.SetRevealedUsers)))
	mux.Handle("DELETE /v1/reveal", RequireAuth(verifier, http.HandlerFunc(handler.ClearReveal)))
}

func registerAdminRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	admin := func(h http.HandlerFunc) http.Handler {
		return RequireRole(verifier, h)
	}

	mux.Handle("POST /v1/sessions/{sessionID}/publish", admin(handler.PublishSession))
	mux.Handle("POST /v1/sessions/{sessionID}/publish/users", admin(handler.PublishSessionUsers))
	mux.Handle("POST /v1/sessions/{sessionID}/publish/teams/{teamID}", admin(handler.PublishSessionTeam))

	mux.Handle("GET /v1/seasons", admin(handler.ListSeasons))
	mux.Handle("POST /v1/seasons", admin(handler.CreateSeason))
	mux.Handle("GET /v1/seasons/{seasonID}", admin(handler.GetSeason))
	mux.Handle("PUT /v1/seasons/{seasonID}", admin(handler.UpdateSeason))
	mux.Handle("POST /v1/seasons/{seasonID}/activate", admin(handler.ActivateSeason))

	mux.Handle("GET /v1/seasons/{seasonID}/sessions", admin(handler.ListSeasonSessions))
	mux.Handle("POST /v1/seasons/{seasonID}/sessions", admin(handler.CreateSession))
	mux.Handle("GET /v1/sessions/{sessionID}", admin(handler.GetSession))
	mux.Handle("PUT /v1/sessions/{sessionID}", admin(handler.UpdateSession))

	mux.Handle("GET /v1/users", admin(handler.ListUsers))
	mux.Handle("POST /v1/users", admin(handler.CreateUser))
	mux.Handle("GET /v1/users/{userID}", admin(handler.GetUser))
	mux.Handle("PUT /v1/users/{userID}", admin(handler.UpdateUser))

	mux.Handle("GET /v1/seasons/{seasonID}/teams", admin(handler.ListSeasonTeams))
	mux.Handle("POST /v1/teams", admin(handler.CreateTeam))
	mux.Handle("GET /v1/teams/{teamID}", admin(handler.GetTeam))
	mux.Handle("PUT /v1/teams/{teamID}", admin(handler.UpdateTeam))

	mux.Handle("GET /v1/settings", admin(handler.GetSettings))
	mux.Handle("PUT /v1/settings", admin(handler.UpsertSettings))

	mux.Handle("POST /v1/drafts", admin(handler.CreateDraft))
	mux.Handle("GET /v1/drafts/order", admin(handler.CalculateDraftOrder))
	mux.Handle("PUT /v1/drafts/{draftID}/order", admin(handler.UpdateDraftOrder))
	mux.Handle("POST /v1/drafts/{draftID}/finalize", admin(handler.FinalizeDraft))

	mux.Handle("POST /v1/recalc", admin(handler.RunRecalc))
}
