package httpapi

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	sonic "github.com/bytedance/sonic"

	"github.com/chapterpoints/chapter-scoring/internal/domain/user"
	"github.com/chapterpoints/chapter-scoring/internal/infrastructure/repository/memory"
	"github.com/chapterpoints/chapter-scoring/internal/platform/broadcast"
	"github.com/chapterpoints/chapter-scoring/internal/platform/id"
	"github.com/chapterpoints/chapter-scoring/internal/platform/logging"
	"github.com/chapterpoints/chapter-scoring/internal/platform/reveal"
	"github.com/chapterpoints/chapter-scoring/internal/usecase"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	userRepo := memory.NewUserRepository(memory.SeedUsers())
	teamRepo := memory.NewTeamRepository(memory.SeedTeams())
	seasonRepo := memory.NewSeasonRepository(memory.SeedSeasons())
	sessionRepo := memory.NewSessionRepository(memory.SeedSessions())
	scoreRepo := memory.NewScoreRepository()
	settingsRepo := memory.NewSettingsRepositoryWith(memory.SeedSettings())
	draftRepo := memory.NewDraftRepository(userRepo, teamRepo)

	channel := broadcast.NewChannel()
	gate := reveal.NewGate(channel)
	ids := id.NewRandomGenerator()
	logger := logging.NewNop()

	handler := NewHandler(
		usecase.NewLeaderboardService(userRepo, teamRepo, scoreRepo, sessionRepo, seasonRepo, settingsRepo, gate, logger),
		usecase.NewScoreService(scoreRepo, sessionRepo, seasonRepo, settingsRepo, userRepo, ids, logger),
		usecase.NewPublishService(scoreRepo, sessionRepo, teamRepo, logger),
		usecase.NewRevealService(gate, logger),
		usecase.NewDraftService(draftRepo, seasonRepo, teamRepo, userRepo, sessionRepo, scoreRepo, ids, logger),
		usecase.NewSeasonService(seasonRepo, ids, logger),
		usecase.NewSessionService(sessionRepo, seasonRepo, ids, logger),
		usecase.NewUserService(userRepo, ids, logger),
		usecase.NewTeamService(teamRepo, seasonRepo, ids, logger),
		usecase.NewSettingsService(settingsRepo, logger),
		usecase.NewRecalcService(scoreRepo, sessionRepo, seasonRepo, settingsRepo, logger),
		channel,
		logger,
	)

	verifier := NewStaticTokenVerifier(map[string]user.Principal{
		"admin-token":    {UserID: "user-admin", Name: "Avery Quinn", Role: user.RoleAdmin},
		"red-lead-token": {UserID: "user-lead-red", Name: "Morgan Reyes", Role: user.RoleTeamLeader},
		"member-token":   {UserID: "user-m1", Name: "Sam Carter", Role: user.RoleMember},
	})

	return NewRouter(handler, verifier, logger, nil)
}

func doRequest(t *testing.T, router http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeData[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var envelope struct {
		Data T `json:"data"`
	}
	if err := sonic.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return envelope.Data
}

func TestRouter_ScoreEntryAuthorization(t *testing.T) {
	router := newTestRouter(t)
	body := `{"metrics":{"attendance":1}}`
	path := "/v1/sessions/" + memory.SessionIDSpringWeek1 + "/scores/user-m1"

	if rec := doRequest(t, router, http.MethodPut, path, "", body); rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous upsert status = %d, want 401", rec.Code)
	}
	if rec := doRequest(t, router, http.MethodPut, path, "member-token", body); rec.Code != http.StatusUnauthorized {
		t.Fatalf("member upsert status = %d, want 401", rec.Code)
	}
	if rec := doRequest(t, router, http.MethodPut, path, "red-lead-token", body); rec.Code != http.StatusOK {
		t.Fatalf("leader upsert status = %d, body %s", rec.Code, rec.Body.String())
	}
}

func TestRouter_PublicLeaderboardGatedByPublishAndReveal(t *testing.T) {
	router := newTestRouter(t)
	scorePath := "/v1/sessions/" + memory.SessionIDSpringWeek1 + "/scores/user-m1"
	boardPath := "/v1/sessions/" + memory.SessionIDSpringWeek1 + "/leaderboard"

	if rec := doRequest(t, router, http.MethodPut, scorePath, "red-lead-token", `{"metrics":{"attendance":1,"referrals":2}}`); rec.Code != http.StatusOK {
		t.Fatalf("upsert status = %d, body %s", rec.Code, rec.Body.String())
	}

	// Draft scores and unrevealed users never reach the public board.
	rec := doRequest(t, router, http.MethodGet, boardPath, "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("leaderboard status = %d", rec.Code)
	}
	if entries := decodeData[[]leaderboardEntryDTO](t, rec); len(entries) != 0 {
		t.Fatalf("pre-publish entries = %+v, want none", entries)
	}

	publishPath := "/v1/sessions/" + memory.SessionIDSpringWeek1 + "/publish"
	if rec := doRequest(t, router, http.MethodPost, publishPath, "red-lead-token", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("leader publish status = %d, want 401", rec.Code)
	}
	if rec := doRequest(t, router, http.MethodPost, publishPath, "admin-token", ""); rec.Code != http.StatusOK {
		t.Fatalf("admin publish status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, router, http.MethodGet, boardPath, "", "")
	if entries := decodeData[[]leaderboardEntryDTO](t, rec); len(entries) != 0 {
		t.Fatalf("unrevealed entries = %+v, want none", entries)
	}

	if rec := doRequest(t, router, http.MethodPost, "/v1/reveal/users/user-m1", "red-lead-token", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("leader reveal status = %d, want 401", rec.Code)
	}
	if rec := doRequest(t, router, http.MethodPost, "/v1/reveal/users/user-m1", "admin-token", ""); rec.Code != http.StatusOK {
		t.Fatalf("admin reveal status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, router, http.MethodGet, boardPath, "", "")
	entries := decodeData[[]leaderboardEntryDTO](t, rec)
	if len(entries) != 1 {
		t.Fatalf("revealed entries = %+v, want one", entries)
	}
	if entries[0].UserID != "user-m1" || entries[0].WeeklyPoints != 50+2*100 || entries[0].Position != 1 {
		t.Fatalf("unexpected entry: %+v", entries[0])
	}
}

func TestRouter_PreviewRequiresLeader(t *testing.T) {
	router := newTestRouter(t)
	previewPath := "/v1/sessions/" + memory.SessionIDSpringWeek1 + "/leaderboard/preview"
	scorePath := "/v1/sessions/" + memory.SessionIDSpringWeek1 + "/scores/user-m1"

	if rec := doRequest(t, router, http.MethodPut, scorePath, "red-lead-token", `{"metrics":{"attendance":1}}`); rec.Code != http.StatusOK {
		t.Fatalf("upsert status = %d", rec.Code)
	}

	if rec := doRequest(t, router, http.MethodGet, previewPath, "", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous preview status = %d, want 401", rec.Code)
	}
	if rec := doRequest(t, router, http.MethodPost, "/v1/reveal/users/user-m1", "admin-token", ""); rec.Code != http.StatusOK {
		t.Fatalf("reveal status = %d", rec.Code)
	}

	// Preview reads draft scores and sees the points.
	rec := doRequest(t, router, http.MethodGet, previewPath, "red-lead-token", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("leader preview status = %d, body %s", rec.Code, rec.Body.String())
	}
	entries := decodeData[[]leaderboardEntryDTO](t, rec)
	if len(entries) != 1 || entries[0].UserID != "user-m1" || entries[0].WeeklyPoints == 0 {
		t.Fatalf("preview entries = %+v", entries)
	}

	// A revealed member still appears on the public board before publish,
	// just with nothing published to count.
	publicPath := "/v1/sessions/" + memory.SessionIDSpringWeek1 + "/leaderboard"
	rec = doRequest(t, router, http.MethodGet, publicPath, "", "")
	entries = decodeData[[]leaderboardEntryDTO](t, rec)
	if len(entries) != 1 || entries[0].UserID != "user-m1" || entries[0].WeeklyPoints != 0 {
		t.Fatalf("public entries before publish = %+v, want one zero-point row", entries)
	}
}

func TestRouter_DisplayStateIsPublic(t *testing.T) {
	router := newTestRouter(t)

	if rec := doRequest(t, router, http.MethodPost, "/v1/reveal/users/user-m1", "admin-token", ""); rec.Code != http.StatusOK {
		t.Fatalf("reveal status = %d", rec.Code)
	}

	rec := doRequest(t, router, http.MethodGet, "/v1/display/state", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("display state status = %d", rec.Code)
	}
	state := decodeData[revealStateDTO](t, rec)
	if len(state.UserIDs) != 1 || state.UserIDs[0] != "user-m1" {
		t.Fatalf("unexpected reveal state: %+v", state)
	}
	if state.Version == 0 {
		t.Fatal("reveal state version must advance past zero")
	}
}
