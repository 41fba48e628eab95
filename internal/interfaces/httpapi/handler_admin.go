package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/chapterpoints/chapter-scoring/internal/domain/season"
	"github.com/chapterpoints/chapter-scoring/internal/domain/session"
	"github.com/chapterpoints/chapter-scoring/internal/domain/settings"
	"github.com/chapterpoints/chapter-scoring/internal/usecase"
)

type createSeasonRequest struct {
	Name        string         `json:"name" validate:"required,max=100"`
	WeekCount   int            `json:"weekCount" validate:"required,min=1,max=53"`
	PointValues map[string]int `json:"pointValues"`
	BonusValues map[string]int `json:"bonusValues"`
}

type updateSeasonRequest struct {
	Name        string         `json:"name" validate:"required,max=100"`
	WeekCount   int            `json:"weekCount" validate:"required,min=1,max=53"`
	CurrentWeek int            `json:"currentWeek" validate:"min=0"`
	PointValues map[string]int `json:"pointValues"`
	BonusValues map[string]int `json:"bonusValues"`
}

type seasonDTO struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	WeekCount   int            `json:"weekCount"`
	CurrentWeek int            `json:"currentWeek"`
	IsActive    bool           `json:"isActive"`
	PointValues map[string]int `json:"pointValues"`
	BonusValues map[string]int `json:"bonusValues"`
	UpdatedAt   string         `json:"updatedAt"`
}

type createSessionRequest struct {
	WeekNumber int `json:"weekNumber" validate:"required,min=1"`
}

type updateSessionRequest struct {
	Status            string         `json:"status" validate:"required"`
	IsArchived        bool           `json:"isArchived"`
	ExcludedUserIDs   []string       `json:"excludedUserIds" validate:"dive,required"`
	TeamCustomBonuses map[string]int `json:"teamCustomBonuses"`
}

type sessionDTO struct {
	ID                string         `json:"id"`
	SeasonID          string         `json:"seasonId"`
	WeekNumber        int            `json:"weekNumber"`
	Status            string         `json:"status"`
	IsArchived        bool           `json:"isArchived"`
	ExcludedUserIDs   []string       `json:"excludedUserIds"`
	TeamCustomBonuses map[string]int `json:"teamCustomBonuses"`
	UpdatedAt         string         `json:"updatedAt"`
}

type upsertSettingsRequest struct {
	PointValues map[string]int `json:"pointValues" validate:"required,min=1"`
	BonusValues map[string]int `json:"bonusValues" validate:"required,min=1"`
}

type settingsDTO struct {
	PointValues map[string]int `json:"pointValues"`
	BonusValues map[string]int `json:"bonusValues"`
	UpdatedAt   string         `json:"updatedAt"`
}

type recalcRequest struct {
	SeasonID   string   `json:"seasonId" validate:"required"`
	SessionIDs []string `json:"sessionIds" validate:"dive,required"`
	MaxWorkers int      `json:"maxWorkers" validate:"min=0,max=16"`
	DryRun     bool     `json:"dryRun"`
}

type recalcSessionResultDTO struct {
	SessionID  string `json:"sessionId"`
	Scanned    int    `json:"scanned"`
	Drifted    int    `json:"drifted"`
	Updated    int    `json:"updated"`
	Status     string `json:"status"`
	Message    string `json:"message,omitempty"`
	DurationMs int64  `json:"durationMs"`
}

type recalcResultDTO struct {
	SessionCount int                      `json:"sessionCount"`
	WorkerCount  int                      `json:"workerCount"`
	DryRun       bool                     `json:"dryRun"`
	Drifted      int                      `json:"drifted"`
	Updated      int                      `json:"updated"`
	FailedCount  int                      `json:"failedCount"`
	Sessions     []recalcSessionResultDTO `json:"sessions"`
}

func (h *Handler) ListSeasons(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListSeasons")
	defer span.End()

	seasons, err := h.seasonService.List(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	items := make([]seasonDTO, 0, len(seasons))
	for _, item := range seasons {
		items = append(items, seasonToDTO(item))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) GetActiveSeason(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetActiveSeason")
	defer span.End()

	item, exists, err := h.seasonService.GetActive(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	if !exists {
		writeSuccess(ctx, w, http.StatusOK, nil)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, seasonToDTO(item))
}

func (h *Handler) GetSeason(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetSeason")
	defer span.End()

	item, err := h.seasonService.GetByID(ctx, strings.TrimSpace(r.PathValue("seasonID")))
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, seasonToDTO(item))
}

func (h *Handler) CreateSeason(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CreateSeason")
	defer span.End()

	var req createSeasonRequest
	if err := h.decodeRequest(r.Body, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	item, err := h.seasonService.Create(ctx, season.Season{
		Name:        req.Name,
		WeekCount:   req.WeekCount,
		PointValues: settings.PointValues(req.PointValues),
		BonusValues: settings.BonusValues(req.BonusValues),
	})
	if err != nil {
		h.logger.WarnContext(ctx, "create season failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, seasonToDTO(item))
}

func (h *Handler) UpdateSeason(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.UpdateSeason")
	defer span.End()

	seasonID := strings.TrimSpace(r.PathValue("seasonID"))
	var req updateSeasonRequest
	if err := h.decodeRequest(r.Body, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	item, err := h.seasonService.Update(ctx, season.Season{
		ID:          seasonID,
		Name:        req.Name,
		WeekCount:   req.WeekCount,
		CurrentWeek: req.CurrentWeek,
		PointValues: settings.PointValues(req.PointValues),
		BonusValues: settings.BonusValues(req.BonusValues),
	})
	if err != nil {
		h.logger.WarnContext(ctx, "update season failed", "season_id", seasonID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, seasonToDTO(item))
}

func (h *Handler) ActivateSeason(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ActivateSeason")
	defer span.End()

	seasonID := strings.TrimSpace(r.PathValue("seasonID"))
	if err := h.seasonService.Activate(ctx, seasonID); err != nil {
		h.logger.WarnContext(ctx, "activate season failed", "season_id", seasonID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"seasonId": seasonID, "status": "active"})
}

func (h *Handler) ListSeasonSessions(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListSeasonSessions")
	defer span.End()

	seasonID := strings.TrimSpace(r.PathValue("seasonID"))
	sessions, err := h.sessionService.ListBySeason(ctx, seasonID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	items := make([]sessionDTO, 0, len(sessions))
	for _, item := range sessions {
		items = append(items, sessionToDTO(item))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetSession")
	defer span.End()

	item, err := h.sessionService.GetByID(ctx, strings.TrimSpace(r.PathValue("sessionID")))
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, sessionToDTO(item))
}

func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CreateSession")
	defer span.End()

	seasonID := strings.TrimSpace(r.PathValue("seasonID"))
	var req createSessionRequest
	if err := h.decodeRequest(r.Body, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	item, err := h.sessionService.Create(ctx, session.Session{
		SeasonID:   seasonID,
		WeekNumber: req.WeekNumber,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "create session failed", "season_id", seasonID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, sessionToDTO(item))
}

func (h *Handler) UpdateSession(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.UpdateSession")
	defer span.End()

	sessionID := strings.TrimSpace(r.PathValue("sessionID"))
	var req updateSessionRequest
	if err := h.decodeRequest(r.Body, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	item, err := h.sessionService.Update(ctx, session.Session{
		ID:                sessionID,
		Status:            session.Status(req.Status),
		IsArchived:        req.IsArchived,
		ExcludedUserIDs:   req.ExcludedUserIDs,
		TeamCustomBonuses: req.TeamCustomBonuses,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "update session failed", "session_id", sessionID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, sessionToDTO(item))
}

func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetSettings")
	defer span.End()

	item, err := h.settingsService.Get(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, settingsToDTO(item))
}

func (h *Handler) UpsertSettings(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.UpsertSettings")
	defer span.End()

	var req upsertSettingsRequest
	if err := h.decodeRequest(r.Body, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	item, err := h.settingsService.Upsert(ctx, settings.Settings{
		PointValues: settings.PointValues(req.PointValues),
		BonusValues: settings.BonusValues(req.BonusValues),
	})
	if err != nil {
		h.logger.WarnContext(ctx, "upsert settings failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, settingsToDTO(item))
}

func (h *Handler) RunRecalc(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunRecalc")
	defer span.End()

	var req recalcRequest
	if err := h.decodeRequest(r.Body, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.recalcService.Run(ctx, usecase.RecalcInput{
		SeasonID:   req.SeasonID,
		SessionIDs: req.SessionIDs,
		MaxWorkers: req.MaxWorkers,
		DryRun:     req.DryRun,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "recalculation failed", "season_id", req.SeasonID, "error", err)
		writeError(ctx, w, err)
		return
	}

	sessions := make([]recalcSessionResultDTO, 0, len(result.Sessions))
	for _, s := range result.Sessions {
		sessions = append(sessions, recalcSessionResultDTO{
			SessionID:  s.SessionID,
			Scanned:    s.Scanned,
			Drifted:    s.Drifted,
			Updated:    s.Updated,
			Status:     s.Status,
			Message:    s.Message,
			DurationMs: s.DurationMs,
		})
	}

	writeSuccess(ctx, w, http.StatusOK, recalcResultDTO{
		SessionCount: result.SessionCount,
		WorkerCount:  result.WorkerCount,
		DryRun:       result.DryRun,
		Drifted:      result.Drifted,
		Updated:      result.Updated,
		FailedCount:  result.FailedCount,
		Sessions:     sessions,
	})
}

func seasonToDTO(v season.Season) seasonDTO {
	return seasonDTO{
		ID:          v.ID,
		Name:        v.Name,
		WeekCount:   v.WeekCount,
		CurrentWeek: v.CurrentWeek,
		IsActive:    v.IsActive,
		PointValues: v.PointValues,
		BonusValues: v.BonusValues,
		UpdatedAt:   v.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func sessionToDTO(v session.Session) sessionDTO {
	excluded := v.ExcludedUserIDs
	if excluded == nil {
		excluded = []string{}
	}
	return sessionDTO{
		ID:                v.ID,
		SeasonID:          v.SeasonID,
		WeekNumber:        v.WeekNumber,
		Status:            string(v.Status),
		IsArchived:        v.IsArchived,
		ExcludedUserIDs:   excluded,
		TeamCustomBonuses: v.TeamCustomBonuses,
		UpdatedAt:         v.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func settingsToDTO(v settings.Settings) settingsDTO {
	return settingsDTO{
		PointValues: v.PointValues,
		BonusValues: v.BonusValues,
		UpdatedAt:   v.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
