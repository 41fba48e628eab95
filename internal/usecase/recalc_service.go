package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/chapterpoints/chapter-scoring/internal/domain/score"
	"github.com/chapterpoints/chapter-scoring/internal/domain/season"
	"github.com/chapterpoints/chapter-scoring/internal/domain/session"
	"github.com/chapterpoints/chapter-scoring/internal/domain/settings"
	"github.com/chapterpoints/chapter-scoring/internal/platform/logging"
)

const (
	defaultRecalcWorkers = 4
	maxRecalcWorkers     = 16
)

// RecalcService repairs stored score totals that drifted from the
// authoritative metrics-times-point-values formula, one session per worker.
type RecalcService struct {
	scoreRepo    score.Repository
	sessionRepo  session.Repository
	seasonRepo   season.Repository
	settingsRepo settings.Repository
	logger       *logging.Logger
}

func NewRecalcService(
	scoreRepo score.Repository,
	sessionRepo session.Repository,
	seasonRepo season.Repository,
	settingsRepo settings.Repository,
	logger *logging.Logger,
) *RecalcService {
	if logger == nil {
		logger = logging.Default()
	}
	return &RecalcService{
		scoreRepo:    scoreRepo,
		sessionRepo:  sessionRepo,
		seasonRepo:   seasonRepo,
		settingsRepo: settingsRepo,
		logger:       logger,
	}
}

type RecalcInput struct {
	SeasonID   string
	SessionIDs []string
	MaxWorkers int
	DryRun     bool
}

type RecalcSessionResult struct {
	SessionID  string
	Scanned    int
	Drifted    int
	Updated    int
	Status     string
	Message    string
	DurationMs int64
}

type RecalcResult struct {
	SessionCount int
	WorkerCount  int
	DryRun       bool
	Drifted      int
	Updated      int
	FailedCount  int
	Sessions     []RecalcSessionResult
}

const (
	recalcStatusSuccess = "success"
	recalcStatusFailed  = "failed"
)

// Run recomputes every stored total for the selected sessions and rewrites
// the drifted ones, unless DryRun only counts them.
func (s *RecalcService) Run(ctx context.Context, input RecalcInput) (RecalcResult, error) {
	ctx, span := startUsecaseSpan(ctx, "RecalcService.Run")
	defer span.End()

	seasonID := strings.TrimSpace(input.SeasonID)
	if seasonID == "" {
		return RecalcResult{}, fmt.Errorf("%w: season id is required", ErrInvalidInput)
	}

	seas, exists, err := s.seasonRepo.GetByID(ctx, seasonID)
	if err != nil {
		return RecalcResult{}, fmt.Errorf("get season: %w", err)
	}
	if !exists {
		return RecalcResult{}, fmt.Errorf("%w: season=%s", ErrNotFound, seasonID)
	}

	global, globalExists, err := s.settingsRepo.Get(ctx)
	if err != nil {
		return RecalcResult{}, fmt.Errorf("get settings: %w", err)
	}
	pointValues, _, configured := resolveValueTables(seas, global, globalExists)
	if !configured {
		return RecalcResult{}, fmt.Errorf("%w: no point values configured", ErrInvalidInput)
	}

	sessions, err := s.resolveSessions(ctx, seasonID, input.SessionIDs)
	if err != nil {
		return RecalcResult{}, err
	}

	workerCount := normalizeRecalcWorkerCount(input.MaxWorkers, len(sessions))
	result := RecalcResult{
		SessionCount: len(sessions),
		WorkerCount:  workerCount,
		DryRun:       input.DryRun,
		Sessions:     make([]RecalcSessionResult, 0, len(sessions)),
	}
	if len(sessions) == 0 {
		return result, nil
	}

	rows := make(chan RecalcSessionResult, len(sessions))
	var drifted, updated, failed atomic.Int32

	workerPool, err := ants.NewPool(workerCount)
	if err != nil {
		return RecalcResult{}, fmt.Errorf("create worker pool: %w", err)
	}
	defer workerPool.Release()

	var workers sync.WaitGroup
	for _, sess := range sessions {
		sess := sess
		workers.Add(1)
		if err := workerPool.Submit(func() {
			defer workers.Done()

			start := time.Now()
			row := s.recalcSession(ctx, sess.ID, pointValues, input.DryRun)
			row.DurationMs = time.Since(start).Milliseconds()

			drifted.Add(int32(row.Drifted))
			updated.Add(int32(row.Updated))
			if row.Status == recalcStatusFailed {
				failed.Add(1)
			}

			rows <- row
		}); err != nil {
			workers.Done()
			return RecalcResult{}, fmt.Errorf("submit task to worker pool: %w", err)
		}
	}

	workers.Wait()
	close(rows)

	for row := range rows {
		result.Sessions = append(result.Sessions, row)
	}
	sort.SliceStable(result.Sessions, func(i, j int) bool {
		return result.Sessions[i].SessionID < result.Sessions[j].SessionID
	})

	result.Drifted = int(drifted.Load())
	result.Updated = int(updated.Load())
	result.FailedCount = int(failed.Load())

	s.logger.InfoContext(ctx, "score recalculation finished",
		"season_id", seasonID,
		"sessions", result.SessionCount,
		"drifted", result.Drifted,
		"updated", result.Updated,
		"failed", result.FailedCount,
		"dry_run", input.DryRun,
	)
	return result, nil
}

func (s *RecalcService) resolveSessions(ctx context.Context, seasonID string, filter []string) ([]session.Session, error) {
	sessions, err := s.sessionRepo.ListBySeason(ctx, seasonID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	if len(filter) == 0 {
		return sessions, nil
	}

	wanted := make(map[string]struct{}, len(filter))
	for _, id := range filter {
		wanted[strings.TrimSpace(id)] = struct{}{}
	}
	out := make([]session.Session, 0, len(filter))
	for _, sess := range sessions {
		if _, ok := wanted[sess.ID]; ok {
			out = append(out, sess)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: none of the requested sessions belong to season %s", ErrInvalidInput, seasonID)
	}

	return out, nil
}

func (s *RecalcService) recalcSession(ctx context.Context, sessionID string, pointValues map[string]int, dryRun bool) RecalcSessionResult {
	row := RecalcSessionResult{SessionID: sessionID, Status: recalcStatusSuccess}

	scores, err := s.scoreRepo.ListBySession(ctx, sessionID, false)
	if err != nil {
		row.Status = recalcStatusFailed
		row.Message = err.Error()
		return row
	}
	row.Scanned = len(scores)

	for _, sc := range scores {
		recomputed := computeUserTotal(sc.Metrics, pointValues)
		if recomputed == sc.TotalPoints {
			continue
		}
		row.Drifted++
		if dryRun {
			continue
		}

		sc.TotalPoints = recomputed
		sc.UpdatedAt = time.Now()
		if err := s.scoreRepo.Upsert(ctx, sc); err != nil {
			row.Status = recalcStatusFailed
			row.Message = err.Error()
			return row
		}
		row.Updated++
	}

	return row
}

func normalizeRecalcWorkerCount(requested, taskCount int) int {
	workers := requested
	if workers <= 0 {
		workers = defaultRecalcWorkers
	}
	if workers > maxRecalcWorkers {
		workers = maxRecalcWorkers
	}
	if taskCount > 0 && workers > taskCount {
		workers = taskCount
	}
	if workers < 1 {
		workers = 1
	}
	return workers
}
