package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/chapterpoints/chapter-scoring/internal/domain/draft"
	"github.com/chapterpoints/chapter-scoring/internal/domain/score"
	"github.com/chapterpoints/chapter-scoring/internal/domain/season"
	"github.com/chapterpoints/chapter-scoring/internal/domain/session"
	"github.com/chapterpoints/chapter-scoring/internal/domain/team"
	"github.com/chapterpoints/chapter-scoring/internal/domain/user"
	"github.com/chapterpoints/chapter-scoring/internal/platform/id"
	"github.com/chapterpoints/chapter-scoring/internal/platform/logging"
)

// DraftService runs the per-season member draft: one draft per season,
// round-robin turn order over the configured leader positions, picks recorded
// through a compare-and-swap append so two leaders can never claim the same
// pick number.
type DraftService struct {
	draftRepo   draft.Repository
	seasonRepo  season.Repository
	teamRepo    team.Repository
	userRepo    user.Repository
	sessionRepo session.Repository
	scoreRepo   score.Repository
	idGen       id.Generator
	logger      *logging.Logger
}

func NewDraftService(
	draftRepo draft.Repository,
	seasonRepo season.Repository,
	teamRepo team.Repository,
	userRepo user.Repository,
	sessionRepo session.Repository,
	scoreRepo score.Repository,
	idGen id.Generator,
	logger *logging.Logger,
) *DraftService {
	if logger == nil {
		logger = logging.Default()
	}
	return &DraftService{
		draftRepo:   draftRepo,
		seasonRepo:  seasonRepo,
		teamRepo:    teamRepo,
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		scoreRepo:   scoreRepo,
		idGen:       idGen,
		logger:      logger,
	}
}

// Create starts a season's draft. The leader slots must cover every team of
// the season exactly once with contiguous positions, and each slot's user
// must lead that team.
func (s *DraftService) Create(ctx context.Context, seasonID string, leaders []draft.TeamLeaderSlot) (draft.Draft, error) {
	ctx, span := startUsecaseSpan(ctx, "DraftService.Create")
	defer span.End()

	seasonID = strings.TrimSpace(seasonID)
	if seasonID == "" {
		return draft.Draft{}, fmt.Errorf("%w: season id is required", ErrInvalidInput)
	}

	_, exists, err := s.seasonRepo.GetByID(ctx, seasonID)
	if err != nil {
		return draft.Draft{}, fmt.Errorf("get season: %w", err)
	}
	if !exists {
		return draft.Draft{}, fmt.Errorf("%w: season=%s", ErrNotFound, seasonID)
	}

	teams, err := s.teamRepo.ListBySeason(ctx, seasonID)
	if err != nil {
		return draft.Draft{}, fmt.Errorf("list teams: %w", err)
	}
	if err := validateDraftSetup(leaders, teams); err != nil {
		return draft.Draft{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	draftID, err := s.idGen.NewID()
	if err != nil {
		return draft.Draft{}, fmt.Errorf("generate draft id: %w", err)
	}

	now := time.Now()
	item := draft.Draft{
		ID:                draftID,
		SeasonID:          seasonID,
		TeamLeaders:       append([]draft.TeamLeaderSlot(nil), leaders...),
		Picks:             []draft.Pick{},
		CurrentPickNumber: 0,
		Status:            draft.StatusInProgress,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.draftRepo.Create(ctx, item); err != nil {
		if isDraftExists(err) {
			return draft.Draft{}, fmt.Errorf("%w: season %s already has a draft", ErrConflict, seasonID)
		}
		return draft.Draft{}, fmt.Errorf("create draft: %w", err)
	}

	s.logger.InfoContext(ctx, "draft created", "draft_id", draftID, "season_id", seasonID, "teams", len(leaders))
	return item, nil
}

// validateDraftSetup demands exactly one leader slot per season team, a valid
// 1..N position permutation, and the team's own leader in each slot.
func validateDraftSetup(leaders []draft.TeamLeaderSlot, teams []team.Team) error {
	if len(teams) == 0 {
		return fmt.Errorf("season has no teams")
	}
	if len(leaders) != len(teams) {
		return fmt.Errorf("need exactly %d teams with %d leaders, got %d", len(teams), len(teams), len(leaders))
	}
	if err := draft.ValidatePositions(leaders); err != nil {
		return err
	}

	teamsByID := make(map[string]team.Team, len(teams))
	for _, t := range teams {
		teamsByID[t.ID] = t
	}
	for _, slot := range leaders {
		t, ok := teamsByID[slot.TeamID]
		if !ok {
			return fmt.Errorf("team %s is not part of the season", slot.TeamID)
		}
		if t.TeamLeaderID != slot.UserID {
			return fmt.Errorf("user %s does not lead team %s", slot.UserID, slot.TeamID)
		}
	}

	return nil
}

// DraftOrderEntry is one team in a computed draft order.
type DraftOrderEntry struct {
	TeamID      string
	Name        string
	TotalPoints int
}

// CalculateDraftOrder ranks the previous season's teams ascending by their
// members' published score totals, so the weakest team drafts first. An
// unknown or empty previous season yields an empty order and the caller
// arranges positions manually.
func (s *DraftService) CalculateDraftOrder(ctx context.Context, previousSeasonID string) ([]DraftOrderEntry, error) {
	ctx, span := startUsecaseSpan(ctx, "DraftService.CalculateDraftOrder")
	defer span.End()

	previousSeasonID = strings.TrimSpace(previousSeasonID)
	if previousSeasonID == "" {
		return nil, fmt.Errorf("%w: previous season id is required", ErrInvalidInput)
	}

	teams, err := s.teamRepo.ListBySeason(ctx, previousSeasonID)
	if err != nil {
		return nil, fmt.Errorf("list previous season teams: %w", err)
	}
	if len(teams) == 0 {
		return []DraftOrderEntry{}, nil
	}

	sessions, err := s.sessionRepo.ListBySeason(ctx, previousSeasonID)
	if err != nil {
		return nil, fmt.Errorf("list previous season sessions: %w", err)
	}
	sessionIDs := make([]string, 0, len(sessions))
	for _, sess := range sessions {
		sessionIDs = append(sessionIDs, sess.ID)
	}

	scores, err := s.scoreRepo.ListBySessions(ctx, sessionIDs, true)
	if err != nil {
		return nil, fmt.Errorf("list previous season scores: %w", err)
	}

	// Published totals are already validated at publish time, so the stored
	// value is acceptable here.
	totalsByUser := make(map[string]int, len(scores))
	for _, sc := range scores {
		totalsByUser[sc.UserID] += sc.TotalPoints
	}

	order := make([]DraftOrderEntry, 0, len(teams))
	for _, t := range teams {
		entry := DraftOrderEntry{TeamID: t.ID, Name: t.Name}
		for _, memberID := range t.MemberIDs {
			entry.TotalPoints += totalsByUser[memberID]
		}
		order = append(order, entry)
	}

	sort.Slice(order, func(i, j int) bool { return order[i].TeamID < order[j].TeamID })
	sort.SliceStable(order, func(i, j int) bool { return order[i].TotalPoints < order[j].TotalPoints })

	return order, nil
}

// CurrentTurn returns the leader slot holding the next pick, or false once
// the draft is completed.
func (s *DraftService) CurrentTurn(ctx context.Context, draftID string) (draft.TeamLeaderSlot, bool, error) {
	ctx, span := startUsecaseSpan(ctx, "DraftService.CurrentTurn")
	defer span.End()

	d, err := s.getDraft(ctx, draftID)
	if err != nil {
		return draft.TeamLeaderSlot{}, false, err
	}

	return currentTurn(d)
}

// currentTurn realizes the round-robin order: position repeats identically
// every round (1,2,...,N,1,2,...), never snaking.
func currentTurn(d draft.Draft) (draft.TeamLeaderSlot, bool, error) {
	if d.Status == draft.StatusCompleted {
		return draft.TeamLeaderSlot{}, false, nil
	}
	if len(d.TeamLeaders) == 0 {
		return draft.TeamLeaderSlot{}, false, fmt.Errorf("%w: draft has no team leaders", ErrInvalidInput)
	}

	position := (d.CurrentPickNumber % len(d.TeamLeaders)) + 1
	slot, ok := d.SlotAtPosition(position)
	if !ok {
		return draft.TeamLeaderSlot{}, false, fmt.Errorf("%w: no leader at draft position %d", ErrInvalidInput, position)
	}

	return slot, true, nil
}

// MakePick records one selection. The engine itself rejects out-of-turn
// teams and already-picked or ineligible users; the append is a
// compare-and-swap, so a concurrent winner forces ErrConflict with no retry.
func (s *DraftService) MakePick(ctx context.Context, draftID, userID, teamID, pickedBy string) (draft.Pick, error) {
	ctx, span := startUsecaseSpan(ctx, "DraftService.MakePick")
	defer span.End()

	userID = strings.TrimSpace(userID)
	teamID = strings.TrimSpace(teamID)
	if userID == "" || teamID == "" {
		return draft.Pick{}, fmt.Errorf("%w: user id and team id are required", ErrInvalidInput)
	}

	d, err := s.getDraft(ctx, draftID)
	if err != nil {
		return draft.Pick{}, err
	}
	if d.Status == draft.StatusCompleted {
		return draft.Pick{}, fmt.Errorf("%w: draft is completed", ErrInvalidInput)
	}

	turn, active, err := currentTurn(d)
	if err != nil {
		return draft.Pick{}, err
	}
	if !active {
		return draft.Pick{}, fmt.Errorf("%w: draft is completed", ErrInvalidInput)
	}
	if turn.TeamID != teamID {
		return draft.Pick{}, fmt.Errorf("%w: team %s picks now, not %s", ErrInvalidInput, turn.TeamID, teamID)
	}

	available, err := s.availableUsers(ctx, d)
	if err != nil {
		return draft.Pick{}, err
	}
	eligible := false
	for _, u := range available {
		if u.ID == userID {
			eligible = true
			break
		}
	}
	if !eligible {
		return draft.Pick{}, fmt.Errorf("%w: user %s is not available to pick", ErrInvalidInput, userID)
	}

	pick := draft.Pick{
		UserID:     userID,
		TeamID:     teamID,
		Round:      d.CurrentPickNumber/len(d.TeamLeaders) + 1,
		PickNumber: d.CurrentPickNumber,
		PickedBy:   pickedBy,
		PickedAt:   time.Now(),
	}
	if err := s.draftRepo.AppendPick(ctx, d.ID, d.CurrentPickNumber, pick); err != nil {
		if isPickConflict(err) {
			return draft.Pick{}, fmt.Errorf("%w: pick %d was already taken", ErrConflict, d.CurrentPickNumber)
		}
		return draft.Pick{}, fmt.Errorf("append pick: %w", err)
	}

	s.logger.InfoContext(ctx, "draft pick recorded",
		"draft_id", d.ID,
		"user_id", userID,
		"team_id", teamID,
		"pick_number", pick.PickNumber,
		"round", pick.Round,
	)
	return pick, nil
}

// AvailableUsers lists who can still be drafted: active non-admin users who
// are not team leaders and have not been picked yet.
func (s *DraftService) AvailableUsers(ctx context.Context, draftID string) ([]user.User, error) {
	ctx, span := startUsecaseSpan(ctx, "DraftService.AvailableUsers")
	defer span.End()

	d, err := s.getDraft(ctx, draftID)
	if err != nil {
		return nil, err
	}

	return s.availableUsers(ctx, d)
}

func (s *DraftService) availableUsers(ctx context.Context, d draft.Draft) ([]user.User, error) {
	users, err := s.userRepo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active users: %w", err)
	}

	taken := make(map[string]struct{}, len(d.Picks)+len(d.TeamLeaders))
	for _, slot := range d.TeamLeaders {
		taken[slot.UserID] = struct{}{}
	}
	for _, pick := range d.Picks {
		taken[pick.UserID] = struct{}{}
	}

	out := make([]user.User, 0, len(users))
	for _, u := range users {
		if u.Role == user.RoleAdmin {
			continue
		}
		if _, ok := taken[u.ID]; ok {
			continue
		}
		out = append(out, u)
	}

	return out, nil
}

// UpdateDraftOrder lets an admin rearrange leader positions mid-setup. The
// new slots must be a full permutation over the same teams.
func (s *DraftService) UpdateDraftOrder(ctx context.Context, draftID string, leaders []draft.TeamLeaderSlot) (draft.Draft, error) {
	ctx, span := startUsecaseSpan(ctx, "DraftService.UpdateDraftOrder")
	defer span.End()

	d, err := s.getDraft(ctx, draftID)
	if err != nil {
		return draft.Draft{}, err
	}
	if d.Status == draft.StatusCompleted {
		return draft.Draft{}, fmt.Errorf("%w: draft is completed", ErrInvalidInput)
	}

	if len(leaders) != len(d.TeamLeaders) {
		return draft.Draft{}, fmt.Errorf("%w: expected %d leader slots, got %d", ErrInvalidInput, len(d.TeamLeaders), len(leaders))
	}
	if err := draft.ValidatePositions(leaders); err != nil {
		return draft.Draft{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	existing := make(map[string]string, len(d.TeamLeaders))
	for _, slot := range d.TeamLeaders {
		existing[slot.TeamID] = slot.UserID
	}
	for _, slot := range leaders {
		leaderID, ok := existing[slot.TeamID]
		if !ok {
			return draft.Draft{}, fmt.Errorf("%w: team %s is not part of the draft", ErrInvalidInput, slot.TeamID)
		}
		if leaderID != slot.UserID {
			return draft.Draft{}, fmt.Errorf("%w: user %s does not lead team %s", ErrInvalidInput, slot.UserID, slot.TeamID)
		}
	}

	if err := s.draftRepo.UpdateTeamLeaders(ctx, d.ID, leaders); err != nil {
		return draft.Draft{}, fmt.Errorf("update draft order: %w", err)
	}

	d.TeamLeaders = append([]draft.TeamLeaderSlot(nil), leaders...)
	return d, nil
}

// Finalize assigns every picked user to their picked team in one atomic
// write and marks the draft completed. A completed draft cannot be finalized
// again.
func (s *DraftService) Finalize(ctx context.Context, draftID string) (draft.Draft, error) {
	ctx, span := startUsecaseSpan(ctx, "DraftService.Finalize")
	defer span.End()

	d, err := s.getDraft(ctx, draftID)
	if err != nil {
		return draft.Draft{}, err
	}
	if d.Status == draft.StatusCompleted {
		return draft.Draft{}, fmt.Errorf("%w: draft is already completed", ErrInvalidInput)
	}

	assignments := make(map[string]string, len(d.Picks))
	for _, pick := range d.Picks {
		assignments[pick.UserID] = pick.TeamID
	}

	if err := s.draftRepo.Finalize(ctx, d.ID, assignments); err != nil {
		return draft.Draft{}, fmt.Errorf("finalize draft: %w", err)
	}

	d.Status = draft.StatusCompleted
	s.logger.InfoContext(ctx, "draft finalized", "draft_id", d.ID, "assigned_users", len(assignments))
	return d, nil
}

// GetBySeason fetches a season's draft.
func (s *DraftService) GetBySeason(ctx context.Context, seasonID string) (draft.Draft, error) {
	ctx, span := startUsecaseSpan(ctx, "DraftService.GetBySeason")
	defer span.End()

	seasonID = strings.TrimSpace(seasonID)
	if seasonID == "" {
		return draft.Draft{}, fmt.Errorf("%w: season id is required", ErrInvalidInput)
	}

	d, exists, err := s.draftRepo.GetBySeason(ctx, seasonID)
	if err != nil {
		return draft.Draft{}, fmt.Errorf("get draft by season: %w", err)
	}
	if !exists {
		return draft.Draft{}, fmt.Errorf("%w: no draft for season=%s", ErrNotFound, seasonID)
	}

	return d, nil
}

func (s *DraftService) getDraft(ctx context.Context, draftID string) (draft.Draft, error) {
	draftID = strings.TrimSpace(draftID)
	if draftID == "" {
		return draft.Draft{}, fmt.Errorf("%w: draft id is required", ErrInvalidInput)
	}

	d, exists, err := s.draftRepo.GetByID(ctx, draftID)
	if err != nil {
		return draft.Draft{}, fmt.Errorf("get draft: %w", err)
	}
	if !exists {
		return draft.Draft{}, fmt.Errorf("%w: draft=%s", ErrNotFound, draftID)
	}

	return d, nil
}
