package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chapterpoints/chapter-scoring/internal/domain/draft"
)

// DraftRepository owns draft state and, on finalize, pushes the resulting
// user-to-team assignments into the user and team repositories.
type DraftRepository struct {
	mu       sync.RWMutex
	items    map[string]draft.Draft
	bySeason map[string]string
	users    *UserRepository
	teams    *TeamRepository
}

func NewDraftRepository(users *UserRepository, teams *TeamRepository) *DraftRepository {
	return &DraftRepository{
		items:    make(map[string]draft.Draft),
		bySeason: make(map[string]string),
		users:    users,
		teams:    teams,
	}
}

func (r *DraftRepository) GetByID(_ context.Context, draftID string) (draft.Draft, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.items[draftID]
	if !ok {
		return draft.Draft{}, false, nil
	}

	return cloneDraft(d), true, nil
}

func (r *DraftRepository) GetBySeason(_ context.Context, seasonID string) (draft.Draft, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	draftID, ok := r.bySeason[seasonID]
	if !ok {
		return draft.Draft{}, false, nil
	}

	return cloneDraft(r.items[draftID]), true, nil
}

func (r *DraftRepository) Create(_ context.Context, item draft.Draft) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.bySeason[item.SeasonID]; exists {
		return draft.ErrDraftExists
	}
	if _, exists := r.items[item.ID]; exists {
		return fmt.Errorf("draft %s already exists", item.ID)
	}

	r.items[item.ID] = cloneDraft(item)
	r.bySeason[item.SeasonID] = item.ID

	return nil
}

// AppendPick compares the stored pick counter against expectedPickNumber,
// then appends and advances under one lock. A losing racer gets
// draft.ErrPickConflict and no write.
func (r *DraftRepository) AppendPick(_ context.Context, draftID string, expectedPickNumber int, pick draft.Pick) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.items[draftID]
	if !ok {
		return fmt.Errorf("draft %s not found", draftID)
	}
	if d.CurrentPickNumber != expectedPickNumber {
		return draft.ErrPickConflict
	}

	d.Picks = append(d.Picks, pick)
	d.CurrentPickNumber++
	d.UpdatedAt = pick.PickedAt
	r.items[draftID] = d

	return nil
}

func (r *DraftRepository) UpdateTeamLeaders(_ context.Context, draftID string, leaders []draft.TeamLeaderSlot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.items[draftID]
	if !ok {
		return fmt.Errorf("draft %s not found", draftID)
	}

	d.TeamLeaders = append([]draft.TeamLeaderSlot(nil), leaders...)
	r.items[draftID] = d

	return nil
}

// Finalize marks the draft completed and applies every user-to-team
// assignment. The draft flip and the assignments happen while the draft lock
// is held, so a second finalize attempt observes the completed status.
func (r *DraftRepository) Finalize(_ context.Context, draftID string, assignments map[string]string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.items[draftID]
	if !ok {
		return fmt.Errorf("draft %s not found", draftID)
	}

	d.Status = draft.StatusCompleted
	d.UpdatedAt = time.Now()
	r.items[draftID] = d

	if r.users != nil {
		r.users.assignTeams(assignments)
	}
	if r.teams != nil {
		membersByTeam := make(map[string][]string, len(assignments))
		for userID, teamID := range assignments {
			membersByTeam[teamID] = append(membersByTeam[teamID], userID)
		}
		r.teams.appendMembers(membersByTeam)
	}

	return nil
}

func cloneDraft(d draft.Draft) draft.Draft {
	d.TeamLeaders = append([]draft.TeamLeaderSlot(nil), d.TeamLeaders...)
	d.Picks = append([]draft.Pick(nil), d.Picks...)
	return d
}
