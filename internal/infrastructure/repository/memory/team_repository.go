package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/chapterpoints/chapter-scoring/internal/domain/team"
)

type TeamRepository struct {
	mu     sync.RWMutex
	items  map[string]team.Team
	orders []string
}

func NewTeamRepository(teams []team.Team) *TeamRepository {
	items := make(map[string]team.Team, len(teams))
	orders := make([]string, 0, len(teams))

	for _, t := range teams {
		items[t.ID] = t
		orders = append(orders, t.ID)
	}

	return &TeamRepository{
		items:  items,
		orders: orders,
	}
}

func (r *TeamRepository) ListBySeason(_ context.Context, seasonID string) ([]team.Team, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]team.Team, 0, len(r.orders))
	for _, id := range r.orders {
		if t := r.items[id]; t.SeasonID == seasonID {
			out = append(out, t)
		}
	}

	return out, nil
}

func (r *TeamRepository) GetByID(_ context.Context, teamID string) (team.Team, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.items[teamID]
	if !ok {
		return team.Team{}, false, nil
	}

	return t, true, nil
}

func (r *TeamRepository) Create(_ context.Context, item team.Team) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[item.ID]; exists {
		return fmt.Errorf("team %s already exists", item.ID)
	}
	r.items[item.ID] = item
	r.orders = append(r.orders, item.ID)

	return nil
}

func (r *TeamRepository) Update(_ context.Context, item team.Team) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[item.ID]; !exists {
		return fmt.Errorf("team %s not found", item.ID)
	}
	r.items[item.ID] = item

	return nil
}

// appendMembers adds drafted users to each team roster in one locked sweep.
// Used by the draft repository when a draft is finalized; re-finalizing the
// same draft does not duplicate roster entries.
func (r *TeamRepository) appendMembers(membersByTeam map[string][]string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for teamID, userIDs := range membersByTeam {
		t, ok := r.items[teamID]
		if !ok {
			continue
		}
		existing := make(map[string]struct{}, len(t.MemberIDs))
		for _, id := range t.MemberIDs {
			existing[id] = struct{}{}
		}
		for _, id := range userIDs {
			if _, dup := existing[id]; dup {
				continue
			}
			t.MemberIDs = append(t.MemberIDs, id)
			existing[id] = struct{}{}
		}
		r.items[teamID] = t
	}
}
