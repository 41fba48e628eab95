package draft

import (
	"fmt"
	"time"
)

type Status string

const (
	StatusSetup      Status = "setup"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// TeamLeaderSlot fixes a team leader's position in the round-robin pick order.
// Positions across a draft form a contiguous 1..N permutation, N = team count.
type TeamLeaderSlot struct {
	TeamID        string
	UserID        string
	DraftPosition int
}

// Pick is one recorded selection. Immutable once appended.
type Pick struct {
	UserID     string
	TeamID     string
	Round      int
	PickNumber int
	PickedBy   string
	PickedAt   time.Time
}

// Draft is the per-season state machine allocating members to teams.
type Draft struct {
	ID          string
	SeasonID    string
	TeamLeaders []TeamLeaderSlot
	// Picks is append-only, ordered by PickNumber.
	Picks []Pick
	// CurrentPickNumber is the zero-based global index of the next pick.
	CurrentPickNumber int
	Status            Status
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (d Draft) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("draft id is required")
	}
	if d.SeasonID == "" {
		return fmt.Errorf("draft season id is required")
	}
	if len(d.TeamLeaders) == 0 {
		return fmt.Errorf("draft requires at least one team leader")
	}
	return ValidatePositions(d.TeamLeaders)
}

// ValidatePositions checks that draft positions form a contiguous 1..N
// permutation over distinct teams.
func ValidatePositions(leaders []TeamLeaderSlot) error {
	seenPos := make(map[int]struct{}, len(leaders))
	seenTeam := make(map[string]struct{}, len(leaders))
	for _, slot := range leaders {
		if slot.DraftPosition < 1 || slot.DraftPosition > len(leaders) {
			return fmt.Errorf("draft position %d outside 1..%d", slot.DraftPosition, len(leaders))
		}
		if _, dup := seenPos[slot.DraftPosition]; dup {
			return fmt.Errorf("duplicate draft position %d", slot.DraftPosition)
		}
		if _, dup := seenTeam[slot.TeamID]; dup {
			return fmt.Errorf("duplicate team %s in draft order", slot.TeamID)
		}
		seenPos[slot.DraftPosition] = struct{}{}
		seenTeam[slot.TeamID] = struct{}{}
	}

	return nil
}

// SlotAtPosition returns the leader slot holding the given draft position.
func (d Draft) SlotAtPosition(position int) (TeamLeaderSlot, bool) {
	for _, slot := range d.TeamLeaders {
		if slot.DraftPosition == position {
			return slot, true
		}
	}
	return TeamLeaderSlot{}, false
}
