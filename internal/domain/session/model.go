package session

import (
	"fmt"
	"strings"
	"time"
)

type Status string

const (
	StatusDraft  Status = "draft"
	StatusOpen   Status = "open"
	StatusClosed Status = "closed"
)

func ParseStatus(v string) (Status, error) {
	switch Status(strings.ToLower(strings.TrimSpace(v))) {
	case StatusDraft:
		return StatusDraft, nil
	case StatusOpen:
		return StatusOpen, nil
	case StatusClosed:
		return StatusClosed, nil
	default:
		return "", fmt.Errorf("invalid session status %q", v)
	}
}

// Session is one competition week within a season.
type Session struct {
	ID         string
	SeasonID   string
	WeekNumber int
	Status     Status
	IsArchived bool
	// ExcludedUserIDs removes members from all-in bonus eligibility for this
	// week only; an excluded member counts in neither numerator nor denominator.
	ExcludedUserIDs []string
	// TeamCustomBonuses holds ad hoc point awards keyed by team ID, added to a
	// team's bonus points unconditionally.
	TeamCustomBonuses map[string]int
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (s Session) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("session id is required")
	}
	if s.SeasonID == "" {
		return fmt.Errorf("session season id is required")
	}
	if s.WeekNumber <= 0 {
		return fmt.Errorf("session week number must be greater than zero")
	}
	if _, err := ParseStatus(string(s.Status)); err != nil {
		return err
	}

	return nil
}

// IsExcluded reports whether userID is excluded from bonus eligibility.
func (s Session) IsExcluded(userID string) bool {
	for _, id := range s.ExcludedUserIDs {
		if id == userID {
			return true
		}
	}
	return false
}
