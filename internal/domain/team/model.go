package team

import (
	"fmt"
	"strings"
	"time"
)

// Team is one competing roster within a season.
type Team struct {
	ID           string
	SeasonID     string
	Name         string
	Color        string
	TeamLeaderID string
	MemberIDs    []string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (t Team) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("team id is required")
	}
	if t.SeasonID == "" {
		return fmt.Errorf("team season id is required")
	}
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("team name is required")
	}

	return nil
}

// HasMember reports whether userID is on the team roster.
func (t Team) HasMember(userID string) bool {
	for _, id := range t.MemberIDs {
		if id == userID {
			return true
		}
	}
	return false
}
