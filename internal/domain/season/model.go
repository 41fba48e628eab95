package season

import (
	"fmt"
	"strings"
	"time"

	"github.com/chapterpoints/chapter-scoring/internal/domain/settings"
)

// Season is a multi-week competitive period with its own scoring tables.
// At most one season is active system-wide at any time.
type Season struct {
	ID          string
	Name        string
	WeekCount   int
	CurrentWeek int
	IsActive    bool
	PointValues settings.PointValues
	BonusValues settings.BonusValues
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (s Season) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("season id is required")
	}
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("season name is required")
	}
	if s.WeekCount <= 0 {
		return fmt.Errorf("season week count must be greater than zero")
	}
	if s.CurrentWeek < 0 || s.CurrentWeek > s.WeekCount {
		return fmt.Errorf("season current week must be within 0..%d", s.WeekCount)
	}

	return nil
}
