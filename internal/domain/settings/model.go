package settings

import (
	"fmt"
	"time"
)

// PointValues maps a metric name to the points awarded per recorded unit.
type PointValues map[string]int

// BonusValues maps a metric name to the flat team bonus awarded when every
// eligible member recorded at least one unit of that metric.
type BonusValues map[string]int

// Settings holds the chapter-wide default scoring tables. A season may carry
// its own tables; these apply when the season leaves them empty.
type Settings struct {
	PointValues PointValues
	BonusValues BonusValues
	UpdatedAt   time.Time
}

func (s Settings) Validate() error {
	if len(s.PointValues) == 0 {
		return fmt.Errorf("point values are required")
	}
	for name, value := range s.PointValues {
		if value < 0 {
			return fmt.Errorf("point value for %s cannot be negative", name)
		}
	}
	for name, value := range s.BonusValues {
		if value < 0 {
			return fmt.Errorf("bonus value for %s cannot be negative", name)
		}
	}

	return nil
}

// Clone returns a deep copy so callers can mutate tables safely.
func (s Settings) Clone() Settings {
	out := Settings{
		PointValues: make(PointValues, len(s.PointValues)),
		BonusValues: make(BonusValues, len(s.BonusValues)),
		UpdatedAt:   s.UpdatedAt,
	}
	for k, v := range s.PointValues {
		out.PointValues[k] = v
	}
	for k, v := range s.BonusValues {
		out.BonusValues[k] = v
	}
	return out
}
