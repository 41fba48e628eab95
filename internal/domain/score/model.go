package score

import (
	"fmt"
	"time"
)

// Canonical metric names. CEU is optional and never part of the all-in bonus
// categories.
const (
	MetricAttendance = "attendance"
	MetricOne21s     = "one21s"
	MetricReferrals  = "referrals"
	MetricTYFCB      = "tyfcb"
	MetricVisitors   = "visitors"
	MetricCEU        = "ceu"
)

// BonusCategories are the metrics that can earn a team all-in bonus.
func BonusCategories() []string {
	return []string{MetricAttendance, MetricOne21s, MetricReferrals, MetricTYFCB, MetricVisitors}
}

// KnownMetrics are the metric names a score entry may carry.
func KnownMetrics() []string {
	return append(BonusCategories(), MetricCEU)
}

// Metrics holds per-metric integer counters for one user in one session.
// Absent keys count as zero.
type Metrics map[string]int

// Get returns the counter for name, treating absent keys as zero.
func (m Metrics) Get(name string) int {
	if m == nil {
		return 0
	}
	return m[name]
}

func (m Metrics) Validate() error {
	known := make(map[string]struct{}, len(KnownMetrics()))
	for _, name := range KnownMetrics() {
		known[name] = struct{}{}
	}
	for name, value := range m {
		if _, ok := known[name]; !ok {
			return fmt.Errorf("unknown metric %q", name)
		}
		if value < 0 {
			return fmt.Errorf("metric %s cannot be negative", name)
		}
	}

	return nil
}

// Clone returns a copy safe to mutate.
func (m Metrics) Clone() Metrics {
	out := make(Metrics, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Score is the single score record for one (user, session) pair.
//
// TotalPoints is derived from Metrics at write time; readers that need the
// authoritative value recompute it rather than trusting this field.
type Score struct {
	ID          string
	UserID      string
	SessionID   string
	Metrics     Metrics
	TotalPoints int
	// IsDraft is true while the score is team-leader-entered and unpublished.
	IsDraft     bool
	EnteredBy   string
	PublishedBy string
	PublishedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (s Score) Validate() error {
	if s.UserID == "" {
		return fmt.Errorf("score user id is required")
	}
	if s.SessionID == "" {
		return fmt.Errorf("score session id is required")
	}
	if err := s.Metrics.Validate(); err != nil {
		return err
	}

	return nil
}
