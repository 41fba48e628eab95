package usecase

import (
	"reflect"
	"sort"
	"testing"

	"github.com/chapterpoints/chapter-scoring/internal/domain/score"
	"github.com/chapterpoints/chapter-scoring/internal/domain/session"
	"github.com/chapterpoints/chapter-scoring/internal/domain/team"
)

func TestComputeUserTotal(t *testing.T) {
	t.Parallel()

	pointValues := map[string]int{
		score.MetricAttendance: 10,
		score.MetricOne21s:     5,
		score.MetricReferrals:  15,
		score.MetricVisitors:   20,
	}

	tests := []struct {
		name    string
		metrics score.Metrics
		want    int
	}{
		{
			name: "sums every configured metric",
			metrics: score.Metrics{
				score.MetricAttendance: 1,
				score.MetricOne21s:     3,
				score.MetricReferrals:  2,
			},
			want: 10 + 15 + 30,
		},
		{
			name:    "empty metrics score zero",
			metrics: score.Metrics{},
			want:    0,
		},
		{
			name: "unconfigured metric scores zero",
			metrics: score.Metrics{
				score.MetricCEU:        4,
				score.MetricAttendance: 1,
			},
			want: 10,
		},
		{
			name: "negative counts are ignored",
			metrics: score.Metrics{
				score.MetricReferrals: -2,
				score.MetricOne21s:    1,
			},
			want: 5,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := computeUserTotal(tc.metrics, pointValues); got != tc.want {
				t.Fatalf("computeUserTotal = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestComputeTeamBonus(t *testing.T) {
	t.Parallel()

	bonusValues := map[string]int{
		score.MetricAttendance: 50,
		score.MetricReferrals:  100,
	}
	categories := score.BonusCategories()

	scores := map[string]score.Metrics{
		"u1": {score.MetricAttendance: 1, score.MetricReferrals: 2},
		"u2": {score.MetricAttendance: 1},
		"u3": {score.MetricAttendance: 1, score.MetricReferrals: 1},
	}

	t.Run("earned only when every member qualifies", func(t *testing.T) {
		t.Parallel()
		got := computeTeamBonus([]string{"u1", "u2", "u3"}, scores, bonusValues, categories)
		if got.BonusPoints != 50 {
			t.Fatalf("BonusPoints = %d, want 50", got.BonusPoints)
		}
		if !reflect.DeepEqual(got.EarnedCategories, []string{score.MetricAttendance}) {
			t.Fatalf("EarnedCategories = %v", got.EarnedCategories)
		}
	})

	t.Run("all categories earned when all members qualify", func(t *testing.T) {
		t.Parallel()
		got := computeTeamBonus([]string{"u1", "u3"}, scores, bonusValues, categories)
		if got.BonusPoints != 150 {
			t.Fatalf("BonusPoints = %d, want 150", got.BonusPoints)
		}
		sort.Strings(got.EarnedCategories)
		want := []string{score.MetricAttendance, score.MetricReferrals}
		sort.Strings(want)
		if !reflect.DeepEqual(got.EarnedCategories, want) {
			t.Fatalf("EarnedCategories = %v, want %v", got.EarnedCategories, want)
		}
	})

	t.Run("member without a score blocks every category", func(t *testing.T) {
		t.Parallel()
		got := computeTeamBonus([]string{"u1", "missing"}, scores, bonusValues, categories)
		if got.BonusPoints != 0 || len(got.EarnedCategories) != 0 {
			t.Fatalf("expected nothing earned, got %+v", got)
		}
	})

	t.Run("zero members earn nothing", func(t *testing.T) {
		t.Parallel()
		got := computeTeamBonus(nil, scores, bonusValues, categories)
		if got.BonusPoints != 0 || len(got.EarnedCategories) != 0 {
			t.Fatalf("vacuous all-members case must not earn, got %+v", got)
		}
	})
}

func TestEligibleTeamMembers(t *testing.T) {
	t.Parallel()

	tm := team.Team{MemberIDs: []string{"u1", "u2", "u3"}}
	sess := session.Session{ExcludedUserIDs: []string{"u2"}}

	got := eligibleTeamMembers(tm, sess)
	if !reflect.DeepEqual(got, []string{"u1", "u3"}) {
		t.Fatalf("eligibleTeamMembers = %v", got)
	}
}

func TestCustomTeamBonus(t *testing.T) {
	t.Parallel()

	sess := session.Session{TeamCustomBonuses: map[string]int{"t1": 25}}
	if got := customTeamBonus(sess, "t1"); got != 25 {
		t.Fatalf("customTeamBonus = %d, want 25", got)
	}
	if got := customTeamBonus(sess, "t2"); got != 0 {
		t.Fatalf("customTeamBonus for unknown team = %d, want 0", got)
	}
	if got := customTeamBonus(session.Session{}, "t1"); got != 0 {
		t.Fatalf("customTeamBonus with no table = %d, want 0", got)
	}
}
