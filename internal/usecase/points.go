package usecase

import (
	"github.com/chapterpoints/chapter-scoring/internal/domain/score"
	"github.com/chapterpoints/chapter-scoring/internal/domain/session"
	"github.com/chapterpoints/chapter-scoring/internal/domain/team"
)

// computeUserTotal is the authoritative weekly total for one member: the sum
// over every metric of count times its configured point value. Metrics with
// no configured value score zero. Stored totals are never trusted; callers
// recompute through this function.
func computeUserTotal(metrics score.Metrics, pointValues map[string]int) int {
	total := 0
	for name, count := range metrics {
		if count <= 0 {
			continue
		}
		value, ok := pointValues[name]
		if !ok {
			continue
		}
		total += count * value
	}
	return total
}

// teamBonusResult is the outcome of the all-in bonus check for one team.
type teamBonusResult struct {
	BonusPoints      int
	EarnedCategories []string
}

// computeTeamBonus awards a category's flat bonus iff every eligible member
// has that category's metric at 1 or more. A team with zero eligible members
// earns nothing; the vacuous all-members case is rejected on purpose.
func computeTeamBonus(eligibleMemberIDs []string, scoresByUser map[string]score.Metrics, bonusValues map[string]int, categories []string) teamBonusResult {
	result := teamBonusResult{EarnedCategories: []string{}}
	if len(eligibleMemberIDs) == 0 {
		return result
	}

	for _, category := range categories {
		bonus, ok := bonusValues[category]
		if !ok || bonus == 0 {
			continue
		}

		earned := true
		for _, memberID := range eligibleMemberIDs {
			metrics, ok := scoresByUser[memberID]
			if !ok || metrics.Get(category) < 1 {
				earned = false
				break
			}
		}
		if earned {
			result.BonusPoints += bonus
			result.EarnedCategories = append(result.EarnedCategories, category)
		}
	}

	return result
}

// eligibleTeamMembers reconciles a team's current roster with the session's
// exclusion list. Excluded members leave both the numerator and the
// denominator of the all-in check.
func eligibleTeamMembers(t team.Team, sess session.Session) []string {
	eligible := make([]string, 0, len(t.MemberIDs))
	for _, memberID := range t.MemberIDs {
		if sess.IsExcluded(memberID) {
			continue
		}
		eligible = append(eligible, memberID)
	}
	return eligible
}

// customTeamBonus returns the session's ad hoc award for a team. Custom
// bonuses bypass the category logic entirely.
func customTeamBonus(sess session.Session, teamID string) int {
	if len(sess.TeamCustomBonuses) == 0 {
		return 0
	}
	return sess.TeamCustomBonuses[teamID]
}
