package standing

// LeaderboardEntry is one ranked row of the individual leaderboard.
type LeaderboardEntry struct {
	Position     int
	UserID       string
	Name         string
	TeamID       string
	WeeklyPoints int
}

// TeamStanding is one ranked row of the team standings. WeeklyPoints and
// BonusPoints stay separate fields; the display sums them, storage never does.
type TeamStanding struct {
	Position         int
	TeamID           string
	Name             string
	Color            string
	WeeklyPoints     int
	BonusPoints      int
	EarnedCategories []string
	RevealedMembers  int
	RosterSize       int
}
