package memory

import (
	"time"

	"github.com/chapterpoints/chapter-scoring/internal/domain/score"
	"github.com/chapterpoints/chapter-scoring/internal/domain/season"
	"github.com/chapterpoints/chapter-scoring/internal/domain/session"
	"github.com/chapterpoints/chapter-scoring/internal/domain/settings"
	"github.com/chapterpoints/chapter-scoring/internal/domain/team"
	"github.com/chapterpoints/chapter-scoring/internal/domain/user"
)

const (
	SeasonIDSpring2026 = "season-2026-spring"
	SeasonIDFall2025   = "season-2025-fall"

	SessionIDSpringWeek1 = "session-2026-spring-w1"
	SessionIDFallWeek6   = "session-2025-fall-w6"

	TeamIDRed  = "team-red"
	TeamIDBlue = "team-blue"
)

func SeedSettings() settings.Settings {
	return settings.Settings{
		PointValues: settings.PointValues{
			score.MetricAttendance: 50,
			score.MetricOne21s:     50,
			score.MetricReferrals:  100,
			score.MetricTYFCB:      100,
			score.MetricVisitors:   150,
			score.MetricCEU:        25,
		},
		BonusValues: settings.BonusValues{
			score.MetricAttendance: 200,
			score.MetricOne21s:     200,
			score.MetricReferrals:  300,
			score.MetricTYFCB:      300,
			score.MetricVisitors:   500,
		},
	}
}

func SeedSeasons() []season.Season {
	return []season.Season{
		{
			ID:          SeasonIDSpring2026,
			Name:        "Spring 2026",
			WeekCount:   12,
			CurrentWeek: 1,
			IsActive:    true,
		},
		{
			ID:          SeasonIDFall2025,
			Name:        "Fall 2025",
			WeekCount:   12,
			CurrentWeek: 12,
			IsActive:    false,
		},
	}
}

func SeedSessions() []session.Session {
	return []session.Session{
		{
			ID:         SessionIDSpringWeek1,
			SeasonID:   SeasonIDSpring2026,
			WeekNumber: 1,
			Status:     session.StatusOpen,
		},
		{
			ID:         SessionIDFallWeek6,
			SeasonID:   SeasonIDFall2025,
			WeekNumber: 6,
			Status:     session.StatusClosed,
			IsArchived: true,
		},
	}
}

func SeedTeams() []team.Team {
	return []team.Team{
		{
			ID:           TeamIDRed,
			SeasonID:     SeasonIDSpring2026,
			Name:         "Red Rockets",
			Color:        "#d32f2f",
			TeamLeaderID: "user-lead-red",
			MemberIDs:    []string{"user-lead-red", "user-m1", "user-m2"},
		},
		{
			ID:           TeamIDBlue,
			SeasonID:     SeasonIDSpring2026,
			Name:         "Blue Comets",
			Color:        "#1976d2",
			TeamLeaderID: "user-lead-blue",
			MemberIDs:    []string{"user-lead-blue", "user-m3", "user-m4"},
		},
	}
}

func SeedUsers() []user.User {
	now := time.Date(2026, time.January, 5, 9, 0, 0, 0, time.UTC)
	active := func(id, name string, role user.Role, teamID string) user.User {
		return user.User{
			ID:        id,
			Name:      name,
			Role:      role,
			TeamID:    teamID,
			IsActive:  true,
			CreatedAt: now,
			UpdatedAt: now,
		}
	}

	return []user.User{
		active("user-admin", "Avery Quinn", user.RoleAdmin, ""),
		active("user-lead-red", "Morgan Reyes", user.RoleTeamLeader, TeamIDRed),
		active("user-lead-blue", "Jordan Blake", user.RoleTeamLeader, TeamIDBlue),
		active("user-m1", "Sam Carter", user.RoleMember, TeamIDRed),
		active("user-m2", "Riley Chen", user.RoleMember, TeamIDRed),
		active("user-m3", "Casey Flores", user.RoleMember, TeamIDBlue),
		active("user-m4", "Drew Patel", user.RoleMember, TeamIDBlue),
		active("user-m5", "Alex Novak", user.RoleMember, ""),
		active("user-m6", "Jamie Osei", user.RoleMember, ""),
	}
}
