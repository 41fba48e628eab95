package user

import (
	"fmt"
	"strings"
	"time"
)

type Role string

const (
	RoleAdmin      Role = "admin"
	RoleTeamLeader Role = "team_leader"
	RoleMember     Role = "member"
)

func ParseRole(v string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(v))) {
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleTeamLeader:
		return RoleTeamLeader, nil
	case RoleMember:
		return RoleMember, nil
	default:
		return "", fmt.Errorf("invalid role %q", v)
	}
}

// User is a chapter member participating in the point competition.
type User struct {
	ID        string
	Name      string
	Role      Role
	TeamID    string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (u User) Validate() error {
	if u.ID == "" {
		return fmt.Errorf("user id is required")
	}
	if strings.TrimSpace(u.Name) == "" {
		return fmt.Errorf("user name is required")
	}
	if _, err := ParseRole(string(u.Role)); err != nil {
		return err
	}

	return nil
}

// Principal is the authenticated caller attached to a request context.
type Principal struct {
	UserID string
	Name   string
	Role   Role
}
