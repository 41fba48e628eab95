package postgres

import (
	"fmt"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/lib/pq"

	"github.com/chapterpoints/chapter-scoring/internal/domain/draft"
	"github.com/chapterpoints/chapter-scoring/internal/domain/score"
	"github.com/chapterpoints/chapter-scoring/internal/domain/season"
	"github.com/chapterpoints/chapter-scoring/internal/domain/session"
	"github.com/chapterpoints/chapter-scoring/internal/domain/settings"
	"github.com/chapterpoints/chapter-scoring/internal/domain/team"
	"github.com/chapterpoints/chapter-scoring/internal/domain/user"
)

type userTableModel struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	Role      string    `db:"role"`
	TeamID    string    `db:"team_id"`
	IsActive  bool      `db:"is_active"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (m userTableModel) toDomain() user.User {
	return user.User{
		ID:        m.ID,
		Name:      m.Name,
		Role:      user.Role(m.Role),
		TeamID:    m.TeamID,
		IsActive:  m.IsActive,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

type userInsertModel struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	Role      string    `db:"role"`
	TeamID    string    `db:"team_id"`
	IsActive  bool      `db:"is_active"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

type teamTableModel struct {
	ID           string    `db:"id"`
	SeasonID     string    `db:"season_id"`
	Name         string    `db:"name"`
	Color        string    `db:"color"`
	TeamLeaderID string    `db:"team_leader_id"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

// toDomain leaves MemberIDs empty; rosters are derived from users.team_id by
// the repository.
func (m teamTableModel) toDomain() team.Team {
	return team.Team{
		ID:           m.ID,
		SeasonID:     m.SeasonID,
		Name:         m.Name,
		Color:        m.Color,
		TeamLeaderID: m.TeamLeaderID,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

type seasonTableModel struct {
	ID          string    `db:"id"`
	Name        string    `db:"name"`
	WeekCount   int       `db:"week_count"`
	CurrentWeek int       `db:"current_week"`
	IsActive    bool      `db:"is_active"`
	PointValues []byte    `db:"point_values"`
	BonusValues []byte    `db:"bonus_values"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (m seasonTableModel) toDomain() (season.Season, error) {
	pointValues, err := decodeIntTable[settings.PointValues](m.PointValues)
	if err != nil {
		return season.Season{}, fmt.Errorf("decode season point values: %w", err)
	}
	bonusValues, err := decodeIntTable[settings.BonusValues](m.BonusValues)
	if err != nil {
		return season.Season{}, fmt.Errorf("decode season bonus values: %w", err)
	}

	return season.Season{
		ID:          m.ID,
		Name:        m.Name,
		WeekCount:   m.WeekCount,
		CurrentWeek: m.CurrentWeek,
		IsActive:    m.IsActive,
		PointValues: pointValues,
		BonusValues: bonusValues,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}, nil
}

type sessionTableModel struct {
	ID                string         `db:"id"`
	SeasonID          string         `db:"season_id"`
	WeekNumber        int            `db:"week_number"`
	Status            string         `db:"status"`
	IsArchived        bool           `db:"is_archived"`
	ExcludedUserIDs   pq.StringArray `db:"excluded_user_ids"`
	TeamCustomBonuses []byte         `db:"team_custom_bonuses"`
	CreatedAt         time.Time      `db:"created_at"`
	UpdatedAt         time.Time      `db:"updated_at"`
}

func (m sessionTableModel) toDomain() (session.Session, error) {
	customBonuses, err := decodeIntTable[map[string]int](m.TeamCustomBonuses)
	if err != nil {
		return session.Session{}, fmt.Errorf("decode team custom bonuses: %w", err)
	}

	return session.Session{
		ID:                m.ID,
		SeasonID:          m.SeasonID,
		WeekNumber:        m.WeekNumber,
		Status:            session.Status(m.Status),
		IsArchived:        m.IsArchived,
		ExcludedUserIDs:   append([]string(nil), m.ExcludedUserIDs...),
		TeamCustomBonuses: customBonuses,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}, nil
}

type scoreTableModel struct {
	ID          string     `db:"id"`
	UserID      string     `db:"user_id"`
	SessionID   string     `db:"session_id"`
	Metrics     []byte     `db:"metrics"`
	TotalPoints int        `db:"total_points"`
	IsDraft     bool       `db:"is_draft"`
	EnteredBy   string     `db:"entered_by"`
	PublishedBy string     `db:"published_by"`
	PublishedAt *time.Time `db:"published_at"`
	CreatedAt   time.Time  `db:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at"`
}

func (m scoreTableModel) toDomain() (score.Score, error) {
	metrics, err := decodeIntTable[score.Metrics](m.Metrics)
	if err != nil {
		return score.Score{}, fmt.Errorf("decode score metrics: %w", err)
	}

	return score.Score{
		ID:          m.ID,
		UserID:      m.UserID,
		SessionID:   m.SessionID,
		Metrics:     metrics,
		TotalPoints: m.TotalPoints,
		IsDraft:     m.IsDraft,
		EnteredBy:   m.EnteredBy,
		PublishedBy: m.PublishedBy,
		PublishedAt: m.PublishedAt,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}, nil
}

type settingsTableModel struct {
	ID          int       `db:"id"`
	PointValues []byte    `db:"point_values"`
	BonusValues []byte    `db:"bonus_values"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (m settingsTableModel) toDomain() (settings.Settings, error) {
	pointValues, err := decodeIntTable[settings.PointValues](m.PointValues)
	if err != nil {
		return settings.Settings{}, fmt.Errorf("decode point values: %w", err)
	}
	bonusValues, err := decodeIntTable[settings.BonusValues](m.BonusValues)
	if err != nil {
		return settings.Settings{}, fmt.Errorf("decode bonus values: %w", err)
	}

	return settings.Settings{
		PointValues: pointValues,
		BonusValues: bonusValues,
		UpdatedAt:   m.UpdatedAt,
	}, nil
}

type draftTableModel struct {
	ID                string    `db:"id"`
	SeasonID          string    `db:"season_id"`
	TeamLeaders       []byte    `db:"team_leaders"`
	CurrentPickNumber int       `db:"current_pick_number"`
	Status            string    `db:"status"`
	CreatedAt         time.Time `db:"created_at"`
	UpdatedAt         time.Time `db:"updated_at"`
}

func (m draftTableModel) toDomain() (draft.Draft, error) {
	var leaders []draft.TeamLeaderSlot
	if len(m.TeamLeaders) > 0 {
		if err := sonic.Unmarshal(m.TeamLeaders, &leaders); err != nil {
			return draft.Draft{}, fmt.Errorf("decode draft team leaders: %w", err)
		}
	}

	return draft.Draft{
		ID:                m.ID,
		SeasonID:          m.SeasonID,
		TeamLeaders:       leaders,
		Picks:             []draft.Pick{},
		CurrentPickNumber: m.CurrentPickNumber,
		Status:            draft.Status(m.Status),
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}, nil
}

type draftPickTableModel struct {
	ID         int64     `db:"id"`
	DraftID    string    `db:"draft_id"`
	UserID     string    `db:"user_id"`
	TeamID     string    `db:"team_id"`
	Round      int       `db:"round"`
	PickNumber int       `db:"pick_number"`
	PickedBy   string    `db:"picked_by"`
	PickedAt   time.Time `db:"picked_at"`
}

func (m draftPickTableModel) toDomain() draft.Pick {
	return draft.Pick{
		UserID:     m.UserID,
		TeamID:     m.TeamID,
		Round:      m.Round,
		PickNumber: m.PickNumber,
		PickedBy:   m.PickedBy,
		PickedAt:   m.PickedAt,
	}
}

type draftPickInsertModel struct {
	DraftID    string    `db:"draft_id"`
	UserID     string    `db:"user_id"`
	TeamID     string    `db:"team_id"`
	Round      int       `db:"round"`
	PickNumber int       `db:"pick_number"`
	PickedBy   string    `db:"picked_by"`
	PickedAt   time.Time `db:"picked_at"`
}

func encodeIntTable[M ~map[string]int](table M) ([]byte, error) {
	if table == nil {
		table = make(M)
	}
	return sonic.Marshal(table)
}

func decodeIntTable[M ~map[string]int](raw []byte) (M, error) {
	out := make(M)
	if len(raw) == 0 {
		return out, nil
	}
	if err := sonic.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
