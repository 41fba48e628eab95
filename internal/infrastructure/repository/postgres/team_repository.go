package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/chapterpoints/chapter-scoring/internal/domain/team"
	qb "github.com/chapterpoints/chapter-scoring/internal/platform/querybuilder"
)

// TeamRepository persists teams in postgres. Rosters are not stored on the
// team row; MemberIDs is derived from users.team_id on every read so a draft
// finalize or roster move is visible without a second write path.
type TeamRepository struct {
	db *sqlx.DB
}

func NewTeamRepository(db *sqlx.DB) *TeamRepository {
	return &TeamRepository{db: db}
}

func (r *TeamRepository) ListBySeason(ctx context.Context, seasonID string) ([]team.Team, error) {
	query, args, err := qb.Select("*").From("teams").
		Where(qb.Eq("season_id", seasonID)).
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select teams query: %w", err)
	}

	var rows []teamTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select teams: %w", err)
	}
	if len(rows) == 0 {
		return []team.Team{}, nil
	}

	members, err := r.membersByTeam(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]team.Team, 0, len(rows))
	for _, row := range rows {
		item := row.toDomain()
		item.MemberIDs = members[item.ID]
		out = append(out, item)
	}

	return out, nil
}

func (r *TeamRepository) GetByID(ctx context.Context, teamID string) (team.Team, bool, error) {
	query, args, err := qb.Select("*").From("teams").
		Where(qb.Eq("id", teamID)).
		ToSQL()
	if err != nil {
		return team.Team{}, false, fmt.Errorf("build get team by id query: %w", err)
	}

	var row teamTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return team.Team{}, false, nil
		}
		return team.Team{}, false, fmt.Errorf("get team by id: %w", err)
	}

	item := row.toDomain()
	memberIDs, err := r.teamMemberIDs(ctx, item.ID)
	if err != nil {
		return team.Team{}, false, err
	}
	item.MemberIDs = memberIDs

	return item, true, nil
}

func (r *TeamRepository) Create(ctx context.Context, item team.Team) error {
	insertModel := struct {
		ID           string `db:"id"`
		SeasonID     string `db:"season_id"`
		Name         string `db:"name"`
		Color        string `db:"color"`
		TeamLeaderID string `db:"team_leader_id"`
	}{
		ID:           item.ID,
		SeasonID:     item.SeasonID,
		Name:         item.Name,
		Color:        item.Color,
		TeamLeaderID: item.TeamLeaderID,
	}
	query, args, err := qb.InsertModel("teams", insertModel, "")
	if err != nil {
		return fmt.Errorf("build insert team query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert team: %w", err)
	}

	return nil
}

func (r *TeamRepository) Update(ctx context.Context, item team.Team) error {
	query, args, err := qb.Update("teams").
		Set("name", item.Name).
		Set("color", item.Color).
		Set("team_leader_id", item.TeamLeaderID).
		Set("updated_at", item.UpdatedAt).
		Where(qb.Eq("id", item.ID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update team query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update team: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("team %s not found", item.ID)
	}

	return nil
}

func (r *TeamRepository) membersByTeam(ctx context.Context) (map[string][]string, error) {
	query, args, err := qb.Select("id", "team_id").From("users").
		Where(qb.Expr("team_id <> ''")).
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select team members query: %w", err)
	}

	var rows []struct {
		ID     string `db:"id"`
		TeamID string `db:"team_id"`
	}
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select team members: %w", err)
	}

	members := make(map[string][]string, len(rows))
	for _, row := range rows {
		members[row.TeamID] = append(members[row.TeamID], row.ID)
	}

	return members, nil
}

func (r *TeamRepository) teamMemberIDs(ctx context.Context, teamID string) ([]string, error) {
	query, args, err := qb.Select("id").From("users").
		Where(qb.Eq("team_id", teamID)).
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select team member ids query: %w", err)
	}

	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, args...); err != nil {
		return nil, fmt.Errorf("select team member ids: %w", err)
	}

	return ids, nil
}
