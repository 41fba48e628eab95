package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/chapterpoints/chapter-scoring/internal/domain/session"
	qb "github.com/chapterpoints/chapter-scoring/internal/platform/querybuilder"
)

type SessionRepository struct {
	db *sqlx.DB
}

func NewSessionRepository(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) ListBySeason(ctx context.Context, seasonID string) ([]session.Session, error) {
	query, args, err := qb.Select("*").From("sessions").
		Where(qb.Eq("season_id", seasonID)).
		OrderBy("week_number", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select sessions query: %w", err)
	}

	var rows []sessionTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select sessions: %w", err)
	}

	out := make([]session.Session, 0, len(rows))
	for _, row := range rows {
		item, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}

	return out, nil
}

func (r *SessionRepository) GetByID(ctx context.Context, sessionID string) (session.Session, bool, error) {
	query, args, err := qb.Select("*").From("sessions").
		Where(qb.Eq("id", sessionID)).
		ToSQL()
	if err != nil {
		return session.Session{}, false, fmt.Errorf("build get session by id query: %w", err)
	}

	var row sessionTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return session.Session{}, false, nil
		}
		return session.Session{}, false, fmt.Errorf("get session by id: %w", err)
	}

	item, err := row.toDomain()
	if err != nil {
		return session.Session{}, false, err
	}

	return item, true, nil
}

func (r *SessionRepository) Create(ctx context.Context, item session.Session) error {
	customBonuses, err := encodeIntTable(item.TeamCustomBonuses)
	if err != nil {
		return fmt.Errorf("encode team custom bonuses: %w", err)
	}

	insertModel := struct {
		ID                string         `db:"id"`
		SeasonID          string         `db:"season_id"`
		WeekNumber        int            `db:"week_number"`
		Status            string         `db:"status"`
		IsArchived        bool           `db:"is_archived"`
		ExcludedUserIDs   pq.StringArray `db:"excluded_user_ids"`
		TeamCustomBonuses []byte         `db:"team_custom_bonuses"`
	}{
		ID:                item.ID,
		SeasonID:          item.SeasonID,
		WeekNumber:        item.WeekNumber,
		Status:            string(item.Status),
		IsArchived:        item.IsArchived,
		ExcludedUserIDs:   pq.StringArray(item.ExcludedUserIDs),
		TeamCustomBonuses: customBonuses,
	}
	query, args, err := qb.InsertModel("sessions", insertModel, "")
	if err != nil {
		return fmt.Errorf("build insert session query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert session: %w", err)
	}

	return nil
}

func (r *SessionRepository) Update(ctx context.Context, item session.Session) error {
	customBonuses, err := encodeIntTable(item.TeamCustomBonuses)
	if err != nil {
		return fmt.Errorf("encode team custom bonuses: %w", err)
	}

	query, args, err := qb.Update("sessions").
		Set("status", string(item.Status)).
		Set("is_archived", item.IsArchived).
		Set("excluded_user_ids", pq.StringArray(item.ExcludedUserIDs)).
		Set("team_custom_bonuses", customBonuses).
		Set("updated_at", item.UpdatedAt).
		Where(qb.Eq("id", item.ID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update session query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("session %s not found", item.ID)
	}

	return nil
}
