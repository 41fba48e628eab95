package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/chapterpoints/chapter-scoring/internal/domain/score"
	qb "github.com/chapterpoints/chapter-scoring/internal/platform/querybuilder"
)

type ScoreRepository struct {
	db *sqlx.DB
}

func NewScoreRepository(db *sqlx.DB) *ScoreRepository {
	return &ScoreRepository{db: db}
}

func (r *ScoreRepository) ListBySession(ctx context.Context, sessionID string, publishedOnly bool) ([]score.Score, error) {
	conditions := []qb.Condition{qb.Eq("session_id", sessionID)}
	if publishedOnly {
		conditions = append(conditions, qb.Eq("is_draft", false))
	}

	query, args, err := qb.Select("*").From("scores").
		Where(conditions...).
		OrderBy("user_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select scores query: %w", err)
	}

	return r.selectScores(ctx, query, args)
}

func (r *ScoreRepository) ListBySessions(ctx context.Context, sessionIDs []string, publishedOnly bool) ([]score.Score, error) {
	if len(sessionIDs) == 0 {
		return []score.Score{}, nil
	}

	ids := make([]any, 0, len(sessionIDs))
	for _, id := range sessionIDs {
		ids = append(ids, id)
	}
	conditions := []qb.Condition{qb.In("session_id", ids)}
	if publishedOnly {
		conditions = append(conditions, qb.Eq("is_draft", false))
	}

	query, args, err := qb.Select("*").From("scores").
		Where(conditions...).
		OrderBy("session_id", "user_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select scores by sessions query: %w", err)
	}

	return r.selectScores(ctx, query, args)
}

func (r *ScoreRepository) GetByUserSession(ctx context.Context, userID, sessionID string) (score.Score, bool, error) {
	query, args, err := qb.Select("*").From("scores").
		Where(qb.Eq("user_id", userID), qb.Eq("session_id", sessionID)).
		ToSQL()
	if err != nil {
		return score.Score{}, false, fmt.Errorf("build get score query: %w", err)
	}

	var row scoreTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return score.Score{}, false, nil
		}
		return score.Score{}, false, fmt.Errorf("get score: %w", err)
	}

	item, err := row.toDomain()
	if err != nil {
		return score.Score{}, false, err
	}

	return item, true, nil
}

// Upsert keys on (user_id, session_id). A rewrite replaces metrics, total and
// entered_by and puts the row back in draft; identity and created_at survive.
func (r *ScoreRepository) Upsert(ctx context.Context, item score.Score) error {
	metrics, err := encodeIntTable(item.Metrics)
	if err != nil {
		return fmt.Errorf("encode score metrics: %w", err)
	}

	insertModel := struct {
		ID          string `db:"id"`
		UserID      string `db:"user_id"`
		SessionID   string `db:"session_id"`
		Metrics     []byte `db:"metrics"`
		TotalPoints int    `db:"total_points"`
		IsDraft     bool   `db:"is_draft"`
		EnteredBy   string `db:"entered_by"`
	}{
		ID:          item.ID,
		UserID:      item.UserID,
		SessionID:   item.SessionID,
		Metrics:     metrics,
		TotalPoints: item.TotalPoints,
		IsDraft:     item.IsDraft,
		EnteredBy:   item.EnteredBy,
	}
	suffix := `ON CONFLICT (user_id, session_id) DO UPDATE SET
    metrics = EXCLUDED.metrics,
    total_points = EXCLUDED.total_points,
    is_draft = EXCLUDED.is_draft,
    entered_by = EXCLUDED.entered_by,
    updated_at = NOW()`
	query, args, err := qb.InsertModel("scores", insertModel, suffix)
	if err != nil {
		return fmt.Errorf("build upsert score query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert score: %w", err)
	}

	return nil
}

func (r *ScoreRepository) PublishSession(ctx context.Context, sessionID, publishedBy string, at time.Time) (int, error) {
	query, args, err := qb.Update("scores").
		Set("is_draft", false).
		Set("published_by", publishedBy).
		Set("published_at", at).
		Set("updated_at", at).
		Where(qb.Eq("session_id", sessionID), qb.Eq("is_draft", true)).
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build publish session query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("publish session scores: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected publish session scores: %w", err)
	}

	return int(affected), nil
}

func (r *ScoreRepository) PublishUsers(ctx context.Context, sessionID string, userIDs []string, publishedBy string, at time.Time) (int, error) {
	if len(userIDs) == 0 {
		return 0, nil
	}

	result, err := r.db.ExecContext(ctx, `
UPDATE scores SET
    is_draft = FALSE,
    published_by = $1,
    published_at = $2,
    updated_at = $2
WHERE session_id = $3 AND is_draft = TRUE AND user_id = ANY($4)`,
		publishedBy, at, sessionID, pq.StringArray(userIDs))
	if err != nil {
		return 0, fmt.Errorf("publish user scores: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected publish user scores: %w", err)
	}

	return int(affected), nil
}

func (r *ScoreRepository) selectScores(ctx context.Context, query string, args []any) ([]score.Score, error) {
	var rows []scoreTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select scores: %w", err)
	}

	out := make([]score.Score, 0, len(rows))
	for _, row := range rows {
		item, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}

	return out, nil
}
